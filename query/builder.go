package query

import (
	"fmt"
	"strings"
)

// FoldFunc is the SQL function the store registers to case-fold text.
const FoldFunc = "casefold"

// Predicate compiles to a single parameterised boolean SQL expression.
type Predicate interface {
	SQL() (string, []any)
}

// Equals matches rows whose column equals Value exactly.
type Equals struct {
	Column string
	Value  any
}

func (e Equals) SQL() (string, []any) {
	return fmt.Sprintf("%s = ?", e.Column), []any{e.Value}
}

// ContainsFold matches rows whose column contains Value anywhere, ignoring case.
// NULL columns never match.
type ContainsFold struct {
	Column string
	Value  string
}

func (c ContainsFold) SQL() (string, []any) {
	return fmt.Sprintf("instr(%[1]s(%[2]s), %[1]s(?)) > 0", FoldFunc, c.Column), []any{c.Value}
}

// Table describes the columns a query may read and sort by.
type Table struct {
	Name     string
	Columns  []string
	IDColumn string
	// Sortable maps wire field names to columns.
	Sortable map[string]string
}

// Statement is a compiled page query plus the matching count query.
type Statement struct {
	Select     string
	SelectArgs []any
	Count      string
	CountArgs  []any
}

// Builder assembles a paginated SELECT over one table.
//
// Every predicate added is AND-ed onto the whole WHERE expression inside its own
// parentheses, so no predicate can widen the result set of another. Values are always
// bound as parameters.
type Builder struct {
	table Table
	preds []Predicate
	page  PageRequest
}

// From starts a query over t.
func From(t Table) *Builder {
	return &Builder{table: t}
}

// Where adds p to the conjunction. A nil predicate adds nothing.
func (b *Builder) Where(p Predicate) *Builder {
	if p != nil {
		b.preds = append(b.preds, p)
	}
	return b
}

// Filter adds every predicate of f. A nil filter adds nothing.
func (b *Builder) Filter(f Filter) *Builder {
	if f == nil {
		return b
	}
	for _, p := range f.Predicates() {
		b.Where(p)
	}
	return b
}

// Paginate sets the page window and ordering.
func (b *Builder) Paginate(p PageRequest) *Builder {
	b.page = p
	return b
}

// Compile renders the page query and the count query.
func (b *Builder) Compile() (Statement, error) {
	if err := b.page.Validate(); err != nil {
		return Statement{}, err
	}
	orderBy, err := b.orderBy()
	if err != nil {
		return Statement{}, err
	}

	where, args := b.where()

	sel := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?",
		strings.Join(b.table.Columns, ", "), b.table.Name, where, orderBy)
	selArgs := make([]any, 0, len(args)+2)
	selArgs = append(selArgs, args...)
	selArgs = append(selArgs, b.page.Size, b.page.Offset())

	return Statement{
		Select:     sel,
		SelectArgs: selArgs,
		Count:      fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.table.Name, where),
		CountArgs:  args,
	}, nil
}

func (b *Builder) where() (string, []any) {
	if len(b.preds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(b.preds))
	var args []any
	for _, p := range b.preds {
		sql, params := p.SQL()
		parts = append(parts, "("+sql+")")
		args = append(args, params...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// orderBy always ends with the identity column so equal sort keys page stably.
func (b *Builder) orderBy() (string, error) {
	id := b.table.IDColumn
	var parts []string
	hasID := false
	for _, o := range b.page.Sort {
		col, ok := b.table.Sortable[o.Field]
		if !ok {
			return "", &InvalidPageError{Field: "sort", Message: fmt.Sprintf("cannot sort %s by %q", b.table.Name, o.Field)}
		}
		dir := "ASC"
		if o.Direction == Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
		if col == id {
			hasID = true
			break
		}
	}
	if !hasID {
		parts = append(parts, id+" ASC")
	}
	return strings.Join(parts, ", "), nil
}
