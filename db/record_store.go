package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"roster-server-go/models"
	"roster-server-go/query"
	"roster-server-go/resource"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// RecordStore keeps one record kind in one table. It implements resource.Store.
type RecordStore[T resource.Record[T]] struct {
	db     *sql.DB
	table  query.Table
	values func(rec T) []any // non-id columns, in table.Columns order
	scan   func(row rowScanner) (T, error)
}

// Table layouts. Sortable keys are wire field names.
var (
	classTable = query.Table{
		Name:     "class_entity",
		Columns:  []string{"id", "class_id", "name"},
		IDColumn: "id",
		Sortable: map[string]string{
			"id":      "id",
			"classId": "class_id",
			"name":    "name",
		},
	}

	studentTable = query.Table{
		Name:     "student",
		Columns:  []string{"id", "student_id", "name", "age", "class_name", "address"},
		IDColumn: "id",
		Sortable: map[string]string{
			"id":        "id",
			"studentId": "student_id",
			"name":      "name",
			"age":       "age",
			"className": "class_name",
			"address":   "address",
		},
	}
)

// NewClassStore returns the store for class records.
func NewClassStore(db *sql.DB) *RecordStore[*models.ClassRecord] {
	return &RecordStore[*models.ClassRecord]{
		db:    db,
		table: classTable,
		values: func(c *models.ClassRecord) []any {
			return []any{intArg(c.ClassID), stringArg(c.Name)}
		},
		scan: func(row rowScanner) (*models.ClassRecord, error) {
			var (
				id      int64
				classID sql.NullInt64
				name    sql.NullString
			)
			if err := row.Scan(&id, &classID, &name); err != nil {
				return nil, err
			}
			return &models.ClassRecord{
				ID:      &id,
				ClassID: intPtr(classID),
				Name:    stringPtr(name),
			}, nil
		},
	}
}

// NewStudentStore returns the store for student records.
func NewStudentStore(db *sql.DB) *RecordStore[*models.StudentRecord] {
	return &RecordStore[*models.StudentRecord]{
		db:    db,
		table: studentTable,
		values: func(s *models.StudentRecord) []any {
			return []any{
				intArg(s.StudentID),
				stringArg(s.Name),
				intArg(s.Age),
				stringArg(s.ClassName),
				stringArg(s.Address),
			}
		},
		scan: func(row rowScanner) (*models.StudentRecord, error) {
			var (
				id        int64
				studentID sql.NullInt64
				name      sql.NullString
				age       sql.NullInt64
				className sql.NullString
				address   sql.NullString
			)
			if err := row.Scan(&id, &studentID, &name, &age, &className, &address); err != nil {
				return nil, err
			}
			return &models.StudentRecord{
				ID:        &id,
				StudentID: intPtr(studentID),
				Name:      stringPtr(name),
				Age:       intPtr(age),
				ClassName: stringPtr(className),
				Address:   stringPtr(address),
			}, nil
		},
	}
}

// Insert writes rec and returns the identity SQLite assigned to it.
func (s *RecordStore[T]) Insert(ctx context.Context, rec T) (int64, error) {
	cols := s.table.Columns[1:]
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table.Name, strings.Join(cols, ", "), placeholders(len(cols)))

	res, err := s.db.ExecContext(ctx, stmt, s.values(rec)...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", s.table.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: read id: %w", s.table.Name, err)
	}
	return id, nil
}

// UpdateFull overwrites every non-id column of row id. Nil fields are stored as NULL.
func (s *RecordStore[T]) UpdateFull(ctx context.Context, id int64, rec T) (T, error) {
	var zero T
	cols := s.table.Columns[1:]
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		s.table.Name, strings.Join(sets, ", "), s.table.IDColumn)

	args := append(s.values(rec), id)
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return zero, fmt.Errorf("update %s %d: %w", s.table.Name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return zero, fmt.Errorf("update %s %d: %w", s.table.Name, id, err)
	}
	if n == 0 {
		return zero, resource.ErrNoRecord
	}

	rec.SetID(id)
	return rec, nil
}

// Exists reports whether row id is present.
func (s *RecordStore[T]) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	stmt := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = ?)", s.table.Name, s.table.IDColumn)
	if err := s.db.QueryRowContext(ctx, stmt, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s %d: %w", s.table.Name, id, err)
	}
	return exists, nil
}

// FindByID loads row id. A missing row is reported with ok=false.
func (s *RecordStore[T]) FindByID(ctx context.Context, id int64) (T, bool, error) {
	var zero T
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(s.table.Columns, ", "), s.table.Name, s.table.IDColumn)

	rec, err := s.scan(s.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("find %s %d: %w", s.table.Name, id, err)
	}
	return rec, true, nil
}

// FindAll returns one page of the rows matching f together with the total match count.
// Both queries run in one transaction so the count agrees with the page.
func (s *RecordStore[T]) FindAll(ctx context.Context, f query.Filter, p query.PageRequest) (query.Page[T], error) {
	stmt, err := query.From(s.table).Filter(f).Paginate(p).Compile()
	if err != nil {
		return query.Page[T]{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return query.Page[T]{}, fmt.Errorf("find all %s: begin: %w", s.table.Name, err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only transaction

	var total int64
	if err := tx.QueryRowContext(ctx, stmt.Count, stmt.CountArgs...).Scan(&total); err != nil {
		return query.Page[T]{}, fmt.Errorf("find all %s: count: %w", s.table.Name, err)
	}

	items := make([]T, 0, p.Size)
	if int64(p.Offset()) < total {
		rows, err := tx.QueryContext(ctx, stmt.Select, stmt.SelectArgs...)
		if err != nil {
			return query.Page[T]{}, fmt.Errorf("find all %s: %w", s.table.Name, err)
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := s.scan(rows)
			if err != nil {
				return query.Page[T]{}, fmt.Errorf("find all %s: scan: %w", s.table.Name, err)
			}
			items = append(items, rec)
		}
		if err := rows.Err(); err != nil {
			return query.Page[T]{}, fmt.Errorf("find all %s: %w", s.table.Name, err)
		}
	}

	return query.Page[T]{
		Items: items,
		Total: total,
		Page:  p.Page,
		Size:  p.Size,
	}, nil
}

// DeleteByID removes row id. Removing a missing row is not an error.
func (s *RecordStore[T]) DeleteByID(ctx context.Context, id int64) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.table.Name, s.table.IDColumn)
	if _, err := s.db.ExecContext(ctx, stmt, id); err != nil {
		return fmt.Errorf("delete %s %d: %w", s.table.Name, id, err)
	}
	return nil
}

// --- Utility ---

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func stringArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
