package query

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studentTable = Table{
	Name:     "student",
	Columns:  []string{"id", "student_id", "name", "age", "class_name", "address"},
	IDColumn: "id",
	Sortable: map[string]string{
		"id":        "id",
		"name":      "name",
		"age":       "age",
		"className": "class_name",
	},
}

func assertGolden(t *testing.T, name string, stmt Statement) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(stmt.Select+"\n"+stmt.Count+"\n"))
}

func TestCompile_NameAndAge(t *testing.T) {
	crit := StudentCriteria{Name: Present("Ali"), Age: Present(20)}

	stmt, err := From(studentTable).
		Filter(crit).
		Paginate(PageRequest{Page: 0, Size: 20, Sort: []Order{{Field: "age", Direction: Desc}}}).
		Compile()
	require.NoError(t, err)

	assertGolden(t, "student_name_and_age", stmt)
	assert.Equal(t, []any{"Ali", 20}, stmt.CountArgs)
	assert.Equal(t, []any{"Ali", 20, 20, 0}, stmt.SelectArgs)
}

func TestCompile_Unfiltered(t *testing.T) {
	stmt, err := From(studentTable).
		Filter(StudentCriteria{}).
		Paginate(PageRequest{Page: 2, Size: 10}).
		Compile()
	require.NoError(t, err)

	assertGolden(t, "student_unfiltered", stmt)
	assert.Empty(t, stmt.CountArgs)
	assert.Equal(t, []any{10, 20}, stmt.SelectArgs)
}

func TestCompile_EmptyCriteriaMatchesNilFilter(t *testing.T) {
	page := PageRequest{Page: 1, Size: 5, Sort: []Order{{Field: "name", Direction: Asc}}}

	withEmpty, err := From(studentTable).Filter(StudentCriteria{}).Paginate(page).Compile()
	require.NoError(t, err)
	withNil, err := From(studentTable).Filter(nil).Paginate(page).Compile()
	require.NoError(t, err)

	assert.Equal(t, withNil, withEmpty)
}

func TestCompile_NeverEmitsOr(t *testing.T) {
	cases := []StudentCriteria{
		{},
		{Name: Present("a")},
		{Age: Present(3)},
		{Name: Present("a"), Age: Present(3)},
	}
	for _, crit := range cases {
		stmt, err := From(studentTable).Filter(crit).Paginate(PageRequest{Size: 1}).Compile()
		require.NoError(t, err)
		assert.NotContains(t, stmt.Select, " OR ")
		assert.NotContains(t, stmt.Select, "IS NULL")
		assert.Equal(t, len(crit.Predicates()), strings.Count(stmt.Count, "?"), "one bound value per present criterion")
	}
}

func TestCompile_PredicatesAreParenthesised(t *testing.T) {
	stmt, err := From(studentTable).
		Where(Equals{Column: "age", Value: 20}).
		Where(nil).
		Where(ContainsFold{Column: "name", Value: "x"}).
		Paginate(PageRequest{Size: 10}).
		Compile()
	require.NoError(t, err)

	assert.Contains(t, stmt.Count, "WHERE (age = ?) AND (instr(casefold(name), casefold(?)) > 0)")
	assert.Equal(t, []any{20, "x"}, stmt.CountArgs)
}

func TestCompile_ValuesAreNeverInterpolated(t *testing.T) {
	stmt, err := From(studentTable).
		Filter(StudentCriteria{Name: Present("'; DROP TABLE student; --")}).
		Paginate(PageRequest{Size: 10}).
		Compile()
	require.NoError(t, err)
	assert.NotContains(t, stmt.Select, "DROP")
}

func TestCompile_OrderBy(t *testing.T) {
	tests := []struct {
		name string
		sort []Order
		want string
	}{
		{"default", nil, "ORDER BY id ASC LIMIT"},
		{"tiebreak appended", []Order{{Field: "className", Direction: Asc}}, "ORDER BY class_name ASC, id ASC LIMIT"},
		{"id already present", []Order{{Field: "id", Direction: Desc}}, "ORDER BY id DESC LIMIT"},
		{"multiple", []Order{{Field: "age", Direction: Desc}, {Field: "name", Direction: Asc}}, "ORDER BY age DESC, name ASC, id ASC LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := From(studentTable).Paginate(PageRequest{Size: 10, Sort: tt.sort}).Compile()
			require.NoError(t, err)
			assert.Contains(t, stmt.Select, tt.want)
		})
	}
}

func TestCompile_RejectsUnknownSortField(t *testing.T) {
	_, err := From(studentTable).
		Paginate(PageRequest{Size: 10, Sort: []Order{{Field: "password", Direction: Asc}}}).
		Compile()

	var pe *InvalidPageError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "sort", pe.Field)
}

func TestCompile_RejectsBadPage(t *testing.T) {
	_, err := From(studentTable).Paginate(PageRequest{Page: -1, Size: 10}).Compile()
	require.Error(t, err)

	_, err = From(studentTable).Paginate(PageRequest{Page: 0, Size: 0}).Compile()
	require.Error(t, err)
}
