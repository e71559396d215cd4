package spreadsheet

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"roster-server-go/logging"
	"roster-server-go/models"
	"roster-server-go/query"
)

type recordingCreator struct {
	created []*models.StudentRecord
	err     error
}

func (r *recordingCreator) Create(_ context.Context, rec *models.StudentRecord) (*models.StudentRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	rec.SetID(int64(len(r.created) + 1))
	r.created = append(r.created, rec)
	return rec, nil
}

// slicePager serves a fixed slice of students in pages.
type slicePager struct {
	students []*models.StudentRecord
	calls    int
}

func (p *slicePager) FetchPage(_ context.Context, _ query.Filter, pr query.PageRequest) (query.Page[*models.StudentRecord], error) {
	p.calls++
	start := pr.Offset()
	if start > len(p.students) {
		start = len(p.students)
	}
	end := start + pr.Size
	if end > len(p.students) {
		end = len(p.students)
	}
	return query.Page[*models.StudentRecord]{
		Items: p.students[start:end],
		Total: int64(len(p.students)),
		Page:  pr.Page,
		Size:  pr.Size,
	}, nil
}

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportStudents(t *testing.T) {
	buf := workbook(t,
		[]any{"Student ID", "Name", "Age", "Class Name", "Address"},
		[]any{1001, "Alice", 20, "Go 1", "12 Harbour Road"},
		[]any{1002, "Bob", "twenty", "Go 1", ""},
		[]any{},
		[]any{1003, "Charlie", 22, "", ""},
	)
	creator := &recordingCreator{}

	result, err := ImportStudents(context.Background(), buf, creator, logging.Nop())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Row)
	assert.Contains(t, result.Skipped[0].Reason, "age")

	require.Len(t, creator.created, 2)
	alice := creator.created[0]
	assert.Equal(t, 1001, *alice.StudentID)
	assert.Equal(t, "Alice", *alice.Name)
	assert.Equal(t, 20, *alice.Age)
	assert.Equal(t, "Go 1", *alice.ClassName)
	assert.Equal(t, "12 Harbour Road", *alice.Address)

	charlie := creator.created[1]
	assert.Equal(t, "Charlie", *charlie.Name)
	assert.Nil(t, charlie.ClassName)
	assert.Nil(t, charlie.Address)
}

func TestImportStudents_ReorderedHeader(t *testing.T) {
	buf := workbook(t,
		[]any{"name", "age"},
		[]any{"Dana", 31},
	)
	creator := &recordingCreator{}

	result, err := ImportStudents(context.Background(), buf, creator, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, "Dana", *creator.created[0].Name)
	assert.Equal(t, 31, *creator.created[0].Age)
	assert.Nil(t, creator.created[0].StudentID)
}

func TestImportStudents_StoreFailureStops(t *testing.T) {
	buf := workbook(t,
		[]any{"studentId", "name"},
		[]any{1, "A"},
		[]any{2, "B"},
	)
	boom := errors.New("store down")

	result, err := ImportStudents(context.Background(), buf, &recordingCreator{err: boom}, logging.Nop())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "row 2")
	assert.Zero(t, result.Imported)
}

func TestImportStudents_NotAWorkbook(t *testing.T) {
	_, err := ImportStudents(context.Background(), strings.NewReader("name,age\nA,1\n"), &recordingCreator{}, logging.Nop())
	assert.Error(t, err)
}

func TestExportStudents_RoundTrip(t *testing.T) {
	pager := &slicePager{students: []*models.StudentRecord{
		{ID: models.Ptr[int64](1), StudentID: models.Ptr(1001), Name: models.Ptr("Alice"), Age: models.Ptr(20), ClassName: models.Ptr("Go 1")},
		{ID: models.Ptr[int64](2), Name: models.Ptr("Bob"), Address: models.Ptr("4 Mill Lane")},
		{ID: models.Ptr[int64](3), Name: models.Ptr("Charlie"), Age: models.Ptr(22)},
	}}

	var buf bytes.Buffer
	n, err := ExportStudents(context.Background(), &buf, pager, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, pager.calls)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, SheetName, f.GetSheetName(0))

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"1001", "Alice", "20", "Go 1"}, rows[1])

	creator := &recordingCreator{}
	var exported bytes.Buffer
	_, err = ExportStudents(context.Background(), &exported, pager, nil, 10)
	require.NoError(t, err)

	result, err := ImportStudents(context.Background(), &exported, creator, logging.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, "4 Mill Lane", *creator.created[1].Address)
	assert.Nil(t, creator.created[1].Age)
}

func TestExportStudents_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := ExportStudents(context.Background(), &buf, &slicePager{}, nil, 50)
	require.NoError(t, err)
	assert.Zero(t, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
