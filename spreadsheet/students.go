// Package spreadsheet imports and exports student records as .xlsx workbooks.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"roster-server-go/models"
	"roster-server-go/query"
)

// SheetName is the sheet written by ExportStudents.
const SheetName = "Students"

// Header is the column layout used for export and, when the header row is not
// recognised, for import.
var Header = []string{"studentId", "name", "age", "className", "address"}

// StudentCreator persists a new student record.
type StudentCreator interface {
	Create(ctx context.Context, rec *models.StudentRecord) (*models.StudentRecord, error)
}

// StudentPager reads students one page at a time.
type StudentPager interface {
	FetchPage(ctx context.Context, f query.Filter, p query.PageRequest) (query.Page[*models.StudentRecord], error)
}

// RowError describes a spreadsheet row that was not imported.
type RowError struct {
	Row    int    `json:"row"` // 1-based, as shown by spreadsheet programs
	Reason string `json:"reason"`
}

// ImportResult summarises an import.
type ImportResult struct {
	Imported int        `json:"importedCount"`
	Skipped  []RowError `json:"skipped"`
}

// ImportStudents reads the first sheet of an .xlsx workbook and creates one student per
// data row. The first row is the header. Rows that cannot be parsed are skipped and
// reported; a store failure stops the import.
func ImportStudents(ctx context.Context, r io.Reader, creator StudentCreator, logger *slog.Logger) (ImportResult, error) {
	result := ImportResult{Skipped: []RowError{}}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return result, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("error closing excel file", "error", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return result, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return result, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return result, nil
	}

	columns := columnIndex(rows[0])
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		student, err := parseStudentRow(row, columns)
		if err != nil {
			logger.Info("skipping spreadsheet row", "row", rowNum, "reason", err)
			result.Skipped = append(result.Skipped, RowError{Row: rowNum, Reason: err.Error()})
			continue
		}

		if _, err := creator.Create(ctx, student); err != nil {
			return result, fmt.Errorf("row %d: %w", rowNum, err)
		}
		result.Imported++
	}

	logger.Info("imported students", "sheet", sheetName, "imported", result.Imported, "skipped", len(result.Skipped))
	return result, nil
}

// ExportStudents writes every student matching f to w as an .xlsx workbook, reading the
// store batch records at a time in id order. It returns the number of students written.
func ExportStudents(ctx context.Context, w io.Writer, pager StudentPager, filter query.Filter, batch int) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	written := 0
	pr := query.PageRequest{Page: 0, Size: batch, Sort: []query.Order{{Field: "id", Direction: query.Asc}}}
	for {
		page, err := pager.FetchPage(ctx, filter, pr)
		if err != nil {
			return written, err
		}
		for _, s := range page.Items {
			cell, err := excelize.CoordinatesToCellName(1, written+2)
			if err != nil {
				return written, err
			}
			row := studentRow(s)
			if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
				return written, fmt.Errorf("write row %d: %w", written+2, err)
			}
			written++
		}
		if !page.HasNext() {
			break
		}
		pr.Page++
	}

	if err := f.Write(w); err != nil {
		return written, fmt.Errorf("write workbook: %w", err)
	}
	return written, nil
}

// columnIndex maps each known field to its column. Unrecognised headers fall back to
// the Header order.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		key := normalizeHeader(h)
		for _, field := range Header {
			if key == strings.ToLower(field) {
				idx[field] = i
			}
		}
	}
	if len(idx) == 0 {
		for i, field := range Header {
			idx[field] = i
		}
	}
	return idx
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func parseStudentRow(row []string, columns map[string]int) (*models.StudentRecord, error) {
	cell := func(field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	s := &models.StudentRecord{
		Name:      optionalString(cell("name")),
		ClassName: optionalString(cell("className")),
		Address:   optionalString(cell("address")),
	}

	var err error
	if s.StudentID, err = optionalInt(cell("studentId")); err != nil {
		return nil, fmt.Errorf("studentId: %w", err)
	}
	if s.Age, err = optionalInt(cell("age")); err != nil {
		return nil, fmt.Errorf("age: %w", err)
	}
	return s, nil
}

func studentRow(s *models.StudentRecord) []any {
	return []any{
		cellValue(s.StudentID),
		cellValue(s.Name),
		cellValue(s.Age),
		cellValue(s.ClassName),
		cellValue(s.Address),
	}
}

func cellValue[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optionalInt(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%q is not a whole number", v)
	}
	return &n, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
