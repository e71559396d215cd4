package query

import (
	"fmt"
	"math"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order sorts by one wire-level field.
type Order struct {
	Field     string
	Direction Direction
}

// PageRequest selects one page of an ordered result set.
type PageRequest struct {
	Page int // zero based
	Size int
	Sort []Order
}

// Offset is the index of the first record of the page. Page indexes too large to
// address saturate at math.MaxInt, which lies past the last record of any table.
func (p PageRequest) Offset() int {
	if p.Size > 0 && p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Validate checks the page index and size.
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return &InvalidPageError{Field: "page", Message: fmt.Sprintf("page index must not be negative, got %d", p.Page)}
	}
	if p.Size <= 0 {
		return &InvalidPageError{Field: "size", Message: fmt.Sprintf("page size must be positive, got %d", p.Size)}
	}
	return nil
}

// ParseOrder parses the "field" or "field,dir" form used by the sort query parameter.
func ParseOrder(s string) (Order, error) {
	field, dir, hasDir := strings.Cut(s, ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return Order{}, &InvalidPageError{Field: "sort", Message: fmt.Sprintf("empty sort field in %q", s)}
	}
	o := Order{Field: field, Direction: Asc}
	if hasDir {
		switch Direction(strings.ToLower(strings.TrimSpace(dir))) {
		case Asc, "":
		case Desc:
			o.Direction = Desc
		default:
			return Order{}, &InvalidPageError{Field: "sort", Message: fmt.Sprintf("unknown sort direction %q", dir)}
		}
	}
	return o, nil
}

func (o Order) String() string {
	return o.Field + "," + string(o.Direction)
}

// Page is a bounded slice of an ordered, filtered result set plus the total match count.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

// TotalPages is the number of pages needed to hold Total records.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Size) - 1) / int64(p.Size))
}

// HasNext reports whether a page follows this one.
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages()-1
}

// InvalidPageError is returned for malformed pagination or sort input.
type InvalidPageError struct {
	Field   string
	Message string
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
