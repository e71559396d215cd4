package query

// Criterion is a single optional filter constraint. The zero value is absent.
type Criterion[T any] struct {
	value   T
	present bool
}

// Present returns a criterion constraining results to v.
func Present[T any](v T) Criterion[T] {
	return Criterion[T]{value: v, present: true}
}

// Absent returns a criterion that contributes no constraint.
func Absent[T any]() Criterion[T] {
	return Criterion[T]{}
}

// FromPtr is Present(*v) for a non-nil v and Absent otherwise.
func FromPtr[T any](v *T) Criterion[T] {
	if v == nil {
		return Absent[T]()
	}
	return Present(*v)
}

// Get returns the value and whether the criterion is present.
func (c Criterion[T]) Get() (T, bool) {
	return c.value, c.present
}

// IsPresent reports whether the criterion constrains results.
func (c Criterion[T]) IsPresent() bool {
	return c.present
}

// Filter supplies the predicates of a search. Absent criteria yield no predicate.
type Filter interface {
	Predicates() []Predicate
}

// StudentCriteria are the recognised student search criteria.
type StudentCriteria struct {
	Name Criterion[string] // case-insensitive substring of the student name
	Age  Criterion[int]    // exact age
}

// Predicates returns one predicate per present criterion, in declaration order.
func (c StudentCriteria) Predicates() []Predicate {
	var preds []Predicate
	if name, ok := c.Name.Get(); ok {
		preds = append(preds, ContainsFold{Column: "name", Value: name})
	}
	if age, ok := c.Age.Get(); ok {
		preds = append(preds, Equals{Column: "age", Value: age})
	}
	return preds
}

// IsEmpty reports whether no criterion is present.
func (c StudentCriteria) IsEmpty() bool {
	return !c.Name.IsPresent() && !c.Age.IsPresent()
}
