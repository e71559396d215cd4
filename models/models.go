package models

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Record kinds, used in error messages, alert headers and cache keys.
const (
	KindClass   = "classEntity"
	KindStudent = "student"
)

var (
	classRecordHash   = kindHash(KindClass)
	studentRecordHash = kindHash(KindStudent)
)

// ClassRecord represents a class
type ClassRecord struct {
	ID      *int64  `json:"id"`      // Store-assigned identity, nil until first insert
	ClassID *int    `json:"classId"` // Caller-supplied class number, not unique
	Name    *string `json:"name"`    // Class name
}

// StudentRecord represents a student
type StudentRecord struct {
	ID        *int64  `json:"id"`        // Store-assigned identity, nil until first insert
	StudentID *int    `json:"studentId"` // Student number
	Name      *string `json:"name"`      // Student name
	Age       *int    `json:"age"`
	ClassName *string `json:"className"` // Name of the class the student attends; not a foreign key
	Address   *string `json:"address"`
}

// Ptr returns a pointer to v. Handy for building records with optional fields.
func Ptr[T any](v T) *T {
	return &v
}

// --- ClassRecord ---

// GetID returns the store-assigned identity, or nil before persistence.
func (c *ClassRecord) GetID() *int64 { return c.ID }

// SetID assigns the identity.
func (c *ClassRecord) SetID(id int64) { c.ID = &id }

// MergeFrom copies every non-nil field of patch onto c. The identity is never touched.
func (c *ClassRecord) MergeFrom(patch *ClassRecord) {
	if patch == nil {
		return
	}
	if patch.ClassID != nil {
		c.ClassID = patch.ClassID
	}
	if patch.Name != nil {
		c.Name = patch.Name
	}
}

// Equal reports whether c and o denote the same stored class.
// Records without an identity are only equal to themselves.
func (c *ClassRecord) Equal(o *ClassRecord) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil || c.ID == nil || o.ID == nil {
		return false
	}
	return *c.ID == *o.ID
}

// Hash is constant for the kind so a record keeps its bucket while its identity is assigned.
func (c *ClassRecord) Hash() uint64 { return classRecordHash }

func (c *ClassRecord) String() string {
	return fmt.Sprintf("ClassRecord{id=%s, classId=%s, name=%s}",
		fmtInt64(c.ID), fmtInt(c.ClassID), fmtString(c.Name))
}

// --- StudentRecord ---

// GetID returns the store-assigned identity, or nil before persistence.
func (s *StudentRecord) GetID() *int64 { return s.ID }

// SetID assigns the identity.
func (s *StudentRecord) SetID(id int64) { s.ID = &id }

// MergeFrom copies every non-nil field of patch onto s. The identity is never touched.
func (s *StudentRecord) MergeFrom(patch *StudentRecord) {
	if patch == nil {
		return
	}
	if patch.StudentID != nil {
		s.StudentID = patch.StudentID
	}
	if patch.Name != nil {
		s.Name = patch.Name
	}
	if patch.Age != nil {
		s.Age = patch.Age
	}
	if patch.ClassName != nil {
		s.ClassName = patch.ClassName
	}
	if patch.Address != nil {
		s.Address = patch.Address
	}
}

// Equal reports whether s and o denote the same stored student.
// Records without an identity are only equal to themselves.
func (s *StudentRecord) Equal(o *StudentRecord) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || s.ID == nil || o.ID == nil {
		return false
	}
	return *s.ID == *o.ID
}

// Hash is constant for the kind so a record keeps its bucket while its identity is assigned.
func (s *StudentRecord) Hash() uint64 { return studentRecordHash }

func (s *StudentRecord) String() string {
	return fmt.Sprintf("StudentRecord{id=%s, studentId=%s, name=%s, age=%s, className=%s, address=%s}",
		fmtInt64(s.ID), fmtInt(s.StudentID), fmtString(s.Name), fmtInt(s.Age),
		fmtString(s.ClassName), fmtString(s.Address))
}

// --- Utility ---

func kindHash(kind string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(kind)))
	return h.Sum64()
}

func fmtInt64(v *int64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(*v)
}

func fmtInt(v *int) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(*v)
}

func fmtString(v *string) string {
	if v == nil {
		return "null"
	}
	return "'" + *v + "'"
}
