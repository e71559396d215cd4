package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassRecord_EqualByIdentity(t *testing.T) {
	c1 := &ClassRecord{}
	c1.SetID(1)
	c2 := &ClassRecord{ID: c1.ID, Name: Ptr("different name")}
	assert.True(t, c1.Equal(c2))

	c2.SetID(2)
	assert.False(t, c1.Equal(c2))

	c1.ID = nil
	assert.False(t, c1.Equal(c2))
}

func TestStudentRecord_NilIdentityNeverEqual(t *testing.T) {
	s1 := &StudentRecord{Name: Ptr("Alice")}
	s2 := &StudentRecord{Name: Ptr("Alice")}

	assert.False(t, s1.Equal(s2), "two unsaved records with the same fields")
	assert.True(t, s1.Equal(s1), "a record equals itself")
	assert.False(t, s1.Equal(nil))
}

func TestHash_ConstantPerKind(t *testing.T) {
	s := &StudentRecord{Name: Ptr("Alice")}
	before := s.Hash()
	s.SetID(42)
	s.Age = Ptr(30)
	assert.Equal(t, before, s.Hash(), "hash must not move when the record changes")
	assert.Equal(t, before, (&StudentRecord{}).Hash())

	c := &ClassRecord{}
	assert.Equal(t, c.Hash(), (&ClassRecord{ClassID: Ptr(9)}).Hash())
	assert.NotEqual(t, c.Hash(), s.Hash())
}

func TestClassRecord_MergeFrom(t *testing.T) {
	existing := &ClassRecord{ID: Ptr[int64](5), ClassID: Ptr(1), Name: Ptr("X")}

	existing.MergeFrom(&ClassRecord{ID: Ptr[int64](99), ClassID: Ptr(2)})

	assert.Equal(t, int64(5), *existing.ID, "identity is never merged")
	assert.Equal(t, 2, *existing.ClassID)
	assert.Equal(t, "X", *existing.Name)
}

func TestStudentRecord_MergeFrom(t *testing.T) {
	existing := &StudentRecord{
		ID:        Ptr[int64](3),
		StudentID: Ptr(100),
		Name:      Ptr("Alice"),
		Age:       Ptr(20),
		ClassName: Ptr("Go 1"),
		Address:   Ptr("12 Harbour Road"),
	}

	existing.MergeFrom(&StudentRecord{Age: Ptr(21), Address: Ptr("4 Mill Lane")})

	assert.Equal(t, 100, *existing.StudentID)
	assert.Equal(t, "Alice", *existing.Name)
	assert.Equal(t, 21, *existing.Age)
	assert.Equal(t, "Go 1", *existing.ClassName)
	assert.Equal(t, "4 Mill Lane", *existing.Address)

	existing.MergeFrom(nil)
	assert.Equal(t, 21, *existing.Age)
}

func TestString(t *testing.T) {
	s := &StudentRecord{ID: Ptr[int64](7), Name: Ptr("Bob"), Age: Ptr(21)}
	assert.Equal(t,
		"StudentRecord{id=7, studentId=null, name='Bob', age=21, className=null, address=null}",
		s.String())

	c := &ClassRecord{ClassID: Ptr(3)}
	assert.Equal(t, "ClassRecord{id=null, classId=3, name=null}", c.String())
}
