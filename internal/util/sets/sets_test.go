package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New("a", "b")
	s.Add("c")
	s.Delete("a")

	assert.False(t, s.Has("a"))
	assert.True(t, s.Has("b"))
	assert.True(t, s.Has("c"))
	assert.Len(t, s, 2)
}

func TestOrdered_KeepsFirstAppearance(t *testing.T) {
	o := NewOrdered("/b", "/a")
	assert.True(t, o.Add("/c"))
	assert.False(t, o.Add("/b"))

	assert.Equal(t, []string{"/b", "/a", "/c"}, o.Values())
	assert.Equal(t, 3, o.Len())
	assert.True(t, o.Has("/a"))
	assert.False(t, o.Has("/d"))
}

func TestOrdered_ValuesIsCopy(t *testing.T) {
	o := NewOrdered(1, 2)
	vals := o.Values()
	vals[0] = 99

	assert.Equal(t, []int{1, 2}, o.Values())
}
