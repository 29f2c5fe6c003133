// Package sets provides small generic set types.
package sets

// Set is a simple generic hash set for comparable keys.
// Usage: s := sets.New[string]("a","b"); s.Add("c"); if s.Has("b") {...}
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Delete removes v if present.
func (s Set[T]) Delete(v T) { delete(s, v) }

// Ordered is a set that remembers the order in which values were first added.
// Re-adding a value keeps its original position.
type Ordered[T comparable] struct {
	index map[T]int
	order []T
}

// NewOrdered creates an ordered set pre-populated with vals.
func NewOrdered[T comparable](vals ...T) *Ordered[T] {
	o := &Ordered[T]{index: make(map[T]int, len(vals))}
	for _, v := range vals {
		o.Add(v)
	}
	return o
}

// Add inserts v at the end unless it is already present. It reports whether v was new.
func (o *Ordered[T]) Add(v T) bool {
	if _, ok := o.index[v]; ok {
		return false
	}
	o.index[v] = len(o.order)
	o.order = append(o.order, v)
	return true
}

// Has returns true if v is present.
func (o *Ordered[T]) Has(v T) bool {
	_, ok := o.index[v]
	return ok
}

// Len returns the number of values.
func (o *Ordered[T]) Len() int { return len(o.order) }

// Values returns a copy of the values in insertion order.
func (o *Ordered[T]) Values() []T {
	out := make([]T, len(o.order))
	copy(out, o.order)
	return out
}
