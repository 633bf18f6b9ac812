package ast

// Arena is append-only typed storage with 1-based indices; index 0 is the
// reserved "no value" slot for every ID family.
type Arena[T any] struct {
	data []T
}

// NewArena allocates an arena with a capacity hint; zero is allowed.
func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Allocate appends a value and returns its 1-based index.
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	return uint32(len(a.data)) //nolint:gosec // arena growth bounded by source size
}

// Get returns the element at a 1-based index, or nil for index 0.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 {
		return nil
	}
	return &a.data[index-1]
}

// Slice exposes the backing storage read-only.
func (a *Arena[T]) Slice() []T {
	return a.data
}

// Len returns the number of allocated elements.
func (a *Arena[T]) Len() uint32 {
	return uint32(len(a.data)) //nolint:gosec // arena growth bounded by source size
}
