// Package buffer provides the per-stream arrays a format driver reuses
// from one ping to the next.
package buffer

// Growable is a slice whose backing array is reused across pings.
//
// Resize grows the backing array to exactly the requested length when the
// current capacity is too small, and never shrinks it.
//
// A Growable is not safe for concurrent use; it belongs to one stream.
type Growable[T any] struct {
	data []T
	n    int

	// Statistics
	grows int
}

// NewGrowable creates a Growable with the given initial capacity.
func NewGrowable[T any](capacity int) *Growable[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Growable[T]{data: make([]T, capacity)}
}

// Resize sets the logical length to n, reallocating to exactly n elements
// if n exceeds the capacity. Existing elements are not preserved across a
// reallocation; callers overwrite the whole array after resizing.
// Negative n is treated as 0.
func (g *Growable[T]) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(g.data) {
		g.data = make([]T, n)
		g.grows++
	}
	g.n = n
}

// Slice returns the first Len elements. The slice aliases the backing
// array and is valid until the next Resize.
func (g *Growable[T]) Slice() []T {
	return g.data[:g.n]
}

// Len returns the logical length.
func (g *Growable[T]) Len() int {
	return g.n
}

// Cap returns the allocated capacity.
func (g *Growable[T]) Cap() int {
	return len(g.data)
}

// Grows returns how many times Resize reallocated.
func (g *Growable[T]) Grows() int {
	return g.grows
}

// Clear zeroes the logical elements.
func (g *Growable[T]) Clear() {
	clear(g.data[:g.n])
}

// Reset drops the backing array. Used when a stream is closed.
func (g *Growable[T]) Reset() {
	g.data = nil
	g.n = 0
}

// CopyFrom resizes g to src's length and copies src's logical elements.
func (g *Growable[T]) CopyFrom(src *Growable[T]) {
	g.Resize(src.n)
	copy(g.data[:g.n], src.data[:src.n])
}
