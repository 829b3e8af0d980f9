package arena

import "unsafe"

// Table is a growable table of T, addressed by index. Its storage is
// metered against an arena, it is released as a whole with Free.
type Table[T any] struct {
	arena *Arena
	items []T
	size  int // metered bytes
}

// NewTable creates a table metered against a. Initial capacity is a hint.
func NewTable[T any](a *Arena, capacity int) *Table[T] {
	t := &Table[T]{arena: a}
	if capacity > 0 {
		t.items = make([]T, 0, capacity)
		t.remeter()
	}
	return t
}

// Add appends v and returns its index.
func (t *Table[T]) Add(v T) int {
	c := cap(t.items)
	t.items = append(t.items, v)
	if cap(t.items) != c {
		t.remeter()
	}
	return len(t.items) - 1
}

// At returns a pointer to item i. Pointers are invalidated by a subsequent
// Add that grows the table.
func (t *Table[T]) At(i int) *T {
	return &t.items[i]
}

// Len returns the number of items.
func (t *Table[T]) Len() int {
	return len(t.items)
}

// Items returns the items as a slice, valid until the next Add.
func (t *Table[T]) Items() []T {
	return t.items
}

// Free drops all items and returns the metered storage to the arena.
func (t *Table[T]) Free() {
	t.items = nil
	t.remeter()
}

func (t *Table[T]) remeter() {
	var zero T
	size := cap(t.items) * int(unsafe.Sizeof(zero))
	if t.arena != nil {
		t.arena.meter(size - t.size)
	}
	t.size = size
}
