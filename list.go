package cbuild

// List is the typed-element counterpart of [Buffer]: a growable,
// length/capacity-tracked array of homogeneous fixed-stride elements.
//
// It shares Buffer's rules: fixed-slack growth (ListSlack elements per
// reallocation instead of doubling), monotonic capacity within a lifetime,
// contract-violation reporting that leaves the list unmodified, and no
// concurrency safety. Unlike Buffer there is no terminator; the element
// storage is not NUL-terminated.
//
// The element stride that a header-prefixed allocation would record is
// carried by the type parameter: the compiler knows the stride, so the
// handle only tracks length and capacity.
//
// The zero value is a valid empty list.
type List[T any] struct {
	items []T
	freed bool
}

// ListSlack is the fixed number of spare elements added on top of the
// required size whenever a List reallocates. Like [BufferSlack], this is a
// tunable memory-over-speed trade-off, not a contract.
const ListSlack = 32

// NewList returns an empty list with capacity for at least capacity
// elements before the first reallocation. capacity <= 0 is treated as 0.
func NewList[T any](capacity int) *List[T] {
	if capacity < 0 {
		capacity = 0
	}

	return &List[T]{items: make([]T, 0, capacity)}
}

// ensure grows the backing storage so at least extra more elements fit
// without relocation.
func (l *List[T]) ensure(extra int) {
	need := len(l.items) + extra
	if cap(l.items) >= need {
		return
	}

	grown := make([]T, len(l.items), need+ListSlack)
	copy(grown, l.items)
	l.items = grown
}

// Len returns the element count.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Cap returns the element capacity. Len() <= Cap() always holds.
func (l *List[T]) Cap() int {
	return cap(l.items)
}

// Items returns the elements as a borrowed view, valid only until the next
// mutating call or Free.
func (l *List[T]) Items() []T {
	return l.items
}

// At returns the element at index i.
func (l *List[T]) At(i int) (T, error) {
	var zero T

	if i < 0 || i >= len(l.items) {
		return zero, contractErr(ErrOutOfRange, "at %d, len %d", i, len(l.items))
	}

	return l.items[i], nil
}

// Push appends item to the end of the list.
func (l *List[T]) Push(item T) error {
	if l.freed {
		return contractErr(ErrFreed, "push on freed list")
	}

	l.ensure(1)
	l.items = append(l.items, item)

	return nil
}

// Append appends items to the end of the list.
func (l *List[T]) Append(items []T) error {
	if l.freed {
		return contractErr(ErrFreed, "append on freed list")
	}

	l.ensure(len(items))
	l.items = append(l.items, items...)

	return nil
}

// Insert inserts items at element index at, shifting the tail right.
//
// at must be in [0, Len()].
func (l *List[T]) Insert(items []T, at int) error {
	if l.freed {
		return contractErr(ErrFreed, "insert on freed list")
	}

	if at < 0 || at > len(l.items) {
		return contractErr(ErrOutOfRange, "insert at %d, len %d", at, len(l.items))
	}

	if len(items) == 0 {
		return nil
	}

	l.ensure(len(items))

	n := len(l.items)
	l.items = l.items[:n+len(items)]
	copy(l.items[at+len(items):], l.items[at:n])
	copy(l.items[at:], items)

	return nil
}

// Pop removes and returns the last element.
func (l *List[T]) Pop() (T, error) {
	var zero T

	if l.freed {
		return zero, contractErr(ErrFreed, "pop on freed list")
	}

	if len(l.items) == 0 {
		return zero, contractErr(ErrOutOfRange, "pop on empty list")
	}

	item := l.items[len(l.items)-1]
	// Clear the vacated slot so the backing array drops its reference.
	l.items[len(l.items)-1] = zero
	l.items = l.items[:len(l.items)-1]

	return item, nil
}

// Remove deletes the element at index i, shifting the tail left.
func (l *List[T]) Remove(i int) error {
	if l.freed {
		return contractErr(ErrFreed, "remove on freed list")
	}

	if i < 0 || i >= len(l.items) {
		return contractErr(ErrOutOfRange, "remove at %d, len %d", i, len(l.items))
	}

	var zero T

	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = zero
	l.items = l.items[:len(l.items)-1]

	return nil
}

// RemoveRange deletes the elements in [from, to), shifting the tail left.
//
// Requires 0 <= from < to <= Len(); anything else is a reported contract
// violation that leaves the list unmodified.
func (l *List[T]) RemoveRange(from, to int) error {
	if l.freed {
		return contractErr(ErrFreed, "remove range on freed list")
	}

	if from < 0 || from >= to || to > len(l.items) {
		return contractErr(ErrBadRange, "remove range [%d, %d), len %d", from, to, len(l.items))
	}

	var zero T

	copy(l.items[from:], l.items[to:])
	for i := len(l.items) - (to - from); i < len(l.items); i++ {
		l.items[i] = zero
	}

	l.items = l.items[:len(l.items)-(to-from)]

	return nil
}

// Truncate shrinks the list to at most maxLen elements. Larger maxLen is a
// no-op; negative maxLen clamps to 0. Capacity is retained.
func (l *List[T]) Truncate(maxLen int) error {
	if l.freed {
		return contractErr(ErrFreed, "truncate on freed list")
	}

	if maxLen < 0 {
		maxLen = 0
	}

	if maxLen >= len(l.items) {
		return nil
	}

	var zero T
	for i := maxLen; i < len(l.items); i++ {
		l.items[i] = zero
	}

	l.items = l.items[:maxLen]

	return nil
}

// Clear resets the list to empty, retaining capacity for reuse.
func (l *List[T]) Clear() error {
	return l.Truncate(0)
}

// Free releases the backing storage. Must be called exactly once by the
// owner; further operations are reported contract violations.
func (l *List[T]) Free() error {
	if l.freed {
		return contractErr(ErrFreed, "double free")
	}

	l.items = nil
	l.freed = true

	return nil
}
