package cbuild

// ============================================================================
// Buffer: Growable NUL-Terminated Byte Storage
// ============================================================================
//
// Buffer is the memory foundation of this package: every path record,
// rendered command line, and text accumulator is built on it.
//
// MEMORY LAYOUT:
//
// The backing array always reserves one byte past the logical length for a
// NUL terminator, so the content can be handed to C-style consumers and so
// path records packed by Walk stay NUL-separated for free:
//
//	backing array (cap = usable capacity + 1):
//	┌───┬───┬───┬───┬───┬───┬───┬───┬───┬───┬───┬───┐
//	│ m │ a │ i │ n │ . │ c │\0 │ ? │ ? │ ? │ ? │ ? │
//	└───┴───┴───┴───┴───┴───┴───┴───┴───┴───┴───┴───┘
//	  ◄──────── Len()=6 ──────►│◄──── spare ────────►
//	                           └ terminator at data[Len()]
//
// The bookkeeping that a header-prefixed allocation would store before the
// data (length, capacity) lives in the Buffer struct itself; the handle is
// the struct, and the terminator invariant is maintained after every
// mutation.
//
// GROWTH POLICY:
//
// Reallocation adds a fixed slack (BufferSlack) on top of the needed size
// instead of doubling. This bounds worst-case memory overhead for
// long-lived accumulation buffers (path lists grow for the whole walk and
// then live until the caller is done), at the cost of more frequent
// reallocations for rapidly growing buffers. That is a deliberate
// memory-over-speed trade-off; BufferSlack is a tunable, not a contract.
//
// Growth is monotonic: shrinking operations (Pop, Truncate, Trim, Clear,
// Remove) only adjust length and never release storage. Free releases the
// whole allocation at once.
//
// CONTRACTS:
//
// A failed operation never leaves the buffer partially mutated: contract
// violations (out-of-range index, malformed range, use after free) return
// an error with the buffer unchanged, and panic under the cbuilddebug
// build tag. Borrowed views returned by Bytes are invalidated by any
// subsequent mutation or Free.
//
// Buffer is NOT safe for concurrent use. Give each worker its own buffer
// and merge after a [Scheduler.WaitAll] barrier.

// BufferSlack is the fixed number of spare bytes added on top of the
// required size whenever a Buffer reallocates.
//
// A fixed slack (rather than capacity doubling) bounds peak memory for
// long-lived accumulators. Callers with very fast-growing buffers can
// pre-size via [NewBuffer] to skip intermediate reallocations.
const BufferSlack = 512

// Buffer is a growable, length/capacity-tracked byte buffer whose content
// is always followed by a NUL byte in the backing storage.
//
// The zero value is a valid empty buffer. See the package documentation
// and the commentary above for the memory model.
type Buffer struct {
	// data is the logical content. The backing array always has at least
	// one byte of spare capacity holding the terminator at data[Len()]
	// once the buffer has been touched.
	data []byte

	// freed marks the buffer after Free. Mutations on a freed buffer are
	// contract violations.
	freed bool
}

// NewBuffer returns an empty buffer with capacity for at least capacity
// bytes before the first reallocation. capacity <= 0 is treated as 0.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}

	b := &Buffer{data: make([]byte, 0, capacity+1)}
	b.terminate()

	return b
}

// ensure grows the backing storage so at least extra more content bytes
// (plus the terminator) fit without relocation. Existing content is copied
// verbatim; the handle's views must be re-derived by the caller.
func (b *Buffer) ensure(extra int) {
	need := len(b.data) + extra + 1
	if cap(b.data) >= need {
		return
	}

	grown := make([]byte, len(b.data), need+BufferSlack)
	copy(grown, b.data)
	b.data = grown
}

// terminate writes the NUL terminator at data[Len()].
// Callers must have ensured one spare byte of capacity.
func (b *Buffer) terminate() {
	if cap(b.data) == len(b.data) {
		// Zero-value buffer that has never gone through ensure.
		b.ensure(0)
	}

	b.data[:len(b.data)+1][len(b.data)] = 0
}

// Len returns the logical content length in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the usable content capacity in bytes (excluding the byte
// reserved for the terminator). Len() <= Cap() always holds.
func (b *Buffer) Cap() int {
	if cap(b.data) == 0 {
		return 0
	}

	return cap(b.data) - 1
}

// Bytes returns the content as a borrowed view, excluding the terminator.
//
// The view is valid only until the next mutating call or Free.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// String returns an owned copy of the content.
func (b *Buffer) String() string {
	return string(b.data)
}

// Append appends p to the end of the buffer, growing if needed.
func (b *Buffer) Append(p []byte) error {
	if b.freed {
		return contractErr(ErrFreed, "append on freed buffer")
	}

	b.ensure(len(p))
	b.data = append(b.data, p...)
	b.terminate()

	return nil
}

// AppendString appends s to the end of the buffer, growing if needed.
func (b *Buffer) AppendString(s string) error {
	if b.freed {
		return contractErr(ErrFreed, "append on freed buffer")
	}

	b.ensure(len(s))
	b.data = append(b.data, s...)
	b.terminate()

	return nil
}

// Prepend inserts p at the start of the buffer.
func (b *Buffer) Prepend(p []byte) error {
	return b.Insert(p, 0)
}

// Insert inserts p at byte index at, shifting the tail right.
//
// at must be in [0, Len()]; anything else is a reported contract
// violation that leaves the buffer unmodified.
func (b *Buffer) Insert(p []byte, at int) error {
	if b.freed {
		return contractErr(ErrFreed, "insert on freed buffer")
	}

	if at < 0 || at > len(b.data) {
		return contractErr(ErrOutOfRange, "insert at %d, len %d", at, len(b.data))
	}

	if len(p) == 0 {
		return nil
	}

	b.ensure(len(p))

	n := len(b.data)
	b.data = b.data[:n+len(p)]
	// copy is memmove; overlapping tail shift is fine.
	copy(b.data[at+len(p):], b.data[at:n])
	copy(b.data[at:], p)
	b.terminate()

	return nil
}

// Push appends a single byte.
func (b *Buffer) Push(c byte) error {
	if b.freed {
		return contractErr(ErrFreed, "push on freed buffer")
	}

	b.ensure(1)
	b.data = append(b.data, c)
	b.terminate()

	return nil
}

// Pop removes and returns the last byte.
//
// Popping an empty buffer is a reported contract violation.
func (b *Buffer) Pop() (byte, error) {
	if b.freed {
		return 0, contractErr(ErrFreed, "pop on freed buffer")
	}

	if len(b.data) == 0 {
		return 0, contractErr(ErrOutOfRange, "pop on empty buffer")
	}

	c := b.data[len(b.data)-1]
	b.data = b.data[:len(b.data)-1]
	b.terminate()

	return c, nil
}

// Remove deletes the byte at index i, shifting the tail left.
func (b *Buffer) Remove(i int) error {
	if b.freed {
		return contractErr(ErrFreed, "remove on freed buffer")
	}

	if i < 0 || i >= len(b.data) {
		return contractErr(ErrOutOfRange, "remove at %d, len %d", i, len(b.data))
	}

	copy(b.data[i:], b.data[i+1:])
	b.data = b.data[:len(b.data)-1]
	b.terminate()

	return nil
}

// RemoveRange deletes the bytes in [from, to), shifting the tail left.
//
// Requires 0 <= from < to <= Len(). An empty range (from == to) or a range
// past the end is a reported contract violation that leaves the buffer
// unmodified.
func (b *Buffer) RemoveRange(from, to int) error {
	if b.freed {
		return contractErr(ErrFreed, "remove range on freed buffer")
	}

	if from < 0 || from >= to || to > len(b.data) {
		return contractErr(ErrBadRange, "remove range [%d, %d), len %d", from, to, len(b.data))
	}

	copy(b.data[from:], b.data[to:])
	b.data = b.data[:len(b.data)-(to-from)]
	b.terminate()

	return nil
}

// Truncate shrinks the content to at most maxLen bytes. Larger maxLen is a
// no-op; negative maxLen clamps to 0. Capacity is retained.
func (b *Buffer) Truncate(maxLen int) error {
	if b.freed {
		return contractErr(ErrFreed, "truncate on freed buffer")
	}

	if maxLen < 0 {
		maxLen = 0
	}

	if maxLen >= len(b.data) {
		return nil
	}

	b.data = b.data[:maxLen]
	b.terminate()

	return nil
}

// Trim removes the last n bytes, clamping at empty. Capacity is retained.
func (b *Buffer) Trim(n int) error {
	if b.freed {
		return contractErr(ErrFreed, "trim on freed buffer")
	}

	if n <= 0 {
		return nil
	}

	return b.Truncate(len(b.data) - n)
}

// Clear resets the content to empty, retaining capacity for reuse.
func (b *Buffer) Clear() error {
	if b.freed {
		return contractErr(ErrFreed, "clear on freed buffer")
	}

	b.data = b.data[:0]
	b.terminate()

	return nil
}

// Free releases the backing storage.
//
// Ownership of a Buffer belongs to whoever created it; Free must be called
// exactly once, after which every view into the buffer is invalid and
// every further operation is a reported contract violation.
func (b *Buffer) Free() error {
	if b.freed {
		return contractErr(ErrFreed, "double free")
	}

	b.data = nil
	b.freed = true

	return nil
}
