package cbuild

// Export internal symbols for white-box tests in the cbuild_test package.
var (
	MaxWorkers           = maxWorkers
	DefaultQueueCapacity = defaultQueueCapacity
	PollInterval         = pollInterval
)

// BufferTerminatorOK reports whether the storage byte just past the
// logical content is the NUL terminator.
func BufferTerminatorOK(b *Buffer) bool {
	if b.freed {
		return true
	}

	if cap(b.data) <= len(b.data) {
		return false
	}

	return b.data[:len(b.data)+1][len(b.data)] == 0
}

// SkipEntry exposes the walker's pseudo-entry filter.
var SkipEntry = skipEntry
