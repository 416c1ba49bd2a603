package cbuild

// Worker identifies the pool worker executing a [JobFunc] and provides
// job-scoped scratch memory.
//
// Use [Worker.ID] to index caller-owned per-worker state without locks:
// IDs are zero-based (0..workers-1) and stable for the scheduler's
// lifetime.
type Worker struct {
	// id is stable for this worker for the scheduler's lifetime.
	id int

	// scratchSlots are reusable per-worker buffers handed out by Scratch.
	// Slots grow to the largest size ever requested and are reused across
	// jobs on this worker.
	scratchSlots [][]byte

	// nextScratch is the slot index for the current job's next Scratch
	// call. Reset before each job.
	nextScratch int
}

// ID returns this worker's identity.
//
// IDs are unique within a scheduler and stable until it closes. Use them
// to index per-worker accumulators without synchronization, merging after
// [Scheduler.WaitAll].
func (w *Worker) ID() int {
	return w.id
}

// Scratch returns a job-scoped scratch buffer with len=0 and cap>=size.
//
// The returned slice is valid only until the current job returns; the next
// job on this worker reuses the same storage. Multiple calls within one
// job are safe: each call consumes the next slot, so earlier results stay
// valid for the rest of the job.
//
// A slot stays at least as large as the largest size ever requested for it
// on this worker, so steady-state jobs allocate nothing.
//
// size <= 0 is treated as 0.
func (w *Worker) Scratch(size int) []byte {
	slot := w.nextScratch
	w.nextScratch++

	return w.scratchAt(slot, size)
}

// scratchAt returns the requested slot with len=0 and cap>=size, creating
// or growing it as needed.
func (w *Worker) scratchAt(slot, size int) []byte {
	if size < 0 {
		size = 0
	}

	if slot >= len(w.scratchSlots) {
		growBy := slot - len(w.scratchSlots) + 1
		w.scratchSlots = append(w.scratchSlots, make([][]byte, growBy)...)
	}

	buf := w.scratchSlots[slot]
	if cap(buf) < size {
		buf = make([]byte, 0, size)
		w.scratchSlots[slot] = buf
	}

	return buf[:0]
}

// beginJob resets per-job scratch state before a callback runs.
func (w *Worker) beginJob() {
	w.nextScratch = 0
}
