package cbuild

// ============================================================================
// Scheduler: Bounded Concurrent Job Execution
// ============================================================================
//
// A fixed pool of workers drains a fixed-capacity FIFO queue of callbacks.
// The scheduler parallelizes work such as directory scanning (see
// WalkParallel) but is independent of what the jobs do.
//
// QUEUE MODEL:
//
// The queue is a buffered channel sized to the configured capacity, which
// gives FIFO submission order and multi-producer/multi-consumer handoff
// with the language's own memory-ordering guarantees. Admission is guarded
// by a separate atomic `pending` counter (jobs queued or in-flight):
//
//	TryEnqueue:  reserve a slot (CAS pending, refuse at capacity)
//	             └─► send on the channel (never blocks: buffered jobs
//	                 can never exceed reserved slots)
//	worker:      receive ─► run callback ─► pending--
//
// `pending <= capacity` holds at every observable point, and TryEnqueue
// never blocks: a full queue is a recoverable, reported condition. Enqueue
// is the opt-in bounded wait, polling at a fixed granularity.
//
// ORDERING:
//
// Jobs are handed to workers in FIFO submission order, but completion
// order across workers is unspecified. Only WaitAll is a total barrier;
// never assume job B finished before job A just because A was submitted
// first.
//
// FAILURE:
//
// The scheduler has no job-level error channel and never retries. A
// callback that fails must record the failure in state it captured
// (typically a params struct merged after WaitAll).

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// JobFunc is a unit of work submitted to a [Scheduler].
//
// The callback runs synchronously on one worker. Parameters travel via the
// closure; the scheduler never inspects them. Once enqueued a job is
// immutable and cannot be cancelled: it runs to completion.
//
// w identifies the executing worker and provides job-scoped scratch
// buffers. Panics in callbacks are not recovered.
type JobFunc func(w *Worker)

// Scheduler executes callbacks across a fixed pool of workers with a
// bounded FIFO queue and explicit drain points.
//
// Create one with [NewScheduler]. The pool starts lazily on the first
// enqueue; worker identities are stable zero-based integers for the
// scheduler's lifetime. Scheduler is safe for concurrent use.
type Scheduler struct {
	workers  int
	capacity int
	log      Logger

	// mu guards the start/close transitions only; the hot enqueue path is
	// atomics plus a channel send.
	mu      sync.Mutex
	started bool

	closed atomic.Bool

	jobs chan JobFunc

	// pending counts jobs queued or in-flight. Admission control keeps it
	// at or below capacity.
	pending atomic.Int64

	// completed counts finished jobs; WaitNext observes its movement.
	completed atomic.Uint64

	wg sync.WaitGroup
}

// NewScheduler returns an unstarted scheduler.
//
// Accepted options: [WithWorkers], [WithQueueCapacity], [WithLogger].
// Worker counts are clamped to [1, 16]; queue capacity defaults to 256 and
// is never smaller than the worker count.
func NewScheduler(opts ...Option) *Scheduler {
	cfg := applyOptions(opts)

	return &Scheduler{
		workers:  cfg.Workers,
		capacity: max(cfg.QueueCapacity, cfg.Workers),
		log:      cfg.Logger,
	}
}

// Workers returns the worker pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Pending returns the number of jobs queued or in-flight.
func (s *Scheduler) Pending() int {
	return int(s.pending.Load())
}

// ensureStarted lazily allocates the queue and spawns the worker pool on
// first use.
func (s *Scheduler) ensureStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	s.jobs = make(chan JobFunc, s.capacity)
	s.wg.Add(s.workers)

	for id := 0; id < s.workers; id++ {
		go s.runWorker(id)
	}

	s.started = true

	if s.log != nil {
		s.log.Logf(LevelDebug, "scheduler started: %d workers, queue capacity %d", s.workers, s.capacity)
	}
}

func (s *Scheduler) runWorker(id int) {
	defer s.wg.Done()

	w := &Worker{id: id}

	for job := range s.jobs {
		w.beginJob()
		job(w)

		s.pending.Add(-1)
		s.completed.Add(1)
	}
}

// TryEnqueue submits job without blocking.
//
// Returns nil on success, [ErrQueueFull] when pending jobs have reached
// queue capacity, or [ErrClosed] after [Scheduler.Close]. A full queue is
// recoverable; retrying, waiting ([Scheduler.Enqueue]), or dropping is the
// caller's choice.
func (s *Scheduler) TryEnqueue(job JobFunc) error {
	if job == nil {
		return contractErr(ErrOutOfRange, "nil job")
	}

	if s.closed.Load() {
		return ErrClosed
	}

	s.ensureStarted()

	// Reserve a queue slot. CAS keeps pending <= capacity under any
	// producer interleaving.
	for {
		p := s.pending.Load()
		if p >= int64(s.capacity) {
			return ErrQueueFull
		}

		if s.pending.CompareAndSwap(p, p+1) {
			break
		}
	}

	// Close may have raced with the reservation; it waits for pending to
	// drain, so undoing the reservation here keeps the handoff safe.
	if s.closed.Load() {
		s.pending.Add(-1)

		return ErrClosed
	}

	// Buffered jobs never exceed reserved slots, so this send cannot
	// block.
	s.jobs <- job

	return nil
}

// Enqueue submits job, waiting up to timeout for queue capacity.
//
// It polls at a fixed granularity; timeout <= 0 waits indefinitely.
// Returns [ErrTimeout] if capacity never freed up within the budget.
func (s *Scheduler) Enqueue(job JobFunc, timeout time.Duration) error {
	deadline := pollDeadline(timeout)

	for {
		err := s.TryEnqueue(job)
		if err == nil || err != ErrQueueFull {
			return err
		}

		if deadlineExceeded(deadline) {
			return fmt.Errorf("enqueue: %w", ErrTimeout)
		}

		time.Sleep(pollInterval)
	}
}

// WaitNext blocks until at least one in-flight job completes, the
// scheduler is already idle, or timeout elapses.
//
// timeout <= 0 waits indefinitely. Returns [ErrTimeout] when the budget
// elapses first.
func (s *Scheduler) WaitNext(timeout time.Duration) error {
	if s.pending.Load() == 0 {
		return nil
	}

	deadline := pollDeadline(timeout)
	start := s.completed.Load()

	for {
		if s.completed.Load() != start || s.pending.Load() == 0 {
			return nil
		}

		if deadlineExceeded(deadline) {
			return fmt.Errorf("wait next: %w", ErrTimeout)
		}

		time.Sleep(pollInterval)
	}
}

// WaitAll blocks until no jobs are queued or in-flight, or timeout
// elapses.
//
// timeout <= 0 waits indefinitely. A nil return is a total ordering
// barrier: every job enqueued before the call has completed.
func (s *Scheduler) WaitAll(timeout time.Duration) error {
	deadline := pollDeadline(timeout)

	for {
		if s.pending.Load() == 0 {
			return nil
		}

		if deadlineExceeded(deadline) {
			return fmt.Errorf("wait all: %w", ErrTimeout)
		}

		time.Sleep(pollInterval)
	}
}

// Close drains queued jobs and stops the worker pool.
//
// New enqueues are refused with [ErrClosed] immediately; already-accepted
// jobs run to completion. Close blocks until the pool has exited and is
// safe to call once; further calls are no-ops.
func (s *Scheduler) Close() {
	if s.closed.Swap(true) {
		return
	}

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		return
	}

	// Enqueues that raced past the closed check hold a pending
	// reservation; waiting for zero ensures no send follows the close.
	for s.pending.Load() > 0 {
		time.Sleep(pollInterval)
	}

	close(s.jobs)
	s.wg.Wait()

	if s.log != nil {
		s.log.Logf(LevelDebug, "scheduler closed: %d jobs completed", s.completed.Load())
	}
}

// pollDeadline converts a timeout budget into an absolute deadline.
// Zero time means no deadline.
func pollDeadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}

	return time.Now().Add(timeout)
}

func deadlineExceeded(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}
