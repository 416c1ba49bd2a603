// Package cbuild is an embeddable build-orchestration library.
//
// Programs import cbuild to compile, rebuild, and run themselves and other
// projects by describing build steps in Go code. There is no build-description
// language, no generated makefiles, and no external runtime.
//
// # Architecture
//
// The core is three subsystems, reused by everything else in the package:
//
//   - [Buffer] and [List]: growable, length/capacity-tracked contiguous
//     storage with a fixed-slack growth policy. Every path record and
//     argument list in the package is built from these.
//   - [Scheduler]: a bounded concurrent job scheduler. A fixed pool of
//     workers drains a fixed-capacity FIFO queue; enqueue under a full
//     queue is refused, never blocked, unless the caller opts into a
//     bounded wait.
//   - [Walk] and [Match]: recursive directory traversal that packs
//     discovered paths as NUL-separated records into a Buffer, plus a
//     backtracking wildcard matcher for filtering them.
//
// All filesystem and process access goes through the [System] façade. The
// core never talks to the OS directly, so tests can substitute an in-memory
// double. [OSSystem] is the default, OS-backed implementation.
//
// On top of the core sits a small build driver: [NeedsRebuild] (timestamp
// freshness), [Cmd] (argv building and process runs), [RebuildYourself]
// (self-recompile and re-exec), and [Watch] (polling rebuild loop).
//
// # Dataflow
//
// A typical recursive source discovery looks like this:
//
//	[WalkParallel] ── per-directory jobs ──> [Scheduler]
//	      │                                      │
//	      │                                      │ each job owns a private
//	      │                                      │ accumulator Buffer
//	      │                                      v
//	      │                         NUL-separated path records
//	      │                                      │
//	      └── WaitAll barrier, then merge <──────┘
//	                      │
//	                      v
//	            [PathList] views + [Match] filtering
//
// # Concurrency
//
// Buffers and lists are NOT safe for concurrent use. The pattern used
// throughout this package is to give each job its own private accumulator
// and merge results only after [Scheduler.WaitAll] establishes a barrier.
//
// All blocking operations (deadline enqueue, WaitNext, WaitAll, process
// wait, watch loop) are bounded polling loops with a fixed sleep
// granularity; effective latency is bounded by the polling interval.
//
// # Errors
//
// Components return explicit errors, never panic in release builds:
//
//   - Exhaustion ([ErrQueueFull], [ErrTimeout]) is always recoverable;
//     retry policy is an explicit caller choice, never automatic.
//   - Contract violations ([ErrOutOfRange], [ErrBadRange], [ErrFreed])
//     report an error and leave the target unmodified. Under the
//     cbuilddebug build tag they additionally panic so violations are
//     caught during development.
//   - Environment failures surface as [*IOError] or [*SpawnError] with a
//     diagnostic.
package cbuild

import (
	"errors"
	"fmt"
	"time"
)

// Internal constants for pool sizes and polling cadence.
const (
	// maxWorkers caps scheduler pool size. Directory scanning is
	// syscall-bound; pools beyond 16 workers contend in the kernel instead
	// of helping.
	maxWorkers = 16

	// defaultQueueCapacity is the scheduler queue depth when
	// [WithQueueCapacity] is not set. Sized for typical tree breadth.
	defaultQueueCapacity = 256

	// pollInterval is the sleep granularity for all bounded polling loops
	// (deadline enqueue, WaitNext, WaitAll). Wait latency is bounded by
	// this interval, not by precise wakeups.
	pollInterval = time.Millisecond

	// defaultWatchInterval is the scan cadence for [Watch] when
	// [WithInterval] is not set.
	defaultWatchInterval = 250 * time.Millisecond
)

// Sentinel errors for recoverable conditions and contract violations.
var (
	// ErrQueueFull is returned by [Scheduler.TryEnqueue] when pending jobs
	// have reached queue capacity. Recoverable: retry, wait, or drop.
	ErrQueueFull = errors.New("job queue full")

	// ErrTimeout is returned when a bounded wait elapses before the waited
	// condition holds.
	ErrTimeout = errors.New("timeout")

	// ErrClosed is returned when enqueueing on a closed [Scheduler].
	ErrClosed = errors.New("scheduler closed")

	// ErrOutOfRange reports an index outside the valid range of a [Buffer]
	// or [List]. Contract violation: the target is left unmodified.
	ErrOutOfRange = errors.New("index out of range")

	// ErrBadRange reports a malformed [from, to) range. Contract violation:
	// the target is left unmodified.
	ErrBadRange = errors.New("malformed range")

	// ErrFreed reports a mutation on a freed [Buffer] or [List]. Contract
	// violation.
	ErrFreed = errors.New("use after free")
)

// IOError is returned when a filesystem operation fails.
type IOError struct {
	// Path is the path the operation was applied to.
	Path string
	// Op is the operation that failed: "open", "stat", "readdir", "read",
	// "write", or "rename".
	Op string
	// Err is the underlying error.
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// SpawnError is returned when spawning or waiting on a process fails, or
// when the process exits nonzero.
type SpawnError struct {
	// Argv is the command line that was spawned.
	Argv []string
	// Exit is the process exit code, or -1 if the process never ran or was
	// not waited to completion.
	Exit int
	// Err is the underlying error, if any.
	Err error
}

func (e *SpawnError) Error() string {
	name := "<empty argv>"
	if len(e.Argv) > 0 {
		name = e.Argv[0]
	}

	if e.Err != nil {
		return fmt.Sprintf("spawn %s: %v", name, e.Err)
	}

	return fmt.Sprintf("spawn %s: exit status %d", name, e.Exit)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
