package cbuild

import (
	"runtime"
	"time"
)

// Option configures [NewScheduler], [Walk], [WalkParallel], and [Watch].
// Options are applied in order; options an operation does not use are
// ignored.
type Option func(*options)

// WithWorkers sets the scheduler worker-pool size.
//
// Directory scanning is syscall-bound (readdir, lstat); beyond roughly 16
// workers, kernel contention eats the gains, so values are clamped to
// [1, 16]. Values <= 0 use [DefaultWorkers].
func WithWorkers(n int) Option {
	return func(o *options) {
		o.Workers = n
	}
}

// WithQueueCapacity sets the scheduler's job queue capacity: the bound on
// jobs queued or in-flight before [Scheduler.TryEnqueue] refuses.
//
// Values <= 0 use the default (256). The capacity is never smaller than
// the worker count.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		o.QueueCapacity = n
	}
}

// WithRecursive makes [Walk] descend into subdirectories.
//
// When disabled, discovered subdirectories are ignored.
func WithRecursive() Option {
	return func(o *options) {
		o.Recursive = true
	}
}

// WithDirs includes each directory's own path in walk results, appended
// before the directory's contents.
func WithDirs() Option {
	return func(o *options) {
		o.Dirs = true
	}
}

// WithPattern keeps only files whose base name matches the wildcard
// pattern (see [Match]). Empty pattern matches all files. Directories are
// structural and never filtered by the pattern.
func WithPattern(pattern string) Option {
	return func(o *options) {
		o.Pattern = pattern
	}
}

// WithInterval sets the polling cadence for [Watch].
//
// Values <= 0 use the default (250ms). Change-detection latency is bounded
// by this interval.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		o.Interval = d
	}
}

// WithLogger routes an operation's diagnostics to l instead of the
// package logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		o.Logger = l
	}
}

type options struct {
	// Workers is the scheduler pool size.
	Workers int
	// QueueCapacity bounds queued plus in-flight jobs.
	QueueCapacity int
	// Recursive enables descent into subdirectories.
	Recursive bool
	// Dirs includes directory paths in walk results.
	Dirs bool
	// Pattern filters files by base name.
	Pattern string
	// Interval is the Watch polling cadence.
	Interval time.Duration
	// Logger receives diagnostics.
	Logger Logger
}

// applyOptions merges option values and applies defaults.
func applyOptions(opts []Option) options {
	cfg := options{}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers()
	}

	if cfg.Workers > maxWorkers {
		cfg.Workers = maxWorkers
	}

	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = defaultQueueCapacity
	}

	if cfg.Interval <= 0 {
		cfg.Interval = defaultWatchInterval
	}

	if cfg.Logger == nil {
		cfg.Logger = packageLogger()
	}

	return cfg
}

// DefaultWorkers returns the worker count used when [WithWorkers] is not
// set: half the CPUs, clamped to [4, 16]. Tuned for syscall-bound
// directory scanning, not CPU-bound callbacks.
func DefaultWorkers() int {
	return min(max(runtime.NumCPU()/2, 4), maxWorkers)
}
