package cbuild

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Level classifies log messages emitted through a [Logger].
type Level uint8

const (
	// LevelDebug is verbose tracing output.
	LevelDebug Level = iota + 1
	// LevelInfo is normal progress output (build steps, rebuild triggers).
	LevelInfo
	// LevelWarn reports recoverable problems (malformed input, skipped
	// entries).
	LevelWarn
	// LevelError reports operation failures.
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", uint8(l))
	}
}

// Logger is the leveled logging sink this package reports through.
//
// The core only formats the message itself; timestamps, colors, and output
// routing belong to the Logger implementation. Implementations must be safe
// for concurrent use: workers log from multiple goroutines.
type Logger interface {
	Logf(level Level, format string, args ...any)
}

// NewWriterLogger returns a Logger that writes lines at or above min to w.
//
// A single mutex serializes writes so interleaved worker output stays
// coherent. This is the only lock-guarded collaborator in the package.
func NewWriterLogger(w io.Writer, min Level) Logger {
	return &writerLogger{w: w, min: min}
}

type writerLogger struct {
	// mu keeps concurrent worker log lines from interleaving mid-line.
	mu  sync.Mutex
	w   io.Writer
	min Level
}

func (l *writerLogger) Logf(level Level, format string, args ...any) {
	if level < l.min {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.w, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}

// defaultLogger receives package-level diagnostics (contract-violation
// warnings from Buffer/List, which carry no per-call configuration).
// Components with options ([Walk], [Watch], [NewScheduler]) take
// [WithLogger] instead.
var defaultLogger atomic.Pointer[Logger]

// SetLogger replaces the package-level logger used for warnings that have
// no per-call configuration point (for example out-of-range Buffer
// operations). Passing nil restores the default stderr logger.
func SetLogger(l Logger) {
	if l == nil {
		defaultLogger.Store(nil)

		return
	}

	defaultLogger.Store(&l)
}

func packageLogger() Logger {
	if p := defaultLogger.Load(); p != nil {
		return *p
	}

	return stderrLogger
}

var stderrLogger = NewWriterLogger(os.Stderr, LevelWarn)

func warnf(format string, args ...any) {
	packageLogger().Logf(LevelWarn, format, args...)
}
