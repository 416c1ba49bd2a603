package cbuild

// ============================================================================
// System façade contract
// ============================================================================
//
// The core components (Walk, NeedsRebuild, Cmd, Watch) are written against
// the System interface and never call the OS directly. This keeps every
// design decision in the core and leaves the façade as pure translation to
// local system calls, which unit tests replace with an in-memory double.
//
// Semantics required of implementations:
//
//   - Stat and ReadDir must NOT follow symlinks when classifying entries:
//     a symlink to a directory reports IsDir=false in ReadDir, matching
//     "symlinks are not recursed into".
//
//   - Missing paths must return errors satisfying
//     errors.Is(err, fs.ErrNotExist); NeedsRebuild depends on it.
//
//   - Spawn starts the process without waiting. Wait reaps it: the exit
//     code travels in the int return (nonzero exits are NOT errors at the
//     façade level; policy belongs to callers), and the error return is
//     reserved for wait mechanics failing or the timeout elapsing.
//
//   - Exec replaces the current process where the platform supports it;
//     otherwise it must emulate by spawning and exiting with the child's
//     code. On success it does not return.

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"time"
)

var errEmptyArgv = errors.New("empty argv")

// Stat is the file metadata the core consumes.
type Stat struct {
	// Size is the file size in bytes.
	Size int64
	// ModTime is the last modification time.
	ModTime time.Time
	// IsDir reports whether the path is a directory.
	IsDir bool
}

// DirEntry is one directory listing entry.
type DirEntry struct {
	// Name is the entry's base name.
	Name string
	// IsDir reports whether the entry itself (not a symlink target) is a
	// directory.
	IsDir bool
}

// Proc is an opaque handle for a spawned process, produced by
// [System.Spawn] and consumed by [System.Wait].
type Proc interface {
	// PID returns the operating-system process ID, or a synthetic ID for
	// test doubles.
	PID() int
}

// System supplies the filesystem and process operations the core invokes.
// See the contract commentary at the top of this file.
type System interface {
	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)
	// ReadFile reads the whole file at path.
	ReadFile(path string) ([]byte, error)
	// WriteFile writes data to path, creating or truncating it.
	WriteFile(path string, data []byte, perm fs.FileMode) error
	// Stat returns metadata for path without following symlinks.
	Stat(path string) (Stat, error)
	// ReadDir lists the immediate entries of the directory at path.
	ReadDir(path string) ([]DirEntry, error)
	// Rename atomically moves oldPath to newPath where the OS allows it.
	Rename(oldPath, newPath string) error
	// Remove deletes the file at path.
	Remove(path string) error
	// Spawn starts argv[0] with arguments argv[1:], wiring the given
	// writers (either may be nil to discard).
	Spawn(argv []string, stdout, stderr io.Writer) (Proc, error)
	// Wait blocks until the process exits or timeout elapses
	// (timeout <= 0 waits indefinitely) and returns the exit code.
	Wait(p Proc, timeout time.Duration) (int, error)
	// Exec replaces the current process with argv, or emulates that by
	// spawning and exiting. Does not return on success.
	Exec(argv []string) error
}

// Compile-time check: the OS-backed façade satisfies the contract.
var _ System = OSSystem{}

// DefaultSystem is the OS-backed façade used by programs that do not
// inject their own.
var DefaultSystem System = OSSystem{}

// OSSystem is the real-operating-system implementation of [System].
//
// Stat uses a platform fast path on Linux (direct stat(2) via
// golang.org/x/sys/unix) and portable os calls elsewhere.
type OSSystem struct{}

// Open implements [System].
func (OSSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// ReadFile implements [System].
func (OSSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile implements [System].
func (OSSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// Stat implements [System]. It does not follow symlinks.
func (OSSystem) Stat(path string) (Stat, error) {
	return statPath(path)
}

// ReadDir implements [System].
func (OSSystem) ReadDir(path string) ([]DirEntry, error) {
	list, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(list))
	for _, d := range list {
		// d.IsDir() reports the entry's own type: symlinks to directories
		// stay IsDir=false and are never recursed into.
		entries = append(entries, DirEntry{Name: d.Name(), IsDir: d.IsDir()})
	}

	return entries, nil
}

// Rename implements [System].
func (OSSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Remove implements [System].
func (OSSystem) Remove(path string) error {
	return os.Remove(path)
}

// osProc wraps a started command. The reaper goroutine makes Wait's
// bounded timeout possible without killing the child.
type osProc struct {
	cmd *exec.Cmd
	// done delivers the cmd.Wait result exactly once.
	done chan error
}

func (p *osProc) PID() int {
	if p.cmd.Process == nil {
		return -1
	}

	return p.cmd.Process.Pid
}

// Spawn implements [System].
func (OSSystem) Spawn(argv []string, stdout, stderr io.Writer) (Proc, error) {
	if len(argv) == 0 {
		return nil, &SpawnError{Exit: -1, Err: errEmptyArgv}
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &osProc{cmd: cmd, done: make(chan error, 1)}
	go func() { p.done <- cmd.Wait() }()

	return p, nil
}

// Wait implements [System].
//
// A nonzero child exit is reported through the exit code, not the error.
// [ErrTimeout] is returned when timeout elapses first; the process keeps
// running and can be waited on again.
func (OSSystem) Wait(p Proc, timeout time.Duration) (int, error) {
	op, ok := p.(*osProc)
	if !ok {
		return -1, contractErr(ErrOutOfRange, "foreign Proc handle %T", p)
	}

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()

		timer = t.C
	}

	select {
	case err := <-op.done:
		// Keep the result observable for repeated Wait calls.
		op.done <- err

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}

		if err != nil {
			return -1, err
		}

		return 0, nil
	case <-timer:
		return -1, ErrTimeout
	}
}
