package cbuild

// ============================================================================
// Build driver: commands, freshness, self-rebuild
// ============================================================================
//
// The driver turns the core subsystems into a build tool: Cmd renders and
// runs external commands through the System façade, NeedsRebuild compares
// artifact timestamps against sources (the only build-freshness state this
// package keeps is the mtimes of the artifacts themselves), and
// RebuildYourself lets a program recompile and re-exec itself when its own
// sources changed.
//
// Which compiler and which flags to pass is deliberately outside this
// package: callers describe the full command line.

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"
)

// Cmd accumulates an argv for spawning through a [System].
//
// Arguments live in a [List] and render into a [Buffer]; like those, Cmd
// is not safe for concurrent use.
type Cmd struct {
	argv *List[string]

	stdout io.Writer
	stderr io.Writer
}

// NewCmd returns a command for the given program name and initial
// arguments.
func NewCmd(name string, args ...string) *Cmd {
	c := &Cmd{argv: NewList[string](1 + len(args))}

	// Pushes on a fresh list cannot fail; checked for the contract.
	if err := c.argv.Push(name); err != nil {
		warnf("cmd: %v", err)
	}

	return c.Args(args...)
}

// Arg appends one argument and returns the command for chaining.
func (c *Cmd) Arg(arg string) *Cmd {
	if err := c.argv.Push(arg); err != nil {
		warnf("cmd: %v", err)
	}

	return c
}

// Args appends arguments and returns the command for chaining.
func (c *Cmd) Args(args ...string) *Cmd {
	if err := c.argv.Append(args); err != nil {
		warnf("cmd: %v", err)
	}

	return c
}

// Stdout routes the child's standard output to w (nil discards).
func (c *Cmd) Stdout(w io.Writer) *Cmd {
	c.stdout = w

	return c
}

// Stderr routes the child's standard error to w (nil discards).
func (c *Cmd) Stderr(w io.Writer) *Cmd {
	c.stderr = w

	return c
}

// Argv returns the accumulated argv as a borrowed view, valid until the
// next mutating call.
func (c *Cmd) Argv() []string {
	return c.argv.Items()
}

// String renders the command line for diagnostics, space-separated with
// shell-unsafe arguments left as-is.
func (c *Cmd) String() string {
	buf := NewBuffer(64)

	for i, arg := range c.argv.Items() {
		if i > 0 {
			_ = buf.Push(' ')
		}

		_ = buf.AppendString(arg)
	}

	s := buf.String()
	_ = buf.Free()

	return s
}

// Run spawns the command through sys and waits up to timeout for it to
// exit (timeout <= 0 waits indefinitely).
//
// A nonzero exit or a spawn/wait failure is a [*SpawnError]. There is no
// automatic retry.
func (c *Cmd) Run(sys System, timeout time.Duration) error {
	if sys == nil {
		sys = DefaultSystem
	}

	argv := c.argv.Items()

	p, err := sys.Spawn(argv, c.stdout, c.stderr)
	if err != nil {
		return &SpawnError{Argv: argv, Exit: -1, Err: err}
	}

	code, err := sys.Wait(p, timeout)
	if err != nil {
		return &SpawnError{Argv: argv, Exit: -1, Err: err}
	}

	if code != 0 {
		return &SpawnError{Argv: argv, Exit: code}
	}

	return nil
}

// NeedsRebuild reports whether output is stale against sources.
//
// True when output does not exist or when any source's modification time
// is newer than output's. A missing source is an error: the build cannot
// know its inputs.
func NeedsRebuild(sys System, output string, sources ...string) (bool, error) {
	if sys == nil {
		sys = DefaultSystem
	}

	out, err := sys.Stat(output)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	case err != nil:
		return false, &IOError{Path: output, Op: "stat", Err: err}
	}

	for _, src := range sources {
		st, err := sys.Stat(src)
		if err != nil {
			return false, &IOError{Path: src, Op: "stat", Err: err}
		}

		if st.ModTime.After(out.ModTime) {
			return true, nil
		}
	}

	return false, nil
}

// RebuildYourself recompiles and re-executes the running program when any
// of its sources is newer than its binary.
//
// argv must be the program's own command line (argv[0] is the binary
// path); sources are the files the binary is built from; compile is the
// full compile command producing argv[0] — compiler choice and flags are
// the caller's policy.
//
// When the binary is fresh, RebuildYourself returns nil and the program
// continues. When stale:
//
//  1. the running binary is renamed aside (the OS may refuse to overwrite
//     a running executable; the renamed copy also serves as rollback),
//  2. compile runs; on failure the old binary is restored and the error
//     returned,
//  3. the process re-execs the new binary with the original argv. On
//     success this call never returns.
func RebuildYourself(sys System, argv []string, sources []string, compile *Cmd, opts ...Option) error {
	if sys == nil {
		sys = DefaultSystem
	}

	cfg := applyOptions(opts)

	if len(argv) == 0 {
		return contractErr(ErrOutOfRange, "empty argv")
	}

	bin := argv[0]

	stale, err := NeedsRebuild(sys, bin, sources...)
	if err != nil {
		return err
	}

	if !stale {
		return nil
	}

	cfg.Logger.Logf(LevelInfo, "rebuilding %s: %s", bin, compile.String())

	old := bin + ".old"
	if err := sys.Rename(bin, old); err != nil {
		return &IOError{Path: bin, Op: "rename", Err: err}
	}

	if err := compile.Run(sys, 0); err != nil {
		// Roll back so the program stays runnable.
		if rerr := sys.Rename(old, bin); rerr != nil {
			cfg.Logger.Logf(LevelError, "restore %s: %v", bin, rerr)
		}

		return err
	}

	if err := sys.Remove(old); err != nil {
		cfg.Logger.Logf(LevelWarn, "remove %s: %v", old, err)
	}

	cfg.Logger.Logf(LevelInfo, "restarting %s", bin)

	if err := sys.Exec(argv); err != nil {
		return fmt.Errorf("re-exec %s: %w", bin, err)
	}

	return nil
}
