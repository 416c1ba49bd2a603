// Package main is a small C build driver built on the cbuild library.
//
// It discovers sources under a directory, compiles each stale translation
// unit in parallel, links the results, and can keep watching the tree and
// rebuilding on change.
//
// Examples:
//
//	go run ./cmd/cbuild --src . --out ./app
//	go run ./cmd/cbuild --src ./src --out ./app --cc clang --cflags "-O2 -Wall"
//	go run ./cmd/cbuild --src ./src --out ./app --watch
//	./cbuild --selfsrc ./cmd/cbuild --selfpkg ./cmd/cbuild --src ./src --out ./app
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	cbuild "github.com/smushy64/cbuild-sub000"
)

type Args struct {
	Src      string
	Out      string
	ObjDir   string
	CC       string
	CFlags   string
	LDFlags  string
	Jobs     int
	Watch    bool
	Interval time.Duration
	Verbose  bool
	SelfSrc  string
	SelfPkg  string
}

func main() {
	args := parseArgs()

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs() *Args {
	args := &Args{}

	flag.StringVar(&args.Src, "src", ".", "source directory to scan for .c files")
	flag.StringVar(&args.Out, "out", "./a.out", "output binary path")
	flag.StringVar(&args.ObjDir, "objdir", "", "object file directory (default: <src>/.obj)")
	flag.StringVar(&args.CC, "cc", "cc", "C compiler")
	flag.StringVar(&args.CFlags, "cflags", "", "extra compile flags, space-separated")
	flag.StringVar(&args.LDFlags, "ldflags", "", "extra link flags, space-separated")
	flag.IntVar(&args.Jobs, "jobs", 0, "parallel compile jobs (0 = auto)")
	flag.BoolVar(&args.Watch, "watch", false, "keep watching sources and rebuild on change")
	flag.DurationVar(&args.Interval, "interval", 250*time.Millisecond, "watch polling interval")
	flag.BoolVar(&args.Verbose, "v", false, "verbose output")
	flag.StringVar(&args.SelfSrc, "selfsrc", "", "driver's own Go source dir; when set, the driver recompiles and re-execs itself if stale")
	flag.StringVar(&args.SelfPkg, "selfpkg", ".", "package to 'go build' for the self-rebuild")
	flag.Parse()

	if args.ObjDir == "" {
		args.ObjDir = filepath.Join(args.Src, ".obj")
	}

	return args
}

func run(args *Args) error {
	minLevel := cbuild.LevelInfo
	if args.Verbose {
		minLevel = cbuild.LevelDebug
	}

	log := cbuild.NewWriterLogger(os.Stderr, minLevel)
	sys := cbuild.DefaultSystem

	if args.SelfSrc != "" {
		if err := rebuildSelf(sys, log, args); err != nil {
			return err
		}
	}

	if err := build(sys, log, args); err != nil {
		if !args.Watch {
			return err
		}

		// In watch mode a broken tree is a state to recover from, not a
		// reason to exit.
		log.Logf(cbuild.LevelError, "build: %v", err)
	}

	if !args.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Logf(cbuild.LevelInfo, "watching %s (interval %s)", args.Src, args.Interval)

	return cbuild.Watch(ctx, sys, args.Src, func(changed []string) {
		log.Logf(cbuild.LevelInfo, "%d source(s) changed", len(changed))

		if err := build(sys, log, args); err != nil {
			log.Logf(cbuild.LevelError, "build: %v", err)
		}
	},
		cbuild.WithRecursive(),
		cbuild.WithPattern("*.c"),
		cbuild.WithInterval(args.Interval),
		cbuild.WithLogger(log),
	)
}

// rebuildSelf recompiles and re-execs this driver when its own Go sources
// changed. On a successful rebuild the call never returns.
func rebuildSelf(sys cbuild.System, log cbuild.Logger, args *Args) error {
	sources, err := cbuild.Walk(sys, args.SelfSrc,
		cbuild.WithRecursive(),
		cbuild.WithPattern("*.go"),
		cbuild.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer func() { _ = sources.Free() }()

	compile := cbuild.NewCmd("go", "build", "-o", os.Args[0], args.SelfPkg).
		Stdout(os.Stdout).
		Stderr(os.Stderr)

	return cbuild.RebuildYourself(sys, os.Args, sources.Strings(), compile, cbuild.WithLogger(log))
}

// build compiles every stale translation unit in parallel, then links.
func build(sys cbuild.System, log cbuild.Logger, args *Args) error {
	start := time.Now()

	sources, err := cbuild.Walk(sys, args.Src,
		cbuild.WithRecursive(),
		cbuild.WithPattern("*.c"),
		cbuild.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer func() { _ = sources.Free() }()

	srcs := sources.Strings()
	if len(srcs) == 0 {
		return fmt.Errorf("no .c files under %s", args.Src)
	}

	if err := os.MkdirAll(args.ObjDir, 0o750); err != nil {
		return err
	}

	objs, compiled, err := compileAll(sys, log, args, srcs)
	if err != nil {
		return err
	}

	stale, err := cbuild.NeedsRebuild(sys, args.Out, objs...)
	if err != nil {
		return err
	}

	if compiled == 0 && !stale {
		log.Logf(cbuild.LevelInfo, "%s is up to date", args.Out)

		return nil
	}

	if err := link(sys, log, args, objs); err != nil {
		return err
	}

	log.Logf(cbuild.LevelInfo, "built %s: %d/%d unit(s) recompiled in %s",
		args.Out, compiled, len(srcs), time.Since(start).Round(time.Millisecond))

	return nil
}

// compileAll runs one compile job per stale source and returns all object
// paths plus how many units were actually recompiled.
func compileAll(sys cbuild.System, log cbuild.Logger, args *Args, srcs []string) ([]string, int, error) {
	sched := cbuild.NewScheduler(cbuild.WithWorkers(args.Jobs), cbuild.WithLogger(log))
	defer sched.Close()

	objs := make([]string, len(srcs))
	errs := make([]error, len(srcs))

	var compiled int
	var mu sync.Mutex

	for i, src := range srcs {
		i := i
		objs[i] = objectPath(args.ObjDir, args.Src, src)

		stale, err := cbuild.NeedsRebuild(sys, objs[i], src)
		if err != nil {
			return nil, 0, err
		}

		if !stale {
			continue
		}

		cmd := cbuild.NewCmd(args.CC, "-c").
			Args(splitFlags(args.CFlags)...).
			Args("-o", objs[i], src).
			Stdout(os.Stdout).
			Stderr(os.Stderr)

		log.Logf(cbuild.LevelDebug, "compile: %s", cmd)

		if err := sched.Enqueue(func(*cbuild.Worker) {
			errs[i] = cmd.Run(sys, 0)

			mu.Lock()
			compiled++
			mu.Unlock()
		}, 0); err != nil {
			return nil, 0, err
		}
	}

	if err := sched.WaitAll(0); err != nil {
		return nil, 0, err
	}

	if err := errors.Join(errs...); err != nil {
		return nil, 0, err
	}

	return objs, compiled, nil
}

func link(sys cbuild.System, log cbuild.Logger, args *Args, objs []string) error {
	cmd := cbuild.NewCmd(args.CC, "-o", args.Out).
		Args(objs...).
		Args(splitFlags(args.LDFlags)...).
		Stdout(os.Stdout).
		Stderr(os.Stderr)

	log.Logf(cbuild.LevelDebug, "link: %s", cmd)

	return cmd.Run(sys, 0)
}

// objectPath maps a source path to a unique object path under objDir,
// flattening the tree so same-named files in different directories do not
// collide.
func objectPath(objDir, srcRoot, src string) string {
	rel, err := filepath.Rel(srcRoot, src)
	if err != nil {
		rel = filepath.Base(src)
	}

	flat := strings.ReplaceAll(rel, string(filepath.Separator), "_")

	return filepath.Join(objDir, strings.TrimSuffix(flat, ".c")+".o")
}

func splitFlags(s string) []string {
	return strings.Fields(s)
}
