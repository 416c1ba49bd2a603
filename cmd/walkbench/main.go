// Package main benchmarks serial against parallel directory walks.
//
// Examples:
//
//	go run ./cmd/walkbench --root /usr/include --iters 10
//	go run ./cmd/walkbench --root . --pattern "*.go" --workers 8
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"text/tabwriter"
	"time"

	cbuild "github.com/smushy64/cbuild-sub000"
)

type Args struct {
	Root    string
	Pattern string
	Workers int
	Iters   int
	Warmup  int
	Dirs    bool
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

	flag.StringVar(&args.Root, "root", ".", "directory tree to walk")
	flag.StringVar(&args.Pattern, "pattern", "", "file pattern filter (empty = all files)")
	flag.IntVar(&args.Workers, "workers", 0, "parallel walk workers (0 = auto)")
	flag.IntVar(&args.Iters, "iters", 5, "measured iterations per variant")
	flag.IntVar(&args.Warmup, "warmup", 1, "unmeasured warmup iterations per variant")
	flag.BoolVar(&args.Dirs, "dirs", false, "include directory paths in results")
	flag.Parse()

	return args
}

type sample struct {
	name    string
	records int
	total   time.Duration
	minimum time.Duration
	iters   int
}

func (s *sample) add(d time.Duration) {
	s.total += d
	s.iters++

	if s.minimum == 0 || d < s.minimum {
		s.minimum = d
	}
}

func (s *sample) mean() time.Duration {
	if s.iters == 0 {
		return 0
	}

	return s.total / time.Duration(s.iters)
}

func run(args *Args) error {
	opts := []cbuild.Option{cbuild.WithRecursive()}
	if args.Pattern != "" {
		opts = append(opts, cbuild.WithPattern(args.Pattern))
	}

	if args.Dirs {
		opts = append(opts, cbuild.WithDirs())
	}

	workers := args.Workers
	if workers <= 0 {
		workers = cbuild.DefaultWorkers()
	}

	sched := cbuild.NewScheduler(cbuild.WithWorkers(workers))
	defer sched.Close()

	serial := &sample{name: "Walk"}
	parallel := &sample{name: fmt.Sprintf("WalkParallel(%d)", workers)}

	for iter := 0; iter < args.Warmup+args.Iters; iter++ {
		measured := iter >= args.Warmup

		if err := measure(serial, measured, func() (*cbuild.PathList, error) {
			return cbuild.Walk(nil, args.Root, opts...)
		}); err != nil {
			return err
		}

		if err := measure(parallel, measured, func() (*cbuild.PathList, error) {
			return cbuild.WalkParallel(sched, nil, args.Root, opts...)
		}); err != nil {
			return err
		}
	}

	report(os.Stdout, args, serial, parallel)

	return nil
}

func measure(s *sample, measured bool, walk func() (*cbuild.PathList, error)) error {
	start := time.Now()

	paths, err := walk()
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	s.records = paths.Len()

	if err := paths.Free(); err != nil {
		return err
	}

	if measured {
		s.add(elapsed)
	}

	return nil
}

func report(out *os.File, args *Args, samples ...*sample) {
	fmt.Fprintf(out, "root=%s pattern=%q iters=%d goos=%s cpus=%d\n\n",
		args.Root, args.Pattern, args.Iters, runtime.GOOS, runtime.NumCPU())

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "variant\trecords\tmean\tmin\trecords/s")

	for _, s := range samples {
		perSec := 0.0
		if mean := s.mean(); mean > 0 {
			perSec = float64(s.records) / mean.Seconds()
		}

		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%.0f\n",
			s.name, s.records, s.mean().Round(time.Microsecond), s.minimum.Round(time.Microsecond), perSec)
	}

	_ = w.Flush()
}
