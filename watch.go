package cbuild

import (
	"context"
	"time"
)

// Watch polls a directory tree and invokes fn with the changed paths
// whenever sources change, for "rebuild on change" loops:
//
//	err := cbuild.Watch(ctx, sys, "src", func(changed []string) {
//	        _ = cbuild.NewCmd("go", "build", "./...").Run(sys, 0)
//	}, cbuild.WithRecursive(), cbuild.WithPattern("*.go"))
//
// Each tick re-walks the tree (honoring [WithRecursive], [WithPattern],
// [WithDirs]) and compares every path's size and modification time against
// the previous scan. Created and modified paths are reported in walk
// order, followed by deleted paths. The first scan silently records the
// baseline; it emits nothing.
//
// Detection is timestamp polling, not OS change notification: latency is
// bounded by [WithInterval], and changes that keep both size and mtime
// identical within the filesystem's timestamp granularity are missed.
// Transient walk or stat failures are logged and the loop continues.
//
// fn runs on the watch goroutine; a slow fn delays the next scan. Watch
// blocks until ctx is done, then returns nil.
func Watch(ctx context.Context, sys System, root string, fn func(changed []string), opts ...Option) error {
	if sys == nil {
		sys = DefaultSystem
	}

	cfg := applyOptions(opts)

	prev := make(map[string]Stat)
	baseline := true

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		changed, err := scanChanges(sys, root, cfg, prev, baseline)
		if err != nil {
			cfg.Logger.Logf(LevelWarn, "watch scan: %v", err)
		} else {
			baseline = false

			if len(changed) > 0 {
				fn(changed)
			}
		}

		timer.Reset(cfg.Interval)
	}
}

// scanChanges walks the tree once and diffs it against prev, updating prev
// in place. On the baseline scan it only populates prev.
func scanChanges(sys System, root string, cfg options, prev map[string]Stat, baseline bool) ([]string, error) {
	paths, err := Walk(sys, root, func(o *options) { *o = cfg })
	if err != nil {
		return nil, err
	}

	defer func() { _ = paths.Free() }()

	var changed []string

	seen := make(map[string]struct{}, paths.Len())

	for i := 0; i < paths.Len(); i++ {
		path := string(paths.At(i))
		seen[path] = struct{}{}

		st, err := sys.Stat(path)
		if err != nil {
			// Deleted between readdir and stat; the next scan settles it.
			continue
		}

		old, known := prev[path]
		prev[path] = st

		if baseline {
			continue
		}

		if !known || st.Size != old.Size || !st.ModTime.Equal(old.ModTime) {
			changed = append(changed, path)
		}
	}

	// Paths that vanished since the previous scan.
	for path := range prev {
		if _, ok := seen[path]; ok {
			continue
		}

		delete(prev, path)

		if !baseline {
			changed = append(changed, path)
		}
	}

	return changed, nil
}
