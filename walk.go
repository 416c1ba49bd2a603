package cbuild

// ============================================================================
// Path traversal
// ============================================================================
//
// Walk enumerates filesystem entries under a root through the System
// façade, packing every discovered path as a NUL-separated record into one
// accumulator Buffer (amortizing allocation across the whole walk) and
// deriving a view list over it.
//
// WalkParallel distributes the same traversal across a Scheduler:
//
//	frontier of directories at depth d
//	   │  one scan job per directory; each job owns a PRIVATE accumulator
//	   v        (buffers are not thread-safe; never share one across jobs)
//	[Scheduler] ── WaitAll barrier ──> merge accumulators, next frontier
//
// The WaitAll barrier between depths is what makes the merge safe: no job
// touches its accumulator after the barrier, and discovered subdirectories
// become the next frontier. Jobs signal failure through their own scan
// state; the scheduler has no error channel.

// PathView is a non-owning (offset, length) reference to one path record
// inside a [PathList]'s buffer.
//
// Views stay valid only as long as the owning buffer is neither freed nor
// mutated; they must be re-derived, not assumed stable, across growth.
type PathView struct {
	// Off is the byte offset of the record in the owning buffer.
	Off int
	// Len is the record length in bytes, excluding the NUL separator.
	Len int
}

// PathList is the result of a directory walk: an owning accumulator Buffer
// of NUL-separated path records plus a derived list of views into it.
type PathList struct {
	buf   *Buffer
	views *List[PathView]

	// owned marks the list holding buffer ownership. Filtered lists
	// borrow the buffer; their Free releases only their views.
	owned bool
}

// Len returns the number of path records.
func (pl *PathList) Len() int {
	return pl.views.Len()
}

// At returns record i as a borrowed byte view (no NUL terminator).
//
// The view is invalidated by Free. Out-of-range indexes are reported
// contract violations returning nil.
func (pl *PathList) At(i int) []byte {
	v, err := pl.views.At(i)
	if err != nil {
		return nil
	}

	return pl.buf.Bytes()[v.Off : v.Off+v.Len]
}

// Strings returns all records as independently owned strings that remain
// valid after the list is freed.
func (pl *PathList) Strings() []string {
	out := make([]string, 0, pl.views.Len())
	for _, v := range pl.views.Items() {
		out = append(out, string(pl.buf.Bytes()[v.Off:v.Off+v.Len]))
	}

	return out
}

// Filter returns the records whose base name matches pattern (see
// [Match]).
//
// The filtered list borrows this list's buffer: it becomes invalid when
// the parent is freed, and its own Free releases only its view storage.
func (pl *PathList) Filter(pattern string) *PathList {
	filtered := NewList[PathView](pl.views.Len())

	for _, v := range pl.views.Items() {
		record := pl.buf.Bytes()[v.Off : v.Off+v.Len]
		if !Match(pattern, string(baseName(record))) {
			continue
		}

		// Push on a fresh list cannot fail; checked for the contract.
		if err := filtered.Push(v); err != nil {
			warnf("filter: %v", err)

			break
		}
	}

	return &PathList{buf: pl.buf, views: filtered, owned: false}
}

// Free releases the list. For owning lists this frees the accumulator
// buffer, invalidating every view and every list borrowed from it;
// borrowed lists release only their view storage.
func (pl *PathList) Free() error {
	if pl.owned {
		if err := pl.buf.Free(); err != nil {
			return err
		}
	}

	return pl.views.Free()
}

// Walk enumerates entries under root and returns their full paths.
//
// By default only the immediate regular entries of root are returned,
// excluding directories. Options:
//
//   - [WithRecursive]: descend into subdirectories, depth-first, reusing
//     one accumulator for the entire tree.
//   - [WithDirs]: include each directory's own path in the result,
//     appended before its contents.
//   - [WithPattern]: keep only files whose base name matches the pattern
//     (directories are structural and not filtered).
//
// The self/parent pseudo-entries and version-control metadata directories
// (.git, .svn, .hg) are always skipped; symlinks are never followed.
//
// Failure to open root is a reported [*IOError]. A failure partway
// through aborts the walk and discards partial results.
func Walk(sys System, root string, opts ...Option) (*PathList, error) {
	if sys == nil {
		sys = DefaultSystem
	}

	cfg := applyOptions(opts)

	acc := NewBuffer(4096)
	views := NewList[PathView](128)

	err := walkDir(sys, root, cfg, acc, views)
	if err != nil {
		// Abort discards partial results.
		_ = acc.Free()
		_ = views.Free()

		return nil, err
	}

	return &PathList{buf: acc, views: views, owned: true}, nil
}

// walkDir scans one directory into the shared accumulator, recursing into
// subdirectories before continuing the sibling scan when requested.
func walkDir(sys System, dir string, cfg options, acc *Buffer, views *List[PathView]) error {
	entries, err := sys.ReadDir(dir)
	if err != nil {
		return &IOError{Path: dir, Op: "open", Err: err}
	}

	for _, e := range entries {
		if skipEntry(e.Name) {
			continue
		}

		if e.IsDir {
			if cfg.Dirs {
				if err := appendRecord(acc, views, dir, e.Name); err != nil {
					return err
				}
			}

			if cfg.Recursive {
				if err := walkDir(sys, joinPath(dir, e.Name), cfg, acc, views); err != nil {
					return err
				}
			}

			continue
		}

		if cfg.Pattern != "" && !Match(cfg.Pattern, e.Name) {
			continue
		}

		if err := appendRecord(acc, views, dir, e.Name); err != nil {
			return err
		}
	}

	return nil
}

// dirScan is the params structure for one directory-scan job. The job
// writes results and failures here; nothing else touches it until the
// WaitAll barrier.
type dirScan struct {
	dir string

	// acc/views are this job's private accumulator.
	acc   *Buffer
	views *List[PathView]

	// subdirs feed the next frontier in recursive mode.
	subdirs []string

	err error
}

// run scans one directory. Runs on a scheduler worker.
func (sc *dirScan) run(sys System, cfg options) {
	sc.acc = NewBuffer(2048)
	sc.views = NewList[PathView](64)

	entries, err := sys.ReadDir(sc.dir)
	if err != nil {
		sc.err = &IOError{Path: sc.dir, Op: "open", Err: err}

		return
	}

	for _, e := range entries {
		if skipEntry(e.Name) {
			continue
		}

		if e.IsDir {
			if cfg.Dirs {
				if err := appendRecord(sc.acc, sc.views, sc.dir, e.Name); err != nil {
					sc.err = err

					return
				}
			}

			if cfg.Recursive {
				sc.subdirs = append(sc.subdirs, joinPath(sc.dir, e.Name))
			}

			continue
		}

		if cfg.Pattern != "" && !Match(cfg.Pattern, e.Name) {
			continue
		}

		if err := appendRecord(sc.acc, sc.views, sc.dir, e.Name); err != nil {
			sc.err = err

			return
		}
	}
}

// free releases a scan's private accumulator, tolerating scans that never
// ran.
func (sc *dirScan) free() {
	if sc.acc != nil {
		_ = sc.acc.Free()
	}

	if sc.views != nil {
		_ = sc.views.Free()
	}
}

// WalkParallel is [Walk] distributed across a scheduler.
//
// Directories at the same depth are scanned concurrently, one job per
// directory; each job grows its own private accumulator, and results merge
// only after a [Scheduler.WaitAll] barrier per depth. Semantics (options,
// skipped entries, abort-on-failure) match Walk; only record order
// differs.
//
// A nil sched runs on a temporary scheduler configured by the same
// options.
func WalkParallel(sched *Scheduler, sys System, root string, opts ...Option) (*PathList, error) {
	if sys == nil {
		sys = DefaultSystem
	}

	cfg := applyOptions(opts)

	if sched == nil {
		sched = NewScheduler(opts...)
		defer sched.Close()
	}

	var scans []*dirScan

	frontier := []string{root}

	for len(frontier) > 0 {
		level := make([]*dirScan, 0, len(frontier))

		for _, dir := range frontier {
			sc := &dirScan{dir: dir}
			level = append(level, sc)

			// Wait-forever is deadlock-free here: scan jobs never enqueue,
			// so workers always drain the queue.
			if err := sched.Enqueue(sc.job(sys, cfg), 0); err != nil {
				freeScans(scans, level)

				return nil, err
			}
		}

		// Barrier: after this, no job touches its accumulator.
		if err := sched.WaitAll(0); err != nil {
			freeScans(scans, level)

			return nil, err
		}

		frontier = frontier[:0]

		for _, sc := range level {
			if sc.err != nil {
				freeScans(scans, level)

				return nil, sc.err
			}

			frontier = append(frontier, sc.subdirs...)
		}

		scans = append(scans, level...)
	}

	return mergeScans(scans)
}

// job adapts a scan into a JobFunc.
func (sc *dirScan) job(sys System, cfg options) JobFunc {
	return func(_ *Worker) {
		sc.run(sys, cfg)
	}
}

func freeScans(done []*dirScan, level []*dirScan) {
	for _, sc := range done {
		sc.free()
	}

	for _, sc := range level {
		sc.free()
	}
}

// mergeScans concatenates the per-job accumulators, in submission order,
// into one owning PathList, rebasing every view onto the merged buffer.
func mergeScans(scans []*dirScan) (*PathList, error) {
	total := 0
	count := 0

	for _, sc := range scans {
		total += sc.acc.Len()
		count += sc.views.Len()
	}

	acc := NewBuffer(total)
	views := NewList[PathView](count)

	for _, sc := range scans {
		base := acc.Len()

		if err := acc.Append(sc.acc.Bytes()); err != nil {
			return nil, err
		}

		for _, v := range sc.views.Items() {
			if err := views.Push(PathView{Off: base + v.Off, Len: v.Len}); err != nil {
				return nil, err
			}
		}

		sc.free()
	}

	return &PathList{buf: acc, views: views, owned: true}, nil
}
