package cbuild

import "os"

// ============================================================================
// Path record helpers
// ============================================================================
//
// Discovered paths are packed into a single accumulator Buffer as
// NUL-separated records, the same arena idea used for filenames in
// directory scans: one contiguous allocation instead of one string per
// path. Views (offset+length, excluding the NUL) index into the
// accumulator; see PathList.

// pathSep is the record path separator. '/' always matches too, so
// callers may pass either on Windows.
const pathSep = byte(os.PathSeparator)

// vcsMetaDirs are version-control metadata directories skipped by the
// walker alongside the self/parent pseudo-entries.
var vcsMetaDirs = map[string]struct{}{
	".git": {},
	".svn": {},
	".hg":  {},
}

// skipEntry reports whether a directory entry is a pseudo-entry the walk
// never reports or descends into.
func skipEntry(name string) bool {
	if name == "." || name == ".." {
		return true
	}

	_, vcs := vcsMetaDirs[name]

	return vcs
}

// hasTrailingSep reports whether s already ends in a path separator, such
// as a filesystem root ("/" on Unix, `C:\` on Windows).
func hasTrailingSep(s string) bool {
	if len(s) == 0 {
		return false
	}

	last := s[len(s)-1]

	return last == pathSep || last == '/'
}

// appendRecord appends "dir<sep>name" to acc as one NUL-terminated record
// and pushes the matching view (offset+length, NUL excluded) onto views.
//
// The record NUL is part of the accumulator content, keeping records
// separated even after further appends; the view never includes it.
func appendRecord(acc *Buffer, views *List[PathView], dir, name string) error {
	off := acc.Len()

	if err := acc.AppendString(dir); err != nil {
		return err
	}

	if !hasTrailingSep(dir) {
		if err := acc.Push(pathSep); err != nil {
			return err
		}
	}

	if err := acc.AppendString(name); err != nil {
		return err
	}

	view := PathView{Off: off, Len: acc.Len() - off}

	if err := acc.Push(0); err != nil {
		return err
	}

	return views.Push(view)
}

// joinPath builds "dir<sep>name" as an owned string, for paths that leave
// the accumulator (subdirectory descent).
func joinPath(dir, name string) string {
	if hasTrailingSep(dir) {
		return dir + name
	}

	return dir + string(pathSep) + name
}

// baseName returns the final path element of a record.
func baseName(record []byte) []byte {
	for i := len(record) - 1; i >= 0; i-- {
		if record[i] == pathSep || record[i] == '/' {
			return record[i+1:]
		}
	}

	return record
}
