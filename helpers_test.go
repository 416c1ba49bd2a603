package cbuild_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	cbuild "github.com/smushy64/cbuild-sub000"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()

	fullPath := filepath.Join(root, rel)
	parent := filepath.Dir(fullPath)

	err := os.MkdirAll(parent, 0o750)
	if err != nil {
		t.Fatalf("mkdir %s: %v", parent, err)
	}

	err = os.WriteFile(fullPath, data, 0o600)
	if err != nil {
		t.Fatalf("write %s: %v", fullPath, err)
	}
}

func mkDir(t *testing.T, root, rel string) {
	t.Helper()

	err := os.MkdirAll(filepath.Join(root, rel), 0o750)
	if err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
}

// touchAt sets a path's timestamps, sidestepping filesystem timestamp
// granularity in freshness tests.
func touchAt(t *testing.T, path string, at time.Time) {
	t.Helper()

	err := os.Chtimes(path, at, at)
	if err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)

	return out
}

func pathsOf(t *testing.T, pl *cbuild.PathList) []string {
	t.Helper()

	return sortedStrings(pl.Strings())
}

// mustAppend fails the test on a buffer append error.
func mustAppend(t *testing.T, b *cbuild.Buffer, data []byte) {
	t.Helper()

	err := b.Append(data)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
}
