package cbuild_test

import (
	"context"
	"errors"
	"testing"
	"time"

	cbuild "github.com/smushy64/cbuild-sub000"
)

var errTransient = errors.New("transient failure")

// startWatch runs Watch against sys in the background and returns the
// change events plus a stop function that blocks until Watch returns.
func startWatch(t *testing.T, sys cbuild.System, root string, opts ...cbuild.Option) (<-chan []string, func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan []string, 16)
	done := make(chan error, 1)

	opts = append(opts, cbuild.WithInterval(5*time.Millisecond), quietOpt())

	go func() {
		done <- cbuild.Watch(ctx, sys, root, func(changed []string) {
			events <- append([]string(nil), changed...)
		}, opts...)
	}()

	stop := func() {
		cancel()

		if err := <-done; err != nil {
			t.Errorf("watch returned %v", err)
		}
	}

	return events, stop
}

func nextEvent(t *testing.T, events <-chan []string) []string {
	t.Helper()

	select {
	case changed := <-events:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("no change event within deadline")

		return nil
	}
}

func Test_Watch_Reports_CreatedFile(t *testing.T) {
	t.Parallel()

	sys := newMemSystem()
	sys.addFile("/src/existing.c", []byte("a"), sys.tick())

	events, stop := startWatch(t, sys, "/src", cbuild.WithRecursive())
	defer stop()

	// Give the baseline scan time to settle, then create.
	time.Sleep(30 * time.Millisecond)
	sys.addFile("/src/new.c", []byte("b"), sys.tick())

	changed := nextEvent(t, events)
	if len(changed) != 1 || changed[0] != "/src/new.c" {
		t.Fatalf("changed %v, want [/src/new.c]; baseline must be silent", changed)
	}
}

func Test_Watch_Reports_ModifiedFile(t *testing.T) {
	t.Parallel()

	sys := newMemSystem()
	sys.addFile("/src/main.c", []byte("v1"), sys.tick())

	events, stop := startWatch(t, sys, "/src")
	defer stop()

	time.Sleep(30 * time.Millisecond)
	sys.addFile("/src/main.c", []byte("v2 longer"), sys.tick())

	changed := nextEvent(t, events)
	if len(changed) != 1 || changed[0] != "/src/main.c" {
		t.Fatalf("changed %v, want [/src/main.c]", changed)
	}
}

func Test_Watch_Reports_DeletedFile(t *testing.T) {
	t.Parallel()

	sys := newMemSystem()
	sys.addFile("/src/doomed.c", []byte("x"), sys.tick())
	sys.addFile("/src/kept.c", []byte("y"), sys.tick())

	events, stop := startWatch(t, sys, "/src")
	defer stop()

	time.Sleep(30 * time.Millisecond)

	if err := sys.Remove("/src/doomed.c"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	changed := nextEvent(t, events)
	if len(changed) != 1 || changed[0] != "/src/doomed.c" {
		t.Fatalf("changed %v, want [/src/doomed.c]", changed)
	}
}

func Test_Watch_Honors_Pattern(t *testing.T) {
	t.Parallel()

	sys := newMemSystem()
	sys.addFile("/src/main.c", []byte("a"), sys.tick())

	events, stop := startWatch(t, sys, "/src", cbuild.WithPattern("*.c"))
	defer stop()

	time.Sleep(30 * time.Millisecond)

	// Outside the pattern: must not produce an event.
	sys.addFile("/src/readme.txt", []byte("ignored"), sys.tick())
	time.Sleep(30 * time.Millisecond)

	// Inside the pattern: the next event carries only this path.
	sys.addFile("/src/util.c", []byte("b"), sys.tick())

	changed := nextEvent(t, events)
	if len(changed) != 1 || changed[0] != "/src/util.c" {
		t.Fatalf("changed %v, want [/src/util.c]", changed)
	}
}

func Test_Watch_Returns_When_ContextCancelled(t *testing.T) {
	t.Parallel()

	sys := newMemSystem()
	sys.addDir("/src")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- cbuild.Watch(ctx, sys, "/src", func([]string) {},
			cbuild.WithInterval(5*time.Millisecond), quietOpt())
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func Test_Watch_Survives_TransientScanFailure(t *testing.T) {
	t.Parallel()

	sys := newMemSystem()
	sys.addFile("/src/main.c", []byte("a"), sys.tick())

	events, stop := startWatch(t, sys, "/src")
	defer stop()

	time.Sleep(30 * time.Millisecond)

	// Break the scan for a moment; the loop must keep polling.
	sys.mu.Lock()
	sys.readDirErr["/src"] = errTransient
	sys.mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	sys.mu.Lock()
	delete(sys.readDirErr, "/src")
	sys.mu.Unlock()

	sys.addFile("/src/after.c", []byte("b"), sys.tick())

	changed := nextEvent(t, events)
	if len(changed) != 1 || changed[0] != "/src/after.c" {
		t.Fatalf("changed %v, want [/src/after.c]", changed)
	}
}
