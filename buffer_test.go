package cbuild_test

import (
	"bytes"
	"errors"
	"testing"

	cbuild "github.com/smushy64/cbuild-sub000"
)

func Test_Buffer_Append_Preserves_Content_When_Growth_Reallocates(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(4)

	var want []byte

	chunk := bytes.Repeat([]byte("abcdefgh"), 32) // 256 bytes per append

	// Enough appends to force several fixed-slack reallocations.
	for n := 0; n < 32; n++ {
		mustAppend(t, buf, chunk)
		want = append(want, chunk...)

		if !bytes.Equal(buf.Bytes(), want) {
			t.Fatalf("content diverged at len %d", len(want))
		}

		if buf.Len() > buf.Cap() {
			t.Fatalf("len %d exceeds cap %d", buf.Len(), buf.Cap())
		}

		if !cbuild.BufferTerminatorOK(buf) {
			t.Fatalf("missing NUL terminator at len %d", buf.Len())
		}
	}
}

func Test_Buffer_Capacity_Never_Shrinks_When_Content_Shrinks(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, bytes.Repeat([]byte{'x'}, 2048))

	grownCap := buf.Cap()

	if err := buf.Truncate(10); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	if err := buf.Trim(5); err != nil {
		t.Fatalf("trim: %v", err)
	}

	if err := buf.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer, len %d", buf.Len())
	}

	if buf.Cap() != grownCap {
		t.Fatalf("capacity changed from %d to %d", grownCap, buf.Cap())
	}

	if !cbuild.BufferTerminatorOK(buf) {
		t.Fatal("missing NUL terminator after clear")
	}
}

func Test_Buffer_Insert_Places_Bytes_At_Index(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, []byte("hello world"))

	err := buf.Insert([]byte("cruel "), 6)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if got := buf.String(); got != "hello cruel world" {
		t.Fatalf("got %q", got)
	}

	if !cbuild.BufferTerminatorOK(buf) {
		t.Fatal("missing NUL terminator after insert")
	}
}

func Test_Buffer_Insert_Is_Rejected_When_Index_Past_Length(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, []byte("abc"))

	err := buf.Insert([]byte("x"), 4)
	if !errors.Is(err, cbuild.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	if got := buf.String(); got != "abc" {
		t.Fatalf("buffer modified by failed insert: %q", got)
	}
}

func Test_Buffer_Prepend_Places_Bytes_At_Start(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, []byte("world"))

	err := buf.Prepend([]byte("hello "))
	if err != nil {
		t.Fatalf("prepend: %v", err)
	}

	if got := buf.String(); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func Test_Buffer_Push_Pop_Roundtrip(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)

	for _, c := range []byte("xyz") {
		if err := buf.Push(c); err != nil {
			t.Fatalf("push: %v", err)
		}
	}

	c, err := buf.Pop()
	if err != nil {
		t.Fatalf("pop: %v", err)
	}

	if c != 'z' || buf.String() != "xy" {
		t.Fatalf("got %q / %q", c, buf.String())
	}
}

func Test_Buffer_Pop_Is_Rejected_When_Empty(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(8)

	_, err := buf.Pop()
	if !errors.Is(err, cbuild.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func Test_Buffer_Remove_Deletes_Single_Byte(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, []byte("abcd"))

	err := buf.Remove(1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}

	if got := buf.String(); got != "acd" {
		t.Fatalf("got %q", got)
	}
}

func Test_Buffer_RemoveRange_Deletes_Half_Open_Range(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, []byte("0123456789"))

	err := buf.RemoveRange(2, 5)
	if err != nil {
		t.Fatalf("remove range: %v", err)
	}

	if got := buf.String(); got != "0156789" {
		t.Fatalf("got %q", got)
	}

	if !cbuild.BufferTerminatorOK(buf) {
		t.Fatal("missing NUL terminator after remove range")
	}
}

func Test_Buffer_RemoveRange_Is_Rejected_When_Range_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		from, to int
	}{
		{name: "empty range", from: 3, to: 3},
		{name: "inverted range", from: 5, to: 2},
		{name: "past end", from: 2, to: 11},
		{name: "negative from", from: -1, to: 2},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buf := cbuild.NewBuffer(0)
			mustAppend(t, buf, []byte("0123456789"))

			err := buf.RemoveRange(tc.from, tc.to)
			if !errors.Is(err, cbuild.ErrBadRange) {
				t.Fatalf("expected ErrBadRange, got %v", err)
			}

			if got := buf.String(); got != "0123456789" {
				t.Fatalf("buffer modified by rejected range: %q", got)
			}
		})
	}
}

func Test_Buffer_Truncate_Clamps_And_Ignores_Large_Max(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, []byte("abcdef"))

	if err := buf.Truncate(100); err != nil {
		t.Fatalf("truncate large: %v", err)
	}

	if buf.String() != "abcdef" {
		t.Fatalf("truncate with large max modified buffer: %q", buf.String())
	}

	if err := buf.Truncate(3); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	if buf.String() != "abc" {
		t.Fatalf("got %q", buf.String())
	}

	if err := buf.Truncate(-1); err != nil {
		t.Fatalf("truncate negative: %v", err)
	}

	if buf.Len() != 0 {
		t.Fatalf("negative max should clamp to empty, len %d", buf.Len())
	}
}

func Test_Buffer_Operations_Are_Rejected_When_Freed(t *testing.T) {
	t.Parallel()

	buf := cbuild.NewBuffer(0)
	mustAppend(t, buf, []byte("abc"))

	if err := buf.Free(); err != nil {
		t.Fatalf("free: %v", err)
	}

	if err := buf.Append([]byte("x")); !errors.Is(err, cbuild.ErrFreed) {
		t.Fatalf("append after free: expected ErrFreed, got %v", err)
	}

	if err := buf.Free(); !errors.Is(err, cbuild.ErrFreed) {
		t.Fatalf("double free: expected ErrFreed, got %v", err)
	}
}

func Test_Buffer_Zero_Value_Is_Usable(t *testing.T) {
	t.Parallel()

	var buf cbuild.Buffer

	if err := buf.AppendString("zero"); err != nil {
		t.Fatalf("append: %v", err)
	}

	if got := buf.String(); got != "zero" {
		t.Fatalf("got %q", got)
	}

	if !cbuild.BufferTerminatorOK(&buf) {
		t.Fatal("missing NUL terminator on zero-value buffer")
	}
}
