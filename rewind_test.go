package jpegdoc

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func readN(t *testing.T, r io.ByteReader, n int) []byte {
	t.Helper()
	out := make([]byte, n)
	for i := range out {
		c, err := r.ReadByte()
		if err != nil {
			t.Fatalf("byte %d: %v", i, err)
		}
		out[i] = c
	}
	return out
}

func TestRewindReplay(t *testing.T) {
	b := NewRewindBuffer(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6}))
	readN(t, b, 1)
	b.Mark(4)
	if got := readN(t, b, 3); !bytes.Equal(got, []byte{2, 3, 4}) {
		t.Fatalf("read %v", got)
	}
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	if b.Offset() != 1 {
		t.Errorf("offset after reset %d, want 1", b.Offset())
	}
	if got := readN(t, b, 5); !bytes.Equal(got, []byte{2, 3, 4, 5, 6}) {
		t.Errorf("replay %v", got)
	}
	if b.Offset() != 6 {
		t.Errorf("offset %d, want 6", b.Offset())
	}
	if _, err := b.ReadByte(); err != io.EOF {
		t.Errorf("got %v, want EOF", err)
	}
}

func TestRewindWindowExceeded(t *testing.T) {
	b := NewRewindBuffer(bytes.NewReader([]byte{1, 2, 3, 4}))
	b.Mark(2)
	readN(t, b, 3)
	if err := b.Reset(); !errors.Is(err, ErrNoMark) {
		t.Errorf("got %v, want ErrNoMark", err)
	}
}

func TestRewindWindowExactlyFilled(t *testing.T) {
	b := NewRewindBuffer(bytes.NewReader([]byte{1, 2, 3}))
	b.Mark(2)
	readN(t, b, 2)
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	if got := readN(t, b, 3); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("replay %v", got)
	}
}

func TestRewindUnmarkKeepsPending(t *testing.T) {
	b := NewRewindBuffer(bytes.NewReader([]byte{1, 2, 3, 4}))
	b.Mark(4)
	readN(t, b, 3)
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	readN(t, b, 1)
	b.Unmark()
	if got := readN(t, b, 3); !bytes.Equal(got, []byte{2, 3, 4}) {
		t.Errorf("after unmark %v", got)
	}
	if err := b.Reset(); !errors.Is(err, ErrNoMark) {
		t.Errorf("reset after unmark: %v", err)
	}
}

func TestRewindMarkDuringReplay(t *testing.T) {
	b := NewRewindBuffer(bytes.NewReader([]byte{1, 2, 3, 4, 5}))
	b.Mark(3)
	readN(t, b, 3)
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	readN(t, b, 1)
	// 2 and 3 are still waiting to be replayed.
	b.Mark(1)
	if got := readN(t, b, 2); !bytes.Equal(got, []byte{2, 3}) {
		t.Fatalf("read %v", got)
	}
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	if got := readN(t, b, 4); !bytes.Equal(got, []byte{2, 3, 4, 5}) {
		t.Errorf("replay %v", got)
	}
}

func TestRewindRead(t *testing.T) {
	b := NewRewindBuffer(bytes.NewReader([]byte("abcdef")))
	b.Mark(8)
	buf := make([]byte, 4)
	if _, err := io.ReadFull(b, buf); err != nil {
		t.Fatal(err)
	}
	if err := b.Reset(); err != nil {
		t.Fatal(err)
	}
	all, err := io.ReadAll(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(all) != "abcdef" {
		t.Errorf("read %q", all)
	}
}
