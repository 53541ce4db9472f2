package jpegdoc

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestBoundedLimit(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	for n := 0; n <= 4; n++ {
		r := NewBoundedReader(bytes.NewReader(data), 4)
		buf := make([]byte, n)
		if err := r.ReadFull(buf); err != nil {
			t.Errorf("reading %d of 4: %v", n, err)
		}
	}
	r := NewBoundedReader(bytes.NewReader(data), 4)
	if err := r.ReadFull(make([]byte, 5)); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("reading 5 of 4: got %v, want ErrLimitExceeded", err)
	}
	// The allowed bytes were drained.
	if r.Remaining() != 0 || r.Offset() != 4 {
		t.Errorf("remaining %d offset %d after overrun", r.Remaining(), r.Offset())
	}
	if _, err := r.ReadByte(); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("got %v, want ErrLimitExceeded", err)
	}
}

func TestBoundedTruncated(t *testing.T) {
	r := NewBoundedReader(bytes.NewReader([]byte{1, 2}), 4)
	if _, err := r.ReadUint16(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadByte(); !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestBoundedSub(t *testing.T) {
	parent := NewBoundedReader(bytes.NewReader([]byte{0x12, 0x34, 0x56, 0x78}), 4)
	sub, err := parent.Sub(3)
	if err != nil {
		t.Fatal(err)
	}
	if parent.Remaining() != 1 {
		t.Errorf("parent remaining %d, want 1", parent.Remaining())
	}
	v, err := sub.ReadUint16()
	if err != nil || v != 0x1234 {
		t.Errorf("ReadUint16 = %#x, %v", v, err)
	}
	hi, lo, err := sub.ReadNibbles()
	if err != nil || hi != 5 || lo != 6 {
		t.Errorf("ReadNibbles = %d, %d, %v", hi, lo, err)
	}
	if _, err := sub.ReadByte(); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("got %v, want ErrLimitExceeded", err)
	}
	if _, err := parent.Sub(2); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("oversized Sub: %v", err)
	}
	if _, err := parent.Sub(-1); !errors.Is(err, ErrRange) {
		t.Errorf("negative Sub: %v", err)
	}
}

func TestBoundedMarkReset(t *testing.T) {
	r := NewBoundedReader(bytes.NewReader([]byte{1, 2, 3, 4}), Unbounded)
	r.Mark(3)
	if _, err := r.ReadUint16(); err != nil {
		t.Fatal(err)
	}
	if err := r.Reset(); err != nil {
		t.Fatal(err)
	}
	c, err := r.PeekByte()
	if err != nil || c != 1 {
		t.Errorf("PeekByte = %d, %v", c, err)
	}
	all, err := io.ReadAll(io.LimitReader(r.rb, 10))
	if err != nil || !bytes.Equal(all, []byte{1, 2, 3, 4}) {
		t.Errorf("rest %v, %v", all, err)
	}
	if _, err := r.PeekByte(); err != io.EOF {
		t.Errorf("PeekByte at end: %v", err)
	}
}

func TestBoundedReadAllUnbounded(t *testing.T) {
	r := NewBoundedReader(bytes.NewReader([]byte{1}), Unbounded)
	if _, err := r.ReadAll(); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("got %v", err)
	}
}
