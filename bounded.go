package jpegdoc

import (
	"errors"
	"io"
)

// Unbounded is the limit of a BoundedReader that may read to the end of
// its source.
const Unbounded = -1

// BoundedReader reads from a RewindBuffer and counts down the bytes it is
// still allowed to read. Segment parsers are given a BoundedReader scoped
// to their parameter bytes so that they can't read into the next segment.
type BoundedReader struct {
	rb        *RewindBuffer
	remaining int64
	marked    int64 // remaining at the time of Mark
}

// NewBoundedReader returns a reader allowed to read limit bytes of src, or
// all of it if limit is Unbounded.
func NewBoundedReader(src io.Reader, limit int64) *BoundedReader {
	rb, ok := src.(*RewindBuffer)
	if !ok {
		rb = NewRewindBuffer(src)
	}
	return &BoundedReader{rb: rb, remaining: limit}
}

// Remaining returns the number of bytes that may still be read, or
// Unbounded.
func (r *BoundedReader) Remaining() int64 {
	return r.remaining
}

// Offset returns the position of the next byte in the source.
func (r *BoundedReader) Offset() int64 {
	return r.rb.Offset()
}

// Sub returns a reader for the next n bytes. They are charged to r
// immediately.
func (r *BoundedReader) Sub(n int64) (*BoundedReader, error) {
	if n < 0 {
		return nil, ErrRange
	}
	if r.remaining != Unbounded {
		if n > r.remaining {
			return nil, ErrLimitExceeded
		}
		r.remaining -= n
	}
	return &BoundedReader{rb: r.rb, remaining: n}, nil
}

// charge reserves n bytes. If fewer remain, the remaining bytes are read
// and discarded so that the source position doesn't depend on how the
// caller failed, and ErrLimitExceeded is returned.
func (r *BoundedReader) charge(n int) error {
	if r.remaining == Unbounded {
		return nil
	}
	if int64(n) > r.remaining {
		short := r.remaining
		r.remaining = 0
		if _, err := io.CopyN(io.Discard, r.rb, short); err != nil {
			return truncated(err)
		}
		return ErrLimitExceeded
	}
	r.remaining -= int64(n)
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// ReadByte reads one byte.
func (r *BoundedReader) ReadByte() (byte, error) {
	if err := r.charge(1); err != nil {
		return 0, err
	}
	c, err := r.rb.ReadByte()
	if err != nil {
		return 0, truncated(err)
	}
	return c, nil
}

// ReadUint8 reads one byte as an int.
func (r *BoundedReader) ReadUint8() (int, error) {
	c, err := r.ReadByte()
	return int(c), err
}

// ReadNibbles reads one byte and splits it into its high and low nibbles.
func (r *BoundedReader) ReadNibbles() (int, int, error) {
	c, err := r.ReadByte()
	return int(c >> 4), int(c & 0xF), err
}

// ReadUint16 reads a big-endian 16 bit value.
func (r *BoundedReader) ReadUint16() (int, error) {
	var buf [2]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return int(buf[0])<<8 | int(buf[1]), nil
}

// ReadFull fills buf.
func (r *BoundedReader) ReadFull(buf []byte) error {
	if err := r.charge(len(buf)); err != nil {
		return err
	}
	if _, err := io.ReadFull(r.rb, buf); err != nil {
		return truncated(err)
	}
	return nil
}

// ReadAll reads the rest of a bounded reader. It must not be used on an
// unbounded one.
func (r *BoundedReader) ReadAll() ([]byte, error) {
	if r.remaining == Unbounded {
		return nil, ErrLimitExceeded
	}
	buf := make([]byte, r.remaining)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Skip reads and discards n bytes.
func (r *BoundedReader) Skip(n int64) error {
	if n > int64(int(^uint(0)>>1)) {
		return ErrRange
	}
	if err := r.charge(int(n)); err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r.rb, n); err != nil {
		return truncated(err)
	}
	return nil
}

// Mark remembers the current position so that up to n bytes can be read
// and then given back with Reset.
func (r *BoundedReader) Mark(n int) {
	r.rb.Mark(n)
	r.marked = r.remaining
}

// Reset goes back to the last Mark, restoring the remaining count.
func (r *BoundedReader) Reset() error {
	if err := r.rb.Reset(); err != nil {
		return err
	}
	r.remaining = r.marked
	return nil
}

// Unmark keeps what has been read since the last Mark.
func (r *BoundedReader) Unmark() {
	r.rb.Unmark()
}

// PeekByte returns the next byte without consuming it. At the end of the
// source it returns io.EOF rather than ErrTruncated. It replaces any mark.
func (r *BoundedReader) PeekByte() (byte, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	r.rb.Mark(1)
	c, err := r.rb.ReadByte()
	if rerr := r.rb.Reset(); rerr != nil && err == nil {
		err = rerr
	}
	return c, err
}

// next reads one byte of an unbounded stream, reporting the end of the
// source as io.EOF.
func (r *BoundedReader) next() (byte, error) {
	if r.remaining == 0 {
		return 0, io.EOF
	}
	c, err := r.rb.ReadByte()
	if err != nil {
		return 0, err
	}
	if r.remaining != Unbounded {
		r.remaining--
	}
	return c, nil
}
