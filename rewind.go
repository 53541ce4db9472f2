package jpegdoc

import (
	"io"
)

type rewindState uint8

const (
	rewindIdle          rewindState = iota
	rewindAccepting                 // marked, collecting bytes as they are read
	rewindAcceptingFull             // marked, window exactly filled
	rewindReplaying                 // serving collected bytes, no mark
)

// RewindBuffer lets a reader go back to a marked position without the
// underlying source supporting Seek. Bytes read after Mark are kept until
// the marked window is exceeded.
type RewindBuffer struct {
	src    io.Reader
	ring   []byte // bytes collected since the mark
	head   int    // next byte of ring to serve
	window int
	state  rewindState
	offset int64 // bytes delivered to the caller
	one    [1]byte
}

// NewRewindBuffer returns a RewindBuffer reading from src.
func NewRewindBuffer(src io.Reader) *RewindBuffer {
	return &RewindBuffer{src: src}
}

// Offset returns the number of bytes delivered so far. Replayed bytes are
// counted once: Reset moves the offset back to the mark.
func (b *RewindBuffer) Offset() int64 {
	return b.offset
}

// Mark starts collecting bytes so that up to n of them can be replayed
// after Reset. Bytes still waiting to be replayed become the start of the
// new window.
func (b *RewindBuffer) Mark(n int) {
	pending := b.ring[b.head:]
	if len(pending) > n {
		n = len(pending)
	}
	if cap(b.ring) < n {
		ring := make([]byte, len(pending), n)
		copy(ring, pending)
		b.ring = ring
	} else {
		b.ring = b.ring[:copy(b.ring, pending)]
	}
	b.head = 0
	b.window = n
	b.state = rewindAccepting
	if len(b.ring) == b.window {
		b.state = rewindAcceptingFull
	}
}

// Reset goes back to the mark. The collected bytes are served again by the
// following reads; the mark itself is released.
func (b *RewindBuffer) Reset() error {
	if b.state != rewindAccepting && b.state != rewindAcceptingFull {
		return ErrNoMark
	}
	b.offset -= int64(b.head)
	b.head = 0
	b.state = rewindReplaying
	if len(b.ring) == 0 {
		b.state = rewindIdle
	}
	return nil
}

// Unmark releases the mark without going back. Bytes collected but not
// yet served are still served.
func (b *RewindBuffer) Unmark() {
	if b.state != rewindAccepting && b.state != rewindAcceptingFull {
		return
	}
	b.state = rewindReplaying
	b.collapse()
}

// collapse drops the buffer once nothing is left to replay.
func (b *RewindBuffer) collapse() {
	if b.state == rewindReplaying && b.head >= len(b.ring) {
		b.ring = b.ring[:0]
		b.head = 0
		b.state = rewindIdle
	}
}

// ReadByte reads one byte, from the buffer if bytes are waiting to be
// replayed and from the source otherwise.
func (b *RewindBuffer) ReadByte() (byte, error) {
	if b.head < len(b.ring) {
		c := b.ring[b.head]
		b.head++
		b.offset++
		b.collapse()
		return c, nil
	}
	if _, err := io.ReadFull(b.src, b.one[:]); err != nil {
		return 0, err
	}
	b.offset++
	b.accept(b.one[:])
	return b.one[0], nil
}

// Read implements io.Reader.
func (b *RewindBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.head < len(b.ring) {
		n := copy(p, b.ring[b.head:])
		b.head += n
		b.offset += int64(n)
		b.collapse()
		return n, nil
	}
	n, err := b.src.Read(p)
	b.offset += int64(n)
	b.accept(p[:n])
	return n, err
}

// accept records bytes read from the source while a mark is active.
// Overflowing the window silently drops the mark.
func (b *RewindBuffer) accept(p []byte) {
	switch b.state {
	case rewindAccepting:
		if len(b.ring)+len(p) > b.window {
			b.ring = b.ring[:0]
			b.head = 0
			b.state = rewindIdle
			return
		}
		b.ring = append(b.ring, p...)
		b.head = len(b.ring)
		if len(b.ring) == b.window {
			b.state = rewindAcceptingFull
		}
	case rewindAcceptingFull:
		if len(p) > 0 {
			b.ring = b.ring[:0]
			b.head = 0
			b.state = rewindIdle
		}
	}
}
