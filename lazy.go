package jpegdoc

import (
	"bytes"
	"fmt"
	"io"
)

// payload holds segment bytes that are either in memory or still in the
// source, to be read on first use.
type payload struct {
	data []byte
	src  io.ReaderAt // nil once loaded
	off  int64
	n    int
}

// deferrer is implemented by elements whose payload can be left in the
// source while the document is read.
type deferrer interface {
	deferPayload(src io.ReaderAt, base int64, threshold int)
}

// deferral is the deferred-loading configuration handed to an element
// before it is read.
type deferral struct {
	src       io.ReaderAt
	base      int64 // source offset of the first byte of the stream
	threshold int
}

func (d *deferral) deferPayload(src io.ReaderAt, base int64, threshold int) {
	d.src, d.base, d.threshold = src, base, threshold
}

// read fills p with n bytes from r, or records where they are if they
// are at least the threshold in size. Either way d gives up its source.
func (d *deferral) read(r *BoundedReader, n int, p *payload) error {
	src := d.src
	d.src = nil
	if src == nil || d.threshold <= 0 || n < d.threshold {
		p.data = make([]byte, n)
		p.src = nil
		return r.ReadFull(p.data)
	}
	off := d.base + r.Offset()
	if err := r.Skip(int64(n)); err != nil {
		return err
	}
	p.data, p.src, p.off, p.n = nil, src, off, n
	return nil
}

func (p *payload) size() int {
	if p.src != nil {
		return p.n
	}
	return len(p.data)
}

// loaded reports whether the bytes are in memory.
func (p *payload) loaded() bool {
	return p.src == nil
}

// bytes returns the payload, reading it from the source the first time.
// Later calls don't touch the source.
func (p *payload) bytes() ([]byte, error) {
	if p.src == nil {
		return p.data, nil
	}
	buf := make([]byte, p.n)
	n, err := p.src.ReadAt(buf, p.off)
	if n < p.n {
		if err == nil || err == io.EOF {
			err = ErrTruncated
		}
		return nil, fmt.Errorf("jpegdoc: loading %d bytes at offset %d: %w", p.n, p.off, err)
	}
	p.data, p.src = buf, nil
	return p.data, nil
}

func (p *payload) set(b []byte) {
	p.data, p.src, p.n = b, nil, 0
}

func (p *payload) write(w io.Writer) error {
	b, err := p.bytes()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func (p *payload) equal(o *payload) bool {
	a, err := p.bytes()
	if err != nil {
		return false
	}
	b, err := o.bytes()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}
