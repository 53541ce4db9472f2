package jpegdoc

import (
	"bytes"
	"fmt"
	"io"
)

// MaxParameterSize is the largest parameter body a length field can
// describe: the length counts itself and is at most 0xFFFF.
const MaxParameterSize = 0xFFFF - 2

// Marked is implemented by elements that start with a marker.
type Marked interface {
	Element
	Marker() Marker
}

// Framed is implemented by segments with a length field: a marker, a two
// byte big-endian length that counts itself, the parameters, and any
// trailing bytes the parameters didn't account for.
type Framed interface {
	Marked
	// ParameterSize returns the number of bytes WriteParameters writes.
	ParameterSize() int
	ReadParameters(r *BoundedReader) error
	WriteParameters(w io.Writer) error
	TrailingBytes() []byte
	SetTrailingBytes(b []byte)
}

// Raw is implemented by elements written as they are, without a length
// field.
type Raw interface {
	Element
	RawSize() int
	WriteRaw(w io.Writer) error
}

// Segment holds the framing state of a length-prefixed segment. Embed it
// in segment types.
type Segment struct {
	ModeBase
	marker   Marker
	trailing []byte
}

// NewSegment returns the framing state for a segment with marker m.
func NewSegment(m Marker) Segment {
	return Segment{marker: m}
}

func (s *Segment) Marker() Marker {
	return s.marker
}

func (s *Segment) Name() string {
	return s.marker.Name()
}

// TrailingBytes returns the bytes following the parameters inside the
// segment length. They are only kept under Lax.
func (s *Segment) TrailingBytes() []byte {
	return s.trailing
}

func (s *Segment) SetTrailingBytes(b []byte) {
	s.trailing = b
}

// CheckFraming reports the problems of the framing itself under m.
func (s *Segment) CheckFraming(m Mode) []Problem {
	if len(s.trailing) > 0 && m.Strictness == Strict {
		return []Problem{problemf(s.Name(), "%d trailing bytes after parameters", len(s.trailing))}
	}
	return nil
}

// SameFraming reports whether two segments have the same marker and
// trailing bytes.
func (s *Segment) SameFraming(o *Segment) bool {
	return s.marker == o.marker && bytes.Equal(s.trailing, o.trailing)
}

// Delimiter is a marker without parameters: SOI, EOI, RSTn or TEM.
type Delimiter struct {
	ModeBase
	marker Marker
}

// NewDelimiter returns a delimiter for marker m.
func NewDelimiter(m Marker) *Delimiter {
	return &Delimiter{marker: m}
}

func (d *Delimiter) Marker() Marker {
	return d.marker
}

func (d *Delimiter) Name() string {
	return d.marker.Name()
}

func (d *Delimiter) CheckMode(m Mode) []Problem {
	if d.marker.HasLength() {
		return []Problem{problemf(d.Name(), "marker requires a length field")}
	}
	return nil
}

func (d *Delimiter) Equal(other Element) bool {
	o, ok := other.(*Delimiter)
	return ok && o.marker == d.marker
}

func (d *Delimiter) RawSize() int {
	return 2
}

func (d *Delimiter) WriteRaw(w io.Writer) error {
	return WriteMarker(w, d.marker)
}

// WriteMarker writes 0xFF followed by the marker.
func WriteMarker(w io.Writer, m Marker) error {
	_, err := w.Write([]byte{0xFF, byte(m)})
	return err
}

// ReadFramed reads the length field of s, then its parameters. Bytes the
// parameters leave unread are a format violation under Strict and are
// kept as trailing bytes under Lax. The marker has already been read.
func ReadFramed(r *BoundedReader, s Framed) error {
	length, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if length < 2 {
		return formatErrorf(s.Name(), "segment length %d is less than 2", length)
	}
	body, err := r.Sub(int64(length - 2))
	if err != nil {
		return err
	}
	if err := s.ReadParameters(body); err != nil {
		return err
	}
	if body.Remaining() == 0 {
		return nil
	}
	if s.Mode().Strictness == Strict {
		n := body.Remaining()
		if err := body.Skip(n); err != nil {
			return err
		}
		return formatErrorf(s.Name(), "%d bytes left after parameters", n)
	}
	trailing, err := body.ReadAll()
	if err != nil {
		return err
	}
	s.SetTrailingBytes(trailing)
	return nil
}

// WriteFramed writes the marker, length, parameters and trailing bytes
// of s.
func WriteFramed(w io.Writer, s Framed) error {
	size := s.ParameterSize() + len(s.TrailingBytes())
	if size > MaxParameterSize {
		return fmt.Errorf("%w: %s has %d bytes, max %d", ErrSegmentTooLong, s.Name(), size, MaxParameterSize)
	}
	length := size + 2
	if _, err := w.Write([]byte{0xFF, byte(s.Marker()), byte(length >> 8), byte(length)}); err != nil {
		return err
	}
	if err := s.WriteParameters(w); err != nil {
		return err
	}
	if len(s.TrailingBytes()) > 0 {
		_, err := w.Write(s.TrailingBytes())
		return err
	}
	return nil
}

// Size returns the number of bytes Write emits for e.
func Size(e Element) int {
	switch e := e.(type) {
	case Framed:
		return 4 + e.ParameterSize() + len(e.TrailingBytes())
	case Raw:
		return e.RawSize()
	}
	return 0
}

// Write writes e in its on-disk form.
func Write(w io.Writer, e Element) error {
	switch e := e.(type) {
	case Framed:
		return WriteFramed(w, e)
	case Raw:
		return e.WriteRaw(w)
	}
	return fmt.Errorf("jpegdoc: %s can't be written on its own", e.Name())
}

// readElement reads the body of an element whose marker has already been
// consumed.
func readElement(r *BoundedReader, e Element) error {
	if f, ok := e.(Framed); ok {
		return ReadFramed(r, f)
	}
	return nil
}
