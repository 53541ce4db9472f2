package jpegdoc

import (
	"bytes"
	"io"
	"unicode/utf8"
)

// Comment is a COM segment. Data holds the parameter bytes as stored, in
// which a 0xFF may be followed by a stuffed 0x00 as in scan data.
type Comment struct {
	Segment
	Data []byte
}

// NewComment returns a COM segment holding text.
func NewComment(text string) *Comment {
	c := &Comment{Segment: NewSegment(COM)}
	c.SetPayload([]byte(text))
	return c
}

// Payload returns the comment bytes with each 0xFF 0x00 pair reduced to
// 0xFF.
func (c *Comment) Payload() []byte {
	return bytes.ReplaceAll(c.Data, []byte{0xFF, 0x00}, []byte{0xFF})
}

// SetPayload stores b, stuffing a 0x00 after each 0xFF.
func (c *Comment) SetPayload(b []byte) {
	c.Data = bytes.ReplaceAll(b, []byte{0xFF}, []byte{0xFF, 0x00})
}

// Text returns the payload as a string.
func (c *Comment) Text() string {
	return string(c.Payload())
}

func (c *Comment) CheckMode(m Mode) []Problem {
	problems := c.CheckFraming(m)
	if len(c.Data) > MaxParameterSize {
		problems = append(problems, problemf(c.Name(), "%d bytes, max %d", len(c.Data), MaxParameterSize))
	}
	return problems
}

func (c *Comment) Equal(other Element) bool {
	o, ok := other.(*Comment)
	return ok && c.SameFraming(&o.Segment) && string(o.Data) == string(c.Data)
}

// IsText reports whether the payload is valid UTF-8.
func (c *Comment) IsText() bool {
	return utf8.Valid(c.Payload())
}

func (c *Comment) ParameterSize() int {
	return len(c.Data)
}

func (c *Comment) ReadParameters(r *BoundedReader) error {
	var err error
	c.Data, err = r.ReadAll()
	return err
}

func (c *Comment) WriteParameters(w io.Writer) error {
	_, err := w.Write(c.Data)
	return err
}

// Opaque is a segment whose parameters aren't interpreted: application
// data without a more specific type, JPGn extensions and reserved markers.
// Large payloads can be left in the source until they are needed.
type Opaque struct {
	Segment
	deferral
	payload payload
}

// NewOpaque returns a segment with marker m holding data.
func NewOpaque(m Marker, data []byte) *Opaque {
	o := &Opaque{Segment: NewSegment(m)}
	o.payload.set(data)
	return o
}

// Data returns the parameter bytes, loading them from the source if they
// were deferred.
func (o *Opaque) Data() ([]byte, error) {
	return o.payload.bytes()
}

// SetData replaces the parameter bytes.
func (o *Opaque) SetData(b []byte) {
	o.payload.set(b)
}

// Loaded reports whether the parameter bytes are in memory.
func (o *Opaque) Loaded() bool {
	return o.payload.loaded()
}

// Identifier returns the null-terminated string APPn segments
// conventionally start with, or "" if there isn't one.
func (o *Opaque) Identifier() string {
	if !o.Marker().IsAPP() {
		return ""
	}
	b, err := o.payload.bytes()
	if err != nil {
		return ""
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
		if c < 0x20 || c > 0x7E || i == 32 {
			break
		}
	}
	return ""
}

func (o *Opaque) CheckMode(m Mode) []Problem {
	problems := o.CheckFraming(m)
	if !o.Marker().HasLength() {
		problems = append(problems, problemf(o.Name(), "marker has no length field"))
	}
	if o.payload.size() > MaxParameterSize {
		problems = append(problems, problemf(o.Name(), "%d bytes, max %d", o.payload.size(), MaxParameterSize))
	}
	return problems
}

func (o *Opaque) Equal(other Element) bool {
	p, ok := other.(*Opaque)
	return ok && o.SameFraming(&p.Segment) && o.payload.equal(&p.payload)
}

func (o *Opaque) ParameterSize() int {
	return o.payload.size()
}

func (o *Opaque) ReadParameters(r *BoundedReader) error {
	return o.deferral.read(r, int(r.Remaining()), &o.payload)
}

func (o *Opaque) WriteParameters(w io.Writer) error {
	return o.payload.write(w)
}
