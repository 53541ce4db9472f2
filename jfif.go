package jpegdoc

import (
	"bytes"
	"io"
)

var (
	jfifHeader = []byte("JFIF\000")
	jfxxHeader = []byte("JFXX\000")
)

// Density units of a JFIF segment.
const (
	UnitsNone = 0 // aspect ratio only
	UnitsInch = 1
	UnitsCM   = 2
)

// JFXX extension codes.
const (
	ThumbnailJPEG    = 0x10
	ThumbnailPalette = 0x11 // one byte per pixel and a 256 entry RGB palette
	ThumbnailRGB     = 0x13 // three bytes per pixel
)

var (
	unitsRule   = NewRangeRule("units", Byte, 0, 2)
	densityRule = NewRangeRule("density", Short, 1, 0xFFFF)
)

// readIdentifier reads and checks the identifier an APPn segment starts
// with. A mismatch means the segment belongs to another type.
func readIdentifier(r *BoundedReader, name string, id []byte) error {
	if r.Remaining() < int64(len(id)) {
		return mismatch(name, id)
	}
	buf := make([]byte, len(id))
	if err := r.ReadFull(buf); err != nil {
		return err
	}
	if !bytes.Equal(buf, id) {
		return mismatch(name, id)
	}
	return nil
}

// JFIF is the APP0 segment that identifies a JFIF file.
type JFIF struct {
	Segment
	Major, Minor int
	Units        int
	XDensity     int
	YDensity     int
	ThumbWidth   int
	ThumbHeight  int
	// Thumbnail holds ThumbWidth*ThumbHeight RGB pixels.
	Thumbnail []byte
}

// NewJFIF returns a version 1.02 JFIF segment without a thumbnail.
func NewJFIF(units, xdensity, ydensity int) *JFIF {
	return &JFIF{Segment: NewSegment(APP0), Major: 1, Minor: 2,
		Units: units, XDensity: xdensity, YDensity: ydensity}
}

func (j *JFIF) Name() string {
	return "JFIF"
}

func (j *JFIF) CheckMode(m Mode) []Problem {
	problems := j.CheckFraming(m)
	problems = unitsRule.Accumulate(j.Units, m, problems)
	problems = densityRule.Accumulate(j.XDensity, m, problems)
	problems = densityRule.Accumulate(j.YDensity, m, problems)
	if j.ThumbWidth < 0 || j.ThumbWidth > 0xFF || j.ThumbHeight < 0 || j.ThumbHeight > 0xFF {
		problems = append(problems, problemf(j.Name(), "thumbnail size %dx%d doesn't fit", j.ThumbWidth, j.ThumbHeight))
	}
	if len(j.Thumbnail) != 3*j.ThumbWidth*j.ThumbHeight {
		problems = append(problems, problemf(j.Name(), "%d thumbnail bytes for %dx%d pixels", len(j.Thumbnail), j.ThumbWidth, j.ThumbHeight))
	}
	if m.Strictness == Strict && j.Major != 1 {
		problems = append(problems, problemf(j.Name(), "unknown version %d.%02d", j.Major, j.Minor))
	}
	return problems
}

func (j *JFIF) Equal(other Element) bool {
	o, ok := other.(*JFIF)
	return ok && j.SameFraming(&o.Segment) && o.Major == j.Major && o.Minor == j.Minor &&
		o.Units == j.Units && o.XDensity == j.XDensity && o.YDensity == j.YDensity &&
		o.ThumbWidth == j.ThumbWidth && o.ThumbHeight == j.ThumbHeight &&
		bytes.Equal(o.Thumbnail, j.Thumbnail)
}

func (j *JFIF) ParameterSize() int {
	return len(jfifHeader) + 9 + len(j.Thumbnail)
}

func (j *JFIF) ReadParameters(r *BoundedReader) error {
	if err := readIdentifier(r, j.Name(), jfifHeader); err != nil {
		return err
	}
	var err error
	if j.Major, err = r.ReadUint8(); err != nil {
		return err
	}
	if j.Minor, err = r.ReadUint8(); err != nil {
		return err
	}
	if j.Units, err = r.ReadUint8(); err != nil {
		return err
	}
	if j.XDensity, err = r.ReadUint16(); err != nil {
		return err
	}
	if j.YDensity, err = r.ReadUint16(); err != nil {
		return err
	}
	if j.ThumbWidth, err = r.ReadUint8(); err != nil {
		return err
	}
	if j.ThumbHeight, err = r.ReadUint8(); err != nil {
		return err
	}
	j.Thumbnail = make([]byte, 3*j.ThumbWidth*j.ThumbHeight)
	return r.ReadFull(j.Thumbnail)
}

func (j *JFIF) WriteParameters(w io.Writer) error {
	buf := make([]byte, 0, j.ParameterSize())
	buf = append(buf, jfifHeader...)
	buf = append(buf, byte(j.Major), byte(j.Minor), byte(j.Units),
		byte(j.XDensity>>8), byte(j.XDensity), byte(j.YDensity>>8), byte(j.YDensity),
		byte(j.ThumbWidth), byte(j.ThumbHeight))
	buf = append(buf, j.Thumbnail...)
	_, err := w.Write(buf)
	return err
}

// JFXX is the optional APP0 extension segment following JFIF, holding a
// thumbnail. A JPEG-coded thumbnail is parsed into its own Document.
type JFXX struct {
	Segment
	Code int
	// Thumbnail is set for ThumbnailJPEG.
	Thumbnail *Document
	// Data holds the bytes after the extension code for the other codes,
	// starting with the thumbnail width and height.
	Data []byte
}

// NewJFXX returns an extension segment with a JPEG-coded thumbnail.
func NewJFXX(thumbnail *Document) *JFXX {
	return &JFXX{Segment: NewSegment(APP0), Code: ThumbnailJPEG, Thumbnail: thumbnail}
}

func (j *JFXX) Name() string {
	return "JFXX"
}

func (j *JFXX) Children() []Element {
	if j.Thumbnail == nil {
		return nil
	}
	return []Element{j.Thumbnail}
}

func (j *JFXX) CheckMode(m Mode) []Problem {
	problems := j.CheckFraming(m)
	switch j.Code {
	case ThumbnailJPEG:
		if j.Thumbnail == nil {
			problems = append(problems, problemf(j.Name(), "JPEG thumbnail missing"))
		}
	case ThumbnailPalette, ThumbnailRGB:
		if len(j.Data) < 2 {
			problems = append(problems, problemf(j.Name(), "thumbnail size missing"))
			break
		}
		pixels := int(j.Data[0]) * int(j.Data[1])
		want := 2 + 3*pixels
		if j.Code == ThumbnailPalette {
			want = 2 + 768 + pixels
		}
		if len(j.Data) != want && m.Strictness == Strict {
			problems = append(problems, problemf(j.Name(), "%d thumbnail bytes, want %d", len(j.Data), want))
		}
	default:
		if m.Strictness == Strict {
			problems = append(problems, problemf(j.Name(), "unknown extension code 0x%02X", j.Code))
		}
	}
	return problems
}

func (j *JFXX) Equal(other Element) bool {
	o, ok := other.(*JFXX)
	if !ok || !j.SameFraming(&o.Segment) || o.Code != j.Code || !bytes.Equal(o.Data, j.Data) {
		return false
	}
	if j.Thumbnail == nil || o.Thumbnail == nil {
		return j.Thumbnail == nil && o.Thumbnail == nil
	}
	return j.Thumbnail.Equal(o.Thumbnail)
}

func (j *JFXX) ParameterSize() int {
	n := len(jfxxHeader) + 1 + len(j.Data)
	if j.Thumbnail != nil {
		n += j.Thumbnail.Size()
	}
	return n
}

func (j *JFXX) ReadParameters(r *BoundedReader) error {
	if err := readIdentifier(r, j.Name(), jfxxHeader); err != nil {
		return err
	}
	var err error
	if j.Code, err = r.ReadUint8(); err != nil {
		return err
	}
	rest, err := r.ReadAll()
	if err != nil {
		return err
	}
	if j.Code != ThumbnailJPEG {
		j.Data = rest
		return nil
	}
	thumb := NewDocument(&Options{Mode: j.Mode()})
	thumb.AddStandardElementTypes()
	if _, err := thumb.ReadFrom(bytes.NewReader(rest)); err != nil {
		return &FormatError{Problem: problemf(j.Name(), "reading JPEG thumbnail"), Err: err}
	}
	j.Thumbnail = thumb
	return nil
}

func (j *JFXX) WriteParameters(w io.Writer) error {
	if _, err := w.Write(append(append([]byte{}, jfxxHeader...), byte(j.Code))); err != nil {
		return err
	}
	if j.Thumbnail != nil {
		if _, err := j.Thumbnail.WriteTo(w); err != nil {
			return err
		}
	}
	_, err := w.Write(j.Data)
	return err
}
