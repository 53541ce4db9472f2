package jpegdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	tiff "github.com/garyhouston/tiff66"
)

var (
	exifHeader = []byte("Exif\000\000")
	mpfHeader  = []byte("MPF\000")
)

// Sizes of the identifiers before the TIFF data.
const (
	ExifHeaderSize = 6
	MPFHeaderSize  = 4
)

// tiffSegment is the shared part of APPn segments holding a TIFF
// structure after an identifier.
type tiffSegment struct {
	Segment
	header []byte
	// TIFF holds the bytes following the identifier, starting with the
	// TIFF header.
	TIFF []byte
}

func (t *tiffSegment) check(m Mode) []Problem {
	problems := t.CheckFraming(m)
	if m.Strictness == Strict {
		if valid, _, _ := tiff.GetHeader(t.TIFF); !valid {
			problems = append(problems, problemf(t.Name(), "invalid TIFF header"))
		}
	}
	return problems
}

func (t *tiffSegment) same(o *tiffSegment) bool {
	return t.SameFraming(&o.Segment) && bytes.Equal(t.TIFF, o.TIFF)
}

func (t *tiffSegment) ParameterSize() int {
	return len(t.header) + len(t.TIFF)
}

func (t *tiffSegment) ReadParameters(r *BoundedReader) error {
	if err := readIdentifier(r, t.Name(), t.header); err != nil {
		return err
	}
	var err error
	t.TIFF, err = r.ReadAll()
	return err
}

func (t *tiffSegment) WriteParameters(w io.Writer) error {
	if _, err := w.Write(t.header); err != nil {
		return err
	}
	_, err := w.Write(t.TIFF)
	return err
}

func (t *tiffSegment) tree(space tiff.TagSpace) (*tiff.IFDNode, error) {
	valid, order, ifdpos := tiff.GetHeader(t.TIFF)
	if !valid {
		return nil, formatErrorf(t.Name(), "invalid TIFF header")
	}
	return tiff.GetIFDTree(t.TIFF, order, ifdpos, space)
}

// Exif is an APP1 segment with Exif metadata.
type Exif struct {
	tiffSegment
}

// NewExif returns an APP1 Exif segment holding TIFF data.
func NewExif(data []byte) *Exif {
	return &Exif{tiffSegment{Segment: NewSegment(APP0 + 1), header: exifHeader, TIFF: data}}
}

func (e *Exif) Name() string {
	return "Exif"
}

func (e *Exif) CheckMode(m Mode) []Problem {
	return e.check(m)
}

func (e *Exif) Equal(other Element) bool {
	o, ok := other.(*Exif)
	return ok && e.same(&o.tiffSegment)
}

// Tree decodes the TIFF structure.
func (e *Exif) Tree() (*tiff.IFDNode, error) {
	return e.tree(tiff.TIFFSpace)
}

// MPF is an APP2 segment with Multi-Picture Format data. The first image
// of a file has an index IFD listing all the images; the others have an
// attribute IFD only.
type MPF struct {
	tiffSegment
	Space tiff.TagSpace
}

// NewMPF returns an APP2 MPF segment holding TIFF data.
func NewMPF(data []byte, space tiff.TagSpace) *MPF {
	return &MPF{tiffSegment{Segment: NewSegment(APP0 + 2), header: mpfHeader, TIFF: data}, space}
}

func (p *MPF) Name() string {
	return "MPF"
}

func (p *MPF) CheckMode(m Mode) []Problem {
	return p.check(m)
}

func (p *MPF) Equal(other Element) bool {
	o, ok := other.(*MPF)
	return ok && p.same(&o.tiffSegment)
}

// ReadParameters reads the segment and works out from its tags whether it
// holds an index or only attributes.
func (p *MPF) ReadParameters(r *BoundedReader) error {
	if err := p.tiffSegment.ReadParameters(r); err != nil {
		return err
	}
	p.Space = tiff.MPFIndexSpace
	// A tree with errors may still hold the fields that were readable.
	node, _ := p.tree(tiff.MPFIndexSpace)
	if node == nil {
		return nil
	}
	for _, f := range node.Fields {
		if f.Tag == MPFNumberOfImages {
			return nil
		}
	}
	p.Space = tiff.MPFAttributeSpace
	return nil
}

// Tree decodes the TIFF structure in the segment's tag space.
func (p *MPF) Tree() (*tiff.IFDNode, error) {
	return p.tree(p.Space)
}

// MPFImage is an entry of the MPF index.
type MPFImage struct {
	Size uint32
	// Offset is relative to the first byte of the TIFF data, four bytes
	// after the start of the segment's parameters. The first image has
	// offset 0.
	Offset uint32
}

// Images lists the images of the MPF index.
func (p *MPF) Images() ([]MPFImage, error) {
	if p.Space != tiff.MPFIndexSpace {
		return nil, errors.New("jpegdoc: MPF segment doesn't contain an index")
	}
	node, err := p.Tree()
	if err != nil {
		return nil, err
	}
	order := node.Order
	var images []MPFImage
	for _, f := range node.Fields {
		switch f.Tag {
		case MPFNumberOfImages:
			images = make([]MPFImage, f.Long(0, order))
		case MPFEntry:
			for i := range images {
				images[i].Size = f.Long(uint32(i)*4+1, order)
				images[i].Offset = f.Long(uint32(i)*4+2, order)
			}
		}
	}
	return images, nil
}

// MPFField is a field of an MPF IFD with the name of its tag.
type MPFField struct {
	Space tiff.TagSpace
	Name  string
	tiff.Field
}

// Fields lists the fields of the segment's IFDs: the index IFD, if there
// is one, then the attribute IFD. Tags without a name are given in hex.
func (p *MPF) Fields() ([]MPFField, error) {
	node, err := p.Tree()
	if err != nil {
		return nil, err
	}
	var fields []MPFField
	// GetSpace on the root of an index tree reports TIFFSpace. Any IFD
	// after the root holds attributes.
	space := p.Space
	for ; node != nil; node = node.Next {
		names := MPFAttributeTagNames
		if space == tiff.MPFIndexSpace {
			names = MPFIndexTagNames
		}
		for _, f := range node.Fields {
			name, ok := names[f.Tag]
			if !ok {
				name = fmt.Sprintf("0x%04X", uint16(f.Tag))
			}
			fields = append(fields, MPFField{Space: space, Name: name, Field: f})
		}
		space = tiff.MPFAttributeSpace
	}
	return fields, nil
}

// MPF index IFD tags.
const (
	MPFVersion        = 0xB000
	MPFNumberOfImages = 0xB001
	MPFEntry          = 0xB002
	MPFImageUIDList   = 0xB003
	MPFTotalFrames    = 0xB004
)

// MPFIndexTagNames names the tags of the MPF index IFD.
var MPFIndexTagNames = map[tiff.Tag]string{
	MPFVersion:        "MPFVersion",
	MPFNumberOfImages: "MPFNumberOfImages",
	MPFEntry:          "MPFEntry",
	MPFImageUIDList:   "MPFImageUIDList",
	MPFTotalFrames:    "MPFTotalFrames",
}

// MPF attribute IFD tags. MPFVersion is shared with the index IFD.
const (
	MPFIndividualImageNumber       = 0xB101
	MPFPanoramaScanningOrientation = 0xB201
	MPFPanoramaHorizontalOverlap   = 0xB202
	MPFPanoramaVerticalOverlap     = 0xB203
	MPFBaseViewpointNumber         = 0xB204
	MPFConvergenceAngle            = 0xB205
	MPFBaselineLength              = 0xB206
	MPFDivergenceAngle             = 0xB207
	MPFHorizontalAxisDistance      = 0xB208
	MPFVerticalAxisDistance        = 0xB209
	MPFCollimationAxisDistance     = 0xB20A
	MPFYawAngle                    = 0xB20B
	MPFPitchAngle                  = 0xB20C
	MPFRollAngle                   = 0xB20D
)

// MPFAttributeTagNames names the tags of the MPF attribute IFD.
var MPFAttributeTagNames = map[tiff.Tag]string{
	MPFVersion:                     "MPFVersion",
	MPFIndividualImageNumber:       "MPFIndividualImageNumber",
	MPFPanoramaScanningOrientation: "MPFPanoramaScanningOrientation",
	MPFPanoramaHorizontalOverlap:   "MPFPanoramaHorizontalOverlap",
	MPFPanoramaVerticalOverlap:     "MPFPanoramaVerticalOverlap",
	MPFBaseViewpointNumber:         "MPFBaseViewpointNumber",
	MPFConvergenceAngle:            "MPFConvergenceAngle",
	MPFBaselineLength:              "MPFBaselineLength",
	MPFDivergenceAngle:             "MPFDivergenceAngle",
	MPFHorizontalAxisDistance:      "MPFHorizontalAxisDistance",
	MPFVerticalAxisDistance:        "MPFVerticalAxisDistance",
	MPFCollimationAxisDistance:     "MPFCollimationAxisDistance",
	MPFYawAngle:                    "MPFYawAngle",
	MPFPitchAngle:                  "MPFPitchAngle",
	MPFRollAngle:                   "MPFRollAngle",
}
