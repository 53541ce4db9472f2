package jpegdoc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var xmpHeader = []byte("http://ns.adobe.com/xap/1.0/\000")

// XMP is an APP1 segment holding an XMP packet.
type XMP struct {
	Segment
	Packet []byte
}

// NewXMP returns an APP1 segment holding packet.
func NewXMP(packet []byte) *XMP {
	return &XMP{Segment: NewSegment(APP0 + 1), Packet: packet}
}

func (x *XMP) Name() string {
	return "XMP"
}

func (x *XMP) parse() (*xmlquery.Node, error) {
	return xmlquery.Parse(bytes.NewReader(x.Packet))
}

func (x *XMP) CheckMode(m Mode) []Problem {
	problems := x.CheckFraming(m)
	if m.Strictness == Strict {
		if _, err := x.parse(); err != nil {
			problems = append(problems, problemf(x.Name(), "packet isn't well-formed XML: %v", err))
		}
	}
	return problems
}

func (x *XMP) Equal(other Element) bool {
	o, ok := other.(*XMP)
	return ok && x.SameFraming(&o.Segment) && bytes.Equal(o.Packet, x.Packet)
}

// Query evaluates an XPath expression against the packet and returns the
// text of the matching nodes.
func (x *XMP) Query(expr string) ([]string, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("jpegdoc: invalid xpath: %w", err)
	}
	root, err := x.parse()
	if err != nil {
		return nil, fmt.Errorf("jpegdoc: parsing XMP packet: %w", err)
	}
	nodes := xmlquery.QuerySelectorAll(root, compiled)
	values := make([]string, len(nodes))
	for i, n := range nodes {
		values[i] = n.InnerText()
	}
	return values, nil
}

// Property returns the value of a property such as "xmp:CreatorTool",
// stored either as an attribute of an rdf:Description or as an element.
func (x *XMP) Property(name string) (string, bool, error) {
	values, err := x.Query(fmt.Sprintf("//@*[name()=%q] | //*[name()=%q]", name, name))
	if err != nil || len(values) == 0 {
		return "", false, err
	}
	return values[0], true, nil
}

func (x *XMP) ParameterSize() int {
	return len(xmpHeader) + len(x.Packet)
}

func (x *XMP) ReadParameters(r *BoundedReader) error {
	if err := readIdentifier(r, x.Name(), xmpHeader); err != nil {
		return err
	}
	var err error
	x.Packet, err = r.ReadAll()
	return err
}

func (x *XMP) WriteParameters(w io.Writer) error {
	if _, err := w.Write(xmpHeader); err != nil {
		return err
	}
	_, err := w.Write(x.Packet)
	return err
}
