package jpegdoc

import (
	"io"
)

var (
	precisionRule = NewProfileRangeRule("P", Byte, Range{8, 8}, Range{8, 12}, Range{8, 12}, Range{2, 16})
	linesRule     = NewRangeRule("Y", Short, 0, 0xFFFF)
	samplesRule   = NewRangeRule("X", Short, 1, 0xFFFF)
	frameNfRule   = NewProfileRangeRule("Nf", Byte, Range{1, 255}, Range{1, 255}, Range{1, 4}, Range{1, 255})
	componentRule = NewRangeRule("C", Byte, 0, 255)
	samplingRule  = NewRangeRule("H/V", Nibble, 1, 4)
	frameTqRule   = NewProfileRangeRule("Tq", Nibble, Range{0, 3}, Range{0, 3}, Range{0, 3}, Range{0, 0})
)

// FrameComponent is one component specification of a frame header.
type FrameComponent struct {
	ModeBase
	ID         int // C
	Horizontal int // H
	Vertical   int // V
	Table      int // Tq
}

func (c *FrameComponent) Name() string {
	return "frame component"
}

func (c *FrameComponent) CheckMode(m Mode) []Problem {
	var problems []Problem
	problems = componentRule.Accumulate(c.ID, m, problems)
	problems = samplingRule.Accumulate(c.Horizontal, m, problems)
	problems = samplingRule.Accumulate(c.Vertical, m, problems)
	return frameTqRule.Accumulate(c.Table, m, problems)
}

func (c *FrameComponent) Equal(other Element) bool {
	o, ok := other.(*FrameComponent)
	return ok && o.ID == c.ID && o.Horizontal == c.Horizontal &&
		o.Vertical == c.Vertical && o.Table == c.Table
}

// FrameHeader is a SOFn segment, or a DHP segment in a hierarchical image.
type FrameHeader struct {
	Segment
	Precision  int // P
	Lines      int // Y
	Samples    int // X
	Components []*FrameComponent
}

// NewFrameHeader returns an empty frame header with marker m.
func NewFrameHeader(m Marker) *FrameHeader {
	return &FrameHeader{Segment: NewSegment(m)}
}

// SetPrecision sets the sample precision if the current mode allows it.
func (f *FrameHeader) SetPrecision(p int) error {
	if err := precisionRule.Check(p, f.Mode()); err != nil {
		return err
	}
	f.Precision = p
	return nil
}

// SetDimensions sets the number of lines and samples per line.
func (f *FrameHeader) SetDimensions(lines, samples int) error {
	if err := linesRule.Check(lines, f.Mode()); err != nil {
		return err
	}
	if err := samplesRule.Check(samples, f.Mode()); err != nil {
		return err
	}
	f.Lines, f.Samples = lines, samples
	return nil
}

// AddComponent appends a component specification, checking it against
// the frame's mode.
func (f *FrameHeader) AddComponent(c *FrameComponent) error {
	if err := SetMode(c, f.Mode()); err != nil {
		return err
	}
	f.Components = append(f.Components, c)
	return nil
}

// Profile returns the profile selected by the frame marker.
func (f *FrameHeader) Profile() Profile {
	return ProfileForMarker(f.Marker())
}

func (f *FrameHeader) Children() []Element {
	children := make([]Element, len(f.Components))
	for i, c := range f.Components {
		children[i] = c
	}
	return children
}

func (f *FrameHeader) CheckMode(m Mode) []Problem {
	problems := f.CheckFraming(m)
	problems = precisionRule.Accumulate(f.Precision, m, problems)
	problems = linesRule.Accumulate(f.Lines, m, problems)
	problems = samplesRule.Accumulate(f.Samples, m, problems)
	problems = frameNfRule.Accumulate(len(f.Components), m, problems)
	if m.Strictness == Lax {
		return problems
	}
	if f.Marker() == DHP || f.Profile().IsDifferential() {
		if !m.Hierarchical {
			problems = append(problems, problemf(f.Name(), "only allowed in hierarchical mode"))
		}
	} else if !m.Hierarchical && m.Profile != ProfileUnset && m.Profile != f.Profile() {
		problems = append(problems, problemf(f.Name(), "frame process doesn't match profile %s", m.Profile))
	}
	if f.Marker() == DHP {
		for _, c := range f.Components {
			if c.Table != 0 {
				problems = append(problems, problemf(f.Name(), "component %d has Tq %d, must be 0", c.ID, c.Table))
			}
		}
	}
	return problems
}

func (f *FrameHeader) Equal(other Element) bool {
	o, ok := other.(*FrameHeader)
	if !ok || !f.SameFraming(&o.Segment) || f.Precision != o.Precision ||
		f.Lines != o.Lines || f.Samples != o.Samples || len(f.Components) != len(o.Components) {
		return false
	}
	for i := range f.Components {
		if !f.Components[i].Equal(o.Components[i]) {
			return false
		}
	}
	return true
}

func (f *FrameHeader) ParameterSize() int {
	return 6 + 3*len(f.Components)
}

func (f *FrameHeader) ReadParameters(r *BoundedReader) error {
	var err error
	if f.Precision, err = r.ReadUint8(); err != nil {
		return err
	}
	if f.Lines, err = r.ReadUint16(); err != nil {
		return err
	}
	if f.Samples, err = r.ReadUint16(); err != nil {
		return err
	}
	n, err := r.ReadUint8()
	if err != nil {
		return err
	}
	f.Components = make([]*FrameComponent, n)
	for i := range f.Components {
		c := &FrameComponent{}
		c.CommitMode(f.Mode())
		if c.ID, err = r.ReadUint8(); err != nil {
			return err
		}
		if c.Horizontal, c.Vertical, err = r.ReadNibbles(); err != nil {
			return err
		}
		if c.Table, err = r.ReadUint8(); err != nil {
			return err
		}
		f.Components[i] = c
	}
	return nil
}

func (f *FrameHeader) WriteParameters(w io.Writer) error {
	buf := make([]byte, 0, f.ParameterSize())
	buf = append(buf, byte(f.Precision), byte(f.Lines>>8), byte(f.Lines),
		byte(f.Samples>>8), byte(f.Samples), byte(len(f.Components)))
	for _, c := range f.Components {
		buf = append(buf, byte(c.ID), byte(c.Horizontal<<4|c.Vertical&0xF), byte(c.Table))
	}
	_, err := w.Write(buf)
	return err
}
