package jpegdoc

import (
	"io"
)

var (
	scanNsRule   = NewRangeRule("Ns", Byte, 1, 4)
	selectorRule = NewRangeRule("Cs", Byte, 0, 255)
	dcTableRule  = NewProfileRangeRule("Td", Nibble, Range{0, 1}, Range{0, 3}, Range{0, 3}, Range{0, 3})
	acTableRule  = NewProfileRangeRule("Ta", Nibble, Range{0, 1}, Range{0, 3}, Range{0, 3}, Range{0, 0})
	ssRule       = NewProfileRangeRule("Ss", Byte, Range{0, 0}, Range{0, 0}, Range{0, 63}, Range{1, 7})
	seRule       = NewProfileRangeRule("Se", Byte, Range{63, 63}, Range{63, 63}, Range{0, 63}, Range{0, 0})
	ahRule       = NewProfileRangeRule("Ah", Nibble, Range{0, 0}, Range{0, 0}, Range{0, 13}, Range{0, 0})
	alRule       = NewProfileRangeRule("Al", Nibble, Range{0, 0}, Range{0, 0}, Range{0, 13}, Range{0, 15})
)

// ScanComponent selects a frame component for a scan and the entropy
// tables it uses.
type ScanComponent struct {
	ModeBase
	Selector int // Cs
	DCTable  int // Td
	ACTable  int // Ta
}

func (c *ScanComponent) Name() string {
	return "scan component"
}

func (c *ScanComponent) CheckMode(m Mode) []Problem {
	var problems []Problem
	problems = selectorRule.Accumulate(c.Selector, m, problems)
	problems = dcTableRule.Accumulate(c.DCTable, m, problems)
	return acTableRule.Accumulate(c.ACTable, m, problems)
}

func (c *ScanComponent) Equal(other Element) bool {
	o, ok := other.(*ScanComponent)
	return ok && o.Selector == c.Selector && o.DCTable == c.DCTable && o.ACTable == c.ACTable
}

// ScanHeader is a SOS segment. The entropy-coded data following it is
// held by the EntropyBlock elements after it in the document.
type ScanHeader struct {
	Segment
	Components    []*ScanComponent
	SpectralStart int // Ss, the predictor in lossless scans
	SpectralEnd   int // Se
	ApproxHigh    int // Ah
	ApproxLow     int // Al, the point transform in lossless scans
}

// NewScanHeader returns an empty scan header.
func NewScanHeader() *ScanHeader {
	return &ScanHeader{Segment: NewSegment(SOS)}
}

// SetSpectralSelection sets Ss and Se if the current mode allows them.
func (s *ScanHeader) SetSpectralSelection(start, end int) error {
	if err := ssRule.Check(start, s.Mode()); err != nil {
		return err
	}
	if err := seRule.Check(end, s.Mode()); err != nil {
		return err
	}
	s.SpectralStart, s.SpectralEnd = start, end
	return nil
}

// SetApproximation sets Ah and Al if the current mode allows them.
func (s *ScanHeader) SetApproximation(high, low int) error {
	if err := ahRule.Check(high, s.Mode()); err != nil {
		return err
	}
	if err := alRule.Check(low, s.Mode()); err != nil {
		return err
	}
	s.ApproxHigh, s.ApproxLow = high, low
	return nil
}

// AddComponent appends a component selector, checking it against the
// scan's mode.
func (s *ScanHeader) AddComponent(c *ScanComponent) error {
	if err := SetMode(c, s.Mode()); err != nil {
		return err
	}
	s.Components = append(s.Components, c)
	return nil
}

func (s *ScanHeader) Children() []Element {
	children := make([]Element, len(s.Components))
	for i, c := range s.Components {
		children[i] = c
	}
	return children
}

func (s *ScanHeader) CheckMode(m Mode) []Problem {
	problems := s.CheckFraming(m)
	problems = scanNsRule.Accumulate(len(s.Components), m, problems)
	problems = ssRule.Accumulate(s.SpectralStart, m, problems)
	problems = seRule.Accumulate(s.SpectralEnd, m, problems)
	problems = ahRule.Accumulate(s.ApproxHigh, m, problems)
	problems = alRule.Accumulate(s.ApproxLow, m, problems)
	if m.Strictness == Strict && m.Profile.Category() == CategoryProgressive {
		if s.SpectralEnd < s.SpectralStart {
			problems = append(problems, problemf(s.Name(), "Se %d is less than Ss %d", s.SpectralEnd, s.SpectralStart))
		}
		if s.SpectralStart == 0 && s.SpectralEnd != 0 {
			problems = append(problems, problemf(s.Name(), "DC scan with Se %d", s.SpectralEnd))
		}
		if s.SpectralStart > 0 && len(s.Components) > 1 {
			problems = append(problems, problemf(s.Name(), "AC scan with %d components", len(s.Components)))
		}
	}
	return problems
}

func (s *ScanHeader) Equal(other Element) bool {
	o, ok := other.(*ScanHeader)
	if !ok || !s.SameFraming(&o.Segment) || len(s.Components) != len(o.Components) ||
		s.SpectralStart != o.SpectralStart || s.SpectralEnd != o.SpectralEnd ||
		s.ApproxHigh != o.ApproxHigh || s.ApproxLow != o.ApproxLow {
		return false
	}
	for i := range s.Components {
		if !s.Components[i].Equal(o.Components[i]) {
			return false
		}
	}
	return true
}

func (s *ScanHeader) ParameterSize() int {
	return 4 + 2*len(s.Components)
}

func (s *ScanHeader) ReadParameters(r *BoundedReader) error {
	n, err := r.ReadUint8()
	if err != nil {
		return err
	}
	s.Components = make([]*ScanComponent, n)
	for i := range s.Components {
		c := &ScanComponent{}
		c.CommitMode(s.Mode())
		if c.Selector, err = r.ReadUint8(); err != nil {
			return err
		}
		if c.DCTable, c.ACTable, err = r.ReadNibbles(); err != nil {
			return err
		}
		s.Components[i] = c
	}
	if s.SpectralStart, err = r.ReadUint8(); err != nil {
		return err
	}
	if s.SpectralEnd, err = r.ReadUint8(); err != nil {
		return err
	}
	s.ApproxHigh, s.ApproxLow, err = r.ReadNibbles()
	return err
}

func (s *ScanHeader) WriteParameters(w io.Writer) error {
	buf := make([]byte, 0, s.ParameterSize())
	buf = append(buf, byte(len(s.Components)))
	for _, c := range s.Components {
		buf = append(buf, byte(c.Selector), byte(c.DCTable<<4|c.ACTable&0xF))
	}
	buf = append(buf, byte(s.SpectralStart), byte(s.SpectralEnd), byte(s.ApproxHigh<<4|s.ApproxLow&0xF))
	_, err := w.Write(buf)
	return err
}
