package jpegdoc

import (
	"bytes"
	"io"
)

// PaddingRun is a run of redundant 0xFF fill bytes before a marker. It is
// kept so that files round-trip exactly.
type PaddingRun struct {
	ModeBase
	Count int
}

// NewPaddingRun returns a run of n fill bytes.
func NewPaddingRun(n int) *PaddingRun {
	return &PaddingRun{Count: n}
}

func (p *PaddingRun) Name() string {
	return "FILL"
}

func (p *PaddingRun) CheckMode(m Mode) []Problem {
	if p.Count < 0 {
		return []Problem{problemf(p.Name(), "negative count %d", p.Count)}
	}
	return nil
}

func (p *PaddingRun) Equal(other Element) bool {
	o, ok := other.(*PaddingRun)
	return ok && o.Count == p.Count
}

// Clear drops the fill bytes.
func (p *PaddingRun) Clear() {
	p.Count = 0
}

func (p *PaddingRun) RawSize() int {
	if p.Count < 0 {
		return 0
	}
	return p.Count
}

func (p *PaddingRun) WriteRaw(w io.Writer) error {
	if p.Count <= 0 {
		return nil
	}
	_, err := w.Write(bytes.Repeat([]byte{0xFF}, p.Count))
	return err
}
