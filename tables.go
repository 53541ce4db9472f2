package jpegdoc

import (
	"bytes"
	"io"
)

var (
	pqRule        = NewProfileRangeRule("Pq", Nibble, Range{0, 0}, Range{0, 1}, Range{0, 1}, Range{0, 1})
	tqRule        = NewRangeRule("Tq", Nibble, 0, 3)
	tcRule        = NewProfileRangeRule("Tc", Nibble, Range{0, 1}, Range{0, 1}, Range{0, 1}, Range{0, 0})
	thRule        = NewProfileRangeRule("Th", Nibble, Range{0, 1}, Range{0, 3}, Range{0, 3}, Range{0, 3})
	dacClassRule  = NewRangeRule("Tc", Nibble, 0, 1)
	dacTableRule  = NewRangeRule("Tb", Nibble, 0, 3)
	kxRule        = NewRangeRule("Kx", Byte, 1, 63)
	intervalRule  = NewRangeRule("Ri", Short, 0, 0xFFFF)
	lineCountRule = NewRangeRule("NL", Short, 1, 0xFFFF)
	expandRule    = NewRangeRule("Eh/Ev", Nibble, 0, 1)
)

// QuantizationTable is one table of a DQT segment. Values are in zig-zag
// order.
type QuantizationTable struct {
	ModeBase
	Precision   int // Pq: 0 for 8-bit values, 1 for 16-bit
	Destination int // Tq
	Values      [64]int
}

func (q *QuantizationTable) Name() string {
	return "quantization table"
}

// SetPrecision sets Pq if the current mode allows it.
func (q *QuantizationTable) SetPrecision(pq int) error {
	if err := pqRule.Check(pq, q.Mode()); err != nil {
		return err
	}
	q.Precision = pq
	return nil
}

func (q *QuantizationTable) size() int {
	return 1 + 64*(q.Precision+1)
}

func (q *QuantizationTable) CheckMode(m Mode) []Problem {
	var problems []Problem
	problems = pqRule.Accumulate(q.Precision, m, problems)
	problems = tqRule.Accumulate(q.Destination, m, problems)
	if q.Precision > 1 {
		// Without a valid precision the table size is unknown.
		return append(problems, problemf(q.Name(), "precision %d is neither 8 nor 16 bits", q.Precision))
	}
	max := 0xFF
	if q.Precision == 1 {
		max = 0xFFFF
	}
	for i, v := range q.Values {
		if v < 0 || v > max {
			problems = append(problems, problemf(q.Name(), "value %d at %d doesn't fit", v, i))
		} else if v == 0 && m.Strictness == Strict {
			problems = append(problems, problemf(q.Name(), "zero value at %d", i))
		}
	}
	return problems
}

func (q *QuantizationTable) Equal(other Element) bool {
	o, ok := other.(*QuantizationTable)
	return ok && o.Precision == q.Precision && o.Destination == q.Destination && o.Values == q.Values
}

// QuantizationTables is a DQT segment.
type QuantizationTables struct {
	Segment
	Tables []*QuantizationTable
}

// NewQuantizationTables returns an empty DQT segment.
func NewQuantizationTables() *QuantizationTables {
	return &QuantizationTables{Segment: NewSegment(DQT)}
}

func (d *QuantizationTables) Children() []Element {
	children := make([]Element, len(d.Tables))
	for i, t := range d.Tables {
		children[i] = t
	}
	return children
}

func (d *QuantizationTables) CheckMode(m Mode) []Problem {
	problems := d.CheckFraming(m)
	if len(d.Tables) == 0 && m.Strictness == Strict {
		problems = append(problems, problemf(d.Name(), "no tables"))
	}
	return problems
}

func (d *QuantizationTables) Equal(other Element) bool {
	o, ok := other.(*QuantizationTables)
	if !ok || !d.SameFraming(&o.Segment) || len(d.Tables) != len(o.Tables) {
		return false
	}
	for i := range d.Tables {
		if !d.Tables[i].Equal(o.Tables[i]) {
			return false
		}
	}
	return true
}

func (d *QuantizationTables) ParameterSize() int {
	n := 0
	for _, t := range d.Tables {
		n += t.size()
	}
	return n
}

func (d *QuantizationTables) ReadParameters(r *BoundedReader) error {
	d.Tables = nil
	for r.Remaining() > 0 {
		t := &QuantizationTable{}
		t.CommitMode(d.Mode())
		var err error
		if t.Precision, t.Destination, err = r.ReadNibbles(); err != nil {
			return err
		}
		if t.Precision > 1 {
			return formatErrorf(t.Name(), "precision %d is neither 8 nor 16 bits", t.Precision)
		}
		for i := range t.Values {
			if t.Precision == 0 {
				t.Values[i], err = r.ReadUint8()
			} else {
				t.Values[i], err = r.ReadUint16()
			}
			if err != nil {
				return err
			}
		}
		d.Tables = append(d.Tables, t)
	}
	return nil
}

func (d *QuantizationTables) WriteParameters(w io.Writer) error {
	buf := make([]byte, 0, d.ParameterSize())
	for _, t := range d.Tables {
		buf = append(buf, byte(t.Precision<<4|t.Destination&0xF))
		for _, v := range t.Values {
			if t.Precision == 0 {
				buf = append(buf, byte(v))
			} else {
				buf = append(buf, byte(v>>8), byte(v))
			}
		}
	}
	_, err := w.Write(buf)
	return err
}

// HuffmanTable is one table of a DHT segment.
type HuffmanTable struct {
	ModeBase
	Class       int // Tc: 0 for DC or lossless, 1 for AC
	Destination int // Th
	Counts      [16]int
	Values      []byte
}

func (h *HuffmanTable) Name() string {
	return "Huffman table"
}

func (h *HuffmanTable) size() int {
	return 17 + len(h.Values)
}

func (h *HuffmanTable) CheckMode(m Mode) []Problem {
	var problems []Problem
	problems = tcRule.Accumulate(h.Class, m, problems)
	problems = thRule.Accumulate(h.Destination, m, problems)
	total := 0
	for i, n := range h.Counts {
		if n < 0 || n > 0xFF {
			problems = append(problems, problemf(h.Name(), "count %d for length %d doesn't fit", n, i+1))
		}
		total += n
	}
	if total != len(h.Values) {
		problems = append(problems, problemf(h.Name(), "counts total %d but %d values", total, len(h.Values)))
	}
	if m.Strictness == Strict && total > 256 {
		problems = append(problems, problemf(h.Name(), "%d codes, max 256", total))
	}
	return problems
}

func (h *HuffmanTable) Equal(other Element) bool {
	o, ok := other.(*HuffmanTable)
	return ok && o.Class == h.Class && o.Destination == h.Destination &&
		o.Counts == h.Counts && bytes.Equal(o.Values, h.Values)
}

// HuffmanTables is a DHT segment.
type HuffmanTables struct {
	Segment
	Tables []*HuffmanTable
}

// NewHuffmanTables returns an empty DHT segment.
func NewHuffmanTables() *HuffmanTables {
	return &HuffmanTables{Segment: NewSegment(DHT)}
}

func (d *HuffmanTables) Children() []Element {
	children := make([]Element, len(d.Tables))
	for i, t := range d.Tables {
		children[i] = t
	}
	return children
}

func (d *HuffmanTables) CheckMode(m Mode) []Problem {
	problems := d.CheckFraming(m)
	if m.Strictness == Strict {
		if len(d.Tables) == 0 {
			problems = append(problems, problemf(d.Name(), "no tables"))
		}
		if m.Profile.IsArithmetic() {
			problems = append(problems, problemf(d.Name(), "Huffman tables in an arithmetic-coded image"))
		}
	}
	return problems
}

func (d *HuffmanTables) Equal(other Element) bool {
	o, ok := other.(*HuffmanTables)
	if !ok || !d.SameFraming(&o.Segment) || len(d.Tables) != len(o.Tables) {
		return false
	}
	for i := range d.Tables {
		if !d.Tables[i].Equal(o.Tables[i]) {
			return false
		}
	}
	return true
}

func (d *HuffmanTables) ParameterSize() int {
	n := 0
	for _, t := range d.Tables {
		n += t.size()
	}
	return n
}

func (d *HuffmanTables) ReadParameters(r *BoundedReader) error {
	d.Tables = nil
	for r.Remaining() > 0 {
		t := &HuffmanTable{}
		t.CommitMode(d.Mode())
		var err error
		if t.Class, t.Destination, err = r.ReadNibbles(); err != nil {
			return err
		}
		total := 0
		for i := range t.Counts {
			if t.Counts[i], err = r.ReadUint8(); err != nil {
				return err
			}
			total += t.Counts[i]
		}
		t.Values = make([]byte, total)
		if err := r.ReadFull(t.Values); err != nil {
			return err
		}
		d.Tables = append(d.Tables, t)
	}
	return nil
}

func (d *HuffmanTables) WriteParameters(w io.Writer) error {
	buf := make([]byte, 0, d.ParameterSize())
	for _, t := range d.Tables {
		buf = append(buf, byte(t.Class<<4|t.Destination&0xF))
		for _, n := range t.Counts {
			buf = append(buf, byte(n))
		}
		buf = append(buf, t.Values...)
	}
	_, err := w.Write(buf)
	return err
}

// Conditioning is one entry of a DAC segment.
type Conditioning struct {
	Class       int // Tc: 0 for DC or lossless, 1 for AC
	Destination int // Tb
	Value       int // Cs: U<<4|L for DC, Kx for AC
}

// ArithmeticConditioning is a DAC segment.
type ArithmeticConditioning struct {
	Segment
	Entries []Conditioning
}

// NewArithmeticConditioning returns an empty DAC segment.
func NewArithmeticConditioning() *ArithmeticConditioning {
	return &ArithmeticConditioning{Segment: NewSegment(DAC)}
}

func (d *ArithmeticConditioning) CheckMode(m Mode) []Problem {
	problems := d.CheckFraming(m)
	for _, e := range d.Entries {
		problems = dacClassRule.Accumulate(e.Class, m, problems)
		problems = dacTableRule.Accumulate(e.Destination, m, problems)
		if e.Class == 1 {
			problems = kxRule.Accumulate(e.Value, m, problems)
		} else if e.Value < 0 || e.Value > 0xFF {
			problems = append(problems, problemf(d.Name(), "Cs value %d does not fit in a byte", e.Value))
		} else if m.Strictness == Strict && e.Value&0xF > e.Value>>4 {
			problems = append(problems, problemf(d.Name(), "lower bound %d above upper bound %d", e.Value&0xF, e.Value>>4))
		}
	}
	if m.Strictness == Strict && m.Profile != ProfileUnset && !m.Profile.IsArithmetic() {
		problems = append(problems, problemf(d.Name(), "conditioning in a Huffman-coded image"))
	}
	return problems
}

func (d *ArithmeticConditioning) Equal(other Element) bool {
	o, ok := other.(*ArithmeticConditioning)
	if !ok || !d.SameFraming(&o.Segment) || len(d.Entries) != len(o.Entries) {
		return false
	}
	for i := range d.Entries {
		if d.Entries[i] != o.Entries[i] {
			return false
		}
	}
	return true
}

func (d *ArithmeticConditioning) ParameterSize() int {
	return 2 * len(d.Entries)
}

func (d *ArithmeticConditioning) ReadParameters(r *BoundedReader) error {
	d.Entries = nil
	for r.Remaining() > 0 {
		var e Conditioning
		var err error
		if e.Class, e.Destination, err = r.ReadNibbles(); err != nil {
			return err
		}
		if e.Value, err = r.ReadUint8(); err != nil {
			return err
		}
		d.Entries = append(d.Entries, e)
	}
	return nil
}

func (d *ArithmeticConditioning) WriteParameters(w io.Writer) error {
	buf := make([]byte, 0, d.ParameterSize())
	for _, e := range d.Entries {
		buf = append(buf, byte(e.Class<<4|e.Destination&0xF), byte(e.Value))
	}
	_, err := w.Write(buf)
	return err
}

// RestartInterval is a DRI segment.
type RestartInterval struct {
	Segment
	Interval int // Ri, in MCUs; 0 disables restart markers
}

// NewRestartInterval returns a DRI segment.
func NewRestartInterval(interval int) *RestartInterval {
	return &RestartInterval{Segment: NewSegment(DRI), Interval: interval}
}

func (d *RestartInterval) CheckMode(m Mode) []Problem {
	return intervalRule.Accumulate(d.Interval, m, d.CheckFraming(m))
}

func (d *RestartInterval) Equal(other Element) bool {
	o, ok := other.(*RestartInterval)
	return ok && d.SameFraming(&o.Segment) && o.Interval == d.Interval
}

func (d *RestartInterval) ParameterSize() int {
	return 2
}

func (d *RestartInterval) ReadParameters(r *BoundedReader) error {
	var err error
	d.Interval, err = r.ReadUint16()
	return err
}

func (d *RestartInterval) WriteParameters(w io.Writer) error {
	_, err := w.Write([]byte{byte(d.Interval >> 8), byte(d.Interval)})
	return err
}

// LineCount is a DNL segment, giving the number of lines of a frame whose
// header said zero.
type LineCount struct {
	Segment
	Lines int // NL
}

// NewLineCount returns a DNL segment.
func NewLineCount(lines int) *LineCount {
	return &LineCount{Segment: NewSegment(DNL), Lines: lines}
}

func (d *LineCount) CheckMode(m Mode) []Problem {
	return lineCountRule.Accumulate(d.Lines, m, d.CheckFraming(m))
}

func (d *LineCount) Equal(other Element) bool {
	o, ok := other.(*LineCount)
	return ok && d.SameFraming(&o.Segment) && o.Lines == d.Lines
}

func (d *LineCount) ParameterSize() int {
	return 2
}

func (d *LineCount) ReadParameters(r *BoundedReader) error {
	var err error
	d.Lines, err = r.ReadUint16()
	return err
}

func (d *LineCount) WriteParameters(w io.Writer) error {
	_, err := w.Write([]byte{byte(d.Lines >> 8), byte(d.Lines)})
	return err
}

// Expand is an EXP segment of a hierarchical image.
type Expand struct {
	Segment
	Horizontal int // Eh
	Vertical   int // Ev
}

// NewExpand returns an EXP segment.
func NewExpand(horizontal, vertical int) *Expand {
	return &Expand{Segment: NewSegment(EXP), Horizontal: horizontal, Vertical: vertical}
}

func (d *Expand) CheckMode(m Mode) []Problem {
	problems := d.CheckFraming(m)
	problems = expandRule.Accumulate(d.Horizontal, m, problems)
	problems = expandRule.Accumulate(d.Vertical, m, problems)
	if m.Strictness == Strict && !m.Hierarchical {
		problems = append(problems, problemf(d.Name(), "only allowed in hierarchical mode"))
	}
	return problems
}

func (d *Expand) Equal(other Element) bool {
	o, ok := other.(*Expand)
	return ok && d.SameFraming(&o.Segment) && o.Horizontal == d.Horizontal && o.Vertical == d.Vertical
}

func (d *Expand) ParameterSize() int {
	return 1
}

func (d *Expand) ReadParameters(r *BoundedReader) error {
	var err error
	d.Horizontal, d.Vertical, err = r.ReadNibbles()
	return err
}

func (d *Expand) WriteParameters(w io.Writer) error {
	_, err := w.Write([]byte{byte(d.Horizontal<<4 | d.Vertical&0xF)})
	return err
}
