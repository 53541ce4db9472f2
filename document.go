package jpegdoc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/rs/zerolog"
)

// Options configure a Document.
type Options struct {
	// Mode is given to every element read or added.
	Mode Mode
	// DeferThreshold is the payload size from which opaque segments are
	// left in the source until used. It only applies when the source is
	// an io.ReaderAt and io.Seeker, such as an *os.File. Zero disables it.
	DeferThreshold int
	// Logger receives debug events while reading. Nil disables logging.
	Logger *zerolog.Logger
}

// Document is a JPEG stream as an ordered sequence of elements: segments,
// scan data and fill bytes. Unmodified documents are written back exactly
// as they were read.
type Document struct {
	ModeBase
	items          []Element
	registry       *Registry
	deferThreshold int
	log            zerolog.Logger
}

// NewDocument returns an empty document with an empty registry. A nil
// opts is the same as the zero Options.
func NewDocument(opts *Options) *Document {
	if opts == nil {
		opts = &Options{}
	}
	d := &Document{registry: NewRegistry(), deferThreshold: opts.DeferThreshold, log: zerolog.Nop()}
	if opts.Logger != nil {
		d.log = *opts.Logger
	}
	d.CommitMode(opts.Mode)
	return d
}

// Read reads a document from r using the standard element types.
func Read(r io.Reader, opts *Options) (*Document, error) {
	d := NewDocument(opts)
	d.AddStandardElementTypes()
	if _, err := d.ReadFrom(r); err != nil {
		return nil, err
	}
	return d, nil
}

// AddStandardElementTypes replaces the registry with StandardRegistry.
func (d *Document) AddStandardElementTypes() {
	d.registry = StandardRegistry()
}

// RegisterElementType adds a factory for markers lo to hi. It is tried
// after the types already registered for those markers.
func (d *Document) RegisterElementType(lo, hi Marker, f Factory) {
	d.registry.Register(lo, hi, f)
}

// SetRegistry replaces the registry.
func (d *Document) SetRegistry(r *Registry) {
	d.registry = r
}

// Registry returns the registry used by ReadFrom.
func (d *Document) Registry() *Registry {
	return d.registry
}

func (d *Document) Name() string {
	return "document"
}

func (d *Document) CheckMode(m Mode) []Problem {
	return nil
}

func (d *Document) Children() []Element {
	return d.items
}

// Equal reports whether other is a document with pairwise equal elements.
func (d *Document) Equal(other Element) bool {
	o, ok := other.(*Document)
	if !ok || len(o.items) != len(d.items) {
		return false
	}
	for i := range d.items {
		if !d.items[i].Equal(o.items[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of elements.
func (d *Document) Len() int {
	return len(d.items)
}

// Item returns element i. It panics if i is out of range.
func (d *Document) Item(i int) Element {
	return d.items[i]
}

// Items returns a copy of the element list.
func (d *Document) Items() []Element {
	return slices.Clone(d.items)
}

// All iterates over the elements and their positions.
func (d *Document) All() iter.Seq2[int, Element] {
	return func(yield func(int, Element) bool) {
		for i, e := range d.items {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Index returns the position of e, or -1.
func (d *Document) Index(e Element) int {
	return slices.Index(d.items, e)
}

// Add appends e after giving it the document's mode. It fails, leaving
// the document unchanged, if e has problems under that mode.
func (d *Document) Add(e Element) error {
	return d.Insert(len(d.items), e)
}

// Insert puts e at position i, moving later elements up.
func (d *Document) Insert(i int, e Element) error {
	if e == nil {
		return fmt.Errorf("jpegdoc: inserting nil element")
	}
	if i < 0 || i > len(d.items) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, i, len(d.items))
	}
	if err := SetMode(e, d.Mode()); err != nil {
		return err
	}
	d.items = slices.Insert(d.items, i, e)
	return nil
}

// Delete removes and returns element i.
func (d *Document) Delete(i int) (Element, error) {
	if i < 0 || i >= len(d.items) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndex, i, len(d.items))
	}
	e := d.items[i]
	d.items = slices.Delete(d.items, i, i+1)
	return e, nil
}

// Size returns the number of bytes WriteTo writes.
func (d *Document) Size() int {
	n := 0
	for _, e := range d.items {
		n += Size(e)
	}
	return n
}

// SetMode changes the mode of the document and all its elements, or
// nothing if any of them has a problem under m.
func (d *Document) SetMode(m Mode) error {
	return SetMode(d, m)
}

func (d *Document) SetProfile(p Profile) error {
	return SetProfile(d, p)
}

func (d *Document) SetStrictness(s Strictness) error {
	return SetStrictness(d, s)
}

func (d *Document) SetHierarchical(h bool) error {
	return SetHierarchical(d, h)
}

// Validate returns the problems of every element under its mode. The
// element sequence itself is checked by a Validator.
func (d *Document) Validate() []Problem {
	return Validate(d)
}

// Check runs v over the element sequence.
func (d *Document) Check(v Validator) []Problem {
	return v.Validate(d.items)
}

// DetectProfile sets the document's profile from its first frame header,
// and makes it hierarchical if there is a DHP segment.
func (d *Document) DetectProfile() error {
	m := d.Mode()
	m.Profile = ProfileUnset
	m.Hierarchical = false
	for _, e := range d.items {
		f, ok := e.(*FrameHeader)
		if !ok {
			continue
		}
		if f.Marker() == DHP {
			m.Hierarchical = true
		} else if m.Profile == ProfileUnset {
			m.Profile = f.Profile()
		}
	}
	return SetMode(d, m)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the elements in order.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, e := range d.items {
		if err := Write(cw, e); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadFrom appends the elements read from r until the end of the input.
// Truncated input and I/O errors stop the read; the elements read so far
// are kept.
func (d *Document) ReadFrom(r io.Reader) (int64, error) {
	p := &reader{doc: d, mode: d.Mode(), log: d.log}
	if d.deferThreshold > 0 {
		if ra, ok := r.(io.ReaderAt); ok {
			if s, ok := r.(io.Seeker); ok {
				if base, err := s.Seek(0, io.SeekCurrent); err == nil {
					p.src, p.base = ra, base
				}
			}
		}
	}
	p.r = NewBoundedReader(bufio.NewReader(r), Unbounded)
	err := p.run()
	return p.r.Offset(), err
}

// segmentWindow is the most a framed segment can read after its marker.
const segmentWindow = 2 + MaxParameterSize

// reader holds the state of one ReadFrom call.
type reader struct {
	doc      *Document
	r        *BoundedReader
	mode     Mode
	log      zerolog.Logger
	scanning bool // after SOS, until a marker other than RSTn
	padding  int  // fill bytes seen and not yet recorded
	src      io.ReaderAt
	base     int64
}

func (p *reader) add(e Element) {
	p.doc.items = append(p.doc.items, e)
}

func (p *reader) flushPadding() {
	if p.padding > 0 {
		run := NewPaddingRun(p.padding)
		run.CommitMode(p.mode)
		p.add(run)
		p.padding = 0
	}
}

func (p *reader) strict() bool {
	return p.mode.Strictness == Strict
}

func (p *reader) run() error {
	for {
		c, err := p.r.next()
		if err == io.EOF {
			if p.padding > 0 {
				p.log.Debug().Int("count", p.padding).Msg("fill bytes at end of input")
			}
			p.flushPadding()
			return nil
		}
		if err != nil {
			return err
		}
		if c == 0xFF {
			err = p.afterFF()
		} else {
			err = p.data([]byte{c})
		}
		if err != nil {
			return err
		}
	}
}

// afterFF handles what follows a 0xFF that has been consumed.
func (p *reader) afterFF() error {
	c, err := p.r.PeekByte()
	switch {
	case err == io.EOF:
		if p.strict() {
			return formatErrorf("", "input ends with 0xFF at offset %d", p.r.Offset()-1)
		}
		if p.scanning {
			p.flushPadding()
			block := NewEntropyBlock([]byte{0xFF})
			block.TrailingFF = true
			block.CommitMode(p.mode)
			p.add(block)
			p.log.Debug().Msg("scan data ends with 0xFF, kept")
			return nil
		}
		p.padding++
		return nil
	case err != nil:
		return err
	case c == 0xFF:
		p.padding++
		return nil
	case c == 0x00:
		if _, err := p.r.next(); err != nil {
			return err
		}
		return p.data([]byte{0xFF})
	}
	if _, err := p.r.next(); err != nil {
		return err
	}
	return p.marker(Marker(c))
}

// data reads bytes that aren't a marker. Inside a scan they are entropy
// coded data; elsewhere they are garbage, kept under Lax.
func (p *reader) data(prefix []byte) error {
	if !p.scanning {
		if p.strict() {
			return formatErrorf("", "data outside a scan at offset %d", p.r.Offset()-int64(len(prefix)))
		}
		p.log.Debug().Int64("offset", p.r.Offset()).Msg("data outside a scan, kept")
	}
	p.flushPadding()
	block, atMarker, err := readEntropy(p.r, prefix, p.mode)
	if err != nil {
		return err
	}
	p.add(block)
	if block.TrailingFF {
		p.log.Debug().Msg("scan data ends with 0xFF, kept")
	}
	if atMarker {
		return p.afterFF()
	}
	return nil
}

func (p *reader) marker(m Marker) error {
	p.flushPadding()
	if !m.IsRST() {
		p.scanning = false
	}
	e, err := p.dispatch(m)
	if err != nil {
		return err
	}
	p.add(e)
	if m == SOS {
		p.scanning = true
	}
	return nil
}

// recoverable reports whether a candidate's error lets the next candidate
// be tried.
func recoverable(err error) bool {
	return errors.Is(err, ErrFormat) || errors.Is(err, ErrLimitExceeded) || errors.Is(err, ErrRange)
}

func (p *reader) dispatch(m Marker) (Element, error) {
	offset := p.r.Offset() - 2
	var firstErr error
	for _, f := range p.doc.registry.Candidates(m) {
		e := f(m)
		p.r.Mark(segmentWindow)
		err := p.read(e)
		if err == nil {
			p.r.Unmark()
			return e, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		p.log.Debug().Str("marker", m.Name()).Str("type", e.Name()).Int64("offset", offset).Err(err).Msg("candidate rejected")
		if firstErr == nil && !errors.Is(err, errMismatch) {
			firstErr = err
		}
		if err := p.r.Reset(); err != nil {
			return nil, err
		}
	}
	if firstErr != nil && p.strict() {
		return nil, fmt.Errorf("%s at offset %d: %w", m.Name(), offset, firstErr)
	}
	fallback := p.doc.registry.Fallback()
	if fallback == nil {
		if firstErr != nil {
			return nil, fmt.Errorf("%s at offset %d: %w", m.Name(), offset, firstErr)
		}
		return nil, fmt.Errorf("%w %s at offset %d", ErrNoElementType, m.Name(), offset)
	}
	e := fallback(m)
	if err := p.read(e); err != nil {
		return nil, fmt.Errorf("%s at offset %d: %w", m.Name(), offset, err)
	}
	p.log.Debug().Str("marker", m.Name()).Int64("offset", offset).Msg("recorded as opaque segment")
	return e, nil
}

// read reads the body of e and checks it under the reader's mode.
func (p *reader) read(e Element) error {
	e.CommitMode(p.mode)
	if d, ok := e.(deferrer); ok && p.src != nil {
		d.deferPayload(p.src, p.base, p.doc.deferThreshold)
	}
	if err := readElement(p.r, e); err != nil {
		return err
	}
	commitTree(e, p.mode)
	if problems := WouldAccept(e, p.mode); len(problems) > 0 {
		return &FormatError{Problem: problems[0]}
	}
	if f, ok := e.(Framed); ok && len(f.TrailingBytes()) > 0 {
		p.log.Debug().Str("segment", e.Name()).Int("count", len(f.TrailingBytes())).Msg("trailing bytes kept")
	}
	return nil
}
