package jpegdoc

import (
	"fmt"
	"strings"
)

// Validator checks an element sequence against a JPEG grammar. It reports
// every problem it finds rather than stopping at the first.
type Validator interface {
	Validate(items []Element) []Problem
}

// ValidatorByName returns the validator called name: "nonhierarchical",
// "hierarchical", "abbreviated" or "jfif".
func ValidatorByName(name string) (Validator, error) {
	switch strings.ToLower(name) {
	case "", "nonhierarchical":
		return NonHierarchical{}, nil
	case "hierarchical":
		return Hierarchical{}, nil
	case "abbreviated":
		return Abbreviated{}, nil
	case "jfif":
		return JFIFValidator{}, nil
	}
	return nil, fmt.Errorf("jpegdoc: unknown validator %q", name)
}

func markerOf(e Element) (Marker, bool) {
	if m, ok := e.(Marked); ok {
		return m.Marker(), true
	}
	return 0, false
}

func isMarker(e Element, want Marker) bool {
	m, ok := markerOf(e)
	return ok && m == want
}

func isStart(e Element) bool  { return isMarker(e, SOI) }
func isEnd(e Element) bool    { return isMarker(e, EOI) }
func isScan(e Element) bool   { return isMarker(e, SOS) }
func isExpand(e Element) bool { return isMarker(e, EXP) }
func isDNL(e Element) bool    { return isMarker(e, DNL) }
func isDHP(e Element) bool    { return isMarker(e, DHP) }

func isPadding(e Element) bool {
	_, ok := e.(*PaddingRun)
	return ok
}

func isEntropy(e Element) bool {
	_, ok := e.(*EntropyBlock)
	return ok
}

func isRestart(e Element) bool {
	m, ok := markerOf(e)
	return ok && m.IsRST()
}

func isFrame(e Element) bool {
	m, ok := markerOf(e)
	return ok && m.IsSOF()
}

func isTableOrMisc(e Element) bool {
	m, ok := markerOf(e)
	return ok && m.IsTableOrMisc()
}

// withoutPadding drops the fill byte runs, which no grammar sees.
func withoutPadding(items []Element) []Element {
	out := make([]Element, 0, len(items))
	for _, e := range items {
		if !isPadding(e) {
			out = append(out, e)
		}
	}
	return out
}

type grammarState int

const (
	wantStartOfImage grammarState = iota
	wantTablesOrHierarchy
	wantTablesOrFrameHeader
	wantTablesOrScanHeader
	wantEntropy
	wantRestartOrEndOfScan
	wantEndOfSequence
)

// grammar runs the frame and scan grammar shared by the non-hierarchical
// and hierarchical validators.
type grammar struct {
	hierarchical bool
	state        grammarState
	scanned      bool // a scan of the current frame has ended
	framed       bool // a frame has been seen, so EXP has a reference
	problems     []Problem
}

func (g *grammar) expected() string {
	switch g.state {
	case wantStartOfImage:
		return "start-of-image"
	case wantTablesOrHierarchy:
		return "tables or hierarchical-progression"
	case wantTablesOrFrameHeader:
		if g.hierarchical && g.framed {
			return "tables, expansion or frame-header"
		}
		return "tables or frame-header"
	case wantTablesOrScanHeader:
		if !g.scanned {
			return "tables or scan-header"
		}
		if g.hierarchical {
			return "tables, scan-header, frame-header or end-of-image"
		}
		return "tables, scan-header or end-of-image"
	case wantEntropy:
		return "entropy-coded data"
	case wantRestartOrEndOfScan:
		return "restart or end of scan"
	}
	return "end of sequence"
}

func (g *grammar) unexpected(e Element) {
	g.problems = append(g.problems, problemf("", "found %s, expected %s", e.Name(), g.expected()))
}

func (g *grammar) step(e Element) {
	switch g.state {
	case wantStartOfImage:
		if !isStart(e) {
			g.unexpected(e)
			return
		}
		g.state = wantTablesOrFrameHeader
		if g.hierarchical {
			g.state = wantTablesOrHierarchy
		}
	case wantTablesOrHierarchy:
		switch {
		case isTableOrMisc(e):
		case isDHP(e):
			g.state = wantTablesOrFrameHeader
		default:
			g.unexpected(e)
		}
	case wantTablesOrFrameHeader:
		switch {
		case isTableOrMisc(e):
		case g.hierarchical && g.framed && isExpand(e):
		case isFrame(e):
			g.state = wantTablesOrScanHeader
			g.scanned = false
			g.framed = true
		default:
			g.unexpected(e)
		}
	case wantTablesOrScanHeader:
		switch {
		case isTableOrMisc(e):
		case isScan(e):
			g.state = wantEntropy
		case g.scanned && isDNL(e):
		case g.scanned && isEnd(e):
			g.state = wantEndOfSequence
		case g.scanned && g.hierarchical && isExpand(e):
			g.state = wantTablesOrFrameHeader
		case g.scanned && g.hierarchical && isFrame(e):
			g.scanned = false
		default:
			g.unexpected(e)
		}
	case wantEntropy, wantRestartOrEndOfScan:
		switch {
		case isEntropy(e):
			g.state = wantRestartOrEndOfScan
		case isRestart(e):
			g.state = wantEntropy
		default:
			g.scanned = true
			g.state = wantTablesOrScanHeader
			g.step(e)
		}
	default:
		g.unexpected(e)
	}
}

func (g *grammar) run(items []Element) []Problem {
	for _, e := range withoutPadding(items) {
		g.step(e)
	}
	switch g.state {
	case wantEndOfSequence:
	case wantStartOfImage:
		g.problems = append(g.problems, problemf("", "expected start-of-image, found end of sequence"))
	default:
		g.problems = append(g.problems, problemf("", "expected end-of-image, found end of sequence"))
	}
	return g.problems
}

// NonHierarchical checks the grammar of a sequential, progressive or
// lossless image: SOI, tables, one frame with one or more scans, EOI.
type NonHierarchical struct{}

func (NonHierarchical) Validate(items []Element) []Problem {
	g := &grammar{}
	return g.run(items)
}

// Hierarchical checks the grammar of a hierarchical image: SOI, tables,
// DHP, then frames each preceded by tables or EXP segments, EOI.
type Hierarchical struct{}

func (Hierarchical) Validate(items []Element) []Problem {
	g := &grammar{hierarchical: true}
	return g.run(items)
}

// Abbreviated checks an abbreviated table specification: SOI, tables,
// EOI.
type Abbreviated struct{}

func (Abbreviated) Validate(items []Element) []Problem {
	var problems []Problem
	found := func(e Element, want string) {
		problems = append(problems, problemf("", "found %s, expected %s", e.Name(), want))
	}
	state := wantStartOfImage
	for _, e := range withoutPadding(items) {
		switch state {
		case wantStartOfImage:
			if isStart(e) {
				state = wantTablesOrFrameHeader
			} else {
				found(e, "start-of-image")
			}
		case wantTablesOrFrameHeader:
			switch {
			case isTableOrMisc(e):
			case isEnd(e):
				state = wantEndOfSequence
			default:
				found(e, "tables or end-of-image")
			}
		default:
			found(e, "end of sequence")
		}
	}
	switch state {
	case wantEndOfSequence:
	case wantStartOfImage:
		problems = append(problems, problemf("", "expected start-of-image, found end of sequence"))
	default:
		problems = append(problems, problemf("", "expected end-of-image, found end of sequence"))
	}
	return problems
}

// SplitImages splits a sequence at each SOI, as in files holding several
// images one after the other. Fill bytes before an SOI go with its image;
// other elements before the first SOI form an image of their own.
func SplitImages(items []Element) [][]Element {
	var images [][]Element
	start := 0
	for i, e := range items {
		if !isStart(e) {
			continue
		}
		cut := i
		for cut > start && isPadding(items[cut-1]) {
			cut--
		}
		if cut > start {
			images = append(images, items[start:cut])
			start = cut
		}
	}
	if start < len(items) {
		images = append(images, items[start:])
	}
	return images
}
