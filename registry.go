package jpegdoc

import (
	tiff "github.com/garyhouston/tiff66"
)

// Factory returns a new, empty element for marker m. The document reads
// the element's parameters after the marker.
type Factory func(m Marker) Element

type registration struct {
	lo, hi  Marker
	factory Factory
}

// Registry maps markers to the element types that may handle them. Types
// are tried in the order they were registered; the first one that reads
// the segment without error wins.
type Registry struct {
	entries  []registration
	fallback Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a factory for the markers lo to hi inclusive.
func (r *Registry) Register(lo, hi Marker, f Factory) {
	r.entries = append(r.entries, registration{lo, hi, f})
}

// SetFallback sets the factory used when no registered type accepts a
// segment.
func (r *Registry) SetFallback(f Factory) {
	r.fallback = f
}

// Fallback returns the fallback factory, or nil.
func (r *Registry) Fallback() Factory {
	return r.fallback
}

// Candidates returns the factories registered for m, in registration
// order.
func (r *Registry) Candidates(m Marker) []Factory {
	var fs []Factory
	for _, e := range r.entries {
		if m >= e.lo && m <= e.hi {
			fs = append(fs, e.factory)
		}
	}
	return fs
}

// CanHandle reports whether a registered type or the fallback may handle m.
func (r *Registry) CanHandle(m Marker) bool {
	return r.fallback != nil || len(r.Candidates(m)) > 0
}

func delimiter(m Marker) Element { return NewDelimiter(m) }

func frameHeader(m Marker) Element { return NewFrameHeader(m) }

func opaque(m Marker) Element { return NewOpaque(m, nil) }

// StandardRegistry returns a registry with the element types of this
// package. Application segments without a known identifier, JPGn and
// reserved markers fall back to Opaque.
func StandardRegistry() *Registry {
	r := NewRegistry()
	r.Register(SOI, EOI, delimiter)
	r.Register(RST0, RST0+7, delimiter)
	r.Register(TEM, TEM, delimiter)
	for m := Marker(SOF0); m <= SOF0+0xF; m++ {
		if m.IsSOF() {
			r.Register(m, m, frameHeader)
		}
	}
	r.Register(DHP, DHP, frameHeader)
	r.Register(DHT, DHT, func(Marker) Element { return NewHuffmanTables() })
	r.Register(DAC, DAC, func(Marker) Element { return NewArithmeticConditioning() })
	r.Register(DQT, DQT, func(Marker) Element { return NewQuantizationTables() })
	r.Register(SOS, SOS, func(Marker) Element { return NewScanHeader() })
	r.Register(DRI, DRI, func(Marker) Element { return NewRestartInterval(0) })
	r.Register(DNL, DNL, func(Marker) Element { return NewLineCount(0) })
	r.Register(EXP, EXP, func(Marker) Element { return NewExpand(0, 0) })
	r.Register(COM, COM, func(Marker) Element { return NewComment("") })
	r.Register(APP0, APP0, func(Marker) Element { return &JFIF{Segment: NewSegment(APP0)} })
	r.Register(APP0, APP0, func(Marker) Element { return &JFXX{Segment: NewSegment(APP0)} })
	r.Register(APP0+1, APP0+1, func(Marker) Element { return NewExif(nil) })
	r.Register(APP0+1, APP0+1, func(Marker) Element { return NewXMP(nil) })
	r.Register(APP0+2, APP0+2, func(Marker) Element { return NewMPF(nil, tiff.MPFIndexSpace) })
	r.SetFallback(opaque)
	return r
}
