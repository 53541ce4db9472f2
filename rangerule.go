package jpegdoc

import (
	"fmt"
)

// Width is the number of bits a field occupies on disk.
type Width uint8

const (
	Nibble Width = 4
	Byte   Width = 8
	Short  Width = 16
)

func (w Width) String() string {
	switch w {
	case Nibble:
		return "nibble"
	case Byte:
		return "byte"
	case Short:
		return "short"
	}
	return fmt.Sprintf("%d-bit field", uint8(w))
}

// Max returns the largest value the width can hold.
func (w Width) Max() int {
	return 1<<w - 1
}

// Range is a closed interval of field values.
type Range struct {
	Min, Max int
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

func (r Range) String() string {
	if r.Min == r.Max {
		return fmt.Sprint(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// RangeRule checks the value of one field against its storage width and
// against the range allowed by the encoding profile.
type RangeRule struct {
	Field string
	Width Width
	// Indexed by Category; CategoryNone holds the full width.
	bounds [CategoryLossless + 1]Range
}

// NewRangeRule returns a rule with the same range for every profile.
func NewRangeRule(field string, w Width, min, max int) RangeRule {
	r := Range{min, max}
	return NewProfileRangeRule(field, w, r, r, r, r)
}

// NewProfileRangeRule returns a rule with one range per profile category.
func NewProfileRangeRule(field string, w Width, baseline, extended, progressive, lossless Range) RangeRule {
	rule := RangeRule{Field: field, Width: w}
	rule.bounds[CategoryNone] = Range{0, w.Max()}
	rule.bounds[CategoryBaseline] = baseline
	rule.bounds[CategoryExtended] = extended
	rule.bounds[CategoryProgressive] = progressive
	rule.bounds[CategoryLossless] = lossless
	return rule
}

// Bounds returns the range allowed under profile p.
func (r RangeRule) Bounds(p Profile) Range {
	return r.bounds[p.Category()]
}

// violation returns the problem with v under m, and whether it is a width
// violation.
func (r RangeRule) violation(v int, m Mode) (Problem, bool, bool) {
	if v < 0 || v > r.Width.Max() {
		return problemf(r.Field, "value %d does not fit in a %s", v, r.Width), true, true
	}
	if m.Strictness == Lax {
		return Problem{}, false, false
	}
	b := r.Bounds(m.Profile)
	if !b.Contains(v) {
		return problemf(r.Field, "value %d outside %s for %s", v, b, m.Profile), false, true
	}
	return Problem{}, false, false
}

// Check returns a *RangeError if v does not fit the field width, whatever
// the strictness, and a *FormatError if v fits but is outside the profile
// range under Strict. Under Lax an in-width value is always accepted.
func (r RangeRule) Check(v int, m Mode) error {
	p, width, bad := r.violation(v, m)
	if !bad {
		return nil
	}
	if width {
		return &RangeError{Field: r.Field, Value: v, Width: r.Width}
	}
	return &FormatError{Problem: p}
}

// Accumulate performs the same check as Check, appending the problem to
// problems instead of returning an error.
func (r RangeRule) Accumulate(v int, m Mode, problems []Problem) []Problem {
	if p, _, bad := r.violation(v, m); bad {
		return append(problems, p)
	}
	return problems
}
