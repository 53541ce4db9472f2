package jpegdoc

import (
	"fmt"
	"strings"
)

// Profile is the JPEG coding process that narrows which parameter values
// are legal. There is one profile per SOFn marker.
type Profile uint8

const (
	ProfileUnset Profile = iota
	Baseline
	ExtendedHuffman
	ProgressiveHuffman
	LosslessHuffman
	DifferentialExtendedHuffman
	DifferentialProgressiveHuffman
	DifferentialLosslessHuffman
	ExtendedArithmetic
	ProgressiveArithmetic
	LosslessArithmetic
	DifferentialExtendedArithmetic
	DifferentialProgressiveArithmetic
	DifferentialLosslessArithmetic
)

var profileNames = [...]string{
	ProfileUnset:                      "unset",
	Baseline:                          "baseline",
	ExtendedHuffman:                   "extended-huffman",
	ProgressiveHuffman:                "progressive-huffman",
	LosslessHuffman:                   "lossless-huffman",
	DifferentialExtendedHuffman:       "differential-extended-huffman",
	DifferentialProgressiveHuffman:    "differential-progressive-huffman",
	DifferentialLosslessHuffman:       "differential-lossless-huffman",
	ExtendedArithmetic:                "extended-arithmetic",
	ProgressiveArithmetic:             "progressive-arithmetic",
	LosslessArithmetic:                "lossless-arithmetic",
	DifferentialExtendedArithmetic:    "differential-extended-arithmetic",
	DifferentialProgressiveArithmetic: "differential-progressive-arithmetic",
	DifferentialLosslessArithmetic:    "differential-lossless-arithmetic",
}

// profileMarkers maps each profile to its SOF marker.
var profileMarkers = [...]Marker{
	Baseline:                          SOF0,
	ExtendedHuffman:                   SOF0 + 1,
	ProgressiveHuffman:                SOF0 + 2,
	LosslessHuffman:                   SOF0 + 3,
	DifferentialExtendedHuffman:       SOF0 + 5,
	DifferentialProgressiveHuffman:    SOF0 + 6,
	DifferentialLosslessHuffman:       SOF0 + 7,
	ExtendedArithmetic:                SOF0 + 9,
	ProgressiveArithmetic:             SOF0 + 10,
	LosslessArithmetic:                SOF0 + 11,
	DifferentialExtendedArithmetic:    SOF0 + 13,
	DifferentialProgressiveArithmetic: SOF0 + 14,
	DifferentialLosslessArithmetic:    SOF0 + 15,
}

func (p Profile) String() string {
	if int(p) < len(profileNames) {
		return profileNames[p]
	}
	return fmt.Sprintf("profile(%d)", uint8(p))
}

// ParseProfile returns the profile with the given name, as printed by
// Profile.String.
func ParseProfile(name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ProfileUnset, nil
	}
	for i, n := range profileNames {
		if n == name {
			return Profile(i), nil
		}
	}
	return ProfileUnset, fmt.Errorf("jpegdoc: unknown profile %q", name)
}

// ProfileForMarker returns the profile selected by a SOF marker, or
// ProfileUnset if m isn't one.
func ProfileForMarker(m Marker) Profile {
	for p := Baseline; int(p) < len(profileMarkers); p++ {
		if profileMarkers[p] == m {
			return p
		}
	}
	return ProfileUnset
}

// Marker returns the SOF marker for the profile. It returns 0 for
// ProfileUnset.
func (p Profile) Marker() Marker {
	if p == ProfileUnset || int(p) >= len(profileMarkers) {
		return 0
	}
	return profileMarkers[p]
}

// IsDifferential reports whether frames of this profile are only found
// in hierarchical images.
func (p Profile) IsDifferential() bool {
	m := p.Marker()
	return m != 0 && (m-SOF0)&4 != 0
}

// IsArithmetic reports whether the profile uses arithmetic coding.
func (p Profile) IsArithmetic() bool {
	m := p.Marker()
	return m != 0 && (m-SOF0)&8 != 0
}

// Category groups the profiles by the ranges their parameters may take.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryBaseline
	CategoryExtended
	CategoryProgressive
	CategoryLossless
)

// Category returns the range category of the profile.
func (p Profile) Category() Category {
	if p == Baseline {
		return CategoryBaseline
	}
	m := p.Marker()
	if m == 0 {
		return CategoryNone
	}
	switch (m - SOF0) & 3 {
	case 2:
		return CategoryProgressive
	case 3:
		return CategoryLossless
	}
	return CategoryExtended
}

// Strictness selects whether profile ranges are enforced.
type Strictness uint8

const (
	// Strict enforces the ranges of the current profile and the grammar.
	Strict Strictness = iota
	// Lax only enforces storage widths, and keeps anomalous bytes so that
	// they can be written back.
	Lax
)

func (s Strictness) String() string {
	if s == Lax {
		return "lax"
	}
	return "strict"
}

// Mode is the set of flags that govern which field values an element
// accepts.
type Mode struct {
	Profile      Profile
	Strictness   Strictness
	Hierarchical bool
}

func (m Mode) String() string {
	s := m.Profile.String() + "/" + m.Strictness.String()
	if m.Hierarchical {
		s += "/hierarchical"
	}
	return s
}

// Element is a node of a Document: a segment, a run of scan data or
// padding, or a record nested inside a segment.
type Element interface {
	// Name identifies the element in problems and listings.
	Name() string
	Mode() Mode
	// CommitMode stores m without checking it. Use SetMode and friends,
	// which check the whole tree first.
	CommitMode(m Mode)
	// CheckMode lists the problems the element's own fields would have
	// under m. Children are checked separately.
	CheckMode(m Mode) []Problem
	// Children returns the nested elements that share the element's mode.
	Children() []Element
	Equal(other Element) bool
}

// ModeBase stores the mode of an element. Embed it to satisfy the mode
// part of Element.
type ModeBase struct {
	mode Mode
}

func (b *ModeBase) Mode() Mode {
	return b.mode
}

func (b *ModeBase) CommitMode(m Mode) {
	b.mode = m
}

func (b *ModeBase) Children() []Element {
	return nil
}

// WouldAccept lists the problems e and its descendants would have under m.
// It modifies nothing.
func WouldAccept(e Element, m Mode) []Problem {
	problems := e.CheckMode(m)
	for _, c := range e.Children() {
		problems = append(problems, WouldAccept(c, m)...)
	}
	return problems
}

func commitTree(e Element, m Mode) {
	e.CommitMode(m)
	for _, c := range e.Children() {
		commitTree(c, m)
	}
}

// SetMode checks m against e and all its descendants and, if none of them
// has a problem, gives all of them mode m. On failure nothing changes and a
// *ModeError lists the problems.
func SetMode(e Element, m Mode) error {
	if problems := WouldAccept(e, m); len(problems) > 0 {
		return &ModeError{Mode: m, Problems: problems}
	}
	commitTree(e, m)
	return nil
}

// SetProfile changes the encoding profile of e and its descendants.
func SetProfile(e Element, p Profile) error {
	m := e.Mode()
	m.Profile = p
	return SetMode(e, m)
}

// SetStrictness changes the strictness of e and its descendants.
func SetStrictness(e Element, s Strictness) error {
	m := e.Mode()
	m.Strictness = s
	return SetMode(e, m)
}

// SetHierarchical changes the hierarchical flag of e and its descendants.
func SetHierarchical(e Element, h bool) error {
	m := e.Mode()
	m.Hierarchical = h
	return SetMode(e, m)
}

// Validate returns every problem of e and its descendants under their
// current modes.
func Validate(e Element) []Problem {
	problems := e.CheckMode(e.Mode())
	for _, c := range e.Children() {
		problems = append(problems, Validate(c)...)
	}
	return problems
}

// IsValid reports whether Validate finds no problem.
func IsValid(e Element) bool {
	return len(Validate(e)) == 0
}
