package jpegdoc

import (
	"strings"
	"testing"
)

func delim(m Marker) Element { return NewDelimiter(m) }

// sequence builds an element list for the grammar tests. The grammars
// only look at element types and markers.
func sequence(es ...Element) []Element {
	return es
}

func frame() Element { return NewFrameHeader(SOF0) }

func scanHeader() Element { return NewScanHeader() }

func ecs() Element { return NewEntropyBlock([]byte{1, 2, 3}) }

func TestStartOfImageOnly(t *testing.T) {
	problems := NonHierarchical{}.Validate(sequence(delim(SOI)))
	if len(problems) != 1 {
		t.Fatalf("%d problems, want 1: %v", len(problems), problems)
	}
	if !strings.Contains(problems[0].String(), "end-of-image") {
		t.Errorf("problem %q", problems[0])
	}
}

func TestEmptySequence(t *testing.T) {
	problems := NonHierarchical{}.Validate(nil)
	if len(problems) != 1 || !strings.Contains(problems[0].String(), "start-of-image") {
		t.Errorf("problems %v", problems)
	}
}

func TestNonHierarchical(t *testing.T) {
	tests := []struct {
		name     string
		items    []Element
		problems int
	}{
		{"minimal", sequence(delim(SOI), frame(), scanHeader(), ecs(), delim(EOI)), 0},
		{"tables and restarts", sequence(delim(SOI), NewQuantizationTables(), NewComment("x"), frame(),
			NewHuffmanTables(), NewRestartInterval(4), scanHeader(), ecs(), delim(RST0), ecs(), delim(RST0+1), ecs(),
			delim(EOI)), 0},
		{"progressive scans", sequence(delim(SOI), frame(), scanHeader(), ecs(), NewHuffmanTables(), scanHeader(), ecs(),
			NewLineCount(16), scanHeader(), ecs(), delim(EOI)), 0},
		{"fill bytes", sequence(NewPaddingRun(2), delim(SOI), frame(), NewPaddingRun(1), scanHeader(), ecs(),
			NewPaddingRun(3), delim(EOI)), 0},
		{"no frame", sequence(delim(SOI), scanHeader(), ecs(), delim(EOI)), 4},
		{"EOI before scan", sequence(delim(SOI), frame(), delim(EOI)), 2},
		{"DNL before scan", sequence(delim(SOI), frame(), NewLineCount(16), scanHeader(), ecs(), delim(EOI)), 1},
		{"data after EOI", sequence(delim(SOI), frame(), scanHeader(), ecs(), delim(EOI), ecs()), 1},
		{"EXP", sequence(delim(SOI), NewExpand(1, 1), frame(), scanHeader(), ecs(), delim(EOI)), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			problems := NonHierarchical{}.Validate(tc.items)
			if len(problems) != tc.problems {
				t.Errorf("%d problems, want %d: %v", len(problems), tc.problems, problems)
			}
		})
	}
}

func TestHierarchical(t *testing.T) {
	dhp := NewFrameHeader(DHP)
	sof5 := NewFrameHeader(SOF0 + 5)
	good := sequence(delim(SOI), NewQuantizationTables(), dhp, frame(), scanHeader(), ecs(),
		NewExpand(1, 1), sof5, scanHeader(), ecs(), sof5, scanHeader(), ecs(), delim(EOI))
	if problems := (Hierarchical{}).Validate(good); len(problems) != 0 {
		t.Errorf("problems: %v", problems)
	}
	noDHP := sequence(delim(SOI), frame(), scanHeader(), ecs(), delim(EOI))
	if problems := (Hierarchical{}).Validate(noDHP); len(problems) == 0 {
		t.Error("missing DHP accepted")
	}
	if problems := (NonHierarchical{}).Validate(good); len(problems) == 0 {
		t.Error("hierarchical image accepted as non-hierarchical")
	}
	// EXP needs an earlier frame to expand.
	expFirst := sequence(delim(SOI), dhp, NewExpand(1, 1), sof5, scanHeader(), ecs(), delim(EOI))
	problems := (Hierarchical{}).Validate(expFirst)
	if len(problems) != 1 || !strings.Contains(problems[0].String(), "found EXP") {
		t.Errorf("EXP before first frame: %v", problems)
	}
}

func TestAbbreviated(t *testing.T) {
	tables := sequence(delim(SOI), NewQuantizationTables(), NewHuffmanTables(), delim(EOI))
	if problems := (Abbreviated{}).Validate(tables); len(problems) != 0 {
		t.Errorf("problems: %v", problems)
	}
	withFrame := sequence(delim(SOI), NewQuantizationTables(), frame(), delim(EOI))
	if problems := (Abbreviated{}).Validate(withFrame); len(problems) != 1 {
		t.Errorf("problems: %v", problems)
	}
	if problems := (Abbreviated{}).Validate(sequence(delim(SOI))); len(problems) != 1 {
		t.Errorf("problems: %v", problems)
	}
}

func TestValidatorByName(t *testing.T) {
	for _, name := range []string{"", "nonhierarchical", "Hierarchical", "abbreviated", "jfif"} {
		if _, err := ValidatorByName(name); err != nil {
			t.Errorf("%q: %v", name, err)
		}
	}
	if _, err := ValidatorByName("progressive"); err == nil {
		t.Error("unknown validator accepted")
	}
}

func TestSplitImages(t *testing.T) {
	first := sequence(delim(SOI), frame(), scanHeader(), ecs(), delim(EOI))
	second := sequence(NewPaddingRun(1), delim(SOI), frame(), scanHeader(), ecs(), delim(EOI))
	images := SplitImages(append(append([]Element{}, first...), second...))
	if len(images) != 2 || len(images[0]) != len(first) || len(images[1]) != len(second) {
		t.Fatalf("split into %d images", len(images))
	}
	for i, image := range images {
		if problems := (NonHierarchical{}).Validate(image); len(problems) != 0 {
			t.Errorf("image %d: %v", i, problems)
		}
	}
	if len(SplitImages(nil)) != 0 {
		t.Error("images in an empty sequence")
	}
}
