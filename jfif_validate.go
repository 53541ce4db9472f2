package jpegdoc

// JFIFValidator checks the non-hierarchical grammar plus the JFIF layout:
// a JFIF segment right after SOI, optionally followed by a JFXX segment,
// and frames of one component (id 1) or three (ids 1, 2 and 3). JPEG-coded
// thumbnails are checked as non-hierarchical images.
type JFIFValidator struct{}

func (JFIFValidator) Validate(items []Element) []Problem {
	problems := NonHierarchical{}.Validate(items)
	seq := withoutPadding(items)
	if len(seq) == 0 || !isStart(seq[0]) {
		return problems
	}
	if len(seq) < 2 {
		return append(problems, problemf("", "found end of sequence, expected JFIF"))
	}
	_, hasJFIF := seq[1].(*JFIF)
	if !hasJFIF {
		problems = append(problems, problemf("", "found %s, expected JFIF", seq[1].Name()))
	}
	for i, e := range seq {
		switch e := e.(type) {
		case *JFIF:
			if i != 1 {
				problems = append(problems, problemf(e.Name(), "must immediately follow start-of-image"))
			}
		case *JFXX:
			if i != 2 || !hasJFIF {
				problems = append(problems, problemf(e.Name(), "must immediately follow JFIF"))
			}
			if e.Thumbnail != nil {
				for _, p := range (NonHierarchical{}).Validate(e.Thumbnail.items) {
					problems = append(problems, Problem{Element: "thumbnail", Message: p.String()})
				}
			}
		case *FrameHeader:
			problems = append(problems, checkJFIFComponents(e)...)
		}
	}
	return problems
}

func checkJFIFComponents(f *FrameHeader) []Problem {
	n := len(f.Components)
	if n != 1 && n != 3 {
		return []Problem{problemf(f.Name(), "%d components, JFIF allows 1 or 3", n)}
	}
	var problems []Problem
	for i, c := range f.Components {
		if c.ID != i+1 {
			problems = append(problems, problemf(f.Name(), "component %d has id %d, want %d", i, c.ID, i+1))
		}
	}
	return problems
}
