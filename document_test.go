package jpegdoc

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

var (
	soi = []byte{0xFF, 0xD8}
	eoi = []byte{0xFF, 0xD9}
	// DQT, one 8-bit table of ones.
	dqt = append([]byte{0xFF, 0xDB, 0x00, 0x43, 0x00}, bytes.Repeat([]byte{1}, 64)...)
	// SOF0, 8-bit, 16x16, one component with id 1.
	sof0 = []byte{0xFF, 0xC0, 0x00, 0x0B, 0x08, 0x00, 0x10, 0x00, 0x10, 0x01, 0x01, 0x11, 0x00}
	// DHT, one DC table with a single one-bit code.
	dht = join([]byte{0xFF, 0xC4, 0x00, 0x14, 0x00, 0x01}, make([]byte, 15), []byte{0x05})
	// SOS, one component, Ss 0, Se 63.
	sos = []byte{0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00}
	// Scan data with a stuffed 0xFF and a restart marker.
	scan = []byte{0x12, 0xFF, 0x00, 0x34, 0xFF, 0xD0, 0x56}
)

func minimalImage() []byte {
	return join(soi, dqt, sof0, dht, sos, scan, eoi)
}

func readDoc(t *testing.T, in []byte, opts *Options) *Document {
	t.Helper()
	doc, err := Read(bytes.NewReader(in), opts)
	if err != nil {
		t.Fatalf("reading % X: %v", in, err)
	}
	return doc
}

func checkRoundTrip(t *testing.T, doc *Document, want []byte) {
	t.Helper()
	var out bytes.Buffer
	n, err := doc.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("wrote\n% X\nwant\n% X", out.Bytes(), want)
	}
	if int(n) != out.Len() || doc.Size() != out.Len() {
		t.Errorf("WriteTo returned %d, Size %d, wrote %d", n, doc.Size(), out.Len())
	}
}

func names(doc *Document) []string {
	var list []string
	for _, e := range doc.All() {
		list = append(list, e.Name())
	}
	return list
}

func sameNames(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestReadMinimalImage(t *testing.T) {
	in := minimalImage()
	doc := readDoc(t, in, nil)
	want := []string{"SOI", "DQT", "SOF0", "DHT", "SOS", "ECS", "RST0", "ECS", "EOI"}
	if got := names(doc); !sameNames(got, want) {
		t.Fatalf("elements %v, want %v", got, want)
	}
	if ecs := doc.Item(5).(*EntropyBlock); !bytes.Equal(ecs.Data, []byte{0x12, 0xFF, 0x34}) {
		t.Errorf("scan data % X", ecs.Data)
	}
	f := doc.Item(2).(*FrameHeader)
	if f.Precision != 8 || f.Lines != 16 || f.Samples != 16 || len(f.Components) != 1 {
		t.Errorf("frame %+v", f)
	}
	checkRoundTrip(t, doc, in)
	if problems := doc.Validate(); len(problems) != 0 {
		t.Errorf("problems: %v", problems)
	}
	if problems := doc.Check(NonHierarchical{}); len(problems) != 0 {
		t.Errorf("grammar problems: %v", problems)
	}
}

func TestDetectProfile(t *testing.T) {
	doc := readDoc(t, minimalImage(), nil)
	if err := doc.DetectProfile(); err != nil {
		t.Fatal(err)
	}
	if doc.Mode().Profile != Baseline || doc.Mode().Hierarchical {
		t.Errorf("mode %s", doc.Mode())
	}
	for _, e := range doc.All() {
		if e.Mode() != doc.Mode() {
			t.Errorf("%s has mode %s", e.Name(), e.Mode())
		}
	}
	// A baseline frame header can't be progressive.
	if err := doc.SetProfile(ProgressiveHuffman); err == nil {
		t.Error("progressive profile accepted")
	}
	if doc.Item(2).Mode().Profile != Baseline {
		t.Error("failed SetProfile changed an element")
	}
}

func TestCommentStuffing(t *testing.T) {
	in := []byte{0xFF, 0xD8, 0xFF, 0xFE, 0x00, 0x04, 0xFF, 0x00, 0xFF, 0xD9}
	doc := readDoc(t, in, nil)
	if got := names(doc); !sameNames(got, []string{"SOI", "COM", "EOI"}) {
		t.Fatalf("elements %v", got)
	}
	c := doc.Item(1).(*Comment)
	if !bytes.Equal(c.Payload(), []byte{0xFF}) {
		t.Errorf("payload % X", c.Payload())
	}
	checkRoundTrip(t, doc, in)
}

func TestFillBytes(t *testing.T) {
	in := []byte{0xFF, 0xFF, 0xFF, 0xD8, 0xFF, 0xFF, 0xD9}
	doc := readDoc(t, in, nil)
	if got := names(doc); !sameNames(got, []string{"FILL", "SOI", "FILL", "EOI"}) {
		t.Fatalf("elements %v", got)
	}
	if n := doc.Item(0).(*PaddingRun).Count; n != 2 {
		t.Errorf("leading fill %d, want 2", n)
	}
	if n := doc.Item(2).(*PaddingRun).Count; n != 1 {
		t.Errorf("fill before EOI %d, want 1", n)
	}
	checkRoundTrip(t, doc, in)
}

func TestDataOutsideScan(t *testing.T) {
	in := []byte{0xFF, 0xD8, 0x00, 0x01, 0xFF, 0xD9}
	if _, err := Read(bytes.NewReader(in), nil); !errors.Is(err, ErrFormat) {
		t.Errorf("strict: got %v, want ErrFormat", err)
	}
	doc := readDoc(t, in, &Options{Mode: Mode{Strictness: Lax}})
	if got := names(doc); !sameNames(got, []string{"SOI", "ECS", "EOI"}) {
		t.Fatalf("elements %v", got)
	}
	checkRoundTrip(t, doc, in)
	if problems := doc.Check(NonHierarchical{}); len(problems) == 0 {
		t.Error("garbage passed the grammar")
	}
}

func TestTrailingFFInScan(t *testing.T) {
	in := join(soi, dqt, sof0, dht, sos, []byte{0x00, 0x01, 0xFF})
	if _, err := Read(bytes.NewReader(in), nil); !errors.Is(err, ErrFormat) {
		t.Errorf("strict: got %v, want ErrFormat", err)
	}
	doc := readDoc(t, in, &Options{Mode: Mode{Strictness: Lax}})
	last := doc.Item(doc.Len() - 1).(*EntropyBlock)
	if !last.TrailingFF {
		t.Error("TrailingFF not set")
	}
	checkRoundTrip(t, doc, in)
}

func TestUnknownApplicationSegment(t *testing.T) {
	// APP1 with an identifier neither Exif nor XMP, and APP5.
	app1 := []byte{0xFF, 0xE1, 0x00, 0x07, 'a', 'b', 'c', 0x00, 0x09}
	app5 := []byte{0xFF, 0xE5, 0x00, 0x03, 0x07}
	in := join(soi, app1, app5, eoi)
	doc := readDoc(t, in, nil)
	for _, i := range []int{1, 2} {
		if _, ok := doc.Item(i).(*Opaque); !ok {
			t.Errorf("element %d is %T, want *Opaque", i, doc.Item(i))
		}
	}
	if id := doc.Item(1).(*Opaque).Identifier(); id != "abc" {
		t.Errorf("identifier %q", id)
	}
	checkRoundTrip(t, doc, in)
}

func TestCandidateFailure(t *testing.T) {
	// DQT with precision 2, which no table can have.
	bad := []byte{0xFF, 0xDB, 0x00, 0x03, 0x20}
	in := join(soi, bad, eoi)
	if _, err := Read(bytes.NewReader(in), nil); !errors.Is(err, ErrFormat) {
		t.Errorf("strict: got %v, want ErrFormat", err)
	}
	doc := readDoc(t, in, &Options{Mode: Mode{Strictness: Lax}})
	o, ok := doc.Item(1).(*Opaque)
	if !ok {
		t.Fatalf("element 1 is %T, want *Opaque", doc.Item(1))
	}
	if data, err := o.Data(); err != nil || !bytes.Equal(data, []byte{0x20}) {
		t.Errorf("data % X, %v", data, err)
	}
	checkRoundTrip(t, doc, in)
}

func TestNoElementType(t *testing.T) {
	d := NewDocument(nil)
	if _, err := d.ReadFrom(bytes.NewReader(soi)); !errors.Is(err, ErrNoElementType) {
		t.Errorf("got %v, want ErrNoElementType", err)
	}
	d = NewDocument(nil)
	d.RegisterElementType(SOI, EOI, func(m Marker) Element { return NewDelimiter(m) })
	if _, err := d.ReadFrom(bytes.NewReader(join(soi, eoi))); err != nil {
		t.Fatal(err)
	}
	if d.Len() != 2 || !d.Registry().CanHandle(EOI) || d.Registry().CanHandle(SOS) {
		t.Errorf("custom registry: %v", names(d))
	}
}

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	first := func(m Marker) Element { return NewComment("first") }
	second := func(m Marker) Element { return NewComment("second") }
	r.Register(COM, COM, first)
	r.Register(APP0, COM, second)
	fs := r.Candidates(COM)
	if len(fs) != 2 || fs[0](COM).(*Comment).Text() != "first" {
		t.Errorf("candidates out of order")
	}
	if len(r.Candidates(SOI)) != 0 || r.Fallback() != nil {
		t.Error("unexpected candidates")
	}
}

func TestTruncatedSegment(t *testing.T) {
	in := join(soi, []byte{0xFF, 0xDB, 0x00, 0x43, 0x00, 0x01})
	doc := NewDocument(&Options{Mode: Mode{Strictness: Lax}})
	doc.AddStandardElementTypes()
	if _, err := doc.ReadFrom(bytes.NewReader(in)); !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
	if doc.Len() != 1 {
		t.Errorf("kept %v", names(doc))
	}
}

func TestDeferredPayload(t *testing.T) {
	payload := []byte("deferred data")
	app9 := join([]byte{0xFF, 0xE9, 0x00, byte(len(payload) + 2)}, payload)
	in := join(soi, app9, eoi)
	doc := readDoc(t, in, &Options{Mode: Mode{Strictness: Lax}, DeferThreshold: 8})
	o := doc.Item(1).(*Opaque)
	if o.Loaded() {
		t.Fatal("payload loaded while reading")
	}
	if Size(o) != len(app9) {
		t.Errorf("size %d, want %d", Size(o), len(app9))
	}
	data, err := o.Data()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) || !o.Loaded() {
		t.Errorf("data %q", data)
	}
	if o.deferral.src != nil || o.payload.src != nil {
		t.Error("source still referenced after loading")
	}
	checkRoundTrip(t, doc, in)

	// Below the threshold the payload is read at once.
	doc = readDoc(t, in, &Options{Mode: Mode{Strictness: Lax}, DeferThreshold: 64})
	o = doc.Item(1).(*Opaque)
	if !o.Loaded() {
		t.Error("small payload deferred")
	}
	if o.deferral.src != nil {
		t.Error("source referenced by a payload read at once")
	}
}

func TestInsertDelete(t *testing.T) {
	doc := readDoc(t, minimalImage(), nil)
	n := doc.Len()
	c := NewComment("hello")
	if err := doc.Insert(1, c); err != nil {
		t.Fatal(err)
	}
	if doc.Len() != n+1 || doc.Index(c) != 1 || c.Mode() != doc.Mode() {
		t.Errorf("after insert: %v", names(doc))
	}
	if err := doc.Insert(n+5, NewComment("")); !errors.Is(err, ErrIndex) {
		t.Errorf("insert out of range: %v", err)
	}
	if err := doc.Insert(0, nil); err == nil {
		t.Error("nil element inserted")
	}
	// EXP isn't allowed outside hierarchical mode under Strict.
	if err := doc.Add(NewExpand(1, 1)); err == nil {
		t.Error("EXP added to a non-hierarchical document")
	}
	if doc.Len() != n+1 {
		t.Errorf("failed add changed length to %d", doc.Len())
	}
	e, err := doc.Delete(1)
	if err != nil || e != Element(c) {
		t.Errorf("Delete = %v, %v", e, err)
	}
	if _, err := doc.Delete(doc.Len()); !errors.Is(err, ErrIndex) {
		t.Errorf("delete out of range: %v", err)
	}
	checkRoundTrip(t, doc, minimalImage())
}

func TestDocumentEqual(t *testing.T) {
	a := readDoc(t, minimalImage(), nil)
	b := readDoc(t, minimalImage(), nil)
	if !a.Equal(b) {
		t.Error("identical documents differ")
	}
	b.Item(2).(*FrameHeader).Lines = 8
	if a.Equal(b) {
		t.Error("modified document still equal")
	}
}

func TestReadLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	in := join(soi, []byte{0xFF, 0xE5, 0x00, 0x02}, []byte{0xFF, 0xFF}, eoi)
	readDoc(t, in, &Options{Mode: Mode{Strictness: Lax}, Logger: &logger})
	out := buf.String()
	if !strings.Contains(out, "recorded as opaque segment") || !strings.Contains(out, `"marker":"APP5"`) {
		t.Errorf("log %s", out)
	}
}
