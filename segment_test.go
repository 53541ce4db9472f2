package jpegdoc

import (
	"bytes"
	"errors"
	"testing"
)

// readSegment reads one framed element whose marker has been consumed.
func readSegment(t *testing.T, e Framed, m Mode, params []byte) error {
	t.Helper()
	e.CommitMode(m)
	return ReadFramed(NewBoundedReader(bytes.NewReader(params), Unbounded), e)
}

func TestFramingRoundTrip(t *testing.T) {
	// DRI with Ri = 0x0102.
	in := []byte{0xFF, DRI, 0x00, 0x04, 0x01, 0x02}
	d := NewRestartInterval(0)
	if err := readSegment(t, d, Mode{}, in[2:]); err != nil {
		t.Fatal(err)
	}
	if d.Interval != 0x0102 {
		t.Errorf("interval %#x", d.Interval)
	}
	var out bytes.Buffer
	if err := Write(&out, d); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), in) {
		t.Errorf("wrote % X, want % X", out.Bytes(), in)
	}
	if Size(d) != len(in) {
		t.Errorf("Size %d, want %d", Size(d), len(in))
	}
}

func TestTrailingBytes(t *testing.T) {
	// DRI with two bytes more than its parameters need.
	in := []byte{0xFF, DRI, 0x00, 0x06, 0x00, 0x10, 0xAB, 0xCD}
	d := NewRestartInterval(0)
	if err := readSegment(t, d, Mode{Strictness: Lax}, in[2:]); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d.TrailingBytes(), []byte{0xAB, 0xCD}) {
		t.Errorf("trailing % X", d.TrailingBytes())
	}
	var out bytes.Buffer
	if err := Write(&out, d); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), in) {
		t.Errorf("wrote % X, want % X", out.Bytes(), in)
	}
	if err := SetStrictness(d, Strict); err == nil {
		t.Error("trailing bytes accepted under strict")
	}

	strict := NewRestartInterval(0)
	err := readSegment(t, strict, Mode{}, in[2:])
	if !errors.Is(err, ErrFormat) {
		t.Errorf("strict read: got %v, want ErrFormat", err)
	}
}

func TestShortLength(t *testing.T) {
	d := NewRestartInterval(0)
	if err := readSegment(t, d, Mode{Strictness: Lax}, []byte{0x00, 0x01}); !errors.Is(err, ErrFormat) {
		t.Errorf("length 1: %v", err)
	}
	d = NewRestartInterval(0)
	if err := readSegment(t, d, Mode{Strictness: Lax}, []byte{0x00, 0x03, 0x01}); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("length 3: %v", err)
	}
	d = NewRestartInterval(0)
	if err := readSegment(t, d, Mode{Strictness: Lax}, []byte{0x00, 0x04, 0x01}); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated: %v", err)
	}
}

func TestSegmentTooLong(t *testing.T) {
	c := NewComment("")
	c.Data = make([]byte, MaxParameterSize)
	if err := Write(&bytes.Buffer{}, c); err != nil {
		t.Errorf("largest segment: %v", err)
	}
	c.Data = make([]byte, MaxParameterSize+1)
	if err := Write(&bytes.Buffer{}, c); !errors.Is(err, ErrSegmentTooLong) {
		t.Errorf("got %v, want ErrSegmentTooLong", err)
	}
}

func TestDelimiter(t *testing.T) {
	d := NewDelimiter(RST0 + 3)
	var out bytes.Buffer
	if err := Write(&out, d); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), []byte{0xFF, 0xD3}) || Size(d) != 2 {
		t.Errorf("wrote % X", out.Bytes())
	}
	if d.Name() != "RST3" {
		t.Errorf("name %q", d.Name())
	}
	if problems := NewDelimiter(DQT).CheckMode(Mode{}); len(problems) != 1 {
		t.Errorf("DQT as delimiter: %v", problems)
	}
}

func TestIsJPEGHeader(t *testing.T) {
	tests := []struct {
		buf  []byte
		want bool
	}{
		{[]byte{0xFF, 0xD8, 0xFF, 0xE0}, true},
		{[]byte{0xFF, 0xFF, 0xFF, 0xD8}, true},
		{[]byte{0xFF, 0xD9}, false},
		{[]byte{0xFF, 0xFF}, false},
		{[]byte{0x00, 0xFF, 0xD8}, false},
		{[]byte{0xFF}, false},
		{nil, false},
	}
	for _, tc := range tests {
		if got := IsJPEGHeader(tc.buf); got != tc.want {
			t.Errorf("IsJPEGHeader(% X) = %v, want %v", tc.buf, got, tc.want)
		}
	}
}
