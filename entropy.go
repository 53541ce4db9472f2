package jpegdoc

import (
	"bufio"
	"bytes"
	"io"
)

// EntropyBlock is a run of entropy-coded scan data, with the 0x00 bytes
// stuffed after each 0xFF removed. The data isn't decoded.
type EntropyBlock struct {
	ModeBase
	Data []byte
	// TrailingFF records input that ended on an unescaped 0xFF. The last
	// byte of Data is then written without stuffing. Only valid under Lax.
	TrailingFF bool
}

// NewEntropyBlock returns a block holding data.
func NewEntropyBlock(data []byte) *EntropyBlock {
	return &EntropyBlock{Data: data}
}

func (b *EntropyBlock) Name() string {
	return "ECS"
}

func (b *EntropyBlock) CheckMode(m Mode) []Problem {
	var problems []Problem
	if b.TrailingFF {
		if m.Strictness == Strict {
			problems = append(problems, problemf(b.Name(), "scan data ends with an unescaped 0xFF"))
		}
		if len(b.Data) == 0 || b.Data[len(b.Data)-1] != 0xFF {
			problems = append(problems, problemf(b.Name(), "trailing 0xFF flag set but data doesn't end with 0xFF"))
		}
	}
	return problems
}

func (b *EntropyBlock) Equal(other Element) bool {
	o, ok := other.(*EntropyBlock)
	return ok && o.TrailingFF == b.TrailingFF && bytes.Equal(o.Data, b.Data)
}

func (b *EntropyBlock) unstuffedTail() bool {
	return b.TrailingFF && len(b.Data) > 0 && b.Data[len(b.Data)-1] == 0xFF
}

func (b *EntropyBlock) RawSize() int {
	n := len(b.Data) + bytes.Count(b.Data, []byte{0xFF})
	if b.unstuffedTail() {
		n--
	}
	return n
}

// WriteRaw writes the data, stuffing a 0x00 after each 0xFF.
func (b *EntropyBlock) WriteRaw(w io.Writer) error {
	bw, ok := w.(io.ByteWriter)
	var buffered *bufio.Writer
	if !ok {
		buffered = bufio.NewWriter(w)
		bw = buffered
	}
	last := len(b.Data) - 1
	for pos, c := range b.Data {
		if err := bw.WriteByte(c); err != nil {
			return err
		}
		if c == 0xFF && !(pos == last && b.TrailingFF) {
			if err := bw.WriteByte(0); err != nil {
				return err
			}
		}
	}
	if buffered != nil {
		return buffered.Flush()
	}
	return nil
}

// ReadEntropy reads scan data up to the next marker. If it stops at a
// marker, the marker's 0xFF has been consumed and atMarker is true; the
// marker byte itself is still unread. Input ending on an unescaped 0xFF
// sets TrailingFF under Lax and is a format violation under Strict.
func ReadEntropy(r *BoundedReader, m Mode) (block *EntropyBlock, atMarker bool, err error) {
	return readEntropy(r, nil, m)
}

func readEntropy(r *BoundedReader, data []byte, m Mode) (*EntropyBlock, bool, error) {
	block := &EntropyBlock{}
	block.CommitMode(m)
	for {
		c, err := r.next()
		if err == io.EOF {
			block.Data = data
			return block, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if c != 0xFF {
			data = append(data, c)
			continue
		}
		d, err := r.PeekByte()
		if err == io.EOF {
			if m.Strictness == Strict {
				return nil, false, formatErrorf(block.Name(), "input ends with an unescaped 0xFF")
			}
			block.Data = append(data, 0xFF)
			block.TrailingFF = true
			return block, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		if d != 0 {
			block.Data = data
			return block, true, nil
		}
		// Stuffed 0xFF: drop the 0x00.
		if _, err := r.next(); err != nil {
			return nil, false, err
		}
		data = append(data, 0xFF)
	}
}
