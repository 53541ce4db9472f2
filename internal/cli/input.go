package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

type xzFile struct {
	*xz.Reader
	f *os.File
}

func (x *xzFile) Close() error {
	return x.f.Close()
}

// Open opens an input file. Files named *.xz are decompressed on the fly;
// other files are returned as *os.File so that segment payloads can be
// read on demand.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".xz") {
		return f, nil
	}
	r, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xz reader for %s: %w", path, err)
	}
	return &xzFile{Reader: r, f: f}, nil
}

// ReadFile reads a whole input file, decompressing it if needed.
func ReadFile(path string) ([]byte, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
