package main

// Print the elements of a JPEG file with their offsets and sizes. Files
// using the MPF extension to hold several images have each image marked.

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	jdoc "github.com/garyhouston/jpegdoc"
	"github.com/garyhouston/jpegdoc/internal/cli"
)

type printCmd struct {
	cli.Flags `embed:""`
	File      string `arg:"" type:"existingfile" help:"JPEG file to list (may be .xz compressed)."`
}

// scanRun collects consecutive scan data and restart markers, which are
// printed as one line.
type scanRun struct {
	offset int64
	bytes  int
	resets int
}

func (s *scanRun) flush(w io.Writer) {
	if s.bytes == 0 && s.resets == 0 {
		return
	}
	fmt.Fprintf(w, "%10d  %d bytes of image data", s.offset, s.bytes)
	if s.resets > 0 {
		fmt.Fprintf(w, " and %d reset markers", s.resets)
	}
	fmt.Fprintln(w)
	*s = scanRun{}
}

func describe(e jdoc.Element) string {
	switch e := e.(type) {
	case *jdoc.FrameHeader:
		return fmt.Sprintf("%s, P=%d, %dx%d, %d components", e.Profile(), e.Precision, e.Samples, e.Lines, len(e.Components))
	case *jdoc.ScanHeader:
		return fmt.Sprintf("%d components, Ss=%d Se=%d Ah=%d Al=%d", len(e.Components), e.SpectralStart, e.SpectralEnd, e.ApproxHigh, e.ApproxLow)
	case *jdoc.QuantizationTables:
		return fmt.Sprintf("%d tables", len(e.Tables))
	case *jdoc.HuffmanTables:
		return fmt.Sprintf("%d tables", len(e.Tables))
	case *jdoc.RestartInterval:
		return fmt.Sprintf("interval %d", e.Interval)
	case *jdoc.Comment:
		if e.IsText() {
			return fmt.Sprintf("%q", e.Text())
		}
	case *jdoc.JFIF:
		return fmt.Sprintf("version %d.%02d, density %dx%d, thumbnail %dx%d", e.Major, e.Minor, e.XDensity, e.YDensity, e.ThumbWidth, e.ThumbHeight)
	case *jdoc.JFXX:
		if e.Thumbnail != nil {
			return fmt.Sprintf("JPEG thumbnail, %d elements", e.Thumbnail.Len())
		}
		return fmt.Sprintf("extension code 0x%02X", e.Code)
	case *jdoc.Exif:
		if tree, err := e.Tree(); err == nil {
			return fmt.Sprintf("%d fields in IFD0", len(tree.Fields))
		}
		return "unreadable TIFF data"
	case *jdoc.MPF:
		fields, err := e.Fields()
		if err != nil {
			return "unreadable MPF data"
		}
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		return fmt.Sprintf("%s: %s", e.Space.Name(), strings.Join(names, " "))
	case *jdoc.XMP:
		if tool, ok, _ := e.Property("xmp:CreatorTool"); ok {
			return "creator tool " + tool
		}
	case *jdoc.Opaque:
		if id := e.Identifier(); id != "" {
			return fmt.Sprintf("%q", id)
		}
	case *jdoc.PaddingRun:
		return fmt.Sprintf("%d fill bytes", e.Count)
	}
	return ""
}

// mpfImages returns the file offsets of the images listed by the MPF
// index segment at offset, keyed by offset.
func mpfImages(p *jdoc.MPF, offset int64) (map[int64]jdoc.MPFImage, error) {
	images, err := p.Images()
	if err != nil {
		return nil, err
	}
	// MPF offsets are relative to the byte following the MPF header,
	// which is 4 bytes past the start of the parameters.
	base := offset + 4 + jdoc.MPFHeaderSize
	positions := make(map[int64]jdoc.MPFImage)
	for _, img := range images {
		if img.Offset > 0 {
			positions[base+int64(img.Offset)] = img
		}
	}
	return positions, nil
}

func (c *printCmd) Run() error {
	cfg, err := c.Load()
	if err != nil {
		return err
	}
	logger := cli.NewLogger(os.Stderr, "jpegdocprint", cfg.LogLevel)
	in, err := cli.Open(c.File)
	if err != nil {
		return err
	}
	defer in.Close()
	doc, err := jdoc.Read(in, cfg.Options(&logger))
	if err != nil {
		return err
	}
	w := os.Stdout
	var run scanRun
	var images map[int64]jdoc.MPFImage
	image := 1
	offset := int64(0)
	for _, e := range doc.All() {
		size := jdoc.Size(e)
		if _, ok := e.(*jdoc.EntropyBlock); ok || isReset(e) {
			if run.bytes == 0 && run.resets == 0 {
				run.offset = offset
			}
			if ok {
				run.bytes += size
			} else {
				run.resets++
			}
			offset += int64(size)
			continue
		}
		run.flush(w)
		if img, ok := images[offset]; ok {
			image++
			fmt.Fprintf(w, "MPF image %d at offset %d, size %d\n", image, offset, img.Size)
		}
		if p, ok := e.(*jdoc.MPF); ok && images == nil {
			if images, err = mpfImages(p, offset); err != nil {
				logger.Warn().Err(err).Int64("offset", offset).Msg("MPF index unreadable")
			}
		}
		fmt.Fprintf(w, "%10d  %-6s %6d", offset, e.Name(), size)
		if d := describe(e); d != "" {
			fmt.Fprintf(w, "  %s", d)
		}
		fmt.Fprintln(w)
		offset += int64(size)
	}
	run.flush(w)
	return nil
}

func isReset(e jdoc.Element) bool {
	d, ok := e.(*jdoc.Delimiter)
	return ok && d.Marker().IsRST()
}

func main() {
	var cmd printCmd
	ctx := kong.Parse(&cmd,
		kong.Name("jpegdocprint"),
		kong.Description("Print the markers and segments of a JPEG file."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(cmd.Run())
}
