package main

// Read a JPEG file into a document and write it out again, checking that
// the copy is byte-for-byte identical. Files using the Multi-Picture
// Format extension are copied whole, since the MPF offsets stay valid.

import (
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	jdoc "github.com/garyhouston/jpegdoc"
	"github.com/garyhouston/jpegdoc/internal/cli"
)

type copyCmd struct {
	cli.Flags `embed:""`
	In        string `arg:"" type:"existingfile" help:"Input JPEG file (may be .xz compressed)."`
	Out       string `arg:"" type:"path" help:"Output file."`
}

func (c *copyCmd) Run() error {
	cfg, err := c.Load()
	if err != nil {
		return err
	}
	logger := cli.NewLogger(os.Stderr, "jpegdoccopy", cfg.LogLevel)
	data, err := cli.ReadFile(c.In)
	if err != nil {
		return err
	}
	if !jdoc.IsJPEGHeader(data) {
		return fmt.Errorf("%s: no start-of-image marker", c.In)
	}
	doc, err := jdoc.Read(bytes.NewReader(data), cfg.Options(&logger))
	if err != nil {
		return err
	}
	var out bytes.Buffer
	out.Grow(doc.Size())
	if _, err := doc.WriteTo(&out); err != nil {
		return err
	}
	if err := os.WriteFile(c.Out, out.Bytes(), 0o644); err != nil {
		return err
	}
	in, copied := cli.Digest(data), cli.Digest(out.Bytes())
	logger.Info().Int("elements", doc.Len()).Str("blake3", copied).Msg("copied")
	if in != copied {
		return fmt.Errorf("copy differs from input: blake3 %s, want %s", copied, in)
	}
	return nil
}

func main() {
	var cmd copyCmd
	ctx := kong.Parse(&cmd,
		kong.Name("jpegdoccopy"),
		kong.Description("Copy a JPEG file through a parsed document and verify the result."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(cmd.Run())
}
