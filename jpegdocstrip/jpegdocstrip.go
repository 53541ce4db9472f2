package main

import (
	"bufio"
	"os"

	"github.com/alecthomas/kong"

	jdoc "github.com/garyhouston/jpegdoc"
	"github.com/garyhouston/jpegdoc/internal/cli"
)

type stripCmd struct {
	cli.Flags `embed:""`
	KeepJFIF  bool   `name:"keep-jfif" help:"Keep JFIF and JFXX segments."`
	In        string `arg:"" type:"existingfile" help:"Input JPEG file (may be .xz compressed)."`
	Out       string `arg:"" type:"path" help:"Output file."`
}

func (c *stripCmd) strippable(e jdoc.Element) bool {
	switch e.(type) {
	case *jdoc.JFIF, *jdoc.JFXX:
		return !c.KeepJFIF
	}
	m, ok := e.(jdoc.Marked)
	if !ok {
		return false
	}
	marker := m.Marker()
	return marker == jdoc.COM || marker.IsAPP() || marker.IsJPGn()
}

// Make a copy of a JPEG file with all COM, APP and JPG segments removed.
func (c *stripCmd) Run() error {
	cfg, err := c.Load()
	if err != nil {
		return err
	}
	logger := cli.NewLogger(os.Stderr, "jpegdocstrip", cfg.LogLevel)
	in, err := cli.Open(c.In)
	if err != nil {
		return err
	}
	defer in.Close()
	doc, err := jdoc.Read(in, cfg.Options(&logger))
	if err != nil {
		return err
	}
	removed := 0
	for i := doc.Len() - 1; i >= 0; i-- {
		if c.strippable(doc.Item(i)) {
			if _, err := doc.Delete(i); err != nil {
				return err
			}
			removed++
		}
	}
	out, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	defer out.Close()
	writer := bufio.NewWriter(out)
	if _, err := doc.WriteTo(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	logger.Info().Int("removed", removed).Msg("stripped")
	return out.Close()
}

func main() {
	var cmd stripCmd
	ctx := kong.Parse(&cmd,
		kong.Name("jpegdocstrip"),
		kong.Description("Copy a JPEG file without its COM, APPn and JPGn segments."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(cmd.Run())
}
