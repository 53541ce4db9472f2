package main

// Check a JPEG file: the fields of each segment against the profile of
// its frame, and the order of the segments against a grammar.

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	jdoc "github.com/garyhouston/jpegdoc"
	"github.com/garyhouston/jpegdoc/internal/cli"
)

type checkCmd struct {
	cli.Flags `embed:""`
	Validator string `short:"V" help:"Grammar to check against: nonhierarchical, hierarchical, abbreviated or jfif."`
	File      string `arg:"" type:"existingfile" help:"JPEG file to check (may be .xz compressed)."`
}

func (c *checkCmd) Run() error {
	cfg, err := c.Load()
	if err != nil {
		return err
	}
	if c.Validator != "" {
		cfg.Validator = c.Validator
	}
	v, err := jdoc.ValidatorByName(cfg.Validator)
	if err != nil {
		return err
	}
	logger := cli.NewLogger(os.Stderr, "jpegdoccheck", cfg.LogLevel)
	in, err := cli.Open(c.File)
	if err != nil {
		return err
	}
	defer in.Close()
	doc, err := jdoc.Read(in, cfg.Options(&logger))
	if err != nil {
		return err
	}
	var problems []jdoc.Problem
	if cfg.Mode.Profile == jdoc.ProfileUnset {
		if err := doc.DetectProfile(); err != nil {
			logger.Debug().Err(err).Msg("profile not applied")
		}
	}
	logger.Debug().Stringer("mode", doc.Mode()).Msg("checking")
	problems = append(problems, doc.Validate()...)
	images := jdoc.SplitImages(doc.Items())
	for i, image := range images {
		for _, p := range v.Validate(image) {
			if len(images) > 1 {
				p = jdoc.Problem{Element: fmt.Sprintf("image %d", i+1), Message: p.String()}
			}
			problems = append(problems, p)
		}
	}
	for _, p := range problems {
		fmt.Println(p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %d problems", c.File, len(problems))
	}
	fmt.Printf("%s: ok (%s)\n", c.File, doc.Mode())
	return nil
}

func main() {
	var cmd checkCmd
	ctx := kong.Parse(&cmd,
		kong.Name("jpegdoccheck"),
		kong.Description("Validate the segments and structure of a JPEG file."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(cmd.Run())
}
