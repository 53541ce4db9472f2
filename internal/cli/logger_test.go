package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "jpegdoctest", zerolog.WarnLevel)
	logger.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
	logger.Warn().Int("offset", 12).Msg("shown")
	out := buf.String()
	if !strings.Contains(out, "shown") || !strings.Contains(out, "jpegdoctest") {
		t.Errorf("output %q", out)
	}
}
