// Package cli holds the configuration, logging and input handling shared
// by the jpegdoc commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/garyhouston/jpegdoc"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "JPEGDOC_LOG_LEVEL"

// Config is the command configuration after defaults, the config file and
// the environment have been applied.
type Config struct {
	Mode           jpegdoc.Mode
	Validator      string
	DeferThreshold int
	LogLevel       zerolog.Level
}

// config.toml key mapping.
type fileConfig struct {
	Strict         bool   `toml:"strict"`
	Profile        string `toml:"profile"`
	Hierarchical   bool   `toml:"hierarchical"`
	Validator      string `toml:"validator"`
	DeferThreshold int    `toml:"defer_threshold"`
	LogLevel       string `toml:"log_level"`
}

// DefaultConfig reads real-world files leniently.
func DefaultConfig() Config {
	return Config{
		Mode:           jpegdoc.Mode{Strictness: jpegdoc.Lax},
		Validator:      "nonhierarchical",
		DeferThreshold: 4096,
		LogLevel:       zerolog.InfoLevel,
	}
}

// LoadConfig overlays the keys set in the TOML file at path on
// DefaultConfig, then applies the environment. An empty path skips the
// file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if meta.IsDefined("strict") {
			cfg.Mode.Strictness = jpegdoc.Lax
			if raw.Strict {
				cfg.Mode.Strictness = jpegdoc.Strict
			}
		}
		if meta.IsDefined("profile") {
			p, err := jpegdoc.ParseProfile(raw.Profile)
			if err != nil {
				return Config{}, fmt.Errorf("load config: %w", err)
			}
			cfg.Mode.Profile = p
		}
		if meta.IsDefined("hierarchical") {
			cfg.Mode.Hierarchical = raw.Hierarchical
		}
		if meta.IsDefined("validator") {
			cfg.Validator = strings.TrimSpace(raw.Validator)
		}
		if meta.IsDefined("defer_threshold") {
			if raw.DeferThreshold < 0 {
				return Config{}, fmt.Errorf("load config: negative defer_threshold %d", raw.DeferThreshold)
			}
			cfg.DeferThreshold = raw.DeferThreshold
		}
		if meta.IsDefined("log_level") {
			lvl, ok := ParseLevel(raw.LogLevel)
			if !ok {
				return Config{}, fmt.Errorf("load config: unknown log_level %q", raw.LogLevel)
			}
			cfg.LogLevel = lvl
		}
	}
	if _, err := jpegdoc.ValidatorByName(cfg.Validator); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// ParseLevel maps a level name to a zerolog level. The second result is
// false for an empty or unknown name.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// Options returns the document options for cfg.
func (cfg Config) Options(logger *zerolog.Logger) *jpegdoc.Options {
	return &jpegdoc.Options{Mode: cfg.Mode, DeferThreshold: cfg.DeferThreshold, Logger: logger}
}

// Flags are the options every command accepts. Set flags override the
// config file.
type Flags struct {
	Config   string `name:"config" short:"c" type:"path" help:"TOML configuration file."`
	Strict   bool   `help:"Reject files that break the rules of their profile."`
	Profile  string `help:"Encoding profile, e.g. baseline or progressive-huffman."`
	LogLevel string `name:"log-level" help:"Log level (trace, debug, info, warn, error, off)."`
}

// Load reads the configuration and applies the flags to it.
func (f *Flags) Load() (Config, error) {
	cfg, err := LoadConfig(f.Config)
	if err != nil {
		return Config{}, err
	}
	if f.Strict {
		cfg.Mode.Strictness = jpegdoc.Strict
	}
	if f.Profile != "" {
		p, err := jpegdoc.ParseProfile(f.Profile)
		if err != nil {
			return Config{}, err
		}
		cfg.Mode.Profile = p
	}
	if f.LogLevel != "" {
		lvl, ok := ParseLevel(f.LogLevel)
		if !ok {
			return Config{}, fmt.Errorf("unknown log level %q", f.LogLevel)
		}
		cfg.LogLevel = lvl
	}
	return cfg, nil
}
