// Package config loads weavelog settings from YAML or CUE files.
//
// Both formats are checked against the embedded CUE schema (#Config), which
// also supplies defaults for omitted fields.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/weavelog/internal/codec"
	"github.com/roach88/weavelog/internal/ir"
	"github.com/roach88/weavelog/internal/typing"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFiles are the names Find looks for, in order.
var DefaultFiles = []string{"weavelog.yaml", "weavelog.yml", "weavelog.cue"}

// Config holds the settings shared by every command.
type Config struct {
	// MaxDepth bounds nesting of values and type trees.
	MaxDepth int `yaml:"max_depth" json:"max_depth"`

	// Workers is the number of goroutines used by history decoding.
	// Zero selects runtime.GOMAXPROCS(0).
	Workers int `yaml:"workers" json:"workers"`

	// Strict makes encode and decode surface shape mismatches.
	Strict bool `yaml:"strict" json:"strict"`

	// CustomTypes are the custom type names accepted in type trees.
	CustomTypes []string `yaml:"custom_types" json:"custom_types"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Database is the default SQLite path for log and history.
	Database string `yaml:"database" json:"database"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MaxDepth:    ir.DefaultMaxDepth,
		Workers:     0,
		Strict:      false,
		CustomTypes: []string{},
		LogLevel:    "info",
		Database:    "",
	}
}

// Load reads and validates a config file. The format is chosen by extension:
// .yaml and .yml are YAML, .cue is CUE. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("config %s: unsupported extension (want .yaml, .yml or .cue)", path)
	}
}

// Find returns the first of DefaultFiles present in dir, or "" if none is.
func Find(dir string) string {
	for _, name := range DefaultFiles {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ParseYAML decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseCUE evaluates CUE source, fills defaults from the schema and decodes
// the result. filename is used in error positions.
func ParseCUE(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile config CUE: %w", err)
	}

	unified, err := unifySchema(ctx, v)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.CustomTypes == nil {
		cfg.CustomTypes = []string{}
	}
	return &cfg, nil
}

// Validate checks c against the schema.
func (c *Config) Validate() error {
	if c.CustomTypes == nil {
		c.CustomTypes = []string{}
	}
	ctx := cuecontext.New()
	_, err := unifySchema(ctx, ctx.Encode(c))
	return err
}

func unifySchema(ctx *cue.Context, v cue.Value) (cue.Value, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %w", err)
	}
	return unified, nil
}

// Registry builds the custom type registry.
func (c *Config) Registry() (*ir.Registry, error) {
	return ir.NewRegistry(c.CustomTypes...)
}

// TypingContext builds the typing context for a session.
func (c *Config) TypingContext() (typing.Context, error) {
	reg, err := c.Registry()
	if err != nil {
		return typing.Context{}, err
	}
	return typing.NewContext(reg, c.MaxDepth), nil
}

// Mode returns the codec mode selected by Strict.
func (c *Config) Mode() codec.Mode {
	if c.Strict {
		return codec.Strict
	}
	return codec.Lenient
}

// Codec builds a codec for the configured context and mode.
func (c *Config) Codec() (*codec.Codec, error) {
	ctx, err := c.TypingContext()
	if err != nil {
		return nil, err
	}
	return codec.New(ctx, c.Mode()), nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
