package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/weavelog/internal/codec"
	"github.com/roach88/weavelog/internal/ir"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ir.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, codec.Lenient, cfg.Mode())
	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "weavelog.yaml", `
max_depth: 16
strict: true
custom_types: [Image, Audio]
log_level: debug
database: logs.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.MaxDepth)
	assert.Equal(t, 0, cfg.Workers, "omitted keys keep defaults")
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"Image", "Audio"}, cfg.CustomTypes)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "logs.db", cfg.Database)
	assert.Equal(t, codec.Strict, cfg.Mode())
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "weavelog.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadCUE(t *testing.T) {
	path := writeFile(t, "weavelog.cue", `
max_depth: 8
workers: 4
custom_types: ["Image"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.Strict)
	assert.Equal(t, "info", cfg.LogLevel, "schema default")
	assert.Equal(t, []string{"Image"}, cfg.CustomTypes)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errMsg  string
	}{
		{"yaml unknown key", "c.yaml", "max_depht: 3\n", "parse config YAML"},
		{"yaml depth zero", "c.yaml", "max_depth: 0\n", "invalid config"},
		{"yaml bad level", "c.yaml", "log_level: loud\n", "invalid config"},
		{"yaml reserved custom name", "c.yaml", "custom_types: [list]\n", "invalid config"},
		{"yaml negative workers", "c.yaml", "workers: -1\n", "invalid config"},
		{"cue unknown field", "c.cue", "colour: \"red\"\n", "invalid config"},
		{"cue wrong type", "c.cue", "strict: \"yes\"\n", "invalid config"},
		{"cue syntax", "c.cue", "max_depth: {\n", "compile config CUE"},
		{"bad extension", "c.toml", "max_depth = 3\n", "unsupported extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", Find(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "weavelog.cue"), []byte("strict: true\n"), 0o644))
	assert.Equal(t, filepath.Join(dir, "weavelog.cue"), Find(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "weavelog.yaml"), []byte("strict: true\n"), 0o644))
	assert.Equal(t, filepath.Join(dir, "weavelog.yaml"), Find(dir), "yaml wins over cue")
}

func TestCodecFromConfig(t *testing.T) {
	cfg := Default()
	cfg.CustomTypes = []string{"Image"}
	cfg.MaxDepth = 5
	cfg.Strict = true

	c, err := cfg.Codec()
	require.NoError(t, err)
	assert.Equal(t, codec.Strict, c.Mode())
	assert.Equal(t, 5, c.Context().Depth())
	assert.True(t, c.Context().Registry.Has("Image"))
}

func TestLevelFallsBackToInfo(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"
	assert.Equal(t, slog.LevelWarn, cfg.Level())

	cfg.LogLevel = "nonsense"
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}
