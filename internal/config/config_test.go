package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Decode.Workers)
	assert.False(t, cfg.Decode.Force)
}

func TestParse(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		cfg, err := Parse([]byte(`
log_level = "debug"

[decode]
force = true
workers = 8
display_chunks = true

[pack]
level = 19
`))
		require.NoError(t, err)
		assert.Equal(t, Config{
			LogLevel: "debug",
			Decode:   Decode{Force: true, Workers: 8, DisplayChunks: true},
			Pack:     Pack{Level: 19},
		}, cfg)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		cfg, err := Parse([]byte("[decode]\nforce = true\n"))
		require.NoError(t, err)
		want := Default()
		want.Decode.Force = true
		assert.Equal(t, want, cfg)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	tests := []struct {
		name string
		text string
	}{
		{"wrong type", "[decode]\nworkers = \"many\"\n"},
		{"bad level", "log_level = \"loud\"\n"},
		{"no workers", "[decode]\nworkers = 0\n"},
		{"syntax", "[decode\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.text))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[decode]\nworkers = 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Decode.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
