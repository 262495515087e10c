package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvillar/pdfmerge"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "merged.pdf", cfg.OutputName)
	assert.Equal(t, "medium", cfg.Compression)
	assert.True(t, cfg.Optimize)
	assert.Equal(t, 2*time.Second, cfg.SuccessHold)
	assert.Equal(t, 36.0, cfg.Preview.DPI)
	assert.Equal(t, uint(200), cfg.Preview.Width)
	assert.Equal(t, 4, cfg.Preview.Workers)
	assert.Equal(t, int64(64<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 30*time.Minute, cfg.Session.MaxAge)
	assert.Equal(t, 5*time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
port: 9999
output_name: combined.pdf
compression: high
success_hold: 500ms
log_level: debug
preview:
  dpi: 72
session:
  max_age: 1h
unknown_setting: "should be ignored"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.SuccessHold)
	assert.Equal(t, 72.0, cfg.Preview.DPI)
	assert.Equal(t, 4, cfg.Preview.Workers, "unset keys keep defaults")
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, slog.LevelDebug, cfg.Level())

	m := cfg.Merge()
	assert.Equal(t, "combined.pdf", m.OutputName)
	assert.Equal(t, pdfmerge.CompressionHigh, m.Compression)
	assert.Equal(t, 72.0, m.PreviewDPI)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PDFMERGE_PORT", "7070")
	t.Setenv("PDFMERGE_PREVIEW_WORKERS", "2")
	t.Setenv("PDFMERGE_OPTIMIZE", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, 2, cfg.Preview.Workers)
	assert.False(t, cfg.Optimize)
}

func TestLoadRejectsUnknownCompression(t *testing.T) {
	t.Setenv("PDFMERGE_COMPRESSION", "extreme")
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("port: [oops"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)
}
