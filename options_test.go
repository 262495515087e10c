package pdfmerge

import (
	"errors"
	"testing"
	"time"
)

func TestCompressionQuality(t *testing.T) {
	tests := []struct {
		level CompressionLevel
		want  float64
	}{
		{CompressionLow, 0.9},
		{CompressionMedium, 0.7},
		{CompressionHigh, 0.5},
		{CompressionLevel("bogus"), 0.7},
	}
	for _, tt := range tests {
		if got := tt.level.Quality(); got != tt.want {
			t.Errorf("%s: Quality() = %v, want %v", tt.level, got, tt.want)
		}
	}

	// Quality factors must descend as compression rises.
	for i := 1; i < len(CompressionLevels); i++ {
		prev, cur := CompressionLevels[i-1], CompressionLevels[i]
		if cur.Quality() >= prev.Quality() {
			t.Errorf("%s quality %v not below %s quality %v", cur, cur.Quality(), prev, prev.Quality())
		}
		if cur.MaxImageDimension() >= prev.MaxImageDimension() {
			t.Errorf("%s max dimension not below %s", cur, prev)
		}
	}
}

func TestParseCompressionLevel(t *testing.T) {
	for in, want := range map[string]CompressionLevel{
		"":         CompressionMedium,
		"low":      CompressionLow,
		"HIGH":     CompressionHigh,
		" Medium ": CompressionMedium,
	} {
		got, err := ParseCompressionLevel(in)
		if err != nil {
			t.Errorf("ParseCompressionLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseCompressionLevel(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseCompressionLevel("ultra"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestResolveCompression(t *testing.T) {
	cfg := NewConfig(WithCompression(CompressionHigh))
	for in, want := range map[string]CompressionLevel{
		"":       CompressionHigh,
		"  ":     CompressionHigh,
		"low":    CompressionLow,
		"MEDIUM": CompressionMedium,
	} {
		got, err := cfg.ResolveCompression(in)
		if err != nil {
			t.Errorf("ResolveCompression(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ResolveCompression(%q) = %q, want %q", in, got, want)
		}
	}

	if got, _ := (Config{}).ResolveCompression(""); got != CompressionMedium {
		t.Errorf("zero Config resolved %q, want medium", got)
	}
	if _, err := cfg.ResolveCompression("ultra"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.OutputName != DefaultOutputName {
		t.Errorf("OutputName = %q", cfg.OutputName)
	}
	if cfg.Compression != CompressionMedium {
		t.Errorf("Compression = %q", cfg.Compression)
	}
	if !cfg.Optimize {
		t.Error("Optimize should default to true")
	}
	if cfg.SuccessHold != 2*time.Second {
		t.Errorf("SuccessHold = %v", cfg.SuccessHold)
	}
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithOutputName("out.pdf"),
		WithCompression(CompressionHigh),
		WithOptimize(false),
		WithSuccessHold(time.Millisecond),
		WithPreviewWorkers(0),
		WithThumbnailWidth(120),
		WithPreviewDPI(72),
	)
	if cfg.OutputName != "out.pdf" || cfg.Compression != CompressionHigh || cfg.Optimize {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.PreviewWorkers != 1 {
		t.Errorf("PreviewWorkers = %d, want clamp to 1", cfg.PreviewWorkers)
	}
	if cfg.ThumbnailWidth != 120 || cfg.PreviewDPI != 72 {
		t.Errorf("preview options not applied: %+v", cfg)
	}

	cfg = NewConfig(WithOutputName(""), WithCompression("nope"))
	if cfg.OutputName != DefaultOutputName || cfg.Compression != CompressionMedium {
		t.Errorf("invalid options should fall back to defaults: %+v", cfg)
	}
}

func TestMergeError(t *testing.T) {
	err := NewMergeError("load", "a.pdf", ErrCorrupted)
	if !errors.Is(err, ErrCorrupted) {
		t.Error("MergeError should unwrap to its cause")
	}
	if got := err.Error(); got != "pdfmerge.load a.pdf: pdfmerge: document is corrupted" {
		t.Errorf("Error() = %q", got)
	}
	if got := NewMergeError("save", "", nil).Error(); got != "pdfmerge.save: unknown error" {
		t.Errorf("Error() = %q", got)
	}
}
