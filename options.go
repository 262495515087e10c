// Package pdfmerge holds the configuration and error types shared by the
// selection, intake, preview, assembly and session packages.
//
// The actual work happens in the subpackages:
//
//   - source: accepts uploads, converts HEIC to JPEG and counts pages
//   - selection: keeps file order and per-file page selections
//   - preview: renders first-page thumbnails
//   - pageops: assembles the output document
//   - session: ties the above together behind one workspace
package pdfmerge

import (
	"fmt"
	"strings"
	"time"
)

// DefaultOutputName is the filename offered for every merged document.
const DefaultOutputName = "merged.pdf"

// ContentType is the MIME type of the merged document.
const ContentType = "application/pdf"

// CompressionLevel selects one of the fixed quality presets applied when
// the merged document is serialized.
type CompressionLevel string

// Compression presets. Higher compression means lower image quality.
const (
	CompressionLow    CompressionLevel = "low"
	CompressionMedium CompressionLevel = "medium"
	CompressionHigh   CompressionLevel = "high"
)

// CompressionLevels lists the presets in ascending order of compression.
var CompressionLevels = []CompressionLevel{CompressionLow, CompressionMedium, CompressionHigh}

// Quality returns the quality factor of the preset in the range (0, 1].
// Unknown levels fall back to the medium preset.
func (l CompressionLevel) Quality() float64 {
	switch l {
	case CompressionLow:
		return 0.9
	case CompressionHigh:
		return 0.5
	default:
		return 0.7
	}
}

// MaxImageDimension returns the longest edge, in pixels, that embedded
// images are downscaled to under this preset.
func (l CompressionLevel) MaxImageDimension() int {
	switch l {
	case CompressionLow:
		return 3000
	case CompressionHigh:
		return 1200
	default:
		return 2000
	}
}

// Valid reports whether l is one of the known presets.
func (l CompressionLevel) Valid() bool {
	for _, known := range CompressionLevels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseCompressionLevel parses a preset name, case-insensitively.
// An empty string yields the medium preset.
func ParseCompressionLevel(s string) (CompressionLevel, error) {
	if s == "" {
		return CompressionMedium, nil
	}
	l := CompressionLevel(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("pdfmerge: unknown compression level %q", s)
	}
	return l, nil
}

// ResolveCompression parses name like ParseCompressionLevel but falls back
// to the configured default preset when name is empty.
func (c Config) ResolveCompression(name string) (CompressionLevel, error) {
	if strings.TrimSpace(name) == "" {
		if c.Compression.Valid() {
			return c.Compression, nil
		}
		return CompressionMedium, nil
	}
	return ParseCompressionLevel(name)
}

// Config holds the tunables of a merge workspace.
type Config struct {
	OutputName     string           // filename of the merged document
	Compression    CompressionLevel // default preset when a run does not name one
	Optimize       bool             // run the optimizer over the serialized output
	SuccessHold    time.Duration    // how long the success status stays visible
	PreviewDPI     float64          // rasterization resolution for PDF previews
	ThumbnailWidth uint             // maximum thumbnail width in pixels
	PreviewWorkers int              // concurrent preview renders
}

// Option is a functional option for configuring a Config via NewConfig.
type Option func(*Config)

// WithOutputName sets the filename offered for the merged document.
func WithOutputName(name string) Option {
	return func(c *Config) {
		c.OutputName = name
	}
}

// WithCompression sets the default compression preset.
func WithCompression(level CompressionLevel) Option {
	return func(c *Config) {
		c.Compression = level
	}
}

// WithOptimize toggles the optimization pass over the serialized output.
func WithOptimize(optimize bool) Option {
	return func(c *Config) {
		c.Optimize = optimize
	}
}

// WithSuccessHold sets how long the terminal success status is kept before
// progress is cleared.
func WithSuccessHold(d time.Duration) Option {
	return func(c *Config) {
		c.SuccessHold = d
	}
}

// WithPreviewDPI sets the rasterization resolution used for PDF previews.
func WithPreviewDPI(dpi float64) Option {
	return func(c *Config) {
		c.PreviewDPI = dpi
	}
}

// WithThumbnailWidth sets the maximum preview width in pixels.
func WithThumbnailWidth(width uint) Option {
	return func(c *Config) {
		c.ThumbnailWidth = width
	}
}

// WithPreviewWorkers sets how many previews are rendered concurrently.
func WithPreviewWorkers(n int) Option {
	return func(c *Config) {
		c.PreviewWorkers = n
	}
}

// NewConfig creates a Config using functional options.
// If no options are specified, defaults to medium compression, an optimized
// output named merged.pdf and a two second success hold.
//
// Example:
//
//	cfg := pdfmerge.NewConfig(
//	    pdfmerge.WithCompression(pdfmerge.CompressionHigh),
//	    pdfmerge.WithOutputName("combined.pdf"),
//	)
func NewConfig(opts ...Option) Config {
	cfg := Config{
		OutputName:     DefaultOutputName,
		Compression:    CompressionMedium,
		Optimize:       true,
		SuccessHold:    2 * time.Second,
		PreviewDPI:     36,
		ThumbnailWidth: 200,
		PreviewWorkers: 4,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.OutputName == "" {
		cfg.OutputName = DefaultOutputName
	}
	if !cfg.Compression.Valid() {
		cfg.Compression = CompressionMedium
	}
	if cfg.PreviewWorkers < 1 {
		cfg.PreviewWorkers = 1
	}
	return cfg
}
