// Package config loads the application settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lvillar/pdfmerge"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port        int           `mapstructure:"port"`
	OutputName  string        `mapstructure:"output_name"`
	Compression string        `mapstructure:"compression"`
	Optimize    bool          `mapstructure:"optimize"`
	SuccessHold time.Duration `mapstructure:"success_hold"`
	LogLevel    string        `mapstructure:"log_level"`
	Preview     struct {
		DPI     float64 `mapstructure:"dpi"`
		Width   uint    `mapstructure:"width"`
		Workers int     `mapstructure:"workers"`
	} `mapstructure:"preview"`
	Upload struct {
		MaxBytes int64 `mapstructure:"max_bytes"`
	} `mapstructure:"upload"`
	Session struct {
		MaxAge        time.Duration `mapstructure:"max_age"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"session"`
}

// Load reads config.yml from the given directories (the current directory
// when none are given) and applies PDFMERGE_* environment overrides, e.g.
// PDFMERGE_PREVIEW_DPI overrides preview.dpi. A missing file is not an
// error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("PDFMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("output_name", pdfmerge.DefaultOutputName)
	v.SetDefault("compression", string(pdfmerge.CompressionMedium))
	v.SetDefault("optimize", true)
	v.SetDefault("success_hold", 2*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("preview.dpi", 36.0)
	v.SetDefault("preview.width", 200)
	v.SetDefault("preview.workers", 4)
	v.SetDefault("upload.max_bytes", 64<<20)
	v.SetDefault("session.max_age", 30*time.Minute)
	v.SetDefault("session.sweep_interval", 5*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if _, err := pdfmerge.ParseCompressionLevel(cfg.Compression); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Merge returns the merge settings as a pdfmerge.Config.
func (c *Config) Merge() pdfmerge.Config {
	level, _ := pdfmerge.ParseCompressionLevel(c.Compression)
	return pdfmerge.NewConfig(
		pdfmerge.WithOutputName(c.OutputName),
		pdfmerge.WithCompression(level),
		pdfmerge.WithOptimize(c.Optimize),
		pdfmerge.WithSuccessHold(c.SuccessHold),
		pdfmerge.WithPreviewDPI(c.Preview.DPI),
		pdfmerge.WithThumbnailWidth(c.Preview.Width),
		pdfmerge.WithPreviewWorkers(c.Preview.Workers),
	)
}

// Level returns the configured log level. Unknown names yield info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
