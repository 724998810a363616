// Package config provides configuration management for the askdata CLI.
package config

import "time"

// Default configuration values.
const (
	DefaultBackendURL = "http://localhost:8001"
	DefaultTimeout    = 5 * time.Minute
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultUIPort     = 8765
	DefaultChartsDir  = "."
)

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int    `koanf:"port"`
	AutoOpen      bool   `koanf:"auto_open"`
	SessionSecret string `koanf:"session_secret"`
}

// QueryConfig holds query submission options.
type QueryConfig struct {
	// DiscardStale drops results that arrive after their dataset was deselected
	DiscardStale bool `koanf:"discard_stale"`
}

// UploadConfig holds upload options.
type UploadConfig struct {
	// WatchDir is a folder whose new .csv/.json files are uploaded automatically
	WatchDir string `koanf:"watch_dir"`
}

// Config holds all CLI configuration options.
type Config struct {
	BackendURL   string        `koanf:"backend_url"`
	Timeout      time.Duration `koanf:"timeout"`
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	ChartsDir    string        `koanf:"charts_dir"`
	UI           UIConfig      `koanf:"ui"`
	Query        QueryConfig   `koanf:"query"`
	Upload       UploadConfig  `koanf:"upload"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		BackendURL:   DefaultBackendURL,
		Timeout:      DefaultTimeout,
		OutputFormat: DefaultOutput,
		ChartsDir:    DefaultChartsDir,
		UI: UIConfig{
			Port:     DefaultUIPort,
			AutoOpen: true,
		},
	}
}

// defaults flattens Default into koanf keys.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"backend_url":         d.BackendURL,
		"timeout":             d.Timeout.String(),
		"verbose":             d.Verbose,
		"output":              d.OutputFormat,
		"charts_dir":          d.ChartsDir,
		"ui.port":             d.UI.Port,
		"ui.auto_open":        d.UI.AutoOpen,
		"ui.session_secret":   d.UI.SessionSecret,
		"query.discard_stale": d.Query.DiscardStale,
		"upload.watch_dir":    d.Upload.WatchDir,
	}
}
