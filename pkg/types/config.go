// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for commands that fetch over the
// network.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DataConfig locates the dataset the explorer reads.
type DataConfig struct {
	HTTPConfig `yaml:",inline"`

	// Dir is a local dataset directory (default "data").
	Dir string `json:"dir" yaml:"dir"`

	// URL, when set, is a base URL serving the dataset files and takes
	// precedence over Dir.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// SampleTicker is the entity whose numeric properties become the
	// selectable axes (default "AAPL").
	SampleTicker string `json:"sample_ticker" yaml:"sample_ticker"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	// Path is the SQLite file (default "data/snapshots.db").
	Path string `json:"path" yaml:"path"`

	// Keep is how many snapshots Prune retains (default 10).
	Keep int `json:"keep" yaml:"keep"`
}

// IngestConfig holds settings for building a dataset from quotes.
type IngestConfig struct {
	// TickersFile is the CSV ticker list (default "tickers.csv").
	TickersFile string `json:"tickers_file" yaml:"tickers_file"`

	// Delay is the pause before each quote request (default 500ms).
	Delay time.Duration `json:"delay" yaml:"delay"`

	// RateLimitWait is the pause after a rate-limit error (default 60s).
	RateLimitWait time.Duration `json:"rate_limit_wait" yaml:"rate_limit_wait"`

	// MaxAge skips ingestion when the dataset is younger (default 4h).
	MaxAge time.Duration `json:"max_age" yaml:"max_age"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// RenderConfig sets the chart canvas.
type RenderConfig struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ViewsConfig locates the saved views file.
type ViewsConfig struct {
	// File is the YAML file of named views (default "views.yaml").
	File string `json:"file" yaml:"file"`
}

// Config is the full application configuration.
type Config struct {
	Data   DataConfig   `json:"data" yaml:"data"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Ingest IngestConfig `json:"ingest" yaml:"ingest"`
	Server ServerConfig `json:"server" yaml:"server"`
	Render RenderConfig `json:"render" yaml:"render"`
	Views  ViewsConfig  `json:"views" yaml:"views"`
}
