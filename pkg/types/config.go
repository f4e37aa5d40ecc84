// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "trl-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreDriver selects the record and history backend.
type StoreDriver string

const (
	DriverSQLite StoreDriver = "sqlite"
	DriverMongo  StoreDriver = "mongo"
)

// StoreConfig holds settings for the record and history stores.
type StoreConfig struct {
	// Driver selects the backend: sqlite or mongo.
	Driver StoreDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file (default "data/trl.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// URI is the MongoDB connection string.
	URI string `json:"uri,omitempty" yaml:"uri,omitempty" mapstructure:"uri"`

	// Database is the MongoDB database name (default "trl").
	Database string `json:"database" yaml:"database" mapstructure:"database"`

	// ConnectTimeout bounds the initial MongoDB ping (default 10s).
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

// ScorerTransport selects how the external scorer is reached.
type ScorerTransport string

const (
	TransportProcess   ScorerTransport = "process"
	TransportHTTP      ScorerTransport = "http"
	TransportContainer ScorerTransport = "container"
)

// ScorerConfig holds settings for the external scorer gateway.
type ScorerConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Transport selects process, http or container.
	Transport ScorerTransport `json:"transport" yaml:"transport" mapstructure:"transport"`

	// Command is the scorer executable for the process transport.
	Command string `json:"command" yaml:"command" mapstructure:"command"`

	// Args are passed to Command, or to the image entrypoint for the
	// container transport.
	Args []string `json:"args" yaml:"args" mapstructure:"args"`

	// Image is the scorer image for the container transport.
	Image string `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`

	// Runtime forces "docker" or "podman". Empty detects one, docker first.
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty" mapstructure:"runtime"`

	// Endpoint is the model-serving URL for the http transport.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// Token is sent as a bearer token on http requests.
	Token string `json:"-" yaml:"-" mapstructure:"token"`

	// MaxRetries is the number of 429 retries for the http transport (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// FeaturesConfig holds tunables for feature extraction.
type FeaturesConfig struct {
	// WindowYears is the trailing window length (default 5).
	WindowYears float64 `json:"window_years" yaml:"window_years" mapstructure:"window_years"`

	// KeywordNormalizer divides the raw keyword score (default 50).
	KeywordNormalizer float64 `json:"keyword_normalizer" yaml:"keyword_normalizer" mapstructure:"keyword_normalizer"`
}

// ServerConfig holds HTTP API server parameters.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`
}

// HarvestConfig holds settings for pulling source records from public APIs.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the per-backend result cap (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// PatentsViewAPIKey is sent as X-Api-Key to PatentsView.
	PatentsViewAPIKey string `json:"-" yaml:"-" mapstructure:"patentsview_api_key"`

	// OpenAlexEmail is sent as mailto for the OpenAlex polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`
}

// Config groups every component's configuration.
type Config struct {
	LogLevel string         `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	Scorer   ScorerConfig   `json:"scorer" yaml:"scorer" mapstructure:"scorer"`
	Features FeaturesConfig `json:"features" yaml:"features" mapstructure:"features"`
	Server   ServerConfig   `json:"server" yaml:"server" mapstructure:"server"`
	Harvest  HarvestConfig  `json:"harvest" yaml:"harvest" mapstructure:"harvest"`
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/trl.db"
	}
	if c.Store.Database == "" {
		c.Store.Database = "trl"
	}
	if c.Store.ConnectTimeout <= 0 {
		c.Store.ConnectTimeout = 10 * time.Second
	}

	if c.Scorer.Transport == "" {
		c.Scorer.Transport = TransportProcess
	}
	if c.Scorer.Transport == TransportProcess && c.Scorer.Command == "" && len(c.Scorer.Args) == 0 {
		c.Scorer.Command = "python3"
		c.Scorer.Args = []string{"trl_model.py"}
	}
	if c.Scorer.Timeout <= 0 {
		c.Scorer.Timeout = 30 * time.Second
	}
	if c.Scorer.UserAgent == "" {
		c.Scorer.UserAgent = "trl-engine/0.1"
	}
	if c.Scorer.MaxRetries <= 0 {
		c.Scorer.MaxRetries = 3
	}

	if c.Features.WindowYears <= 0 {
		c.Features.WindowYears = 5
	}
	if c.Features.KeywordNormalizer <= 0 {
		c.Features.KeywordNormalizer = 50
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":5001"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = time.Minute
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 2 * time.Minute
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Harvest.Timeout <= 0 {
		c.Harvest.Timeout = 60 * time.Second
	}
	if c.Harvest.UserAgent == "" {
		c.Harvest.UserAgent = "trl-engine/0.1"
	}
	if c.Harvest.MaxResults <= 0 {
		c.Harvest.MaxResults = 100
	}
}
