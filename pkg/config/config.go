package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "2m" as well as integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(v)
	case int64:
		*d = Duration(v)
	case float64:
		*d = Duration(int64(v))
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ExtractConfig holds configuration for the project-page extraction workflow
type ExtractConfig struct {
	BaseURL      string   `yaml:"base_url,omitempty"`      // MapAfrica base URL
	URLTemplates []string `yaml:"url_templates,omitempty"` // Candidate URL paths, "{id}" is the identifier placeholder
	IDColumn     string   `yaml:"id_column,omitempty"`     // Input CSV column holding identifiers
	Delay        Duration `yaml:"delay,omitempty"`         // Fixed delay between rows
	Timeout      Duration `yaml:"timeout,omitempty"`       // Per-request timeout
	UserAgent    string   `yaml:"user_agent,omitempty"`    // Fixed UA; empty = rotate
	StateDir     string   `yaml:"state_dir,omitempty"`     // Resume database location
}

// HarvestConfig holds configuration for the document-listing harvester
type HarvestConfig struct {
	Seeds         []string `yaml:"seeds,omitempty"`
	Sector        string   `yaml:"sector,omitempty"`     // Target sector filter
	OutDir        string   `yaml:"out_dir,omitempty"`    // Manifest output directory
	MaxPages      int      `yaml:"max_pages,omitempty"`  // Pagination cap per seed
	RateLimit     Duration `yaml:"rate_limit,omitempty"` // Delay between requests
	UserAgent     string   `yaml:"user_agent,omitempty"`
	RespectRobots *bool    `yaml:"respect_robots,omitempty"` // nil = true
}

// AppConfig holds the global application configuration
type AppConfig struct {
	MaxRetries         int              `yaml:"max_retries,omitempty"`
	InitialRetryDelay  Duration         `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay      Duration         `yaml:"max_retry_delay,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Extract            ExtractConfig    `yaml:"extract,omitempty"`
	Harvest            HarvestConfig    `yaml:"harvest,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout             Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns        int      `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost int      `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout     Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	DialerTimeout       Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive     Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// DefaultBaseURL is the MapAfrica portal the extractor targets.
const DefaultBaseURL = "https://mapafrica.afdb.org"

// DefaultURLTemplates are the candidate project-page paths tried in
// order. The 46002- prefix is the portal's internal collection id.
var DefaultURLTemplates = []string{
	"/en/projects/46002-{id}",
	"/en/projects/{id}",
	"/projects/46002-{id}",
	"/projects/{id}",
}

// DefaultSeeds are the AfDB document listings harvested when no seeds
// are given.
var DefaultSeeds = []string{
	"https://www.afdb.org/en/documents",
	"https://www.afdb.org/en/documents/category/projects-operations",
}

// GetEffectiveRespectRobots resolves the tri-state robots setting.
func GetEffectiveRespectRobots(cfg HarvestConfig) bool {
	if cfg.RespectRobots != nil {
		return *cfg.RespectRobots
	}
	return true
}
