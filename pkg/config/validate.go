package config

import (
	"fmt"
	"strings"
	"time"

	"afdb-links/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.InitialRetryDelay == 0 {
		c.MaxRetries = 3
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = Duration(1 * time.Second)
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = Duration(30 * time.Second)
		}
	}
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay.Std(), c.MaxRetryDelay.Std()))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	c.validateHTTPClientSettings()

	extractWarnings, err := c.Extract.Validate()
	warnings = append(warnings, extractWarnings...)
	if err != nil {
		return warnings, err
	}

	harvestWarnings, err := c.Harvest.Validate()
	warnings = append(warnings, harvestWarnings...)
	return warnings, err
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = Duration(45 * time.Second)
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = Duration(90 * time.Second)
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = Duration(10 * time.Second)
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = Duration(15 * time.Second)
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = Duration(30 * time.Second)
	}
}

// Validate checks ExtractConfig fields and applies defaults.
// Modifies receiver in place.
func (c *ExtractConfig) Validate() (warnings []string, err error) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return nil, fmt.Errorf("%w: base_url %q must start with http:// or https://", utils.ErrConfigValidation, c.BaseURL)
	}

	if len(c.URLTemplates) == 0 {
		c.URLTemplates = append([]string(nil), DefaultURLTemplates...)
	}
	for _, tmpl := range c.URLTemplates {
		if !strings.Contains(tmpl, "{id}") {
			return nil, fmt.Errorf("%w: url template %q has no {id} placeholder", utils.ErrConfigValidation, tmpl)
		}
	}

	if c.IDColumn == "" {
		c.IDColumn = "Identifier"
	}

	if c.Delay < 0 {
		warnings = append(warnings, "extract delay cannot be negative, setting to 0")
		c.Delay = 0
	}
	if c.Delay == 0 {
		c.Delay = Duration(2 * time.Second)
	}
	if c.Timeout <= 0 {
		c.Timeout = Duration(30 * time.Second)
	}
	if c.StateDir == "" {
		c.StateDir = "./extractor_state"
	}
	return warnings, nil
}

// Validate checks HarvestConfig fields and applies defaults.
// Modifies receiver in place.
func (c *HarvestConfig) Validate() (warnings []string, err error) {
	for _, seed := range c.Seeds {
		if !strings.HasPrefix(seed, "http://") && !strings.HasPrefix(seed, "https://") {
			return nil, fmt.Errorf("%w: seed %q must start with http:// or https://", utils.ErrConfigValidation, seed)
		}
	}
	if len(c.Seeds) == 0 {
		c.Seeds = append([]string(nil), DefaultSeeds...)
	}
	if c.Sector == "" {
		c.Sector = "Agriculture & Agro-industries"
	}
	if c.OutDir == "" {
		c.OutDir = "outputs"
	}
	if c.MaxPages <= 0 {
		if c.MaxPages < 0 {
			warnings = append(warnings, "harvest max_pages cannot be negative, defaulting to 25")
		}
		c.MaxPages = 25
	}
	if c.RateLimit <= 0 {
		c.RateLimit = Duration(1 * time.Second)
	}
	return warnings, nil
}
