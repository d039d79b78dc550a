package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afdb-links/pkg/utils"
)

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)

	// Check defaults applied
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, Duration(1*time.Second), cfg.InitialRetryDelay)
	assert.Equal(t, Duration(30*time.Second), cfg.MaxRetryDelay)

	// Check HTTP client defaults
	assert.Equal(t, Duration(45*time.Second), cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 100, cfg.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 2, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
	assert.Equal(t, Duration(90*time.Second), cfg.HTTPClientSettings.IdleConnTimeout)
	assert.Equal(t, Duration(10*time.Second), cfg.HTTPClientSettings.TLSHandshakeTimeout)
	assert.Equal(t, Duration(15*time.Second), cfg.HTTPClientSettings.DialerTimeout)
	assert.Equal(t, Duration(30*time.Second), cfg.HTTPClientSettings.DialerKeepAlive)

	// Check extract defaults
	assert.Equal(t, DefaultBaseURL, cfg.Extract.BaseURL)
	assert.Equal(t, DefaultURLTemplates, cfg.Extract.URLTemplates)
	assert.Equal(t, "Identifier", cfg.Extract.IDColumn)
	assert.Equal(t, Duration(2*time.Second), cfg.Extract.Delay)
	assert.Equal(t, Duration(30*time.Second), cfg.Extract.Timeout)
	assert.Equal(t, "./extractor_state", cfg.Extract.StateDir)

	// Check harvest defaults
	assert.Equal(t, "Agriculture & Agro-industries", cfg.Harvest.Sector)
	assert.Equal(t, "outputs", cfg.Harvest.OutDir)
	assert.Equal(t, 25, cfg.Harvest.MaxPages)
	assert.Equal(t, Duration(1*time.Second), cfg.Harvest.RateLimit)
	assert.Equal(t, DefaultSeeds, cfg.Harvest.Seeds)
}

func TestHarvestConfig_Validate_DefaultSeeds(t *testing.T) {
	cfg := HarvestConfig{}
	_, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, DefaultSeeds, cfg.Seeds)

	// Explicit seeds are left alone.
	cfg = HarvestConfig{Seeds: []string{"https://example.org/docs"}}
	_, err = cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.org/docs"}, cfg.Seeds)
}

func TestExtractConfig_Validate_BaseURLNormalization(t *testing.T) {
	cfg := ExtractConfig{BaseURL: "https://mapafrica.afdb.org/"}
	_, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, "https://mapafrica.afdb.org", cfg.BaseURL)
}

func TestExtractConfig_Validate_BadBaseURL(t *testing.T) {
	cfg := ExtractConfig{BaseURL: "mapafrica.afdb.org"}
	_, err := cfg.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConfigValidation)
}

func TestExtractConfig_Validate_TemplateWithoutPlaceholder(t *testing.T) {
	cfg := ExtractConfig{URLTemplates: []string{"/en/projects/fixed"}}
	_, err := cfg.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConfigValidation)
	assert.Contains(t, err.Error(), "{id}")
}

func TestExtractConfig_Validate_NegativeDelay(t *testing.T) {
	cfg := ExtractConfig{Delay: Duration(-5 * time.Second)}
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "delay cannot be negative"))
	// Negative delay resets to zero, which then takes the default
	assert.Equal(t, Duration(2*time.Second), cfg.Delay)
}

func TestHarvestConfig_Validate_BadSeed(t *testing.T) {
	cfg := HarvestConfig{Seeds: []string{"www.afdb.org/en/documents"}}
	_, err := cfg.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConfigValidation)
}

func TestAppConfig_Validate_RetryDelayOrdering(t *testing.T) {
	cfg := AppConfig{
		MaxRetries:        3,
		InitialRetryDelay: Duration(60 * time.Second),
		MaxRetryDelay:     Duration(10 * time.Second),
	}
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "max_retry_delay"))
	assert.Equal(t, Duration(10*time.Second), cfg.InitialRetryDelay)
}

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
