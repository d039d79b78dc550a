package fetch

import (
	"math/rand"

	browser "github.com/EDDYCJY/fake-useragent"
)

// Static pool of desktop browser User-Agents used when rotation is on.
// The portal serves an interstitial to obvious non-browser clients.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// UserAgentMode selects how the User-Agent header is chosen per request.
type UserAgentMode string

const (
	// UAFixed sends the configured string unchanged.
	UAFixed UserAgentMode = "fixed"
	// UAStaticPool rotates through the built-in pool.
	UAStaticPool UserAgentMode = "pool"
	// UAComputed asks fake-useragent for a statistically weighted UA.
	UAComputed UserAgentMode = "computed"
)

// UserAgentProvider yields a User-Agent string per request.
type UserAgentProvider struct {
	mode  UserAgentMode
	fixed string
}

// NewUserAgentProvider maps the config value to a provider: empty =
// static pool rotation, "random" = computed, anything else = fixed.
func NewUserAgentProvider(configured string) *UserAgentProvider {
	switch configured {
	case "":
		return &UserAgentProvider{mode: UAStaticPool}
	case "random":
		return &UserAgentProvider{mode: UAComputed}
	default:
		return &UserAgentProvider{mode: UAFixed, fixed: configured}
	}
}

// Next returns the User-Agent for the next request.
func (p *UserAgentProvider) Next() string {
	switch p.mode {
	case UAFixed:
		return p.fixed
	case UAComputed:
		if ua := browser.Random(); ua != "" {
			return ua
		}
		// fake-useragent could not produce one, fall back to the pool
		return defaultUserAgents[rand.Intn(len(defaultUserAgents))]
	default:
		return defaultUserAgents[rand.Intn(len(defaultUserAgents))]
	}
}
