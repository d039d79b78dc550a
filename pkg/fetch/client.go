package fetch

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/config"
)

// ClientOptions bundles the settings NewClient needs beyond transport tuning.
type ClientOptions struct {
	Timeout           time.Duration // Per-request timeout (overrides HTTPClientSettings.Timeout when > 0)
	MaxRetries        int
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
	UserAgents        *UserAgentProvider
}

// NewClient creates a resty client configured for the AfDB portals:
// cookie jar, Cloudflare-bypass transport, browser-like headers,
// rotating User-Agent, and retries with backoff on 429/5xx and
// transient network errors.
func NewClient(cfg config.HTTPClientConfig, opts ClientOptions, log *logrus.Logger) *resty.Client {
	log.Debug("Initializing HTTP client...")

	dialer := &net.Dialer{
		Timeout:   cfg.DialerTimeout.Std(),
		KeepAlive: cfg.DialerKeepAlive.Std(),
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout.Std(),
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout.Std(),
	}

	client := resty.New()
	client.SetTransport(transport)
	// Cloudflare bypass must wrap the transport after resty installs it
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	timeout := cfg.Timeout.Std()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	client.SetTimeout(timeout)

	if jar, err := cookiejar.New(nil); err == nil {
		client.SetCookieJar(jar)
	} else {
		log.Warnf("Could not create cookie jar, continuing without: %v", err)
	}

	client.SetHeaders(map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Upgrade-Insecure-Requests": "1",
	})

	uaProvider := opts.UserAgents
	if uaProvider == nil {
		uaProvider = NewUserAgentProvider("")
	}
	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		req.SetHeader("User-Agent", uaProvider.Next())
		return nil
	})

	client.SetRetryCount(opts.MaxRetries)
	if opts.InitialRetryDelay > 0 {
		client.SetRetryWaitTime(opts.InitialRetryDelay)
	}
	if opts.MaxRetryDelay > 0 {
		client.SetRetryMaxWaitTime(opts.MaxRetryDelay)
	}
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			// Network-level failure; resty already skips context cancellation
			return true
		}
		return r.StatusCode() >= 500 || r.StatusCode() == http.StatusTooManyRequests
	})

	client.SetLogger(log)
	log.Debug("HTTP client initialized.")
	return client
}
