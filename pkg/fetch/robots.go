package fetch

import (
	"context"
	"net/url"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsGate fetches, parses, and caches robots.txt per host and
// answers allow/deny for a given URL path. Fetch or parse failures are
// treated as "allowed" so an unreachable robots.txt never stalls a run.
type RobotsGate struct {
	client *resty.Client
	cache  map[string]*robotstxt.RobotsData // hostname -> parsed data (nil on failure)
	mu     sync.Mutex
	log    *logrus.Logger
}

// NewRobotsGate creates a RobotsGate backed by the given HTTP client.
func NewRobotsGate(client *resty.Client, log *logrus.Logger) *RobotsGate {
	return &RobotsGate{
		client: client,
		cache:  make(map[string]*robotstxt.RobotsData),
		log:    log,
	}
}

// Allowed reports whether userAgent may fetch targetURL per the host's
// robots.txt. Returns true when the rules cannot be obtained.
func (rg *RobotsGate) Allowed(ctx context.Context, targetURL *url.URL, userAgent string) bool {
	data := rg.robotsData(ctx, targetURL)
	if data == nil {
		return true
	}
	return data.TestAgent(targetURL.RequestURI(), userAgent)
}

func (rg *RobotsGate) robotsData(ctx context.Context, targetURL *url.URL) *robotstxt.RobotsData {
	host := targetURL.Hostname()

	rg.mu.Lock()
	data, found := rg.cache[host]
	rg.mu.Unlock()
	if found {
		return data
	}

	scheme := targetURL.Scheme
	if scheme != "http" && scheme != "https" {
		scheme = "https"
	}
	robotsURL := (&url.URL{Scheme: scheme, Host: targetURL.Host, Path: "/robots.txt"}).String()
	hostLog := rg.log.WithFields(logrus.Fields{"host": host, "robots_url": robotsURL})
	hostLog.Info("Fetching robots.txt")

	data = rg.fetchAndParse(ctx, robotsURL, hostLog)

	rg.mu.Lock()
	rg.cache[host] = data
	rg.mu.Unlock()
	return data
}

func (rg *RobotsGate) fetchAndParse(ctx context.Context, robotsURL string, hostLog *logrus.Entry) *robotstxt.RobotsData {
	resp, err := rg.client.R().SetContext(ctx).Get(robotsURL)
	if err != nil {
		hostLog.Warnf("Fetching robots.txt failed: %v", err)
		return nil
	}
	if resp.StatusCode() != 200 {
		hostLog.WithField("status", resp.StatusCode()).Debug("No usable robots.txt")
		return nil
	}
	data, err := robotstxt.FromBytes(resp.Body())
	if err != nil {
		hostLog.Warnf("Parsing robots.txt failed: %v", err)
		return nil
	}
	hostLog.Info("Fetched and parsed robots.txt")
	return data
}
