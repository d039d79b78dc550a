package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/utils"
)

// PageStatus classifies the outcome of a successful fetch attempt.
type PageStatus int

const (
	// PageFound means the URL resolved to a 2xx page.
	PageFound PageStatus = iota
	// PageNotFound means the URL answered 404/410; the caller may try
	// the next candidate URL.
	PageNotFound
)

// Result is a rendered page returned by a Fetcher.
type Result struct {
	HTML       string
	FinalURL   string // URL after redirects
	StatusCode int    // Zero for browser-driven fetches
	Status     PageStatus
}

// Fetcher retrieves one page. Transport failures (network errors,
// timeouts, 5xx after retries, blocking 4xx) are returned as errors;
// a missing page is a Result with PageNotFound, not an error.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Result, error)
}

// HTTPFetcher fetches pages over plain HTTP using the shared resty client.
type HTTPFetcher struct {
	client *resty.Client
	log    *logrus.Logger
}

// NewHTTPFetcher creates an HTTPFetcher
func NewHTTPFetcher(client *resty.Client, log *logrus.Logger) *HTTPFetcher {
	return &HTTPFetcher{client: client, log: log}
}

// Fetch implements the Fetcher interface
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	reqLog := f.log.WithField("url", pageURL)
	reqLog.Debug("Fetching page")

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// resty has already exhausted its retry budget at this point
		return nil, fmt.Errorf("%w: %w", utils.ErrRetryFailed, err)
	}

	statusCode := resp.StatusCode()
	resLog := reqLog.WithField("status_code", statusCode)

	switch {
	case statusCode >= 200 && statusCode < 300:
		resLog.Debug("Successfully fetched")
		return &Result{
			HTML:       resp.String(),
			FinalURL:   resp.RawResponse.Request.URL.String(),
			StatusCode: statusCode,
			Status:     PageFound,
		}, nil

	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		resLog.Debug("Page not found")
		return &Result{
			FinalURL:   pageURL,
			StatusCode: statusCode,
			Status:     PageNotFound,
		}, nil

	case statusCode == http.StatusForbidden:
		// Almost always the bot protection, not a real permission wall
		resLog.Warn("403 Forbidden - likely blocked by Cloudflare")
		return nil, fmt.Errorf("%w: status %d at %s", utils.ErrBlocked, statusCode, pageURL)

	case statusCode >= 500:
		resLog.Warn("Server error after retries")
		return nil, fmt.Errorf("%w: %w", utils.ErrRetryFailed,
			fmt.Errorf("%w: status %d %s", utils.ErrServerHTTPError, statusCode, resp.Status()))

	case statusCode == http.StatusTooManyRequests:
		resLog.Warn("Rate limited after retries")
		return nil, fmt.Errorf("%w: %w", utils.ErrRetryFailed,
			fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, statusCode, resp.Status()))

	case statusCode >= 400 && statusCode < 500:
		resLog.Warn("Client error (4xx)")
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrClientHTTPError, statusCode, resp.Status())

	default:
		resLog.Warnf("Unexpected status: %d", statusCode)
		return nil, fmt.Errorf("%w: status %d %s", utils.ErrOtherHTTPError, statusCode, resp.Status())
	}
}
