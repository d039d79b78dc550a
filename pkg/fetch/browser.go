package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/utils"
)

// BrowserFetcher drives a headless Chrome instance through chromedp.
// It exists for the Cloudflare-protected project pages that never
// render for a plain HTTP client.
type BrowserFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	pageTimeout time.Duration
	log         *logrus.Logger
}

// NewBrowserFetcher starts a headless browser allocator. Call Close
// when done to shut the browser down.
func NewBrowserFetcher(parent context.Context, userAgent string, pageTimeout time.Duration, log *logrus.Logger) *BrowserFetcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(parent, opts...)
	return &BrowserFetcher{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		pageTimeout: pageTimeout,
		log:         log,
	}
}

// Close shuts down the browser allocator.
func (f *BrowserFetcher) Close() {
	f.allocCancel()
}

// Fetch implements the Fetcher interface. Page status comes from
// content heuristics since CDP does not surface the HTTP status of the
// main navigation in a reliable way here.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	reqLog := f.log.WithField("url", pageURL)
	reqLog.Debug("Navigating with headless browser")

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, f.pageTimeout)
	defer cancel()

	// Propagate caller cancellation into the browser context
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var html, title string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrBrowser, err)
	}

	// Cloudflare interstitial: wait it out once, then re-grab the DOM
	if isChallengePage(title, html) {
		reqLog.Info("Detected Cloudflare challenge, waiting...")
		err = chromedp.Run(runCtx,
			chromedp.Sleep(10*time.Second),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Title(&title),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: challenge wait: %v", utils.ErrBrowser, err)
		}
		if isChallengePage(title, html) {
			return nil, fmt.Errorf("%w: Cloudflare challenge did not clear for %s", utils.ErrBlocked, pageURL)
		}
	}

	result := &Result{HTML: html, FinalURL: pageURL, Status: PageFound}
	if looksLikeMissingPage(title, html) {
		reqLog.Debug("Rendered page looks like a 404")
		result.HTML = ""
		result.Status = PageNotFound
	}
	return result, nil
}

// isChallengePage detects the Cloudflare interstitial.
func isChallengePage(title, html string) bool {
	if strings.Contains(title, "Just a moment") {
		return true
	}
	return strings.Contains(strings.ToLower(html), "cf-challenge")
}

// looksLikeMissingPage applies the content heuristics for a rendered
// error page (the portal answers soft-404s with a styled page).
func looksLikeMissingPage(title, html string) bool {
	lowerTitle := strings.ToLower(title)
	if strings.Contains(lowerTitle, "404") ||
		strings.Contains(lowerTitle, "not found") ||
		strings.Contains(lowerTitle, "page non trouv") {
		return true
	}
	lowerHTML := strings.ToLower(html)
	return strings.Contains(lowerHTML, "page not found") && !strings.Contains(lowerHTML, "project")
}
