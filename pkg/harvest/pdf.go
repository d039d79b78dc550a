package harvest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// loosePDFSelectors are tried when no direct .pdf link exists.
var loosePDFSelectors = []string{
	`a[href*=".pdf"]`,
	".file-link a",
	".field-name-field-file a",
	`[class*="pdf"] a`,
	`a[download*=".pdf"]`,
}

// findPDFLink scans a fetched detail page for a PDF link and returns
// the absolute URL, "" when none is found.
func findPDFLink(doc *goquery.Document, detailURL *url.URL) string {
	var found string
	doc.Find(`a[href$=".pdf"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if href, ok := link.Attr("href"); ok && href != "" {
			found = absolutize(detailURL, href)
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	for _, selector := range loosePDFSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, link *goquery.Selection) bool {
			href, ok := link.Attr("href")
			if !ok || !strings.Contains(strings.ToLower(href), ".pdf") {
				return true
			}
			found = absolutize(detailURL, href)
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// followRedirects issues a HEAD request and follows redirects to the
// final URL, returning it with the hop count. On any failure the input
// URL is returned unchanged with zero hops.
func (h *Harvester) followRedirects(ctx context.Context, rawURL string) (string, int) {
	hops := 0
	client := &http.Client{
		Transport: h.client.GetClient().Transport,
		Timeout:   h.client.GetClient().Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			hops = len(via)
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL, 0
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		h.log.Warnf("Following redirects for %s failed: %v", rawURL, err)
		return rawURL, 0
	}
	resp.Body.Close()
	return resp.Request.URL.String(), hops
}
