package harvest

import (
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// nextSelectors locate an explicit "next" link in the pager.
var nextSelectors = []string{
	`nav a[rel="next"]`,
	"nav .pager__item--next a",
	`.pagination a[rel="next"]`,
	`[aria-label*="Next"]`,
}

// nextPageURL determines the URL of the page after currentURL, or ""
// when pagination is exhausted. Strategies in order: increment an
// existing ?page=N parameter, follow a rel=next style link, find a
// pager link whose page number is current+1.
func nextPageURL(doc *goquery.Document, currentURL *url.URL) string {
	// Strategy 1: increment ?page=N
	query := currentURL.Query()
	if raw := query.Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			next := *currentURL
			query.Set("page", strconv.Itoa(n+1))
			next.RawQuery = query.Encode()
			return next.String()
		}
	}

	// Strategy 2: explicit next link
	for _, selector := range nextSelectors {
		if href, ok := doc.Find(selector).First().Attr("href"); ok && href != "" {
			return absolutize(currentURL, href)
		}
	}

	// Strategy 3: pager link numbered current+1
	currentPage := pageNumber(currentURL)
	var found string
	doc.Find(".pagination a, .pager a, nav a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}
		linkURL, err := url.Parse(absolutize(currentURL, href))
		if err != nil {
			return true
		}
		if pageNumber(linkURL) == currentPage+1 {
			found = linkURL.String()
			return false
		}
		return true
	})
	return found
}

// pageNumber reads the ?page=N parameter of a URL, 0 when absent.
func pageNumber(u *url.URL) int {
	if raw := u.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 0
}
