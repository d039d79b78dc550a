package harvest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/models"
	"afdb-links/pkg/utils"
)

// cardSelectors are tried in order against a listing page; the first
// selector with any hits wins. Drupal's .views-row leads because the
// AfDB document portal is a Drupal site.
var cardSelectors = []string{
	".views-row",
	".document-card",
	".search-result",
	".result-item",
	".document-item",
	"article",
	".card",
	`[class*="document"]`,
	`[class*="result"]`,
}

var (
	fallbackClassRe = regexp.MustCompile(`(?i)document|result|card|item|view`)
	yearRe          = regexp.MustCompile(`\d{4}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}`)
)

// documentCards locates the document cards on a listing page.
func documentCards(doc *goquery.Document, log *logrus.Entry) *goquery.Selection {
	for _, selector := range cardSelectors {
		cards := doc.Find(selector)
		if cards.Length() > 0 {
			log.WithFields(logrus.Fields{"selector": selector, "count": cards.Length()}).Info("Found document cards")
			return cards
		}
	}

	// Fallback: any div whose class hints at a document container
	cards := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return fallbackClassRe.MatchString(class)
	})
	log.WithField("count", cards.Length()).Info("Fallback card scan")
	return cards
}

// cardInfo pulls the document fields out of one card. Returns false
// when the card has no usable title or detail link.
func cardInfo(card *goquery.Selection, pageURL *url.URL, sourceSeed string, pageNum int, sectorMatch func(string) bool) (models.DocumentRecord, bool) {
	rec := models.DocumentRecord{SourceSeed: sourceSeed, PageNum: pageNum}

	for _, selector := range []string{"h1", "h2", "h3", "h4", ".title", ".document-title", `[class*="title"]`, "a"} {
		if title := utils.NormalizeSpace(card.Find(selector).First().Text()); title != "" {
			rec.Title = title
			break
		}
	}

	if href, ok := card.Find("a[href]").First().Attr("href"); ok {
		rec.DetailURL = absolutize(pageURL, href)
	}
	if rec.Title == "" || rec.DetailURL == "" {
		return rec, false
	}

	for _, selector := range []string{".date", ".published", `[class*="date"]`, "time", ".field-content"} {
		text := utils.NormalizeSpace(card.Find(selector).First().Text())
		if text != "" && yearRe.MatchString(text) {
			rec.Date = text
			break
		}
	}

	for _, selector := range []string{".country", ".location", `[class*="country"]`, `[class*="location"]`, ".field-content"} {
		text := utils.NormalizeSpace(card.Find(selector).First().Text())
		if text != "" && !yearRe.MatchString(text) {
			rec.Country = text
			break
		}
	}

	// Only record a card sector when it matches the target; non-matching
	// text is usually an unrelated .field-content cell
	for _, selector := range []string{".sector", ".category", `[class*="sector"]`, `[class*="category"]`, ".field-content"} {
		text := utils.NormalizeSpace(card.Find(selector).First().Text())
		if text != "" && sectorMatch(text) {
			rec.Sector = text
			break
		}
	}

	return rec, true
}

// detailSectorSelectors locate the sector field on a document detail page.
var detailSectorSelectors = []string{
	".field-name-field-sector .field-item",
	".field-name-field-category .field-item",
	".sector",
	".category",
	`[class*="sector"]`,
	`[class*="category"]`,
}

// sectorFromDetail finds the sector text on a fetched detail page.
func sectorFromDetail(doc *goquery.Document) string {
	for _, selector := range detailSectorSelectors {
		if text := utils.NormalizeSpace(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// absolutize resolves href against the page it appeared on.
func absolutize(pageURL *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return pageURL.ResolveReference(ref).String()
}
