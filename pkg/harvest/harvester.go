package harvest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/config"
	"afdb-links/pkg/fetch"
	"afdb-links/pkg/models"
	"afdb-links/pkg/utils"
)

// Harvester crawls the AfDB document listings seed by seed, keeps the
// documents belonging to the target sector, and resolves their PDF
// links. Detail URLs are deduplicated across all seeds.
type Harvester struct {
	fetcher   fetch.Fetcher
	client    *resty.Client
	robots    *fetch.RobotsGate // nil disables robots checks
	limiter   *fetch.RateLimiter
	cfg       config.HarvestConfig
	userAgent string
	log       *logrus.Logger

	seen map[string]bool // detail URLs already processed
}

// NewHarvester creates a Harvester. robots may be nil to skip
// robots.txt enforcement.
func NewHarvester(fetcher fetch.Fetcher, client *resty.Client, robots *fetch.RobotsGate, limiter *fetch.RateLimiter, cfg config.HarvestConfig, log *logrus.Logger) *Harvester {
	return &Harvester{
		fetcher:   fetcher,
		client:    client,
		robots:    robots,
		limiter:   limiter,
		cfg:       cfg,
		userAgent: cfg.UserAgent,
		log:       log,
		seen:      make(map[string]bool),
	}
}

// Run harvests every configured seed and returns the combined records.
// Seed-level failures are logged and skipped; only context cancellation
// aborts the whole harvest.
func (h *Harvester) Run(ctx context.Context) ([]models.DocumentRecord, error) {
	h.log.WithFields(logrus.Fields{
		"seeds":     len(h.cfg.Seeds),
		"sector":    h.cfg.Sector,
		"max_pages": h.cfg.MaxPages,
	}).Info("Starting harvest")

	var results []models.DocumentRecord
	for _, seed := range h.cfg.Seeds {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		seedResults, err := h.harvestSeed(ctx, seed)
		results = append(results, seedResults...)
		if err != nil {
			if ctx.Err() != nil {
				return results, err
			}
			h.log.Errorf("Seed %s failed: %v", seed, err)
		}
	}

	h.log.WithFields(logrus.Fields{
		"documents":   len(results),
		"unique_urls": len(h.seen),
	}).Info("Harvest completed")
	return results, nil
}

// harvestSeed walks the pagination of one seed.
func (h *Harvester) harvestSeed(ctx context.Context, seed string) ([]models.DocumentRecord, error) {
	seedLog := h.log.WithField("seed", seed)
	seedLog.Info("Processing seed")

	currentRaw := seed
	var results []models.DocumentRecord

	for pageCount := 1; pageCount <= h.cfg.MaxPages; pageCount++ {
		currentURL, err := url.Parse(currentRaw)
		if err != nil {
			return results, fmt.Errorf("%w: invalid page URL %s: %v", utils.ErrParsing, currentRaw, err)
		}
		pageLog := seedLog.WithFields(logrus.Fields{"page": pageCount, "url": currentRaw})

		doc, err := h.fetchDocument(ctx, currentURL)
		if err != nil {
			pageLog.Errorf("Failed to fetch listing page: %v", err)
			return results, err
		}
		if doc == nil {
			// 404 or robots-disallowed listing page ends the seed
			pageLog.Warn("Listing page unavailable - stopping pagination")
			break
		}

		cards := documentCards(doc, pageLog)
		if cards.Length() == 0 {
			pageLog.Warn("No documents found - stopping pagination")
			break
		}

		var pageErr error
		cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
			if err := ctx.Err(); err != nil {
				pageErr = err
				return false
			}
			rec, ok := cardInfo(card, currentURL, seed, pageCount, h.matchesSector)
			if !ok {
				return true
			}
			if result, keep := h.processDocument(ctx, rec); keep {
				results = append(results, result)
			}
			return true
		})
		if pageErr != nil {
			return results, pageErr
		}

		next := nextPageURL(doc, currentURL)
		if next == "" {
			pageLog.Info("No more pages")
			break
		}
		currentRaw = next
	}

	seedLog.WithField("documents", len(results)).Info("Completed seed")
	return results, nil
}

// processDocument enforces the sector filter and resolves the PDF link
// for one carded document. The boolean is false when the document is a
// duplicate or belongs to another sector.
func (h *Harvester) processDocument(ctx context.Context, rec models.DocumentRecord) (models.DocumentRecord, bool) {
	docLog := h.log.WithField("detail_url", rec.DetailURL)

	if h.seen[rec.DetailURL] {
		docLog.Debug("Skipping duplicate")
		return rec, false
	}
	h.seen[rec.DetailURL] = true

	detailURL, err := url.Parse(rec.DetailURL)
	if err != nil {
		rec.Status = models.DocStatusError
		rec.Notes = utils.CategorizeError(fmt.Errorf("%w: invalid detail URL: %v", utils.ErrParsing, err))
		return rec, true
	}

	var notes []string
	var detailDoc *goquery.Document

	if rec.Sector != "" {
		notes = append(notes, "sector from card")
	} else {
		detailDoc, err = h.fetchDocument(ctx, detailURL)
		if err != nil || detailDoc == nil {
			rec.Status = models.DocStatusError
			rec.Notes = "failed to fetch detail page"
			if err != nil {
				rec.Notes = utils.CategorizeError(err)
			}
			return rec, true
		}
		sector := sectorFromDetail(detailDoc)
		if !h.matchesSector(sector) {
			docLog.WithField("sector", sector).Debug("Sector does not match target, dropping")
			return rec, false
		}
		rec.Sector = sector
		notes = append(notes, "sector from detail page")
	}

	if detailDoc == nil {
		detailDoc, err = h.fetchDocument(ctx, detailURL)
		if err != nil || detailDoc == nil {
			rec.Status = models.DocStatusError
			rec.Notes = strings.Join(append(notes, "failed to fetch detail page"), "; ")
			return rec, true
		}
	}

	if pdfURL := findPDFLink(detailDoc, detailURL); pdfURL != "" {
		finalURL, hops := h.followRedirects(ctx, pdfURL)
		rec.PDFURL = finalURL
		rec.Status = models.DocStatusLinked
		if hops > 0 {
			notes = append(notes, fmt.Sprintf("redirects=%d", hops))
		}
	} else {
		rec.Status = models.DocStatusNoPDF
		notes = append(notes, "no pdf found")
	}

	rec.Notes = strings.Join(notes, "; ")
	docLog.WithField("status", rec.Status).Info("Processed document")
	return rec, true
}

// fetchDocument rate-limits, checks robots, fetches, and parses one
// page. A nil document with nil error means the page is unavailable
// (404 or disallowed) but the harvest should go on.
func (h *Harvester) fetchDocument(ctx context.Context, pageURL *url.URL) (*goquery.Document, error) {
	if h.robots != nil && !h.robots.Allowed(ctx, pageURL, h.userAgent) {
		h.log.WithField("url", pageURL.String()).Warn("Disallowed by robots.txt, skipping")
		return nil, nil
	}

	host := pageURL.Hostname()
	if err := h.limiter.Wait(ctx, host, h.cfg.RateLimit.Std()); err != nil {
		return nil, err
	}
	result, err := h.fetcher.Fetch(ctx, pageURL.String())
	h.limiter.MarkRequest(host)
	if err != nil {
		return nil, err
	}
	if result.Status == fetch.PageNotFound {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML parse of %s: %v", utils.ErrParsing, pageURL, err)
	}
	return doc, nil
}

// matchesSector compares case-insensitively on trimmed text.
func (h *Harvester) matchesSector(sector string) bool {
	if sector == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(sector), strings.TrimSpace(h.cfg.Sector))
}
