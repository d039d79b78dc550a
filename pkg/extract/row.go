package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/fetch"
	"afdb-links/pkg/models"
	"afdb-links/pkg/utils"
)

// RowBuilder turns one project identifier into a ProjectRecord by
// trying candidate URLs, fetching the first one that resolves, and
// extracting the target sections.
type RowBuilder struct {
	fetcher   fetch.Fetcher
	baseURL   string
	templates []string
	log       *logrus.Logger
}

// NewRowBuilder creates a RowBuilder. Templates contain a {id}
// placeholder and are tried in order against baseURL.
func NewRowBuilder(fetcher fetch.Fetcher, baseURL string, templates []string, log *logrus.Logger) *RowBuilder {
	return &RowBuilder{
		fetcher:   fetcher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		templates: templates,
		log:       log,
	}
}

// CandidateURLs returns the ordered candidate URLs for an identifier.
func (b *RowBuilder) CandidateURLs(identifier string) []string {
	urls := make([]string, 0, len(b.templates))
	for _, tpl := range b.templates {
		urls = append(urls, b.baseURL+strings.ReplaceAll(tpl, "{id}", identifier))
	}
	return urls
}

// RowResult is a built record plus the per-section extraction detail
// needed by the markdown exporter.
type RowResult struct {
	Record   models.ProjectRecord
	Sections map[SectionKind]models.ExtractionResult
}

// Build processes one identifier. It never returns an error: fetch and
// parse failures are folded into the record's status and notes so one
// bad row cannot abort a batch.
func (b *RowBuilder) Build(ctx context.Context, identifier string) models.ProjectRecord {
	return b.BuildDetailed(ctx, identifier).Record
}

// BuildDetailed is Build plus the raw section results.
func (b *RowBuilder) BuildDetailed(ctx context.Context, identifier string) RowResult {
	rowLog := b.log.WithField("identifier", identifier)
	record := models.ProjectRecord{Identifier: identifier}

	var page *fetch.Result
	matchedIdx := -1
	for i, candidate := range b.CandidateURLs(identifier) {
		res, err := b.fetcher.Fetch(ctx, candidate)
		if err != nil {
			// Transport failure: stop trying candidates, the host is
			// unreachable or actively refusing us
			rowLog.WithField("url", candidate).Warnf("Fetch failed: %v", err)
			record.ProjectURL = candidate
			record.Status = models.RowStatusError
			record.Notes = utils.CategorizeError(err)
			return RowResult{Record: record}
		}
		if res.Status == fetch.PageNotFound {
			rowLog.WithField("url", candidate).Debug("Candidate URL 404, trying next")
			continue
		}
		page = res
		matchedIdx = i
		break
	}

	if page == nil {
		rowLog.Info("No candidate URL resolved")
		record.Status = models.RowStatusNotFound
		record.Notes = "all url patterns returned 404"
		return RowResult{Record: record}
	}

	record.ProjectURL = page.FinalURL

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		rowLog.Errorf("HTML parse failed: %v", err)
		record.Status = models.RowStatusError
		record.Notes = utils.CategorizeError(fmt.Errorf("%w: %v", utils.ErrParsing, err))
		return RowResult{Record: record}
	}

	var notes []string
	if matchedIdx > 0 {
		notes = append(notes, fmt.Sprintf("matched pattern %d", matchedIdx+1))
	}

	sections := make(map[SectionKind]models.ExtractionResult, len(AllSections))
	for _, kind := range AllSections {
		res := ExtractSection(doc, kind)
		sections[kind] = res
		switch {
		case res.Locale == models.LocaleFR:
			notes = append(notes, fmt.Sprintf("fr locale used for %s", kind.Label()))
		case res.Locale == models.LocaleNone:
			notes = append(notes, fmt.Sprintf("%s missing", kind.Label()))
		}
	}

	record.GeneralDescription = sections[SectionGeneralDescription].Text
	record.Objectives = sections[SectionObjectives].Text
	record.Beneficiaries = sections[SectionBeneficiaries].Text
	record.Status = models.RowStatusOK
	record.Notes = strings.Join(notes, "; ")

	rowLog.WithFields(logrus.Fields{
		"url":         record.ProjectURL,
		"has_content": record.HasContent(),
		"status":      record.Status,
	}).Info("Row built")

	return RowResult{Record: record, Sections: sections}
}
