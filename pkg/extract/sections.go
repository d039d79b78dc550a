package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"afdb-links/pkg/models"
	"afdb-links/pkg/utils"
)

// SectionContent is the body of one matched section.
type SectionContent struct {
	Text string // Block texts joined with single spaces
	HTML string // Outer HTML of the collected blocks, concatenated
}

// contentTags are the block-level elements collected as section body.
var contentTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "blockquote": true,
}

// Section scans the document's h2/h3 headings in order and returns the
// content of the first heading whose normalized text equals one of the
// aliases. The boolean is false when no heading matches.
func Section(doc *goquery.Document, aliases []string) (SectionContent, bool) {
	targets := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		targets[strings.ToLower(utils.NormalizeSpace(a))] = true
	}

	var content SectionContent
	found := false
	doc.Find("h2, h3").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		text := strings.ToLower(utils.NormalizeSpace(heading.Text()))
		if !targets[text] {
			return true
		}
		content = collectBody(heading)
		found = true
		return false
	})
	return content, found
}

// collectBody walks the siblings after a matched heading, gathering
// block content until a heading of the same or higher level (or the end
// of the parent) ends the section.
func collectBody(heading *goquery.Selection) SectionContent {
	level := headingLevel(goquery.NodeName(heading))

	var textParts []string
	var htmlParts []string
	for sib := heading.Next(); sib.Length() > 0; sib = sib.Next() {
		name := goquery.NodeName(sib)
		if lvl := headingLevel(name); lvl > 0 && lvl <= level {
			break
		}
		if !contentTags[name] {
			continue
		}
		if text := utils.NormalizeSpace(sib.Text()); text != "" {
			textParts = append(textParts, text)
			if html, err := goquery.OuterHtml(sib); err == nil {
				htmlParts = append(htmlParts, html)
			}
		}
	}

	return SectionContent{
		Text: strings.Join(textParts, " "),
		HTML: strings.Join(htmlParts, "\n"),
	}
}

// headingLevel returns 1-6 for h1-h6 node names, 0 otherwise.
func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

// ExtractSection runs the extractor for one section kind, trying the
// English aliases first and falling back to the French ones.
func ExtractSection(doc *goquery.Document, kind SectionKind) models.ExtractionResult {
	aliases := Aliases(kind)
	if c, ok := Section(doc, aliases.EN); ok {
		return models.ExtractionResult{Text: c.Text, HTML: c.HTML, Locale: models.LocaleEN}
	}
	if c, ok := Section(doc, aliases.FR); ok {
		return models.ExtractionResult{Text: c.Text, HTML: c.HTML, Locale: models.LocaleFR}
	}
	return models.ExtractionResult{}
}
