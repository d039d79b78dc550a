package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/extract"
	"afdb-links/pkg/models"
	"afdb-links/pkg/utils"
)

// MarkdownExporter writes one markdown file per project with the
// extracted section bodies converted from HTML.
type MarkdownExporter struct {
	dir       string
	converter *md.Converter
	log       *logrus.Logger
}

// NewMarkdownExporter creates the exporter, ensuring dir exists.
func NewMarkdownExporter(dir string, log *logrus.Logger) (*MarkdownExporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating dump directory %s: %w", dir, err)
	}
	return &MarkdownExporter{
		dir:       dir,
		converter: md.NewConverter("", true, nil),
		log:       log,
	}, nil
}

// Export writes <identifier>.md for a built row. Rows without any
// extracted section are skipped.
func (e *MarkdownExporter) Export(result extract.RowResult) error {
	rec := result.Record
	if !rec.HasContent() {
		e.log.WithField("identifier", rec.Identifier).Debug("No content to export, skipping markdown dump")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", rec.Identifier)
	if rec.ProjectURL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", rec.ProjectURL)
	}

	for _, kind := range extract.AllSections {
		sec := result.Sections[kind]
		if sec.Locale == models.LocaleNone || sec.HTML == "" {
			continue
		}
		body, err := e.converter.ConvertString(sec.HTML)
		if err != nil {
			e.log.WithField("identifier", rec.Identifier).Warnf("Markdown conversion failed for %s: %v", kind.Label(), err)
			body = sec.Text // Fall back to the plain text
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", headingFor(kind), strings.TrimSpace(body))
	}

	path := filepath.Join(e.dir, utils.SanitizeFilename(rec.Identifier)+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing markdown dump %s: %w", path, err)
	}
	e.log.WithFields(logrus.Fields{"identifier": rec.Identifier, "file": path}).Debug("Wrote markdown dump")
	return nil
}

func headingFor(kind extract.SectionKind) string {
	switch kind {
	case extract.SectionGeneralDescription:
		return "General Description"
	case extract.SectionObjectives:
		return "Objectives"
	case extract.SectionBeneficiaries:
		return "Beneficiaries"
	default:
		return string(kind)
	}
}
