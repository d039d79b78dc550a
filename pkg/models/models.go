package models

import "time"

// ProjectRecord is the result of processing one project identifier.
// It is immutable after construction and maps 1:1 to an output CSV row.
type ProjectRecord struct {
	Identifier         string
	ProjectURL         string
	GeneralDescription string
	Objectives         string
	Beneficiaries      string
	Status             RowStatus
	Notes              string
}

// HasContent reports whether at least one target section was extracted.
func (r ProjectRecord) HasContent() bool {
	return r.GeneralDescription != "" || r.Objectives != "" || r.Beneficiaries != ""
}

// Locale identifies which heading-alias set produced a section.
type Locale string

const (
	LocaleNone Locale = ""
	LocaleEN   Locale = "en"
	LocaleFR   Locale = "fr"
)

// ExtractionResult is the transient per-section output of the extractor,
// consumed immediately by the row builder.
type ExtractionResult struct {
	Text   string // Joined plain text of the section body
	HTML   string // Inner HTML of the collected blocks (for markdown export)
	Locale Locale // Alias set that matched, LocaleNone if no match
}

// DocumentRecord is one harvested document from the AfDB listings.
type DocumentRecord struct {
	SourceSeed string
	PageNum    int
	Title      string
	Date       string
	Country    string
	Sector     string
	DetailURL  string
	PDFURL     string
	Status     DocStatus
	Notes      string
}

// ProjectDBEntry stores the outcome of processing a project identifier
// in the resume database.
type ProjectDBEntry struct {
	Status      string    `json:"status"`                 // RowStatus string value
	ProcessedAt time.Time `json:"processed_at,omitzero"` // Timestamp of successful processing
	LastAttempt time.Time `json:"last_attempt"`          // Timestamp of the last attempt
}
