package models

// RowStatus represents the outcome of processing one project identifier
type RowStatus string

const (
	RowStatusUnset    RowStatus = ""          // Zero value = unset/unknown
	RowStatusOK       RowStatus = "ok"        // Page retrieved (sections are best-effort)
	RowStatusNotFound RowStatus = "not_found" // No candidate URL yielded the page
	RowStatusError    RowStatus = "error"     // Transport or parse failure before section lookup
)

// String implements fmt.Stringer for logging
func (s RowStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s RowStatus) IsValid() bool {
	switch s {
	case RowStatusOK, RowStatusNotFound, RowStatusError:
		return true
	}
	return false
}

// DocStatus represents the outcome of processing one harvested document
type DocStatus string

const (
	DocStatusUnset  DocStatus = ""       // Zero value = unset/unknown
	DocStatusLinked DocStatus = "linked" // PDF URL resolved
	DocStatusNoPDF  DocStatus = "no_pdf" // Document kept but no PDF found
	DocStatusError  DocStatus = "error"  // Per-document processing failure
)

// String implements fmt.Stringer for logging
func (s DocStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s DocStatus) IsValid() bool {
	switch s {
	case DocStatusLinked, DocStatusNoPDF, DocStatusError:
		return true
	}
	return false
}
