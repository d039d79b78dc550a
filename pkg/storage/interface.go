package storage

import "afdb-links/pkg/models"

// RecordStore persists per-identifier processing state so interrupted
// batch runs can resume without re-fetching completed rows.
type RecordStore interface {
	// CheckProject retrieves the stored entry for an identifier.
	// Returns nil (no error) when the identifier has never been seen.
	CheckProject(identifier string) (*models.ProjectDBEntry, error)

	// UpdateProject stores the processing outcome for an identifier.
	UpdateProject(identifier string, entry *models.ProjectDBEntry) error

	// ProcessedCount returns the number of identifiers in the store.
	ProcessedCount() (int, error)

	// Close cleanly closes the underlying database.
	Close() error
}
