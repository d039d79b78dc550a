package csvio

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"afdb-links/pkg/models"
)

// OutputHeader is the fixed column order of the results CSV.
var OutputHeader = []string{
	"Identifier",
	"project_url",
	"general_description",
	"objectives",
	"beneficiaries",
	"status",
	"notes",
}

// RecordWriter appends ProjectRecords to a results CSV, flushing after
// every row so an interrupted run loses at most the row in flight.
type RecordWriter struct {
	file   *os.File
	writer *csv.Writer
	log    *logrus.Logger
}

// NewRecordWriter opens the results file. With appendMode the file is
// opened for append and the header is only written when the file is
// created; otherwise any existing file is truncated and the header
// written fresh.
func NewRecordWriter(path string, appendMode bool, log *logrus.Logger) (*RecordWriter, error) {
	flags := os.O_CREATE | os.O_WRONLY
	writeHeader := true
	if appendMode {
		flags |= os.O_APPEND
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			writeHeader = false
		}
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening output CSV %s: %w", path, err)
	}

	w := &RecordWriter{file: f, writer: csv.NewWriter(f), log: log}
	if writeHeader {
		if err := w.writer.Write(OutputHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("writing CSV header to %s: %w", path, err)
		}
		w.writer.Flush()
	}
	log.WithFields(logrus.Fields{"file": path, "append": appendMode}).Info("Opened results CSV")
	return w, nil
}

// Write appends one record and flushes it to disk.
func (w *RecordWriter) Write(rec models.ProjectRecord) error {
	row := []string{
		rec.Identifier,
		rec.ProjectURL,
		rec.GeneralDescription,
		rec.Objectives,
		rec.Beneficiaries,
		string(rec.Status),
		rec.Notes,
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("writing CSV row for %s: %w", rec.Identifier, err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the underlying file.
func (w *RecordWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
