package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ReadIdentifiers reads the project identifiers from the given column
// of a CSV file. The column is located by header name; rows with a
// blank identifier are skipped. A missing file or column is an error
// since there is nothing to process without identifiers.
func ReadIdentifiers(path, idColumn string, log *logrus.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input CSV %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // Tolerate ragged rows, spreadsheets export them

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header from %s: %w", path, err)
	}

	colIdx := -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF") // Excel BOM
		}
		if strings.EqualFold(strings.TrimSpace(name), idColumn) {
			colIdx = i
			break
		}
	}
	if colIdx == -1 {
		return nil, fmt.Errorf("column %q not found in %s (header: %v)", idColumn, path, header)
	}

	var identifiers []string
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row from %s: %w", path, err)
		}
		if colIdx >= len(row) {
			skipped++
			continue
		}
		id := strings.TrimSpace(row[colIdx])
		if id == "" {
			skipped++
			continue
		}
		identifiers = append(identifiers, id)
	}

	log.WithFields(logrus.Fields{
		"file": path, "column": idColumn, "count": len(identifiers), "skipped": skipped,
	}).Info("Read project identifiers")
	return identifiers, nil
}
