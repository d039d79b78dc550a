package csvio

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Clean removes the first row of a corpus CSV (a methodology note the
// source spreadsheet carries above the real header) and writes the rest
// unchanged to outPath.
func Clean(inPath, outPath string, log *logrus.Logger) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inPath, err)
	}
	defer in.Close()

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("input file %s is empty", inPath)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.WriteAll(rows[1:]); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"in": inPath, "out": outPath, "kept_rows": len(rows) - 1,
	}).Info("Cleaned corpus CSV")
	return nil
}
