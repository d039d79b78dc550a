package harvest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"afdb-links/pkg/models"
)

// ManifestFilename is the fixed name of the harvest output inside OutDir.
const ManifestFilename = "afdb_manifest.csv"

// ManifestHeader is the column order of the manifest CSV.
var ManifestHeader = []string{
	"source_seed",
	"page_num",
	"title",
	"date",
	"country",
	"sector",
	"detail_url",
	"pdf_url",
	"status",
	"notes",
}

// WriteManifest writes the harvested records to OutDir/afdb_manifest.csv.
// With fresh the file is rewritten with a header; otherwise records are
// appended and the header only written when the file does not exist yet.
func WriteManifest(outDir string, fresh bool, records []models.DocumentRecord, log *logrus.Logger) error {
	if len(records) == 0 {
		log.Warn("No results to write")
		return nil
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outDir, err)
	}
	path := filepath.Join(outDir, ManifestFilename)

	flags := os.O_CREATE | os.O_WRONLY
	writeHeader := true
	if fresh {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			writeHeader = false
		}
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if writeHeader {
		if err := writer.Write(ManifestHeader); err != nil {
			return fmt.Errorf("writing manifest header: %w", err)
		}
	}
	for _, rec := range records {
		row := []string{
			rec.SourceSeed,
			strconv.Itoa(rec.PageNum),
			rec.Title,
			rec.Date,
			rec.Country,
			rec.Sector,
			rec.DetailURL,
			rec.PDFURL,
			string(rec.Status),
			rec.Notes,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing manifest row for %s: %w", rec.DetailURL, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"file": path, "records": len(records), "fresh": fresh,
	}).Info("Manifest written")
	return nil
}
