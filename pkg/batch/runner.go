package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"afdb-links/pkg/csvio"
	"afdb-links/pkg/export"
	"afdb-links/pkg/extract"
	"afdb-links/pkg/models"
	"afdb-links/pkg/storage"
)

// Options controls one batch run.
type Options struct {
	Delay   time.Duration // Pause between rows (not applied after the last)
	MaxRows int           // Process at most this many identifiers, 0 = all
	Resume  bool          // Skip identifiers already completed in the store
}

// Summary is the outcome of a batch run.
type Summary struct {
	Processed int
	Skipped   int
	OK        int
	NotFound  int
	Errors    int
}

// Runner processes identifiers sequentially: one fetch-extract-write
// cycle per row. Sequential on purpose, the target host rate-limits
// aggressively.
type Runner struct {
	builder  *extract.RowBuilder
	writer   *csvio.RecordWriter
	exporter *export.MarkdownExporter // nil disables markdown dumps
	store    storage.RecordStore      // nil disables resume tracking
	log      *logrus.Logger
}

// NewRunner creates a Runner. exporter and store may be nil.
func NewRunner(builder *extract.RowBuilder, writer *csvio.RecordWriter, exporter *export.MarkdownExporter, store storage.RecordStore, log *logrus.Logger) *Runner {
	return &Runner{
		builder:  builder,
		writer:   writer,
		exporter: exporter,
		store:    store,
		log:      log,
	}
}

// Run processes the identifiers in input order. Per-row failures are
// folded into the written record; only context cancellation and output
// write failures abort the run.
func (r *Runner) Run(ctx context.Context, identifiers []string, opts Options) (Summary, error) {
	runLog := r.log.WithField("run_id", uuid.NewString())

	total := len(identifiers)
	if opts.MaxRows > 0 && opts.MaxRows < total {
		runLog.Infof("Limiting run to first %d of %d identifiers", opts.MaxRows, total)
		identifiers = identifiers[:opts.MaxRows]
		total = opts.MaxRows
	}
	runLog.WithFields(logrus.Fields{"total": total, "resume": opts.Resume}).Info("Starting batch run")

	var summary Summary
	for i, identifier := range identifiers {
		if err := ctx.Err(); err != nil {
			runLog.Warnf("Run cancelled after %d rows", summary.Processed)
			return summary, err
		}

		rowLog := runLog.WithFields(logrus.Fields{"identifier": identifier, "row": i + 1})

		if opts.Resume && r.alreadyDone(identifier, rowLog) {
			summary.Skipped++
			continue
		}

		result := r.builder.BuildDetailed(ctx, identifier)
		record := result.Record

		if err := r.writer.Write(record); err != nil {
			// A broken output file invalidates the whole run
			rowLog.Errorf("Writing record failed: %v", err)
			return summary, err
		}
		summary.Processed++
		switch record.Status {
		case models.RowStatusOK:
			summary.OK++
		case models.RowStatusNotFound:
			summary.NotFound++
		default:
			summary.Errors++
		}

		if r.exporter != nil {
			if err := r.exporter.Export(result); err != nil {
				rowLog.Warnf("Markdown export failed: %v", err)
			}
		}
		r.recordOutcome(identifier, record, rowLog)

		if opts.Delay > 0 && i < len(identifiers)-1 {
			if err := sleepCtx(ctx, opts.Delay); err != nil {
				runLog.Warnf("Run cancelled during delay after %d rows", summary.Processed)
				return summary, err
			}
		}
	}

	runLog.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"ok":        summary.OK,
		"not_found": summary.NotFound,
		"errors":    summary.Errors,
	}).Info("Batch run complete")
	return summary, nil
}

// alreadyDone reports whether the store holds a completed outcome for
// the identifier. Rows that previously errored are retried.
func (r *Runner) alreadyDone(identifier string, rowLog *logrus.Entry) bool {
	if r.store == nil {
		return false
	}
	entry, err := r.store.CheckProject(identifier)
	if err != nil {
		rowLog.Warnf("Resume check failed, reprocessing: %v", err)
		return false
	}
	if entry == nil || entry.Status == string(models.RowStatusError) {
		return false
	}
	rowLog.WithField("status", entry.Status).Debug("Already processed, skipping")
	return true
}

func (r *Runner) recordOutcome(identifier string, record models.ProjectRecord, rowLog *logrus.Entry) {
	if r.store == nil {
		return
	}
	now := time.Now().UTC()
	entry := &models.ProjectDBEntry{Status: string(record.Status), LastAttempt: now}
	if record.Status != models.RowStatusError {
		entry.ProcessedAt = now
	}
	if err := r.store.UpdateProject(identifier, entry); err != nil {
		rowLog.Warnf("Recording outcome failed: %v", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
