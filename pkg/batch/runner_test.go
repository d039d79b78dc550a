package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afdb-links/pkg/csvio"
	"afdb-links/pkg/extract"
	"afdb-links/pkg/fetch"
	"afdb-links/pkg/models"
	"afdb-links/pkg/utils"
)

const testBase = "https://mapafrica.afdb.org"

var testTemplates = []string{"/en/projects/46002-{id}"}

// fakeFetcher serves canned pages keyed by identifier substring.
type fakeFetcher struct {
	pages map[string]string // identifier -> HTML
	errs  map[string]error  // identifier -> transport error
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*fetch.Result, error) {
	for id, err := range f.errs {
		if strings.Contains(pageURL, id) {
			return nil, err
		}
	}
	for id, html := range f.pages {
		if strings.Contains(pageURL, id) {
			return &fetch.Result{HTML: html, FinalURL: pageURL, StatusCode: 200, Status: fetch.PageFound}, nil
		}
	}
	return &fetch.Result{FinalURL: pageURL, StatusCode: 404, Status: fetch.PageNotFound}, nil
}

// memStore is an in-memory RecordStore for resume tests.
type memStore struct {
	entries map[string]*models.ProjectDBEntry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*models.ProjectDBEntry)}
}

func (m *memStore) CheckProject(id string) (*models.ProjectDBEntry, error) { return m.entries[id], nil }
func (m *memStore) UpdateProject(id string, e *models.ProjectDBEntry) error {
	m.entries[id] = e
	return nil
}
func (m *memStore) ProcessedCount() (int, error) { return len(m.entries), nil }
func (m *memStore) Close() error                 { return nil }

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func pageWithObjectives(text string) string {
	return fmt.Sprintf("<html><body><h2>Objectives</h2><p>%s</p></body></html>", text)
}

func newRunner(t *testing.T, fetcher fetch.Fetcher, store *memStore) (*Runner, string) {
	t.Helper()
	log := testLogger()
	outPath := filepath.Join(t.TempDir(), "out.csv")
	writer, err := csvio.NewRecordWriter(outPath, false, log)
	require.NoError(t, err)
	t.Cleanup(func() { writer.Close() })

	builder := extract.NewRowBuilder(fetcher, testBase, testTemplates, log)
	// A typed nil pointer in the interface would defeat the store == nil check
	if store == nil {
		return NewRunner(builder, writer, nil, nil, log), outPath
	}
	return NewRunner(builder, writer, nil, store, log), outPath
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRun_AllRowsInOrder(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"P-XX-001": pageWithObjectives("First."),
		"P-XX-003": pageWithObjectives("Third."),
	}}
	runner, outPath := newRunner(t, fetcher, nil)

	summary, err := runner.Run(context.Background(), []string{"P-XX-001", "P-XX-002", "P-XX-003"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 2, summary.OK)
	assert.Equal(t, 1, summary.NotFound)

	rows := readRows(t, outPath)
	require.Len(t, rows, 4) // header + 3 records, input order preserved
	assert.Equal(t, "P-XX-001", rows[1][0])
	assert.Equal(t, "P-XX-002", rows[2][0])
	assert.Equal(t, "not_found", rows[2][5])
	assert.Equal(t, "P-XX-003", rows[3][0])
}

func TestRun_ErrorRowDoesNotAbort(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{"P-XX-002": pageWithObjectives("Fine.")},
		errs:  map[string]error{"P-XX-001": fmt.Errorf("%w: status 403", utils.ErrBlocked)},
	}
	runner, outPath := newRunner(t, fetcher, nil)

	summary, err := runner.Run(context.Background(), []string{"P-XX-001", "P-XX-002"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.OK)

	rows := readRows(t, outPath)
	require.Len(t, rows, 3)
	assert.Equal(t, "error", rows[1][5])
	assert.Equal(t, "HTTP_403", rows[1][6])
	assert.Equal(t, "ok", rows[2][5])
}

func TestRun_MaxRowsCap(t *testing.T) {
	fetcher := &fakeFetcher{}
	runner, outPath := newRunner(t, fetcher, nil)

	summary, err := runner.Run(context.Background(), []string{"A", "B", "C", "D"}, Options{MaxRows: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	rows := readRows(t, outPath)
	assert.Len(t, rows, 3)
}

func TestRun_ResumeSkipsCompleted(t *testing.T) {
	store := newMemStore()
	store.entries["P-XX-001"] = &models.ProjectDBEntry{Status: "ok"}
	store.entries["P-XX-002"] = &models.ProjectDBEntry{Status: "error"}

	fetcher := &fakeFetcher{pages: map[string]string{
		"P-XX-002": pageWithObjectives("Retried."),
		"P-XX-003": pageWithObjectives("New."),
	}}
	runner, outPath := newRunner(t, fetcher, store)

	summary, err := runner.Run(context.Background(), []string{"P-XX-001", "P-XX-002", "P-XX-003"}, Options{Resume: true})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Processed)

	rows := readRows(t, outPath)
	require.Len(t, rows, 3)
	// Previously errored row is retried, completed row is not rewritten
	assert.Equal(t, "P-XX-002", rows[1][0])
	assert.Equal(t, "P-XX-003", rows[2][0])

	// Store reflects the new outcomes
	assert.Equal(t, "ok", store.entries["P-XX-002"].Status)
	assert.Equal(t, "ok", store.entries["P-XX-003"].Status)
}

func TestRun_CancelledContext(t *testing.T) {
	fetcher := &fakeFetcher{}
	runner, _ := newRunner(t, fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, []string{"A", "B"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
