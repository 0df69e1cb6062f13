package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	e, err := NewExporter(cfg, "someone", logger.NewNopLogger())
	require.NoError(t, err)
	return e
}

func TestWriteLinksTSV(t *testing.T) {
	e := newTestExporter(t)
	links := []models.ContentLink{
		models.NewContentLink("https://www.instagram.com/p/abc/"),
		models.NewContentLink("https://www.instagram.com/reel/def/"),
	}

	require.NoError(t, e.WriteLinks(links))

	data, err := os.ReadFile(filepath.Join(e.Dir(), "content_links.tsv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "https://www.instagram.com/p/abc/\tPost", lines[0])
	assert.Equal(t, "https://www.instagram.com/reel/def/\tReel", lines[1])
}

func TestRecordsWriterFlushesPerRow(t *testing.T) {
	e := newTestExporter(t)
	w, err := e.OpenRecords(false)
	require.NoError(t, err)

	record := models.ContentRecord{
		URL:            "https://www.instagram.com/p/abc/",
		Kind:           models.KindPost,
		TaggedAccounts: []string{"alpha", "beta"},
		Likes:          models.LikesOf("1,234"),
		Timestamp:      "Jan 5, 2026",
		ScrapedAt:      time.Date(2026, 1, 5, 10, 30, 0, 0, time.UTC),
		Elapsed:        4321 * time.Millisecond,
	}
	require.NoError(t, w.Append(record))

	// The row must be on disk before Close.
	data, err := os.ReadFile(filepath.Join(e.Dir(), "content_records.csv"))
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, recordHeader, rows[0])
	assert.Equal(t, []string{
		"https://www.instagram.com/p/abc/", "Post", "alpha, beta",
		"1,234", "Jan 5, 2026", "2026-01-05 10:30:00", "4.32s",
	}, rows[1])

	require.NoError(t, w.Close())
}

func TestRecordsWriterSentinels(t *testing.T) {
	e := newTestExporter(t)
	w, err := e.OpenRecords(false)
	require.NoError(t, err)
	defer w.Close()

	link := models.NewContentLink("https://www.instagram.com/p/broken/")
	require.NoError(t, w.Append(models.ErrorRecord(link)))

	notFound := models.PlaceholderRecord(link)
	notFound.TaggedAccounts = models.NoTags()
	require.NoError(t, w.Append(notFound))

	data, err := os.ReadFile(filepath.Join(e.Dir(), "content_records.csv"))
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ERROR", rows[1][3])
	assert.Equal(t, "N/A", rows[2][3])
	assert.Equal(t, "No tags", rows[2][2])
}

func TestOpenRecordsResumeAppends(t *testing.T) {
	e := newTestExporter(t)

	first, err := e.OpenRecords(false)
	require.NoError(t, err)
	require.NoError(t, first.Append(models.ErrorRecord(models.NewContentLink("https://www.instagram.com/p/one/"))))
	require.NoError(t, first.Close())

	// A resumed run must keep the interrupted run's rows and not write
	// a second header.
	second, err := e.OpenRecords(true)
	require.NoError(t, err)
	require.NoError(t, second.Append(models.ErrorRecord(models.NewContentLink("https://www.instagram.com/p/two/"))))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(filepath.Join(e.Dir(), "content_records.csv"))
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, recordHeader, rows[0])
	assert.Equal(t, "https://www.instagram.com/p/one/", rows[1][0])
	assert.Equal(t, "https://www.instagram.com/p/two/", rows[2][0])
}

func TestOpenRecordsResumeWithoutFileStartsFresh(t *testing.T) {
	e := newTestExporter(t)

	w, err := e.OpenRecords(true)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(e.Dir(), "content_records.csv"))
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, recordHeader, rows[0])
}

func TestWriteResultsAtomic(t *testing.T) {
	e := newTestExporter(t)
	summary := models.Summarize([]models.ContentRecord{
		{Likes: models.LikesOf("5"), TaggedAccounts: []string{"a"}},
		{Likes: models.LikesMissing(), TaggedAccounts: models.NoTags()},
	})

	require.NoError(t, e.WriteResults(summary))

	data, err := os.ReadFile(filepath.Join(e.Dir(), "results.json"))
	require.NoError(t, err)
	var got models.ExtractionSummary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.LikesFound)
	assert.Equal(t, 1, got.LikesNotFound)
	assert.Equal(t, 1, got.WithTags)

	entries, err := os.ReadDir(e.Dir())
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"))
	}
}
