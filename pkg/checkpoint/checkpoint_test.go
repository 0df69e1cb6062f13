package checkpoint

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/models"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir, "someone")
	require.NoError(t, err)
	return m, dir
}

func TestCreateLoadRoundtrip(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.Create("someone")
	require.NoError(t, err)
	assert.Equal(t, PhaseStarted, created.Phase)

	created.Phase = PhaseLinks
	created.Links = []models.ContentLink{models.NewContentLink("https://www.instagram.com/p/abc/")}
	created.Stats = models.ProfileStats{Username: "someone", Posts: "12"}
	require.NoError(t, m.Save(created))

	loaded, err := m.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, PhaseLinks, loaded.Phase)
	assert.Equal(t, created.Links, loaded.Links)
	assert.Equal(t, "12", loaded.Stats.Posts)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestLoadMissingReturnsNil(t *testing.T) {
	m, _ := newTestManager(t)

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
	assert.False(t, m.Exists())
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	m, dir := newTestManager(t)

	_, err := m.Create("someone")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "checkpoints"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasSuffix(entries[0].Name(), ".tmp"))
}

func TestExtractedURLs(t *testing.T) {
	c := &Checkpoint{
		Records: []models.ContentRecord{
			{URL: "https://www.instagram.com/p/a/", Attempted: true},
			{URL: "https://www.instagram.com/p/b/", Attempted: true},
		},
	}

	done := c.ExtractedURLs()
	assert.True(t, done["https://www.instagram.com/p/a/"])
	assert.False(t, done["https://www.instagram.com/p/c/"])
}

func TestExtractedURLsSkipsPlaceholders(t *testing.T) {
	// A cancelled run backfills placeholders for items it never reached;
	// those items are still pending on resume.
	visited := models.NewContentLink("https://www.instagram.com/p/a/")
	skipped := models.NewContentLink("https://www.instagram.com/p/b/")
	c := &Checkpoint{
		Records: []models.ContentRecord{
			{URL: visited.URL, Attempted: true},
			models.PlaceholderRecord(skipped),
		},
	}

	done := c.ExtractedURLs()
	assert.True(t, done[visited.URL])
	assert.False(t, done[skipped.URL])
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Create("someone")
	require.NoError(t, err)
	require.True(t, m.Exists())

	require.NoError(t, m.Delete())
	assert.False(t, m.Exists())
	assert.NoError(t, m.Delete(), "deleting a missing checkpoint is not an error")
}
