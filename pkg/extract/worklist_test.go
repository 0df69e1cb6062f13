package extract

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

func linksNamed(names ...string) []models.ContentLink {
	links := make([]models.ContentLink, 0, len(names))
	for _, n := range names {
		links = append(links, models.NewContentLink("https://www.instagram.com/p/"+n+"/"))
	}
	return links
}

func newTestWorklist(parallel int) *WorklistExtractor {
	cfg := fastConfig()
	cfg.Extraction.Parallel = parallel
	w := NewWorklistExtractor(cfg, logger.NewNopLogger())
	w.sleep = func(time.Duration) {}
	return w
}

func fakeFactory(counter *int, mu *sync.Mutex) PageFactory {
	return func(ctx context.Context) (page.Page, func(), error) {
		mu.Lock()
		*counter++
		mu.Unlock()
		return &page.FakePage{}, func() {}, nil
	}
}

func TestSplitBatches(t *testing.T) {
	cases := []struct {
		items, workers int
		sizes          []int
	}{
		{10, 3, []int{4, 3, 3}},
		{5, 2, []int{3, 2}},
		{6, 3, []int{2, 2, 2}},
		{3, 5, []int{1, 1, 1, 0, 0}},
		{0, 2, []int{0, 0}},
	}
	for _, tc := range cases {
		links := make([]models.ContentLink, tc.items)
		batches := splitBatches(links, tc.workers)
		require.Len(t, batches, len(tc.sizes))
		total := 0
		for i, b := range batches {
			assert.Len(t, b, tc.sizes[i], "%d items / %d workers, batch %d", tc.items, tc.workers, i)
			total += len(b)
		}
		assert.Equal(t, tc.items, total)
	}
}

func TestSplitBatchesContiguous(t *testing.T) {
	links := linksNamed("a", "b", "c", "d", "e")
	batches := splitBatches(links, 2)

	assert.Equal(t, links[:3], batches[0])
	assert.Equal(t, links[3:], batches[1])
}

func TestWorklistSequentialOrderAndStreaming(t *testing.T) {
	links := linksNamed("a", "b", "c")
	var streamed []string
	pages := 0
	var mu sync.Mutex

	records, err := newTestWorklist(1).Run(context.Background(), fakeFactory(&pages, &mu), links,
		func(r models.ContentRecord) { streamed = append(streamed, r.URL) })

	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, link := range links {
		assert.Equal(t, link.URL, records[i].URL)
	}
	assert.Len(t, streamed, 3, "every record streams before the run returns")
	assert.Equal(t, 1, pages, "sequential mode opens one page")
}

func TestWorklistParallelPreservesInputOrder(t *testing.T) {
	links := linksNamed("f", "e", "d", "c", "b", "a")
	pages := 0
	var mu sync.Mutex

	records, err := newTestWorklist(3).Run(context.Background(), fakeFactory(&pages, &mu), links, nil)

	require.NoError(t, err)
	require.Len(t, records, len(links))
	for i, link := range links {
		assert.Equal(t, link.URL, records[i].URL, "input order survives parallel execution")
	}
	assert.Equal(t, 3, pages, "one page per worker")
}

func TestWorklistParallelCapsWorkersAtItems(t *testing.T) {
	links := linksNamed("a", "b")
	pages := 0
	var mu sync.Mutex

	records, err := newTestWorklist(8).Run(context.Background(), fakeFactory(&pages, &mu), links, nil)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, pages)
}

func TestWorklistBackfillsPlaceholdersOnCancel(t *testing.T) {
	links := linksNamed("a", "b", "c", "d")
	ctx, cancel := context.WithCancel(context.Background())

	extracted := 0
	factory := func(context.Context) (page.Page, func(), error) {
		fp := &page.FakePage{}
		fp.NavigateFunc = func(string) error {
			extracted++
			if extracted == 2 {
				cancel()
			}
			return nil
		}
		return fp, func() {}, nil
	}

	records, err := newTestWorklist(1).Run(ctx, factory, links, nil)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, records, len(links), "every input URL has a record")
	assert.Equal(t, models.LikesNotFound, records[3].Likes.State)
	assert.Equal(t, "N/A", records[3].Timestamp)
}

func TestWorklistEmptyInput(t *testing.T) {
	records, err := newTestWorklist(2).Run(context.Background(), nil, nil, nil)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWorklistNavigationFailureYieldsErrorRecord(t *testing.T) {
	links := linksNamed("a", "b")
	factory := func(context.Context) (page.Page, func(), error) {
		fp := &page.FakePage{}
		fp.NavigateFunc = func(url string) error {
			if url == links[0].URL {
				return assert.AnError
			}
			return nil
		}
		return fp, func() {}, nil
	}

	records, err := newTestWorklist(1).Run(context.Background(), factory, links, nil)

	require.NoError(t, err, "a non-fatal item failure does not fail the run")
	require.Len(t, records, 2)
	assert.Equal(t, models.LikesError, records[0].Likes.State)
	assert.Equal(t, models.LikesNotFound, records[1].Likes.State)
}
