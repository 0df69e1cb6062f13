package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Collection.NoProgressThreshold = 2
	cfg.Collection.PopupNoProgressThreshold = 2
	cfg.Collection.MaxCycles = 20
	cfg.Collection.PollInterval = time.Millisecond
	cfg.Collection.PollCeiling = time.Millisecond
	return cfg
}

func newTestLinkCollector(p page.Page) *LinkCollector {
	c := NewLinkCollector(p, testConfig(), logger.NewNopLogger())
	c.sleep = func(time.Duration) {}
	return c
}

func anchorsFor(hrefs ...string) []*page.FakeElement {
	anchors := make([]*page.FakeElement, 0, len(hrefs))
	for _, href := range hrefs {
		anchors = append(anchors, &page.FakeElement{Attrs: map[string]string{"href": href}})
	}
	return anchors
}

// scriptedPage serves successive anchor batches keyed off the scroll
// count, so each scroll cycle reveals the next batch. Past the last
// batch the feed stays frozen.
func scriptedPage(batches [][]string) *page.FakePage {
	fp := &page.FakePage{}
	fp.QueryFunc = func(selector string) ([]page.Element, error) {
		if selector != selContentAnchor {
			return nil, nil
		}
		idx := fp.ScrollCount
		if idx >= len(batches) {
			idx = len(batches) - 1
		}
		elems := make([]page.Element, 0)
		for _, a := range anchorsFor(batches[idx]...) {
			elems = append(elems, a)
		}
		return elems, nil
	}
	return fp
}

func TestLinkCollectorDedupAndConvergence(t *testing.T) {
	fp := scriptedPage([][]string{
		{"https://www.instagram.com/p/bbb/", "https://www.instagram.com/p/aaa/"},
		{"https://www.instagram.com/p/aaa/", "https://www.instagram.com/reel/ccc/"},
		{},
	})

	links := newTestLinkCollector(fp).Collect(0)

	require.Len(t, links, 3)
	assert.Equal(t, "https://www.instagram.com/p/aaa/", links[0].URL)
	assert.Equal(t, "https://www.instagram.com/p/bbb/", links[1].URL)
	assert.Equal(t, "https://www.instagram.com/reel/ccc/", links[2].URL)
	assert.Equal(t, models.KindPost, links[0].Kind)
	assert.Equal(t, models.KindReel, links[2].Kind)
}

func TestLinkCollectorStopsAtTarget(t *testing.T) {
	fp := scriptedPage([][]string{
		{"https://www.instagram.com/p/aaa/", "https://www.instagram.com/p/bbb/", "https://www.instagram.com/p/ccc/"},
	})

	links := newTestLinkCollector(fp).Collect(2)

	// The whole visible batch lands before the target check, so the
	// result can overshoot the target but never scrolls past it.
	assert.Len(t, links, 3)
	assert.Zero(t, fp.ScrollCount)
}

func TestLinkCollectorFiltersAndNormalizes(t *testing.T) {
	fp := scriptedPage([][]string{
		{"/p/abc/", "/explore/", "https://www.instagram.com/reel/xyz/", ""},
		{},
	})

	links := newTestLinkCollector(fp).Collect(0)

	require.Len(t, links, 2)
	assert.Equal(t, "https://www.instagram.com/p/abc/", links[0].URL)
	assert.Equal(t, "https://www.instagram.com/reel/xyz/", links[1].URL)
}

func TestLinkCollectorScopesToGridRows(t *testing.T) {
	row := &page.FakeElement{
		Children: map[string][]*page.FakeElement{
			selContentAnchor: anchorsFor("https://www.instagram.com/p/scoped/"),
		},
	}
	flatQueried := false
	fp := &page.FakePage{}
	fp.QueryFunc = func(selector string) ([]page.Element, error) {
		switch selector {
		case selGridContainer:
			return []page.Element{row}, nil
		case selContentAnchor:
			flatQueried = true
		}
		return nil, nil
	}

	links := newTestLinkCollector(fp).Collect(1)

	require.Len(t, links, 1)
	assert.Equal(t, "https://www.instagram.com/p/scoped/", links[0].URL)
	assert.False(t, flatQueried, "rows present, flat anchor scan must not run")
}

func TestLinkCollectorRepeatedExtractionIsIdempotent(t *testing.T) {
	// The same batch served forever adds nothing after cycle one and
	// the no-progress counter terminates the collector.
	fp := scriptedPage([][]string{
		{"https://www.instagram.com/p/only/"},
	})

	links := newTestLinkCollector(fp).Collect(0)

	require.Len(t, links, 1)
}

func TestLinkCollectorEmptyFeedConvergesEmpty(t *testing.T) {
	fp := &page.FakePage{}

	links := newTestLinkCollector(fp).Collect(0)

	assert.Empty(t, links)
}
