package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/page"
)

func newTestFollowerCollector(p page.Page) *FollowerCollector {
	c := NewFollowerCollector(p, testConfig(), logger.NewNopLogger())
	c.sleep = func(time.Duration) {}
	return c
}

func dialogWith(handles ...string) *page.FakeElement {
	spans := make([]*page.FakeElement, 0, len(handles))
	for _, h := range handles {
		spans = append(spans, &page.FakeElement{
			Children: map[string][]*page.FakeElement{
				selDialogAnchor: {{Attrs: map[string]string{"href": "/" + h + "/"}}},
			},
		})
	}
	return &page.FakeElement{
		Children: map[string][]*page.FakeElement{selDialogUserSpan: spans},
	}
}

// popupPage scripts a followers link plus successive popup states keyed
// off how many scroll evaluations have run.
func popupPage(batches ...*page.FakeElement) *page.FakePage {
	fp := &page.FakePage{}
	link := &page.FakeElement{Attrs: map[string]string{"href": "/someone/followers/"}}
	fp.QueryFunc = func(selector string) ([]page.Element, error) {
		switch selector {
		case selFollowersLink, selFollowingLink:
			return []page.Element{link}, nil
		case selDialog:
			idx := len(fp.EvalScripts)
			if idx >= len(batches) {
				idx = len(batches) - 1
			}
			return []page.Element{batches[idx]}, nil
		}
		return nil, nil
	}
	return fp
}

func TestFollowerCollectorDiscoveryOrder(t *testing.T) {
	fp := popupPage(
		dialogWith("zoe", "adam"),
		dialogWith("adam", "mira"),
		dialogWith("adam", "mira"),
	)

	handles, err := newTestFollowerCollector(fp).Collect(ListFollowers, 0)

	require.NoError(t, err)
	// Discovery order, never sorted.
	assert.Equal(t, []string{"zoe", "adam", "mira"}, handles)
}

func TestFollowerCollectorLimitMidCycle(t *testing.T) {
	fp := popupPage(dialogWith("a", "b", "c", "d", "e"))

	handles, err := newTestFollowerCollector(fp).Collect(ListFollowers, 3)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, handles)
	assert.Empty(t, fp.EvalScripts, "limit hit inside the first cycle, no scroll expected")
}

func TestFollowerCollectorFiltersReservedPaths(t *testing.T) {
	dialog := dialogWith("real_user")
	dialog.Children[selDialogUserSpan] = append(dialog.Children[selDialogUserSpan],
		&page.FakeElement{
			Children: map[string][]*page.FakeElement{
				selDialogAnchor: {{Attrs: map[string]string{"href": "/explore/"}}},
			},
		})
	fp := popupPage(dialog)

	handles, err := newTestFollowerCollector(fp).Collect(ListFollowers, 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"real_user"}, handles)
}

func TestFollowerCollectorMissingLink(t *testing.T) {
	fp := &page.FakePage{}

	_, err := newTestFollowerCollector(fp).Collect(ListFollowers, 0)

	require.Error(t, err)
	var herr *errors.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, errors.ErrorTypeNotFound, herr.Type)
}

func TestFollowerCollectorClicksListLink(t *testing.T) {
	var clicked []string
	fp := &page.FakePage{}
	fp.QueryFunc = func(selector string) ([]page.Element, error) {
		switch selector {
		case selFollowingLink:
			return []page.Element{&page.FakeElement{OnClick: func() {
				clicked = append(clicked, selector)
			}}}, nil
		case selDialog:
			return []page.Element{dialogWith()}, nil
		}
		return nil, nil
	}

	_, err := newTestFollowerCollector(fp).Collect(ListFollowing, 0)

	require.NoError(t, err)
	assert.Equal(t, []string{selFollowingLink}, clicked)
}
