package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

func timeElement(title, datetime, text string) *page.FakeElement {
	attrs := map[string]string{}
	if title != "" {
		attrs["title"] = title
	}
	if datetime != "" {
		attrs["datetime"] = datetime
	}
	return &page.FakeElement{Attrs: attrs, TextValue: text}
}

func pageWithTimes(selector string, elems ...*page.FakeElement) *page.FakePage {
	fp := &page.FakePage{}
	fp.QueryFunc = func(sel string) ([]page.Element, error) {
		if sel == selector {
			out := make([]page.Element, 0, len(elems))
			for _, e := range elems {
				out = append(out, e)
			}
			return out, nil
		}
		return nil, nil
	}
	return fp
}

func TestResolveTimestampPrefersTitle(t *testing.T) {
	fp := pageWithTimes(selAnyTime, timeElement("Jan 5, 2026", "2026-01-05T10:00:00Z", "3d"))

	assert.Equal(t, "Jan 5, 2026", ResolveTimestamp(fp, models.KindPost))
}

func TestResolveTimestampFallsBackToDatetime(t *testing.T) {
	fp := pageWithTimes(selAnyTime, timeElement("", "2026-01-05T10:00:00Z", "3d"))

	assert.Equal(t, "2026-01-05T10:00:00Z", ResolveTimestamp(fp, models.KindPost))
}

func TestResolveTimestampFallsBackToText(t *testing.T) {
	fp := pageWithTimes(selAnyTime, timeElement("", "", " 3 days ago "))

	assert.Equal(t, "3 days ago", ResolveTimestamp(fp, models.KindPost))
}

func TestResolveTimestampReelScopeWins(t *testing.T) {
	fp := &page.FakePage{}
	fp.QueryFunc = func(sel string) ([]page.Element, error) {
		switch sel {
		case selReelTime:
			return []page.Element{timeElement("Feb 1, 2026", "", "")}, nil
		case selAnyTime:
			return []page.Element{timeElement("Mar 9, 2026", "", "")}, nil
		}
		return nil, nil
	}

	assert.Equal(t, "Feb 1, 2026", ResolveTimestamp(fp, models.KindReel))
	assert.Equal(t, "Mar 9, 2026", ResolveTimestamp(fp, models.KindPost))
}

func TestResolveTimestampMissing(t *testing.T) {
	assert.Equal(t, "N/A", ResolveTimestamp(&page.FakePage{}, models.KindReel))
}
