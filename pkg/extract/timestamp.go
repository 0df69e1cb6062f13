package extract

import (
	"strings"

	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

// ResolveTimestamp reads the post timestamp from the first usable time
// element. Reels render their clock inside a dedicated wrapper, so that
// scope is tried before the page-wide scan. For each element the title
// attribute (full human date) is preferred over the datetime attribute
// (ISO instant) over the displayed relative text.
func ResolveTimestamp(p page.Page, kind models.ContentKind) string {
	if kind == models.KindReel {
		if ts := timestampFrom(p, selReelTime); ts != "" {
			return ts
		}
	}
	if ts := timestampFrom(p, selAnyTime); ts != "" {
		return ts
	}
	return "N/A"
}

func timestampFrom(p page.Page, selector string) string {
	elems, err := p.Query(selector)
	if err != nil {
		return ""
	}
	for _, elem := range elems {
		if title, ok, err := elem.Attribute("title"); err == nil && ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
		if dt, ok, err := elem.Attribute("datetime"); err == nil && ok && strings.TrimSpace(dt) != "" {
			return strings.TrimSpace(dt)
		}
		if text, err := elem.Text(); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return ""
}
