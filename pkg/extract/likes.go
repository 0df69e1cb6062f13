package extract

import (
	"strings"

	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

// likesStrategy attempts one way of reading the likes count. found is
// false when the markup this strategy targets is absent; err is reserved
// for page-level failures, not misses.
type likesStrategy struct {
	name string
	run  func(p page.Page) (count string, found bool, err error)
}

var likesStrategies = []likesStrategy{
	{"section_span", likesFromSectionSpans},
	{"class_span", likesFromClassSpan},
	{"liked_by_link", likesFromLikedByLink},
	{"text_search", likesFromTextSearch},
}

// ResolveLikes runs the likes cascade. A failing strategy never blocks
// the ones after it: a later strategy can still recover the count. The
// error value is returned only when a strategy errored and nothing
// after it succeeded; a clean miss in every strategy yields the
// not-found value. The two outcomes stay distinct.
func ResolveLikes(p page.Page, log logger.Logger) models.LikesValue {
	errored := false
	for _, s := range likesStrategies {
		count, found, err := s.run(p)
		if err != nil {
			log.WithError(err).WithField("strategy", s.name).Warn("likes extraction failed")
			errored = true
			continue
		}
		logger.LogExtraction("", "likes", s.name, found)
		if found {
			return models.LikesOf(count)
		}
	}
	if errored {
		return models.LikesFailed()
	}
	return models.LikesMissing()
}

// likesFromSectionSpans reads the action section under the media. The
// count sits in one of the first two role=button spans; anything past
// those is comment or share chrome.
func likesFromSectionSpans(p page.Page) (string, bool, error) {
	spans, err := p.Query(selLikesSectionSpan)
	if err != nil {
		return "", false, err
	}
	limit := len(spans)
	if limit > 2 {
		limit = 2
	}
	for _, span := range spans[:limit] {
		text, err := span.Text()
		if err != nil {
			continue
		}
		if count, ok := normalizeCount(text); ok {
			return count, true, nil
		}
	}
	return "", false, nil
}

func likesFromClassSpan(p page.Page) (string, bool, error) {
	spans, err := p.Query(selLikesClassSpan)
	if err != nil {
		return "", false, err
	}
	for _, span := range spans {
		text, err := span.Text()
		if err != nil {
			continue
		}
		if count, ok := normalizeCount(text); ok {
			return count, true, nil
		}
	}
	return "", false, nil
}

// likesFromLikedByLink reads the count nested inside the liked_by
// permalink.
func likesFromLikedByLink(p page.Page) (string, bool, error) {
	anchors, err := p.Query(selLikedByAnchor)
	if err != nil {
		return "", false, err
	}
	for _, anchor := range anchors {
		inner, err := anchor.Query(selLikedByInner)
		if err != nil || len(inner) == 0 {
			continue
		}
		text, err := inner[0].Text()
		if err != nil {
			continue
		}
		if count, ok := normalizeCount(text); ok {
			return count, true, nil
		}
	}
	return "", false, nil
}

// likesFromTextSearch scans for any span whose text reads "<count> likes".
func likesFromTextSearch(p page.Page) (string, bool, error) {
	spans, err := p.QueryXPath(xpLikesText)
	if err != nil {
		return "", false, err
	}
	for _, span := range spans {
		text, err := span.Text()
		if err != nil {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 || fields[len(fields)-1] != "likes" {
			continue
		}
		if count, ok := normalizeCount(fields[0]); ok {
			return count, true, nil
		}
	}
	return "", false, nil
}

// normalizeCount validates that text looks like a rendered count: plain
// digits with optional thousand separators, or a decimal with a K/M
// abbreviation. The display form is kept as-is.
func normalizeCount(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	body := text
	if last := body[len(body)-1]; last == 'K' || last == 'M' || last == 'k' || last == 'm' {
		body = body[:len(body)-1]
	}
	body = strings.ReplaceAll(body, ",", "")

	digits := 0
	dots := 0
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return "", false
		}
	}
	if digits == 0 || dots > 1 {
		return "", false
	}
	return text, true
}
