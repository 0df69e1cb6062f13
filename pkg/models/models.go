package models

import (
	"strings"
	"time"
)

// ContentKind classifies a discovered content item by its URL path shape.
type ContentKind string

const (
	KindPost ContentKind = "Post"
	KindReel ContentKind = "Reel"
)

// ClassifyURL derives the content kind purely from the URL path.
// A /reel/ segment wins over /p/; the kind is never reassigned afterwards.
func ClassifyURL(url string) ContentKind {
	if strings.Contains(url, "/reel/") {
		return KindReel
	}
	return KindPost
}

// ContentLink is one discovered content item. The URL is the natural key;
// collection runs deduplicate on it across overlapping scroll snapshots.
type ContentLink struct {
	URL  string      `json:"url"`
	Kind ContentKind `json:"kind"`
}

// NewContentLink builds a classified link from an absolute URL.
func NewContentLink(url string) ContentLink {
	return ContentLink{URL: url, Kind: ClassifyURL(url)}
}

// LikesState distinguishes the three outcomes of likes resolution.
// "not found" means the UI had no likes element after all strategies were
// exhausted; "error" means an exception occurred retrieving it. The two
// must never be conflated downstream.
type LikesState int

const (
	LikesFound LikesState = iota
	LikesNotFound
	LikesError
)

// LikesValue is the tagged result of likes resolution.
type LikesValue struct {
	State LikesState `json:"state"`
	// Count holds a numeric-as-string or locale-suffixed value ("12K")
	// and is only meaningful when State == LikesFound.
	Count string `json:"count,omitempty"`
}

// LikesOf wraps a successfully extracted count.
func LikesOf(count string) LikesValue {
	return LikesValue{State: LikesFound, Count: count}
}

// LikesMissing marks that no likes element was located.
func LikesMissing() LikesValue {
	return LikesValue{State: LikesNotFound}
}

// LikesFailed marks that extraction raised an error.
func LikesFailed() LikesValue {
	return LikesValue{State: LikesError}
}

// String renders the value for export; the sentinels stay distinct and
// neither parses as a number.
func (v LikesValue) String() string {
	switch v.State {
	case LikesFound:
		return v.Count
	case LikesError:
		return "ERROR"
	default:
		return "N/A"
	}
}

// NoTagsSentinel is the single-element tagged-accounts value meaning
// "looked, found none". An empty slice means tags were not requested.
const NoTagsSentinel = "No tags"

// NoTags returns the sentinel tagged-accounts list.
func NoTags() []string {
	return []string{NoTagsSentinel}
}

// HasTags reports whether a tagged-accounts list carries real usernames.
func HasTags(tagged []string) bool {
	if len(tagged) == 0 {
		return false
	}
	return !(len(tagged) == 1 && tagged[0] == NoTagsSentinel)
}

// ContentRecord holds the extracted facts for one ContentLink. Records are
// immutable after creation; a retry produces a replacement record, never a
// merge of partial fields.
type ContentRecord struct {
	URL            string      `json:"url"`
	Kind           ContentKind `json:"kind"`
	TaggedAccounts []string    `json:"tagged_accounts"`
	Likes          LikesValue  `json:"likes"`
	Timestamp      string      `json:"timestamp"`
	ScrapedAt      time.Time   `json:"scraped_at"`
	Elapsed        time.Duration `json:"elapsed"`
	// Attempted is true only for records produced by visiting the item,
	// error records included. Backfilled placeholders leave it false so
	// a resumed run knows the item was never reached.
	Attempted bool `json:"attempted"`
}

// ErrorRecord builds the placeholder record emitted when extraction of a
// single item failed outright.
func ErrorRecord(link ContentLink) ContentRecord {
	return ContentRecord{
		URL:            link.URL,
		Kind:           link.Kind,
		TaggedAccounts: []string{},
		Likes:          LikesFailed(),
		Timestamp:      "N/A",
		ScrapedAt:      time.Now(),
		Attempted:      true,
	}
}

// PlaceholderRecord builds the "not available" record backfilled for URLs
// whose parallel batch produced no result at all.
func PlaceholderRecord(link ContentLink) ContentRecord {
	return ContentRecord{
		URL:            link.URL,
		Kind:           link.Kind,
		TaggedAccounts: []string{},
		Likes:          LikesMissing(),
		Timestamp:      "N/A",
		ScrapedAt:      time.Now(),
	}
}

// ProfileStats holds the headline counters scraped from a profile page.
// Values stay as display strings ("1,024" or "12.5K") since the UI may
// abbreviate them.
type ProfileStats struct {
	Username  string `json:"username"`
	Posts     string `json:"posts"`
	Followers string `json:"followers"`
	Following string `json:"following"`
}

// ExtractionSummary aggregates per-run extraction outcomes. NotFound and
// Error are counted separately on purpose.
type ExtractionSummary struct {
	Total         int `json:"total"`
	LikesFound    int `json:"likes_found"`
	LikesNotFound int `json:"likes_not_found"`
	LikesErrors   int `json:"likes_errors"`
	WithTags      int `json:"with_tags"`
}

// Summarize computes aggregate statistics over a record set.
func Summarize(records []ContentRecord) ExtractionSummary {
	s := ExtractionSummary{Total: len(records)}
	for _, r := range records {
		switch r.Likes.State {
		case LikesFound:
			s.LikesFound++
		case LikesNotFound:
			s.LikesNotFound++
		case LikesError:
			s.LikesErrors++
		}
		if HasTags(r.TaggedAccounts) {
			s.WithTags++
		}
	}
	return s
}
