// Package profile reads the headline counters from a profile page.
package profile

import (
	"strings"

	"igharvest/pkg/config"
	"igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

const (
	selHeaderStats = `header section ul li`
	selStatValue   = `span span, span`
)

// Scraper extracts posts/followers/following counts from the profile
// header. Counts stay as display strings; the follower counter is often
// abbreviated ("12.5K") with the exact value only in the title
// attribute, so that attribute is preferred where present.
type Scraper struct {
	page    page.Page
	baseURL string
	logger  logger.Logger
}

// NewScraper builds a profile scraper.
func NewScraper(p page.Page, cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{page: p, baseURL: cfg.Instagram.BaseURL, logger: log}
}

// URL returns the canonical profile URL for a username.
func (s *Scraper) URL(username string) string {
	return s.baseURL + "/" + strings.Trim(username, "/@ ") + "/"
}

// Scrape navigates to the profile and reads its stats. A header that
// renders without the counter list is a not-found profile or a page the
// session cannot see.
func (s *Scraper) Scrape(username string) (models.ProfileStats, error) {
	stats := models.ProfileStats{
		Username:  strings.Trim(username, "/@ "),
		Posts:     "N/A",
		Followers: "N/A",
		Following: "N/A",
	}

	if err := s.page.Navigate(s.URL(username)); err != nil {
		return stats, err
	}

	items, err := s.page.Query(selHeaderStats)
	if err != nil {
		return stats, errors.NewAt(errors.ErrorTypeExtraction, s.URL(username), "profile header query failed: "+err.Error())
	}
	if len(items) == 0 {
		return stats, errors.NewAt(errors.ErrorTypeNotFound, s.URL(username), "profile stats not present")
	}

	// Header order is fixed: posts, followers, following.
	values := []*string{&stats.Posts, &stats.Followers, &stats.Following}
	for i, item := range items {
		if i >= len(values) {
			break
		}
		if v := statValue(item); v != "" {
			*values[i] = v
		}
	}

	s.logger.InfoWithFields("profile scraped", map[string]interface{}{
		"username":  stats.Username,
		"posts":     stats.Posts,
		"followers": stats.Followers,
		"following": stats.Following,
	})
	return stats, nil
}

// statValue reads one counter, preferring the exact title attribute over
// the abbreviated display text.
func statValue(item page.Element) string {
	spans, err := item.Query(selStatValue)
	if err == nil {
		for _, span := range spans {
			if title, ok, err := span.Attribute("title"); err == nil && ok && strings.TrimSpace(title) != "" {
				return strings.TrimSpace(title)
			}
		}
	}

	text, err := item.Text()
	if err != nil {
		return ""
	}
	// Displayed as "1,024 followers"; the leading token is the count.
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
