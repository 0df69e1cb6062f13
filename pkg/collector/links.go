// Package collector drives scroll-and-converge collection over lazily
// rendered feeds: the profile content grid and the follower popup.
package collector

import (
	"sort"
	"strings"
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

// LinkCollector accumulates classified content-item links from a profile
// grid until a target count is reached or the feed stops producing new
// items.
type LinkCollector struct {
	page    page.Page
	cfg     *config.CollectionConfig
	baseURL string
	logger  logger.Logger
	sleep   func(time.Duration)
	now     func() time.Time
}

// NewLinkCollector builds a collector over an already-navigated page.
func NewLinkCollector(p page.Page, cfg *config.Config, log logger.Logger) *LinkCollector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LinkCollector{
		page:    p,
		cfg:     &cfg.Collection,
		baseURL: cfg.Instagram.BaseURL,
		logger:  log,
		sleep:   time.Sleep,
		now:     time.Now,
	}
}

// Collect scrolls the grid until targetCount links are accumulated,
// the no-progress threshold trips, or the cycle ceiling is hit.
// targetCount <= 0 means collect until convergence. The result is
// sorted by URL for determinism.
//
// A cycle that fails to extract anything counts as zero new items and
// feeds the no-progress counter; Collect itself never fails once the
// page-level navigation has succeeded.
func (c *LinkCollector) Collect(targetCount int) []models.ContentLink {
	seen := make(map[string]models.ContentKind)
	noProgress := 0

	for cycle := 1; cycle <= c.cfg.MaxCycles; cycle++ {
		previous := len(seen)
		for _, link := range c.extractVisible() {
			if _, dup := seen[link.URL]; dup {
				continue
			}
			seen[link.URL] = link.Kind
		}
		added := len(seen) - previous

		logger.LogScrollCycle(cycle, len(seen), added, noProgress)

		if targetCount > 0 && len(seen) >= targetCount {
			c.logger.InfoWithFields("target reached", map[string]interface{}{
				"collected": len(seen),
				"target":    targetCount,
			})
			break
		}

		if added == 0 {
			noProgress++
			if noProgress >= c.cfg.NoProgressThreshold {
				c.logger.InfoWithFields("converged without target", map[string]interface{}{
					"collected":   len(seen),
					"idle_cycles": noProgress,
				})
				break
			}
		} else {
			noProgress = 0
		}

		c.advance()
	}

	links := make([]models.ContentLink, 0, len(seen))
	for url, kind := range seen {
		links = append(links, models.ContentLink{URL: url, Kind: kind})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].URL < links[j].URL })
	return links
}

// extractVisible reads every content anchor currently in the DOM. Grid
// rows are preferred so extraction tracks what the feed has actually
// rendered; a flat anchor scan covers layouts without rows.
func (c *LinkCollector) extractVisible() []models.ContentLink {
	var links []models.ContentLink

	containers, err := c.page.Query(selGridContainer)
	if err != nil {
		c.logger.WithError(err).Debug("grid container query failed")
		return nil
	}

	if len(containers) == 0 {
		anchors, err := c.page.Query(selContentAnchor)
		if err != nil {
			return nil
		}
		return c.collectAnchors(anchors)
	}

	for _, container := range containers {
		anchors, err := container.Query(selContentAnchor)
		if err != nil {
			continue
		}
		links = append(links, c.collectAnchors(anchors)...)
	}
	return links
}

func (c *LinkCollector) collectAnchors(anchors []page.Element) []models.ContentLink {
	var links []models.ContentLink
	for _, anchor := range anchors {
		href, ok, err := anchor.Attribute("href")
		if err != nil || !ok || href == "" {
			continue
		}
		if !strings.Contains(href, "/p/") && !strings.Contains(href, "/reel/") {
			continue
		}
		if strings.HasPrefix(href, "/") {
			href = c.baseURL + href
		}
		links = append(links, models.NewContentLink(href))
	}
	return links
}

// advance scrolls toward, but deliberately not all the way to, the
// newest loaded row. Jumping straight to the bottom overshoots batches
// the feed has not rendered yet. After the scroll it polls for new rows
// up to a bounded ceiling, falling back to a small fixed scroll when
// nothing appears in time.
func (c *LinkCollector) advance() {
	containers, err := c.page.Query(selGridContainer)
	if err != nil || len(containers) < 2 {
		c.fallbackScroll()
		return
	}

	before := len(containers)
	target := containers[len(containers)-2]
	if err := target.ScrollIntoView(); err != nil {
		c.fallbackScroll()
		return
	}

	deadline := c.now().Add(c.cfg.PollCeiling)
	for c.now().Before(deadline) {
		c.sleep(c.cfg.PollInterval)
		current, err := c.page.Query(selGridContainer)
		if err == nil && len(current) > before {
			return
		}
	}

	c.fallbackScroll()
}

func (c *LinkCollector) fallbackScroll() {
	if err := c.page.ScrollBy(c.cfg.FallbackScrollPixels); err != nil {
		c.logger.WithError(err).Debug("fallback scroll failed")
	}
	c.sleep(c.cfg.FallbackWait)
}
