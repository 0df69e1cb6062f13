package collector

import (
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

// ListKind selects which account listing a FollowerCollector reads.
type ListKind string

const (
	ListFollowers ListKind = "followers"
	ListFollowing ListKind = "following"
)

// FollowerCollector accumulates account handles from the follower or
// following popup. The popup is a flat repeating list inside a dialog,
// so convergence is the same append-only pattern as the link collector
// but with a smaller no-progress threshold and no grid-row wait.
type FollowerCollector struct {
	page   page.Page
	cfg    *config.CollectionConfig
	logger logger.Logger
	sleep  func(time.Duration)
}

// NewFollowerCollector builds a collector over an already-navigated
// profile page.
func NewFollowerCollector(p page.Page, cfg *config.Config, log logger.Logger) *FollowerCollector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &FollowerCollector{
		page:   p,
		cfg:    &cfg.Collection,
		logger: log,
		sleep:  time.Sleep,
	}
}

// Collect opens the requested listing popup and scrolls it until limit
// handles are found or the popup stops producing new ones. limit <= 0
// means collect everything. Handles are returned in discovery order.
func (c *FollowerCollector) Collect(kind ListKind, limit int) ([]string, error) {
	if err := c.openPopup(kind); err != nil {
		return nil, err
	}

	var handles []string
	seen := make(map[string]bool)
	noProgress := 0

	for cycle := 1; cycle <= c.cfg.MaxCycles; cycle++ {
		added := 0
		for _, handle := range c.extractVisible() {
			if seen[handle] {
				continue
			}
			seen[handle] = true
			handles = append(handles, handle)
			added++

			// A single cycle can yield more new handles than the
			// remaining budget, so the limit is checked per append,
			// not per cycle.
			if limit > 0 && len(handles) >= limit {
				return handles, nil
			}
		}

		logger.LogScrollCycle(cycle, len(handles), added, noProgress)

		if added == 0 {
			noProgress++
			if noProgress >= c.cfg.PopupNoProgressThreshold {
				c.logger.InfoWithFields("popup converged", map[string]interface{}{
					"collected":   len(handles),
					"idle_cycles": noProgress,
				})
				break
			}
		} else {
			noProgress = 0
		}

		c.scrollPopup()
	}

	return handles, nil
}

// openPopup clicks the followers/following link and waits for the
// dialog to appear.
func (c *FollowerCollector) openPopup(kind ListKind) error {
	selector := selFollowersLink
	if kind == ListFollowing {
		selector = selFollowingLink
	}

	links, err := c.page.Query(selector)
	if err != nil || len(links) == 0 {
		return errors.New(errors.ErrorTypeNotFound,
			string(kind)+" link not found on profile")
	}
	if err := links[0].Click(); err != nil {
		return errors.New(errors.ErrorTypeExtraction,
			"failed to open "+string(kind)+" popup: "+err.Error())
	}

	if err := c.page.WaitVisible(selDialog, c.cfg.PollCeiling); err != nil {
		return errors.New(errors.ErrorTypeNotFound,
			string(kind)+" popup did not appear")
	}
	return nil
}

// extractVisible reads the handles currently rendered in the popup.
// Queries are scoped to the dialog; the page behind it also carries
// profile links.
func (c *FollowerCollector) extractVisible() []string {
	dialogs, err := c.page.Query(selDialog)
	if err != nil || len(dialogs) == 0 {
		return nil
	}

	spans, err := dialogs[0].Query(selDialogUserSpan)
	if err != nil {
		return nil
	}

	var handles []string
	for _, span := range spans {
		anchors, err := span.Query(selDialogAnchor)
		if err != nil || len(anchors) == 0 {
			continue
		}
		href, ok, err := anchors[0].Attribute("href")
		if err != nil || !ok {
			continue
		}
		if handle, valid := models.ParseHandle(href); valid {
			handles = append(handles, handle)
		}
	}
	return handles
}

func (c *FollowerCollector) scrollPopup() {
	var scrolled bool
	if err := c.page.Evaluate(scrollDialogScript, &scrolled); err != nil {
		c.logger.WithError(err).Debug("popup scroll failed")
	}
	c.sleep(c.cfg.PopupScrollDelay)
}
