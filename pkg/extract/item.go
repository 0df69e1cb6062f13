package extract

import (
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
)

// ItemExtractor resolves one content item end to end: navigate to the
// permalink, let the page settle, then run the three fact cascades.
type ItemExtractor struct {
	page   page.Page
	cfg    *config.Config
	logger logger.Logger
	tags   *TagResolver
	sleep  func(time.Duration)
	now    func() time.Time
}

// NewItemExtractor builds an extractor bound to a page.
func NewItemExtractor(p page.Page, cfg *config.Config, log logger.Logger) *ItemExtractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ItemExtractor{
		page:   p,
		cfg:    cfg,
		logger: log,
		tags:   NewTagResolver(p, cfg, log),
		sleep:  time.Sleep,
		now:    time.Now,
	}
}

// Extract produces the record for one link. Navigation failure yields
// the error record alongside the error so the caller can decide whether
// the run continues; fact-level misses never fail the item.
func (e *ItemExtractor) Extract(link models.ContentLink) (models.ContentRecord, error) {
	started := e.now()

	if err := e.page.Navigate(link.URL); err != nil {
		e.logger.WithError(err).WithField("url", link.URL).Error("item navigation failed")
		return models.ErrorRecord(link), err
	}
	e.sleep(e.cfg.Extraction.ItemSettleDelay)

	record := models.ContentRecord{
		URL:            link.URL,
		Kind:           link.Kind,
		TaggedAccounts: e.tags.Resolve(link.Kind),
		Likes:          ResolveLikes(e.page, e.logger),
		Timestamp:      ResolveTimestamp(e.page, link.Kind),
		ScrapedAt:      started,
		Attempted:      true,
	}
	record.Elapsed = e.now().Sub(started)

	e.logger.InfoWithFields("item extracted", map[string]interface{}{
		"url":     link.URL,
		"kind":    string(link.Kind),
		"likes":   record.Likes.String(),
		"tagged":  len(record.TaggedAccounts),
		"elapsed": record.Elapsed.String(),
	})
	return record, nil
}
