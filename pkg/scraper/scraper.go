// Package scraper orchestrates a full harvest run: profile stats, link
// collection, per-item extraction, and export, with checkpointing at
// every phase boundary.
package scraper

import (
	"context"

	"igharvest/pkg/checkpoint"
	"igharvest/pkg/collector"
	"igharvest/pkg/config"
	"igharvest/pkg/errors"
	"igharvest/pkg/export"
	"igharvest/pkg/extract"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
	"igharvest/pkg/profile"
)

// Result is the complete outcome of a run.
type Result struct {
	Stats   models.ProfileStats      `json:"stats"`
	Links   []models.ContentLink     `json:"links"`
	Records []models.ContentRecord   `json:"records"`
	Summary models.ExtractionSummary `json:"summary"`
}

// Orchestrator wires the phases of a harvest run together. Cancellation
// is cooperative: the context is consulted at phase boundaries and
// between items, never mid-item, and the checkpoint is saved before the
// run stops.
type Orchestrator struct {
	cfg     *config.Config
	logger  logger.Logger
	factory extract.PageFactory
}

// New builds an orchestrator that opens one browser per page request,
// each seeded from the same authenticated session.
func New(cfg *config.Config, sess *page.Session, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	factory := func(ctx context.Context) (page.Page, func(), error) {
		browser, err := page.NewBrowser(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		p, err := browser.NewPage(sess)
		if err != nil {
			browser.Close()
			return nil, nil, err
		}
		return p, browser.Close, nil
	}
	return NewWithFactory(cfg, factory, log)
}

// NewWithFactory builds an orchestrator over an arbitrary page source.
func NewWithFactory(cfg *config.Config, factory extract.PageFactory, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Orchestrator{cfg: cfg, logger: log, factory: factory}
}

// Run harvests one profile end to end. target bounds link collection;
// target <= 0 collects until the feed converges. An existing checkpoint
// for the profile resumes the run: collected links are reused and
// already-extracted items are skipped.
func (o *Orchestrator) Run(ctx context.Context, username string, target int) (*Result, error) {
	logger.LogComponentStart("orchestrator", map[string]interface{}{
		"username": username,
		"target":   target,
		"parallel": o.cfg.Extraction.Parallel,
	})

	exporter, err := export.NewExporter(o.cfg, username, o.logger)
	if err != nil {
		return nil, err
	}
	manager, err := checkpoint.NewManager(exporter.Dir(), username)
	if err != nil {
		return nil, err
	}

	cp, err := o.loadOrCreate(manager, username)
	if err != nil {
		return nil, err
	}

	p, cleanup, err := o.factory(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// Phase: profile stats.
	if cp.Phase == checkpoint.PhaseStarted {
		if err := o.checkCancelled(ctx, manager, cp); err != nil {
			return nil, err
		}
		cp.Stats = o.scrapeProfile(p, username)
		cp.Phase = checkpoint.PhaseProfile
		if err := manager.Save(cp); err != nil {
			return nil, err
		}
	}

	// Phase: link collection. The profile scrape leaves the page on the
	// profile grid; a resumed run navigates there explicitly.
	if cp.Phase == checkpoint.PhaseProfile {
		if err := o.checkCancelled(ctx, manager, cp); err != nil {
			return nil, err
		}
		links, err := o.collectLinks(p, username, target)
		if err != nil {
			return nil, err
		}
		cp.Links = links
		if err := exporter.WriteLinks(links); err != nil {
			return nil, err
		}
		cp.Phase = checkpoint.PhaseLinks
		if err := manager.Save(cp); err != nil {
			return nil, err
		}
	}

	// Phase: extraction. Records stream into the CSV as they land.
	if cp.Phase == checkpoint.PhaseLinks {
		if err := o.checkCancelled(ctx, manager, cp); err != nil {
			return nil, err
		}
		records, runErr := o.extractRecords(ctx, exporter, cp)
		cp.Records = records
		if runErr != nil {
			cp.Cancelled = ctx.Err() != nil
			if err := manager.Save(cp); err != nil {
				o.logger.WithError(err).Error("checkpoint save failed after aborted extraction")
			}
			return nil, runErr
		}
		cp.Phase = checkpoint.PhaseExtraction
		if err := manager.Save(cp); err != nil {
			return nil, err
		}
	}

	// Phase: final export.
	result := &Result{
		Stats:   cp.Stats,
		Links:   cp.Links,
		Records: cp.Records,
		Summary: models.Summarize(cp.Records),
	}
	if err := exporter.WriteResults(result); err != nil {
		return nil, err
	}
	cp.Phase = checkpoint.PhaseDone
	if err := manager.Save(cp); err != nil {
		return nil, err
	}

	logger.LogComponentStop("orchestrator", "run complete")
	return result, nil
}

// loadOrCreate resumes from an existing checkpoint unless the previous
// run already finished.
func (o *Orchestrator) loadOrCreate(manager *checkpoint.Manager, username string) (*checkpoint.Checkpoint, error) {
	cp, err := manager.Load()
	if err != nil {
		o.logger.WithError(err).Warn("checkpoint unreadable, starting fresh")
		cp = nil
	}
	if cp != nil && cp.Phase != checkpoint.PhaseDone {
		o.logger.InfoWithFields("resuming from checkpoint", map[string]interface{}{
			"phase":   string(cp.Phase),
			"links":   len(cp.Links),
			"records": len(cp.Records),
		})
		return cp, nil
	}
	return manager.Create(username)
}

// scrapeProfile reads the headline stats. A profile whose counters
// cannot be read still gets harvested; the stats stay as placeholders.
func (o *Orchestrator) scrapeProfile(p page.Page, username string) models.ProfileStats {
	stats, err := profile.NewScraper(p, o.cfg, o.logger).Scrape(username)
	if err != nil {
		o.logger.WithError(err).Warn("profile stats unavailable")
	}
	return stats
}

func (o *Orchestrator) collectLinks(p page.Page, username string, target int) ([]models.ContentLink, error) {
	url := o.cfg.Instagram.BaseURL + "/" + username + "/"
	if loc, err := p.Location(); err != nil || loc != url {
		if err := p.Navigate(url); err != nil {
			return nil, err
		}
	}
	return collector.NewLinkCollector(p, o.cfg, o.logger).Collect(target), nil
}

// extractRecords runs the worklist over whatever the checkpoint has not
// yet covered, streaming each record into the CSV, then merges resumed
// records back in input order.
func (o *Orchestrator) extractRecords(ctx context.Context, exporter *export.Exporter, cp *checkpoint.Checkpoint) ([]models.ContentRecord, error) {
	done := cp.ExtractedURLs()
	var pending []models.ContentLink
	for _, link := range cp.Links {
		if !done[link.URL] {
			pending = append(pending, link)
		}
	}

	writer, err := exporter.OpenRecords(len(cp.Records) > 0)
	if err != nil {
		return cp.Records, err
	}
	defer writer.Close()

	byURL := make(map[string]models.ContentRecord, len(cp.Links))
	for _, r := range cp.Records {
		byURL[r.URL] = r
	}

	worklist := extract.NewWorklistExtractor(o.cfg, o.logger)
	extracted, runErr := worklist.Run(ctx, o.factory, pending, func(r models.ContentRecord) {
		if err := writer.Append(r); err != nil {
			o.logger.WithError(err).Error("record append failed")
		}
	})
	for _, r := range extracted {
		byURL[r.URL] = r
	}

	records := make([]models.ContentRecord, 0, len(cp.Links))
	for _, link := range cp.Links {
		if r, ok := byURL[link.URL]; ok {
			records = append(records, r)
		} else {
			records = append(records, models.PlaceholderRecord(link))
		}
	}
	return records, runErr
}

// checkCancelled saves the checkpoint and stops the run when the
// context has been cancelled.
func (o *Orchestrator) checkCancelled(ctx context.Context, manager *checkpoint.Manager, cp *checkpoint.Checkpoint) error {
	select {
	case <-ctx.Done():
		cp.Cancelled = true
		if err := manager.Save(cp); err != nil {
			o.logger.WithError(err).Error("checkpoint save failed on cancellation")
		}
		logger.LogComponentStop("orchestrator", "cancelled")
		return errors.New(errors.ErrorTypeUnknown, "run cancelled: "+ctx.Err().Error())
	default:
		return nil
	}
}
