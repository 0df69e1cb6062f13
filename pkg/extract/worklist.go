package extract

import (
	"context"
	"sync"
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/page"
	"igharvest/pkg/ratelimit"
)

// PageFactory opens a fresh authenticated page for one worker. The
// returned cleanup releases the page's browser resources.
type PageFactory func(ctx context.Context) (page.Page, func(), error)

// Sink receives each record the moment it is extracted, before the
// worklist completes. A nil sink is allowed.
type Sink func(models.ContentRecord)

// WorklistExtractor runs item extraction over a list of links, either
// sequentially on a single page or across parallel workers each owning
// their own page. Whatever the mode, the returned records are in input
// order and complete: URLs whose extraction never ran are backfilled
// with placeholder records.
type WorklistExtractor struct {
	cfg    *config.Config
	logger logger.Logger
	sleep  func(time.Duration)
}

// NewWorklistExtractor builds a worklist runner.
func NewWorklistExtractor(cfg *config.Config, log logger.Logger) *WorklistExtractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &WorklistExtractor{cfg: cfg, logger: log, sleep: time.Sleep}
}

// Run extracts every link. Cancellation is cooperative: it is checked
// between items, never mid-item, so each record is either complete or
// absent. The first fatal error stops all workers; ordinary per-item
// failures produce error records and the run continues.
func (w *WorklistExtractor) Run(ctx context.Context, factory PageFactory, links []models.ContentLink, sink Sink) ([]models.ContentRecord, error) {
	if len(links) == 0 {
		return nil, nil
	}

	workers := w.cfg.Extraction.Parallel
	if workers > len(links) {
		workers = len(links)
	}
	if workers <= 1 {
		return w.runSequential(ctx, factory, links, sink)
	}
	return w.runParallel(ctx, factory, links, sink, workers)
}

func (w *WorklistExtractor) runSequential(ctx context.Context, factory PageFactory, links []models.ContentLink, sink Sink) ([]models.ContentRecord, error) {
	p, cleanup, err := factory(ctx)
	if err != nil {
		return w.reconcile(links, nil), err
	}
	defer cleanup()

	byURL := make(map[string]models.ContentRecord, len(links))
	runErr := w.extractBatch(ctx, p, links, func(r models.ContentRecord) {
		byURL[r.URL] = r
		if sink != nil {
			sink(r)
		}
	})
	return w.reconcile(links, byURL), runErr
}

// runParallel splits the worklist into contiguous batches, one worker
// per batch, every worker holding its own page. Results stream through
// a shared channel and are reconciled back to input order at the end.
func (w *WorklistExtractor) runParallel(ctx context.Context, factory PageFactory, links []models.ContentLink, sink Sink, workers int) ([]models.ContentRecord, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan models.ContentRecord, len(links))
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i, batch := range splitBatches(links, workers) {
		if len(batch) == 0 {
			continue
		}
		wg.Add(1)
		go func(worker int, batch []models.ContentLink) {
			defer wg.Done()
			w.logger.InfoWithFields("worker started", map[string]interface{}{
				"worker": worker,
				"items":  len(batch),
			})

			p, cleanup, err := factory(runCtx)
			if err != nil {
				errs <- err
				return
			}
			defer cleanup()

			err = w.extractBatch(runCtx, p, batch, func(r models.ContentRecord) {
				results <- r
			})
			if err != nil {
				errs <- err
				// A fatal error in one worker stops the rest at their
				// next item boundary.
				if herr, ok := err.(*errors.Error); ok && errors.IsFatal(herr.Type) {
					cancel()
				}
			}
		}(i, batch)
	}

	done := make(chan struct{})
	byURL := make(map[string]models.ContentRecord, len(links))
	go func() {
		defer close(done)
		for r := range results {
			byURL[r.URL] = r
			if sink != nil {
				sink(r)
			}
		}
	}()

	wg.Wait()
	close(results)
	<-done

	var runErr error
	select {
	case runErr = <-errs:
	default:
	}
	return w.reconcile(links, byURL), runErr
}

// extractBatch runs one worker's share. Context cancellation is honored
// at item boundaries only.
func (w *WorklistExtractor) extractBatch(ctx context.Context, p page.Page, batch []models.ContentLink, emit func(models.ContentRecord)) error {
	extractor := NewItemExtractor(p, w.cfg, w.logger)
	for i, link := range batch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := extractor.Extract(link)
		emit(record)
		if err != nil {
			if herr, ok := err.(*errors.Error); ok && errors.IsFatal(herr.Type) {
				return err
			}
		}

		if i < len(batch)-1 {
			w.sleep(ratelimit.RandomDelay(w.cfg.Extraction.ItemDelayMin, w.cfg.Extraction.ItemDelayMax))
		}
	}
	return nil
}

// reconcile rebuilds the record list in input order, backfilling a
// placeholder for every URL that produced no record.
func (w *WorklistExtractor) reconcile(links []models.ContentLink, byURL map[string]models.ContentRecord) []models.ContentRecord {
	records := make([]models.ContentRecord, 0, len(links))
	missing := 0
	for _, link := range links {
		if record, ok := byURL[link.URL]; ok {
			records = append(records, record)
			continue
		}
		records = append(records, models.PlaceholderRecord(link))
		missing++
	}
	if missing > 0 {
		w.logger.WarnWithFields("backfilled missing records", map[string]interface{}{
			"missing": missing,
			"total":   len(links),
		})
	}
	return records
}

// splitBatches divides links into n contiguous batches whose sizes
// differ by at most one, earlier batches taking the extra items.
func splitBatches(links []models.ContentLink, n int) [][]models.ContentLink {
	if n <= 0 {
		n = 1
	}
	batches := make([][]models.ContentLink, 0, n)
	base := len(links) / n
	extra := len(links) % n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		batches = append(batches, links[start:start+size])
		start += size
	}
	return batches
}
