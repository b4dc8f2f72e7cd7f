package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/metrics"
	"github.com/beyzasahin614/G-Maps-Pro-B2B-Lead-Engine/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrRunFailed wraps every error that aborted an extraction run
var ErrRunFailed = errors.New("extraction failed")

// Progress receives status updates while a run is in flight
type Progress interface {
	Status(msg string)
	// Advance reports done of total result cards processed
	Advance(done, total int)
}

type nopProgress struct{}

func (nopProgress) Status(string)    {}
func (nopProgress) Advance(int, int) {}

// Extractor runs one search end to end: launch, search, scroll, extract.
// It is not safe for concurrent use; runs are meant to be sequential.
type Extractor struct {
	launch   LaunchFunc
	browser  BrowserOptions
	opts     Options
	progress Progress
	logger   *log.Entry
}

// NewExtractor creates an Extractor. A nil progress discards updates.
func NewExtractor(launch LaunchFunc, browser BrowserOptions, opts Options, progress Progress) *Extractor {
	if progress == nil {
		progress = nopProgress{}
	}
	return &Extractor{
		launch:   launch,
		browser:  browser,
		opts:     opts,
		progress: progress,
		logger:   log.WithField("component", "extractor"),
	}
}

// WithProgress returns a copy of e reporting to progress
func (e *Extractor) WithProgress(progress Progress) *Extractor {
	clone := *e
	if progress == nil {
		progress = nopProgress{}
	}
	clone.progress = progress
	return &clone
}

// Run performs one extraction. Any failure other than a per-item one aborts
// the run: the error wraps ErrRunFailed and no leads are returned.
func (e *Extractor) Run(ctx context.Context, req models.SearchRequest) (leads []models.Lead, err error) {
	started := time.Now()
	logger := e.logger.WithFields(log.Fields{
		"run_id": uuid.NewString(),
		"query":  req.Query(),
		"limit":  req.Limit,
	})

	defer func() {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		metrics.RecordRun(status, started)
	}()

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}

	leads, err = e.run(ctx, req, logger)
	if err != nil {
		logger.WithError(err).Error("Extraction run failed")
		return nil, fmt.Errorf("%w: %w", ErrRunFailed, err)
	}

	logger.WithFields(log.Fields{
		"leads":    len(leads),
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("Extraction run completed")
	return leads, nil
}

func (e *Extractor) run(ctx context.Context, req models.SearchRequest, logger *log.Entry) ([]models.Lead, error) {
	e.progress.Status("Launching engine...")

	browserOpts := e.browser
	browserOpts.Headless = req.Headless

	session, err := e.launch(ctx, browserOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close browser")
		} else {
			logger.Debug("Browser closed")
		}
	}()

	e.progress.Status(fmt.Sprintf("Analyzing map for: %s...", req.Query()))
	feed, err := session.Search(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	e.progress.Status("Scanning area & scrolling...")
	scrollCtx := ctx
	if e.opts.MaxDuration > 0 {
		var cancel context.CancelFunc
		scrollCtx, cancel = context.WithTimeout(ctx, e.opts.MaxDuration)
		defer cancel()
	}

	result, err := ScrollUntilSaturated(scrollCtx, feed, req.Limit, e.opts, func(count int) {
		e.progress.Status(fmt.Sprintf("Leads found: %d...", count))
	})
	metrics.ScrollRounds.Observe(float64(result.Rounds))
	if err != nil {
		// running out of scroll time is not fatal: extract what has loaded.
		// Drivers may report the expiry as a plain cancellation, so the
		// contexts decide rather than the error value.
		if scrollCtx.Err() == nil || ctx.Err() != nil {
			return nil, fmt.Errorf("failed to scroll feed: %w", err)
		}
		logger.WithField("max_duration", e.opts.MaxDuration).Warn("Scroll time limit reached")
	}

	logger.WithFields(log.Fields{
		"count":   result.Count,
		"rounds":  result.Rounds,
		"stalled": result.Stalled,
	}).Info("Feed scrolling finished")

	e.progress.Status("Extracting data points...")
	e.progress.Advance(0, 0)

	items, err := feed.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	total := min(len(items), req.Limit)

	leads := make([]models.Lead, 0, total)
	for i, item := range items[:total] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lead, err := ExtractLead(ctx, item, func(field string) {
			metrics.FieldFallbacks.WithLabelValues(field).Inc()
		})
		if err != nil {
			metrics.ItemsSkipped.Inc()
			logger.WithError(err).WithField("item", i).Warn("Skipping item")
			continue
		}

		leads = append(leads, lead)
		metrics.LeadsExtracted.Inc()
		e.progress.Advance(i+1, total)
	}

	return leads, nil
}
