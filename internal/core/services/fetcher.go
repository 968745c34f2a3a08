package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

const (
	// DefaultSizeThreshold is the in-window record count above which a
	// window is split instead of accepted.
	DefaultSizeThreshold = 8000

	// DefaultSplitFactor is how many sub-windows a split produces.
	DefaultSplitFactor = 4

	// MinWindowSpan is the subdivision floor. A window at or below this
	// span is accepted or skipped, never split again, which guarantees
	// termination.
	MinWindowSpan = 24 * time.Hour
)

// Batch is one accepted set of records for a window, handed to the
// coordinator for reconciliation.
type Batch struct {
	Window  domain.FetchWindow
	Records []*domain.ExternalRecord
}

// FetchStats summarizes one Fetch call.
type FetchStats struct {
	WindowsProcessed int
	WindowsSplit     int
	WindowsSkipped   int
}

// BatchFunc consumes an accepted batch. Returning an error stops the fetch;
// the error is passed through to the Fetch caller.
type BatchFunc func(ctx context.Context, batch *Batch) error

// AdaptiveFetcher pulls all records modified within a time window,
// subdividing the window when a single fetch returns too much data or fails
// transiently. Each split reduces window size geometrically toward a
// one-day floor, so the work queue drains in logarithmically many splits
// per problematic region.
type AdaptiveFetcher struct {
	sizeThreshold int
	splitFactor   int
	minWindow     time.Duration
	logger        *slog.Logger
}

// AdaptiveFetcherConfig holds fetcher tuning. Zero values take defaults.
type AdaptiveFetcherConfig struct {
	SizeThreshold int
	SplitFactor   int
	MinWindow     time.Duration
	Logger        *slog.Logger
}

// NewAdaptiveFetcher creates an adaptive fetcher.
func NewAdaptiveFetcher(cfg AdaptiveFetcherConfig) *AdaptiveFetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.SizeThreshold
	if threshold <= 0 {
		threshold = DefaultSizeThreshold
	}
	factor := cfg.SplitFactor
	if factor < 2 {
		factor = DefaultSplitFactor
	}
	minWindow := cfg.MinWindow
	if minWindow <= 0 {
		minWindow = MinWindowSpan
	}
	return &AdaptiveFetcher{
		sizeThreshold: threshold,
		splitFactor:   factor,
		minWindow:     minWindow,
		logger:        logger,
	}
}

// Fetch streams record batches for the window to yield. Batches carry at
// most maxBatchSize records (0 means unlimited). A fresh call re-fetches
// from the start of the given window; the sequence is finite and not
// restartable. Transient fetch errors are absorbed by subdivision and, at
// minimal granularity, by skipping the window; permanent errors and yield
// errors stop the fetch immediately.
func (f *AdaptiveFetcher) Fetch(
	ctx context.Context,
	connector driven.SourceConnector,
	entityType string,
	window domain.FetchWindow,
	maxBatchSize int,
	yield BatchFunc,
) (*FetchStats, error) {
	stats := &FetchStats{}

	if !window.Bounded() {
		// Full fetch: plain forward pagination, no subdivision possible.
		err := f.fetchUnbounded(ctx, connector, entityType, window, maxBatchSize, yield, stats)
		return stats, err
	}

	// LIFO work queue seeded with the full window. Splits push their
	// sub-windows back so a problematic region is drained depth-first.
	queue := []domain.FetchWindow{window}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		w := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		stats.WindowsProcessed++

		records, err := f.fetchWindow(ctx, connector, entityType, w)
		switch {
		case err == nil && len(records) > f.sizeThreshold && w.Span() > f.minWindow:
			// Too many modifications in one window to process safely.
			stats.WindowsSplit++
			f.logger.Debug("splitting oversized window",
				"entity_type", entityType,
				"window_start", w.Start,
				"window_end", w.End,
				"records", len(records),
			)
			queue = append(queue, reverse(w.Split(f.splitFactor))...)

		case err == nil:
			if len(records) == 0 {
				continue
			}
			if err := yieldChunked(ctx, w, records, maxBatchSize, yield); err != nil {
				return stats, err
			}

		case domain.IsTransient(err) && w.Span() > f.minWindow:
			stats.WindowsSplit++
			f.logger.Warn("transient fetch error, splitting window",
				"entity_type", entityType,
				"window_start", w.Start,
				"window_end", w.End,
				"error", err,
			)
			queue = append(queue, reverse(w.Split(f.splitFactor))...)

		case domain.IsTransient(err):
			// Already at minimal granularity; skip the range so the run
			// can terminate. The coordinator records the run as partial.
			stats.WindowsSkipped++
			f.logger.Error("skipping window after exhausting retries",
				"entity_type", entityType,
				"window_start", w.Start,
				"window_end", w.End,
				"error", err,
			)

		default:
			return stats, err
		}
	}

	return stats, nil
}

// fetchWindow paginates through one window and returns records inside
// [start, end). Sources that loosely interpret the since filter can return
// records outside the window; filtering here prevents duplicate counting
// across adjacent windows. Pagination is abandoned as soon as the in-window
// count exceeds the split threshold, since the window will be split anyway.
func (f *AdaptiveFetcher) fetchWindow(
	ctx context.Context,
	connector driven.SourceConnector,
	entityType string,
	w domain.FetchWindow,
) ([]*domain.ExternalRecord, error) {
	var records []*domain.ExternalRecord
	pageToken := ""

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		page, err := connector.FetchPage(ctx, entityType, w.Start, pageToken)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return nil, &domain.PermanentError{Op: "fetch page", Err: fmt.Errorf("connector returned nil page")}
		}

		for _, rec := range page.Records {
			if rec == nil {
				continue
			}
			if w.Contains(rec.ModifiedAt) {
				records = append(records, rec)
			}
		}

		if len(records) > f.sizeThreshold && w.Span() > f.minWindow {
			// No point finishing pagination; the caller splits.
			return records, nil
		}

		if page.NextPageToken == "" || page.NextPageToken == pageToken {
			return records, nil
		}
		pageToken = page.NextPageToken
	}
}

// fetchUnbounded performs a full fetch, yielding each non-empty page as its
// own batch and terminating when the source signals no further pages.
func (f *AdaptiveFetcher) fetchUnbounded(
	ctx context.Context,
	connector driven.SourceConnector,
	entityType string,
	window domain.FetchWindow,
	maxBatchSize int,
	yield BatchFunc,
	stats *FetchStats,
) error {
	pageToken := ""
	stats.WindowsProcessed++

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		page, err := connector.FetchPage(ctx, entityType, nil, pageToken)
		if err != nil {
			// A full fetch has no window to subdivide; any fetch error
			// ends the run.
			return err
		}
		if page == nil {
			return &domain.PermanentError{Op: "fetch page", Err: fmt.Errorf("connector returned nil page")}
		}

		inWindow := page.Records[:0:0]
		for _, rec := range page.Records {
			if rec == nil {
				continue
			}
			if window.Contains(rec.ModifiedAt) {
				inWindow = append(inWindow, rec)
			}
		}

		if len(inWindow) > 0 {
			if err := yieldChunked(ctx, window, inWindow, maxBatchSize, yield); err != nil {
				return err
			}
		}

		if page.NextPageToken == "" || page.NextPageToken == pageToken {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// yieldChunked hands records to yield in batches of at most maxBatchSize.
// A maxBatchSize of zero or less yields everything as one batch.
func yieldChunked(
	ctx context.Context,
	w domain.FetchWindow,
	records []*domain.ExternalRecord,
	maxBatchSize int,
	yield BatchFunc,
) error {
	if maxBatchSize <= 0 || len(records) <= maxBatchSize {
		return yield(ctx, &Batch{Window: w, Records: records})
	}
	for start := 0; start < len(records); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := yield(ctx, &Batch{Window: w, Records: records[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

// reverse flips sub-window order so the LIFO queue pops oldest first.
func reverse(windows []domain.FetchWindow) []domain.FetchWindow {
	for i, j := 0, len(windows)-1; i < j; i, j = i+1, j-1 {
		windows[i], windows[j] = windows[j], windows[i]
	}
	return windows
}
