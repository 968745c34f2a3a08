package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.MetricsService = (*MetricsAggregator)(nil)

// MetricsAggregator computes windowed dashboard metrics from sync history.
// Read-only: it never writes to the store. A background refresh loop keeps
// a cached snapshot for the dashboard API.
type MetricsAggregator struct {
	history driven.SyncHistoryStore
	logger  *slog.Logger

	successRateFloor float64
	memoryCeiling    uint64
	window           time.Duration

	mu     sync.RWMutex
	latest *driving.DashboardMetrics
}

// MetricsAggregatorConfig holds aggregator settings. Zero values take
// defaults.
type MetricsAggregatorConfig struct {
	History driven.SyncHistoryStore
	Logger  *slog.Logger

	// SuccessRateFloor triggers an alert when the windowed success rate
	// drops below it. Default: 0.95.
	SuccessRateFloor float64

	// MemoryCeilingBytes triggers an alert when any run in the window
	// sampled more resident memory than this. Default: 1 GiB.
	MemoryCeilingBytes uint64

	// Window is the trailing aggregation window used by the refresh loop.
	// Default: 24h.
	Window time.Duration
}

// NewMetricsAggregator creates a metrics aggregator.
func NewMetricsAggregator(cfg MetricsAggregatorConfig) *MetricsAggregator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	floor := cfg.SuccessRateFloor
	if floor <= 0 {
		floor = 0.95
	}
	ceiling := cfg.MemoryCeilingBytes
	if ceiling == 0 {
		ceiling = 1 << 30
	}
	window := cfg.Window
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &MetricsAggregator{
		history:          cfg.History,
		logger:           logger,
		successRateFloor: floor,
		memoryCeiling:    ceiling,
		window:           window,
	}
}

// Compute aggregates run history over the trailing window.
func (a *MetricsAggregator) Compute(ctx context.Context, window time.Duration) (*driving.DashboardMetrics, error) {
	if window <= 0 {
		window = a.window
	}
	now := time.Now()
	since := now.Add(-window)

	runs, err := a.history.List(ctx, driven.RunFilter{Since: &since})
	if err != nil {
		return nil, err
	}

	metrics := &driving.DashboardMetrics{
		WindowStart:     since,
		WindowEnd:       now,
		ErrorCategories: make(map[driving.ErrorCategory]int),
	}

	var throughputSum float64
	var throughputRuns int
	var peakMemory uint64

	for _, run := range runs {
		if !run.Status.Terminal() {
			continue
		}
		metrics.TotalRuns++
		metrics.RecordsProcessed += run.Counts.Fetched

		switch run.Status {
		case domain.RunStatusSuccess:
			metrics.SuccessfulRuns++
		case domain.RunStatusPartial:
			metrics.PartialRuns++
		case domain.RunStatusFailed:
			metrics.FailedRuns++
		}

		if run.ErrorMessage != "" {
			metrics.ErrorCategories[CategorizeError(run.ErrorMessage)]++
		}

		if run.Performance != nil {
			if run.Performance.RecordsPerSecond > 0 {
				throughputSum += run.Performance.RecordsPerSecond
				throughputRuns++
			}
			if run.Performance.MemoryRSSBytes > peakMemory {
				peakMemory = run.Performance.MemoryRSSBytes
			}
		}

		if len(metrics.RecentRuns) < 20 {
			metrics.RecentRuns = append(metrics.RecentRuns, run)
		}
	}

	if metrics.TotalRuns > 0 {
		metrics.SuccessRate = float64(metrics.TotalRuns-metrics.FailedRuns) / float64(metrics.TotalRuns)
	} else {
		metrics.SuccessRate = 1.0
	}
	if throughputRuns > 0 {
		metrics.AvgThroughput = throughputSum / float64(throughputRuns)
	}

	metrics.Alerts = a.evaluateAlerts(metrics, peakMemory)
	return metrics, nil
}

// Latest returns the most recent cached snapshot, or nil before the first
// refresh.
func (a *MetricsAggregator) Latest() *driving.DashboardMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// StartRefresh recomputes the cached snapshot on a fixed interval until the
// context is cancelled. Runs an immediate refresh on start.
func (a *MetricsAggregator) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		a.refresh(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.refresh(ctx)
			}
		}
	}()
}

func (a *MetricsAggregator) refresh(ctx context.Context) {
	metrics, err := a.Compute(ctx, a.window)
	if err != nil {
		a.logger.Error("metrics refresh failed", "error", err)
		return
	}
	a.mu.Lock()
	a.latest = metrics
	a.mu.Unlock()
}

// evaluateAlerts applies the static alert thresholds. Advisory only.
func (a *MetricsAggregator) evaluateAlerts(m *driving.DashboardMetrics, peakMemory uint64) []driving.Alert {
	var alerts []driving.Alert

	if m.TotalRuns > 0 && m.SuccessRate < a.successRateFloor {
		alerts = append(alerts, driving.Alert{
			Name:     "low_success_rate",
			Severity: "warning",
			Message: fmt.Sprintf("sync success rate %.1f%% below threshold %.1f%%",
				m.SuccessRate*100, a.successRateFloor*100),
		})
	}

	if peakMemory > a.memoryCeiling {
		alerts = append(alerts, driving.Alert{
			Name:     "memory_ceiling",
			Severity: "warning",
			Message:  "a sync run sampled resident memory above the configured ceiling",
		})
	}

	return alerts
}

// errorPatterns maps substrings of run error messages to taxonomy
// categories. First match wins, checked in declaration order.
var errorPatterns = []struct {
	category driving.ErrorCategory
	needles  []string
}{
	{driving.ErrorCategoryRateLimit, []string{"rate limit", "too many requests", "429", "throttl"}},
	{driving.ErrorCategoryAuthentication, []string{"auth", "unauthorized", "forbidden", "credential", "401", "403", "token"}},
	{driving.ErrorCategoryNotFound, []string{"not found", "404", "no such"}},
	{driving.ErrorCategoryConnection, []string{"connection", "timeout", "timed out", "unreachable", "refused", "reset", "eof", "dns"}},
	{driving.ErrorCategoryValidation, []string{"validation", "invalid", "malformed", "parse"}},
	{driving.ErrorCategoryMemory, []string{"memory", "oom", "allocation"}},
}

// CategorizeError buckets a run error message into the dashboard taxonomy.
func CategorizeError(message string) driving.ErrorCategory {
	lower := strings.ToLower(message)
	for _, p := range errorPatterns {
		for _, needle := range p.needles {
			if strings.Contains(lower, needle) {
				return p.category
			}
		}
	}
	return driving.ErrorCategoryOther
}
