package driving

import (
	"context"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
)

// ErrorCategory buckets run failures for the dashboard taxonomy.
type ErrorCategory string

const (
	ErrorCategoryRateLimit      ErrorCategory = "rate_limit"
	ErrorCategoryConnection     ErrorCategory = "connection"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryMemory         ErrorCategory = "memory"
	ErrorCategoryOther          ErrorCategory = "other"
)

// Alert is an advisory entry emitted when a static threshold is breached.
type Alert struct {
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// DashboardMetrics is the read-side snapshot served to dashboards.
type DashboardMetrics struct {
	WindowStart      time.Time             `json:"window_start"`
	WindowEnd        time.Time             `json:"window_end"`
	TotalRuns        int                   `json:"total_runs"`
	SuccessfulRuns   int                   `json:"successful_runs"`
	PartialRuns      int                   `json:"partial_runs"`
	FailedRuns       int                   `json:"failed_runs"`
	SuccessRate      float64               `json:"success_rate"`
	RecordsProcessed int                   `json:"records_processed"`
	AvgThroughput    float64               `json:"avg_throughput"` // records/second
	ErrorCategories  map[ErrorCategory]int `json:"error_categories"`
	Alerts           []Alert               `json:"alerts"`
	RecentRuns       []*domain.SyncRun     `json:"recent_runs,omitempty"`
}

// MetricsService serves aggregated sync metrics.
type MetricsService interface {
	// Compute aggregates history over the trailing window.
	Compute(ctx context.Context, window time.Duration) (*DashboardMetrics, error)

	// Latest returns the most recent cached snapshot, or nil before the
	// first refresh.
	Latest() *DashboardMetrics
}
