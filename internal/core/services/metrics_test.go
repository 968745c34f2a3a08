package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven/mocks"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driving"
)

func seedRun(t *testing.T, history *mocks.MockSyncHistoryStore, id string, status domain.RunStatus, mutate func(*domain.SyncRun)) {
	t.Helper()
	start := time.Now().Add(-time.Hour)
	end := start.Add(time.Minute)
	run := &domain.SyncRun{
		ID:         id,
		Source:     "crm",
		EntityType: "contacts",
		Status:     status,
		StartTime:  start,
		EndTime:    &end,
	}
	if mutate != nil {
		mutate(run)
	}
	require.NoError(t, history.Create(context.Background(), run))
}

func TestMetricsAggregator_EmptyHistory(t *testing.T) {
	agg := NewMetricsAggregator(MetricsAggregatorConfig{History: mocks.NewMockSyncHistoryStore()})

	m, err := agg.Compute(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 0, m.TotalRuns)
	assert.Equal(t, 1.0, m.SuccessRate)
	assert.Empty(t, m.Alerts)
}

func TestMetricsAggregator_SuccessRate(t *testing.T) {
	history := mocks.NewMockSyncHistoryStore()
	for i := 0; i < 7; i++ {
		seedRun(t, history, fmt.Sprintf("ok-%d", i), domain.RunStatusSuccess, nil)
	}
	seedRun(t, history, "part-0", domain.RunStatusPartial, nil)
	seedRun(t, history, "bad-0", domain.RunStatusFailed, func(r *domain.SyncRun) {
		r.ErrorMessage = "connection reset by peer"
	})
	seedRun(t, history, "bad-1", domain.RunStatusFailed, func(r *domain.SyncRun) {
		r.ErrorMessage = "401 unauthorized"
	})
	// A run still in flight is excluded from the aggregate.
	seedRun(t, history, "live-0", domain.RunStatusRunning, func(r *domain.SyncRun) {
		r.EndTime = nil
	})

	agg := NewMetricsAggregator(MetricsAggregatorConfig{History: history})
	m, err := agg.Compute(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 10, m.TotalRuns)
	assert.Equal(t, 7, m.SuccessfulRuns)
	assert.Equal(t, 1, m.PartialRuns)
	assert.Equal(t, 2, m.FailedRuns)
	// Partial runs count toward the success rate; only failures detract.
	assert.InDelta(t, 0.8, m.SuccessRate, 1e-9)

	require.Len(t, m.Alerts, 1)
	assert.Equal(t, "low_success_rate", m.Alerts[0].Name)
	assert.Contains(t, m.Alerts[0].Message, "80.0%")
}

func TestMetricsAggregator_ErrorTaxonomy(t *testing.T) {
	history := mocks.NewMockSyncHistoryStore()
	seedRun(t, history, "f-1", domain.RunStatusFailed, func(r *domain.SyncRun) {
		r.ErrorMessage = "429 too many requests"
	})
	seedRun(t, history, "f-2", domain.RunStatusFailed, func(r *domain.SyncRun) {
		r.ErrorMessage = "dial tcp: connection refused"
	})
	seedRun(t, history, "f-3", domain.RunStatusFailed, func(r *domain.SyncRun) {
		r.ErrorMessage = "connect timed out"
	})
	seedRun(t, history, "f-4", domain.RunStatusFailed, func(r *domain.SyncRun) {
		r.ErrorMessage = "something unexpected happened"
	})

	agg := NewMetricsAggregator(MetricsAggregatorConfig{History: history, SuccessRateFloor: 0.01})
	m, err := agg.Compute(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, m.ErrorCategories[driving.ErrorCategoryRateLimit])
	assert.Equal(t, 2, m.ErrorCategories[driving.ErrorCategoryConnection])
	assert.Equal(t, 1, m.ErrorCategories[driving.ErrorCategoryOther])
}

func TestMetricsAggregator_ThroughputAndMemory(t *testing.T) {
	history := mocks.NewMockSyncHistoryStore()
	seedRun(t, history, "r-1", domain.RunStatusSuccess, func(r *domain.SyncRun) {
		r.Counts.Fetched = 600
		r.Performance = &domain.PerformanceMetrics{DurationSeconds: 60, RecordsPerSecond: 10, MemoryRSSBytes: 512 << 20}
	})
	seedRun(t, history, "r-2", domain.RunStatusSuccess, func(r *domain.SyncRun) {
		r.Counts.Fetched = 1200
		r.Performance = &domain.PerformanceMetrics{DurationSeconds: 60, RecordsPerSecond: 20, MemoryRSSBytes: 2 << 30}
	})
	// No performance blob: counted for records, excluded from throughput.
	seedRun(t, history, "r-3", domain.RunStatusSuccess, func(r *domain.SyncRun) {
		r.Counts.Fetched = 100
	})

	agg := NewMetricsAggregator(MetricsAggregatorConfig{History: history})
	m, err := agg.Compute(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1900, m.RecordsProcessed)
	assert.InDelta(t, 15.0, m.AvgThroughput, 1e-9)

	require.Len(t, m.Alerts, 1)
	assert.Equal(t, "memory_ceiling", m.Alerts[0].Name)
}

func TestMetricsAggregator_WindowExcludesOldRuns(t *testing.T) {
	history := mocks.NewMockSyncHistoryStore()
	seedRun(t, history, "recent", domain.RunStatusSuccess, nil)
	seedRun(t, history, "ancient", domain.RunStatusFailed, func(r *domain.SyncRun) {
		r.StartTime = time.Now().Add(-72 * time.Hour)
		end := r.StartTime.Add(time.Minute)
		r.EndTime = &end
	})

	agg := NewMetricsAggregator(MetricsAggregatorConfig{History: history})
	m, err := agg.Compute(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, m.TotalRuns)
	assert.Equal(t, 0, m.FailedRuns)
	assert.Empty(t, m.Alerts)
}

func TestMetricsAggregator_RecentRunsCapped(t *testing.T) {
	history := mocks.NewMockSyncHistoryStore()
	for i := 0; i < 25; i++ {
		seedRun(t, history, fmt.Sprintf("r-%02d", i), domain.RunStatusSuccess, nil)
	}

	agg := NewMetricsAggregator(MetricsAggregatorConfig{History: history})
	m, err := agg.Compute(context.Background(), 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 25, m.TotalRuns)
	assert.Len(t, m.RecentRuns, 20)
}

func TestMetricsAggregator_Refresh(t *testing.T) {
	history := mocks.NewMockSyncHistoryStore()
	seedRun(t, history, "r-1", domain.RunStatusSuccess, nil)

	agg := NewMetricsAggregator(MetricsAggregatorConfig{History: history})
	assert.Nil(t, agg.Latest())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	agg.StartRefresh(ctx, time.Hour)

	require.Eventually(t, func() bool {
		return agg.Latest() != nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, agg.Latest().TotalRuns)
}

func TestCategorizeError(t *testing.T) {
	cases := []struct {
		message string
		want    driving.ErrorCategory
	}{
		{"API rate limit exceeded", driving.ErrorCategoryRateLimit},
		{"HTTP 429 returned", driving.ErrorCategoryRateLimit},
		{"request throttled upstream", driving.ErrorCategoryRateLimit},
		{"401 Unauthorized", driving.ErrorCategoryAuthentication},
		{"invalid credentials supplied", driving.ErrorCategoryAuthentication},
		{"token expired", driving.ErrorCategoryAuthentication},
		{"entity not found", driving.ErrorCategoryNotFound},
		{"connection reset by peer", driving.ErrorCategoryConnection},
		{"i/o timeout talking to host", driving.ErrorCategoryConnection},
		{"unexpected EOF", driving.ErrorCategoryConnection},
		{"validation failed for record", driving.ErrorCategoryValidation},
		{"malformed response body", driving.ErrorCategoryValidation},
		{"out of memory", driving.ErrorCategoryMemory},
		{"disk quota exceeded", driving.ErrorCategoryOther},
		{"", driving.ErrorCategoryOther},
	}

	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.want, CategorizeError(tc.message))
		})
	}
}
