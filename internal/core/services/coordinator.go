package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// errMaxRecords stops the fetch loop once options.MaxRecords is reached.
// It never escapes the coordinator; the run still finishes as success.
var errMaxRecords = errors.New("max records reached")

// SyncCoordinator orchestrates one sync run end to end:
//  1. Resolve the sync strategy (fetch window start)
//  2. Create the run record and acquire a concurrency lease
//  3. Drive the adaptive fetcher over the resolved window
//  4. Route each batch through validation and the reconciliation writer
//  5. Finalize the run record and release the lease
type SyncCoordinator struct {
	sources   driven.SourceStore
	history   driven.SyncHistoryStore
	guard     driven.ConcurrencyGuard
	connector driven.ConnectorFactory
	fetcher   *AdaptiveFetcher
	writer    *ReconciliationWriter
	logger    *slog.Logger

	leaseTTL          time.Duration
	acquireTimeout    time.Duration
	heartbeatInterval time.Duration
}

// SyncCoordinatorConfig holds dependencies for SyncCoordinator.
type SyncCoordinatorConfig struct {
	Sources          driven.SourceStore
	History          driven.SyncHistoryStore
	Guard            driven.ConcurrencyGuard
	ConnectorFactory driven.ConnectorFactory
	Fetcher          *AdaptiveFetcher
	Writer           *ReconciliationWriter
	Logger           *slog.Logger

	LeaseTTL          time.Duration // default: 90s
	AcquireTimeout    time.Duration // default: 0 (fail immediately)
	HeartbeatInterval time.Duration // default: 30s
}

// NewSyncCoordinator creates a sync coordinator.
func NewSyncCoordinator(cfg SyncCoordinatorConfig) *SyncCoordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	leaseTTL := cfg.LeaseTTL
	if leaseTTL <= 0 {
		leaseTTL = 90 * time.Second
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &SyncCoordinator{
		sources:           cfg.Sources,
		history:           cfg.History,
		guard:             cfg.Guard,
		connector:         cfg.ConnectorFactory,
		fetcher:           cfg.Fetcher,
		writer:            cfg.Writer,
		logger:            logger,
		leaseTTL:          leaseTTL,
		acquireTimeout:    cfg.AcquireTimeout,
		heartbeatInterval: heartbeat,
	}
}

// Run executes one sync for a (source, entityType) pair. Every invocation
// leaves exactly one terminal SyncRun entry in history, whatever the
// outcome. The returned error is non-nil only when the run failed or never
// started (acquire timeout, unknown source).
func (c *SyncCoordinator) Run(
	ctx context.Context,
	sourceID, entityType string,
	opts domain.SyncOptions,
) (*domain.SyncRun, error) {
	logger := c.logger.With("source", sourceID, "entity_type", entityType)

	source, err := c.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source %s: %w", sourceID, err)
	}
	if !source.Enabled {
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrSourceDisabled)
	}
	if len(source.EntityTypes) > 0 && !source.HasEntityType(entityType) {
		return nil, fmt.Errorf("source %s has no entity type %q: %w", sourceID, entityType, domain.ErrInvalidInput)
	}

	window, err := c.resolveWindow(ctx, sourceID, entityType, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve sync window: %w", err)
	}

	run := &domain.SyncRun{
		ID:         uuid.NewString(),
		Source:     sourceID,
		EntityType: entityType,
		Status:     domain.RunStatusPending,
		StartTime:  time.Now(),
	}
	if err := c.history.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}

	logger = logger.With("run_id", run.ID)
	logger.Info("sync run created",
		"window_start", window.Start,
		"window_end", window.End,
		"dry_run", opts.DryRun,
		"write_mode", string(opts.WriteMode()),
	)

	lease, err := c.guard.Acquire(ctx, c.leaseTTL, c.acquireTimeout)
	if err != nil {
		return c.finalize(ctx, run, logger, domain.RunStatusFailed,
			fmt.Errorf("acquire concurrency slot: %w", err))
	}
	defer func() {
		if relErr := c.guard.Release(context.WithoutCancel(ctx), lease); relErr != nil {
			logger.Warn("failed to release concurrency lease", "error", relErr)
		}
	}()

	if err := c.markRunning(ctx, run); err != nil {
		return c.finalize(ctx, run, logger, domain.RunStatusFailed, err)
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	leaseLost := c.keepLease(hbCtx, lease, logger)

	connector, err := c.connector.Create(ctx, source)
	if err != nil {
		return c.finalize(ctx, run, logger, domain.RunStatusFailed,
			fmt.Errorf("create connector: %w", err))
	}
	if err := connector.TestConnection(ctx); err != nil {
		return c.finalize(ctx, run, logger, domain.RunStatusFailed,
			fmt.Errorf("connection test: %w", err))
	}

	stats, fetchErr := c.fetcher.Fetch(ctx, connector, entityType, window, opts.BatchSize,
		c.batchHandler(run, connector, opts, leaseLost, logger))
	run.Counts.SkippedWindows += stats.WindowsSkipped

	switch {
	case fetchErr == nil && stats.WindowsSkipped > 0:
		// Some sub-ranges were skipped after exhausting retries; the rest
		// of the run completed.
		return c.finalize(ctx, run, logger, domain.RunStatusPartial, nil)
	case fetchErr == nil:
		return c.finalize(ctx, run, logger, domain.RunStatusSuccess, nil)
	case errors.Is(fetchErr, errMaxRecords):
		// Early stop on --max-records still counts as success.
		return c.finalize(ctx, run, logger, domain.RunStatusSuccess, nil)
	case errors.Is(fetchErr, domain.ErrLeaseNotHeld):
		return c.finalize(ctx, run, logger, domain.RunStatusPartial, fetchErr)
	case errors.Is(fetchErr, context.Canceled) || errors.Is(fetchErr, context.DeadlineExceeded):
		// Externally signaled stop: finalize as partial rather than leave
		// the run stuck in running.
		return c.finalize(context.WithoutCancel(ctx), run, logger, domain.RunStatusPartial, fetchErr)
	default:
		return c.finalize(ctx, run, logger, domain.RunStatusFailed, fetchErr)
	}
}

// batchHandler returns the BatchFunc routing fetched batches through
// validation and the reconciliation writer, accumulating counts on the run.
func (c *SyncCoordinator) batchHandler(
	run *domain.SyncRun,
	connector driven.SourceConnector,
	opts domain.SyncOptions,
	leaseLost <-chan struct{},
	logger *slog.Logger,
) BatchFunc {
	return func(ctx context.Context, batch *Batch) error {
		select {
		case <-leaseLost:
			return domain.ErrLeaseNotHeld
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		records := batch.Records
		if opts.MaxRecords > 0 {
			remaining := opts.MaxRecords - run.Counts.Fetched
			if remaining <= 0 {
				return errMaxRecords
			}
			if len(records) > remaining {
				records = records[:remaining]
			}
		}
		run.Counts.Fetched += len(records)

		valid := records[:0:0]
		for _, rec := range records {
			if err := connector.Validate(rec); err != nil {
				run.Counts.Failed++
				logger.Warn("record failed validation",
					"external_id", rec.ExternalID,
					"error", err,
				)
				continue
			}
			valid = append(valid, rec)
		}

		if opts.DryRun {
			logger.Info("dry run: skipping reconciliation",
				"records", len(valid),
				"window_start", batch.Window.Start,
				"window_end", batch.Window.End,
			)
		} else if len(valid) > 0 {
			result, err := c.writer.Write(ctx, run.Source, run.EntityType, valid, opts.WriteMode())
			if err != nil {
				return err
			}
			run.Counts.Created += result.Created
			run.Counts.Updated += result.Updated
			run.Counts.Failed += result.Failed
		}

		// Incremental history update so dashboards see progress; a failed
		// patch is not worth aborting the batch over.
		counts := run.Counts
		if err := c.history.Update(ctx, run.ID, driven.RunPatch{Counts: &counts}); err != nil {
			logger.Warn("failed to update run counts", "error", err)
		}

		if opts.MaxRecords > 0 && run.Counts.Fetched >= opts.MaxRecords {
			return errMaxRecords
		}
		return nil
	}
}

// resolveWindow applies the sync-strategy priority order:
// explicit since, then force-overwrite, then full, then delta from the last
// successful run, then full as the first-ever fallback.
func (c *SyncCoordinator) resolveWindow(
	ctx context.Context,
	sourceID, entityType string,
	opts domain.SyncOptions,
) (domain.FetchWindow, error) {
	end := time.Now()

	switch {
	case opts.Since != nil:
		return domain.FetchWindow{Start: opts.Since, End: end}, nil
	case opts.ForceOverwrite, opts.Full:
		return domain.FetchWindow{End: end}, nil
	}

	last, err := c.history.FindLastSuccess(ctx, sourceID, entityType)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.FetchWindow{End: end}, nil
	}
	if err != nil {
		return domain.FetchWindow{}, err
	}
	if last.EndTime == nil {
		return domain.FetchWindow{End: end}, nil
	}
	return domain.FetchWindow{Start: last.EndTime, End: end}, nil
}

// markRunning transitions the run to running once a lease is held.
func (c *SyncCoordinator) markRunning(ctx context.Context, run *domain.SyncRun) error {
	run.Status = domain.RunStatusRunning
	status := domain.RunStatusRunning
	if err := c.history.Update(ctx, run.ID, driven.RunPatch{Status: &status}); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}
	return nil
}

// keepLease heartbeats the lease in the background. The returned channel is
// closed when the lease is definitively gone: the guard reports it reclaimed,
// or heartbeats keep failing for longer than the lease TTL. Transient failures
// inside the TTL are retried on the next tick, since the slot is still held.
func (c *SyncCoordinator) keepLease(
	ctx context.Context,
	lease *domain.ConcurrencyLease,
	logger *slog.Logger,
) <-chan struct{} {
	lost := make(chan struct{})

	go func() {
		ticker := time.NewTicker(c.heartbeatInterval)
		defer ticker.Stop()

		lastBeat := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := c.guard.Heartbeat(ctx, lease)
				if err == nil {
					lastBeat = time.Now()
					continue
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				if errors.Is(err, domain.ErrLeaseNotHeld) {
					logger.Warn("lease reclaimed", "slot", lease.Slot)
					close(lost)
					return
				}
				if time.Since(lastBeat) > c.leaseTTL {
					logger.Warn("lease expired without a successful heartbeat",
						"slot", lease.Slot, "error", err)
					close(lost)
					return
				}
				logger.Warn("lease heartbeat failed, retrying", "slot", lease.Slot, "error", err)
			}
		}
	}()

	return lost
}

// finalize writes the terminal state, counts, and performance metrics for
// the run. Returns the run plus the causing error, if any.
func (c *SyncCoordinator) finalize(
	ctx context.Context,
	run *domain.SyncRun,
	logger *slog.Logger,
	status domain.RunStatus,
	cause error,
) (*domain.SyncRun, error) {
	now := time.Now()
	run.Status = status
	run.EndTime = &now
	run.Performance = c.performance(run, now)
	if cause != nil {
		run.ErrorMessage = cause.Error()
	}

	errMsg := run.ErrorMessage
	counts := run.Counts
	patch := driven.RunPatch{
		Status:       &status,
		EndTime:      &now,
		Counts:       &counts,
		ErrorMessage: &errMsg,
		Performance:  run.Performance,
	}
	if err := c.history.Update(ctx, run.ID, patch); err != nil {
		logger.Error("failed to finalize sync run", "status", status, "error", err)
	}

	logger.Info("sync run finished",
		"status", string(status),
		"duration_seconds", run.Performance.DurationSeconds,
		"records_fetched", run.Counts.Fetched,
		"records_created", run.Counts.Created,
		"records_updated", run.Counts.Updated,
		"records_failed", run.Counts.Failed,
		"skipped_windows", run.Counts.SkippedWindows,
		"error", run.ErrorMessage,
	)

	if cause != nil {
		return run, cause
	}
	return run, nil
}

// performance builds the metrics blob attached to a finished run.
func (c *SyncCoordinator) performance(run *domain.SyncRun, end time.Time) *domain.PerformanceMetrics {
	duration := end.Sub(run.StartTime).Seconds()
	perf := &domain.PerformanceMetrics{DurationSeconds: duration}
	if duration > 0 {
		perf.RecordsPerSecond = float64(run.Counts.Fetched) / duration
	}
	perf.MemoryRSSBytes = sampleMemoryRSS()
	return perf
}

// sampleMemoryRSS reads the worker's resident set size. Best effort; a zero
// sample just leaves the memory alert without data.
func sampleMemoryRSS() uint64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	info, err := proc.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return info.RSS
}
