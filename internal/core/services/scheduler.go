package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

// Scheduler polls for due sync schedules and enqueues sync tasks.
// It runs on worker nodes; in multi-worker deployments a SchedulerLock
// keeps a polling cycle from enqueuing the same schedule twice.
type Scheduler struct {
	schedules driven.ScheduleStore
	taskQueue driven.TaskQueue
	lock      driven.SchedulerLock
	logger    *slog.Logger

	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Schedules    driven.ScheduleStore
	TaskQueue    driven.TaskQueue
	Lock         driven.SchedulerLock // Optional: cross-instance coordination
	Logger       *slog.Logger
	PollInterval time.Duration // How often to check for due schedules (default: 30s)
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.PollInterval
	if interval == 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		schedules: cfg.Schedules,
		taskQueue: cfg.TaskQueue,
		lock:      cfg.Lock,
		logger:    logger,
		interval:  interval,
	}
}

// Start begins the scheduler loop.
// It runs until Stop is called or context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("scheduler starting", "poll_interval", s.interval)

	go s.run(ctx)

	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.mu.Unlock()

	<-s.doneCh

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.checkAndEnqueue(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkAndEnqueue(ctx)
		}
	}
}

// checkAndEnqueue enqueues a sync task for every due schedule. With a
// SchedulerLock configured, contending instances skip the cycle instead of
// double-enqueuing.
func (s *Scheduler) checkAndEnqueue(ctx context.Context) {
	if s.lock != nil {
		locked, err := s.lock.TryLock(ctx)
		if err != nil {
			s.logger.Warn("failed to acquire scheduler lock", "error", err)
			return
		}
		if !locked {
			s.logger.Debug("scheduler lock held by another instance, skipping cycle")
			return
		}
		defer func() {
			if err := s.lock.Unlock(ctx); err != nil {
				s.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}()
	}

	schedules, err := s.schedules.List(ctx)
	if err != nil {
		s.logger.Error("failed to list sync schedules", "error", err)
		return
	}

	now := time.Now()
	for _, schedule := range schedules {
		if !schedule.IsDue(now) {
			continue
		}

		task := domain.NewSyncTask(schedule.SourceID, schedule.EntityType, schedule.Options)

		if err := s.taskQueue.Enqueue(ctx, task); err != nil {
			s.logger.Error("failed to enqueue scheduled sync",
				"schedule_id", schedule.ID,
				"error", err,
			)
			_ = s.schedules.MarkRun(ctx, schedule.ID, err.Error())
			continue
		}

		s.logger.Info("enqueued scheduled sync",
			"schedule_id", schedule.ID,
			"task_id", task.ID,
			"source", schedule.SourceID,
			"entity_type", schedule.EntityType,
		)

		if err := s.schedules.MarkRun(ctx, schedule.ID, ""); err != nil {
			s.logger.Warn("failed to update schedule last run",
				"schedule_id", schedule.ID,
				"error", err,
			)
		}
	}
}

// TriggerNow immediately enqueues a schedule's sync (ignoring the cron).
func (s *Scheduler) TriggerNow(ctx context.Context, scheduleID string) (*domain.SyncTask, error) {
	schedule, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	task := domain.NewSyncTask(schedule.SourceID, schedule.EntityType, schedule.Options)
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("manually triggered scheduled sync",
		"schedule_id", schedule.ID,
		"task_id", task.ID,
	)

	return task, nil
}
