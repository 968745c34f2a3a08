package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driving"
)

// Verify interface compliance
var (
	_ driving.SyncService = (*SyncService)(nil)
	_ driving.AuthService = (*AuthService)(nil)
)

// SyncService exposes sync triggering and run history to the dashboard API.
type SyncService struct {
	sources driven.SourceStore
	history driven.SyncHistoryStore
	queue   driven.TaskQueue
}

// NewSyncService creates the HTTP-facing sync service.
func NewSyncService(sources driven.SourceStore, history driven.SyncHistoryStore, queue driven.TaskQueue) *SyncService {
	return &SyncService{sources: sources, history: history, queue: queue}
}

// Enqueue queues a sync task after checking the source exists and is enabled.
func (s *SyncService) Enqueue(ctx context.Context, sourceID, entityType string, opts domain.SyncOptions) (*domain.SyncTask, error) {
	source, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("get source %s: %w", sourceID, err)
	}
	if !source.Enabled {
		return nil, fmt.Errorf("source %s: %w", sourceID, domain.ErrSourceDisabled)
	}
	if entityType == "" {
		return nil, fmt.Errorf("entity type is required: %w", domain.ErrInvalidInput)
	}

	task := domain.NewSyncTask(sourceID, entityType, opts)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue sync task: %w", err)
	}
	return task, nil
}

// ListRuns returns run history matching the filter.
func (s *SyncService) ListRuns(ctx context.Context, filter driven.RunFilter) ([]*domain.SyncRun, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.history.List(ctx, filter)
}

// AuthService validates dashboard credentials via the auth adapter.
type AuthService struct {
	adapter    driven.AuthAdapter
	apiKeyHash string
	tokenTTL   time.Duration
}

// NewAuthService creates the dashboard auth service. apiKeyHash is the
// bcrypt hash of the admin API key from configuration.
func NewAuthService(adapter driven.AuthAdapter, apiKeyHash string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &AuthService{adapter: adapter, apiKeyHash: apiKeyHash, tokenTTL: tokenTTL}
}

// ExchangeAPIKey trades the configured admin API key for a service token.
func (s *AuthService) ExchangeAPIKey(ctx context.Context, apiKey string) (string, error) {
	if s.apiKeyHash == "" {
		return "", domain.ErrUnauthorized
	}
	if err := s.adapter.VerifyAPIKey(s.apiKeyHash, apiKey); err != nil {
		return "", err
	}
	return s.adapter.MintServiceToken("dashboard", s.tokenTTL)
}

// ValidateToken verifies a bearer token and returns its subject.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (string, error) {
	return s.adapter.ValidateServiceToken(token)
}
