package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/domain"
	"github.com/Shahram4wd/Data-Warehouse-sub003/internal/core/ports/driven"
)

const defaultMetricsWindow = 24 * time.Hour

// TokenRequest carries the admin API key for token exchange
type TokenRequest struct {
	APIKey string `json:"api_key"`
}

// TokenResponse carries a freshly minted service token
type TokenResponse struct {
	Token string `json:"token"`
}

// SyncRequest asks for a sync of one source/entity-type pair
type SyncRequest struct {
	Source     string             `json:"source"`
	EntityType string             `json:"entity_type"`
	Options    domain.SyncOptions `json:"options"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Pinger{
		"postgres": s.db,
		"redis":    s.redisClient,
	}
	for name, pinger := range checks {
		if pinger == nil {
			continue
		}
		if err := pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"failed": name,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.authService.ExchangeAPIKey(r.Context(), req.APIKey)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid api key")
		} else {
			writeError(w, http.StatusInternalServerError, "token exchange failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Sync endpoints

func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.syncService.Enqueue(r.Context(), req.Source, req.EntityType, req.Options)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "source not found")
		case errors.Is(err, domain.ErrSourceDisabled):
			writeError(w, http.StatusConflict, "source is disabled")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "entity_type is required")
		default:
			s.logger.Error("enqueue sync failed", "source", req.Source, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to enqueue sync")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, task)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := driven.RunFilter{
		Source:     q.Get("source"),
		EntityType: q.Get("entity_type"),
		Status:     domain.RunStatus(q.Get("status")),
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		filter.Since = &since
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	runs, err := s.syncService.ListRuns(r.Context(), filter)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// Metrics endpoint

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	window := defaultMetricsWindow
	if v := r.URL.Query().Get("window"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration")
			return
		}
		window = parsed
	} else if snapshot := s.metricsService.Latest(); snapshot != nil {
		// Serve the cached snapshot when no explicit window was asked for.
		writeJSON(w, http.StatusOK, snapshot)
		return
	}

	metrics, err := s.metricsService.Compute(r.Context(), window)
	if err != nil {
		s.logger.Error("compute metrics failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute metrics")
		return
	}

	writeJSON(w, http.StatusOK, metrics)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
