package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/agent-metrics-console/internal/console/service"
	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap"
)

const errFetchMetrics = "Failed to fetch agent metrics"

// MetricsService Описываем, что нам нужно от сервиса
type MetricsService interface {
	GetMetricsSnapshot(ctx context.Context) *domain.AgentMetricsResponse
	AgentDetails(ctx context.Context, id string) (*domain.AgentDetails, error)
	PerformanceTrend(ctx context.Context, window int) *domain.PerformanceTrend
	BackendHealth(ctx context.Context) domain.BackendHealth
}

type MetricsHandler struct {
	service MetricsService
	logger  *zap.Logger
}

func NewMetricsHandler(s MetricsService, logger *zap.Logger) *MetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsHandler{service: s, logger: logger.Named("metrics-handler")}
}

// GetMetrics отдает консолидированный снапшот для дашборда.
// GET /api/metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context())
	if err != nil {
		h.logger.Error("metrics aggregation failed",
			zap.String("trace_id", telemetry.TraceIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, errFetchMetrics)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// snapshot изолирует неожиданный сбой агрегации (panic, битая форма) от клиента
func (h *MetricsHandler) snapshot(ctx context.Context) (snap *domain.AgentMetricsResponse, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			snap = nil
			err = fmt.Errorf("metrics aggregation panic: %v", rec)
		}
	}()

	snap = h.service.GetMetricsSnapshot(ctx)
	if err := domain.ValidateResponse(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// GetAgent карточка агента
// GET /api/agents/{id}
func (h *MetricsHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Agent ID is required")
		return
	}

	details, err := h.service.AgentDetails(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			writeError(w, http.StatusNotFound, "Agent not found")
			return
		}
		h.logger.Error("failed to load agent details",
			zap.String("agent_id", id),
			zap.String("trace_id", telemetry.TraceIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, errFetchMetrics)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// GetPerformance тренд времени ответа
// GET /api/performance?window=N
func (h *MetricsHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive integer")
			return
		}
		window = n
	}
	writeJSON(w, http.StatusOK, h.service.PerformanceTrend(r.Context(), window))
}

// GetBackendHealth доступность бэкенда оркестрации
// GET /api/backend/health
func (h *MetricsHandler) GetBackendHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.BackendHealth(r.Context()))
}
