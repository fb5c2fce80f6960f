// Package mockgateway эмулирует бэкенд оркестрации для локального запуска консоли
// в режиме "live" без настоящего бэкенда.
package mockgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2" // Используем v2 для Go 1.25
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/gateway"
)

const APIVersion = "mock-1.0.0"

type Options struct {
	MinLatency     time.Duration
	MaxLatency     time.Duration
	FailureRate    float64 // доля ответов 503, 0..1
	StreamInterval time.Duration
	StreamSteps    int
}

func DefaultOptions() Options {
	return Options{
		MinLatency:     50 * time.Millisecond,
		MaxLatency:     300 * time.Millisecond,
		FailureRate:    0,
		StreamInterval: 500 * time.Millisecond,
		StreamSteps:    5,
	}
}

type Server struct {
	router  *chi.Mux
	opts    Options
	logger  *zap.Logger
	started time.Time

	mu             sync.RWMutex
	investigations map[string]domain.Investigation
}

func New(opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.StreamSteps <= 0 {
		opts.StreamSteps = 1
	}
	s := &Server{
		router:         chi.NewRouter(),
		opts:           opts,
		logger:         logger.Named("mock-gateway"),
		started:        time.Now(),
		investigations: make(map[string]domain.Investigation),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.chaos)

	r.Get(gateway.PathAgents, s.listAgents)
	r.Get(gateway.PathHealthDetailed, s.detailedHealth)
	r.Get(gateway.PathHealth, s.simpleHealth)
	r.Post(gateway.PathInvestigationStart, s.startInvestigation)
	r.Get(gateway.PathInvestigationStream+"{id}", s.streamInvestigation)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// chaos имитирует задержку сети и случайные отказы бэкенда
func (s *Server) chaos(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := sleep(r.Context(), s.latency()); err != nil {
			return
		}
		if s.opts.FailureRate > 0 && rand.Float64() < s.opts.FailureRate {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "simulated outage", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) latency() time.Duration {
	spread := s.opts.MaxLatency - s.opts.MinLatency
	if spread <= 0 {
		return s.opts.MinLatency
	}
	return s.opts.MinLatency + rand.N(spread)
}

var mockStatuses = []domain.GatewayAgentStatus{
	domain.GatewayStatusActive,
	domain.GatewayStatusActive,
	domain.GatewayStatusBusy,
	domain.GatewayStatusInactive,
}

func (s *Server) listAgents(w http.ResponseWriter, r *http.Request) {
	agents := domain.Agents()
	out := make([]domain.GatewayAgent, 0, len(agents))
	for _, a := range agents {
		out = append(out, domain.GatewayAgent{
			ID:          a.ID,
			Name:        a.Name,
			Role:        a.Role,
			Description: a.Description,
			Avatar:      a.Image,
			Status:      mockStatuses[rand.IntN(len(mockStatuses))],
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) detailedHealth(w http.ResponseWriter, r *http.Request) {
	var h domain.HealthStatus
	h.API.Status = "ok"
	h.API.Version = APIVersion
	h.API.UptimeSeconds = time.Since(s.started).Seconds()
	h.API.Environment = "mock"
	h.OverallStatus = "healthy"
	h.Timestamp = time.Now().UTC().Format(time.RFC3339)

	h.Agents = make(map[string]domain.AgentHealth)
	for _, id := range domain.AgentIDs() {
		status := domain.HealthAgentAvailable
		if rand.Float64() < 0.1 {
			status = "degraded"
			h.OverallStatus = "degraded"
		}
		h.Agents[id] = domain.AgentHealth{Status: status}
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) simpleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.SimpleHealth{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) startInvestigation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	inv := domain.Investigation{ID: uuid.New().String(), Status: "started", Query: req.Query}
	s.mu.Lock()
	s.investigations[inv.ID] = inv
	s.mu.Unlock()

	s.logger.Info("investigation started", zap.String("investigation_id", inv.ID))
	writeJSON(w, http.StatusAccepted, inv)
}

type streamEvent struct {
	Type     string `json:"type"`
	Step     int    `json:"step"`
	Progress int    `json:"progress"`
	Agent    string `json:"agent,omitempty"`
}

func (s *Server) streamInvestigation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.RLock()
	_, ok := s.investigations[id]
	s.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	ids := domain.AgentIDs()
	steps := s.opts.StreamSteps
	for i := 1; i <= steps; i++ {
		ev := streamEvent{Type: "progress", Step: i, Progress: i * 100 / steps, Agent: ids[rand.IntN(len(ids))]}
		if i == steps {
			ev.Type = "complete"
		}
		payload, _ := json.Marshal(ev)
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		flusher.Flush()

		if i < steps {
			if err := sleep(r.Context(), s.opts.StreamInterval); err != nil {
				return
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
