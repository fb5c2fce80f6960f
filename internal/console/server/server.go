package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/agent-metrics-console/internal/console/handler"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Источник для /metrics; nil - экспорт отключен
	gatherer prometheus.Gatherer

	metricsHandler *handler.MetricsHandler // /api/*
}

// NewConsoleServer инициализирует HTTP API дашборда со всеми зависимостями
func NewConsoleServer(
	logger *zap.Logger,
	metricsH *handler.MetricsHandler,
	gatherer prometheus.Gatherer,
) *ConsoleServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ConsoleServer{
		router:         chi.NewRouter(),
		logger:         logger.Named("console-api"),
		gatherer:       gatherer,
		metricsHandler: metricsH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(telemetry.TracingMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// --- 3. API дашборда ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/metrics", s.metricsHandler.GetMetrics) // Консолидированный снапшот (поллинг UI раз в 5с)

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", s.metricsHandler.ListAgents) // Реестр агентов
			r.Get("/{id}", s.metricsHandler.GetAgent)
		})

		r.Get("/graph", s.metricsHandler.GetGraph)             // Граф оркестрации
		r.Get("/performance", s.metricsHandler.GetPerformance) // ?window=N
		r.Get("/backend/health", s.metricsHandler.GetBackendHealth)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
