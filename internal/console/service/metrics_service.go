package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/stats"
	"github.com/xela07ax/agent-metrics-console/internal/synthetic"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheTTL     = 5 * time.Second
	DefaultSampleCount  = 50
	DefaultRecentWindow = 20
	DefaultTrendWindow  = 5

	snapshotKey = "snapshot"
)

var ErrAgentNotFound = errors.New("agent not found")

// GatewaySource описывает, что агрегатору нужно от бэкенда оркестрации
type GatewaySource interface {
	FetchAgents(ctx context.Context) ([]domain.GatewayAgent, error)
	FetchHealth(ctx context.Context) (*domain.HealthStatus, error)
	FetchSimpleHealth(ctx context.Context) (*domain.SimpleHealth, error)
}

// EventPublisher принимает события смены состояния. Не должен блокировать.
type EventPublisher interface {
	Publish(events ...domain.StateChangeEvent)
}

type Config struct {
	CacheTTL     time.Duration
	SampleCount  int
	RecentWindow int
	GatewayURL   string // только для отчета BackendHealth
}

type Option func(*MetricsService)

func WithClock(now func() time.Time) Option {
	return func(s *MetricsService) { s.now = now }
}

func WithGenerator(gen *synthetic.Generator) Option {
	return func(s *MetricsService) { s.gen = gen }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *MetricsService) { s.publisher = p }
}

func WithTelemetry(m *telemetry.Metrics) Option {
	return func(s *MetricsService) { s.metrics = m }
}

// MetricsService собирает консолидированный снапшот метрик агентов.
// Живые данные бэкенда смешиваются с синтетикой, отказ бэкенда наружу не пробрасывается.
type MetricsService struct {
	source    GatewaySource
	gen       *synthetic.Generator
	cache     *SnapshotCache
	group     singleflight.Group
	publisher EventPublisher
	metrics   *telemetry.Metrics
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

func NewMetricsService(source GatewaySource, cfg Config, logger *zap.Logger, opts ...Option) *MetricsService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.SampleCount <= 0 {
		cfg.SampleCount = DefaultSampleCount
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = DefaultRecentWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MetricsService{
		source: source,
		cfg:    cfg,
		logger: logger.Named("metrics-service"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.gen == nil {
		s.gen = synthetic.New(nil, s.now)
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewMetrics(nil)
	}
	s.cache = NewSnapshotCache(cfg.CacheTTL, s.now)
	return s
}

// GetMetricsSnapshot возвращает свежий снапшот из кэша или пересчитывает его.
// Конкурентные запросы на протухшем кэше приводят ровно к одному пересчету.
func (s *MetricsService) GetMetricsSnapshot(ctx context.Context) *domain.AgentMetricsResponse {
	if snap, ok := s.cache.Get(); ok {
		s.metrics.SnapshotCacheHits.Inc()
		return snap
	}

	// Отмена одного клиента не должна ронять общий пересчет
	refreshCtx := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(snapshotKey, func() (interface{}, error) {
		if snap, ok := s.cache.Get(); ok {
			return snap, nil
		}
		return s.recompute(refreshCtx), nil
	})
	return v.(*domain.AgentMetricsResponse)
}

func (s *MetricsService) recompute(ctx context.Context) *domain.AgentMetricsResponse {
	start := time.Now()

	// 1. Fan-out: список агентов и health параллельно, ошибки изолированы
	var (
		wg        sync.WaitGroup
		agents    []domain.GatewayAgent
		health    *domain.HealthStatus
		agentsErr error
		healthErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		agents, agentsErr = s.source.FetchAgents(ctx)
	}()
	go func() {
		defer wg.Done()
		health, healthErr = s.source.FetchHealth(ctx)
	}()
	wg.Wait()

	if agentsErr != nil {
		s.metrics.GatewayFailures.WithLabelValues("agents").Inc()
		s.logger.Warn("agent list unavailable, using synthetic data", zap.Error(agentsErr))
		agents = nil
	}
	if healthErr != nil {
		s.metrics.GatewayFailures.WithLabelValues("health").Inc()
		s.logger.Warn("backend health unavailable", zap.Error(healthErr))
		health = nil
	}

	// 2. Состояния по реестру: живой сигнал важнее синтетики
	ids := domain.AgentIDs()
	live := collectLive(agents, health)
	states := make(map[string]domain.AgentRuntimeState, len(ids))
	for _, id := range ids {
		st := s.gen.AgentState()
		if sig, ok := live[id]; ok && sig.present() {
			st.State = deriveState(sig)
		}
		states[id] = st
	}

	// 3. Синтетика: выборки, переходы, рефлексия
	performance := s.gen.PerformanceSamples(ids, s.cfg.SampleCount)
	transitions := s.gen.TransitionMatrix()
	reflections := make(map[string]domain.ReflectionMetrics, len(ids))
	for _, id := range ids {
		reflections[id] = s.gen.Reflection()
	}

	// 4. Сводка
	now := s.now()
	source := domain.SourceMock
	if agentsErr == nil {
		source = domain.SourceLive
	}
	summary := buildSummary(states, performance, reflections, s.cfg.RecentWindow)
	summary.Timestamp = now.UnixMilli()
	summary.DataSource = source
	if health != nil {
		summary.BackendStatus = health.OverallStatus
		summary.APIVersion = health.API.Version
	}

	resp := &domain.AgentMetricsResponse{
		Agents:      states,
		Performance: performance,
		Reflections: reflections,
		Transitions: transitions,
		Summary:     summary,
	}

	// 5. Кэш + события смены состояния
	var prevStates map[string]domain.AgentRuntimeState
	if prev := s.cache.Peek(); prev != nil {
		prevStates = prev.Agents
	}
	s.cache.Store(resp, now)

	if s.publisher != nil {
		if events := diffStates(prevStates, states, ids, summary.Timestamp); len(events) > 0 {
			s.publisher.Publish(events...)
		}
	}

	s.metrics.SnapshotRecomputations.WithLabelValues(string(source)).Inc()
	s.logger.Debug("metrics snapshot recomputed",
		zap.String("data_source", string(source)),
		zap.Int("active_agents", summary.ActiveAgents),
		zap.Duration("took", time.Since(start)))

	return resp
}

func buildSummary(
	states map[string]domain.AgentRuntimeState,
	performance []domain.PerformanceSample,
	reflections map[string]domain.ReflectionMetrics,
	recentWindow int,
) domain.DashboardMetrics {
	active := 0
	for _, st := range states {
		if isActive(st.State) {
			active++
		}
	}

	attempts := 0
	for _, r := range reflections {
		attempts += r.Attempts
	}
	var reflectionRate float64
	if len(performance) > 0 {
		reflectionRate = float64(attempts) / float64(len(performance))
	}

	agg := stats.Aggregate(stats.Tail(performance, recentWindow))

	return domain.DashboardMetrics{
		ActiveAgents:    active,
		AvgResponseTime: agg.AvgResponseTime,
		P50ResponseTime: agg.P50,
		P95ResponseTime: agg.P95,
		P99ResponseTime: agg.P99,
		ReflectionRate:  reflectionRate,
		SuccessRate:     agg.SuccessRate,
		TotalRequests:   len(performance),
	}
}

// AgentDetails - карточка агента из текущего снапшота
func (s *MetricsService) AgentDetails(ctx context.Context, id string) (*domain.AgentDetails, error) {
	desc, ok := domain.LookupAgent(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}

	snap := s.GetMetricsSnapshot(ctx)
	return &domain.AgentDetails{
		Agent:      desc,
		Runtime:    snap.Agents[id],
		Reflection: snap.Reflections[id],
		DataSource: snap.Summary.DataSource,
	}, nil
}

// PerformanceTrend - ряд времени ответа текущего снапшота со скользящим средним
// и разбивкой по агентам в порядке реестра.
func (s *MetricsService) PerformanceTrend(ctx context.Context, window int) *domain.PerformanceTrend {
	if window <= 0 {
		window = DefaultTrendWindow
	}

	snap := s.GetMetricsSnapshot(ctx)
	perf := snap.Performance

	timestamps := make([]int64, len(perf))
	for i, p := range perf {
		timestamps[i] = p.Timestamp
	}
	times := stats.ResponseTimes(perf)

	ids := domain.AgentIDs()
	byID := stats.ByAgent(perf, ids)
	byAgent := make([]domain.AgentBreakdown, 0, len(ids))
	for _, id := range ids {
		b := byID[id]
		if desc, ok := domain.LookupAgent(id); ok {
			b.Name = desc.Name
			b.Color = desc.Color
		}
		byAgent = append(byAgent, b)
	}

	return &domain.PerformanceTrend{
		Window:        window,
		Timestamps:    timestamps,
		ResponseTimes: times,
		MovingAverage: stats.MovingAverage(times, window),
		ByAgent:       byAgent,
	}
}

// BackendHealth - проба простого health бэкенда. Ошибка попадает в отчет, а не наружу.
func (s *MetricsService) BackendHealth(ctx context.Context) domain.BackendHealth {
	report := domain.BackendHealth{BaseURL: s.cfg.GatewayURL}

	h, err := s.source.FetchSimpleHealth(ctx)
	if err != nil {
		s.metrics.GatewayFailures.WithLabelValues("simple_health").Inc()
		report.Error = err.Error()
		return report
	}

	report.Reachable = true
	report.Status = h.Status
	return report
}
