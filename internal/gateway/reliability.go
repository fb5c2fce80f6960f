package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/infra"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxRetryDelay - потолок паузы между повторами, в том числе по Retry-After
const maxRetryDelay = 30 * time.Second

// Fetcher - набор вызовов бэкенда, которые нужны агрегатору
type Fetcher interface {
	FetchAgents(ctx context.Context) ([]domain.GatewayAgent, error)
	FetchHealth(ctx context.Context) (*domain.HealthStatus, error)
	FetchSimpleHealth(ctx context.Context) (*domain.SimpleHealth, error)
}

// ReliabilityConfig Настройки обвязки надежности
type ReliabilityConfig struct {
	RetryAttempts uint
	RetryDelay    time.Duration

	RateLimit float64 // запросов в секунду, 0 - без лимита
	RateBurst int

	CBMaxRequests      uint32
	CBInterval         time.Duration
	CBTimeout          time.Duration
	CBFailureThreshold uint32
}

// ReliabilityFromConfig переносит секцию gateway конфига в настройки обвязки
func ReliabilityFromConfig(c infra.GatewayConfig) ReliabilityConfig {
	return ReliabilityConfig{
		RetryAttempts:      c.RetryAttempts,
		RetryDelay:         c.RetryDelay,
		RateLimit:          c.RateLimit,
		RateBurst:          c.RateBurst,
		CBMaxRequests:      c.CBMaxRequests,
		CBInterval:         c.CBInterval,
		CBTimeout:          c.CBTimeout,
		CBFailureThreshold: c.CBFailureThreshold,
	}
}

// Protected оборачивает Fetcher: Rate Limiter -> Circuit Breaker -> Retry.
// Любой отказ на выходе классифицируется как ErrSourceUnavailable.
type Protected struct {
	next    Fetcher
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cfg     ReliabilityConfig
	metrics *telemetry.Metrics
	logger  *zap.Logger
}

func NewProtected(next Fetcher, cfg ReliabilityConfig, metrics *telemetry.Metrics, logger *zap.Logger) *Protected {
	if metrics == nil {
		metrics = telemetry.NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.CBFailureThreshold == 0 {
		cfg.CBFailureThreshold = 5
	}

	p := &Protected{
		next:    next,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.Named("gateway-reliability"),
	}

	// Настройка предохранителя
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "orchestration-gateway",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CBFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			p.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	p.metrics.CircuitBreakerState.WithLabelValues(p.cb.Name()).Set(float64(gobreaker.StateClosed))

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return p
}

func (p *Protected) FetchAgents(ctx context.Context) ([]domain.GatewayAgent, error) {
	return protectedCall(ctx, p, PathAgents, p.next.FetchAgents)
}

func (p *Protected) FetchHealth(ctx context.Context) (*domain.HealthStatus, error) {
	return protectedCall(ctx, p, PathHealthDetailed, p.next.FetchHealth)
}

func (p *Protected) FetchSimpleHealth(ctx context.Context) (*domain.SimpleHealth, error) {
	return protectedCall(ctx, p, PathHealth, p.next.FetchSimpleHealth)
}

// State - текущее состояние предохранителя
func (p *Protected) State() gobreaker.State {
	return p.cb.State()
}

// retryDelay Если бэкенд прислал Retry-After (429/503) - ждем столько, сколько просят,
// иначе экспоненциальный бэкофф от RetryDelay.
func retryDelay(n uint, err error, config retry.DelayContext) time.Duration {
	var sErr *StatusError
	if errors.As(err, &sErr) && sErr.RetryAfter > 0 {
		return sErr.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func protectedCall[T any](ctx context.Context, p *Protected, endpoint string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	start := time.Now()
	outcome := "success"
	defer func() {
		p.metrics.GatewayDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	}()

	// 1. Rate Limiter
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			outcome = "rate_limited"
			return zero, unavailable(endpoint, fmt.Errorf("rate limit: %w", err))
		}
	}

	// 2. Circuit Breaker
	res, err := p.cb.Execute(func() (interface{}, error) {
		var result T
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(p.cfg.RetryAttempts),
			retry.Delay(p.cfg.RetryDelay),
			retry.MaxDelay(maxRetryDelay),
			retry.DelayType(retryDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(isTransient),
		)

		retryErr := r.Do(func() error {
			var callErr error
			result, callErr = fn(ctx)
			return callErr
		})
		return result, retryErr
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
			return zero, unavailable(endpoint, err)
		}
		outcome = "error"
		if !errors.Is(err, ErrSourceUnavailable) {
			err = unavailable(endpoint, err)
		}
		return zero, err
	}

	return res.(T), nil
}
