package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap"
)

// Эндпоинты бэкенда оркестрации
const (
	PathAgents              = "/api/v1/chat/agents"
	PathHealthDetailed      = "/health/detailed"
	PathHealth              = "/health/"
	PathInvestigationStart  = "/api/v1/investigations/start"
	PathInvestigationStream = "/api/v1/investigations/stream/"
)

// Client - тонкий HTTP-клиент к бэкенду оркестрации.
// Ошибки не логируются здесь: решение о деградации принимает вызывающая сторона.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient создает клиент. timeout == 0 - без таймаута (поведение по умолчанию).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("gateway"),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// FetchAgents GET /api/v1/chat/agents
func (c *Client) FetchAgents(ctx context.Context) ([]domain.GatewayAgent, error) {
	var agents []domain.GatewayAgent
	if err := c.getJSON(ctx, PathAgents, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// FetchHealth GET /health/detailed
func (c *Client) FetchHealth(ctx context.Context) (*domain.HealthStatus, error) {
	var h domain.HealthStatus
	if err := c.getJSON(ctx, PathHealthDetailed, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// FetchSimpleHealth GET /health/
func (c *Client) FetchSimpleHealth(ctx context.Context) (*domain.SimpleHealth, error) {
	var h domain.SimpleHealth
	if err := c.getJSON(ctx, PathHealth, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// StartInvestigation запускает расследование. token опционален (Bearer).
func (c *Client) StartInvestigation(ctx context.Context, query, token string) (*domain.Investigation, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("marshal investigation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathInvestigationStart, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var inv domain.Investigation
	if err := c.do(req, PathInvestigationStart, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	// Пробрасываем Trace-ID входящего запроса консоли в бэкенд
	if traceID := telemetry.TraceIDFromContext(req.Context()); traceID != "" {
		req.Header.Set(telemetry.TraceHeader, traceID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return unavailable(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Дочитываем тело, чтобы соединение вернулось в пул
		_, _ = io.Copy(io.Discard, resp.Body)
		return newStatusError(endpoint, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Endpoint: endpoint, Cause: err}
	}
	return nil
}
