package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL+"/", 0, zaptest.NewLogger(t))
}

func TestClient_FetchAgents(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathAgents {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"zumbi","name":"Zumbi","status":"busy"},{"id":"anita","status":"active"}]`))
	})

	agents, err := c.FetchAgents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	if agents[0].ID != "zumbi" || agents[0].Status != domain.GatewayStatusBusy {
		t.Errorf("unexpected first agent: %+v", agents[0])
	}
}

func TestClient_FetchHealth(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathHealthDetailed {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"api": {"status": "ok", "version": "2.1.0", "uptime_seconds": 12.5},
			"agents": {"zumbi": {"status": "available", "capabilities": ["anomaly"]}},
			"overall_status": "healthy",
			"timestamp": "2026-01-01T00:00:00Z"
		}`))
	})

	h, err := c.FetchHealth(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.API.Version != "2.1.0" || h.OverallStatus != "healthy" {
		t.Errorf("unexpected health: %+v", h)
	}
	if h.Agents["zumbi"].Status != domain.HealthAgentAvailable {
		t.Errorf("expected zumbi available, got %q", h.Agents["zumbi"].Status)
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchSimpleHealth(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}

	var sErr *StatusError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if sErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", sErr.StatusCode)
	}
	if sErr.RetryAfter != 7*time.Second {
		t.Errorf("expected retry-after 7s, got %v", sErr.RetryAfter)
	}
	if !isTransient(err) {
		t.Error("503 should be transient")
	}
}

func TestClient_DecodeError(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	})

	_, err := c.FetchAgents(context.Background())
	var decErr *DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Error("decode error should classify as source unavailable")
	}
	if isTransient(err) {
		t.Error("decode error should not be retried")
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil)
	_, err := c.FetchAgents(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestClient_StartInvestigation(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantAuth string
	}{
		{name: "with token", token: "secret", wantAuth: "Bearer secret"},
		{name: "anonymous", token: "", wantAuth: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != PathInvestigationStart {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != tt.wantAuth {
					t.Errorf("authorization = %q, want %q", got, tt.wantAuth)
				}
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Errorf("decode body: %v", err)
				}
				_, _ = w.Write([]byte(`{"investigation_id":"inv-1","status":"started","query":"` + body["query"] + `"}`))
			})

			inv, err := c.StartInvestigation(context.Background(), "contracts 2024", tt.token)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inv.ID != "inv-1" || inv.Query != "contracts 2024" {
				t.Errorf("unexpected investigation: %+v", inv)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline wrapped", unavailable(PathAgents, context.DeadlineExceeded), false},
		{"not found", &StatusError{StatusCode: http.StatusNotFound}, false},
		{"too many requests", &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"bad gateway", &StatusError{StatusCode: http.StatusBadGateway}, true},
		{"network", unavailable(PathAgents, errors.New("connection refused")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDecodeEvents_SkipsMalformed(t *testing.T) {
	input := strings.Join([]string{
		": keep-alive",
		`data: {"type":"progress","value":10}`,
		"data: {broken",
		"",
		"event: ignored",
		`data: {"type":"done"}` + "\r",
	}, "\n")

	var got []string
	err := DecodeEvents(strings.NewReader(input), zaptest.NewLogger(t), func(msg json.RawMessage) bool {
		got = append(got, string(msg))
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d: %v", len(got), got)
	}
	if got[1] != `{"type":"done"}` {
		t.Errorf("unexpected last event %q", got[1])
	}
}

func TestDecodeEvents_StopsOnEmitFalse(t *testing.T) {
	input := "data: 1\ndata: 2\ndata: 3\n"

	count := 0
	err := DecodeEvents(strings.NewReader(input), nil, func(json.RawMessage) bool {
		count++
		return false
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected to stop after first event, got %d", count)
	}
}

func TestClient_StreamInvestigation(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathInvestigationStream+"inv-42" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("expected event-stream accept header")
		}
		_, _ = w.Write([]byte("data: {\"step\":1}\ndata: nope\ndata: {\"step\":2}\n"))
	})

	events, err := c.StreamInvestigation(context.Background(), "inv-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []json.RawMessage
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
}

func TestClient_StreamInvestigation_Cancel(t *testing.T) {
	release := make(chan struct{})
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("data: {\"step\":1}\n"))
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := c.StreamInvestigation(ctx, "inv-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	<-events
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// допустимо получить остаток буфера, но канал обязан закрыться
			for range events {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream channel was not closed after cancel")
	}
}

func TestClient_StreamInvestigation_NotFound(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.StreamInvestigation(context.Background(), "missing")
	var sErr *StatusError
	if !errors.As(err, &sErr) || sErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
}

func TestClient_PropagatesTraceID(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(telemetry.TraceHeader); got != "trace-abc" {
			t.Errorf("trace header = %q, want trace-abc", got)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	ctx := telemetry.WithTraceID(context.Background(), "trace-abc")
	if _, err := c.FetchSimpleHealth(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
