package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"github.com/xela07ax/agent-metrics-console/internal/telemetry"
	"go.uber.org/zap/zaptest"
)

type memorySink struct {
	mu      sync.Mutex
	events  []domain.StateChangeEvent
	batches int
	err     error
}

func (s *memorySink) WriteBatch(_ context.Context, events []domain.StateChangeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	s.events = append(s.events, events...)
	return s.err
}

func (s *memorySink) snapshot() []domain.StateChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StateChangeEvent(nil), s.events...)
}

func stateEvent(id string, state domain.AgentState) domain.StateChangeEvent {
	return domain.StateChangeEvent{
		Type:      domain.EventTypeStateChange,
		AgentID:   id,
		State:     state,
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestDispatcher_DrainOnStop(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, 16, nil, zaptest.NewLogger(t))
	d.Start()

	d.Publish(
		stateEvent("zumbi", domain.StateActing),
		stateEvent("anita", domain.StateIdle),
	)
	d.Publish(stateEvent("oxossi", domain.StateError))
	d.Stop()

	got := sink.snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 delivered events, got %d", len(got))
	}
	if got[0].AgentID != "zumbi" || got[2].State != domain.StateError {
		t.Errorf("events delivered out of order: %+v", got)
	}
}

func TestDispatcher_FlushOnTicker(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, 16, nil, nil)
	d.flushInterval = 10 * time.Millisecond
	d.Start()
	defer d.Stop()

	d.Publish(stateEvent("zumbi", domain.StateThinking))

	deadline := time.Now().Add(2 * time.Second)
	for len(sink.snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event was not flushed by ticker")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_Overflow(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	sink := &memorySink{}

	// Воркер не запущен: буфер на одно событие заполняется сразу
	d := NewDispatcher(sink, 1, metrics, nil)
	d.Publish(
		stateEvent("zumbi", domain.StateActing),
		stateEvent("anita", domain.StateActing),
		stateEvent("ceuci", domain.StateActing),
	)

	if got := testutil.ToFloat64(metrics.EventsDropped); got != 2 {
		t.Errorf("dropped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.EventBufferFill); got != 1 {
		t.Errorf("buffer fill = %v, want 1", got)
	}

	d.Start()
	d.Stop()

	if got := len(sink.snapshot()); got != 1 {
		t.Errorf("expected the buffered event to be delivered, got %d", got)
	}
	if got := testutil.ToFloat64(metrics.EventBufferFill); got != 0 {
		t.Errorf("buffer fill after drain = %v, want 0", got)
	}
}

func TestDispatcher_PublishAfterStop(t *testing.T) {
	sink := &memorySink{}
	d := NewDispatcher(sink, 4, nil, nil)
	d.Start()
	d.Stop()
	d.Stop() // повторная остановка безопасна

	d.Publish(stateEvent("zumbi", domain.StateIdle))

	if got := len(sink.snapshot()); got != 0 {
		t.Errorf("expected no delivery after stop, got %d", got)
	}
}

func TestDispatcher_SinkErrorDoesNotStopWorker(t *testing.T) {
	sink := &memorySink{err: errors.New("redis down")}
	d := NewDispatcher(sink, 4, nil, zaptest.NewLogger(t))
	d.batchSize = 1
	d.Start()

	d.Publish(stateEvent("zumbi", domain.StateIdle), stateEvent("anita", domain.StateIdle))
	d.Stop()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.batches != 2 {
		t.Errorf("expected 2 batch attempts, got %d", sink.batches)
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"type":"state_change","agentId":"zumbi","state":"ACTING","previous":"IDLE","timestamp":1}`, false},
		{"malformed", `{"type":`, true},
		{"wrong type", `{"type":"metrics_update","agentId":"zumbi","state":"IDLE"}`, true},
		{"unknown state", `{"type":"state_change","agentId":"zumbi","state":"SLEEPING"}`, true},
		{"missing agent", `{"type":"state_change","state":"IDLE"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (ev.AgentID != "zumbi" || ev.Previous != domain.StateIdle) {
				t.Errorf("unexpected event: %+v", ev)
			}
		})
	}
}

func TestRedisSink_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	sink := NewRedisSink(rdb)
	err := sink.WriteBatch(context.Background(), []domain.StateChangeEvent{stateEvent("zumbi", domain.StateIdle)})
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
