package service

import (
	"testing"
	"time"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
)

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name string
		sig  liveSignal
		want domain.AgentState
	}{
		{"listed active", liveSignal{listed: true, listStatus: domain.GatewayStatusActive}, domain.StateIdle},
		{"listed busy", liveSignal{listed: true, listStatus: domain.GatewayStatusBusy}, domain.StateActing},
		{"listed inactive", liveSignal{listed: true, listStatus: domain.GatewayStatusInactive}, domain.StateError},
		{"health available", liveSignal{inHealth: true, healthStatus: domain.HealthAgentAvailable}, domain.StateIdle},
		{"health degraded", liveSignal{inHealth: true, healthStatus: "degraded"}, domain.StateError},
		{
			"busy beats available",
			liveSignal{listed: true, listStatus: domain.GatewayStatusBusy, inHealth: true, healthStatus: domain.HealthAgentAvailable},
			domain.StateActing,
		},
		{
			"inactive falls through to health",
			liveSignal{listed: true, listStatus: domain.GatewayStatusInactive, inHealth: true, healthStatus: domain.HealthAgentAvailable},
			domain.StateIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveState(tt.sig); got != tt.want {
				t.Errorf("deriveState() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCollectLive(t *testing.T) {
	agents := []domain.GatewayAgent{{ID: "zumbi", Status: domain.GatewayStatusBusy}}
	health := &domain.HealthStatus{Agents: map[string]domain.AgentHealth{
		"zumbi": {Status: domain.HealthAgentAvailable},
		"anita": {Status: "down"},
	}}

	live := collectLive(agents, health)

	if z := live["zumbi"]; !z.listed || !z.inHealth {
		t.Errorf("zumbi should carry both signals: %+v", z)
	}
	if a := live["anita"]; a.listed || !a.inHealth || a.healthStatus != "down" {
		t.Errorf("unexpected anita signal: %+v", a)
	}
	if _, ok := collectLive(nil, nil)["zumbi"]; ok {
		t.Error("no sources must produce no signals")
	}
}

func TestIsActive(t *testing.T) {
	for _, s := range domain.AllAgentStates() {
		want := s != domain.StateIdle
		if got := isActive(s); got != want {
			t.Errorf("isActive(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestDiffStates(t *testing.T) {
	ids := []string{"anita", "zumbi"}
	next := map[string]domain.AgentRuntimeState{
		"anita": {State: domain.StateIdle},
		"zumbi": {State: domain.StateActing},
	}

	first := diffStates(nil, next, ids, 42)
	if len(first) != 2 {
		t.Fatalf("expected an event per agent on first snapshot, got %d", len(first))
	}
	if first[0].Previous != "" || first[0].Timestamp != 42 {
		t.Errorf("unexpected initial event: %+v", first[0])
	}

	prev := map[string]domain.AgentRuntimeState{
		"anita": {State: domain.StateIdle},
		"zumbi": {State: domain.StateThinking},
	}
	changed := diffStates(prev, next, ids, 43)
	if len(changed) != 1 {
		t.Fatalf("expected one change, got %d", len(changed))
	}
	if changed[0].AgentID != "zumbi" || changed[0].Previous != domain.StateThinking || changed[0].State != domain.StateActing {
		t.Errorf("unexpected change event: %+v", changed[0])
	}
}

func TestSnapshotCache(t *testing.T) {
	clock := newFakeClock()
	c := NewSnapshotCache(time.Second, clock.Now)

	if _, ok := c.Get(); ok {
		t.Fatal("empty cache must miss")
	}

	snap := &domain.AgentMetricsResponse{}
	c.Store(snap, clock.Now())

	if got, ok := c.Get(); !ok || got != snap {
		t.Fatal("expected a fresh hit")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(); ok {
		t.Error("snapshot aged exactly TTL must be stale")
	}
	if c.Peek() != snap {
		t.Error("Peek must return the stale snapshot")
	}

	c.Invalidate()
	if c.Peek() != nil {
		t.Error("Invalidate must drop the snapshot")
	}
}
