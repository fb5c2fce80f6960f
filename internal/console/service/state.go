package service

import (
	"github.com/xela07ax/agent-metrics-console/internal/domain"
)

// liveSignal - что бэкенд сообщил об агенте за этот цикл опроса
type liveSignal struct {
	listed       bool
	listStatus   domain.GatewayAgentStatus
	inHealth     bool
	healthStatus string
}

func (l liveSignal) present() bool {
	return l.listed || l.inHealth
}

// collectLive сводит список агентов и health в сигнал по каждому id
func collectLive(agents []domain.GatewayAgent, health *domain.HealthStatus) map[string]liveSignal {
	out := make(map[string]liveSignal)
	for _, a := range agents {
		sig := out[a.ID]
		sig.listed = true
		sig.listStatus = a.Status
		out[a.ID] = sig
	}
	if health != nil {
		for id, h := range health.Agents {
			sig := out[id]
			sig.inHealth = true
			sig.healthStatus = h.Status
			out[id] = sig
		}
	}
	return out
}

// deriveState Приоритет: список "active" -> IDLE, список "busy" -> ACTING,
// health "available" -> IDLE, иначе ERROR.
func deriveState(sig liveSignal) domain.AgentState {
	switch {
	case sig.listed && sig.listStatus == domain.GatewayStatusActive:
		return domain.StateIdle
	case sig.listed && sig.listStatus == domain.GatewayStatusBusy:
		return domain.StateActing
	case sig.inHealth && sig.healthStatus == domain.HealthAgentAvailable:
		return domain.StateIdle
	default:
		return domain.StateError
	}
}

// isActive - агент считается активным в любом состоянии, кроме IDLE
func isActive(s domain.AgentState) bool {
	switch s {
	case domain.StateIdle:
		return false
	case domain.StateThinking, domain.StateActing, domain.StateCompleted, domain.StateError:
		return true
	default:
		return false
	}
}

// diffStates строит события state_change относительно предыдущего снапшота.
// Первый снапшот (prev == nil) публикует текущее состояние каждого агента.
func diffStates(prev, next map[string]domain.AgentRuntimeState, ids []string, ts int64) []domain.StateChangeEvent {
	var events []domain.StateChangeEvent
	for _, id := range ids {
		cur, ok := next[id]
		if !ok {
			continue
		}
		ev := domain.StateChangeEvent{
			Type:      domain.EventTypeStateChange,
			AgentID:   id,
			State:     cur.State,
			Timestamp: ts,
		}
		if prev != nil {
			old, had := prev[id]
			if had && old.State == cur.State {
				continue
			}
			ev.Previous = old.State
		}
		events = append(events, ev)
	}
	return events
}
