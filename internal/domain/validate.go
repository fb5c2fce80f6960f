package domain

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidResponse = errors.New("invalid metrics response")

// ValidateResponse проверяет форму ответа: полнота по реестру, матрица 5x5, отсутствие NaN.
func ValidateResponse(r *AgentMetricsResponse) error {
	if r == nil {
		return fmt.Errorf("%w: nil response", ErrInvalidResponse)
	}
	if r.Agents == nil || r.Reflections == nil || r.Transitions == nil || r.Performance == nil {
		return fmt.Errorf("%w: missing section", ErrInvalidResponse)
	}

	if err := sameKeys("agents", r.Agents); err != nil {
		return err
	}
	if err := sameKeys("reflections", r.Reflections); err != nil {
		return err
	}

	for id, st := range r.Agents {
		if !st.State.Valid() {
			return fmt.Errorf("%w: agent %s has unknown state %q", ErrInvalidResponse, id, st.State)
		}
		if !inUnit(st.SuccessRate) {
			return fmt.Errorf("%w: agent %s success rate %v out of range", ErrInvalidResponse, id, st.SuccessRate)
		}
	}
	for id, rm := range r.Reflections {
		if !inUnit(rm.AvgQuality) {
			return fmt.Errorf("%w: agent %s quality %v out of range", ErrInvalidResponse, id, rm.AvgQuality)
		}
	}
	for _, p := range r.Performance {
		if _, ok := registry[p.Agent]; !ok {
			return fmt.Errorf("%w: sample for unknown agent %s", ErrInvalidResponse, p.Agent)
		}
	}

	states := AllAgentStates()
	if len(r.Transitions) != len(states) {
		return fmt.Errorf("%w: transitions has %d rows", ErrInvalidResponse, len(r.Transitions))
	}
	for _, from := range states {
		row, ok := r.Transitions[from]
		if !ok || len(row) != len(states) {
			return fmt.Errorf("%w: transitions row %s malformed", ErrInvalidResponse, from)
		}
		if row[from] != 0 {
			return fmt.Errorf("%w: self-transition counted for %s", ErrInvalidResponse, from)
		}
	}

	s := r.Summary
	for name, v := range map[string]float64{
		"avgResponseTime": s.AvgResponseTime,
		"reflectionRate":  s.ReflectionRate,
		"successRate":     s.SuccessRate,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: summary.%s is %v", ErrInvalidResponse, name, v)
		}
	}
	if s.DataSource != SourceLive && s.DataSource != SourceMock {
		return fmt.Errorf("%w: unknown data source %q", ErrInvalidResponse, s.DataSource)
	}
	return nil
}

func sameKeys[V any](section string, m map[string]V) error {
	if len(m) != len(registry) {
		return fmt.Errorf("%w: %s has %d entries, registry has %d", ErrInvalidResponse, section, len(m), len(registry))
	}
	for id := range m {
		if _, ok := registry[id]; !ok {
			return fmt.Errorf("%w: %s contains unknown agent %s", ErrInvalidResponse, section, id)
		}
	}
	return nil
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
