package synthetic

import (
	"math/rand/v2"
	"time"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
)

// Rand - источник случайности. *rand.Rand из math/rand/v2 удовлетворяет интерфейсу,
// поэтому в тестах подставляется rand.New(rand.NewPCG(seed1, seed2)).
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// globalRand - потокобезопасный глобальный источник math/rand/v2
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// SampleSpacing Интервал между синтетическими выборками производительности
const SampleSpacing = 10 * time.Second

// Generator - fallback-источник правдоподобных данных для дашборда.
// Недетерминирован по построению; тесты проверяют форму, а не значения.
type Generator struct {
	rnd Rand
	now func() time.Time
}

func New(rnd Rand, now func() time.Time) *Generator {
	if rnd == nil {
		rnd = globalRand{}
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rnd: rnd, now: now}
}

// NewDefault - генератор на глобальном источнике и системных часах
func NewDefault() *Generator {
	return New(globalRand{}, time.Now)
}

// syntheticStates ERROR намеренно исключен из синтетики
var syntheticStates = []domain.AgentState{
	domain.StateIdle,
	domain.StateThinking,
	domain.StateActing,
	domain.StateCompleted,
}

// AgentState генерирует состояние агента.
// Диапазоны: requestCount [0,100), avgResponseTime [50,200) ms,
// successRate [0.85,0.99), reflectionCount [0,20), errorCount [0,5).
func (g *Generator) AgentState() domain.AgentRuntimeState {
	nowMs := g.now().UnixMilli()
	errCount := g.rnd.IntN(5)

	return domain.AgentRuntimeState{
		State:           syntheticStates[g.rnd.IntN(len(syntheticStates))],
		LastActive:      nowMs - int64(g.rnd.Float64()*60_000),
		RequestCount:    g.rnd.IntN(100),
		AvgResponseTime: 50 + g.rnd.Float64()*150,
		SuccessRate:     0.85 + g.rnd.Float64()*0.14,
		ReflectionCount: g.rnd.IntN(20),
		ErrorCount:      &errCount,
	}
}

// PerformanceSamples генерирует count выборок, упорядоченных old -> new с шагом SampleSpacing.
func (g *Generator) PerformanceSamples(agentIDs []string, count int) []domain.PerformanceSample {
	if len(agentIDs) == 0 || count <= 0 {
		return []domain.PerformanceSample{}
	}

	nowMs := g.now().UnixMilli()
	step := SampleSpacing.Milliseconds()

	out := make([]domain.PerformanceSample, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, domain.PerformanceSample{
			Timestamp:           nowMs - int64(count-i)*step,
			Agent:               agentIDs[g.rnd.IntN(len(agentIDs))],
			ResponseTime:        50 + g.rnd.Float64()*150,
			Success:             g.rnd.Float64() > 0.1,
			ReflectionTriggered: g.rnd.Float64() > 0.8,
		})
	}
	return out
}

// TransitionMatrix - 5x5 по всем состояниям; вне диагонали [0,50), диагональ 0.
func (g *Generator) TransitionMatrix() domain.StateTransitionMatrix {
	states := domain.AllAgentStates()
	m := make(domain.StateTransitionMatrix, len(states))
	for _, from := range states {
		row := make(map[domain.AgentState]int, len(states))
		for _, to := range states {
			if from == to {
				row[to] = 0
				continue
			}
			row[to] = g.rnd.IntN(50)
		}
		m[from] = row
	}
	return m
}

// Reflection - метрики самооценки: attempts [0,10), avgQuality [0.75,0.99),
// improvementRate [0,0.3), belowThresholdCount [0,3).
func (g *Generator) Reflection() domain.ReflectionMetrics {
	return domain.ReflectionMetrics{
		Attempts:            g.rnd.IntN(10),
		AvgQuality:          0.75 + g.rnd.Float64()*0.24,
		ImprovementRate:     g.rnd.Float64() * 0.3,
		BelowThresholdCount: g.rnd.IntN(3),
	}
}
