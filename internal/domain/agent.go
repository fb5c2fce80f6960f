package domain

// AgentState Статусы State Machine агента
type AgentState string

const (
	StateIdle      AgentState = "IDLE"
	StateThinking  AgentState = "THINKING"
	StateActing    AgentState = "ACTING"
	StateCompleted AgentState = "COMPLETED"
	StateError     AgentState = "ERROR"
)

// AllAgentStates возвращает полный (закрытый) набор состояний в порядке объявления.
func AllAgentStates() []AgentState {
	return []AgentState{StateIdle, StateThinking, StateActing, StateCompleted, StateError}
}

// Valid проверяет, что значение входит в перечисление
func (s AgentState) Valid() bool {
	switch s {
	case StateIdle, StateThinking, StateActing, StateCompleted, StateError:
		return true
	default:
		return false
	}
}

// AgentLayer - архитектурный слой, к которому относится агент
type AgentLayer string

const (
	LayerOrchestration AgentLayer = "orchestration"
	LayerAnalysis      AgentLayer = "analysis"
	LayerCommunication AgentLayer = "communication"
	LayerGovernance    AgentLayer = "governance"
	LayerSupport       AgentLayer = "support"
)

// AgentDescriptor - статическая идентичность агента из реестра.
type AgentDescriptor struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Color       string     `json:"color"`
	Layer       AgentLayer `json:"layer"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image,omitempty"`
}

// AgentRuntimeState - текущее состояние агента за один цикл опроса
type AgentRuntimeState struct {
	State           AgentState `json:"state"`
	LastActive      int64      `json:"lastActive"` // unix ms
	RequestCount    int        `json:"requestCount"`
	AvgResponseTime float64    `json:"avgResponseTime"` // ms
	SuccessRate     float64    `json:"successRate"`     // 0..1
	ReflectionCount int        `json:"reflectionCount"`
	ErrorCount      *int       `json:"errorCount,omitempty"`
}

// PerformanceSample - один наблюдаемый запрос
type PerformanceSample struct {
	Timestamp           int64   `json:"timestamp"` // unix ms
	Agent               string  `json:"agent"`
	ResponseTime        float64 `json:"responseTime"` // ms
	Success             bool    `json:"success"`
	ReflectionTriggered bool    `json:"reflectionTriggered,omitempty"`
}

// ReflectionThreshold Качество ниже порога считается "needs improvement"
const ReflectionThreshold = 0.8

// ReflectionMetrics - сводка самооценки агента
type ReflectionMetrics struct {
	Attempts            int     `json:"attempts"`
	AvgQuality          float64 `json:"avgQuality"` // 0..1
	ImprovementRate     float64 `json:"improvementRate"`
	BelowThresholdCount int     `json:"belowThresholdCount"`
}

func (r ReflectionMetrics) NeedsImprovement() bool {
	return r.AvgQuality < ReflectionThreshold
}

// StateTransitionMatrix source -> target -> count. Диагональ всегда 0.
type StateTransitionMatrix map[AgentState]map[AgentState]int

// PerformanceTargets Целевые показатели (SLO) оркестратора
var PerformanceTargets = struct {
	APIResponseP95Ms    float64
	AgentProcessingMs   float64
	ReflectionThreshold float64
}{
	APIResponseP95Ms:    200,
	AgentProcessingMs:   5000,
	ReflectionThreshold: ReflectionThreshold,
}
