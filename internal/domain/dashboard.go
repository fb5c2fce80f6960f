package domain

// DataSource - тег происхождения данных (provenance)
type DataSource string

const (
	SourceLive DataSource = "live"
	SourceMock DataSource = "mock"
)

// DashboardMetrics - сводка для верхней панели дашборда
type DashboardMetrics struct {
	ActiveAgents    int     `json:"activeAgents"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	P50ResponseTime float64 `json:"p50ResponseTime"`
	P95ResponseTime float64 `json:"p95ResponseTime"`
	P99ResponseTime float64 `json:"p99ResponseTime"`
	ReflectionRate  float64 `json:"reflectionRate"`
	SuccessRate     float64 `json:"successRate"`
	TotalRequests   int     `json:"totalRequests"`
	Timestamp       int64   `json:"timestamp"` // unix ms

	DataSource    DataSource `json:"dataSource"`
	BackendStatus string     `json:"backendStatus,omitempty"`
	APIVersion    string     `json:"apiVersion,omitempty"`
}

// AgentMetricsResponse - консолидированный ответ GET /api/metrics
type AgentMetricsResponse struct {
	Agents      map[string]AgentRuntimeState `json:"agents"`
	Performance []PerformanceSample          `json:"performance"`
	Reflections map[string]ReflectionMetrics `json:"reflections"`
	Transitions StateTransitionMatrix        `json:"transitions"`
	Summary     DashboardMetrics             `json:"summary"`
}

// AgentDetails - карточка агента: статика из реестра + рантайм из снапшота
type AgentDetails struct {
	Agent      AgentDescriptor   `json:"agent"`
	Runtime    AgentRuntimeState `json:"runtime"`
	Reflection ReflectionMetrics `json:"reflection"`
	DataSource DataSource        `json:"dataSource"`
}

// AgentBreakdown - агрегация по одному агенту (для bar chart)
type AgentBreakdown struct {
	Agent           string  `json:"agent"`
	Name            string  `json:"name"`
	Color           string  `json:"color"`
	Count           int     `json:"count"`
	AvgResponseTime float64 `json:"avgResponseTime"`
}

// PerformanceTrend - ряд времени ответа и его скользящее среднее
type PerformanceTrend struct {
	Window        int              `json:"window"`
	Timestamps    []int64          `json:"timestamps"`
	ResponseTimes []float64        `json:"responseTimes"`
	MovingAverage []float64        `json:"movingAverage"`
	ByAgent       []AgentBreakdown `json:"byAgent"`
}

// StateChangeEvent - сигнал для real-time подписчиков
type StateChangeEvent struct {
	Type      string     `json:"type"` // всегда "state_change"
	AgentID   string     `json:"agentId"`
	State     AgentState `json:"state"`
	Previous  AgentState `json:"previous,omitempty"`
	Timestamp int64      `json:"timestamp"`
}

const EventTypeStateChange = "state_change"
