package domain

// GatewayAgentStatus - статус агента, как его отдает бэкенд оркестрации
type GatewayAgentStatus string

const (
	GatewayStatusActive   GatewayAgentStatus = "active"
	GatewayStatusInactive GatewayAgentStatus = "inactive"
	GatewayStatusBusy     GatewayAgentStatus = "busy"
)

// HealthAgentAvailable - статус агента в /health/detailed, означающий готовность
const HealthAgentAvailable = "available"

// GatewayAgent - элемент ответа GET /api/v1/chat/agents
type GatewayAgent struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Avatar      string             `json:"avatar"`
	Role        string             `json:"role"`
	Description string             `json:"description"`
	Status      GatewayAgentStatus `json:"status"`
}

// HealthStatus - ответ GET /health/detailed
type HealthStatus struct {
	API struct {
		Status          string  `json:"status"`
		Version         string  `json:"version"`
		UptimeSeconds   float64 `json:"uptime_seconds"`
		UptimeFormatted string  `json:"uptime_formatted,omitempty"`
		Environment     string  `json:"environment,omitempty"`
	} `json:"api"`
	Agents        map[string]AgentHealth `json:"agents"`
	OverallStatus string                 `json:"overall_status"`
	Timestamp     string                 `json:"timestamp"`
}

type AgentHealth struct {
	Status       string   `json:"status"`
	Capabilities []string `json:"capabilities"`
}

// SimpleHealth - ответ GET /health/
type SimpleHealth struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Investigation - ответ POST /api/v1/investigations/start
type Investigation struct {
	ID     string `json:"investigation_id"`
	Status string `json:"status"`
	Query  string `json:"query,omitempty"`
}

// BackendHealth - результат пробы доступности бэкенда для консоли
type BackendHealth struct {
	Reachable bool   `json:"reachable"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
	BaseURL   string `json:"baseUrl"`
}
