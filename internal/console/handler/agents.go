package handler

import (
	"net/http"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
	"go.uber.org/zap"
)

type graphNode struct {
	domain.AgentDescriptor
	State domain.AgentState `json:"state"`
}

type graphResponse struct {
	Nodes []graphNode        `json:"nodes"`
	Edges []domain.AgentEdge `json:"edges"`
	Data  domain.DataSource  `json:"dataSource"`
}

// ListAgents статический реестр агентов
// GET /api/agents
func (h *MetricsHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.Agents())
}

// GetGraph граф оркестрации с текущими состояниями узлов
// GET /api/graph
func (h *MetricsHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context())
	if err != nil {
		h.logger.Error("graph aggregation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errFetchMetrics)
		return
	}

	agents := domain.Agents()
	nodes := make([]graphNode, 0, len(agents))
	for _, a := range agents {
		nodes = append(nodes, graphNode{AgentDescriptor: a, State: snap.Agents[a.ID].State})
	}

	writeJSON(w, http.StatusOK, graphResponse{
		Nodes: nodes,
		Edges: domain.Edges(),
		Data:  snap.Summary.DataSource,
	})
}
