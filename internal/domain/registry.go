package domain

import "sort"

// registry - статический реестр агентов. Определяется один раз, наружу отдаются только копии.
var registry = map[string]AgentDescriptor{
	"abaporu": {
		ID: "abaporu", Name: "Abaporu", Role: "Master Orchestrator", Color: "#ef4444",
		Layer: LayerOrchestration, Description: "Orchestrates all agents using ReAct pattern", Image: "/agents/abaporu.png",
	},
	"ayrton_senna": {
		ID: "ayrton_senna", Name: "Ayrton Senna", Role: "Intent Router", Color: "#f59e0b",
		Layer: LayerOrchestration, Description: "Semantic routing and intent classification", Image: "/agents/senna.png",
	},
	"zumbi": {
		ID: "zumbi", Name: "Zumbi dos Palmares", Role: "Anomaly Detection", Color: "#8b5cf6",
		Layer: LayerAnalysis, Description: "FFT spectral analysis, deviation detection", Image: "/agents/zumbi.png",
	},
	"anita": {
		ID: "anita", Name: "Anita Garibaldi", Role: "Statistical Analysis", Color: "#06b6d4",
		Layer: LayerAnalysis, Description: "Statistical data analysis, correlation matrices", Image: "/agents/anita.png",
	},
	"oxossi": {
		ID: "oxossi", Name: "Oxóssi", Role: "Fraud Detection", Color: "#ec4899",
		Layer: LayerAnalysis, Description: "Fraud pattern detection algorithms", Image: "/agents/oxossi.png",
	},
	"obaluae": {
		ID: "obaluae", Name: "Obaluaê", Role: "Corruption Detection", Color: "#f43f5e",
		Layer: LayerAnalysis, Description: "Benford's Law, network analysis", Image: "/agents/obaluaie.png",
	},
	"ceuci": {
		ID: "ceuci", Name: "Ceuci", Role: "Predictive AI", Color: "#10b981",
		Layer: LayerAnalysis, Description: "Predictive ML, time series forecasting", Image: "/agents/ceuci.png",
	},
	"lampiao": {
		ID: "lampiao", Name: "Lampião", Role: "Regional Analysis", Color: "#f97316",
		Layer: LayerAnalysis, Description: "Geospatial analysis, regional patterns", Image: "/agents/lampiao.png",
	},
	"drummond": {
		ID: "drummond", Name: "Carlos Drummond", Role: "NLG", Color: "#3b82f6",
		Layer: LayerCommunication, Description: "Natural language generation", Image: "/agents/drummond.png",
	},
	"tiradentes": {
		ID: "tiradentes", Name: "Tiradentes", Role: "Reporter", Color: "#14b8a6",
		Layer: LayerCommunication, Description: "Multi-format report generation", Image: "/agents/tiradentes.png",
	},
	"niemeyer": {
		ID: "niemeyer", Name: "Oscar Niemeyer", Role: "Visualizer", Color: "#a855f7",
		Layer: LayerCommunication, Description: "Charts and network graphs", Image: "/agents/niemeyer.png",
	},
	"quiteria": {
		ID: "quiteria", Name: "Maria Quitéria", Role: "Security", Color: "#dc2626",
		Layer: LayerGovernance, Description: "Threat detection, UEBA", Image: "/agents/quiteria.png",
	},
	"bonifacio": {
		ID: "bonifacio", Name: "José Bonifácio", Role: "Legal", Color: "#7c3aed",
		Layer: LayerGovernance, Description: "Legal compliance, policy analysis", Image: "/agents/bonifacio.png",
	},
	"dandara": {
		ID: "dandara", Name: "Dandara", Role: "Social Justice", Color: "#db2777",
		Layer: LayerGovernance, Description: "Social justice metrics, equity analysis", Image: "/agents/dandara.png",
	},
	"nana": {
		ID: "nana", Name: "Nanã", Role: "Memory", Color: "#6366f1",
		Layer: LayerSupport, Description: "Context management, session state", Image: "/agents/nana.png",
	},
	"machado": {
		ID: "machado", Name: "Machado de Assis", Role: "Narrative", Color: "#0891b2",
		Layer: LayerSupport, Description: "Story analysis, narrative patterns", Image: "/agents/machado.png",
	},
}

// AgentEdge - ребро графа оркестрации
type AgentEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

var edges = []AgentEdge{
	{Source: "abaporu", Target: "ayrton_senna"},
	{Source: "ayrton_senna", Target: "zumbi"},
	{Source: "ayrton_senna", Target: "anita"},
	{Source: "ayrton_senna", Target: "oxossi"},
	{Source: "ayrton_senna", Target: "obaluae"},
	{Source: "ayrton_senna", Target: "ceuci"},
	{Source: "ayrton_senna", Target: "lampiao"},
	{Source: "zumbi", Target: "drummond"},
	{Source: "anita", Target: "niemeyer"},
	{Source: "oxossi", Target: "tiradentes"},
	{Source: "obaluae", Target: "tiradentes"},
	{Source: "abaporu", Target: "nana"},
	{Source: "nana", Target: "machado"},
	{Source: "quiteria", Target: "abaporu"},
	{Source: "bonifacio", Target: "abaporu"},
	{Source: "dandara", Target: "abaporu"},
}

// Registry возвращает копию реестра
func Registry() map[string]AgentDescriptor {
	out := make(map[string]AgentDescriptor, len(registry))
	for id, a := range registry {
		out[id] = a
	}
	return out
}

// AgentIDs - идентификаторы реестра в стабильном (отсортированном) порядке.
func AgentIDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LookupAgent ищет дескриптор по id
func LookupAgent(id string) (AgentDescriptor, bool) {
	a, ok := registry[id]
	return a, ok
}

// Agents - дескрипторы в порядке AgentIDs
func Agents() []AgentDescriptor {
	ids := AgentIDs()
	out := make([]AgentDescriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, registry[id])
	}
	return out
}

func Edges() []AgentEdge {
	out := make([]AgentEdge, len(edges))
	copy(out, edges)
	return out
}
