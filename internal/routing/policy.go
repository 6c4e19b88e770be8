// Package routing decides which path answers a follow-up question.
package routing

import (
	"strings"

	"isp-assistant/internal/models"
)

// Policy decides which path answers a question.
type Policy func(question string) models.Route

// sqlAgentKeywords send a question to the SQL agent when any of them occurs
// in the lower-cased question.
var sqlAgentKeywords = []string{
	"list", "listar", "lista",
	"history", "histórico", "historico", "evolução", "período",
	"search", "buscar",
	"mostrar todos",
}

// KeywordPolicy routes listing, history and search questions to the SQL
// agent and everything else to the metrics path.
func KeywordPolicy(question string) models.Route {
	q := strings.ToLower(question)
	for _, kw := range sqlAgentKeywords {
		if strings.Contains(q, kw) {
			return models.RouteSQLAgent
		}
	}
	return models.RouteMetrics
}

// ClassifyQueryType picks the result layout the SQL agent will use.
func ClassifyQueryType(question string) models.QueryType {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, "histórico", "historico", "history", "evolução", "período"):
		return models.QueryTypeHistory
	case containsAny(q, "lista", "listar", "list", "mostrar todos"):
		return models.QueryTypeList
	default:
		return models.QueryTypeGeneral
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
