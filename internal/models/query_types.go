// internal/models/query_types.go
package models

// QueryType selects how SQL agent results are summarised.
type QueryType string

const (
	QueryTypeHistory QueryType = "historico"
	QueryTypeList    QueryType = "lista"
	QueryTypeGeneral QueryType = "geral"
)

// Route is where a follow-up question is answered.
type Route string

const (
	RouteMetrics  Route = "metrics"
	RouteSQLAgent Route = "sql_agent"
)
