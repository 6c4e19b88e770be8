// internal/workers/ai-conversation/sql-agent-query/models.go
package sqlagentquery

import "isp-assistant/internal/common/validation"

type Input struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
	QueryType string `json:"queryType,omitempty"`
}

type Output struct {
	Answer    string `json:"answer"`
	QueryType string `json:"queryType"`
	RowCount  int    `json:"rowCount"`
	// Degraded is set when Answer is the failure text.
	Degraded bool `json:"degraded"`
	Cached   bool `json:"cached"`
}

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["sessionId", "question"],
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "question": {"type": "string", "minLength": 1},
    "queryType": {"type": "string", "enum": ["", "historico", "lista", "geral"]}
  }
}`)
