// internal/workers/ai-conversation/route-question/models.go
package routequestion

import "isp-assistant/internal/common/validation"

type Input struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

type Output struct {
	Route     string `json:"route"`
	QueryType string `json:"queryType,omitempty"`
}

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["question"],
  "properties": {
    "sessionId": {"type": "string"},
    "question": {"type": "string", "minLength": 1}
  }
}`)
