// internal/workers/ai-conversation/answer-follow-up/models.go
package answerfollowup

import "isp-assistant/internal/common/validation"

type Input struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

type Output struct {
	Answer string `json:"answer"`
	// Degraded is set when the generator failed and Answer is the fallback text.
	Degraded bool `json:"degraded"`
	// AccountLoaded is false when the session has no account yet.
	AccountLoaded bool `json:"accountLoaded"`
}

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["sessionId", "question"],
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "question": {"type": "string", "minLength": 1}
  }
}`)
