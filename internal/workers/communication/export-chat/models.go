// internal/workers/communication/export-chat/models.go
package exportchat

import "isp-assistant/internal/common/validation"

type Input struct {
	SessionID string `json:"sessionId"`
	// Email is optional; when set and delivery is enabled the transcript is
	// sent as an attachment.
	Email string `json:"email,omitempty"`
}

type Output struct {
	Exported     bool   `json:"exported"`
	Filename     string `json:"filename,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	Content      string `json:"content,omitempty"` // base64
	MessageCount int    `json:"messageCount"`
	Delivered    bool   `json:"delivered"`
	MessageID    string `json:"messageId,omitempty"`
}

var inputSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["sessionId"],
  "properties": {
    "sessionId": {"type": "string", "minLength": 1},
    "email": {"type": "string", "maxLength": 255}
  }
}`)
