// internal/workers/communication/export-chat/transcript.go
package exportchat

import (
	"fmt"
	"strings"
	"time"

	"isp-assistant/internal/models"
)

const transcriptContentType = "text/plain; charset=utf-8"

// BuildTranscript renders the plain-text chat history. ispName is omitted
// when no account is loaded.
func BuildTranscript(messages []models.ChatMessage, ispName string, at time.Time) string {
	var b strings.Builder
	b.WriteString("Histórico de Chat - ISP Assistant\n\n")
	fmt.Fprintf(&b, "Data: %s\n", at.Format("02/01/2006 15:04"))
	if ispName != "" {
		fmt.Fprintf(&b, "ISP: %s\n\n", ispName)
	}
	for _, msg := range messages {
		fmt.Fprintf(&b, "%s:\n%s\n\n", roleLabel(msg.Role), msg.Content)
	}
	return b.String()
}

func roleLabel(role models.ChatRole) string {
	if role == models.RoleUser {
		return "👤 Usuário"
	}
	return "🤖 Assistente"
}

// Filename returns chat_historico_YYYYMMDD_HHMM.txt for the given instant.
func Filename(at time.Time) string {
	return "chat_historico_" + at.Format("20060102_1504") + ".txt"
}
