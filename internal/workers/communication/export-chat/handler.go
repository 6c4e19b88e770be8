// internal/workers/communication/export-chat/handler.go
package exportchat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"isp-assistant/internal/common/aws"
	apperrors "isp-assistant/internal/common/errors"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/session"
	"isp-assistant/internal/models"
)

const (
	TaskType = "export-chat"
)

// Mailer delivers the transcript. *aws.Mailer satisfies it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string, attachments ...aws.Attachment) (string, error)
}

type Handler struct {
	config   *Config
	sessions models.SessionRepository
	mailer   Mailer
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
	now      func() time.Time
}

// NewHandler accepts a nil mailer; e-mail delivery is then skipped.
func NewHandler(config *Config, sessions models.SessionRepository, mailer Mailer, log logger.Logger) (*Handler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		sessions: sessions,
		mailer:   mailer,
		errors:   apperrors.NewErrorHandler(l),
		logger:   l,
		now:      time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if result := inputSchema.Validate(job.Variables); !result.Valid {
		h.errors.HandleJobError(context.Background(), client, job, apperrors.NewInvalidInputError(result.Error()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	email := strings.TrimSpace(input.Email)
	if email != "" && !isValidEmail(email) {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("invalid email address: %s", email))
	}

	messages, err := h.sessions.Messages(ctx, input.SessionID)
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}
	if len(messages) == 0 {
		h.logger.Info("nothing to export", map[string]interface{}{"sessionId": input.SessionID})
		return &Output{}, nil
	}

	ispName := ""
	snapshot, err := h.sessions.LoadSnapshot(ctx, input.SessionID)
	switch {
	case err == nil:
		ispName = snapshot.Account.Name
	case errors.Is(err, session.ErrSessionNotFound):
	default:
		return nil, apperrors.NewSessionStoreFailedError(err)
	}

	at := h.now().In(h.config.Location)
	text := BuildTranscript(messages, ispName, at)
	output := &Output{
		Exported:     true,
		Filename:     Filename(at),
		ContentType:  transcriptContentType,
		Content:      base64.StdEncoding.EncodeToString([]byte(text)),
		MessageCount: len(messages),
	}

	if email != "" && h.config.EmailEnabled && h.mailer != nil {
		messageID, err := h.mailer.Send(ctx, email, h.config.Subject, deliveryBody(ispName),
			aws.Attachment{Filename: output.Filename, ContentType: transcriptContentType, Data: []byte(text)})
		if err != nil {
			return nil, apperrors.NewExportDeliveryFailedError(err)
		}
		output.Delivered = true
		output.MessageID = messageID
	}

	h.logger.Info("chat exported", map[string]interface{}{
		"sessionId":    input.SessionID,
		"filename":     output.Filename,
		"messageCount": output.MessageCount,
		"delivered":    output.Delivered,
	})
	return output, nil
}

func deliveryBody(ispName string) string {
	if ispName == "" {
		return "Segue em anexo o histórico do chat do ISP Assistant."
	}
	return fmt.Sprintf("Segue em anexo o histórico do chat do ISP Assistant sobre %s.", ispName)
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	return strings.Contains(parts[1], ".") && !strings.ContainsAny(email, " \t\r\n")
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
