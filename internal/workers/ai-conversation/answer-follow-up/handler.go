// internal/workers/ai-conversation/answer-follow-up/handler.go
package answerfollowup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"isp-assistant/internal/analytics"
	apperrors "isp-assistant/internal/common/errors"
	"isp-assistant/internal/common/llm"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/session"
	"isp-assistant/internal/models"
)

const (
	TaskType = "answer-follow-up"
)

type Handler struct {
	config     *Config
	sessions   models.SessionRepository
	calculator *analytics.Calculator
	generator  llm.Generator
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, sessions models.SessionRepository, calculator *analytics.Calculator, generator llm.Generator, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		sessions:   sessions,
		calculator: calculator,
		generator:  generator,
		errors:     apperrors.NewErrorHandler(l),
		logger:     l,
		now:        time.Now,
	}
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
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, apperrors.NewInvalidInputError("question is required")
	}

	snapshot, err := h.sessions.LoadSnapshot(ctx, input.SessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		return &Output{Answer: apperrors.MsgSessionNotFound, AccountLoaded: false}, nil
	}
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}

	data, err := analytics.Assemble(snapshot, h.calculator.Compute(snapshot)).Encode()
	if err != nil {
		return nil, apperrors.Normalize(err)
	}

	output := &Output{AccountLoaded: true}
	start := h.now()
	answer, err := h.generator.Generate(ctx, followUpPrompt, map[string]string{
		"isp_name": snapshot.Account.Name,
		"question": question,
		"data":     string(data),
	})
	if err != nil {
		h.logger.Warn("generation failed, answering with fallback", map[string]interface{}{
			"sessionId": input.SessionID,
			"timeout":   errors.Is(err, llm.ErrGenerationTimeout),
			"error":     err,
		})
		output.Answer = apperrors.MsgGeneration
		output.Degraded = true
	} else {
		output.Answer = strings.TrimSpace(answer)
	}

	h.logger.Info("question answered", map[string]interface{}{
		"sessionId":  input.SessionID,
		"degraded":   output.Degraded,
		"contextLen": len(data),
		"duration":   h.now().Sub(start).String(),
	})

	h.record(ctx, input.SessionID, question, output.Answer)
	return output, nil
}

// record appends the exchange to the transcript. A failure here does not
// discard an answer the user is already waiting for.
func (h *Handler) record(ctx context.Context, sessionID, question, answer string) {
	now := h.now().UTC()
	err := h.sessions.AppendMessages(ctx, sessionID,
		models.ChatMessage{Role: models.RoleUser, Content: question, Route: string(models.RouteMetrics), CreatedAt: now},
		models.ChatMessage{Role: models.RoleAssistant, Content: answer, Route: string(models.RouteMetrics), CreatedAt: now},
	)
	if err != nil {
		h.logger.Warn("failed to record transcript", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
