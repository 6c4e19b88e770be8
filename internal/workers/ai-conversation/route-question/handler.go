// internal/workers/ai-conversation/route-question/handler.go
package routequestion

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "isp-assistant/internal/common/errors"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/metrics"
	"isp-assistant/internal/models"
	"isp-assistant/internal/routing"
)

const (
	TaskType = "route-question"
)

type Handler struct {
	config *Config
	policy routing.Policy
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

// NewHandler uses routing.KeywordPolicy when policy is nil.
func NewHandler(config *Config, policy routing.Policy, log logger.Logger) *Handler {
	if policy == nil {
		policy = routing.KeywordPolicy
	}
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		policy: policy,
		errors: apperrors.NewErrorHandler(l),
		logger: l,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, apperrors.NewInvalidInputError("question is required")
	}

	route := h.policy(question)
	metrics.Questions.WithLabelValues(string(route)).Inc()

	output := &Output{Route: string(route)}
	if route == models.RouteSQLAgent {
		output.QueryType = string(routing.ClassifyQueryType(question))
	}

	h.logger.Debug("question routed", map[string]interface{}{
		"sessionId": input.SessionID,
		"route":     output.Route,
		"queryType": output.QueryType,
	})
	return output, nil
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
