// internal/workers/ai-conversation/sql-agent-query/handler.go
package sqlagentquery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	apperrors "isp-assistant/internal/common/errors"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/metrics"
	"isp-assistant/internal/models"
)

const (
	TaskType = "sql-agent-query"
)

// Answerer is the SQL agent as seen by the handler.
type Answerer interface {
	Answer(ctx context.Context, question string, queryType models.QueryType) (*Result, error)
}

type Handler struct {
	config   *Config
	agent    Answerer
	cache    redis.Cmdable
	sessions models.SessionRepository
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
	now      func() time.Time
}

// NewHandler disables answer caching when cache is nil.
func NewHandler(config *Config, agent Answerer, cache redis.Cmdable, sessions models.SessionRepository, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		agent:    agent,
		cache:    cache,
		sessions: sessions,
		errors:   apperrors.NewErrorHandler(l),
		logger:   l,
		now:      time.Now,
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
	queryType := models.QueryType(input.QueryType)

	cacheKey := h.buildCacheKey(question, queryType)
	if output, ok := h.cached(ctx, cacheKey); ok {
		h.record(ctx, input.SessionID, question, output.Answer)
		return output, nil
	}

	output := &Output{}
	result, err := h.agent.Answer(ctx, question, queryType)
	switch {
	case err == nil:
		metrics.SQLAgentQueries.WithLabelValues("ok").Inc()
		output.Answer = Format(result)
		output.QueryType = string(result.QueryType)
		output.RowCount = len(result.Rows)
		h.store(ctx, cacheKey, output)
		h.logger.Info("sql agent answered", map[string]interface{}{
			"sessionId": input.SessionID,
			"queryType": output.QueryType,
			"rowCount":  output.RowCount,
		})
	default:
		status := "failed"
		if errors.Is(err, ErrNotReadOnly) || errors.Is(err, ErrNoSQL) {
			status = "rejected"
		}
		metrics.SQLAgentQueries.WithLabelValues(status).Inc()
		h.logger.Warn("sql agent could not answer", map[string]interface{}{
			"sessionId": input.SessionID,
			"status":    status,
			"error":     err,
		})
		output.Answer = FailureMessage(err)
		output.QueryType = string(queryType)
		output.Degraded = true
	}

	h.record(ctx, input.SessionID, question, output.Answer)
	return output, nil
}

func (h *Handler) buildCacheKey(question string, queryType models.QueryType) string {
	return fmt.Sprintf("%s:%s:%016x", h.config.CachePrefix, queryType, xxhash.Sum64String(strings.ToLower(question)))
}

func (h *Handler) cached(ctx context.Context, key string) (*Output, bool) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return nil, false
	}
	val, err := h.cache.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var output Output
	if err := json.Unmarshal([]byte(val), &output); err != nil {
		return nil, false
	}
	output.Cached = true
	return &output, true
}

func (h *Handler) store(ctx context.Context, key string, output *Output) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, _ := json.Marshal(output)
	if err := h.cache.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("failed to cache answer", map[string]interface{}{"error": err})
	}
}

func (h *Handler) record(ctx context.Context, sessionID, question, answer string) {
	now := h.now().UTC()
	err := h.sessions.AppendMessages(ctx, sessionID,
		models.ChatMessage{Role: models.RoleUser, Content: question, Route: string(models.RouteSQLAgent), CreatedAt: now},
		models.ChatMessage{Role: models.RoleAssistant, Content: answer, Route: string(models.RouteSQLAgent), CreatedAt: now},
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
