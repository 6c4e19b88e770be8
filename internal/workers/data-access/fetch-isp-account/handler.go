// internal/workers/data-access/fetch-isp-account/handler.go
package fetchispaccount

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"isp-assistant/internal/analytics"
	apperrors "isp-assistant/internal/common/errors"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/metrics"
	"isp-assistant/internal/models"
	"isp-assistant/internal/workers/data-access/fetch-isp-account/queries"
)

const (
	TaskType = "fetch-isp-account"
)

// AccountFetcher returns the raw rows for an identifier.
type AccountFetcher interface {
	FetchAccountRows(ctx context.Context, identifier string) ([]models.AccountRow, error)
}

type Handler struct {
	config   *Config
	accounts AccountFetcher
	sessions models.SessionRepository
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, accounts AccountFetcher, sessions models.SessionRepository, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		accounts: accounts,
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
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		return nil, apperrors.NewInvalidInputError("identifier is required")
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	rows, err := h.fetch(ctx, identifier)
	if err != nil {
		metrics.AccountLookups.WithLabelValues("error").Inc()
		return nil, err
	}

	snapshot, err := analytics.Normalize(rows)
	switch {
	case errors.Is(err, analytics.ErrAccountNotFound):
		metrics.AccountLookups.WithLabelValues("not_found").Inc()
		h.logger.Info("no account matched", map[string]interface{}{"identifier": identifier})
		return &Output{
			SessionID: sessionID,
			Found:     false,
			Message:   apperrors.MsgAccountNotFound,
		}, nil
	case err != nil:
		metrics.AccountLookups.WithLabelValues("invalid_data").Inc()
		h.logger.Warn("account data rejected", map[string]interface{}{
			"identifier": identifier,
			"error":      err,
		})
		return nil, apperrors.NewAccountDataInvalidError(err)
	}
	snapshot.FetchedAt = h.now().UTC()

	profile := analytics.RenderProfile(snapshot)

	if err := h.sessions.SaveSnapshot(ctx, sessionID, snapshot); err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}
	if err := h.sessions.AppendMessages(ctx, sessionID, models.ChatMessage{
		Role:      models.RoleAssistant,
		Content:   profile,
		CreatedAt: snapshot.FetchedAt,
	}); err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}

	metrics.AccountLookups.WithLabelValues("found").Inc()
	h.logger.Info("account loaded", map[string]interface{}{
		"sessionId": sessionID,
		"accountId": snapshot.Account.ID,
		"products":  len(snapshot.Products),
	})

	var contracted int64
	for _, p := range snapshot.Products {
		contracted += p.ContractedTickets
	}

	return &Output{
		SessionID:         sessionID,
		Found:             true,
		Message:           profile,
		AccountID:         snapshot.Account.ID,
		TaxID:             snapshot.Account.TaxID,
		ISPName:           snapshot.Account.Name,
		Status:            snapshot.Account.Status,
		TotalBilled:       analytics.FormatBRL(snapshot.Account.TotalBilled),
		ProductCount:      len(snapshot.Products),
		ContractedTickets: contracted,
		BillableTickets:   snapshot.BilledTickets(),
	}, nil
}

func (h *Handler) fetch(ctx context.Context, identifier string) ([]models.AccountRow, error) {
	qctx := ctx
	if h.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, h.config.QueryTimeout)
		defer cancel()
	}

	rows, err := h.accounts.FetchAccountRows(qctx, identifier)
	if err == nil {
		return rows, nil
	}
	if errors.Is(err, queries.ErrEmptyIdentifier) {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) || qctx.Err() == context.DeadlineExceeded {
		return nil, apperrors.NewQueryTimeoutError("account")
	}
	return nil, apperrors.NewDataSourceFailedError(err)
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
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
