package fetchispaccount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"isp-assistant/internal/common/config"
	apperrors "isp-assistant/internal/common/errors"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/session"
	"isp-assistant/internal/models"
	"isp-assistant/internal/workers/data-access/fetch-isp-account/queries"
)

// ==========================
// Test Helper Functions
// ==========================

var accountColumns = []string{
	"sf_id", "ca_cnpj__c", "name", "ca_situacaofinanceira__c", "erp__c", "ca_dataultfaturamento__c",
	"produto_sf_code", "pacote_id", "pacote_valor_unit", "valor_total", "isp_vencimento", "isp_sf_status",
	"tickets_contratados", "tickets_distribuidos", "pacote_metodo", "tickets_metodo", "valor_calculado",
}

type testEnv struct {
	handler *Handler
	mock    sqlmock.Sqlmock
	store   *session.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := session.NewStore(rdb, config.SessionConfig{KeyPrefix: "isp:session", TTL: 600, MaxMessages: 50})
	h := NewHandler(&Config{Timeout: 5 * time.Second, QueryTimeout: time.Second},
		queries.NewAccountQuery(db), store, logger.NewZapAdapter(zaptest.NewLogger(t)))
	h.now = func() time.Time { return time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC) }

	return &testEnv{handler: h, mock: mock, store: store}
}

func fibraSulRows() *sqlmock.Rows {
	return sqlmock.NewRows(accountColumns).
		AddRow("001A", "12345678000190", "Fibra Sul Telecom", "Adimplente", "IXC", "2024-01-10",
			"HBO MAX", "Básico", "19.10", "13370.00", "2024-02-10", "Ativo",
			"1000", "700", "Acessos", "700", "13370.00").
		AddRow("001A", "12345678000190", "Fibra Sul Telecom", "Adimplente", "IXC", "2024-01-10",
			"PARAMOUNT+ AVULSO", "Avulso", "4.80", "2400.00", "2024-02-10", "Ativo",
			"1000", "500", "Ativação", "500", "2400.00")
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Found(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`c\.ca_cnpj__c = \$1`).
		WithArgs("12345678000190").
		WillReturnRows(fibraSulRows())

	out, err := env.handler.Execute(context.Background(), &Input{SessionID: "s-1", Identifier: "12345678000190"})
	require.NoError(t, err)

	assert.True(t, out.Found)
	assert.Equal(t, "s-1", out.SessionID)
	assert.Equal(t, "Fibra Sul Telecom", out.ISPName)
	assert.Equal(t, 2, out.ProductCount)
	assert.Equal(t, int64(2000), out.ContractedTickets)
	assert.Equal(t, int64(1200), out.BillableTickets)
	assert.Equal(t, "R$ 15770.00", out.TotalBilled)
	assert.Contains(t, out.Message, "Aqui está o prontuário do ISP")
	assert.Contains(t, out.Message, "**HBO MAX**")

	snapshot, err := env.store.LoadSnapshot(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "001A", snapshot.Account.ID)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), snapshot.FetchedAt)

	msgs, err := env.store.Messages(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.RoleAssistant, msgs[0].Role)
	assert.Equal(t, out.Message, msgs[0].Content)

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestHandler_Execute_GeneratesSessionID(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`c\.name ILIKE \$1`).
		WithArgs("%Fibra%").
		WillReturnRows(fibraSulRows())

	out, err := env.handler.Execute(context.Background(), &Input{Identifier: "Fibra"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.SessionID)

	_, err = env.store.LoadSnapshot(context.Background(), out.SessionID)
	assert.NoError(t, err)
}

func TestHandler_Execute_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`c\.name ILIKE \$1`).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	out, err := env.handler.Execute(context.Background(), &Input{SessionID: "s-1", Identifier: "Inexistente"})
	require.NoError(t, err)

	assert.False(t, out.Found)
	assert.Equal(t, apperrors.MsgAccountNotFound, out.Message)

	_, err = env.store.LoadSnapshot(context.Background(), "s-1")
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		mockQuery  func(mock sqlmock.Sqlmock)
		wantCode   apperrors.ErrorCode
	}{
		{
			name:       "blank identifier",
			identifier: "   ",
			mockQuery:  func(sqlmock.Sqlmock) {},
			wantCode:   apperrors.ErrCodeInvalidInput,
		},
		{
			name:       "malformed ticket count",
			identifier: "Fibra",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`ranked_products`).WillReturnRows(sqlmock.NewRows(accountColumns).
					AddRow("001A", "1", "Fibra", nil, nil, nil,
						"HBO MAX", "Básico", "19.10", "0", nil, nil,
						"mil", "700", "Acessos", "700", nil))
			},
			wantCode: apperrors.ErrCodeAccountDataInvalid,
		},
		{
			name:       "database down",
			identifier: "Fibra",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`ranked_products`).WillReturnError(errors.New("connection refused"))
			},
			wantCode: apperrors.ErrCodeDataSourceFailed,
		},
		{
			name:       "slow query",
			identifier: "Fibra",
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`ranked_products`).
					WillDelayFor(200 * time.Millisecond).
					WillReturnRows(fibraSulRows())
			},
			wantCode: apperrors.ErrCodeQueryTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.handler.config.QueryTimeout = 50 * time.Millisecond
			tt.mockQuery(env.mock)

			_, err := env.handler.Execute(context.Background(), &Input{SessionID: "s-1", Identifier: tt.identifier})
			require.Error(t, err)

			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

func TestInputSchema(t *testing.T) {
	assert.True(t, inputSchema.Validate(`{"identifier":"Fibra"}`).Valid)
	assert.False(t, inputSchema.Validate(`{"sessionId":"s-1"}`).Valid)
	assert.False(t, inputSchema.Validate(`{"identifier":""}`).Valid)
}
