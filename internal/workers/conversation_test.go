package workers_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"isp-assistant/internal/analytics"
	"isp-assistant/internal/common/config"
	"isp-assistant/internal/common/llm"
	"isp-assistant/internal/common/logger"
	"isp-assistant/internal/common/session"
	"isp-assistant/internal/routing"
	afu "isp-assistant/internal/workers/ai-conversation/answer-follow-up"
	rq "isp-assistant/internal/workers/ai-conversation/route-question"
	saq "isp-assistant/internal/workers/ai-conversation/sql-agent-query"
	ec "isp-assistant/internal/workers/communication/export-chat"
	fia "isp-assistant/internal/workers/data-access/fetch-isp-account"
	"isp-assistant/internal/workers/data-access/fetch-isp-account/queries"
)

// scriptedGenerator answers per prompt name and keeps the variables it saw.
type scriptedGenerator struct {
	answers map[string]string
	seen    map[string]map[string]string
}

func (g *scriptedGenerator) Generate(_ context.Context, tmpl llm.PromptTemplate, vars map[string]string) (string, error) {
	g.seen[tmpl.Name] = vars
	answer, ok := g.answers[tmpl.Name]
	if !ok {
		return "", fmt.Errorf("%w: no answer for %s", llm.ErrGenerationFailed, tmpl.Name)
	}
	return answer, nil
}

var accountColumns = []string{
	"sf_id", "ca_cnpj__c", "name", "ca_situacaofinanceira__c", "erp__c", "ca_dataultfaturamento__c",
	"produto_sf_code", "pacote_id", "pacote_valor_unit", "valor_total", "isp_vencimento", "isp_sf_status",
	"tickets_contratados", "tickets_distribuidos", "pacote_metodo", "tickets_metodo", "valor_calculado",
}

// TestConversation runs search, routing, both answer paths and the export
// against one session.
func TestConversation(t *testing.T) {
	ctx := context.Background()
	log := logger.NewZapAdapter(zaptest.NewLogger(t))

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := session.NewStore(rdb, config.SessionConfig{KeyPrefix: "isp:session", TTL: 600, MaxMessages: 50})

	gen := &scriptedGenerator{
		answers: map[string]string{
			"follow-up": "A utilização do HBO MAX está em 70%, alinhada ao mercado.",
			"sql-agent": `{"sql": "SELECT name FROM dim_sf_contas WHERE erp__c = 'IXC' ORDER BY name"}`,
		},
		seen: map[string]map[string]string{},
	}

	fetch := fia.NewHandler(&fia.Config{Timeout: 5 * time.Second, QueryTimeout: time.Second},
		queries.NewAccountQuery(db), sessions, log)
	route := rq.NewHandler(rq.LoadConfig(), routing.KeywordPolicy, log)
	answer := afu.NewHandler(afu.LoadConfig(), sessions,
		analytics.NewCalculatorFromConfig(config.AnalyticsConfig{ActivationCostRatio: 0.3}), gen, log)
	sqlCfg := saq.LoadConfig()
	sqlAgent := saq.NewHandler(sqlCfg, saq.NewAgent(db, gen, sqlCfg.MaxResults, sqlCfg.QueryTimeout), rdb, sessions, log)
	export, err := ec.NewHandler(&ec.Config{Timeout: 5 * time.Second, Location: time.UTC}, sessions, nil, log)
	require.NoError(t, err)

	// 1. search
	dbMock.ExpectQuery(`c\.ca_cnpj__c = \$1`).
		WithArgs("12345678000190").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("001A", "12345678000190", "Fibra Sul Telecom", "Adimplente", "IXC", "2024-01-10",
				"HBO MAX", "Básico", "19.10", "13370.00", "2024-02-10", "Ativo",
				"1000", "700", "Acessos", "700", "13370.00"))

	found, err := fetch.Execute(ctx, &fia.Input{SessionID: "conv-1", Identifier: "12345678000190"})
	require.NoError(t, err)
	require.True(t, found.Found)

	// 2. metrics question
	r, err := route.Execute(ctx, &rq.Input{SessionID: "conv-1", Question: "Qual a utilização do HBO MAX?"})
	require.NoError(t, err)
	require.Equal(t, "metrics", r.Route)

	a, err := answer.Execute(ctx, &afu.Input{SessionID: "conv-1", Question: "Qual a utilização do HBO MAX?"})
	require.NoError(t, err)
	assert.True(t, a.AccountLoaded)
	assert.False(t, a.Degraded)
	assert.Equal(t, "Fibra Sul Telecom", gen.seen["follow-up"]["isp_name"])
	assert.Contains(t, gen.seen["follow-up"]["data"], "HBO MAX")

	// 3. listing question
	r, err = route.Execute(ctx, &rq.Input{SessionID: "conv-1", Question: "Listar ISPs com ERP IXC"})
	require.NoError(t, err)
	require.Equal(t, "sql_agent", r.Route)
	require.Equal(t, "lista", r.QueryType)

	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`SELECT name FROM dim_sf_contas WHERE erp__c = 'IXC' ORDER BY name LIMIT 50`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Fibra Sul Telecom").AddRow("NetNorte"))
	dbMock.ExpectRollback()

	s, err := sqlAgent.Execute(ctx, &saq.Input{SessionID: "conv-1", Question: "Listar ISPs com ERP IXC", QueryType: r.QueryType})
	require.NoError(t, err)
	assert.Equal(t, 2, s.RowCount)
	assert.Contains(t, s.Answer, "- NetNorte")

	// 4. export
	out, err := export.Execute(ctx, &ec.Input{SessionID: "conv-1"})
	require.NoError(t, err)
	require.True(t, out.Exported)
	assert.Equal(t, 5, out.MessageCount)

	raw, err := base64.StdEncoding.DecodeString(out.Content)
	require.NoError(t, err)
	transcript := string(raw)
	assert.True(t, strings.HasPrefix(transcript, "Histórico de Chat - ISP Assistant\n\n"))
	assert.Contains(t, transcript, "ISP: Fibra Sul Telecom")
	assert.Contains(t, transcript, "👤 Usuário:\nListar ISPs com ERP IXC")
	assert.Contains(t, transcript, a.Answer)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}
