// internal/workers/ai-conversation/sql-agent-query/agent.go
package sqlagentquery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"isp-assistant/internal/common/llm"
	"isp-assistant/internal/models"
	"isp-assistant/internal/routing"
)

var (
	ErrNoSQL       = errors.New("no SQL statement in model output")
	ErrNotReadOnly = errors.New("statement is not read-only")
	ErrQueryFailed = errors.New("query execution failed")
	ErrGeneration  = errors.New("sql generation failed")
)

// SchemaDescription is what the model is told about the queryable tables.
const SchemaDescription = `dim_sf_contas (contas de ISPs no CRM):
  id text, ca_cnpj__c text, name text, ca_situacaofinanceira__c text, erp__c text, ca_dataultfaturamento__c date
com_matriz_preco_v2 (matriz de preços e tickets por produto):
  isp_sf_id text -> dim_sf_contas.id, produto_sf_code text, pacote_id text, pacote_valor_unit numeric,
  valor_total numeric, isp_vencimento date, isp_sf_status text, tickets_contratados integer,
  tickets_distribuidos integer, pacote_metodo text, tickets_metodo integer`

var sqlPrompt = llm.PromptTemplate{
	Name:   "sql-agent",
	System: "Você gera uma única consulta SQL PostgreSQL somente leitura. Responda apenas com JSON no formato {\"sql\": \"...\"}.",
	User: `Gere uma query SQL para responder à seguinte pergunta:
{{.question}}

Considere as seguintes tabelas e relacionamentos:
{{.table_info}}

Tipo de consulta: {{.query_type}}

Regras:
1. Use apenas SELECT (ou WITH ... SELECT)
2. Use JOINs apropriados
3. Limite os resultados a no máximo {{.max_rows}} linhas
4. Ordene de forma relevante
5. Use funções de agregação quando necessário
6. Para histórico, inclua uma coluna chamada data`,
}

// Result is a query outcome ready to be rendered.
type Result struct {
	SQL       string
	QueryType models.QueryType
	Columns   []string
	Rows      [][]string
}

// Agent answers questions by generating and running read-only SQL.
type Agent struct {
	db           *sqlx.DB
	generator    llm.Generator
	schema       string
	maxRows      int
	queryTimeout time.Duration
}

func NewAgent(db *sql.DB, generator llm.Generator, maxRows int, queryTimeout time.Duration) *Agent {
	if maxRows <= 0 {
		maxRows = 50
	}
	return &Agent{
		db:           sqlx.NewDb(db, "postgres"),
		generator:    generator,
		schema:       SchemaDescription,
		maxRows:      maxRows,
		queryTimeout: queryTimeout,
	}
}

// Answer classifies the question unless queryType is given, asks the model
// for SQL, checks it and runs it inside a read-only transaction.
func (a *Agent) Answer(ctx context.Context, question string, queryType models.QueryType) (*Result, error) {
	if queryType == "" {
		queryType = routing.ClassifyQueryType(question)
	}

	text, err := a.generator.Generate(ctx, sqlPrompt, map[string]string{
		"question":   question,
		"table_info": a.schema,
		"query_type": string(queryType),
		"max_rows":   strconv.Itoa(a.maxRows),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	stmt, err := ExtractSQL(text)
	if err != nil {
		return nil, err
	}
	if err := CheckReadOnly(stmt); err != nil {
		return nil, err
	}
	stmt = EnsureLimit(stmt, a.maxRows)

	columns, rows, err := a.run(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return &Result{SQL: stmt, QueryType: queryType, Columns: columns, Rows: rows}, nil
}

func (a *Agent) run(ctx context.Context, stmt string) ([]string, [][]string, error) {
	if a.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.queryTimeout)
		defer cancel()
	}

	tx, err := a.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryxContext(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, nil, err
		}
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = cellString(v)
		}
		out = append(out, record)
	}
	return columns, out, rows.Err()
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}

var fencedSQL = regexp.MustCompile("(?is)```(?:sql)?\\s*(.*?)```")

// ExtractSQL accepts {"sql": "..."} JSON, a fenced code block or bare SQL.
func ExtractSQL(text string) (string, error) {
	text = strings.TrimSpace(text)

	var payload struct {
		SQL string `json:"sql"`
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err == nil && strings.TrimSpace(payload.SQL) != "" {
			return cleanStatement(payload.SQL), nil
		}
	}

	if m := fencedSQL.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return cleanStatement(m[1]), nil
	}

	if leadingKeyword(text) != "" {
		return cleanStatement(text), nil
	}
	return "", ErrNoSQL
}

func cleanStatement(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimRight(s, "; \n\t"))
}

var forbiddenKeywords = regexp.MustCompile(`(?i)\b(insert|update|delete|merge|upsert|drop|alter|create|truncate|grant|revoke|copy|call|execute|vacuum|analyze|lock|comment|reindex|refresh|set|reset|listen|notify)\b`)

// CheckReadOnly accepts a single SELECT or WITH statement without data or
// schema changing keywords.
func CheckReadOnly(stmt string) error {
	stmt = cleanStatement(stmt)
	if stmt == "" {
		return ErrNoSQL
	}
	bare := stripLiterals(stmt)
	if strings.Contains(bare, ";") {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	switch leadingKeyword(stmt) {
	case "select", "with":
	default:
		return fmt.Errorf("%w: must start with SELECT or WITH", ErrNotReadOnly)
	}
	if kw := forbiddenKeywords.FindString(bare); kw != "" {
		return fmt.Errorf("%w: %s not allowed", ErrNotReadOnly, strings.ToUpper(kw))
	}
	return nil
}

var (
	quotedLiteral    = regexp.MustCompile(`'(?:[^']|'')*'`)
	quotedIdentifier = regexp.MustCompile(`"(?:[^"]|"")*"`)
)

// stripLiterals blanks string literals and quoted identifiers so values like
// 'Update pendente' do not trip the keyword check.
func stripLiterals(stmt string) string {
	stmt = quotedLiteral.ReplaceAllString(stmt, "''")
	return quotedIdentifier.ReplaceAllString(stmt, `""`)
}

func leadingKeyword(s string) string {
	fields := strings.Fields(strings.TrimLeft(s, "( \n\t"))
	if len(fields) == 0 {
		return ""
	}
	kw := strings.ToLower(fields[0])
	if kw == "select" || kw == "with" {
		return kw
	}
	return ""
}

var (
	rowLimitKeyword = regexp.MustCompile(`(?i)\b(limit|fetch)\b`)
	trailingLimit   = regexp.MustCompile(`(?i)\blimit\s+(\d+)(\s+offset\s+\d+)?$`)
)

// EnsureLimit caps the statement at n rows. A trailing LIMIT of at most n is
// kept; a statement with no row limit gets LIMIT n appended; anything else is
// wrapped in an outer query so the cap applies to the final result.
func EnsureLimit(stmt string, n int) string {
	stmt = cleanStatement(stmt)
	bare := stripLiterals(stmt)

	if m := trailingLimit.FindStringSubmatch(bare); m != nil {
		if limit, err := strconv.Atoi(m[1]); err == nil && limit <= n {
			return stmt
		}
	} else if !rowLimitKeyword.MatchString(bare) {
		return fmt.Sprintf("%s LIMIT %d", stmt, n)
	}
	return fmt.Sprintf("SELECT * FROM (%s) q LIMIT %d", stmt, n)
}
