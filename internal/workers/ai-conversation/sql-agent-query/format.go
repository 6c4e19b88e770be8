// internal/workers/ai-conversation/sql-agent-query/format.go
package sqlagentquery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"isp-assistant/internal/models"
)

const noDataMessage = "❌ Nenhum dado encontrado para esta consulta."

// Format renders a result according to its query type.
func Format(r *Result) string {
	if r == nil || len(r.Rows) == 0 {
		return noDataMessage
	}

	var b strings.Builder
	switch r.QueryType {
	case models.QueryTypeHistory:
		b.WriteString("📈 **Histórico de Performance**\n")
		if from, to, ok := period(r); ok {
			fmt.Fprintf(&b, "* Período analisado: %s a %s\n", from, to)
		}
		fmt.Fprintf(&b, "* Total de registros: %d\n\n", len(r.Rows))
		b.WriteString("Resumo por período:\n")
		b.WriteString(markdownTable(r.Columns, r.Rows))
		b.WriteString("\n💡 Dica: Você pode perguntar sobre um período específico ou produto.")

	case models.QueryTypeList:
		b.WriteString("📋 **Resultado da Consulta**\n")
		fmt.Fprintf(&b, "Total de itens: %d\n\n", len(r.Rows))
		for _, row := range r.Rows {
			fmt.Fprintf(&b, "- %s\n", row[0])
		}
		b.WriteString("\n💡 Dica: Você pode pedir mais detalhes sobre qualquer item específico.")

	default:
		b.WriteString("📊 **Resultado da Consulta**\n")
		b.WriteString(markdownTable(r.Columns, r.Rows))
		b.WriteString("\n💡 Dica: Você pode fazer perguntas mais específicas sobre estes dados.")
	}
	return b.String()
}

var dateColumnHints = []string{"data", "date", "periodo", "período", "vencimento", "mes", "mês"}

// period returns the smallest and largest value of the first date-like
// column. ISO dates compare correctly as strings.
func period(r *Result) (string, string, bool) {
	col := -1
	for i, name := range r.Columns {
		lower := strings.ToLower(name)
		for _, hint := range dateColumnHints {
			if strings.Contains(lower, hint) {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		return "", "", false
	}

	var from, to string
	for _, row := range r.Rows {
		v := row[col]
		if v == "" {
			continue
		}
		if from == "" || v < from {
			from = v
		}
		if to == "" || v > to {
			to = v
		}
	}
	return from, to, from != ""
}

func markdownTable(columns []string, rows [][]string) string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(rows)
	table.Render()
	return b.String()
}

// FailureMessage is shown instead of a result when the agent could not answer.
func FailureMessage(err error) string {
	reason := "um erro inesperado"
	switch {
	case errors.Is(err, ErrNotReadOnly):
		reason = "a consulta gerada não é somente leitura"
	case errors.Is(err, ErrNoSQL):
		reason = "não foi possível gerar uma consulta SQL para a pergunta"
	case errors.Is(err, ErrGeneration):
		reason = "o serviço de geração está indisponível no momento"
	case errors.Is(err, ErrQueryFailed):
		reason = "um erro ao executar a consulta no banco de dados"
	}

	return fmt.Sprintf(`❌ **Erro na Consulta**
Não foi possível processar sua pergunta devido a: %s

💡 Sugestões:
1. Seja mais específico na sua pergunta
2. Verifique se os dados solicitados existem
3. Tente reformular a pergunta`, reason)
}
