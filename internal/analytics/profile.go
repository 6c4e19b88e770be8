package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"isp-assistant/internal/models"
)

// RenderProfile builds the account summary shown right after a search.
func RenderProfile(snapshot *models.AccountSnapshot) string {
	if snapshot == nil {
		return ""
	}

	var b strings.Builder
	a := snapshot.Account

	b.WriteString("Aqui está o prontuário do ISP:\n\n")
	b.WriteString("1. 📦 **Produtos e Pacotes:**\n")
	if len(snapshot.Products) == 0 {
		b.WriteString("   * Nenhum produto contratado\n")
	}
	for _, p := range snapshot.Products {
		unitPrice := models.NotSpecified
		if p.PriceSpecified {
			unitPrice = FormatBRL(p.UnitPrice)
		}
		util, _ := utilization(p.DistributedTickets, p.ContractedTickets)

		fmt.Fprintf(&b, "   * **%s**:\n", p.Name)
		fmt.Fprintf(&b, "      - Pacote: %s\n", p.Package)
		fmt.Fprintf(&b, "      - Método de Contratação: %s\n", p.Method)
		fmt.Fprintf(&b, "      - Valor unitário: %s\n", unitPrice)
		fmt.Fprintf(&b, "      - Tickets contratados: %s\n", formatCount(p.ContractedTickets))
		fmt.Fprintf(&b, "      - Tickets distribuídos: %s\n", formatCount(p.DistributedTickets))
		fmt.Fprintf(&b, "      - Tickets para faturamento: %s\n", formatCount(p.BillableTickets))
		fmt.Fprintf(&b, "      - Valor faturado: %s\n", FormatBRL(p.Total()))
		fmt.Fprintf(&b, "      - Percentual utilizado: %s\n", formatPercent(util))
	}

	b.WriteString("\n2. 💰 **Financeiro:**\n")
	fmt.Fprintf(&b, "   * Faturamento total: %s\n", FormatBRL(a.TotalBilled))
	fmt.Fprintf(&b, "   * Vencimento: %s\n", a.DueDate)

	b.WriteString("\n3. 🔄 **Sistema:**\n")
	fmt.Fprintf(&b, "   * ERP integrado: %s\n", a.BillingSystem)

	b.WriteString("\n**Informações adicionais:**\n")
	fmt.Fprintf(&b, "* Nome do ISP: %s\n", a.Name)
	fmt.Fprintf(&b, "* CNPJ: %s\n", a.TaxID)
	fmt.Fprintf(&b, "* Situação financeira: %s\n", a.FinancialStatus)

	b.WriteString("\nComo posso ajudar você? Algumas sugestões:\n")
	b.WriteString("* Gostaria de saber mais detalhes sobre algum produto específico? 📦\n")
	b.WriteString("* Quer informações sobre o método de contratação de um produto? 💼\n")
	b.WriteString("* Posso detalhar melhor os valores de faturamento? 💰\n")

	return b.String()
}

// formatCount groups thousands with commas: 12345 -> "12,345".
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return sign + b.String()
}
