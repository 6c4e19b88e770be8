// internal/workers/data-access/fetch-isp-account/queries/account.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"isp-assistant/internal/models"
)

var ErrEmptyIdentifier = errors.New("identifier is empty")

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// accountQuery returns one row per account and product, keeping the row with
// the latest due date when the price matrix holds several for the same
// product. Rows of one account are contiguous.
const accountQuery = `
	WITH ranked_products AS (
		SELECT
			c.id AS sf_id,
			c.ca_cnpj__c,
			c.name,
			c.ca_situacaofinanceira__c,
			c.erp__c,
			c.ca_dataultfaturamento__c::text,
			m.produto_sf_code,
			m.pacote_id,
			m.pacote_valor_unit::text,
			SUM(m.valor_total)::text AS valor_total,
			m.isp_vencimento::text,
			m.isp_sf_status,
			MAX(m.tickets_contratados)::text AS tickets_contratados,
			MAX(m.tickets_distribuidos)::text AS tickets_distribuidos,
			m.pacote_metodo,
			m.tickets_metodo::text,
			(m.tickets_metodo * m.pacote_valor_unit)::text AS valor_calculado,
			ROW_NUMBER() OVER (PARTITION BY c.id, m.produto_sf_code ORDER BY m.isp_vencimento DESC) AS rn
		FROM dim_sf_contas c
		LEFT JOIN com_matriz_preco_v2 m ON c.id = m.isp_sf_id
		WHERE %s
		GROUP BY
			c.id, c.ca_cnpj__c, c.name, c.ca_situacaofinanceira__c, c.erp__c,
			c.ca_dataultfaturamento__c, m.produto_sf_code, m.pacote_id,
			m.pacote_valor_unit, m.isp_vencimento, m.isp_sf_status,
			m.pacote_metodo, m.tickets_metodo
	)
	SELECT
		sf_id, ca_cnpj__c, name, ca_situacaofinanceira__c, erp__c, ca_dataultfaturamento__c,
		produto_sf_code, pacote_id, pacote_valor_unit, valor_total, isp_vencimento, isp_sf_status,
		tickets_contratados, tickets_distribuidos, pacote_metodo, tickets_metodo, valor_calculado
	FROM ranked_products
	WHERE rn = 1 AND produto_sf_code IS NOT NULL
	ORDER BY name, sf_id, produto_sf_code`

// AccountQuery reads account and price-matrix rows from Postgres.
type AccountQuery struct {
	db *sql.DB
}

func NewAccountQuery(db *sql.DB) *AccountQuery {
	return &AccountQuery{db: db}
}

// FetchAccountRows matches a digits-only identifier exactly against the tax
// id and anything else as a case-insensitive substring of the name. LIKE
// wildcards typed by the user are matched literally.
func (q *AccountQuery) FetchAccountRows(ctx context.Context, identifier string) ([]models.AccountRow, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}

	where, arg := `c.name ILIKE $1 ESCAPE '\'`, "%"+likeEscaper.Replace(identifier)+"%"
	if IsTaxID(identifier) {
		where, arg = "c.ca_cnpj__c = $1", identifier
	}

	rows, err := q.db.QueryContext(ctx, fmt.Sprintf(accountQuery, where), arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AccountRow
	for rows.Next() {
		var r models.AccountRow
		if err := rows.Scan(
			&r.AccountID, &r.TaxID, &r.Name, &r.FinancialStatus, &r.BillingSystem, &r.LastInvoiceDate,
			&r.ProductCode, &r.PackageName, &r.UnitPrice, &r.AggregateValue, &r.DueDate, &r.Status,
			&r.ContractedTickets, &r.DistributedTickets, &r.ContractingMethod, &r.BillableTickets, &r.ComputedValue,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IsTaxID reports whether s is made of ASCII digits only.
func IsTaxID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
