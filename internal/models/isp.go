// internal/models/isp.go
package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Display placeholders used when the CRM/billing source leaves a field empty.
const (
	NotSpecified = "Não especificado"
	NotAvailable = "Não disponível"
)

// ContractingMethod is how a product's tickets are billed.
type ContractingMethod string

const (
	MethodByAccess     ContractingMethod = "Acessos"
	MethodByActivation ContractingMethod = "Ativação"
	MethodUnspecified  ContractingMethod = NotSpecified
)

// Account is the account-level part of an ISP snapshot.
type Account struct {
	ID              string          `json:"id"`
	TaxID           string          `json:"taxId"`
	Name            string          `json:"name"`
	FinancialStatus string          `json:"financialStatus"`
	BillingSystem   string          `json:"billingSystem"`
	LastInvoiceDate string          `json:"lastInvoiceDate"`
	DueDate         string          `json:"dueDate"`
	Status          string          `json:"status"`
	TotalBilled     decimal.Decimal `json:"totalBilled"`
}

// ProductLineItem is one contracted product of an account.
type ProductLineItem struct {
	Name               string            `json:"name"`
	Package            string            `json:"package"`
	Method             ContractingMethod `json:"method"`
	UnitPrice          decimal.Decimal   `json:"unitPrice"`
	PriceSpecified     bool              `json:"priceSpecified"`
	ContractedTickets  int64             `json:"contractedTickets"`
	DistributedTickets int64             `json:"distributedTickets"`
	BillableTickets    int64             `json:"billableTickets"`
	AggregateValue     decimal.Decimal   `json:"aggregateValue"`
}

// Total is billable tickets times unit price. Upstream computed totals are ignored.
func (p ProductLineItem) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(p.BillableTickets))
}

// AccountSnapshot is what a session holds between questions.
type AccountSnapshot struct {
	Account   Account           `json:"account"`
	Products  []ProductLineItem `json:"products"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// BilledTickets sums billable tickets across the portfolio.
func (s *AccountSnapshot) BilledTickets() int64 {
	var total int64
	for _, p := range s.Products {
		total += p.BillableTickets
	}
	return total
}

// AccountRow is one row of the account/product query. Numeric columns are
// scanned as text so malformed values can be reported instead of silently zeroed.
type AccountRow struct {
	AccountID          sql.NullString
	TaxID              sql.NullString
	Name               sql.NullString
	FinancialStatus    sql.NullString
	BillingSystem      sql.NullString
	LastInvoiceDate    sql.NullString
	ProductCode        sql.NullString
	PackageName        sql.NullString
	UnitPrice          sql.NullString
	AggregateValue     sql.NullString
	DueDate            sql.NullString
	Status             sql.NullString
	ContractedTickets  sql.NullString
	DistributedTickets sql.NullString
	ContractingMethod  sql.NullString
	BillableTickets    sql.NullString
	ComputedValue      sql.NullString
}
