package analytics

import (
	"database/sql"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"isp-assistant/internal/models"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Normalize turns the rows of one account query into a snapshot. Account
// fields come from the first row and rows belonging to any other account are
// ignored; rows without a product code only count toward the account. The
// first row seen for a product wins.
func Normalize(rows []models.AccountRow) (*models.AccountSnapshot, error) {
	if len(rows) == 0 {
		return nil, ErrAccountNotFound
	}

	first := rows[0]
	account := models.Account{
		ID:              orDefault(first.AccountID, models.NotSpecified),
		TaxID:           orDefault(first.TaxID, models.NotSpecified),
		Name:            orDefault(first.Name, models.NotSpecified),
		FinancialStatus: orDefault(first.FinancialStatus, models.NotSpecified),
		BillingSystem:   orDefault(first.BillingSystem, models.NotAvailable),
		LastInvoiceDate: formatDate(first.LastInvoiceDate, models.NotAvailable),
		DueDate:         formatDate(first.DueDate, models.NotSpecified),
		Status:          orDefault(first.Status, models.NotSpecified),
		TotalBilled:     decimal.Zero,
	}

	products := make([]models.ProductLineItem, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		if !sameAccount(first, row) {
			continue
		}
		code := strings.TrimSpace(row.ProductCode.String)
		if !row.ProductCode.Valid || code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		item, err := normalizeProduct(i, code, row)
		if err != nil {
			return nil, err
		}
		account.TotalBilled = account.TotalBilled.Add(item.AggregateValue)
		products = append(products, item)
	}

	return &models.AccountSnapshot{
		Account:  account,
		Products: products,
	}, nil
}

func normalizeProduct(index int, code string, row models.AccountRow) (models.ProductLineItem, error) {
	item := models.ProductLineItem{
		Name:    code,
		Package: orDefault(row.PackageName, models.NotSpecified),
		Method:  models.ContractingMethod(orDefault(row.ContractingMethod, string(models.MethodUnspecified))),
	}

	var err error
	if item.UnitPrice, item.PriceSpecified, err = moneyField(index, "unit price", row.UnitPrice); err != nil {
		return item, err
	}
	if item.AggregateValue, _, err = moneyField(index, "aggregate value", row.AggregateValue); err != nil {
		return item, err
	}
	if item.ContractedTickets, err = ticketField(index, "contracted tickets", row.ContractedTickets); err != nil {
		return item, err
	}
	if item.DistributedTickets, err = ticketField(index, "distributed tickets", row.DistributedTickets); err != nil {
		return item, err
	}
	if item.BillableTickets, err = ticketField(index, "billable tickets", row.BillableTickets); err != nil {
		return item, err
	}
	return item, nil
}

func moneyField(index int, field string, v sql.NullString) (decimal.Decimal, bool, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return decimal.Zero, false, nil
	}
	d, err := ParseMoney(v.String)
	if err != nil {
		return decimal.Zero, false, &DataError{Row: index, Field: field, Value: v.String, Err: err}
	}
	return d, true, nil
}

func ticketField(index int, field string, v sql.NullString) (int64, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return 0, nil
	}
	n, err := parseCount(strings.TrimSpace(v.String))
	if err != nil {
		return 0, &DataError{Row: index, Field: field, Value: v.String, Err: err}
	}
	return n, nil
}

var (
	errNegativeCount   = errors.New("negative count")
	errFractionalCount = errors.New("fractional count")
	errCountOverflow   = errors.New("count out of range")
)

// parseCount accepts plain integers and integral decimals such as "700.00",
// which is how NUMERIC aggregates come back from the billing matrix.
func parseCount(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, errNegativeCount
		}
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, errFractionalCount
	}
	if d.IsNegative() {
		return 0, errNegativeCount
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, errCountOverflow
	}
	return d.IntPart(), nil
}

func sameAccount(a, b models.AccountRow) bool {
	return a.AccountID.Valid == b.AccountID.Valid && a.AccountID.String == b.AccountID.String
}

func orDefault(v sql.NullString, fallback string) string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return fallback
	}
	return v.String
}

// formatDate renders ISO dates as DD/MM/YYYY and keeps anything else verbatim.
func formatDate(v sql.NullString, fallback string) string {
	if !v.Valid || strings.TrimSpace(v.String) == "" || v.String == "None" {
		return fallback
	}
	raw := strings.TrimSpace(v.String)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}
