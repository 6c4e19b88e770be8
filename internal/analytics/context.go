package analytics

import (
	"bytes"
	"encoding/json"

	"isp-assistant/internal/models"
)

// ContextBlob is the data payload handed to the LLM with every question.
// All money and ratio fields are pre-formatted strings.
type ContextBlob struct {
	Account   AccountContext   `json:"isp"`
	Products  []ProductContext `json:"products"`
	Metrics   []MetricsContext `json:"businessMetrics"`
	Portfolio PortfolioContext `json:"portfolio"`
}

type AccountContext struct {
	ID              string `json:"id"`
	TaxID           string `json:"taxId"`
	Name            string `json:"name"`
	FinancialStatus string `json:"financialStatus"`
	BillingSystem   string `json:"billingSystem"`
	LastInvoiceDate string `json:"lastInvoiceDate"`
	DueDate         string `json:"dueDate"`
	Status          string `json:"status"`
	TotalBilled     string `json:"totalBilled"`
}

type ProductContext struct {
	Name               string `json:"name"`
	Package            string `json:"package"`
	Method             string `json:"contractingMethod"`
	UnitPrice          string `json:"unitPrice"`
	ContractedTickets  int64  `json:"contractedTickets"`
	DistributedTickets int64  `json:"distributedTickets"`
	BillableTickets    int64  `json:"billableTickets"`
	BilledValue        string `json:"billedValue"`
}

type MetricsContext struct {
	Product              string `json:"product"`
	Utilization          string `json:"utilization"`
	NoContractedVolume   bool   `json:"noContractedVolume,omitempty"`
	BenchmarkUtilization string `json:"benchmarkUtilization"`
	GrowthPotential      string `json:"growthPotential"`
	CurrentPrice         string `json:"currentPrice"`
	BenchmarkPrice       string `json:"benchmarkPrice"`
	UpsellPotential      string `json:"upsellPotential"`
	MarketPenetration    string `json:"marketPenetration"`
	AcceptableChurn      string `json:"acceptableChurn"`
	RevenueShare         string `json:"revenueShare"`
	PotentialTickets     int64  `json:"potentialTickets"`
	PotentialRevenue     string `json:"potentialRevenue"`
	EstimatedCost        string `json:"estimatedCost"`
	ROI                  string `json:"roi"`
}

type PortfolioContext struct {
	ProductCount       int    `json:"productCount"`
	TotalValue         string `json:"totalValue"`
	ContractedTickets  int64  `json:"contractedTickets"`
	DistributedTickets int64  `json:"distributedTickets"`
	BillableTickets    int64  `json:"billableTickets"`
	Utilization        string `json:"utilization"`
	PotentialRevenue   string `json:"potentialRevenue"`
}

// Assemble merges a snapshot with its metrics. It performs no arithmetic.
func Assemble(snapshot *models.AccountSnapshot, metrics *MetricSet) ContextBlob {
	blob := ContextBlob{
		Products: []ProductContext{},
		Metrics:  []MetricsContext{},
	}
	if snapshot == nil {
		return blob
	}

	a := snapshot.Account
	blob.Account = AccountContext{
		ID:              a.ID,
		TaxID:           a.TaxID,
		Name:            a.Name,
		FinancialStatus: a.FinancialStatus,
		BillingSystem:   a.BillingSystem,
		LastInvoiceDate: a.LastInvoiceDate,
		DueDate:         a.DueDate,
		Status:          a.Status,
		TotalBilled:     FormatBRL(a.TotalBilled),
	}

	for _, p := range snapshot.Products {
		unitPrice := models.NotSpecified
		if p.PriceSpecified {
			unitPrice = FormatBRL(p.UnitPrice)
		}
		blob.Products = append(blob.Products, ProductContext{
			Name:               p.Name,
			Package:            p.Package,
			Method:             string(p.Method),
			UnitPrice:          unitPrice,
			ContractedTickets:  p.ContractedTickets,
			DistributedTickets: p.DistributedTickets,
			BillableTickets:    p.BillableTickets,
			BilledValue:        FormatBRL(p.Total()),
		})
	}

	if metrics == nil {
		return blob
	}

	for _, m := range metrics.Products.All() {
		blob.Metrics = append(blob.Metrics, MetricsContext{
			Product:              m.Product,
			Utilization:          formatRatio(m.Utilization),
			NoContractedVolume:   m.NoContractedVolume,
			BenchmarkUtilization: formatRatio(m.BenchmarkUtilization),
			GrowthPotential:      formatRatio(m.GrowthPotential),
			CurrentPrice:         FormatBRL(m.CurrentPrice),
			BenchmarkPrice:       FormatBRL(m.BenchmarkPrice),
			UpsellPotential:      FormatBRL(m.UpsellPotential),
			MarketPenetration:    formatRatio(m.MarketPenetration),
			AcceptableChurn:      formatRatio(m.AcceptableChurn),
			RevenueShare:         m.RevenueShare.StringFixed(2),
			PotentialTickets:     m.PotentialTickets,
			PotentialRevenue:     FormatBRL(m.PotentialRevenue),
			EstimatedCost:        FormatBRL(m.EstimatedCost),
			ROI:                  formatRatio(m.ROI),
		})
	}

	t := metrics.Portfolio
	blob.Portfolio = PortfolioContext{
		ProductCount:       t.ProductCount,
		TotalValue:         FormatBRL(t.TotalValue),
		ContractedTickets:  t.ContractedTickets,
		DistributedTickets: t.DistributedTickets,
		BillableTickets:    t.BillableTickets,
		Utilization:        formatRatio(t.Utilization),
		PotentialRevenue:   FormatBRL(t.PotentialRevenue),
	}
	return blob
}

// Encode renders the blob as indented JSON. Identical blobs encode to
// identical bytes.
func (b ContextBlob) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
