package analytics

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"isp-assistant/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)

	// DefaultActivationCostRatio is the share of potential revenue assumed
	// to be spent activating the additional tickets.
	DefaultActivationCostRatio = decimal.RequireFromString("0.30")
)

// ProductMetrics is the derived metric set of a single product.
type ProductMetrics struct {
	Product              string          `json:"product"`
	Utilization          decimal.Decimal `json:"utilization"`
	NoContractedVolume   bool            `json:"noContractedVolume"`
	BenchmarkUtilization decimal.Decimal `json:"benchmarkUtilization"`
	GrowthPotential      decimal.Decimal `json:"growthPotential"`
	CurrentPrice         decimal.Decimal `json:"currentPrice"`
	BenchmarkPrice       decimal.Decimal `json:"benchmarkPrice"`
	UpsellPotential      decimal.Decimal `json:"upsellPotential"`
	MarketPenetration    decimal.Decimal `json:"marketPenetration"`
	AcceptableChurn      decimal.Decimal `json:"acceptableChurn"`
	Total                decimal.Decimal `json:"total"`
	RevenueShare         decimal.Decimal `json:"revenueShare"`
	PotentialTickets     int64           `json:"potentialTickets"`
	PotentialRevenue     decimal.Decimal `json:"potentialRevenue"`
	EstimatedCost        decimal.Decimal `json:"estimatedCost"`
	ROI                  decimal.Decimal `json:"roi"`
}

// PortfolioTotals aggregates an account's products.
type PortfolioTotals struct {
	ProductCount       int             `json:"productCount"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	ContractedTickets  int64           `json:"contractedTickets"`
	DistributedTickets int64           `json:"distributedTickets"`
	BillableTickets    int64           `json:"billableTickets"`
	Utilization        decimal.Decimal `json:"utilization"`
	PotentialRevenue   decimal.Decimal `json:"potentialRevenue"`
}

// ProductMetricSet keeps metrics keyed by product name in input order.
type ProductMetricSet struct {
	items []ProductMetrics
	index map[string]int
}

func newProductMetricSet(capacity int) ProductMetricSet {
	return ProductMetricSet{
		items: make([]ProductMetrics, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

func (s *ProductMetricSet) add(m ProductMetrics) {
	if _, ok := s.index[m.Product]; ok {
		return
	}
	s.index[m.Product] = len(s.items)
	s.items = append(s.items, m)
}

// Get returns the metrics of a product by name.
func (s ProductMetricSet) Get(product string) (ProductMetrics, bool) {
	i, ok := s.index[product]
	if !ok {
		return ProductMetrics{}, false
	}
	return s.items[i], true
}

// All returns a copy of the metrics in input order.
func (s ProductMetricSet) All() []ProductMetrics {
	out := make([]ProductMetrics, len(s.items))
	copy(out, s.items)
	return out
}

func (s ProductMetricSet) Len() int {
	return len(s.items)
}

// MarshalJSON encodes the set as an object whose keys follow input order.
func (s ProductMetricSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range s.items {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Product)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MetricSet is the calculator's output for one snapshot.
type MetricSet struct {
	Products  ProductMetricSet `json:"products"`
	Portfolio PortfolioTotals  `json:"portfolio"`
}

// Calculator derives utilization, benchmark and ROI metrics. It holds no
// mutable state and may be shared between goroutines.
type Calculator struct {
	benchmarks BenchmarkSource
	costRatio  decimal.Decimal
}

// NewCalculator builds a calculator. A nil source falls back to
// DefaultBenchmarks and a non-positive ratio to DefaultActivationCostRatio.
func NewCalculator(benchmarks BenchmarkSource, costRatio decimal.Decimal) *Calculator {
	if benchmarks == nil {
		benchmarks = DefaultBenchmarks()
	}
	if !costRatio.IsPositive() {
		costRatio = DefaultActivationCostRatio
	}
	return &Calculator{benchmarks: benchmarks, costRatio: costRatio}
}

// Compute derives the metric set of every product in the snapshot.
func (c *Calculator) Compute(snapshot *models.AccountSnapshot) *MetricSet {
	if snapshot == nil {
		return &MetricSet{Products: newProductMetricSet(0)}
	}

	portfolio := PortfolioTotals{
		ProductCount: len(snapshot.Products),
		TotalValue:   decimal.Zero,
	}
	for _, p := range snapshot.Products {
		portfolio.TotalValue = portfolio.TotalValue.Add(p.Total())
		portfolio.ContractedTickets += p.ContractedTickets
		portfolio.DistributedTickets += p.DistributedTickets
		portfolio.BillableTickets += p.BillableTickets
	}
	portfolio.Utilization, _ = utilization(portfolio.DistributedTickets, portfolio.ContractedTickets)
	portfolio.PotentialRevenue = decimal.Zero

	products := newProductMetricSet(len(snapshot.Products))
	for _, p := range snapshot.Products {
		m := c.product(p, portfolio.TotalValue)
		portfolio.PotentialRevenue = portfolio.PotentialRevenue.Add(m.PotentialRevenue)
		products.add(m)
	}

	return &MetricSet{Products: products, Portfolio: portfolio}
}

func (c *Calculator) product(p models.ProductLineItem, portfolioTotal decimal.Decimal) ProductMetrics {
	bench := c.benchmarks.Get(p.Name)

	util, empty := utilization(p.DistributedTickets, p.ContractedTickets)
	growth := decimal.Max(decimal.Zero, bench.Utilization.Sub(util))
	potentialTickets := decimal.NewFromInt(p.ContractedTickets).Mul(growth).Floor().IntPart()
	potentialRevenue := decimal.NewFromInt(potentialTickets).Mul(p.UnitPrice)
	estimatedCost := potentialRevenue.Mul(c.costRatio)

	roi := decimal.Zero
	if estimatedCost.IsPositive() {
		roi = potentialRevenue.Sub(estimatedCost).Div(estimatedCost)
	}

	total := p.Total()
	share := decimal.Zero
	if portfolioTotal.IsPositive() {
		share = total.Div(portfolioTotal).Mul(hundred)
	}

	return ProductMetrics{
		Product:              p.Name,
		Utilization:          util,
		NoContractedVolume:   empty,
		BenchmarkUtilization: bench.Utilization,
		GrowthPotential:      growth,
		CurrentPrice:         p.UnitPrice,
		BenchmarkPrice:       bench.Price,
		UpsellPotential:      bench.Price.Sub(p.UnitPrice),
		MarketPenetration:    bench.Penetration,
		AcceptableChurn:      bench.Churn,
		Total:                total,
		RevenueShare:         share,
		PotentialTickets:     potentialTickets,
		PotentialRevenue:     potentialRevenue,
		EstimatedCost:        estimatedCost,
		ROI:                  roi,
	}
}

// utilization is distributed/contracted, defined as zero with no contracted
// volume. The second result reports that zero case.
func utilization(distributed, contracted int64) (decimal.Decimal, bool) {
	if contracted <= 0 {
		return decimal.Zero, true
	}
	return decimal.NewFromInt(distributed).Div(decimal.NewFromInt(contracted)), false
}
