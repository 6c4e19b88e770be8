package analytics

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isp-assistant/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(name, price string, contracted, distributed, billable int64) models.ProductLineItem {
	return models.ProductLineItem{
		Name:               name,
		Package:            "Pacote",
		Method:             models.MethodByActivation,
		UnitPrice:          dec(price),
		PriceSpecified:     true,
		ContractedTickets:  contracted,
		DistributedTickets: distributed,
		BillableTickets:    billable,
	}
}

func snapshotOf(items ...models.ProductLineItem) *models.AccountSnapshot {
	return &models.AccountSnapshot{
		Account:  models.Account{ID: "001", Name: "Provedor", TotalBilled: decimal.Zero},
		Products: items,
	}
}

func TestCompute_UtilizationAboveBenchmark(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)

	metrics := calc.Compute(snapshotOf(item("PARAMOUNT+ AVULSO", "4.80", 1000, 700, 700)))

	m, ok := metrics.Products.Get("PARAMOUNT+ AVULSO")
	require.True(t, ok)
	assert.Equal(t, "0.7", m.Utilization.String())
	assert.True(t, m.BenchmarkUtilization.Equal(dec("0.65")))
	assert.True(t, m.GrowthPotential.IsZero())
	assert.Zero(t, m.PotentialTickets)
	assert.True(t, m.PotentialRevenue.IsZero())
	assert.True(t, m.ROI.IsZero())
}

func TestCompute_GrowthScenario(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)

	metrics := calc.Compute(snapshotOf(item("PARAMOUNT+ AVULSO", "4.80", 1000, 500, 500)))

	m, ok := metrics.Products.Get("PARAMOUNT+ AVULSO")
	require.True(t, ok)
	assert.True(t, m.Utilization.Equal(dec("0.50")))
	assert.True(t, m.GrowthPotential.Equal(dec("0.15")))
	assert.Equal(t, int64(150), m.PotentialTickets)
	assert.Equal(t, "720.00", m.PotentialRevenue.StringFixed(2))
	assert.Equal(t, "216.00", m.EstimatedCost.StringFixed(2))
	assert.Equal(t, "2.3333", m.ROI.StringFixed(4))
	assert.True(t, m.UpsellPotential.IsZero())
	assert.True(t, m.BenchmarkPrice.Equal(dec("4.80")))
}

func TestCompute_ExactRatioSubtraction(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)

	metrics := calc.Compute(snapshotOf(item("HBO MAX", "19.10", 1000, 600, 600)))

	m, _ := metrics.Products.Get("HBO MAX")
	assert.Equal(t, int64(100), m.PotentialTickets)
	assert.Equal(t, "1910.00", m.PotentialRevenue.StringFixed(2))
}

func TestCompute_NoContractedVolume(t *testing.T) {
	calc := NewCalculator(nil, decimal.Zero)

	var metrics *MetricSet
	require.NotPanics(t, func() {
		metrics = calc.Compute(snapshotOf(item("WATCH LIGHT", "0.30", 0, 25, 0)))
	})

	m, ok := metrics.Products.Get("WATCH LIGHT")
	require.True(t, ok)
	assert.True(t, m.Utilization.IsZero())
	assert.True(t, m.NoContractedVolume)
	assert.Zero(t, m.PotentialTickets)
	assert.True(t, m.ROI.IsZero())
	assert.True(t, metrics.Portfolio.Utilization.IsZero())
}

func TestCompute_UnmappedProductUsesDefault(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)

	metrics := calc.Compute(snapshotOf(item("DEEZER", "9.90", 100, 10, 10)))

	m, _ := metrics.Products.Get("DEEZER")
	assert.True(t, m.BenchmarkUtilization.Equal(dec("0.60")))
	assert.True(t, m.BenchmarkPrice.IsZero())
	assert.Equal(t, "-9.90", m.UpsellPotential.StringFixed(2))
	assert.Equal(t, int64(50), m.PotentialTickets)
}

func TestCompute_RevenueShareSumsToHundred(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)

	metrics := calc.Compute(snapshotOf(
		item("PARAMOUNT+ AVULSO", "4.80", 1000, 700, 333),
		item("HBO MAX", "19.10", 300, 200, 77),
		item("WATCH LIGHT", "0.30", 5000, 4000, 4001),
	))

	sum := decimal.Zero
	for _, m := range metrics.Products.All() {
		assert.False(t, m.RevenueShare.IsNegative())
		sum = sum.Add(m.RevenueShare)
	}
	assert.True(t, sum.Sub(hundred).Abs().LessThan(dec("0.000001")), "sum was %s", sum)

	expectedTotal := dec("4.80").Mul(decimal.NewFromInt(333)).
		Add(dec("19.10").Mul(decimal.NewFromInt(77))).
		Add(dec("0.30").Mul(decimal.NewFromInt(4001)))
	assert.True(t, metrics.Portfolio.TotalValue.Equal(expectedTotal))
	assert.Equal(t, 3, metrics.Portfolio.ProductCount)
	assert.Equal(t, int64(6300), metrics.Portfolio.ContractedTickets)
}

func TestCompute_ZeroPortfolioShares(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)

	metrics := calc.Compute(snapshotOf(
		item("HBO MAX", "19.10", 100, 10, 0),
		item("WATCH LIGHT", "0.00", 100, 10, 50),
	))

	for _, m := range metrics.Products.All() {
		assert.True(t, m.RevenueShare.IsZero())
	}
}

func TestCompute_Invariants(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)
	products := []models.ProductLineItem{
		item("PARAMOUNT+ AVULSO", "4.80", 1, 0, 0),
		item("HBO MAX", "19.10", 7, 3, 3),
		item("WATCH LIGHT", "0.30", 999, 998, 998),
		item("UNKNOWN", "1.00", 0, 0, 0),
		item("OVERSOLD", "2.00", 10, 15, 15),
	}

	metrics := calc.Compute(snapshotOf(products...))

	require.Equal(t, len(products), metrics.Products.Len())
	for i, m := range metrics.Products.All() {
		assert.Equal(t, products[i].Name, m.Product)
		assert.False(t, m.Utilization.IsNegative(), m.Product)
		assert.False(t, m.GrowthPotential.IsNegative(), m.Product)
		assert.LessOrEqual(t, m.PotentialTickets, products[i].ContractedTickets, m.Product)
		assert.False(t, m.ROI.IsNegative(), m.Product)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)
	snapshot := snapshotOf(
		item("PARAMOUNT+ AVULSO", "4.80", 1000, 500, 500),
		item("HBO MAX", "19.10", 300, 200, 200),
	)

	first, err := json.Marshal(calc.Compute(snapshot))
	require.NoError(t, err)
	second, err := json.Marshal(calc.Compute(snapshot))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestProductMetricSet_MarshalKeepsOrder(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), DefaultActivationCostRatio)

	metrics := calc.Compute(snapshotOf(
		item("WATCH LIGHT", "0.30", 10, 5, 5),
		item("HBO MAX", "19.10", 10, 5, 5),
		item("A PRODUCT", "1.00", 10, 5, 5),
	))

	raw, err := json.Marshal(metrics.Products)
	require.NoError(t, err)

	s := string(raw)
	watch := strings.Index(s, `"WATCH LIGHT":`)
	hbo := strings.Index(s, `"HBO MAX":`)
	other := strings.Index(s, `"A PRODUCT":`)
	assert.True(t, watch >= 0 && watch < hbo && hbo < other, s)

	var decoded map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 3)
}

func TestCompute_CustomCostRatio(t *testing.T) {
	calc := NewCalculator(DefaultBenchmarks(), dec("0.50"))

	metrics := calc.Compute(snapshotOf(item("PARAMOUNT+ AVULSO", "4.80", 1000, 500, 500)))

	m, _ := metrics.Products.Get("PARAMOUNT+ AVULSO")
	assert.Equal(t, "360.00", m.EstimatedCost.StringFixed(2))
	assert.True(t, m.ROI.Equal(decimal.NewFromInt(1)))
}

func TestStaticBenchmarks_Lookup(t *testing.T) {
	table := DefaultBenchmarks()

	assert.Equal(t, 3, table.Len())
	assert.True(t, table.Get("  hbo max ").Price.Equal(dec("19.10")))
	assert.Equal(t, DefaultBenchmark, table.Get("nope"))
	assert.True(t, table.Get("WATCH LIGHT").Churn.Equal(dec("0.15")))
}
