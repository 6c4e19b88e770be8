package analytics

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BenchmarkEntry holds market reference figures for one product.
type BenchmarkEntry struct {
	Utilization decimal.Decimal `json:"utilization"`
	Price       decimal.Decimal `json:"price"`
	Penetration decimal.Decimal `json:"penetration"`
	Churn       decimal.Decimal `json:"churn"`
}

// DefaultBenchmark is returned for products without a mapped entry.
var DefaultBenchmark = BenchmarkEntry{
	Utilization: decimal.RequireFromString("0.60"),
	Price:       decimal.Zero,
	Penetration: decimal.RequireFromString("0.40"),
	Churn:       decimal.RequireFromString("0.15"),
}

// BenchmarkSource resolves benchmark figures by product name. Get never
// fails; implementations fall back to DefaultBenchmark. A live data source
// only needs to satisfy this interface to replace the static table.
type BenchmarkSource interface {
	Get(productName string) BenchmarkEntry
}

// StaticBenchmarks is an in-memory table, read-only after construction.
type StaticBenchmarks struct {
	entries map[string]BenchmarkEntry
}

// NewStaticBenchmarks copies entries into a new table keyed by normalized
// product name.
func NewStaticBenchmarks(entries map[string]BenchmarkEntry) *StaticBenchmarks {
	table := make(map[string]BenchmarkEntry, len(entries))
	for name, entry := range entries {
		table[benchmarkKey(name)] = entry
	}
	return &StaticBenchmarks{entries: table}
}

// DefaultBenchmarks is the table shipped with the assistant.
func DefaultBenchmarks() *StaticBenchmarks {
	return NewStaticBenchmarks(map[string]BenchmarkEntry{
		"PARAMOUNT+ AVULSO": benchmark("0.65", "4.80", "0.45", "0.15"),
		"HBO MAX":           benchmark("0.70", "19.10", "0.35", "0.15"),
		"WATCH LIGHT":       benchmark("0.75", "0.30", "0.60", "0.15"),
	})
}

func (b *StaticBenchmarks) Get(productName string) BenchmarkEntry {
	if entry, ok := b.entries[benchmarkKey(productName)]; ok {
		return entry
	}
	return DefaultBenchmark
}

// Len reports how many products are mapped.
func (b *StaticBenchmarks) Len() int {
	return len(b.entries)
}

func benchmarkKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func benchmark(utilization, price, penetration, churn string) BenchmarkEntry {
	return BenchmarkEntry{
		Utilization: decimal.RequireFromString(utilization),
		Price:       decimal.RequireFromString(price),
		Penetration: decimal.RequireFromString(penetration),
		Churn:       decimal.RequireFromString(churn),
	}
}
