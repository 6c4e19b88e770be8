package analytics

import (
	"github.com/shopspring/decimal"

	"isp-assistant/internal/common/config"
)

// NewCalculatorFromConfig builds a calculator from the analytics section.
// Configured benchmarks are layered over the shipped table, so a config only
// needs to list the products it changes or adds.
func NewCalculatorFromConfig(cfg config.AnalyticsConfig) *Calculator {
	entries := map[string]BenchmarkEntry{}
	for name, entry := range DefaultBenchmarks().entries {
		entries[name] = entry
	}
	for name, b := range cfg.Benchmarks {
		entries[benchmarkKey(name)] = BenchmarkEntry{
			Utilization: decimal.NewFromFloat(b.Utilization),
			Price:       decimal.NewFromFloat(b.Price),
			Penetration: decimal.NewFromFloat(b.Penetration),
			Churn:       decimal.NewFromFloat(b.Churn),
		}
	}
	return NewCalculator(NewStaticBenchmarks(entries), decimal.NewFromFloat(cfg.ActivationCostRatio))
}
