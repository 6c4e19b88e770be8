package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"isp-assistant/internal/common/config"
)

func TestNewCalculatorFromConfig(t *testing.T) {
	calc := NewCalculatorFromConfig(config.AnalyticsConfig{
		ActivationCostRatio: 0.25,
		Benchmarks: map[string]config.BenchmarkConfig{
			// viper lower-cases map keys
			"hbo max":      {Utilization: 0.8, Price: 21.5, Penetration: 0.3, Churn: 0.1},
			"globoplay mx": {Utilization: 0.5, Price: 12.9, Penetration: 0.2, Churn: 0.2},
		},
	})

	assert.True(t, calc.costRatio.Equal(dec("0.25")))
	assert.True(t, calc.benchmarks.Get("HBO MAX").Price.Equal(dec("21.5")))
	assert.True(t, calc.benchmarks.Get("GLOBOPLAY MX").Utilization.Equal(dec("0.5")))
	assert.True(t, calc.benchmarks.Get("WATCH LIGHT").Utilization.Equal(dec("0.75")))
	assert.Equal(t, DefaultBenchmark, calc.benchmarks.Get("UNKNOWN"))
}

func TestNewCalculatorFromConfig_OverrideIsStable(t *testing.T) {
	cfg := config.AnalyticsConfig{
		Benchmarks: map[string]config.BenchmarkConfig{
			"hbo max":       {Utilization: 0.8, Price: 21.5, Penetration: 0.3, Churn: 0.1},
			" watch light ": {Utilization: 0.9, Price: 0.5, Penetration: 0.6, Churn: 0.1},
		},
	}

	for i := 0; i < 100; i++ {
		calc := NewCalculatorFromConfig(cfg)
		assert.True(t, calc.benchmarks.Get("HBO MAX").Price.Equal(dec("21.5")), "iteration %d", i)
		assert.True(t, calc.benchmarks.Get("Watch Light").Utilization.Equal(dec("0.9")), "iteration %d", i)
		assert.Equal(t, 3, calc.benchmarks.(*StaticBenchmarks).Len())
	}
}

func TestNewCalculatorFromConfig_Defaults(t *testing.T) {
	calc := NewCalculatorFromConfig(config.AnalyticsConfig{})

	assert.True(t, calc.costRatio.Equal(DefaultActivationCostRatio))
	assert.True(t, calc.benchmarks.Get("PARAMOUNT+ AVULSO").Price.Equal(dec("4.80")))
}
