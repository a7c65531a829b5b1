package query

import "math"

// Rates are USD prices per million tokens.
type Rates struct {
	InputPer1M  float64
	OutputPer1M float64
}

// DefaultRates are the gpt-4o-mini list prices.
var DefaultRates = Rates{InputPer1M: 0.15, OutputPer1M: 0.60}

// EstimateCostUSD prices a completion. It is unrounded; records store RoundUSD of it.
func EstimateCostUSD(promptTokens, completionTokens int, rates Rates) float64 {
	return float64(promptTokens)/1_000_000*rates.InputPer1M +
		float64(completionTokens)/1_000_000*rates.OutputPer1M
}

// RoundUSD rounds to six decimal places.
func RoundUSD(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
