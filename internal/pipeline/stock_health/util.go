package stock_health

import "math"

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// CountByClassification tallies items per tier; every tier is present in the result.
func CountByClassification(metrics []InventoryMetrics) map[Classification]int {
	counts := make(map[Classification]int, len(Classifications))
	for _, c := range Classifications {
		counts[c] = 0
	}
	for _, m := range metrics {
		counts[m.Classification]++
	}
	return counts
}
