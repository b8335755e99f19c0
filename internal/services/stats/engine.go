package stats

import (
	"math"

	"GridCast/internal/domain/models"
)

// DefaultSigmas is the deviation threshold for the arbitrage heuristic.
const DefaultSigmas = 1.5

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStd returns the population standard deviation, or 0 for fewer
// than one value.
func PopulationStd(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	mean := Mean(values)
	sum2 := 0.0
	for _, v := range values {
		d := v - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(n))
}

// Min returns the smallest value, or 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest value, or 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// ArbitrageCount counts values that deviate from the mean by more than
// sigmas standard deviations in either direction. Fewer than 2 values
// always yield 0.
func ArbitrageCount(values []float64, sigmas float64) int {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	std := PopulationStd(values)

	count := 0
	for _, v := range values {
		if v > mean+sigmas*std || v < mean-sigmas*std {
			count++
		}
	}
	return count
}

// ForecastValues extracts the per-quantity value sequence from the
// forecast-only segment of a point series.
func ForecastValues(points []models.ForecastPoint, q models.Quantity) []float64 {
	out := make([]float64, 0, len(points))
	for _, p := range points {
		if p.IsHistorical {
			continue
		}
		out = append(out, p.Values[q])
	}
	return out
}

// Describe builds the statistics bundle over the forecast-only segment.
// Energy is the primary quantity (mean, std, min, max, trend); hash and
// token contribute only their means.
func Describe(points []models.ForecastPoint, energyTrend float64) map[string]float64 {
	energy := ForecastValues(points, models.QuantityEnergy)
	hash := ForecastValues(points, models.QuantityHash)
	token := ForecastValues(points, models.QuantityToken)

	return map[string]float64{
		"mean":       Mean(energy),
		"std":        PopulationStd(energy),
		"min":        Min(energy),
		"max":        Max(energy),
		"trend":      energyTrend,
		"hash_mean":  Mean(hash),
		"token_mean": Mean(token),
	}
}
