package stats

import (
	"math"
	"testing"
	"time"

	"GridCast/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); !almostEqual(got, 2.5) {
		t.Errorf("expected 2.5, got %v", got)
	}
	if got := Mean(nil); got != 0 {
		t.Errorf("expected 0 for empty slice, got %v", got)
	}
}

func TestPopulationStd(t *testing.T) {
	// population std of {2,4,4,4,5,5,7,9} is exactly 2
	got := PopulationStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !almostEqual(got, 2.0) {
		t.Errorf("expected 2.0, got %v", got)
	}
	if got := PopulationStd([]float64{3}); got != 0 {
		t.Errorf("expected 0 for single value, got %v", got)
	}
}

func TestMinMax(t *testing.T) {
	values := []float64{3.5, -1.0, 7.2, 0.0}
	if got := Min(values); got != -1.0 {
		t.Errorf("expected -1.0, got %v", got)
	}
	if got := Max(values); got != 7.2 {
		t.Errorf("expected 7.2, got %v", got)
	}
}

func TestArbitrageCount(t *testing.T) {
	// one extreme outlier among flat values
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 100}
	if got := ArbitrageCount(values, DefaultSigmas); got != 1 {
		t.Errorf("expected 1 opportunity, got %d", got)
	}
}

func TestArbitrageCountShortInput(t *testing.T) {
	if got := ArbitrageCount(nil, DefaultSigmas); got != 0 {
		t.Errorf("expected 0 for empty input, got %d", got)
	}
	if got := ArbitrageCount([]float64{5.0}, DefaultSigmas); got != 0 {
		t.Errorf("expected 0 for single value, got %d", got)
	}
}

func TestArbitrageCountMonotonicInThreshold(t *testing.T) {
	values := []float64{1, 1, 1, 2, 1, 1, 8, 1, 1, 1, 1, 1, 15, 1, 1}
	loose := ArbitrageCount(values, 0.5)
	tight := ArbitrageCount(values, 3.0)
	if tight > loose {
		t.Errorf("tighter threshold found more opportunities: %d > %d", tight, loose)
	}
}

func TestDescribe(t *testing.T) {
	ts := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points := []models.ForecastPoint{
		{
			Timestamp:    ts,
			IsHistorical: true,
			Values: map[models.Quantity]float64{
				models.QuantityEnergy: 99, models.QuantityHash: 99, models.QuantityToken: 99,
			},
		},
		{
			Timestamp: ts.Add(5 * time.Minute),
			Values: map[models.Quantity]float64{
				models.QuantityEnergy: 2, models.QuantityHash: 4, models.QuantityToken: 1,
			},
		},
		{
			Timestamp: ts.Add(10 * time.Minute),
			Values: map[models.Quantity]float64{
				models.QuantityEnergy: 4, models.QuantityHash: 6, models.QuantityToken: 3,
			},
		},
	}

	got := Describe(points, 0.25)

	// historical points are excluded from every figure
	if !almostEqual(got["mean"], 3.0) {
		t.Errorf("mean: expected 3.0, got %v", got["mean"])
	}
	if !almostEqual(got["std"], 1.0) {
		t.Errorf("std: expected 1.0, got %v", got["std"])
	}
	if !almostEqual(got["min"], 2.0) || !almostEqual(got["max"], 4.0) {
		t.Errorf("min/max: got %v/%v", got["min"], got["max"])
	}
	if !almostEqual(got["trend"], 0.25) {
		t.Errorf("trend: expected 0.25, got %v", got["trend"])
	}
	if !almostEqual(got["hash_mean"], 5.0) {
		t.Errorf("hash_mean: expected 5.0, got %v", got["hash_mean"])
	}
	if !almostEqual(got["token_mean"], 2.0) {
		t.Errorf("token_mean: expected 2.0, got %v", got["token_mean"])
	}
}
