package normalize

import (
	"errors"
	"testing"

	"GridCast/internal/domain/models"
)

func TestNormalizeCanonicalColumns(t *testing.T) {
	records := []models.Record{
		{"timestamp": "2025-01-01T00:00:00", "energy_price": 2.5, "hash_price": 3.1, "token_price": 1.9},
		{"timestamp": "2025-01-01T00:05:00", "energy_price": 2.6, "hash_price": 3.0, "token_price": 2.0},
	}

	series, err := Normalize(records)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	for _, q := range models.Quantities() {
		if len(series[q]) != 2 {
			t.Fatalf("quantity %s: expected 2 points, got %d", q, len(series[q]))
		}
	}
	if series[models.QuantityEnergy][0].Value != 2.5 {
		t.Errorf("expected first energy value 2.5, got %v", series[models.QuantityEnergy][0].Value)
	}
}

func TestNormalizeLegacyColumns(t *testing.T) {
	records := []models.Record{
		{"timestamp": "2025-01-01T00:00:00", "energyPrice": 1.0, "hashPrice": 2.0, "tokenPrice": 3.0},
	}

	series, err := Normalize(records)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	for _, q := range models.Quantities() {
		if len(series[q]) != 1 {
			t.Fatalf("quantity %s: expected 1 point, got %d", q, len(series[q]))
		}
	}
	if series[models.QuantityToken][0].Value != 3.0 {
		t.Errorf("expected token value 3.0, got %v", series[models.QuantityToken][0].Value)
	}
}

func TestNormalizeGenericColumnsReplicated(t *testing.T) {
	records := []models.Record{
		{"ds": "2025-01-01T00:00:00", "y": 4.2},
		{"ds": "2025-01-01T00:05:00", "y": 4.3},
	}

	series, err := Normalize(records)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	for _, q := range models.Quantities() {
		pts := series[q]
		if len(pts) != 2 {
			t.Fatalf("quantity %s: expected 2 points, got %d", q, len(pts))
		}
		if pts[0].Value != 4.2 || pts[1].Value != 4.3 {
			t.Errorf("quantity %s: generic value not replicated: %+v", q, pts)
		}
	}
}

func TestNormalizeSchemesProduceSameKeys(t *testing.T) {
	canonical := []models.Record{{"timestamp": "2025-01-01T00:00:00", "energy_price": 1.0, "hash_price": 1.0, "token_price": 1.0}}
	legacy := []models.Record{{"timestamp": "2025-01-01T00:00:00", "energyPrice": 1.0, "hashPrice": 1.0, "tokenPrice": 1.0}}
	generic := []models.Record{{"ds": "2025-01-01T00:00:00", "y": 1.0}}

	for name, records := range map[string][]models.Record{
		"canonical": canonical,
		"legacy":    legacy,
		"generic":   generic,
	} {
		series, err := Normalize(records)
		if err != nil {
			t.Fatalf("%s: Normalize returned error: %v", name, err)
		}
		for _, q := range models.Quantities() {
			if _, ok := series[q]; !ok {
				t.Errorf("%s: missing quantity key %s", name, q)
			}
		}
	}
}

func TestNormalizeDuplicateTimestampsKeepLater(t *testing.T) {
	records := []models.Record{
		{"timestamp": "2025-01-01T00:00:00", "energy_price": 1.0},
		{"timestamp": "2025-01-01T00:05:00", "energy_price": 2.0},
		{"timestamp": "2025-01-01T00:00:00", "energy_price": 9.0},
	}

	series, err := Normalize(records)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	pts := series[models.QuantityEnergy]
	if len(pts) != 2 {
		t.Fatalf("expected 2 points after dedup, got %d", len(pts))
	}
	if pts[0].Value != 9.0 {
		t.Errorf("expected later duplicate to win, got %v", pts[0].Value)
	}
}

func TestNormalizeSortsAscending(t *testing.T) {
	records := []models.Record{
		{"timestamp": "2025-01-01T00:10:00", "energy_price": 3.0},
		{"timestamp": "2025-01-01T00:00:00", "energy_price": 1.0},
		{"timestamp": "2025-01-01T00:05:00", "energy_price": 2.0},
	}

	series, err := Normalize(records)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	pts := series[models.QuantityEnergy]
	for i := 1; i < len(pts); i++ {
		if pts[i].Timestamp.Before(pts[i-1].Timestamp) {
			t.Fatalf("points not sorted ascending: %v before %v", pts[i].Timestamp, pts[i-1].Timestamp)
		}
	}
}

func TestNormalizeMissingOptionalQuantities(t *testing.T) {
	records := []models.Record{
		{"timestamp": "2025-01-01T00:00:00", "energy_price": 1.0},
	}

	series, err := Normalize(records)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if len(series[models.QuantityEnergy]) != 1 {
		t.Fatalf("expected energy series, got %+v", series)
	}
	if _, ok := series[models.QuantityHash]; ok {
		t.Errorf("expected hash series to be absent")
	}
}

func TestNormalizeNoTimestampColumn(t *testing.T) {
	records := []models.Record{
		{"price": 1.0},
		{"price": 2.0},
	}

	_, err := Normalize(records)
	if !errors.Is(err, models.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	_, err := Normalize(nil)
	if !errors.Is(err, models.ErrSchema) {
		t.Fatalf("expected ErrSchema for empty input, got %v", err)
	}
}
