package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"GridCast/internal/domain/models"
	"GridCast/pkg/util"
)

// schema describes one recognized column-naming convention. Schemas are
// tried in priority order against the input records; the first one whose
// columns are present wins and is applied to the whole batch.
type schema struct {
	name     string
	timeKeys []string
	// quantity columns; empty when generic is set
	fields map[models.Quantity][]string
	// generic schemas carry a single value column replicated to all quantities
	generic   bool
	valueKeys []string
}

var schemas = []schema{
	{
		name:     "canonical",
		timeKeys: []string{"timestamp"},
		fields: map[models.Quantity][]string{
			models.QuantityEnergy: {"energy_price"},
			models.QuantityHash:   {"hash_price"},
			models.QuantityToken:  {"token_price"},
		},
	},
	{
		name:     "legacy",
		timeKeys: []string{"timestamp", "time"},
		fields: map[models.Quantity][]string{
			models.QuantityEnergy: {"energyPrice"},
			models.QuantityHash:   {"hashPrice"},
			models.QuantityToken:  {"tokenPrice"},
		},
	},
	{
		name:      "generic",
		timeKeys:  []string{"ds", "timestamp"},
		generic:   true,
		valueKeys: []string{"y", "value"},
	},
}

// Normalize maps raw tabular records into a canonical MultiSeries: one
// sorted, deduplicated series per recognized quantity. Duplicate timestamps
// keep the later occurrence. It fails with ErrSchema only when no timestamp
// column can be identified in any record.
func Normalize(records []models.Record) (models.MultiSeries, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty input", models.ErrSchema)
	}

	sch, ok := detect(records)
	if !ok {
		return nil, fmt.Errorf("%w: no timestamp column found", models.ErrSchema)
	}

	// dedup by unix timestamp, later record wins
	byTime := make(map[models.Quantity]map[int64]models.TimePoint)
	for _, q := range models.Quantities() {
		byTime[q] = make(map[int64]models.TimePoint)
	}

	parsed := 0
	for _, rec := range records {
		ts, ok := recordTime(rec, sch.timeKeys)
		if !ok {
			continue
		}
		parsed++

		if sch.generic {
			if v, ok := recordFloat(rec, sch.valueKeys); ok {
				for _, q := range models.Quantities() {
					byTime[q][ts.Unix()] = models.TimePoint{Timestamp: ts, Value: v}
				}
			}
			continue
		}

		for q, keys := range sch.fields {
			if v, ok := recordFloat(rec, keys); ok {
				byTime[q][ts.Unix()] = models.TimePoint{Timestamp: ts, Value: v}
			}
		}
	}

	if parsed == 0 {
		return nil, fmt.Errorf("%w: no parseable timestamps", models.ErrSchema)
	}

	series := make(models.MultiSeries)
	for q, pts := range byTime {
		if len(pts) == 0 {
			continue
		}
		out := make([]models.TimePoint, 0, len(pts))
		for _, p := range pts {
			out = append(out, p)
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
		series[q] = out
	}
	return series, nil
}

// detect picks the first schema whose columns appear in any record.
func detect(records []models.Record) (schema, bool) {
	for _, sch := range schemas {
		for _, rec := range records {
			if _, ok := recordTime(rec, sch.timeKeys); !ok {
				continue
			}
			if sch.generic {
				if _, ok := recordFloat(rec, sch.valueKeys); ok {
					return sch, true
				}
				continue
			}
			for _, keys := range sch.fields {
				if _, ok := recordFloat(rec, keys); ok {
					return sch, true
				}
			}
		}
	}
	// timestamp-only records still match the last schema with a timestamp key
	for _, sch := range schemas {
		for _, rec := range records {
			if _, ok := recordTime(rec, sch.timeKeys); ok {
				return sch, true
			}
		}
	}
	return schema{}, false
}

func recordTime(rec models.Record, keys []string) (time.Time, bool) {
	for _, k := range keys {
		raw, ok := rec[k]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if ts, ok := util.ParseTime(v); ok {
				return ts, true
			}
		case time.Time:
			return v, true
		case float64:
			return time.Unix(int64(v), 0).UTC(), true
		case int64:
			return time.Unix(v, 0).UTC(), true
		}
	}
	return time.Time{}, false
}

func recordFloat(rec models.Record, keys []string) (float64, bool) {
	for _, k := range keys {
		raw, ok := rec[k]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
