package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Band is a confidence interval around a point estimate.
type Band struct {
	Lo float64
	Hi float64
}

// ForecastPoint is one step of the unified timeline: either a historical
// observation (no bounds) or a forecast step with per-level bounds.
// It serializes flattened, the way the dashboard consumes it:
// timestamp, is_historical, <quantity>, <quantity>_lo_<level>, <quantity>_hi_<level>.
type ForecastPoint struct {
	Timestamp    time.Time
	IsHistorical bool
	Values       map[Quantity]float64
	Bounds       map[Quantity]map[int]Band // nil for historical points
	Levels       []int                     // requested levels, drives serialization
}

func (p ForecastPoint) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, 2+len(p.Values)+6*len(p.Levels))
	m["timestamp"] = p.Timestamp.Format(time.RFC3339)
	m["is_historical"] = p.IsHistorical
	for q, v := range p.Values {
		m[string(q)] = v
	}
	for _, q := range Quantities() {
		if _, ok := p.Values[q]; !ok {
			continue
		}
		for _, lvl := range p.Levels {
			loKey := fmt.Sprintf("%s_lo_%d", q, lvl)
			hiKey := fmt.Sprintf("%s_hi_%d", q, lvl)
			if b, ok := p.Bounds[q][lvl]; ok {
				m[loKey] = b.Lo
				m[hiKey] = b.Hi
			} else {
				m[loKey] = nil
				m[hiKey] = nil
			}
		}
	}
	return json.Marshal(m)
}

// ForecastResult is the externally visible forecast payload: historical tail
// followed by the forecast horizon, plus aggregate statistics.
type ForecastResult struct {
	Forecasts       []ForecastPoint    `json:"forecasts"`
	Analysis        string             `json:"analysis"`
	Arbitrage       int                `json:"arbitrage_opportunities"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Model           string             `json:"model"`
	Statistics      map[string]float64 `json:"statistics"`
	IntervalMinutes int                `json:"interval_minutes"`
}

// ForecastCount returns the number of non-historical points.
func (r *ForecastResult) ForecastCount() int {
	n := 0
	for _, p := range r.Forecasts {
		if !p.IsHistorical {
			n++
		}
	}
	return n
}

// ProviderPoint is one forecast step as returned by the external provider.
// Bands carry the provider's raw bound naming (e.g. "lo-80", "hi-95.0");
// interpretation happens at assembly time.
type ProviderPoint struct {
	Timestamp time.Time
	Value     float64
	Bands     map[string]float64
}

// AnomalyPoint is one flagged observation.
type AnomalyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Score     float64   `json:"anomaly_score"`
}

// AnomalyReport is the anomaly-detection payload. An empty report (never an
// error) is returned when the provider capability is unavailable or fails.
type AnomalyReport struct {
	Anomalies []AnomalyPoint `json:"anomalies"`
	Total     int            `json:"total_anomalies"`
	Rate      float64        `json:"anomaly_rate"`
}

// ArbitrageAlert is published to Kafka when a forecast flags opportunities.
type ArbitrageAlert struct {
	GeneratedAt time.Time `json:"generated_at"`
	Model       string    `json:"model"`
	Count       int       `json:"count"`
	Mean        float64   `json:"mean"`
	Std         float64   `json:"std"`
}
