package models

import "time"

// Quantity identifies one tracked price series.
type Quantity string

const (
	QuantityEnergy Quantity = "energy_price"
	QuantityHash   Quantity = "hash_price"
	QuantityToken  Quantity = "token_price"
)

// Quantities returns all tracked quantities in canonical order.
func Quantities() []Quantity {
	return []Quantity{QuantityEnergy, QuantityHash, QuantityToken}
}

// TimePoint is a single observation in a price series.
type TimePoint struct {
	Timestamp time.Time
	Value     float64
}

// Record is one raw tabular row before normalization. Column names vary by
// source (canonical, legacy camel-case, or generic ds/y).
type Record map[string]interface{}

// MultiSeries maps quantity ids to timestamp-ascending series. Built by the
// normalizer; read-only downstream.
type MultiSeries map[Quantity][]TimePoint

// Len returns the length of the primary (energy) series.
func (m MultiSeries) Len() int {
	return len(m[QuantityEnergy])
}

// LastTimestamp returns the latest timestamp of the primary series.
func (m MultiSeries) LastTimestamp() time.Time {
	s := m[QuantityEnergy]
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Timestamp
}

// FirstTimestamp returns the earliest timestamp of the primary series.
func (m MultiSeries) FirstTimestamp() time.Time {
	s := m[QuantityEnergy]
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Timestamp
}

// LastValues returns the most recent value per quantity. Quantities without
// data are omitted.
func (m MultiSeries) LastValues() map[Quantity]float64 {
	out := make(map[Quantity]float64, len(m))
	for q, s := range m {
		if len(s) > 0 {
			out[q] = s[len(s)-1].Value
		}
	}
	return out
}

// Tail returns the last n points of the primary series index range, applied
// per quantity. Quantities shorter than n keep their full series.
func (m MultiSeries) Tail(n int) MultiSeries {
	out := make(MultiSeries, len(m))
	for q, s := range m {
		if len(s) > n {
			s = s[len(s)-n:]
		}
		out[q] = s
	}
	return out
}

// PriceTick is one live observation from the market stream.
type PriceTick struct {
	Timestamp int64   `json:"t"` // unix seconds
	Energy    float64 `json:"energy_price"`
	Hash      float64 `json:"hash_price"`
	Token     float64 `json:"token_price"`
}
