package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

type MarketDataPoint struct {
	Timestamp   string   `json:"timestamp" validate:"required"`
	EnergyPrice float64  `json:"energy_price"`
	HashPrice   *float64 `json:"hash_price,omitempty"`
	TokenPrice  *float64 `json:"token_price,omitempty"`
}

type ForecastRequest struct {
	MarketData       []MarketDataPoint `json:"market_data"`
	Horizon          int               `json:"horizon" default:"288" validate:"gte=1,lte=4032"`
	IntervalMinutes  int               `json:"interval_minutes" default:"5" validate:"gte=1,lte=1440"`
	ConfidenceLevels []int             `json:"confidence_levels" default:"[80,95]" validate:"dive,gt=0,lt=100"`
}

// Records converts the request payload into raw rows for the normalizer.
func (r *ForecastRequest) Records() []Record {
	out := make([]Record, 0, len(r.MarketData))
	for _, p := range r.MarketData {
		rec := Record{
			"timestamp":    p.Timestamp,
			"energy_price": p.EnergyPrice,
		}
		if p.HashPrice != nil {
			rec["hash_price"] = *p.HashPrice
		}
		if p.TokenPrice != nil {
			rec["token_price"] = *p.TokenPrice
		}
		out = append(out, rec)
	}
	return out
}
