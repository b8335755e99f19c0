package models

import "errors"

// Error taxonomy for the forecast pipeline. Every tier failure wraps one of
// these so the orchestrator can decide what falls through and what surfaces.
var (
	// ErrSchema: input shape not recognizable as a time series. Surfaced to
	// the caller only on the anomaly path.
	ErrSchema = errors.New("series schema not recognized")

	// ErrProvider: external forecasting capability failed. Always recovered
	// locally via the synthetic fallback.
	ErrProvider = errors.New("forecast provider failure")

	// ErrDataSource: historical store or market-data API unavailable. Always
	// recovered via synthetic generation.
	ErrDataSource = errors.New("historical data source unavailable")
)
