package service

import (
	"context"
	"time"

	"GridCast/internal/domain/models"
)

// ForecastProvider is the external forecasting capability. One call covers a
// single quantity series; calls are not batched across quantities.
type ForecastProvider interface {
	// Name identifies the provider model (e.g. "timegpt-1").
	Name() string

	// Forecast returns horizon point estimates with per-level bounds.
	Forecast(ctx context.Context, series []models.TimePoint, horizon, intervalMinutes int, levels []int) ([]models.ProviderPoint, error)

	// DetectAnomalies flags anomalous points in a series, index-aligned.
	DetectAnomalies(ctx context.Context, series []models.TimePoint) ([]bool, error)
}

// MarketDataSource fetches current prices from the external market-data API.
type MarketDataSource interface {
	FetchPrices(ctx context.Context) ([]models.Record, error)
}

// Clock abstracts "now" so the pipeline is testable with fixed time.
type Clock func() time.Time
