package repository

import (
	"context"

	"GridCast/internal/domain/models"
)

// PriceStore is the row-oriented historical price store
// (timestamp, energy_price, hash_price, token_price).
type PriceStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	TrailingWindow(ctx context.Context, days int) ([]models.Record, error)
	StoreTick(ctx context.Context, t *models.PriceTick) error
	StoreTickBatch(ctx context.Context, ticks []*models.PriceTick) error
	Health(ctx context.Context) error
	Close() error
}

// MarketStream is a live feed of multi-quantity price ticks.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TickPublisher publishes price ticks to the message bus.
type TickPublisher interface {
	Publish(ctx context.Context, t *models.PriceTick) error
	PublishBatch(ctx context.Context, ticks []*models.PriceTick) error
	Close() error
}

// AlertPublisher publishes arbitrage alerts for downstream consumers.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, a *models.ArbitrageAlert) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordTierUsed(tier, model string)
	RecordError(kind string)
	RecordLastPrice(quantity string, price float64)
	RecordLatency(op string, seconds float64)
	RecordArbitrage(count int)
}
