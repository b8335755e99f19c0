package usecase

import (
	"context"
	"fmt"
	"time"

	"GridCast/internal/domain/models"
	drepo "GridCast/internal/domain/repository"
)

// PriceProcessor routes live price ticks to the configured backend.
type PriceProcessor struct {
	pub     drepo.TickPublisher
	store   drepo.PriceStore
	metrics drepo.Metrics
	backend string
}

// NewPriceProcessor creates a new PriceProcessor instance.
func NewPriceProcessor(
	pub drepo.TickPublisher,
	store drepo.PriceStore,
	metrics drepo.Metrics,
	backend string,
) *PriceProcessor {
	return &PriceProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single tick to the configured backend.
func (p *PriceProcessor) Process(ctx context.Context, t *models.PriceTick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	var err error

	switch {
	case p.backend == "kafka" && p.pub != nil:
		err = p.pub.Publish(ctx, t)
	case p.backend == "clickhouse" && p.store != nil:
		err = p.store.StoreTick(ctx, t)
	default:
		err = fmt.Errorf("backend %q not available", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process tick: %w", err)
	}

	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple ticks in a batch.
func (p *PriceProcessor) ProcessBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch {
	case p.backend == "kafka" && p.pub != nil:
		err = p.pub.PublishBatch(ctx, ticks)
	case p.backend == "clickhouse" && p.store != nil:
		err = p.store.StoreTickBatch(ctx, ticks)
	default:
		err = fmt.Errorf("backend %q not available", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *PriceProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
