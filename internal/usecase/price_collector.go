package usecase

import (
	"context"

	"GridCast/internal/domain/models"
	drepo "GridCast/internal/domain/repository"
)

// PriceCollector consumes the live market stream and feeds the processor.
type PriceCollector struct {
	stream  drepo.MarketStream
	proc    *PriceProcessor
	metrics drepo.Metrics
}

// NewPriceCollector creates a new PriceCollector instance.
func NewPriceCollector(stream drepo.MarketStream, proc *PriceProcessor, metrics drepo.Metrics) *PriceCollector {
	return &PriceCollector{stream: stream, proc: proc, metrics: metrics}
}

// IsConnected returns true if the market stream is connected.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *PriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *PriceCollector) consume(ctx context.Context, tickCh <-chan *models.PriceTick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			// the read loop closes both channels on failure; either the
			// reported error or the close means the stream is gone
			if ok && err == nil {
				continue
			}
			c.metrics.RecordError("stream")
			if tickCh, errCh, ok = c.reopen(ctx); !ok {
				return
			}
		case t, ok := <-tickCh:
			if !ok {
				if tickCh, errCh, ok = c.reopen(ctx); !ok {
					return
				}
				continue
			}
			if t == nil {
				continue
			}
			_ = c.proc.Process(ctx, t)
			c.metrics.RecordLastPrice(string(models.QuantityEnergy), t.Energy)
			c.metrics.RecordLastPrice(string(models.QuantityHash), t.Hash)
			c.metrics.RecordLastPrice(string(models.QuantityToken), t.Token)
		}
	}
}

// reopen reconnects the stream and restarts its read loop until it succeeds
// or the context ends.
func (c *PriceCollector) reopen(ctx context.Context) (<-chan *models.PriceTick, <-chan error, bool) {
	for ctx.Err() == nil {
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream")
			continue
		}
		tickCh, errCh := c.stream.Read(ctx)
		return tickCh, errCh, true
	}
	return nil, nil, false
}

// Processor returns the underlying PriceProcessor for lifecycle management.
func (c *PriceCollector) Processor() *PriceProcessor { return c.proc }

func (c *PriceCollector) Stop() error { return c.stream.Close() }
