package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GridCast/internal/domain/models"
	domrepo "GridCast/internal/domain/repository"
	dservice "GridCast/internal/domain/service"
	"GridCast/internal/services/normalize"
	"GridCast/internal/services/stats"
	"GridCast/internal/services/synthetic"
	applogger "GridCast/pkg/logger"
)

const (
	minHistoryPoints = 100
	historicalTail   = 50

	tierProvider   = "provider"
	tierSynthetic  = "synthetic"
	tierStore      = "store"
	tierMarketData = "market_data"
	tierRequest    = "request"
)

// ForecastOrchestrator runs the cascading forecast pipeline: acquire history,
// try the external provider, fall back to the synthetic model, and always
// return a schema-complete result when any data is present.
type ForecastOrchestrator struct {
	provider dservice.ForecastProvider // nil when not configured
	source   dservice.MarketDataSource // nil when not configured
	store    domrepo.PriceStore        // nil when not configured
	alerts   domrepo.AlertPublisher    // nil when not configured
	metrics  domrepo.Metrics           // nil when not configured
	gen      *synthetic.Generator
	log      *applogger.Logger
	clock    dservice.Clock

	historyDays   int
	maxConcurrent int
	timeout       time.Duration
}

func NewForecastOrchestrator(
	provider dservice.ForecastProvider,
	source dservice.MarketDataSource,
	store domrepo.PriceStore,
	alerts domrepo.AlertPublisher,
	metrics domrepo.Metrics,
	gen *synthetic.Generator,
	log *applogger.Logger,
	clock dservice.Clock,
	historyDays, maxConcurrent int,
) *ForecastOrchestrator {
	if clock == nil {
		clock = time.Now
	}
	if historyDays <= 0 {
		historyDays = 7
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &ForecastOrchestrator{
		provider:      provider,
		source:        source,
		store:         store,
		alerts:        alerts,
		metrics:       metrics,
		gen:           gen,
		log:           log,
		clock:         clock,
		historyDays:   historyDays,
		maxConcurrent: maxConcurrent,
		timeout:       60 * time.Second,
	}
}

// Generate produces the forecast payload for a request. All data-acquisition
// and provider failures are absorbed by falling through the tier cascade;
// the synthetic path guarantees a valid result.
func (uc *ForecastOrchestrator) Generate(ctx context.Context, req *models.ForecastRequest) (*models.ForecastResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	start := time.Now()

	series, tier := uc.acquireHistory(ctx, req)
	series = uc.backfill(series, req.IntervalMinutes)

	result := uc.tryProvider(ctx, series, req)
	if result == nil {
		result = uc.syntheticForecast(series, req)
		uc.recordTier(tierSynthetic, result.Model)
	} else {
		uc.recordTier(tierProvider, result.Model)
	}

	if uc.log != nil {
		uc.log.Info("forecast generated",
			applogger.String("model", result.Model),
			applogger.String("history_tier", tier),
			applogger.Int("points", len(result.Forecasts)),
			applogger.Int("arbitrage", result.Arbitrage),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	if uc.metrics != nil {
		uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())
		uc.metrics.RecordArbitrage(result.Arbitrage)
	}
	uc.publishAlert(ctx, result)
	return result, nil
}

// acquireHistory walks the data tiers: request payload, historical store,
// market-data API, synthetic generation. The returned tier names the source
// that produced the series.
func (uc *ForecastOrchestrator) acquireHistory(ctx context.Context, req *models.ForecastRequest) (models.MultiSeries, string) {
	if len(req.MarketData) > 0 {
		if series, err := normalize.Normalize(req.Records()); err == nil && series.Len() > 0 {
			return series, tierRequest
		} else if uc.log != nil {
			uc.log.Warn("request payload unusable", applogger.Error(err))
		}
	}

	if uc.store != nil {
		records, err := uc.store.TrailingWindow(ctx, uc.historyDays)
		if err == nil && len(records) > 0 {
			if series, nerr := normalize.Normalize(records); nerr == nil && series.Len() > 0 {
				return series, tierStore
			}
		} else if err != nil {
			uc.recordError("store")
			if uc.log != nil {
				uc.log.Warn("price store unavailable", applogger.Error(err))
			}
		}
	}

	if uc.source != nil {
		records, err := uc.source.FetchPrices(ctx)
		if err == nil {
			if series, nerr := normalize.Normalize(records); nerr == nil && series.Len() > 0 {
				return series, tierMarketData
			}
		} else {
			uc.recordError("market_data")
			if uc.log != nil {
				uc.log.Warn("market-data api unavailable", applogger.Error(err))
			}
		}
	}

	return uc.gen.Historical(uc.historyDays, req.IntervalMinutes, uc.clock()), tierSynthetic
}

// backfill prepends synthetic history until the series reaches the minimum
// point count the provider path requires.
func (uc *ForecastOrchestrator) backfill(series models.MultiSeries, intervalMinutes int) models.MultiSeries {
	n := series.Len()
	if n >= minHistoryPoints {
		return series
	}

	intervalsPerDay := (24 * 60) / intervalMinutes
	days := 1
	if intervalsPerDay > 0 {
		days = (minHistoryPoints - n + intervalsPerDay - 1) / intervalsPerDay
		if days < 1 {
			days = 1
		}
	}

	// Historical stops one step short of end, so passing the first real
	// timestamp keeps the seam exactly one interval wide.
	end := uc.clock()
	if first := series.FirstTimestamp(); !first.IsZero() {
		end = first
	}
	extra := uc.gen.Historical(days, intervalMinutes, end)

	merged := make(models.MultiSeries, len(extra))
	for _, q := range models.Quantities() {
		pts := extra[q]
		if cur, ok := series[q]; ok {
			pts = append(pts, cur...)
		}
		merged[q] = pts
	}
	return merged
}

// tryProvider requests one forecast per quantity, bounded by maxConcurrent.
// All three calls must succeed; any failure falls back to the synthetic path.
func (uc *ForecastOrchestrator) tryProvider(ctx context.Context, series models.MultiSeries, req *models.ForecastRequest) *models.ForecastResult {
	if uc.provider == nil || series.Len() == 0 {
		return nil
	}

	type item struct {
		quantity models.Quantity
		points   []models.ProviderPoint
		err      error
	}
	quantities := models.Quantities()
	ch := make(chan item, len(quantities))
	sem := make(chan struct{}, uc.maxConcurrent)
	var wg sync.WaitGroup

	for _, q := range quantities {
		wg.Add(1)
		go func(q models.Quantity) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			points, err := uc.provider.Forecast(ctx, series[q], req.Horizon, req.IntervalMinutes, req.ConfidenceLevels)
			ch <- item{quantity: q, points: points, err: err}
		}(q)
	}
	go func() { wg.Wait(); close(ch) }()

	byQuantity := make(map[models.Quantity][]models.ProviderPoint, len(quantities))
	for it := range ch {
		if it.err != nil {
			uc.recordError("provider")
			if uc.log != nil {
				uc.log.Warn("provider forecast failed",
					applogger.String("quantity", string(it.quantity)),
					applogger.Error(it.err),
				)
			}
			return nil
		}
		byQuantity[it.quantity] = it.points
	}
	for _, q := range quantities {
		if len(byQuantity[q]) == 0 {
			return nil
		}
	}

	return uc.assembleProviderResult(series, byQuantity, req)
}

func (uc *ForecastOrchestrator) assembleProviderResult(
	series models.MultiSeries,
	byQuantity map[models.Quantity][]models.ProviderPoint,
	req *models.ForecastRequest,
) *models.ForecastResult {
	points := historyPoints(series, req.ConfidenceLevels)

	horizon := len(byQuantity[models.QuantityEnergy])
	for i := 0; i < horizon; i++ {
		p := models.ForecastPoint{
			Timestamp:    byQuantity[models.QuantityEnergy][i].Timestamp,
			IsHistorical: false,
			Values:       make(map[models.Quantity]float64, len(byQuantity)),
			Bounds:       make(map[models.Quantity]map[int]models.Band, len(byQuantity)),
			Levels:       req.ConfidenceLevels,
		}
		for q, pts := range byQuantity {
			if i >= len(pts) {
				continue
			}
			p.Values[q] = pts[i].Value
			p.Bounds[q] = make(map[int]models.Band, len(req.ConfidenceLevels))
			for _, level := range req.ConfidenceLevels {
				p.Bounds[q][level] = uc.extractBand(pts[i], level)
			}
		}
		points = append(points, p)
	}

	energy := stats.ForecastValues(points, models.QuantityEnergy)
	mean := stats.Mean(energy)
	std := stats.PopulationStd(energy)
	min := stats.Min(energy)
	max := stats.Max(energy)
	opportunities := stats.ArbitrageCount(energy, stats.DefaultSigmas)

	hoursAhead := float64(req.Horizon*req.IntervalMinutes) / 60
	return &models.ForecastResult{
		Forecasts: points,
		Analysis: fmt.Sprintf(
			"Energy prices expected to range from $%.4f to $%.4f over the next %.1f hours. Mean: $%.4f, Volatility: %.4f",
			min, max, hoursAhead, mean, std,
		),
		Arbitrage:   opportunities,
		GeneratedAt: uc.clock(),
		Model:       uc.provider.Name(),
		Statistics: map[string]float64{
			"mean": mean,
			"std":  std,
			"min":  min,
			"max":  max,
		},
		IntervalMinutes: req.IntervalMinutes,
	}
}

// extractBand resolves a confidence band from the provider's raw bound
// columns, trying the known naming variants. An unrecognized scheme gets the
// fixed 0.9x/1.1x proxy around the point estimate.
func (uc *ForecastOrchestrator) extractBand(p models.ProviderPoint, level int) models.Band {
	model := uc.provider.Name()
	loKeys := []string{
		fmt.Sprintf("%s-lo-%d", model, level),
		fmt.Sprintf("%s-lo-%.1f", model, float64(level)),
		fmt.Sprintf("lo-%d", level),
	}
	hiKeys := []string{
		fmt.Sprintf("%s-hi-%d", model, level),
		fmt.Sprintf("%s-hi-%.1f", model, float64(level)),
		fmt.Sprintf("hi-%d", level),
	}

	band := models.Band{Lo: p.Value * 0.9, Hi: p.Value * 1.1}
	for _, k := range loKeys {
		if v, ok := p.Bands[k]; ok {
			band.Lo = v
			break
		}
	}
	for _, k := range hiKeys {
		if v, ok := p.Bands[k]; ok {
			band.Hi = v
			break
		}
	}
	return band
}

// syntheticForecast continues the series with the internal model. It cannot
// fail; empty series fall back to per-quantity default last values.
func (uc *ForecastOrchestrator) syntheticForecast(series models.MultiSeries, req *models.ForecastRequest) *models.ForecastResult {
	last := series.LastValues()
	trend := make(map[models.Quantity]float64, len(series))
	for _, q := range models.Quantities() {
		trend[q] = synthetic.EstimateTrend(series[q])
	}

	lastDate := uc.clock()
	if ts := series.LastTimestamp(); !ts.IsZero() {
		lastDate = ts
	}

	points := historyPoints(series, req.ConfidenceLevels)
	points = append(points, uc.gen.Continue(last, trend, lastDate, req.Horizon, req.IntervalMinutes, req.ConfidenceLevels)...)

	energy := stats.ForecastValues(points, models.QuantityEnergy)
	opportunities := stats.ArbitrageCount(energy, stats.DefaultSigmas)
	forecastCount := len(energy)

	return &models.ForecastResult{
		Forecasts: points,
		Analysis: fmt.Sprintf(
			"Synthetic forecast with %d future points for all price types. Detected %d arbitrage opportunities.",
			forecastCount, opportunities,
		),
		Arbitrage:       opportunities,
		GeneratedAt:     uc.clock(),
		Model:           "synthetic",
		Statistics:      stats.Describe(points, trend[models.QuantityEnergy]),
		IntervalMinutes: req.IntervalMinutes,
	}
}

// historyPoints converts the tail of a series into historical ForecastPoints
// with null bounds. Only points present for every quantity are included.
func historyPoints(series models.MultiSeries, levels []int) []models.ForecastPoint {
	energy := series[models.QuantityEnergy]
	n := len(energy)
	if n == 0 {
		return nil
	}
	tail := historicalTail
	if n < tail {
		tail = n
	}
	// the tail aligns by index only when every quantity covers the grid
	for _, q := range models.Quantities() {
		if len(series[q]) != n {
			return nil
		}
	}

	out := make([]models.ForecastPoint, 0, tail)
	for i := n - tail; i < n; i++ {
		p := models.ForecastPoint{
			Timestamp:    energy[i].Timestamp,
			IsHistorical: true,
			Values:       make(map[models.Quantity]float64, 3),
			Levels:       levels,
		}
		for _, q := range models.Quantities() {
			p.Values[q] = series[q][i].Value
		}
		out = append(out, p)
	}
	return out
}

func (uc *ForecastOrchestrator) publishAlert(ctx context.Context, result *models.ForecastResult) {
	if uc.alerts == nil || result.Arbitrage == 0 {
		return
	}
	alert := &models.ArbitrageAlert{
		GeneratedAt: result.GeneratedAt,
		Model:       result.Model,
		Count:       result.Arbitrage,
		Mean:        result.Statistics["mean"],
		Std:         result.Statistics["std"],
	}
	if err := uc.alerts.PublishAlert(ctx, alert); err != nil {
		uc.recordError("alert_publish")
		if uc.log != nil {
			uc.log.Warn("arbitrage alert publish failed", applogger.Error(err))
		}
	}
}

func (uc *ForecastOrchestrator) recordTier(tier, model string) {
	if uc.metrics != nil {
		uc.metrics.RecordTierUsed(tier, model)
	}
}

func (uc *ForecastOrchestrator) recordError(kind string) {
	if uc.metrics != nil {
		uc.metrics.RecordError(kind)
	}
}
