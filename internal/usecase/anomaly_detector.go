package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GridCast/internal/domain/models"
	dservice "GridCast/internal/domain/service"
	"GridCast/pkg/cache"
	applogger "GridCast/pkg/logger"
	"GridCast/pkg/util"
)

// AnomalyDetector runs provider-backed anomaly detection over the energy
// series of a request. Provider absence or failure yields an empty report,
// never an error; only an unparseable request surfaces a SchemaError.
type AnomalyDetector struct {
	provider dservice.ForecastProvider // nil when not configured
	cache    cache.Service             // nil when disabled
	log      *applogger.Logger
	ttl      time.Duration
}

func NewAnomalyDetector(provider dservice.ForecastProvider, c cache.Service, log *applogger.Logger) *AnomalyDetector {
	return &AnomalyDetector{
		provider: provider,
		cache:    c,
		log:      log,
		ttl:      time.Minute,
	}
}

// Detect flags anomalous points in the request's energy series.
func (uc *AnomalyDetector) Detect(ctx context.Context, req *models.ForecastRequest) (*models.AnomalyReport, error) {
	series, err := energySeries(req)
	if err != nil {
		return nil, err
	}

	if uc.provider == nil {
		return emptyReport(), nil
	}

	key := uc.cacheKey(series)
	if report := uc.cached(ctx, key); report != nil {
		return report, nil
	}

	flags, err := uc.provider.DetectAnomalies(ctx, series)
	if err != nil {
		if uc.log != nil {
			uc.log.Warn("provider anomaly detection failed", applogger.Error(err))
		}
		return emptyReport(), nil
	}

	report := &models.AnomalyReport{Anomalies: []models.AnomalyPoint{}}
	for i, flagged := range flags {
		if !flagged || i >= len(series) {
			continue
		}
		report.Anomalies = append(report.Anomalies, models.AnomalyPoint{
			Timestamp: series[i].Timestamp,
			Value:     series[i].Value,
			Score:     1.0,
		})
	}
	report.Total = len(report.Anomalies)
	if len(series) > 0 {
		report.Rate = float64(report.Total) / float64(len(series))
	}

	uc.store(ctx, key, report)
	return report, nil
}

// energySeries builds the energy series straight from the request payload.
func energySeries(req *models.ForecastRequest) ([]models.TimePoint, error) {
	if len(req.MarketData) == 0 {
		return nil, fmt.Errorf("%w: no market data in request", models.ErrSchema)
	}
	out := make([]models.TimePoint, 0, len(req.MarketData))
	for _, p := range req.MarketData {
		ts, ok := util.ParseTime(p.Timestamp)
		if !ok {
			return nil, fmt.Errorf("%w: bad timestamp %q", models.ErrSchema, p.Timestamp)
		}
		out = append(out, models.TimePoint{Timestamp: ts, Value: p.EnergyPrice})
	}
	return out, nil
}

func emptyReport() *models.AnomalyReport {
	return &models.AnomalyReport{Anomalies: []models.AnomalyPoint{}, Total: 0, Rate: 0}
}

func (uc *AnomalyDetector) cacheKey(series []models.TimePoint) string {
	if len(series) == 0 {
		return "anomaly:empty"
	}
	first := series[0].Timestamp.Unix()
	last := series[len(series)-1].Timestamp.Unix()
	return fmt.Sprintf("anomaly:%d:%d:%d", first, last, len(series))
}

func (uc *AnomalyDetector) cached(ctx context.Context, key string) *models.AnomalyReport {
	if uc.cache == nil {
		return nil
	}
	b, err := uc.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var report models.AnomalyReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil
	}
	return &report
}

func (uc *AnomalyDetector) store(ctx context.Context, key string, report *models.AnomalyReport) {
	if uc.cache == nil {
		return
	}
	b, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := uc.cache.Set(ctx, key, b, uc.ttl); err != nil && uc.log != nil {
		uc.log.Warn("anomaly cache set failed", applogger.Error(err))
	}
}
