package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"GridCast/internal/domain/models"
)

func anomalyRequest(n int) *models.ForecastRequest {
	req := &models.ForecastRequest{Horizon: 24, IntervalMinutes: 5}
	for i := 0; i < n; i++ {
		req.MarketData = append(req.MarketData, models.MarketDataPoint{
			Timestamp:   fixedNow.Add(time.Duration(i) * 5 * time.Minute).Format(time.RFC3339),
			EnergyPrice: 2.0,
		})
	}
	return req
}

func TestDetectNoProviderEmptyReport(t *testing.T) {
	uc := NewAnomalyDetector(nil, nil, nil)

	report, err := uc.Detect(context.Background(), anomalyRequest(10))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if report.Total != 0 || report.Rate != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if report.Anomalies == nil {
		t.Error("anomalies must serialize as [], not null")
	}
}

func TestDetectProviderFailureEmptyReport(t *testing.T) {
	uc := NewAnomalyDetector(&fakeProvider{name: "timegpt-1", fail: true}, nil, nil)

	report, err := uc.Detect(context.Background(), anomalyRequest(10))
	if err != nil {
		t.Fatalf("expected failure to be absorbed, got %v", err)
	}
	if report.Total != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestDetectFlagsAnomalies(t *testing.T) {
	provider := &flaggingProvider{flagIndex: 3}
	uc := NewAnomalyDetector(provider, nil, nil)

	report, err := uc.Detect(context.Background(), anomalyRequest(10))
	if err != nil {
		t.Fatalf("Detect returned error: %v", err)
	}
	if report.Total != 1 {
		t.Fatalf("expected 1 anomaly, got %d", report.Total)
	}
	if report.Rate != 0.1 {
		t.Errorf("expected rate 0.1, got %v", report.Rate)
	}
	if report.Anomalies[0].Score != 1.0 {
		t.Errorf("expected score 1.0, got %v", report.Anomalies[0].Score)
	}
}

func TestDetectEmptyRequestSchemaError(t *testing.T) {
	uc := NewAnomalyDetector(&fakeProvider{name: "timegpt-1"}, nil, nil)

	_, err := uc.Detect(context.Background(), &models.ForecastRequest{})
	if !errors.Is(err, models.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestDetectBadTimestampSchemaError(t *testing.T) {
	uc := NewAnomalyDetector(&fakeProvider{name: "timegpt-1"}, nil, nil)

	req := &models.ForecastRequest{
		MarketData: []models.MarketDataPoint{{Timestamp: "not-a-time", EnergyPrice: 1.0}},
	}
	_, err := uc.Detect(context.Background(), req)
	if !errors.Is(err, models.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

// flaggingProvider flags exactly one index.
type flaggingProvider struct {
	flagIndex int
}

func (p *flaggingProvider) Name() string { return "timegpt-1" }

func (p *flaggingProvider) Forecast(ctx context.Context, series []models.TimePoint, horizon, intervalMinutes int, levels []int) ([]models.ProviderPoint, error) {
	return nil, models.ErrProvider
}

func (p *flaggingProvider) DetectAnomalies(ctx context.Context, series []models.TimePoint) ([]bool, error) {
	out := make([]bool, len(series))
	if p.flagIndex < len(out) {
		out[p.flagIndex] = true
	}
	return out, nil
}
