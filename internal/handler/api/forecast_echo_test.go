package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	models "GridCast/internal/domain/models"
	"GridCast/internal/services/synthetic"
	"GridCast/internal/usecase"
	xlogger "GridCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

var handlerNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// stubProvider returns a flat forecast with recognizable band columns.
type stubProvider struct {
	fail bool
}

func (p *stubProvider) Name() string { return "timegpt-1" }

func (p *stubProvider) Forecast(ctx context.Context, series []models.TimePoint, horizon, intervalMinutes int, levels []int) ([]models.ProviderPoint, error) {
	if p.fail {
		return nil, fmt.Errorf("%w: upstream down", models.ErrProvider)
	}
	last := handlerNow
	if len(series) > 0 {
		last = series[len(series)-1].Timestamp
	}
	out := make([]models.ProviderPoint, horizon)
	for i := range out {
		bands := map[string]float64{}
		for _, level := range levels {
			bands[fmt.Sprintf("lo-%d", level)] = 1.8
			bands[fmt.Sprintf("hi-%d", level)] = 2.2
		}
		out[i] = models.ProviderPoint{
			Timestamp: last.Add(time.Duration(i+1) * time.Duration(intervalMinutes) * time.Minute),
			Value:     2.0,
			Bands:     bands,
		}
	}
	return out, nil
}

func (p *stubProvider) DetectAnomalies(ctx context.Context, series []models.TimePoint) ([]bool, error) {
	if p.fail {
		return nil, fmt.Errorf("%w: upstream down", models.ErrProvider)
	}
	out := make([]bool, len(series))
	if len(out) > 0 {
		out[0] = true
	}
	return out, nil
}

func newTestHandler(provider *stubProvider) *ForecastEchoHandler {
	gen := synthetic.New(42)
	clock := func() time.Time { return handlerNow }
	logger, _ := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})

	var orch *usecase.ForecastOrchestrator
	var anom *usecase.AnomalyDetector
	if provider == nil {
		orch = usecase.NewForecastOrchestrator(nil, nil, nil, nil, nil, gen, logger, clock, 7, 3)
		anom = usecase.NewAnomalyDetector(nil, nil, logger)
	} else {
		orch = usecase.NewForecastOrchestrator(provider, nil, nil, nil, nil, gen, logger, clock, 7, 3)
		anom = usecase.NewAnomalyDetector(provider, nil, logger)
	}
	return NewForecastEchoHandler(logger, orch, anom, nil, nil, nil)
}

func doRequest(h *ForecastEchoHandler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRootLiveness(t *testing.T) {
	rec := doRequest(newTestHandler(nil), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["message"] == "" {
		t.Error("expected liveness message")
	}
}

func TestForecastEmptyRequestNoProvider(t *testing.T) {
	rec := doRequest(newTestHandler(nil), http.MethodPost, "/api/timegpt/forecast", `{"market_data":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Forecasts       []map[string]interface{} `json:"forecasts"`
		Model           string                   `json:"model"`
		Statistics      map[string]float64       `json:"statistics"`
		IntervalMinutes int                      `json:"interval_minutes"`
		Analysis        string                   `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if res.Model != "synthetic" {
		t.Errorf("expected model synthetic, got %q", res.Model)
	}
	if res.IntervalMinutes != 5 {
		t.Errorf("expected default interval 5, got %d", res.IntervalMinutes)
	}
	forecastCount := 0
	for _, p := range res.Forecasts {
		if p["is_historical"] == false {
			forecastCount++
		}
	}
	if forecastCount != 288 {
		t.Errorf("expected default horizon 288 forecast points, got %d", forecastCount)
	}
	if res.Analysis == "" {
		t.Error("expected non-empty analysis")
	}
}

func TestForecastFlattenedPointShape(t *testing.T) {
	body := `{"market_data":[],"horizon":4,"confidence_levels":[80]}`
	rec := doRequest(newTestHandler(nil), http.MethodPost, "/api/timegpt/forecast", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res struct {
		Forecasts []map[string]interface{} `json:"forecasts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	var sawHistorical, sawForecast bool
	for _, p := range res.Forecasts {
		for _, key := range []string{"timestamp", "is_historical", "energy_price", "hash_price", "token_price"} {
			if _, ok := p[key]; !ok {
				t.Fatalf("point missing key %q: %v", key, p)
			}
		}
		if p["is_historical"] == true {
			sawHistorical = true
			if v, ok := p["energy_price_lo_80"]; ok && v != nil {
				t.Fatalf("historical point carries non-null bound: %v", v)
			}
		} else {
			sawForecast = true
			if p["energy_price_lo_80"] == nil {
				t.Fatal("forecast point missing energy_price_lo_80")
			}
			if p["token_price_hi_80"] == nil {
				t.Fatal("forecast point missing token_price_hi_80")
			}
		}
	}
	if !sawHistorical || !sawForecast {
		t.Fatalf("expected both historical and forecast points (hist=%v fc=%v)", sawHistorical, sawForecast)
	}
}

func TestForecastProviderSuccess(t *testing.T) {
	body := `{"market_data":[],"horizon":6,"confidence_levels":[80,95]}`
	rec := doRequest(newTestHandler(&stubProvider{}), http.MethodPost, "/api/timegpt/forecast", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res struct {
		Forecasts []map[string]interface{} `json:"forecasts"`
		Model     string                   `json:"model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if res.Model != "timegpt-1" {
		t.Errorf("expected model timegpt-1, got %q", res.Model)
	}
	for _, p := range res.Forecasts {
		if p["is_historical"] == true {
			continue
		}
		for _, key := range []string{"energy_price_lo_80", "energy_price_hi_95", "hash_price_lo_95", "token_price_hi_80"} {
			if p[key] == nil {
				t.Fatalf("forecast point missing bound %q", key)
			}
		}
	}
}

func TestForecastProviderFailureStillSucceeds(t *testing.T) {
	rec := doRequest(newTestHandler(&stubProvider{fail: true}), http.MethodPost, "/api/timegpt/forecast", `{"market_data":[]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite provider failure, got %d", rec.Code)
	}

	var res struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if res.Model != "synthetic" {
		t.Errorf("expected synthetic fallback, got %q", res.Model)
	}
}

func TestForecastInvalidHorizon(t *testing.T) {
	rec := doRequest(newTestHandler(nil), http.MethodPost, "/api/timegpt/forecast", `{"horizon":-5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative horizon, got %d", rec.Code)
	}
}

func TestAnomalyNoProviderEmptyReport(t *testing.T) {
	body := `{"market_data":[{"timestamp":"2025-06-01T10:00:00Z","energy_price":2.5}]}`
	rec := doRequest(newTestHandler(nil), http.MethodPost, "/api/timegpt/anomaly-detection", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var report models.AnomalyReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if report.Total != 0 || report.Rate != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestAnomalyProviderFlags(t *testing.T) {
	body := `{"market_data":[` +
		`{"timestamp":"2025-06-01T10:00:00Z","energy_price":2.5},` +
		`{"timestamp":"2025-06-01T10:05:00Z","energy_price":2.6}]}`
	rec := doRequest(newTestHandler(&stubProvider{}), http.MethodPost, "/api/timegpt/anomaly-detection", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var report models.AnomalyReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if report.Total != 1 {
		t.Errorf("expected 1 anomaly, got %d", report.Total)
	}
	if report.Rate != 0.5 {
		t.Errorf("expected rate 0.5, got %v", report.Rate)
	}
}

func TestAnomalyUnparseableRequest(t *testing.T) {
	body := `{"market_data":[{"timestamp":"not-a-time","energy_price":1.0}]}`
	rec := doRequest(newTestHandler(&stubProvider{}), http.MethodPost, "/api/timegpt/anomaly-detection", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparseable series, got %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(newTestHandler(nil), http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}
