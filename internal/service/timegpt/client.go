package timegpt

import (
	"context"
	"fmt"
	"time"

	"GridCast/internal/domain/models"
	dservice "GridCast/internal/domain/service"
	pkghttp "GridCast/pkg/http"
	"GridCast/pkg/util"
)

// Client talks to the external TimeGPT-compatible forecasting API.
type Client struct {
	http    *pkghttp.Client
	apiKey  string
	baseURL string
	model   string
}

// New creates a forecasting provider client. Returns nil when no API key is
// configured so callers can treat the provider as absent.
func New(apiKey, baseURL, model string, timeout time.Duration) dservice.ForecastProvider {
	if apiKey == "" {
		return nil
	}
	return &Client{
		http:    pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
	}
}

// Name identifies the provider model.
func (c *Client) Name() string { return c.model }

type forecastRequest struct {
	Model      string    `json:"model"`
	Freq       string    `json:"freq"`
	Horizon    int       `json:"h"`
	Levels     []int     `json:"level,omitempty"`
	Timestamps []string  `json:"timestamps"`
	Values     []float64 `json:"values"`
}

type forecastResponse struct {
	Timestamps []string             `json:"timestamps"`
	Values     []float64            `json:"values"`
	Bands      map[string][]float64 `json:"bands,omitempty"`
}

// Forecast requests a point forecast with confidence bounds for one series.
func (c *Client) Forecast(ctx context.Context, series []models.TimePoint, horizon, intervalMinutes int, levels []int) ([]models.ProviderPoint, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", models.ErrProvider)
	}

	req := forecastRequest{
		Model:      c.model,
		Freq:       fmt.Sprintf("%dmin", intervalMinutes),
		Horizon:    horizon,
		Levels:     levels,
		Timestamps: make([]string, len(series)),
		Values:     make([]float64, len(series)),
	}
	for i, p := range series {
		req.Timestamps[i] = p.Timestamp.Format(time.RFC3339)
		req.Values[i] = p.Value
	}

	var resp forecastResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodPost,
		URL:     c.baseURL + "/forecast",
		Headers: c.headers(),
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: forecast: %v", models.ErrProvider, err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("%w: empty forecast response", models.ErrProvider)
	}

	out := make([]models.ProviderPoint, len(resp.Values))
	for i := range resp.Values {
		p := models.ProviderPoint{Value: resp.Values[i], Bands: make(map[string]float64)}
		if i < len(resp.Timestamps) {
			if ts, ok := util.ParseTime(resp.Timestamps[i]); ok {
				p.Timestamp = ts
			}
		}
		for name, col := range resp.Bands {
			if i < len(col) {
				p.Bands[name] = col[i]
			}
		}
		out[i] = p
	}
	return out, nil
}

type anomalyRequest struct {
	Model      string    `json:"model"`
	Timestamps []string  `json:"timestamps"`
	Values     []float64 `json:"values"`
}

type anomalyResponse struct {
	Anomaly []int `json:"anomaly"`
}

// DetectAnomalies flags anomalous points in a series, index-aligned with
// the input.
func (c *Client) DetectAnomalies(ctx context.Context, series []models.TimePoint) ([]bool, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", models.ErrProvider)
	}

	req := anomalyRequest{
		Model:      c.model,
		Timestamps: make([]string, len(series)),
		Values:     make([]float64, len(series)),
	}
	for i, p := range series {
		req.Timestamps[i] = p.Timestamp.Format(time.RFC3339)
		req.Values[i] = p.Value
	}

	var resp anomalyResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodPost,
		URL:     c.baseURL + "/anomaly_detection",
		Headers: c.headers(),
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: anomaly detection: %v", models.ErrProvider, err)
	}

	out := make([]bool, len(series))
	for i := range out {
		if i < len(resp.Anomaly) && resp.Anomaly[i] == 1 {
			out[i] = true
		}
	}
	return out, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}
}
