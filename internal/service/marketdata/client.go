package marketdata

import (
	"context"
	"fmt"
	"time"

	"GridCast/internal/domain/models"
	dservice "GridCast/internal/domain/service"
	pkghttp "GridCast/pkg/http"
)

// Client fetches replacement historical prices from the external
// market-data API when the primary store and request payload both fail.
type Client struct {
	http *pkghttp.Client
	url  string
}

// New creates a market-data client. Returns nil when no URL is configured.
func New(url string, timeout time.Duration) dservice.MarketDataSource {
	if url == "" {
		return nil
	}
	return &Client{
		http: pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		url:  url,
	}
}

// FetchPrices fetches the current price table as raw records.
func (c *Client) FetchPrices(ctx context.Context) ([]models.Record, error) {
	var records []models.Record
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.url,
	}, &records)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch prices: %v", models.ErrDataSource, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty price table", models.ErrDataSource)
	}
	return records, nil
}
