// Package met implements a client for the api.met.no weatherapi products
// used by the service: oceanforecast (waves, currents, water temperature)
// and locationforecast (air weather).
package met

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/patrickmn/go-cache"

	"waves-on-map-backend/config"
)

// StatusError is returned when the API answers with a non-2xx status.
// Requests outside the ocean model area get a 422.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("met api returned %s", e.Status)
}

// Client talks to api.met.no. Responses are cached for the configured TTL,
// as the met.no terms of service require.
type Client struct {
	baseURL   string
	userAgent string
	attempts  uint
	client    *http.Client
	cache     *cache.Cache
	cacheTTL  time.Duration
}

// NewClient creates a met.no API client from the given configuration.
func NewClient(cfg *config.MetConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		attempts:  cfg.RetryAttempts,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:    cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		cacheTTL: cfg.CacheTTL,
	}
}

// OceanForecast fetches the complete ocean forecast for a point at sea.
func (c *Client) OceanForecast(ctx context.Context, lat, lon float64) (*OceanForecast, error) {
	body, err := c.fetch(ctx, "oceanforecast", "complete", lat, lon)
	if err != nil {
		return nil, err
	}
	return parseOceanForecast(body)
}

// LocationForecast fetches the compact weather forecast for a location.
func (c *Client) LocationForecast(ctx context.Context, lat, lon float64) (*LocationForecast, error) {
	body, err := c.fetch(ctx, "locationforecast", "compact", lat, lon)
	if err != nil {
		return nil, err
	}
	return parseLocationForecast(body)
}

// fetch performs the GET with retries and serves repeated requests for the
// same product and coordinates from the in-memory cache.
func (c *Client) fetch(ctx context.Context, product, variant string, lat, lon float64) ([]byte, error) {
	key := fmt.Sprintf("%s/%s/%.4f/%.4f", product, variant, lat, lon)
	if cached, found := c.cache.Get(key); found {
		return cached.([]byte), nil
	}

	url := fmt.Sprintf("%s/weatherapi/%s/2.0/%s?lat=%v&lon=%v", c.baseURL, product, variant, lat, lon)

	body, err := retry.DoWithData(
		func() ([]byte, error) {
			return c.doRequest(ctx, url)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.LastErrorOnly(true),
		retry.Delay(500*time.Millisecond),
		retry.RetryIf(func(err error) bool {
			// 4xx responses will not improve on retry.
			if se, ok := err.(*StatusError); ok {
				return se.Code == http.StatusTooManyRequests || se.Code >= 500
			}
			return true
		}),
	)
	if err != nil {
		log.Printf("met fetch failed product=%s lat=%.5f lon=%.5f: %v", product, lat, lon, err)
		return nil, err
	}

	c.cache.Set(key, body, c.cacheTTL)
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
