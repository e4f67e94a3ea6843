// Package nominatim resolves place names for observation coordinates using
// the OpenStreetMap Nominatim reverse geocoding API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tarandus/obsmap/internal/observability"
)

// Nominatim's usage policy requires an identifying User-Agent.
const userAgent = "obsmap/1.0 (observation mapping pipeline)"

// Client implements domain.PlaceResolver against a Nominatim server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a reverse geocoding client. baseURL is the server root,
// without the /reverse path.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// ResolvePlace looks up a human-readable place name for the coordinate.
// An empty name with a nil error means the server knows nothing about the
// location.
func (c *Client) ResolvePlace(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"lat":    {fmt.Sprintf("%.6f", lat)},
		"lon":    {fmt.Sprintf("%.6f", lon)},
		"zoom":   {"12"},
	}
	fullURL := c.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.PlaceLookups.WithLabelValues("error").Inc()
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.PlaceLookups.WithLabelValues("error").Inc()
		return "", fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var nr response
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		c.metrics.PlaceLookups.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode response: %w", err)
	}

	// Nominatim reports "unable to geocode" as an error field, not an HTTP
	// status.
	name := nr.Name
	if name == "" {
		name = nr.DisplayName
	}
	if nr.Error != "" || name == "" {
		c.metrics.PlaceLookups.WithLabelValues("empty").Inc()
		c.logger.Debug("no place found", "lat", lat, "lon", lon)
		return "", nil
	}
	c.metrics.PlaceLookups.WithLabelValues("success").Inc()
	return name, nil
}

// Nominatim API response type.

type response struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}
