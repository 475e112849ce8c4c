// Package geocode turns a GPS fix into the short address printed on photos.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FallbackAddress is returned whenever the lookup fails.
const FallbackAddress = "Location"

type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) string
}

// Client queries a Nominatim-compatible reverse endpoint. Nominatim's usage
// policy allows one request per second and requires a User-Agent.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

func NewClient(baseURL, userAgent string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:      logger.With(zap.String("component", "geocode")),
	}
}

type reverseResponse struct {
	Address *struct {
		Village string `json:"village"`
		Town    string `json:"town"`
		City    string `json:"city"`
		State   string `json:"state"`
	} `json:"address"`
}

// Reverse returns "locality, state". It never fails; errors are logged and
// FallbackAddress is returned instead.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) string {
	addr, err := c.reverse(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("reverse geocoding failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		return FallbackAddress
	}
	return addr
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if body.Address == nil {
		return FallbackAddress, nil
	}

	a := body.Address
	locality := firstNonEmpty(a.Village, a.Town, a.City)
	if locality != "" && a.State != "" {
		return locality + ", " + a.State, nil
	}
	return locality + a.State, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Disabled is used when lookups are switched off.
type Disabled struct{}

func (Disabled) Reverse(context.Context, float64, float64) string {
	return FallbackAddress
}
