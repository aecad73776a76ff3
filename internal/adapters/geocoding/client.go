// Package geocoding is a Google Geocoding API client for reverse lookups.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"eventrsvp/internal/domain"
)

const (
	// DefaultBaseURL is the public Geocoding API endpoint
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 5 * time.Second
	// DefaultRateLimit stays well below the per-second quota of a standard key
	DefaultRateLimit = rate.Limit(10)
)

// LocalityResultTypes restricts reverse lookups to city/region grade answers.
var LocalityResultTypes = []string{"locality", "sublocality", "administrative_area_level_2", "administrative_area_level_1"}

var localityLocationTypes = []string{"ROOFTOP", "GEOMETRIC_CENTER"}

// Client handles communication with the Google Geocoding API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the endpoint, e.g. for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithRateLimit sets a custom rate limit (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a new Geocoding API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.ReverseGeocoder = (*Client)(nil)

// ReverseLocality performs reverse geocoding limited to locality-grade result types.
// OK and ZERO_RESULTS are answers; any other API status is returned as an error.
func (c *Client) ReverseLocality(ctx context.Context, lat, lon float64) (*domain.GeocodeResult, error) {
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}

	params := url.Values{}
	params.Set("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("key", c.apiKey)
	params.Set("result_type", strings.Join(LocalityResultTypes, "|"))
	params.Set("location_type", strings.Join(localityLocationTypes, "|"))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if parsed.Status != StatusOK && parsed.Status != StatusZeroResults {
		return nil, fmt.Errorf("geocoding status %s: %s", parsed.Status, parsed.ErrorMessage)
	}
	return toDomainResult(&parsed), nil
}

func toDomainResult(r *response) *domain.GeocodeResult {
	out := &domain.GeocodeResult{Status: r.Status}
	for _, res := range r.Results {
		place := domain.GeocodePlace{FormattedAddress: res.FormattedAddress}
		for _, ac := range res.AddressComponents {
			place.AddressComponents = append(place.AddressComponents, domain.AddressComponent{
				LongName:  ac.LongName,
				ShortName: ac.ShortName,
				Types:     ac.Types,
			})
		}
		out.Results = append(out.Results, place)
	}
	return out
}
