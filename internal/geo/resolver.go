package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ms-flights/internal/errs"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Resolver maps city names to IANA timezone ids and coordinates. Lookups may
// be slow; callers must never hold a seat-ledger update open across one.
type Resolver interface {
	ResolveTimezone(ctx context.Context, city string) (string, error)
	Coordinates(ctx context.Context, city string) (Coordinates, error)
}

// Client resolves cities against an external geocoding service over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, HTTP: httpClient}
}

type cityResponse struct {
	City     string  `json:"city"`
	Timezone string  `json:"timezone"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

func (c *Client) lookup(ctx context.Context, city string) (*cityResponse, error) {
	if city == "" {
		return nil, errs.ErrUnresolvableLocation
	}

	endpoint := fmt.Sprintf("%s/api/geo/cities?name=%s", c.BaseURL, url.QueryEscape(city))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geo request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo service error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("city %q: %w", city, errs.ErrUnresolvableLocation)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo service returned status %d", resp.StatusCode)
	}

	var body cityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geo response: %w", err)
	}
	if body.Timezone == "" {
		return nil, fmt.Errorf("city %q: %w", city, errs.ErrUnresolvableLocation)
	}
	return &body, nil
}

func (c *Client) ResolveTimezone(ctx context.Context, city string) (string, error) {
	body, err := c.lookup(ctx, city)
	if err != nil {
		return "", err
	}
	return body.Timezone, nil
}

func (c *Client) Coordinates(ctx context.Context, city string) (Coordinates, error) {
	body, err := c.lookup(ctx, city)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Lat: body.Lat, Lon: body.Lon}, nil
}
