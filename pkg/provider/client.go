package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/medgrid/bedfinder-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	apiKeyHeader              = "X-Api-Key"
	responseBodyReadLimit int64 = 1024
)

// Client talks to the external hospital-data feed. Base URL and API key
// are runtime-mutable through the admin settings endpoint; an empty key
// marks the feed unavailable without treating that as an error.
type Client struct {
	httpClient *http.Client

	mu      sync.RWMutex
	baseURL string
	apiKey  string
}

// Settings is the runtime-visible provider configuration.
type Settings struct {
	BaseURL   string
	APIKeySet bool
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the feed client. Both arguments may be empty; the
// client then reports itself unavailable until configured.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimSpace(baseURL),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return client
}

// Configure swaps the feed target at runtime.
func (c *Client) Configure(baseURL, apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimSpace(baseURL)
	c.apiKey = strings.TrimSpace(apiKey)
}

// Settings returns the current target without exposing the key itself.
func (c *Client) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Settings{BaseURL: c.baseURL, APIKeySet: c.apiKey != ""}
}

func (c *Client) target() (string, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL, c.apiKey
}

// RemoteBedCount is one bed-type row reported by the feed for a hospital.
type RemoteBedCount struct {
	BedType       string          `json:"bed_type"`
	Total         int             `json:"total"`
	Available     int             `json:"available"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

// RemoteHospital is a hospital record as reported by the feed.
type RemoteHospital struct {
	ExternalRef string           `json:"external_ref"`
	Name        string           `json:"name"`
	City        string           `json:"city"`
	State       string           `json:"state"`
	AddressLine string           `json:"address_line"`
	PostalCode  string           `json:"postal_code"`
	Country     string           `json:"country"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Beds        []RemoteBedCount `json:"beds"`
}

// Available reports whether the feed can be used right now: a key must
// be configured and the health probe must answer.
func (c *Client) Available(ctx context.Context) bool {
	baseURL, apiKey := c.target()
	if baseURL == "" || apiKey == "" {
		return false
	}
	return c.Health(ctx) == nil
}

// Health probes the feed's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	baseURL, apiKey := c.target()
	if baseURL == "" {
		return pkgerrors.New(pkgerrors.CodeDependency, "hospital feed not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(baseURL, "health"), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build health request")
	}
	httpReq.Header.Set(apiKeyHeader, apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute health request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d", resp.StatusCode), "health probe failed")
	}
	return nil
}

// SearchHospitals lists the feed's hospitals for a city/state pair.
func (c *Client) SearchHospitals(ctx context.Context, city, state string) ([]RemoteHospital, error) {
	baseURL, apiKey := c.target()
	if baseURL == "" || apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "hospital feed not configured")
	}
	if strings.TrimSpace(city) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}

	query := url.Values{}
	query.Set("city", strings.TrimSpace(city))
	if trimmed := strings.TrimSpace(state); trimmed != "" {
		query.Set("state", trimmed)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(baseURL, "hospitals")+"?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build hospital search request")
	}
	httpReq.Header.Set(apiKeyHeader, apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute hospital search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "hospital search failed")
	}

	var apiResp struct {
		Hospitals []RemoteHospital `json:"hospitals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode hospital search response")
	}

	return apiResp.Hospitals, nil
}

// FetchHospital retrieves the full record, bed counts included, for one
// externally referenced hospital.
func (c *Client) FetchHospital(ctx context.Context, externalRef string) (*RemoteHospital, error) {
	baseURL, apiKey := c.target()
	if baseURL == "" || apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "hospital feed not configured")
	}
	trimmed := strings.TrimSpace(externalRef)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external ref is required")
	}

	target := fmt.Sprintf("%s/%s", joinURL(baseURL, "hospitals"), url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build hospital fetch request")
	}
	httpReq.Header.Set(apiKeyHeader, apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute hospital fetch request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hospital not found in feed")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "hospital fetch failed")
	}

	var hospital RemoteHospital
	if err := json.NewDecoder(resp.Body).Decode(&hospital); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode hospital fetch response")
	}

	return &hospital, nil
}

func joinURL(base, path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(path, "/"))
}
