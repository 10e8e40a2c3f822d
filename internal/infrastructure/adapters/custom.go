package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// Errors for custom endpoint configuration
var (
	ErrCustomConfigMissingURL = errors.New("custom: endpoint URL is required")
	ErrCustomConfigInvalidURL = errors.New("custom: endpoint URL must be absolute http(s)")
)

// CustomConfig holds the configuration for a brand-supplied stock endpoint.
// The endpoint must return the canonical JSON shape; this is the escape
// hatch for systems no packaged adapter covers.
type CustomConfig struct {
	// EndpointURL is the brand's stock endpoint
	EndpointURL string `json:"endpoint_url"`
	// BearerToken optionally authenticates the request
	BearerToken string `json:"bearer_token,omitempty"`
	// Headers are extra headers sent verbatim
	Headers map[string]string `json:"headers,omitempty"`
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Validate validates the custom endpoint configuration
func (c *CustomConfig) Validate() error {
	if c.EndpointURL == "" {
		return ErrCustomConfigMissingURL
	}
	u, err := url.Parse(c.EndpointURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrCustomConfigInvalidURL
	}
	return nil
}

// customStockItem is the canonical JSON shape brand endpoints must return
type customStockItem struct {
	Key      string `json:"key"`
	Quantity int64  `json:"quantity"`
}

// CustomAdapter pulls stock from a brand-supplied endpoint that speaks the
// canonical JSON shape
type CustomAdapter struct{}

// NewCustomAdapter creates a new CustomAdapter
func NewCustomAdapter() *CustomAdapter {
	return &CustomAdapter{}
}

// Type returns the adapter type this connector handles
func (a *CustomAdapter) Type() syncdomain.AdapterType {
	return syncdomain.AdapterTypeCustom
}

// ValidateConfig checks a raw configuration against the custom schema
func (a *CustomAdapter) ValidateConfig(raw []byte) error {
	config, err := a.parseConfig(raw)
	if err != nil {
		return err
	}
	return config.Validate()
}

// Fetch pulls the stock snapshot from the brand's endpoint
func (a *CustomAdapter) Fetch(ctx context.Context, raw []byte) ([]syncdomain.CanonicalStockItem, error) {
	config, err := a.parseConfig(raw)
	if err != nil {
		return nil, syncdomain.NewConfigError(err)
	}
	if err := config.Validate(); err != nil {
		return nil, syncdomain.NewConfigError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.EndpointURL, nil)
	if err != nil {
		return nil, syncdomain.NewConfigError(err)
	}
	req.Header.Set("Accept", "application/json")
	if config.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+config.BearerToken)
	}
	for k, v := range config.Headers {
		req.Header.Set(k, v)
	}

	body, err := fetchBody(newHTTPClient(config.TimeoutSeconds), req)
	if err != nil {
		return nil, err
	}

	var rows []customStockItem
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, syncdomain.NewConnectivityError(fmt.Errorf("malformed stock payload: %w", err))
	}

	items := make([]syncdomain.CanonicalStockItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, syncdomain.CanonicalStockItem{
			ExternalKey: row.Key,
			Quantity:    row.Quantity,
		})
	}
	return items, nil
}

func (a *CustomAdapter) parseConfig(raw []byte) (*CustomConfig, error) {
	var config CustomConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("custom: invalid config: %w", err)
	}
	return &config, nil
}
