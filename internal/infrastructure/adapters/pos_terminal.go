package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// Errors for POS terminal configuration
var (
	ErrPOSConfigMissingBaseURL    = errors.New("pos-terminal: base URL is required")
	ErrPOSConfigMissingAPIKey     = errors.New("pos-terminal: API key is required")
	ErrPOSConfigMissingTerminalID = errors.New("pos-terminal: terminal ID is required")
)

// POSTerminalConfig holds the per-integration configuration for a POS
// terminal export endpoint
type POSTerminalConfig struct {
	// BaseURL is the terminal vendor's export API base URL
	BaseURL string `json:"base_url"`
	// APIKey authenticates against the vendor API
	APIKey string `json:"api_key"`
	// TerminalID selects which terminal's stock counts to export
	TerminalID string `json:"terminal_id"`
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Validate validates the POS terminal configuration
func (c *POSTerminalConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrPOSConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrPOSConfigMissingAPIKey
	}
	if c.TerminalID == "" {
		return ErrPOSConfigMissingTerminalID
	}
	return nil
}

// posStockRow is one row of the terminal export. Quantities arrive as
// decimal strings ("12.000"); fractional parts are truncated.
type posStockRow struct {
	SKU      string `json:"sku"`
	Quantity string `json:"quantity"`
	Price    string `json:"price,omitempty"`
}

type posExportResponse struct {
	TerminalID string        `json:"terminal_id"`
	Rows       []posStockRow `json:"rows"`
}

// POSTerminalAdapter pulls stock counts from a point-of-sale terminal
// vendor's export API
type POSTerminalAdapter struct {
	logger *zap.Logger
}

// NewPOSTerminalAdapter creates a new POSTerminalAdapter
func NewPOSTerminalAdapter(logger *zap.Logger) *POSTerminalAdapter {
	return &POSTerminalAdapter{logger: logger}
}

// Type returns the adapter type this connector handles
func (a *POSTerminalAdapter) Type() syncdomain.AdapterType {
	return syncdomain.AdapterTypePOSTerminal
}

// ValidateConfig checks a raw configuration against the POS terminal schema
func (a *POSTerminalAdapter) ValidateConfig(raw []byte) error {
	config, err := a.parseConfig(raw)
	if err != nil {
		return err
	}
	return config.Validate()
}

// Fetch pulls the stock export for the configured terminal
func (a *POSTerminalAdapter) Fetch(ctx context.Context, raw []byte) ([]syncdomain.CanonicalStockItem, error) {
	config, err := a.parseConfig(raw)
	if err != nil {
		return nil, syncdomain.NewConfigError(err)
	}
	if err := config.Validate(); err != nil {
		return nil, syncdomain.NewConfigError(err)
	}

	url := fmt.Sprintf("%s/v1/terminals/%s/stock-export", config.BaseURL, config.TerminalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, syncdomain.NewConfigError(err)
	}
	req.Header.Set("X-API-Key", config.APIKey)
	req.Header.Set("Accept", "application/json")

	body, err := fetchBody(newHTTPClient(config.TimeoutSeconds), req)
	if err != nil {
		return nil, err
	}

	var export posExportResponse
	if err := json.Unmarshal(body, &export); err != nil {
		return nil, syncdomain.NewConnectivityError(fmt.Errorf("malformed export payload: %w", err))
	}

	items := make([]syncdomain.CanonicalStockItem, 0, len(export.Rows))
	for _, row := range export.Rows {
		qty, err := decimal.NewFromString(row.Quantity)
		if err != nil {
			a.logger.Warn("Skipping terminal row with unparseable quantity",
				zap.String("sku", row.SKU),
				zap.String("quantity", row.Quantity),
			)
			continue
		}

		item := syncdomain.CanonicalStockItem{
			ExternalKey: row.SKU,
			Quantity:    qty.IntPart(),
		}
		if row.Price != "" {
			if price, err := decimal.NewFromString(row.Price); err == nil {
				item.Price = &price
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (a *POSTerminalAdapter) parseConfig(raw []byte) (*POSTerminalConfig, error) {
	var config POSTerminalConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("pos-terminal: invalid config: %w", err)
	}
	return &config, nil
}
