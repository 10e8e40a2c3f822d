package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// erpMaxPages bounds pagination so a misbehaving connector cannot loop
// forever
const erpMaxPages = 1000

// Errors for ERP configuration
var (
	ErrERPConfigMissingBaseURL  = errors.New("erp: base URL is required")
	ErrERPConfigMissingToken    = errors.New("erp: access token is required")
	ErrERPConfigInvalidPageSize = errors.New("erp: page size must be between 1 and 1000")
)

// ERPConfig holds the per-integration configuration for an ERP stock
// connector
type ERPConfig struct {
	// BaseURL is the ERP connector's API base URL
	BaseURL string `json:"base_url"`
	// AccessToken is the bearer token for the connector API
	AccessToken string `json:"access_token"`
	// WarehouseCode optionally narrows the export to one warehouse
	WarehouseCode string `json:"warehouse_code,omitempty"`
	// PageSize is the pagination size for the stock listing
	PageSize int `json:"page_size,omitempty"`
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Validate validates the ERP configuration
func (c *ERPConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrERPConfigMissingBaseURL
	}
	if c.AccessToken == "" {
		return ErrERPConfigMissingToken
	}
	if c.PageSize < 0 || c.PageSize > 1000 {
		return ErrERPConfigInvalidPageSize
	}
	return nil
}

// erpStockLine is one line of the ERP stock listing. ERP connectors resolve
// internal product IDs themselves when the catalog was provisioned from the
// ERP; ProductID is empty otherwise and resolution falls to the key mappings.
type erpStockLine struct {
	ItemCode  string           `json:"item_code"`
	ProductID string           `json:"product_id,omitempty"`
	OnHand    decimal.Decimal  `json:"on_hand"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type erpStockPage struct {
	Lines   []erpStockLine `json:"lines"`
	HasMore bool           `json:"has_more"`
}

// ERPAdapter pulls the stock listing from an ERP connector, following its
// pagination until the listing is exhausted
type ERPAdapter struct{}

// NewERPAdapter creates a new ERPAdapter
func NewERPAdapter() *ERPAdapter {
	return &ERPAdapter{}
}

// Type returns the adapter type this connector handles
func (a *ERPAdapter) Type() syncdomain.AdapterType {
	return syncdomain.AdapterTypeERP
}

// ValidateConfig checks a raw configuration against the ERP schema
func (a *ERPAdapter) ValidateConfig(raw []byte) error {
	config, err := a.parseConfig(raw)
	if err != nil {
		return err
	}
	return config.Validate()
}

// Fetch pulls the full stock listing, page by page
func (a *ERPAdapter) Fetch(ctx context.Context, raw []byte) ([]syncdomain.CanonicalStockItem, error) {
	config, err := a.parseConfig(raw)
	if err != nil {
		return nil, syncdomain.NewConfigError(err)
	}
	if err := config.Validate(); err != nil {
		return nil, syncdomain.NewConfigError(err)
	}

	pageSize := config.PageSize
	if pageSize == 0 {
		pageSize = 200
	}
	client := newHTTPClient(config.TimeoutSeconds)

	var items []syncdomain.CanonicalStockItem
	for page := 1; page <= erpMaxPages; page++ {
		stockPage, err := a.fetchPage(ctx, client, config, page, pageSize)
		if err != nil {
			return nil, err
		}
		for _, line := range stockPage.Lines {
			items = append(items, a.toItem(line))
		}
		if !stockPage.HasMore {
			return items, nil
		}
	}
	return nil, syncdomain.NewConnectivityError(fmt.Errorf("erp: pagination did not terminate after %d pages", erpMaxPages))
}

func (a *ERPAdapter) fetchPage(ctx context.Context, client *http.Client, config *ERPConfig, page, pageSize int) (*erpStockPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	if config.WarehouseCode != "" {
		q.Set("warehouse", config.WarehouseCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.BaseURL+"/api/stock?"+q.Encode(), nil)
	if err != nil {
		return nil, syncdomain.NewConfigError(err)
	}
	req.Header.Set("Authorization", "Bearer "+config.AccessToken)
	req.Header.Set("Accept", "application/json")

	body, err := fetchBody(client, req)
	if err != nil {
		return nil, err
	}

	var stockPage erpStockPage
	if err := json.Unmarshal(body, &stockPage); err != nil {
		return nil, syncdomain.NewConnectivityError(fmt.Errorf("malformed stock page: %w", err))
	}
	return &stockPage, nil
}

func (a *ERPAdapter) toItem(line erpStockLine) syncdomain.CanonicalStockItem {
	item := syncdomain.CanonicalStockItem{
		ExternalKey: line.ItemCode,
		Quantity:    line.OnHand.IntPart(),
		Price:       line.UnitPrice,
	}
	if line.ProductID != "" {
		if id, err := uuid.Parse(line.ProductID); err == nil {
			item.ProductID = id
		}
	}
	return item
}

func (a *ERPAdapter) parseConfig(raw []byte) (*ERPConfig, error) {
	var config ERPConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("erp: invalid config: %w", err)
	}
	return &config, nil
}
