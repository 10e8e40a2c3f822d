package adapters

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// minWebhookSecretLength guards against trivially guessable shared secrets
const minWebhookSecretLength = 16

// Errors for webhook configuration
var (
	ErrWebhookConfigMissingSecret = errors.New("webhook: secret token is required")
	ErrWebhookConfigWeakSecret    = fmt.Errorf("webhook: secret token must be at least %d characters", minWebhookSecretLength)
)

// WebhookConfig holds the per-integration configuration for pushed stock
// payloads
type WebhookConfig struct {
	// SecretToken is the shared secret deliveries must present
	SecretToken string `json:"secret_token"`
}

// Validate validates the webhook configuration
func (c *WebhookConfig) Validate() error {
	if c.SecretToken == "" {
		return ErrWebhookConfigMissingSecret
	}
	if len(c.SecretToken) < minWebhookSecretLength {
		return ErrWebhookConfigWeakSecret
	}
	return nil
}

// webhookPayload is the inbound delivery shape
type webhookPayload struct {
	// DeliveryID identifies the delivery for duplicate suppression. Senders
	// that retry must reuse the same ID.
	DeliveryID string           `json:"delivery_id"`
	Items      []webhookItemRow `json:"items"`
}

type webhookItemRow struct {
	Key      string `json:"key"`
	Quantity int64  `json:"quantity"`
}

// WebhookAdapter is the push-style adapter: external systems deliver stock
// payloads to the platform instead of being polled
type WebhookAdapter struct{}

// NewWebhookAdapter creates a new WebhookAdapter
func NewWebhookAdapter() *WebhookAdapter {
	return &WebhookAdapter{}
}

// Type returns the adapter type this connector handles
func (a *WebhookAdapter) Type() syncdomain.AdapterType {
	return syncdomain.AdapterTypeWebhook
}

// ValidateConfig checks a raw configuration against the webhook schema
func (a *WebhookAdapter) ValidateConfig(raw []byte) error {
	config, err := a.parseConfig(raw)
	if err != nil {
		return err
	}
	return config.Validate()
}

// Fetch is not supported: webhook integrations are push-only
func (a *WebhookAdapter) Fetch(context.Context, []byte) ([]syncdomain.CanonicalStockItem, error) {
	return nil, syncdomain.NewConfigError(syncdomain.ErrPullNotSupported)
}

// Authenticate verifies a delivery token against the configured shared
// secret in constant time
func (a *WebhookAdapter) Authenticate(token string, raw []byte) error {
	config, err := a.parseConfig(raw)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(config.SecretToken)) != 1 {
		return syncdomain.ErrWebhookTokenMismatch
	}
	return nil
}

// Ingest normalizes an inbound delivery into canonical stock items
func (a *WebhookAdapter) Ingest(payload []byte, _ []byte) ([]syncdomain.CanonicalStockItem, string, error) {
	var delivery webhookPayload
	if err := json.Unmarshal(payload, &delivery); err != nil {
		return nil, "", syncdomain.NewMappingError(fmt.Errorf("malformed delivery payload: %w", err))
	}

	items := make([]syncdomain.CanonicalStockItem, 0, len(delivery.Items))
	for _, row := range delivery.Items {
		items = append(items, syncdomain.CanonicalStockItem{
			ExternalKey: row.Key,
			Quantity:    row.Quantity,
		})
	}
	return items, delivery.DeliveryID, nil
}

func (a *WebhookAdapter) parseConfig(raw []byte) (*WebhookConfig, error) {
	var config WebhookConfig
	if err := json.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("webhook: invalid config: %w", err)
	}
	return &config, nil
}
