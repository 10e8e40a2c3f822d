package sync

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Adapter Types
// ---------------------------------------------------------------------------

// AdapterType identifies the class of external system an integration
// connects to
type AdapterType string

const (
	// AdapterTypePOSTerminal pulls stock from a point-of-sale terminal export
	AdapterTypePOSTerminal AdapterType = "pos-terminal"
	// AdapterTypeERP pulls stock from an ERP connector
	AdapterTypeERP AdapterType = "erp"
	// AdapterTypeSpreadsheet parses a flat-file (xlsx) stock export
	AdapterTypeSpreadsheet AdapterType = "spreadsheet"
	// AdapterTypeWebhook receives pushed stock payloads
	AdapterTypeWebhook AdapterType = "webhook"
	// AdapterTypeCustom calls a brand-supplied JSON endpoint
	AdapterTypeCustom AdapterType = "custom"
)

// IsValid returns true if the adapter type is valid
func (t AdapterType) IsValid() bool {
	switch t {
	case AdapterTypePOSTerminal, AdapterTypeERP, AdapterTypeSpreadsheet,
		AdapterTypeWebhook, AdapterTypeCustom:
		return true
	default:
		return false
	}
}

// String returns the string representation of AdapterType
func (t AdapterType) String() string {
	return string(t)
}

// IsPush returns true for push-style adapters that ingest payloads instead
// of being polled
func (t AdapterType) IsPush() bool {
	return t == AdapterTypeWebhook
}

// ---------------------------------------------------------------------------
// Canonical Stock Shape
// ---------------------------------------------------------------------------

// CanonicalStockItem is the normalized adapter output: one external stock
// reading for one product. It is never persisted; the reconciler consumes it
// and mutates branch inventory records.
type CanonicalStockItem struct {
	// ExternalKey is the product identifier in the external system
	ExternalKey string
	// ProductID is the resolved internal product ID (uuid.Nil when the
	// adapter could not resolve the key; resolution then falls to the
	// reconciler's mapping lookup)
	ProductID uuid.UUID
	// Quantity is the authoritative stock level reported externally
	Quantity int64
	// Price is the optional unit price reported externally
	Price *decimal.Decimal
}

// ---------------------------------------------------------------------------
// Adapter Ports
// ---------------------------------------------------------------------------

// StockAdapter is the port every external system connector implements.
// Implementations live in the infrastructure layer; they normalize vendor
// data into canonical stock items and never touch the inventory store.
//
// Fetch errors must be classified (connectivity, auth, config) so the
// orchestrator can pick the right retry behavior.
type StockAdapter interface {
	// Type returns the adapter type this connector handles
	Type() AdapterType

	// ValidateConfig checks a raw adapter configuration against the
	// adapter's schema. Called at registration time; a failure here means
	// no run is ever attempted with that config.
	ValidateConfig(raw []byte) error

	// Fetch pulls the authoritative stock snapshot from the external
	// system. Pure with respect to internal state.
	Fetch(ctx context.Context, raw []byte) ([]CanonicalStockItem, error)
}

// PushAdapter is implemented by push-style adapters (webhook). Ingest is
// invoked synchronously when a payload arrives; the rest of the pipeline
// (reconciliation, ledger) is identical to pull adapters.
type PushAdapter interface {
	StockAdapter

	// Authenticate verifies an inbound delivery token against the
	// integration's adapter configuration
	Authenticate(token string, raw []byte) error

	// Ingest normalizes an inbound payload into canonical stock items.
	// The returned delivery ID identifies the delivery for duplicate
	// suppression.
	Ingest(payload []byte, raw []byte) ([]CanonicalStockItem, string, error)
}

// AdapterRegistry resolves adapters by type. Populated once at startup;
// avoids dynamic dispatch on untyped maps.
type AdapterRegistry interface {
	// Get returns the adapter for the given type
	Get(adapterType AdapterType) (StockAdapter, error)

	// GetPush returns the push adapter for the given type
	GetPush(adapterType AdapterType) (PushAdapter, error)

	// Types returns all registered adapter types
	Types() []AdapterType
}
