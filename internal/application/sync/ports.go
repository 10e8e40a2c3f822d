package sync

import (
	"context"
	"time"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

// IdempotencyStore suppresses duplicate webhook deliveries. Implementations
// live in the infrastructure layer (redis, in-memory).
type IdempotencyStore interface {
	// CheckAndSet returns true if the key was unseen and is now recorded.
	// A false return means the delivery was already processed.
	CheckAndSet(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RunMetrics receives engine telemetry. A nop implementation is used when
// telemetry is disabled.
type RunMetrics interface {
	RunStarted(ctx context.Context, adapterType syncdomain.AdapterType)
	RunFinalized(ctx context.Context, adapterType syncdomain.AdapterType, status syncdomain.RunStatus, itemsUpdated, itemsFailed int, duration time.Duration)
}

// NopRunMetrics discards all measurements
type NopRunMetrics struct{}

// RunStarted implements RunMetrics
func (NopRunMetrics) RunStarted(context.Context, syncdomain.AdapterType) {}

// RunFinalized implements RunMetrics
func (NopRunMetrics) RunFinalized(context.Context, syncdomain.AdapterType, syncdomain.RunStatus, int, int, time.Duration) {
}
