package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

func TestNewSyncMetrics(t *testing.T) {
	t.Run("rejects nil meter", func(t *testing.T) {
		_, err := NewSyncMetrics(nil)
		assert.ErrorIs(t, err, ErrMeterNil)
	})

	t.Run("records without panicking on the global meter", func(t *testing.T) {
		meter := otel.GetMeterProvider().Meter("test")
		sm, err := NewSyncMetrics(meter)
		require.NoError(t, err)

		ctx := context.Background()
		sm.RunStarted(ctx, syncdomain.AdapterTypeERP)
		sm.RunFinalized(ctx, syncdomain.AdapterTypeERP, syncdomain.RunStatusPartial, 10, 2, 3*time.Second)
		sm.RunFinalized(ctx, syncdomain.AdapterTypeWebhook, syncdomain.RunStatusFailed, 0, 0, 50*time.Millisecond)
	})
}
