package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
	syncdomain "github.com/storefront/backend/internal/domain/sync"
)

type fakeDispatcher struct {
	mu        sync.Mutex
	due       []syncdomain.Integration
	reject    bool
	triggered []uuid.UUID
	executed  chan uuid.UUID
}

func newFakeDispatcher(due ...syncdomain.Integration) *fakeDispatcher {
	return &fakeDispatcher{
		due:      due,
		executed: make(chan uuid.UUID, 16),
	}
}

// DueIntegrations hands out the pending set once so a test tick cannot
// dispatch the same integration twice
func (f *fakeDispatcher) DueIntegrations(_ context.Context, _ time.Time) ([]syncdomain.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	due := f.due
	f.due = nil
	return due, nil
}

func (f *fakeDispatcher) TriggerSync(_ context.Context, integrationID uuid.UUID) (*appsync.TriggerResult, *appsync.RunContext, error) {
	f.mu.Lock()
	f.triggered = append(f.triggered, integrationID)
	reject := f.reject
	f.mu.Unlock()

	if reject {
		return &appsync.TriggerResult{Accepted: false, Reason: appsync.TriggerReasonAlreadyRunning}, nil, nil
	}

	integ := &syncdomain.Integration{}
	integ.ID = integrationID
	run := syncdomain.NewSyncRun(uuid.New(), integrationID)
	return &appsync.TriggerResult{Accepted: true, RunID: &run.ID},
		&appsync.RunContext{Integration: integ, Run: run}, nil
}

func (f *fakeDispatcher) ExecuteRun(_ context.Context, rc *appsync.RunContext) {
	f.executed <- rc.Integration.ID
}

func (f *fakeDispatcher) triggerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triggered)
}

type fakePruner struct {
	mu      sync.Mutex
	calls   int
	removed int64
}

func (f *fakePruner) Prune(_ context.Context, _ int, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.removed, nil
}

func (f *fakePruner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newDueIntegration(t *testing.T) syncdomain.Integration {
	t.Helper()
	integ, err := syncdomain.NewIntegration(uuid.New(), uuid.New(), syncdomain.AdapterTypeERP, []byte(`{}`), 15)
	require.NoError(t, err)
	require.NoError(t, integ.TransitionTo(syncdomain.IntegrationStatusActive))
	return *integ
}

func TestConfigValidate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("rejects sub-second tick", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.TickInterval = 100 * time.Millisecond
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("rejects zero workers", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.WorkerCount = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("rejects zero queue size", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.QueueSize = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})
}

func TestNewSyncScheduler_RequiresDispatcher(t *testing.T) {
	_, err := NewSyncScheduler(DefaultConfig(), nil, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSyncScheduler_ExecutesDueIntegrations(t *testing.T) {
	first := newDueIntegration(t)
	second := newDueIntegration(t)
	dispatcher := newFakeDispatcher(first, second)

	sched, err := NewSyncScheduler(DefaultConfig(), dispatcher, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop() }()

	executed := map[uuid.UUID]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-dispatcher.executed:
			executed[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for run execution")
		}
	}

	assert.True(t, executed[first.ID])
	assert.True(t, executed[second.ID])
}

func TestSyncScheduler_SkipsRejectedTriggers(t *testing.T) {
	integ := newDueIntegration(t)
	dispatcher := newFakeDispatcher(integ)
	dispatcher.reject = true

	sched, err := NewSyncScheduler(DefaultConfig(), dispatcher, nil, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop() }()

	assert.Eventually(t, func() bool {
		return dispatcher.triggerCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-dispatcher.executed:
		t.Fatal("rejected trigger must not execute a run")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSyncScheduler_SubmitLifecycle(t *testing.T) {
	dispatcher := newFakeDispatcher()
	sched, err := NewSyncScheduler(DefaultConfig(), dispatcher, nil, zap.NewNop())
	require.NoError(t, err)

	assert.ErrorIs(t, sched.Submit(uuid.New()), ErrSchedulerNotRunning)

	require.NoError(t, sched.Start(context.Background()))
	assert.NoError(t, sched.Submit(uuid.New()))

	require.NoError(t, sched.Stop())
	assert.ErrorIs(t, sched.Submit(uuid.New()), ErrSchedulerNotRunning)
	assert.ErrorIs(t, sched.Stop(), ErrSchedulerNotRunning)
}

func TestSyncScheduler_PrunesLedger(t *testing.T) {
	dispatcher := newFakeDispatcher()
	pruner := &fakePruner{removed: 3}

	cfg := DefaultConfig()
	cfg.LedgerPruneInterval = 20 * time.Millisecond

	sched, err := NewSyncScheduler(cfg, dispatcher, pruner, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, sched.Start(context.Background()))
	defer func() { _ = sched.Stop() }()

	assert.Eventually(t, func() bool {
		return pruner.callCount() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
