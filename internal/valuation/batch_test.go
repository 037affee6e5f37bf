package valuation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/pkg/logger"
)

type memResults struct {
	mu    sync.Mutex
	saved []*contracts.ValuationResult
}

func (m *memResults) Save(ctx context.Context, result *contracts.ValuationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, result)
	return nil
}

func (m *memResults) Latest(ctx context.Context, ticker string) (*contracts.ValuationResult, error) {
	return nil, nil
}

func (m *memResults) ListSince(ctx context.Context, since time.Time) ([]*contracts.ValuationResult, error) {
	return nil, nil
}

func TestBatchRunMixedOutcomes(t *testing.T) {
	records := map[string]*contracts.RawFinancialRecord{
		"GOOD1": healthyRecord("GOOD1"),
		"GOOD2": healthyRecord("GOOD2"),
		"VOID":  contracts.NewRawFinancialRecord("VOID", "default", "", nil),
		// "GHOST" has no record at all.
	}

	svc := newTestService(t,
		&memRecords{records: records},
		&memDrivers{set: &contracts.DriverSet{}},
		&memPeers{group: nil},
	)
	sink := &memResults{}
	batch := NewBatch(svc, sink, BatchConfig{Workers: 3}, logger.NewNop())

	summary := batch.Run(context.Background(), []string{"GOOD1", "GOOD2", "VOID", "GHOST"})

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.NoValuation)
	assert.Equal(t, 1, summary.Failed)
	assert.Len(t, sink.saved, 2)
}

func TestBatchRunWithoutPersistence(t *testing.T) {
	svc := newTestService(t,
		&memRecords{records: map[string]*contracts.RawFinancialRecord{"TEST": healthyRecord("TEST")}},
		&memDrivers{set: &contracts.DriverSet{}},
		&memPeers{group: nil},
	)
	batch := NewBatch(svc, nil, BatchConfig{Workers: 1}, logger.NewNop())

	summary := batch.Run(context.Background(), []string{"TEST"})
	assert.Equal(t, 1, summary.Succeeded)
}

// cancellingRecords cancels the batch context during the first Load,
// simulating a shutdown arriving while a company is in flight.
type cancellingRecords struct {
	inner  contracts.RecordSource
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancellingRecords) Load(ctx context.Context, ticker string) (*contracts.RawFinancialRecord, error) {
	c.once.Do(c.cancel)
	time.Sleep(50 * time.Millisecond)
	return c.inner.Load(ctx, ticker)
}

func TestBatchRunCancelledMidFlightConservesTally(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancellingRecords{
		inner: &memRecords{records: map[string]*contracts.RawFinancialRecord{
			"A": healthyRecord("A"),
			"B": healthyRecord("B"),
			"C": healthyRecord("C"),
		}},
		cancel: cancel,
	}
	svc := newTestService(t, src, &memDrivers{set: &contracts.DriverSet{}}, &memPeers{group: nil})
	batch := NewBatch(svc, nil, BatchConfig{Workers: 1}, logger.NewNop())

	summary := batch.Run(ctx, []string{"A", "B", "C"})

	// The in-flight company lands in the tally before the undispatched
	// remainder is marked failed; the buckets always sum to the total.
	require.Equal(t, 3, summary.Total)
	assert.Equal(t, summary.Total, summary.Succeeded+summary.NoValuation+summary.Failed)
	assert.GreaterOrEqual(t, summary.Succeeded, 1)
	assert.GreaterOrEqual(t, summary.Failed, 1)
	assert.Zero(t, summary.NoValuation)
}

func TestBatchRunCancelled(t *testing.T) {
	svc := newTestService(t,
		&memRecords{records: map[string]*contracts.RawFinancialRecord{"TEST": healthyRecord("TEST")}},
		&memDrivers{set: &contracts.DriverSet{}},
		&memPeers{group: nil},
	)
	batch := NewBatch(svc, nil, BatchConfig{Workers: 1, RatePerSecond: 0.001}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := batch.Run(ctx, []string{"A", "B", "C"})
	require.Equal(t, 3, summary.Total)
	assert.Zero(t, summary.Succeeded)
}
