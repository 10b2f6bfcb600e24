package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapStore is a minimal in-test Store
type mapStore struct {
	mu      sync.Mutex
	records map[string]Record
	getErr  error
	putErr  error
}

func newMapStore() *mapStore {
	return &mapStore{records: make(map[string]Record)}
}

func (s *mapStore) Get(ctx context.Context, modelID string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Record{}, false, s.getErr
	}
	rec, ok := s.records[modelID]
	return rec, ok, nil
}

func (s *mapStore) Put(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.records[rec.ModelID] = rec
	return nil
}

func (s *mapStore) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

func TestFirstObservationSeedsDirectly(t *testing.T) {
	ctx := context.Background()
	tr := New(newMapStore())

	rec, err := tr.Observe(ctx, Observation{
		ModelID:   "alpha",
		Quality:   0.6,
		Succeeded: true,
		LatencyMs: 120,
	})
	require.NoError(t, err)

	// No pre-smoothing from an undefined prior
	assert.Equal(t, 0.6, rec.QualityEMA)
	assert.Equal(t, 1.0, rec.SuccessEMA)
	assert.Equal(t, 120.0, rec.LatencyEMAMs)
	assert.Equal(t, int64(1), rec.Samples)
}

func TestEMAUpdateFormula(t *testing.T) {
	ctx := context.Background()
	tr := New(newMapStore(), WithAlpha(0.2))

	_, err := tr.Observe(ctx, Observation{ModelID: "alpha", Quality: 1.0, Succeeded: true})
	require.NoError(t, err)

	rec, err := tr.Observe(ctx, Observation{ModelID: "alpha", Quality: 0.5, Succeeded: true})
	require.NoError(t, err)

	// 0.2*0.5 + 0.8*1.0
	assert.InDelta(t, 0.9, rec.QualityEMA, 1e-9)
	assert.InDelta(t, 1.0, rec.SuccessEMA, 1e-9)
	assert.Equal(t, int64(2), rec.Samples)
}

func TestFailureCountsAsZeroQuality(t *testing.T) {
	ctx := context.Background()
	tr := New(newMapStore(), WithAlpha(0.2))

	_, err := tr.Observe(ctx, Observation{ModelID: "alpha", Quality: 1.0, Succeeded: true})
	require.NoError(t, err)

	// Quality passed on a failure is ignored; the observation is 0/0
	rec, err := tr.Observe(ctx, Observation{ModelID: "alpha", Quality: 0.9, Succeeded: false})
	require.NoError(t, err)

	assert.InDelta(t, 0.8, rec.QualityEMA, 1e-9)
	assert.InDelta(t, 0.8, rec.SuccessEMA, 1e-9)
}

func TestEMAsStayBounded(t *testing.T) {
	ctx := context.Background()
	tr := New(newMapStore())

	// Quality observations outside [0,1] are clamped before smoothing
	rec, err := tr.Observe(ctx, Observation{ModelID: "alpha", Quality: 4.2, Succeeded: true})
	require.NoError(t, err)
	assert.Equal(t, 1.0, rec.QualityEMA)

	for i := 0; i < 50; i++ {
		rec, err = tr.Observe(ctx, Observation{ModelID: "alpha", Quality: -3, Succeeded: true})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.QualityEMA, 0.0)
		assert.LessOrEqual(t, rec.QualityEMA, 1.0)
	}
}

func TestRepeatedFailuresDecayTowardZero(t *testing.T) {
	ctx := context.Background()
	tr := New(newMapStore())

	_, err := tr.Observe(ctx, Observation{ModelID: "alpha", Quality: 1.0, Succeeded: true})
	require.NoError(t, err)

	var rec Record
	for i := 0; i < 20; i++ {
		rec, err = tr.Observe(ctx, Observation{ModelID: "alpha", Succeeded: false})
		require.NoError(t, err)
	}

	assert.Less(t, rec.QualityEMA, 0.02)
	assert.Less(t, rec.SuccessEMA, 0.02)
}

func TestConcurrentObservationsSameModel(t *testing.T) {
	ctx := context.Background()
	tr := New(newMapStore())

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.Observe(ctx, Observation{ModelID: "alpha", Quality: 0.5, Succeeded: true})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Per-model mutual exclusion means no lost updates
	rec, ok, err := tr.Record(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(n), rec.Samples)
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("store down")

	s := newMapStore()
	s.getErr = boom
	_, err := New(s).Observe(ctx, Observation{ModelID: "alpha"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	s = newMapStore()
	s.putErr = boom
	_, err = New(s).Observe(ctx, Observation{ModelID: "alpha"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestLastUpdatedUsesClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	tr := New(newMapStore(), withClock(func() time.Time { return now }))

	rec, err := tr.Observe(ctx, Observation{ModelID: "alpha", Succeeded: true})
	require.NoError(t, err)
	assert.Equal(t, now, rec.LastUpdated)
}
