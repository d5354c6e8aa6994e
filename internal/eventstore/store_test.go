package eventstore

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/inventory-es/internal/domain"
	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func addStockEvent(aggregateID string, version, qty int) domain.Event {
	productID, storeID := uuid.New(), uuid.New()
	return domain.Event{
		EventID:     uuid.New(),
		AggregateID: aggregateID,
		Version:     version,
		Type:        domain.EventStockAdded,
		StockAdded: &domain.StockAddedPayload{
			ProductID: productID,
			StoreID:   storeID,
			Quantity:  qty,
			Reason:    "restock",
		},
	}
}

func TestAppend_ThenLoad_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	aggID := "product-1:store-1"

	ev := addStockEvent(aggID, 1, 10)
	require.NoError(t, s.Append(ctx, aggID, []domain.Event{ev}, 0))

	loaded, err := s.Load(ctx, aggID, nil)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, ev.EventID, loaded[0].EventID)
	assert.Equal(t, 10, loaded[0].StockAdded.Quantity)
}

func TestAppend_RejectsVersionMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	aggID := "product-1:store-1"

	require.NoError(t, s.Append(ctx, aggID, []domain.Event{addStockEvent(aggID, 1, 10)}, 0))

	err := s.Append(ctx, aggID, []domain.Event{addStockEvent(aggID, 2, 5)}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)

	loaded, err := s.Load(ctx, aggID, nil)
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "rejected append must not modify the log")
}

func TestAppend_NoEventsIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	aggID := "product-1:store-1"

	require.NoError(t, s.Append(ctx, aggID, nil, 0))

	version, err := s.CurrentVersion(ctx, aggID)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestLoad_UnknownAggregateReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	events, err := s.Load(context.Background(), "does:not-exist", nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLoad_FromVersionExcludesLowerVersions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	aggID := "product-1:store-1"

	require.NoError(t, s.Append(ctx, aggID, []domain.Event{
		addStockEvent(aggID, 1, 10),
		addStockEvent(aggID, 2, 5),
		addStockEvent(aggID, 3, 1),
	}, 0))

	from := 1
	loaded, err := s.Load(ctx, aggID, &from)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 2, loaded[0].Version)
	assert.Equal(t, 3, loaded[1].Version)
}

func TestCurrentVersion_TracksAppendedCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	aggID := "product-1:store-1"

	v, err := s.CurrentVersion(ctx, aggID)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	require.NoError(t, s.Append(ctx, aggID, []domain.Event{addStockEvent(aggID, 1, 10)}, 0))
	v, err = s.CurrentVersion(ctx, aggID)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestAppend_IsSerializedPerAggregate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	aggID := "product-1:store-1"

	const writers = 20
	var wg sync.WaitGroup
	successes := make([]bool, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Append(ctx, aggID, []domain.Event{addStockEvent(aggID, 1, 1)}, 0)
			successes[i] = err == nil
		}(i)
	}
	wg.Wait()

	successCount := 0
	for _, ok := range successes {
		if ok {
			successCount++
		}
	}
	assert.Equal(t, 1, successCount, "exactly one concurrent writer should win the expected-version race")

	version, err := s.CurrentVersion(ctx, aggID)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestAggregatesAreIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a:1", []domain.Event{addStockEvent("a:1", 1, 10)}, 0))
	require.NoError(t, s.Append(ctx, "b:1", []domain.Event{addStockEvent("b:1", 1, 20)}, 0))

	aEvents, err := s.Load(ctx, "a:1", nil)
	require.NoError(t, err)
	bEvents, err := s.Load(ctx, "b:1", nil)
	require.NoError(t, err)

	require.Len(t, aEvents, 1)
	require.Len(t, bEvents, 1)
	assert.Equal(t, 10, aEvents[0].StockAdded.Quantity)
	assert.Equal(t, 20, bEvents[0].StockAdded.Quantity)
}

func TestCheckWritable_SucceedsOnWritableDir(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.CheckWritable(context.Background()))
}
