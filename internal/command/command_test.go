package command

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/inventory-es/internal/domain"
	"github.com/utafrali/inventory-es/internal/eventbus"
	"github.com/utafrali/inventory-es/internal/eventstore"
	"github.com/utafrali/inventory-es/internal/projection"
	"github.com/utafrali/inventory-es/internal/resilience"
	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

func eventstoreEvent(productID, storeID uuid.UUID) []domain.Event {
	return []domain.Event{{
		EventID:     uuid.New(),
		AggregateID: domain.AggregateID(productID, storeID),
		Version:     1,
		Type:        domain.EventStockAdded,
		StockAdded:  &domain.StockAddedPayload{ProductID: productID, StoreID: storeID, Quantity: 1, Reason: "racing writer"},
	}}
}

type harness struct {
	store *eventstore.Store
	proj  *projection.Repository
	mock  pgxmock.PgxPoolIface
	bus   *eventbus.Bus
	cb    *resilience.Breaker
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := eventstore.New(t.TempDir())
	require.NoError(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	cfg := resilience.DefaultConfig(t.Name())
	cfg.MinRequests = 1000 // effectively never trips during these tests

	return &harness{
		store: store,
		proj:  projection.NewRepository(mock),
		mock:  mock,
		bus:   eventbus.New(nil),
		cb:    resilience.New(cfg, nil),
	}
}

func (h *harness) expectUpsert() {
	h.mock.ExpectExec("INSERT INTO inventory_projection").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func TestAddStockHandler_PersistsAndUpdatesProjection(t *testing.T) {
	h := newHarness(t)
	handler := NewAddStockHandler(h.store, h.proj, h.cb, h.bus, nil)

	productID, storeID := uuid.New(), uuid.New()
	h.expectUpsert()

	err := handler.Handle(context.Background(), productID, storeID, 50, "restock")
	require.NoError(t, err)
	require.NoError(t, h.mock.ExpectationsWereMet())

	aggregateID := productID.String() + ":" + storeID.String()
	version, err := h.store.CurrentVersion(context.Background(), aggregateID)
	require.NoError(t, err)
	require.Equal(t, 1, version)
}

func TestReserveThenCommit_FullCycle(t *testing.T) {
	h := newHarness(t)
	addHandler := NewAddStockHandler(h.store, h.proj, h.cb, h.bus, nil)
	reserveHandler := NewReserveHandler(h.store, h.proj, h.cb, h.bus, nil)
	commitHandler := NewCommitHandler(h.store, h.proj, h.cb, h.bus, nil)

	productID, storeID, customerID, orderID := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	h.expectUpsert()
	require.NoError(t, addHandler.Handle(context.Background(), productID, storeID, 100, "restock"))

	h.expectUpsert()
	reservationID, err := reserveHandler.Handle(context.Background(), productID, storeID, customerID, 10, 30*time.Minute)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, reservationID)

	h.expectUpsert()
	require.NoError(t, commitHandler.Handle(context.Background(), productID, storeID, reservationID, orderID))

	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestReserveHandler_InsufficientStockDoesNotAppendOrUpdateProjection(t *testing.T) {
	h := newHarness(t)
	reserveHandler := NewReserveHandler(h.store, h.proj, h.cb, h.bus, nil)
	productID, storeID, customerID := uuid.New(), uuid.New(), uuid.New()

	_, err := reserveHandler.Handle(context.Background(), productID, storeID, customerID, 10, 0)
	require.Error(t, err)

	version, err := h.store.CurrentVersion(context.Background(), domain.AggregateID(productID, storeID))
	require.NoError(t, err)
	assert.Equal(t, 0, version, "no event should have been appended")

	require.NoError(t, h.mock.ExpectationsWereMet(), "no projection call should have been made")
}

func TestReleaseHandler_RestoresAvailable(t *testing.T) {
	h := newHarness(t)
	addHandler := NewAddStockHandler(h.store, h.proj, h.cb, h.bus, nil)
	reserveHandler := NewReserveHandler(h.store, h.proj, h.cb, h.bus, nil)
	releaseHandler := NewReleaseHandler(h.store, h.proj, h.cb, h.bus, nil)

	productID, storeID, customerID := uuid.New(), uuid.New(), uuid.New()

	h.expectUpsert()
	require.NoError(t, addHandler.Handle(context.Background(), productID, storeID, 100, "restock"))

	h.expectUpsert()
	reservationID, err := reserveHandler.Handle(context.Background(), productID, storeID, customerID, 20, 0)
	require.NoError(t, err)

	h.expectUpsert()
	require.NoError(t, releaseHandler.Handle(context.Background(), productID, storeID, reservationID, "buyer cancelled"))

	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAdjustHandler_SetsAvailable(t *testing.T) {
	h := newHarness(t)
	adjustHandler := NewAdjustHandler(h.store, h.proj, h.cb, h.bus, nil)
	productID, storeID := uuid.New(), uuid.New()

	h.expectUpsert()
	err := adjustHandler.Handle(context.Background(), productID, storeID, 42, "cycle count")
	require.NoError(t, err)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestCommitHandler_UnknownReservationFails(t *testing.T) {
	h := newHarness(t)
	commitHandler := NewCommitHandler(h.store, h.proj, h.cb, h.bus, nil)
	productID, storeID := uuid.New(), uuid.New()

	err := commitHandler.Handle(context.Background(), productID, storeID, uuid.New(), uuid.New())
	require.Error(t, err)
	require.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAddStockHandler_AppendMakesStaleWriterHitConcurrencyConflict(t *testing.T) {
	h := newHarness(t)
	addHandler := NewAddStockHandler(h.store, h.proj, h.cb, h.bus, nil)
	productID, storeID := uuid.New(), uuid.New()
	aggregateID := productID.String() + ":" + storeID.String()

	h.expectUpsert()
	require.NoError(t, addHandler.Handle(context.Background(), productID, storeID, 10, "restock"))

	// A racing writer that read the aggregate before this handler's append
	// would attempt to append against the now-stale expected version.
	err := h.store.Append(context.Background(), aggregateID, eventstoreEvent(productID, storeID), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)

	require.NoError(t, h.mock.ExpectationsWereMet())
}
