package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory/locker"
	ledgerPkg "github.com/fekuna/omnipos-fleet-simulator/internal/inventory/usecase"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	prodRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/product/repository"
	robotRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/robot/repository"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip/machine"
	tripRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/trip/repository"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recorder) Publish(_ context.Context, e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type failingLog struct{ err error }

func (f failingLog) Insert(context.Context, *model.TripRecord) error { return f.err }

func (f failingLog) FindByRobot(context.Context, model.RobotID) ([]model.TripRecord, error) {
	return nil, f.err
}

type fixture struct {
	products *prodRepoPkg.MemoryRepository
	robots   *robotRepoPkg.MemoryRepository
	trips    trip.Repository
	ledger   inventory.UseCase
	events   *recorder
	uc       trip.UseCase
}

func newFixture(trips trip.Repository) *fixture {
	products := prodRepoPkg.NewMemoryRepository()
	robots := robotRepoPkg.NewMemoryRepository()
	if trips == nil {
		trips = tripRepoPkg.NewMemoryRepository()
	}
	ledger := ledgerPkg.NewLedgerUseCase(products, robots, locker.NewLocal(), logger.NewNop())
	events := &recorder{}
	return &fixture{
		products: products,
		robots:   robots,
		trips:    trips,
		ledger:   ledger,
		events:   events,
		uc: NewTripUseCase(robots, ledger, trips, route.NewMap(), events,
			machine.DefaultConfig(), logger.NewNop()),
	}
}

func (f *fixture) product(t *testing.T, name string, stock int) string {
	t.Helper()
	id := uuid.New().String()
	require.NoError(t, f.products.Create(context.Background(), &model.Product{
		BaseModel: model.BaseModel{ID: id}, Name: name, Stock: stock,
	}))
	return id
}

func (f *fixture) robot(t *testing.T, items ...model.LineItem) model.RobotID {
	t.Helper()
	bot := f.robots.Add(context.Background(), func(r *model.Robot, index int) {
		r.Position = route.Dock(index)
		r.Items = items
	})
	return bot.ID
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

// tickUntil drives robotID until its trip reaches state or finishes.
func (f *fixture) tickUntil(t *testing.T, robotID model.RobotID, state model.TripState) (machine.Step, error) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		step, err := f.uc.Tick(context.Background(), robotID)
		if step.State == state || step.Done {
			return step, err
		}
		require.NoError(t, err)
	}
	t.Fatalf("trip never reached %s", state)
	return machine.Step{}, nil
}

func TestTripFullCycle(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	a := f.product(t, "Product A", 100)
	b := f.product(t, "Product B", 50)
	id := f.robot(t, model.LineItem{ProductID: a, ProductName: "Product A", Quantity: 30})

	bot, err := f.uc.StartTrip(ctx, id, "C")
	require.NoError(t, err)
	assert.Equal(t, model.RobotEnRoute, bot.Status)
	assert.Equal(t, model.DestinationC, bot.Destination)
	require.NotNil(t, bot.DestinationPoint)

	_, err = f.tickUntil(t, id, model.TripMovingToDestination)
	require.NoError(t, err)

	// Picked but not yet home: stock is down, the list still reserves.
	assert.Equal(t, 70, f.stock(t, a))
	assert.Equal(t, 50, f.stock(t, b))
	assert.Equal(t, 30, f.ledger.Reserved(ctx, a))

	step, err := f.tickUntil(t, id, model.TripIdle)
	require.NoError(t, err)
	require.True(t, step.Done)

	got, _ := f.robots.FindByID(ctx, id)
	assert.Equal(t, model.RobotIdle, got.Status)
	assert.Empty(t, got.Items)
	assert.Empty(t, got.Destination)
	assert.Equal(t, route.Dock(0), got.Position)
	assert.Equal(t, 0, f.ledger.Reserved(ctx, a))
	assert.Equal(t, 70, f.stock(t, a))

	records, err := f.uc.ListTrips(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Point C", records[0].DropoffPoint)
	assert.Equal(t, route.OriginLabel, records[0].FromPoint)
	assert.Equal(t, route.PickupLabel, records[0].PickupPoint)
	assert.True(t, records[0].FinishedAtStation)
	require.Len(t, records[0].Items, 1)
	assert.Equal(t, 30, records[0].Items[0].Quantity)

	assert.Empty(t, f.uc.ActiveTrips(ctx))
	assert.Equal(t, []model.EventType{
		model.EventTripStarted,
		model.EventTripArrived,
		model.EventTripPicked,
		model.EventTripArrived,
		model.EventTripDelivered,
		model.EventTripCompleted,
	}, f.events.types())
}

func TestStartTripErrors(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	a := f.product(t, "Product A", 10)
	empty := f.robot(t)
	loaded := f.robot(t, model.LineItem{ProductID: a, Quantity: 1})

	_, err := f.uc.StartTrip(ctx, empty, "B")
	assert.ErrorIs(t, err, apperror.ErrNoAssignment)

	_, err = f.uc.StartTrip(ctx, loaded, "Z")
	assert.ErrorIs(t, err, apperror.ErrInvalidDestination)

	_, err = f.uc.StartTrip(ctx, 42, "B")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.uc.StartTrip(ctx, loaded, "Point D")
	require.NoError(t, err)
	_, err = f.uc.StartTrip(ctx, loaded, "B")
	assert.ErrorIs(t, err, apperror.ErrRobotBusy)

	got, _ := f.robots.FindByID(ctx, empty)
	assert.Equal(t, model.RobotIdle, got.Status)
	assert.Len(t, f.uc.ActiveTrips(ctx), 1)
}

func TestTripAbortsOnShortStock(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	a := f.product(t, "Product A", 100)
	b := f.product(t, "Product B", 50)
	id := f.robot(t,
		model.LineItem{ProductID: a, ProductName: "Product A", Quantity: 30},
		model.LineItem{ProductID: b, ProductName: "Product B", Quantity: 20},
	)

	_, err := f.uc.StartTrip(ctx, id, "B")
	require.NoError(t, err)

	// Stock drops under the reservation while the robot is travelling.
	require.NoError(t, f.products.SetStock(ctx, b, 5))

	step, err := f.tickUntil(t, id, model.TripIdle)
	require.True(t, step.Aborted)
	var se *apperror.StockInsufficientError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Product B", se.ProductName)

	assert.Equal(t, 100, f.stock(t, a))
	assert.Equal(t, 5, f.stock(t, b))

	got, _ := f.robots.FindByID(ctx, id)
	assert.Equal(t, model.RobotIdle, got.Status)
	assert.Len(t, got.Items, 2)
	assert.Nil(t, got.DestinationPoint)

	records, err := f.uc.ListTrips(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Contains(t, f.events.types(), model.EventTripAborted)

	// The robot can start again once stock is fixed.
	require.NoError(t, f.products.SetStock(ctx, b, 50))
	_, err = f.uc.StartTrip(ctx, id, "B")
	require.NoError(t, err)
}

func TestTripLogFailureStillReleasesRobot(t *testing.T) {
	f := newFixture(failingLog{err: apperror.StoreUnavailable("insert trip", errors.New("down"))})
	ctx := context.Background()
	a := f.product(t, "Product A", 10)
	id := f.robot(t, model.LineItem{ProductID: a, Quantity: 4})

	_, err := f.uc.StartTrip(ctx, id, "D")
	require.NoError(t, err)

	step, err := f.tickUntil(t, id, model.TripIdle)
	require.True(t, step.Done)
	assert.False(t, step.Aborted)
	require.ErrorIs(t, err, apperror.ErrStoreUnavailable)

	got, _ := f.robots.FindByID(ctx, id)
	assert.Equal(t, model.RobotIdle, got.Status)
	assert.Empty(t, got.Items)
	assert.Equal(t, 6, f.stock(t, a))
}

func TestTickAllAdvancesEveryTrip(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	a := f.product(t, "Product A", 100)
	r1 := f.robot(t, model.LineItem{ProductID: a, Quantity: 10})
	r2 := f.robot(t, model.LineItem{ProductID: a, Quantity: 10})
	idle := f.robot(t)

	_, err := f.uc.StartTrip(ctx, r2, "B")
	require.NoError(t, err)
	_, err = f.uc.StartTrip(ctx, r1, "D")
	require.NoError(t, err)

	steps := f.uc.TickAll(ctx)
	require.Len(t, steps, 2)
	assert.Equal(t, r1, steps[0].RobotID)
	assert.Equal(t, r2, steps[1].RobotID)

	for i := 0; i < 10000 && len(f.uc.ActiveTrips(ctx)) > 0; i++ {
		f.uc.TickAll(ctx)
	}
	assert.Empty(t, f.uc.ActiveTrips(ctx))
	assert.Equal(t, 80, f.stock(t, a))

	for _, id := range []model.RobotID{r1, r2} {
		records, err := f.uc.ListTrips(ctx, id)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	}
	records, err := f.uc.ListTrips(ctx, idle)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = f.uc.Tick(ctx, r1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListTripsUnknownRobot(t *testing.T) {
	f := newFixture(nil)
	_, err := f.uc.ListTrips(context.Background(), 7)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
