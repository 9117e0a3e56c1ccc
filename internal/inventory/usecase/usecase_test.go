package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory/locker"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	prodRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/product/repository"
	robotRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/robot/repository"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	products *prodRepoPkg.MemoryRepository
	robots   *robotRepoPkg.MemoryRepository
	ledger   inventory.UseCase
}

func newFixture() *fixture {
	products := prodRepoPkg.NewMemoryRepository()
	robots := robotRepoPkg.NewMemoryRepository()
	return &fixture{
		products: products,
		robots:   robots,
		ledger:   NewLedgerUseCase(products, robots, locker.NewLocal(), logger.NewNop()),
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

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) assign(t *testing.T, robotID model.RobotID, productID string, qty int) {
	t.Helper()
	_, err := f.robots.Update(context.Background(), robotID, func(r *model.Robot) error {
		r.AddItem(productID, "", qty)
		return nil
	})
	require.NoError(t, err)
}

func TestAvailableStockSubtractsReservations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "Product A", 100)
	r1 := f.robots.Add(ctx, nil)
	r2 := f.robots.Add(ctx, nil)

	f.assign(t, r1.ID, a, 30)
	f.assign(t, r2.ID, a, 20)

	avail, err := f.ledger.AvailableStock(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 50, avail)
	assert.Equal(t, 50, f.ledger.Reserved(ctx, a))
}

func TestAvailableStockErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.ledger.AvailableStock(ctx, uuid.New().String())
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.ledger.AvailableStock(ctx, "bogus")
	assert.ErrorIs(t, err, apperror.ErrInvalidIdentifier)
}

func TestCommitPickAllOrNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "Product A", 100)
	b := f.product(t, "Product B", 50)

	err := f.ledger.CommitPick(ctx, []model.LineItem{
		{ProductID: a, Quantity: 30},
		{ProductID: b, Quantity: 51},
	})
	var se *apperror.StockInsufficientError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, b, se.ProductID)
	assert.Equal(t, "Product B", se.ProductName)
	assert.Equal(t, 50, se.Have)
	assert.Equal(t, 51, se.Need)
	assert.Equal(t, 100, f.stock(t, a))
	assert.Equal(t, 50, f.stock(t, b))

	require.NoError(t, f.ledger.CommitPick(ctx, []model.LineItem{
		{ProductID: a, Quantity: 30},
		{ProductID: b, Quantity: 50},
	}))
	assert.Equal(t, 70, f.stock(t, a))
	assert.Equal(t, 0, f.stock(t, b))
}

func TestCommitPickReportsFirstFailingItem(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "Product A", 1)
	b := f.product(t, "Product B", 1)

	err := f.ledger.CommitPick(ctx, []model.LineItem{
		{ProductID: a, Quantity: 2},
		{ProductID: b, Quantity: 2},
	})
	var se *apperror.StockInsufficientError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, a, se.ProductID)
}

func TestCommitPickMissingProduct(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "Product A", 10)

	err := f.ledger.CommitPick(ctx, []model.LineItem{
		{ProductID: a, Quantity: 1},
		{ProductID: uuid.New().String(), Quantity: 1},
	})
	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 10, f.stock(t, a))
}

func TestStockLevels(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "Product A", 100)
	f.product(t, "Product B", 50)
	bot := f.robots.Add(ctx, nil)
	f.assign(t, bot.ID, a, 30)

	levels, err := f.ledger.StockLevels(ctx)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "Product A", levels[0].Name)
	assert.Equal(t, 30, levels[0].Reserved)
	assert.Equal(t, 70, levels[0].Available)
	assert.Equal(t, 0, levels[1].Reserved)
	assert.Equal(t, 50, levels[1].Available)
}

func TestReserveGatesOnAvailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.product(t, "Product A", 20)
	r1 := f.robots.Add(ctx, nil)
	r2 := f.robots.Add(ctx, nil)
	f.assign(t, r1.ID, a, 15)

	_, err := f.ledger.Reserve(ctx, r2.ID, a, 6, nil)
	require.ErrorIs(t, err, apperror.ErrStockInsufficient)

	got, err := f.ledger.Reserve(ctx, r2.ID, a, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity(a))
	assert.Equal(t, "Product A", got.Items[0].ProductName)

	_, err = f.ledger.Reserve(ctx, r1.ID, a, 1, func(*model.Robot) error { return apperror.ErrRobotBusy })
	require.ErrorIs(t, err, apperror.ErrRobotBusy)
	assert.Equal(t, 20, f.ledger.Reserved(ctx, a))
}
