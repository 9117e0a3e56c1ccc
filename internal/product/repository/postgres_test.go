package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "sqlmock")), mock
}

var updateStock = regexp.QuoteMeta("UPDATE products")

func TestPGApplyPickCommits(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(updateStock).WithArgs(30, "a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateStock).WithArgs(5, "b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyPick(context.Background(), []model.StockChange{
		{ProductID: "a", Quantity: 30},
		{ProductID: "b", Quantity: 5},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGApplyPickRollsBackOnShortStock(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(updateStock).WithArgs(30, "a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateStock).WithArgs(60, "b").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, stock FROM products")).
		WithArgs("b").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock"}).AddRow("b", "Product B", 50))
	mock.ExpectRollback()

	err := repo.ApplyPick(context.Background(), []model.StockChange{
		{ProductID: "a", Quantity: 30},
		{ProductID: "b", Quantity: 60},
	})
	var se *apperror.StockInsufficientError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Product B", se.ProductName)
	assert.Equal(t, 50, se.Have)
	assert.Equal(t, 60, se.Need)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGApplyPickMissingProduct(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(updateStock).WithArgs(1, "gone").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, stock FROM products")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock"}))
	mock.ExpectRollback()

	err := repo.ApplyPick(context.Background(), []model.StockChange{{ProductID: "gone", Quantity: 1}})
	require.ErrorIs(t, err, apperror.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreErrorsAreWrapped(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, stock, created_at, updated_at FROM products ORDER BY name")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindAll(context.Background())
	require.ErrorIs(t, err, apperror.ErrStoreUnavailable)
}

func TestPGFindByIDMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs("x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "stock", "created_at", "updated_at"}))

	p, err := repo.FindByID(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPGSetStockMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE products SET stock = $1")).
		WithArgs(10, "x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStock(context.Background(), "x", 10)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
