package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

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

func TestPGInsertWritesTripAndItems(t *testing.T) {
	repo, mock := newMockRepo(t)
	rec := &model.TripRecord{
		ID: "t1", RobotID: 1, Timestamp: time.Now(),
		FromPoint: "Origin", PickupPoint: "Warehouse (Point A)", DropoffPoint: "Point C",
		FinishedAtStation: true,
		Items: []model.TripItem{
			{ProductID: "a", ProductName: "Product A", Quantity: 30},
			{ProductID: "b", ProductName: "Product B", Quantity: 5},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trips")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trip_items")).
		WithArgs("t1", "a", "Product A", 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trip_items")).
		WithArgs("t1", "b", "Product B", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Insert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGInsertRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trips")).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Insert(context.Background(), &model.TripRecord{ID: "t1", RobotID: 1})
	require.ErrorIs(t, err, apperror.ErrStoreUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGFindByRobotGroupsItems(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	cols := []string{"id", "robot_id", "timestamp", "from_point", "pickup_point", "dropoff_point",
		"finished_at_station", "product_id", "product_name", "quantity"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM trips t")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("t2", 1, now, "Origin", "Warehouse (Point A)", "Point B", true, "a", "Product A", 3).
			AddRow("t2", 1, now, "Origin", "Warehouse (Point A)", "Point B", true, "b", "Product B", 4).
			AddRow("t1", 1, now.Add(-time.Hour), "Origin", "Warehouse (Point A)", "Point D", true, nil, nil, nil))

	got, err := repo.FindByRobot(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t2", got[0].ID)
	require.Len(t, got[0].Items, 2)
	assert.Equal(t, 4, got[0].Items[1].Quantity)
	assert.Equal(t, "Point D", got[1].DropoffPoint)
	assert.Empty(t, got[1].Items)
	require.NoError(t, mock.ExpectationsWereMet())
}
