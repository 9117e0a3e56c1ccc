package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// Insert writes the trip and its items in one transaction.
func (r *PGRepository) Insert(ctx context.Context, record *model.TripRecord) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return apperror.StoreUnavailable("begin tx", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO trips (id, robot_id, "timestamp", from_point, pickup_point, dropoff_point, finished_at_station)
		VALUES (:id, :robot_id, :timestamp, :from_point, :pickup_point, :dropoff_point, :finished_at_station)
	`
	if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
		return apperror.StoreUnavailable("insert trip", err)
	}

	itemQuery := `
		INSERT INTO trip_items (trip_id, product_id, product_name, quantity)
		VALUES (:trip_id, :product_id, :product_name, :quantity)
	`
	for _, item := range record.Items {
		item.TripID = record.ID
		if _, err := tx.NamedExecContext(ctx, itemQuery, item); err != nil {
			return apperror.StoreUnavailable("insert trip item", err)
		}
	}

	return apperror.StoreUnavailable("commit", tx.Commit())
}

type tripRow struct {
	ID                string         `db:"id"`
	RobotID           model.RobotID  `db:"robot_id"`
	Timestamp         time.Time      `db:"timestamp"`
	FromPoint         string         `db:"from_point"`
	PickupPoint       string         `db:"pickup_point"`
	DropoffPoint      string         `db:"dropoff_point"`
	FinishedAtStation bool           `db:"finished_at_station"`
	ProductID         sql.NullString `db:"product_id"`
	ProductName       sql.NullString `db:"product_name"`
	Quantity          sql.NullInt64  `db:"quantity"`
}

func (r *PGRepository) FindByRobot(ctx context.Context, robotID model.RobotID) ([]model.TripRecord, error) {
	query := `
		SELECT t.id, t.robot_id, t."timestamp", t.from_point, t.pickup_point, t.dropoff_point,
		       t.finished_at_station, i.product_id, i.product_name, i.quantity
		FROM trips t
		LEFT JOIN trip_items i ON i.trip_id = t.id
		WHERE t.robot_id = $1
		ORDER BY t."timestamp" DESC, t.id, i.product_name
	`
	var rows []tripRow
	if err := r.DB.SelectContext(ctx, &rows, query, robotID); err != nil {
		return nil, apperror.StoreUnavailable("list trips", err)
	}

	var out []model.TripRecord
	for _, row := range rows {
		if len(out) == 0 || out[len(out)-1].ID != row.ID {
			out = append(out, model.TripRecord{
				ID:                row.ID,
				RobotID:           row.RobotID,
				Timestamp:         row.Timestamp,
				FromPoint:         row.FromPoint,
				PickupPoint:       row.PickupPoint,
				DropoffPoint:      row.DropoffPoint,
				FinishedAtStation: row.FinishedAtStation,
			})
		}
		if !row.ProductID.Valid {
			continue
		}
		rec := &out[len(out)-1]
		rec.Items = append(rec.Items, model.TripItem{
			TripID:      row.ID,
			ProductID:   row.ProductID.String,
			ProductName: row.ProductName.String,
			Quantity:    int(row.Quantity.Int64),
		})
	}
	return out, nil
}
