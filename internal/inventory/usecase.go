package inventory

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory/dto"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

// UseCase is the inventory ledger. Reservations are derived from robot
// assignments on every call; nothing is held in the store.
type UseCase interface {
	AvailableStock(ctx context.Context, productID string) (int, error)
	Reserved(ctx context.Context, productID string) int
	StockLevels(ctx context.Context) ([]dto.StockLevel, error)

	// CommitPick checks every item against current stock and then
	// decrements all of them, or none.
	CommitPick(ctx context.Context, items []model.LineItem) error

	// Reserve adds quantity of productID to the robot's list if stock minus
	// every reservation covers it. check may veto based on the robot.
	Reserve(ctx context.Context, robotID model.RobotID, productID string, quantity int, check func(r *model.Robot) error) (model.Robot, error)
}

type Reservations interface {
	Reserved(ctx context.Context, productID string) int
	ReservedAll(ctx context.Context) map[string]int
	Reserve(ctx context.Context, id model.RobotID, item model.LineItem, check func(r *model.Robot, reserved int) error) (model.Robot, error)
}

// Locker serializes stock commits.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
