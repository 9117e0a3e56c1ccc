package trip

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

// Repository is the append-only trip log.
type Repository interface {
	Insert(ctx context.Context, record *model.TripRecord) error

	// FindByRobot lists a robot's trips, newest first.
	FindByRobot(ctx context.Context, robotID model.RobotID) ([]model.TripRecord, error)
}
