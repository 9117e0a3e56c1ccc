package trip

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip/dto"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip/machine"
)

type UseCase interface {
	// StartTrip sends an idle robot with assigned products to destination.
	StartTrip(ctx context.Context, robotID model.RobotID, destination string) (model.Robot, error)

	// Tick advances one robot's trip by one step. The error is the side
	// effect failure of this step, if any.
	Tick(ctx context.Context, robotID model.RobotID) (machine.Step, error)

	// TickAll advances every active trip, in robot id order.
	TickAll(ctx context.Context) []machine.Step

	ActiveTrips(ctx context.Context) []dto.ActiveTrip
	ListTrips(ctx context.Context, robotID model.RobotID) ([]model.TripRecord, error)
}
