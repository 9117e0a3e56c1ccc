package robot

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

// Repository is the in-memory robot roster. Returned robots are copies;
// changes go through Update or Reserve.
type Repository interface {
	Add(ctx context.Context, init func(r *model.Robot, index int)) model.Robot
	FindByID(ctx context.Context, id model.RobotID) (*model.Robot, error)
	FindAll(ctx context.Context) []model.Robot
	Index(ctx context.Context, id model.RobotID) (int, bool)

	// Update applies fn to the robot atomically. If fn fails nothing changes.
	Update(ctx context.Context, id model.RobotID, fn func(r *model.Robot) error) (model.Robot, error)

	// Reserved sums quantities for productID across every robot's line items.
	Reserved(ctx context.Context, productID string) int
	ReservedAll(ctx context.Context) map[string]int

	// Reserve adds item to the robot if check accepts the current reservation
	// total for the product. Check and write share one critical section.
	Reserve(ctx context.Context, id model.RobotID, item model.LineItem, check func(r *model.Robot, reserved int) error) (model.Robot, error)
}
