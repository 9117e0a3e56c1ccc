package assignment

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

// UseCase records product selections onto robots. It only touches the
// in-memory roster; the product store is read, never written.
type UseCase interface {
	Assign(ctx context.Context, robotID model.RobotID, productID string, quantity int) (model.Robot, error)
	Unassign(ctx context.Context, robotID model.RobotID, productID string) (model.Robot, error)
}
