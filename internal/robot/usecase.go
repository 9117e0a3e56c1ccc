package robot

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

type UseCase interface {
	AddRobot(ctx context.Context) model.Robot
	GetRobot(ctx context.Context, id model.RobotID) (*model.Robot, error)
	ListRobots(ctx context.Context) []model.Robot
}
