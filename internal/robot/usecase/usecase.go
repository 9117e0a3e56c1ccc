package usecase

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/event"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/robot"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

type robotUseCase struct {
	repo   robot.Repository
	events event.Publisher
	logger logger.ZapLogger
}

func NewRobotUseCase(repo robot.Repository, events event.Publisher, log logger.ZapLogger) robot.UseCase {
	return &robotUseCase{
		repo:   repo,
		events: events,
		logger: log,
	}
}

// AddRobot registers a new idle robot parked at the next free dock slot.
func (uc *robotUseCase) AddRobot(ctx context.Context) model.Robot {
	bot := uc.repo.Add(ctx, func(r *model.Robot, index int) {
		r.Position = route.Dock(index)
	})

	uc.logger.Info("Robot added", zap.Int64("robot_id", int64(bot.ID)))
	p := bot.Position
	uc.events.Publish(ctx, model.Event{
		Type:     model.EventRobotAdded,
		RobotID:  bot.ID,
		State:    model.TripIdle,
		Position: &p,
	})
	return bot
}

func (uc *robotUseCase) GetRobot(ctx context.Context, id model.RobotID) (*model.Robot, error) {
	bot, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, apperror.NotFound("robot", id.String())
	}
	return bot, nil
}

func (uc *robotUseCase) ListRobots(ctx context.Context) []model.Robot {
	return uc.repo.FindAll(ctx)
}
