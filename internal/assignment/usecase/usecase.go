package usecase

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/assignment"
	"github.com/fekuna/omnipos-fleet-simulator/internal/event"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/robot"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

type assignmentUseCase struct {
	ledger   inventory.UseCase
	robots   robot.Repository
	events   event.Publisher
	logger   logger.ZapLogger
}

func NewAssignmentUseCase(ledger inventory.UseCase, robots robot.Repository, events event.Publisher, log logger.ZapLogger) assignment.UseCase {
	return &assignmentUseCase{
		ledger:   ledger,
		robots:   robots,
		events:   events,
		logger:   log,
	}
}

func (uc *assignmentUseCase) Assign(ctx context.Context, robotID model.RobotID, productID string, quantity int) (model.Robot, error) {
	bot, err := uc.ledger.Reserve(ctx, robotID, productID, quantity, func(r *model.Robot) error {
		if r.Status != model.RobotIdle {
			return apperror.ErrRobotBusy
		}
		return nil
	})
	if err != nil {
		uc.logger.Debug("Assignment rejected",
			zap.Int64("robot_id", int64(robotID)),
			zap.String("product_id", productID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		return model.Robot{}, err
	}

	uc.logger.Info("Products assigned",
		zap.Int64("robot_id", int64(robotID)),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
	)
	uc.events.Publish(ctx, model.Event{
		Type:      model.EventAssignmentChanged,
		RobotID:   robotID,
		ProductID: productID,
	})
	return bot, nil
}

func (uc *assignmentUseCase) Unassign(ctx context.Context, robotID model.RobotID, productID string) (model.Robot, error) {
	bot, err := uc.robots.Update(ctx, robotID, func(r *model.Robot) error {
		if r.Status != model.RobotIdle {
			return apperror.ErrRobotBusy
		}
		if !r.RemoveItem(productID) {
			return apperror.NotFound("line item", productID)
		}
		return nil
	})
	if err != nil {
		return model.Robot{}, err
	}

	uc.events.Publish(ctx, model.Event{
		Type:      model.EventAssignmentChanged,
		RobotID:   robotID,
		ProductID: productID,
	})
	return bot, nil
}
