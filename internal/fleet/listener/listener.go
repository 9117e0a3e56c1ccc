package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/assignment"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/robot"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	CommandAddRobot  = "add_robot"
	CommandAssign    = "assign"
	CommandUnassign  = "unassign"
	CommandStartTrip = "start_trip"
)

type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Command is one operator command read from the commands topic.
type Command struct {
	Command     string        `json:"command"`
	RequestID   string        `json:"request_id"`
	RobotID     model.RobotID `json:"robot_id"`
	ProductID   string        `json:"product_id"`
	Quantity    int           `json:"quantity"`
	Destination string        `json:"destination"`
}

type CommandListener struct {
	consumer   Consumer
	robots     robot.UseCase
	assignment assignment.UseCase
	trips      trip.UseCase
	logger     logger.ZapLogger
	retryDelay time.Duration
}

func NewCommandListener(consumer Consumer, robots robot.UseCase, assign assignment.UseCase, trips trip.UseCase, log logger.ZapLogger) *CommandListener {
	return &CommandListener{
		consumer:   consumer,
		robots:     robots,
		assignment: assign,
		trips:      trips,
		logger:     log,
		retryDelay: time.Second,
	}
}

func (l *CommandListener) Start(ctx context.Context) {
	l.logger.Info("Starting fleet command listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping fleet command listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.retryDelay)
				continue
			}
			if err := l.processMessage(ctx, msg.Value); err != nil {
				l.logger.Warn("Command rejected", zap.ByteString("value", msg.Value), zap.Error(err))
			}
		}
	}
}

func (l *CommandListener) processMessage(ctx context.Context, value []byte) error {
	var cmd Command
	if err := json.Unmarshal(value, &cmd); err != nil {
		return fmt.Errorf("decode command: %w", err)
	}

	log := l.logger.With(zap.String("command", cmd.Command), zap.String("request_id", cmd.RequestID))

	switch cmd.Command {
	case CommandAddRobot:
		bot := l.robots.AddRobot(ctx)
		log.Info("Processed command", zap.Int64("robot_id", int64(bot.ID)))
		return nil
	case CommandAssign:
		if _, err := l.assignment.Assign(ctx, cmd.RobotID, cmd.ProductID, cmd.Quantity); err != nil {
			return err
		}
	case CommandUnassign:
		if _, err := l.assignment.Unassign(ctx, cmd.RobotID, cmd.ProductID); err != nil {
			return err
		}
	case CommandStartTrip:
		if _, err := l.trips.StartTrip(ctx, cmd.RobotID, cmd.Destination); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}

	log.Info("Processed command", zap.Int64("robot_id", int64(cmd.RobotID)))
	return nil
}
