package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/event"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/robot"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip/dto"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip/machine"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
)

type tripUseCase struct {
	mu       sync.Mutex
	machines map[model.RobotID]*machine.Machine

	robots robot.Repository
	ledger inventory.UseCase
	trips  trip.Repository
	routes *route.Map
	events event.Publisher
	cfg    machine.Config
	logger logger.ZapLogger
}

func NewTripUseCase(
	robots robot.Repository,
	ledger inventory.UseCase,
	trips trip.Repository,
	routes *route.Map,
	events event.Publisher,
	cfg machine.Config,
	log logger.ZapLogger,
) trip.UseCase {
	return &tripUseCase{
		machines: make(map[model.RobotID]*machine.Machine),
		robots:   robots,
		ledger:   ledger,
		trips:    trips,
		routes:   routes,
		events:   events,
		cfg:      cfg,
		logger:   log,
	}
}

func (uc *tripUseCase) StartTrip(ctx context.Context, robotID model.RobotID, destination string) (model.Robot, error) {
	dest, ok := model.ParseDestination(destination)
	if !ok {
		return model.Robot{}, apperror.ErrInvalidDestination
	}
	drop, ok := uc.routes.Destination(dest)
	if !ok {
		return model.Robot{}, apperror.ErrInvalidDestination
	}
	index, ok := uc.robots.Index(ctx, robotID)
	if !ok {
		return model.Robot{}, apperror.NotFound("robot", robotID.String())
	}
	dock := route.Dock(index)

	uc.mu.Lock()
	defer uc.mu.Unlock()

	var m *machine.Machine
	var step machine.Step
	bot, err := uc.robots.Update(ctx, robotID, func(r *model.Robot) error {
		if r.Status != model.RobotIdle {
			return apperror.ErrRobotBusy
		}
		m = machine.New(machine.Plan{
			RobotID:     robotID,
			Destination: dest,
			Items:       r.Items,
			Dock:        dock,
			Pickup:      uc.routes.Pickup(),
			Drop:        drop,
		}, uc.cfg)

		var err error
		if step, err = m.Start(); err != nil {
			return err
		}
		r.Status = model.RobotEnRoute
		r.Destination = dest
		r.DestinationPoint = &drop
		r.Position = dock
		return nil
	})
	if err != nil {
		return model.Robot{}, err
	}

	uc.machines[robotID] = m
	uc.logger.Info("Trip started",
		zap.Int64("robot_id", int64(robotID)),
		zap.String("destination", dest.Label()),
		zap.Int("lines", len(bot.Items)),
	)
	uc.publish(ctx, step)
	return bot, nil
}

func (uc *tripUseCase) Tick(ctx context.Context, robotID model.RobotID) (machine.Step, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.tick(ctx, robotID)
}

func (uc *tripUseCase) TickAll(ctx context.Context) []machine.Step {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	ids := make([]model.RobotID, 0, len(uc.machines))
	for id := range uc.machines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	steps := make([]machine.Step, 0, len(ids))
	for _, id := range ids {
		step, err := uc.tick(ctx, id)
		if err != nil {
			uc.logger.Warn("Trip step failed",
				zap.Int64("robot_id", int64(id)),
				zap.String("state", string(step.State)),
				zap.Error(err),
			)
		}
		steps = append(steps, step)
	}
	return steps
}

// tick runs one step of robotID's trip. Caller holds uc.mu.
func (uc *tripUseCase) tick(ctx context.Context, robotID model.RobotID) (machine.Step, error) {
	m, ok := uc.machines[robotID]
	if !ok {
		return machine.Step{}, apperror.NotFound("trip", robotID.String())
	}

	step, stepErr := m.Tick(ctx, uc)

	_, err := uc.robots.Update(ctx, robotID, func(r *model.Robot) error {
		r.Position = step.Position
		if step.Done {
			// Completed trips consume the list; aborted ones keep it so the
			// operator can adjust and retry.
			r.Release(!step.Aborted)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("Failed to update robot", zap.Int64("robot_id", int64(robotID)), zap.Error(err))
	}

	if step.Done {
		delete(uc.machines, robotID)
		switch {
		case step.Aborted:
			uc.logger.Warn("Trip aborted at pickup", zap.Int64("robot_id", int64(robotID)), zap.Error(stepErr))
		case stepErr != nil:
			uc.logger.Error("Trip completed but was not recorded",
				zap.Int64("robot_id", int64(robotID)),
				zap.String("trip_id", step.Record.ID),
				zap.Error(stepErr),
			)
		default:
			uc.logger.Info("Trip completed",
				zap.Int64("robot_id", int64(robotID)),
				zap.String("trip_id", step.Record.ID),
			)
		}
	}

	uc.publish(ctx, step)
	return step, stepErr
}

func (uc *tripUseCase) ActiveTrips(_ context.Context) []dto.ActiveTrip {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := make([]dto.ActiveTrip, 0, len(uc.machines))
	for id, m := range uc.machines {
		out = append(out, dto.ActiveTrip{
			RobotID:     id,
			State:       m.State(),
			Destination: m.Destination(),
			Position:    m.Position(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RobotID < out[j].RobotID })
	return out
}

func (uc *tripUseCase) ListTrips(ctx context.Context, robotID model.RobotID) ([]model.TripRecord, error) {
	if _, ok := uc.robots.Index(ctx, robotID); !ok {
		return nil, apperror.NotFound("robot", robotID.String())
	}
	return uc.trips.FindByRobot(ctx, robotID)
}

func (uc *tripUseCase) CommitPick(ctx context.Context, items []model.LineItem) error {
	return uc.ledger.CommitPick(ctx, items)
}

func (uc *tripUseCase) RecordTrip(ctx context.Context, record *model.TripRecord) error {
	return uc.trips.Insert(ctx, record)
}

func (uc *tripUseCase) publish(ctx context.Context, step machine.Step) {
	for _, e := range step.Events {
		uc.events.Publish(ctx, e)
	}
}
