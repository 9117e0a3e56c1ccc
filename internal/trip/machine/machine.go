// Package machine implements the per-robot trip state machine. A Machine
// owns no timers: each call to Tick advances it by exactly one step and
// reports what happened, so it can be driven by a scheduler or by tests.
package machine

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/google/uuid"
)

const stationLabel = "Station"

type Config struct {
	StepSize  float64
	Tolerance float64
}

func DefaultConfig() Config {
	return Config{StepSize: 2, Tolerance: 2}
}

// Effects are the side effects fired at waypoint arrivals.
type Effects interface {
	CommitPick(ctx context.Context, items []model.LineItem) error
	RecordTrip(ctx context.Context, record *model.TripRecord) error
}

// Plan fixes everything a trip needs when it starts. Later waypoint moves
// do not affect a running trip.
type Plan struct {
	RobotID     model.RobotID
	Destination model.Destination
	Items       []model.LineItem
	Dock        model.Point
	Pickup      model.Point
	Drop        model.Point
}

// Step is the outcome of one Start or Tick call.
type Step struct {
	RobotID  model.RobotID
	State    model.TripState
	Position model.Point
	Events   []model.Event

	// Done is set once the machine is back to idle, either after the trip
	// completed (Record set) or after it was aborted at pickup (Aborted).
	Done    bool
	Aborted bool
	Record  *model.TripRecord
}

type leg struct {
	waypoint string
	target   model.Point
}

type Machine struct {
	plan     Plan
	cfg      Config
	state    model.TripState
	position model.Point
	legs     [3]leg
	leg      int
	picked   []model.LineItem
	now      func() time.Time
}

func New(plan Plan, cfg Config) *Machine {
	plan.Items = append([]model.LineItem(nil), plan.Items...)
	return &Machine{
		plan:     plan,
		cfg:      cfg,
		state:    model.TripIdle,
		position: plan.Dock,
		legs: [3]leg{
			{waypoint: route.PickupLabel, target: plan.Pickup},
			{waypoint: plan.Destination.Label(), target: plan.Drop},
			{waypoint: stationLabel, target: plan.Dock},
		},
		now: time.Now,
	}
}

func (m *Machine) State() model.TripState { return m.state }

func (m *Machine) Position() model.Point { return m.position }

func (m *Machine) Destination() model.Destination { return m.plan.Destination }

// Start leaves Idle for MovingToPickup. A robot with nothing assigned
// cannot start.
func (m *Machine) Start() (Step, error) {
	if m.state != model.TripIdle {
		return m.step(), apperror.ErrRobotBusy
	}
	if len(m.plan.Items) == 0 {
		return m.step(), apperror.ErrNoAssignment
	}

	m.leg = 0
	m.position = m.plan.Dock
	m.state = model.TripMovingToPickup

	s := m.step()
	m.emit(&s, model.EventTripStarted, m.state, "", m.plan.Destination.Label())
	return s, nil
}

// Tick advances one step. Within tolerance of the current target the
// arrival transition fires, its side effect runs, and the next leg begins;
// otherwise the robot moves StepSize toward the target.
//
// The returned error is the side-effect failure, if any. A failed pick
// aborts the trip; a failed trip record still completes it.
func (m *Machine) Tick(ctx context.Context, fx Effects) (Step, error) {
	switch m.state {
	case model.TripMovingToPickup, model.TripMovingToDestination, model.TripMovingToStation:
	default:
		return m.step(), nil
	}

	target := m.legs[m.leg].target
	dist := m.position.DistanceTo(target)
	if dist > m.cfg.Tolerance {
		travel := m.cfg.StepSize
		if travel > dist {
			travel = dist
		}
		m.position = model.Point{
			X: m.position.X + travel*(target.X-m.position.X)/dist,
			Y: m.position.Y + travel*(target.Y-m.position.Y)/dist,
		}
		return m.step(), nil
	}

	m.position = target
	switch m.state {
	case model.TripMovingToPickup:
		return m.arrivePickup(ctx, fx)
	case model.TripMovingToDestination:
		return m.arriveDestination(), nil
	default:
		return m.arriveStation(ctx, fx)
	}
}

func (m *Machine) arrivePickup(ctx context.Context, fx Effects) (Step, error) {
	m.state = model.TripPicking
	s := m.step()
	label := m.legs[0].waypoint
	m.emit(&s, model.EventTripArrived, m.state, label, "")

	if err := fx.CommitPick(ctx, m.plan.Items); err != nil {
		m.state = model.TripIdle
		s.State = m.state
		s.Done = true
		s.Aborted = true
		m.emit(&s, model.EventTripAborted, m.state, label, err.Error())
		return s, err
	}

	m.picked = append([]model.LineItem(nil), m.plan.Items...)
	m.emit(&s, model.EventTripPicked, m.state, label, "")
	m.leg = 1
	m.state = model.TripMovingToDestination
	s.State = m.state
	return s, nil
}

func (m *Machine) arriveDestination() Step {
	m.state = model.TripDelivering
	s := m.step()
	label := m.legs[1].waypoint
	m.emit(&s, model.EventTripArrived, m.state, label, "")
	m.emit(&s, model.EventTripDelivered, m.state, label, "")

	m.leg = 2
	m.state = model.TripMovingToStation
	s.State = m.state
	return s
}

func (m *Machine) arriveStation(ctx context.Context, fx Effects) (Step, error) {
	record := &model.TripRecord{
		ID:                uuid.New().String(),
		RobotID:           m.plan.RobotID,
		Timestamp:         m.now(),
		FromPoint:         route.OriginLabel,
		PickupPoint:       route.PickupLabel,
		DropoffPoint:      m.plan.Destination.Label(),
		FinishedAtStation: true,
	}
	for _, it := range m.picked {
		record.Items = append(record.Items, model.TripItem{
			TripID:      record.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
		})
	}

	err := fx.RecordTrip(ctx, record)

	m.state = model.TripIdle
	s := m.step()
	s.Done = true
	s.Record = record
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.emit(&s, model.EventTripCompleted, m.state, m.legs[2].waypoint, msg)
	s.Events[len(s.Events)-1].TripID = record.ID
	return s, err
}

func (m *Machine) step() Step {
	return Step{RobotID: m.plan.RobotID, State: m.state, Position: m.position}
}

func (m *Machine) emit(s *Step, typ model.EventType, state model.TripState, waypoint, msg string) {
	p := m.position
	s.Events = append(s.Events, model.Event{
		Type:     typ,
		RobotID:  m.plan.RobotID,
		State:    state,
		Waypoint: waypoint,
		Position: &p,
		Message:  msg,
		At:       m.now(),
	})
}
