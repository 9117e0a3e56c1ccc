package dto

import "github.com/fekuna/omnipos-fleet-simulator/internal/model"

type ActiveTrip struct {
	RobotID     model.RobotID     `json:"robot_id"`
	State       model.TripState   `json:"state"`
	Destination model.Destination `json:"destination"`
	Position    model.Point       `json:"position"`
}
