package model

import "time"

type EventType string

const (
	EventRobotAdded        EventType = "robot_added"
	EventAssignmentChanged EventType = "assignment_changed"
	EventProductsChanged   EventType = "products_changed"
	EventTripStarted       EventType = "trip_started"
	EventTripArrived       EventType = "trip_arrived"
	EventTripPicked        EventType = "trip_picked"
	EventTripDelivered     EventType = "trip_delivered"
	EventTripCompleted     EventType = "trip_completed"
	EventTripAborted       EventType = "trip_aborted"
)

// Event is a status-change notification for the presentation layer.
type Event struct {
	Type      EventType `json:"type"`
	RobotID   RobotID   `json:"robot_id,omitempty"`
	State     TripState `json:"state,omitempty"`
	Waypoint  string    `json:"waypoint,omitempty"`
	Position  *Point    `json:"position,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	TripID    string    `json:"trip_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	At        time.Time `json:"at"`
}
