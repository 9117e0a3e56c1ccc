package model

import "time"

type TripState string

const (
	TripIdle                TripState = "idle"
	TripMovingToPickup      TripState = "moving_to_pickup"
	TripPicking             TripState = "picking"
	TripMovingToDestination TripState = "moving_to_destination"
	TripDelivering          TripState = "delivering"
	TripMovingToStation     TripState = "moving_to_station"
)

// TripRecord is the permanent log entry of one completed trip.
type TripRecord struct {
	ID                string     `db:"id" json:"id"`
	RobotID           RobotID    `db:"robot_id" json:"robot_id"`
	Timestamp         time.Time  `db:"timestamp" json:"timestamp"`
	FromPoint         string     `db:"from_point" json:"from_point"`
	PickupPoint       string     `db:"pickup_point" json:"pickup_point"`
	DropoffPoint      string     `db:"dropoff_point" json:"dropoff_point"`
	FinishedAtStation bool       `db:"finished_at_station" json:"finished_at_station"`
	Items             []TripItem `db:"-" json:"items"`
}

type TripItem struct {
	TripID      string `db:"trip_id" json:"-"`
	ProductID   string `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
}
