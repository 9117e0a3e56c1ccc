package model

import (
	"math"
	"strings"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Destination is one of the delivery points a trip can drop off at.
type Destination string

const (
	DestinationB Destination = "B"
	DestinationC Destination = "C"
	DestinationD Destination = "D"
)

var Destinations = []Destination{DestinationB, DestinationC, DestinationD}

// ParseDestination accepts "B", "c", "Point D" and similar.
func ParseDestination(s string) (Destination, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "POINT ")
	for _, d := range Destinations {
		if s == string(d) {
			return d, true
		}
	}
	return "", false
}

func (d Destination) Label() string {
	if d == "" {
		return ""
	}
	return "Point " + string(d)
}
