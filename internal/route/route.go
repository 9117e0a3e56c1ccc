package route

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
)

const (
	OriginLabel = "Origin"
	PickupLabel = "Warehouse (Point A)"
)

type Waypoint struct {
	Name  string      `json:"name"`
	Label string      `json:"label"`
	Point model.Point `json:"point"`
}

// Map holds the fixed route waypoints. Waypoints can be relocated; trips
// capture coordinates when they start.
type Map struct {
	mu     sync.RWMutex
	origin model.Point
	pickup model.Point
	drops  map[model.Destination]model.Point
}

func NewMap() *Map {
	return &Map{
		origin: model.Point{X: 80, Y: 150},
		pickup: model.Point{X: 240, Y: 80},
		drops: map[model.Destination]model.Point{
			model.DestinationB: {X: 420, Y: 80},
			model.DestinationC: {X: 420, Y: 180},
			model.DestinationD: {X: 240, Y: 260},
		},
	}
}

func (m *Map) Origin() model.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.origin
}

func (m *Map) Pickup() model.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pickup
}

func (m *Map) Destination(d model.Destination) (model.Point, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.drops[d]
	return p, ok
}

// Dock returns the station slot of the robot at the given roster index.
// Slots fill two columns, top to bottom.
func Dock(index int) model.Point {
	col := index % 2
	row := index / 2
	return model.Point{X: float64(50 + col*40), Y: float64(150 + row*40)}
}

// Move relocates a waypoint. name is "A" for the pickup or a destination letter.
func (m *Map) Move(name string, p model.Point) error {
	if !finite(p.X) || !finite(p.Y) {
		return fmt.Errorf("%w: waypoint coordinates must be finite", apperror.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.EqualFold(strings.TrimSpace(name), "A") {
		m.pickup = p
		return nil
	}
	d, ok := model.ParseDestination(name)
	if !ok {
		return fmt.Errorf("%w: waypoint %q", apperror.ErrInvalidDestination, name)
	}
	m.drops[d] = p
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (m *Map) Waypoints() []Waypoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Waypoint{
		{Name: "origin", Label: OriginLabel, Point: m.origin},
		{Name: "A", Label: PickupLabel, Point: m.pickup},
	}
	for _, d := range model.Destinations {
		out = append(out, Waypoint{Name: string(d), Label: d.Label(), Point: m.drops[d]})
	}
	return out
}
