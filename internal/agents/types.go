// Package agents provides the drone data model: position, belief,
// sensing footprint, action execution, and telemetry exchange.
package agents

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/emberwatch/firesearch/internal/belief"
	"github.com/emberwatch/firesearch/internal/grid"
)

// ActionID identifies one of the six drone actions.
type ActionID int

const (
	ActionStay        ActionID = 0
	ActionUp          ActionID = 1 // +y
	ActionDown        ActionID = 2 // -y
	ActionLeft        ActionID = 3 // -x
	ActionRight       ActionID = 4 // +x
	ActionCommunicate ActionID = 5
)

// ActionName returns a short label for log lines.
func ActionName(a ActionID) string {
	switch a {
	case ActionStay:
		return "stay"
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionCommunicate:
		return "communicate"
	default:
		return "unknown"
	}
}

// Valid reports whether the id is within the action space.
func (a ActionID) Valid() bool {
	return a >= ActionStay && a <= ActionCommunicate
}

// Snapshot is one entry of a drone's state history: position, whether
// the drone believed the fire found, and its clock after the action.
type Snapshot struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	FireFound bool    `json:"fire_found"`
	Time      float64 `json:"time"`
}

// TelemetryPacket is the immutable report a drone broadcasts when it
// takes the communicate action. It describes the sender's observation at
// a point in time; receivers reconstruct the implied belief from it.
type TelemetryPacket struct {
	ID           uuid.UUID  `json:"id"`
	SenderID     int        `json:"sender_id"`
	SenderPos    grid.Coord `json:"sender_pos"`
	WindowSize   int        `json:"window_size"`
	FireObserved bool       `json:"fire_observed"`
	Timestamp    float64    `json:"timestamp"`
}

// Drone is one search agent: a position on the grid, a sensing window,
// an exclusively owned belief state, and a local clock.
type Drone struct {
	ID         int        `json:"id"`
	GridSize   int        `json:"grid_size"`
	WindowSize int        `json:"window_size"`
	Position   grid.Coord `json:"position"`
	Time       float64    `json:"time"`
	Dt         float64    `json:"dt"`

	Belief *belief.State `json:"belief"`

	// Visited tracks coverage: every cell the drone has occupied.
	Visited map[grid.Coord]struct{} `json:"-"`

	// History is the append-only log of state snapshots, one per action.
	History []Snapshot `json:"history"`
}

// NewDrone creates a drone with a uniform-prior belief at the given
// start position. The window must fit the grid; violations are rejected
// here rather than surfacing mid-episode.
func NewDrone(id int, gridSize, windowSize int, start grid.Coord, dt float64) (*Drone, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("drone %d: grid size must be positive, got %d", id, gridSize)
	}
	if windowSize <= 0 || windowSize > gridSize {
		return nil, fmt.Errorf("drone %d: window size %d outside (0, %d]", id, windowSize, gridSize)
	}
	if !start.InBounds(gridSize) {
		return nil, fmt.Errorf("drone %d: start position %s outside %d×%d grid", id, start, gridSize, gridSize)
	}

	b, err := belief.New(gridSize)
	if err != nil {
		return nil, fmt.Errorf("drone %d: %w", id, err)
	}

	d := &Drone{
		ID:         id,
		GridSize:   gridSize,
		WindowSize: windowSize,
		Position:   start,
		Dt:         dt,
		Belief:     b,
		Visited:    map[grid.Coord]struct{}{start: {}},
	}
	d.History = append(d.History, d.snapshot())
	return d, nil
}

func (d *Drone) snapshot() Snapshot {
	return Snapshot{
		X:         d.Position.X,
		Y:         d.Position.Y,
		FireFound: d.Belief.FireFound,
		Time:      d.Time,
	}
}

// Observe reports whether the fire lies inside the drone's sensing
// window at its current position.
func (d *Drone) Observe(firePos grid.Coord) bool {
	return grid.Footprint(d.Position, d.WindowSize, d.GridSize).Contains(firePos)
}

// ExploredFraction returns the share of grid cells the drone has
// occupied so far.
func (d *Drone) ExploredFraction() float64 {
	return float64(len(d.Visited)) / float64(d.GridSize*d.GridSize)
}
