// Package engine provides the search environment and the tick-based
// orchestration of drone actions, telemetry fan-out, cost accounting,
// and termination detection.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/chance"
	"github.com/emberwatch/firesearch/internal/grid"
)

// Environment holds the hidden ground truth and the episode aggregates.
// All aggregate mutation happens inside Step; drones never touch these
// counters and nothing outside the engine writes them.
type Environment struct {
	GridSize int        `json:"grid_size"`
	FirePos  grid.Coord `json:"-"` // Hidden from agents except via sensing.

	CommunicationCost  float64 `json:"communication_cost"`
	MovementCost       float64 `json:"movement_cost"`
	CommunicationNoise float64 `json:"communication_noise"`

	TotalCost           float64  `json:"total_cost"`
	TotalCommunications int      `json:"total_communications"`
	FireExtinguished    bool     `json:"fire_extinguished"`
	TimeToExtinguish    *float64 `json:"time_to_extinguish,omitempty"`
	ExtinguishedBy      *int     `json:"extinguished_by,omitempty"`

	noise chance.Source
}

// NewEnvironment creates an environment with the fire at the given cell.
func NewEnvironment(gridSize int, firePos grid.Coord, commCost, moveCost, commNoise float64, noise chance.Source) (*Environment, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("engine: grid size must be positive, got %d", gridSize)
	}
	if !firePos.InBounds(gridSize) {
		return nil, fmt.Errorf("engine: fire position %s outside %d×%d grid", firePos, gridSize, gridSize)
	}
	if commNoise < 0 || commNoise > 1 {
		return nil, fmt.Errorf("engine: communication noise %.3f outside [0, 1]", commNoise)
	}
	if noise == nil {
		noise = chance.NewCrypto()
	}
	return &Environment{
		GridSize:           gridSize,
		FirePos:            firePos,
		CommunicationCost:  commCost,
		MovementCost:       moveCost,
		CommunicationNoise: commNoise,
		noise:              noise,
	}, nil
}

// Step executes one simulation tick: every drone acts on its chosen
// action, then all telemetry collected during the tick is fanned out,
// then termination is checked. Returns the cost accrued this tick and
// whether the fire is (now or previously) extinguished.
//
// The phases are strictly ordered. No drone sees a peer's same-tick
// packet until every drone has acted (simultaneous-move semantics), and
// packets reach each receiver in ascending sender order so that the
// order-sensitive merge stays deterministic.
func (e *Environment) Step(drones []*agents.Drone, actions map[int]agents.ActionID) (float64, bool, error) {
	if len(actions) != len(drones) {
		return 0, e.FireExtinguished, fmt.Errorf("engine: %d actions for %d drones", len(actions), len(drones))
	}

	// Action phase, ascending drone id.
	ordered := make([]*agents.Drone, len(drones))
	copy(ordered, drones)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var stepCost float64
	var packets []agents.TelemetryPacket
	for _, d := range ordered {
		action, ok := actions[d.ID]
		if !ok {
			return 0, e.FireExtinguished, fmt.Errorf("engine: no action for drone %d", d.ID)
		}
		pkt, err := d.Act(action, e.FirePos)
		if err != nil {
			return 0, e.FireExtinguished, err
		}
		slog.Debug("action executed",
			"drone", d.ID,
			"action", agents.ActionName(action),
			"position", d.Position.String(),
		)
		if pkt != nil {
			packets = append(packets, *pkt)
			stepCost += e.CommunicationCost
			e.TotalCommunications++
		} else if action != agents.ActionStay {
			stepCost += e.MovementCost
		}
	}

	// Fan-out phase: broadcast each packet to every drone but its
	// sender, with corruption sampled independently per delivery.
	for _, pkt := range packets {
		for _, d := range ordered {
			if d.ID == pkt.SenderID {
				continue
			}
			if err := d.ReceiveTelemetry(pkt, e.CommunicationNoise, e.noise); err != nil {
				return 0, e.FireExtinguished, err
			}
		}
	}

	// Termination scan. The transition is sticky: the first drone to
	// stand on the fire freezes the clock, later ticks change nothing.
	if !e.FireExtinguished {
		for _, d := range ordered {
			if d.Position == e.FirePos {
				e.FireExtinguished = true
				t := d.Time
				e.TimeToExtinguish = &t
				id := d.ID
				e.ExtinguishedBy = &id
				slog.Info("fire extinguished",
					"drone", d.ID,
					"time", fmt.Sprintf("%.2f", d.Time),
					"total_cost", fmt.Sprintf("%.2f", e.TotalCost+stepCost),
					"communications", e.TotalCommunications,
				)
				break
			}
		}
	}

	e.TotalCost += stepCost
	return stepCost, e.FireExtinguished, nil
}
