// Read-only state snapshots for observers (HTTP API, renderers).
// Observers never touch live simulation state.
package engine

import (
	"github.com/emberwatch/firesearch/internal/grid"
)

// DroneView is one drone's public state inside a Snapshot.
type DroneView struct {
	ID        int        `json:"id"`
	Position  grid.Coord `json:"position"`
	Window    int        `json:"window"`
	Time      float64    `json:"time"`
	Entropy   float64    `json:"entropy"`
	FireFound bool       `json:"fire_found"`
	Explored  float64    `json:"explored"`
}

// Snapshot is a consistent between-tick copy of everything a renderer
// needs. Mutating a Snapshot has no effect on the simulation.
type Snapshot struct {
	EpisodeID           string      `json:"episode_id"`
	Tick                int         `json:"tick"`
	GridSize            int         `json:"grid_size"`
	FirePos             grid.Coord  `json:"fire_pos"`
	Drones              []DroneView `json:"drones"`
	FireExtinguished    bool        `json:"fire_extinguished"`
	TimeToExtinguish    *float64    `json:"time_to_extinguish,omitempty"`
	TotalCost           float64     `json:"total_cost"`
	TotalCommunications int         `json:"total_communications"`
}

// Snapshot returns a copy of the current episode state, taken between
// ticks.
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]DroneView, 0, len(r.Drones))
	for _, d := range r.Drones {
		views = append(views, DroneView{
			ID:        d.ID,
			Position:  d.Position,
			Window:    d.WindowSize,
			Time:      d.Time,
			Entropy:   d.Belief.Entropy(),
			FireFound: d.Belief.FireFound,
			Explored:  d.ExploredFraction(),
		})
	}

	var tte *float64
	if r.Env.TimeToExtinguish != nil {
		t := *r.Env.TimeToExtinguish
		tte = &t
	}

	return Snapshot{
		EpisodeID:           r.ID.String(),
		Tick:                r.tick,
		GridSize:            r.Env.GridSize,
		FirePos:             r.Env.FirePos,
		Drones:              views,
		FireExtinguished:    r.Env.FireExtinguished,
		TimeToExtinguish:    tte,
		TotalCost:           r.Env.TotalCost,
		TotalCommunications: r.Env.TotalCommunications,
	}
}

// BeliefGrid returns a copy of one drone's belief as a dense row-major
// probability vector, or nil if the drone id is unknown.
func (r *Runner) BeliefGrid(droneID int) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.Drones {
		if d.ID != droneID {
			continue
		}
		n := d.GridSize * d.GridSize
		out := make([]float64, 0, n)
		for x := 0; x < d.GridSize; x++ {
			for y := 0; y < d.GridSize; y++ {
				out = append(out, d.Belief.At(grid.Coord{X: x, Y: y}))
			}
		}
		return out
	}
	return nil
}
