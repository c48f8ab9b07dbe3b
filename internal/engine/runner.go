// Episode runner: drives the per-tick loop until the fire is put out or
// the simulation clock runs down, collecting metrics along the way.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/belief"
	"github.com/emberwatch/firesearch/internal/grid"
)

// Policy turns a drone's private view into an action for the next tick.
// The orchestrator treats the returned id as opaque; anything from a
// fixed heuristic to a learned controller fits behind this.
type Policy interface {
	Decide(b *belief.State, pos grid.Coord, t float64) agents.ActionID
}

// TickMetric records one tick's aggregate numbers for later analysis.
type TickMetric struct {
	Tick           int     `json:"tick"`
	Cost           float64 `json:"cost"`
	MeanEntropy    float64 `json:"mean_entropy"`
	Communications int     `json:"communications"` // Cumulative.
	Extinguished   bool    `json:"extinguished"`
}

// Result summarizes a finished episode.
type Result struct {
	EpisodeID           uuid.UUID `json:"episode_id"`
	Ticks               int       `json:"ticks"`
	Extinguished        bool      `json:"extinguished"`
	TimeToExtinguish    *float64  `json:"time_to_extinguish,omitempty"`
	ExtinguishedBy      *int      `json:"extinguished_by,omitempty"`
	TotalCost           float64   `json:"total_cost"`
	TotalCommunications int       `json:"total_communications"`
}

// Runner owns one episode: the environment, the drones, and one policy
// per drone. It is the single writer of all episode state; observers
// read through Snapshot only.
type Runner struct {
	ID       uuid.UUID
	Env      *Environment
	Drones   []*agents.Drone
	Policies map[int]Policy

	Dt             float64       // Sim-seconds advanced per tick.
	MaxTime        float64       // Episode clock budget.
	StatusInterval int           // Ticks between status log lines (0 = quiet).
	TickPause      time.Duration // Real-time pause per tick (0 = run flat out).

	mu      sync.RWMutex
	tick    int
	running bool
	metrics []TickMetric
}

// NewRunner wires an episode together. Every drone needs a policy.
func NewRunner(env *Environment, drones []*agents.Drone, policies map[int]Policy, dt, maxTime float64) (*Runner, error) {
	if env == nil {
		return nil, fmt.Errorf("engine: nil environment")
	}
	if len(drones) == 0 {
		return nil, fmt.Errorf("engine: no drones")
	}
	if dt <= 0 {
		return nil, fmt.Errorf("engine: dt must be positive, got %g", dt)
	}
	for _, d := range drones {
		if _, ok := policies[d.ID]; !ok {
			return nil, fmt.Errorf("engine: no policy for drone %d", d.ID)
		}
	}
	return &Runner{
		ID:       uuid.New(),
		Env:      env,
		Drones:   drones,
		Policies: policies,
		Dt:       dt,
		MaxTime:  maxTime,
	}, nil
}

// Run executes the episode loop. Blocks until termination, the clock
// budget, or Stop.
func (r *Runner) Run() (Result, error) {
	maxTicks := int(r.MaxTime / r.Dt)
	slog.Info("episode started",
		"episode", r.ID,
		"grid_size", r.Env.GridSize,
		"drones", len(r.Drones),
		"max_ticks", maxTicks,
	)
	for _, d := range r.Drones {
		slog.Info("drone deployed", "drone", d.ID, "position", d.Position.String(), "window", d.WindowSize)
	}

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	for i := 0; i < maxTicks; i++ {
		r.mu.RLock()
		running := r.running
		r.mu.RUnlock()
		if !running {
			slog.Info("episode stopped early", "episode", r.ID, "tick", i)
			break
		}

		// The whole tick runs under the write lock so observers only
		// ever see between-tick state.
		r.mu.Lock()

		// Decisions are taken against start-of-tick state, before any
		// same-tick movement or telemetry is visible.
		actions := make(map[int]agents.ActionID, len(r.Drones))
		for _, d := range r.Drones {
			actions[d.ID] = r.Policies[d.ID].Decide(d.Belief, d.Position, d.Time)
		}

		cost, extinguished, err := r.Env.Step(r.Drones, actions)
		if err != nil {
			r.mu.Unlock()
			return r.result(), fmt.Errorf("tick %d: %w", i, err)
		}

		r.tick = i + 1
		r.metrics = append(r.metrics, TickMetric{
			Tick:           i + 1,
			Cost:           cost,
			MeanEntropy:    r.meanEntropy(),
			Communications: r.Env.TotalCommunications,
			Extinguished:   extinguished,
		})
		r.mu.Unlock()

		if r.StatusInterval > 0 && i%r.StatusInterval == 0 {
			r.logStatus(i)
		}
		if extinguished {
			break
		}
		if r.TickPause > 0 {
			time.Sleep(r.TickPause)
		}
	}

	res := r.result()
	if res.Extinguished {
		slog.Info("episode complete",
			"episode", r.ID,
			"outcome", "extinguished",
			"ticks", res.Ticks,
			"time", fmt.Sprintf("%.2f", *res.TimeToExtinguish),
			"total_cost", fmt.Sprintf("%.2f", res.TotalCost),
			"communications", res.TotalCommunications,
		)
	} else {
		slog.Info("episode complete",
			"episode", r.ID,
			"outcome", "timeout",
			"ticks", res.Ticks,
			"total_cost", fmt.Sprintf("%.2f", res.TotalCost),
			"communications", res.TotalCommunications,
		)
	}
	return res, nil
}

// Stop asks the running loop to exit after the current tick.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *Runner) meanEntropy() float64 {
	var total float64
	for _, d := range r.Drones {
		total += d.Belief.Entropy()
	}
	return total / float64(len(r.Drones))
}

func (r *Runner) logStatus(tick int) {
	for _, d := range r.Drones {
		slog.Info("drone status",
			"tick", tick,
			"drone", d.ID,
			"position", d.Position.String(),
			"entropy", fmt.Sprintf("%.3f", d.Belief.Entropy()),
			"fire_found", d.Belief.FireFound,
			"explored", fmt.Sprintf("%.1f%%", d.ExploredFraction()*100),
		)
	}
}

func (r *Runner) result() Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Result{
		EpisodeID:           r.ID,
		Ticks:               r.tick,
		Extinguished:        r.Env.FireExtinguished,
		TimeToExtinguish:    r.Env.TimeToExtinguish,
		ExtinguishedBy:      r.Env.ExtinguishedBy,
		TotalCost:           r.Env.TotalCost,
		TotalCommunications: r.Env.TotalCommunications,
	}
}

// Metrics returns the per-tick metric log collected so far.
func (r *Runner) Metrics() []TickMetric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TickMetric, len(r.metrics))
	copy(out, r.metrics)
	return out
}
