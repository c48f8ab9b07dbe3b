// Package policy provides the built-in action-selection heuristics.
// The engine only sees the Policy interface; swapping in a learned
// controller touches nothing else.
package policy

import (
	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/belief"
	"github.com/emberwatch/firesearch/internal/chance"
	"github.com/emberwatch/firesearch/internal/grid"
)

// RandomWalk picks a uniform random movement action. Never communicates.
type RandomWalk struct {
	Src chance.Source
}

// NewRandomWalk returns a random-walk policy over the five movement
// actions (stay included).
func NewRandomWalk(src chance.Source) *RandomWalk {
	return &RandomWalk{Src: src}
}

// Decide implements engine.Policy.
func (p *RandomWalk) Decide(_ *belief.State, _ grid.Coord, _ float64) agents.ActionID {
	return agents.ActionID(p.Src.Intn(5))
}

// EntropyGreedy steers toward probability mass: each candidate move is
// scored by the belief mass its sensing window would cover from the
// destination plus a small bonus for cells not yet visited. Once the
// fire is found the policy homes in on the believed location, announcing
// the find once on the way.
type EntropyGreedy struct {
	GridSize   int
	WindowSize int

	// CommunicateEvery inserts a periodic broadcast so peers keep
	// converging even before a detection. Zero disables it.
	CommunicateEvery int

	Src chance.Source

	visited   map[grid.Coord]struct{}
	announced bool
	ticks     int
}

// NewEntropyGreedy returns a greedy information-seeking policy. Each
// drone gets its own instance; the policy keeps per-drone coverage
// memory.
func NewEntropyGreedy(gridSize, windowSize, communicateEvery int, src chance.Source) *EntropyGreedy {
	return &EntropyGreedy{
		GridSize:         gridSize,
		WindowSize:       windowSize,
		CommunicateEvery: communicateEvery,
		Src:              src,
		visited:          make(map[grid.Coord]struct{}),
	}
}

// moveDelta maps movement actions to their axis offsets.
var moveDelta = map[agents.ActionID]grid.Coord{
	agents.ActionStay:  {X: 0, Y: 0},
	agents.ActionUp:    {X: 0, Y: 1},
	agents.ActionDown:  {X: 0, Y: -1},
	agents.ActionLeft:  {X: -1, Y: 0},
	agents.ActionRight: {X: 1, Y: 0},
}

// Decide implements engine.Policy.
func (p *EntropyGreedy) Decide(b *belief.State, pos grid.Coord, _ float64) agents.ActionID {
	p.ticks++
	p.visited[pos] = struct{}{}

	// Tell the others about a confirmed find, once.
	if b.FireFound && !p.announced {
		p.announced = true
		return agents.ActionCommunicate
	}

	// A collapsed belief carries no gradient to follow; fall back to a
	// random walk and let peer telemetry re-seed the distribution.
	if b.Degenerate() {
		return agents.ActionID(p.Src.Intn(5))
	}

	if p.CommunicateEvery > 0 && !b.FireFound && p.ticks%p.CommunicateEvery == 0 {
		return agents.ActionCommunicate
	}

	if b.FireFound {
		return p.homeTowards(b.MostLikelyLocation(), pos)
	}

	best := agents.ActionStay
	bestScore := -1.0
	for action := agents.ActionStay; action <= agents.ActionRight; action++ {
		d := moveDelta[action]
		next := grid.Coord{X: pos.X + d.X, Y: pos.Y + d.Y}.Clamp(p.GridSize)
		if action != agents.ActionStay && next == pos {
			continue // Clamped into a wall.
		}

		score := b.MassInWindow(next, p.WindowSize)
		if _, seen := p.visited[next]; !seen {
			score += coverageBonus
		}
		// Jitter breaks score ties so drones don't sweep in lockstep.
		score += p.Src.Float64() * tieJitter

		if score > bestScore {
			bestScore = score
			best = action
		}
	}
	return best
}

const (
	coverageBonus = 0.01
	tieJitter     = 0.001
)

// homeTowards moves one axis step toward the target, x first.
func (p *EntropyGreedy) homeTowards(target, pos grid.Coord) agents.ActionID {
	switch {
	case pos.X < target.X:
		return agents.ActionRight
	case pos.X > target.X:
		return agents.ActionLeft
	case pos.Y < target.Y:
		return agents.ActionUp
	case pos.Y > target.Y:
		return agents.ActionDown
	default:
		return agents.ActionStay
	}
}
