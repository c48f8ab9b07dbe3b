// Package belief provides the per-agent probability distribution over
// fire locations and its Bayesian update, entropy, and fusion operations.
package belief

import (
	"fmt"
	"math"

	"github.com/emberwatch/firesearch/internal/grid"
)

// State is one agent's probability distribution over possible fire
// locations on an N×N grid. Each State is exclusively owned by a single
// agent; merges copy mass, never alias another agent's cells.
type State struct {
	GridSize  int  `json:"grid_size"`
	FireFound bool `json:"fire_found"`

	// FireLocation is set only once FireFound becomes true through a
	// peer whose belief carried a confirmed location.
	FireLocation *grid.Coord `json:"fire_location,omitempty"`

	// cells holds the distribution in row-major order: index = x*N + y.
	cells []float64
}

// New creates a belief state with a uniform prior over the whole grid.
func New(gridSize int) (*State, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("belief: grid size must be positive, got %d", gridSize)
	}
	n := gridSize * gridSize
	cells := make([]float64, n)
	p := 1.0 / float64(n)
	for i := range cells {
		cells[i] = p
	}
	return &State{GridSize: gridSize, cells: cells}, nil
}

// idx maps a coordinate to its row-major cell index.
func (s *State) idx(x, y int) int {
	return x*s.GridSize + y
}

// At returns the probability mass at a coordinate.
func (s *State) At(c grid.Coord) float64 {
	return s.cells[s.idx(c.X, c.Y)]
}

// Sum returns the total probability mass. Anything other than 1 (within
// floating error) means the state is degenerate, see Degenerate.
func (s *State) Sum() float64 {
	var total float64
	for _, p := range s.cells {
		total += p
	}
	return total
}

// Degenerate reports whether the belief has collapsed to zero mass.
// This happens when a negative observation eliminates the last remaining
// support; the state is deliberately left at zero rather than re-seeded
// with a fresh prior, and callers are expected to detect it here.
func (s *State) Degenerate() bool {
	return s.Sum() == 0
}

// UpdateWithObservation applies a Bayesian update for a sensing pass
// over the window centered on position.
//
// A positive observation concentrates all mass uniformly over the
// window and marks the fire as found. A negative observation zeroes the
// window and renormalizes whatever mass remains; if nothing remains the
// belief stays all-zero (degenerate) rather than fabricating a new prior.
func (s *State) UpdateWithObservation(position grid.Coord, windowSize int, fireObserved bool) {
	w := grid.Footprint(position, windowSize, s.GridSize)

	if fireObserved {
		for i := range s.cells {
			s.cells[i] = 0
		}
		p := 1.0 / float64(w.CellCount())
		for x := w.MinX; x <= w.MaxX; x++ {
			for y := w.MinY; y <= w.MaxY; y++ {
				s.cells[s.idx(x, y)] = p
			}
		}
		s.FireFound = true
		return
	}

	for x := w.MinX; x <= w.MaxX; x++ {
		for y := w.MinY; y <= w.MaxY; y++ {
			s.cells[s.idx(x, y)] = 0
		}
	}
	if s.Sum() > 0 {
		s.normalize()
	}
}

// normalize scales the distribution so it sums to 1. Caller guarantees
// positive total mass.
func (s *State) normalize() {
	total := s.Sum()
	for i := range s.cells {
		s.cells[i] /= total
	}
}

// Entropy returns the Shannon entropy of the distribution in nats.
// Zero iff the belief is a point mass; log(N²) iff uniform.
func (s *State) Entropy() float64 {
	return ComputeEntropy(s.cells)
}

// MostLikelyLocation returns the cell with the highest probability.
// Ties break to the first occurrence in row-major order, which keeps
// the result deterministic across runs.
func (s *State) MostLikelyLocation() grid.Coord {
	best := 0
	for i, p := range s.cells {
		if p > s.cells[best] {
			best = i
		}
	}
	return grid.Coord{X: best / s.GridSize, Y: best % s.GridSize}
}

// Merge fuses another agent's belief into this one.
//
// If the peer has confirmed the fire, its belief is adopted wholesale,
// replacing this one regardless of any prior local finding. Otherwise
// the distributions are averaged elementwise with the given weight on
// the local belief and renormalized when the result carries mass.
func (s *State) Merge(other *State, weight float64) {
	if other.FireFound {
		copy(s.cells, other.cells)
		s.FireFound = true
		s.FireLocation = other.FireLocation
		return
	}

	for i := range s.cells {
		s.cells[i] = weight*s.cells[i] + (1-weight)*other.cells[i]
	}
	if s.Sum() > 0 {
		s.normalize()
	}
}

// DefaultMergeWeight is the weight given to the local belief when the
// caller has no reason to trust either side more.
const DefaultMergeWeight = 0.5

// Clone returns a deep copy with no shared cell storage.
func (s *State) Clone() *State {
	cells := make([]float64, len(s.cells))
	copy(cells, s.cells)
	var loc *grid.Coord
	if s.FireLocation != nil {
		c := *s.FireLocation
		loc = &c
	}
	return &State{
		GridSize:     s.GridSize,
		FireFound:    s.FireFound,
		FireLocation: loc,
		cells:        cells,
	}
}

// MassInWindow returns the probability that the fire lies inside the
// window centered on position. Used by policies to score candidate moves.
func (s *State) MassInWindow(position grid.Coord, windowSize int) float64 {
	w := grid.Footprint(position, windowSize, s.GridSize)
	var total float64
	for x := w.MinX; x <= w.MaxX; x++ {
		for y := w.MinY; y <= w.MaxY; y++ {
			total += s.cells[s.idx(x, y)]
		}
	}
	return total
}

// ComputeEntropy returns the Shannon entropy of a probability vector,
// with the convention 0·log(0) = 0. This is the single entropy
// definition shared by belief states and any reward or analysis code so
// uncertainty accounting stays consistent.
func ComputeEntropy(p []float64) float64 {
	var h float64
	for _, v := range p {
		if v > 0 {
			h -= v * math.Log(v)
		}
	}
	return h
}
