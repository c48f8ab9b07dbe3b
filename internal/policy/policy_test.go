package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/belief"
	"github.com/emberwatch/firesearch/internal/chance"
	"github.com/emberwatch/firesearch/internal/grid"
)

func TestRandomWalkStaysInActionSpace(t *testing.T) {
	p := NewRandomWalk(chance.NewSeeded(1))
	b, err := belief.New(5)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		a := p.Decide(b, grid.Coord{X: 2, Y: 2}, 0)
		assert.True(t, a >= agents.ActionStay && a <= agents.ActionRight)
	}
}

func TestEntropyGreedyMovesTowardMass(t *testing.T) {
	// Eliminate the left half of the grid: the remaining mass sits at
	// high x, so from the center the policy should move right.
	b, err := belief.New(7)
	require.NoError(t, err)
	for x := 0; x < 3; x++ {
		for y := 0; y < 7; y++ {
			b.UpdateWithObservation(grid.Coord{X: x, Y: y}, 1, false)
		}
	}

	p := NewEntropyGreedy(7, 3, 0, chance.NewSeeded(1))
	a := p.Decide(b, grid.Coord{X: 3, Y: 3}, 0)
	assert.Equal(t, agents.ActionRight, a)
}

func TestEntropyGreedyAnnouncesFindOnce(t *testing.T) {
	b, err := belief.New(5)
	require.NoError(t, err)
	b.UpdateWithObservation(grid.Coord{X: 4, Y: 4}, 1, true)

	p := NewEntropyGreedy(5, 3, 0, chance.NewSeeded(1))

	first := p.Decide(b, grid.Coord{X: 0, Y: 0}, 0)
	assert.Equal(t, agents.ActionCommunicate, first)

	// After the announcement the policy homes in, x axis first.
	second := p.Decide(b, grid.Coord{X: 0, Y: 0}, 0)
	assert.Equal(t, agents.ActionRight, second)
}

func TestEntropyGreedyHomesOnBelievedLocation(t *testing.T) {
	b, err := belief.New(5)
	require.NoError(t, err)
	b.UpdateWithObservation(grid.Coord{X: 2, Y: 0}, 1, true)

	p := NewEntropyGreedy(5, 3, 0, chance.NewSeeded(1))
	p.announced = true

	assert.Equal(t, agents.ActionRight, p.Decide(b, grid.Coord{X: 0, Y: 0}, 0))
	assert.Equal(t, agents.ActionDown, p.Decide(b, grid.Coord{X: 2, Y: 3}, 0))
	assert.Equal(t, agents.ActionStay, p.Decide(b, grid.Coord{X: 2, Y: 0}, 0))
}

func TestEntropyGreedyDegenerateFallsBackToRandom(t *testing.T) {
	b, err := belief.New(3)
	require.NoError(t, err)
	b.UpdateWithObservation(grid.Coord{X: 1, Y: 1}, 3, false)
	require.True(t, b.Degenerate())

	p := NewEntropyGreedy(3, 3, 0, chance.NewSeeded(1))
	for i := 0; i < 50; i++ {
		a := p.Decide(b, grid.Coord{X: 1, Y: 1}, 0)
		assert.True(t, a >= agents.ActionStay && a <= agents.ActionRight)
	}
}

func TestEntropyGreedyPeriodicCommunication(t *testing.T) {
	b, err := belief.New(5)
	require.NoError(t, err)

	p := NewEntropyGreedy(5, 3, 4, chance.NewSeeded(1))

	var comms int
	for i := 0; i < 12; i++ {
		if p.Decide(b, grid.Coord{X: 2, Y: 2}, 0) == agents.ActionCommunicate {
			comms++
		}
	}
	assert.Equal(t, 3, comms, "every 4th decision broadcasts")
}
