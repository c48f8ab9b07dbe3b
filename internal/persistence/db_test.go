package persistence

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/config"
	"github.com/emberwatch/firesearch/internal/engine"
	"github.com/emberwatch/firesearch/internal/grid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndListEpisodes(t *testing.T) {
	db := openTestDB(t)

	d, err := agents.NewDrone(0, 5, 3, grid.Coord{X: 0, Y: 0}, 0.05)
	require.NoError(t, err)
	_, err = d.Act(agents.ActionRight, grid.Coord{X: 4, Y: 4})
	require.NoError(t, err)

	tte := 0.10
	by := 0
	res := engine.Result{
		EpisodeID:           uuid.New(),
		Ticks:               2,
		Extinguished:        true,
		TimeToExtinguish:    &tte,
		ExtinguishedBy:      &by,
		TotalCost:           1.5,
		TotalCommunications: 3,
	}
	metrics := []engine.TickMetric{
		{Tick: 1, Cost: 0.5, MeanEntropy: 2.1, Communications: 1},
		{Tick: 2, Cost: 1.0, MeanEntropy: 1.3, Communications: 3, Extinguished: true},
	}

	require.NoError(t, db.SaveEpisode(res, config.Default(), [2]int{4, 4}, metrics, []*agents.Drone{d}))

	rows, err := db.ListEpisodes(10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, res.EpisodeID.String(), got.ID)
	assert.Equal(t, 4, got.FireX)
	assert.Equal(t, 4, got.FireY)
	assert.Equal(t, 2, got.Ticks)
	assert.True(t, got.Extinguished)
	require.NotNil(t, got.TimeToExtinguish)
	assert.InDelta(t, 0.10, *got.TimeToExtinguish, 1e-9)
	require.NotNil(t, got.ExtinguishedBy)
	assert.Equal(t, 0, *got.ExtinguishedBy)
	assert.InDelta(t, 1.5, got.TotalCost, 1e-9)
	assert.Equal(t, 3, got.TotalCommunications)
}

func TestLoadTrajectoryRoundTrip(t *testing.T) {
	db := openTestDB(t)

	d, err := agents.NewDrone(2, 5, 3, grid.Coord{X: 1, Y: 1}, 0.05)
	require.NoError(t, err)
	fire := grid.Coord{X: 4, Y: 4}
	for _, a := range []agents.ActionID{agents.ActionRight, agents.ActionUp, agents.ActionStay} {
		_, err := d.Act(a, fire)
		require.NoError(t, err)
	}

	res := engine.Result{EpisodeID: uuid.New(), Ticks: 3}
	require.NoError(t, db.SaveEpisode(res, config.Default(), [2]int{4, 4}, nil, []*agents.Drone{d}))

	traj, err := db.LoadTrajectory(res.EpisodeID.String(), 2)
	require.NoError(t, err)
	require.Len(t, traj, 4, "initial snapshot plus one per action")
	assert.Equal(t, d.History, traj)
}

func TestLoadTrajectoryUnknownEpisode(t *testing.T) {
	db := openTestDB(t)
	traj, err := db.LoadTrajectory("missing", 0)
	require.NoError(t, err)
	assert.Empty(t, traj)
}

func TestListEpisodesNewestFirst(t *testing.T) {
	db := openTestDB(t)

	first := engine.Result{EpisodeID: uuid.New()}
	second := engine.Result{EpisodeID: uuid.New()}
	require.NoError(t, db.SaveEpisode(first, config.Default(), [2]int{0, 0}, nil, nil))
	require.NoError(t, db.SaveEpisode(second, config.Default(), [2]int{0, 0}, nil, nil))

	rows, err := db.ListEpisodes(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.EpisodeID.String(), rows[0].ID)
	assert.Equal(t, first.EpisodeID.String(), rows[1].ID)
}
