package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/belief"
	"github.com/emberwatch/firesearch/internal/chance"
	"github.com/emberwatch/firesearch/internal/engine"
	"github.com/emberwatch/firesearch/internal/grid"
)

type stayPolicy struct{}

func (stayPolicy) Decide(_ *belief.State, _ grid.Coord, _ float64) agents.ActionID {
	return agents.ActionStay
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	env, err := engine.NewEnvironment(5, grid.Coord{X: 2, Y: 2}, 0.5, 0.1, 0, chance.NewSeeded(1))
	require.NoError(t, err)
	d, err := agents.NewDrone(0, 5, 3, grid.Coord{X: 0, Y: 0}, 0.05)
	require.NoError(t, err)
	r, err := engine.NewRunner(env, []*agents.Drone{d}, map[int]engine.Policy{0: stayPolicy{}}, 0.05, 1)
	require.NoError(t, err)

	return &Server{Runner: r, Port: 0}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 5, snap.GridSize)
	assert.False(t, snap.FireExtinguished)
	require.Len(t, snap.Drones, 1)
	assert.Equal(t, 0, snap.Drones[0].ID)
}

func TestHandleStatusRejectsPost(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodPost, "/api/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleBelief(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleBelief(rec, httptest.NewRequest(http.MethodGet, "/api/v1/belief/0", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		DroneID  int       `json:"drone_id"`
		GridSize int       `json:"grid_size"`
		Cells    []float64 `json:"cells"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.DroneID)
	assert.Len(t, body.Cells, 25)
}

func TestHandleBeliefUnknownDrone(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleBelief(rec, httptest.NewRequest(http.MethodGet, "/api/v1/belief/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleBeliefBadID(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleBelief(rec, httptest.NewRequest(http.MethodGet, "/api/v1/belief/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEpisodesWithoutStore(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleEpisodes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/episodes", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
