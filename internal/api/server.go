// Package api serves a read-only HTTP view of a running episode.
// Every endpoint is GET and works on between-tick snapshots; nothing
// here can mutate simulation state.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emberwatch/firesearch/internal/engine"
	"github.com/emberwatch/firesearch/internal/persistence"
)

// Server serves episode state over HTTP.
type Server struct {
	Runner *engine.Runner
	DB     *persistence.DB // Optional; enables /api/v1/episodes.
	Port   int
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/drones", s.handleDrones)
	mux.HandleFunc("/api/v1/belief/", s.handleBelief)
	mux.HandleFunc("/api/v1/metrics", s.handleMetrics)
	mux.HandleFunc("/api/v1/episodes", s.handleEpisodes)

	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("api server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api server failed", "error", err)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response failed", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Runner.Snapshot())
}

func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Runner.Snapshot().Drones)
}

// handleBelief serves one drone's belief grid: /api/v1/belief/{id}.
func (s *Server) handleBelief(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/belief/")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "bad drone id", http.StatusBadRequest)
		return
	}
	cells := s.Runner.BeliefGrid(id)
	if cells == nil {
		http.Error(w, "unknown drone", http.StatusNotFound)
		return
	}
	snap := s.Runner.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"drone_id":  id,
		"grid_size": snap.GridSize,
		"cells":     cells,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Runner.Metrics())
}

// handleEpisodes serves stored episode summaries from the database.
func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "no episode store", http.StatusNotFound)
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			limit = n
		}
	}
	rows, err := s.DB.ListEpisodes(limit)
	if err != nil {
		slog.Error("list episodes failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
