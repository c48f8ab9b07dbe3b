// Command firesim runs a decentralized multi-drone fire search episode.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/api"
	"github.com/emberwatch/firesearch/internal/chance"
	"github.com/emberwatch/firesearch/internal/config"
	"github.com/emberwatch/firesearch/internal/engine"
	"github.com/emberwatch/firesearch/internal/grid"
	"github.com/emberwatch/firesearch/internal/persistence"
	"github.com/emberwatch/firesearch/internal/policy"
	"github.com/emberwatch/firesearch/internal/terrain"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfgPath := flag.String("config", "", "path to JSON config (defaults used when empty)")
	seedFlag := flag.Int64("seed", 0, "override random seed (0 = from config, config 0 = time-based)")
	noAPI := flag.Bool("no-api", false, "disable the HTTP observation API")
	noDB := flag.Bool("no-db", false, "disable the episode store")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	}
	if *seedFlag != 0 {
		cfg.Seed = *seedFlag
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	src := chance.NewSeeded(seed)
	slog.Info("firesearch — decentralized multi-drone fire search", "seed", seed)

	// ── Episode store ─────────────────────────────────────────────────
	var db *persistence.DB
	if !*noDB {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				slog.Error("failed to create data directory", "dir", dir, "error", err)
				os.Exit(1)
			}
		}
		var err error
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("episode store opened", "path", cfg.DBPath)
	}

	// ── Ground truth ──────────────────────────────────────────────────
	fuel, err := terrain.GenerateFuel(cfg.GridSize, seed)
	if err != nil {
		slog.Error("fuel field generation failed", "error", err)
		os.Exit(1)
	}
	firePos := fuel.SampleIgnition(src)
	slog.Info("fire ignited",
		"position", firePos.String(),
		"fuel_density", fmt.Sprintf("%.4f", fuel.DensityAt(firePos)),
	)

	env, err := engine.NewEnvironment(cfg.GridSize, firePos,
		cfg.CommunicationCost, cfg.MovementCost, cfg.CommunicationNoise, src)
	if err != nil {
		slog.Error("environment setup failed", "error", err)
		os.Exit(1)
	}

	// ── Drones ────────────────────────────────────────────────────────
	drones, err := deployDrones(cfg, firePos, src)
	if err != nil {
		slog.Error("drone deployment failed", "error", err)
		os.Exit(1)
	}

	policies := make(map[int]engine.Policy, len(drones))
	for _, d := range drones {
		policies[d.ID] = policy.NewEntropyGreedy(cfg.GridSize, cfg.WindowSize, cfg.CommunicateEvery, src)
	}

	runner, err := engine.NewRunner(env, drones, policies, cfg.Dt, cfg.MaxSimulationTime)
	if err != nil {
		slog.Error("runner setup failed", "error", err)
		os.Exit(1)
	}
	runner.StatusInterval = cfg.StatusInterval

	// ── Observation API ───────────────────────────────────────────────
	if !*noAPI {
		srv := &api.Server{Runner: runner, DB: db, Port: cfg.APIPort}
		srv.Start()
	}

	// Stop cleanly on SIGINT/SIGTERM.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		slog.Info("shutdown signal received")
		runner.Stop()
	}()

	// ── Run ───────────────────────────────────────────────────────────
	res, err := runner.Run()
	if err != nil {
		slog.Error("episode failed", "error", err)
		os.Exit(1)
	}

	if db != nil {
		if err := db.SaveEpisode(res, cfg, [2]int{firePos.X, firePos.Y}, runner.Metrics(), drones); err != nil {
			slog.Error("episode save failed", "error", err)
		} else {
			slog.Info("episode saved", "episode", res.EpisodeID)
		}
	}
}

// deployDrones places drones at random cells, re-sampling any start
// that already has the fire in view or collides with another drone.
func deployDrones(cfg config.Config, firePos grid.Coord, src chance.Source) ([]*agents.Drone, error) {
	taken := map[grid.Coord]struct{}{firePos: {}}
	drones := make([]*agents.Drone, 0, cfg.NumDrones)

	for id := 0; id < cfg.NumDrones; id++ {
		var d *agents.Drone
		for attempt := 0; ; attempt++ {
			if attempt > 1000 {
				return nil, fmt.Errorf("no valid start position for drone %d", id)
			}
			start := grid.Coord{X: src.Intn(cfg.GridSize), Y: src.Intn(cfg.GridSize)}
			if _, occupied := taken[start]; occupied {
				continue
			}

			var err error
			d, err = agents.NewDrone(id, cfg.GridSize, cfg.WindowSize, start, cfg.Dt)
			if err != nil {
				return nil, err
			}
			if d.Observe(firePos) {
				continue // No freebies at t=0.
			}
			taken[start] = struct{}{}
			break
		}
		drones = append(drones, d)
	}
	return drones, nil
}
