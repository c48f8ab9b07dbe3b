// Package config provides the simulation parameter set, JSON file
// loading, and construction-time validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds every tunable the simulation consumes.
type Config struct {
	GridSize           int     `json:"gridSize"`
	WindowSize         int     `json:"windowSize"`
	NumDrones          int     `json:"numDrones"`
	Dt                 float64 `json:"dt"`
	MaxSimulationTime  float64 `json:"maxSimulationTime"`
	CommunicationCost  float64 `json:"communicationCost"`
	MovementCost       float64 `json:"movementCost"`
	CommunicationNoise float64 `json:"communicationNoise"`
	CommunicateEvery   int     `json:"communicateEvery"`
	Seed               int64   `json:"seed"`
	StatusInterval     int     `json:"statusInterval"`
	DBPath             string  `json:"dbPath"`
	APIPort            int     `json:"apiPort"`
}

// Default returns the baseline configuration used by the demo driver.
func Default() Config {
	return Config{
		GridSize:           10,
		WindowSize:         3,
		NumDrones:          2,
		Dt:                 0.05,
		MaxSimulationTime:  10,
		CommunicationCost:  0.5,
		MovementCost:       0.1,
		CommunicationNoise: 0.05,
		CommunicateEvery:   20,
		Seed:               0,
		StatusInterval:     20,
		DBPath:             "data/firesearch.db",
		APIPort:            8080,
	}
}

// Load reads a JSON config file, layered over the defaults so partial
// files stay valid.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects parameter sets the simulation cannot run with.
// Errors here are construction errors; nothing is deferred to mid-episode.
func (c Config) Validate() error {
	if c.GridSize <= 0 {
		return fmt.Errorf("config: gridSize must be positive, got %d", c.GridSize)
	}
	if c.WindowSize <= 0 || c.WindowSize > c.GridSize {
		return fmt.Errorf("config: windowSize %d outside (0, %d]", c.WindowSize, c.GridSize)
	}
	if c.WindowSize%2 == 0 {
		return fmt.Errorf("config: windowSize must be odd, got %d", c.WindowSize)
	}
	if c.NumDrones <= 0 {
		return fmt.Errorf("config: numDrones must be positive, got %d", c.NumDrones)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.MaxSimulationTime <= 0 {
		return fmt.Errorf("config: maxSimulationTime must be positive, got %g", c.MaxSimulationTime)
	}
	if c.CommunicationNoise < 0 || c.CommunicationNoise > 1 {
		return fmt.Errorf("config: communicationNoise %g outside [0, 1]", c.CommunicationNoise)
	}
	if c.CommunicationCost < 0 || c.MovementCost < 0 {
		return fmt.Errorf("config: costs must be non-negative")
	}
	return nil
}
