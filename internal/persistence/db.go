// Package persistence provides SQLite-based storage of episode results,
// per-tick metrics, and drone trajectories for post-hoc analysis.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/emberwatch/firesearch/internal/agents"
	"github.com/emberwatch/firesearch/internal/config"
	"github.com/emberwatch/firesearch/internal/engine"
)

// DB wraps a SQLite connection for episode storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS episodes (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		fire_x INTEGER NOT NULL,
		fire_y INTEGER NOT NULL,
		ticks INTEGER NOT NULL,
		extinguished INTEGER NOT NULL,
		time_to_extinguish REAL,
		extinguished_by INTEGER,
		total_cost REAL NOT NULL,
		total_communications INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ticks (
		episode_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		cost REAL NOT NULL,
		mean_entropy REAL NOT NULL,
		communications INTEGER NOT NULL,
		extinguished INTEGER NOT NULL,
		PRIMARY KEY (episode_id, tick)
	);

	CREATE TABLE IF NOT EXISTS trajectory (
		episode_id TEXT NOT NULL,
		drone_id INTEGER NOT NULL,
		step INTEGER NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		fire_found INTEGER NOT NULL,
		time REAL NOT NULL,
		PRIMARY KEY (episode_id, drone_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_ticks_episode ON ticks(episode_id);
	CREATE INDEX IF NOT EXISTS idx_trajectory_episode ON trajectory(episode_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveEpisode writes a finished episode, its tick metrics, and the full
// drone trajectories in one transaction.
func (db *DB) SaveEpisode(res engine.Result, cfg config.Config, firePos [2]int, metrics []engine.TickMetric, drones []*agents.Drone) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO episodes
		(id, config_json, fire_x, fire_y, ticks, extinguished, time_to_extinguish, extinguished_by, total_cost, total_communications)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.EpisodeID.String(), string(cfgJSON), firePos[0], firePos[1],
		res.Ticks, res.Extinguished, res.TimeToExtinguish, res.ExtinguishedBy,
		res.TotalCost, res.TotalCommunications,
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}

	for _, m := range metrics {
		_, err := tx.Exec(`INSERT INTO ticks
			(episode_id, tick, cost, mean_entropy, communications, extinguished)
			VALUES (?, ?, ?, ?, ?, ?)`,
			res.EpisodeID.String(), m.Tick, m.Cost, m.MeanEntropy, m.Communications, m.Extinguished,
		)
		if err != nil {
			return fmt.Errorf("insert tick %d: %w", m.Tick, err)
		}
	}

	for _, d := range drones {
		for step, s := range d.History {
			_, err := tx.Exec(`INSERT INTO trajectory
				(episode_id, drone_id, step, x, y, fire_found, time)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				res.EpisodeID.String(), d.ID, step, s.X, s.Y, s.FireFound, s.Time,
			)
			if err != nil {
				return fmt.Errorf("insert trajectory drone %d step %d: %w", d.ID, step, err)
			}
		}
	}

	return tx.Commit()
}

// EpisodeRow is one stored episode summary.
type EpisodeRow struct {
	ID                  string   `db:"id" json:"id"`
	FireX               int      `db:"fire_x" json:"fire_x"`
	FireY               int      `db:"fire_y" json:"fire_y"`
	Ticks               int      `db:"ticks" json:"ticks"`
	Extinguished        bool     `db:"extinguished" json:"extinguished"`
	TimeToExtinguish    *float64 `db:"time_to_extinguish" json:"time_to_extinguish,omitempty"`
	ExtinguishedBy      *int     `db:"extinguished_by" json:"extinguished_by,omitempty"`
	TotalCost           float64  `db:"total_cost" json:"total_cost"`
	TotalCommunications int      `db:"total_communications" json:"total_communications"`
}

// ListEpisodes returns stored episode summaries, newest insertion first.
func (db *DB) ListEpisodes(limit int) ([]EpisodeRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []EpisodeRow
	err := db.conn.Select(&rows, `SELECT
		id, fire_x, fire_y, ticks, extinguished, time_to_extinguish, extinguished_by, total_cost, total_communications
		FROM episodes ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	return rows, nil
}

// LoadTrajectory returns one drone's stored history for an episode, in
// step order.
func (db *DB) LoadTrajectory(episodeID string, droneID int) ([]agents.Snapshot, error) {
	type row struct {
		X         int     `db:"x"`
		Y         int     `db:"y"`
		FireFound bool    `db:"fire_found"`
		Time      float64 `db:"time"`
	}
	var rows []row
	err := db.conn.Select(&rows, `SELECT x, y, fire_found, time FROM trajectory
		WHERE episode_id = ? AND drone_id = ? ORDER BY step`, episodeID, droneID)
	if err != nil {
		return nil, fmt.Errorf("load trajectory: %w", err)
	}
	out := make([]agents.Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, agents.Snapshot{X: r.X, Y: r.Y, FireFound: r.FireFound, Time: r.Time})
	}
	return out, nil
}
