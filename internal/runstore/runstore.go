// Package runstore persists fragility-map runs to SQLite: one row per
// run carrying its scenario label and summary statistics, one row per
// recorded fragile region. Grounded on
// kibbyd-adaptive-state/go-controller/internal/state/store.go's
// schema-in-const + database/sql + modernc.org/sqlite + google/uuid
// shape.
package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/fragility/internal/fragility"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	scenario         TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	max_score        REAL NOT NULL,
	mean_score       REAL NOT NULL,
	fragile_fraction REAL NOT NULL,
	total_points     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fragile_regions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	coords_json  TEXT NOT NULL,
	score        REAL NOT NULL,
	curvature    REAL NOT NULL,
	grad_norm    REAL NOT NULL,
	near_constraint INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// Store manages persisted fragility runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunRecord is a persisted fragility-map run summary.
type RunRecord struct {
	RunID           string
	Scenario        string
	CreatedAt       time.Time
	Max             float64
	Mean            float64
	FragileFraction float64
	TotalPoints     int
}

// SaveRun persists m's statistics and fragile-region list under the
// given scenario label, returning the generated run ID.
func (s *Store) SaveRun(scenarioLabel string, m *fragility.Map) (string, error) {
	if !m.Computed() {
		return "", fmt.Errorf("runstore: map has not been computed")
	}

	runID := uuid.New().String()
	now := time.Now().UTC()
	stats := m.Statistics()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, scenario, created_at, max_score, mean_score, fragile_fraction, total_points)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, scenarioLabel, now.Format("2006-01-02T15:04:05.000000000Z07:00"), stats.Max, stats.Mean, stats.FragileFraction, len(m.Scores()),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i := 0; i < m.NumFragileRegions(); i++ {
		p, pErr := m.GetRegion(i)
		if pErr != nil {
			return "", fmt.Errorf("get region %d: %w", i, pErr)
		}
		coordsJSON, jErr := json.Marshal(p.Coords)
		if jErr != nil {
			return "", fmt.Errorf("marshal coords: %w", jErr)
		}
		_, err = tx.Exec(
			`INSERT INTO fragile_regions (run_id, coords_json, score, curvature, grad_norm, near_constraint)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, string(coordsJSON), p.Score, p.Curvature, p.GradientNorm, boolToInt(p.NearConstraint),
		)
		if err != nil {
			return "", fmt.Errorf("insert region: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// GetRun retrieves a run's summary by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	var createdStr string
	err := s.db.QueryRow(
		`SELECT run_id, scenario, created_at, max_score, mean_score, fragile_fraction, total_points
		 FROM runs WHERE run_id = ?`, runID,
	).Scan(&rec.RunID, &rec.Scenario, &createdStr, &rec.Max, &rec.Mean, &rec.FragileFraction, &rec.TotalPoints)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, scenario, created_at, max_score, mean_score, fragile_fraction, total_points
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.Scenario, &createdStr, &rec.Max, &rec.Mean, &rec.FragileFraction, &rec.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FragileRegionRecord is a persisted fragile-point row.
type FragileRegionRecord struct {
	Coords        []float64
	Score         float64
	Curvature     float64
	GradientNorm  float64
	NearConstraint bool
}

// ListRegions returns the fragile regions recorded for a run.
func (s *Store) ListRegions(runID string) ([]FragileRegionRecord, error) {
	rows, err := s.db.Query(
		`SELECT coords_json, score, curvature, grad_norm, near_constraint
		 FROM fragile_regions WHERE run_id = ? ORDER BY score DESC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var records []FragileRegionRecord
	for rows.Next() {
		var rec FragileRegionRecord
		var coordsJSON string
		var nearConstraint int
		if err := rows.Scan(&coordsJSON, &rec.Score, &rec.Curvature, &rec.GradientNorm, &nearConstraint); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		if err := json.Unmarshal([]byte(coordsJSON), &rec.Coords); err != nil {
			return nil, fmt.Errorf("unmarshal coords: %w", err)
		}
		rec.NearConstraint = nearConstraint != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
