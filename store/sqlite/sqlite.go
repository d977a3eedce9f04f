/*
Package sqlite provides the SQLite-backed run-result store.

PURPOSE:
  Persists each finished run's output tables for audit and for the API.
  Results are append-only: a run is written once and never updated; a
  recomputation is simply a new run.

KEY TABLES:
  runs:             One row per pipeline execution, with the full result
                    document as JSON for cheap retrieval
  baselines:        Per-person baseline rows, queryable per run
  synergy:          Pair and group uplift rows ('pair'/'group' kind)
  role_scores:      Six-way affinity rows
  role_assignments: Awarded roles

WAL MODE:
  Opened with WAL so readers (the API) never block the writer (a run
  finishing).

USAGE:
  st, err := sqlite.New("./consortium.db")
  if err != nil { ... }
  defer st.Close()

SEE ALSO:
  - ../store.go: Interface definition
  - ../memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		mint TEXT NOT NULL,
		burn TEXT NOT NULL,
		net TEXT NOT NULL,
		team_members TEXT NOT NULL,
		team_score TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS baselines (
		run_id TEXT NOT NULL REFERENCES runs(id),
		person_id TEXT NOT NULL,
		base_rate_per_min TEXT NOT NULL,
		source TEXT NOT NULL,
		solo_events INTEGER NOT NULL,
		bucket_events INTEGER NOT NULL,
		total_events INTEGER NOT NULL,
		PRIMARY KEY (run_id, person_id)
	);

	CREATE TABLE IF NOT EXISTS synergy (
		run_id TEXT NOT NULL REFERENCES runs(id),
		kind TEXT NOT NULL CHECK (kind IN ('pair', 'group')),
		members TEXT NOT NULL,
		uplift_per_min TEXT NOT NULL,
		partitions TEXT NOT NULL,
		PRIMARY KEY (run_id, kind, members)
	);

	CREATE INDEX IF NOT EXISTS idx_synergy_run_kind
		ON synergy(run_id, kind);

	CREATE TABLE IF NOT EXISTS role_scores (
		run_id TEXT NOT NULL REFERENCES runs(id),
		person_id TEXT NOT NULL,
		rainmaker TEXT NOT NULL,
		closer TEXT NOT NULL,
		operator TEXT NOT NULL,
		builder TEXT NOT NULL,
		connector TEXT NOT NULL,
		controller TEXT NOT NULL,
		PRIMARY KEY (run_id, person_id)
	);

	CREATE TABLE IF NOT EXISTS role_assignments (
		run_id TEXT NOT NULL REFERENCES runs(id),
		person_id TEXT NOT NULL,
		primary_role TEXT NOT NULL,
		secondary_role TEXT,
		PRIMARY KEY (run_id, person_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun persists one run atomically: the runs row plus every
// structured result row.
func (s *Store) SaveRun(ctx context.Context, run *store.Run) error {
	doc, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	summary := run.Result.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, period_start, period_end, mint, burn, net, team_members, team_score, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		summary.Period.Start.String(),
		summary.Period.End.String(),
		summary.Mint.String(),
		summary.Burn.String(),
		summary.Net.String(),
		run.Result.Team.Members.Key(),
		run.Result.Team.Score.String(),
		string(doc),
	)
	if err != nil {
		return err
	}

	for _, b := range run.Result.Baselines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO baselines (run_id, person_id, base_rate_per_min, source, solo_events, bucket_events, total_events)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, string(b.PersonID), b.RatePerMin.String(), b.Source.String(),
			b.SoloEvents, b.BucketEvents, b.TotalEvents,
		); err != nil {
			return err
		}
	}

	insertSynergy := func(kind string, records []engine.SynergyRecord) error {
		for _, rec := range records {
			parts := ""
			for i, p := range rec.Partitions {
				if i > 0 {
					parts += ";"
				}
				parts += p.String()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO synergy (run_id, kind, members, uplift_per_min, partitions)
				VALUES (?, ?, ?, ?, ?)`,
				run.ID, kind, rec.Members.Key(), rec.Uplift.String(), parts,
			); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insertSynergy("pair", run.Result.Synergy.Pairs); err != nil {
		return err
	}
	if err := insertSynergy("group", run.Result.Synergy.Groups); err != nil {
		return err
	}

	for _, sc := range run.Result.RoleScores {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_scores (run_id, person_id, rainmaker, closer, operator, builder, connector, controller)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, string(sc.PersonID),
			sc.Rainmaker.String(), sc.Closer.String(), sc.Operator.String(),
			sc.Builder.String(), sc.Connector.String(), sc.Controller.String(),
		); err != nil {
			return err
		}
	}

	for _, a := range run.Result.Assignments {
		var secondary sql.NullString
		if a.Secondary != nil {
			secondary = sql.NullString{String: string(*a.Secondary), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_assignments (run_id, person_id, primary_role, secondary_role)
			VALUES (?, ?, ?, ?)`,
			run.ID, string(a.PersonID), string(a.Primary), secondary,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (*store.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, result_json FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun loads the most recently saved run.
func (s *Store) LatestRun(ctx context.Context) (*store.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, result_json FROM runs ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanRun(row)
}

// ListRuns returns run metadata, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]store.RunMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, period_start, period_end, team_members, team_score
		FROM runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []store.RunMeta
	for rows.Next() {
		var m store.RunMeta
		var createdAt string
		if err := rows.Scan(&m.ID, &createdAt, &m.PeriodStart, &m.PeriodEnd, &m.TeamMembers, &m.TeamScore); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("bad created_at for run %s: %w", m.ID, err)
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func scanRun(row *sql.Row) (*store.Run, error) {
	var run store.Run
	var createdAt, doc string
	if err := row.Scan(&run.ID, &createdAt, &doc); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrRunNotFound
		}
		return nil, err
	}
	var err error
	if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at for run %s: %w", run.ID, err)
	}
	var res engine.Result
	if err := json.Unmarshal([]byte(doc), &res); err != nil {
		return nil, fmt.Errorf("bad result document for run %s: %w", run.ID, err)
	}
	run.Result = &res
	return &run, nil
}
