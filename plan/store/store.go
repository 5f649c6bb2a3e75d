// Package store provides SQLite-based archiving of planning runs.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/beam-planning/beamplan/plan"
)

// DB wraps a SQLite connection for the run archive.
type DB struct {
	conn *sqlx.DB
}

// Run is the header of one archived planning run.
type Run struct {
	ID           string `db:"id"`
	ScenarioPath string `db:"scenario_path"`
	CreatedUnix  int64  `db:"created_unix"`
	Satellites   int    `db:"satellites"`
	Users        int    `db:"users"`
	Interferers  int    `db:"interferers"`
	Assigned     int    `db:"assigned"`
	Interference int    `db:"interference"`
	ConfigYAML   string `db:"config_yaml"`
}

// CreatedAt returns the run creation time.
func (r Run) CreatedAt() time.Time {
	return time.Unix(0, r.CreatedUnix)
}

type recordRow struct {
	RunID string `db:"run_id"`
	Seq   int    `db:"seq"`
	Kind  string `db:"kind"`
	Sat   string `db:"sat"`
	Beam  int    `db:"beam"`
	User  string `db:"user_id"`
	Color string `db:"color"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
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
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario_path TEXT NOT NULL,
		created_unix INTEGER NOT NULL,
		satellites INTEGER NOT NULL,
		users INTEGER NOT NULL,
		interferers INTEGER NOT NULL,
		assigned INTEGER NOT NULL,
		interference INTEGER NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		sat TEXT NOT NULL,
		beam INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		color TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_unix);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a run header and its output records in one transaction.
func (db *DB) SaveRun(run Run, records []plan.Record) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExec(`INSERT INTO runs
		(id, scenario_path, created_unix, satellites, users, interferers, assigned, interference, config_yaml)
		VALUES (:id, :scenario_path, :created_unix, :satellites, :users, :interferers, :assigned, :interference, :config_yaml)`,
		run); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareNamed(`INSERT INTO records (run_id, seq, kind, sat, beam, user_id, color)
		VALUES (:run_id, :seq, :kind, :sat, :beam, :user_id, :color)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		row := recordRow{RunID: run.ID, Seq: i, Kind: r.Kind.String(), Sat: r.Sat, Beam: r.Beam, User: r.User}
		if r.Kind == plan.RecordAssigned {
			row.Color = r.Color.String()
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("insert record %d of run %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT * FROM runs ORDER BY created_unix DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var runs []Run
	if err := db.conn.Select(&runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run header.
func (db *DB) GetRun(id string) (Run, error) {
	var run Run
	if err := db.conn.Get(&run, `SELECT * FROM runs WHERE id = ?`, id); err != nil {
		return run, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// LoadRecords returns the output records of a run in emission order.
func (db *DB) LoadRecords(runID string) ([]plan.Record, error) {
	var rows []recordRow
	if err := db.conn.Select(&rows, `SELECT * FROM records WHERE run_id = ? ORDER BY seq`, runID); err != nil {
		return nil, fmt.Errorf("load records of run %s: %w", runID, err)
	}

	records := make([]plan.Record, 0, len(rows))
	for _, row := range rows {
		kind, err := plan.ParseRecordKind(row.Kind)
		if err != nil {
			return nil, err
		}
		r := plan.Record{Kind: kind, Sat: row.Sat, Beam: row.Beam, User: row.User}
		if kind == plan.RecordAssigned {
			if r.Color, err = plan.ParseColor(row.Color); err != nil {
				return nil, err
			}
		}
		records = append(records, r)
	}
	return records, nil
}
