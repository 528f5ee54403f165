// Package sqlite indexes action records in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"thorplan/internal/app/ports"
	"thorplan/internal/domain/world"
)

type ActionRecordRepo struct {
	db *sql.DB
}

// Open creates the file and schema when missing. Use ":memory:" for a
// throwaway database.
func Open(path string) (*ActionRecordRepo, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ActionRecordRepo{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS action_records (
  scene_number INTEGER NOT NULL,
  action_counter INTEGER NOT NULL,
  cycle_id TEXT NOT NULL DEFAULT '',
  action_name TEXT NOT NULL,
  problem TEXT NOT NULL,
  problem_path TEXT NOT NULL DEFAULT '',
  action_objective_id TEXT NOT NULL DEFAULT '',
  liquid TEXT NOT NULL DEFAULT '',
  outcome TEXT NOT NULL DEFAULT '',
  before_world_status TEXT NOT NULL,
  after_world_status TEXT NOT NULL,
  target_changes TEXT NOT NULL DEFAULT '[]',
  recorded_at TEXT NOT NULL,
  PRIMARY KEY (scene_number, action_counter)
);`,
		`CREATE INDEX IF NOT EXISTS action_records_problem ON action_records(problem);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (r *ActionRecordRepo) Close() error {
	return r.db.Close()
}

func (r *ActionRecordRepo) Save(ctx context.Context, rec ports.ActionRecord) error {
	changes, err := json.Marshal(rec.TargetChanges)
	if err != nil {
		return fmt.Errorf("encode target changes: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO action_records
  (scene_number, action_counter, cycle_id, action_name, problem, problem_path, action_objective_id,
   liquid, outcome, before_world_status, after_world_status, target_changes, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(scene_number, action_counter) DO NOTHING`,
		rec.SceneNumber, rec.ActionCounter, rec.CycleID, rec.ActionName, rec.Problem, rec.ProblemPath,
		rec.ActionObjectiveID, rec.Liquid, rec.Outcome, rawText(rec.BeforeWorldStatus), rawText(rec.AfterWorldStatus),
		string(changes), rec.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert action record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrConflict
	}
	return nil
}

const selectColumns = `scene_number, action_counter, cycle_id, action_name, problem, problem_path,
  action_objective_id, liquid, outcome, before_world_status, after_world_status, target_changes, recorded_at`

func (r *ActionRecordRepo) Get(ctx context.Context, scene, counter int) (ports.ActionRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM action_records WHERE scene_number=? AND action_counter=?`, scene, counter)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ActionRecord{}, ports.ErrNotFound
	}
	return rec, err
}

func (r *ActionRecordRepo) List(ctx context.Context, filter ports.RecordFilter) ([]ports.ActionRecord, error) {
	q := `SELECT ` + selectColumns + ` FROM action_records WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.SceneNumber != 0 {
		q += ` AND scene_number=?`
		args = append(args, filter.SceneNumber)
	}
	if filter.ActionName != "" {
		q += ` AND (action_name=? OR problem=?)`
		args = append(args, filter.ActionName, filter.ActionName)
	}
	q += ` ORDER BY action_counter DESC, scene_number ASC`
	if filter.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query action records: %w", err)
	}
	defer rows.Close()

	out := make([]ports.ActionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (ports.ActionRecord, error) {
	var (
		rec                 ports.ActionRecord
		before, after       string
		changes, recordedAt string
	)
	err := s.Scan(&rec.SceneNumber, &rec.ActionCounter, &rec.CycleID, &rec.ActionName, &rec.Problem, &rec.ProblemPath,
		&rec.ActionObjectiveID, &rec.Liquid, &rec.Outcome, &before, &after, &changes, &recordedAt)
	if err != nil {
		return ports.ActionRecord{}, err
	}
	rec.BeforeWorldStatus = json.RawMessage(before)
	rec.AfterWorldStatus = json.RawMessage(after)
	var paths []world.ChangePath
	if err := json.Unmarshal([]byte(changes), &paths); err != nil {
		return ports.ActionRecord{}, fmt.Errorf("decode target changes: %w", err)
	}
	rec.TargetChanges = paths
	if t, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
		rec.RecordedAt = t
	}
	return rec, nil
}

func rawText(b json.RawMessage) string {
	if len(b) == 0 {
		return "null"
	}
	return string(b)
}
