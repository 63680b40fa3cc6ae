package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists job outcomes to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL: API 프로세스가 읽는 동안 스케줄러가 기록
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS job_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			job         TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			success     INTEGER NOT NULL,
			attempts    INTEGER NOT NULL,
			error       TEXT,
			summary     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_runs_job_started ON job_runs(job, started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Record 실행 결과 한 건 저장
func (r *SQLiteRecorder) Record(ctx context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	success := 0
	if e.Success {
		success = 1
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO job_runs
		(job, started_at, finished_at, success, attempts, error, summary)
		VALUES (?,?,?,?,?,?,?)`,
		e.Job, e.StartedAt.UnixMilli(), e.FinishedAt.UnixMilli(),
		success, e.Attempts, e.Error, e.Summary,
	)
	if err != nil {
		return fmt.Errorf("insert job run: %w", err)
	}
	return nil
}

// Recent 최근 실행 기록 (started_at 내림차순)
func (r *SQLiteRecorder) Recent(ctx context.Context, job string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT job, started_at, finished_at, success, attempts, error, summary
		FROM job_runs`
	args := []interface{}{}
	if job != "" {
		query += ` WHERE job = ?`
		args = append(args, job)
	}
	query += ` ORDER BY started_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			started, finished int64
			success           int
			errText, summary  sql.NullString
		)
		if err := rows.Scan(&e.Job, &started, &finished, &success, &e.Attempts, &errText, &summary); err != nil {
			return nil, fmt.Errorf("scan job run: %w", err)
		}
		e.StartedAt = time.UnixMilli(started).UTC()
		e.FinishedAt = time.UnixMilli(finished).UTC()
		e.Success = success == 1
		e.Error = errText.String
		e.Summary = summary.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
