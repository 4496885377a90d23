// Package store persists conversion runs and their per-rule results in
// PostgreSQL so repeated runs over a rule corpus can be compared over time.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/detectlab/sigma2xql/internal/batch"
)

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle, for tests.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// RunMigrations executes all SQL files in the given directory in
// lexicographic order. Each file may contain multiple statements separated
// by ';'.
func (s *Store) RunMigrations(dir string) error {
	entries := make([]string, 0)
	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			entries = append(entries, path)
		}
		return nil
	}
	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return err
	}
	sort.Strings(entries)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, p := range entries {
		b, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", p, err)
		}
		for _, c := range strings.Split(string(b), ";") {
			stmt := strings.TrimSpace(c)
			if stmt == "" {
				continue
			}
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec migration %s: %w", p, err)
			}
		}
	}
	return nil
}

// BeginRun inserts a run row and returns its id.
func (s *Store) BeginRun(ctx context.Context, pipelineName, rulesDir string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO conversion_runs(pipeline, rules_dir, started_at)
		 VALUES ($1, $2, now()) RETURNING id`,
		pipelineName, rulesDir,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// RecordResult persists one rule outcome for the run.
func (s *Store) RecordResult(ctx context.Context, runID int64, res batch.Result) error {
	var errText sql.NullString
	if res.Err != nil {
		errText = sql.NullString{String: res.Err.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversion_results(run_id, rule_path, rule_uid, title, level, query, error, warning_count, elapsed_us)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		runID, res.Path, res.RuleID, res.Title, res.Level, res.Query, errText,
		len(res.Warnings), res.Elapsed.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("record result %s: %w", res.Path, err)
	}
	return nil
}

// FinishRun stamps the run with its totals.
func (s *Store) FinishRun(ctx context.Context, runID int64, sum batch.Summary) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE conversion_runs
		 SET finished_at = now(), total = $2, converted = $3, failed = $4
		 WHERE id = $1`,
		runID, sum.Total, sum.Converted, sum.Failed,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	return nil
}
