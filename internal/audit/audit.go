// Package audit keeps a persistent trail of sync runs and every decision
// taken in them.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tracker-tv/standards-sync/internal/report"
	"github.com/tracker-tv/standards-sync/models"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("audit schema version %d is not supported (want %d)", version, schemaVersion)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one run in a single transaction. Recording the same run ID
// twice replaces the earlier rows.
func (s *Store) Record(ctx context.Context, summary report.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, summary.RunID); err != nil {
		return fmt.Errorf("replace run: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, dry_run, started_at, finished_at, repositories, succeeded, failed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID, summary.DryRun,
		summary.StartedAt.UTC().Format(time.RFC3339Nano), summary.FinishedAt.UTC().Format(time.RFC3339Nano),
		summary.Totals.Repositories, summary.Totals.Succeeded, summary.Totals.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, r := range summary.Results {
		if r == nil {
			continue
		}
		if err := recordRepository(ctx, tx, summary.RunID, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit transaction: %w", err)
	}
	return nil
}

func recordRepository(ctx context.Context, tx *sql.Tx, runID string, r *models.SyncRunResult) error {
	repo := r.Repository.FullName
	_, err := tx.ExecContext(ctx,
		`INSERT INTO repository_results (run_id, repository, status, failed_stage, error_kind, error, platform, platform_source, commit_sha, pull_request)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, repo, r.Status, r.FailedStage, r.ErrorKind, r.Error, r.Platform, r.PlatformSource, r.CommitSHA, r.PullRequestURL,
	)
	if err != nil {
		return fmt.Errorf("insert result for %s: %w", repo, err)
	}

	fileResults := make(map[string]models.FileResult, len(r.Files))
	for _, f := range r.Files {
		fileResults[f.Path] = f.Result
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO decisions (run_id, repository, path, source, action, level, rule, reason, severity, conflict, file_result)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare decision insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range r.Decisions {
		_, err := stmt.ExecContext(ctx,
			runID, repo, d.Path(), d.Candidate.Source, d.Action, d.Level, d.Rule, d.Reason, d.Severity, d.IsOverrideConflict, fileResults[d.Path()],
		)
		if err != nil {
			return fmt.Errorf("insert decision %s for %s: %w", d.Path(), repo, err)
		}
	}
	return nil
}

// ConflictRecord is one stored override conflict.
type ConflictRecord struct {
	RunID      string
	Repository string
	Path       string
	Level      models.EnforcementLevel
	Reason     string
}

// Conflicts returns the override conflicts recorded for runID, or for every
// run when runID is empty.
func (s *Store) Conflicts(ctx context.Context, runID string) ([]ConflictRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, repository, path, level, reason FROM decisions
		 WHERE conflict = 1 AND (? = '' OR run_id = ?)
		 ORDER BY run_id, repository, path`, runID, runID)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	var out []ConflictRecord
	for rows.Next() {
		var c ConflictRecord
		var level string
		if err := rows.Scan(&c.RunID, &c.Repository, &c.Path, &level, &c.Reason); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		c.Level = models.EnforcementLevel(level)
		out = append(out, c)
	}
	return out, rows.Err()
}

// RepositoryHistory returns the status of repo in each recorded run, newest
// first.
func (s *Store) RepositoryHistory(ctx context.Context, repo string) ([]models.RunStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rr.status FROM repository_results rr JOIN runs r ON r.run_id = rr.run_id
		 WHERE rr.repository = ? ORDER BY r.started_at DESC`, repo)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.RunStatus
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, models.RunStatus(status))
	}
	return out, rows.Err()
}
