// Package ledger provides the SQLite-backed ledger store: the singleton
// request balance plus the two append-only audit logs.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/vibercizing/vibercizing/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS balance (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	requests_earned INTEGER NOT NULL DEFAULT 0,
	requests_spent INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS exercise_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	exercise_type TEXT NOT NULL,
	reps_completed INTEGER NOT NULL,
	requests_awarded INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS request_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	requests_deducted INTEGER NOT NULL DEFAULT 1,
	blocked INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
`

// Store persists ledger state in SQLite. The mutex serializes every
// read-modify-write against the balance row so that two concurrent
// debits against a balance of one cannot both succeed.
type Store struct {
	mu    sync.Mutex
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the ledger store at path, creating the schema and the
// singleton balance row when missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := sqlDB.Exec(
		`INSERT OR IGNORE INTO balance (id, requests_earned, requests_spent, updated_at) VALUES (1, 0, 0, ?)`,
		toMillis(time.Now()),
	); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("seed balance row: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping checks database availability.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

// Balance returns the current balance. Available is derived as
// earned minus spent.
func (s *Store) Balance(ctx context.Context) (domain.Balance, error) {
	if err := ctx.Err(); err != nil {
		return domain.Balance{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT requests_earned, requests_spent FROM balance WHERE id = 1`,
	)

	var earned, spent int
	if err := row.Scan(&earned, &spent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Balance{}, nil
		}
		return domain.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return domain.Balance{
		RequestsAvailable: earned - spent,
		RequestsEarned:    earned,
		RequestsSpent:     spent,
	}, nil
}

// CreditRequests increases the earned counter by amount.
func (s *Store) CreditRequests(ctx context.Context, amount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount <= 0 {
		return domain.ErrInvalidCreditAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE balance SET requests_earned = requests_earned + ?, updated_at = ? WHERE id = 1`,
		amount,
		toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("credit requests: %w", err)
	}
	return nil
}

// DebitOneRequest atomically attempts to spend one request. It returns
// true when the debit succeeded and false when it was refused for
// insufficient balance. Every call appends exactly one request_log row,
// refusals included.
func (s *Store) DebitOneRequest(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin debit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(
		ctx,
		`SELECT requests_earned, requests_spent FROM balance WHERE id = 1`,
	)
	var earned, spent int
	if err := row.Scan(&earned, &spent); err != nil {
		return false, fmt.Errorf("read balance for debit: %w", err)
	}

	now := toMillis(time.Now())
	available := earned - spent
	if available <= 0 {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO request_log (requests_deducted, blocked, created_at) VALUES (1, 1, ?)`,
			now,
		); err != nil {
			return false, fmt.Errorf("log blocked attempt: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("commit blocked attempt: %w", err)
		}
		return false, nil
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE balance SET requests_spent = requests_spent + 1, updated_at = ? WHERE id = 1`,
		now,
	); err != nil {
		return false, fmt.Errorf("debit request: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO request_log (requests_deducted, blocked, created_at) VALUES (1, 0, ?)`,
		now,
	); err != nil {
		return false, fmt.Errorf("log debit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit debit: %w", err)
	}
	return true, nil
}

// LogExercise appends one exercise completion record.
func (s *Store) LogExercise(ctx context.Context, exerciseType string, reps, requestsAwarded int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	exerciseType = strings.TrimSpace(exerciseType)
	if exerciseType == "" {
		return fmt.Errorf("exercise type is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO exercise_log (exercise_type, reps_completed, requests_awarded, created_at) VALUES (?, ?, ?, ?)`,
		exerciseType,
		reps,
		requestsAwarded,
		toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("log exercise: %w", err)
	}
	return nil
}

// ExerciseHistory returns all exercise completions, newest first.
func (s *Store) ExerciseHistory(ctx context.Context) ([]domain.ExerciseLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, exercise_type, reps_completed, requests_awarded, created_at
		   FROM exercise_log
		  ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("exercise history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.ExerciseLogEntry, 0)
	for rows.Next() {
		var entry domain.ExerciseLogEntry
		var createdAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.ExerciseType,
			&entry.RepsCompleted,
			&entry.RequestsAwarded,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("exercise history: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exercise history: %w", err)
	}
	return entries, nil
}

// RequestHistory returns all deduction attempts, newest first.
func (s *Store) RequestHistory(ctx context.Context) ([]domain.RequestLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, requests_deducted, blocked, created_at
		   FROM request_log
		  ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("request history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.RequestLogEntry, 0)
	for rows.Next() {
		var entry domain.RequestLogEntry
		var blocked int
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.RequestsDeducted, &blocked, &createdAt); err != nil {
			return nil, fmt.Errorf("request history: %w", err)
		}
		entry.Blocked = blocked != 0
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("request history: %w", err)
	}
	return entries, nil
}

// Reset zeroes the balance and deletes both logs. Irreversible.
func (s *Store) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE balance SET requests_earned = 0, requests_spent = 0, updated_at = ? WHERE id = 1`,
		toMillis(time.Now()),
	); err != nil {
		return fmt.Errorf("reset balance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM exercise_log`); err != nil {
		return fmt.Errorf("reset exercise log: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM request_log`); err != nil {
		return fmt.Errorf("reset request log: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}
