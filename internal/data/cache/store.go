package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"vtschooldata/internal/core/enrollment"
	"vtschooldata/internal/core/ports"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store persists tidied records per (year, variant) so repeated
// fetches of already-published years skip the provider entirely.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

var _ ports.RecordCache = (*Store)(nil)

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("cache path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("cache path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when parallel year
	// fetches write through concurrently.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite cache %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Get returns the cached records for (year, variant) in their original
// order, or ok=false when the pair was never cached.
func (s *Store) Get(ctx context.Context, year int, variant enrollment.Variant) ([]enrollment.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load cached records", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT year, school_id, school_name, grade, category, count
FROM records
WHERE year = ? AND variant = ?
ORDER BY seq ASC
`, year, variant.String())
		return qErr
	})
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	records := make([]enrollment.Record, 0)
	for rows.Next() {
		var rec enrollment.Record
		if err := rows.Scan(&rec.Year, &rec.SchoolID, &rec.SchoolName, &rec.Grade, &rec.Category, &rec.Count); err != nil {
			return nil, false, fmt.Errorf("scan cached record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate cached records: %w", err)
	}

	if len(records) == 0 {
		return nil, false, nil
	}
	return records, true, nil
}

// Put replaces the cached records for (year, variant) atomically.
func (s *Store) Put(ctx context.Context, year int, variant enrollment.Variant, records []enrollment.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fetchedAt := time.Now().UTC().Format(time.RFC3339Nano)

	return s.withRetry("store records", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE year = ? AND variant = ?`, year, variant.String()); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO records (year, variant, seq, school_id, school_name, grade, category, count, fetched_at_utc)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for seq, rec := range records {
			if _, err := stmt.ExecContext(ctx,
				rec.Year, variant.String(), seq,
				rec.SchoolID, rec.SchoolName, rec.Grade, rec.Category, rec.Count,
				fetchedAt,
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// InvalidateYear drops every variant's cached records for a year.
func (s *Store) InvalidateYear(ctx context.Context, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("invalidate year", func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE year = ?`, year)
		return err
	})
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
