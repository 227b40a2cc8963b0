// Package sqlite is the SQLite-backed formula-result cache.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/promptpack/internal/cache"
)

// Store is a SQLite implementation of cache.Store.
type Store struct {
	db *sql.DB
}

var _ cache.Store = (*Store)(nil)

// New opens (or creates) the cache database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS formula_results (
			id TEXT PRIMARY KEY,
			formula TEXT NOT NULL,
			params_hash TEXT NOT NULL,
			result TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_formula_results_key
			ON formula_results(formula, params_hash)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a live cached result. Expired rows are evicted lazily.
func (s *Store) Get(ctx context.Context, formula, paramsHash string) (json.RawMessage, bool, error) {
	var result string
	var expiresAt time.Time

	err := s.db.QueryRowContext(ctx,
		`SELECT result, expires_at FROM formula_results WHERE formula = ? AND params_hash = ?`,
		formula, paramsHash,
	).Scan(&result, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query cache: %w", err)
	}

	if time.Now().After(expiresAt) {
		_, _ = s.db.ExecContext(ctx,
			`DELETE FROM formula_results WHERE formula = ? AND params_hash = ?`,
			formula, paramsHash)
		return nil, false, nil
	}

	return json.RawMessage(result), true, nil
}

// Put stores a result, replacing any existing entry for the same key.
func (s *Store) Put(ctx context.Context, formula, paramsHash string, result json.RawMessage, ttl time.Duration) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO formula_results (id, formula, params_hash, result, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(formula, params_hash) DO UPDATE SET
			result = excluded.result,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		uuid.New().String(), formula, paramsHash, string(result), now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
