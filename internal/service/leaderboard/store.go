// Package leaderboard serves the score table behind /api/leaderboard from
// PostgreSQL.
package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	model "github.com/zhouzirui/htmx-playground/backend/internal/model/leaderboard"
)

// ErrUnavailable is returned by a Store that has no database behind it.
var ErrUnavailable = errors.New("leaderboard: database unavailable")

// Store reads and writes leaderboard rows.
type Store struct {
	db *sql.DB
}

// NewStore creates a store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the postgres driver, verifies the connection and runs
// migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("leaderboard: ping database: %w", err)
	}

	if err := Migrate(dsn); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// List returns every entry ordered by score descending, then id ascending.
func (s *Store) List(ctx context.Context) ([]model.Entry, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnavailable
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, score, created_at FROM leaderboard ORDER BY score DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: query: %w", err)
	}
	defer rows.Close()

	entries := make([]model.Entry, 0)
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("leaderboard: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: iterate: %w", err)
	}
	return entries, nil
}

// Add inserts a row and returns it with its generated id.
func (s *Store) Add(ctx context.Context, name string, score int64) (model.Entry, error) {
	if s == nil || s.db == nil {
		return model.Entry{}, ErrUnavailable
	}

	e := model.Entry{Name: name, Score: score}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO leaderboard (name, score) VALUES ($1, $2) RETURNING id, created_at`,
		name, score,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return model.Entry{}, fmt.Errorf("leaderboard: insert: %w", err)
	}
	return e, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
