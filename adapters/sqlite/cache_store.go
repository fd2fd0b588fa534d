// Package sqlite persists the profile cache in a local SQLite file so that
// computed profiles survive restarts of the CLI and API.
package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"goethos/internal/cache"
	"goethos/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// CacheStore implements cache.Store on a SQLite table
type CacheStore struct {
	db  *sqlx.DB
	now cache.Clock
}

var _ cache.Store = (*CacheStore)(nil)

// Open opens (creating if needed) the cache database at path. A nil clock
// uses time.Now.
func Open(ctx context.Context, path string, now cache.Clock) (*CacheStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.DatabaseError("open sqlite cache", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, errors.DatabaseError("create cache table", err)
	}

	if now == nil {
		now = time.Now
	}
	return &CacheStore{db: db, now: now}, nil
}

// Get implements cache.Store
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var row struct {
		Value     []byte `db:"value"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.DatabaseError("read cache entry", err)
	}
	if s.now().UnixNano() >= row.ExpiresAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ? AND expires_at = ?`, key, row.ExpiresAt); err != nil {
			return nil, false, errors.DatabaseError("drop expired entry", err)
		}
		return nil, false, nil
	}
	return row.Value, true, nil
}

// Set implements cache.Store
func (s *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.InvalidInputf("cache ttl must be positive, got %s", ttl)
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, s.now().Add(ttl).UnixNano())
	if err != nil {
		return errors.DatabaseError("write cache entry", err)
	}
	return nil
}

// Evict implements cache.Store
func (s *CacheStore) Evict(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return errors.DatabaseError("evict cache entry", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed
func (s *CacheStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, errors.DatabaseError("purge cache", err)
	}
	return res.RowsAffected()
}

// Close closes the database
func (s *CacheStore) Close() error {
	return s.db.Close()
}
