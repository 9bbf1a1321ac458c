package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agora-forum/agora/backend/internal/cache"
	"github.com/agora-forum/agora/shared/domain"
)

// CacheStore is the persistent cache tier backed by the cache_entries table.
type CacheStore struct {
	db *sql.DB
}

var _ cache.Backend = (*CacheStore)(nil)

// CacheStore shares the storage connection pool.
func (s *Storage) CacheStore() *CacheStore {
	return &CacheStore{db: s.db}
}

func (c *CacheStore) Load(ctx context.Context, key, typ string) (domain.CacheEntry, bool, error) {
	e := domain.CacheEntry{Key: key}
	var expiresAt sql.NullTime
	err := c.db.QueryRowContext(ctx, `
		SELECT cache_type, value, expires_at
		FROM cache_entries
		WHERE cache_key = $1 AND cache_type = $2`, key, typ,
	).Scan(&e.Type, &e.Value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, fmt.Errorf("failed to load cache entry: %w", err)
	}
	if expiresAt.Valid {
		e.ExpiresAt = &expiresAt.Time
	}
	return e, true, nil
}

func (c *CacheStore) Store(ctx context.Context, e domain.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_key, cache_type, value, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE
		SET cache_type = EXCLUDED.cache_type,
		    value = EXCLUDED.value,
		    expires_at = EXCLUDED.expires_at`,
		e.Key, e.Type, e.Value, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

func (c *CacheStore) Delete(ctx context.Context, key, typ string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_key = $1", key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (c *CacheStore) DeleteType(ctx context.Context, typ string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_type = $1", typ); err != nil {
		return fmt.Errorf("failed to delete cache namespace: %w", err)
	}
	return nil
}

func (c *CacheStore) DeleteAll(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (c *CacheStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}
	return rowsAffected(res)
}
