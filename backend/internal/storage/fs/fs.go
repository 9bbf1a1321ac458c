// Package fs stores persistent cache entries as JSON files on local disk.
//
// Layout: <root>/<namespace dir>/<key>.json, where the namespace dir is derived
// from the cache type so a whole namespace can be dropped with one RemoveAll.
package fs

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agora-forum/agora/backend/internal/cache"
	"github.com/agora-forum/agora/shared/domain"
	"golang.org/x/crypto/blake2b"
)

const fileExt = ".json"

type Storage struct {
	rootPath string
}

// Ensure Storage struct implements the interface at compile time.
var _ cache.Backend = (*Storage)(nil)

type fileEntry struct {
	Type      string          `json:"type"`
	Value     json.RawMessage `json:"value"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

func New(rootPath string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "cache/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

func typeDir(typ string) string {
	sum := blake2b.Sum256([]byte(typ))
	return hex.EncodeToString(sum[:16])
}

// entryPath rejects keys that could escape the namespace directory. Keys are
// normally hex digests produced by cache.PersistKey.
func (s *Storage) entryPath(key, typ string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.rootPath, typeDir(typ), key+fileExt), nil
}

func (s *Storage) Load(ctx context.Context, key, typ string) (domain.CacheEntry, bool, error) {
	path, err := s.entryPath(key, typ)
	if err != nil {
		return domain.CacheEntry{}, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return domain.CacheEntry{}, false, nil
		}
		return domain.CacheEntry{}, false, fmt.Errorf("failed to read cache file: %w", err)
	}

	var fe fileEntry
	if err := json.Unmarshal(data, &fe); err != nil {
		return domain.CacheEntry{}, false, fmt.Errorf("corrupt cache file %s: %w", path, err)
	}
	if fe.Type != typ {
		// digest collision on the directory name; treat as absent
		return domain.CacheEntry{}, false, nil
	}

	return domain.CacheEntry{Key: key, Type: fe.Type, Value: fe.Value, ExpiresAt: fe.ExpiresAt}, true, nil
}

// Store writes the entry to a temp file and renames it into place, so readers
// never see a partially written file.
func (s *Storage) Store(ctx context.Context, entry domain.CacheEntry) error {
	path, err := s.entryPath(entry.Key, entry.Type)
	if err != nil {
		return err
	}

	data, err := json.Marshal(fileEntry{Type: entry.Type, Value: entry.Value, ExpiresAt: entry.ExpiresAt})
	if err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create subdirectories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName) // Best effort, ignore error here.
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, key, typ string) error {
	path, err := s.entryPath(key, typ)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

func (s *Storage) DeleteType(ctx context.Context, typ string) error {
	if err := os.RemoveAll(filepath.Join(s.rootPath, typeDir(typ))); err != nil {
		return fmt.Errorf("failed to delete cache namespace: %w", err)
	}
	return nil
}

func (s *Storage) DeleteAll(ctx context.Context) error {
	entries, err := os.ReadDir(s.rootPath)
	if err != nil {
		return fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(s.rootPath, e.Name())); err != nil {
			return fmt.Errorf("failed to clear cache directory: %w", err)
		}
	}
	return nil
}

// DeleteExpired walks every namespace and removes entries whose deadline is
// not after now. Unreadable files are removed too.
func (s *Storage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := filepath.WalkDir(s.rootPath, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), fileExt) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return nil
			}
			return err
		}
		var fe fileEntry
		if err := json.Unmarshal(data, &fe); err == nil {
			entry := domain.CacheEntry{ExpiresAt: fe.ExpiresAt}
			if !entry.Expired(now) {
				return nil
			}
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to sweep cache directory: %w", err)
	}
	return removed, nil
}
