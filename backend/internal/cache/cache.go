// Package cache implements the two-tier expiring key/value cache used by the
// forum services: an in-process map in front of a persistent backend
// (Postgres table or files on disk).
//
// Entries are namespaced by a type tag so whole namespaces can be dropped at
// once. Values are JSON encoded once on Set; the memory tier additionally keeps
// the original value so hot reads skip decoding. Cached values are shared
// between callers and must be treated as read-only.
//
// Both tiers are written on every mutating call. A failing backend is logged
// and counted but never reported to the caller: the cache degrades to
// memory-only and misses fall through to the source of truth.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/agora-forum/agora/shared/domain"
	"github.com/agora-forum/agora/shared/logger"
	"golang.org/x/crypto/blake2b"
)

// Backend is the persistent tier. Keys passed to it are already hashed with
// PersistKey; typ is the plain namespace.
type Backend interface {
	Load(ctx context.Context, key, typ string) (entry domain.CacheEntry, found bool, err error)
	Store(ctx context.Context, entry domain.CacheEntry) error
	Delete(ctx context.Context, key, typ string) error
	DeleteType(ctx context.Context, typ string) error
	DeleteAll(ctx context.Context) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type memKey struct {
	typ string
	key string
}

type memEntry struct {
	value     any
	raw       []byte
	expiresAt *time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return e.expiresAt != nil && !now.Before(*e.expiresAt)
}

// Option mutates cache configuration.
type Option func(*Cache)

// WithBackend sets the persistent tier. Without it the cache is memory-only.
func WithBackend(backend Backend) Option {
	return func(c *Cache) {
		c.backend = backend
	}
}

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger injects a logger instead of the package default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

type Cache struct {
	backend Backend
	clock   func() time.Time
	logger  *slog.Logger

	mu  sync.RWMutex
	mem map[memKey]memEntry
}

func New(options ...Option) *Cache {
	c := &Cache{
		clock:  time.Now,
		logger: logger.Component("cache"),
		mem:    make(map[memKey]memEntry),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// PersistKey is the backend key for (key, typ): hex BLAKE2b-256 of the
// namespaced key.
func PersistKey(key, typ string) string {
	sum := blake2b.Sum256([]byte(typ + "\x00" + key))
	return hex.EncodeToString(sum[:])
}

// Get looks key up in namespace typ and stores the value into dst, which must
// be a non-nil pointer. It reports whether a live entry was found.
func (c *Cache) Get(ctx context.Context, key, typ string, dst any) bool {
	now := c.clock()
	mk := memKey{typ: typ, key: key}

	c.mu.RLock()
	e, ok := c.mem[mk]
	c.mu.RUnlock()
	if ok {
		if e.expired(now) {
			c.Delete(ctx, key, typ)
			cacheMisses.WithLabelValues(reasonExpired).Inc()
			return false
		}
		if assign(dst, e.value) {
			cacheHits.WithLabelValues(tierMemory).Inc()
			return true
		}
		if err := json.Unmarshal(e.raw, dst); err == nil {
			cacheHits.WithLabelValues(tierMemory).Inc()
			return true
		}
		c.logger.Warn("cached value does not fit destination", "type", typ, "key", key)
	}

	if c.backend == nil {
		cacheMisses.WithLabelValues(reasonAbsent).Inc()
		return false
	}

	pk := PersistKey(key, typ)
	entry, found, err := c.backend.Load(ctx, pk, typ)
	if err != nil {
		c.backendFailed("load", typ, err)
		cacheMisses.WithLabelValues(reasonBackendError).Inc()
		return false
	}
	if !found {
		cacheMisses.WithLabelValues(reasonAbsent).Inc()
		return false
	}
	if entry.Expired(now) {
		if err := c.backend.Delete(ctx, pk, typ); err != nil {
			c.backendFailed("delete", typ, err)
		}
		cacheMisses.WithLabelValues(reasonExpired).Inc()
		return false
	}
	if err := json.Unmarshal(entry.Value, dst); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "type", typ, "key", key, "error", err)
		if err := c.backend.Delete(ctx, pk, typ); err != nil {
			c.backendFailed("delete", typ, err)
		}
		cacheMisses.WithLabelValues(reasonAbsent).Inc()
		return false
	}

	// A ClearType or Delete racing this load is not undone here; the
	// promoted entry lives until its own expiry or the next invalidation.
	c.mu.Lock()
	c.mem[mk] = memEntry{
		value:     reflect.ValueOf(dst).Elem().Interface(),
		raw:       entry.Value,
		expiresAt: entry.ExpiresAt,
	}
	c.mu.Unlock()

	cacheHits.WithLabelValues(tierBackend).Inc()
	return true
}

// Set stores value under key in namespace typ for ttl (no expiry when ttl <= 0).
// Only an encoding failure is returned.
func (c *Cache) Set(ctx context.Context, key, typ string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value %s/%s: %w", typ, key, err)
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := c.clock().Add(ttl)
		expiresAt = &t
	}

	c.mu.Lock()
	c.mem[memKey{typ: typ, key: key}] = memEntry{value: value, raw: raw, expiresAt: expiresAt}
	c.mu.Unlock()

	if c.backend != nil {
		entry := domain.CacheEntry{Key: PersistKey(key, typ), Type: typ, Value: raw, ExpiresAt: expiresAt}
		if err := c.backend.Store(ctx, entry); err != nil {
			c.backendFailed("store", typ, err)
		}
	}
	return nil
}

// Delete removes key from namespace typ in both tiers.
func (c *Cache) Delete(ctx context.Context, key, typ string) {
	c.mu.Lock()
	delete(c.mem, memKey{typ: typ, key: key})
	c.mu.Unlock()

	if c.backend != nil {
		if err := c.backend.Delete(ctx, PersistKey(key, typ), typ); err != nil {
			c.backendFailed("delete", typ, err)
		}
	}
}

// ClearType removes every entry of namespace typ from both tiers.
func (c *Cache) ClearType(ctx context.Context, typ string) {
	c.mu.Lock()
	for k := range c.mem {
		if k.typ == typ {
			delete(c.mem, k)
		}
	}
	c.mu.Unlock()

	if c.backend != nil {
		if err := c.backend.DeleteType(ctx, typ); err != nil {
			c.backendFailed("delete_type", typ, err)
		}
	}
}

// ClearAll empties both tiers.
func (c *Cache) ClearAll(ctx context.Context) {
	c.mu.Lock()
	c.mem = make(map[memKey]memEntry)
	c.mu.Unlock()

	if c.backend != nil {
		if err := c.backend.DeleteAll(ctx); err != nil {
			c.backendFailed("delete_all", "", err)
		}
	}
}

// Sweep drops expired entries from both tiers and returns how many were
// removed from memory and from the backend.
func (c *Cache) Sweep(ctx context.Context) (memory int, persisted int64) {
	now := c.clock()

	c.mu.Lock()
	for k, e := range c.mem {
		if e.expired(now) {
			delete(c.mem, k)
			memory++
		}
	}
	c.mu.Unlock()

	if c.backend != nil {
		n, err := c.backend.DeleteExpired(ctx, now)
		if err != nil {
			c.backendFailed("delete_expired", "", err)
		}
		persisted = n
	}
	return memory, persisted
}

func (c *Cache) backendFailed(op, typ string, err error) {
	cacheBackendErrors.WithLabelValues(op).Inc()
	c.logger.Warn("cache backend failure, continuing without persistent tier",
		"op", op,
		"type", typ,
		"error", err)
}

// assign copies v into *dst when the types line up.
func assign(dst, v any) bool {
	if v == nil {
		return false
	}
	dv := reflect.ValueOf(dst)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return false
	}
	vv := reflect.ValueOf(v)
	if !vv.Type().AssignableTo(dv.Elem().Type()) {
		return false
	}
	dv.Elem().Set(vv)
	return true
}
