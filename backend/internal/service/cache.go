package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/agora-forum/agora/shared/domain"
)

// Cache is the shared two-tier cache the services read through. Failures of
// the cache never reach callers; a miss just means a database read.
type Cache interface {
	Get(ctx context.Context, key, typ string, dst any) bool
	Set(ctx context.Context, key, typ string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key, typ string)
	ClearType(ctx context.Context, typ string)
}

// Cache namespaces.
const (
	cacheThreads       = "threads"
	cacheLatestThreads = "latest_threads"
	cacheRecentThreads = "recent_threads"
)

func subforumThreadsType(id domain.SubforumId) string {
	return fmt.Sprintf("subforum_threads:%d", id)
}

// threadPostsType holds every page of a thread's posts and its post count, so
// a new reply can drop them all without knowing which offsets were cached.
func threadPostsType(id domain.ThreadId) string {
	return fmt.Sprintf("thread_posts:%d", id)
}

func threadIdKey(id domain.ThreadId) string {
	return fmt.Sprintf("id:%d", id)
}

func threadSlugKey(slug domain.ThreadSlug) string {
	return "slug:" + slug
}

func limitKey(limit int) string {
	return fmt.Sprintf("limit:%d", limit)
}

func pageKey(limit, offset int) string {
	return fmt.Sprintf("posts:%d:%d", limit, offset)
}

const postCountKey = "count"

// setCache stores value and only logs on failure. A load that finishes after a
// concurrent invalidation writes its stale value back; it stays until its
// ttl runs out or the next write to the same view invalidates it again.
func setCache(ctx context.Context, c Cache, log *slog.Logger, key, typ string, value any, ttl time.Duration) {
	if err := c.Set(ctx, key, typ, value, ttl); err != nil {
		log.Warn("failed to cache value", "type", typ, "key", key, "error", err)
	}
}

// invalidateThreadViews drops every cached read that can contain the thread:
// both thread keys and the listings it appears in.
func invalidateThreadViews(ctx context.Context, c Cache, id domain.ThreadId, slug domain.ThreadSlug, subforumId domain.SubforumId) {
	c.Delete(ctx, threadIdKey(id), cacheThreads)
	if slug != "" {
		c.Delete(ctx, threadSlugKey(slug), cacheThreads)
	}
	c.ClearType(ctx, subforumThreadsType(subforumId))
	c.ClearType(ctx, cacheLatestThreads)
	c.ClearType(ctx, cacheRecentThreads)
}

// maxOffset bounds page offsets; pages past it are simply empty.
const maxOffset = math.MaxInt32

// pageOffset converts a 1-based page number into an offset.
func pageOffset(page, perPage int) int {
	if page < 1 || perPage <= 0 {
		return 0
	}
	if page-1 >= maxOffset/perPage {
		return maxOffset
	}
	return (page - 1) * perPage
}

// clampLimit keeps limit within (0, upper].
func clampLimit(limit, upper int) int {
	if limit <= 0 || limit > upper {
		return upper
	}
	return limit
}
