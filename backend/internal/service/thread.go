package service

import (
	"context"
	"log/slog"

	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/domain"
	"github.com/agora-forum/agora/shared/logger"
)

type ThreadService interface {
	Create(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error)
	Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	GetBySlug(ctx context.Context, slug domain.ThreadSlug) (domain.Thread, error)
	ListBySubforum(ctx context.Context, subforumId domain.SubforumId, page int) ([]domain.Thread, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Thread, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Thread, error)
	Update(ctx context.Context, id domain.ThreadId, data domain.ThreadUpdateData) (domain.Thread, error)
	Delete(ctx context.Context, id domain.ThreadId) error
	ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error)
	ToggleLocked(ctx context.Context, id domain.ThreadId) (bool, error)
	Move(ctx context.Context, id domain.ThreadId, subforumId domain.SubforumId) error
	IncrementViewCount(ctx context.Context, id domain.ThreadId) error

	Subscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	Unsubscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	IsSubscribed(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) (bool, error)
	ListSubscriptions(ctx context.Context, userId domain.UserId) ([]domain.Subscription, error)
}

type ThreadStorage interface {
	CreateThread(ctx context.Context, data domain.ThreadCreationData, nextSlug func(attempt int) string) (domain.ThreadId, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	GetThreadBySlug(ctx context.Context, slug domain.ThreadSlug) (domain.Thread, error)
	ListThreadsBySubforum(ctx context.Context, subforumId domain.SubforumId, limit, offset int) ([]domain.Thread, error)
	ListLatestThreads(ctx context.Context, limit int) ([]domain.Thread, error)
	ListRecentThreads(ctx context.Context, limit int) ([]domain.Thread, error)
	UpdateThread(ctx context.Context, id domain.ThreadId, data domain.ThreadUpdateData, nextSlug func(attempt int) string) (before, after domain.Thread, err error)
	DeleteThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	ToggleSticky(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	ToggleLocked(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	MoveThread(ctx context.Context, id domain.ThreadId, subforumId domain.SubforumId) (domain.Thread, error)
	IncrementViewCount(ctx context.Context, id domain.ThreadId) error

	Subscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	Unsubscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error
	IsSubscribed(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) (bool, error)
	ListSubscriptions(ctx context.Context, userId domain.UserId) ([]domain.Subscription, error)
}

type ThreadValidator interface {
	Title(title string) error
}

type ContentValidator interface {
	Content(text string) error
}

type SlugGenerator interface {
	Candidates(title string) func(attempt int) string
}

type Thread struct {
	storage   ThreadStorage
	validator ThreadValidator
	content   ContentValidator
	slugs     SlugGenerator
	cache     Cache
	cfg       *config.Public
	logger    *slog.Logger
}

func NewThread(storage ThreadStorage, validator ThreadValidator, content ContentValidator, slugs SlugGenerator, cache Cache, cfg *config.Public) ThreadService {
	return &Thread{
		storage:   storage,
		validator: validator,
		content:   content,
		slugs:     slugs,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.Component("thread_service"),
	}
}

// Create validates and stores a thread with its first post. The slug is
// derived from the title; collisions get a random suffix.
func (b *Thread) Create(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error) {
	if err := b.validator.Title(data.Title); err != nil {
		return 0, err
	}
	if err := b.content.Content(data.Content); err != nil {
		return 0, err
	}

	id, err := b.storage.CreateThread(ctx, data, b.slugs.Candidates(data.Title))
	if err != nil {
		return 0, err
	}

	b.cache.ClearType(ctx, subforumThreadsType(data.SubforumId))
	b.cache.ClearType(ctx, cacheLatestThreads)
	b.cache.ClearType(ctx, cacheRecentThreads)

	b.logger.Info("thread created", "thread_id", id, "subforum_id", data.SubforumId, "author_id", data.Author.Id)
	return id, nil
}

func (b *Thread) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	var thread domain.Thread
	if b.cache.Get(ctx, threadIdKey(id), cacheThreads, &thread) {
		return thread, nil
	}

	thread, err := b.storage.GetThread(ctx, id)
	if err != nil {
		return domain.Thread{}, err
	}
	b.cacheThread(ctx, thread)
	return thread, nil
}

// GetBySlug reads through the slug key and fills the id key as well so both
// lookups stay coherent.
func (b *Thread) GetBySlug(ctx context.Context, slug domain.ThreadSlug) (domain.Thread, error) {
	var thread domain.Thread
	if b.cache.Get(ctx, threadSlugKey(slug), cacheThreads, &thread) {
		return thread, nil
	}

	thread, err := b.storage.GetThreadBySlug(ctx, slug)
	if err != nil {
		return domain.Thread{}, err
	}
	b.cacheThread(ctx, thread)
	return thread, nil
}

func (b *Thread) cacheThread(ctx context.Context, t domain.Thread) {
	ttl := b.cfg.Cache.ThreadTTL
	setCache(ctx, b.cache, b.logger, threadIdKey(t.Id), cacheThreads, t, ttl)
	setCache(ctx, b.cache, b.logger, threadSlugKey(t.Slug), cacheThreads, t, ttl)
}

// ListBySubforum returns one page of the subforum, sticky threads first.
func (b *Thread) ListBySubforum(ctx context.Context, subforumId domain.SubforumId, page int) ([]domain.Thread, error) {
	limit := b.cfg.ThreadsPerPage
	offset := pageOffset(page, limit)
	typ := subforumThreadsType(subforumId)
	key := pageKey(limit, offset)

	var threads []domain.Thread
	if b.cache.Get(ctx, key, typ, &threads) {
		return threads, nil
	}

	threads, err := b.storage.ListThreadsBySubforum(ctx, subforumId, limit, offset)
	if err != nil {
		return nil, err
	}
	setCache(ctx, b.cache, b.logger, key, typ, threads, b.cfg.Cache.ListTTL)
	return threads, nil
}

func (b *Thread) ListLatest(ctx context.Context, limit int) ([]domain.Thread, error) {
	return b.cachedList(ctx, cacheLatestThreads, limit, b.storage.ListLatestThreads)
}

func (b *Thread) ListRecent(ctx context.Context, limit int) ([]domain.Thread, error) {
	return b.cachedList(ctx, cacheRecentThreads, limit, b.storage.ListRecentThreads)
}

func (b *Thread) cachedList(ctx context.Context, typ string, limit int, load func(context.Context, int) ([]domain.Thread, error)) ([]domain.Thread, error) {
	limit = clampLimit(limit, b.cfg.LatestLimit)
	key := limitKey(limit)

	var threads []domain.Thread
	if b.cache.Get(ctx, key, typ, &threads) {
		return threads, nil
	}

	threads, err := load(ctx, limit)
	if err != nil {
		return nil, err
	}
	setCache(ctx, b.cache, b.logger, key, typ, threads, b.cfg.Cache.ListTTL)
	return threads, nil
}

// Update edits title and/or first post. A title change re-resolves the slug,
// so both the old and the new slug keys are dropped.
func (b *Thread) Update(ctx context.Context, id domain.ThreadId, data domain.ThreadUpdateData) (domain.Thread, error) {
	title := ""
	if data.Title != nil {
		if err := b.validator.Title(*data.Title); err != nil {
			return domain.Thread{}, err
		}
		title = *data.Title
	}
	if data.Content != nil {
		if err := b.content.Content(*data.Content); err != nil {
			return domain.Thread{}, err
		}
	}

	before, after, err := b.storage.UpdateThread(ctx, id, data, b.slugs.Candidates(title))
	if err != nil {
		return domain.Thread{}, err
	}

	invalidateThreadViews(ctx, b.cache, before.Id, before.Slug, before.SubforumId)
	if after.Slug != before.Slug {
		b.cache.Delete(ctx, threadSlugKey(after.Slug), cacheThreads)
	}
	if data.Content != nil {
		b.cache.ClearType(ctx, threadPostsType(id))
	}
	return after, nil
}

// Delete removes the thread with all of its posts.
func (b *Thread) Delete(ctx context.Context, id domain.ThreadId) error {
	deleted, err := b.storage.DeleteThread(ctx, id)
	if err != nil {
		return err
	}
	invalidateThreadViews(ctx, b.cache, deleted.Id, deleted.Slug, deleted.SubforumId)
	b.cache.ClearType(ctx, threadPostsType(id))

	b.logger.Info("thread deleted", "thread_id", id, "subforum_id", deleted.SubforumId)
	return nil
}

func (b *Thread) ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error) {
	t, err := b.storage.ToggleSticky(ctx, id)
	if err != nil {
		return false, err
	}
	invalidateThreadViews(ctx, b.cache, t.Id, t.Slug, t.SubforumId)
	return t.IsSticky, nil
}

func (b *Thread) ToggleLocked(ctx context.Context, id domain.ThreadId) (bool, error) {
	t, err := b.storage.ToggleLocked(ctx, id)
	if err != nil {
		return false, err
	}
	invalidateThreadViews(ctx, b.cache, t.Id, t.Slug, t.SubforumId)
	return t.IsLocked, nil
}

// Move reassigns the thread; both subforum listings are invalidated.
func (b *Thread) Move(ctx context.Context, id domain.ThreadId, subforumId domain.SubforumId) error {
	before, err := b.storage.MoveThread(ctx, id, subforumId)
	if err != nil {
		return err
	}
	invalidateThreadViews(ctx, b.cache, before.Id, before.Slug, before.SubforumId)
	b.cache.ClearType(ctx, subforumThreadsType(subforumId))
	return nil
}

// IncrementViewCount bumps the counter without touching the cache: cached
// threads show a view count at most one thread TTL old.
func (b *Thread) IncrementViewCount(ctx context.Context, id domain.ThreadId) error {
	return b.storage.IncrementViewCount(ctx, id)
}

func (b *Thread) Subscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return b.storage.Subscribe(ctx, userId, threadId)
}

func (b *Thread) Unsubscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	return b.storage.Unsubscribe(ctx, userId, threadId)
}

func (b *Thread) IsSubscribed(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) (bool, error) {
	return b.storage.IsSubscribed(ctx, userId, threadId)
}

func (b *Thread) ListSubscriptions(ctx context.Context, userId domain.UserId) ([]domain.Subscription, error) {
	return b.storage.ListSubscriptions(ctx, userId)
}
