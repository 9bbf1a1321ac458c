package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/domain"
	internal_errors "github.com/agora-forum/agora/shared/errors"
	"github.com/agora-forum/agora/shared/logger"
)

type PostService interface {
	Create(ctx context.Context, data domain.PostCreationData) (domain.Post, error)
	Get(ctx context.Context, id domain.PostId) (domain.Post, error)
	GetFirstByThread(ctx context.Context, threadId domain.ThreadId) (domain.Post, error)
	ListByThread(ctx context.Context, threadId domain.ThreadId, page int) ([]domain.Post, error)
	CountByThread(ctx context.Context, threadId domain.ThreadId) (int, error)
	GetPosition(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (int, error)
	PageFor(position int) int
	Locate(ctx context.Context, postId domain.PostId) (domain.PostLocation, error)
	Update(ctx context.Context, requester domain.User, id domain.PostId, data domain.PostUpdateData) (domain.Post, error)
	Delete(ctx context.Context, requester domain.User, id domain.PostId) (domain.PostDeletion, error)
	Search(ctx context.Context, query string, limit int) ([]domain.PostSearchResult, error)
}

type PostStorage interface {
	CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error)
	GetPost(ctx context.Context, id domain.PostId) (domain.Post, error)
	GetFirstPost(ctx context.Context, threadId domain.ThreadId) (domain.Post, error)
	ListPosts(ctx context.Context, threadId domain.ThreadId, limit, offset int) ([]domain.Post, error)
	CountPosts(ctx context.Context, threadId domain.ThreadId) (int, error)
	PostPosition(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (int, error)
	UpdatePost(ctx context.Context, id domain.PostId, data domain.PostUpdateData) (domain.Post, error)
	DeletePost(ctx context.Context, id domain.PostId) (domain.PostDeletion, error)
	SearchPosts(ctx context.Context, query string, limit int) ([]domain.PostSearchResult, error)

	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	NotifySubscribers(ctx context.Context, threadId domain.ThreadId, postId domain.PostId, authorId domain.UserId) (int64, error)
}

type Renderer interface {
	Render(content string) string
}

type Post struct {
	storage   PostStorage
	validator ContentValidator
	renderer  Renderer
	cache     Cache
	cfg       *config.Public
	logger    *slog.Logger
	now       func() time.Time
}

func NewPost(storage PostStorage, validator ContentValidator, renderer Renderer, cache Cache, cfg *config.Public) PostService {
	return &Post{
		storage:   storage,
		validator: validator,
		renderer:  renderer,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.Component("post_service"),
		now:       time.Now,
	}
}

// Create stores a reply. Subscriber notification happens after the reply is
// committed and never fails the request.
func (b *Post) Create(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	if err := b.validator.Content(data.Content); err != nil {
		return domain.Post{}, err
	}

	post, err := b.storage.CreatePost(ctx, data)
	if err != nil {
		return domain.Post{}, err
	}

	n, err := b.storage.NotifySubscribers(ctx, post.ThreadId, post.Id, post.Author.Id)
	if err != nil {
		b.logger.Error("failed to notify subscribers", "thread_id", post.ThreadId, "post_id", post.Id, "error", err)
	} else if n > 0 {
		b.logger.Debug("subscribers notified", "thread_id", post.ThreadId, "post_id", post.Id, "count", n)
	}

	b.invalidateThread(ctx, post.ThreadId)
	post.ContentHTML = b.renderer.Render(post.Content)
	return post, nil
}

// invalidateThread drops the thread's post pages and every view of the thread
// itself. The thread is reloaded for its slug and subforum; if that fails the
// whole thread namespace goes instead.
func (b *Post) invalidateThread(ctx context.Context, threadId domain.ThreadId) {
	b.cache.ClearType(ctx, threadPostsType(threadId))

	thread, err := b.storage.GetThread(ctx, threadId)
	if err != nil {
		b.logger.Warn("failed to load thread for invalidation", "thread_id", threadId, "error", err)
		b.cache.ClearType(ctx, cacheThreads)
		b.cache.ClearType(ctx, cacheLatestThreads)
		b.cache.ClearType(ctx, cacheRecentThreads)
		return
	}
	invalidateThreadViews(ctx, b.cache, thread.Id, thread.Slug, thread.SubforumId)
}

func (b *Post) Get(ctx context.Context, id domain.PostId) (domain.Post, error) {
	post, err := b.storage.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}
	post.ContentHTML = b.renderer.Render(post.Content)
	return post, nil
}

func (b *Post) GetFirstByThread(ctx context.Context, threadId domain.ThreadId) (domain.Post, error) {
	post, err := b.storage.GetFirstPost(ctx, threadId)
	if err != nil {
		return domain.Post{}, err
	}
	post.ContentHTML = b.renderer.Render(post.Content)
	return post, nil
}

// ListByThread returns one page of posts, oldest first, with rendered HTML.
// Pages are cached rendered.
func (b *Post) ListByThread(ctx context.Context, threadId domain.ThreadId, page int) ([]domain.Post, error) {
	limit := b.cfg.PostsPerPage
	offset := pageOffset(page, limit)
	typ := threadPostsType(threadId)
	key := pageKey(limit, offset)

	var posts []domain.Post
	if b.cache.Get(ctx, key, typ, &posts) {
		return posts, nil
	}

	posts, err := b.storage.ListPosts(ctx, threadId, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].ContentHTML = b.renderer.Render(posts[i].Content)
	}
	setCache(ctx, b.cache, b.logger, key, typ, posts, b.cfg.Cache.PostListTTL)
	return posts, nil
}

func (b *Post) CountByThread(ctx context.Context, threadId domain.ThreadId) (int, error) {
	typ := threadPostsType(threadId)

	var count int
	if b.cache.Get(ctx, postCountKey, typ, &count) {
		return count, nil
	}

	count, err := b.storage.CountPosts(ctx, threadId)
	if err != nil {
		return 0, err
	}
	setCache(ctx, b.cache, b.logger, postCountKey, typ, count, b.cfg.Cache.PostListTTL)
	return count, nil
}

func (b *Post) GetPosition(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (int, error) {
	return b.storage.PostPosition(ctx, threadId, postId)
}

// PageFor returns the 1-based page holding the post at position.
func (b *Post) PageFor(position int) int {
	if position < 1 {
		return 1
	}
	perPage := b.cfg.PostsPerPage
	return (position + perPage - 1) / perPage
}

// Locate resolves a post permalink to its thread, position and page.
func (b *Post) Locate(ctx context.Context, postId domain.PostId) (domain.PostLocation, error) {
	post, err := b.storage.GetPost(ctx, postId)
	if err != nil {
		return domain.PostLocation{}, err
	}
	position, err := b.storage.PostPosition(ctx, post.ThreadId, postId)
	if err != nil {
		return domain.PostLocation{}, err
	}
	return domain.PostLocation{
		ThreadId: post.ThreadId,
		PostId:   postId,
		Position: position,
		Page:     b.PageFor(position),
	}, nil
}

// Update replaces the post's content. Admins may edit any post; authors only
// their own, within the configured edit window.
func (b *Post) Update(ctx context.Context, requester domain.User, id domain.PostId, data domain.PostUpdateData) (domain.Post, error) {
	if err := b.validator.Content(data.Content); err != nil {
		return domain.Post{}, err
	}

	post, err := b.storage.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, err
	}
	if err := b.authorize(requester, post, b.cfg.PostEditWindow, "edit"); err != nil {
		return domain.Post{}, err
	}

	updated, err := b.storage.UpdatePost(ctx, id, data)
	if err != nil {
		return domain.Post{}, err
	}
	b.cache.ClearType(ctx, threadPostsType(updated.ThreadId))

	updated.ContentHTML = b.renderer.Render(updated.Content)
	return updated, nil
}

// Delete removes the post, or the whole thread when it is the first post.
// Same permission rules as Update, with the delete window.
func (b *Post) Delete(ctx context.Context, requester domain.User, id domain.PostId) (domain.PostDeletion, error) {
	post, err := b.storage.GetPost(ctx, id)
	if err != nil {
		return domain.PostDeletion{}, err
	}
	if err := b.authorize(requester, post, b.cfg.PostDeleteWindow, "delete"); err != nil {
		return domain.PostDeletion{}, err
	}

	result, err := b.storage.DeletePost(ctx, id)
	if err != nil {
		return domain.PostDeletion{}, err
	}
	b.cache.ClearType(ctx, threadPostsType(result.ThreadId))
	invalidateThreadViews(ctx, b.cache, result.ThreadId, result.ThreadSlug, result.SubforumId)

	b.logger.Info("post deleted", "post_id", id, "thread_id", result.ThreadId,
		"thread_deleted", result.ThreadDeleted, "by", requester.Id)
	return result, nil
}

func (b *Post) authorize(requester domain.User, post domain.Post, window time.Duration, action string) error {
	if requester.Admin {
		return nil
	}
	if requester.Id != post.Author.Id {
		return internal_errors.Forbidden("You can only " + action + " your own posts")
	}
	if window <= 0 || b.now().Sub(post.CreatedAt) > window {
		return internal_errors.Forbidden("The " + action + " window for this post has passed")
	}
	return nil
}

func (b *Post) Search(ctx context.Context, query string, limit int) ([]domain.PostSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, internal_errors.BadRequest("Search query is required")
	}

	results, err := b.storage.SearchPosts(ctx, query, clampLimit(limit, b.cfg.SearchLimit))
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].ContentHTML = b.renderer.Render(results[i].Content)
	}
	return results, nil
}
