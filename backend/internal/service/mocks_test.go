package service

import (
	"context"
	"sync"
	"time"

	"github.com/agora-forum/agora/backend/internal/cache"
	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/domain"
)

// --- Mocks ---

// MockThreadStorage mocks ThreadStorage. Unset funcs return zero values.
type MockThreadStorage struct {
	createThreadFunc       func(data domain.ThreadCreationData, nextSlug func(int) string) (domain.ThreadId, error)
	getThreadFunc          func(id domain.ThreadId) (domain.Thread, error)
	getThreadBySlugFunc    func(slug domain.ThreadSlug) (domain.Thread, error)
	listBySubforumFunc     func(subforumId domain.SubforumId, limit, offset int) ([]domain.Thread, error)
	listLatestFunc         func(limit int) ([]domain.Thread, error)
	listRecentFunc         func(limit int) ([]domain.Thread, error)
	updateThreadFunc       func(id domain.ThreadId, data domain.ThreadUpdateData, nextSlug func(int) string) (domain.Thread, domain.Thread, error)
	deleteThreadFunc       func(id domain.ThreadId) (domain.Thread, error)
	toggleStickyFunc       func(id domain.ThreadId) (domain.Thread, error)
	toggleLockedFunc       func(id domain.ThreadId) (domain.Thread, error)
	moveThreadFunc         func(id domain.ThreadId, subforumId domain.SubforumId) (domain.Thread, error)
	incrementViewCountFunc func(id domain.ThreadId) error
	subscribeFunc          func(userId domain.UserId, threadId domain.ThreadId) error
	unsubscribeFunc        func(userId domain.UserId, threadId domain.ThreadId) error
	isSubscribedFunc       func(userId domain.UserId, threadId domain.ThreadId) (bool, error)
	listSubscriptionsFunc  func(userId domain.UserId) ([]domain.Subscription, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockThreadStorage) track(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *MockThreadStorage) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockThreadStorage) CreateThread(ctx context.Context, data domain.ThreadCreationData, nextSlug func(attempt int) string) (domain.ThreadId, error) {
	m.track("CreateThread")
	if m.createThreadFunc != nil {
		return m.createThreadFunc(data, nextSlug)
	}
	return 1, nil
}

func (m *MockThreadStorage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	m.track("GetThread")
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) GetThreadBySlug(ctx context.Context, slug domain.ThreadSlug) (domain.Thread, error) {
	m.track("GetThreadBySlug")
	if m.getThreadBySlugFunc != nil {
		return m.getThreadBySlugFunc(slug)
	}
	return domain.Thread{Slug: slug}, nil
}

func (m *MockThreadStorage) ListThreadsBySubforum(ctx context.Context, subforumId domain.SubforumId, limit, offset int) ([]domain.Thread, error) {
	m.track("ListThreadsBySubforum")
	if m.listBySubforumFunc != nil {
		return m.listBySubforumFunc(subforumId, limit, offset)
	}
	return []domain.Thread{}, nil
}

func (m *MockThreadStorage) ListLatestThreads(ctx context.Context, limit int) ([]domain.Thread, error) {
	m.track("ListLatestThreads")
	if m.listLatestFunc != nil {
		return m.listLatestFunc(limit)
	}
	return []domain.Thread{}, nil
}

func (m *MockThreadStorage) ListRecentThreads(ctx context.Context, limit int) ([]domain.Thread, error) {
	m.track("ListRecentThreads")
	if m.listRecentFunc != nil {
		return m.listRecentFunc(limit)
	}
	return []domain.Thread{}, nil
}

func (m *MockThreadStorage) UpdateThread(ctx context.Context, id domain.ThreadId, data domain.ThreadUpdateData, nextSlug func(attempt int) string) (domain.Thread, domain.Thread, error) {
	m.track("UpdateThread")
	if m.updateThreadFunc != nil {
		return m.updateThreadFunc(id, data, nextSlug)
	}
	return domain.Thread{Id: id}, domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) DeleteThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	m.track("DeleteThread")
	if m.deleteThreadFunc != nil {
		return m.deleteThreadFunc(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) ToggleSticky(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	m.track("ToggleSticky")
	if m.toggleStickyFunc != nil {
		return m.toggleStickyFunc(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) ToggleLocked(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	m.track("ToggleLocked")
	if m.toggleLockedFunc != nil {
		return m.toggleLockedFunc(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) MoveThread(ctx context.Context, id domain.ThreadId, subforumId domain.SubforumId) (domain.Thread, error) {
	m.track("MoveThread")
	if m.moveThreadFunc != nil {
		return m.moveThreadFunc(id, subforumId)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadStorage) IncrementViewCount(ctx context.Context, id domain.ThreadId) error {
	m.track("IncrementViewCount")
	if m.incrementViewCountFunc != nil {
		return m.incrementViewCountFunc(id)
	}
	return nil
}

func (m *MockThreadStorage) Subscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	m.track("Subscribe")
	if m.subscribeFunc != nil {
		return m.subscribeFunc(userId, threadId)
	}
	return nil
}

func (m *MockThreadStorage) Unsubscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	m.track("Unsubscribe")
	if m.unsubscribeFunc != nil {
		return m.unsubscribeFunc(userId, threadId)
	}
	return nil
}

func (m *MockThreadStorage) IsSubscribed(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) (bool, error) {
	m.track("IsSubscribed")
	if m.isSubscribedFunc != nil {
		return m.isSubscribedFunc(userId, threadId)
	}
	return false, nil
}

func (m *MockThreadStorage) ListSubscriptions(ctx context.Context, userId domain.UserId) ([]domain.Subscription, error) {
	m.track("ListSubscriptions")
	if m.listSubscriptionsFunc != nil {
		return m.listSubscriptionsFunc(userId)
	}
	return []domain.Subscription{}, nil
}

// MockPostStorage mocks PostStorage.
type MockPostStorage struct {
	createPostFunc        func(data domain.PostCreationData) (domain.Post, error)
	getPostFunc           func(id domain.PostId) (domain.Post, error)
	getFirstPostFunc      func(threadId domain.ThreadId) (domain.Post, error)
	listPostsFunc         func(threadId domain.ThreadId, limit, offset int) ([]domain.Post, error)
	countPostsFunc        func(threadId domain.ThreadId) (int, error)
	postPositionFunc      func(threadId domain.ThreadId, postId domain.PostId) (int, error)
	updatePostFunc        func(id domain.PostId, data domain.PostUpdateData) (domain.Post, error)
	deletePostFunc        func(id domain.PostId) (domain.PostDeletion, error)
	searchPostsFunc       func(query string, limit int) ([]domain.PostSearchResult, error)
	getThreadFunc         func(id domain.ThreadId) (domain.Thread, error)
	notifySubscribersFunc func(threadId domain.ThreadId, postId domain.PostId, authorId domain.UserId) (int64, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockPostStorage) track(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *MockPostStorage) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockPostStorage) CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	m.track("CreatePost")
	if m.createPostFunc != nil {
		return m.createPostFunc(data)
	}
	return domain.Post{Id: 1, ThreadId: data.ThreadId, Author: domain.AuthorOf(data.Author), Content: data.Content}, nil
}

func (m *MockPostStorage) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	m.track("GetPost")
	if m.getPostFunc != nil {
		return m.getPostFunc(id)
	}
	return domain.Post{Id: id}, nil
}

func (m *MockPostStorage) GetFirstPost(ctx context.Context, threadId domain.ThreadId) (domain.Post, error) {
	m.track("GetFirstPost")
	if m.getFirstPostFunc != nil {
		return m.getFirstPostFunc(threadId)
	}
	return domain.Post{ThreadId: threadId}, nil
}

func (m *MockPostStorage) ListPosts(ctx context.Context, threadId domain.ThreadId, limit, offset int) ([]domain.Post, error) {
	m.track("ListPosts")
	if m.listPostsFunc != nil {
		return m.listPostsFunc(threadId, limit, offset)
	}
	return []domain.Post{}, nil
}

func (m *MockPostStorage) CountPosts(ctx context.Context, threadId domain.ThreadId) (int, error) {
	m.track("CountPosts")
	if m.countPostsFunc != nil {
		return m.countPostsFunc(threadId)
	}
	return 0, nil
}

func (m *MockPostStorage) PostPosition(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (int, error) {
	m.track("PostPosition")
	if m.postPositionFunc != nil {
		return m.postPositionFunc(threadId, postId)
	}
	return 1, nil
}

func (m *MockPostStorage) UpdatePost(ctx context.Context, id domain.PostId, data domain.PostUpdateData) (domain.Post, error) {
	m.track("UpdatePost")
	if m.updatePostFunc != nil {
		return m.updatePostFunc(id, data)
	}
	return domain.Post{Id: id, Content: data.Content}, nil
}

func (m *MockPostStorage) DeletePost(ctx context.Context, id domain.PostId) (domain.PostDeletion, error) {
	m.track("DeletePost")
	if m.deletePostFunc != nil {
		return m.deletePostFunc(id)
	}
	return domain.PostDeletion{}, nil
}

func (m *MockPostStorage) SearchPosts(ctx context.Context, query string, limit int) ([]domain.PostSearchResult, error) {
	m.track("SearchPosts")
	if m.searchPostsFunc != nil {
		return m.searchPostsFunc(query, limit)
	}
	return []domain.PostSearchResult{}, nil
}

func (m *MockPostStorage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	m.track("GetThread")
	if m.getThreadFunc != nil {
		return m.getThreadFunc(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockPostStorage) NotifySubscribers(ctx context.Context, threadId domain.ThreadId, postId domain.PostId, authorId domain.UserId) (int64, error) {
	m.track("NotifySubscribers")
	if m.notifySubscribersFunc != nil {
		return m.notifySubscribersFunc(threadId, postId, authorId)
	}
	return 0, nil
}

// MockValidator accepts everything unless a func is set.
type MockValidator struct {
	titleFunc   func(title string) error
	contentFunc func(text string) error
}

func (m *MockValidator) Title(title string) error {
	if m.titleFunc != nil {
		return m.titleFunc(title)
	}
	return nil
}

func (m *MockValidator) Content(text string) error {
	if m.contentFunc != nil {
		return m.contentFunc(text)
	}
	return nil
}

// MockSlugs proposes base, base-1, base-2... and records the titles it was asked for.
type MockSlugs struct {
	mu     sync.Mutex
	titles []string
}

func (m *MockSlugs) Candidates(title string) func(attempt int) string {
	m.mu.Lock()
	m.titles = append(m.titles, title)
	m.mu.Unlock()
	return func(attempt int) string {
		if attempt == 0 {
			return "slug"
		}
		return "slug-" + string(rune('0'+attempt))
	}
}

// MockRenderer wraps content in a paragraph.
type MockRenderer struct{}

func (MockRenderer) Render(content string) string {
	return "<p>" + content + "</p>"
}

// --- Helpers ---

func testConfig() *config.Public {
	return &config.Public{
		ThreadsPerPage:   10,
		PostsPerPage:     20,
		SearchLimit:      50,
		LatestLimit:      25,
		PostEditWindow:   15 * time.Minute,
		PostDeleteWindow: 15 * time.Minute,
		ReactionTypes:    []string{"like", "heart"},
		Cache: config.Cache{
			ThreadTTL:   5 * time.Minute,
			ListTTL:     time.Minute,
			PostListTTL: time.Minute,
		},
	}
}

// newTestCache returns a memory-only cache with a clock the test controls.
func newTestCache() (*cache.Cache, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return cache.New(cache.WithClock(func() time.Time { return now })), &now
}

// cached reports whether key is present in the typ namespace.
func cached(c Cache, key, typ string) bool {
	var v any
	return c.Get(context.Background(), key, typ, &v)
}
