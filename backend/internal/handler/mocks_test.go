package handler

import (
	"context"

	"github.com/agora-forum/agora/shared/domain"
)

type MockThreadService struct {
	MockCreate            func(data domain.ThreadCreationData) (domain.ThreadId, error)
	MockGet               func(id domain.ThreadId) (domain.Thread, error)
	MockGetBySlug         func(slug domain.ThreadSlug) (domain.Thread, error)
	MockListBySubforum    func(subforumId domain.SubforumId, page int) ([]domain.Thread, error)
	MockListLatest        func(limit int) ([]domain.Thread, error)
	MockListRecent        func(limit int) ([]domain.Thread, error)
	MockUpdate            func(id domain.ThreadId, data domain.ThreadUpdateData) (domain.Thread, error)
	MockDelete            func(id domain.ThreadId) error
	MockToggleSticky      func(id domain.ThreadId) (bool, error)
	MockToggleLocked      func(id domain.ThreadId) (bool, error)
	MockMove              func(id domain.ThreadId, subforumId domain.SubforumId) error
	MockIncrementView     func(id domain.ThreadId) error
	MockSubscribe         func(userId domain.UserId, threadId domain.ThreadId) error
	MockUnsubscribe       func(userId domain.UserId, threadId domain.ThreadId) error
	MockIsSubscribed      func(userId domain.UserId, threadId domain.ThreadId) (bool, error)
	MockListSubscriptions func(userId domain.UserId) ([]domain.Subscription, error)
}

func (m *MockThreadService) Create(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error) {
	if m.MockCreate != nil {
		return m.MockCreate(data)
	}
	return 0, nil
}

func (m *MockThreadService) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	if m.MockGet != nil {
		return m.MockGet(id)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadService) GetBySlug(ctx context.Context, slug domain.ThreadSlug) (domain.Thread, error) {
	if m.MockGetBySlug != nil {
		return m.MockGetBySlug(slug)
	}
	return domain.Thread{Slug: slug}, nil
}

func (m *MockThreadService) ListBySubforum(ctx context.Context, subforumId domain.SubforumId, page int) ([]domain.Thread, error) {
	if m.MockListBySubforum != nil {
		return m.MockListBySubforum(subforumId, page)
	}
	return nil, nil
}

func (m *MockThreadService) ListLatest(ctx context.Context, limit int) ([]domain.Thread, error) {
	if m.MockListLatest != nil {
		return m.MockListLatest(limit)
	}
	return nil, nil
}

func (m *MockThreadService) ListRecent(ctx context.Context, limit int) ([]domain.Thread, error) {
	if m.MockListRecent != nil {
		return m.MockListRecent(limit)
	}
	return nil, nil
}

func (m *MockThreadService) Update(ctx context.Context, id domain.ThreadId, data domain.ThreadUpdateData) (domain.Thread, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(id, data)
	}
	return domain.Thread{Id: id}, nil
}

func (m *MockThreadService) Delete(ctx context.Context, id domain.ThreadId) error {
	if m.MockDelete != nil {
		return m.MockDelete(id)
	}
	return nil
}

func (m *MockThreadService) ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error) {
	if m.MockToggleSticky != nil {
		return m.MockToggleSticky(id)
	}
	return false, nil
}

func (m *MockThreadService) ToggleLocked(ctx context.Context, id domain.ThreadId) (bool, error) {
	if m.MockToggleLocked != nil {
		return m.MockToggleLocked(id)
	}
	return false, nil
}

func (m *MockThreadService) Move(ctx context.Context, id domain.ThreadId, subforumId domain.SubforumId) error {
	if m.MockMove != nil {
		return m.MockMove(id, subforumId)
	}
	return nil
}

func (m *MockThreadService) IncrementViewCount(ctx context.Context, id domain.ThreadId) error {
	if m.MockIncrementView != nil {
		return m.MockIncrementView(id)
	}
	return nil
}

func (m *MockThreadService) Subscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	if m.MockSubscribe != nil {
		return m.MockSubscribe(userId, threadId)
	}
	return nil
}

func (m *MockThreadService) Unsubscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	if m.MockUnsubscribe != nil {
		return m.MockUnsubscribe(userId, threadId)
	}
	return nil
}

func (m *MockThreadService) IsSubscribed(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) (bool, error) {
	if m.MockIsSubscribed != nil {
		return m.MockIsSubscribed(userId, threadId)
	}
	return false, nil
}

func (m *MockThreadService) ListSubscriptions(ctx context.Context, userId domain.UserId) ([]domain.Subscription, error) {
	if m.MockListSubscriptions != nil {
		return m.MockListSubscriptions(userId)
	}
	return nil, nil
}

type MockPostService struct {
	MockCreate       func(data domain.PostCreationData) (domain.Post, error)
	MockGet          func(id domain.PostId) (domain.Post, error)
	MockListByThread func(threadId domain.ThreadId, page int) ([]domain.Post, error)
	MockCount        func(threadId domain.ThreadId) (int, error)
	MockLocate       func(postId domain.PostId) (domain.PostLocation, error)
	MockUpdate       func(requester domain.User, id domain.PostId, data domain.PostUpdateData) (domain.Post, error)
	MockDelete       func(requester domain.User, id domain.PostId) (domain.PostDeletion, error)
	MockSearch       func(query string, limit int) ([]domain.PostSearchResult, error)
	PerPage          int
}

func (m *MockPostService) Create(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	if m.MockCreate != nil {
		return m.MockCreate(data)
	}
	return domain.Post{}, nil
}

func (m *MockPostService) Get(ctx context.Context, id domain.PostId) (domain.Post, error) {
	if m.MockGet != nil {
		return m.MockGet(id)
	}
	return domain.Post{Id: id}, nil
}

func (m *MockPostService) GetFirstByThread(ctx context.Context, threadId domain.ThreadId) (domain.Post, error) {
	return domain.Post{ThreadId: threadId}, nil
}

func (m *MockPostService) ListByThread(ctx context.Context, threadId domain.ThreadId, page int) ([]domain.Post, error) {
	if m.MockListByThread != nil {
		return m.MockListByThread(threadId, page)
	}
	return nil, nil
}

func (m *MockPostService) CountByThread(ctx context.Context, threadId domain.ThreadId) (int, error) {
	if m.MockCount != nil {
		return m.MockCount(threadId)
	}
	return 0, nil
}

func (m *MockPostService) GetPosition(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (int, error) {
	return 0, nil
}

func (m *MockPostService) PageFor(position int) int {
	perPage := m.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if position < 1 {
		return 1
	}
	return (position + perPage - 1) / perPage
}

func (m *MockPostService) Locate(ctx context.Context, postId domain.PostId) (domain.PostLocation, error) {
	if m.MockLocate != nil {
		return m.MockLocate(postId)
	}
	return domain.PostLocation{PostId: postId}, nil
}

func (m *MockPostService) Update(ctx context.Context, requester domain.User, id domain.PostId, data domain.PostUpdateData) (domain.Post, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(requester, id, data)
	}
	return domain.Post{Id: id}, nil
}

func (m *MockPostService) Delete(ctx context.Context, requester domain.User, id domain.PostId) (domain.PostDeletion, error) {
	if m.MockDelete != nil {
		return m.MockDelete(requester, id)
	}
	return domain.PostDeletion{}, nil
}

func (m *MockPostService) Search(ctx context.Context, query string, limit int) ([]domain.PostSearchResult, error) {
	if m.MockSearch != nil {
		return m.MockSearch(query, limit)
	}
	return nil, nil
}

type MockReactionService struct {
	MockToggle            func(postId domain.PostId, userId domain.UserId, typ domain.ReactionType) (bool, error)
	MockTallies           func(postId domain.PostId) ([]domain.ReactionCount, error)
	MockUserReactionTypes func(postId domain.PostId, userId domain.UserId) ([]domain.ReactionType, error)
	MockUsersByReaction   func(postId domain.PostId, typ domain.ReactionType) ([]domain.ReactionUser, error)
}

func (m *MockReactionService) Toggle(ctx context.Context, postId domain.PostId, userId domain.UserId, typ domain.ReactionType) (bool, error) {
	if m.MockToggle != nil {
		return m.MockToggle(postId, userId, typ)
	}
	return false, nil
}

func (m *MockReactionService) Tallies(ctx context.Context, postId domain.PostId) ([]domain.ReactionCount, error) {
	if m.MockTallies != nil {
		return m.MockTallies(postId)
	}
	return nil, nil
}

func (m *MockReactionService) UserReactionTypes(ctx context.Context, postId domain.PostId, userId domain.UserId) ([]domain.ReactionType, error) {
	if m.MockUserReactionTypes != nil {
		return m.MockUserReactionTypes(postId, userId)
	}
	return nil, nil
}

func (m *MockReactionService) UsersByReaction(ctx context.Context, postId domain.PostId, typ domain.ReactionType) ([]domain.ReactionUser, error) {
	if m.MockUsersByReaction != nil {
		return m.MockUsersByReaction(postId, typ)
	}
	return nil, nil
}

type MockActivityService struct {
	MockList     func(userId domain.UserId, unreadOnly bool, limit int) ([]domain.Activity, error)
	MockMarkRead func(userId domain.UserId) (int64, error)
}

func (m *MockActivityService) List(ctx context.Context, userId domain.UserId, unreadOnly bool, limit int) ([]domain.Activity, error) {
	if m.MockList != nil {
		return m.MockList(userId, unreadOnly, limit)
	}
	return nil, nil
}

func (m *MockActivityService) MarkRead(ctx context.Context, userId domain.UserId) (int64, error) {
	if m.MockMarkRead != nil {
		return m.MockMarkRead(userId)
	}
	return 0, nil
}

type MockSubforumService struct {
	MockCreate func(name string) (domain.Subforum, error)
	MockList   func() ([]domain.Subforum, error)
}

func (m *MockSubforumService) Create(ctx context.Context, name string) (domain.Subforum, error) {
	if m.MockCreate != nil {
		return m.MockCreate(name)
	}
	return domain.Subforum{Name: name}, nil
}

func (m *MockSubforumService) List(ctx context.Context) ([]domain.Subforum, error) {
	if m.MockList != nil {
		return m.MockList()
	}
	return nil, nil
}

type MockCacheAdmin struct {
	clearedAll   int
	clearedTypes []string
}

func (m *MockCacheAdmin) ClearAll(ctx context.Context) { m.clearedAll++ }

func (m *MockCacheAdmin) ClearType(ctx context.Context, typ string) {
	m.clearedTypes = append(m.clearedTypes, typ)
}

type MockPinger struct {
	err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.err }
