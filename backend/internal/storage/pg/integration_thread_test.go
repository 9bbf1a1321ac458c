package pg

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agora-forum/agora/backend/internal/utils"
	"github.com/agora-forum/agora/shared/domain"
	internal_errors "github.com/agora-forum/agora/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateIsIdempotent(t *testing.T) {
	applied, err := storage.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied, "second run must not reapply anything")

	var viewCountColumn bool
	require.NoError(t, storage.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'threads' AND column_name = 'view_count'
		)`).Scan(&viewCountColumn))
	assert.True(t, viewCountColumn)
}

func TestCreateThread(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	author := setupUser(t)

	t.Run("Success", func(t *testing.T) {
		slug := unique("hello-world")
		id, err := storage.CreateThread(ctx, domain.ThreadCreationData{
			SubforumId: subforumId,
			Title:      "Hello World",
			Author:     author,
			IsSticky:   true,
			Content:    "body",
		}, fixedSlug(slug))
		require.NoError(t, err)

		thread, err := storage.GetThread(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Hello World", thread.Title)
		assert.Equal(t, slug, thread.Slug)
		assert.Equal(t, subforumId, thread.SubforumId)
		assert.Equal(t, author.Id, thread.AuthorId)
		assert.True(t, thread.IsSticky)
		assert.False(t, thread.IsLocked)
		assert.Equal(t, 1, thread.PostCount)
		require.NotNil(t, thread.LastPost)
		assert.Equal(t, author.Username, thread.LastPost.AuthorName)
		assert.True(t, thread.CreatedAt.Equal(thread.LastPost.CreatedAt))

		first, err := storage.GetFirstPost(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "body", first.Content)
		assert.Equal(t, first.Id, thread.LastPost.Id)
		assert.Equal(t, domain.DefaultAvatar, first.Author.Avatar)
	})

	t.Run("SlugCollisionRetries", func(t *testing.T) {
		slug := unique("dup")
		first := domain.ThreadCreationData{SubforumId: subforumId, Title: "Dup", Author: author, Content: "a"}

		id1, err := storage.CreateThread(ctx, first, fixedSlug(slug))
		require.NoError(t, err)
		id2, err := storage.CreateThread(ctx, first, fixedSlug(slug))
		require.NoError(t, err)

		t1, err := storage.GetThread(ctx, id1)
		require.NoError(t, err)
		t2, err := storage.GetThread(ctx, id2)
		require.NoError(t, err)
		assert.Equal(t, slug, t1.Slug)
		assert.Equal(t, slug+"-1", t2.Slug)
		assert.Equal(t, 1, t2.PostCount, "collision retry must not leave stray rows")
	})

	t.Run("LongTitleFitsSlugColumn", func(t *testing.T) {
		title := strings.Repeat("中", 255)
		slugs := utils.NewSlugger(nil, utils.MaxThreadSlugLength)
		data := domain.ThreadCreationData{SubforumId: subforumId, Title: title, Author: author, Content: "a"}

		id1, err := storage.CreateThread(ctx, data, slugs.Candidates(title))
		require.NoError(t, err)
		id2, err := storage.CreateThread(ctx, data, slugs.Candidates(title))
		require.NoError(t, err, "suffixed retry must fit as well")

		for _, id := range []domain.ThreadId{id1, id2} {
			thread, err := storage.GetThread(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, title, thread.Title)
			assert.LessOrEqual(t, len(thread.Slug), utils.MaxThreadSlugLength)
		}
	})

	t.Run("SlugExhausted", func(t *testing.T) {
		slug := unique("stuck")
		always := func(int) string { return slug }
		data := domain.ThreadCreationData{SubforumId: subforumId, Title: "Stuck", Author: author, Content: "a"}

		_, err := storage.CreateThread(ctx, data, always)
		require.NoError(t, err)
		_, err = storage.CreateThread(ctx, data, always)
		require.Error(t, err)
		assert.Equal(t, 409, internal_errors.StatusCode(err))
	})

	t.Run("SubforumNotFound", func(t *testing.T) {
		_, err := storage.CreateThread(ctx, domain.ThreadCreationData{
			SubforumId: -1, Title: "x", Author: author, Content: "x",
		}, fixedSlug(unique("x")))
		require.Error(t, err)
		assert.True(t, internal_errors.IsNotFound(err))
	})

	t.Run("UnknownAuthorRollsBack", func(t *testing.T) {
		slug := unique("ghost")
		_, err := storage.CreateThread(ctx, domain.ThreadCreationData{
			SubforumId: subforumId, Title: "x", Author: domain.User{Id: -1}, Content: "x",
		}, fixedSlug(slug))
		require.Error(t, err)
		assert.Equal(t, 400, internal_errors.StatusCode(err))

		_, err = storage.GetThreadBySlug(ctx, slug)
		assert.True(t, internal_errors.IsNotFound(err), "failed create must leave no thread row")
	})
}

func TestGetThreadBySlug(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	id := createThread(t, subforumId, setupUser(t), "By slug")

	thread, err := storage.GetThread(ctx, id)
	require.NoError(t, err)

	bySlug, err := storage.GetThreadBySlug(ctx, thread.Slug)
	require.NoError(t, err)
	assert.Equal(t, thread, bySlug)

	_, err = storage.GetThreadBySlug(ctx, "no-such-slug")
	assert.True(t, internal_errors.IsNotFound(err))
	_, err = storage.GetThread(ctx, -1)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestListThreadsBySubforum(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	author := setupUser(t)
	replier := setupUser(t)

	older := createThread(t, subforumId, author, "older")
	newer := createThread(t, subforumId, author, "newer")
	sticky := createThread(t, subforumId, author, "sticky")
	_, err := storage.ToggleSticky(ctx, sticky)
	require.NoError(t, err)

	// a reply bumps the older thread above the newer one
	bump := time.Now().Add(time.Minute)
	_, err = storage.CreatePost(ctx, domain.PostCreationData{ThreadId: older, Author: replier, Content: "bump", CreatedAt: &bump})
	require.NoError(t, err)

	threads, err := storage.ListThreadsBySubforum(ctx, subforumId, 10, 0)
	require.NoError(t, err)
	require.Len(t, threads, 3)
	assert.Equal(t, sticky, threads[0].Id, "sticky threads come first")
	assert.Equal(t, older, threads[1].Id)
	assert.Equal(t, newer, threads[2].Id)

	assert.Equal(t, 2, threads[1].PostCount)
	require.NotNil(t, threads[1].LastPost)
	assert.Equal(t, replier.Username, threads[1].LastPost.AuthorName)

	page2, err := storage.ListThreadsBySubforum(ctx, subforumId, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, newer, page2[0].Id)

	empty, err := storage.ListThreadsBySubforum(ctx, -1, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListLatestAndRecent(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	author := setupUser(t)

	a := createThread(t, subforumId, author, "a")
	b := createThread(t, subforumId, author, "b")
	future := time.Now().Add(time.Hour)
	_, err := storage.CreatePost(ctx, domain.PostCreationData{ThreadId: a, Author: author, Content: "bump", CreatedAt: &future})
	require.NoError(t, err)

	latest, err := storage.ListLatestThreads(ctx, 50)
	require.NoError(t, err)
	assert.Less(t, indexOf(latest, b), indexOf(latest, a), "latest orders by creation")

	recent, err := storage.ListRecentThreads(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, a, recent[0].Id, "recent orders by last post")
}

func indexOf(threads []domain.Thread, id domain.ThreadId) int {
	for i, t := range threads {
		if t.Id == id {
			return i
		}
	}
	return -1
}

func TestUpdateThread(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	author := setupUser(t)

	t.Run("RenameResolvesSlug", func(t *testing.T) {
		taken := createThread(t, subforumId, author, "taken")
		takenThread, err := storage.GetThread(ctx, taken)
		require.NoError(t, err)

		id := createThread(t, subforumId, author, "original")
		title := "renamed"
		before, after, err := storage.UpdateThread(ctx, id, domain.ThreadUpdateData{Title: &title}, fixedSlug(takenThread.Slug))
		require.NoError(t, err)

		assert.Equal(t, "original", before.Title)
		assert.Equal(t, "renamed", after.Title)
		assert.Equal(t, takenThread.Slug+"-1", after.Slug, "collision with another thread must be retried")
		assert.NotEqual(t, before.Slug, after.Slug)
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt) || after.UpdatedAt.Equal(before.UpdatedAt))
	})

	t.Run("SelfSlugIsNotACollision", func(t *testing.T) {
		id := createThread(t, subforumId, author, "same")
		thread, err := storage.GetThread(ctx, id)
		require.NoError(t, err)

		title := "Same"
		_, after, err := storage.UpdateThread(ctx, id, domain.ThreadUpdateData{Title: &title}, fixedSlug(thread.Slug))
		require.NoError(t, err)
		assert.Equal(t, thread.Slug, after.Slug)
		assert.Equal(t, "Same", after.Title)
	})

	t.Run("ContentAndTimestamp", func(t *testing.T) {
		id := createThread(t, subforumId, author, "content")
		content := "new body"
		at := time.Date(2031, 5, 6, 7, 8, 9, 0, time.UTC)
		_, after, err := storage.UpdateThread(ctx, id, domain.ThreadUpdateData{Content: &content, UpdatedAt: &at}, fixedSlug("unused"))
		require.NoError(t, err)
		assert.True(t, at.Equal(after.UpdatedAt))

		first, err := storage.GetFirstPost(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "new body", first.Content)
		require.NotNil(t, first.EditedAt)
		assert.True(t, at.Equal(*first.EditedAt))
	})

	t.Run("NotFound", func(t *testing.T) {
		title := "x"
		_, _, err := storage.UpdateThread(ctx, -1, domain.ThreadUpdateData{Title: &title}, fixedSlug("x"))
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestDeleteThread(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	author := setupUser(t)

	id := createThread(t, subforumId, author, "doomed")
	posts := createReplies(t, id, author, 2)
	_, err := storage.ToggleReaction(ctx, posts[0].Id, author.Id, "like")
	require.NoError(t, err)
	require.NoError(t, storage.Subscribe(ctx, author.Id, id))

	deleted, err := storage.DeleteThread(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, deleted.Id)
	assert.Equal(t, subforumId, deleted.SubforumId)

	_, err = storage.GetThread(ctx, id)
	assert.True(t, internal_errors.IsNotFound(err))
	assert.Equal(t, 0, countPostRows(t, id))
	_, err = storage.GetPost(ctx, posts[0].Id)
	assert.True(t, internal_errors.IsNotFound(err))

	subscribed, err := storage.IsSubscribed(ctx, author.Id, id)
	require.NoError(t, err)
	assert.False(t, subscribed)

	_, err = storage.DeleteThread(ctx, id)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestToggleFlags(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	id := createThread(t, subforumId, setupUser(t), "flags")

	sticky, err := storage.ToggleSticky(ctx, id)
	require.NoError(t, err)
	assert.True(t, sticky.IsSticky)
	assert.False(t, sticky.IsLocked, "flags are independent")

	locked, err := storage.ToggleLocked(ctx, id)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.True(t, locked.IsSticky)

	unsticky, err := storage.ToggleSticky(ctx, id)
	require.NoError(t, err)
	assert.False(t, unsticky.IsSticky)
	assert.True(t, unsticky.IsLocked)

	_, err = storage.ToggleSticky(ctx, -1)
	assert.True(t, internal_errors.IsNotFound(err))
	_, err = storage.ToggleLocked(ctx, -1)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestMoveThread(t *testing.T) {
	ctx := context.Background()
	from := setupSubforum(t)
	to := setupSubforum(t)
	id := createThread(t, from, setupUser(t), "mover")

	before, err := storage.MoveThread(ctx, id, to)
	require.NoError(t, err)
	assert.Equal(t, from, before.SubforumId)

	thread, err := storage.GetThread(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, to, thread.SubforumId)

	_, err = storage.MoveThread(ctx, id, -1)
	assert.True(t, internal_errors.IsNotFound(err))
	_, err = storage.MoveThread(ctx, -1, to)
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestIncrementViewCount(t *testing.T) {
	ctx := context.Background()
	id := createThread(t, setupSubforum(t), setupUser(t), "views")

	for range 3 {
		require.NoError(t, storage.IncrementViewCount(ctx, id))
	}
	thread, err := storage.GetThread(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), thread.ViewCount)

	assert.True(t, internal_errors.IsNotFound(storage.IncrementViewCount(ctx, -1)))
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	subforumId := setupSubforum(t)
	user := setupUser(t)
	id := createThread(t, subforumId, user, "subs")

	require.NoError(t, storage.Subscribe(ctx, user.Id, id))
	require.NoError(t, storage.Subscribe(ctx, user.Id, id), "subscribing twice is a no-op")

	var rows int
	require.NoError(t, storage.db.QueryRow(
		"SELECT count(*) FROM thread_subscriptions WHERE user_id = $1 AND thread_id = $2", user.Id, id,
	).Scan(&rows))
	assert.Equal(t, 1, rows)

	subscribed, err := storage.IsSubscribed(ctx, user.Id, id)
	require.NoError(t, err)
	assert.True(t, subscribed)

	subs, err := storage.ListSubscriptions(ctx, user.Id)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, id, subs[0].ThreadId)
	assert.Equal(t, "subs", subs[0].ThreadTitle)
	assert.NotNil(t, subs[0].LastPostAt)

	require.NoError(t, storage.Unsubscribe(ctx, user.Id, id))
	require.NoError(t, storage.Unsubscribe(ctx, user.Id, id), "unsubscribing a missing pair is a no-op")

	subscribed, err = storage.IsSubscribed(ctx, user.Id, id)
	require.NoError(t, err)
	assert.False(t, subscribed)

	assert.True(t, internal_errors.IsNotFound(storage.Subscribe(ctx, user.Id, -1)))
}
