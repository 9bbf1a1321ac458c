package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agora-forum/agora/shared/domain"
	internal_errors "github.com/agora-forum/agora/shared/errors"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"
)

const postSelect = `
	SELECT
		p.id, p.thread_id, p.author_id, COALESCE(u.username, ''), COALESCE(u.avatar, ''),
		p.content, p.created_at, p.edited_at
	FROM posts p
	LEFT JOIN users u ON u.id = p.author_id`

func scanPost(row rowScanner, extra ...any) (domain.Post, error) {
	var (
		p        domain.Post
		editedAt sql.NullTime
	)
	dest := []any{
		&p.Id, &p.ThreadId, &p.Author.Id, &p.Author.Username, &p.Author.Avatar,
		&p.Content, &p.CreatedAt, &editedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Post{}, err
	}
	if p.Author.Avatar == "" {
		p.Author.Avatar = domain.DefaultAvatar
	}
	if editedAt.Valid {
		p.EditedAt = &editedAt.Time
	}
	return p, nil
}

func postNotFound() error {
	return internal_errors.NotFound("Post not found")
}

func insertPost(ctx context.Context, q sharedpg.Querier, threadId domain.ThreadId, authorId domain.UserId, content domain.PostContent, createdAt time.Time) (domain.PostId, error) {
	var id domain.PostId
	err := q.QueryRowContext(ctx, `
		INSERT INTO posts (thread_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		threadId, authorId, content, createdAt,
	).Scan(&id)
	if err != nil {
		if sharedpg.IsForeignKeyViolation(err) {
			return 0, internal_errors.BadRequest("Unknown author")
		}
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}
	return id, nil
}

// CreatePost adds a reply and updates the thread's counter, last-post pointer
// and updated_at in the same transaction. The thread row is locked for the
// duration so concurrent replies serialize on it. Locked threads only accept
// replies from admins.
func (s *Storage) CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	createdAt := timeOrNow(data.CreatedAt)

	var id domain.PostId
	err := sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var locked bool
		err := tx.QueryRowContext(ctx,
			"SELECT is_locked FROM threads WHERE id = $1 FOR UPDATE", data.ThreadId,
		).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return threadNotFound()
			}
			return fmt.Errorf("failed to lock thread: %w", err)
		}
		if locked && !data.Author.Admin {
			return internal_errors.Forbidden("Thread is locked")
		}

		id, err = insertPost(ctx, tx, data.ThreadId, data.Author.Id, data.Content, createdAt)
		if err != nil {
			return err
		}
		if err := refreshThreadStats(ctx, tx, data.ThreadId); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE threads SET updated_at = GREATEST(updated_at, $2) WHERE id = $1",
			data.ThreadId, createdAt,
		); err != nil {
			return fmt.Errorf("failed to touch thread: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Post{}, err
	}

	return domain.Post{
		Id:        id,
		ThreadId:  data.ThreadId,
		Author:    domain.AuthorOf(data.Author),
		Content:   data.Content,
		CreatedAt: createdAt,
	}, nil
}

func (s *Storage) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+" WHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, postNotFound()
		}
		return domain.Post{}, fmt.Errorf("failed to fetch post: %w", err)
	}
	return p, nil
}

// GetFirstPost returns the post that forms the thread body.
func (s *Storage) GetFirstPost(ctx context.Context, threadId domain.ThreadId) (domain.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+`
		WHERE p.thread_id = $1
		ORDER BY p.created_at, p.id
		LIMIT 1`, threadId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, postNotFound()
		}
		return domain.Post{}, fmt.Errorf("failed to fetch first post: %w", err)
	}
	return p, nil
}

// ListPosts returns a page of the thread's posts, oldest first.
func (s *Storage) ListPosts(ctx context.Context, threadId domain.ThreadId, limit, offset int) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+`
		WHERE p.thread_id = $1
		ORDER BY p.created_at, p.id
		LIMIT $2 OFFSET $3`, threadId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return posts, nil
}

func (s *Storage) CountPosts(ctx context.Context, threadId domain.ThreadId) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM posts WHERE thread_id = $1", threadId,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// PostPosition returns the 1-based ordinal of the post within its thread,
// counting every post created at or before it.
func (s *Storage) PostPosition(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM posts p, (SELECT created_at, id FROM posts WHERE id = $2 AND thread_id = $1) target
		WHERE p.thread_id = $1
		  AND (p.created_at, p.id) <= (target.created_at, target.id)`,
		threadId, postId,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to compute post position: %w", err)
	}
	if n == 0 {
		return 0, postNotFound()
	}
	return n, nil
}

// UpdatePost replaces the content and stamps edited_at.
func (s *Storage) UpdatePost(ctx context.Context, id domain.PostId, data domain.PostUpdateData) (domain.Post, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE posts SET content = $2, edited_at = $3 WHERE id = $1",
		id, data.Content, timeOrNow(data.EditedAt))
	if err != nil {
		return domain.Post{}, fmt.Errorf("failed to update post: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return domain.Post{}, err
	}
	if n == 0 {
		return domain.Post{}, postNotFound()
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post and recomputes the thread's counter and last-post
// pointer. Deleting the first post deletes the whole thread.
func (s *Storage) DeletePost(ctx context.Context, id domain.PostId) (domain.PostDeletion, error) {
	var result domain.PostDeletion
	err := sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			SELECT t.id, t.subforum_id, t.slug
			FROM posts p
			JOIN threads t ON t.id = p.thread_id
			WHERE p.id = $1
			FOR UPDATE OF t`, id,
		).Scan(&result.ThreadId, &result.SubforumId, &result.ThreadSlug)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return postNotFound()
			}
			return fmt.Errorf("failed to lock thread: %w", err)
		}

		firstId, err := firstPostId(ctx, tx, result.ThreadId)
		if err != nil {
			return err
		}
		if firstId == id {
			result.ThreadDeleted = true
			return deleteThreadTx(ctx, tx, result.ThreadId)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return refreshThreadStats(ctx, tx, result.ThreadId)
	})
	if err != nil {
		return domain.PostDeletion{}, err
	}
	return result, nil
}

// SearchPosts does a case-insensitive substring match over post content,
// newest first.
func (s *Storage) SearchPosts(ctx context.Context, query string, limit int) ([]domain.PostSearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			p.id, p.thread_id, p.author_id, COALESCE(u.username, ''), COALESCE(u.avatar, ''),
			p.content, p.created_at, p.edited_at,
			t.title, t.slug
		FROM posts p
		JOIN threads t ON t.id = p.thread_id
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.content ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2`, sharedpg.EscapeLike(query), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	defer rows.Close()

	results := []domain.PostSearchResult{}
	for rows.Next() {
		var r domain.PostSearchResult
		p, err := scanPost(rows, &r.ThreadTitle, &r.ThreadSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		r.Post = p
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return results, nil
}
