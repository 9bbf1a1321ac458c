package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agora-forum/agora/shared/domain"
	internal_errors "github.com/agora-forum/agora/shared/errors"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"
)

// threadSelect reads threads together with the last poster's username, so
// listings need no per-row lookups. The threads table is aliased t.
const threadSelect = `
	SELECT
		t.id, t.subforum_id, t.title, t.slug, t.author_id,
		t.is_sticky, t.is_locked, t.view_count, t.post_count,
		t.last_post_id, t.last_post_at, t.last_post_author_id, COALESCE(lu.username, ''),
		t.created_at, t.updated_at
	FROM threads t
	LEFT JOIN users lu ON lu.id = t.last_post_author_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (domain.Thread, error) {
	var (
		t            domain.Thread
		lastPostId   sql.NullInt64
		lastPostAt   sql.NullTime
		lastAuthorId sql.NullInt64
		lastAuthor   string
	)
	err := row.Scan(
		&t.Id, &t.SubforumId, &t.Title, &t.Slug, &t.AuthorId,
		&t.IsSticky, &t.IsLocked, &t.ViewCount, &t.PostCount,
		&lastPostId, &lastPostAt, &lastAuthorId, &lastAuthor,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Thread{}, err
	}
	if lastPostId.Valid {
		t.LastPost = &domain.LastPost{
			Id:         lastPostId.Int64,
			CreatedAt:  lastPostAt.Time,
			AuthorId:   lastAuthorId.Int64,
			AuthorName: lastAuthor,
		}
	}
	return t, nil
}

func threadNotFound() error {
	return internal_errors.NotFound("Thread not found")
}

func queryThreads(ctx context.Context, q sharedpg.Querier, query string, args ...any) ([]domain.Thread, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	threads := []domain.Thread{}
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return threads, nil
}

func getThread(ctx context.Context, q sharedpg.Querier, id domain.ThreadId, forUpdate bool) (domain.Thread, error) {
	query := threadSelect + " WHERE t.id = $1"
	if forUpdate {
		query += " FOR UPDATE OF t"
	}
	t, err := scanThread(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, threadNotFound()
		}
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return t, nil
}

// refreshThreadStats recomputes post_count and the last-post pointer from the
// posts that remain in the thread.
func refreshThreadStats(ctx context.Context, q sharedpg.Querier, id domain.ThreadId) error {
	_, err := q.ExecContext(ctx, `
		UPDATE threads t
		SET post_count = s.cnt,
		    last_post_id = s.id,
		    last_post_at = s.created_at,
		    last_post_author_id = s.author_id
		FROM (
			SELECT
				(SELECT count(*) FROM posts WHERE thread_id = $1) AS cnt,
				lp.id, lp.created_at, lp.author_id
			FROM (SELECT 1) AS one
			LEFT JOIN LATERAL (
				SELECT id, created_at, author_id
				FROM posts
				WHERE thread_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT 1
			) lp ON true
		) s
		WHERE t.id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to refresh thread stats: %w", err)
	}
	return nil
}

// CreateThread inserts the thread and its first post in one transaction. Slug
// collisions are detected by the unique constraint and retried with the next
// candidate from nextSlug.
func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData, nextSlug func(attempt int) string) (domain.ThreadId, error) {
	createdAt := timeOrNow(data.CreatedAt)

	var id domain.ThreadId
	err := sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := ensureSubforum(ctx, tx, data.SubforumId); err != nil {
			return err
		}

		for attempt := 0; attempt < maxSlugAttempts; attempt++ {
			err := tx.QueryRowContext(ctx, `
				INSERT INTO threads (subforum_id, title, slug, author_id, is_sticky, is_locked, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
				ON CONFLICT (slug) DO NOTHING
				RETURNING id`,
				data.SubforumId, data.Title, nextSlug(attempt), data.Author.Id,
				data.IsSticky, data.IsLocked, createdAt,
			).Scan(&id)
			if errors.Is(err, sql.ErrNoRows) {
				continue // slug taken
			}
			if err != nil {
				if sharedpg.IsForeignKeyViolation(err) {
					return internal_errors.BadRequest("Unknown author")
				}
				return fmt.Errorf("failed to insert thread: %w", err)
			}
			break
		}
		if id == 0 {
			return internal_errors.Conflict("Could not allocate a unique slug")
		}

		if _, err := insertPost(ctx, tx, id, data.Author.Id, data.Content, createdAt); err != nil {
			return fmt.Errorf("failed to create first post: %w", err)
		}
		return refreshThreadStats(ctx, tx, id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return getThread(ctx, s.db, id, false)
}

func (s *Storage) GetThreadBySlug(ctx context.Context, slug domain.ThreadSlug) (domain.Thread, error) {
	t, err := scanThread(s.db.QueryRowContext(ctx, threadSelect+" WHERE t.slug = $1", slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, threadNotFound()
		}
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return t, nil
}

// ListThreadsBySubforum returns sticky threads first, then the most recently
// active ones.
func (s *Storage) ListThreadsBySubforum(ctx context.Context, subforumId domain.SubforumId, limit, offset int) ([]domain.Thread, error) {
	return queryThreads(ctx, s.db, threadSelect+`
		WHERE t.subforum_id = $1
		ORDER BY t.is_sticky DESC, t.last_post_at DESC NULLS LAST, t.id DESC
		LIMIT $2 OFFSET $3`, subforumId, limit, offset)
}

// ListLatestThreads returns the newest threads by creation time.
func (s *Storage) ListLatestThreads(ctx context.Context, limit int) ([]domain.Thread, error) {
	return queryThreads(ctx, s.db, threadSelect+`
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $1`, limit)
}

// ListRecentThreads returns the threads with the most recent posts.
func (s *Storage) ListRecentThreads(ctx context.Context, limit int) ([]domain.Thread, error) {
	return queryThreads(ctx, s.db, threadSelect+`
		ORDER BY t.last_post_at DESC NULLS LAST, t.id DESC
		LIMIT $1`, limit)
}

// UpdateThread applies data in one transaction and returns the thread as it
// was before and after the update.
func (s *Storage) UpdateThread(ctx context.Context, id domain.ThreadId, data domain.ThreadUpdateData, nextSlug func(attempt int) string) (before, after domain.Thread, err error) {
	updatedAt := timeOrNow(data.UpdatedAt)

	err = sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		before, err = getThread(ctx, tx, id, true)
		if err != nil {
			return err
		}

		if data.Title != nil && *data.Title != before.Title {
			if err := renameThread(ctx, tx, id, *data.Title, nextSlug); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, "UPDATE threads SET updated_at = $2 WHERE id = $1", id, updatedAt); err != nil {
			return fmt.Errorf("failed to touch thread: %w", err)
		}

		if data.Content != nil {
			firstId, err := firstPostId(ctx, tx, id)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE posts SET content = $2, edited_at = $3 WHERE id = $1",
				firstId, *data.Content, updatedAt,
			); err != nil {
				return fmt.Errorf("failed to update first post: %w", err)
			}
		}

		after, err = getThread(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return domain.Thread{}, domain.Thread{}, err
	}
	return before, after, nil
}

// renameThread sets a new title and re-resolves the slug. Each attempt runs
// under a savepoint so a unique violation leaves the transaction usable. The
// thread's own slug never collides with itself.
func renameThread(ctx context.Context, tx *sql.Tx, id domain.ThreadId, title string, nextSlug func(attempt int) string) error {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := nextSlug(attempt)
		err := sharedpg.WithSavepoint(ctx, tx, "thread_rename", func() error {
			_, err := tx.ExecContext(ctx,
				"UPDATE threads SET title = $2, slug = $3 WHERE id = $1",
				id, title, candidate)
			return err
		})
		if err == nil {
			return nil
		}
		if sharedpg.IsUniqueViolation(err) {
			continue
		}
		return fmt.Errorf("failed to rename thread: %w", err)
	}
	return internal_errors.Conflict("Could not allocate a unique slug")
}

// DeleteThread removes the thread and all of its posts atomically and returns
// the deleted thread.
func (s *Storage) DeleteThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	var deleted domain.Thread
	err := sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		deleted, err = getThread(ctx, tx, id, true)
		if err != nil {
			return err
		}
		return deleteThreadTx(ctx, tx, id)
	})
	if err != nil {
		return domain.Thread{}, err
	}
	return deleted, nil
}

func deleteThreadTx(ctx context.Context, tx *sql.Tx, id domain.ThreadId) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE thread_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete posts: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM threads WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return threadNotFound()
	}
	return nil
}

// ToggleSticky flips is_sticky and returns the updated thread.
func (s *Storage) ToggleSticky(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return s.toggleFlag(ctx, id, "is_sticky")
}

// ToggleLocked flips is_locked and returns the updated thread.
func (s *Storage) ToggleLocked(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return s.toggleFlag(ctx, id, "is_locked")
}

// column is one of the two flag names above, never user input.
func (s *Storage) toggleFlag(ctx context.Context, id domain.ThreadId, column string) (domain.Thread, error) {
	query := fmt.Sprintf(`
		WITH t AS (
			UPDATE threads SET %[1]s = NOT %[1]s WHERE id = $1 RETURNING *
		)
		SELECT
			t.id, t.subforum_id, t.title, t.slug, t.author_id,
			t.is_sticky, t.is_locked, t.view_count, t.post_count,
			t.last_post_id, t.last_post_at, t.last_post_author_id, COALESCE(lu.username, ''),
			t.created_at, t.updated_at
		FROM t
		LEFT JOIN users lu ON lu.id = t.last_post_author_id`, column)

	t, err := scanThread(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, threadNotFound()
		}
		return domain.Thread{}, fmt.Errorf("failed to toggle %s: %w", column, err)
	}
	return t, nil
}

// MoveThread reassigns the thread to another subforum and returns the thread
// as it was before the move.
func (s *Storage) MoveThread(ctx context.Context, id domain.ThreadId, subforumId domain.SubforumId) (domain.Thread, error) {
	var before domain.Thread
	err := sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		before, err = getThread(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if err := ensureSubforum(ctx, tx, subforumId); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE threads SET subforum_id = $2 WHERE id = $1", id, subforumId,
		); err != nil {
			return fmt.Errorf("failed to move thread: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Thread{}, err
	}
	return before, nil
}

func (s *Storage) IncrementViewCount(ctx context.Context, id domain.ThreadId) error {
	res, err := s.db.ExecContext(ctx, "UPDATE threads SET view_count = view_count + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return threadNotFound()
	}
	return nil
}

func ensureSubforum(ctx context.Context, q sharedpg.Querier, id domain.SubforumId) error {
	var exists bool
	if err := q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM subforums WHERE id = $1)", id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to validate subforum: %w", err)
	}
	if !exists {
		return internal_errors.NotFound("Subforum not found")
	}
	return nil
}

func firstPostId(ctx context.Context, q sharedpg.Querier, threadId domain.ThreadId) (domain.PostId, error) {
	var id domain.PostId
	err := q.QueryRowContext(ctx, `
		SELECT id FROM posts
		WHERE thread_id = $1
		ORDER BY created_at, id
		LIMIT 1`, threadId).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, internal_errors.NotFound("Post not found")
		}
		return 0, fmt.Errorf("failed to find first post: %w", err)
	}
	return id, nil
}
