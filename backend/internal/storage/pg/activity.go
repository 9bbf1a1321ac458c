package pg

import (
	"context"
	"fmt"

	"github.com/agora-forum/agora/shared/domain"
)

// NotifySubscribers writes one reply activity per subscriber of the thread,
// skipping the post's author, in a single statement. It returns the number of
// rows written.
func (s *Storage) NotifySubscribers(ctx context.Context, threadId domain.ThreadId, postId domain.PostId, authorId domain.UserId) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (user_id, activity_type, content_id, thread_id, created_at)
		SELECT user_id, $4, $2, $1, $5
		FROM thread_subscriptions
		WHERE thread_id = $1 AND user_id <> $3`,
		threadId, postId, authorId, domain.ActivityThreadReply, now())
	if err != nil {
		return 0, fmt.Errorf("failed to notify subscribers: %w", err)
	}
	return rowsAffected(res)
}

// ListActivity returns the user's activity, newest first.
func (s *Storage) ListActivity(ctx context.Context, userId domain.UserId, unreadOnly bool, limit int) ([]domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, activity_type, content_id, thread_id, created_at, is_read
		FROM activity_log
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, userId, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	activity := []domain.Activity{}
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.Id, &a.UserId, &a.Type, &a.ContentId, &a.ThreadId, &a.CreatedAt, &a.IsRead); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return activity, nil
}

// MarkActivityRead flags all of the user's unread activity as read.
func (s *Storage) MarkActivityRead(ctx context.Context, userId domain.UserId) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE activity_log SET is_read = TRUE WHERE user_id = $1 AND NOT is_read", userId)
	if err != nil {
		return 0, fmt.Errorf("failed to mark activity read: %w", err)
	}
	return rowsAffected(res)
}
