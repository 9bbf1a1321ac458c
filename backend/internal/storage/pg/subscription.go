package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agora-forum/agora/shared/domain"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"
)

// Subscribe is idempotent: subscribing twice leaves one row.
func (s *Storage) Subscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thread_subscriptions (user_id, thread_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, thread_id) DO NOTHING`,
		userId, threadId, now())
	if err != nil {
		if sharedpg.IsForeignKeyViolation(err) {
			return threadNotFound()
		}
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes the subscription if there is one.
func (s *Storage) Unsubscribe(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM thread_subscriptions WHERE user_id = $1 AND thread_id = $2",
		userId, threadId,
	); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

func (s *Storage) IsSubscribed(ctx context.Context, userId domain.UserId, threadId domain.ThreadId) (bool, error) {
	var subscribed bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM thread_subscriptions WHERE user_id = $1 AND thread_id = $2
		)`, userId, threadId,
	).Scan(&subscribed); err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return subscribed, nil
}

// ListSubscriptions returns the user's subscribed threads, most recently
// active first.
func (s *Storage) ListSubscriptions(ctx context.Context, userId domain.UserId) ([]domain.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.user_id, s.thread_id, t.title, t.slug, t.last_post_at, s.created_at
		FROM thread_subscriptions s
		JOIN threads t ON t.id = s.thread_id
		WHERE s.user_id = $1
		ORDER BY t.last_post_at DESC NULLS LAST, t.id DESC`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []domain.Subscription{}
	for rows.Next() {
		var (
			sub        domain.Subscription
			lastPostAt sql.NullTime
		)
		if err := rows.Scan(&sub.UserId, &sub.ThreadId, &sub.ThreadTitle, &sub.ThreadSlug, &lastPostAt, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		if lastPostAt.Valid {
			sub.LastPostAt = &lastPostAt.Time
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return subs, nil
}
