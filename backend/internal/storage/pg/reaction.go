package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/agora-forum/agora/shared/domain"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"
)

// ToggleReaction removes the (post, user, type) reaction when present and adds
// it otherwise. It returns whether the reaction is active afterwards.
func (s *Storage) ToggleReaction(ctx context.Context, postId domain.PostId, userId domain.UserId, typ domain.ReactionType) (bool, error) {
	var active bool
	err := sharedpg.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM post_reactions
			WHERE post_id = $1 AND user_id = $2 AND reaction_type = $3`,
			postId, userId, typ)
		if err != nil {
			return fmt.Errorf("failed to remove reaction: %w", err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n > 0 {
			active = false
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO post_reactions (post_id, user_id, reaction_type)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			postId, userId, typ,
		); err != nil {
			if sharedpg.IsForeignKeyViolation(err) {
				return postNotFound()
			}
			return fmt.Errorf("failed to add reaction: %w", err)
		}
		active = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return active, nil
}

// ReactionTallies counts the post's reactions per type.
func (s *Storage) ReactionTallies(ctx context.Context, postId domain.PostId) ([]domain.ReactionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reaction_type, count(*)
		FROM post_reactions
		WHERE post_id = $1
		GROUP BY reaction_type
		ORDER BY reaction_type`, postId)
	if err != nil {
		return nil, fmt.Errorf("failed to query reaction tallies: %w", err)
	}
	defer rows.Close()

	tallies := []domain.ReactionCount{}
	for rows.Next() {
		var c domain.ReactionCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan reaction tally: %w", err)
		}
		tallies = append(tallies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return tallies, nil
}

func (s *Storage) UserReactionTypes(ctx context.Context, postId domain.PostId, userId domain.UserId) ([]domain.ReactionType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT reaction_type
		FROM post_reactions
		WHERE post_id = $1 AND user_id = $2
		ORDER BY reaction_type`, postId, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to query user reactions: %w", err)
	}
	defer rows.Close()

	types := []domain.ReactionType{}
	for rows.Next() {
		var t domain.ReactionType
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan reaction type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return types, nil
}

// UsersByReaction lists who applied typ to the post, in reaction order.
func (s *Storage) UsersByReaction(ctx context.Context, postId domain.PostId, typ domain.ReactionType) ([]domain.ReactionUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.avatar
		FROM post_reactions r
		JOIN users u ON u.id = r.user_id
		WHERE r.post_id = $1 AND r.reaction_type = $2
		ORDER BY r.created_at, u.id`, postId, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to query reacting users: %w", err)
	}
	defer rows.Close()

	users := []domain.ReactionUser{}
	for rows.Next() {
		var u domain.ReactionUser
		if err := rows.Scan(&u.Id, &u.Username, &u.Avatar); err != nil {
			return nil, fmt.Errorf("failed to scan reacting user: %w", err)
		}
		if u.Avatar == "" {
			u.Avatar = domain.DefaultAvatar
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return users, nil
}
