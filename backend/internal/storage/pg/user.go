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

// Accounts are owned elsewhere; these helpers keep the minimal user and
// subforum rows the forum tables reference.

// EnsureUser inserts the user or refreshes its display fields, keyed by
// username, and returns the stored row.
func (s *Storage) EnsureUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, avatar, is_admin)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET avatar = EXCLUDED.avatar, is_admin = EXCLUDED.is_admin
		RETURNING id, username, avatar, is_admin`,
		u.Username, u.Avatar, u.Admin,
	).Scan(&u.Id, &u.Username, &u.Avatar, &u.Admin)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

func (s *Storage) GetUser(ctx context.Context, id domain.UserId) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, avatar, is_admin FROM users WHERE id = $1", id,
	).Scan(&u.Id, &u.Username, &u.Avatar, &u.Admin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func (s *Storage) CreateSubforum(ctx context.Context, name, slug string) (domain.Subforum, error) {
	sf := domain.Subforum{Name: name, Slug: slug}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subforums (name, slug, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		name, slug, now(),
	).Scan(&sf.Id, &sf.CreatedAt)
	if err != nil {
		if sharedpg.IsUniqueViolation(err) {
			return domain.Subforum{}, internal_errors.Conflict("Subforum already exists")
		}
		return domain.Subforum{}, fmt.Errorf("failed to create subforum: %w", err)
	}
	return sf, nil
}

func (s *Storage) ListSubforums(ctx context.Context) ([]domain.Subforum, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, slug, created_at FROM subforums ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query subforums: %w", err)
	}
	defer rows.Close()

	subforums := []domain.Subforum{}
	for rows.Next() {
		var sf domain.Subforum
		if err := rows.Scan(&sf.Id, &sf.Name, &sf.Slug, &sf.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subforum: %w", err)
		}
		subforums = append(subforums, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return subforums, nil
}
