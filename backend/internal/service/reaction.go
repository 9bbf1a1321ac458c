package service

import (
	"context"
	"log/slog"

	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/domain"
	internal_errors "github.com/agora-forum/agora/shared/errors"
	"github.com/agora-forum/agora/shared/logger"
)

type ReactionService interface {
	Toggle(ctx context.Context, postId domain.PostId, userId domain.UserId, typ domain.ReactionType) (bool, error)
	Tallies(ctx context.Context, postId domain.PostId) ([]domain.ReactionCount, error)
	UserReactionTypes(ctx context.Context, postId domain.PostId, userId domain.UserId) ([]domain.ReactionType, error)
	UsersByReaction(ctx context.Context, postId domain.PostId, typ domain.ReactionType) ([]domain.ReactionUser, error)
}

type ReactionStorage interface {
	ToggleReaction(ctx context.Context, postId domain.PostId, userId domain.UserId, typ domain.ReactionType) (bool, error)
	ReactionTallies(ctx context.Context, postId domain.PostId) ([]domain.ReactionCount, error)
	UserReactionTypes(ctx context.Context, postId domain.PostId, userId domain.UserId) ([]domain.ReactionType, error)
	UsersByReaction(ctx context.Context, postId domain.PostId, typ domain.ReactionType) ([]domain.ReactionUser, error)
}

type Reaction struct {
	storage ReactionStorage
	cfg     *config.Public
	logger  *slog.Logger
}

func NewReaction(storage ReactionStorage, cfg *config.Public) ReactionService {
	return &Reaction{storage: storage, cfg: cfg, logger: logger.Component("reaction_service")}
}

func (b *Reaction) validType(typ domain.ReactionType) error {
	if !b.cfg.IsReactionType(typ) {
		return internal_errors.BadRequest("Unknown reaction type")
	}
	return nil
}

// Toggle adds or removes the reaction and reports whether it is now active.
func (b *Reaction) Toggle(ctx context.Context, postId domain.PostId, userId domain.UserId, typ domain.ReactionType) (bool, error) {
	if err := b.validType(typ); err != nil {
		return false, err
	}
	active, err := b.storage.ToggleReaction(ctx, postId, userId, typ)
	if err != nil {
		return false, err
	}
	b.logger.Debug("reaction toggled", "post_id", postId, "user_id", userId, "type", typ, "active", active)
	return active, nil
}

func (b *Reaction) Tallies(ctx context.Context, postId domain.PostId) ([]domain.ReactionCount, error) {
	return b.storage.ReactionTallies(ctx, postId)
}

func (b *Reaction) UserReactionTypes(ctx context.Context, postId domain.PostId, userId domain.UserId) ([]domain.ReactionType, error) {
	return b.storage.UserReactionTypes(ctx, postId, userId)
}

func (b *Reaction) UsersByReaction(ctx context.Context, postId domain.PostId, typ domain.ReactionType) ([]domain.ReactionUser, error) {
	if err := b.validType(typ); err != nil {
		return nil, err
	}
	return b.storage.UsersByReaction(ctx, postId, typ)
}
