package service

import (
	"context"

	"github.com/agora-forum/agora/shared/domain"
)

const maxActivityLimit = 100

type ActivityService interface {
	List(ctx context.Context, userId domain.UserId, unreadOnly bool, limit int) ([]domain.Activity, error)
	MarkRead(ctx context.Context, userId domain.UserId) (int64, error)
}

type ActivityStorage interface {
	ListActivity(ctx context.Context, userId domain.UserId, unreadOnly bool, limit int) ([]domain.Activity, error)
	MarkActivityRead(ctx context.Context, userId domain.UserId) (int64, error)
}

type Activity struct {
	storage ActivityStorage
}

func NewActivity(storage ActivityStorage) ActivityService {
	return &Activity{storage: storage}
}

func (b *Activity) List(ctx context.Context, userId domain.UserId, unreadOnly bool, limit int) ([]domain.Activity, error) {
	return b.storage.ListActivity(ctx, userId, unreadOnly, clampLimit(limit, maxActivityLimit))
}

func (b *Activity) MarkRead(ctx context.Context, userId domain.UserId) (int64, error) {
	return b.storage.MarkActivityRead(ctx, userId)
}
