package service

import (
	"context"
	"strings"

	"github.com/agora-forum/agora/shared/domain"
	internal_errors "github.com/agora-forum/agora/shared/errors"
)

type SubforumService interface {
	Create(ctx context.Context, name string) (domain.Subforum, error)
	List(ctx context.Context) ([]domain.Subforum, error)
}

type SubforumStorage interface {
	CreateSubforum(ctx context.Context, name, slug string) (domain.Subforum, error)
	ListSubforums(ctx context.Context) ([]domain.Subforum, error)
}

type Sluggifier interface {
	Slug(title string) string
}

type Subforum struct {
	storage SubforumStorage
	slugs   Sluggifier
}

func NewSubforum(storage SubforumStorage, slugs Sluggifier) SubforumService {
	return &Subforum{storage: storage, slugs: slugs}
}

func (b *Subforum) Create(ctx context.Context, name string) (domain.Subforum, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Subforum{}, internal_errors.BadRequest("Name is required")
	}
	return b.storage.CreateSubforum(ctx, name, b.slugs.Slug(name))
}

func (b *Subforum) List(ctx context.Context) ([]domain.Subforum, error) {
	return b.storage.ListSubforums(ctx)
}
