package api

import (
	"github.com/agora-forum/agora/shared/domain"
)

// Request DTOs

type CreateThreadRequest struct {
	SubforumId int64  `json:"subforum_id" validate:"required,gt=0"`
	Title      string `json:"title" validate:"required"`
	Content    string `json:"content" validate:"required"`
	IsSticky   bool   `json:"is_sticky,omitempty"`
	IsLocked   bool   `json:"is_locked,omitempty"`
}

// UpdateThreadRequest changes the title and/or the first post; at least one
// of the two must be set.
type UpdateThreadRequest struct {
	Title   *string `json:"title,omitempty" validate:"required_without=Content,omitempty,min=1"`
	Content *string `json:"content,omitempty" validate:"required_without=Title,omitempty,min=1"`
}

type MoveThreadRequest struct {
	SubforumId int64 `json:"subforum_id" validate:"required,gt=0"`
}

// Response DTOs

type CreatedResponse struct {
	Id int64 `json:"id"`
}

type ThreadResponse struct {
	domain.Thread
}

type ThreadListResponse struct {
	Threads []domain.Thread `json:"threads"`
	Page    int             `json:"page,omitempty"`
}

type StickyResponse struct {
	IsSticky bool `json:"is_sticky"`
}

type LockedResponse struct {
	IsLocked bool `json:"is_locked"`
}

type SubscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}

type SubscriptionListResponse struct {
	Subscriptions []domain.Subscription `json:"subscriptions"`
}
