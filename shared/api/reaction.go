package api

import "github.com/agora-forum/agora/shared/domain"

type ToggleReactionRequest struct {
	Type string `json:"type" validate:"required"`
}

type ToggleReactionResponse struct {
	Active bool `json:"active"`
}

// ReactionsResponse is the reaction summary of one post. Mine lists the
// requester's own reaction types and is empty for anonymous requests.
type ReactionsResponse struct {
	Tallies []domain.ReactionCount `json:"tallies"`
	Mine    []domain.ReactionType  `json:"mine"`
}

type ReactionUsersResponse struct {
	Users []domain.ReactionUser `json:"users"`
}

type ActivityResponse struct {
	Activity []domain.Activity `json:"activity"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
