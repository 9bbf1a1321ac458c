package api

import "github.com/agora-forum/agora/shared/domain"

type CreatePostRequest struct {
	Content string `json:"content" validate:"required"`
}

type UpdatePostRequest struct {
	Content string `json:"content" validate:"required"`
}

type PostListResponse struct {
	Posts      []domain.Post `json:"posts"`
	Page       int           `json:"page"`
	TotalPosts int           `json:"total_posts"`
	TotalPages int           `json:"total_pages"`
}

type PostDeletionResponse struct {
	ThreadId      int64 `json:"thread_id"`
	ThreadDeleted bool  `json:"thread_deleted"`
}

type SearchResponse struct {
	Results []domain.PostSearchResult `json:"results"`
}
