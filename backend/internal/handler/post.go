package handler

import (
	"net/http"

	"github.com/agora-forum/agora/shared/api"
	"github.com/agora-forum/agora/shared/domain"
	mw "github.com/agora-forum/agora/shared/middleware"
	"github.com/agora-forum/agora/shared/utils"
)

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	threadId, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.post.Create(r.Context(), domain.PostCreationData{
		ThreadId: threadId,
		Author:   *user,
		Content:  body.Content,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, post)
}

// ListThreadPosts returns one page of the thread with paging totals.
func (h *Handler) ListThreadPosts(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.thread.Get(r.Context(), threadId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	posts, err := h.post.ListByThread(r.Context(), threadId, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	total, err := h.post.CountByThread(r.Context(), threadId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.PostListResponse{
		Posts:      posts,
		Page:       page,
		TotalPosts: total,
		TotalPages: h.post.PageFor(total),
	})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	post, err := h.post.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, post)
}

// LocatePost resolves a permalink to the thread page holding the post.
func (h *Handler) LocatePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loc, err := h.post.Locate(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, loc)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.post.Update(r.Context(), *user, id, domain.PostUpdateData{Content: body.Content})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.post.Delete(r.Context(), *user, id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.PostDeletionResponse{ThreadId: res.ThreadId, ThreadDeleted: res.ThreadDeleted})
}

func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := h.post.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.SearchResponse{Results: results})
}
