package handler

import (
	"net/http"

	"github.com/agora-forum/agora/shared/api"
	"github.com/agora-forum/agora/shared/domain"
	mw "github.com/agora-forum/agora/shared/middleware"
	"github.com/agora-forum/agora/shared/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	// Only admins open threads already pinned or locked.
	creation := domain.ThreadCreationData{
		SubforumId: body.SubforumId,
		Title:      body.Title,
		Author:     *user,
		Content:    body.Content,
		IsSticky:   body.IsSticky && user.Admin,
		IsLocked:   body.IsLocked && user.Admin,
	}

	id, err := h.thread.Create(r.Context(), creation)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

// GetThread returns the thread and counts the view. A failed view count
// only gets logged.
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.thread.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.thread.IncrementViewCount(r.Context(), id); err != nil {
		h.logger.Warn("failed to count thread view", "thread_id", id, "error", err)
	}

	writeJSON(w, api.ThreadResponse{Thread: thread})
}

func (h *Handler) GetThreadBySlug(w http.ResponseWriter, r *http.Request) {
	thread, err := h.thread.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.thread.IncrementViewCount(r.Context(), thread.Id); err != nil {
		h.logger.Warn("failed to count thread view", "thread_id", thread.Id, "error", err)
	}

	writeJSON(w, api.ThreadResponse{Thread: thread})
}

func (h *Handler) ListSubforumThreads(w http.ResponseWriter, r *http.Request) {
	subforumId, err := idParam(r, "subforum")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	threads, err := h.thread.ListBySubforum(r.Context(), subforumId, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, api.ThreadListResponse{Threads: threads, Page: page})
}

func (h *Handler) ListLatestThreads(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	threads, err := h.thread.ListLatest(r.Context(), limit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ThreadListResponse{Threads: threads})
}

func (h *Handler) ListRecentThreads(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	threads, err := h.thread.ListRecent(r.Context(), limit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ThreadListResponse{Threads: threads})
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.thread.Update(r.Context(), id, domain.ThreadUpdateData{Title: body.Title, Content: body.Content})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ThreadResponse{Thread: thread})
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.thread.Delete(r.Context(), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleStickyThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sticky, err := h.thread.ToggleSticky(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.StickyResponse{IsSticky: sticky})
}

func (h *Handler) ToggleLockedThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	locked, err := h.thread.ToggleLocked(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.LockedResponse{IsLocked: locked})
}

func (h *Handler) MoveThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.MoveThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.thread.Move(r.Context(), id, body.SubforumId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.setSubscription(w, r, true)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.setSubscription(w, r, false)
}

func (h *Handler) setSubscription(w http.ResponseWriter, r *http.Request, subscribe bool) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if subscribe {
		err = h.thread.Subscribe(r.Context(), user.Id, id)
	} else {
		err = h.thread.Unsubscribe(r.Context(), user.Id, id)
	}
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.SubscriptionResponse{Subscribed: subscribe})
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := idParam(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	subscribed, err := h.thread.IsSubscribed(r.Context(), user.Id, id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.SubscriptionResponse{Subscribed: subscribed})
}

func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subs, err := h.thread.ListSubscriptions(r.Context(), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.SubscriptionListResponse{Subscriptions: subs})
}
