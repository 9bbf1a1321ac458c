package handler

import (
	"net/http"

	"github.com/agora-forum/agora/shared/api"
	mw "github.com/agora-forum/agora/shared/middleware"
	"github.com/agora-forum/agora/shared/utils"
)

func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	items, err := h.activity.List(r.Context(), user.Id, unreadOnly, limit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ActivityResponse{Activity: items})
}

func (h *Handler) MarkActivityRead(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	n, err := h.activity.MarkRead(r.Context(), user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.MarkReadResponse{Updated: n})
}
