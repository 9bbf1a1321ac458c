package handler

import (
	"net/http"

	"github.com/agora-forum/agora/shared/api"
	"github.com/agora-forum/agora/shared/domain"
	mw "github.com/agora-forum/agora/shared/middleware"
	"github.com/agora-forum/agora/shared/utils"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	postId, err := idParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ToggleReactionRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	active, err := h.reaction.Toggle(r.Context(), postId, user.Id, body.Type)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ToggleReactionResponse{Active: active})
}

func (h *Handler) GetReactions(w http.ResponseWriter, r *http.Request) {
	postId, err := idParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tallies, err := h.reaction.Tallies(r.Context(), postId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	resp := api.ReactionsResponse{Tallies: tallies, Mine: []domain.ReactionType{}}
	if user := mw.GetUserFromContext(r); user != nil {
		if resp.Mine, err = h.reaction.UserReactionTypes(r.Context(), postId, user.Id); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}
	writeJSON(w, resp)
}

func (h *Handler) ListReactionUsers(w http.ResponseWriter, r *http.Request) {
	postId, err := idParam(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	users, err := h.reaction.UsersByReaction(r.Context(), postId, chi.URLParam(r, "type"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, api.ReactionUsersResponse{Users: users})
}
