package handler

import (
	"net/http"

	"github.com/agora-forum/agora/shared/api"
	"github.com/agora-forum/agora/shared/utils"
)

func (h *Handler) CreateSubforum(w http.ResponseWriter, r *http.Request) {
	var body api.CreateSubforumRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	sf, err := h.subforum.Create(r.Context(), body.Name)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, sf)
}

func (h *Handler) ListSubforums(w http.ResponseWriter, r *http.Request) {
	subforums, err := h.subforum.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, subforums)
}
