package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ClearCache empties both cache tiers.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.cache.ClearAll(r.Context())
	h.logger.Info("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

// ClearCacheType drops one namespace, e.g. "threads" or "thread_posts:42".
func (h *Handler) ClearCacheType(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	h.cache.ClearType(r.Context(), typ)
	h.logger.Info("cache namespace cleared", "type", typ)
	w.WriteHeader(http.StatusNoContent)
}
