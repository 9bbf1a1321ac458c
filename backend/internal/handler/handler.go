package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/agora-forum/agora/backend/internal/service"
	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/logger"
	"github.com/go-chi/chi/v5"
)

// CacheAdmin is the part of the shared cache the admin endpoints drive.
type CacheAdmin interface {
	ClearAll(ctx context.Context)
	ClearType(ctx context.Context, typ string)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	thread   service.ThreadService
	post     service.PostService
	reaction service.ReactionService
	activity service.ActivityService
	subforum service.SubforumService
	cache    CacheAdmin
	health   Pinger
	cfg      *config.Config
	logger   *slog.Logger
}

type Services struct {
	Thread   service.ThreadService
	Post     service.PostService
	Reaction service.ReactionService
	Activity service.ActivityService
	Subforum service.SubforumService
}

func New(s Services, cache CacheAdmin, health Pinger, cfg *config.Config) *Handler {
	return &Handler{
		thread:   s.Thread,
		post:     s.Post,
		reaction: s.Reaction,
		activity: s.Activity,
		subforum: s.Subforum,
		cache:    cache,
		health:   health,
		cfg:      cfg,
		logger:   logger.Component("handler"),
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
	w.Write([]byte("\n"))
}

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int64, error) {
	val, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	return parseIntParam(chi.URLParam(r, name), name)
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return val, nil
}

const defaultPage = 1

func pageParam(r *http.Request) (int, error) {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		return 0, err
	}
	if page < 1 {
		page = defaultPage
	}
	return page, nil
}
