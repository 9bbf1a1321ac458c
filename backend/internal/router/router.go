package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agora-forum/agora/backend/internal/handler"
	"github.com/agora-forum/agora/shared/config"
	mw "github.com/agora-forum/agora/shared/middleware"
	"github.com/agora-forum/agora/shared/middleware/metrics"
	"github.com/agora-forum/agora/shared/middleware/ratelimit"
)

const (
	limiterIdle  = time.Hour
	limiterSweep = 10 * time.Minute
)

// Limits are the per-user write throttles. Nil fields disable a limit.
type Limits struct {
	Threads   *ratelimit.Limiter
	Posts     *ratelimit.Limiter
	Reactions *ratelimit.Limiter
}

// NewLimits builds the limiters cfg enables; their janitors stop with ctx.
func NewLimits(ctx context.Context, cfg config.RateLimit) Limits {
	build := func(perMinute float64) *ratelimit.Limiter {
		if perMinute <= 0 {
			return nil
		}
		l := ratelimit.New(perMinute, cfg.Burst, limiterIdle)
		l.StartJanitor(ctx, limiterSweep)
		return l
	}
	return Limits{
		Threads:   build(cfg.ThreadsPerMinute),
		Posts:     build(cfg.PostsPerMinute),
		Reactions: build(cfg.ReactionsPerMinute),
	}
}

// New creates and configures a new chi router with all the routes.
func New(h *handler.Handler, authMw *mw.Auth, limits Limits, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimw.Compress(5))

	// setup CORS for frontends
	if len(cfg.Public.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Public.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(mw.SecurityHeaders(cfg.Public.SecureCookies))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		// Public reads; a valid token only adds the requester's own state.
		v1.Group(func(public chi.Router) {
			public.Use(authMw.OptionalAuth())

			public.Get("/subforums", h.ListSubforums)
			public.Get("/subforums/{subforum}/threads", h.ListSubforumThreads)

			public.Get("/threads/latest", h.ListLatestThreads)
			public.Get("/threads/recent", h.ListRecentThreads)
			public.Get("/threads/by-slug/{slug}", h.GetThreadBySlug)
			public.Get("/threads/{thread}", h.GetThread)
			public.Get("/threads/{thread}/posts", h.ListThreadPosts)

			public.Get("/posts/{post}", h.GetPost)
			public.Get("/posts/{post}/location", h.LocatePost)
			public.Get("/posts/{post}/reactions", h.GetReactions)
			public.Get("/posts/{post}/reactions/{type}", h.ListReactionUsers)

			public.Get("/search", h.SearchPosts)
		})

		// Logged-in user routes
		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(authMw.NeedAuth())

			loggedIn.With(ratelimit.Middleware(limits.Threads, ratelimit.ByUser)).Post("/threads", h.CreateThread)
			loggedIn.With(ratelimit.Middleware(limits.Posts, ratelimit.ByUser)).Post("/threads/{thread}/posts", h.CreatePost)
			loggedIn.Put("/threads/{thread}/subscription", h.Subscribe)
			loggedIn.Delete("/threads/{thread}/subscription", h.Unsubscribe)
			loggedIn.Get("/threads/{thread}/subscription", h.GetSubscription)
			loggedIn.Get("/subscriptions", h.ListSubscriptions)

			loggedIn.Patch("/posts/{post}", h.UpdatePost)
			loggedIn.Delete("/posts/{post}", h.DeletePost)
			loggedIn.With(ratelimit.Middleware(limits.Reactions, ratelimit.ByUser)).Post("/posts/{post}/reactions", h.ToggleReaction)

			loggedIn.Get("/activity", h.ListActivity)
			loggedIn.Post("/activity/read", h.MarkActivityRead)
		})

		// Admin routes
		v1.Group(func(admin chi.Router) {
			admin.Use(authMw.AdminOnly())

			admin.Post("/subforums", h.CreateSubforum)

			admin.Patch("/threads/{thread}", h.UpdateThread)
			admin.Delete("/threads/{thread}", h.DeleteThread)
			admin.Post("/threads/{thread}/sticky", h.ToggleStickyThread)
			admin.Post("/threads/{thread}/locked", h.ToggleLockedThread)
			admin.Post("/threads/{thread}/move", h.MoveThread)

			admin.Delete("/admin/cache", h.ClearCache)
			admin.Delete("/admin/cache/{type}", h.ClearCacheType)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}
