package setup

import (
	"context"
	"fmt"

	"github.com/agora-forum/agora/backend/internal/cache"
	"github.com/agora-forum/agora/backend/internal/handler"
	"github.com/agora-forum/agora/backend/internal/markdown"
	"github.com/agora-forum/agora/backend/internal/service"
	"github.com/agora-forum/agora/backend/internal/storage/fs"
	"github.com/agora-forum/agora/backend/internal/storage/pg"
	"github.com/agora-forum/agora/backend/internal/utils"
	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/jwt"
	"github.com/agora-forum/agora/shared/logger"
	mw "github.com/agora-forum/agora/shared/middleware"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Storage        *pg.Storage
	Cache          *cache.Cache
	Handler        *handler.Handler
	AuthMiddleware *mw.Auth
	Jwt            jwt.JwtService
	Config         *config.Config
}

// SetupDependencies connects to the database, applies pending migrations and
// wires the services. Background work (the cache janitor) stops with ctx.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log := logger.Component("setup")

	storage, err := pg.New(cfg, sharedpg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	applied, err := storage.Migrate(ctx)
	if err != nil {
		storage.Cleanup()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		log.Info("applied migrations", "versions", applied)
	}

	c, err := newCache(cfg.Public.Cache, storage)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}
	c.StartJanitor(ctx, cfg.Public.Cache.JanitorInterval)

	titles := &utils.ThreadTitleValidator{}
	contents := &utils.PostContentValidator{}

	services := handler.Services{
		Thread:   service.NewThread(storage, titles, contents, utils.NewSlugger(nil, utils.MaxThreadSlugLength), c, &cfg.Public),
		Post:     service.NewPost(storage, contents, markdown.New(), c, &cfg.Public),
		Reaction: service.NewReaction(storage, &cfg.Public),
		Activity: service.NewActivity(storage),
		Subforum: service.NewSubforum(storage, utils.NewSlugger(nil, utils.MaxSubforumSlugLength)),
	}

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	return &Dependencies{
		Storage:        storage,
		Cache:          c,
		Handler:        handler.New(services, c, storage, cfg),
		AuthMiddleware: mw.NewAuth(jwtService),
		Jwt:            jwtService,
		Config:         cfg,
	}, nil
}

// newCache picks the persistent tier named by cfg.Backend.
func newCache(cfg config.Cache, storage *pg.Storage) (*cache.Cache, error) {
	switch cfg.Backend {
	case "pg", "":
		return cache.New(cache.WithBackend(storage.CacheStore())), nil
	case "fs":
		store, err := fs.New(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
		return cache.New(cache.WithBackend(store)), nil
	case "none":
		return cache.New(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
