package pg

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/agora-forum/agora/shared/config"
	"github.com/agora-forum/agora/shared/logger"
	sharedpg "github.com/agora-forum/agora/shared/storage/pg"

	_ "github.com/lib/pq"
)

// maxSlugAttempts bounds collision retries for one thread slug.
const maxSlugAttempts = 8

type Storage struct {
	db     *sql.DB
	cfg    *config.Config
	logger *slog.Logger
}

func New(cfg *config.Config, connCfg sharedpg.ConnectionConfig) (*Storage, error) {
	log := logger.Component("storage")
	log.Info("connecting to db", "host", cfg.Private.Pg.Host, "dbname", cfg.Private.Pg.Dbname)
	db, err := sharedpg.Connect(cfg, connCfg)
	if err != nil {
		return nil, err
	}
	log.Info("successfully connected to db")
	return &Storage{db: db, cfg: cfg, logger: log}, nil
}

func (s *Storage) Cleanup() error {
	return s.db.Close()
}

// Ping is used by the health endpoint.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// now is the default timestamp for writes; the database rounds to microseconds anyway.
func now() time.Time {
	return time.Now().UTC().Round(time.Microsecond)
}

func timeOrNow(t *time.Time) time.Time {
	if t != nil {
		return t.UTC().Round(time.Microsecond)
	}
	return now()
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
