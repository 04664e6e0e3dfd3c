package dbmanager

import (
	"context"

	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/memory"
	"github.com/mugiliam/hatchreposrv/internal/db/postgresql"
	"github.com/rs/zerolog/log"
)

// NewStore constructs the catalog store for the configured backend. The
// returned handle is a process-wide resource: created at startup, closed at
// shutdown, and passed explicitly to every component that needs it.
func NewStore(ctx context.Context, storage, dsn string) (db.Store, error) {
	switch storage {
	case "postgres":
		store, err := postgresql.New(ctx, dsn)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to create postgresql store")
			return nil, err
		}
		return store, nil
	default:
		return memory.New(), nil
	}
}
