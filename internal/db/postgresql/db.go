// Package postgresql implements the catalog store on PostgreSQL. The
// transaction semantics of db.Store map directly onto database
// transactions; head rows are locked FOR UPDATE while a descriptor
// ingestion merges into them, so concurrent writers to the same artifact
// serialize on the store's own locking.
package postgresql

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/rs/zerolog/log"
)

type repoDb struct {
	pool *pgxpool.Pool
}

var _ db.Store = (*repoDb)(nil)

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, dsn string) (db.Store, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to connect to postgresql")
		return nil, dberror.ErrDatabase.Err(err)
	}
	d := &repoDb{pool: pool}
	if err := d.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS head_refs (
	repository             TEXT NOT NULL,
	group_id               TEXT NOT NULL,
	artifact_id            TEXT NOT NULL,
	latest_version         TEXT,
	latest_release_version TEXT,
	is_plugin              BOOLEAN NOT NULL DEFAULT FALSE,
	metadata               JSONB NOT NULL DEFAULT '{}'::jsonb,
	PRIMARY KEY (repository, group_id, artifact_id)
);

CREATE TABLE IF NOT EXISTS spec_refs (
	repository             TEXT NOT NULL,
	group_id               TEXT NOT NULL,
	artifact_id            TEXT NOT NULL,
	version                TEXT NOT NULL,
	latest_version         TEXT,
	latest_release_version TEXT,
	is_plugin              BOOLEAN NOT NULL DEFAULT FALSE,
	metadata               JSONB NOT NULL DEFAULT '{}'::jsonb,
	PRIMARY KEY (repository, group_id, artifact_id, version),
	FOREIGN KEY (repository, group_id, artifact_id)
		REFERENCES head_refs (repository, group_id, artifact_id)
);

CREATE TABLE IF NOT EXISTS publish_authorities (
	username   TEXT PRIMARY KEY,
	key_digest TEXT NOT NULL,
	authority  TEXT[] NOT NULL DEFAULT '{}'
);
`

func (d *repoDb) migrate(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, schema); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to apply schema")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

type repoTx struct {
	tx pgx.Tx
}

var _ db.Tx = (*repoTx)(nil)

func (d *repoDb) Transact(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(ctx, &repoTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (d *repoDb) Close(ctx context.Context) {
	d.pool.Close()
}
