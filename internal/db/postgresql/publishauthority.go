package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	"github.com/rs/zerolog/log"
)

// GetPublishAuthority retrieves the authority record for a publisher
// identity. Records are managed externally; the server only reads them.
func (d *repoDb) GetPublishAuthority(ctx context.Context, username string) (*models.PublishAuthority, error) {
	if username == "" {
		return nil, dberror.ErrInvalidInput.Msg("username is required")
	}

	query := `
		SELECT username, key_digest, authority
		FROM publish_authorities
		WHERE username = $1;
	`
	var authority models.PublishAuthority
	var prefixes pgtype.TextArray
	err := d.pool.QueryRow(ctx, query, username).Scan(&authority.Username, &authority.KeyDigest, &prefixes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dberror.ErrNotFound.Msg("publish authority not found")
		}
		log.Ctx(ctx).Error().Err(err).Str("username", username).Msg("failed to retrieve publish authority")
		return nil, dberror.ErrDatabase.Err(err)
	}
	if err := prefixes.AssignTo(&authority.Authority); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &authority, nil
}

// PutPublishAuthority upserts an authority record. Used by provisioning
// tooling and tests, not by the request path.
func (d *repoDb) PutPublishAuthority(ctx context.Context, authority *models.PublishAuthority) error {
	if authority.Username == "" {
		return dberror.ErrInvalidInput.Msg("username is required")
	}

	var prefixes pgtype.TextArray
	if err := prefixes.Set(authority.Authority); err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}

	query := `
		INSERT INTO publish_authorities (username, key_digest, authority)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO UPDATE
		SET key_digest = EXCLUDED.key_digest,
		    authority = EXCLUDED.authority;
	`
	if _, err := d.pool.Exec(ctx, query, authority.Username, authority.KeyDigest, prefixes); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("username", authority.Username).Msg("failed to upsert publish authority")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}
