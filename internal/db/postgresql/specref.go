package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/mugiliam/hatchreposrv/pkg/types"
	"github.com/rs/zerolog/log"
)

const pgForeignKeyViolation = "23503"

func (t *repoTx) GetSpecRef(ctx context.Context, repo itypes.RepositoryName, groupID, artifactID, version string) (*models.SpecRef, error) {
	query := `
		SELECT repository, group_id, artifact_id, version, latest_version, latest_release_version, is_plugin, metadata
		FROM spec_refs
		WHERE repository = $1 AND group_id = $2 AND artifact_id = $3 AND version = $4
		FOR UPDATE;
	`
	return scanSpecRef(ctx, t.tx.QueryRow(ctx, query, repo, groupID, artifactID, version))
}

// PutSpecRef stages an upsert of the spec ref. The composite foreign key to
// head_refs enforces the parent invariant; the writer stages the head ref
// first in the same transaction.
func (t *repoTx) PutSpecRef(ctx context.Context, ref *models.SpecRef) error {
	if ref.Repository == "" || ref.GroupID == "" || ref.ArtifactID == "" || ref.Version == "" {
		log.Ctx(ctx).Error().Msg("spec ref is missing coordinates")
		return dberror.ErrInvalidInput.Msg("spec ref is missing coordinates")
	}

	metadata, err := metadataJSONB(ref.Metadata)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}

	query := `
		INSERT INTO spec_refs (repository, group_id, artifact_id, version, latest_version, latest_release_version, is_plugin, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (repository, group_id, artifact_id, version) DO UPDATE
		SET latest_version = EXCLUDED.latest_version,
		    latest_release_version = EXCLUDED.latest_release_version,
		    is_plugin = EXCLUDED.is_plugin,
		    metadata = EXCLUDED.metadata;
	`
	_, err = t.tx.Exec(ctx, query,
		ref.Repository, ref.GroupID, ref.ArtifactID, ref.Version,
		ref.LatestVersion.Ptr(), ref.LatestReleaseVersion.Ptr(),
		ref.IsPlugin, metadata)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			log.Ctx(ctx).Error().Str("key", ref.Key()).Msg("spec ref has no parent head ref")
			return dberror.ErrMissingParent
		}
		log.Ctx(ctx).Error().Err(err).Str("key", ref.Key()).Msg("failed to upsert spec ref")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

func (d *repoDb) GetSpecRef(ctx context.Context, repo itypes.RepositoryName, groupID, artifactID, version string) (*models.SpecRef, error) {
	query := `
		SELECT repository, group_id, artifact_id, version, latest_version, latest_release_version, is_plugin, metadata
		FROM spec_refs
		WHERE repository = $1 AND group_id = $2 AND artifact_id = $3 AND version = $4;
	`
	return scanSpecRef(ctx, d.pool.QueryRow(ctx, query, repo, groupID, artifactID, version))
}

func scanSpecRef(ctx context.Context, row pgx.Row) (*models.SpecRef, error) {
	var ref models.SpecRef
	var latest, release *string
	var metadata pgtype.JSONB
	err := row.Scan(&ref.Repository, &ref.GroupID, &ref.ArtifactID, &ref.Version, &latest, &release, &ref.IsPlugin, &metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dberror.ErrNotFound.Msg("spec ref not found")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to retrieve spec ref")
		return nil, dberror.ErrDatabase.Err(err)
	}
	ref.LatestVersion = types.FromPtr(latest)
	ref.LatestReleaseVersion = types.FromPtr(release)
	if err := unmarshalMetadata(metadata, &ref.Metadata); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", ref.Key()).Msg("failed to decode spec ref metadata")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &ref, nil
}
