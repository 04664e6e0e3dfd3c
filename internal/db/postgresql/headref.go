package postgresql

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/mugiliam/hatchreposrv/pkg/types"
	"github.com/rs/zerolog/log"
)

// GetHeadRef fetches and locks the head ref for the transaction so that a
// concurrent ingestion of the same artifact serializes behind this one.
func (t *repoTx) GetHeadRef(ctx context.Context, repo itypes.RepositoryName, groupID, artifactID string) (*models.HeadRef, error) {
	query := `
		SELECT repository, group_id, artifact_id, latest_version, latest_release_version, is_plugin, metadata
		FROM head_refs
		WHERE repository = $1 AND group_id = $2 AND artifact_id = $3
		FOR UPDATE;
	`
	return scanHeadRef(ctx, t.tx.QueryRow(ctx, query, repo, groupID, artifactID))
}

// PutHeadRef stages an upsert of the head ref.
func (t *repoTx) PutHeadRef(ctx context.Context, ref *models.HeadRef) error {
	if ref.Repository == "" || ref.GroupID == "" || ref.ArtifactID == "" {
		log.Ctx(ctx).Error().Msg("head ref is missing coordinates")
		return dberror.ErrInvalidInput.Msg("head ref is missing coordinates")
	}

	metadata, err := metadataJSONB(ref.Metadata)
	if err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}

	query := `
		INSERT INTO head_refs (repository, group_id, artifact_id, latest_version, latest_release_version, is_plugin, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (repository, group_id, artifact_id) DO UPDATE
		SET latest_version = EXCLUDED.latest_version,
		    latest_release_version = EXCLUDED.latest_release_version,
		    is_plugin = EXCLUDED.is_plugin,
		    metadata = EXCLUDED.metadata;
	`
	_, err = t.tx.Exec(ctx, query,
		ref.Repository, ref.GroupID, ref.ArtifactID,
		ref.LatestVersion.Ptr(), ref.LatestReleaseVersion.Ptr(),
		ref.IsPlugin, metadata)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", ref.Key()).Msg("failed to upsert head ref")
		return dberror.ErrDatabase.Err(err)
	}
	return nil
}

// GetHeadRef retrieves a head ref outside any transaction.
func (d *repoDb) GetHeadRef(ctx context.Context, repo itypes.RepositoryName, groupID, artifactID string) (*models.HeadRef, error) {
	query := `
		SELECT repository, group_id, artifact_id, latest_version, latest_release_version, is_plugin, metadata
		FROM head_refs
		WHERE repository = $1 AND group_id = $2 AND artifact_id = $3;
	`
	return scanHeadRef(ctx, d.pool.QueryRow(ctx, query, repo, groupID, artifactID))
}

func scanHeadRef(ctx context.Context, row pgx.Row) (*models.HeadRef, error) {
	var ref models.HeadRef
	var latest, release *string
	var metadata pgtype.JSONB
	err := row.Scan(&ref.Repository, &ref.GroupID, &ref.ArtifactID, &latest, &release, &ref.IsPlugin, &metadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dberror.ErrNotFound.Msg("head ref not found")
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to retrieve head ref")
		return nil, dberror.ErrDatabase.Err(err)
	}
	ref.LatestVersion = types.FromPtr(latest)
	ref.LatestReleaseVersion = types.FromPtr(release)
	if err := unmarshalMetadata(metadata, &ref.Metadata); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("key", ref.Key()).Msg("failed to decode head ref metadata")
		return nil, dberror.ErrDatabase.Err(err)
	}
	return &ref, nil
}

func metadataJSONB(m models.ArtifactMetadata) (pgtype.JSONB, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return pgtype.JSONB{Status: pgtype.Null}, err
	}
	return pgtype.JSONB{Bytes: b, Status: pgtype.Present}, nil
}

func unmarshalMetadata(j pgtype.JSONB, m *models.ArtifactMetadata) error {
	if j.Status != pgtype.Present || len(j.Bytes) == 0 {
		return nil
	}
	return json.Unmarshal(j.Bytes, m)
}
