package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/mugiliam/hatchreposrv/pkg/types"
	"github.com/rs/zerolog/log"
)

func (d *repoDb) ListHeadRefs(ctx context.Context, repo itypes.RepositoryName, page int) ([]models.HeadRef, error) {
	if page < 0 {
		page = 0
	}
	query := `
		SELECT repository, group_id, artifact_id, latest_version, latest_release_version, is_plugin, metadata
		FROM head_refs
		WHERE repository = $1
		ORDER BY group_id, artifact_id
		LIMIT $2 OFFSET $3;
	`
	rows, err := d.pool.Query(ctx, query, repo, db.SpecPageSize, page*db.SpecPageSize)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("repository", repo.String()).Msg("failed to list head refs")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	refs := make([]models.HeadRef, 0, db.SpecPageSize)
	for rows.Next() {
		var ref models.HeadRef
		var latest, release *string
		var metadata pgtype.JSONB
		if err := rows.Scan(&ref.Repository, &ref.GroupID, &ref.ArtifactID, &latest, &release, &ref.IsPlugin, &metadata); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		ref.LatestVersion = types.FromPtr(latest)
		ref.LatestReleaseVersion = types.FromPtr(release)
		if err := unmarshalMetadata(metadata, &ref.Metadata); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return refs, nil
}

// ListSpecRefs returns one page of spec refs, optionally narrowed by
// repository, group and artifact. Filters compose with AND.
func (d *repoDb) ListSpecRefs(ctx context.Context, filter db.SpecRefFilter, page int) ([]models.SpecRef, error) {
	if page < 0 {
		page = 0
	}
	query := `
		SELECT repository, group_id, artifact_id, version, latest_version, latest_release_version, is_plugin, metadata
		FROM spec_refs
		WHERE TRUE`
	args := []any{}
	if filter.Repository != "" {
		args = append(args, filter.Repository)
		query += fmt.Sprintf(" AND repository = $%d", len(args))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		query += fmt.Sprintf(" AND group_id = $%d", len(args))
	}
	if filter.ArtifactID != "" {
		args = append(args, filter.ArtifactID)
		query += fmt.Sprintf(" AND artifact_id = $%d", len(args))
	}
	args = append(args, db.SpecPageSize, page*db.SpecPageSize)
	query += fmt.Sprintf(" ORDER BY repository, group_id, artifact_id, version LIMIT $%d OFFSET $%d;", len(args)-1, len(args))

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list spec refs")
		return nil, dberror.ErrDatabase.Err(err)
	}
	defer rows.Close()

	refs := make([]models.SpecRef, 0, db.SpecPageSize)
	for rows.Next() {
		var ref models.SpecRef
		var latest, release *string
		var metadata pgtype.JSONB
		if err := rows.Scan(&ref.Repository, &ref.GroupID, &ref.ArtifactID, &ref.Version, &latest, &release, &ref.IsPlugin, &metadata); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		ref.LatestVersion = types.FromPtr(latest)
		ref.LatestReleaseVersion = types.FromPtr(release)
		if err := unmarshalMetadata(metadata, &ref.Metadata); err != nil {
			return nil, dberror.ErrDatabase.Err(err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, dberror.ErrDatabase.Err(err)
	}
	return refs, nil
}
