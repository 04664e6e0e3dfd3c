package catalog

import (
	"context"
	"errors"

	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/mugiliam/hatchreposrv/pkg/types"
	"github.com/rs/zerolog/log"
)

// GradlePluginSuffix marks artifacts published under Gradle's plugin-marker
// naming convention.
const GradlePluginSuffix = ".gradle.plugin"

// Writer turns cataloging events into HeadRef/SpecRef upserts. All events
// from one descriptor ingestion are applied in a single transaction: the
// catalog never exposes a head ref updated without its spec refs or vice
// versa.
type Writer struct {
	store db.Store
}

func NewWriter(store db.Store) *Writer {
	return &Writer{store: store}
}

// Apply upserts the catalog records for all events in one transaction.
// Events are expected to share a repository; within the transaction the
// head ref is always staged before its spec ref so the parent invariant
// holds for first-time artifacts. On any staging or commit failure the
// whole batch is rolled back and the error returned; callers downstream of
// a persisted upload log it rather than failing the request.
func (w *Writer) Apply(ctx context.Context, repo itypes.RepositoryName, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	err := w.store.Transact(ctx, func(ctx context.Context, tx db.Tx) error {
		for i := range events {
			if err := w.applyEvent(ctx, tx, repo, &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("repository", repo.String()).
			Str("group_id", events[0].GroupID).
			Str("artifact_id", events[0].ArtifactID).
			Int("events", len(events)).
			Msg("catalog transaction failed, rolled back")
		return err
	}
	return nil
}

func (w *Writer) applyEvent(ctx context.Context, tx db.Tx, repo itypes.RepositoryName, event *Event) error {
	if event.GroupID == "" || event.ArtifactID == "" || event.Version == "" {
		return dberror.ErrInvalidInput.Msg("cataloging event is missing coordinates")
	}

	head, err := tx.GetHeadRef(ctx, repo, event.GroupID, event.ArtifactID)
	if err != nil {
		if !errors.Is(err, dberror.ErrNotFound) {
			return err
		}
		head = &models.HeadRef{
			Repository: repo,
			GroupID:    event.GroupID,
			ArtifactID: event.ArtifactID,
		}
	}
	mergeRef(&head.LatestVersion, &head.LatestReleaseVersion, &head.IsPlugin, &head.Metadata, event)
	if err := tx.PutHeadRef(ctx, head); err != nil {
		return err
	}

	spec, err := tx.GetSpecRef(ctx, repo, event.GroupID, event.ArtifactID, event.Version)
	if err != nil {
		if !errors.Is(err, dberror.ErrNotFound) {
			return err
		}
		spec = &models.SpecRef{
			Repository: repo,
			GroupID:    event.GroupID,
			ArtifactID: event.ArtifactID,
			Version:    event.Version,
		}
	}
	mergeRef(&spec.LatestVersion, &spec.LatestReleaseVersion, &spec.IsPlugin, &spec.Metadata, event)
	return tx.PutSpecRef(ctx, spec)
}

// mergeRef applies the merge invariant to one stored record: fields present
// in the event overwrite, absent fields are left untouched. The
// latest/release pointers are the exception; a version-index event owns
// them outright, including nulling pointers its document omitted.
func mergeRef(latest, release *types.NullableString, isPlugin *bool, metadata *models.ArtifactMetadata, event *Event) {
	if event.PointersValid {
		*latest = event.Latest
		*release = event.Release
	}
	*isPlugin = event.ArtifactID == event.GroupID+GradlePluginSuffix

	if event.Description.Valid {
		metadata.Description = event.Description
	}
	if event.Developers != nil {
		metadata.Developers = append([]models.Contact(nil), event.Developers...)
	}
	if event.Contributors != nil {
		metadata.Contributors = append([]models.Contact(nil), event.Contributors...)
	}
	if event.Organization != nil {
		org := *event.Organization
		metadata.Organization = &org
	}
	if event.SCM != nil {
		scm := *event.SCM
		metadata.SCM = &scm
	}
}
