package models

import (
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/mugiliam/hatchreposrv/pkg/types"
)

// Contact is one developer or contributor block from a project descriptor.
// Name is required; entries without a name are dropped during parsing.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	URL   string `json:"url,omitempty"`
}

type Organization struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// SCM is the source-control reference of a project descriptor.
type SCM struct {
	Connection          string `json:"connection,omitempty"`
	DeveloperConnection string `json:"developerConnection,omitempty"`
	URL                 string `json:"url,omitempty"`
	Tag                 string `json:"tag,omitempty"`
}

// ArtifactMetadata is the auxiliary publisher metadata accumulated across
// descriptor uploads. A nil slice or pointer means "never provided"; catalog
// merges leave such fields untouched.
type ArtifactMetadata struct {
	Description  types.NullableString `json:"description,omitempty"`
	Developers   []Contact            `json:"developers,omitempty"`
	Contributors []Contact            `json:"contributors,omitempty"`
	Organization *Organization        `json:"organization,omitempty"`
	SCM          *SCM                 `json:"scm,omitempty"`
}

// HeadRef model definition. One record per (repository, groupId, artifactId),
// tracking the latest-known pointers for the artifact.
type HeadRef struct {
	Repository           itypes.RepositoryName `db:"repository"`
	GroupID              string                `db:"group_id"`
	ArtifactID           string                `db:"artifact_id"`
	LatestVersion        types.NullableString  `db:"latest_version"`
	LatestReleaseVersion types.NullableString  `db:"latest_release_version"`
	IsPlugin             bool                  `db:"is_plugin"`
	Metadata             ArtifactMetadata      `db:"metadata"`
}

// Key returns the deterministic entity key, namespaced by repository.
func (h *HeadRef) Key() string {
	return h.GroupID + ":" + h.ArtifactID
}

// SpecRef model definition. One record per (repository, groupId, artifactId,
// version); a child of the corresponding HeadRef.
type SpecRef struct {
	Repository           itypes.RepositoryName `db:"repository"`
	GroupID              string                `db:"group_id"`
	ArtifactID           string                `db:"artifact_id"`
	Version              string                `db:"version"`
	LatestVersion        types.NullableString  `db:"latest_version"`
	LatestReleaseVersion types.NullableString  `db:"latest_release_version"`
	IsPlugin             bool                  `db:"is_plugin"`
	Metadata             ArtifactMetadata      `db:"metadata"`
}

func (s *SpecRef) Key() string {
	return s.GroupID + ":" + s.ArtifactID + ":" + s.Version
}

// HeadKey returns the key of the parent HeadRef.
func (s *SpecRef) HeadKey() string {
	return s.GroupID + ":" + s.ArtifactID
}
