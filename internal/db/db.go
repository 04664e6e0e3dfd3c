package db

import (
	"context"

	"github.com/mugiliam/hatchreposrv/internal/db/models"
	"github.com/mugiliam/hatchreposrv/internal/types"
)

// SpecPageSize is the page size of all catalog listing queries.
const SpecPageSize = 20

// SpecRefFilter narrows ListSpecRefs. Zero-valued fields do not filter.
type SpecRefFilter struct {
	Repository types.RepositoryName
	GroupID    string
	ArtifactID string
}

// Tx is the set of catalog mutations available inside one transaction.
// Writes are staged and become visible only when the transaction commits;
// a failed transaction leaves the catalog untouched.
type Tx interface {
	GetHeadRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID string) (*models.HeadRef, error)
	PutHeadRef(ctx context.Context, ref *models.HeadRef) error
	GetSpecRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID, version string) (*models.SpecRef, error)
	// PutSpecRef stages a spec ref write. The parent head ref must already
	// be staged or committed, otherwise dberror.ErrMissingParent.
	PutSpecRef(ctx context.Context, ref *models.SpecRef) error
}

// Store is the catalog store used by all components. It is a process-wide
// resource constructed at startup and passed explicitly to each consumer.
type Store interface {
	// Transact runs fn inside one transaction. All writes staged by fn
	// commit together when fn returns nil, or are discarded when fn
	// returns an error or the commit itself fails.
	Transact(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetHeadRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID string) (*models.HeadRef, error)
	GetSpecRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID, version string) (*models.SpecRef, error)
	ListHeadRefs(ctx context.Context, repo types.RepositoryName, page int) ([]models.HeadRef, error)
	ListSpecRefs(ctx context.Context, filter SpecRefFilter, page int) ([]models.SpecRef, error)

	GetPublishAuthority(ctx context.Context, username string) (*models.PublishAuthority, error)
	PutPublishAuthority(ctx context.Context, authority *models.PublishAuthority) error

	Close(ctx context.Context)
}
