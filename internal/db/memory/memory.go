// Package memory is an in-memory catalog store with the same transactional
// semantics as the postgresql backend. It backs development mode and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	"github.com/mugiliam/hatchreposrv/internal/types"
)

type refKey struct {
	repo types.RepositoryName
	key  string
}

type store struct {
	mu          sync.Mutex
	heads       map[refKey]models.HeadRef
	specs       map[refKey]models.SpecRef
	authorities map[string]models.PublishAuthority
}

var _ db.Store = (*store)(nil)

func New() db.Store {
	return &store{
		heads:       make(map[refKey]models.HeadRef),
		specs:       make(map[refKey]models.SpecRef),
		authorities: make(map[string]models.PublishAuthority),
	}
}

// tx overlays staged writes on the committed maps. The store lock is held
// for the duration of the transaction, so transactions serialize.
type tx struct {
	s           *store
	stagedHeads map[refKey]models.HeadRef
	stagedSpecs map[refKey]models.SpecRef
}

var _ db.Tx = (*tx)(nil)

func (s *store) Transact(ctx context.Context, fn func(ctx context.Context, t db.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{
		s:           s,
		stagedHeads: make(map[refKey]models.HeadRef),
		stagedSpecs: make(map[refKey]models.SpecRef),
	}
	if err := fn(ctx, t); err != nil {
		return err
	}
	for k, v := range t.stagedHeads {
		s.heads[k] = v
	}
	for k, v := range t.stagedSpecs {
		s.specs[k] = v
	}
	return nil
}

func (t *tx) GetHeadRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID string) (*models.HeadRef, error) {
	k := refKey{repo, groupID + ":" + artifactID}
	if ref, ok := t.stagedHeads[k]; ok {
		return copyHead(ref), nil
	}
	if ref, ok := t.s.heads[k]; ok {
		return copyHead(ref), nil
	}
	return nil, dberror.ErrNotFound.Msg("head ref not found")
}

func (t *tx) PutHeadRef(ctx context.Context, ref *models.HeadRef) error {
	if ref.Repository == "" || ref.GroupID == "" || ref.ArtifactID == "" {
		return dberror.ErrInvalidInput.Msg("head ref is missing coordinates")
	}
	t.stagedHeads[refKey{ref.Repository, ref.Key()}] = *copyHead(*ref)
	return nil
}

func (t *tx) GetSpecRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID, version string) (*models.SpecRef, error) {
	k := refKey{repo, groupID + ":" + artifactID + ":" + version}
	if ref, ok := t.stagedSpecs[k]; ok {
		return copySpec(ref), nil
	}
	if ref, ok := t.s.specs[k]; ok {
		return copySpec(ref), nil
	}
	return nil, dberror.ErrNotFound.Msg("spec ref not found")
}

func (t *tx) PutSpecRef(ctx context.Context, ref *models.SpecRef) error {
	if ref.Repository == "" || ref.GroupID == "" || ref.ArtifactID == "" || ref.Version == "" {
		return dberror.ErrInvalidInput.Msg("spec ref is missing coordinates")
	}
	parent := refKey{ref.Repository, ref.HeadKey()}
	if _, staged := t.stagedHeads[parent]; !staged {
		if _, committed := t.s.heads[parent]; !committed {
			return dberror.ErrMissingParent
		}
	}
	t.stagedSpecs[refKey{ref.Repository, ref.Key()}] = *copySpec(*ref)
	return nil
}

func (s *store) GetHeadRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID string) (*models.HeadRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.heads[refKey{repo, groupID + ":" + artifactID}]; ok {
		return copyHead(ref), nil
	}
	return nil, dberror.ErrNotFound.Msg("head ref not found")
}

func (s *store) GetSpecRef(ctx context.Context, repo types.RepositoryName, groupID, artifactID, version string) (*models.SpecRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.specs[refKey{repo, groupID + ":" + artifactID + ":" + version}]; ok {
		return copySpec(ref), nil
	}
	return nil, dberror.ErrNotFound.Msg("spec ref not found")
}

func (s *store) ListHeadRefs(ctx context.Context, repo types.RepositoryName, page int) ([]models.HeadRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]refKey, 0, len(s.heads))
	for k := range s.heads {
		if k.repo == repo {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].key < keys[j].key })

	refs := make([]models.HeadRef, 0, db.SpecPageSize)
	for _, k := range paginate(keys, page) {
		refs = append(refs, *copyHead(s.heads[k]))
	}
	return refs, nil
}

func (s *store) ListSpecRefs(ctx context.Context, filter db.SpecRefFilter, page int) ([]models.SpecRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]refKey, 0, len(s.specs))
	for k, ref := range s.specs {
		if filter.Repository != "" && ref.Repository != filter.Repository {
			continue
		}
		if filter.GroupID != "" && ref.GroupID != filter.GroupID {
			continue
		}
		if filter.ArtifactID != "" && ref.ArtifactID != filter.ArtifactID {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].repo != keys[j].repo {
			return keys[i].repo < keys[j].repo
		}
		return keys[i].key < keys[j].key
	})

	refs := make([]models.SpecRef, 0, db.SpecPageSize)
	for _, k := range paginate(keys, page) {
		refs = append(refs, *copySpec(s.specs[k]))
	}
	return refs, nil
}

func (s *store) GetPublishAuthority(ctx context.Context, username string) (*models.PublishAuthority, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if authority, ok := s.authorities[username]; ok {
		cp := authority
		cp.Authority = append([]string(nil), authority.Authority...)
		return &cp, nil
	}
	return nil, dberror.ErrNotFound.Msg("publish authority not found")
}

func (s *store) PutPublishAuthority(ctx context.Context, authority *models.PublishAuthority) error {
	if authority.Username == "" {
		return dberror.ErrInvalidInput.Msg("username is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *authority
	cp.Authority = append([]string(nil), authority.Authority...)
	s.authorities[authority.Username] = cp
	return nil
}

func (s *store) Close(ctx context.Context) {}

func paginate(keys []refKey, page int) []refKey {
	if page < 0 {
		page = 0
	}
	start := page * db.SpecPageSize
	if start >= len(keys) {
		return nil
	}
	end := start + db.SpecPageSize
	if end > len(keys) {
		end = len(keys)
	}
	return keys[start:end]
}

func copyHead(ref models.HeadRef) *models.HeadRef {
	cp := ref
	cp.Metadata = copyMetadata(ref.Metadata)
	return &cp
}

func copySpec(ref models.SpecRef) *models.SpecRef {
	cp := ref
	cp.Metadata = copyMetadata(ref.Metadata)
	return &cp
}

func copyMetadata(m models.ArtifactMetadata) models.ArtifactMetadata {
	cp := m
	if m.Developers != nil {
		cp.Developers = append([]models.Contact(nil), m.Developers...)
	}
	if m.Contributors != nil {
		cp.Contributors = append([]models.Contact(nil), m.Contributors...)
	}
	if m.Organization != nil {
		org := *m.Organization
		cp.Organization = &org
	}
	if m.SCM != nil {
		scm := *m.SCM
		cp.SCM = &scm
	}
	return cp
}
