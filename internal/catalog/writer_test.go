package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/dberror"
	"github.com/mugiliam/hatchreposrv/internal/db/memory"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/mugiliam/hatchreposrv/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestWriterVersionIndex(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	events, err := ParseVersionIndex(strings.NewReader(versionIndexDocXML))
	assert.NoError(t, err)
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, events))

	head, err := store.GetHeadRef(ctx, itypes.RepoPublic, "com.example", "lib")
	assert.NoError(t, err)
	assert.Equal(t, "1.1", head.LatestVersion.Value)
	assert.Equal(t, "1.0", head.LatestReleaseVersion.Value)
	assert.False(t, head.IsPlugin)

	for _, version := range []string{"1.0", "1.1"} {
		spec, err := store.GetSpecRef(ctx, itypes.RepoPublic, "com.example", "lib", version)
		assert.NoError(t, err)
		assert.Equal(t, "1.1", spec.LatestVersion.Value)
		assert.Equal(t, "1.0", spec.LatestReleaseVersion.Value)
	}
}

func TestWriterProjectDescriptorMerge(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	events, err := ParseVersionIndex(strings.NewReader(versionIndexDocXML))
	assert.NoError(t, err)
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, events))

	event := Event{
		GroupID:     "com.example",
		ArtifactID:  "lib",
		Version:     "1.1",
		Description: types.String("An example library"),
		Developers:  []models.Contact{{Name: "Ann"}},
	}
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, []Event{event}))

	// The descriptor's fields land on the head and its own spec ref; the
	// pointers set by the version index survive untouched.
	head, err := store.GetHeadRef(ctx, itypes.RepoPublic, "com.example", "lib")
	assert.NoError(t, err)
	assert.Equal(t, "1.1", head.LatestVersion.Value)
	assert.Equal(t, "1.0", head.LatestReleaseVersion.Value)
	assert.Equal(t, "An example library", head.Metadata.Description.Value)
	assert.Equal(t, []models.Contact{{Name: "Ann"}}, head.Metadata.Developers)

	spec, err := store.GetSpecRef(ctx, itypes.RepoPublic, "com.example", "lib", "1.1")
	assert.NoError(t, err)
	assert.Equal(t, "An example library", spec.Metadata.Description.Value)
	assert.Equal(t, []models.Contact{{Name: "Ann"}}, spec.Metadata.Developers)

	// The sibling version's record was not part of the merge.
	other, err := store.GetSpecRef(ctx, itypes.RepoPublic, "com.example", "lib", "1.0")
	assert.NoError(t, err)
	assert.True(t, other.Metadata.Description.IsNil())
	assert.Nil(t, other.Metadata.Developers)
}

func TestWriterMergeLeavesAbsentFieldsUntouched(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	first := Event{
		GroupID:     "com.example",
		ArtifactID:  "lib",
		Version:     "1.0",
		Description: types.String("A"),
	}
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, []Event{first}))

	// A later descriptor carrying only developers must not erase the
	// previously recorded description: fields union, they do not reset.
	second := Event{
		GroupID:    "com.example",
		ArtifactID: "lib",
		Version:    "1.0",
		Developers: []models.Contact{{Name: "Ann"}},
	}
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, []Event{second}))

	spec, err := store.GetSpecRef(ctx, itypes.RepoPublic, "com.example", "lib", "1.0")
	assert.NoError(t, err)
	assert.Equal(t, "A", spec.Metadata.Description.Value)
	assert.Equal(t, []models.Contact{{Name: "Ann"}}, spec.Metadata.Developers)
	assert.Nil(t, spec.Metadata.Organization)
	assert.Nil(t, spec.Metadata.SCM)
}

func TestWriterVersionIndexNullsPointers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	events, err := ParseVersionIndex(strings.NewReader(versionIndexDocXML))
	assert.NoError(t, err)
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, events))

	// A new index without <latest>/<release> explicitly clears the pointers.
	bare := Event{
		GroupID:       "com.example",
		ArtifactID:    "lib",
		Version:       "1.1",
		PointersValid: true,
	}
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, []Event{bare}))

	head, err := store.GetHeadRef(ctx, itypes.RepoPublic, "com.example", "lib")
	assert.NoError(t, err)
	assert.True(t, head.LatestVersion.IsNil())
	assert.True(t, head.LatestReleaseVersion.IsNil())
}

func TestWriterProjectDescriptorNeverTouchesPointers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	events, err := ParseVersionIndex(strings.NewReader(versionIndexDocXML))
	assert.NoError(t, err)
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, events))

	pom := Event{GroupID: "com.example", ArtifactID: "lib", Version: "1.1"}
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, []Event{pom}))

	head, err := store.GetHeadRef(ctx, itypes.RepoPublic, "com.example", "lib")
	assert.NoError(t, err)
	assert.Equal(t, "1.1", head.LatestVersion.Value)
	assert.Equal(t, "1.0", head.LatestReleaseVersion.Value)
}

func TestWriterPluginDetection(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	event := Event{
		GroupID:    "com.example.greeter",
		ArtifactID: "com.example.greeter.gradle.plugin",
		Version:    "1.0",
	}
	assert.NoError(t, w.Apply(ctx, itypes.RepoGradlePlugins, []Event{event}))

	head, err := store.GetHeadRef(ctx, itypes.RepoGradlePlugins, "com.example.greeter", "com.example.greeter.gradle.plugin")
	assert.NoError(t, err)
	assert.True(t, head.IsPlugin)
}

func TestWriterIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	events, err := ParseVersionIndex(strings.NewReader(versionIndexDocXML))
	assert.NoError(t, err)
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, events))

	before, err := store.GetHeadRef(ctx, itypes.RepoPublic, "com.example", "lib")
	assert.NoError(t, err)

	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, events))
	after, err := store.GetHeadRef(ctx, itypes.RepoPublic, "com.example", "lib")
	assert.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWriterRepositoriesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(store)

	event := Event{GroupID: "com.example", ArtifactID: "lib", Version: "1.0"}
	assert.NoError(t, w.Apply(ctx, itypes.RepoPublic, []Event{event}))

	_, err := store.GetHeadRef(ctx, itypes.RepoTools, "com.example", "lib")
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}

func TestWriterRejectsIncompleteEvent(t *testing.T) {
	ctx := context.Background()
	w := NewWriter(memory.New())

	err := w.Apply(ctx, itypes.RepoPublic, []Event{{GroupID: "com.example", ArtifactID: "lib"}})
	assert.ErrorIs(t, err, dberror.ErrInvalidInput)
}

// failSpecStore wraps a store so every PutSpecRef inside a transaction
// fails, forcing a rollback after the head ref was staged.
type failSpecStore struct {
	db.Store
}

type failSpecTx struct {
	db.Tx
}

func (s *failSpecStore) Transact(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error {
	return s.Store.Transact(ctx, func(ctx context.Context, tx db.Tx) error {
		return fn(ctx, &failSpecTx{Tx: tx})
	})
}

func (t *failSpecTx) PutSpecRef(ctx context.Context, ref *models.SpecRef) error {
	return errors.New("induced write failure")
}

func TestWriterRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewWriter(&failSpecStore{Store: store})

	events, err := ParseVersionIndex(strings.NewReader(versionIndexDocXML))
	assert.NoError(t, err)
	assert.Error(t, w.Apply(ctx, itypes.RepoPublic, events))

	// The staged head ref must not have leaked past the failed transaction.
	_, err = store.GetHeadRef(ctx, itypes.RepoPublic, "com.example", "lib")
	assert.ErrorIs(t, err, dberror.ErrNotFound)
	_, err = store.GetSpecRef(ctx, itypes.RepoPublic, "com.example", "lib", "1.0")
	assert.ErrorIs(t, err, dberror.ErrNotFound)
}
