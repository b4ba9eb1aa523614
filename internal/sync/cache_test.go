package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
)

func TestFileCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	c := NewFileCache(path)

	pending := req("offline", domain.StatusNew)
	want := State{
		Snapshot: Snapshot{
			Requests: []domain.PaymentRequest{req("a", domain.StatusApproved)},
			Projects: []domain.Project{{ID: "p1", Name: "Hillside Residency", Phase: domain.PhaseOngoing}},
		},
		Pending: []Mutation{{Kind: MutationCreateRequest, Request: &pending}},
	}
	require.NoError(t, c.Save(want))

	got, ok, err := c.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Snapshot.Requests, got.Snapshot.Requests)
	assert.Equal(t, want.Snapshot.Projects, got.Snapshot.Projects)
	require.Len(t, got.Pending, 1)
	assert.Equal(t, MutationCreateRequest, got.Pending[0].Kind)
	assert.Equal(t, "offline", got.Pending[0].Request.ID)
}

func TestFileCache_PendingPatchKeepsTargetID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	c := NewFileCache(path)

	patch := RequestPatch{ID: "r-42", Status: domain.StatusApproved, Version: 2}
	require.NoError(t, c.Save(State{
		Pending: []Mutation{{Kind: MutationUpdateRequest, Patch: &patch}},
	}))

	got, ok, err := c.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Pending, 1)
	assert.Equal(t, "r-42", got.Pending[0].Patch.ID, "a queued update must keep its target across a restart")
}

func TestFileCache_LoadMissing(t *testing.T) {
	c := NewFileCache(filepath.Join(t.TempDir(), "never-written.json"))
	_, ok, err := c.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCache_MalformedSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := NewFileCache(path).Load()
	assert.Error(t, err, "a corrupt cache must not be silently treated as empty")
}

func TestFileCache_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	c := NewFileCache(path)
	require.NoError(t, c.Save(State{Snapshot: Snapshot{Requests: []domain.PaymentRequest{req("a", domain.StatusNew)}}}))
	require.NoError(t, c.Save(State{Snapshot: Snapshot{Requests: []domain.PaymentRequest{req("b", domain.StatusNew)}}}))

	got, ok, err := c.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Snapshot.Requests, 1)
	assert.Equal(t, "b", got.Snapshot.Requests[0].ID)
}
