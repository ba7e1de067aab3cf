package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudpillar/cloudpillar/types"
)

func newBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "scans.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestScan(t *testing.T, owner string) *types.Scan {
	t.Helper()
	scan, err := types.NewScan(owner, "prod audit", "cred-1", nil)
	require.NoError(t, err)
	return scan
}

func TestBoltStore_Lifecycle(t *testing.T) {
	store := newBoltStore(t)
	ctx := context.Background()

	scan := newTestScan(t, "user-1")
	require.NoError(t, store.Create(ctx, scan))

	// Create refuses duplicates
	assert.Error(t, store.Create(ctx, scan))

	got, err := store.Get(ctx, "user-1", scan.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, got.Status)

	require.NoError(t, store.MarkRunning(ctx, "user-1", scan.ID))

	require.NoError(t, store.AppendRegionResult(ctx, "user-1", scan.ID, types.RegionResult{
		Region:   "us-east-1",
		Services: map[string]types.ServiceSummary{"ec2": {Count: 3}},
	}))
	require.NoError(t, store.UpdateProgress(ctx, "user-1", scan.ID, []string{"us-east-1"}, 50))

	require.NoError(t, store.Finalize(ctx, "user-1", scan.ID, Finalization{
		Status:         types.StatusCompleted,
		Recommendation: "all good",
	}))

	got, err = store.Get(ctx, "user-1", scan.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	assert.Equal(t, 50, got.Progress)
	assert.Equal(t, []string{"us-east-1"}, got.RegionsScanned)
	assert.Equal(t, 3, got.Results["us-east-1"].Services["ec2"].Count)
	assert.Equal(t, "all good", got.Recommendation)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)
}

func TestBoltStore_ProgressNeverMovesBackward(t *testing.T) {
	store := newBoltStore(t)
	ctx := context.Background()

	scan := newTestScan(t, "user-1")
	require.NoError(t, store.Create(ctx, scan))

	require.NoError(t, store.UpdateProgress(ctx, "user-1", scan.ID, []string{"a"}, 60))
	require.NoError(t, store.UpdateProgress(ctx, "user-1", scan.ID, []string{"a", "b"}, 40))

	got, err := store.Get(ctx, "user-1", scan.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Progress)
	assert.Equal(t, []string{"a", "b"}, got.RegionsScanned)
}

func TestBoltStore_OwnerIsolation(t *testing.T) {
	store := newBoltStore(t)
	ctx := context.Background()

	scan := newTestScan(t, "user-1")
	require.NoError(t, store.Create(ctx, scan))

	_, err := store.Get(ctx, "user-2", scan.ID)
	assert.True(t, IsNotFound(err))

	err = store.Delete(ctx, "user-2", scan.ID)
	assert.True(t, IsNotFound(err))
}

func TestBoltStore_FinalizeAfterDelete(t *testing.T) {
	store := newBoltStore(t)
	ctx := context.Background()

	scan := newTestScan(t, "user-1")
	require.NoError(t, store.Create(ctx, scan))
	require.NoError(t, store.Delete(ctx, "user-1", scan.ID))

	// The background runner's last write against a deleted record
	// must surface as not found, nothing else.
	err := store.Finalize(ctx, "user-1", scan.ID, Finalization{Status: types.StatusCompleted})
	assert.True(t, IsNotFound(err))

	err = store.UpdateProgress(ctx, "user-1", scan.ID, nil, 10)
	assert.True(t, IsNotFound(err))
}

func TestBoltStore_List(t *testing.T) {
	store := newBoltStore(t)
	ctx := context.Background()

	first := newTestScan(t, "user-1")
	require.NoError(t, store.Create(ctx, first))

	second := newTestScan(t, "user-1")
	second.CreatedAt = second.CreatedAt.Add(1) // force ordering
	require.NoError(t, store.Create(ctx, second))

	other := newTestScan(t, "user-2")
	require.NoError(t, store.Create(ctx, other))

	scans, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, second.ID, scans[0].ID)
	assert.Equal(t, first.ID, scans[1].ID)

	empty, err := store.List(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
