package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/store"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	s, err := store.NewSnapshotFileStore(t.TempDir(), "hunter2")
	require.NoError(t, err)
	ctx := context.Background()

	want := sampleState()
	require.NoError(t, s.Persist(ctx, testPeer, want))

	got, ok, err := s.Load(ctx, testPeer)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want.ConversationID, got.ConversationID)
	require.Equal(t, want.RootKey, got.RootKey)
	require.Equal(t, want.RecvCK, got.RecvCK)
	require.Equal(t, want.RecvTotal, got.RecvTotal)
	require.Equal(t, want.SendTotal, got.SendTotal)
	require.Equal(t, want.Skipped, got.Skipped)
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	s, err := store.NewSnapshotFileStore(t.TempDir(), "hunter2")
	require.NoError(t, err)

	_, ok, err := s.Load(context.Background(), testPeer)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSnapshotStore_WrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := store.NewSnapshotFileStore(dir, "correct")
	require.NoError(t, err)
	require.NoError(t, s1.Persist(ctx, testPeer, sampleState()))

	s2, err := store.NewSnapshotFileStore(dir, "wrong")
	require.NoError(t, err)
	_, _, err = s2.Load(ctx, testPeer)
	require.Error(t, err)
}

func TestSnapshotStore_SealProducesOpaqueBlob(t *testing.T) {
	s, err := store.NewSnapshotFileStore(t.TempDir(), "hunter2")
	require.NoError(t, err)

	st := sampleState()
	sealed, err := s.Seal(st)
	require.NoError(t, err)
	require.NotEmpty(t, sealed)
	require.NotContains(t, string(sealed), "conv-1", "sealed snapshot must not leak plaintext fields")
}
