package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/crypto"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/store"
)

func TestKeyFileStore_IdentityRoundTrip(t *testing.T) {
	s := store.NewKeyFileStore(t.TempDir(), "pass")

	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, s.SaveIdentity(priv, pub))

	gotPriv, gotPub, err := s.LoadIdentity()
	require.NoError(t, err)
	require.Equal(t, priv, gotPriv)
	require.Equal(t, pub, gotPub)
}

func TestKeyFileStore_IdentityWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	s := store.NewKeyFileStore(dir, "pass")
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, s.SaveIdentity(priv, pub))

	_, _, err = store.NewKeyFileStore(dir, "other").LoadIdentity()
	require.Error(t, err)
}

func TestKeyFileStore_SignedPreKey(t *testing.T) {
	s := store.NewKeyFileStore(t.TempDir(), "pass")

	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, s.SaveSignedPreKey("spk-1", priv, pub))

	got, ok, err := s.LoadSignedPreKey("spk-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, priv, got)

	// Loading stays non-destructive.
	_, ok, err = s.LoadSignedPreKey("spk-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = s.LoadSignedPreKey("spk-missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKeyFileStore_OneTimePreKeyIsConsumed(t *testing.T) {
	s := store.NewKeyFileStore(t.TempDir(), "pass")

	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, s.SaveOneTimePreKey("opk-1", priv, pub))

	got, ok, err := s.ConsumeOneTimePreKey("opk-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, priv, got)

	// Second consume finds nothing: one-time means one-time.
	_, ok, err = s.ConsumeOneTimePreKey("opk-1")
	require.NoError(t, err)
	require.False(t, ok)
}
