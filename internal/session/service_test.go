package session_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/crypto"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/protocol/ratchet"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/protocol/x3dh"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/session"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/store"
)

const conv = domain.ConversationID("conv-session")

var peer = domain.PeerDevice{AccountDigest: "initiator-digest", DeviceID: "dev-1"}

// published is what the responder device would have uploaded to the key
// directory: the public halves the initiator builds its handshake from.
type published struct {
	keys   *store.KeyFileStore
	idPub  domain.X25519Public
	spkPub domain.X25519Public
	opkPub domain.X25519Public
}

// initiatorSide is everything the sending device produced for the first
// message of a conversation.
type initiatorSide struct {
	bundle domain.HandshakeBundle
	state  domain.RatchetState
}

// setupResponder provisions a key store with an identity, a signed prekey
// and a one-time prekey, the way the publishing flow would.
func setupResponder(t *testing.T) published {
	t.Helper()
	keys := store.NewKeyFileStore(t.TempDir(), "pass")

	idPriv, idPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, keys.SaveIdentity(idPriv, idPub))

	spkPriv, spkPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, keys.SaveSignedPreKey("spk-1", spkPriv, spkPub))

	opkPriv, opkPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, keys.SaveOneTimePreKey("opk-1", opkPriv, opkPub))

	return published{keys: keys, idPub: idPub, spkPub: spkPub, opkPub: opkPub}
}

// initiate performs the sending side of the handshake against the
// responder's published keys.
func initiate(t *testing.T, pub published, withOPK bool) initiatorSide {
	t.Helper()

	aIDPriv, aIDPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	aEphPriv, aEphPub, err := crypto.GenerateX25519()
	require.NoError(t, err)

	bundle := domain.HandshakeBundle{
		InitiatorIK:    aIDPub,
		Ephemeral:      aEphPub,
		SignedPreKeyID: "spk-1",
	}
	var opkPub *domain.X25519Public
	if withOPK {
		opkPub = &pub.opkPub
		bundle.OneTimePreKeyID = "opk-1"
	}

	root, err := x3dh.InitiatorRoot(aIDPriv, aEphPriv, pub.idPub, pub.spkPub, opkPub)
	require.NoError(t, err)

	st, err := ratchet.InitAsInitiator(conv, root, pub.idPub)
	require.NoError(t, err)
	return initiatorSide{bundle: bundle, state: st}
}

func TestBootstrap_EstablishesDecryptableSession(t *testing.T) {
	pub := setupResponder(t)
	states := store.NewStateRegistry(nil)
	b := session.New(pub.keys, pub.keys, states, nil)
	ctx := context.Background()

	init := initiate(t, pub, true)
	codec := ratchet.NewCodec(0)
	enc, err := codec.Encrypt(&init.state, nil, []byte("first contact"))
	require.NoError(t, err)

	err = b.Bootstrap(ctx, init.bundle, peer, conv, init.state.DHPub.Slice(), false)
	require.NoError(t, err)

	st, err := states.Get(ctx, peer)
	require.NoError(t, err)
	require.NotNil(t, st)
	require.True(t, st.Usable())
	assert.Equal(t, conv, st.ConversationID)
	assert.Equal(t, domain.RoleResponder, st.Role)

	res, err := codec.Decrypt(st, enc.Header, nil, enc.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "first contact", string(res.Plaintext))

	// The one-time prekey was consumed by the bootstrap.
	_, ok, err := pub.keys.ConsumeOneTimePreKey("opk-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBootstrap_WithoutOneTimePreKey(t *testing.T) {
	pub := setupResponder(t)
	states := store.NewStateRegistry(nil)
	b := session.New(pub.keys, pub.keys, states, nil)
	ctx := context.Background()

	init := initiate(t, pub, false)
	codec := ratchet.NewCodec(0)
	enc, err := codec.Encrypt(&init.state, nil, []byte("no opk"))
	require.NoError(t, err)

	require.NoError(t, b.Bootstrap(ctx, init.bundle, peer, conv, init.state.DHPub.Slice(), false))

	st, err := states.Get(ctx, peer)
	require.NoError(t, err)
	res, err := codec.Decrypt(st, enc.Header, nil, enc.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "no opk", string(res.Plaintext))
}

func TestBootstrap_ExistingSessionLeftAlone(t *testing.T) {
	pub := setupResponder(t)
	states := store.NewStateRegistry(nil)
	b := session.New(pub.keys, pub.keys, states, nil)
	ctx := context.Background()

	existing, err := ratchet.InitAsInitiator(conv, bytes.Repeat([]byte{1}, 32), pub.idPub)
	require.NoError(t, err)
	states.Put(peer, &existing)

	// Bundle is junk; it must not even be inspected.
	err = b.Bootstrap(ctx, domain.HandshakeBundle{}, peer, conv, nil, false)
	require.NoError(t, err)

	st, err := states.Get(ctx, peer)
	require.NoError(t, err)
	assert.Same(t, &existing, st, "a live session must survive a replayed handshake")
}

func TestBootstrap_ForceResetsSession(t *testing.T) {
	pub := setupResponder(t)
	states := store.NewStateRegistry(nil)
	b := session.New(pub.keys, pub.keys, states, nil)
	ctx := context.Background()

	existing, err := ratchet.InitAsInitiator(conv, bytes.Repeat([]byte{1}, 32), pub.idPub)
	require.NoError(t, err)
	states.Put(peer, &existing)

	init := initiate(t, pub, false)
	require.NoError(t, b.Bootstrap(ctx, init.bundle, peer, conv, init.state.DHPub.Slice(), true))

	st, err := states.Get(ctx, peer)
	require.NoError(t, err)
	assert.NotSame(t, &existing, st, "force must replace the session")
	assert.Equal(t, domain.RoleResponder, st.Role)
}

func TestBootstrap_BadSenderRatchetKey(t *testing.T) {
	pub := setupResponder(t)
	b := session.New(pub.keys, pub.keys, store.NewStateRegistry(nil), nil)

	err := b.Bootstrap(context.Background(), domain.HandshakeBundle{SignedPreKeyID: "spk-1"}, peer, conv, []byte{1, 2}, false)
	require.ErrorIs(t, err, session.ErrBadRatchetKey)
}

func TestBootstrap_MissingSignedPreKey(t *testing.T) {
	pub := setupResponder(t)
	b := session.New(pub.keys, pub.keys, store.NewStateRegistry(nil), nil)

	init := initiate(t, pub, false)
	init.bundle.SignedPreKeyID = "spk-gone"
	err := b.Bootstrap(context.Background(), init.bundle, peer, conv, init.state.DHPub.Slice(), false)
	require.ErrorIs(t, err, session.ErrSignedPreKeyMissing)
}
