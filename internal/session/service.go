package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/protocol/ratchet"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/protocol/x3dh"
)

var (
	// ErrSignedPreKeyMissing means the bundle referenced a signed prekey we
	// no longer hold.
	ErrSignedPreKeyMissing = errors.New("signed prekey not found")

	// ErrBadRatchetKey means the sender's ratchet public key is malformed.
	ErrBadRatchetKey = errors.New("sender ratchet key must be 32 bytes")
)

// Bootstrap establishes ratchet sessions from PreKey handshake bundles. It
// is the injected SessionBootstrap of the commit pipeline; the backfill
// path runs with it withheld.
type Bootstrap struct {
	ids     domain.IdentityStore
	prekeys domain.PreKeyStore
	states  domain.RatchetStateStore
	log     *zap.SugaredLogger
}

// New constructs a Bootstrap over the given stores.
func New(ids domain.IdentityStore, prekeys domain.PreKeyStore, states domain.RatchetStateStore, log *zap.SugaredLogger) *Bootstrap {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bootstrap{ids: ids, prekeys: prekeys, states: states, log: log}
}

// Bootstrap derives the X3DH root from bundle and seeds a responder-side
// ratchet for peer. An existing usable session is left alone unless force
// is set; force is the only path that resets a live session.
func (b *Bootstrap) Bootstrap(
	ctx context.Context,
	bundle domain.HandshakeBundle,
	peer domain.PeerDevice,
	conversationID domain.ConversationID,
	senderRatchetPub []byte,
	force bool,
) error {
	existing, err := b.states.Get(ctx, peer)
	if err != nil {
		return err
	}
	if existing != nil && existing.Usable() && !force {
		return nil
	}

	if len(senderRatchetPub) != 32 {
		return ErrBadRatchetKey
	}
	if bundle.SignedPreKeyID == "" {
		return fmt.Errorf("handshake bundle missing signed prekey id")
	}

	idPriv, _, err := b.ids.LoadIdentity()
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	spkPriv, ok, err := b.prekeys.LoadSignedPreKey(bundle.SignedPreKeyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrSignedPreKeyMissing, bundle.SignedPreKeyID)
	}

	var opkPriv *domain.X25519Private
	if bundle.OneTimePreKeyID != "" {
		p, ok, err := b.prekeys.ConsumeOneTimePreKey(bundle.OneTimePreKeyID)
		if err != nil {
			return err
		}
		if ok {
			opkPriv = &p
		}
		// A consumed one-time prekey is not fatal; the initiator falls
		// back to the three-DH variant.
	}

	root, err := x3dh.ResponderRoot(idPriv, spkPriv, opkPriv, bundle)
	if err != nil {
		return fmt.Errorf("x3dh responder root: %w", err)
	}

	var senderPub domain.X25519Public
	copy(senderPub[:], senderRatchetPub)

	st, err := ratchet.InitAsResponder(conversationID, root, idPriv, senderPub)
	if err != nil {
		return err
	}
	b.states.Put(peer, &st)
	b.log.Infow("session bootstrapped", "peer", peer.String(), "conversation", conversationID, "force", force)
	return nil
}

// Compile-time assertion that Bootstrap implements domain.SessionBootstrap.
var _ domain.SessionBootstrap = (*Bootstrap)(nil)
