package interfaces

import (
	"context"

	domaintypes "github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain/types"
)

// RatchetStateStore is the session registry: the single owner of live
// ratchet state per peer device for the lifetime of a login session.
type RatchetStateStore interface {
	// Get returns the live state, loading it from the snapshot store on a
	// miss. nil with a nil error means no session exists yet.
	Get(ctx context.Context, peer domaintypes.PeerDevice) (*domaintypes.RatchetState, error)
	Put(peer domaintypes.PeerDevice, st *domaintypes.RatchetState)

	// Snapshot copies the ratchet-critical fields of st. Restore undoes a
	// decrypt: receive-side fields are overwritten from the snapshot,
	// send-side counters take the pointwise maximum of snapshot and live
	// value so an outbound send within the same DH epoch is never rolled
	// back. A rolled-back epoch takes its send chain with it.
	Snapshot(st *domaintypes.RatchetState) domaintypes.RatchetSnapshot
	Restore(st *domaintypes.RatchetState, snap domaintypes.RatchetSnapshot)
}

// PreKeyStore hands out the local halves of published prekeys during
// session bootstrap.
type PreKeyStore interface {
	LoadSignedPreKey(id string) (priv domaintypes.X25519Private, ok bool, err error)
	ConsumeOneTimePreKey(id string) (priv domaintypes.X25519Private, ok bool, err error)
}

// IdentityStore loads the account's long-term X25519 identity pair.
type IdentityStore interface {
	LoadIdentity() (priv domaintypes.X25519Private, pub domaintypes.X25519Public, err error)
}
