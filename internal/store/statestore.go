package store

import (
	"context"
	"sync"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

// StateRegistry is the session registry: it owns the live ratchet state for
// every peer device of the current login session. State is loaded from the
// snapshot store on first access and then lives in memory; it is never
// silently collected while the session is active, only replaced through an
// explicit bootstrap.
//
// The registry protects its map, not the states themselves. Mutating a
// state requires the state-access lock of the ConcurrencyGate.
type StateRegistry struct {
	mu        sync.Mutex
	states    map[domain.PeerDevice]*domain.RatchetState
	snapshots domain.SnapshotStore // optional backing store, may be nil
}

// NewStateRegistry returns a registry backed by snapshots (may be nil).
func NewStateRegistry(snapshots domain.SnapshotStore) *StateRegistry {
	return &StateRegistry{
		states:    make(map[domain.PeerDevice]*domain.RatchetState),
		snapshots: snapshots,
	}
}

// Get returns the live state for peer, loading the persisted snapshot on a
// miss. nil with nil error means no session exists.
func (r *StateRegistry) Get(ctx context.Context, peer domain.PeerDevice) (*domain.RatchetState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.states[peer]; ok {
		return st, nil
	}
	if r.snapshots == nil {
		return nil, nil
	}
	st, ok, err := r.snapshots.Load(ctx, peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	r.states[peer] = st
	return st, nil
}

// Put registers (or replaces) the live state for peer.
func (r *StateRegistry) Put(peer domain.PeerDevice, st *domain.RatchetState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[peer] = st
}

// Snapshot copies the ratchet-critical fields of st. Byte slices and the
// skipped-key cache are cloned; the snapshot stays valid however st is
// mutated afterwards.
func (r *StateRegistry) Snapshot(st *domain.RatchetState) domain.RatchetSnapshot {
	return domain.RatchetSnapshot{
		RootKey:   cloneBytes(st.RootKey),
		DHPriv:    st.DHPriv,
		DHPub:     st.DHPub,
		PeerDHPub: st.PeerDHPub,
		RecvCK:    cloneBytes(st.RecvCK),
		SendCK:    cloneBytes(st.SendCK),
		Nr:        st.Nr,
		RecvTotal: st.RecvTotal,
		RecvBase:  st.RecvBase,
		PN:        st.PN,
		Ns:        st.Ns,
		SendTotal: st.SendTotal,
		Skipped:   cloneSkipped(st.Skipped),
	}
}

// Restore undoes a decrypt. Receive-side fields (root key, ratchet pair,
// peer pub, receive chain and counters, skipped cache) are overwritten from
// the snapshot unconditionally. Send-side counters take the pointwise
// maximum of snapshot and live value, and within one DH epoch the live send
// chain key is kept: an outbound send may have advanced the send state
// during the escrow window and must not be rolled back. A decrypt that
// stepped the DH ratchet replaced the send chain for the new epoch, though,
// so when the peer pub reverts the snapshot's send chain comes back with it;
// otherwise the next outbound message is sealed with a chain the peer
// cannot reach from the restored ratchet pub.
func (r *StateRegistry) Restore(st *domain.RatchetState, snap domain.RatchetSnapshot) {
	if st.PeerDHPub != snap.PeerDHPub {
		st.SendCK = cloneBytes(snap.SendCK)
	}

	st.RootKey = cloneBytes(snap.RootKey)
	st.DHPriv = snap.DHPriv
	st.DHPub = snap.DHPub
	st.PeerDHPub = snap.PeerDHPub
	st.RecvCK = cloneBytes(snap.RecvCK)
	st.Nr = snap.Nr
	st.RecvTotal = snap.RecvTotal
	st.RecvBase = snap.RecvBase
	st.PN = snap.PN
	st.Skipped = cloneSkipped(snap.Skipped)

	if snap.Ns > st.Ns {
		st.Ns = snap.Ns
	}
	if snap.SendTotal > st.SendTotal {
		st.SendTotal = snap.SendTotal
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneSkipped(m map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		out[k] = cloneBytes(v)
	}
	return out
}

// Compile-time assertion that StateRegistry implements domain.RatchetStateStore.
var _ domain.RatchetStateStore = (*StateRegistry)(nil)
