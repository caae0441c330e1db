package types

// RatchetRole records which side of the handshake created the session.
type RatchetRole string

const (
	RoleInitiator RatchetRole = "initiator"
	RoleResponder RatchetRole = "responder"
)

// RatchetHeader is carried alongside every ciphertext.
type RatchetHeader struct {
	DHPub []byte `json:"dh_pub"`
	PN    uint32 `json:"pn"`
	N     uint32 `json:"n"`
}

// RatchetState holds everything the Double Ratchet needs for one peer
// device. It is mutated in place by the decryptor while the state-access
// lock for its PeerDevice is held, and snapshotted before every decrypt so
// a failed escrow can be undone.
type RatchetState struct {
	ConversationID ConversationID `json:"conversation_id"`
	Role           RatchetRole    `json:"role"`

	RootKey   []byte        `json:"root_key"`
	DHPriv    X25519Private `json:"dh_priv"`
	DHPub     X25519Public  `json:"dh_pub"`
	PeerDHPub X25519Public  `json:"peer_dh_pub"`

	SendCK []byte `json:"send_ck,omitempty"`
	RecvCK []byte `json:"recv_ck,omitempty"`

	// Ns/Nr index the current chains; the totals are the monotonic
	// per-direction conversation counters used for gap detection.
	Ns        uint32 `json:"ns"`
	Nr        uint32 `json:"nr"`
	SendTotal uint64 `json:"send_total"`
	RecvTotal uint64 `json:"recv_total"`
	PN        uint32 `json:"pn"`

	// RecvBase is the conversation counter the current receiving chain
	// starts after: chain index i carries counter RecvBase+i+1. Advanced
	// at every DH rollover by the closed chain's length. It cannot be
	// derived from RecvTotal, which only counts decrypted messages.
	RecvBase uint64 `json:"recv_base"`

	// Skipped caches message keys for counters jumped over during a
	// forward advance, keyed by ratchet pub + chain index. Bounded;
	// oldest entries are evicted once the cap is reached.
	Skipped map[string][]byte `json:"skipped_keys"`
}

// Usable reports whether the state can decrypt or encrypt at all: the root
// key and local ratchet pair must be present and at least one chain seeded.
func (st *RatchetState) Usable() bool {
	if st == nil || len(st.RootKey) == 0 {
		return false
	}
	var zero X25519Private
	if st.DHPriv == zero {
		return false
	}
	return len(st.SendCK) != 0 || len(st.RecvCK) != 0
}

// RatchetSnapshot is the copy of ratchet-critical fields taken before a
// decrypt. Restore applies the receive side unconditionally and merges the
// send side, see store.StateRegistry.Restore.
type RatchetSnapshot struct {
	RootKey   []byte
	DHPriv    X25519Private
	DHPub     X25519Public
	PeerDHPub X25519Public
	RecvCK    []byte
	SendCK    []byte
	Nr        uint32
	RecvTotal uint64
	RecvBase  uint64
	PN        uint32
	Ns        uint32
	SendTotal uint64
	Skipped   map[string][]byte
}
