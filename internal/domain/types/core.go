package types

import "fmt"

// AccountDigest is the opaque hash that identifies a peer account.
type AccountDigest string

// String returns the string form of the digest.
func (d AccountDigest) String() string { return string(d) }

// DeviceID identifies one device of a peer account.
type DeviceID string

// String returns the string form of the device identifier.
func (id DeviceID) String() string { return string(id) }

// ConversationID identifies a secure conversation.
type ConversationID string

// String returns the string form of the conversation identifier.
func (id ConversationID) String() string { return string(id) }

// MessageID identifies a message locally.
type MessageID string

// String returns the string form of the message identifier.
func (id MessageID) String() string { return string(id) }

// PeerDevice is the typed composite key every ratchet session, lock and
// snapshot is keyed by. It replaces string-concatenated lock keys so a
// malformed digest can never collide with another peer.
type PeerDevice struct {
	AccountDigest AccountDigest `json:"account_digest"`
	DeviceID      DeviceID      `json:"device_id"`
}

// String renders the key for logs and file names.
func (p PeerDevice) String() string {
	return fmt.Sprintf("%s/%s", p.AccountDigest, p.DeviceID)
}

// Zero reports whether either half of the key is missing.
func (p PeerDevice) Zero() bool {
	return p.AccountDigest == "" || p.DeviceID == ""
}

// X25519Private is a Curve25519 private scalar.
type X25519Private [32]byte

// Slice returns the private key as a byte slice.
func (k X25519Private) Slice() []byte { return k[:] }

// X25519Public is a Curve25519 public point.
type X25519Public [32]byte

// Slice returns the public key as a byte slice.
func (k X25519Public) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 verification key.
type Ed25519Public [32]byte

// Slice returns the key as a byte slice.
func (k Ed25519Public) Slice() []byte { return k[:] }
