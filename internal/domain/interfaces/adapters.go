package interfaces

import (
	"context"

	domaintypes "github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain/types"
)

// Decryptor advances ratchet state in place and derives the message key for
// one envelope. The caller must hold the state-access lock for the peer
// device and must have snapshotted the state first: a failed escrow after a
// successful Decrypt is undone with that snapshot, never by the decryptor.
type Decryptor interface {
	Decrypt(
		st *domaintypes.RatchetState,
		header domaintypes.RatchetHeader,
		associatedData []byte,
		ciphertext []byte,
	) (domaintypes.DecryptResult, error)
}

// SessionBootstrap establishes or resets a ratchet session from a PreKey
// handshake bundle. It is withheld (nil) on the backfill path; a replayed
// history message must never reset a live session.
type SessionBootstrap interface {
	Bootstrap(
		ctx context.Context,
		bundle domaintypes.HandshakeBundle,
		peer domaintypes.PeerDevice,
		conversationID domaintypes.ConversationID,
		senderRatchetPub []byte,
		force bool,
	) error
}

// KeyVault durably escrows per-message keys. A message only counts as
// committed once EscrowPut has returned nil.
type KeyVault interface {
	EscrowPut(ctx context.Context, rec domaintypes.EscrowRecord) error
}

// SnapshotStore persists encrypted local copies of ratchet state. Persist
// is best-effort from the pipeline's point of view; Seal exposes the
// encrypted form so the committer can attach it to escrow records.
type SnapshotStore interface {
	Persist(ctx context.Context, peer domaintypes.PeerDevice, st *domaintypes.RatchetState) error
	Load(ctx context.Context, peer domaintypes.PeerDevice) (*domaintypes.RatchetState, bool, error)
	Seal(st *domaintypes.RatchetState) ([]byte, error)
}

// SequenceSource reads and advances the per-conversation commit cursor.
// LocalMaxCounter returns ok=false when nothing has ever been committed.
type SequenceSource interface {
	LocalMaxCounter(ctx context.Context, conv domaintypes.ConversationID) (uint64, bool, error)
	CommitCounter(ctx context.Context, conv domaintypes.ConversationID, counter uint64) error
}

// HistoryClient fetches a single stored envelope by its cryptographic
// counter. A nil envelope with a nil error means the server does not have
// it, which the backfill treats as fatal for the enclosing operation.
type HistoryClient interface {
	FetchByCounter(
		ctx context.Context,
		conv domaintypes.ConversationID,
		counter uint64,
		sender domaintypes.PeerDevice,
	) (*domaintypes.Envelope, error)
}

// TimelineAppender is the best-effort display sink.
type TimelineAppender interface {
	Append(ctx context.Context, entries []domaintypes.DecryptedMessage) (int, error)
}
