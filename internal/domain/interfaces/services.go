package interfaces

import (
	"context"

	domaintypes "github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain/types"
)

// CommitOptions control how one envelope runs through the state machine.
type CommitOptions struct {
	// PreOrdered marks an envelope whose ordering is already guaranteed by
	// the caller (the backfill loop), so the incoming-order lock is
	// skipped. Taking it again would deadlock against the live operation
	// that spawned the backfill.
	PreOrdered bool

	// AllowBootstrap permits PreKey handshake establishment. Always false
	// for backfilled messages.
	AllowBootstrap bool
}

// Committer is the incoming-message commit pipeline.
type Committer interface {
	// CommitIncoming runs one canonical envelope through gap check,
	// backfill, decrypt, escrow and append.
	CommitIncoming(ctx context.Context, env domaintypes.Envelope, opts CommitOptions) domaintypes.CommitResult

	// ConsumeLiveJob validates and normalizes a raw push job, then commits
	// it. Invalid jobs return MISSING_PARAMS without entering the state
	// machine.
	ConsumeLiveJob(ctx context.Context, job domaintypes.LiveJob) domaintypes.CommitResult
}

// Sealer is the outbound counterpart: it advances the send chain under the
// same state-access lock the incoming path uses.
type Sealer interface {
	SealOutgoing(
		ctx context.Context,
		peer domaintypes.PeerDevice,
		msgType string,
		plaintext []byte,
	) (domaintypes.Envelope, error)
}
