package commit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/gate"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/protocol/ratchet"
)

// DefaultFillCap bounds how many missing predecessors one live operation
// will backfill. It is a sanity ceiling, not a correctness bound; anything
// beyond it stays blocked until a retry starts from the advanced cursor.
const DefaultFillCap = 50

// Policy holds the tunable consistency knobs, see app.Config.
type Policy struct {
	FillCap int
}

func (p Policy) fillCap() uint64 {
	if p.FillCap <= 0 {
		return DefaultFillCap
	}
	return uint64(p.FillCap)
}

// Params wires a Service. States, Decryptor, Vault and Sequence are
// required; the rest degrade gracefully (no bootstrap, no backfill, no
// timeline).
type Params struct {
	Self      domain.PeerDevice
	States    domain.RatchetStateStore
	Decryptor domain.Decryptor
	Ratchet   *ratchet.Codec // outbound sealing; may be nil for receive-only wiring
	Bootstrap domain.SessionBootstrap
	Vault     domain.KeyVault
	Snapshots domain.SnapshotStore
	Sequence  domain.SequenceSource
	History   domain.HistoryClient
	Timeline  domain.TimelineAppender
	Gate      *gate.Gate
	Policy    Policy
	Logger    *zap.SugaredLogger
}

// Service is the incoming-message commit pipeline: gap detection, bounded
// synchronous backfill, decrypt, atomic key escrow with rollback, and
// best-effort timeline append, all serialized per peer device by the gate.
type Service struct {
	self      domain.PeerDevice
	states    domain.RatchetStateStore
	dec       domain.Decryptor
	ratchet   *ratchet.Codec
	bootstrap domain.SessionBootstrap
	vault     domain.KeyVault
	snapshots domain.SnapshotStore
	sequence  domain.SequenceSource
	history   domain.HistoryClient
	timeline  domain.TimelineAppender
	gate      *gate.Gate
	policy    Policy
	log       *zap.SugaredLogger
}

// New constructs the pipeline from p.
func New(p Params) *Service {
	log := p.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	g := p.Gate
	if g == nil {
		g = gate.New()
	}
	return &Service{
		self:      p.Self,
		states:    p.States,
		dec:       p.Decryptor,
		ratchet:   p.Ratchet,
		bootstrap: p.Bootstrap,
		vault:     p.Vault,
		snapshots: p.Snapshots,
		sequence:  p.Sequence,
		history:   p.History,
		timeline:  p.Timeline,
		gate:      g,
		policy:    p.Policy,
		log:       log,
	}
}

// ConsumeLiveJob validates and normalizes one push job, then commits it
// with bootstrap allowed. Invalid jobs never enter the state machine.
func (s *Service) ConsumeLiveJob(ctx context.Context, job domain.LiveJob) domain.CommitResult {
	env, err := Normalize(job)
	if err != nil {
		return domain.CommitResult{Reason: domain.ReasonMissingParams, Err: err}
	}
	return s.CommitIncoming(ctx, env, domain.CommitOptions{AllowBootstrap: true})
}

// CommitIncoming runs one canonical envelope through the state machine:
//
//	RECEIVED -> READY check -> GAP_CHECK -> [backfill] -> DECRYPT ->
//	ESCROW_COMMIT -> APPEND -> DONE
//
// A live envelope holds the incoming-order lock for the whole run; every
// decrypt-and-commit unit additionally holds the state-access lock.
func (s *Service) CommitIncoming(ctx context.Context, env domain.Envelope, opts domain.CommitOptions) domain.CommitResult {
	if res, ok := s.checkAdapters(env); !ok {
		return res
	}
	// The counter must be the cryptographic one from the header; a missing
	// counter is rejected, never substituted from a transport id.
	if env.Counter == 0 || len(env.Ciphertext) == 0 || len(env.Header.DHPub) != 32 {
		return fail(env, domain.ReasonMissingMsgFields, fmt.Errorf("envelope missing counter, header or ciphertext"))
	}

	if !opts.PreOrdered {
		release, err := s.gate.AcquireIncoming(ctx, env.Sender)
		if err != nil {
			return fail(env, domain.ReasonAdaptersUnavail, err)
		}
		defer release()
	}

	if res, ok := s.ensureReady(ctx, env, opts); !ok {
		return res
	}

	localMax, known, err := s.sequence.LocalMaxCounter(ctx, env.ConversationID)
	if err != nil {
		return fail(env, domain.ReasonGapCheckFailed, fmt.Errorf("local max counter: %w", err))
	}
	if !known {
		// Fail closed: with no cursor every predecessor must be backfilled
		// (capped at FillCap) before this message commits.
		localMax = 0
	}

	check := classifyGap(env.Counter, localMax)
	switch check.Class {
	case Stale:
		s.log.Debugw("stale envelope", "conversation", env.ConversationID, "counter", env.Counter, "local_max", localMax)
		return domain.CommitResult{OK: true, Reason: domain.ReasonStale, Counter: env.Counter, MessageID: env.MessageID}
	case Gap:
		if opts.PreOrdered {
			// A backfilled counter is by construction localMax+1; a gap
			// here means the cursor moved underneath us. Fail closed.
			return fail(env, domain.ReasonGapCheckFailed, fmt.Errorf("pre-ordered envelope %d does not follow cursor %d", env.Counter, localMax))
		}
		if res := s.backfill(ctx, env, localMax, check.GapSize); res != nil {
			return *res
		}
	}

	res := s.commitOne(ctx, env)
	if !res.OK {
		return res
	}
	return s.append(ctx, env, res)
}

// checkAdapters verifies the non-optional collaborators are wired.
func (s *Service) checkAdapters(env domain.Envelope) (domain.CommitResult, bool) {
	if s.states == nil || s.dec == nil || s.vault == nil || s.sequence == nil {
		return fail(env, domain.ReasonAdaptersUnavail, fmt.Errorf("commit pipeline is missing required adapters")), false
	}
	return domain.CommitResult{}, true
}

// ensureReady confirms a usable ratchet exists, bootstrapping from a live
// PreKey handshake when allowed. Backfilled envelopes never bootstrap.
func (s *Service) ensureReady(ctx context.Context, env domain.Envelope, opts domain.CommitOptions) (domain.CommitResult, bool) {
	st, err := s.states.Get(ctx, env.Sender)
	if err != nil {
		return fail(env, domain.ReasonStateUnavailable, err), false
	}
	if st != nil && st.Usable() {
		return domain.CommitResult{}, true
	}

	if env.Handshake == nil {
		return fail(env, domain.ReasonSecurePending, fmt.Errorf("no session with %s and no handshake attached", env.Sender)), false
	}
	if !opts.AllowBootstrap || s.bootstrap == nil {
		return fail(env, domain.ReasonSecurePending, fmt.Errorf("bootstrap withheld for %s", env.Sender)), false
	}
	if err := s.bootstrap.Bootstrap(ctx, *env.Handshake, env.Sender, env.ConversationID, env.Header.DHPub, false); err != nil {
		return fail(env, domain.ReasonSecureFailed, err), false
	}
	st, err = s.states.Get(ctx, env.Sender)
	if err != nil || st == nil || !st.Usable() {
		return fail(env, domain.ReasonNotReady, fmt.Errorf("session not usable after bootstrap")), false
	}
	return domain.CommitResult{}, true
}

// backfill fetches and commits the missing predecessors of env, strictly
// ascending. Any unfetchable counter aborts the whole enclosing operation;
// nothing is ever committed out of order and no placeholder is written.
// Returns nil when env itself may proceed.
func (s *Service) backfill(ctx context.Context, env domain.Envelope, localMax, gapSize uint64) *domain.CommitResult {
	if s.history == nil {
		r := fail(env, domain.ReasonGapCheckFailed, fmt.Errorf("gap of %d with no history client", gapSize))
		return &r
	}

	end := localMax + gapSize
	capped := end
	if limit := localMax + s.policy.fillCap(); capped > limit {
		capped = limit
	}
	s.log.Infow("backfilling gap",
		"conversation", env.ConversationID, "local_max", localMax,
		"incoming", env.Counter, "gap", gapSize, "until", capped)

	for c := localMax + 1; c <= capped; c++ {
		fetched, err := s.history.FetchByCounter(ctx, env.ConversationID, c, env.Sender)
		if err != nil {
			r := fail(env, domain.ReasonGapCheckFailed, fmt.Errorf("backfill fetch %d: %w", c, err))
			return &r
		}
		if fetched == nil {
			r := fail(env, domain.ReasonGapCheckFailed, fmt.Errorf("backfill counter %d not found", c))
			return &r
		}
		// Each commit's state is the precondition for the next; bootstrap
		// is disabled, a replayed handshake must not reset the session.
		sub := s.CommitIncoming(ctx, *fetched, domain.CommitOptions{PreOrdered: true})
		if !sub.OK {
			r := fail(env, domain.ReasonGapCheckFailed, fmt.Errorf("backfill commit %d: %s: %w", c, sub.Reason, errOf(sub)))
			return &r
		}
	}

	if capped < end {
		// FillCap truncated the range; predecessors remain, so the live
		// message stays blocked. The retry recomputes from the new cursor.
		r := fail(env, domain.ReasonGapDetected, fmt.Errorf("gap of %d exceeds fill cap %d", gapSize, s.policy.fillCap()))
		return &r
	}
	return nil
}

// commitOne is the decrypt-and-commit critical section: one ratchet
// mutation at a time per peer device, snapshot first, escrow before the
// mutation is allowed to stand.
func (s *Service) commitOne(ctx context.Context, env domain.Envelope) domain.CommitResult {
	release, err := s.gate.AcquireState(ctx, env.Sender)
	if err != nil {
		return fail(env, domain.ReasonAdaptersUnavail, err)
	}
	defer release()

	st, err := s.states.Get(ctx, env.Sender)
	if err != nil || st == nil || !st.Usable() {
		return fail(env, domain.ReasonStateUnavailable, err)
	}

	// Re-check under the lock: another unit may have committed this
	// counter while we waited. Decrypting it again would double-advance
	// the chain. A cursor read error fails closed, same as the pre-lock
	// read.
	max, known, err := s.sequence.LocalMaxCounter(ctx, env.ConversationID)
	if err != nil {
		return fail(env, domain.ReasonGapCheckFailed, fmt.Errorf("local max counter: %w", err))
	}
	if known && env.Counter <= max {
		return domain.CommitResult{OK: true, Reason: domain.ReasonStale, Counter: env.Counter, MessageID: env.MessageID}
	}

	snap := s.states.Snapshot(st)

	dres, err := s.dec.Decrypt(st, env.Header, env.AssociatedData, env.Ciphertext)
	if err != nil {
		s.states.Restore(st, snap)
		return fail(env, domain.ReasonDecryptFail, err)
	}
	if len(dres.MessageKey) == 0 {
		s.states.Restore(st, snap)
		return fail(env, domain.ReasonMissingMessageKey, fmt.Errorf("decrypt yielded no message key"))
	}

	var sealed []byte
	if s.snapshots != nil {
		if sealed, err = s.snapshots.Seal(st); err != nil {
			s.states.Restore(st, snap)
			return failDecrypted(env, domain.ReasonVaultPutFailed, fmt.Errorf("seal snapshot: %w", err))
		}
	}

	rec := domain.EscrowRecord{
		ConversationID:    env.ConversationID,
		MessageID:         env.MessageID,
		Counter:           env.Counter,
		MessageKey:        dres.MessageKey,
		Direction:         domain.DirectionIn,
		MsgType:           env.MsgType,
		EncryptedSnapshot: sealed,
	}
	if err := s.vault.EscrowPut(ctx, rec); err != nil {
		s.states.Restore(st, snap)
		s.log.Warnw("escrow put failed, ratchet rolled back",
			"conversation", env.ConversationID, "counter", env.Counter, "err", err)
		return failDecrypted(env, domain.ReasonVaultPutFailed, err)
	}
	if err := s.sequence.CommitCounter(ctx, env.ConversationID, env.Counter); err != nil {
		// The key is escrowed but the cursor is not: roll the ratchet back
		// so a retry re-derives the identical key and repeats the put.
		s.states.Restore(st, snap)
		return failDecrypted(env, domain.ReasonVaultPutFailed, fmt.Errorf("commit cursor: %w", err))
	}

	if len(dres.Skipped) > 0 {
		s.escrowSkipped(ctx, env, dres.Skipped)
	}
	if s.snapshots != nil {
		if err := s.snapshots.Persist(ctx, env.Sender, st); err != nil {
			// Non-fatal: the escrowed snapshot is the durable copy.
			s.log.Warnw("local snapshot persist failed", "peer", env.Sender.String(), "err", err)
		}
	}

	return domain.CommitResult{
		OK:         true,
		Reason:     domain.ReasonCommitted,
		Counter:    env.Counter,
		MessageID:  env.MessageID,
		DecryptOK:  true,
		VaultPutOK: true,
		Message: &domain.DecryptedMessage{
			ConversationID: env.ConversationID,
			MessageID:      env.MessageID,
			Sender:         env.Sender,
			Counter:        env.Counter,
			Plaintext:      dres.Plaintext,
			MsgType:        env.MsgType,
			Timestamp:      env.Timestamp,
		},
	}
}

// escrowSkipped stores skipped-key records concurrently and best-effort.
// The chain has already moved past them; failures are logged, never allowed
// to block or roll back the primary commit.
func (s *Service) escrowSkipped(ctx context.Context, env domain.Envelope, skipped []domain.SkippedKeyRecord) {
	bg := context.WithoutCancel(ctx)
	g, bg := errgroup.WithContext(bg)
	for _, rec := range skipped {
		g.Go(func() error {
			return s.vault.EscrowPut(bg, domain.EscrowRecord{
				ConversationID: env.ConversationID,
				MessageID:      domain.MessageID(fmt.Sprintf("%s#skip-%d", env.MessageID, rec.Counter)),
				Counter:        rec.Counter,
				MessageKey:     rec.MessageKey,
				Direction:      domain.DirectionIn,
				MsgType:        "skipped",
			})
		})
	}
	go func() {
		if err := g.Wait(); err != nil {
			s.log.Warnw("skipped-key escrow incomplete",
				"conversation", env.ConversationID, "count", len(skipped), "err", err)
		}
	}()
}

// append is the best-effort display step. Control traffic is committed but
// intentionally never surfaced.
func (s *Service) append(ctx context.Context, env domain.Envelope, res domain.CommitResult) domain.CommitResult {
	if isControl(env.MsgType) {
		res.Reason = domain.ReasonControlSkip
		return res
	}
	if s.timeline == nil || res.Message == nil {
		return res
	}
	n, err := s.timeline.Append(ctx, []domain.DecryptedMessage{*res.Message})
	if err != nil || n == 0 {
		s.log.Warnw("timeline append failed", "message", env.MessageID, "err", err)
		res.Reason = domain.ReasonAppendFailed
	}
	return res
}

func isControl(msgType string) bool {
	switch msgType {
	case "control", "receipt", "typing":
		return true
	}
	return false
}

func fail(env domain.Envelope, reason domain.ReasonCode, err error) domain.CommitResult {
	return domain.CommitResult{
		Reason:    reason,
		Counter:   env.Counter,
		MessageID: env.MessageID,
		Err:       err,
	}
}

// failDecrypted marks results where Decrypt succeeded before the failure.
func failDecrypted(env domain.Envelope, reason domain.ReasonCode, err error) domain.CommitResult {
	r := fail(env, reason, err)
	r.DecryptOK = true
	return r
}

func errOf(res domain.CommitResult) error {
	if res.Err != nil {
		return res.Err
	}
	return fmt.Errorf("commit failed")
}

// Compile-time assertion that Service implements domain.Committer.
var _ domain.Committer = (*Service)(nil)
