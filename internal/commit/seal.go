package commit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

var (
	// ErrNoSession means no usable ratchet exists for the peer.
	ErrNoSession = errors.New("no ratchet session with peer")

	// ErrSealingUnavailable means the outbound codec or vault is not wired.
	ErrSealingUnavailable = errors.New("outbound sealing is not wired")
)

// sendCheckpoint captures the send side before an Encrypt so a failed
// outbound escrow can be undone. The registry's Restore cannot serve here:
// it deliberately keeps advanced send counters.
type sendCheckpoint struct {
	rootKey   []byte
	dhPriv    domain.X25519Private
	dhPub     domain.X25519Public
	sendCK    []byte
	ns        uint32
	sendTotal uint64
	pn        uint32
}

func takeSendCheckpoint(st *domain.RatchetState) sendCheckpoint {
	return sendCheckpoint{
		rootKey:   append([]byte(nil), st.RootKey...),
		dhPriv:    st.DHPriv,
		dhPub:     st.DHPub,
		sendCK:    append([]byte(nil), st.SendCK...),
		ns:        st.Ns,
		sendTotal: st.SendTotal,
		pn:        st.PN,
	}
}

func (c sendCheckpoint) restore(st *domain.RatchetState) {
	st.RootKey = c.rootKey
	st.DHPriv = c.dhPriv
	st.DHPub = c.dhPub
	st.SendCK = c.sendCK
	st.Ns = c.ns
	st.SendTotal = c.sendTotal
	st.PN = c.pn
}

// SealOutgoing advances the send chain by one message under the same
// state-access lock the incoming path uses, escrows the send key, and
// returns the wire envelope. The send chain only stands once its key is
// durably escrowed, mirroring the receive side.
func (s *Service) SealOutgoing(ctx context.Context, peer domain.PeerDevice, msgType string, plaintext []byte) (domain.Envelope, error) {
	if s.ratchet == nil || s.vault == nil || s.states == nil {
		return domain.Envelope{}, ErrSealingUnavailable
	}

	release, err := s.gate.AcquireState(ctx, peer)
	if err != nil {
		return domain.Envelope{}, err
	}
	defer release()

	st, err := s.states.Get(ctx, peer)
	if err != nil {
		return domain.Envelope{}, err
	}
	if st == nil || !st.Usable() {
		return domain.Envelope{}, fmt.Errorf("%w: %s", ErrNoSession, peer)
	}

	ckpt := takeSendCheckpoint(st)

	eres, err := s.ratchet.Encrypt(st, nil, plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}

	var sealed []byte
	if s.snapshots != nil {
		if sealed, err = s.snapshots.Seal(st); err != nil {
			ckpt.restore(st)
			return domain.Envelope{}, fmt.Errorf("seal snapshot: %w", err)
		}
	}

	msgID := domain.MessageID(uuid.NewString())
	rec := domain.EscrowRecord{
		ConversationID:    st.ConversationID,
		MessageID:         msgID,
		Counter:           eres.Counter,
		MessageKey:        eres.MessageKey,
		Direction:         domain.DirectionOut,
		MsgType:           msgType,
		EncryptedSnapshot: sealed,
	}
	if err := s.vault.EscrowPut(ctx, rec); err != nil {
		ckpt.restore(st)
		return domain.Envelope{}, fmt.Errorf("escrow outbound key: %w", err)
	}

	if s.snapshots != nil {
		if err := s.snapshots.Persist(ctx, peer, st); err != nil {
			s.log.Warnw("local snapshot persist failed", "peer", peer.String(), "err", err)
		}
	}

	return domain.Envelope{
		ConversationID: st.ConversationID,
		MessageID:      msgID,
		Sender:         s.self,
		Counter:        eres.Counter,
		Header:         eres.Header,
		Ciphertext:     eres.Ciphertext,
		MsgType:        msgType,
		Timestamp:      time.Now().Unix(),
	}, nil
}

// Compile-time assertion that Service implements domain.Sealer.
var _ domain.Sealer = (*Service)(nil)
