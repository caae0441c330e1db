package ratchet

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/crypto"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/util/memzero"
)

const (
	aeadKeySize = 32
	nonceSize   = chacha20poly1305.NonceSize

	// DefaultMaxSkipped bounds the skipped-key cache per session. The
	// retention window is policy, see app.Config.MaxSkippedKeys.
	DefaultMaxSkipped = 512
)

var (
	// ErrChainUninitialised means the required chain key has never been
	// seeded for this direction.
	ErrChainUninitialised = errors.New("ratchet chain key is uninitialised")

	// ErrStateUnusable means the state lacks a root key or ratchet pair.
	ErrStateUnusable = errors.New("ratchet state is not usable")
)

// Codec derives message keys from ratchet state. It implements
// domain.Decryptor; every mutation it makes must happen under the caller's
// state-access lock, with a snapshot taken first.
type Codec struct {
	maxSkipped int
}

// NewCodec returns a Codec whose skipped-key cache is capped at maxSkipped
// entries per session. Zero or negative selects DefaultMaxSkipped.
func NewCodec(maxSkipped int) *Codec {
	if maxSkipped <= 0 {
		maxSkipped = DefaultMaxSkipped
	}
	return &Codec{maxSkipped: maxSkipped}
}

// Compile-time assertion that Codec implements domain.Decryptor.
var _ domain.Decryptor = (*Codec)(nil)

// InitAsInitiator seeds the sending chain from root using a fresh ratchet
// key and the peer identity pub.
func InitAsInitiator(conv domain.ConversationID, root []byte, peerIdentity domain.X25519Public) (domain.RatchetState, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.RatchetState{}, err
	}
	dh, err := crypto.DH(priv, peerIdentity)
	if err != nil {
		return domain.RatchetState{}, err
	}
	newRK, sendCK := kdfRK(root, dh[:])
	memzero.Zero(dh[:])

	return domain.RatchetState{
		ConversationID: conv,
		Role:           domain.RoleInitiator,
		RootKey:        newRK,
		DHPriv:         priv,
		DHPub:          pub,
		PeerDHPub:      peerIdentity, // placeholder until first remote ratchet pub arrives
		SendCK:         sendCK,
		Skipped:        make(map[string][]byte),
	}, nil
}

// InitAsResponder seeds the receiving chain from root using our identity
// priv and the sender's current ratchet pub.
func InitAsResponder(conv domain.ConversationID, root []byte, ourIDPriv domain.X25519Private, senderRatchetPub domain.X25519Public) (domain.RatchetState, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.RatchetState{}, err
	}
	dh, err := crypto.DH(ourIDPriv, senderRatchetPub)
	if err != nil {
		return domain.RatchetState{}, err
	}
	newRK, recvCK := kdfRK(root, dh[:])
	memzero.Zero(dh[:])

	return domain.RatchetState{
		ConversationID: conv,
		Role:           domain.RoleResponder,
		RootKey:        newRK,
		DHPriv:         priv,
		DHPub:          pub,
		PeerDHPub:      senderRatchetPub,
		RecvCK:         recvCK,
		Skipped:        make(map[string][]byte),
	}, nil
}

// EncryptResult is the outbound counterpart of domain.DecryptResult. The
// message key comes back to the caller so the send direction can be
// escrowed the same way the receive direction is.
type EncryptResult struct {
	Header     domain.RatchetHeader
	Counter    uint64
	Ciphertext []byte
	MessageKey []byte
}

// Encrypt advances the sending chain by one message, auto-stepping the DH
// ratchet on the first send after responding.
func (c *Codec) Encrypt(st *domain.RatchetState, ad, plaintext []byte) (EncryptResult, error) {
	if !st.Usable() {
		return EncryptResult{}, ErrStateUnusable
	}

	// Responder's first send: perform a DH ratchet step to seed SendCK.
	if len(st.SendCK) == 0 {
		st.PN = st.Ns
		st.Ns = 0

		newPriv, newPub, err := crypto.GenerateX25519()
		if err != nil {
			return EncryptResult{}, err
		}
		dh, err := crypto.DH(newPriv, st.PeerDHPub)
		if err != nil {
			return EncryptResult{}, err
		}
		rk2, sendCK := kdfRK(st.RootKey, dh[:])
		memzero.Zero(dh[:])

		st.RootKey = rk2
		st.DHPriv, st.DHPub = newPriv, newPub
		st.SendCK = sendCK
	}

	mk, err := kdfCKSend(st)
	if err != nil {
		return EncryptResult{}, err
	}
	h := domain.RatchetHeader{DHPub: st.DHPub.Slice(), PN: st.PN, N: st.Ns}

	ct, err := seal(mk, h, ad, plaintext)
	if err != nil {
		memzero.Zero(mk)
		return EncryptResult{}, err
	}
	st.Ns++
	st.SendTotal++
	return EncryptResult{Header: h, Counter: st.SendTotal, Ciphertext: ct, MessageKey: mk}, nil
}

// Decrypt handles skipped keys, does a DH ratchet step on new remote pubs,
// then opens the message. The derived message key and any skipped keys are
// returned to the caller; nothing is persisted here.
func (c *Codec) Decrypt(st *domain.RatchetState, header domain.RatchetHeader, ad, ciphertext []byte) (domain.DecryptResult, error) {
	if !st.Usable() {
		return domain.DecryptResult{}, ErrStateUnusable
	}
	if st.Skipped == nil {
		st.Skipped = make(map[string][]byte)
	}

	// A cached skipped key, keyed by the header's ratchet pub: a late
	// arrival from the current or an earlier chain. The chains themselves
	// stay where they are.
	var hdrPub domain.X25519Public
	copy(hdrPub[:], header.DHPub)
	if keyID := skippedKeyID(hdrPub, header.N); st.Skipped[keyID] != nil {
		mk := st.Skipped[keyID]
		pt, err := open(mk, header, ad, ciphertext)
		if err != nil {
			return domain.DecryptResult{}, err
		}
		delete(st.Skipped, keyID)
		st.RecvTotal++
		return domain.DecryptResult{Plaintext: pt, MessageKey: mk}, nil
	}

	var skipped []domain.SkippedKeyRecord

	// New DH pub: close out the old receiving chain, then advance both
	// chains through a fresh ratchet pair.
	if !equal32(st.PeerDHPub[:], header.DHPub) {
		skipped = append(skipped, c.skipUntil(st, header.PN)...)
		// The peer closed the previous chain at PN messages; counters in
		// the new chain continue from there.
		st.RecvBase += uint64(header.PN)

		var newPeer domain.X25519Public
		copy(newPeer[:], header.DHPub)

		dh, err := crypto.DH(st.DHPriv, newPeer)
		if err != nil {
			return domain.DecryptResult{}, err
		}
		rk2, recvCK := kdfRK(st.RootKey, dh[:])
		memzero.Zero(dh[:])

		newPriv, newPub, err := crypto.GenerateX25519()
		if err != nil {
			return domain.DecryptResult{}, err
		}
		dh2, err := crypto.DH(newPriv, newPeer)
		if err != nil {
			return domain.DecryptResult{}, err
		}
		rk3, sendCK := kdfRK(rk2, dh2[:])
		memzero.Zero(dh2[:])

		st.PN = st.Ns
		st.Ns, st.Nr = 0, 0
		st.RootKey = rk3
		st.DHPriv, st.DHPub = newPriv, newPub
		st.PeerDHPub = newPeer
		st.SendCK, st.RecvCK = sendCK, recvCK
	}

	skipped = append(skipped, c.skipUntil(st, header.N)...)

	mk, err := kdfCKRecv(st)
	if err != nil {
		return domain.DecryptResult{}, err
	}
	pt, err := open(mk, header, ad, ciphertext)
	if err != nil {
		memzero.Zero(mk)
		return domain.DecryptResult{}, err
	}
	st.Nr++
	st.RecvTotal++
	return domain.DecryptResult{Plaintext: pt, MessageKey: mk, Skipped: skipped}, nil
}

// --- helpers ---

func seal(mk []byte, header domain.RatchetHeader, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk[:aeadKeySize])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	binary.BigEndian.PutUint32(nonce[nonceSize-4:], header.N)
	return aead.Seal(nil, nonce, plaintext, append(ad, headerBytes(header)...)), nil
}

func open(mk []byte, header domain.RatchetHeader, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk[:aeadKeySize])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceSize)
	binary.BigEndian.PutUint32(nonce[nonceSize-4:], header.N)
	return aead.Open(nil, nonce, ciphertext, append(ad, headerBytes(header)...))
}

func headerBytes(h domain.RatchetHeader) []byte {
	out := make([]byte, 0, len(h.DHPub)+8)
	out = append(out, h.DHPub...)
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], h.PN)
	out = append(out, b[:]...)
	binary.BigEndian.PutUint32(b[:], h.N)
	out = append(out, b[:]...)
	return out
}

// HKDF-based KDFs with labels.
func kdfRK(rk, dh []byte) (newRK, ck []byte) {
	r := hkdf.New(sha256.New, dh, rk, []byte("DR|rk"))
	newRK = make([]byte, 32)
	ck = make([]byte, 32)
	_, _ = io.ReadFull(r, newRK)
	_, _ = io.ReadFull(r, ck)
	return
}

func kdfCK(ck []byte) (nextCK, mk []byte) {
	r := hkdf.New(sha256.New, ck, nil, []byte("DR|ck"))
	nextCK = make([]byte, 32)
	mk = make([]byte, 32)
	_, _ = io.ReadFull(r, nextCK)
	_, _ = io.ReadFull(r, mk)
	return
}

func kdfCKSend(st *domain.RatchetState) ([]byte, error) {
	if len(st.SendCK) == 0 {
		return nil, ErrChainUninitialised
	}
	nextCK, mk := kdfCK(st.SendCK)
	st.SendCK = nextCK
	return mk, nil
}

func kdfCKRecv(st *domain.RatchetState) ([]byte, error) {
	if len(st.RecvCK) == 0 {
		return nil, ErrChainUninitialised
	}
	nextCK, mk := kdfCK(st.RecvCK)
	st.RecvCK = nextCK
	return mk, nil
}

func skippedKeyID(peer domain.X25519Public, n uint32) string {
	b := make([]byte, 32+4)
	copy(b, peer[:])
	binary.BigEndian.PutUint32(b[32:], n)
	return string(b)
}

// skipUntil derives and caches message keys up to chain index n, returning
// a record per skipped counter so the committer can escrow them. The cache
// is capped; an arbitrary entry is evicted once it is full.
func (c *Codec) skipUntil(st *domain.RatchetState, n uint32) []domain.SkippedKeyRecord {
	if len(st.RecvCK) == 0 {
		return nil
	}
	var records []domain.SkippedKeyRecord
	for st.Nr < n {
		mk, err := kdfCKRecv(st)
		if err != nil {
			break
		}
		if len(st.Skipped) >= c.maxSkipped {
			for k := range st.Skipped {
				delete(st.Skipped, k)
				break
			}
		}
		st.Skipped[skippedKeyID(st.PeerDHPub, st.Nr)] = mk
		records = append(records, domain.SkippedKeyRecord{
			Counter:    st.RecvBase + uint64(st.Nr) + 1,
			MessageKey: mk,
		})
		st.Nr++
	}
	return records
}

func equal32(a, b []byte) bool {
	if len(a) != 32 || len(b) != 32 {
		return false
	}
	var v byte
	for i := 0; i < 32; i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
