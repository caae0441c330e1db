package x3dh

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/crypto"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/util/memzero"
)

const kdfInfo = "sentry-x3dh"

// InitiatorRoot derives the shared root key on the initiating side.
func InitiatorRoot(
	ourIDPriv domain.X25519Private,
	ourEphPriv domain.X25519Private,
	peerIDPub domain.X25519Public,
	peerSPK domain.X25519Public,
	peerOPK *domain.X25519Public,
) ([]byte, error) {
	dh1, err := crypto.DH(ourIDPriv, peerSPK) // DH(IKA, SPKB)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(ourEphPriv, peerIDPub) // DH(EKA, IKB)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(ourEphPriv, peerSPK) // DH(EKA, SPKB)
	if err != nil {
		return nil, err
	}

	dhConcat := make([]byte, 0, 32*4)
	dhConcat = append(dhConcat, dh1[:]...)
	dhConcat = append(dhConcat, dh2[:]...)
	dhConcat = append(dhConcat, dh3[:]...)

	if peerOPK != nil {
		dh4, err := crypto.DH(ourEphPriv, *peerOPK) // DH(EKA, OPKB)
		if err != nil {
			return nil, err
		}
		dhConcat = append(dhConcat, dh4[:]...)
	}

	root := hkdfSHA256(dhConcat, nil, []byte(kdfInfo), 32)
	memzero.Zero(dhConcat)
	return root, nil
}

// ResponderRoot derives the same root key on the receiving side from the
// sender's handshake bundle and our stored prekey halves.
func ResponderRoot(
	ourIDPriv domain.X25519Private,
	ourSPKPriv domain.X25519Private,
	ourOPKPriv *domain.X25519Private,
	bundle domain.HandshakeBundle,
) ([]byte, error) {
	dh1, err := crypto.DH(ourSPKPriv, bundle.InitiatorIK) // DH(SPKB, IKA)
	if err != nil {
		return nil, err
	}
	dh2, err := crypto.DH(ourIDPriv, bundle.Ephemeral) // DH(IKB, EKA)
	if err != nil {
		return nil, err
	}
	dh3, err := crypto.DH(ourSPKPriv, bundle.Ephemeral) // DH(SPKB, EKA)
	if err != nil {
		return nil, err
	}

	dhConcat := make([]byte, 0, 32*4)
	dhConcat = append(dhConcat, dh1[:]...)
	dhConcat = append(dhConcat, dh2[:]...)
	dhConcat = append(dhConcat, dh3[:]...)

	if ourOPKPriv != nil {
		dh4, err := crypto.DH(*ourOPKPriv, bundle.Ephemeral) // DH(OPKB, EKA)
		if err != nil {
			return nil, err
		}
		dhConcat = append(dhConcat, dh4[:]...)
	}

	root := hkdfSHA256(dhConcat, nil, []byte(kdfInfo), 32)
	memzero.Zero(dhConcat)
	return root, nil
}

// hkdfSHA256 implements HKDF (RFC 5869) with SHA-256.
func hkdfSHA256(ikm, salt, info []byte, outLen int) []byte {
	if salt == nil {
		salt = make([]byte, sha256.Size)
	}
	prk := hmacSum(salt, ikm)
	var (
		t   []byte
		okm []byte
		cnt byte = 1
	)
	for len(okm) < outLen {
		h := hmac.New(sha256.New, prk)
		h.Write(t)
		h.Write(info)
		h.Write([]byte{cnt})
		t = h.Sum(nil)
		okm = append(okm, t...)
		cnt++
	}
	return okm[:outLen]
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
