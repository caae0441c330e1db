package x3dh_test

import (
	"bytes"
	"testing"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/crypto"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/protocol/x3dh"
)

func mustKey(t *testing.T) (domain.X25519Private, domain.X25519Public) {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	return priv, pub
}

func TestHandshake_BothSidesDeriveSameRoot(t *testing.T) {
	aIDPriv, aIDPub := mustKey(t)
	aEphPriv, aEphPub := mustKey(t)
	bIDPriv, bIDPub := mustKey(t)
	bSPKPriv, bSPKPub := mustKey(t)
	bOPKPriv, bOPKPub := mustKey(t)

	initRoot, err := x3dh.InitiatorRoot(aIDPriv, aEphPriv, bIDPub, bSPKPub, &bOPKPub)
	if err != nil {
		t.Fatalf("InitiatorRoot: %v", err)
	}

	bundle := domain.HandshakeBundle{
		InitiatorIK: aIDPub,
		Ephemeral:   aEphPub,
	}
	respRoot, err := x3dh.ResponderRoot(bIDPriv, bSPKPriv, &bOPKPriv, bundle)
	if err != nil {
		t.Fatalf("ResponderRoot: %v", err)
	}

	if !bytes.Equal(initRoot, respRoot) {
		t.Fatalf("root keys differ:\n init %x\n resp %x", initRoot, respRoot)
	}
	if len(initRoot) != 32 {
		t.Fatalf("root key length = %d, want 32", len(initRoot))
	}
}

func TestHandshake_NoOneTimePreKey(t *testing.T) {
	aIDPriv, aIDPub := mustKey(t)
	aEphPriv, aEphPub := mustKey(t)
	bIDPriv, bIDPub := mustKey(t)
	bSPKPriv, bSPKPub := mustKey(t)

	initRoot, err := x3dh.InitiatorRoot(aIDPriv, aEphPriv, bIDPub, bSPKPub, nil)
	if err != nil {
		t.Fatalf("InitiatorRoot: %v", err)
	}
	respRoot, err := x3dh.ResponderRoot(bIDPriv, bSPKPriv, nil, domain.HandshakeBundle{
		InitiatorIK: aIDPub,
		Ephemeral:   aEphPub,
	})
	if err != nil {
		t.Fatalf("ResponderRoot: %v", err)
	}
	if !bytes.Equal(initRoot, respRoot) {
		t.Fatalf("root keys differ without OPK")
	}
}

func TestHandshake_OPKMismatchChangesRoot(t *testing.T) {
	aIDPriv, aIDPub := mustKey(t)
	aEphPriv, aEphPub := mustKey(t)
	bIDPriv, bIDPub := mustKey(t)
	bSPKPriv, bSPKPub := mustKey(t)
	_, bOPKPub := mustKey(t)

	withOPK, err := x3dh.InitiatorRoot(aIDPriv, aEphPriv, bIDPub, bSPKPub, &bOPKPub)
	if err != nil {
		t.Fatalf("InitiatorRoot: %v", err)
	}
	// Responder that lost the one-time prekey must not land on the same root.
	withoutOPK, err := x3dh.ResponderRoot(bIDPriv, bSPKPriv, nil, domain.HandshakeBundle{
		InitiatorIK: aIDPub,
		Ephemeral:   aEphPub,
	})
	if err != nil {
		t.Fatalf("ResponderRoot: %v", err)
	}
	if bytes.Equal(withOPK, withoutOPK) {
		t.Fatalf("roots should differ when only one side mixes in the OPK")
	}
}
