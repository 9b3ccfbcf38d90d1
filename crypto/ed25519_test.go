package crypto

import "testing"

func TestEd25519IdentitySignAndVerify(t *testing.T) {
	identity, err := NewEd25519Identity()
	if err != nil {
		t.Fatalf("NewEd25519Identity: %v", err)
	}

	msg := []byte("noise-libp2p-static-key:" + "fake-static-pub")
	sig, err := identity.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	verifier := Ed25519Verifier{}
	ok, err := verifier.Verify(identity.Bytes(), msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}

	ok, err = verifier.Verify(identity.Bytes(), []byte("tampered message"), sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("expected verification to fail for tampered message")
	}
}

func TestEd25519IdentityIDIsStableForSameKey(t *testing.T) {
	identity, err := NewEd25519Identity()
	if err != nil {
		t.Fatalf("NewEd25519Identity: %v", err)
	}
	if identity.ID() != identity.ID() {
		t.Fatalf("expected ID() to be stable")
	}
	if identity.ID() != string(identity.Bytes()) {
		t.Fatalf("expected ID() to derive from public key bytes")
	}
}
