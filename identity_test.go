package noisechannel

import (
	"testing"

	"github.com/opd-ai/noisechannel/crypto"
)

func TestSignAndVerifyStaticKey(t *testing.T) {
	identity, err := crypto.NewEd25519Identity()
	if err != nil {
		t.Fatalf("NewEd25519Identity: %v", err)
	}

	staticPublic := make([]byte, 32)
	for i := range staticPublic {
		staticPublic[i] = byte(i)
	}

	sig, err := signStaticKey(identity, staticPublic)
	if err != nil {
		t.Fatalf("signStaticKey: %v", err)
	}

	verifier := crypto.Ed25519Verifier{}
	ok, err := verifyStaticKey(verifier, identity.Bytes(), staticPublic, sig)
	if err != nil {
		t.Fatalf("verifyStaticKey: %v", err)
	}
	if !ok {
		t.Fatalf("expected signature to verify")
	}

	staticPublic[0] ^= 0xFF
	ok, err = verifyStaticKey(verifier, identity.Bytes(), staticPublic, sig)
	if err != nil {
		t.Fatalf("verifyStaticKey on tampered key: %v", err)
	}
	if ok {
		t.Fatalf("expected signature verification to fail on tampered static key")
	}
}
