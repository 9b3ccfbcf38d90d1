package crypto

import "testing"

func TestGenerateKeyPairProducesDistinctKeys(t *testing.T) {
	a, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	b, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if a.Private == b.Private {
		t.Fatalf("expected distinct private keys across calls")
	}
}

func TestFromSecretKeyDerivesConsistentPublic(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	derived, err := FromSecretKey(kp.Private)
	if err != nil {
		t.Fatalf("FromSecretKey: %v", err)
	}
	if derived.Public != kp.Public {
		t.Fatalf("derived public key mismatch: got %x want %x", derived.Public, kp.Public)
	}
}

func TestFromSecretKeyRejectsZeroKey(t *testing.T) {
	var zero [32]byte
	if _, err := FromSecretKey(zero); err == nil {
		t.Fatalf("expected error for all-zero secret key")
	}
}

func TestWipeKeyPairZeroesPrivate(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if err := WipeKeyPair(kp); err != nil {
		t.Fatalf("WipeKeyPair: %v", err)
	}
	var zero [32]byte
	if kp.Private != zero {
		t.Fatalf("expected private key to be zeroed")
	}
}
