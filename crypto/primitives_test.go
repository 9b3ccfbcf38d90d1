package crypto

import (
	"bytes"
	"testing"
)

func TestAEADEncryptDecryptRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}

	plaintext := []byte("noise transport record")
	ad := []byte("associated-data")

	ciphertext, err := AEADEncrypt(key, 0, ad, plaintext)
	if err != nil {
		t.Fatalf("AEADEncrypt: %v", err)
	}

	got, err := AEADDecrypt(key, 0, ad, ciphertext)
	if err != nil {
		t.Fatalf("AEADDecrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("got %q want %q", got, plaintext)
	}
}

func TestAEADDecryptFailsOnTamperedCiphertext(t *testing.T) {
	var key [32]byte
	ciphertext, err := AEADEncrypt(key, 1, nil, []byte("hello"))
	if err != nil {
		t.Fatalf("AEADEncrypt: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF

	if _, err := AEADDecrypt(key, 1, nil, ciphertext); err == nil {
		t.Fatalf("expected decrypt failure on tampered ciphertext")
	}
}

func TestAEADDecryptFailsOnWrongNonce(t *testing.T) {
	var key [32]byte
	ciphertext, err := AEADEncrypt(key, 5, nil, []byte("hello"))
	if err != nil {
		t.Fatalf("AEADEncrypt: %v", err)
	}
	if _, err := AEADDecrypt(key, 6, nil, ciphertext); err == nil {
		t.Fatalf("expected decrypt failure on mismatched nonce counter")
	}
}

func TestHKDFExpandDeterministic(t *testing.T) {
	var ck [32]byte
	ck[0] = 1

	out1, err := HKDFExpand(ck, []byte("input"), 2)
	if err != nil {
		t.Fatalf("HKDFExpand: %v", err)
	}
	out2, err := HKDFExpand(ck, []byte("input"), 2)
	if err != nil {
		t.Fatalf("HKDFExpand: %v", err)
	}
	if out1 != out2 {
		t.Fatalf("HKDFExpand is not deterministic")
	}
	if out1[0] == out1[1] {
		t.Fatalf("expected distinct outputs for n=2")
	}
}

func TestDHMatchesAcrossKeypairs(t *testing.T) {
	alice, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	bob, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	shared1, err := DH(alice.Private, bob.Public)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	shared2, err := DH(bob.Private, alice.Public)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	if shared1 != shared2 {
		t.Fatalf("DH shared secrets do not match")
	}
}
