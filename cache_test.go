package noisechannel

import "testing"

func TestStaticKeyCacheGetPutReset(t *testing.T) {
	c := NewStaticKeyCache()

	if _, ok := c.Get("peer-a"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	var key [32]byte
	key[0] = 0x42
	c.Put("peer-a", key)

	got, ok := c.Get("peer-a")
	if !ok {
		t.Fatalf("expected hit after Put")
	}
	if got != key {
		t.Fatalf("got %x want %x", got, key)
	}

	c.Reset()
	if _, ok := c.Get("peer-a"); ok {
		t.Fatalf("expected miss after Reset")
	}
}
