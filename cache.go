package noisechannel

import "sync"

// StaticKeyCache is a process-wide, best-effort mapping from a peer's
// long-term identity to its Noise static public key, populated on
// successful XX completion and consulted by the pattern selector to
// attempt IK. It has no TTL and no size bound, is not persisted, and is
// safe for concurrent use; the cache is not on any hot path, so a basic
// mutual-exclusion discipline suffices.
//
// StaticKeyCache is an injected collaborator rather than a package
// singleton: each Protocol owns one, created alongside it and cleared on
// Reset.
type StaticKeyCache struct {
	mu sync.RWMutex
	m  map[PeerID][32]byte
}

// NewStaticKeyCache returns an empty cache.
func NewStaticKeyCache() *StaticKeyCache {
	return &StaticKeyCache{m: make(map[PeerID][32]byte)}
}

// Get returns the cached Noise static public key for peer, if any.
func (c *StaticKeyCache) Get(peer PeerID) ([32]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.m[peer]
	return key, ok
}

// Put records staticKey as peer's Noise static public key, overwriting
// any previous entry.
func (c *StaticKeyCache) Put(peer PeerID, staticKey [32]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[peer] = staticKey
}

// Reset clears every cached entry.
func (c *StaticKeyCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[PeerID][32]byte)
}
