package noisechannel

import "github.com/opd-ai/noisechannel/crypto"

// handshakeConfig carries the inputs newHandshakeState needs to drive one
// of the three supported patterns. Not every field applies to every
// pattern; see newHandshakeState.
type handshakeConfig struct {
	pattern         patternKind
	initiator       bool
	localStatic     crypto.KeyPair
	localEphemeral  *crypto.KeyPair // set to force ephemeral reuse (XXfallback initiator)
	remoteStatic    []byte          // IK initiator: responder's cached static key
	remoteEphemeral []byte          // XXfallback responder: initiator's ephemeral from the abandoned IK attempt
}

// handshakeState is a from-scratch implementation of the Noise spec's
// HandshakeState object (§4.4): the running SymmetricState, the four DH
// keypairs (s, e, rs, re), and the pattern's remaining message token
// schedule. WriteMessage/ReadMessage process one message's tokens at a
// time, exactly mirroring each other's DH and transcript updates.
type handshakeState struct {
	ss        *symmetricState
	pattern   patternSpec
	initiator bool

	s  crypto.KeyPair
	e  crypto.KeyPair
	rs [32]byte
	re [32]byte

	hasE  bool
	hasRS bool
	hasRE bool

	msgIndex int
}

// newHandshakeState builds a handshakeState for one message schedule,
// mixing the fixed "/noise" prologue immediately after SymmetricState
// initialization and then any pattern pre-messages, per §4.4's Initialize
// algorithm.
func newHandshakeState(cfg handshakeConfig) (*handshakeState, error) {
	pattern := noisePattern(cfg.pattern)

	hs := &handshakeState{
		ss:        newSymmetricState(pattern.name),
		pattern:   pattern,
		initiator: cfg.initiator,
		s:         cfg.localStatic,
	}
	hs.ss.mixHash(prologue)

	if cfg.localEphemeral != nil {
		hs.e = *cfg.localEphemeral
		hs.hasE = true
	}
	if cfg.remoteStatic != nil {
		copy(hs.rs[:], cfg.remoteStatic)
		hs.hasRS = true
	}
	if cfg.remoteEphemeral != nil {
		copy(hs.re[:], cfg.remoteEphemeral)
		hs.hasRE = true
	}

	if err := hs.mixPreMessages(pattern.initiatorPreMessages, true); err != nil {
		return nil, err
	}
	if err := hs.mixPreMessages(pattern.responderPreMessages, false); err != nil {
		return nil, err
	}

	return hs, nil
}

// mixPreMessages mixes the pre-message tokens belonging to the role
// identified by forInitiatorRole: whichever side already owns that key
// (because it generated or was handed it ahead of time) mixes its own
// public key; the other side mixes the value supplied externally via
// handshakeConfig.
func (hs *handshakeState) mixPreMessages(tokens []token, forInitiatorRole bool) error {
	owner := forInitiatorRole == hs.initiator
	for _, tok := range tokens {
		switch tok {
		case tokenE:
			if owner {
				if err := hs.ensureLocalEphemeral(); err != nil {
					return err
				}
				hs.ss.mixHash(hs.e.Public[:])
			} else {
				if !hs.hasRE {
					return newErr("mixPreMessages", ProtocolViolation, nil)
				}
				hs.ss.mixHash(hs.re[:])
			}
		case tokenS:
			if owner {
				hs.ss.mixHash(hs.s.Public[:])
			} else {
				if !hs.hasRS {
					return newErr("mixPreMessages", ProtocolViolation, nil)
				}
				hs.ss.mixHash(hs.rs[:])
			}
		default:
			return newErr("mixPreMessages", ProtocolViolation, nil)
		}
	}
	return nil
}

func (hs *handshakeState) ensureLocalEphemeral() error {
	if hs.hasE {
		return nil
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return newErr("ensureLocalEphemeral", ProtocolViolation, err)
	}
	hs.e = *kp
	hs.hasE = true
	return nil
}

// mixDH performs one ee/es/se/ss token's Diffie-Hellman and mixes the
// result into the chaining key. Token letters are fixed relative to the
// pattern's literal initiator/responder roles — the first letter is
// always the initiator's key, the second the responder's — so which
// concrete keypair plays which role depends on hs.initiator, not on
// which side is currently writing or reading.
func (hs *handshakeState) mixDH(tok token) error {
	var priv, pub [32]byte
	switch tok {
	case tokenEE:
		priv, pub = hs.e.Private, hs.re
	case tokenES:
		if hs.initiator {
			priv, pub = hs.e.Private, hs.rs
		} else {
			priv, pub = hs.s.Private, hs.re
		}
	case tokenSE:
		if hs.initiator {
			priv, pub = hs.s.Private, hs.re
		} else {
			priv, pub = hs.e.Private, hs.rs
		}
	case tokenSS:
		priv, pub = hs.s.Private, hs.rs
	default:
		return newErr("mixDH", ProtocolViolation, nil)
	}
	shared, err := crypto.DH(priv, pub)
	if err != nil {
		return newErr("mixDH", ProtocolViolation, err)
	}
	return hs.ss.mixKey(shared[:])
}

// shouldWriteNext reports whether it is this handshakeState's turn to
// write the next message. Writer role alternates by message index,
// starting with the initiator unless the pattern says the responder
// writes first (XXfallback).
func (hs *handshakeState) shouldWriteNext() bool {
	writerIsInitiator := (hs.msgIndex%2 == 0) != hs.pattern.responderWritesFirst
	return writerIsInitiator == hs.initiator
}

// WriteMessage produces the next handshake message: it emits each
// token's bytes or performs its DH in order, then encrypts payload under
// the running transcript hash. Once the pattern's final message has been
// written it returns the split CipherState pair for the post-handshake
// transport.
func (hs *handshakeState) WriteMessage(payload []byte) ([]byte, *cipherState, *cipherState, error) {
	if hs.msgIndex >= len(hs.pattern.messages) {
		return nil, nil, nil, newErr("WriteMessage", ProtocolViolation, nil)
	}

	var out []byte
	for _, tok := range hs.pattern.messages[hs.msgIndex] {
		switch tok {
		case tokenE:
			if err := hs.ensureLocalEphemeral(); err != nil {
				return nil, nil, nil, err
			}
			out = append(out, hs.e.Public[:]...)
			hs.ss.mixHash(hs.e.Public[:])
		case tokenS:
			ciphertext, err := hs.ss.encryptAndHash(hs.s.Public[:])
			if err != nil {
				return nil, nil, nil, err
			}
			out = append(out, ciphertext...)
		default:
			if err := hs.mixDH(tok); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	payloadCiphertext, err := hs.ss.encryptAndHash(payload)
	if err != nil {
		return nil, nil, nil, err
	}
	out = append(out, payloadCiphertext...)

	hs.msgIndex++
	if hs.msgIndex == len(hs.pattern.messages) {
		cs1, cs2, err := hs.ss.split()
		if err != nil {
			return nil, nil, nil, err
		}
		return out, cs1, cs2, nil
	}
	return out, nil, nil, nil
}

// ReadMessage consumes the peer's next handshake message in lockstep
// with WriteMessage, returning the decrypted payload.
func (hs *handshakeState) ReadMessage(message []byte) ([]byte, *cipherState, *cipherState, error) {
	if hs.msgIndex >= len(hs.pattern.messages) {
		return nil, nil, nil, newErr("ReadMessage", ProtocolViolation, nil)
	}

	pos := 0
	for _, tok := range hs.pattern.messages[hs.msgIndex] {
		switch tok {
		case tokenE:
			if len(message) < pos+32 {
				return nil, nil, nil, newErr("ReadMessage", MalformedMessage, nil)
			}
			copy(hs.re[:], message[pos:pos+32])
			hs.hasRE = true
			pos += 32
			hs.ss.mixHash(hs.re[:])
		case tokenS:
			n := 32
			if hs.ss.cs.hasKey {
				n += 16
			}
			if len(message) < pos+n {
				return nil, nil, nil, newErr("ReadMessage", MalformedMessage, nil)
			}
			plaintext, err := hs.ss.decryptAndHash(message[pos : pos+n])
			if err != nil {
				return nil, nil, nil, err
			}
			copy(hs.rs[:], plaintext)
			hs.hasRS = true
			pos += n
		default:
			if err := hs.mixDH(tok); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	payload, err := hs.ss.decryptAndHash(message[pos:])
	if err != nil {
		return nil, nil, nil, err
	}

	hs.msgIndex++
	if hs.msgIndex == len(hs.pattern.messages) {
		cs1, cs2, err := hs.ss.split()
		if err != nil {
			return nil, nil, nil, err
		}
		return payload, cs1, cs2, nil
	}
	return payload, nil, nil, nil
}

// PeerStatic returns the peer's Noise static public key, once learned
// either as a pre-message or within the message schedule.
func (hs *handshakeState) PeerStatic() []byte {
	if !hs.hasRS {
		return nil
	}
	out := make([]byte, 32)
	copy(out, hs.rs[:])
	return out
}

// payloadCarried reports whether message index msgIndex (0-based, within
// a pattern's message schedule) carries the authenticated
// HandshakePayload, per §4.6's per-pattern attachment rules.
func payloadCarried(pattern patternKind, msgIndex int) bool {
	switch pattern {
	case patternXX:
		// Message 1 (initiator's bare ephemeral) carries no payload, so
		// the pattern selector can read the raw ephemeral from it.
		return msgIndex != 0
	case patternIK, patternXXFallback:
		return true
	default:
		return false
	}
}
