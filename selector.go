package noisechannel

import (
	"github.com/opd-ai/noisechannel/crypto"
	"github.com/sirupsen/logrus"
)

// dialOutbound drives the initiator side of a handshake, choosing IK
// when useNoisePipes is set and the cache holds remote's static key,
// otherwise XX; on IK failure it recovers once via XXfallback, reusing
// the ephemeral generated for the abandoned IK attempt.
func dialOutbound(fr *frameIO, local LocalIdentity, localStatic crypto.KeyPair, cache *StaticKeyCache, useNoisePipes bool, verifier IdentityVerifier, expectedRemote PeerID, log *logrus.Entry) (*handshakeResult, error) {
	if useNoisePipes && expectedRemote != "" {
		if cachedStatic, ok := cache.Get(expectedRemote); ok {
			result, fb, err := attemptIKInitiator(fr, local, localStatic, cachedStatic, verifier, expectedRemote)
			if err == nil {
				log.WithField("pattern", "IK").Debug("handshake completed")
				return result, nil
			}
			if fb == nil {
				return nil, err
			}
			log.WithError(err).Debug("IK attempt failed, recovering via XXfallback")

			result, err = runXXFallback(fr, local, localStatic, false, fb, verifier, expectedRemote)
			if err != nil {
				return nil, err
			}
			cache.Put(result.remoteIdentity.peerID, result.remoteStatic)
			log.WithField("pattern", "XXfallback").Debug("handshake completed")
			return result, nil
		}
	}

	result, err := runXXInitiator(fr, local, localStatic, verifier, expectedRemote)
	if err != nil {
		return nil, err
	}
	if useNoisePipes {
		cache.Put(result.remoteIdentity.peerID, result.remoteStatic)
	}
	log.WithField("pattern", "XX").Debug("handshake completed")
	return result, nil
}

// acceptInbound drives the responder side. With useNoisePipes it first
// attempts to read the incoming frame as an IK message 1; if decryption
// fails, it recovers via XXfallback using the initiator's ephemeral
// recovered from the raw frame bytes already consumed.
func acceptInbound(fr *frameIO, local LocalIdentity, localStatic crypto.KeyPair, cache *StaticKeyCache, useNoisePipes bool, verifier IdentityVerifier, expectedRemote PeerID, log *logrus.Entry) (*handshakeResult, error) {
	if useNoisePipes {
		result, fb, err := attemptIKResponder(fr, local, localStatic, verifier, expectedRemote)
		if err == nil {
			log.WithField("pattern", "IK").Debug("handshake completed")
			return result, nil
		}
		if fb == nil {
			return nil, err
		}
		log.WithError(err).Debug("IK attempt failed, recovering via XXfallback")

		result, err = runXXFallback(fr, local, localStatic, true, fb, verifier, expectedRemote)
		if err != nil {
			return nil, err
		}
		cache.Put(result.remoteIdentity.peerID, result.remoteStatic)
		log.WithField("pattern", "XXfallback").Debug("handshake completed")
		return result, nil
	}

	result, err := runXXResponder(fr, local, localStatic, verifier, expectedRemote)
	if err != nil {
		return nil, err
	}
	cache.Put(result.remoteIdentity.peerID, result.remoteStatic)
	log.WithField("pattern", "XX").Debug("handshake completed")
	return result, nil
}

func attemptIKInitiator(fr *frameIO, local LocalIdentity, localStatic crypto.KeyPair, remoteStatic [32]byte, verifier IdentityVerifier, expectedRemote PeerID) (*handshakeResult, *fallbackInfo, error) {
	ephemeral, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, nil, newErr("attemptIKInitiator", ProtocolViolation, err)
	}

	hs, err := newHandshakeState(handshakeConfig{
		pattern:        patternIK,
		initiator:      true,
		localStatic:    localStatic,
		localEphemeral: ephemeral,
		remoteStatic:   remoteStatic[:],
	})
	if err != nil {
		return nil, &fallbackInfo{ourEphemeral: ephemeral}, err
	}

	// Message 1 always carries a payload under IK (payloadCarried(patternIK, 0)).
	payloadBytes, err := buildPayload(local, localStatic.Public[:], nil)
	if err != nil {
		return nil, nil, err
	}
	out, _, _, err := hs.WriteMessage(payloadBytes)
	if err != nil {
		return nil, &fallbackInfo{ourEphemeral: ephemeral}, newErr("attemptIKInitiator", ProtocolViolation, err)
	}
	if err := fr.writeFrame(out); err != nil {
		return nil, &fallbackInfo{ourEphemeral: ephemeral}, err
	}

	raw, err := fr.readFrame()
	if err != nil {
		return nil, &fallbackInfo{ourEphemeral: ephemeral}, err
	}

	payload, cs1, cs2, err := hs.ReadMessage(raw)
	if err != nil {
		// raw is the responder's XXfallback message 0, not a valid IK
		// message 2 — hand it to the fallback attempt instead of
		// reading a second frame the responder will never send.
		return nil, &fallbackInfo{ourEphemeral: ephemeral, pendingFrame: raw}, newErr("attemptIKInitiator", Decrypt, err)
	}

	peerStatic := hs.PeerStatic()
	vi, err := parseAndVerifyPayload(verifier, payload, peerStatic)
	if err != nil {
		return nil, &fallbackInfo{ourEphemeral: ephemeral}, err
	}

	var remote [32]byte
	copy(remote[:], peerStatic)

	result, err := finishResult(true, cs1, cs2, vi, remote, expectedRemote)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

func attemptIKResponder(fr *frameIO, local LocalIdentity, localStatic crypto.KeyPair, verifier IdentityVerifier, expectedRemote PeerID) (*handshakeResult, *fallbackInfo, error) {
	raw, err := fr.readFrame()
	if err != nil {
		return nil, nil, err
	}

	hs, err := newHandshakeState(handshakeConfig{
		pattern:     patternIK,
		initiator:   false,
		localStatic: localStatic,
	})
	if err != nil {
		return nil, &fallbackInfo{firstFrame: raw}, err
	}

	payload, _, _, err := hs.ReadMessage(raw)
	if err != nil {
		return nil, &fallbackInfo{firstFrame: raw}, newErr("attemptIKResponder", Decrypt, err)
	}

	peerStatic := hs.PeerStatic()
	vi, err := parseAndVerifyPayload(verifier, payload, peerStatic)
	if err != nil {
		return nil, &fallbackInfo{firstFrame: raw}, err
	}

	var remoteStatic [32]byte
	copy(remoteStatic[:], peerStatic)

	// Message 2 always carries a payload under IK
	// (payloadCarried(patternIK, 1)).
	payloadBytes, err := buildPayload(local, localStatic.Public[:], nil)
	if err != nil {
		return nil, nil, err
	}
	out, cs1, cs2, err := hs.WriteMessage(payloadBytes)
	if err != nil {
		return nil, nil, newErr("attemptIKResponder", ProtocolViolation, err)
	}
	if err := fr.writeFrame(out); err != nil {
		return nil, nil, err
	}

	result, err := finishResult(false, cs1, cs2, vi, remoteStatic, expectedRemote)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

func runXXInitiator(fr *frameIO, local LocalIdentity, localStatic crypto.KeyPair, verifier IdentityVerifier, expectedRemote PeerID) (*handshakeResult, error) {
	hs, err := newHandshakeState(handshakeConfig{pattern: patternXX, initiator: true, localStatic: localStatic})
	if err != nil {
		return nil, err
	}
	return runPattern(fr, hs, patternXX, local, localStatic.Public[:], nil, verifier, expectedRemote, nil)
}

func runXXResponder(fr *frameIO, local LocalIdentity, localStatic crypto.KeyPair, verifier IdentityVerifier, expectedRemote PeerID) (*handshakeResult, error) {
	hs, err := newHandshakeState(handshakeConfig{pattern: patternXX, initiator: false, localStatic: localStatic})
	if err != nil {
		return nil, err
	}
	return runPattern(fr, hs, patternXX, local, localStatic.Public[:], nil, verifier, expectedRemote, nil)
}

// runXXFallback resumes a failed IK attempt as XXfallback. wasResponder
// indicates which side of the abandoned IK attempt the local process
// played. The literal XXfallback initiator is whichever side already
// sent 'e' — the original IK initiator — so wasResponder maps to the
// literal responder role here: that matches the Noise spec's XXfallback
// pattern ("-> e  <- e, ee, s, es  -> s, se"), where the party that
// already observed the initiator's raw ephemeral writes the first
// sub-handshake message.
func runXXFallback(fr *frameIO, local LocalIdentity, localStatic crypto.KeyPair, wasResponder bool, fb *fallbackInfo, verifier IdentityVerifier, expectedRemote PeerID) (*handshakeResult, error) {
	cfg := handshakeConfig{pattern: patternXXFallback, localStatic: localStatic, initiator: !wasResponder}

	var pendingFrame []byte
	if wasResponder {
		cfg.remoteEphemeral = fb.firstFrame[:32]
	} else {
		cfg.localEphemeral = fb.ourEphemeral
		// The bytes already read while failing to decrypt IK message 2
		// are the responder's XXfallback message 0; there is nothing
		// further on the wire to read until this handshake writes.
		pendingFrame = fb.pendingFrame
	}

	hs, err := newHandshakeState(cfg)
	if err != nil {
		return nil, err
	}
	return runPattern(fr, hs, patternXXFallback, local, localStatic.Public[:], nil, verifier, expectedRemote, pendingFrame)
}
