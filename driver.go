package noisechannel

import "github.com/opd-ai/noisechannel/crypto"

// handshakeResult is what a successfully finished pattern run produces:
// the split CipherState pair and the peer's authenticated identity and
// Noise static public key.
type handshakeResult struct {
	send, recv     *cipherState
	remoteIdentity *verifiedIdentity
	remoteStatic   [32]byte
}

// fallbackInfo is the explicit result variant the IK driver returns
// instead of raising an exception the selector would have to inspect:
// on IK failure it carries the bytes needed to resume as XXfallback.
type fallbackInfo struct {
	// ourEphemeral is the initiator's ephemeral keypair from the
	// abandoned IK attempt, reused rather than regenerated.
	ourEphemeral *crypto.KeyPair
	// firstFrame is the raw first handshake frame, as observed by the
	// responder before it could be decrypted under IK.
	firstFrame []byte
	// pendingFrame is the raw second handshake frame, as observed by the
	// initiator before it could be decrypted as IK message 2. By the time
	// that read fails, the responder has already turned those same wire
	// bytes into its XXfallback message 0 — there is no second frame to
	// read, so runXXFallback must feed pendingFrame straight into the new
	// handshakeState instead of calling frameIO.readFrame again.
	pendingFrame []byte
}

// runPattern drives an already-constructed handshakeState through its
// full message schedule over fr (propose each local message, exchange
// with the peer's, finish by returning the split result), attaching the
// HandshakePayload on the messages payloadCarried marks and verifying
// the peer's payload on receipt. Which side writes next at each step is
// hs's own business (see handshakeState.shouldWriteNext) — XXfallback's
// responder-writes-first schedule needs no special casing here.
//
// pendingFrame, if non-nil, is consumed as the very first read instead
// of calling fr.readFrame: the XXfallback initiator recovery path
// already has the responder's first message in hand (it was read and
// failed to decrypt as IK message 2), and the wire has nothing further
// to offer until this handshake writes its own first message.
func runPattern(
	fr *frameIO,
	hs *handshakeState,
	pattern patternKind,
	local LocalIdentity,
	localStaticPublic []byte,
	ext *Extensions,
	verifier IdentityVerifier,
	expectedRemote PeerID,
	pendingFrame []byte,
) (*handshakeResult, error) {
	count := len(hs.pattern.messages)

	var remoteIdentity *verifiedIdentity
	var remoteStatic [32]byte

	for i := 0; i < count; i++ {
		if hs.shouldWriteNext() {
			var payloadBytes []byte
			if payloadCarried(pattern, i) {
				pb, err := buildPayload(local, localStaticPublic, ext)
				if err != nil {
					return nil, err
				}
				payloadBytes = pb
			}

			out, cs1, cs2, err := hs.WriteMessage(payloadBytes)
			if err != nil {
				return nil, newErr("runPattern", ProtocolViolation, err)
			}
			if err := fr.writeFrame(out); err != nil {
				return nil, err
			}
			if cs1 != nil {
				return finishResult(hs.initiator, cs1, cs2, remoteIdentity, remoteStatic, expectedRemote)
			}
		} else {
			var raw []byte
			if pendingFrame != nil {
				raw = pendingFrame
				pendingFrame = nil
			} else {
				var err error
				raw, err = fr.readFrame()
				if err != nil {
					return nil, err
				}
			}

			payload, cs1, cs2, err := hs.ReadMessage(raw)
			if err != nil {
				return nil, newErr("runPattern", Decrypt, err)
			}
			if payloadCarried(pattern, i) {
				peerStatic := hs.PeerStatic()
				vi, err := parseAndVerifyPayload(verifier, payload, peerStatic)
				if err != nil {
					return nil, err
				}
				remoteIdentity = vi
				copy(remoteStatic[:], peerStatic)
			}
			if cs1 != nil {
				return finishResult(hs.initiator, cs1, cs2, remoteIdentity, remoteStatic, expectedRemote)
			}
		}
	}

	return nil, newErr("runPattern", ProtocolViolation, nil)
}

// finishResult assigns the split CipherState pair to send/recv: by
// Noise convention cs1 is the initiator's send key (the responder's
// receive key) and cs2 the reverse, independent of which side wrote the
// final message.
func finishResult(initiator bool, cs1, cs2 *cipherState, remoteIdentity *verifiedIdentity, remoteStatic [32]byte, expectedRemote PeerID) (*handshakeResult, error) {
	if remoteIdentity == nil {
		return nil, newErr("runPattern", ProtocolViolation, nil)
	}
	if expectedRemote != "" && expectedRemote != remoteIdentity.peerID {
		return nil, newErr("runPattern", PeerMismatch, nil)
	}

	var send, recv *cipherState
	if initiator {
		send, recv = cs1, cs2
	} else {
		send, recv = cs2, cs1
	}

	return &handshakeResult{
		send:           send,
		recv:           recv,
		remoteIdentity: remoteIdentity,
		remoteStatic:   remoteStatic,
	}, nil
}
