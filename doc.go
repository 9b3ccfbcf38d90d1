// Package noisechannel implements the core of a secure-channel
// establishment layer for a peer-to-peer networking stack: the Noise
// Protocol Framework (Noise_XX_25519_ChaChaPoly_SHA256, with an
// IK-first "Noise pipes" optimization and XXfallback recovery) over
// arbitrary bidirectional byte-oriented transports. It authenticates a
// pair of peers by their long-term identity keys, negotiates
// forward-secret symmetric session keys, and exposes a duplex stream
// whose payloads are transparently encrypted and length-framed.
//
// Generating and marshalling peer identity keys, the underlying
// transport duplex, the metrics sink, and logging are all external
// collaborators; see [LocalIdentity], [IdentityVerifier], [Duplex],
// and [MetricsSink].
//
// # Message Flows
//
// XX (three messages, no prior knowledge of either static key):
//
//	Initiator                    Responder
//	    --------- e --------->
//	    <---- e, ee, s, es ----
//	    --------- s, se ------>
//	                              [Split]
//	    [Split]
//
// IK (two messages, initiator already holds the responder's static key):
//
//	Initiator                    Responder
//	(knows responder's s)
//	    ----- e, es, s, ss ---->
//	    <----- e, ee, se -------
//	    [Split]                   [Split]
//
// XXfallback (responder cannot decrypt an IK message 1; both sides
// recover using the bytes already on the wire):
//
//	Initiator                    Responder
//	    ----- e, es, s, ss ---->  (fails to decrypt)
//	    <---- e, ee, s, es -----  (resumes as XXfallback msg 1,
//	                               pre-message: initiator's e)
//	    --------- s, se ------->
//	    [Split]                   [Split]
//
// # Usage
//
//	proto, err := noisechannel.New(noisechannel.Config{
//	    Verifier: crypto.Ed25519Verifier{},
//	})
//	conn, err := proto.SecureOutbound(localIdentity, duplex, remotePeerID)
//	n, err := conn.Conn.Write([]byte("hello"))
//
// # Security Considerations
//
//   - The identity signature domain separator binds a Noise static key
//     to a long-term identity key; verification failure is fatal.
//   - The static-key cache is process-local, unbounded, and not
//     persisted; it only ever improves a later dial's latency, never
//     its security (IK failure always recovers via XXfallback).
//   - Nonce exhaustion on either CipherState is fatal and is never
//     silently rekeyed.
//   - Tampering with any handshake frame or transport record causes a
//     Decrypt or InvalidSignature failure; no session keys are ever
//     derived from a tampered transcript.
package noisechannel
