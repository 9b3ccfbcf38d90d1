package noisechannel

import (
	"github.com/opd-ai/noisechannel/pb"
)

// Extensions carries optional, forward-compatible handshake extension
// data attached to a HandshakePayload.
type Extensions struct {
	WebtransportCerthashes [][]byte
}

// buildPayload constructs the wire-encoded HandshakePayload this side
// sends: its identity public key and a signature binding that identity
// to staticPublic, the local Noise static public key.
func buildPayload(local LocalIdentity, staticPublic []byte, ext *Extensions) ([]byte, error) {
	sig, err := signStaticKey(local, staticPublic)
	if err != nil {
		return nil, newErr("buildPayload", ProtocolViolation, err)
	}

	p := &pb.NoiseHandshakePayload{
		IdentityKey: local.Bytes(),
		IdentitySig: sig,
	}
	if ext != nil && len(ext.WebtransportCerthashes) > 0 {
		p.Extensions = &pb.NoiseExtensions{WebtransportCerthashes: ext.WebtransportCerthashes}
	}
	return pb.Marshal(p), nil
}

// verifiedIdentity is the outcome of decoding and authenticating a
// peer's HandshakePayload against their Noise static public key.
type verifiedIdentity struct {
	identityKey []byte
	peerID      PeerID
	extensions  *Extensions
}

// parseAndVerifyPayload decodes raw as a HandshakePayload and verifies
// its identitySig against identityKey over the domain-separated message
// built from remoteStatic, the peer's Noise static public key extracted
// from the HandshakeState.
func parseAndVerifyPayload(verifier IdentityVerifier, raw, remoteStatic []byte) (*verifiedIdentity, error) {
	p, err := pb.Unmarshal(raw)
	if err != nil {
		return nil, newErr("parseAndVerifyPayload", MalformedMessage, err)
	}

	ok, err := verifyStaticKey(verifier, p.IdentityKey, remoteStatic, p.IdentitySig)
	if err != nil {
		return nil, newErr("parseAndVerifyPayload", InvalidSignature, err)
	}
	if !ok {
		return nil, newErr("parseAndVerifyPayload", InvalidSignature, nil)
	}

	vi := &verifiedIdentity{
		identityKey: p.IdentityKey,
		peerID:      PeerID(p.IdentityKey),
	}
	if p.Extensions != nil {
		vi.extensions = &Extensions{WebtransportCerthashes: p.Extensions.WebtransportCerthashes}
	}
	return vi, nil
}
