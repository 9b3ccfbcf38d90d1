package noisechannel

// token is one step of a Noise message pattern: either a raw public key
// to transmit (e, s) or a Diffie-Hellman operation to mix into the
// chaining key (ee, es, se, ss).
type token int

const (
	tokenE token = iota
	tokenS
	tokenEE
	tokenES
	tokenSE
	tokenSS
)

// patternSpec is a hand-coded Noise handshake pattern: its pre-message
// tokens (attributed to whichever role already holds that key material
// before the exchange starts) and its per-message token sequence, per
// §4.4's pattern algebra.
type patternSpec struct {
	name                 string
	initiatorPreMessages []token
	responderPreMessages []token
	messages             [][]token
	// responderWritesFirst is false for every pattern except
	// XXfallback, whose first sub-handshake message runs responder to
	// initiator rather than the usual initiator-first order.
	responderWritesFirst bool
}

// prologue is mixed into the handshake hash immediately after
// SymmetricState initialization, binding the protocol identifier to the
// transcript.
var prologue = []byte("/noise")

// Protocol name strings, mixed as the SymmetricState's initial hash
// input per the Noise spec's naming convention.
const (
	protocolNameXX         = "Noise_XX_25519_ChaChaPoly_SHA256"
	protocolNameIK         = "Noise_IK_25519_ChaChaPoly_SHA256"
	protocolNameXXFallback = "Noise_XXfallback_25519_ChaChaPoly_SHA256"
)

// handshakeXX is the base three-message mutual-authentication pattern.
var handshakeXX = patternSpec{
	name: protocolNameXX,
	messages: [][]token{
		{tokenE},
		{tokenE, tokenEE, tokenS, tokenES},
		{tokenS, tokenSE},
	},
}

// handshakeIK is the two-message pattern used when the initiator already
// holds the responder's static key (the "Noise pipes" fast path).
var handshakeIK = patternSpec{
	name:                 protocolNameIK,
	responderPreMessages: []token{tokenS},
	messages: [][]token{
		{tokenE, tokenES, tokenS, tokenSS},
		{tokenE, tokenEE, tokenSE},
	},
}

// handshakeXXFallback recovers a failed IK attempt: the initiator's
// ephemeral from the abandoned IK message 1 is treated as an already-
// sent pre-message, and the remainder of the exchange matches XX's
// message 2 and message 3 — but with the responder writing first, since
// it is the side that already observed the initiator's raw ephemeral.
var handshakeXXFallback = patternSpec{
	name:                 protocolNameXXFallback,
	initiatorPreMessages: []token{tokenE},
	messages: [][]token{
		{tokenE, tokenEE, tokenS, tokenES},
		{tokenS, tokenSE},
	},
	responderWritesFirst: true,
}

// patternKind identifies which of the three supported patterns a
// handshakeState is driving.
type patternKind int

const (
	patternXX patternKind = iota
	patternIK
	patternXXFallback
)

func (p patternKind) String() string {
	switch p {
	case patternXX:
		return "XX"
	case patternIK:
		return "IK"
	case patternXXFallback:
		return "XXfallback"
	default:
		return "unknown"
	}
}

// noisePattern returns the hand-coded pattern spec for p.
func noisePattern(p patternKind) patternSpec {
	switch p {
	case patternIK:
		return handshakeIK
	case patternXXFallback:
		return handshakeXXFallback
	default:
		return handshakeXX
	}
}
