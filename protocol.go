package noisechannel

import (
	"github.com/opd-ai/noisechannel/crypto"
	"github.com/sirupsen/logrus"
)

// ProtocolID is the protocol identifier string negotiated by the
// surrounding multistream layer; out of scope here, exposed for callers
// that need it.
const ProtocolID = "/noise"

// Config configures a Protocol instance.
type Config struct {
	// StaticNoiseKey is the long-term Curve25519 Noise static keypair.
	// If nil, a fresh one is generated.
	StaticNoiseKey *crypto.KeyPair
	// Extensions is stored with the Config but is not sent: the handshake
	// builds every outbound HandshakePayload without extensions.
	Extensions *Extensions
	// UseNoisePipes enables the IK-first optimization with XXfallback
	// recovery; defaults to true via NewConfig.
	UseNoisePipes bool
	// Verifier authenticates a peer's declared identity signature.
	Verifier IdentityVerifier
	// Metrics receives the five named counters; if nil, metrics calls
	// are no-ops.
	Metrics MetricsSink
	// Logger receives structured log entries at handshake and session
	// boundaries; if nil, a logger that discards output is used.
	Logger *logrus.Logger
}

// NewConfig returns a Config with UseNoisePipes enabled, as the façade's
// default.
func NewConfig(verifier IdentityVerifier) Config {
	return Config{UseNoisePipes: true, Verifier: verifier}
}

// Protocol is the top-level secure-channel façade: it exposes
// secureInbound/secureOutbound, owns the static-key cache enabling
// Noise pipes, and wires in metrics.
type Protocol struct {
	staticKey crypto.KeyPair
	cache     *StaticKeyCache
	cfg       Config
	log       *logrus.Entry
}

// New constructs a Protocol from cfg, generating a static Noise key if
// cfg.StaticNoiseKey is nil.
func New(cfg Config) (*Protocol, error) {
	staticKeyPair := cfg.StaticNoiseKey
	if staticKeyPair == nil {
		kp, err := crypto.GenerateKeyPair()
		if err != nil {
			return nil, newErr("New", ProtocolViolation, err)
		}
		staticKeyPair = kp
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(discardWriter{})
	}

	p := &Protocol{
		staticKey: *staticKeyPair,
		cache:     NewStaticKeyCache(),
		cfg:       cfg,
		log:       logger.WithField("component", "noisechannel"),
	}
	return p, nil
}

// SecuredConn is what secureOutbound/secureInbound return: the secured
// duplex and the authenticated remote identity.
type SecuredConn struct {
	Conn       *Session
	RemotePeer PeerID
}

// PrimeCache seeds the static-key cache as if peer had already completed
// an XX handshake with the given Noise static public key, letting a
// subsequent dial attempt IK directly. Exposed primarily for tests and
// for callers restoring a previously-observed peer out of band.
func (p *Protocol) PrimeCache(peer PeerID, staticKey [32]byte) {
	p.cache.Put(peer, staticKey)
}

// ResetCache clears every cached peer static key.
func (p *Protocol) ResetCache() {
	p.cache.Reset()
}

// SecureOutbound dials the initiator side of a handshake over duplex,
// authenticating as local and, if remote is non-empty, requiring the
// peer's authenticated identity to match it.
func (p *Protocol) SecureOutbound(local LocalIdentity, duplex Duplex, remote PeerID) (*SecuredConn, error) {
	fr := newFrameIO(duplex)

	result, err := dialOutbound(fr, local, p.staticKey, p.cache, p.cfg.UseNoisePipes, p.cfg.Verifier, remote, p.log)
	if err != nil {
		p.cfg.metrics().HandshakeError()
		p.log.WithError(err).Debug("outbound handshake failed")
		return nil, err
	}

	p.cfg.metrics().HandshakeSuccess()
	return &SecuredConn{
		Conn:       newSession(duplex, result.send, result.recv, p.cfg.metrics()),
		RemotePeer: result.remoteIdentity.peerID,
	}, nil
}

// SecureInbound accepts the responder side of a handshake over duplex,
// authenticating as local and, if remote is non-empty, requiring the
// peer's authenticated identity to match it.
func (p *Protocol) SecureInbound(local LocalIdentity, duplex Duplex, remote PeerID) (*SecuredConn, error) {
	fr := newFrameIO(duplex)

	result, err := acceptInbound(fr, local, p.staticKey, p.cache, p.cfg.UseNoisePipes, p.cfg.Verifier, remote, p.log)
	if err != nil {
		p.cfg.metrics().HandshakeError()
		p.log.WithError(err).Debug("inbound handshake failed")
		return nil, err
	}

	p.cfg.metrics().HandshakeSuccess()
	return &SecuredConn{
		Conn:       newSession(duplex, result.send, result.recv, p.cfg.metrics()),
		RemotePeer: result.remoteIdentity.peerID,
	}, nil
}

func (c Config) metrics() MetricsSink {
	if c.Metrics == nil {
		return noopMetrics{}
	}
	return c.Metrics
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
