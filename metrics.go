package noisechannel

import "github.com/prometheus/client_golang/prometheus"

// MetricsSink is the external collaborator this package reports to;
// wiring a sink into a scrape endpoint or registry is out of scope.
// Metrics is the default, Prometheus-backed implementation.
type MetricsSink interface {
	HandshakeSuccess()
	HandshakeError()
	EncryptedPacket()
	DecryptedPacket()
	DecryptError()
}

// Metrics is the five named counters the façade reports against:
// handshake successes, handshake errors, encrypted packets, decrypted
// packets, and decrypt errors.
type Metrics struct {
	handshakeSuccesses prometheus.Counter
	handshakeErrors    prometheus.Counter
	encryptedPackets   prometheus.Counter
	decryptedPackets   prometheus.Counter
	decryptErrors      prometheus.Counter
}

// NewMetrics constructs the counter set and registers it with reg. If
// reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		handshakeSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "libp2p_noise_xxhandshake_successes_total",
			Help: "Number of successful Noise handshakes.",
		}),
		handshakeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "libp2p_noise_xxhandshake_error_total",
			Help: "Number of failed Noise handshakes.",
		}),
		encryptedPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "libp2p_noise_encrypted_packets_total",
			Help: "Number of transport records successfully encrypted.",
		}),
		decryptedPackets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "libp2p_noise_decrypted_packets_total",
			Help: "Number of transport records successfully decrypted.",
		}),
		decryptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "libp2p_noise_decrypt_errors_total",
			Help: "Number of transport records that failed AEAD decryption.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.handshakeSuccesses, m.handshakeErrors,
		m.encryptedPackets, m.decryptedPackets, m.decryptErrors,
	} {
		_ = reg.Register(c) // AlreadyRegisteredError is expected across repeated test setups
	}

	return m
}

func (m *Metrics) HandshakeSuccess() { m.handshakeSuccesses.Inc() }
func (m *Metrics) HandshakeError()   { m.handshakeErrors.Inc() }
func (m *Metrics) EncryptedPacket()  { m.encryptedPackets.Inc() }
func (m *Metrics) DecryptedPacket()  { m.decryptedPackets.Inc() }
func (m *Metrics) DecryptError()     { m.decryptErrors.Inc() }

// noopMetrics is used when a caller supplies no MetricsSink.
type noopMetrics struct{}

func (noopMetrics) HandshakeSuccess() {}
func (noopMetrics) HandshakeError()   {}
func (noopMetrics) EncryptedPacket()  {}
func (noopMetrics) DecryptedPacket()  {}
func (noopMetrics) DecryptError()     {}
