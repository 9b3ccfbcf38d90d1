package noisechannel

import "sync"

// maxRecordPlaintext is the hard cap on a single transport record's
// plaintext: the AEAD tag (16 bytes) must fit under the 16-bit frame
// length alongside it.
const maxRecordPlaintext = (1 << 16) - 1 - 16

// typicalChunkSize is the size outbound writes are internally split
// into. A caller's single large Write is transparently split into
// multiple sealed records rather than rejected; order and record
// boundaries are preserved end to end.
const typicalChunkSize = 16384

// Session is the secure-stream pipeline: a full-duplex pipe over a
// Duplex that frames and AEAD-seals outbound bytes, and reverses the
// process inbound. It implements two independent directions, each
// owning its own CipherState — a send path (Write) and a receive path
// (Read) — so the two can progress concurrently under the caller's own
// goroutines. Concurrent Write calls are serialized by a per-direction
// mutex, each Write's records going out contiguously, and concurrent
// Read calls likewise.
type Session struct {
	fr      *frameIO
	send    *cipherState
	recv    *cipherState
	metrics MetricsSink

	writeMu sync.Mutex

	readMu  sync.Mutex
	readBuf []byte
	readErr error
}

func newSession(duplex Duplex, send, recv *cipherState, metrics MetricsSink) *Session {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Session{
		fr:      newFrameIO(duplex),
		send:    send,
		recv:    recv,
		metrics: metrics,
	}
}

// Write seals p as one or more transport records, splitting it into
// chunks of at most typicalChunkSize bytes so each fits comfortably
// under the 16-bit frame length. Chunk boundaries it creates are
// preserved by the peer's Read.
func (s *Session) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	total := 0
	for len(p) > 0 {
		n := len(p)
		if n > typicalChunkSize {
			n = typicalChunkSize
		}
		chunk := p[:n]

		ciphertext, err := s.send.encryptWithAd(nil, chunk)
		if err != nil {
			return total, err
		}
		if err := s.fr.writeFrame(ciphertext); err != nil {
			return total, err
		}
		s.metrics.EncryptedPacket()

		total += n
		p = p[n:]
	}
	return total, nil
}

// Read fills p with the next available plaintext, reading and
// decrypting one transport record at a time as needed. It never merges
// two distinct records into a single refill, so record boundaries
// survive even when the caller reads in small pieces; a decrypt failure
// is terminal for this direction.
func (s *Session) Read(p []byte) (int, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.readErr != nil {
		return 0, s.readErr
	}

	for len(s.readBuf) == 0 {
		raw, err := s.fr.readFrame()
		if err != nil {
			s.readErr = err
			return 0, err
		}

		plaintext, err := s.recv.decryptWithAd(nil, raw)
		if err != nil {
			s.metrics.DecryptError()
			s.readErr = err
			return 0, err
		}
		s.metrics.DecryptedPacket()
		s.readBuf = plaintext
	}

	n := copy(p, s.readBuf)
	s.readBuf = s.readBuf[n:]
	return n, nil
}

// Close closes the underlying duplex, terminating both directions.
func (s *Session) Close() error {
	return s.fr.d.Close()
}
