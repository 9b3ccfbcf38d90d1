package noisechannel_test

import (
	"net"
	"testing"

	"github.com/opd-ai/noisechannel"
	"github.com/opd-ai/noisechannel/crypto"
	"github.com/stretchr/testify/require"
)

// pipeDuplex adapts one half of a net.Pipe() to noisechannel.Duplex.
type pipeDuplex struct {
	net.Conn
}

func newLoopback(t *testing.T) (noisechannel.Duplex, noisechannel.Duplex) {
	t.Helper()
	a, b := net.Pipe()
	return pipeDuplex{a}, pipeDuplex{b}
}

func newIdentity(t *testing.T) *crypto.Ed25519Identity {
	t.Helper()
	id, err := crypto.NewEd25519Identity()
	require.NoError(t, err)
	return id
}

type handshakeOutcome struct {
	conn *noisechannel.SecuredConn
	err  error
}

// writeResult carries a Session.Write's return values out of the
// goroutine it runs in: net.Pipe is unbuffered, so a Write only returns
// once the peer has read the record.
type writeResult struct {
	n   int
	err error
}

func runPair(t *testing.T, initProto, respProto *noisechannel.Protocol, initIdentity, respIdentity noisechannel.LocalIdentity, expectInit, expectResp noisechannel.PeerID) (handshakeOutcome, handshakeOutcome) {
	t.Helper()
	initConn, respConn := newLoopback(t)

	initCh := make(chan handshakeOutcome, 1)
	respCh := make(chan handshakeOutcome, 1)

	go func() {
		conn, err := initProto.SecureOutbound(initIdentity, initConn, expectInit)
		initCh <- handshakeOutcome{conn, err}
	}()
	go func() {
		conn, err := respProto.SecureInbound(respIdentity, respConn, expectResp)
		respCh <- handshakeOutcome{conn, err}
	}()

	return <-initCh, <-respCh
}

func TestXXLoopback(t *testing.T) {
	initIdentity := newIdentity(t)
	respIdentity := newIdentity(t)

	initProto, err := noisechannel.New(noisechannel.Config{
		UseNoisePipes: false,
		Verifier:      crypto.Ed25519Verifier{},
	})
	require.NoError(t, err)
	respProto, err := noisechannel.New(noisechannel.Config{
		UseNoisePipes: false,
		Verifier:      crypto.Ed25519Verifier{},
	})
	require.NoError(t, err)

	initOut, respOut := runPair(t, initProto, respProto, initIdentity, respIdentity, "", "")
	require.NoError(t, initOut.err)
	require.NoError(t, respOut.err)

	require.Equal(t, respIdentity.ID(), initOut.conn.RemotePeer)
	require.Equal(t, initIdentity.ID(), respOut.conn.RemotePeer)

	writeDone := make(chan writeResult, 1)
	go func() {
		n, err := initOut.conn.Conn.Write([]byte("test"))
		writeDone <- writeResult{n, err}
	}()

	buf := make([]byte, 4)
	_, err = readFull(respOut.conn.Conn, buf)
	require.NoError(t, err)
	require.Equal(t, "test", string(buf))

	written := <-writeDone
	require.NoError(t, written.err)
	require.Equal(t, 4, written.n)
}

func TestIdentityMismatch(t *testing.T) {
	initIdentity := newIdentity(t)
	respIdentity := newIdentity(t)
	wrongExpected := newIdentity(t)

	initProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: false, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)
	respProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: false, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)

	initOut, _ := runPair(t, initProto, respProto, initIdentity, respIdentity, wrongExpected.ID(), "")
	require.Error(t, initOut.err)

	kind, ok := noisechannel.KindOf(initOut.err)
	require.True(t, ok)
	require.Equal(t, noisechannel.PeerMismatch, kind)
}

// tamperDuplex inverts every bit of the last byte of the N-th frame body
// (length > 2) read through it, simulating a corrupted transport
// ciphertext in flight.
type tamperDuplex struct {
	noisechannel.Duplex
	bodyReads int
	tamperAt  int
}

func (t *tamperDuplex) Read(p []byte) (int, error) {
	n, err := t.Duplex.Read(p)
	if err != nil || n <= 2 {
		return n, err
	}
	t.bodyReads++
	if t.bodyReads == t.tamperAt {
		p[n-1] ^= 0xFF
	}
	return n, err
}

func TestTamperedRecordFailsDecrypt(t *testing.T) {
	initIdentity := newIdentity(t)
	respIdentity := newIdentity(t)

	initProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: false, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)
	respProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: false, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)

	initConn, respConnRaw := newLoopback(t)
	// XX responder reads two message bodies during the handshake
	// (initiator's bare ephemeral, then the initiator's final message);
	// the third body read is the first post-handshake transport record.
	respConn := &tamperDuplex{Duplex: respConnRaw, tamperAt: 3}

	initCh := make(chan handshakeOutcome, 1)
	respCh := make(chan handshakeOutcome, 1)
	go func() {
		conn, err := initProto.SecureOutbound(initIdentity, initConn, "")
		initCh <- handshakeOutcome{conn, err}
	}()
	go func() {
		conn, err := respProto.SecureInbound(respIdentity, respConn, "")
		respCh <- handshakeOutcome{conn, err}
	}()
	initOut, respOut := <-initCh, <-respCh
	require.NoError(t, initOut.err)
	require.NoError(t, respOut.err)

	writeDone := make(chan error, 1)
	go func() {
		_, err := initOut.conn.Conn.Write([]byte("hello"))
		writeDone <- err
	}()

	buf := make([]byte, 5)
	_, err = respOut.conn.Conn.Read(buf)
	require.Error(t, err)

	kind, ok := noisechannel.KindOf(err)
	require.True(t, ok)
	require.Equal(t, noisechannel.Decrypt, kind)
	require.NoError(t, <-writeDone)
}

func TestIKSuccessWithPrimedCache(t *testing.T) {
	initIdentity := newIdentity(t)
	respIdentity := newIdentity(t)

	respStaticKeys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	initProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: true, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)
	respProto, err := noisechannel.New(noisechannel.Config{
		UseNoisePipes:  true,
		Verifier:       crypto.Ed25519Verifier{},
		StaticNoiseKey: respStaticKeys,
	})
	require.NoError(t, err)

	initProto.PrimeCache(respIdentity.ID(), respStaticKeys.Public)

	initOut, respOut := runPair(t, initProto, respProto, initIdentity, respIdentity, respIdentity.ID(), "")
	require.NoError(t, initOut.err)
	require.NoError(t, respOut.err)
	require.Equal(t, respIdentity.ID(), initOut.conn.RemotePeer)
}

func TestXXFallbackRecoversFromWrongCachedKey(t *testing.T) {
	initIdentity := newIdentity(t)
	respIdentity := newIdentity(t)

	wrongKeys, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	initProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: true, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)
	respProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: true, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)

	// Prime the initiator's cache with a static key that is not
	// actually the responder's, forcing the IK attempt to fail and
	// both sides to recover via XXfallback.
	initProto.PrimeCache(respIdentity.ID(), wrongKeys.Public)

	initOut, respOut := runPair(t, initProto, respProto, initIdentity, respIdentity, respIdentity.ID(), "")
	require.NoError(t, initOut.err)
	require.NoError(t, respOut.err)
	require.Equal(t, respIdentity.ID(), initOut.conn.RemotePeer)
	require.Equal(t, initIdentity.ID(), respOut.conn.RemotePeer)

	writeDone := make(chan writeResult, 1)
	go func() {
		n, err := initOut.conn.Conn.Write([]byte("fallback"))
		writeDone <- writeResult{n, err}
	}()

	buf := make([]byte, 8)
	_, err = readFull(respOut.conn.Conn, buf)
	require.NoError(t, err)
	require.Equal(t, "fallback", string(buf))

	written := <-writeDone
	require.NoError(t, written.err)
	require.Equal(t, 8, written.n)
}

func TestOversizeWriteIsChunkedAndOrderPreserved(t *testing.T) {
	initIdentity := newIdentity(t)
	respIdentity := newIdentity(t)

	initProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: false, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)
	respProto, err := noisechannel.New(noisechannel.Config{UseNoisePipes: false, Verifier: crypto.Ed25519Verifier{}})
	require.NoError(t, err)

	initOut, respOut := runPair(t, initProto, respProto, initIdentity, respIdentity, "", "")
	require.NoError(t, initOut.err)
	require.NoError(t, respOut.err)

	payload := make([]byte, 100*1024)
	for i := range payload {
		payload[i] = byte(i)
	}

	writeDone := make(chan error, 1)
	go func() {
		_, err := initOut.conn.Conn.Write(payload)
		writeDone <- err
	}()

	received := make([]byte, len(payload))
	_, err = readFull(respOut.conn.Conn, received)
	require.NoError(t, err)
	require.NoError(t, <-writeDone)
	require.Equal(t, payload, received)
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
