package noisechannel

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Duplex is the external collaborator this package builds on: an
// arbitrary bidirectional byte-oriented transport (a TCP conn, a
// net.Pipe() half, a QUIC stream, ...). Generating or marshalling
// identity keys and implementing the duplex itself are both out of
// scope; callers supply one.
type Duplex interface {
	io.Reader
	io.Writer
	io.Closer
}

// maxFrameBody is the largest body a 16-bit big-endian length prefix can
// describe.
const maxFrameBody = 0xFFFF

// frameIO wraps a Duplex with the length-prefixed frame capability both
// the handshake driver and the secure-stream pipeline need: "a
// bidirectional byte stream with read-frame/write-frame operations",
// rather than raw read/write calls scattered through both components.
type frameIO struct {
	d Duplex
}

func newFrameIO(d Duplex) *frameIO {
	return &frameIO{d: d}
}

// writeFrame writes body prefixed with its 16-bit big-endian length.
func (f *frameIO) writeFrame(body []byte) error {
	if len(body) > maxFrameBody {
		return newErr("writeFrame", MalformedMessage, fmt.Errorf("frame body too large: %d bytes", len(body)))
	}

	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(body)))

	if _, err := f.d.Write(prefix[:]); err != nil {
		return newErr("writeFrame", UnderlyingIO, err)
	}
	if len(body) == 0 {
		return nil
	}
	if _, err := f.d.Write(body); err != nil {
		return newErr("writeFrame", UnderlyingIO, err)
	}
	return nil
}

// readFrame reads one 16-bit big-endian length-prefixed frame and
// returns its body.
func (f *frameIO) readFrame() ([]byte, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(f.d, prefix[:]); err != nil {
		return nil, newErr("readFrame", UnderlyingIO, err)
	}

	n := binary.BigEndian.Uint16(prefix[:])
	if n == 0 {
		return nil, nil
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(f.d, body); err != nil {
		return nil, newErr("readFrame", MalformedMessage, err)
	}
	return body, nil
}
