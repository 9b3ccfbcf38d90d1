// Package pb implements the wire codec for the Noise handshake payload.
// Field numbers and wire types are fixed by the protocol; this package
// hand-rolls the length-delimited varint encoding with
// google.golang.org/protobuf/encoding/protowire rather than depending on
// generated code, since the code-generation toolchain is out of scope.
package pb

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers, fixed by the wire protocol.
const (
	fieldIdentityKey = 1
	fieldIdentitySig = 2
	fieldExtensions  = 4

	fieldWebtransportCerthashes = 1
)

// NoiseExtensions carries optional, forward-compatible handshake
// extension data.
type NoiseExtensions struct {
	WebtransportCerthashes [][]byte
}

// NoiseHandshakePayload is the authenticated payload exchanged during
// the handshake: the peer's long-term identity key, a signature binding
// that identity to the Noise static key, and optional extensions.
type NoiseHandshakePayload struct {
	IdentityKey []byte
	IdentitySig []byte
	Extensions  *NoiseExtensions
}

// Marshal encodes p using standard length-delimited varint-prefixed
// protobuf rules.
func Marshal(p *NoiseHandshakePayload) []byte {
	var b []byte
	if len(p.IdentityKey) > 0 {
		b = protowire.AppendTag(b, fieldIdentityKey, protowire.BytesType)
		b = protowire.AppendBytes(b, p.IdentityKey)
	}
	if len(p.IdentitySig) > 0 {
		b = protowire.AppendTag(b, fieldIdentitySig, protowire.BytesType)
		b = protowire.AppendBytes(b, p.IdentitySig)
	}
	if p.Extensions != nil && len(p.Extensions.WebtransportCerthashes) > 0 {
		b = protowire.AppendTag(b, fieldExtensions, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalExtensions(p.Extensions))
	}
	return b
}

func marshalExtensions(e *NoiseExtensions) []byte {
	var b []byte
	for _, h := range e.WebtransportCerthashes {
		b = protowire.AppendTag(b, fieldWebtransportCerthashes, protowire.BytesType)
		b = protowire.AppendBytes(b, h)
	}
	return b
}

// Unmarshal decodes a NoiseHandshakePayload, ignoring unknown fields.
func Unmarshal(data []byte) (*NoiseHandshakePayload, error) {
	p := &NoiseHandshakePayload{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("pb: malformed tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldIdentityKey:
			v, m, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			p.IdentityKey = v
			data = data[m:]
		case fieldIdentitySig:
			v, m, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			p.IdentitySig = v
			data = data[m:]
		case fieldExtensions:
			v, m, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			ext, err := unmarshalExtensions(v)
			if err != nil {
				return nil, err
			}
			p.Extensions = ext
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("pb: malformed field %d: %w", num, protowire.ParseError(m))
			}
			data = data[m:]
		}
	}

	return p, nil
}

func unmarshalExtensions(data []byte) (*NoiseExtensions, error) {
	e := &NoiseExtensions{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("pb: malformed extensions tag: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldWebtransportCerthashes:
			v, m, err := consumeBytes(data, typ)
			if err != nil {
				return nil, err
			}
			e.WebtransportCerthashes = append(e.WebtransportCerthashes, v)
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return nil, fmt.Errorf("pb: malformed extensions field %d: %w", num, protowire.ParseError(m))
			}
			data = data[m:]
		}
	}
	return e, nil
}

func consumeBytes(data []byte, typ protowire.Type) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, errors.New("pb: expected length-delimited field")
	}
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, fmt.Errorf("pb: malformed bytes field: %w", protowire.ParseError(n))
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, n, nil
}
