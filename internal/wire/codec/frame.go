// Package codec implements the MessagePack outer-frame encoding used by
// the quote-stream wire protocol: a one-byte content-encoding tag plus an
// inner MessagePack payload. Encode always emits identity; decode accepts
// all four encodings.
package codec

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Encoding is the outer frame's content-encoding tag.
type Encoding uint8

const (
	EncodingIdentity Encoding = 0
	EncodingGzip     Encoding = 1
	EncodingBrotli   Encoding = 2
	EncodingZstd     Encoding = 3
)

// Frame is the wire-level envelope: an encoding tag plus the (possibly
// compressed) MessagePack-encoded payload bytes.
type Frame struct {
	Encoding Encoding `msgpack:"encoding"`
	Payload  []byte   `msgpack:"payload"`
}

// EncodeFrame msgpack-encodes v and wraps it in an identity-encoded Frame.
// The codec never compresses on send; compression is a receive-only
// accommodation for servers that choose to use it.
func EncodeFrame(v any) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, &DecodeError{Field: "<encode>", Err: err}
	}
	frame := Frame{Encoding: EncodingIdentity, Payload: payload}
	out, err := msgpack.Marshal(&frame)
	if err != nil {
		return nil, &DecodeError{Field: "<encode>", Err: err}
	}
	return out, nil
}

// DecodeFrame unwraps the outer frame and msgpack-decodes its payload into
// v, transparently handling whichever of the four encodings the sender
// used.
func DecodeFrame(data []byte, v any) error {
	var frame Frame
	if err := msgpack.Unmarshal(data, &frame); err != nil {
		return &DecodeError{Field: "<frame>", Err: err}
	}

	payload, err := unwrapEncoding(frame.Encoding, frame.Payload)
	if err != nil {
		return &DecodeError{Field: "<encoding>", Err: err}
	}

	if err := msgpack.Unmarshal(payload, v); err != nil {
		return &DecodeError{Field: "<payload>", Err: err}
	}
	return nil
}

func unwrapEncoding(enc Encoding, payload []byte) ([]byte, error) {
	switch enc {
	case EncodingIdentity:
		return payload, nil
	case EncodingGzip:
		r, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case EncodingBrotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(payload)))
	case EncodingZstd:
		r, err := zstd.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return nil, fmt.Errorf("unknown content encoding tag %d", enc)
	}
}
