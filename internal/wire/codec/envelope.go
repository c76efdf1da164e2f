package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Client messages are tagged unions. Only GetInfo carries no data, so it
// alone uses the bare-string-tag encoding; every other variant is
// object-wrapped as {"<Tag>": {...fields}}.

// ClientMessage is any message the wire session may send to the server.
type ClientMessage interface {
	clientTag() string
}

// GetInfo probes server identity/capabilities.
type GetInfo struct{}

func (GetInfo) clientTag() string { return "GetInfo" }

// MarshalMsgpack encodes GetInfo as the bare string "GetInfo", since it
// carries no associated data.
func (GetInfo) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal("GetInfo")
}

// NewSwapQuoteStream opens a quote stream for the given request parameters.
// Pubkeys are 32-byte binary values, never base58, per the wire contract.
type NewSwapQuoteStream struct {
	CorrelationID uint64 `msgpack:"correlation_id"`
	InputMint     []byte `msgpack:"input_mint"`
	OutputMint    []byte `msgpack:"output_mint"`
	Amount        uint64 `msgpack:"amount"`
	UserPubkey    []byte `msgpack:"user_pubkey"`
	SlippageBps   uint16 `msgpack:"slippage_bps"`
	MaxQuotes     uint8  `msgpack:"max_quotes"`
	IntervalMs    uint16 `msgpack:"interval_ms"`
}

func (NewSwapQuoteStream) clientTag() string { return "NewSwapQuoteStream" }

func (m NewSwapQuoteStream) MarshalMsgpack() ([]byte, error) {
	type fields NewSwapQuoteStream // same tags, no MarshalMsgpack: avoids recursion
	return msgpack.Marshal(map[string]fields{"NewSwapQuoteStream": fields(m)})
}

// StopStream cancels an open stream by correlation id.
type StopStream struct {
	CorrelationID uint64 `msgpack:"correlation_id"`
}

func (StopStream) clientTag() string { return "StopStream" }

func (m StopStream) MarshalMsgpack() ([]byte, error) {
	type fields StopStream // same tags, no MarshalMsgpack: avoids recursion
	return msgpack.Marshal(map[string]fields{"StopStream": fields(m)})
}

// EncodeClientMessage produces the frame-ready bytes for a client message.
func EncodeClientMessage(msg ClientMessage) ([]byte, error) {
	return EncodeFrame(msg)
}

// Server messages. All four variants carry fields, so all four are
// object-wrapped; there is no bare-string server variant.

// ServerMessage is any message the server may send back over the session.
type ServerMessage interface {
	serverTag() string
}

// Response answers a request/response-style client message.
type Response struct {
	CorrelationID uint64              `msgpack:"correlation_id"`
	Payload       msgpack.RawMessage  `msgpack:"payload"`
}

func (Response) serverTag() string { return "Response" }

// Error reports a request or stream failure. CorrelationID is nil when the
// error is not attributable to any single pending request or stream.
type Error struct {
	CorrelationID *uint64 `msgpack:"correlation_id"`
	Code          string  `msgpack:"code"`
	Message       string  `msgpack:"message"`
}

func (Error) serverTag() string { return "Error" }

// StreamData carries one quote batch for an open stream.
type StreamData struct {
	CorrelationID uint64     `msgpack:"correlation_id"`
	Payload       SwapQuotes `msgpack:"payload"`
}

func (StreamData) serverTag() string { return "StreamData" }

// StreamEnd signals that no further StreamData frames will arrive for the
// given stream.
type StreamEnd struct {
	CorrelationID uint64 `msgpack:"correlation_id"`
	Reason        string `msgpack:"reason"`
}

func (StreamEnd) serverTag() string { return "StreamEnd" }

// DecodeServerMessage unwraps the frame and dispatches to the concrete
// ServerMessage variant named by its single map key.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var envelope map[string]msgpack.RawMessage
	if err := DecodeFrame(data, &envelope); err != nil {
		return nil, err
	}
	if len(envelope) != 1 {
		return nil, &DecodeError{Field: "<server_message>", Err: fmt.Errorf("expected exactly one tag, got %d", len(envelope))}
	}

	for tag, raw := range envelope {
		switch tag {
		case "Response":
			var m Response
			if err := msgpack.Unmarshal(raw, &m); err != nil {
				return nil, &DecodeError{Field: "Response", Err: err}
			}
			return m, nil
		case "Error":
			var m Error
			if err := msgpack.Unmarshal(raw, &m); err != nil {
				return nil, &DecodeError{Field: "Error", Err: err}
			}
			return m, nil
		case "StreamData":
			var m StreamData
			if err := msgpack.Unmarshal(raw, &m); err != nil {
				return nil, &DecodeError{Field: "StreamData", Err: err}
			}
			return m, nil
		case "StreamEnd":
			var m StreamEnd
			if err := msgpack.Unmarshal(raw, &m); err != nil {
				return nil, &DecodeError{Field: "StreamEnd", Err: err}
			}
			return m, nil
		default:
			return nil, &DecodeError{Field: "<server_message>", Err: fmt.Errorf("unknown server message tag %q", tag)}
		}
	}
	panic("unreachable")
}
