// Package session implements the authenticated WebSocket transport (C2):
// request/response and stream multiplexing over one socket, keyed by
// client-chosen correlation id. Grounded on the teacher's
// internal/solana/ws_client.go connection/dispatch shape, generalized from
// one fixed subscription kind to arbitrary request/response plus streams,
// and with the reconnect/resubscribe machinery removed — a session is used
// once, by one owner, for the duration of a single swap; a broken
// transport is a fatal session error, never auto-repaired.
package session

import (
	"solana-swap-agent/internal/wire/codec"
)

// StreamFrame is one delivered item for an open stream: either a batch of
// quotes or a terminal condition (end or error).
type StreamFrame struct {
	Batch codec.SwapQuotes
	End   *codec.StreamEnd
	Err   error
}

// StreamHandle is returned by Stream. Frames delivers StreamFrame values
// until the stream ends, errors, or Cancel is called. Cancel sends
// StopStream and guarantees no further delivery once it returns.
type StreamHandle struct {
	frames chan StreamFrame
	cancel func()
}

// Frames returns the channel of delivered stream frames.
func (h *StreamHandle) Frames() <-chan StreamFrame {
	return h.frames
}

// Cancel sends StopStream for this stream's correlation id and removes its
// dispatch-table entry before returning, so the read loop can no longer
// find a live recipient for this stream once Cancel returns.
func (h *StreamHandle) Cancel() {
	h.cancel()
}
