package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"solana-swap-agent/internal/swaperr"
	"solana-swap-agent/internal/wire/codec"
)

// probeCorrelationID is reserved for GetInfo: that message carries no
// correlation_id field on the wire (spec §6), so its Response is dispatched
// to whichever caller is waiting under this sentinel id. A session serves
// one owner at a time, so at most one GetInfo call is ever in flight.
const probeCorrelationID = 0

// Session is an open, authenticated wire connection, owned by exactly one
// consumer (the quote-stream manager) for the duration of one swap. It is
// never reused after a transport error.
type Session struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	nextID  atomic.Uint64

	dispatchMu sync.Mutex
	pending    map[uint64]chan codec.ServerMessage
	streams    map[uint64]chan StreamFrame

	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// Open dials endpoint with the given bearer token in the upgrade headers
// and starts the session's read loop.
func Open(ctx context.Context, endpoint, token string) (*Session, error) {
	if token == "" {
		return nil, swaperr.New(swaperr.KindConfigMissing, "wire auth token is empty")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, swaperr.Wrap(swaperr.KindAuthRejected, "server rejected bearer token", err)
		}
		return nil, swaperr.Wrap(swaperr.KindTransportBroken, "dial wire endpoint", err)
	}

	s := &Session{
		conn:    conn,
		pending: make(map[uint64]chan codec.ServerMessage),
		streams: make(map[uint64]chan StreamFrame),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.readLoop()

	return s, nil
}

// Call sends msg and waits for the matching Response (or Error).
func (s *Session) Call(ctx context.Context, msg codec.ClientMessage) (codec.ServerMessage, error) {
	id := probeCorrelationID
	if _, ok := msg.(codec.GetInfo); !ok {
		id = int(s.nextID.Add(1))
	}

	ch := make(chan codec.ServerMessage, 1)
	s.dispatchMu.Lock()
	s.pending[uint64(id)] = ch
	s.dispatchMu.Unlock()

	if err := s.send(msg); err != nil {
		s.dispatchMu.Lock()
		delete(s.pending, uint64(id))
		s.dispatchMu.Unlock()
		return nil, err
	}

	select {
	case reply, ok := <-ch:
		if !ok {
			return nil, swaperr.New(swaperr.KindTransportBroken, "session closed while awaiting response")
		}
		if errMsg, ok := reply.(codec.Error); ok {
			return nil, swaperr.New(swaperr.KindTransportBroken, errMsg.Code+": "+errMsg.Message)
		}
		return reply, nil
	case <-s.done:
		return nil, swaperr.New(swaperr.KindTransportBroken, "session closed while awaiting response")
	case <-ctx.Done():
		s.dispatchMu.Lock()
		delete(s.pending, uint64(id))
		s.dispatchMu.Unlock()
		return nil, ctx.Err()
	}
}

// Stream opens a stream subscription and returns a handle delivering
// StreamFrame values until end, error, or Cancel.
func (s *Session) Stream(ctx context.Context, req codec.NewSwapQuoteStream) (*StreamHandle, error) {
	id := s.nextID.Add(1)
	req.CorrelationID = id

	frames := make(chan StreamFrame, 16)
	s.dispatchMu.Lock()
	s.streams[id] = frames
	s.dispatchMu.Unlock()

	if err := s.send(req); err != nil {
		s.dispatchMu.Lock()
		delete(s.streams, id)
		s.dispatchMu.Unlock()
		return nil, err
	}

	cancelOnce := sync.Once{}
	handle := &StreamHandle{
		frames: frames,
		cancel: func() {
			cancelOnce.Do(func() {
				s.dispatchMu.Lock()
				delete(s.streams, id)
				s.dispatchMu.Unlock()
				_ = s.send(codec.StopStream{CorrelationID: id})
			})
		},
	}
	return handle, nil
}

// Close tears down the connection and unblocks every pending caller.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := s.conn.Close()

	s.dispatchMu.Lock()
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
	for id, ch := range s.streams {
		close(ch)
		delete(s.streams, id)
	}
	s.dispatchMu.Unlock()

	s.wg.Wait()
	return err
}

func (s *Session) send(msg codec.ClientMessage) error {
	data, err := codec.EncodeClientMessage(msg)
	if err != nil {
		return swaperr.Wrap(swaperr.KindDecodeFailed, "encode client message", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return swaperr.Wrap(swaperr.KindTransportBroken, "write wire frame", err)
	}
	return nil
}

func (s *Session) readLoop() {
	defer s.wg.Done()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.failAll(swaperr.Wrap(swaperr.KindTransportBroken, "wire read failed", err))
			}
			return
		}

		msg, err := codec.DecodeServerMessage(data)
		if err != nil {
			s.failAll(swaperr.Wrap(swaperr.KindDecodeFailed, "decode server message", err))
			return
		}

		s.dispatch(msg)
	}
}

func (s *Session) dispatch(msg codec.ServerMessage) {
	switch m := msg.(type) {
	case codec.Response:
		s.deliverPending(m.CorrelationID, m)
	case codec.Error:
		id := probeCorrelationID
		if m.CorrelationID != nil {
			id = int(*m.CorrelationID)
		}
		if !s.deliverPending(uint64(id), m) {
			s.deliverStreamFrame(uint64(id), StreamFrame{Err: fmt.Errorf("%s: %s", m.Code, m.Message)})
		}
	case codec.StreamData:
		s.deliverStreamFrame(m.CorrelationID, StreamFrame{Batch: m.Payload})
	case codec.StreamEnd:
		end := m
		s.deliverStreamFrame(m.CorrelationID, StreamFrame{End: &end})
		s.dispatchMu.Lock()
		delete(s.streams, m.CorrelationID)
		s.dispatchMu.Unlock()
	}
}

func (s *Session) deliverPending(id uint64, msg codec.ServerMessage) bool {
	s.dispatchMu.Lock()
	ch, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.dispatchMu.Unlock()

	if !ok {
		return false
	}
	ch <- msg
	return true
}

func (s *Session) deliverStreamFrame(id uint64, frame StreamFrame) {
	s.dispatchMu.Lock()
	ch, ok := s.streams[id]
	s.dispatchMu.Unlock()

	if !ok {
		return
	}
	ch <- frame
}

func (s *Session) failAll(err error) {
	s.dispatchMu.Lock()
	pending := s.pending
	streams := s.streams
	s.pending = make(map[uint64]chan codec.ServerMessage)
	s.streams = make(map[uint64]chan StreamFrame)
	s.dispatchMu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
	for _, ch := range streams {
		ch <- StreamFrame{Err: err}
		close(ch)
	}
}
