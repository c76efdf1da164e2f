package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"solana-swap-agent/internal/wire/codec"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestOpen_RejectsMissingToken(t *testing.T) {
	if _, err := Open(context.Background(), "ws://example.invalid", ""); err == nil {
		t.Fatal("expected error for empty auth token")
	}
}

func TestOpen_SendsBearerHeader(t *testing.T) {
	gotAuth := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	sess, err := Open(context.Background(), wsURL(server), "tok-123")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	select {
	case auth := <-gotAuth:
		if auth != "Bearer tok-123" {
			t.Fatalf("Authorization header = %q, want %q", auth, "Bearer tok-123")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for upgrade request")
	}
}

func TestCall_GetInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, _, err = conn.ReadMessage()
		if err != nil {
			return
		}

		zero := uint64(0)
		resp := codec.Response{CorrelationID: 0}
		payload, _ := msgpack.Marshal(map[string]any{"server": "titan-mock"})
		resp.Payload = payload
		_ = zero

		data, err := msgpack.Marshal(map[string]codec.Response{"Response": resp})
		if err != nil {
			return
		}
		framed, err := codec.EncodeFrame(rawFrame(data))
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.BinaryMessage, framed)
	}))
	defer server.Close()

	sess, err := Open(context.Background(), wsURL(server), "tok")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := sess.Call(ctx, codec.GetInfo{})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if _, ok := reply.(codec.Response); !ok {
		t.Fatalf("reply = %T, want codec.Response", reply)
	}
}

func TestStream_CancelStopsDelivery(t *testing.T) {
	stopReceived := make(chan struct{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// consume the NewSwapQuoteStream request
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}

		sendBatch := func() {
			batch := codec.StreamData{CorrelationID: 1, Payload: codec.SwapQuotes{}}
			data, _ := msgpack.Marshal(map[string]codec.StreamData{"StreamData": batch})
			framed, _ := codec.EncodeFrame(rawFrame(data))
			conn.WriteMessage(websocket.BinaryMessage, framed)
		}
		sendBatch()

		// next read should be the StopStream cancellation frame
		if _, _, err := conn.ReadMessage(); err == nil {
			stopReceived <- struct{}{}
		}
	}))
	defer server.Close()

	sess, err := Open(context.Background(), wsURL(server), "tok")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer sess.Close()

	handle, err := sess.Stream(context.Background(), codec.NewSwapQuoteStream{})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	select {
	case <-handle.Frames():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first batch")
	}

	handle.Cancel()

	select {
	case <-stopReceived:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for StopStream frame")
	}

	select {
	case _, ok := <-handle.Frames():
		if ok {
			t.Fatal("received a frame after Cancel returned")
		}
	case <-time.After(200 * time.Millisecond):
	}
}

// rawFrame lets a test feed already-encoded msgpack bytes through
// codec.EncodeFrame without a second encoding pass.
type rawFrame []byte

func (r rawFrame) MarshalMsgpack() ([]byte, error) { return r, nil }
