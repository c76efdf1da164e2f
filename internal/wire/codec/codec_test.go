package codec

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestEncodeFrame_IsIdentity(t *testing.T) {
	data, err := EncodeFrame(GetInfo{})
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	var frame Frame
	if err := msgpack.Unmarshal(data, &frame); err != nil {
		t.Fatalf("unmarshal outer frame: %v", err)
	}
	if frame.Encoding != EncodingIdentity {
		t.Fatalf("encoding = %d, want identity (0)", frame.Encoding)
	}
}

func TestDecodeFrame_RoundTrip(t *testing.T) {
	msg := NewSwapQuoteStream{
		CorrelationID: 7,
		InputMint:     bytes.Repeat([]byte{1}, 32),
		OutputMint:    bytes.Repeat([]byte{2}, 32),
		Amount:        1_000_000,
		UserPubkey:    bytes.Repeat([]byte{3}, 32),
		SlippageBps:   50,
		MaxQuotes:     4,
		IntervalMs:    500,
	}

	data, err := EncodeClientMessage(msg)
	if err != nil {
		t.Fatalf("EncodeClientMessage: %v", err)
	}

	var envelope map[string]NewSwapQuoteStream
	if err := DecodeFrame(data, &envelope); err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	got, ok := envelope["NewSwapQuoteStream"]
	if !ok {
		t.Fatalf("missing NewSwapQuoteStream tag in %v", envelope)
	}
	if got.CorrelationID != 7 || got.Amount != 1_000_000 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestDecodeFrame_AcceptsGzip(t *testing.T) {
	inner, err := msgpack.Marshal("GetInfo")
	if err != nil {
		t.Fatalf("marshal inner: %v", err)
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(inner); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	frame := Frame{Encoding: EncodingGzip, Payload: buf.Bytes()}
	data, err := msgpack.Marshal(&frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}

	var tag string
	if err := DecodeFrame(data, &tag); err != nil {
		t.Fatalf("DecodeFrame with gzip payload: %v", err)
	}
	if tag != "GetInfo" {
		t.Fatalf("tag = %q, want GetInfo", tag)
	}
}

func TestDecodeFrame_UnknownEncoding(t *testing.T) {
	frame := Frame{Encoding: Encoding(99), Payload: []byte("x")}
	data, err := msgpack.Marshal(&frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}

	var out any
	err = DecodeFrame(data, &out)
	if err == nil {
		t.Fatal("expected error for unknown encoding tag")
	}
	var decErr *DecodeError
	if !asDecodeError(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}

func TestServerMessage_StreamData_RoundTrip(t *testing.T) {
	payload, err := PrebuiltPayload{TransactionBytes: []byte{0xde, 0xad}}.MarshalMsgpack()
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	msg := StreamData{
		CorrelationID: 3,
		Payload: SwapQuotes{
			Quotes: []WireQuote{{
				ProviderID: "jupiter",
				InAmount:   100,
				OutAmount:  95,
				Payload:    payload,
			}},
		},
	}

	data, err := msgpack.Marshal(map[string]StreamData{"StreamData": msg})
	if err != nil {
		t.Fatalf("marshal StreamData envelope: %v", err)
	}
	framed, err := EncodeFrame(rawMessage(data))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	decoded, err := DecodeServerMessage(framed)
	if err != nil {
		t.Fatalf("DecodeServerMessage: %v", err)
	}
	sd, ok := decoded.(StreamData)
	if !ok {
		t.Fatalf("decoded = %T, want StreamData", decoded)
	}
	if len(sd.Payload.Quotes) != 1 || sd.Payload.Quotes[0].OutAmount != 95 {
		t.Fatalf("unexpected decoded quotes: %+v", sd.Payload.Quotes)
	}

	quotePayload, err := DecodeQuotePayload(sd.Payload.Quotes[0].Payload)
	if err != nil {
		t.Fatalf("DecodeQuotePayload: %v", err)
	}
	prebuilt, ok := quotePayload.(PrebuiltPayload)
	if !ok {
		t.Fatalf("quotePayload = %T, want PrebuiltPayload", quotePayload)
	}
	if !bytes.Equal(prebuilt.TransactionBytes, []byte{0xde, 0xad}) {
		t.Fatalf("transaction bytes mismatch: %x", prebuilt.TransactionBytes)
	}
}

func TestServerMessage_UnknownTag(t *testing.T) {
	data, err := msgpack.Marshal(map[string]string{"Bogus": "x"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	framed, err := EncodeFrame(rawMessage(data))
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	_, err = DecodeServerMessage(framed)
	if err == nil {
		t.Fatal("expected error for unknown server message tag")
	}
}

// rawMessage lets a test feed already-encoded msgpack bytes through
// EncodeFrame without a second encoding pass.
type rawMessage []byte

func (r rawMessage) MarshalMsgpack() ([]byte, error) { return r, nil }

func asDecodeError(err error, target **DecodeError) bool {
	de, ok := err.(*DecodeError)
	if !ok {
		return false
	}
	*target = de
	return true
}
