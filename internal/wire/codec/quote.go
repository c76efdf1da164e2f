package codec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// SwapQuotes is the StreamData payload: the current candidate set for one
// quote-stream update.
type SwapQuotes struct {
	Quotes []WireQuote `msgpack:"quotes"`
}

// WireRouteStep is one route_description leg, wire-shaped.
type WireRouteStep struct {
	Label      string `msgpack:"label"`
	InputMint  []byte `msgpack:"input_mint"`
	OutputMint []byte `msgpack:"output_mint"`
}

// WireAccountMeta mirrors the Titan instruction account shape
// {p: pubkey, s: is_signer, w: is_writable}.
type WireAccountMeta struct {
	Pubkey     []byte `msgpack:"p"`
	IsSigner   bool   `msgpack:"s"`
	IsWritable bool   `msgpack:"w"`
}

// WireInstruction mirrors the Titan instruction shape
// {p: program_id, a: [account metas], d: data}.
type WireInstruction struct {
	ProgramID []byte            `msgpack:"p"`
	Accounts  []WireAccountMeta `msgpack:"a"`
	Data      []byte            `msgpack:"d"`
}

// QuotePayload is the tagged union of a quote's transaction payload: either
// a server-prebuilt transaction or a raw instruction list for the
// assembler to compile.
type QuotePayload interface {
	quotePayloadTag() string
}

// PrebuiltPayload carries an already-serialized versioned transaction.
type PrebuiltPayload struct {
	TransactionBytes []byte
}

func (PrebuiltPayload) quotePayloadTag() string { return "Prebuilt" }

func (p PrebuiltPayload) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(map[string][]byte{"Prebuilt": p.TransactionBytes})
}

// InstructionsPayload carries raw instructions plus the ALTs needed to
// compress them.
type InstructionsPayload struct {
	Instructions []WireInstruction
	LookupTables [][]byte
}

func (InstructionsPayload) quotePayloadTag() string { return "Instructions" }

type instructionsBody struct {
	Instructions []WireInstruction `msgpack:"instructions"`
	LookupTables [][]byte          `msgpack:"lookup_tables"`
}

func (p InstructionsPayload) MarshalMsgpack() ([]byte, error) {
	return msgpack.Marshal(map[string]instructionsBody{
		"Instructions": {Instructions: p.Instructions, LookupTables: p.LookupTables},
	})
}

// DecodeQuotePayload dispatches raw's single map key to the concrete
// QuotePayload variant it names.
func DecodeQuotePayload(raw msgpack.RawMessage) (QuotePayload, error) {
	var envelope map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(raw, &envelope); err != nil {
		return nil, &DecodeError{Field: "quote_payload", Err: err}
	}
	if len(envelope) != 1 {
		return nil, &DecodeError{Field: "quote_payload", Err: fmt.Errorf("expected exactly one tag, got %d", len(envelope))}
	}

	for tag, data := range envelope {
		switch tag {
		case "Prebuilt":
			var txBytes []byte
			if err := msgpack.Unmarshal(data, &txBytes); err != nil {
				return nil, &DecodeError{Field: "quote_payload.Prebuilt", Err: err}
			}
			return PrebuiltPayload{TransactionBytes: txBytes}, nil
		case "Instructions":
			var body instructionsBody
			if err := msgpack.Unmarshal(data, &body); err != nil {
				return nil, &DecodeError{Field: "quote_payload.Instructions", Err: err}
			}
			return InstructionsPayload{Instructions: body.Instructions, LookupTables: body.LookupTables}, nil
		default:
			return nil, &DecodeError{Field: "quote_payload", Err: fmt.Errorf("unknown payload variant %q", tag)}
		}
	}
	panic("unreachable")
}

// WireQuote is one provider offer, wire-shaped. Payload is decoded lazily
// via DecodeQuotePayload since its shape depends on the tag it carries.
type WireQuote struct {
	ProviderID       string              `msgpack:"provider_id"`
	RouteDescription []WireRouteStep     `msgpack:"route_description"`
	InAmount         uint64              `msgpack:"in_amount"`
	OutAmount        uint64              `msgpack:"out_amount"`
	PriceImpactBps   uint32              `msgpack:"price_impact_bps"`
	PlatformFeesBps  uint32              `msgpack:"platform_fees_bps"`
	ComputeUnits     uint32              `msgpack:"compute_units"`
	Payload          msgpack.RawMessage  `msgpack:"payload"`
}
