package txassembler

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/solana"
	"solana-swap-agent/internal/swaperr"
)

func mustMint(t *testing.T, seed byte) domain.Mint {
	t.Helper()
	var m domain.Mint
	for i := range m {
		m[i] = seed
	}
	return m
}

func newDelegateKeypair(t *testing.T) domain.Keypair {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	var pk domain.Mint
	copy(pk[:], pub)
	return domain.Keypair{PublicKey: pk, PrivateKey: priv}
}

func TestSerializeParseTransaction_RoundTrip(t *testing.T) {
	delegate := newDelegateKeypair(t)
	other := mustMint(t, 2)

	msg := domain.VersionedMessage{
		Header: domain.MessageHeader{NumRequiredSignatures: 1, NumReadonlyUnsignedAccounts: 1},
		AccountKeys: []domain.Mint{
			delegate.PublicKey,
			other,
		},
		Instructions: []domain.CompiledInstruction{
			{ProgramIDIndex: 1, AccountIndexes: []uint8{0}, Data: []byte{1, 2, 3}},
		},
	}

	signed, err := signTransaction(delegate, msg, 0)
	if err != nil {
		t.Fatalf("signTransaction: %v", err)
	}

	raw := serializeTransaction(signed)
	parsed, err := parseTransaction(raw)
	if err != nil {
		t.Fatalf("parseTransaction: %v", err)
	}

	if parsed.Message.Header != signed.Message.Header {
		t.Fatalf("header mismatch: got %+v, want %+v", parsed.Message.Header, signed.Message.Header)
	}
	if len(parsed.Message.AccountKeys) != 2 || parsed.Message.AccountKeys[0] != delegate.PublicKey {
		t.Fatalf("account keys mismatch: %v", parsed.Message.AccountKeys)
	}
	if !bytes.Equal(parsed.Signatures[0][:], signed.Signatures[0][:]) {
		t.Fatal("signature did not round-trip")
	}
}

func TestCheckDelegation_RejectsExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	d := domain.Delegation{MaxSolPerTx: 1, MaxTokenPerTx: 1, ExpiresAt: &past}
	req := domain.QuoteRequest{InputMint: domain.WrappedSOLMint, InputAmount: 1}

	err := checkDelegation(d, req, 9, time.Now())
	if !swaperr.Is(err, swaperr.KindDelegationInvalid) {
		t.Fatalf("expected delegation_invalid, got %v", err)
	}
}

func TestCheckDelegation_RejectsEmptyAllowedPrograms(t *testing.T) {
	d := domain.Delegation{MaxSolPerTx: 1, MaxTokenPerTx: 1}
	req := domain.QuoteRequest{InputMint: domain.WrappedSOLMint, InputAmount: 1}

	err := checkDelegation(d, req, 9, time.Now())
	if !swaperr.Is(err, swaperr.KindDelegationInvalid) {
		t.Fatalf("expected delegation_invalid for an empty allowed-programs list, got %v", err)
	}
}

func TestCheckDelegation_RejectsDisallowedProgram(t *testing.T) {
	d := domain.Delegation{MaxSolPerTx: 1, MaxTokenPerTx: 1, AllowedPrograms: []string{"Orca"}}
	req := domain.QuoteRequest{InputMint: domain.WrappedSOLMint, InputAmount: 1}

	err := checkDelegation(d, req, 9, time.Now())
	if !swaperr.Is(err, swaperr.KindDelegationInvalid) {
		t.Fatalf("expected delegation_invalid, got %v", err)
	}
}

func TestCheckDelegation_EnforcesSolCap(t *testing.T) {
	d := domain.Delegation{MaxSolPerTx: 0.01, MaxTokenPerTx: 1, AllowedPrograms: domain.DefaultAllowedPrograms}
	req := domain.QuoteRequest{
		InputMint:   domain.WrappedSOLMint,
		InputAmount: 1_000_000_000, // 1 SOL in lamports, far over the 0.01 cap
	}

	err := checkDelegation(d, req, domain.WrappedNativeDecimals, time.Now())
	if !swaperr.Is(err, swaperr.KindDelegationInvalid) {
		t.Fatalf("expected delegation_invalid for exceeding max_sol_per_tx, got %v", err)
	}
}

func TestCheckDelegation_EnforcesTokenCapInBaseUnits(t *testing.T) {
	usdc := mustMint(t, 9)
	d := domain.Delegation{MaxSolPerTx: 1, MaxTokenPerTx: 100, AllowedPrograms: domain.DefaultAllowedPrograms}
	req := domain.QuoteRequest{
		InputMint:   usdc,
		InputAmount: 50_000_000, // 50 USDC at 6 decimals, under the 100 cap
	}

	if err := checkDelegation(d, req, 6, time.Now()); err != nil {
		t.Fatalf("expected no error for amount under cap, got %v", err)
	}

	req.InputAmount = 150_000_000 // 150 USDC, over the 100 cap
	err := checkDelegation(d, req, 6, time.Now())
	if !swaperr.Is(err, swaperr.KindDelegationInvalid) {
		t.Fatalf("expected delegation_invalid for exceeding max_token_per_tx, got %v", err)
	}
}

func TestCompileInstructions_CompressesViaALT(t *testing.T) {
	delegate := newDelegateKeypair(t)
	programID := mustMint(t, 1)
	lookupAddr := mustMint(t, 2)
	resolvable := mustMint(t, 3)

	table := domain.AddressLookupTable{
		Address:   lookupAddr,
		Addresses: []domain.Mint{resolvable},
	}

	instructions := []domain.Instruction{
		{
			ProgramID: programID,
			Accounts: []domain.AccountMeta{
				{Pubkey: delegate.PublicKey, IsSigner: true, IsWritable: true},
				{Pubkey: resolvable, IsSigner: false, IsWritable: true},
			},
			Data: []byte{9},
		},
	}

	msg, err := compileInstructions(delegate.PublicKey, instructions, []domain.AddressLookupTable{table}, [32]byte{})
	if err != nil {
		t.Fatalf("compileInstructions: %v", err)
	}

	if len(msg.AccountKeys) != 2 {
		t.Fatalf("expected 2 static keys (fee payer + program id), got %d: %v", len(msg.AccountKeys), msg.AccountKeys)
	}
	if len(msg.AddressTableLookups) != 1 || len(msg.AddressTableLookups[0].WritableIndexes) != 1 {
		t.Fatalf("expected one ALT lookup with one writable index, got %+v", msg.AddressTableLookups)
	}

	instr := msg.Instructions[0]
	if int(instr.AccountIndexes[1]) != len(msg.AccountKeys) {
		t.Fatalf("lookup-resolved account should index past the static region: got %d, want %d", instr.AccountIndexes[1], len(msg.AccountKeys))
	}
}

func TestCompileInstructions_WritableProgramIDStaysStatic(t *testing.T) {
	delegate := newDelegateKeypair(t)
	programID := mustMint(t, 1)
	lookupAddr := mustMint(t, 2)

	// The program id also appears elsewhere in the same ALT, but since
	// some instruction marks it writable, it must remain static.
	table := domain.AddressLookupTable{
		Address:   lookupAddr,
		Addresses: []domain.Mint{programID},
	}

	instructions := []domain.Instruction{
		{
			ProgramID: programID,
			Accounts: []domain.AccountMeta{
				{Pubkey: delegate.PublicKey, IsSigner: true, IsWritable: true},
				{Pubkey: programID, IsSigner: false, IsWritable: true},
			},
		},
	}

	msg, err := compileInstructions(delegate.PublicKey, instructions, []domain.AddressLookupTable{table}, [32]byte{})
	if err != nil {
		t.Fatalf("compileInstructions: %v", err)
	}

	found := false
	for _, k := range msg.AccountKeys {
		if k == programID {
			found = true
		}
	}
	if !found {
		t.Fatal("writable program id should stay in the static key list")
	}
	if len(msg.AddressTableLookups) != 0 {
		t.Fatalf("expected no ALT lookups, got %+v", msg.AddressTableLookups)
	}
}

func newAssemblerTestServer(t *testing.T, altAddr domain.Mint, altAddresses []domain.Mint) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		if bytes.Contains(body, []byte("getAccountInfo")) {
			data := altAccountData(altAddresses)
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":{"lamports":1,"owner":"x","data":["` + data + `","base64"],"executable":false,"rentEpoch":0}}}`))
			return
		}
		if bytes.Contains(body, []byte("getLatestBlockhash")) {
			w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":{"blockhash":"` + domain.WrappedSOLMint.String() + `","lastValidBlockHeight":100}}}`))
			return
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-1,"message":"unhandled method"}}`))
	})
	return httptest.NewServer(mux)
}

func altAccountData(addresses []domain.Mint) string {
	header := make([]byte, 61)
	var body []byte
	for _, a := range addresses {
		body = append(body, a.Bytes()...)
	}
	return base64.StdEncoding.EncodeToString(append(header, body...))
}

func TestAssembleFromInstructions_SizeRescueViaALT(t *testing.T) {
	delegate := newDelegateKeypair(t)
	programID := mustMint(t, 1)
	lookupAddr := mustMint(t, 2)

	const numAccounts = 40
	var resolvable []domain.Mint
	accounts := []domain.AccountMeta{{Pubkey: delegate.PublicKey, IsSigner: true, IsWritable: true}}
	for i := 0; i < numAccounts; i++ {
		m := mustMint(t, byte(10+i))
		resolvable = append(resolvable, m)
		accounts = append(accounts, domain.AccountMeta{Pubkey: m, IsWritable: true})
	}

	server := newAssemblerTestServer(t, lookupAddr, resolvable)
	defer server.Close()
	rpc := solana.NewHTTPClient(server.URL)

	quote := domain.Quote{
		Payload: domain.QuotePayload{
			Instructions: &domain.InstructionsPayload{
				Instructions: []domain.Instruction{{ProgramID: programID, Accounts: accounts, Data: []byte{1}}},
				LookupTables: []domain.Mint{lookupAddr},
			},
		},
	}

	params := Params{
		Quote:         quote,
		Request:       domain.QuoteRequest{InputMint: domain.WrappedSOLMint, InputAmount: 1},
		Delegation:    domain.Delegation{MaxSolPerTx: 10, MaxTokenPerTx: 10, AllowedPrograms: domain.DefaultAllowedPrograms, DelegateKeypair: delegate},
		InputDecimals: domain.WrappedNativeDecimals,
	}

	result, err := Assemble(context.Background(), rpc, params)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if size := len(serializeTransaction(result.Transaction)); size > domain.MaxTransactionSize {
		t.Fatalf("assembled size %d exceeds budget %d", size, domain.MaxTransactionSize)
	}
	if result.LastValidBlockHeight == 0 {
		t.Fatal("expected a non-zero last valid block height from the mocked RPC")
	}
}

func TestAssemble_DelegationExpiredNeverSigns(t *testing.T) {
	delegate := newDelegateKeypair(t)
	past := time.Now().Add(-time.Second)

	quote := domain.Quote{
		Payload: domain.QuotePayload{
			Prebuilt: &domain.PrebuiltPayload{TransactionBytes: []byte{1, 2, 3}},
		},
	}

	params := Params{
		Quote:         quote,
		Request:       domain.QuoteRequest{InputMint: domain.WrappedSOLMint, InputAmount: 1},
		Delegation:    domain.Delegation{MaxSolPerTx: 1, MaxTokenPerTx: 1, ExpiresAt: &past, DelegateKeypair: delegate},
		InputDecimals: domain.WrappedNativeDecimals,
	}

	_, err := Assemble(context.Background(), nil, params)
	if !swaperr.Is(err, swaperr.KindDelegationInvalid) {
		t.Fatalf("expected delegation_invalid, got %v", err)
	}
}
