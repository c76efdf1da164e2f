package solana

import (
	"context"
	"encoding/base64"
)

// Blockhash is a recent blockhash together with the last block height at which a
// transaction referencing it may still land.
type Blockhash struct {
	Blockhash            string
	LastValidBlockHeight uint64
}

// GetLatestBlockhash retrieves a recent blockhash for transaction assembly.
func (c *HTTPClient) GetLatestBlockhash(ctx context.Context) (*Blockhash, error) {
	var result getLatestBlockhashResult
	if err := c.call(ctx, "getLatestBlockhash", nil, &result); err != nil {
		return nil, err
	}
	return &Blockhash{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

type getLatestBlockhashResult struct {
	Value struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	} `json:"value"`
}

// SimulateError carries the chain's own description of why a simulated
// transaction would fail, including program logs useful for classification.
type SimulateError struct {
	Err  interface{} `json:"err"`
	Logs []string    `json:"logs"`
}

// SimulateTransaction preflights a raw signed transaction without
// broadcasting it. A non-nil SimulateError means the chain rejected it;
// a nil error with a nil SimulateError means it would succeed.
func (c *HTTPClient) SimulateTransaction(ctx context.Context, rawTx []byte) (*SimulateError, error) {
	encoded := base64.StdEncoding.EncodeToString(rawTx)
	params := []interface{}{
		encoded,
		map[string]interface{}{
			"encoding":               "base64",
			"sigVerify":              false,
			"replaceRecentBlockhash": false,
		},
	}

	var result simulateTransactionResult
	if err := c.call(ctx, "simulateTransaction", params, &result); err != nil {
		return nil, err
	}
	if result.Value.Err == nil {
		return nil, nil
	}
	return &SimulateError{Err: result.Value.Err, Logs: result.Value.Logs}, nil
}

type simulateTransactionResult struct {
	Value struct {
		Err  interface{} `json:"err"`
		Logs []string    `json:"logs"`
	} `json:"value"`
}

// SendTransaction submits a raw signed transaction and returns its
// signature. The chain does not wait for confirmation.
func (c *HTTPClient) SendTransaction(ctx context.Context, rawTx []byte) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(rawTx)
	params := []interface{}{
		encoded,
		map[string]interface{}{
			"encoding":    "base64",
			"skipPreflight": true,
		},
	}

	var signature string
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// SignatureStatus is one entry of getSignatureStatuses' per-signature result.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64
	Err                interface{}
	ConfirmationStatus string
}

// GetSignatureStatuses looks up confirmation status for a batch of
// signatures. An entry is nil if the chain has no record of it.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": true},
	}

	var result getSignatureStatusesResult
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	out := make([]*SignatureStatus, len(result.Value))
	for i, v := range result.Value {
		if v == nil {
			continue
		}
		out[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			Err:                v.Err,
			ConfirmationStatus: v.ConfirmationStatus,
		}
	}
	return out, nil
}

type getSignatureStatusesResult struct {
	Value []*getSignatureStatusValue `json:"value"`
}

type getSignatureStatusValue struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}
