package domain

// MessageHeader carries the three signer/writable counts that let a
// versioned message's account list be interpreted without extra metadata:
// the first NumRequiredSignatures keys must sign, and within both the
// signer and non-signer partitions, the last NumReadonly* keys are
// read-only.
type MessageHeader struct {
	NumRequiredSignatures      uint8
	NumReadonlySignedAccounts  uint8
	NumReadonlyUnsignedAccounts uint8
}

// CompiledInstruction references accounts by index into a message's
// resolved account-key list (static keys followed by ALT-resolved keys),
// not by raw pubkey.
type CompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []byte
}

// MessageAddressTableLookup names one ALT this message draws from, and
// which of its entries are pulled in as writable vs read-only.
type MessageAddressTableLookup struct {
	AccountKey      Mint
	WritableIndexes []uint8
	ReadonlyIndexes []uint8
}

// VersionedMessage is the MessageV0 body of a versioned transaction: a
// small set of statically-listed account keys plus zero or more ALT
// lookups that extend the effective account list at broadcast time.
type VersionedMessage struct {
	Header          MessageHeader
	AccountKeys     []Mint
	RecentBlockhash [32]byte
	Instructions    []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

// VersionedTransaction pairs a compiled message with its signatures. Each
// signature corresponds positionally to the first len(Signatures) entries
// of Message.AccountKeys.
type VersionedTransaction struct {
	Signatures [][64]byte
	Message    VersionedMessage
}

// MaxTransactionSize is Solana's hard wire-size ceiling for a single
// transaction (packet MTU minus headers). The assembler must keep every
// compiled transaction at or under this many bytes.
const MaxTransactionSize = 1232
