package txassembler

import (
	"bytes"
	"fmt"

	"solana-swap-agent/internal/domain"
)

// versionedMessagePrefix marks a MessageV0 payload, per the versioned
// transaction wire format (the high bit set on the first byte signals
// "versioned", the low bits carry the version number).
const versionedMessagePrefix = 0x80

// encodeShortVecLen writes n using Solana's compact-u16 ("shortvec")
// encoding: 7 bits per byte, continuation bit set on all but the last.
func encodeShortVecLen(buf *bytes.Buffer, n int) {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			buf.WriteByte(b | 0x80)
		} else {
			buf.WriteByte(b)
			return
		}
	}
}

// serializeMessage renders a VersionedMessage to the exact bytes that are
// signed and broadcast: a version prefix, the three-count header, a
// shortvec-length account key array, the blockhash, a shortvec-length
// compiled-instruction array, and a shortvec-length ALT-lookup array.
func serializeMessage(msg domain.VersionedMessage) []byte {
	var buf bytes.Buffer

	buf.WriteByte(versionedMessagePrefix)
	buf.WriteByte(msg.Header.NumRequiredSignatures)
	buf.WriteByte(msg.Header.NumReadonlySignedAccounts)
	buf.WriteByte(msg.Header.NumReadonlyUnsignedAccounts)

	encodeShortVecLen(&buf, len(msg.AccountKeys))
	for _, k := range msg.AccountKeys {
		buf.Write(k.Bytes())
	}

	buf.Write(msg.RecentBlockhash[:])

	encodeShortVecLen(&buf, len(msg.Instructions))
	for _, instr := range msg.Instructions {
		buf.WriteByte(instr.ProgramIDIndex)
		encodeShortVecLen(&buf, len(instr.AccountIndexes))
		buf.Write(instr.AccountIndexes)
		encodeShortVecLen(&buf, len(instr.Data))
		buf.Write(instr.Data)
	}

	encodeShortVecLen(&buf, len(msg.AddressTableLookups))
	for _, lookup := range msg.AddressTableLookups {
		buf.Write(lookup.AccountKey.Bytes())
		encodeShortVecLen(&buf, len(lookup.WritableIndexes))
		buf.Write(lookup.WritableIndexes)
		encodeShortVecLen(&buf, len(lookup.ReadonlyIndexes))
		buf.Write(lookup.ReadonlyIndexes)
	}

	return buf.Bytes()
}

// Serialize renders a signed VersionedTransaction to the exact bytes
// chain RPC expects for simulateTransaction/sendTransaction.
func Serialize(tx domain.VersionedTransaction) []byte {
	return serializeTransaction(tx)
}

// serializeTransaction renders a full VersionedTransaction: a
// shortvec-length signature array followed by the serialized message.
func serializeTransaction(tx domain.VersionedTransaction) []byte {
	var buf bytes.Buffer

	encodeShortVecLen(&buf, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		buf.Write(sig[:])
	}
	buf.Write(serializeMessage(tx.Message))

	return buf.Bytes()
}

// wireReader walks a byte slice left to right, tracking position.
type wireReader struct {
	data []byte
	pos  int
}

func (r *wireReader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("unexpected end of data at offset %d", r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *wireReader) readN(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("unexpected end of data reading %d bytes at offset %d", n, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// readShortVecLen decodes Solana's compact-u16 length prefix.
func (r *wireReader) readShortVecLen() (int, error) {
	var n int
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		n |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return n, nil
		}
		shift += 7
		if shift > 21 {
			return 0, fmt.Errorf("shortvec length prefix too long")
		}
	}
}

func (r *wireReader) readMint() (domain.Mint, error) {
	b, err := r.readN(32)
	if err != nil {
		return domain.Mint{}, err
	}
	return domain.MintFromBytes(b)
}

// parseTransaction decodes the wire bytes of a versioned transaction
// produced by serializeTransaction, for Path A's deserialize-then-resign
// flow. Only MessageV0 is supported.
func parseTransaction(data []byte) (domain.VersionedTransaction, error) {
	r := &wireReader{data: data}

	numSigs, err := r.readShortVecLen()
	if err != nil {
		return domain.VersionedTransaction{}, fmt.Errorf("read signature count: %w", err)
	}
	sigs := make([][64]byte, numSigs)
	for i := range sigs {
		b, err := r.readN(64)
		if err != nil {
			return domain.VersionedTransaction{}, fmt.Errorf("read signature %d: %w", i, err)
		}
		copy(sigs[i][:], b)
	}

	msg, err := parseMessage(r)
	if err != nil {
		return domain.VersionedTransaction{}, err
	}

	return domain.VersionedTransaction{Signatures: sigs, Message: msg}, nil
}

func parseMessage(r *wireReader) (domain.VersionedMessage, error) {
	prefix, err := r.readByte()
	if err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read version prefix: %w", err)
	}
	if prefix&versionedMessagePrefix == 0 {
		return domain.VersionedMessage{}, fmt.Errorf("legacy (non-versioned) messages are not supported")
	}
	if prefix&0x7f != 0 {
		return domain.VersionedMessage{}, fmt.Errorf("unsupported message version %d", prefix&0x7f)
	}

	var header domain.MessageHeader
	if header.NumRequiredSignatures, err = r.readByte(); err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read header: %w", err)
	}
	if header.NumReadonlySignedAccounts, err = r.readByte(); err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read header: %w", err)
	}
	if header.NumReadonlyUnsignedAccounts, err = r.readByte(); err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read header: %w", err)
	}

	numKeys, err := r.readShortVecLen()
	if err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read account key count: %w", err)
	}
	keys := make([]domain.Mint, numKeys)
	for i := range keys {
		if keys[i], err = r.readMint(); err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read account key %d: %w", i, err)
		}
	}

	blockhashBytes, err := r.readN(32)
	if err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read blockhash: %w", err)
	}
	var blockhash [32]byte
	copy(blockhash[:], blockhashBytes)

	numInstr, err := r.readShortVecLen()
	if err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read instruction count: %w", err)
	}
	instructions := make([]domain.CompiledInstruction, numInstr)
	for i := range instructions {
		programIdx, err := r.readByte()
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read instruction %d program index: %w", i, err)
		}
		numAccts, err := r.readShortVecLen()
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read instruction %d account count: %w", i, err)
		}
		accts, err := r.readN(numAccts)
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read instruction %d accounts: %w", i, err)
		}
		dataLen, err := r.readShortVecLen()
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read instruction %d data length: %w", i, err)
		}
		instrData, err := r.readN(dataLen)
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read instruction %d data: %w", i, err)
		}

		accountIndexes := make([]byte, len(accts))
		copy(accountIndexes, accts)
		data := make([]byte, len(instrData))
		copy(data, instrData)

		instructions[i] = domain.CompiledInstruction{
			ProgramIDIndex: programIdx,
			AccountIndexes: accountIndexes,
			Data:           data,
		}
	}

	numLookups, err := r.readShortVecLen()
	if err != nil {
		return domain.VersionedMessage{}, fmt.Errorf("read ALT lookup count: %w", err)
	}
	lookups := make([]domain.MessageAddressTableLookup, numLookups)
	for i := range lookups {
		key, err := r.readMint()
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read ALT lookup %d key: %w", i, err)
		}
		numWritable, err := r.readShortVecLen()
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read ALT lookup %d writable count: %w", i, err)
		}
		writable, err := r.readN(numWritable)
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read ALT lookup %d writable indexes: %w", i, err)
		}
		numReadonly, err := r.readShortVecLen()
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read ALT lookup %d readonly count: %w", i, err)
		}
		readonly, err := r.readN(numReadonly)
		if err != nil {
			return domain.VersionedMessage{}, fmt.Errorf("read ALT lookup %d readonly indexes: %w", i, err)
		}

		w := make([]byte, len(writable))
		copy(w, writable)
		ro := make([]byte, len(readonly))
		copy(ro, readonly)

		lookups[i] = domain.MessageAddressTableLookup{
			AccountKey:      key,
			WritableIndexes: w,
			ReadonlyIndexes: ro,
		}
	}

	return domain.VersionedMessage{
		Header:              header,
		AccountKeys:          keys,
		RecentBlockhash:      blockhash,
		Instructions:         instructions,
		AddressTableLookups:  lookups,
	}, nil
}
