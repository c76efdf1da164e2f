package txassembler

import (
	"sort"

	"solana-swap-agent/internal/domain"
	"solana-swap-agent/internal/swaperr"
)

type keyUsage struct {
	isSigner    bool
	isWritable  bool
	isProgramID bool
}

// lookupResolution records where a non-static key was found: which ALT,
// at which index within that ALT's address list, and whether it is
// referenced as writable anywhere.
type lookupResolution struct {
	mint       domain.Mint
	tableIndex int
	indexInALT uint8
	isWritable bool
}

// compileInstructions implements §4.6 Path B steps 2-6: collect the
// account key universe, partition it into static vs ALT-resolvable keys,
// compile each instruction's references into the final key layout, and
// build the versioned message.
func compileInstructions(
	feePayer domain.Mint,
	instructions []domain.Instruction,
	lookupTables []domain.AddressLookupTable,
	recentBlockhash [32]byte,
) (domain.VersionedMessage, error) {
	usage := map[domain.Mint]*keyUsage{}
	ensure := func(m domain.Mint) *keyUsage {
		u, ok := usage[m]
		if !ok {
			u = &keyUsage{}
			usage[m] = u
		}
		return u
	}

	ensure(feePayer).isSigner = true
	ensure(feePayer).isWritable = true

	var order []domain.Mint
	seen := map[domain.Mint]bool{feePayer: true}
	order = append(order, feePayer)

	for _, instr := range instructions {
		if err := validateProgramID(instr.ProgramID); err != nil {
			return domain.VersionedMessage{}, err
		}
		ensure(instr.ProgramID).isProgramID = true
		if !seen[instr.ProgramID] {
			seen[instr.ProgramID] = true
			order = append(order, instr.ProgramID)
		}

		for _, acct := range instr.Accounts {
			u := ensure(acct.Pubkey)
			if acct.IsSigner {
				u.isSigner = true
			}
			if acct.IsWritable {
				u.isWritable = true
			}
			if !seen[acct.Pubkey] {
				seen[acct.Pubkey] = true
				order = append(order, acct.Pubkey)
			}
		}
	}

	altIndex := make(map[domain.Mint]struct {
		table int
		pos   uint8
	})
	for ti, table := range lookupTables {
		for pos, addr := range table.Addresses {
			if pos > 255 {
				break
			}
			if _, exists := altIndex[addr]; !exists {
				altIndex[addr] = struct {
					table int
					pos   uint8
				}{ti, uint8(pos)}
			}
		}
	}

	var staticSignerWritable, staticSignerReadonly []domain.Mint
	var staticNonSignerWritable, staticNonSignerReadonly []domain.Mint
	var resolutions []lookupResolution

	for _, m := range order {
		u := usage[m]
		_, inALT := altIndex[m]

		mustBeStatic := m == feePayer || u.isSigner || (u.isWritable && u.isProgramID) || !inALT

		if mustBeStatic {
			switch {
			case u.isSigner && u.isWritable:
				staticSignerWritable = append(staticSignerWritable, m)
			case u.isSigner && !u.isWritable:
				staticSignerReadonly = append(staticSignerReadonly, m)
			case u.isWritable:
				staticNonSignerWritable = append(staticNonSignerWritable, m)
			default:
				staticNonSignerReadonly = append(staticNonSignerReadonly, m)
			}
			continue
		}

		loc := altIndex[m]
		resolutions = append(resolutions, lookupResolution{
			mint:       m,
			tableIndex: loc.table,
			indexInALT: loc.pos,
			isWritable: u.isWritable,
		})
	}

	// Fee payer must lead the static-signer-writable group.
	staticSignerWritable = bringToFront(staticSignerWritable, feePayer)

	staticKeys := append(append(append(append([]domain.Mint{},
		staticSignerWritable...), staticSignerReadonly...),
		staticNonSignerWritable...), staticNonSignerReadonly...)

	keyIndex := make(map[domain.Mint]uint8, len(staticKeys))
	for i, m := range staticKeys {
		keyIndex[m] = uint8(i)
	}

	writableLookup, readonlyLookup := partitionResolutions(resolutions)
	lookupWritableOffset := len(staticKeys)
	lookupReadonlyOffset := lookupWritableOffset + len(writableLookup)

	for i, r := range writableLookup {
		keyIndex[r.mint] = uint8(lookupWritableOffset + i)
	}
	for i, r := range readonlyLookup {
		keyIndex[r.mint] = uint8(lookupReadonlyOffset + i)
	}

	compiled := make([]domain.CompiledInstruction, 0, len(instructions))
	for _, instr := range instructions {
		idx := make([]uint8, 0, len(instr.Accounts))
		for _, acct := range instr.Accounts {
			idx = append(idx, keyIndex[acct.Pubkey])
		}
		compiled = append(compiled, domain.CompiledInstruction{
			ProgramIDIndex: keyIndex[instr.ProgramID],
			AccountIndexes: idx,
			Data:           instr.Data,
		})
	}

	lookups := buildTableLookups(lookupTables, writableLookup, readonlyLookup)

	header := domain.MessageHeader{
		NumRequiredSignatures:       uint8(len(staticSignerWritable) + len(staticSignerReadonly)),
		NumReadonlySignedAccounts:   uint8(len(staticSignerReadonly)),
		NumReadonlyUnsignedAccounts: uint8(len(staticNonSignerReadonly)),
	}

	return domain.VersionedMessage{
		Header:              header,
		AccountKeys:         staticKeys,
		RecentBlockhash:     recentBlockhash,
		Instructions:        compiled,
		AddressTableLookups: lookups,
	}, nil
}

func bringToFront(keys []domain.Mint, front domain.Mint) []domain.Mint {
	out := make([]domain.Mint, 0, len(keys))
	out = append(out, front)
	for _, k := range keys {
		if k != front {
			out = append(out, k)
		}
	}
	return out
}

func partitionResolutions(resolutions []lookupResolution) (writable, readonly []lookupResolution) {
	sorted := make([]lookupResolution, len(resolutions))
	copy(sorted, resolutions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].tableIndex != sorted[j].tableIndex {
			return sorted[i].tableIndex < sorted[j].tableIndex
		}
		return sorted[i].indexInALT < sorted[j].indexInALT
	})
	for _, r := range sorted {
		if r.isWritable {
			writable = append(writable, r)
		} else {
			readonly = append(readonly, r)
		}
	}
	return writable, readonly
}

func buildTableLookups(tables []domain.AddressLookupTable, writable, readonly []lookupResolution) []domain.MessageAddressTableLookup {
	byTable := map[int]*domain.MessageAddressTableLookup{}
	order := []int{}

	get := func(tableIndex int) *domain.MessageAddressTableLookup {
		l, ok := byTable[tableIndex]
		if !ok {
			l = &domain.MessageAddressTableLookup{AccountKey: tables[tableIndex].Address}
			byTable[tableIndex] = l
			order = append(order, tableIndex)
		}
		return l
	}

	for _, r := range writable {
		l := get(r.tableIndex)
		l.WritableIndexes = append(l.WritableIndexes, r.indexInALT)
	}
	for _, r := range readonly {
		l := get(r.tableIndex)
		l.ReadonlyIndexes = append(l.ReadonlyIndexes, r.indexInALT)
	}

	sort.Ints(order)
	out := make([]domain.MessageAddressTableLookup, 0, len(order))
	for _, ti := range order {
		out = append(out, *byTable[ti])
	}
	return out
}

func validateProgramID(m domain.Mint) error {
	if m == (domain.Mint{}) {
		return swaperr.New(swaperr.KindDecodeFailed, "instruction program id is the zero pubkey")
	}
	return nil
}
