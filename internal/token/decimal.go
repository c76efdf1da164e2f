package token

import (
	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a human-readable amount into integer base units for
// the given decimals, using decimal arithmetic throughout so the
// conversion never goes through a lossy float multiplication — the
// redesign flag against original_source's `int(amount * 10**decimals)`.
func ToBaseUnits(amount string, decimals int) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	scaled := d.Shift(int32(decimals)).Round(0)
	return uint64(scaled.IntPart()), nil
}

// FromBaseUnits converts integer base units back into a human-readable
// decimal string for display.
func FromBaseUnits(amount uint64, decimals int) string {
	d := decimal.NewFromInt(int64(amount)).Shift(-int32(decimals))
	return d.String()
}
