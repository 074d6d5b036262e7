// pkg/bonfidabot/numbers.go
package bonfidabot

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// U16, U32 and U64 are the fixed-width integers of the wire format. Values
// can only be built through constructors that check the range, so an
// oversized input fails instead of being truncated.
type (
	U16 struct{ v uint16 }
	U32 struct{ v uint32 }
	U64 struct{ v uint64 }
)

var maxU64 = new(big.Int).SetUint64(math.MaxUint64)

func NewU16(v uint64) (U16, error) {
	if v > math.MaxUint16 {
		return U16{}, fmt.Errorf("%w: %d does not fit u16", ErrRange, v)
	}
	return U16{v: uint16(v)}, nil
}

func NewU32(v uint64) (U32, error) {
	if v > math.MaxUint32 {
		return U32{}, fmt.Errorf("%w: %d does not fit u32", ErrRange, v)
	}
	return U32{v: uint32(v)}, nil
}

// NewU64 cannot fail, every uint64 fits.
func NewU64(v uint64) U64 {
	return U64{v: v}
}

func U16FromBig(v *big.Int) (U16, error) {
	u, err := bigToUint64(v, "u16")
	if err != nil {
		return U16{}, err
	}
	return NewU16(u)
}

func U32FromBig(v *big.Int) (U32, error) {
	u, err := bigToUint64(v, "u32")
	if err != nil {
		return U32{}, err
	}
	return NewU32(u)
}

func U64FromBig(v *big.Int) (U64, error) {
	u, err := bigToUint64(v, "u64")
	if err != nil {
		return U64{}, err
	}
	return NewU64(u), nil
}

// U64FromDecimal converts a human amount (e.g. "1.25" tokens) into base
// units using the mint decimals. Amounts with more precision than the mint
// supports are rejected rather than rounded.
func U64FromDecimal(amount decimal.Decimal, decimals uint8) (U64, error) {
	units := amount.Shift(int32(decimals))
	if !units.IsInteger() {
		return U64{}, fmt.Errorf("%w: %s has more than %d decimals", ErrRange, amount.String(), decimals)
	}
	return U64FromBig(units.BigInt())
}

func bigToUint64(v *big.Int, width string) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: nil %s", ErrMissingField, width)
	}
	if v.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative value %s for %s", ErrRange, v.String(), width)
	}
	if v.Cmp(maxU64) > 0 {
		return 0, fmt.Errorf("%w: %s does not fit %s", ErrRange, v.String(), width)
	}
	return v.Uint64(), nil
}

func (n U16) Uint16() uint16 { return n.v }
func (n U32) Uint32() uint32 { return n.v }
func (n U64) Uint64() uint64 { return n.v }

// Bytes returns the little-endian representation.
func (n U16) Bytes() []byte {
	return binary.LittleEndian.AppendUint16(nil, n.v)
}

func (n U32) Bytes() []byte {
	return binary.LittleEndian.AppendUint32(nil, n.v)
}

func (n U64) Bytes() []byte {
	return binary.LittleEndian.AppendUint64(nil, n.v)
}

func (n U16) String() string { return fmt.Sprintf("%d", n.v) }
func (n U32) String() string { return fmt.Sprintf("%d", n.v) }
func (n U64) String() string { return fmt.Sprintf("%d", n.v) }
