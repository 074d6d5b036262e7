// pkg/bonfidabot/seed.go
package bonfidabot

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
)

// PoolSeed is the ordered list of seed buffers the pool address is derived
// from. The same bytes, concatenated verbatim, prefix every instruction
// payload so the program can re-derive the address.
type PoolSeed [][]byte

// Bytes concatenates the buffers in order.
func (s PoolSeed) Bytes() []byte {
	return bytes.Join(s, nil)
}

// Len is the total byte length of the seed.
func (s PoolSeed) Len() int {
	return lo.SumBy(s, func(b []byte) int { return len(b) })
}

func (s PoolSeed) IsEmpty() bool {
	return s.Len() == 0
}

// Clone returns a deep copy so callers can keep mutating their buffers.
func (s PoolSeed) Clone() PoolSeed {
	return lo.Map(s, func(b []byte, _ int) []byte { return bytes.Clone(b) })
}

// CreatePoolAddress derives the pool address for an already bumped seed.
func CreatePoolAddress(programID solana.PublicKey, seed PoolSeed) (solana.PublicKey, error) {
	if seed.IsEmpty() {
		return solana.PublicKey{}, fieldErr("derive", "pool_seed", ErrMissingField)
	}
	addr, err := solana.CreateProgramAddress(seed, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to create pool address: %w", err)
	}
	return addr, nil
}

// FindPoolSeed searches the bump for base and returns the seed [base, bump]
// together with the pool address it derives to.
func FindPoolSeed(programID solana.PublicKey, base []byte) (PoolSeed, solana.PublicKey, error) {
	if len(base) == 0 {
		return nil, solana.PublicKey{}, fieldErr("derive", "base", ErrMissingField)
	}
	if len(base) > solana.MaxSeedLength {
		return nil, solana.PublicKey{}, fieldErr("derive", "base",
			fmt.Errorf("%w: seed of %d bytes exceeds %d", ErrRange, len(base), solana.MaxSeedLength))
	}
	addr, bump, err := solana.FindProgramAddress([][]byte{base}, programID)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("failed to find pool address: %w", err)
	}
	return PoolSeed{base, {bump}}.Clone(), addr, nil
}
