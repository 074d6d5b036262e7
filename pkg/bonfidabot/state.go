// pkg/bonfidabot/state.go
package bonfidabot

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
)

const (
	PoolHeaderSize = pubkeySize + 1       // signal_provider + is_initialized
	PoolAssetSize  = pubkeySize + u64Size // mint_address + amount
)

// PoolHeader is the first part of the pool account data.
type PoolHeader struct {
	SignalProvider solana.PublicKey
	IsInitialized  bool
}

// Pack writes the header layout. Writes into a bytes.Buffer cannot fail.
func (h *PoolHeader) Pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PoolHeaderSize))
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteBytes(h.SignalProvider[:], false)
	_ = enc.WriteBool(h.IsInitialized)
	return buf.Bytes()
}

// Unpack reads the header; only the byte value 1 counts as initialized.
func (h *PoolHeader) Unpack(data []byte) error {
	if len(data) < PoolHeaderSize {
		return fmt.Errorf("%w: pool header needs %d bytes, got %d", ErrInvalidAccountData, PoolHeaderSize, len(data))
	}
	h.SignalProvider = solana.PublicKeyFromBytes(data[:pubkeySize])
	h.IsInitialized = data[pubkeySize] == 1
	return nil
}

// PoolAsset is one asset slot of the pool account.
type PoolAsset struct {
	Mint   solana.PublicKey
	Amount uint64
}

// Pack writes the slot layout. Writes into a bytes.Buffer cannot fail.
func (a *PoolAsset) Pack() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PoolAssetSize))
	enc := bin.NewBinEncoder(buf)
	_ = enc.WriteBytes(a.Mint[:], false)
	_ = enc.WriteUint64(a.Amount, bin.LE)
	return buf.Bytes()
}

func (a *PoolAsset) Unpack(data []byte) error {
	if len(data) < PoolAssetSize {
		return fmt.Errorf("%w: pool asset needs %d bytes, got %d", ErrInvalidAccountData, PoolAssetSize, len(data))
	}
	dec := bin.NewBinDecoder(data[:PoolAssetSize])
	mint, err := dec.ReadNBytes(pubkeySize)
	if err != nil {
		return err
	}
	a.Mint = solana.PublicKeyFromBytes(mint)
	a.Amount, err = dec.ReadUint64(bin.LE)
	return err
}

// PoolState is the decoded pool account.
type PoolState struct {
	Header PoolHeader
	// Assets holds every slot in order; empty slots have a zero mint.
	Assets []PoolAsset
}

// PoolAccountSize is the data length of a pool account holding maxAssets slots.
func PoolAccountSize(maxAssets uint32) int {
	return PoolHeaderSize + int(maxAssets)*PoolAssetSize
}

// ParsePoolState decodes a pool account header and all of its asset slots.
func ParsePoolState(data []byte) (*PoolState, error) {
	var state PoolState
	if err := state.Header.Unpack(data); err != nil {
		return nil, err
	}
	rest := data[PoolHeaderSize:]
	if len(rest)%PoolAssetSize != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after pool header", ErrInvalidAccountData, len(rest))
	}
	for off := 0; off < len(rest); off += PoolAssetSize {
		var asset PoolAsset
		if err := asset.Unpack(rest[off:]); err != nil {
			return nil, err
		}
		state.Assets = append(state.Assets, asset)
	}
	return &state, nil
}

// Filled returns the non-empty slots.
func (s *PoolState) Filled() []PoolAsset {
	return lo.Filter(s.Assets, func(a PoolAsset, _ int) bool { return !a.Mint.IsZero() })
}

// AssetIndex returns the slot index holding mint. This is the index the
// CreateOrder instruction expects.
func (s *PoolState) AssetIndex(mint solana.PublicKey) (int, bool) {
	if mint.IsZero() {
		return -1, false
	}
	for i, a := range s.Assets {
		if a.Mint.Equals(mint) {
			return i, true
		}
	}
	return -1, false
}
