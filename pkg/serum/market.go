// pkg/serum/market.go
package serum

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"

	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
)

// MarketSize is the data length of a serum dex v3 market account.
const MarketSize = 388

// Market is the serum dex v3 market state. Only the addresses an order
// needs are consumed by this module, the rest is kept for inspection.
type Market struct {
	Padding0     [5]uint8
	AccountFlags [8]uint8

	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey

	BaseVault         solana.PublicKey
	BaseDepositsTotal uint64
	BaseFeesAccrued   uint64

	QuoteVault         solana.PublicKey
	QuoteDepositsTotal uint64
	QuoteFeesAccrued   uint64

	QuoteDustThreshold uint64

	RequestQueue solana.PublicKey
	EventQueue   solana.PublicKey

	Bids solana.PublicKey
	Asks solana.PublicKey

	BaseLotSize  uint64
	QuoteLotSize uint64

	FeeRateBps uint64

	ReferrerRebatesAccrued uint64

	Padding1 [7]uint8
}

var marketHead = [5]uint8{'s', 'e', 'r', 'u', 'm'}

// DecodeMarket parses a market account.
func DecodeMarket(data []byte) (*Market, error) {
	if len(data) != MarketSize {
		return nil, fmt.Errorf("market account: expected %d bytes, got %d", MarketSize, len(data))
	}
	var market Market
	if err := borsh.Deserialize(&market, data); err != nil {
		return nil, fmt.Errorf("failed to decode market: %w", err)
	}
	if market.Padding0 != marketHead {
		return nil, fmt.Errorf("market account: bad header %q", market.Padding0[:])
	}
	return &market, nil
}

// VaultSigner derives the vault owner of the market from its nonce.
func (m *Market) VaultSigner(dexProgramID solana.PublicKey) (solana.PublicKey, error) {
	nonce := binary.LittleEndian.AppendUint64(nil, m.VaultSignerNonce)
	signer, err := solana.CreateProgramAddress([][]byte{m.OwnAddress.Bytes(), nonce}, dexProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive vault signer: %w", err)
	}
	return signer, nil
}

// PayerMint is the mint an order pays with: quote for bids, base for asks.
func (m *Market) PayerMint(side bonfidabot.OrderSide) solana.PublicKey {
	if side == bonfidabot.SideBid {
		return m.QuoteMint
	}
	return m.BaseMint
}

// TargetMint is the mint an order receives.
func (m *Market) TargetMint(side bonfidabot.OrderSide) solana.PublicKey {
	if side == bonfidabot.SideBid {
		return m.BaseMint
	}
	return m.QuoteMint
}
