// ==================================
// File: internal/wallet/wallet.go
// ==================================
package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is the signing keypair of the bot.
type Wallet struct {
	PrivateKey solana.PrivateKey
	PublicKey  solana.PublicKey

	mu       sync.Mutex
	ataCache map[ataKey]solana.PublicKey
}

type ataKey struct {
	owner solana.PublicKey
	mint  solana.PublicKey
}

// NewWallet builds a wallet from a base58 encoded 64 byte private key.
func NewWallet(privateKeyBase58 string) (*Wallet, error) {
	privateKeyBytes, err := base58.Decode(strings.TrimSpace(privateKeyBase58))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}
	return fromBytes(privateKeyBytes)
}

// LoadFromFile reads a keypair file, either the JSON byte array written by
// solana-keygen or a base58 string.
func LoadFromFile(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair %s: %w", path, err)
	}
	text := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(text, "[") {
		return NewWallet(text)
	}
	var keyBytes []byte
	var ints []int
	if err := json.Unmarshal([]byte(text), &ints); err != nil {
		return nil, fmt.Errorf("failed to parse keypair %s: %w", path, err)
	}
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair %s: byte %d out of range: %d", path, i, v)
		}
		keyBytes = append(keyBytes, byte(v))
	}
	return fromBytes(keyBytes)
}

func fromBytes(privateKeyBytes []byte) (*Wallet, error) {
	if len(privateKeyBytes) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 64 bytes, got %d", len(privateKeyBytes))
	}
	privateKey := solana.PrivateKey(privateKeyBytes)
	return &Wallet{
		PrivateKey: privateKey,
		PublicKey:  privateKey.PublicKey(),
		ataCache:   make(map[ataKey]solana.PublicKey),
	}, nil
}

// SignTransaction signs tx with the wallet key. The wallet must be the only
// required signer.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.PublicKey) {
			return &w.PrivateKey
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// GetATA returns the wallet's associated token account for mint.
func (w *Wallet) GetATA(mint solana.PublicKey) (solana.PublicKey, error) {
	return w.ATAFor(w.PublicKey, mint)
}

// ATAFor returns the associated token account of owner for mint. Results are
// cached, pool owned accounts are looked up on every order.
func (w *Wallet) ATAFor(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	key := ataKey{owner: owner, mint: mint}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ataCache == nil {
		w.ataCache = make(map[ataKey]solana.PublicKey)
	}
	if ata, ok := w.ataCache[key]; ok {
		return ata, nil
	}
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive ATA for mint %s: %w", mint, err)
	}
	w.ataCache[key] = ata
	return ata, nil
}

// ATAsFor derives the associated token accounts of owner for each mint, in order.
func (w *Wallet) ATAsFor(owner solana.PublicKey, mints []solana.PublicKey) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, len(mints))
	for i, mint := range mints {
		ata, err := w.ATAFor(owner, mint)
		if err != nil {
			return nil, err
		}
		out[i] = ata
	}
	return out, nil
}

// CreateAssociatedTokenAccountIdempotentInstruction creates the ATA of owner
// for mint, paid by the wallet, and is a no-op when it already exists.
func (w *Wallet) CreateAssociatedTokenAccountIdempotentInstruction(owner, mint solana.PublicKey) (solana.Instruction, error) {
	ata, err := w.ATAFor(owner, mint)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		[]*solana.AccountMeta{
			{PublicKey: w.PublicKey, IsWritable: true, IsSigner: true},
			{PublicKey: ata, IsWritable: true, IsSigner: false},
			{PublicKey: owner, IsWritable: false, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
		},
		[]byte{1}, // create idempotent
	), nil
}

// Address is the fee payer address of transactions signed by the wallet.
func (w *Wallet) Address() solana.PublicKey {
	return w.PublicKey
}

// String returns the public key.
func (w *Wallet) String() string {
	return w.PublicKey.String()
}
