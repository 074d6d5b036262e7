// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrAccountNotFound is returned when an account does not exist on chain.
var ErrAccountNotFound = errors.New("account not found")

// TransactionOptions are the send options of a transaction.
type TransactionOptions struct {
	SkipPreflight       bool
	PreflightCommitment rpc.CommitmentType
}

// Client is the chain access the bot needs: fetching accounts, sending
// transactions and tracking their status.
type Client interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts TransactionOptions) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	// GetAccountData returns the raw data of an account or ErrAccountNotFound.
	GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error)
	// GetMultipleAccountsData returns the data of each account in order, nil for missing ones.
	GetMultipleAccountsData(ctx context.Context, pubkeys ...solana.PublicKey) ([][]byte, error)
}
