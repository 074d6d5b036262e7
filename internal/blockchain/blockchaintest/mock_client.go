// internal/blockchain/blockchaintest/mock_client.go
package blockchaintest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/mock"

	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain"
)

// MockClient implements blockchain.Client with testify mocks.
type MockClient struct {
	mock.Mock
}

var _ blockchain.Client = (*MockClient)(nil)

func (m *MockClient) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *MockClient) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockClient) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, signatures)
	result, _ := args.Get(0).(*rpc.GetSignatureStatusesResult)
	return result, args.Error(1)
}

func (m *MockClient) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	args := m.Called(ctx, pubkey)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockClient) GetMultipleAccountsData(ctx context.Context, pubkeys ...solana.PublicKey) ([][]byte, error) {
	args := m.Called(ctx, pubkeys)
	data, _ := args.Get(0).([][]byte)
	return data, args.Error(1)
}

// Status builds a signature status result for one signature.
func Status(confirmation rpc.ConfirmationStatusType, txErr interface{}) *rpc.GetSignatureStatusesResult {
	return &rpc.GetSignatureStatusesResult{
		Value: []*rpc.SignatureStatusesResult{{
			ConfirmationStatus: confirmation,
			Err:                txErr,
		}},
	}
}
