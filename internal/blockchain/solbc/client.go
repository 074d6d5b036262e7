// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain"
)

// Client is the blockchain.Client over a pool of RPC nodes.
type Client struct {
	pool       *rpcPool
	commitment rpc.CommitmentType
	logger     *zap.Logger
}

var _ blockchain.Client = (*Client)(nil)

// NewClient creates a client reading and sending at the given commitment.
func NewClient(rpcList []string, commitment rpc.CommitmentType, logger *zap.Logger) (*Client, error) {
	logger = logger.Named("solbc-client")
	pool, err := newRPCPool(rpcList, logger)
	if err != nil {
		return nil, err
	}
	return &Client{
		pool:       pool,
		commitment: commitment,
		logger:     logger,
	}, nil
}

// SetRecorder installs r for every later request. It must not be called
// concurrently with requests.
func (c *Client) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	c.pool.recorder = r
}

func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := c.pool.execute(ctx, "getLatestBlockhash", func(rc *rpc.Client) error {
		result, err := rc.GetLatestBlockhash(ctx, c.commitment)
		if err != nil {
			return err
		}
		hash = result.Value.Blockhash
		return nil
	})
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return hash, nil
}

func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts blockchain.TransactionOptions) (solana.Signature, error) {
	var sig solana.Signature
	err := c.pool.execute(ctx, "sendTransaction", func(rc *rpc.Client) (err error) {
		sig, err = rc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: opts.PreflightCommitment,
		})
		return err
	})
	if err != nil {
		c.logger.Debug("SendTransactionWithOpts error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	var result *rpc.GetSignatureStatusesResult
	err := c.pool.execute(ctx, "getSignatureStatuses", func(rc *rpc.Client) (err error) {
		result, err = rc.GetSignatureStatuses(ctx, false, signatures...)
		return err
	})
	if err != nil {
		c.logger.Debug("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccountData(ctx context.Context, pubkey solana.PublicKey) ([]byte, error) {
	var data []byte
	err := c.pool.execute(ctx, "getAccountInfo", func(rc *rpc.Client) error {
		result, err := rc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		})
		if err != nil {
			return err
		}
		if result.Value == nil || result.Value.Data == nil {
			return rpc.ErrNotFound
		}
		data = result.Value.Data.GetBinary()
		return nil
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", blockchain.ErrAccountNotFound, pubkey)
	}
	if err != nil {
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	return data, nil
}

func (c *Client) GetMultipleAccountsData(ctx context.Context, pubkeys ...solana.PublicKey) ([][]byte, error) {
	out := make([][]byte, len(pubkeys))
	if len(pubkeys) == 0 {
		return out, nil
	}
	err := c.pool.execute(ctx, "getMultipleAccounts", func(rc *rpc.Client) error {
		res, err := rc.GetMultipleAccountsWithOpts(ctx, pubkeys, &rpc.GetMultipleAccountsOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		})
		if err != nil {
			return err
		}
		if len(res.Value) != len(pubkeys) {
			return fmt.Errorf("getMultipleAccounts returned %d accounts for %d keys", len(res.Value), len(pubkeys))
		}
		for i, acc := range res.Value {
			if acc != nil && acc.Data != nil {
				out[i] = acc.Data.GetBinary()
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Debug("GetMultipleAccounts error", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// Stats returns the per node counters.
func (c *Client) Stats() []NodeStats {
	return c.pool.stats()
}
