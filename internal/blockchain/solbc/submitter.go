// internal/blockchain/solbc/submitter.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain"
)

// Signer pays for and signs submitted transactions.
type Signer interface {
	Address() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

type SubmitterConfig struct {
	Commitment      rpc.CommitmentType
	SkipPreflight   bool
	Retries         int
	RetryInterval   time.Duration
	MaxElapsed      time.Duration
	ConfirmTimeout  time.Duration
	ConfirmInterval time.Duration
	// ComputeUnits and PriorityFee (micro-lamports per unit) prepend compute
	// budget instructions when non zero.
	ComputeUnits uint32
	PriorityFee  uint64
}

// Submitter builds, signs, sends and confirms transactions.
type Submitter struct {
	client   blockchain.Client
	cfg      SubmitterConfig
	logger   *zap.Logger
	recorder Recorder
}

var errPending = errors.New("signature not confirmed yet")

func NewSubmitter(client blockchain.Client, cfg SubmitterConfig, logger *zap.Logger) *Submitter {
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	return &Submitter{
		client:   client,
		cfg:      cfg,
		logger:   logger.Named("submitter"),
		recorder: nopRecorder{},
	}
}

// SetRecorder installs r for send attempt counting.
func (s *Submitter) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.recorder = r
}

// Submit sends the instructions in one transaction paid by signer and waits
// for the configured commitment. Failures are returned as *SubmitError.
func (s *Submitter) Submit(ctx context.Context, signer Signer, instructions ...solana.Instruction) (solana.Signature, error) {
	if len(instructions) == 0 {
		return solana.Signature{}, &SubmitError{Reason: ReasonBuild, Err: errors.New("no instructions")}
	}
	if signer == nil {
		return solana.Signature{}, &SubmitError{Reason: ReasonBuild, Err: errors.New("no signer")}
	}
	instructions = append(s.budgetInstructions(), instructions...)

	sig, err := s.send(ctx, signer, instructions)
	if err != nil {
		return solana.Signature{}, err
	}
	s.logger.Info("Transaction sent", zap.Stringer("signature", sig))

	if err := s.confirm(ctx, sig); err != nil {
		return sig, err
	}
	s.logger.Info("Transaction confirmed",
		zap.Stringer("signature", sig),
		zap.String("commitment", string(s.cfg.Commitment)))
	return sig, nil
}

func (s *Submitter) budgetInstructions() []solana.Instruction {
	var out []solana.Instruction
	if s.cfg.ComputeUnits > 0 {
		out = append(out, computebudget.NewSetComputeUnitLimitInstruction(s.cfg.ComputeUnits).Build())
	}
	if s.cfg.PriorityFee > 0 {
		out = append(out, computebudget.NewSetComputeUnitPriceInstruction(s.cfg.PriorityFee).Build())
	}
	return out
}

// send retries with a fresh blockhash on stale blockhashes and transport
// errors. Node rejections are final.
func (s *Submitter) send(ctx context.Context, signer Signer, instructions []solana.Instruction) (solana.Signature, error) {
	attempt := 0
	op := func() (solana.Signature, error) {
		attempt++
		blockhash, err := s.client.GetRecentBlockhash(ctx)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
		}

		tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(signer.Address()))
		if err != nil {
			return solana.Signature{}, backoff.Permanent(&SubmitError{Reason: ReasonBuild, Err: err})
		}
		if err := signer.SignTransaction(tx); err != nil {
			return solana.Signature{}, backoff.Permanent(&SubmitError{Reason: ReasonBuild, Err: err})
		}

		sig, err := s.client.SendTransactionWithOpts(ctx, tx, blockchain.TransactionOptions{
			SkipPreflight:       s.cfg.SkipPreflight,
			PreflightCommitment: s.cfg.Commitment,
		})
		if err == nil {
			s.recorder.RecordSubmitAttempt("sent")
			return sig, nil
		}
		if isBlockhashNotFound(err) {
			s.recorder.RecordSubmitAttempt("retried")
			return solana.Signature{}, err
		}
		var rpcErr *jsonrpc.RPCError
		if errors.As(err, &rpcErr) {
			s.recorder.RecordSubmitAttempt("rejected")
			return solana.Signature{}, backoff.Permanent(&SubmitError{
				Reason: ReasonRejected,
				Logs:   simulationLogs(err),
				Err:    err,
			})
		}
		s.recorder.RecordSubmitAttempt("retried")
		return solana.Signature{}, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.RetryInterval
	policy.MaxInterval = s.cfg.RetryInterval * 10

	notify := func(err error, next time.Duration) {
		s.logger.Warn("Retrying send", zap.Int("attempt", attempt), zap.Duration("backoff", next), zap.Error(err))
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithNotify(notify),
		backoff.WithMaxTries(uint(s.cfg.Retries + 1)),
	}
	if s.cfg.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(s.cfg.MaxElapsed))
	}

	sig, err := backoff.Retry(ctx, op, opts...)
	if err != nil {
		var submitErr *SubmitError
		if errors.As(err, &submitErr) {
			return solana.Signature{}, submitErr
		}
		return solana.Signature{}, &SubmitError{Reason: ReasonSend, Err: err}
	}
	return sig, nil
}

// confirm polls the signature status until it reaches the commitment,
// fails on chain or the confirmation timeout passes.
func (s *Submitter) confirm(ctx context.Context, sig solana.Signature) error {
	op := func() (struct{}, error) {
		statuses, err := s.client.GetSignatureStatuses(ctx, sig)
		if err != nil {
			s.logger.Debug("Error getting signature statuses", zap.Error(err))
			return struct{}{}, err
		}
		if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			return struct{}{}, errPending
		}
		status := statuses.Value[0]
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(&SubmitError{
				Signature: sig,
				Reason:    ReasonFailed,
				Err:       fmt.Errorf("transaction failed on chain: %v", status.Err),
			})
		}
		if !reached(status.ConfirmationStatus, s.cfg.Commitment) {
			return struct{}{}, errPending
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.cfg.ConfirmInterval)),
		backoff.WithMaxElapsedTime(s.cfg.ConfirmTimeout),
	)
	if err == nil {
		return nil
	}
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		return submitErr
	}
	return &SubmitError{Signature: sig, Reason: ReasonTimeout, Err: err}
}

// reached reports whether status satisfies the wanted commitment.
func reached(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentConfirmed:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	default:
		return status != ""
	}
}
