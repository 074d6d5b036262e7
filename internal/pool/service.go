// =================================
// File: internal/pool/service.go
// =================================
package pool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain"
	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/bonfida-bot/internal/wallet"
	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
	"github.com/rovshanmuradov/bonfida-bot/pkg/serum"
)

var (
	ErrPoolNotInitialized = errors.New("pool is not initialized")
	ErrAssetNotInPool     = errors.New("asset is not held by the pool")
	ErrNotSignalProvider  = errors.New("wallet is not the pool signal provider")
)

// Submitter sends instructions in one signed transaction.
type Submitter interface {
	Submit(ctx context.Context, signer solbc.Signer, instructions ...solana.Instruction) (solana.Signature, error)
}

// Recorder receives the outcome of every operation.
type Recorder interface {
	RecordOperation(operation string, duration time.Duration, dryRun bool, err error)
}

type Config struct {
	ProgramID solana.PublicKey
	Programs  bonfidabot.Programs
	// DryRun builds the instructions without submitting them.
	DryRun bool
	// Recorder is optional.
	Recorder Recorder
}

// Result is the outcome of one operation. Signature is zero in dry run mode.
type Result struct {
	Pool         solana.PublicKey
	Instructions []solana.Instruction
	Signature    solana.Signature
}

// Service runs the bonfida-bot operations for the wallet: it resolves the
// derived accounts, encodes the instruction and submits it.
type Service struct {
	client    blockchain.Client
	submitter Submitter
	wallet    *wallet.Wallet
	cfg       Config
	logger    *zap.Logger
}

func NewService(client blockchain.Client, submitter Submitter, w *wallet.Wallet, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		client:    client,
		submitter: submitter,
		wallet:    w,
		cfg:       cfg,
		logger:    logger.Named("pool"),
	}
}

type InitPoolRequest struct {
	PoolSeed  bonfidabot.PoolSeed
	Mint      solana.PublicKey
	MaxAssets uint64
}

// InitPool allocates the pool account and its mint, paid by the wallet.
func (s *Service) InitPool(ctx context.Context, req InitPoolRequest) (*Result, error) {
	pool, err := bonfidabot.CreatePoolAddress(s.cfg.ProgramID, req.PoolSeed)
	if err != nil {
		return nil, err
	}
	maxAssets, err := bonfidabot.NewU32(req.MaxAssets)
	if err != nil {
		return nil, fmt.Errorf("max assets: %w", err)
	}

	ix, err := bonfidabot.NewInitPoolInstruction(s.cfg.ProgramID, &bonfidabot.InitPoolAccounts{
		SystemProgram: s.cfg.Programs.System,
		RentSysvar:    s.cfg.Programs.Rent,
		TokenProgram:  s.cfg.Programs.Token,
		Pool:          pool,
		Mint:          req.Mint,
		Payer:         s.wallet.PublicKey,
	}, &bonfidabot.InitPoolArgs{PoolSeed: req.PoolSeed, MaxAssets: maxAssets})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "init_pool", pool, ix)
}

type InitOrderTrackerRequest struct {
	PoolSeed     bonfidabot.PoolSeed
	OrderTracker solana.PublicKey
	OpenOrders   solana.PublicKey
}

// InitOrderTracker binds an order tracker account to an open orders account of the pool.
func (s *Service) InitOrderTracker(ctx context.Context, req InitOrderTrackerRequest) (*Result, error) {
	pool, err := bonfidabot.CreatePoolAddress(s.cfg.ProgramID, req.PoolSeed)
	if err != nil {
		return nil, err
	}
	ix, err := bonfidabot.NewInitOrderTrackerInstruction(s.cfg.ProgramID, &bonfidabot.InitOrderTrackerAccounts{
		SystemProgram: s.cfg.Programs.System,
		RentSysvar:    s.cfg.Programs.Rent,
		Pool:          pool,
		OrderTracker:  req.OrderTracker,
		OpenOrders:    req.OpenOrders,
		Payer:         s.wallet.PublicKey,
	}, req.PoolSeed)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "init_order_tracker", pool, ix)
}

// AssetDeposit is one asset of the initial deposit.
type AssetDeposit struct {
	Mint   solana.PublicKey
	Amount bonfidabot.U64
}

type CreatePoolRequest struct {
	PoolSeed       bonfidabot.PoolSeed
	Mint           solana.PublicKey
	SignalProvider solana.PublicKey
	Assets         []AssetDeposit
}

// CreatePool makes the initial deposit from the wallet's token accounts and
// sets the signal provider. Missing associated token accounts are created
// in the same transaction.
func (s *Service) CreatePool(ctx context.Context, req CreatePoolRequest) (*Result, error) {
	pool, err := bonfidabot.CreatePoolAddress(s.cfg.ProgramID, req.PoolSeed)
	if err != nil {
		return nil, err
	}
	mints := lo.Map(req.Assets, func(a AssetDeposit, _ int) solana.PublicKey { return a.Mint })

	setup, accounts, err := s.assetAccounts(pool, req.Mint, mints, true)
	if err != nil {
		return nil, err
	}

	ix, err := bonfidabot.NewCreatePoolInstruction(s.cfg.ProgramID, &bonfidabot.CreatePoolAccounts{
		TokenProgram:    s.cfg.Programs.Token,
		Mint:            req.Mint,
		TargetPoolToken: accounts.target,
		Pool:            pool,
		PoolAssets:      accounts.pool,
		SourceOwner:     s.wallet.PublicKey,
		SourceAssets:    accounts.source,
	}, &bonfidabot.CreatePoolArgs{
		PoolSeed:       req.PoolSeed,
		SignalProvider: req.SignalProvider,
		DepositAmounts: lo.Map(req.Assets, func(a AssetDeposit, _ int) bonfidabot.U64 { return a.Amount }),
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "create_pool", pool, append(setup, ix)...)
}

type DepositRequest struct {
	PoolSeed        bonfidabot.PoolSeed
	Mint            solana.PublicKey
	PoolTokenAmount bonfidabot.U64
}

// Deposit buys pool tokens with the wallet's share of every asset the pool holds.
func (s *Service) Deposit(ctx context.Context, req DepositRequest) (*Result, error) {
	pool, err := bonfidabot.CreatePoolAddress(s.cfg.ProgramID, req.PoolSeed)
	if err != nil {
		return nil, err
	}
	state, err := s.fetchPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	mints := lo.Map(state.Filled(), func(a bonfidabot.PoolAsset, _ int) solana.PublicKey { return a.Mint })

	// the pool asset accounts exist once the pool is created
	setup, accounts, err := s.assetAccounts(pool, req.Mint, mints, false)
	if err != nil {
		return nil, err
	}

	ix, err := bonfidabot.NewDepositInstruction(s.cfg.ProgramID, &bonfidabot.DepositAccounts{
		TokenProgram:    s.cfg.Programs.Token,
		Mint:            req.Mint,
		TargetPoolToken: accounts.target,
		Pool:            pool,
		PoolAssets:      accounts.pool,
		SourceOwner:     s.wallet.PublicKey,
		SourceAssets:    accounts.source,
	}, &bonfidabot.DepositArgs{PoolSeed: req.PoolSeed, PoolTokenAmount: req.PoolTokenAmount})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "deposit", pool, append(setup, ix)...)
}

type CreateOrderRequest struct {
	PoolSeed          bonfidabot.PoolSeed
	Market            solana.PublicKey
	OpenOrders        solana.PublicKey
	OrderTracker      solana.PublicKey
	Side              bonfidabot.OrderSide
	LimitPrice        bonfidabot.U64
	MaxQuantity       bonfidabot.U16
	OrderType         bonfidabot.OrderType
	ClientID          bonfidabot.U64
	SelfTradeBehavior bonfidabot.SelfTradeBehavior
	Referrer          *solana.PublicKey
}

// CreateOrder places a serum order for the pool. The market and the pool
// account are fetched to resolve the vaults, the request queue and the
// payer and target asset indices. The wallet must be the signal provider.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Result, error) {
	pool, err := bonfidabot.CreatePoolAddress(s.cfg.ProgramID, req.PoolSeed)
	if err != nil {
		return nil, err
	}

	var (
		market *serum.Market
		state  *bonfidabot.PoolState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.client.GetAccountData(gctx, req.Market)
		if err != nil {
			return fmt.Errorf("failed to fetch market %s: %w", req.Market, err)
		}
		market, err = serum.DecodeMarket(data)
		return err
	})
	g.Go(func() error {
		var err error
		state, err = s.fetchPool(gctx, pool)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !state.Header.SignalProvider.Equals(s.wallet.PublicKey) {
		return nil, fmt.Errorf("%w: signal provider is %s", ErrNotSignalProvider, state.Header.SignalProvider)
	}
	payerMint := market.PayerMint(req.Side)
	payerIndex, ok := state.AssetIndex(payerMint)
	if !ok {
		return nil, fmt.Errorf("%w: payer mint %s", ErrAssetNotInPool, payerMint)
	}
	targetMint := market.TargetMint(req.Side)
	targetIndex, ok := state.AssetIndex(targetMint)
	if !ok {
		return nil, fmt.Errorf("%w: target mint %s", ErrAssetNotInPool, targetMint)
	}
	payerPoolAsset, err := s.wallet.ATAFor(pool, payerMint)
	if err != nil {
		return nil, err
	}

	ix, err := bonfidabot.NewCreateOrderInstruction(s.cfg.ProgramID, &bonfidabot.CreateOrderAccounts{
		SignalProvider: s.wallet.PublicKey,
		Market:         req.Market,
		PayerPoolAsset: payerPoolAsset,
		OpenOrders:     req.OpenOrders,
		OrderTracker:   req.OrderTracker,
		RequestQueue:   market.RequestQueue,
		Pool:           pool,
		CoinVault:      market.BaseVault,
		PcVault:        market.QuoteVault,
		TokenProgram:   s.cfg.Programs.Token,
		RentSysvar:     s.cfg.Programs.Rent,
		DexProgram:     s.cfg.Programs.Dex,
		Referrer:       req.Referrer,
	}, &bonfidabot.CreateOrderArgs{
		PoolSeed:          req.PoolSeed,
		Side:              req.Side,
		LimitPrice:        req.LimitPrice,
		MaxQuantity:       req.MaxQuantity,
		OrderType:         req.OrderType,
		ClientID:          req.ClientID,
		SelfTradeBehavior: req.SelfTradeBehavior,
		PayerAssetIndex:   bonfidabot.NewU64(uint64(payerIndex)),
		TargetAssetIndex:  bonfidabot.NewU64(uint64(targetIndex)),
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "create_order", pool, ix)
}

// FetchPool returns the address and decoded account of the pool for seed,
// initialized or not.
func (s *Service) FetchPool(ctx context.Context, seed bonfidabot.PoolSeed) (solana.PublicKey, *bonfidabot.PoolState, error) {
	pool, err := bonfidabot.CreatePoolAddress(s.cfg.ProgramID, seed)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	state, err := s.loadPool(ctx, pool)
	return pool, state, err
}

func (s *Service) loadPool(ctx context.Context, pool solana.PublicKey) (*bonfidabot.PoolState, error) {
	data, err := s.client.GetAccountData(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool %s: %w", pool, err)
	}
	return bonfidabot.ParsePoolState(data)
}

func (s *Service) fetchPool(ctx context.Context, pool solana.PublicKey) (*bonfidabot.PoolState, error) {
	state, err := s.loadPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	if !state.Header.IsInitialized {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotInitialized, pool)
	}
	return state, nil
}

type assetAccounts struct {
	target solana.PublicKey
	pool   []solana.PublicKey
	source []solana.PublicKey
}

// assetAccounts derives the associated token accounts of a deposit. setup
// creates the wallet's pool token account and, with withPoolAccounts, the
// pool's asset accounts, all idempotent.
func (s *Service) assetAccounts(pool, poolMint solana.PublicKey, mints []solana.PublicKey, withPoolAccounts bool) ([]solana.Instruction, *assetAccounts, error) {
	for i, mint := range mints {
		if mint.IsZero() {
			return nil, nil, fmt.Errorf("%w: mint of asset %d", bonfidabot.ErrMissingField, i)
		}
	}
	var (
		out assetAccounts
		err error
	)
	if out.target, err = s.wallet.GetATA(poolMint); err != nil {
		return nil, nil, err
	}
	if out.pool, err = s.wallet.ATAsFor(pool, mints); err != nil {
		return nil, nil, err
	}
	if out.source, err = s.wallet.ATAsFor(s.wallet.PublicKey, mints); err != nil {
		return nil, nil, err
	}

	setup := make([]solana.Instruction, 0, 1+len(mints))
	ix, err := s.wallet.CreateAssociatedTokenAccountIdempotentInstruction(s.wallet.PublicKey, poolMint)
	if err != nil {
		return nil, nil, err
	}
	setup = append(setup, ix)
	if !withPoolAccounts {
		return setup, &out, nil
	}
	for _, mint := range lo.Uniq(mints) {
		ix, err := s.wallet.CreateAssociatedTokenAccountIdempotentInstruction(pool, mint)
		if err != nil {
			return nil, nil, err
		}
		setup = append(setup, ix)
	}
	return setup, &out, nil
}

func (s *Service) run(ctx context.Context, op string, pool solana.PublicKey, instructions ...solana.Instruction) (*Result, error) {
	log := s.logger.With(zap.String("operation", op), zap.Stringer("pool", pool))
	result := &Result{Pool: pool, Instructions: instructions}

	if s.cfg.DryRun {
		log.Info("Dry run, transaction not sent", zap.Int("instructions", len(instructions)))
		s.record(op, 0, nil)
		return result, nil
	}

	start := time.Now()
	sig, err := s.submitter.Submit(ctx, s.wallet, instructions...)
	s.record(op, time.Since(start), err)
	result.Signature = sig
	if err != nil {
		log.Error("Operation failed", zap.Error(err))
		return result, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("Operation confirmed", zap.Stringer("signature", sig))
	return result, nil
}

func (s *Service) record(op string, d time.Duration, err error) {
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.RecordOperation(op, d, s.cfg.DryRun, err)
	}
}
