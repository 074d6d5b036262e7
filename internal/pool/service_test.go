package pool

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/near/borsh-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain"
	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain/blockchaintest"
	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/bonfida-bot/internal/utils/metrics"
	"github.com/rovshanmuradov/bonfida-bot/internal/wallet"
	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
	"github.com/rovshanmuradov/bonfida-bot/pkg/serum"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, signer solbc.Signer, instructions ...solana.Instruction) (solana.Signature, error) {
	args := m.Called(ctx, signer, instructions)
	return args.Get(0).(solana.Signature), args.Error(1)
}

type fixture struct {
	client    *blockchaintest.MockClient
	submitter *mockSubmitter
	wallet    *wallet.Wallet
	programID solana.PublicKey
	seed      bonfidabot.PoolSeed
	pool      solana.PublicKey
	service   *Service
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func newFixture(t *testing.T, dryRun bool) *fixture {
	t.Helper()
	w, err := wallet.NewWallet(solana.NewWallet().PrivateKey.String())
	require.NoError(t, err)

	programID := newKey()
	seed, pool, err := bonfidabot.FindPoolSeed(programID, []byte("test-pool-seed"))
	require.NoError(t, err)

	f := &fixture{
		client:    new(blockchaintest.MockClient),
		submitter: new(mockSubmitter),
		wallet:    w,
		programID: programID,
		seed:      seed,
		pool:      pool,
	}
	f.service = NewService(f.client, f.submitter, w, Config{
		ProgramID: programID,
		Programs:  bonfidabot.DefaultPrograms(),
		DryRun:    dryRun,
	}, zaptest.NewLogger(t))
	return f
}

func poolData(signalProvider solana.PublicKey, initialized bool, mints ...solana.PublicKey) []byte {
	header := bonfidabot.PoolHeader{SignalProvider: signalProvider, IsInitialized: initialized}
	data := header.Pack()
	for i, mint := range mints {
		asset := bonfidabot.PoolAsset{Mint: mint, Amount: uint64(i + 1)}
		data = append(data, asset.Pack()...)
	}
	return data
}

func marketData(t *testing.T, m serum.Market) []byte {
	t.Helper()
	m.Padding0 = [5]uint8{'s', 'e', 'r', 'u', 'm'}
	data, err := borsh.Serialize(m)
	require.NoError(t, err)
	require.Len(t, data, serum.MarketSize)
	return data
}

func decodeLast(t *testing.T, f *fixture, result *Result) *bonfidabot.DecodedInstruction {
	t.Helper()
	require.NotEmpty(t, result.Instructions)
	ix := result.Instructions[len(result.Instructions)-1]
	assert.Equal(t, f.programID, ix.ProgramID())
	data, err := ix.Data()
	require.NoError(t, err)
	decoded, err := bonfidabot.DecodeInstructionData(data, f.seed.Len())
	require.NoError(t, err)
	return decoded
}

func TestInitPoolSubmits(t *testing.T) {
	f := newFixture(t, false)
	mint := newKey()
	sig := solana.Signature{1}
	f.submitter.On("Submit", mock.Anything, f.wallet, mock.Anything).Return(sig, nil)

	result, err := f.service.InitPool(context.Background(), InitPoolRequest{PoolSeed: f.seed, Mint: mint, MaxAssets: 8})
	require.NoError(t, err)
	assert.Equal(t, f.pool, result.Pool)
	assert.Equal(t, sig, result.Signature)

	decoded := decodeLast(t, f, result)
	assert.Equal(t, bonfidabot.OpcodeInit, decoded.Opcode)
	assert.Equal(t, uint32(8), decoded.MaxAssets)

	accounts := result.Instructions[0].Accounts()
	require.Len(t, accounts, 6)
	assert.Equal(t, f.pool, accounts[3].PublicKey)
	assert.Equal(t, mint, accounts[4].PublicKey)
	assert.Equal(t, f.wallet.PublicKey, accounts[5].PublicKey)
	f.submitter.AssertExpectations(t)
}

func TestInitPoolRejectsOversizedMaxAssets(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.service.InitPool(context.Background(), InitPoolRequest{PoolSeed: f.seed, Mint: newKey(), MaxAssets: 1 << 32})
	assert.ErrorIs(t, err, bonfidabot.ErrRange)
	f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestInitOrderTrackerDryRun(t *testing.T) {
	f := newFixture(t, true)
	tracker, openOrders := newKey(), newKey()

	result, err := f.service.InitOrderTracker(context.Background(), InitOrderTrackerRequest{
		PoolSeed: f.seed, OrderTracker: tracker, OpenOrders: openOrders,
	})
	require.NoError(t, err)
	assert.Equal(t, solana.Signature{}, result.Signature)
	assert.Equal(t, bonfidabot.OpcodeInitOrder, decodeLast(t, f, result).Opcode)

	accounts := result.Instructions[0].Accounts()
	assert.Equal(t, tracker, accounts[3].PublicKey)
	assert.Equal(t, openOrders, accounts[4].PublicKey)
	f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePoolDerivesTokenAccounts(t *testing.T) {
	f := newFixture(t, true)
	poolMint, usdc, sol := newKey(), newKey(), newKey()
	signal := newKey()

	result, err := f.service.CreatePool(context.Background(), CreatePoolRequest{
		PoolSeed:       f.seed,
		Mint:           poolMint,
		SignalProvider: signal,
		Assets: []AssetDeposit{
			{Mint: usdc, Amount: bonfidabot.NewU64(1_000_000)},
			{Mint: sol, Amount: bonfidabot.NewU64(5)},
		},
	})
	require.NoError(t, err)

	// wallet pool token account, two pool asset accounts, create pool
	require.Len(t, result.Instructions, 4)
	decoded := decodeLast(t, f, result)
	assert.Equal(t, bonfidabot.OpcodeCreate, decoded.Opcode)
	assert.Equal(t, signal, decoded.SignalProvider)
	assert.Equal(t, []uint64{1_000_000, 5}, decoded.DepositAmounts)

	accounts := result.Instructions[3].Accounts()
	require.Len(t, accounts, 5+2*2)
	target, _, err := solana.FindAssociatedTokenAddress(f.wallet.PublicKey, poolMint)
	require.NoError(t, err)
	poolUSDC, _, err := solana.FindAssociatedTokenAddress(f.pool, usdc)
	require.NoError(t, err)
	walletSOL, _, err := solana.FindAssociatedTokenAddress(f.wallet.PublicKey, sol)
	require.NoError(t, err)
	assert.Equal(t, target, accounts[2].PublicKey)
	assert.Equal(t, poolUSDC, accounts[4].PublicKey)
	assert.Equal(t, f.wallet.PublicKey, accounts[6].PublicKey)
	assert.True(t, accounts[6].IsSigner)
	assert.Equal(t, walletSOL, accounts[8].PublicKey)
}

func TestCreatePoolMissingAssets(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.service.CreatePool(context.Background(), CreatePoolRequest{
		PoolSeed: f.seed, Mint: newKey(), SignalProvider: newKey(),
	})
	assert.ErrorIs(t, err, bonfidabot.ErrMissingField)

	_, err = f.service.CreatePool(context.Background(), CreatePoolRequest{
		PoolSeed: f.seed, Mint: newKey(), SignalProvider: newKey(),
		Assets: []AssetDeposit{{Amount: bonfidabot.NewU64(1)}},
	})
	assert.ErrorIs(t, err, bonfidabot.ErrMissingField)
}

func TestDepositUsesFilledSlots(t *testing.T) {
	f := newFixture(t, true)
	poolMint, usdc, sol := newKey(), newKey(), newKey()
	f.client.On("GetAccountData", mock.Anything, f.pool).
		Return(poolData(newKey(), true, usdc, solana.PublicKey{}, sol), nil)

	result, err := f.service.Deposit(context.Background(), DepositRequest{
		PoolSeed: f.seed, Mint: poolMint, PoolTokenAmount: bonfidabot.NewU64(42),
	})
	require.NoError(t, err)
	require.Len(t, result.Instructions, 2)

	decoded := decodeLast(t, f, result)
	assert.Equal(t, bonfidabot.OpcodeDeposit, decoded.Opcode)
	assert.Equal(t, uint64(42), decoded.PoolTokenAmount)
	assert.Len(t, result.Instructions[1].Accounts(), 5+2*2)
}

func TestDepositUninitializedPool(t *testing.T) {
	f := newFixture(t, true)
	f.client.On("GetAccountData", mock.Anything, f.pool).Return(poolData(newKey(), false, newKey()), nil)

	_, err := f.service.Deposit(context.Background(), DepositRequest{PoolSeed: f.seed, Mint: newKey()})
	assert.ErrorIs(t, err, ErrPoolNotInitialized)
}

func TestDepositMissingPool(t *testing.T) {
	f := newFixture(t, true)
	f.client.On("GetAccountData", mock.Anything, f.pool).Return(nil, blockchain.ErrAccountNotFound)

	_, err := f.service.Deposit(context.Background(), DepositRequest{PoolSeed: f.seed, Mint: newKey()})
	assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)
}

func createOrderRequest(f *fixture, market solana.PublicKey, side bonfidabot.OrderSide) CreateOrderRequest {
	q, _ := bonfidabot.NewU16(10)
	return CreateOrderRequest{
		PoolSeed:          f.seed,
		Market:            market,
		OpenOrders:        newKey(),
		OrderTracker:      newKey(),
		Side:              side,
		LimitPrice:        bonfidabot.NewU64(250),
		MaxQuantity:       q,
		OrderType:         bonfidabot.OrderTypeLimit,
		ClientID:          bonfidabot.NewU64(3),
		SelfTradeBehavior: bonfidabot.DecrementTake,
	}
}

func TestCreateOrderResolvesMarket(t *testing.T) {
	f := newFixture(t, false)
	base, quote := newKey(), newKey()
	marketKey := newKey()
	market := serum.Market{
		OwnAddress:   marketKey,
		BaseMint:     base,
		QuoteMint:    quote,
		BaseVault:    newKey(),
		QuoteVault:   newKey(),
		RequestQueue: newKey(),
	}
	f.client.On("GetAccountData", mock.Anything, marketKey).Return(marketData(t, market), nil)
	f.client.On("GetAccountData", mock.Anything, f.pool).
		Return(poolData(f.wallet.PublicKey, true, newKey(), base, quote), nil)
	f.submitter.On("Submit", mock.Anything, f.wallet, mock.Anything).Return(solana.Signature{2}, nil)

	referrer := newKey()
	req := createOrderRequest(f, marketKey, bonfidabot.SideBid)
	req.Referrer = &referrer
	result, err := f.service.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	decoded := decodeLast(t, f, result)
	assert.Equal(t, bonfidabot.OpcodeCreateOrder, decoded.Opcode)
	assert.Equal(t, bonfidabot.SideBid, decoded.Side)
	// bids pay with quote (slot 2) and receive base (slot 1)
	assert.Equal(t, uint64(2), decoded.PayerAssetIndex)
	assert.Equal(t, uint64(1), decoded.TargetAssetIndex)

	accounts := result.Instructions[0].Accounts()
	require.Len(t, accounts, 13)
	payerAsset, _, err := solana.FindAssociatedTokenAddress(f.pool, quote)
	require.NoError(t, err)
	assert.Equal(t, f.wallet.PublicKey, accounts[0].PublicKey)
	assert.Equal(t, payerAsset, accounts[2].PublicKey)
	assert.Equal(t, market.RequestQueue, accounts[5].PublicKey)
	assert.Equal(t, market.BaseVault, accounts[7].PublicKey)
	assert.Equal(t, market.QuoteVault, accounts[8].PublicKey)
	assert.Equal(t, bonfidabot.DefaultPrograms().Dex, accounts[11].PublicKey)
	assert.Equal(t, referrer, accounts[12].PublicKey)
	f.submitter.AssertExpectations(t)
}

func TestCreateOrderChecks(t *testing.T) {
	base, quote := newKey(), newKey()
	marketKey := newKey()
	market := serum.Market{BaseMint: base, QuoteMint: quote, RequestQueue: newKey()}

	t.Run("not signal provider", func(t *testing.T) {
		f := newFixture(t, true)
		f.client.On("GetAccountData", mock.Anything, marketKey).Return(marketData(t, market), nil)
		f.client.On("GetAccountData", mock.Anything, f.pool).Return(poolData(newKey(), true, base, quote), nil)

		_, err := f.service.CreateOrder(context.Background(), createOrderRequest(f, marketKey, bonfidabot.SideAsk))
		assert.ErrorIs(t, err, ErrNotSignalProvider)
	})

	t.Run("payer asset missing", func(t *testing.T) {
		f := newFixture(t, true)
		f.client.On("GetAccountData", mock.Anything, marketKey).Return(marketData(t, market), nil)
		f.client.On("GetAccountData", mock.Anything, f.pool).Return(poolData(f.wallet.PublicKey, true, quote), nil)

		_, err := f.service.CreateOrder(context.Background(), createOrderRequest(f, marketKey, bonfidabot.SideAsk))
		assert.ErrorIs(t, err, ErrAssetNotInPool)
	})

	t.Run("market fetch fails", func(t *testing.T) {
		f := newFixture(t, true)
		f.client.On("GetAccountData", mock.Anything, marketKey).Return(nil, blockchain.ErrAccountNotFound)
		f.client.On("GetAccountData", mock.Anything, f.pool).Return(poolData(f.wallet.PublicKey, true, base, quote), nil).Maybe()

		_, err := f.service.CreateOrder(context.Background(), createOrderRequest(f, marketKey, bonfidabot.SideBid))
		assert.ErrorIs(t, err, blockchain.ErrAccountNotFound)
	})
}

func TestRunWrapsSubmitError(t *testing.T) {
	f := newFixture(t, false)
	sig := solana.Signature{8}
	submitErr := &solbc.SubmitError{Signature: sig, Reason: solbc.ReasonFailed, Err: assert.AnError}
	f.submitter.On("Submit", mock.Anything, f.wallet, mock.Anything).Return(sig, submitErr)

	result, err := f.service.InitOrderTracker(context.Background(), InitOrderTrackerRequest{
		PoolSeed: f.seed, OrderTracker: newKey(), OpenOrders: newKey(),
	})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, sig, result.Signature)

	var got *solbc.SubmitError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, solbc.ReasonFailed, got.Reason)
}

func TestRunRecordsOutcome(t *testing.T) {
	f := newFixture(t, false)
	collector := metrics.NewCollector()
	f.service.cfg.Recorder = collector

	f.submitter.On("Submit", mock.Anything, f.wallet, mock.Anything).Return(solana.Signature{}, assert.AnError).Once()
	_, err := f.service.InitOrderTracker(context.Background(), InitOrderTrackerRequest{
		PoolSeed: f.seed, OrderTracker: newKey(), OpenOrders: newKey(),
	})
	require.Error(t, err)

	msg, ok := collector.LastError("init_order_tracker")
	require.True(t, ok)
	assert.Equal(t, assert.AnError.Error(), msg)

	count, err := testutil.GatherAndCount(collector.Registry(), "bonfida_bot_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFetchPool(t *testing.T) {
	f := newFixture(t, true)
	signal, mint := newKey(), newKey()
	f.client.On("GetAccountData", mock.Anything, f.pool).Return(poolData(signal, false, mint), nil)

	pool, state, err := f.service.FetchPool(context.Background(), f.seed)
	require.NoError(t, err)
	assert.Equal(t, f.pool, pool)
	assert.Equal(t, signal, state.Header.SignalProvider)
	assert.False(t, state.Header.IsInitialized)
	require.Len(t, state.Assets, 1)
	assert.Equal(t, mint, state.Assets[0].Mint)
}
