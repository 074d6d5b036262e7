// =============================
// File: pkg/bonfidabot/instructions.go
// =============================
package bonfidabot

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	u8Size     = 1
	u16Size    = 2
	u32Size    = 4
	u64Size    = 8
	pubkeySize = 32
)

// InitPoolAccounts are the accounts of the Init instruction.
type InitPoolAccounts struct {
	SystemProgram solana.PublicKey
	RentSysvar    solana.PublicKey
	TokenProgram  solana.PublicKey
	Pool          solana.PublicKey
	Mint          solana.PublicKey
	Payer         solana.PublicKey
}

type InitPoolArgs struct {
	PoolSeed  PoolSeed
	MaxAssets U32
}

// NewInitPoolInstruction builds the Init instruction that allocates the pool
// account and its pool token mint.
//
// Data:     [0] pool_seed | max_number_of_assets u32
// Accounts: system, rent, token, pool (w), mint (w), payer (s, w)
func NewInitPoolInstruction(programID solana.PublicKey, accounts *InitPoolAccounts, args *InitPoolArgs) (*Instruction, error) {
	const op = "init_pool"
	if accounts == nil {
		return nil, fieldErr(op, "accounts", ErrMissingField)
	}
	if args == nil {
		return nil, fieldErr(op, "args", ErrMissingField)
	}
	if err := requireKeys(op,
		named{"program_id", programID},
		named{"rent_sysvar", accounts.RentSysvar},
		named{"token_program", accounts.TokenProgram},
		named{"pool", accounts.Pool},
		named{"mint", accounts.Mint},
		named{"payer", accounts.Payer},
	); err != nil {
		return nil, err
	}
	if args.PoolSeed.IsEmpty() {
		return nil, fieldErr(op, "pool_seed", ErrMissingField)
	}

	enc := newPayload(OpcodeInit, args.PoolSeed.Len()+u32Size)
	enc.seed(args.PoolSeed)
	enc.u32(args.MaxAssets)
	data, err := enc.finish(op)
	if err != nil {
		return nil, err
	}

	metas := newAccountList(6).
		readonly(accounts.SystemProgram).
		readonly(accounts.RentSysvar).
		readonly(accounts.TokenProgram).
		writable(accounts.Pool).
		writable(accounts.Mint).
		signer(accounts.Payer, true)

	return newInstruction(programID, data, metas), nil
}

// InitOrderTrackerAccounts are the accounts of the InitOrder instruction.
type InitOrderTrackerAccounts struct {
	SystemProgram solana.PublicKey
	RentSysvar    solana.PublicKey
	Pool          solana.PublicKey
	OrderTracker  solana.PublicKey
	OpenOrders    solana.PublicKey
	Payer         solana.PublicKey
}

// NewInitOrderTrackerInstruction builds the InitOrder instruction that binds
// an order tracker to a serum open orders account of the pool.
//
// Data:     [1] pool_seed
// Accounts: system, rent, pool, order_tracker (w), open_orders, payer (s, w)
func NewInitOrderTrackerInstruction(programID solana.PublicKey, accounts *InitOrderTrackerAccounts, poolSeed PoolSeed) (*Instruction, error) {
	const op = "init_order_tracker"
	if accounts == nil {
		return nil, fieldErr(op, "accounts", ErrMissingField)
	}
	if err := requireKeys(op,
		named{"program_id", programID},
		named{"rent_sysvar", accounts.RentSysvar},
		named{"pool", accounts.Pool},
		named{"order_tracker", accounts.OrderTracker},
		named{"open_orders", accounts.OpenOrders},
		named{"payer", accounts.Payer},
	); err != nil {
		return nil, err
	}
	if poolSeed.IsEmpty() {
		return nil, fieldErr(op, "pool_seed", ErrMissingField)
	}

	enc := newPayload(OpcodeInitOrder, poolSeed.Len())
	enc.seed(poolSeed)
	data, err := enc.finish(op)
	if err != nil {
		return nil, err
	}

	metas := newAccountList(6).
		readonly(accounts.SystemProgram).
		readonly(accounts.RentSysvar).
		readonly(accounts.Pool).
		writable(accounts.OrderTracker).
		readonly(accounts.OpenOrders).
		signer(accounts.Payer, true)

	return newInstruction(programID, data, metas), nil
}

// CreatePoolAccounts are the accounts of the Create instruction. PoolAssets
// and SourceAssets are paired by index.
type CreatePoolAccounts struct {
	TokenProgram    solana.PublicKey
	Mint            solana.PublicKey
	TargetPoolToken solana.PublicKey
	Pool            solana.PublicKey
	PoolAssets      []solana.PublicKey
	SourceOwner     solana.PublicKey
	SourceAssets    []solana.PublicKey
}

type CreatePoolArgs struct {
	PoolSeed       PoolSeed
	SignalProvider solana.PublicKey
	// DepositAmounts holds one amount per pool asset, same order.
	DepositAmounts []U64
}

// NewCreatePoolInstruction builds the Create instruction that funds a freshly
// initialized pool and sets its signal provider.
//
// Data:     [2] pool_seed | signal_provider [32] | deposit_amount u64 * N
// Accounts: token, mint (w), target_pool_token (w), pool (w),
// pool_asset (w) * N, source_owner (s), source_asset (w) * N
func NewCreatePoolInstruction(programID solana.PublicKey, accounts *CreatePoolAccounts, args *CreatePoolArgs) (*Instruction, error) {
	const op = "create_pool"
	if accounts == nil {
		return nil, fieldErr(op, "accounts", ErrMissingField)
	}
	if args == nil {
		return nil, fieldErr(op, "args", ErrMissingField)
	}
	if err := requireKeys(op,
		named{"program_id", programID},
		named{"token_program", accounts.TokenProgram},
		named{"mint", accounts.Mint},
		named{"target_pool_token", accounts.TargetPoolToken},
		named{"pool", accounts.Pool},
		named{"source_owner", accounts.SourceOwner},
		named{"signal_provider", args.SignalProvider},
	); err != nil {
		return nil, err
	}
	if args.PoolSeed.IsEmpty() {
		return nil, fieldErr(op, "pool_seed", ErrMissingField)
	}
	if err := requireAssets(op, accounts.PoolAssets, accounts.SourceAssets); err != nil {
		return nil, err
	}
	if len(args.DepositAmounts) != len(accounts.PoolAssets) {
		return nil, fieldErr(op, "deposit_amounts", fmt.Errorf("%w: %d amounts for %d pool assets",
			ErrArity, len(args.DepositAmounts), len(accounts.PoolAssets)))
	}

	enc := newPayload(OpcodeCreate, args.PoolSeed.Len()+pubkeySize+u64Size*len(args.DepositAmounts))
	enc.seed(args.PoolSeed)
	enc.pubkey(args.SignalProvider)
	for _, amount := range args.DepositAmounts {
		enc.u64(amount)
	}
	data, err := enc.finish(op)
	if err != nil {
		return nil, err
	}

	n := len(accounts.PoolAssets)
	metas := newAccountList(5+2*n).
		readonly(accounts.TokenProgram).
		writable(accounts.Mint).
		writable(accounts.TargetPoolToken).
		writable(accounts.Pool).
		writableAll(accounts.PoolAssets).
		signer(accounts.SourceOwner, false).
		writableAll(accounts.SourceAssets)

	return newInstruction(programID, data, metas), nil
}

// DepositAccounts are the accounts of the Deposit instruction. PoolAssets and
// SourceAssets are paired by index.
type DepositAccounts struct {
	TokenProgram    solana.PublicKey
	Mint            solana.PublicKey
	TargetPoolToken solana.PublicKey
	Pool            solana.PublicKey
	PoolAssets      []solana.PublicKey
	SourceOwner     solana.PublicKey
	SourceAssets    []solana.PublicKey
}

type DepositArgs struct {
	PoolSeed        PoolSeed
	PoolTokenAmount U64
}

// NewDepositInstruction builds the Deposit instruction that buys
// PoolTokenAmount pool tokens with proportional amounts of every asset.
//
// Data:     [3] pool_seed | pool_token_amount u64
// Accounts: token, mint (w), target_pool_token (w), pool,
// pool_asset (w) * N, source_owner (s), source_asset (w) * N
func NewDepositInstruction(programID solana.PublicKey, accounts *DepositAccounts, args *DepositArgs) (*Instruction, error) {
	const op = "deposit"
	if accounts == nil {
		return nil, fieldErr(op, "accounts", ErrMissingField)
	}
	if args == nil {
		return nil, fieldErr(op, "args", ErrMissingField)
	}
	if err := requireKeys(op,
		named{"program_id", programID},
		named{"token_program", accounts.TokenProgram},
		named{"mint", accounts.Mint},
		named{"target_pool_token", accounts.TargetPoolToken},
		named{"pool", accounts.Pool},
		named{"source_owner", accounts.SourceOwner},
	); err != nil {
		return nil, err
	}
	if args.PoolSeed.IsEmpty() {
		return nil, fieldErr(op, "pool_seed", ErrMissingField)
	}
	if err := requireAssets(op, accounts.PoolAssets, accounts.SourceAssets); err != nil {
		return nil, err
	}

	enc := newPayload(OpcodeDeposit, args.PoolSeed.Len()+u64Size)
	enc.seed(args.PoolSeed)
	enc.u64(args.PoolTokenAmount)
	data, err := enc.finish(op)
	if err != nil {
		return nil, err
	}

	n := len(accounts.PoolAssets)
	metas := newAccountList(5+2*n).
		readonly(accounts.TokenProgram).
		writable(accounts.Mint).
		writable(accounts.TargetPoolToken).
		readonly(accounts.Pool).
		writableAll(accounts.PoolAssets).
		signer(accounts.SourceOwner, false).
		writableAll(accounts.SourceAssets)

	return newInstruction(programID, data, metas), nil
}

// CreateOrderAccounts are the accounts of the CreateOrder instruction.
// Referrer is optional: when set it is appended as the last account.
type CreateOrderAccounts struct {
	SignalProvider solana.PublicKey
	Market         solana.PublicKey
	PayerPoolAsset solana.PublicKey
	OpenOrders     solana.PublicKey
	OrderTracker   solana.PublicKey
	RequestQueue   solana.PublicKey
	Pool           solana.PublicKey
	CoinVault      solana.PublicKey
	PcVault        solana.PublicKey
	TokenProgram   solana.PublicKey
	RentSysvar     solana.PublicKey
	DexProgram     solana.PublicKey
	Referrer       *solana.PublicKey
}

type CreateOrderArgs struct {
	PoolSeed          PoolSeed
	Side              OrderSide
	LimitPrice        U64
	MaxQuantity       U16
	OrderType         OrderType
	ClientID          U64
	SelfTradeBehavior SelfTradeBehavior
	PayerAssetIndex   U64
	TargetAssetIndex  U64
}

// createOrderArgsSize is the fixed part of the CreateOrder payload after the seed.
const createOrderArgsSize = u8Size + // side
	u64Size + // limit_price
	u16Size + // max_quantity
	u8Size + // order_type
	u64Size + // client_id
	u8Size + // self_trade_behavior
	u64Size + // source_index
	u64Size // target_index

// NewCreateOrderInstruction builds the CreateOrder instruction that places a
// serum order on behalf of the pool, signed by its signal provider.
//
// Data: [4] pool_seed | side u8 | limit_price u64 | max_quantity u16 |
// order_type u8 | client_id u64 | self_trade_behavior u8 |
// payer_asset_index u64 | target_asset_index u64
//
// Accounts: signal_provider (s), market (w), payer_pool_asset (w),
// open_orders (w), order_tracker (w), request_queue (w), pool (w),
// coin_vault (w), pc_vault (w), token, rent, dex, [referrer]
func NewCreateOrderInstruction(programID solana.PublicKey, accounts *CreateOrderAccounts, args *CreateOrderArgs) (*Instruction, error) {
	const op = "create_order"
	if accounts == nil {
		return nil, fieldErr(op, "accounts", ErrMissingField)
	}
	if args == nil {
		return nil, fieldErr(op, "args", ErrMissingField)
	}
	if err := requireKeys(op,
		named{"program_id", programID},
		named{"signal_provider", accounts.SignalProvider},
		named{"market", accounts.Market},
		named{"payer_pool_asset", accounts.PayerPoolAsset},
		named{"open_orders", accounts.OpenOrders},
		named{"order_tracker", accounts.OrderTracker},
		named{"request_queue", accounts.RequestQueue},
		named{"pool", accounts.Pool},
		named{"coin_vault", accounts.CoinVault},
		named{"pc_vault", accounts.PcVault},
		named{"token_program", accounts.TokenProgram},
		named{"rent_sysvar", accounts.RentSysvar},
		named{"dex_program", accounts.DexProgram},
	); err != nil {
		return nil, err
	}
	if accounts.Referrer != nil && accounts.Referrer.IsZero() {
		return nil, fieldErr(op, "referrer", ErrMissingField)
	}
	if args.PoolSeed.IsEmpty() {
		return nil, fieldErr(op, "pool_seed", ErrMissingField)
	}
	if !args.Side.Valid() {
		return nil, fieldErr(op, "side", fmt.Errorf("%w: %s", ErrRange, args.Side))
	}
	if !args.OrderType.Valid() {
		return nil, fieldErr(op, "order_type", fmt.Errorf("%w: %s", ErrRange, args.OrderType))
	}
	if !args.SelfTradeBehavior.Valid() {
		return nil, fieldErr(op, "self_trade_behavior", fmt.Errorf("%w: %s", ErrRange, args.SelfTradeBehavior))
	}

	enc := newPayload(OpcodeCreateOrder, args.PoolSeed.Len()+createOrderArgsSize)
	enc.seed(args.PoolSeed)
	enc.u8(uint8(args.Side))
	enc.u64(args.LimitPrice)
	enc.u16(args.MaxQuantity)
	enc.u8(uint8(args.OrderType))
	enc.u64(args.ClientID)
	enc.u8(uint8(args.SelfTradeBehavior))
	enc.u64(args.PayerAssetIndex)
	enc.u64(args.TargetAssetIndex)
	data, err := enc.finish(op)
	if err != nil {
		return nil, err
	}

	metas := newAccountList(13).
		signer(accounts.SignalProvider, false).
		writable(accounts.Market).
		writable(accounts.PayerPoolAsset).
		writable(accounts.OpenOrders).
		writable(accounts.OrderTracker).
		writable(accounts.RequestQueue).
		writable(accounts.Pool).
		writable(accounts.CoinVault).
		writable(accounts.PcVault).
		readonly(accounts.TokenProgram).
		readonly(accounts.RentSysvar).
		readonly(accounts.DexProgram)
	if accounts.Referrer != nil {
		metas.readonly(*accounts.Referrer)
	}

	return newInstruction(programID, data, metas), nil
}

// named pairs an address with its field name for requireKeys. The system
// program id is 32 zero bytes, so system program accounts are never passed.
type named struct {
	name string
	key  solana.PublicKey
}

func requireKeys(op string, keys ...named) error {
	for _, k := range keys {
		if k.key.IsZero() {
			return fieldErr(op, k.name, ErrMissingField)
		}
	}
	return nil
}

func requireAssets(op string, poolAssets, sourceAssets []solana.PublicKey) error {
	if len(poolAssets) == 0 {
		return fieldErr(op, "pool_assets", ErrMissingField)
	}
	if len(poolAssets) != len(sourceAssets) {
		return fieldErr(op, "source_assets", fmt.Errorf("%w: %d source assets for %d pool assets",
			ErrArity, len(sourceAssets), len(poolAssets)))
	}
	for i := range poolAssets {
		if poolAssets[i].IsZero() {
			return fieldErr(op, fmt.Sprintf("pool_assets[%d]", i), ErrMissingField)
		}
		if sourceAssets[i].IsZero() {
			return fieldErr(op, fmt.Sprintf("source_assets[%d]", i), ErrMissingField)
		}
	}
	return nil
}
