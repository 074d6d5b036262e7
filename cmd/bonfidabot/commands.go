package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/bonfida-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/bonfida-bot/internal/config"
	"github.com/rovshanmuradov/bonfida-bot/internal/pool"
	"github.com/rovshanmuradov/bonfida-bot/internal/utils/logger"
	"github.com/rovshanmuradov/bonfida-bot/internal/utils/metrics"
	"github.com/rovshanmuradov/bonfida-bot/internal/wallet"
	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
)

// commonFlags are shared by every command talking to the chain.
type commonFlags struct {
	*flag.FlagSet
	configPath string
	keypair    string
	dryRun     bool
	seed       string
}

func newCommonFlags(name string, out io.Writer) *commonFlags {
	f := &commonFlags{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.SetOutput(out)
	f.StringVar(&f.configPath, "config", "", "config file (yaml, json or toml)")
	f.StringVar(&f.keypair, "keypair", "", "keypair file, overrides keypair_path and private_key")
	f.BoolVar(&f.dryRun, "dry-run", false, "print the instructions instead of sending them")
	f.StringVar(&f.seed, "seed", "", "pool seed with bump, hex")
	return f
}

// app is the wiring of one chain command.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *solbc.Client
	svc     *pool.Service
	metrics *metrics.Collector
}

func newApp(f *commonFlags) (*app, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	w, err := loadWallet(cfg, f.keypair)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector()
	client, err := solbc.NewClient(cfg.RPCList, cfg.CommitmentType(), log.Logger)
	if err != nil {
		return nil, err
	}
	client.SetRecorder(collector)
	submitter := solbc.NewSubmitter(client, solbc.SubmitterConfig{
		Commitment:      cfg.CommitmentType(),
		SkipPreflight:   cfg.SkipPreflight,
		Retries:         cfg.Retries,
		RetryInterval:   cfg.RetryInterval,
		MaxElapsed:      cfg.MaxElapsed,
		ConfirmTimeout:  cfg.ConfirmTimeout,
		ConfirmInterval: cfg.ConfirmInterval,
		ComputeUnits:    cfg.ComputeUnits,
		PriorityFee:     cfg.PriorityFee,
	}, log.Logger)
	submitter.SetRecorder(collector)

	svc := pool.NewService(client, submitter, w, pool.Config{
		ProgramID: cfg.Program(),
		Programs:  cfg.Programs(),
		DryRun:    f.dryRun,
		Recorder:  collector,
	}, log.Logger)

	log.Info("Wallet loaded", zap.String("wallet", w.String()), zap.Bool("dry_run", f.dryRun))
	return &app{cfg: cfg, log: log, client: client, svc: svc, metrics: collector}, nil
}

func (a *app) close() {
	for _, st := range a.client.Stats() {
		a.log.Debug("RPC node stats",
			zap.String("node", st.URL),
			zap.Bool("active", st.Active),
			zap.Uint64("success", st.Success),
			zap.Uint64("errors", st.Errors),
			zap.Duration("avg_latency", st.AvgDelay))
	}
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.log.Warn("Failed to write metrics", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func loadWallet(cfg *config.Config, keypair string) (*wallet.Wallet, error) {
	switch {
	case keypair != "":
		return wallet.LoadFromFile(keypair)
	case cfg.KeypairPath != "":
		return wallet.LoadFromFile(cfg.KeypairPath)
	case cfg.PrivateKey != "":
		return wallet.NewWallet(cfg.PrivateKey)
	}
	return nil, fmt.Errorf("no wallet: set -keypair, keypair_path or private_key")
}

func runOperation(ctx context.Context, name string, cmd operation, args []string, out io.Writer) error {
	f := newCommonFlags(name, out)
	exec := cmd(f)
	if err := f.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	a, err := newApp(f)
	if err != nil {
		return err
	}
	defer a.close()

	done := a.log.TrackOperation(name)
	result, err := exec(ctx, a.svc)
	done(err)
	if err != nil {
		if result != nil && result.Signature != (solana.Signature{}) {
			a.log.WithSignature(result.Signature).Warn("Transaction sent but not confirmed")
			fmt.Fprintln(out, "signature:", result.Signature)
		}
		return err
	}

	if !f.dryRun {
		a.log.WithPool(result.Pool).Info("Command finished", zap.Stringer("signature", result.Signature))
	}
	printResult(out, result, f.dryRun)
	return nil
}

func initPoolCommand(f *commonFlags) func(context.Context, *pool.Service) (*pool.Result, error) {
	mint := f.String("mint", "", "pool token mint address")
	maxAssets := f.Uint64("max-assets", 10, "number of asset slots")

	return func(ctx context.Context, svc *pool.Service) (*pool.Result, error) {
		seed, err := parseSeed(f.seed)
		if err != nil {
			return nil, err
		}
		mintKey, err := parseKey("mint", *mint)
		if err != nil {
			return nil, err
		}
		return svc.InitPool(ctx, pool.InitPoolRequest{PoolSeed: seed, Mint: mintKey, MaxAssets: *maxAssets})
	}
}

func initOrderCommand(f *commonFlags) func(context.Context, *pool.Service) (*pool.Result, error) {
	tracker := f.String("tracker", "", "order tracker address")
	openOrders := f.String("open-orders", "", "serum open orders address")

	return func(ctx context.Context, svc *pool.Service) (*pool.Result, error) {
		seed, err := parseSeed(f.seed)
		if err != nil {
			return nil, err
		}
		trackerKey, err := parseKey("tracker", *tracker)
		if err != nil {
			return nil, err
		}
		openOrdersKey, err := parseKey("open-orders", *openOrders)
		if err != nil {
			return nil, err
		}
		return svc.InitOrderTracker(ctx, pool.InitOrderTrackerRequest{
			PoolSeed: seed, OrderTracker: trackerKey, OpenOrders: openOrdersKey,
		})
	}
}

func createPoolCommand(f *commonFlags) func(context.Context, *pool.Service) (*pool.Result, error) {
	mint := f.String("mint", "", "pool token mint address")
	signal := f.String("signal-provider", "", "signal provider address")
	assets := f.String("assets", "", "initial deposit, mint:amount[:decimals],...")

	return func(ctx context.Context, svc *pool.Service) (*pool.Result, error) {
		seed, err := parseSeed(f.seed)
		if err != nil {
			return nil, err
		}
		mintKey, err := parseKey("mint", *mint)
		if err != nil {
			return nil, err
		}
		signalKey, err := parseKey("signal-provider", *signal)
		if err != nil {
			return nil, err
		}
		deposits, err := parseAssets(*assets)
		if err != nil {
			return nil, err
		}
		return svc.CreatePool(ctx, pool.CreatePoolRequest{
			PoolSeed: seed, Mint: mintKey, SignalProvider: signalKey, Assets: deposits,
		})
	}
}

func depositCommand(f *commonFlags) func(context.Context, *pool.Service) (*pool.Result, error) {
	mint := f.String("mint", "", "pool token mint address")
	amount := f.String("amount", "", "pool tokens to buy")
	decimals := f.Uint("decimals", 0, "pool token decimals, amount is in base units when 0")

	return func(ctx context.Context, svc *pool.Service) (*pool.Result, error) {
		seed, err := parseSeed(f.seed)
		if err != nil {
			return nil, err
		}
		mintKey, err := parseKey("mint", *mint)
		if err != nil {
			return nil, err
		}
		if *decimals > 255 {
			return nil, fmt.Errorf("-decimals: %w: %d", bonfidabot.ErrRange, *decimals)
		}
		tokens, err := parseAmount(*amount, uint8(*decimals))
		if err != nil {
			return nil, fmt.Errorf("-amount: %w", err)
		}
		return svc.Deposit(ctx, pool.DepositRequest{PoolSeed: seed, Mint: mintKey, PoolTokenAmount: tokens})
	}
}

func createOrderCommand(f *commonFlags) func(context.Context, *pool.Service) (*pool.Result, error) {
	market := f.String("market", "", "serum market address")
	openOrders := f.String("open-orders", "", "pool open orders address")
	tracker := f.String("tracker", "", "order tracker address")
	side := f.String("side", "bid", "bid or ask")
	price := f.Uint64("price", 0, "limit price in quote lots")
	quantity := f.Uint64("quantity", 0, "max quantity in base lots, at most 65535")
	orderType := f.String("type", "limit", "limit, ioc or post-only")
	clientID := f.Uint64("client-id", 0, "client order id")
	selfTrade := f.String("self-trade", "decrement-take", "decrement-take, cancel-provide or abort-transaction")
	referrer := f.String("referrer", "", "optional fee referrer address")

	return func(ctx context.Context, svc *pool.Service) (*pool.Result, error) {
		seed, err := parseSeed(f.seed)
		if err != nil {
			return nil, err
		}
		req := pool.CreateOrderRequest{
			PoolSeed:   seed,
			LimitPrice: bonfidabot.NewU64(*price),
			ClientID:   bonfidabot.NewU64(*clientID),
		}
		if req.Market, err = parseKey("market", *market); err != nil {
			return nil, err
		}
		if req.OpenOrders, err = parseKey("open-orders", *openOrders); err != nil {
			return nil, err
		}
		if req.OrderTracker, err = parseKey("tracker", *tracker); err != nil {
			return nil, err
		}
		if req.Side, err = bonfidabot.ParseOrderSide(*side); err != nil {
			return nil, err
		}
		if req.OrderType, err = bonfidabot.ParseOrderType(*orderType); err != nil {
			return nil, err
		}
		if req.SelfTradeBehavior, err = bonfidabot.ParseSelfTradeBehavior(*selfTrade); err != nil {
			return nil, err
		}
		if req.MaxQuantity, err = parseU16("quantity", *quantity); err != nil {
			return nil, err
		}
		if req.Referrer, err = parseOptionalKey("referrer", *referrer); err != nil {
			return nil, err
		}
		return svc.CreateOrder(ctx, req)
	}
}

func runDerive(args []string, out io.Writer) error {
	f := flag.NewFlagSet("derive", flag.ContinueOnError)
	f.SetOutput(out)
	program := f.String("program", "", "bonfida-bot program id")
	base := f.String("base", "", "base seed as text")
	baseHex := f.String("base-hex", "", "base seed as hex")
	if err := f.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	programID, err := parseKey("program", *program)
	if err != nil {
		return err
	}
	raw := []byte(*base)
	if *baseHex != "" {
		if raw, err = hex.DecodeString(*baseHex); err != nil {
			return fmt.Errorf("-base-hex: %w", err)
		}
	}

	seed, addr, err := bonfidabot.FindPoolSeed(programID, raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "pool:", addr)
	fmt.Fprintln(out, "seed:", hex.EncodeToString(seed.Bytes()))
	fmt.Fprintln(out, "bump:", seed[len(seed)-1][0])
	return nil
}

func runInspect(ctx context.Context, args []string, out io.Writer) error {
	f := newCommonFlags("inspect", out)
	data := f.String("data", "", "instruction data, base64")
	seedLen := f.Int("seed-len", 0, "seed length of the data, defaults to the -seed length")
	if err := f.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	if *data != "" {
		raw, err := base64.StdEncoding.DecodeString(*data)
		if err != nil {
			return fmt.Errorf("-data: %w", err)
		}
		n := *seedLen
		if n == 0 && f.seed != "" {
			seed, err := parseSeed(f.seed)
			if err != nil {
				return err
			}
			n = seed.Len()
		}
		decoded, err := bonfidabot.DecodeInstructionData(raw, n)
		if err != nil {
			return err
		}
		printDecoded(out, decoded)
		return nil
	}

	seed, err := parseSeed(f.seed)
	if err != nil {
		return err
	}
	a, err := newApp(f)
	if err != nil {
		return err
	}
	defer a.close()

	addr, state, err := a.svc.FetchPool(ctx, seed)
	if err != nil {
		return err
	}
	printPool(out, addr, state)
	return nil
}
