package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/bonfida-bot/internal/pool"
	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
)

func printResult(out io.Writer, result *pool.Result, dryRun bool) {
	fmt.Fprintln(out, "pool:", result.Pool)
	if !dryRun {
		fmt.Fprintln(out, "signature:", result.Signature)
		return
	}
	for i, ix := range result.Instructions {
		printInstruction(out, i, ix)
	}
}

func printInstruction(out io.Writer, i int, ix solana.Instruction) {
	data, err := ix.Data()
	if err != nil {
		fmt.Fprintf(out, "#%d %s: %v\n", i, ix.ProgramID(), err)
		return
	}
	if bix, ok := ix.(*bonfidabot.Instruction); ok {
		fmt.Fprintf(out, "#%d %s", i, bix.String())
	} else {
		fmt.Fprintf(out, "#%d program %s, %d accounts\n", i, ix.ProgramID(), len(ix.Accounts()))
	}
	fmt.Fprintln(out, "data:", base64.StdEncoding.EncodeToString(data))
}

func printDecoded(out io.Writer, d *bonfidabot.DecodedInstruction) {
	fmt.Fprintln(out, "opcode:", d.Opcode)
	fmt.Fprintln(out, "seed:", hex.EncodeToString(d.PoolSeed))
	switch d.Opcode {
	case bonfidabot.OpcodeInit:
		fmt.Fprintln(out, "max_assets:", d.MaxAssets)
	case bonfidabot.OpcodeCreate:
		fmt.Fprintln(out, "signal_provider:", d.SignalProvider)
		fmt.Fprintln(out, "deposit_amounts:", d.DepositAmounts)
	case bonfidabot.OpcodeDeposit:
		fmt.Fprintln(out, "pool_token_amount:", d.PoolTokenAmount)
	case bonfidabot.OpcodeCreateOrder:
		fmt.Fprintln(out, "side:", d.Side)
		fmt.Fprintln(out, "limit_price:", d.LimitPrice)
		fmt.Fprintln(out, "max_quantity:", d.MaxQuantity)
		fmt.Fprintln(out, "order_type:", d.OrderType)
		fmt.Fprintln(out, "client_id:", d.ClientID)
		fmt.Fprintln(out, "self_trade_behavior:", d.SelfTradeBehavior)
		fmt.Fprintln(out, "payer_asset_index:", d.PayerAssetIndex)
		fmt.Fprintln(out, "target_asset_index:", d.TargetAssetIndex)
	}
}

func printPool(out io.Writer, addr solana.PublicKey, state *bonfidabot.PoolState) {
	fmt.Fprintln(out, "pool:", addr)
	fmt.Fprintln(out, "initialized:", state.Header.IsInitialized)
	fmt.Fprintln(out, "signal_provider:", state.Header.SignalProvider)
	filled := state.Filled()
	fmt.Fprintf(out, "assets: %d of %d slots\n", len(filled), len(state.Assets))
	for i, a := range state.Assets {
		if a.Mint.IsZero() {
			continue
		}
		fmt.Fprintf(out, "  [%d] %s %d\n", i, a.Mint, a.Amount)
	}
}
