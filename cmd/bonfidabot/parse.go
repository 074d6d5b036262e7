package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/bonfida-bot/internal/pool"
	"github.com/rovshanmuradov/bonfida-bot/pkg/bonfidabot"
)

var errUsage = errors.New("usage")

func parseKey(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("-%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("-%s: %w", name, err)
	}
	return key, nil
}

// parseOptionalKey returns nil for an empty value.
func parseOptionalKey(name, value string) (*solana.PublicKey, error) {
	if value == "" {
		return nil, nil
	}
	key, err := parseKey(name, value)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// parseSeed reads the full pool seed, bump included, as hex.
func parseSeed(value string) (bonfidabot.PoolSeed, error) {
	if value == "" {
		return nil, errors.New("-seed is required")
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(value, "0x"))
	if err != nil {
		return nil, fmt.Errorf("-seed: %w", err)
	}
	return bonfidabot.PoolSeed{raw}, nil
}

// parseAmount converts a decimal amount into base units of a mint with the
// given decimals.
func parseAmount(value string, decimals uint8) (bonfidabot.U64, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return bonfidabot.U64{}, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return bonfidabot.U64FromDecimal(amount, decimals)
}

// parseAssets reads "mint:amount[:decimals]" entries separated by commas.
// Without decimals the amount is in base units.
func parseAssets(value string) ([]pool.AssetDeposit, error) {
	if strings.TrimSpace(value) == "" {
		return nil, errors.New("-assets is required")
	}
	var out []pool.AssetDeposit
	for i, entry := range strings.Split(value, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("asset %d: expected mint:amount[:decimals], got %q", i, entry)
		}
		mint, err := solana.PublicKeyFromBase58(parts[0])
		if err != nil {
			return nil, fmt.Errorf("asset %d mint: %w", i, err)
		}
		var decimals uint8
		if len(parts) == 3 {
			d, err := strconv.ParseUint(parts[2], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("asset %d decimals: %w", i, err)
			}
			decimals = uint8(d)
		}
		amount, err := parseAmount(parts[1], decimals)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", i, err)
		}
		out = append(out, pool.AssetDeposit{Mint: mint, Amount: amount})
	}
	return out, nil
}

func parseU16(name string, value uint64) (bonfidabot.U16, error) {
	v, err := bonfidabot.NewU16(value)
	if err != nil {
		return bonfidabot.U16{}, fmt.Errorf("-%s: %w", name, err)
	}
	return v, nil
}
