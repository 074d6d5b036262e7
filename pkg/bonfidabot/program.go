// =============================
// File: pkg/bonfidabot/program.go
// =============================
package bonfidabot

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Opcode is the first byte of every instruction payload. It selects the
// on-chain handler that parses the rest of the data.
type Opcode uint8

const (
	OpcodeInit Opcode = iota
	OpcodeInitOrder
	OpcodeCreate
	OpcodeDeposit
	OpcodeCreateOrder
)

func (o Opcode) Valid() bool {
	return o <= OpcodeCreateOrder
}

func (o Opcode) String() string {
	switch o {
	case OpcodeInit:
		return "Init"
	case OpcodeInitOrder:
		return "InitOrder"
	case OpcodeCreate:
		return "Create"
	case OpcodeDeposit:
		return "Deposit"
	case OpcodeCreateOrder:
		return "CreateOrder"
	}
	return fmt.Sprintf("Opcode(%d)", uint8(o))
}

// OrderSide mirrors the serum dex side enumeration.
type OrderSide uint8

const (
	SideBid OrderSide = iota
	SideAsk
)

func (s OrderSide) Valid() bool {
	return s <= SideAsk
}

func (s OrderSide) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	}
	return fmt.Sprintf("OrderSide(%d)", uint8(s))
}

// ParseOrderSide accepts "bid"/"buy" and "ask"/"sell".
func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bid", "buy":
		return SideBid, nil
	case "ask", "sell":
		return SideAsk, nil
	}
	return 0, fmt.Errorf("%w: unknown order side %q", ErrRange, s)
}

type OrderType uint8

const (
	OrderTypeLimit OrderType = iota
	OrderTypeImmediateOrCancel
	OrderTypePostOnly
)

func (t OrderType) Valid() bool {
	return t <= OrderTypePostOnly
}

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "limit"
	case OrderTypeImmediateOrCancel:
		return "ioc"
	case OrderTypePostOnly:
		return "post-only"
	}
	return fmt.Sprintf("OrderType(%d)", uint8(t))
}

func ParseOrderType(s string) (OrderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "limit":
		return OrderTypeLimit, nil
	case "ioc", "immediate-or-cancel", "market":
		return OrderTypeImmediateOrCancel, nil
	case "post-only", "postonly":
		return OrderTypePostOnly, nil
	}
	return 0, fmt.Errorf("%w: unknown order type %q", ErrRange, s)
}

// SelfTradeBehavior decides what the dex does when an order would match
// against an order of the same owner.
type SelfTradeBehavior uint8

const (
	DecrementTake SelfTradeBehavior = iota
	CancelProvide
	AbortTransaction
)

func (b SelfTradeBehavior) Valid() bool {
	return b <= AbortTransaction
}

func (b SelfTradeBehavior) String() string {
	switch b {
	case DecrementTake:
		return "decrement-take"
	case CancelProvide:
		return "cancel-provide"
	case AbortTransaction:
		return "abort-transaction"
	}
	return fmt.Sprintf("SelfTradeBehavior(%d)", uint8(b))
}

func ParseSelfTradeBehavior(s string) (SelfTradeBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "decrement-take", "decrement":
		return DecrementTake, nil
	case "cancel-provide", "cancel":
		return CancelProvide, nil
	case "abort-transaction", "abort":
		return AbortTransaction, nil
	}
	return 0, fmt.Errorf("%w: unknown self trade behavior %q", ErrRange, s)
}

// Programs groups the well known program and sysvar addresses that the
// bonfida-bot instructions reference.
type Programs struct {
	System solana.PublicKey
	Rent   solana.PublicKey
	Token  solana.PublicKey
	Dex    solana.PublicKey
}

// SerumDexV3ProgramID is the mainnet serum dex v3 program.
const SerumDexV3ProgramID = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

// DefaultPrograms returns mainnet addresses. Every call returns a fresh value.
func DefaultPrograms() Programs {
	return Programs{
		System: solana.SystemProgramID,
		Rent:   solana.SysVarRentPubkey,
		Token:  solana.TokenProgramID,
		Dex:    solana.MustPublicKeyFromBase58(SerumDexV3ProgramID),
	}
}
