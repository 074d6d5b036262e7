// pkg/bonfidabot/decode.go
package bonfidabot

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// DecodedInstruction is the typed view of an instruction payload. Only the
// fields of the decoded opcode are set.
type DecodedInstruction struct {
	Opcode   Opcode
	PoolSeed []byte

	// Init
	MaxAssets uint32

	// Create
	SignalProvider solana.PublicKey
	DepositAmounts []uint64

	// Deposit
	PoolTokenAmount uint64

	// CreateOrder
	Side              OrderSide
	LimitPrice        uint64
	MaxQuantity       uint16
	OrderType         OrderType
	ClientID          uint64
	SelfTradeBehavior SelfTradeBehavior
	PayerAssetIndex   uint64
	TargetAssetIndex  uint64
}

// DecodeInstructionData parses a payload produced by the New*Instruction
// functions. The seed length is not part of the wire format and must be
// supplied by the caller.
func DecodeInstructionData(data []byte, seedLen int) (*DecodedInstruction, error) {
	if len(data) < 1+seedLen || seedLen <= 0 {
		return nil, fmt.Errorf("%w: %d bytes cannot hold opcode and %d seed bytes", ErrInvalidInstructionData, len(data), seedLen)
	}
	dec := bin.NewBinDecoder(data)

	opcode, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("%w: opcode: %v", ErrInvalidInstructionData, err)
	}
	out := &DecodedInstruction{Opcode: Opcode(opcode)}
	if !out.Opcode.Valid() {
		return nil, fmt.Errorf("%w: unknown opcode %d", ErrInvalidInstructionData, opcode)
	}
	if out.PoolSeed, err = dec.ReadNBytes(seedLen); err != nil {
		return nil, fmt.Errorf("%w: pool seed: %v", ErrInvalidInstructionData, err)
	}

	switch out.Opcode {
	case OpcodeInit:
		err = expectRemaining(dec, u32Size)
		if err == nil {
			out.MaxAssets, err = dec.ReadUint32(bin.LE)
		}
	case OpcodeInitOrder:
		err = expectRemaining(dec, 0)
	case OpcodeCreate:
		err = decodeCreate(dec, out)
	case OpcodeDeposit:
		err = expectRemaining(dec, u64Size)
		if err == nil {
			out.PoolTokenAmount, err = dec.ReadUint64(bin.LE)
		}
	case OpcodeCreateOrder:
		err = decodeCreateOrder(dec, out)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", out.Opcode, err)
	}
	return out, nil
}

func decodeCreate(dec *bin.Decoder, out *DecodedInstruction) error {
	rest := dec.Remaining() - pubkeySize
	if rest < 0 || rest%u64Size != 0 {
		return fmt.Errorf("%w: %d bytes after seed", ErrInvalidInstructionData, dec.Remaining())
	}
	key, err := dec.ReadNBytes(pubkeySize)
	if err != nil {
		return err
	}
	out.SignalProvider = solana.PublicKeyFromBytes(key)
	out.DepositAmounts = make([]uint64, rest/u64Size)
	for i := range out.DepositAmounts {
		if out.DepositAmounts[i], err = dec.ReadUint64(bin.LE); err != nil {
			return err
		}
	}
	return nil
}

func decodeCreateOrder(dec *bin.Decoder, out *DecodedInstruction) error {
	if err := expectRemaining(dec, createOrderArgsSize); err != nil {
		return err
	}
	var (
		b   uint8
		err error
	)
	if b, err = dec.ReadUint8(); err != nil {
		return err
	}
	out.Side = OrderSide(b)
	if out.LimitPrice, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if out.MaxQuantity, err = dec.ReadUint16(bin.LE); err != nil {
		return err
	}
	if b, err = dec.ReadUint8(); err != nil {
		return err
	}
	out.OrderType = OrderType(b)
	if out.ClientID, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	if b, err = dec.ReadUint8(); err != nil {
		return err
	}
	out.SelfTradeBehavior = SelfTradeBehavior(b)
	if out.PayerAssetIndex, err = dec.ReadUint64(bin.LE); err != nil {
		return err
	}
	out.TargetAssetIndex, err = dec.ReadUint64(bin.LE)
	return err
}

func expectRemaining(dec *bin.Decoder, n int) error {
	if dec.Remaining() != n {
		return fmt.Errorf("%w: %d bytes after seed, expected %d", ErrInvalidInstructionData, dec.Remaining(), n)
	}
	return nil
}
