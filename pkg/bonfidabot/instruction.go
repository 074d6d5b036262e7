// pkg/bonfidabot/instruction.go
package bonfidabot

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/treeout"
	"github.com/samber/lo"
)

// Instruction is the encoded bonfida-bot instruction. It is immutable once
// built: every accessor returns a copy.
type Instruction struct {
	program  solana.PublicKey
	data     []byte
	accounts []solana.AccountMeta
}

var _ solana.Instruction = (*Instruction)(nil)

func newInstruction(program solana.PublicKey, data []byte, accounts *accountList) *Instruction {
	return &Instruction{
		program:  program,
		data:     data,
		accounts: accounts.metas,
	}
}

func (ix *Instruction) ProgramID() solana.PublicKey {
	return ix.program
}

// Accounts returns fresh metas in program order.
func (ix *Instruction) Accounts() []*solana.AccountMeta {
	return lo.Map(ix.accounts, func(m solana.AccountMeta, _ int) *solana.AccountMeta {
		meta := m
		return &meta
	})
}

func (ix *Instruction) Data() ([]byte, error) {
	return bytes.Clone(ix.data), nil
}

func (ix *Instruction) Opcode() Opcode {
	return Opcode(ix.data[0])
}

// EncodeToTree writes a human readable view of the instruction.
func (ix *Instruction) EncodeToTree(parent treeout.Branches) {
	node := parent.Child(fmt.Sprintf("BonfidaBot %s", ix.Opcode()))
	node.Child(fmt.Sprintf("Program: %s", ix.program))
	node.Child(fmt.Sprintf("Data (%d bytes): %s", len(ix.data), hex.EncodeToString(ix.data)))
	accounts := node.Child(fmt.Sprintf("Accounts (%d)", len(ix.accounts)))
	for i, m := range ix.accounts {
		accounts.Child(fmt.Sprintf("[%d] %s %s", i, flags(m), m.PublicKey))
	}
}

func (ix *Instruction) String() string {
	tree := treeout.New("Instruction")
	ix.EncodeToTree(tree)
	return tree.String()
}

func flags(m solana.AccountMeta) string {
	f := []byte("--")
	if m.IsSigner {
		f[0] = 's'
	}
	if m.IsWritable {
		f[1] = 'w'
	}
	return string(f)
}

// accountList collects metas in the order the program parses them.
type accountList struct {
	metas []solana.AccountMeta
}

func newAccountList(capacity int) *accountList {
	return &accountList{metas: make([]solana.AccountMeta, 0, capacity)}
}

func (l *accountList) add(key solana.PublicKey, signer, writable bool) *accountList {
	l.metas = append(l.metas, solana.AccountMeta{PublicKey: key, IsSigner: signer, IsWritable: writable})
	return l
}

func (l *accountList) readonly(key solana.PublicKey) *accountList {
	return l.add(key, false, false)
}

func (l *accountList) writable(key solana.PublicKey) *accountList {
	return l.add(key, false, true)
}

func (l *accountList) signer(key solana.PublicKey, writable bool) *accountList {
	return l.add(key, true, writable)
}

func (l *accountList) writableAll(keys []solana.PublicKey) *accountList {
	for _, k := range keys {
		l.writable(k)
	}
	return l
}
