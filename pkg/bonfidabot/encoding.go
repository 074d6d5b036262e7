// pkg/bonfidabot/encoding.go
package bonfidabot

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// payload writes an opcode-prefixed instruction body. The first write error
// is kept and reported by finish.
type payload struct {
	buf  *bytes.Buffer
	enc  *bin.Encoder
	want int
	err  error
}

func newPayload(op Opcode, bodySize int) *payload {
	buf := bytes.NewBuffer(make([]byte, 0, 1+bodySize))
	p := &payload{
		buf:  buf,
		enc:  bin.NewBinEncoder(buf),
		want: 1 + bodySize,
	}
	p.u8(uint8(op))
	return p
}

func (p *payload) u8(v uint8) {
	if p.err == nil {
		p.err = p.enc.WriteUint8(v)
	}
}

func (p *payload) u16(v U16) {
	if p.err == nil {
		p.err = p.enc.WriteUint16(v.Uint16(), bin.LE)
	}
}

func (p *payload) u32(v U32) {
	if p.err == nil {
		p.err = p.enc.WriteUint32(v.Uint32(), bin.LE)
	}
}

func (p *payload) u64(v U64) {
	if p.err == nil {
		p.err = p.enc.WriteUint64(v.Uint64(), bin.LE)
	}
}

func (p *payload) pubkey(k solana.PublicKey) {
	if p.err == nil {
		p.err = p.enc.WriteBytes(k[:], false)
	}
}

// seed writes the seed buffers back to back, without length prefixes.
func (p *payload) seed(s PoolSeed) {
	for _, b := range s {
		if p.err != nil {
			return
		}
		p.err = p.enc.WriteBytes(b, false)
	}
}

func (p *payload) finish(op string) ([]byte, error) {
	if p.err != nil {
		return nil, fmt.Errorf("%s: failed to encode instruction data: %w", op, p.err)
	}
	if p.buf.Len() != p.want {
		return nil, fmt.Errorf("%s: encoded %d bytes, expected %d: %w", op, p.buf.Len(), p.want, ErrInvalidInstructionData)
	}
	return p.buf.Bytes(), nil
}
