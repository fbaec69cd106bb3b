// Package bitcoder implements a bit-level binary arithmetic coder operating
// on (bit, prob16) pairs, where prob16 is P(bit=1) scaled to [1, 65534].
// It is consumed by the bit-mix method's byte-via-bits coding loop
// (method.CompressBitMix/DecompressBitMix) the same way rangecoder is
// consumed by the order0-arith, ppm and byte-mix methods.
package bitcoder

import (
	"bytes"

	"github.com/pkg/errors"
)

// ErrInvalidParameter is panicked when prob is outside [1, 65534].
var ErrInvalidParameter = errors.New("bitcoder: invalid parameter")

// top is the byte-agreement threshold: bits shift out of the coder once
// the top bytes of x1 and x2 agree, i.e. (x1 XOR x2) < top.
const top uint32 = 1 << 24

// Encoder is the encode-side binary arithmetic coder state.
type Encoder struct {
	x1, x2 uint32
	out    *bytes.Buffer
}

// NewEncoder returns a binary arithmetic coder encoder writing to out.
func NewEncoder(out *bytes.Buffer) *Encoder {
	return &Encoder{x1: 0, x2: 0xFFFFFFFF, out: out}
}

// Encode codes bit using prob = P(bit=1) * 2^16, prob in [1, 65534].
func (e *Encoder) Encode(bit int, prob uint32) {
	if prob < 1 || prob > 65534 {
		panic(errors.Wrapf(ErrInvalidParameter, "prob=%d", prob))
	}
	xmid := e.x1 + uint32((uint64(e.x2-e.x1)*uint64(prob))>>16)
	if bit != 0 {
		e.x2 = xmid
	} else {
		e.x1 = xmid + 1
	}
	for (e.x1^e.x2) < top {
		e.out.WriteByte(byte(e.x2 >> 24))
		e.x1 <<= 8
		e.x2 = (e.x2 << 8) | 0xFF
	}
}

// Flush emits the four bytes of x1, completing the stream.
func (e *Encoder) Flush() {
	e.out.WriteByte(byte(e.x1 >> 24))
	e.out.WriteByte(byte(e.x1 >> 16))
	e.out.WriteByte(byte(e.x1 >> 8))
	e.out.WriteByte(byte(e.x1))
}

// Decoder is the decode-side binary arithmetic coder state.
type Decoder struct {
	x1, x2, code uint32
	in           []byte
	pos          int
}

// NewDecoder returns a binary arithmetic coder decoder reading from in,
// priming code with 4 bytes.
func NewDecoder(in []byte) *Decoder {
	d := &Decoder{x1: 0, x2: 0xFFFFFFFF, in: in}
	for i := 0; i < 4; i++ {
		d.code = (d.code << 8) | uint32(d.readByte())
	}
	return d
}

func (d *Decoder) readByte() byte {
	if d.pos >= len(d.in) {
		d.pos++
		return 0
	}
	b := d.in[d.pos]
	d.pos++
	return b
}

// Decode decodes one bit given the same prob the encoder used.
func (d *Decoder) Decode(prob uint32) int {
	xmid := d.x1 + uint32((uint64(d.x2-d.x1)*uint64(prob))>>16)
	var bit int
	if d.code <= xmid {
		bit = 1
		d.x2 = xmid
	} else {
		bit = 0
		d.x1 = xmid + 1
	}
	for (d.x1^d.x2) < top {
		d.x1 <<= 8
		d.x2 = (d.x2 << 8) | 0xFF
		d.code = (d.code << 8) | uint32(d.readByte())
	}
	return bit
}

// Exhausted reports whether the decoder has read past the end of input.
func (d *Decoder) Exhausted() bool {
	return d.pos > len(d.in)
}
