// Package rangecoder implements a byte-oriented, carry-propagating range
// coder operating on arbitrary (cumFreq, freq, total) triples. It is the
// lowest layer of the statistical compression core: callers supply a
// cumulative frequency table (order0.Model, ppm.Model, bytemix.Mixer, ...)
// and the coder turns per-symbol probabilities into bytes.
package rangecoder

import (
	"bytes"

	"github.com/pkg/errors"
)

// top is the normalisation threshold. After every encode/decode step,
// range must satisfy range >= top.
const top uint32 = 1 << 24

// ErrInvalidParameter is the value Encoder.Encode panics with on invalid
// parameters. The decoder never checks its parameters; it trusts its own
// stream position.
var ErrInvalidParameter = errors.New("rangecoder: invalid parameter")

// ErrCorruptStream is the package's corrupt-stream error. The Decoder does
// not return it: GetFreq clamps out-of-range values, and reads past the end
// of input yield zero bytes, which Exhausted reports.
var ErrCorruptStream = errors.New("rangecoder: corrupt stream")

// Encoder is the encode-side range coder state.
type Encoder struct {
	low       uint64
	rng       uint32
	cache     byte
	cacheSize int64
	out       *bytes.Buffer
}

// NewEncoder returns a range coder encoder writing to out.
func NewEncoder(out *bytes.Buffer) *Encoder {
	return &Encoder{
		rng:       0xFFFFFFFF,
		cacheSize: 1,
		out:       out,
	}
}

// Encode narrows the coding interval to the sub-range [cumFreq, cumFreq+freq)
// out of total. It panics if freq == 0, cumFreq+freq > total, or total is
// too large for the interval arithmetic below to stay exact — these are
// caller mistakes, not corrupt input, so they are not reported as errors.
func (e *Encoder) Encode(cumFreq, freq, total uint32) {
	if freq == 0 || uint64(cumFreq)+uint64(freq) > uint64(total) || total >= (1<<16) {
		panic(errors.Wrapf(ErrInvalidParameter, "cumFreq=%d freq=%d total=%d", cumFreq, freq, total))
	}
	e.rng /= total
	e.low += uint64(cumFreq) * uint64(e.rng)
	e.rng *= freq
	for e.rng < top {
		e.shiftLow()
		e.rng <<= 8
	}
}

// shiftLow buffers the high byte of low in cache, counting 0xFF runs in
// cacheSize, and flushes once a non-0xFF byte or a carry resolves them.
func (e *Encoder) shiftLow() {
	if uint32(e.low>>32) != 0 || e.low < 0xFF000000 {
		carry := byte(e.low >> 32)
		b := e.cache
		for n := e.cacheSize; n > 0; n-- {
			e.out.WriteByte(b + carry)
			b = 0xFF
		}
		e.cache = byte(e.low >> 24)
		e.cacheSize = 0
	}
	e.cacheSize++
	e.low = (e.low << 8) & 0xFFFFFFFF
}

// Flush drains the remaining buffered bytes. It must be called exactly once,
// after the last Encode call, and calls shiftLow five times so the decoder's
// 5-byte priming always has enough input to read.
func (e *Encoder) Flush() {
	for i := 0; i < 5; i++ {
		e.shiftLow()
	}
}

// Decoder is the decode-side range coder state.
type Decoder struct {
	code uint32
	rng  uint32
	in   []byte
	pos  int
}

// NewDecoder returns a range coder decoder reading from in. It primes code
// with the first 5 bytes, matching Encoder's 5-byte flush.
func NewDecoder(in []byte) *Decoder {
	d := &Decoder{rng: 0xFFFFFFFF, in: in}
	for i := 0; i < 5; i++ {
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

// GetFreq returns the cumulative-frequency value the current interval
// decodes to, out of total. The caller maps this to a symbol (e.g. via a
// cumulative-array binary search) and then calls Update.
func (d *Decoder) GetFreq(total uint32) uint32 {
	d.rng /= total
	v := d.code / d.rng
	if v >= total {
		v = total - 1
	}
	return v
}

// Update narrows the decoder's interval identically to Encoder.Encode, given
// the (cumFreq, freq) of the symbol that GetFreq's return value mapped to.
func (d *Decoder) Update(cumFreq, freq uint32) {
	d.code -= cumFreq * d.rng
	d.rng *= freq
	for d.rng < top {
		d.code = (d.code << 8) | uint32(d.readByte())
		d.rng <<= 8
	}
}

// BytesRead reports how many input bytes have been consumed, including any
// synthetic zero bytes read past end-of-stream. The method package detects
// truncation with Exhausted, not with this count.
func (d *Decoder) BytesRead() int {
	return d.pos
}

// Exhausted reports whether the decoder has read past the end of the
// underlying byte slice (i.e. returned synthetic zero bytes).
func (d *Decoder) Exhausted() bool {
	return d.pos > len(d.in)
}
