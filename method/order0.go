package method

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/cmcore/order0"
	"github.com/fumin/cmcore/rangecoder"
)

// CompressOrder0 implements the order0-arith compression method: an
// int64 little-endian original size header, followed by range-coded
// payload and its 5-byte flush.
func CompressOrder0(data []byte) (Result, error) {
	start := time.Now()
	var buf bytes.Buffer
	writeSize(&buf, int64(len(data)))

	enc := rangecoder.NewEncoder(&buf)
	m := order0.New()
	for _, b := range data {
		cum, freq, total := m.EncodeInfo(b)
		enc.Encode(cum, freq, total)
		m.Update(b)
	}
	enc.Flush()

	return Result{
		Method:         "order0-arith",
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(buf.Len()),
		Data:           buf.Bytes(),
		Lossless:       true,
		Duration:       time.Since(start),
	}, nil
}

// DecompressOrder0 reverses CompressOrder0.
func DecompressOrder0(data []byte) ([]byte, error) {
	n, rest, err := readSize(data)
	if err != nil {
		return nil, errors.Wrap(err, "order0")
	}

	dec := rangecoder.NewDecoder(rest)
	m := order0.New()
	out := make([]byte, n)
	for i := int64(0); i < n; i++ {
		v := dec.GetFreq(m.Total())
		sym := m.Symbol(v)
		cum, freq, _ := m.EncodeInfo(sym)
		dec.Update(cum, freq)
		m.Update(sym)
		out[i] = sym
	}
	if dec.Exhausted() {
		return nil, errors.Wrapf(ErrCorruptStream, "order0: stream truncated before %d symbols", n)
	}
	return out, nil
}
