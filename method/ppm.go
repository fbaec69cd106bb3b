package method

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/cmcore/ppm"
	"github.com/fumin/cmcore/rangecoder"
)

// CompressPPM implements the ppm compression method: int64 original size,
// uint8 order, then range-coded payload + 5 flush bytes.
func CompressPPM(data []byte, order int) (Result, error) {
	if order < 0 || order > 255 {
		return Result{}, errors.Wrapf(ErrInvalidParameter, "order=%d", order)
	}
	start := time.Now()
	var buf bytes.Buffer
	writeSize(&buf, int64(len(data)))
	buf.WriteByte(byte(order))

	enc := rangecoder.NewEncoder(&buf)
	m := ppm.New(order)
	for _, b := range data {
		m.Encode(enc, b)
	}
	enc.Flush()

	return Result{
		Method:         "ppm",
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(buf.Len()),
		Data:           buf.Bytes(),
		Lossless:       true,
		Duration:       time.Since(start),
	}, nil
}

// DecompressPPM reverses CompressPPM.
func DecompressPPM(data []byte) ([]byte, error) {
	n, rest, err := readSize(data)
	if err != nil {
		return nil, errors.Wrap(err, "ppm")
	}
	if len(rest) < 1 {
		return nil, errors.Wrap(ErrCorruptStream, "ppm: missing order byte")
	}
	order := int(rest[0])
	rest = rest[1:]

	dec := rangecoder.NewDecoder(rest)
	m := ppm.New(order)
	out := make([]byte, n)
	for i := int64(0); i < n; i++ {
		b, err := m.Decode(dec)
		if err != nil {
			return nil, errors.Wrapf(err, "ppm: symbol %d", i)
		}
		out[i] = b
	}
	if dec.Exhausted() {
		return nil, errors.Wrapf(ErrCorruptStream, "ppm: stream truncated before %d symbols", n)
	}
	return out, nil
}
