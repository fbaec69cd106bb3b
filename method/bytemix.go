package method

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/cmcore/bytemix"
	"github.com/fumin/cmcore/rangecoder"
)

// bytemixOrders are the PPM orders mixed by CompressByteMix/DecompressByteMix,
// alongside a match model, word model, and sparse model, so short and long
// contexts, exact repeats, and word-level structure all get a vote.
var bytemixOrders = []int{1, 2, 4, 6}

func newByteMixer(n int) *bytemix.Mixer {
	preds := make([]bytemix.Predictor, 0, len(bytemixOrders)+3)
	for _, o := range bytemixOrders {
		preds = append(preds, bytemix.NewPpmPredictor(o))
	}
	preds = append(preds, bytemix.NewMatchModel(n))
	preds = append(preds, bytemix.NewWordModel())
	preds = append(preds, bytemix.NewSparseModel(n))
	return bytemix.New(preds...)
}

// CompressByteMix implements the byte-mix compression method: int64
// original size, then range-coded payload; no flush-byte count is
// separately framed, the 5 flush bytes are simply the payload's tail.
func CompressByteMix(data []byte) (Result, error) {
	start := time.Now()
	var buf bytes.Buffer
	writeSize(&buf, int64(len(data)))

	enc := rangecoder.NewEncoder(&buf)
	mx := newByteMixer(len(data))
	for _, b := range data {
		mx.Mix()
		cum, freq, total := mx.EncodeInfo(b)
		enc.Encode(cum, freq, total)
		mx.Update(b)
	}
	enc.Flush()

	return Result{
		Method:         "byte-mix",
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(buf.Len()),
		Data:           buf.Bytes(),
		Lossless:       true,
		Duration:       time.Since(start),
	}, nil
}

// DecompressByteMix reverses CompressByteMix.
func DecompressByteMix(data []byte) ([]byte, error) {
	n, rest, err := readSize(data)
	if err != nil {
		return nil, errors.Wrap(err, "byte-mix")
	}

	dec := rangecoder.NewDecoder(rest)
	mx := newByteMixer(int(n))
	out := make([]byte, n)
	for i := int64(0); i < n; i++ {
		mx.Mix()
		v := dec.GetFreq(bytemix.FreqTotal)
		sym := mx.Symbol(v)
		cum, freq, _ := mx.EncodeInfo(sym)
		dec.Update(cum, freq)
		mx.Update(sym)
		out[i] = sym
	}
	if dec.Exhausted() {
		return nil, errors.Wrapf(ErrCorruptStream, "byte-mix: stream truncated before %d symbols", n)
	}
	return out, nil
}
