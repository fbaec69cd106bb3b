package method

import (
	"bytes"
	"time"

	"github.com/pkg/errors"

	"github.com/fumin/cmcore/bitcoder"
	"github.com/fumin/cmcore/bitmix"
	"github.com/fumin/cmcore/bytemix"
	"github.com/fumin/cmcore/ppm"
)

// bitmixPpmOrders are the PPM orders whose byte-level distributions are
// marginalised per-bit during bit-mix coding, giving the bit mixer both a
// short and a long context to draw on.
var bitmixPpmOrders = []int{2, 4}

const (
	historyBitPredictorBits = 17 // context: partial (up to 8 bits) x prevByte (8 bits)
	wordBitPredictorBits    = 17 // context: partial (up to 8 bits) x word hash
	apmContextBits          = 8  // context: previous byte
)

// bitmixState bundles every model the byte-via-bits coding loop drives, so
// the encode and decode paths can share one implementation.
type bitmixState struct {
	ppms      []*ppm.Model
	match     *bytemix.MatchModel
	word      *bytemix.WordModel
	mixer     *bitmix.Mixer
	apm       *bitmix.Apm
	historyBP *bitmix.BitPredictor
	wordBP    *bitmix.BitPredictor
	prevByte  byte
	ppmDists  [][256]float64
	numInputs int
}

func newBitmixState(n int) *bitmixState {
	s := &bitmixState{
		ppms:      make([]*ppm.Model, len(bitmixPpmOrders)),
		match:     bytemix.NewMatchModel(n),
		word:      bytemix.NewWordModel(),
		historyBP: bitmix.NewBitPredictor(historyBitPredictorBits),
		wordBP:    bitmix.NewBitPredictor(wordBitPredictorBits),
		apm:       bitmix.NewApm(apmContextBits),
		ppmDists:  make([][256]float64, len(bitmixPpmOrders)),
	}
	for i, o := range bitmixPpmOrders {
		s.ppms[i] = ppm.New(o)
	}
	s.numInputs = len(bitmixPpmOrders) + 2 + 1 // ppm marginals + 2 bit predictors + match
	s.mixer = bitmix.New(s.numInputs)
	return s
}

// prepareByte recomputes the once-per-byte byte-level distributions that
// are marginalised per-bit: each PPM model's current prediction.
func (s *bitmixState) prepareByte() {
	for i, m := range s.ppms {
		m.PredictDistribution(&s.ppmDists[i])
	}
}

// historyContext returns the BitPredictor context combining partial and the
// previous byte.
func (s *bitmixState) historyContext(partial uint32) uint32 {
	return partial<<8 | uint32(s.prevByte)
}

// wordContext returns the BitPredictor context combining partial and the
// current rolling word hash.
func (s *bitmixState) wordContext(partial uint32) uint32 {
	return partial ^ uint32(s.word.CurrentHash())
}

// predictBit gathers the N bit predictions for the current bit and mixes
// + refines them, returning the refined probability plus the APM cell to
// update afterward.
func (s *bitmixState) predictBit(partial uint32) (refined uint32, apmBase, apmIdx int) {
	preds := make([]uint32, 0, s.numInputs)
	for i := range s.ppms {
		preds = append(preds, bitmix.Marginalise(&s.ppmDists[i], partial))
	}
	preds = append(preds, s.historyBP.Predict(s.historyContext(partial)))
	preds = append(preds, s.wordBP.Predict(s.wordContext(partial)))

	if candidate, ok := s.match.PredictedByte(); ok {
		conf := bitmix.MatchConfidence(s.match.MatchLength())
		preds = append(preds, bitmix.MatchBitPrediction(candidate, partial, conf))
	} else {
		preds = append(preds, 32768)
	}

	mixed := s.mixer.Mix(preds)
	refined, apmBase, apmIdx = s.apm.Map(uint32(s.prevByte), mixed)
	return refined, apmBase, apmIdx
}

// observeBit updates every bit-level model after a bit is known, matching
// the order predictBit consumed them in.
func (s *bitmixState) observeBit(partial uint32, bit int, apmBase, apmIdx int) {
	s.historyBP.Update(s.historyContext(partial), bit)
	s.wordBP.Update(s.wordContext(partial), bit)
	s.mixer.Update(bit)
	s.apm.Update(apmBase, apmIdx, bit)
}

// observeByte updates every byte-level model after the full byte is known:
// each PPM model's context tables, the match model, and the word model.
func (s *bitmixState) observeByte(b byte) {
	for _, m := range s.ppms {
		m.UpdateModel(b)
	}
	s.match.Update(b)
	s.word.Update(b)
	s.prevByte = b
}

// CompressBitMix implements the bit-mix compression method: int64 original
// size, then binary-arithmetic payload followed by 4 flush bytes. Each byte
// is coded MSB-first as 8 bits.
func CompressBitMix(data []byte) (Result, error) {
	start := time.Now()
	var buf bytes.Buffer
	writeSize(&buf, int64(len(data)))

	enc := bitcoder.NewEncoder(&buf)
	s := newBitmixState(len(data))
	for _, b := range data {
		s.prepareByte()
		partial := bitmix.SentinelStart
		for i := 7; i >= 0; i-- {
			bit := int((b >> uint(i)) & 1)
			refined, apmBase, apmIdx := s.predictBit(partial)
			enc.Encode(bit, refined)
			s.observeBit(partial, bit, apmBase, apmIdx)
			partial = bitmix.AppendBit(partial, bit)
		}
		s.observeByte(b)
	}
	enc.Flush()

	return Result{
		Method:         "bit-mix",
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(buf.Len()),
		Data:           buf.Bytes(),
		Lossless:       true,
		Duration:       time.Since(start),
	}, nil
}

// DecompressBitMix reverses CompressBitMix.
func DecompressBitMix(data []byte) ([]byte, error) {
	n, rest, err := readSize(data)
	if err != nil {
		return nil, errors.Wrap(err, "bit-mix")
	}

	dec := bitcoder.NewDecoder(rest)
	s := newBitmixState(int(n))
	out := make([]byte, n)
	for i := int64(0); i < n; i++ {
		s.prepareByte()
		partial := bitmix.SentinelStart
		var b byte
		for bi := 7; bi >= 0; bi-- {
			refined, apmBase, apmIdx := s.predictBit(partial)
			bit := dec.Decode(refined)
			s.observeBit(partial, bit, apmBase, apmIdx)
			partial = bitmix.AppendBit(partial, bit)
			b = b<<1 | byte(bit)
		}
		s.observeByte(b)
		out[i] = b
	}
	if dec.Exhausted() {
		return nil, errors.Wrapf(ErrCorruptStream, "bit-mix: stream truncated before %d symbols", n)
	}
	return out, nil
}
