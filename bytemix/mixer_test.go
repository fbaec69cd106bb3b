package bytemix

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/fumin/cmcore/rangecoder"
)

func newTestMixer(n int) *Mixer {
	return New(
		NewPpmPredictor(2),
		NewPpmPredictor(4),
		NewMatchModel(n),
		NewWordModel(),
		NewSparseModel(n),
	)
}

func compress(data []byte) []byte {
	var buf bytes.Buffer
	enc := rangecoder.NewEncoder(&buf)
	mx := newTestMixer(len(data))
	for _, b := range data {
		mx.Mix()
		cum, freq, total := mx.EncodeInfo(b)
		enc.Encode(cum, freq, total)
		mx.Update(b)
	}
	enc.Flush()
	return buf.Bytes()
}

func decompress(payload []byte, n int) []byte {
	dec := rangecoder.NewDecoder(payload)
	mx := newTestMixer(n)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		mx.Mix()
		v := dec.GetFreq(FreqTotal)
		sym := mx.Symbol(v)
		cum, freq, _ := mx.EncodeInfo(sym)
		dec.Update(cum, freq)
		mx.Update(sym)
		out[i] = sym
	}
	return out
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	data := make([]byte, 3000)
	r.Read(data)
	payload := compress(data)
	out := decompress(payload, len(data))
	if !bytes.Equal(data, out) {
		t.Fatalf("round trip mismatch")
	}
}

func TestRoundTripPeriodic16ByteBudget(t *testing.T) {
	pattern := []byte("0123456789abcdef")
	data := bytes.Repeat(pattern, 1024)
	payload := compress(data)
	out := decompress(payload, len(data))
	if !bytes.Equal(data, out) {
		t.Fatalf("round trip mismatch")
	}
	if len(payload)+8 > 200 {
		t.Fatalf("compressed payload+header too large: %d bytes", len(payload)+8)
	}
}

func TestRoundTripIdentity256(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	payload := compress(data)
	out := decompress(payload, len(data))
	if !bytes.Equal(data, out) {
		t.Fatalf("round trip mismatch")
	}
}

func TestQuantiseSumsExactlyAndFloorsAtOne(t *testing.T) {
	mx := newTestMixer(64)
	data := []byte("hello hello hello hello world world")
	for _, b := range data {
		mx.Mix()
		var sum uint32
		for s := 0; s < 256; s++ {
			if mx.freq[s] < 1 {
				t.Fatalf("freq[%d]=%d < 1", s, mx.freq[s])
			}
			sum += mx.freq[s]
		}
		if sum != FreqTotal {
			t.Fatalf("sum(freq)=%d != FreqTotal=%d", sum, FreqTotal)
		}
		mx.Update(b)
	}
}

func TestWeightsStayNormalised(t *testing.T) {
	mx := newTestMixer(64)
	data := []byte("the quick brown fox jumps over the lazy dog, again and again")
	for _, b := range data {
		mx.Mix()
		mx.Update(b)
	}
	var sum float64
	for _, w := range mx.Weights() {
		if w < 0 {
			t.Fatalf("negative weight %f", w)
		}
		sum += w
	}
	if sum < 1-1e-6 || sum > 1+1e-6 {
		t.Fatalf("weights sum to %f, want 1", sum)
	}
}

func TestMatchModelPredictsRepeat(t *testing.T) {
	m := NewMatchModel(64)
	seq := []byte("abcdabcdabcdabcd")
	for i, b := range seq {
		var probs [256]float64
		m.Predict(&probs)
		if i >= 8 {
			// by now the model should have seen "abcd" recur and be
			// actively matching, predicting the next byte with > uniform
			// confidence.
			if probs[b] <= 1.0/256.0 {
				t.Fatalf("position %d: match model not confident (probs[%c]=%f)", i, b, probs[b])
			}
		}
		m.Update(b)
	}
}

func TestNewPanicsOnEmptyPredictorList(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic")
		}
	}()
	New()
}
