package bitmix

import "github.com/pkg/errors"

// ErrInvalidParameter is panicked on malformed construction.
var ErrInvalidParameter = errors.New("bitmix: invalid parameter")

// mixerLearningRate is η, the gradient-descent step size for weight updates.
const mixerLearningRate = 0.003

// Mixer is the logistic (logit-domain) bit mixer: a weighted sum of
// stretched input predictions, squashed back to a probability, with
// weights adapted by gradient descent on cross-entropy.
type Mixer struct {
	weights    []float64
	stretched  []float64
	lastLogit  float64
	lastSquash uint32
}

// New returns a Mixer over n inputs, with uniform initial weights 1/n.
func New(n int) *Mixer {
	if n <= 0 {
		panic(errors.Wrapf(ErrInvalidParameter, "n=%d", n))
	}
	m := &Mixer{
		weights:   make([]float64, n),
		stretched: make([]float64, n),
	}
	for i := range m.weights {
		m.weights[i] = 1.0 / float64(n)
	}
	return m
}

// Mix stretches each of preds (probabilities in [1,65534]) to log-odds,
// computes the weighted sum, and returns squash(L) — the mixed
// probability in [1, 65534].
func (m *Mixer) Mix(preds []uint32) uint32 {
	var logit float64
	for i, p := range preds {
		s := stretch(p)
		m.stretched[i] = s
		logit += m.weights[i] * s
	}
	m.lastLogit = logit
	m.lastSquash = squash(logit)
	return m.lastSquash
}

// Update adapts weights given the observed bit, using the prediction and
// stretched inputs from the immediately preceding Mix call.
func (m *Mixer) Update(bit int) {
	p := float64(m.lastSquash) / 65535.0
	target := 0.0
	if bit != 0 {
		target = 1.0
	}
	e := (target - p) * mixerLearningRate
	for i := range m.weights {
		m.weights[i] += e * m.stretched[i]
	}
}

// Weights returns a copy of the current mixer weights, for tests and
// diagnostics.
func (m *Mixer) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}
