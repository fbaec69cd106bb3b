// mixer.go implements a geometric (log-domain) byte mixer: it combines K
// byte predictors by a weighted log-probability sum rather than a weighted
// arithmetic average, so a predictor that is confidently wrong about a
// symbol can pull the mixed probability down sharply instead of merely
// diluting it.
package bytemix

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidParameter is panicked on malformed construction.
var ErrInvalidParameter = errors.New("bytemix: invalid parameter")

// FreqTotal is the quantisation target: Σ freq[s] == FreqTotal exactly
// after Mix, leaving headroom under the range coder's total < 2^16 limit.
const FreqTotal = 65280

// epsilon floors a predictor's probability before taking its log, so a
// predictor that assigns exactly 0 to a symbol cannot drive logMix to -Inf.
const epsilon = 1e-9

// learningRate is the weight-update smoothing factor η.
const learningRate = 0.005

// Mixer combines K byte predictors geometrically and quantises the result
// to an integer frequency table consumable by rangecoder.
type Mixer struct {
	predictors []Predictor
	weights    []float64

	predictions [][256]float64
	logMixed    [256]float64
	mixed       [256]float64

	freq [256]uint32
	cum  [257]uint32
}

// New returns a Mixer over predictors, with uniform initial weights.
func New(predictors ...Predictor) *Mixer {
	if len(predictors) == 0 {
		panic(errors.Wrap(ErrInvalidParameter, "at least one predictor required"))
	}
	k := len(predictors)
	m := &Mixer{
		predictors:  predictors,
		weights:     make([]float64, k),
		predictions: make([][256]float64, k),
	}
	for i := range m.weights {
		m.weights[i] = 1.0 / float64(k)
	}
	return m
}

// Mix gathers each predictor's distribution, combines them in log domain,
// normalises, and quantises to m.freq/m.cum. Call EncodeInfo or Symbol
// afterward to drive rangecoder.
func (m *Mixer) Mix() {
	for i, p := range m.predictors {
		p.Predict(&m.predictions[i])
	}

	maxLog := math.Inf(-1)
	for s := 0; s < 256; s++ {
		var lm float64
		for i, w := range m.weights {
			p := m.predictions[i][s]
			if p < epsilon {
				p = epsilon
			}
			lm += w * math.Log(p)
		}
		m.logMixed[s] = lm
		if lm > maxLog {
			maxLog = lm
		}
	}

	var sum float64
	for s := 0; s < 256; s++ {
		e := math.Exp(m.logMixed[s] - maxLog)
		m.mixed[s] = e
		sum += e
	}
	for s := 0; s < 256; s++ {
		m.mixed[s] /= sum
	}

	m.quantise()
}

// quantise rounds the mixed distribution to integer frequencies summing to
// exactly FreqTotal, flooring every entry at 1 and resolving the rounding
// residual against the mode (argmax) of the distribution.
func (m *Mixer) quantise() {
	var sum uint32
	mode := 0
	for s := 0; s < 256; s++ {
		f := uint32(m.mixed[s]*FreqTotal + 0.5)
		if f < 1 {
			f = 1
		}
		m.freq[s] = f
		sum += f
		if m.mixed[s] > m.mixed[mode] {
			mode = s
		}
	}

	residual := int64(FreqTotal) - int64(sum)
	newModeFreq := int64(m.freq[mode]) + residual
	if newModeFreq < 1 {
		newModeFreq = 1
	}
	m.freq[mode] = uint32(newModeFreq)

	var c uint32
	for s := 0; s < 256; s++ {
		m.cum[s] = c
		c += m.freq[s]
	}
	m.cum[256] = c
}

// EncodeInfo returns the (cumFreq, freq, FreqTotal) triple for symbol.
func (m *Mixer) EncodeInfo(symbol byte) (cumFreq, freq, total uint32) {
	return m.cum[symbol], m.freq[symbol], FreqTotal
}

// Symbol performs a binary search for the largest i with cum[i] <= cumValue.
func (m *Mixer) Symbol(cumValue uint32) byte {
	lo, hi := 0, 256
	for lo < hi {
		mid := (lo + hi) / 2
		if m.cum[mid+1] <= cumValue {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return byte(lo)
}

// Update scores each predictor by the probability it assigned to the
// observed symbol, exponentially smooths the weights toward the
// max-normalised scores, renormalises, and updates every predictor.
func (m *Mixer) Update(symbol byte) {
	maxScore := 0.0
	scores := make([]float64, len(m.predictors))
	for i := range m.predictors {
		s := m.predictions[i][symbol]
		scores[i] = s
		if s > maxScore {
			maxScore = s
		}
	}

	if maxScore >= 1e-10 {
		var wsum float64
		for i := range m.weights {
			norm := scores[i] / maxScore
			m.weights[i] = (1-learningRate)*m.weights[i] + learningRate*norm
			wsum += m.weights[i]
		}
		if wsum > 0 {
			for i := range m.weights {
				m.weights[i] /= wsum
			}
		}
	}

	for _, p := range m.predictors {
		p.Update(symbol)
	}
}

// Weights returns a copy of the current predictor weights, for tests and
// diagnostics.
func (m *Mixer) Weights() []float64 {
	out := make([]float64, len(m.weights))
	copy(out, m.weights)
	return out
}
