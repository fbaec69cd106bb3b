// Package bitmix implements the bit-level logistic mixer (PAQ-style),
// its Adaptive Probability Map (APM/SSE) refinement stage, and the bit
// predictors that feed it.
package bitmix

import "math"

// squashRange bounds the logit domain the squash LUT covers: logits beyond
// [-16, +16] already squash to within 1/65535 of 0 or 1, so the table need
// not extend further.
const squashRange = 16.0
const squashCells = 4097

var stretchLUT [65536]float64
var squashLUT [squashCells]uint32

func init() {
	buildStretchLUT()
	buildSquashLUT()
}

// buildSquashLUT fills squashLUT[i] = squash(logit) for logit ranging
// linearly over [-squashRange, +squashRange] across squashCells cells,
// producing values in [1, 65534].
func buildSquashLUT() {
	for i := 0; i < squashCells; i++ {
		logit := squashRange * (2*float64(i)/float64(squashCells-1) - 1)
		p := 1.0 / (1.0 + math.Exp(-logit))
		v := int64(p*65535 + 0.5)
		if v < 1 {
			v = 1
		}
		if v > 65534 {
			v = 65534
		}
		squashLUT[i] = uint32(v)
	}
}

// squash maps a logit (log-odds) value to a probability in [1, 65534] via
// the precomputed LUT, linearly interpolating between adjacent cells.
func squash(logit float64) uint32 {
	if logit <= -squashRange {
		return squashLUT[0]
	}
	if logit >= squashRange {
		return squashLUT[squashCells-1]
	}
	pos := (logit + squashRange) / (2 * squashRange) * float64(squashCells-1)
	lo := int(pos)
	if lo >= squashCells-1 {
		return squashLUT[squashCells-1]
	}
	frac := pos - float64(lo)
	a, b := float64(squashLUT[lo]), float64(squashLUT[lo+1])
	v := a + (b-a)*frac
	return uint32(v + 0.5)
}

// buildStretchLUT fills stretchLUT[p] = log(p/(65535-p)) for p in
// [1, 65534], extending the boundary values at p=0 and p=65535 by copying
// the nearest defined neighbour.
func buildStretchLUT() {
	for p := 1; p <= 65534; p++ {
		stretchLUT[p] = math.Log(float64(p) / float64(65535-p))
	}
	stretchLUT[0] = stretchLUT[1]
	stretchLUT[65535] = stretchLUT[65534]
}

// stretch maps a probability in [0, 65535] to log-odds space via the
// precomputed LUT. Callers should clamp prob to [1, 65534] in normal
// operation; index 0 and 65535 are defined defensively.
func stretch(prob uint32) float64 {
	if prob > 65535 {
		prob = 65535
	}
	return stretchLUT[prob]
}
