package bitmix

// SentinelStart is the initial value of a partial-byte sentinel: a leading
// 1 with no data bits yet. Encoder and decoder both build this value
// bit-by-bit as bits are coded, so they always agree on its form by
// construction rather than by mirrored logic.
const SentinelStart uint32 = 1

// AppendBit folds a newly-known bit into the sentinel partial-byte value.
func AppendBit(partial uint32, bit int) uint32 {
	return partial<<1 | uint32(bit)
}

// BitsKnown returns how many real data bits partial currently encodes
// (0..7), derived from the position of its leading sentinel 1.
func BitsKnown(partial uint32) int {
	n := 0
	for v := partial >> 1; v != 0; v >>= 1 {
		n++
	}
	return n
}

// prefixMatches reports whether the top bitsKnown bits of b equal the data
// bits held in partial (excluding its leading sentinel 1).
func prefixMatches(partial uint32, b byte) bool {
	bitsKnown := BitsKnown(partial)
	if bitsKnown == 0 {
		return true
	}
	knownBits := partial &^ (1 << uint(bitsKnown))
	candidatePrefix := uint32(b) >> uint(8-bitsKnown)
	return knownBits == candidatePrefix
}

// Marginalise computes P(bit=1) for the next bit of a byte being coded
// under sentinel state partial, given a full 256-entry byte distribution:
// it enumerates the 256 bytes whose known-bit prefix matches partial,
// partitions them by their next bit, sums dist over each partition, and
// renormalises. Returns a probability in [1, 65534].
func Marginalise(dist *[256]float64, partial uint32) uint32 {
	bitsKnown := BitsKnown(partial)
	var mass0, mass1 float64
	for b := 0; b < 256; b++ {
		if !prefixMatches(partial, byte(b)) {
			continue
		}
		nextBit := (b >> uint(7-bitsKnown)) & 1
		if nextBit == 1 {
			mass1 += dist[b]
		} else {
			mass0 += dist[b]
		}
	}
	total := mass0 + mass1
	if total <= 0 {
		return 32768
	}
	p := mass1 / total
	v := int64(p*65535 + 0.5)
	if v < 1 {
		v = 1
	}
	if v > 65534 {
		v = 65534
	}
	return uint32(v)
}

// MatchBitPrediction predicts the next bit of the byte currently being
// coded from an active match's candidate byte: if the bits coded so far
// (partial) agree with candidate's corresponding prefix, it predicts
// candidate's next bit with the given confidence in [0,1]; any prefix
// disagreement collapses the prediction to neutral (32768).
func MatchBitPrediction(candidate byte, partial uint32, confidence float64) uint32 {
	if !prefixMatches(partial, candidate) {
		return 32768
	}
	bitsKnown := BitsKnown(partial)
	nextBit := (candidate >> uint(7-bitsKnown)) & 1
	p := confidence
	if nextBit == 0 {
		p = 1 - confidence
	}
	v := int64(p*65535 + 0.5)
	if v < 1 {
		v = 1
	}
	if v > 65534 {
		v = 65534
	}
	return uint32(v)
}

// MatchConfidence maps a match length to the confidence assigned to the
// match-bit prediction: clamp(0.85 + (matchLen-4)*0.02, 0.85, 0.98) — longer
// matches are trusted more, within a band that never reaches certainty.
func MatchConfidence(matchLen int) float64 {
	c := 0.85 + float64(matchLen-4)*0.02
	if c < 0.85 {
		c = 0.85
	}
	if c > 0.98 {
		c = 0.98
	}
	return c
}
