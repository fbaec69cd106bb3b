package bytemix

const sparseTableBits = 16
const sparseTableSize = 1 << sparseTableBits
const sparseTableMask = sparseTableSize - 1

// sparseOffsets are three non-adjacent-byte-offset patterns, combined with
// equal weight, catching periodic structure a contiguous-context model
// would miss.
var sparseOffsets = [3][3]int{
	{-1, -3, -5},
	{-1, -2, -4},
	{-2, -4, -8},
}

// SparseModel predicts the next byte from three patterns of non-adjacent
// preceding bytes, each a soft (count-gated) predictor like WordModel.
type SparseModel struct {
	history []byte
	tables  [3][]wordSlot
	lastIdx [3]int
}

// NewSparseModel returns a SparseModel sized for an input of roughly n
// bytes.
func NewSparseModel(n int) *SparseModel {
	s := &SparseModel{history: make([]byte, 0, n)}
	for i := range s.tables {
		s.tables[i] = make([]wordSlot, sparseTableSize)
	}
	return s
}

func sparseHash(a, b, c byte) uint64 {
	h := uint64(2166136261)
	for _, v := range [3]byte{a, b, c} {
		h ^= uint64(v)
		h *= 16777619
	}
	return h
}

// patternAt returns the three bytes at history offsets pattern relative to
// the current end of history, and whether all three are available.
func (s *SparseModel) patternAt(pattern [3]int) (a, b, c byte, ok bool) {
	n := len(s.history)
	for _, off := range pattern {
		if n+off < 0 {
			return 0, 0, 0, false
		}
	}
	a = s.history[n+pattern[0]]
	b = s.history[n+pattern[1]]
	c = s.history[n+pattern[2]]
	return a, b, c, true
}

// Predict averages the three patterns' soft predictions with equal weight
// in probability space; patterns without enough history or without a
// confident (count >= 3) slot contribute uniform.
func (s *SparseModel) Predict(probs *[256]float64) {
	var acc [256]float64
	for i, pattern := range sparseOffsets {
		var p [256]float64
		a, b, c, ok := s.patternAt(pattern)
		if !ok {
			uniform(&p)
			s.lastIdx[i] = -1
		} else {
			idx := int(sparseHash(a, b, c) & sparseTableMask)
			s.lastIdx[i] = idx
			slot := s.tables[i][idx]
			if boost, active := softBoost(slot.count); active {
				applySoftPrediction(&p, slot.predicted, boost)
			} else {
				uniform(&p)
			}
		}
		for k := 0; k < 256; k++ {
			acc[k] += p[k]
		}
	}
	for k := 0; k < 256; k++ {
		probs[k] = acc[k] / 3
	}
}

// Update appends b to history and updates each pattern's slot (when that
// pattern had enough history to compute an index during the matching
// Predict call).
func (s *SparseModel) Update(b byte) {
	for i := range s.tables {
		if s.lastIdx[i] >= 0 {
			updateSlot(&s.tables[i][s.lastIdx[i]], b)
		}
	}
	s.history = append(s.history, b)
}
