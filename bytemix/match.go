package bytemix

import "hash/fnv"

// matchOrder is the default context length (in bytes) hashed to find match
// candidates.
const matchOrder = 4

// MatchModel predicts the continuation of the longest recent match in the
// byte history: a specialist predictor that stays silent (near-uniform)
// when no match is active, so geometric mixing does not let it dilute
// other predictors' opinions.
type MatchModel struct {
	history []byte
	table   map[uint64]int // context hash -> most recent start index

	matching bool
	start    int
	length   int
}

// NewMatchModel returns a MatchModel sized for an input of roughly n bytes.
func NewMatchModel(n int) *MatchModel {
	return &MatchModel{
		history: make([]byte, 0, n),
		table:   make(map[uint64]int),
	}
}

func (m *MatchModel) contextHash() (uint64, bool) {
	if len(m.history) < matchOrder {
		return 0, false
	}
	h := fnv.New64a()
	h.Write(m.history[len(m.history)-matchOrder:])
	return h.Sum64(), true
}

// confidence maps the current match length to a probability:
// clamp(0.2 + (matchLen - matchOrder) * 0.12, 0.2, 0.97). A match only just
// past the minimum order is weak evidence of a repeat; a long one is strong
// evidence.
func (m *MatchModel) confidence() float64 {
	c := 0.2 + float64(m.length-matchOrder)*0.12
	if c < 0.2 {
		c = 0.2
	}
	if c > 0.97 {
		c = 0.97
	}
	return c
}

// Predict fills probs with a peaked distribution around the predicted next
// byte if a match is active and the candidate position has a next byte
// available, or the uniform distribution otherwise.
func (m *MatchModel) Predict(probs *[256]float64) {
	if m.matching && m.start+m.length < len(m.history) {
		predicted := m.history[m.start+m.length]
		conf := m.confidence()
		rest := (1 - conf) / 255
		for s := 0; s < 256; s++ {
			probs[s] = rest
		}
		probs[predicted] = conf
		return
	}
	for s := 0; s < 256; s++ {
		probs[s] = 1.0 / 256.0
	}
}

// PredictedByte returns the byte the active match expects next, and
// whether a match is active with a usable candidate — used by bitmix's
// match-bit prediction to marginalise this same prediction at bit level.
func (m *MatchModel) PredictedByte() (byte, bool) {
	if m.matching && m.start+m.length < len(m.history) {
		return m.history[m.start+m.length], true
	}
	return 0, false
}

// MatchLength reports the current match run length (0 if not matching).
func (m *MatchModel) MatchLength() int {
	if !m.matching {
		return 0
	}
	return m.length
}

// Update appends b to history, extends or ends the active match, then
// attempts to start a new match via the hash table, and finally always
// overwrites the table entry for the current context: the most recent
// occurrence of a context wins on collision, verify() catches the rest.
func (m *MatchModel) Update(b byte) {
	if m.matching {
		if m.start+m.length < len(m.history) && m.history[m.start+m.length] == b {
			m.length++
		} else {
			m.matching = false
			m.length = 0
		}
	}

	m.history = append(m.history, b)

	if !m.matching {
		if h, ok := m.contextHash(); ok {
			if cand, found := m.table[h]; found && m.verify(cand) {
				m.matching = true
				m.start = cand - matchOrder + 1
				m.length = matchOrder
			}
		}
	}

	if h, ok := m.contextHash(); ok {
		m.table[h] = len(m.history) - 1
	}
}

// verify re-checks that the matchOrder bytes preceding cand (inclusive)
// match the matchOrder bytes preceding the current end of history, and
// that there is room ahead of cand to predict from. A hash collision fails
// this check and degrades to "no match" rather than corrupting output.
func (m *MatchModel) verify(cand int) bool {
	if cand+1 >= len(m.history) {
		return false
	}
	n := len(m.history)
	for i := 0; i < matchOrder; i++ {
		if m.history[cand-i] != m.history[n-1-i] {
			return false
		}
	}
	return true
}
