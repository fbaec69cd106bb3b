// Package ppm implements a PPM (Prediction by Partial Matching) context
// model with PPMD escape estimation and full exclusion. It exposes both a
// direct encode/decode interface (driving rangecoder directly) and a
// distribution-extraction interface used by bytemix.Mixer.
package ppm

import (
	"hash/fnv"
	"sort"

	"github.com/pkg/errors"

	"github.com/fumin/cmcore/rangecoder"
)

// ErrInvalidParameter is panicked on a malformed construction request.
var ErrInvalidParameter = errors.New("ppm: invalid parameter")

// ErrCorruptStream is returned when order -1 decoding cannot resolve a
// symbol from the cumulative value supplied by the range decoder — this
// should be impossible for well-formed input.
var ErrCorruptStream = errors.New("ppm: corrupt stream")

// rescaleThreshold is the per-context-table total at or above which freqs
// are halved (min 1).
const rescaleThreshold = 1 << 14

// symFreq is one (symbol, freq) entry of a contextTable.
type symFreq struct {
	sym  byte
	freq uint32
}

// contextTable holds the frequency distribution observed after a specific
// context (a run of the last o bytes), for a single PPM order o. Entries
// are kept sorted ascending by symbol.
type contextTable struct {
	entries []symFreq
	total   uint32
}

func newContextTable() *contextTable {
	return &contextTable{}
}

// find returns the index of sym in entries and whether it was found, using
// binary search (entries are sorted ascending by symbol).
func (c *contextTable) find(sym byte) (int, bool) {
	i := sort.Search(len(c.entries), func(i int) bool { return c.entries[i].sym >= sym })
	if i < len(c.entries) && c.entries[i].sym == sym {
		return i, true
	}
	return i, false
}

// insertOrBump adds sym with freq 1 if absent, or increments its existing
// freq, then rescales if total crossed the threshold.
func (c *contextTable) insertOrBump(sym byte) {
	i, found := c.find(sym)
	if found {
		c.entries[i].freq++
		c.total++
	} else {
		c.entries = append(c.entries, symFreq{})
		copy(c.entries[i+1:], c.entries[i:])
		c.entries[i] = symFreq{sym: sym, freq: 1}
		c.total++
	}
	if c.total >= rescaleThreshold {
		c.rescale()
	}
}

func (c *contextTable) rescale() {
	var total uint32
	for i := range c.entries {
		c.entries[i].freq = (c.entries[i].freq + 1) >> 1
		total += c.entries[i].freq
	}
	c.total = total
}

// Model is a PPM context model tracking contexts of order 0..maxOrder.
type Model struct {
	maxOrder int
	tables   []map[uint64]*contextTable // tables[o] keyed by order-o context hash

	ring    []byte // last maxOrder emitted bytes, ring[0] oldest
	ringLen int

	exclusion     [256]bool // encode/decode exclusion, separate from predExclusion
	predExclusion [256]bool // distribution-extraction exclusion
}

// New returns a Model with the given maximum order (>= 0).
func New(maxOrder int) *Model {
	if maxOrder < 0 {
		panic(errors.Wrapf(ErrInvalidParameter, "maxOrder=%d", maxOrder))
	}
	m := &Model{
		maxOrder: maxOrder,
		tables:   make([]map[uint64]*contextTable, maxOrder+1),
		ring:     make([]byte, maxOrder),
	}
	for o := range m.tables {
		m.tables[o] = make(map[uint64]*contextTable)
	}
	return m
}

// contextHash computes the FNV-1a hash over the most recent o bytes of the
// ring buffer (order 0 always hashes to 0).
func (m *Model) contextHash(o int) uint64 {
	if o == 0 {
		return 0
	}
	h := fnv.New64a()
	start := m.ringLen - o
	for i := start; i < m.ringLen; i++ {
		h.Write([]byte{m.ring[i]})
	}
	return h.Sum64()
}

func (m *Model) contextLen() int {
	if m.ringLen < m.maxOrder {
		return m.ringLen
	}
	return m.maxOrder
}

func (m *Model) tableAt(o int) *contextTable {
	h := m.contextHash(o)
	return m.tables[o][h]
}

func (m *Model) tableForUpdate(o int) *contextTable {
	h := m.contextHash(o)
	t, ok := m.tables[o][h]
	if !ok {
		t = newContextTable()
		m.tables[o][h] = t
	}
	return t
}

func (m *Model) pushRing(b byte) {
	if m.maxOrder == 0 {
		return
	}
	if m.ringLen < m.maxOrder {
		m.ring[m.ringLen] = b
		m.ringLen++
		return
	}
	copy(m.ring, m.ring[1:])
	m.ring[m.maxOrder-1] = b
}

// effectiveStats computes the total frequency and distinct-symbol count of
// t excluding any symbol marked in excl.
func effectiveStats(t *contextTable, excl *[256]bool) (effTotal, effDistinct uint32) {
	for _, e := range t.entries {
		if excl[e.sym] {
			continue
		}
		effTotal += e.freq
		effDistinct++
	}
	return
}

// escapeFreq implements PPMD Method D: max(1, distinct/2).
func escapeFreq(effDistinct uint32) uint32 {
	esc := effDistinct >> 1
	if esc < 1 {
		esc = 1
	}
	return esc
}

// cumBelow sums the frequencies of non-excluded symbols strictly less than
// sym in t.
func cumBelow(t *contextTable, excl *[256]bool, sym byte) uint32 {
	var cum uint32
	for _, e := range t.entries {
		if e.sym >= sym {
			break
		}
		if excl[e.sym] {
			continue
		}
		cum += e.freq
	}
	return cum
}

// Encode codes symbol through enc, walking contexts high order to low with
// escape/exclusion, falling through to order -1 if no context codes it, and
// finally updates all context tables and the ring buffer.
func (m *Model) Encode(enc *rangecoder.Encoder, symbol byte) {
	for i := range m.exclusion {
		m.exclusion[i] = false
	}

	coded := false
	for o := m.contextLen(); o >= 0 && !coded; o-- {
		t := m.tableAt(o)
		if t == nil {
			continue
		}
		effTotal, effDistinct := effectiveStats(t, &m.exclusion)
		if effDistinct == 0 {
			continue
		}
		esc := escapeFreq(effDistinct)
		total := effTotal + esc

		if i, found := t.find(symbol); found && !m.exclusion[symbol] {
			cum := cumBelow(t, &m.exclusion, symbol)
			enc.Encode(cum, t.entries[i].freq, total)
			coded = true
			break
		}

		enc.Encode(effTotal, esc, total)
		for _, e := range t.entries {
			m.exclusion[e.sym] = true
		}
	}

	if !coded {
		m.encodeOrderMinus1(enc, symbol)
	}

	m.updateModel(symbol)
}

// encodeOrderMinus1 codes symbol uniformly over the non-excluded bytes.
func (m *Model) encodeOrderMinus1(enc *rangecoder.Encoder, symbol byte) {
	var remaining uint32
	for b := 0; b < 256; b++ {
		if !m.exclusion[b] {
			remaining++
		}
	}
	var rank uint32
	for b := 0; b < int(symbol); b++ {
		if !m.exclusion[b] {
			rank++
		}
	}
	enc.Encode(rank, 1, remaining)
}

// Decode mirrors Encode exactly, using dec.GetFreq/dec.Update.
func (m *Model) Decode(dec *rangecoder.Decoder) (byte, error) {
	for i := range m.exclusion {
		m.exclusion[i] = false
	}

	var symbol byte
	decoded := false
	for o := m.contextLen(); o >= 0 && !decoded; o-- {
		t := m.tableAt(o)
		if t == nil {
			continue
		}
		effTotal, effDistinct := effectiveStats(t, &m.exclusion)
		if effDistinct == 0 {
			continue
		}
		esc := escapeFreq(effDistinct)
		total := effTotal + esc

		v := dec.GetFreq(total)
		if v < effTotal {
			// locate the non-excluded symbol whose cumulative band contains v
			var cum uint32
			for _, e := range t.entries {
				if m.exclusion[e.sym] {
					continue
				}
				if v < cum+e.freq {
					symbol = e.sym
					dec.Update(cum, e.freq)
					decoded = true
					break
				}
				cum += e.freq
			}
			if decoded {
				break
			}
		}

		dec.Update(effTotal, esc)
		for _, e := range t.entries {
			m.exclusion[e.sym] = true
		}
	}

	if !decoded {
		sym, err := m.decodeOrderMinus1(dec)
		if err != nil {
			return 0, err
		}
		symbol = sym
	}

	m.updateModel(symbol)
	return symbol, nil
}

func (m *Model) decodeOrderMinus1(dec *rangecoder.Decoder) (byte, error) {
	var remaining uint32
	for b := 0; b < 256; b++ {
		if !m.exclusion[b] {
			remaining++
		}
	}
	v := dec.GetFreq(remaining)
	var rank uint32
	for b := 0; b < 256; b++ {
		if m.exclusion[b] {
			continue
		}
		if rank == v {
			dec.Update(rank, 1)
			return byte(b), nil
		}
		rank++
	}
	return 0, errors.Wrap(ErrCorruptStream, "order -1 decode found no matching symbol")
}

// updateModel inserts/updates symbol into every context table 0..contextLen
// (creating tables lazily), then pushes symbol onto the context ring. It
// performs no range coding and is safe to call standalone from the
// distribution-extraction path (PredictDistribution + UpdateModel).
func (m *Model) updateModel(symbol byte) {
	for o := 0; o <= m.contextLen(); o++ {
		t := m.tableForUpdate(o)
		t.insertOrBump(symbol)
	}
	m.pushRing(symbol)
}

// UpdateModel applies the same context-table insertion Encode/Decode would,
// without emitting or consuming any coded bits. Callers that mix this
// model's PredictDistribution output (e.g. bytemix.Mixer) must call this
// exactly once per byte, after coding, instead of calling Encode/Decode.
func (m *Model) UpdateModel(symbol byte) {
	m.updateModel(symbol)
}

// PredictDistribution fills probs[0..255] with this model's estimate of the
// next-byte distribution, for use by bytemix.Mixer. It does not mutate
// m.exclusion (encode/decode state) — it uses the separate predExclusion
// array — and does not call updateModel; callers must call UpdateModel
// separately after the byte is known.
func (m *Model) PredictDistribution(probs *[256]float64) {
	for i := range probs {
		probs[i] = 0
	}
	for i := range m.predExclusion {
		m.predExclusion[i] = false
	}

	escapeProd := 1.0
	for o := m.contextLen(); o >= 0; o-- {
		t := m.tableAt(o)
		if t == nil {
			continue
		}
		effTotal, effDistinct := effectiveStats(t, &m.predExclusion)
		if effDistinct == 0 {
			continue
		}
		esc := escapeFreq(effDistinct)
		total := effTotal + esc

		for _, e := range t.entries {
			if m.predExclusion[e.sym] {
				continue
			}
			probs[e.sym] = float64(e.freq) * escapeProd / float64(total)
		}
		escapeProd *= float64(esc) / float64(total)
		for _, e := range t.entries {
			m.predExclusion[e.sym] = true
		}
	}

	var remaining int
	for b := 0; b < 256; b++ {
		if !m.predExclusion[b] {
			remaining++
		}
	}
	if remaining > 0 && escapeProd > 0 {
		share := escapeProd / float64(remaining)
		for b := 0; b < 256; b++ {
			if !m.predExclusion[b] {
				probs[b] += share
			}
		}
	}
}
