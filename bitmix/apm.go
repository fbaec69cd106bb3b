package bitmix

// apmEntries is the number of interpolation points per context bucket.
const apmEntries = 33

// Apm (Adaptive Probability Map / SSE) refines a prediction using a
// context-indexed, piecewise-linear map learned online.
type Apm struct {
	contextMask uint32
	table       []uint16 // len = 2^contextBits * apmEntries
}

// NewApm returns an Apm with 2^contextBits contexts, each initialised so
// its apmEntries entries interpolate the identity mapping across
// [1, 65534].
func NewApm(contextBits uint) *Apm {
	contexts := uint32(1) << contextBits
	a := &Apm{
		contextMask: contexts - 1,
		table:       make([]uint16, contexts*apmEntries),
	}
	for ctx := uint32(0); ctx < contexts; ctx++ {
		for i := 0; i < apmEntries; i++ {
			v := 1 + (65533*i)/(apmEntries-1)
			a.table[int(ctx)*apmEntries+i] = uint16(v)
		}
	}
	return a
}

// Map linearly interpolates between the two entries bracketing pred within
// ctx's row, returning a refined probability clamped to [1, 65534]. It
// records the cell touched so the matching Update call can learn.
func (a *Apm) Map(ctx uint32, pred uint32) (refined uint32, base int, idx int) {
	row := int(ctx&a.contextMask) * apmEntries
	pos := float64(pred-1) * float64(apmEntries-1) / 65533.0
	if pos < 0 {
		pos = 0
	}
	if pos > float64(apmEntries-1) {
		pos = float64(apmEntries - 1)
	}
	i := int(pos)
	if i >= apmEntries-1 {
		i = apmEntries - 2
	}
	frac := pos - float64(i)
	lo := float64(a.table[row+i])
	hi := float64(a.table[row+i+1])
	v := lo + (hi-lo)*frac
	if v < 1 {
		v = 1
	}
	if v > 65534 {
		v = 65534
	}
	return uint32(v + 0.5), row, i
}

// Update pulls the two entries identified by a preceding Map call (base,
// idx) toward 65534 (bit=1) or 1 (bit=0) by 1/32.
func (a *Apm) Update(base, idx int, bit int) {
	target := uint32(1)
	if bit != 0 {
		target = 65534
	}
	for _, i := range [2]int{idx, idx + 1} {
		cur := uint32(a.table[base+i])
		delta := (int64(target) - int64(cur)) / 32
		nv := int64(cur) + delta
		if nv < 1 {
			nv = 1
		}
		if nv > 65534 {
			nv = 65534
		}
		a.table[base+i] = uint16(nv)
	}
}
