package order0

import "testing"

func TestInvariantsAfterUpdates(t *testing.T) {
	m := New()
	for i := 0; i < 20000; i++ {
		sym := byte(i % 256)
		m.Update(sym)

		var sum uint32
		for _, f := range m.freq {
			sum += f
		}
		if sum != m.total {
			t.Fatalf("sum(freq)=%d != total=%d", sum, m.total)
		}
		if m.cum[256] != m.total {
			t.Fatalf("cum[256]=%d != total=%d", m.cum[256], m.total)
		}
		if m.total > rescaleThreshold {
			t.Fatalf("total=%d exceeds rescale threshold", m.total)
		}
		for _, f := range m.freq {
			if f == 0 {
				t.Fatalf("zero frequency found after update")
			}
		}
	}
}

func TestSymbolBinarySearchInverse(t *testing.T) {
	m := New()
	for i := 0; i < 1000; i++ {
		m.Update(byte(i % 7))
	}
	for sym := 0; sym < 256; sym++ {
		cum, freq, _ := m.EncodeInfo(byte(sym))
		for v := cum; v < cum+freq; v++ {
			got := m.Symbol(v)
			if got != byte(sym) {
				t.Fatalf("Symbol(%d)=%d want %d", v, got, sym)
			}
		}
	}
}

func TestRescaleOccursAndModelsStayInLockstep(t *testing.T) {
	enc := New()
	dec := New()
	const n = (1 << 14) + 10
	rescaled := false
	for i := 0; i < n; i++ {
		before := enc.total
		cum, freq, total := enc.EncodeInfo(0x42)
		_ = cum
		_ = freq
		enc.Update(0x42)
		if enc.total < before {
			rescaled = true
		}
		dcum, dfreq, dtotal := dec.EncodeInfo(0x42)
		if dcum != cum || dfreq != freq || dtotal != total {
			t.Fatalf("encoder/decoder model diverged at symbol %d", i)
		}
		dec.Update(0x42)
	}
	if !rescaled {
		t.Fatalf("expected at least one rescale over %d symbols", n)
	}
}
