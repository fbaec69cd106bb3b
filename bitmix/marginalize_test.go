package bitmix

import "testing"

func TestMarginaliseUniformGivesHalf(t *testing.T) {
	var dist [256]float64
	for i := range dist {
		dist[i] = 1.0 / 256.0
	}
	p := Marginalise(&dist, SentinelStart)
	if p < 32000 || p > 33535 {
		t.Fatalf("uniform distribution should marginalise near 0.5, got %d", p)
	}
}

func TestMarginalisePeakedOnSingleByte(t *testing.T) {
	var dist [256]float64
	dist['A'] = 1.0
	partial := SentinelStart
	for i := 0; i < 8; i++ {
		bit := (int('A') >> uint(7-i)) & 1
		p := Marginalise(&dist, partial)
		if bit == 1 && p < 60000 {
			t.Fatalf("bit %d: expected high P(bit=1), got %d", i, p)
		}
		if bit == 0 && p > 5534 {
			t.Fatalf("bit %d: expected low P(bit=1), got %d", i, p)
		}
		partial = AppendBit(partial, bit)
	}
}

func TestMatchBitPredictionAgreesWithCandidate(t *testing.T) {
	candidate := byte('X')
	partial := SentinelStart
	conf := MatchConfidence(6)
	for i := 0; i < 8; i++ {
		wantBit := (int(candidate) >> uint(7-i)) & 1
		p := MatchBitPrediction(candidate, partial, conf)
		if wantBit == 1 && p < 32768 {
			t.Fatalf("bit %d: expected prediction favouring 1, got %d", i, p)
		}
		if wantBit == 0 && p > 32768 {
			t.Fatalf("bit %d: expected prediction favouring 0, got %d", i, p)
		}
		partial = AppendBit(partial, wantBit)
	}
}

func TestMatchBitPredictionNeutralOnDisagreement(t *testing.T) {
	candidate := byte(0x0F) // 00001111
	partial := AppendBit(SentinelStart, 1) // disagrees with candidate's first bit (0)
	p := MatchBitPrediction(candidate, partial, 0.9)
	if p != 32768 {
		t.Fatalf("expected neutral 32768 on prefix disagreement, got %d", p)
	}
}

func TestBitsKnown(t *testing.T) {
	p := SentinelStart
	for i := 0; i < 8; i++ {
		if BitsKnown(p) != i {
			t.Fatalf("BitsKnown(%b) = %d, want %d", p, BitsKnown(p), i)
		}
		p = AppendBit(p, i%2)
	}
}
