package method

import (
	"math"
	"math/rand"
	"testing"
)

func identity256() []byte {
	out := make([]byte, 256)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

func repeat(pattern []byte, n int) []byte {
	out := make([]byte, 0, len(pattern)*n)
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

// TestRoundTrip checks that every method reproduces its input exactly
// across random, all-zero, all-one-byte, the 256-byte identity sequence,
// highly repetitive, and empty input.
func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 2000)
	rng.Read(random)

	allZero := make([]byte, 500)
	allOne := make([]byte, 500)
	for i := range allOne {
		allOne[i] = 0xFF
	}

	inputs := map[string][]byte{
		"random":      random,
		"all-zero":    allZero,
		"all-one":     allOne,
		"identity256": identity256(),
		"repetitive":  repeat([]byte("abcabcabc"), 200),
		"empty":       {},
	}

	for name, data := range inputs {
		t.Run(name+"/order0", func(t *testing.T) {
			res, err := CompressOrder0(data)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			out, err := DecompressOrder0(res.Data)
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			assertEqual(t, data, out)
		})
		t.Run(name+"/ppm", func(t *testing.T) {
			res, err := CompressPPM(data, 3)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			out, err := DecompressPPM(res.Data)
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			assertEqual(t, data, out)
		})
		t.Run(name+"/bytemix", func(t *testing.T) {
			res, err := CompressByteMix(data)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			out, err := DecompressByteMix(res.Data)
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			assertEqual(t, data, out)
		})
		t.Run(name+"/bitmix", func(t *testing.T) {
			res, err := CompressBitMix(data)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			out, err := DecompressBitMix(res.Data)
			if err != nil {
				t.Fatalf("decompress: %v", err)
			}
			assertEqual(t, data, out)
		})
	}
}

func assertEqual(t *testing.T, want, got []byte) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("length mismatch: want %d got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("byte %d: want %02x got %02x", i, want[i], got[i])
		}
	}
}

// TestCompressOrder0RepeatedByteCostBound checks that ten copies of the same
// byte cost no more than the order-0 model's own estimate: every symbol
// starts at frequency 1, so the ten bytes cost log2(256/1) + log2(257/2) +
// ... + log2(265/10) ~= 58.4 bits, at most 8 payload bytes on top of the
// 8-byte header and the 5 flush bytes.
func TestCompressOrder0RepeatedByteCostBound(t *testing.T) {
	data := []byte("aaaaaaaaaa")
	res, err := CompressOrder0(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(res.Data) > 8+5+8 {
		t.Fatalf("compressed size %d exceeds %d bytes", len(res.Data), 8+5+8)
	}
	out, err := DecompressOrder0(res.Data)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	assertEqual(t, data, out)
}

// TestCompressPPMIdentity256RoundTrips checks that PPM round-trips a
// sequence containing every byte value exactly once, a case with no
// repeated context to exploit.
func TestCompressPPMIdentity256RoundTrips(t *testing.T) {
	data := identity256()
	res, err := CompressPPM(data, 3)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	out, err := DecompressPPM(res.Data)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	assertEqual(t, data, out)
}

// TestCompressByteMixBiasedRandomNearsEntropyBound checks that a stream
// biased toward one symbol compresses close to its empirical entropy bound
// rather than padding out to one byte per input byte.
func TestCompressByteMixBiasedRandomNearsEntropyBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 65536
	const pA = 0.5
	data := make([]byte, n)
	for i := range data {
		if rng.Float64() < pA {
			data[i] = 'A'
		} else {
			data[i] = byte(rng.Intn(256))
		}
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(n)
		h += -p * math.Log2(p)
	}
	bound := float64(n) * h

	res, err := CompressByteMix(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	out, err := DecompressByteMix(res.Data)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	assertEqual(t, data, out)

	if float64(len(res.Data)) > bound*1.05 {
		t.Fatalf("compressed size %d exceeds 5%% over entropy bound %.0f", len(res.Data), bound)
	}
}

// TestCompressByteMixPeriodicPatternStaysSmall checks that a short pattern
// repeated many times compresses to a small, roughly constant size instead
// of growing with the number of repeats.
func TestCompressByteMixPeriodicPatternStaysSmall(t *testing.T) {
	pattern := []byte("0123456789abcdef")
	data := repeat(pattern, 1024)

	res, err := CompressByteMix(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(res.Data) > 200 {
		t.Fatalf("compressed size %d exceeds 200 bytes", len(res.Data))
	}
	out, err := DecompressByteMix(res.Data)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	assertEqual(t, data, out)
}

// TestCompressBitMixRepetitiveTextRoundTrips checks bit-mix round-tripping
// on an ordinary repetitive text stream. APM stabilisation itself is
// covered directly in bitmix's own test suite.
func TestCompressBitMixRepetitiveTextRoundTrips(t *testing.T) {
	pattern := []byte("the the the ")
	data := repeat(pattern, 4096/len(pattern)+1)
	data = data[:4096]

	res, err := CompressBitMix(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	out, err := DecompressBitMix(res.Data)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	assertEqual(t, data, out)
}

// TestCompressOrder0TriggersRescale checks that a run long enough to force
// at least one frequency-table rescale still round-trips exactly.
func TestCompressOrder0TriggersRescale(t *testing.T) {
	n := (1 << 14) + 10
	data := make([]byte, n)
	for i := range data {
		data[i] = 0x42
	}

	res, err := CompressOrder0(data)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	out, err := DecompressOrder0(res.Data)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	assertEqual(t, data, out)
}

func TestVerifyAllMethods(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	for _, m := range []string{"order0-arith", "ppm", "byte-mix", "bit-mix"} {
		ok, err := Verify(m, data)
		if err != nil {
			t.Fatalf("%s: verify error: %v", m, err)
		}
		if !ok {
			t.Fatalf("%s: verify returned false", m)
		}
	}
}

func TestVerifyUnknownMethod(t *testing.T) {
	_, err := Verify("no-such-method", []byte("x"))
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestDecompressOrder0TruncatedStreamErrors(t *testing.T) {
	res, err := CompressOrder0([]byte("hello world"))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	truncated := res.Data[:len(res.Data)-3]
	if _, err := DecompressOrder0(truncated); err == nil {
		t.Fatal("expected error decompressing truncated stream")
	}
}

func TestCompressPPMInvalidOrderPanicsAsError(t *testing.T) {
	if _, err := CompressPPM([]byte("x"), -1); err == nil {
		t.Fatal("expected error for negative order")
	}
	if _, err := CompressPPM([]byte("x"), 256); err == nil {
		t.Fatal("expected error for order > 255")
	}
}
