package method

import (
	"bytes"

	"github.com/pkg/errors"
)

// Verify compresses data under method, decompresses the result, and
// reports whether the round trip reproduced data exactly.
func Verify(method string, data []byte) (bool, error) {
	var result Result
	var err error
	switch method {
	case "order0-arith":
		result, err = CompressOrder0(data)
	case "ppm":
		result, err = CompressPPM(data, defaultPpmOrder)
	case "byte-mix":
		result, err = CompressByteMix(data)
	case "bit-mix":
		result, err = CompressBitMix(data)
	default:
		return false, errors.Wrapf(ErrInvalidParameter, "unknown method %q", method)
	}
	if err != nil {
		return false, errors.Wrapf(err, "verify %q: compress", method)
	}

	var out []byte
	switch method {
	case "order0-arith":
		out, err = DecompressOrder0(result.Data)
	case "ppm":
		out, err = DecompressPPM(result.Data)
	case "byte-mix":
		out, err = DecompressByteMix(result.Data)
	case "bit-mix":
		out, err = DecompressBitMix(result.Data)
	}
	if err != nil {
		return false, errors.Wrapf(err, "verify %q: decompress", method)
	}
	return bytes.Equal(out, data), nil
}
