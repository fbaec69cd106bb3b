// Package method implements the four compression methods of the
// statistical compression core (order0-arith, ppm, byte-mix, bit-mix),
// their container formats, and the compress/decompress/verify contract
// exposed to callers.
package method

import (
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidParameter signals a programmer error at the method boundary
// (bad order, empty method name, ...).
var ErrInvalidParameter = errors.New("method: invalid parameter")

// ErrCorruptStream signals a data error: truncated or malformed input that
// prevented a decompress call from completing.
var ErrCorruptStream = errors.New("method: corrupt stream")

// Result is the outcome of one compress call: the encoded payload plus
// enough bookkeeping to report a compression ratio.
type Result struct {
	Method         string
	OriginalSize   int64
	CompressedSize int64
	Data           []byte
	AuxSize        int64
	Duration       time.Duration
	Lossless       bool
}

// defaultPpmOrder is the context depth used where no caller-specified order
// is available; deep enough to pick up multi-byte structure in ordinary
// text without overloading the context-table hashes on small inputs.
const defaultPpmOrder = 4
