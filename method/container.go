package method

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// writeSize appends a little-endian int64 original size header, shared by
// every container format so a decompressor can size its output buffer
// before coding a single symbol.
func writeSize(buf *bytes.Buffer, n int64) {
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(n))
	buf.Write(hdr[:])
}

// readSize reads the little-endian int64 size header written by writeSize,
// returning the remainder of data as the payload.
func readSize(data []byte) (n int64, rest []byte, err error) {
	if len(data) < 8 {
		return 0, nil, errors.Wrap(ErrCorruptStream, "truncated size header")
	}
	n = int64(binary.LittleEndian.Uint64(data[:8]))
	if n < 0 {
		return 0, nil, errors.Wrapf(ErrCorruptStream, "negative original size %d", n)
	}
	return n, data[8:], nil
}
