package wire

import (
	"fmt"
	"io"

	"github.com/vgio/vgio/vgioerrs"
)

// ByteReader is the minimal interface the varint and group decoders need:
// byte-at-a-time reads for the varint continuation loop, plus bulk reads for
// item payloads.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// PutUvarint encodes v into buf using the protobuf unsigned varint encoding
// (7 payload bits per byte, least-significant group first, continuation bit
// set on every byte but the last) and returns the number of bytes written.
// buf must have at least MaxVarintLen bytes of room.
func PutUvarint(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	buf[i] = byte(v)

	return i + 1
}

// MaxVarintLen is the longest a varint-encoded uint64 can be.
const MaxVarintLen = 10

// WriteUvarint writes v to w as a protobuf-style unsigned varint.
func WriteUvarint(w io.Writer, v uint64) error {
	var buf [MaxVarintLen]byte
	n := PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	if err != nil {
		return fmt.Errorf("%w: writing varint: %w", vgioerrs.ErrIOFailure, err)
	}

	return nil
}

// ReadUvarint reads a protobuf-style unsigned varint from r. It returns
// ErrMalformedFrame if the varint is longer than MaxVarintLen bytes (10
// bytes covers the full uint64 range; anything past that is corrupt data,
// not a legal encoding). Non-minimal encodings within that length are
// accepted: 0x80 0x00 decodes as 0.
func ReadUvarint(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint

	for i := 0; i < MaxVarintLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && i == 0 {
				return 0, io.EOF
			}

			return 0, fmt.Errorf("%w: reading varint: %w", vgioerrs.ErrIOFailure, err)
		}

		if b < 0x80 {
			result |= uint64(b) << shift
			return result, nil
		}

		result |= uint64(b&0x7f) << shift
		shift += 7
	}

	return 0, fmt.Errorf("%w: varint longer than %d bytes", vgioerrs.ErrMalformedFrame, MaxVarintLen)
}
