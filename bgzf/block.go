package bgzf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/vgio/vgio/vgioerrs"
)

// blockHeaderLen is the size of the fixed gzip+extra-field header every BGZF
// block starts with: the 10-byte gzip header, a 2-byte XLEN, and the 6-byte
// "BC" subfield (SI1, SI2, SLEN, BSIZE).
const blockHeaderLen = 18

// MinSniffLen is how many leading bytes a caller needs in hand before
// IsBGZF can tell a BGZF stream from plain gzip; SmellsLikeGzip needs only
// the first 2.
const MinSniffLen = blockHeaderLen

// blockTrailerLen is the gzip CRC32 + ISIZE trailer every block ends with.
const blockTrailerLen = 8

// maxBlockSize is the largest a complete BGZF block (header + compressed
// payload + trailer) may be; BSIZE is a 16-bit field holding blockLen-1.
const maxBlockSize = 65536

// maxUncompressedChunk is the most uncompressed data a single block ever
// carries. It is conservative: DEFLATE on already-incompressible input can
// grow slightly, and this leaves enough headroom that a full chunk never
// pushes a block over maxBlockSize.
const maxUncompressedChunk = 65280

// eofMarker is the canonical empty BGZF block every well-formed file ends
// with: a zero-byte deflate stream wrapped in the BC-extra gzip header.
var eofMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff,
	0x06, 0x00, 0x42, 0x43, 0x02, 0x00, 0x1b, 0x00, 0x03, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// header layout, all little-endian per RFC 1952.
var gzipFixedHeader = []byte{0x1f, 0x8b, 0x08, 0x04, 0, 0, 0, 0, 0, 0xff}

func compressChunk(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("%w: allocating deflate writer: %w", vgioerrs.ErrIOFailure, err)
	}

	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("%w: compressing block: %w", vgioerrs.ErrIOFailure, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing deflate writer: %w", vgioerrs.ErrIOFailure, err)
	}

	return buf.Bytes(), nil
}

// writeBlock compresses data (which must be at most maxUncompressedChunk
// bytes) into one BGZF block and writes it to w, returning the number of
// bytes the block occupied in w.
func writeBlock(w io.Writer, data []byte) (int, error) {
	if len(data) > maxUncompressedChunk {
		return 0, fmt.Errorf("%w: block chunk of %d bytes exceeds %d", vgioerrs.ErrInvalidArgument, len(data), maxUncompressedChunk)
	}

	compressed, err := compressChunk(data)
	if err != nil {
		return 0, err
	}

	total := blockHeaderLen + len(compressed) + blockTrailerLen
	if total > maxBlockSize {
		return 0, fmt.Errorf("%w: compressed block grew to %d bytes", vgioerrs.ErrInvalidArgument, total)
	}

	block := make([]byte, total)
	copy(block, gzipFixedHeader)
	binary.LittleEndian.PutUint16(block[10:12], 6) // XLEN
	block[12] = 'B'
	block[13] = 'C'
	binary.LittleEndian.PutUint16(block[14:16], 2)                    // SLEN
	binary.LittleEndian.PutUint16(block[16:18], uint16(total-1))      // BSIZE
	copy(block[blockHeaderLen:], compressed)

	crc := crc32.ChecksumIEEE(data)
	trailer := block[blockHeaderLen+len(compressed):]
	binary.LittleEndian.PutUint32(trailer[0:4], crc)
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(data)))

	n, err := w.Write(block)
	if err != nil {
		return 0, fmt.Errorf("%w: writing block: %w", vgioerrs.ErrIOFailure, err)
	}

	return n, nil
}

// decodedBlock is one decompressed BGZF block plus the number of bytes it
// occupied in the underlying compressed stream, needed to advance a virtual
// offset's compressed component.
type decodedBlock struct {
	data       []byte
	blockBytes int64
}

// readBlock reads and decompresses exactly one BGZF block from r. It
// returns io.EOF, unwrapped, only when r has no more bytes at all (a clean
// end of stream at a block boundary); any other short read is a truncated
// container.
func readBlock(r io.Reader) (decodedBlock, error) {
	header := make([]byte, blockHeaderLen)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return decodedBlock{}, io.EOF
		}

		return decodedBlock{}, fmt.Errorf("%w: reading block header: %w", vgioerrs.ErrTruncatedContainer, err)
	}

	if header[0] != 0x1f || header[1] != 0x8b {
		return decodedBlock{}, fmt.Errorf("%w: bad gzip magic %x%x", vgioerrs.ErrMalformedFrame, header[0], header[1])
	}

	if header[12] != 'B' || header[13] != 'C' {
		return decodedBlock{}, &notBlockFramedError{header: header}
	}

	bsize := binary.LittleEndian.Uint16(header[16:18])
	total := int(bsize) + 1

	rest := make([]byte, total-blockHeaderLen)
	if _, err := io.ReadFull(r, rest); err != nil {
		return decodedBlock{}, fmt.Errorf("%w: reading %d block bytes: %w", vgioerrs.ErrTruncatedContainer, len(rest), err)
	}

	compressedLen := len(rest) - blockTrailerLen
	if compressedLen < 0 {
		return decodedBlock{}, fmt.Errorf("%w: BSIZE %d too small for trailer", vgioerrs.ErrMalformedFrame, bsize)
	}

	compressed := rest[:compressedLen]
	trailer := rest[compressedLen:]
	wantCRC := binary.LittleEndian.Uint32(trailer[0:4])
	wantSize := binary.LittleEndian.Uint32(trailer[4:8])

	zr := flate.NewReader(bytes.NewReader(compressed))
	data, err := io.ReadAll(zr)
	zr.Close()
	if err != nil {
		return decodedBlock{}, fmt.Errorf("%w: inflating block: %w", vgioerrs.ErrMalformedFrame, err)
	}

	if uint32(len(data)) != wantSize {
		return decodedBlock{}, fmt.Errorf("%w: decompressed %d bytes, ISIZE said %d", vgioerrs.ErrMalformedFrame, len(data), wantSize)
	}

	if crc32.ChecksumIEEE(data) != wantCRC {
		return decodedBlock{}, fmt.Errorf("%w: block CRC mismatch", vgioerrs.ErrMalformedFrame)
	}

	return decodedBlock{data: data, blockBytes: int64(total)}, nil
}

// isEOFMarker reports whether block, read verbatim from the stream, is the
// canonical EOF sentinel.
func isEOFMarker(block []byte) bool {
	return bytes.Equal(block, eofMarker)
}

// notBlockFramedError is returned by readBlock when the stream has valid
// gzip magic but no BC extra subfield: it's plain gzip, not BGZF. header
// carries the bytes already consumed off r so the caller can hand them
// back to a plain gzip decoder instead of losing them.
type notBlockFramedError struct {
	header []byte
}

func (e *notBlockFramedError) Error() string {
	return "bgzf: missing BC extra subfield, not block-framed"
}
