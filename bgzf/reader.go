package bgzf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/vgio/vgio/vgioerrs"
	"github.com/vgio/vgio/voffset"
)

// Reader decompresses a BGZF stream block by block and exposes it as a
// plain io.Reader/io.ByteReader (so it satisfies wire.ByteReader directly),
// plus virtual-offset bookkeeping for Tell/Seek.
//
// A Reader is not safe for concurrent use; WithThreads arranges for block
// decompression to run ahead of consumption on a background goroutine, but
// reads through the Reader itself remain sequential.
type Reader struct {
	src io.Reader

	coffset    int64 // compressed offset of the start of cur
	cur        []byte
	curOff     int // read position within cur
	curBlockAt int64

	threads int
	ahead   chan aheadResult

	// plain is set once the source turns out to be ordinary (non-block-
	// framed) gzip rather than BGZF, discovered on the first block read.
	// From then on reads are served from it directly; coffset/curBlockAt
	// stop advancing meaningfully, and Tell/Seek report accordingly.
	plain *bufio.Reader
}

type aheadResult struct {
	block decodedBlock
	err   error
}

// Option configures a Reader. See WithThreads.
type Option func(*Reader)

// WithThreads enables read-ahead block decompression on one background
// goroutine that keeps up to n decoded blocks buffered. n <= 1 disables it;
// reads happen synchronously on demand.
func WithThreads(n int) Option {
	return func(r *Reader) { r.threads = n }
}

// NewReader wraps src as a BGZF stream. If src also implements io.Seeker
// and sniffing its leading bytes confirms it's actually block-framed,
// NewReader checks for the trailing EOF marker up front and returns
// ErrTruncatedContainer immediately if it's missing, rather than letting
// callers discover the truncation only once they read past the last block.
// A seekable source that turns out to be plain (non-block-framed) gzip
// skips this check entirely: it has no BGZF EOF marker to look for, and is
// still perfectly readable sequentially (see the fallback in nextBlock).
func NewReader(src io.Reader, opts ...Option) (*Reader, error) {
	r := &Reader{src: src}
	for _, opt := range opts {
		opt(r)
	}

	if seeker, ok := src.(io.ReadSeeker); ok {
		blockFramed, err := peekIsBlockFramed(seeker)
		if err != nil {
			return nil, err
		}

		if blockFramed {
			missing, err := checkTrailingEOF(seeker)
			if err != nil {
				return nil, err
			}

			if missing {
				return nil, fmt.Errorf("%w: no trailing BGZF EOF marker", vgioerrs.ErrTruncatedContainer)
			}
		}
	}

	if r.threads > 1 {
		r.startReadAhead()
	}

	return r, nil
}

// peekIsBlockFramed reports whether s's next bytes look like a BGZF block,
// without consuming them.
func peekIsBlockFramed(s io.ReadSeeker) (bool, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
	}

	peek := make([]byte, MinSniffLen)
	n, _ := io.ReadFull(s, peek)

	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return false, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
	}

	return IsBGZF(peek[:n]), nil
}

func checkTrailingEOF(s io.ReadSeeker) (missing bool, err error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
	}

	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return false, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
	}

	if end-cur < int64(len(eofMarker)) {
		missing = true
	} else {
		tail := make([]byte, len(eofMarker))
		if _, err := s.Seek(end-int64(len(eofMarker)), io.SeekStart); err != nil {
			return false, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
		}

		if _, err := io.ReadFull(s, tail); err != nil {
			return false, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
		}

		missing = !isEOFMarker(tail)
	}

	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return false, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
	}

	return missing, nil
}

// startReadAhead runs block reads on a background goroutine so decoding of
// block N+1 overlaps with the consumer's processing of block N, instead of
// both happening on the same goroutine in lockstep. readBlock itself is not
// safe to call concurrently against a shared io.Reader (concurrent calls
// would interleave each other's reads), so this buys pipeline overlap with
// the caller rather than parallel decompression; WithThreads sizes the
// channel buffer so up to that many decoded blocks can queue ahead.
func (r *Reader) startReadAhead() {
	out := make(chan aheadResult, r.threads)

	go func() {
		defer close(out)

		for {
			blk, err := readBlock(r.src)
			out <- aheadResult{block: blk, err: err}
			if err != nil {
				return
			}
		}
	}()

	r.ahead = out
}

func (r *Reader) nextBlock() error {
	if r.plain != nil {
		return r.fillFromPlain()
	}

	if r.ahead != nil {
		res := <-r.ahead
		if nbf := asNotBlockFramed(res.err); nbf != nil {
			if r.coffset == 0 {
				return r.fallBackToPlainGzip(nbf)
			}

			return fmt.Errorf("%w: %s", vgioerrs.ErrMalformedFrame, nbf)
		}

		if res.err != nil {
			return res.err
		}

		r.curBlockAt = r.coffset
		r.coffset += res.block.blockBytes
		r.cur = res.block.data
		r.curOff = 0

		return nil
	}

	blk, err := readBlock(r.src)
	if nbf := asNotBlockFramed(err); nbf != nil {
		if r.coffset == 0 {
			return r.fallBackToPlainGzip(nbf)
		}

		return fmt.Errorf("%w: %s", vgioerrs.ErrMalformedFrame, nbf)
	}

	if err != nil {
		return err
	}

	r.curBlockAt = r.coffset
	r.coffset += blk.blockBytes
	r.cur = blk.data
	r.curOff = 0

	return nil
}

func asNotBlockFramed(err error) *notBlockFramedError {
	var nbf *notBlockFramedError
	if errors.As(err, &nbf) {
		return nbf
	}

	return nil
}

// fallBackToPlainGzip switches the reader to sequential-only decoding, once
// the very first block turns out to be plain gzip rather than BGZF. The
// bytes readBlock already consumed off r.src are stitched back on front so
// nothing is lost.
func (r *Reader) fallBackToPlainGzip(nbf *notBlockFramedError) error {
	r.ahead = nil

	full := io.MultiReader(bytes.NewReader(nbf.header), r.src)

	zr, err := gzip.NewReader(full)
	if err != nil {
		return fmt.Errorf("%w: opening plain gzip stream: %w", vgioerrs.ErrMalformedFrame, err)
	}

	r.plain = bufio.NewReader(zr)

	return r.fillFromPlain()
}

func (r *Reader) fillFromPlain() error {
	chunk := make([]byte, 65536)

	n, err := r.plain.Read(chunk)
	if n == 0 {
		return err
	}

	r.cur = chunk[:n]
	r.curOff = 0

	return nil
}

// Read implements io.Reader, pulling further blocks as needed. Interior
// empty blocks are legal BGZF content and are skipped transparently rather
// than surfaced as a zero-byte read.
func (r *Reader) Read(p []byte) (int, error) {
	for r.curOff >= len(r.cur) {
		if err := r.nextBlock(); err != nil {
			return 0, err
		}
	}

	n := copy(p, r.cur[r.curOff:])
	r.curOff += n

	return n, nil
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	for r.curOff >= len(r.cur) {
		if err := r.nextBlock(); err != nil {
			return 0, err
		}
	}

	b := r.cur[r.curOff]
	r.curOff++

	return b, nil
}

// Next returns the unread tail of the current block without copying,
// advancing past it. Callers that need to look without consuming should
// use Tell/BackUp around it.
func (r *Reader) Next() ([]byte, error) {
	if r.curOff >= len(r.cur) {
		if err := r.nextBlock(); err != nil {
			return nil, err
		}
	}

	chunk := r.cur[r.curOff:]
	r.curOff = len(r.cur)

	return chunk, nil
}

// BackUp rewinds the read cursor by n bytes within the current block. It
// cannot rewind across a block boundary.
func (r *Reader) BackUp(n int) error {
	if n < 0 || n > r.curOff {
		return fmt.Errorf("%w: cannot back up %d bytes", vgioerrs.ErrInvalidArgument, n)
	}

	r.curOff -= n

	return nil
}

// Skip discards n decompressed bytes.
func (r *Reader) Skip(n int) error {
	for n > 0 {
		if r.curOff >= len(r.cur) {
			if err := r.nextBlock(); err != nil {
				return err
			}

			if len(r.cur) == 0 {
				continue
			}
		}

		take := len(r.cur) - r.curOff
		if take > n {
			take = n
		}

		r.curOff += take
		n -= take
	}

	return nil
}

// Tell returns the virtual offset of the next byte Read will return, or
// voffset.Untellable if the stream turned out to be plain (non-block-
// framed) gzip: it carries no block boundaries a virtual offset can
// address.
func (r *Reader) Tell() voffset.VirtualOffset {
	if r.plain != nil {
		return voffset.Untellable
	}

	return voffset.Pack(r.curBlockAt, uint16(r.curOff))
}

// Seek positions the reader at vo, which must have been produced by a Tell
// call on a compatible stream. Seek requires the underlying source to be an
// io.Seeker; it disables read-ahead for the rest of the Reader's life, since
// read-ahead assumes strictly sequential block order. Once the stream has
// fallen back to plain gzip decoding, Seek always fails: that format
// supports sequential reading only.
func (r *Reader) Seek(vo voffset.VirtualOffset) error {
	if r.plain != nil {
		return fmt.Errorf("%w: plain gzip stream supports sequential reading only", vgioerrs.ErrSeekUnsupported)
	}

	seeker, ok := r.src.(io.Seeker)
	if !ok {
		return fmt.Errorf("%w: underlying stream is not seekable", vgioerrs.ErrSeekUnsupported)
	}

	r.ahead = nil

	if _, err := seeker.Seek(vo.Compressed(), io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
	}

	r.coffset = vo.Compressed()
	if err := r.nextBlock(); err != nil {
		return err
	}

	if int(vo.Uncompressed()) > len(r.cur) {
		return fmt.Errorf("%w: within-block offset %d past block end", vgioerrs.ErrMalformedFrame, vo.Uncompressed())
	}

	r.curOff = int(vo.Uncompressed())

	return nil
}

// IsBGZF reports whether peeked, the leading bytes of a stream sniffed
// without consuming them, look like a BGZF stream specifically
// (gzip magic plus the BC extra subfield), as opposed to plain gzip.
func IsBGZF(peeked []byte) bool {
	return len(peeked) >= blockHeaderLen &&
		peeked[0] == 0x1f && peeked[1] == 0x8b &&
		peeked[12] == 'B' && peeked[13] == 'C'
}

// SmellsLikeGzip reports whether peeked starts with the gzip magic bytes,
// regardless of whether it carries the BC extra subfield.
func SmellsLikeGzip(peeked []byte) bool {
	return len(peeked) >= 2 && peeked[0] == 0x1f && peeked[1] == 0x8b
}

// PeekReader adapts any io.Reader into something IsBGZF/SmellsLikeGzip can
// sniff without losing bytes, by way of a small bufio lookahead window.
func PeekReader(r io.Reader, n int) (*bufio.Reader, []byte, error) {
	br := bufio.NewReaderSize(r, n)

	peeked, err := br.Peek(n)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return br, peeked, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
	}

	return br, peeked, nil
}
