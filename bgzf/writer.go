package bgzf

import (
	"fmt"
	"io"

	"github.com/vgio/vgio/vgioerrs"
	"github.com/vgio/vgio/voffset"
)

// Writer buffers uncompressed bytes and flushes them as BGZF blocks no
// larger than maxUncompressedChunk. It implements io.Writer so it composes
// with anything in package wire.
//
// A Writer does not know where in the destination file it started unless
// told: construct over an io.Seeker (its current position is read once at
// construction) or call StartFile explicitly when wrapping an unseekable
// sink known to be empty (e.g. freshly opened for writing). Otherwise Tell
// returns voffset.Untellable, matching the BGZF behavior for pipes.
type Writer struct {
	dst io.Writer

	buf        []byte
	coffset    int64
	knowOffset bool
	closed     bool
}

// NewWriter wraps dst. If dst implements io.Seeker, the writer's starting
// compressed offset is read from it immediately, making Tell available
// without a separate StartFile call.
func NewWriter(dst io.Writer) *Writer {
	w := &Writer{dst: dst}

	if seeker, ok := dst.(io.Seeker); ok {
		if pos, err := seeker.Seek(0, io.SeekCurrent); err == nil {
			w.coffset = pos
			w.knowOffset = true
		}
	}

	return w
}

// StartFile declares that the writer is positioned at the start of a fresh
// file, making Tell available on an unseekable destination.
func (w *Writer) StartFile() {
	w.coffset = 0
	w.knowOffset = true
}

// Write buffers p, flushing full blocks as the internal buffer fills.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("%w: write to closed bgzf.Writer", vgioerrs.ErrInvalidArgument)
	}

	total := len(p)

	for len(p) > 0 {
		room := maxUncompressedChunk - len(w.buf)
		take := room
		if take > len(p) {
			take = len(p)
		}

		w.buf = append(w.buf, p[:take]...)
		p = p[take:]

		if len(w.buf) >= maxUncompressedChunk {
			if err := w.flushChunk(); err != nil {
				return total - len(p), err
			}
		}
	}

	return total, nil
}

func (w *Writer) flushChunk() error {
	if len(w.buf) == 0 {
		return nil
	}

	n, err := writeBlock(w.dst, w.buf)
	if err != nil {
		return err
	}

	if w.knowOffset {
		w.coffset += int64(n)
	}

	w.buf = w.buf[:0]

	return nil
}

// Flush writes any buffered bytes out as a (possibly undersized) block.
// Flush is how callers force a block boundary at the current write
// position before recording its virtual offset, e.g. at the start of a new
// group.
func (w *Writer) Flush() error {
	return w.flushChunk()
}

// Tell returns the virtual offset of the next byte Write will append. It is
// valid even mid-block, before that block has been flushed: the offset
// names where the pending bytes will land once they eventually are.
func (w *Writer) Tell() voffset.VirtualOffset {
	if !w.knowOffset {
		return voffset.Untellable
	}

	return voffset.Pack(w.coffset, uint16(len(w.buf)))
}

// EndFile flushes any buffered bytes and appends the BGZF EOF marker. A
// file not terminated this way reads back as ErrTruncatedContainer once a
// seekable reader checks for it.
func (w *Writer) EndFile() error {
	if err := w.flushChunk(); err != nil {
		return err
	}

	n, err := w.dst.Write(eofMarker)
	if err != nil {
		return fmt.Errorf("%w: writing EOF marker: %w", vgioerrs.ErrIOFailure, err)
	}

	if w.knowOffset {
		w.coffset += int64(n)
	}

	w.closed = true

	return nil
}

// Close flushes buffered bytes without writing the EOF marker. Use EndFile
// to terminate a complete BGZF file; Close is for callers deliberately
// leaving the marker to someone downstream (e.g. a multiplexed writer that
// owns the sole authoritative close).
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	err := w.flushChunk()
	w.closed = true

	return err
}
