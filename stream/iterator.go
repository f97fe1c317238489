package stream

import (
	"bufio"
	"fmt"
	"io"
	"iter"

	"github.com/vgio/vgio/bgzf"
	"github.com/vgio/vgio/internal/ioutil"
	"github.com/vgio/vgio/internal/option"
	"github.com/vgio/vgio/vgioerrs"
	"github.com/vgio/vgio/voffset"
	"github.com/vgio/vgio/wire"
)

// IteratorOption configures a MessageIterator. See WithIteratorThreads and
// WithTagValidator.
type IteratorOption = option.Option[*MessageIterator]

// WithIteratorThreads enables BGZF read-ahead decoding for a BGZF-backed
// source when n > 1: one background goroutine keeps up to n decoded blocks
// ready (see bgzf.WithThreads). It has no effect on an uncompressed source.
func WithIteratorThreads(n int) IteratorOption {
	return option.NoError[*MessageIterator](func(it *MessageIterator) { it.threads = n })
}

// WithTagValidator wires a predicate the iterator consults, alongside the
// previous group's tag, to tell a real tag apart from the first message of
// a legacy, untagged group (see disambiguateTag). Callers that dispatch a
// loader by tag should pass something like reg.HasTag; callers that only
// re-coalesce or display a stream's existing tag runs (where misreading a
// tag as legacy data, or vice versa, doesn't change what's displayed)
// can leave this unset.
func WithTagValidator(valid func(tag string) bool) IteratorOption {
	return option.NoError[*MessageIterator](func(it *MessageIterator) { it.tagValid = valid })
}

// MessageIterator is a forward cursor over a sequence of type-tagged
// message groups. It wraps either a BGZF stream or a plain (uncompressed,
// legacy-compatible) byte stream; which one is decided by sniffing the
// first bytes at construction.
type MessageIterator struct {
	src      wire.ByteReader
	tellFn   func() voffset.VirtualOffset
	seekFn   func(voffset.VirtualOffset) error
	threads  int
	tagValid tagValidator

	groupVO voffset.VirtualOffset
	pending uint64

	curTag     string
	prevTag    string
	haveLegacy bool
	legacyItem []byte

	done bool
	err  error
}

// NewMessageIterator wraps src, sniffing whether it's a BGZF stream or a
// plain one. TellGroup reports group offsets for both: BGZF virtual offsets
// for a BGZF source (voffset.Untellable for plain, non-block-framed gzip),
// and the count of bytes read, packed as voffset.Pack(n, 0), for a plain
// source. SeekGroup works only on a BGZF source whose underlying reader is
// an io.Seeker; on a plain source it always fails with ErrSeekUnsupported.
func NewMessageIterator(src io.Reader, opts ...IteratorOption) (*MessageIterator, error) {
	it := &MessageIterator{groupVO: voffset.Untellable}
	if err := option.Apply(it, opts...); err != nil {
		return nil, err
	}

	magic, wrapped, err := sniffMagic(src)
	if err != nil {
		return nil, err
	}

	if bgzf.SmellsLikeGzip(magic) {
		var bgzfOpts []bgzf.Option
		if it.threads > 1 {
			bgzfOpts = append(bgzfOpts, bgzf.WithThreads(it.threads))
		}

		r, err := bgzf.NewReader(wrapped, bgzfOpts...)
		if err != nil {
			return nil, err
		}

		it.src = r
		// Plain (non-block-framed) gzip degrades to sequential-only
		// reading inside r; Tell/Seek keep working here, they just
		// report r's own untellable/unsupported results in that case.
		it.tellFn = r.Tell
		it.seekFn = r.Seek

		return it, nil
	}

	cr := newCountingByteReader(wrapped)
	it.src = cr
	it.tellFn = cr.tell

	return it, nil
}

func sniffMagic(src io.Reader) ([]byte, io.Reader, error) {
	if seeker, ok := src.(io.ReadSeeker); ok {
		start, err := seeker.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
		}

		peek := make([]byte, 2)
		n, _ := io.ReadFull(src, peek)

		if _, err := seeker.Seek(start, io.SeekStart); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", vgioerrs.ErrIOFailure, err)
		}

		return peek[:n], src, nil
	}

	br := bufio.NewReader(src)
	peek, _ := br.Peek(2)

	return peek, br, nil
}

// countingByteReader gives a plain (uncompressed) source ordinary-byte-offset
// virtual offsets, via internal/ioutil's byte-counting reader.
type countingByteReader struct {
	*ioutil.CountingReader
}

func newCountingByteReader(r io.Reader) *countingByteReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	return &countingByteReader{ioutil.NewCountingReader(br)}
}

func (c *countingByteReader) tell() voffset.VirtualOffset {
	return voffset.Pack(c.N, 0)
}

// Next returns the next tagged message, advancing the cursor. ok is false
// once the stream is exhausted; err is non-nil only on a genuine decode
// failure, not on clean end-of-stream.
func (it *MessageIterator) Next() (TaggedMessage, bool, error) {
	if it.done {
		return TaggedMessage{}, false, it.err
	}

	if it.pending == 0 && !it.haveLegacy {
		if err := it.startGroup(); err != nil {
			if err == io.EOF {
				it.done = true
				return TaggedMessage{}, false, nil
			}

			it.done = true
			it.err = err

			return TaggedMessage{}, false, err
		}

		if it.pending == 0 {
			// Tag-only group: yield one sentinel message, then fall through
			// to start a fresh group on the next call.
			return TaggedMessage{Tag: it.curTag}, true, nil
		}
	}

	if it.haveLegacy {
		item := it.legacyItem
		it.legacyItem = nil
		it.haveLegacy = false

		return TaggedMessage{Tag: it.curTag, Data: item}, true, nil
	}

	item, err := wire.ReadItem(it.src)
	if err != nil {
		it.done = true
		it.err = err

		return TaggedMessage{}, false, err
	}

	it.pending--

	return TaggedMessage{Tag: it.curTag, Data: item}, true, nil
}

func (it *MessageIterator) startGroup() error {
	if it.tellFn != nil {
		it.groupVO = it.tellFn()
	}

	n, err := wire.ReadGroupHeader(it.src)
	if err != nil {
		return err
	}

	raw, err := wire.ReadTag(it.src)
	if err != nil {
		return err
	}

	t, legacyItem, isLegacy := disambiguateTag([]byte(raw), it.prevTag, it.tagValid)
	it.curTag = t

	if isLegacy {
		it.prevTag = ""
		it.haveLegacy = true
		it.legacyItem = legacyItem
		it.pending = n - 1

		return nil
	}

	it.prevTag = t
	it.pending = n - 1

	return nil
}

// TellGroup returns the virtual offset of the group the iterator is
// currently reading from, or voffset.Untellable if the source doesn't
// support it.
func (it *MessageIterator) TellGroup() voffset.VirtualOffset {
	return it.groupVO
}

// SeekGroup repositions the iterator to read the group starting at vo. The
// next call to Next returns that group's first message.
func (it *MessageIterator) SeekGroup(vo voffset.VirtualOffset) error {
	if it.seekFn == nil {
		return vgioerrs.ErrSeekUnsupported
	}

	if err := it.seekFn(vo); err != nil {
		return err
	}

	it.groupVO = vo
	it.pending = 0
	it.prevTag = ""
	it.haveLegacy = false
	it.legacyItem = nil
	it.done = false
	it.err = nil

	return nil
}

// All returns a lazy iterator over every tagged message, for range-over-func
// consumers (for msg, err := range it.All() { ... }).
func (it *MessageIterator) All() iter.Seq2[TaggedMessage, error] {
	return func(yield func(TaggedMessage, error) bool) {
		for {
			msg, ok, err := it.Next()
			if err != nil {
				yield(TaggedMessage{}, err)
				return
			}

			if !ok {
				return
			}

			if !yield(msg, nil) {
				return
			}
		}
	}
}
