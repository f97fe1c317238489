package stream

import (
	"bufio"
	"io"

	"github.com/vgio/vgio/bgzf"
	"github.com/vgio/vgio/internal/bufpool"
	"github.com/vgio/vgio/internal/ioutil"
	"github.com/vgio/vgio/internal/option"
	"github.com/vgio/vgio/tag"
	"github.com/vgio/vgio/voffset"
	"github.com/vgio/vgio/wire"
)

// defaultMaxGroupSize caps how many messages an emitter coalesces into a
// single group before flushing it, bounding memory held for a slow writer.
const defaultMaxGroupSize = 1000

// GroupListener is notified after a group is written, with its tag and the
// virtual offset range [start, end) it occupies. For an uncompressed
// destination the offsets are the count of bytes the emitter has written,
// packed as voffset.Pack(n, 0), whether or not the destination is seekable.
type GroupListener func(tag string, start, end voffset.VirtualOffset)

// EmitterOption configures a MessageEmitter. See WithMaxGroupSize.
type EmitterOption = option.Option[*MessageEmitter]

// WithMaxGroupSize overrides the default cap on messages coalesced into one
// group before an automatic flush.
func WithMaxGroupSize(n int) EmitterOption {
	return option.NoError[*MessageEmitter](func(e *MessageEmitter) { e.maxGroupSize = n })
}

// MessageEmitter writes type-tagged message groups, coalescing consecutive
// writes under the same tag into one group and splitting it automatically
// once maxGroupSize items accumulate. It is not safe for concurrent use.
type MessageEmitter struct {
	dst io.Writer

	bgzfW   *bgzf.Writer
	plainCW *ioutil.CountingWriter

	maxGroupSize int
	pendingTag   string
	pendingItems [][]byte

	listeners []GroupListener
	closed    bool
}

// NewMessageEmitter wraps dst. If compress is true, output is BGZF-framed;
// otherwise it is written as plain, syntactically-compatible bytes with
// ordinary byte-offset virtual offsets.
func NewMessageEmitter(dst io.Writer, compress bool, opts ...EmitterOption) (*MessageEmitter, error) {
	e := &MessageEmitter{maxGroupSize: defaultMaxGroupSize, dst: dst}

	if compress {
		e.bgzfW = bgzf.NewWriter(dst)
		e.bgzfW.StartFile()
	} else {
		e.plainCW = ioutil.NewCountingWriter(dst)
	}

	if err := option.Apply(e, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *MessageEmitter) writer() io.Writer {
	if e.bgzfW != nil {
		return e.bgzfW
	}

	return e.plainCW
}

func (e *MessageEmitter) tell() voffset.VirtualOffset {
	if e.bgzfW != nil {
		return e.bgzfW.Tell()
	}

	return voffset.Pack(e.plainCW.N, 0)
}

// Write emits msg under tag, coalescing with a pending group of the same
// tag or starting a new one. Empty tags are prohibited.
func (e *MessageEmitter) Write(t string, msg []byte) error {
	if err := tag.Validate(t); err != nil {
		return err
	}

	if e.pendingTag != "" && e.pendingTag != t {
		if err := e.EmitGroup(); err != nil {
			return err
		}
	}

	e.pendingTag = t
	e.pendingItems = append(e.pendingItems, msg)

	if len(e.pendingItems) >= e.maxGroupSize {
		return e.EmitGroup()
	}

	return nil
}

// WriteTagOnly ensures a (possibly empty) group is emitted for tag,
// coalescing with any group already pending for it.
func (e *MessageEmitter) WriteTagOnly(t string) error {
	if err := tag.Validate(t); err != nil {
		return err
	}

	if e.pendingTag != "" && e.pendingTag != t {
		if err := e.EmitGroup(); err != nil {
			return err
		}
	}

	e.pendingTag = t

	return nil
}

// OnGroup registers a listener called every time a group is written.
func (e *MessageEmitter) OnGroup(l GroupListener) {
	e.listeners = append(e.listeners, l)
}

// EmitGroup writes out whatever is currently buffered as one group frame.
// A no-op if nothing is pending. The frame is assembled in a pooled scratch
// buffer first and written to the destination in a single call, rather
// than as a header write plus one write per item; that matters most for a
// BGZF destination, where every write that crosses into a new block incurs
// a compression pass.
func (e *MessageEmitter) EmitGroup() error {
	if e.pendingTag == "" {
		return nil
	}

	start := e.tell()

	buf := bufpool.Get()
	defer bufpool.Put(buf)

	if err := wire.WriteGroupHeader(buf, uint64(len(e.pendingItems)+1)); err != nil {
		return err
	}

	if err := wire.WriteTag(buf, e.pendingTag); err != nil {
		return err
	}

	for _, item := range e.pendingItems {
		if err := wire.WriteItem(buf, item); err != nil {
			return err
		}
	}

	if _, err := e.writer().Write(buf.Bytes()); err != nil {
		return err
	}

	end := e.tell()
	t := e.pendingTag

	e.pendingTag = ""
	e.pendingItems = e.pendingItems[:0]

	for _, l := range e.listeners {
		l(t, start, end)
	}

	return nil
}

// Flush emits the pending group, if any, and flushes the backing BGZF
// writer's current block (or, for a plain destination that is a
// *bufio.Writer, flushes that; other plain destinations are not flushed).
func (e *MessageEmitter) Flush() error {
	if err := e.EmitGroup(); err != nil {
		return err
	}

	if e.bgzfW != nil {
		return e.bgzfW.Flush()
	}

	if f, ok := e.dst.(*bufio.Writer); ok {
		return f.Flush()
	}

	return nil
}

// Close flushes the pending group and, for a BGZF destination, appends the
// EOF marker. Close must be called exactly once, after the last Write.
func (e *MessageEmitter) Close() error {
	if e.closed {
		return nil
	}

	e.closed = true

	if err := e.EmitGroup(); err != nil {
		return err
	}

	if e.bgzfW != nil {
		return e.bgzfW.EndFile()
	}

	return nil
}
