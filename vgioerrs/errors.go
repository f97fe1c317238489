// Package vgioerrs collects the sentinel error values returned across vgio's
// packages. Call sites wrap these with fmt.Errorf("%w: ...", ...) to add
// context; callers compare with errors.Is against the sentinel.
package vgioerrs

import "errors"

// Container framing errors.
var (
	// ErrTruncatedContainer is returned when a seekable BGZF-framed input
	// lacks the trailing EOF sentinel block.
	ErrTruncatedContainer = errors.New("vgio: truncated container, missing BGZF EOF marker")

	// ErrMalformedFrame is returned for varint parse failures, oversized
	// items/tags, or a zero group count.
	ErrMalformedFrame = errors.New("vgio: malformed frame")

	// ErrUnexpectedTag is returned by the parallel for-each engine when the
	// very first group's tag does not match the expected schema type.
	ErrUnexpectedTag = errors.New("vgio: unexpected tag")

	// ErrUnknownType is returned when a loader hands back a value that is
	// not of the requested type, and (together with ErrNoSaver) when Save
	// finds no saver for a type. A load that no registered loader or bare
	// sniffer accepts is reported as ok == false with a nil error instead.
	ErrUnknownType = errors.New("vgio: unknown type")

	// ErrIOFailure wraps an underlying byte stream error (read, write, seek).
	ErrIOFailure = errors.New("vgio: io failure")

	// ErrInvalidArgument covers caller misuse: empty tag at save time, an
	// odd-length paired stream, concurrent misuse of single-owner streams.
	ErrInvalidArgument = errors.New("vgio: invalid argument")
)

// Finer-grained errors, each wrapping one of the categories above via
// errors.Is chains at the call site.
var (
	// ErrTagTooLong is an InvalidArgument: tag exceeds tag.MaxLength. See
	// tag.Validate, which registry.RegisterLoader/RegisterSaver and
	// stream.MessageEmitter.Write/WriteTagOnly all call on a caller-supplied
	// tag before doing anything else with it.
	ErrTagTooLong = errors.New("vgio: tag too long")

	// ErrMessageTooLarge is a MalformedFrame: item exceeds wire.MaxMessageSize.
	ErrMessageTooLarge = errors.New("vgio: message too large")

	// ErrEmptyTag is an InvalidArgument: the empty tag is reserved (it
	// denotes a legacy, untagged payload on read) and cannot be used to
	// save data. See tag.Validate.
	ErrEmptyTag = errors.New("vgio: empty tag is reserved")

	// ErrOddPairCount is an InvalidArgument: a paired-interleaved stream had
	// an odd number of elements.
	ErrOddPairCount = errors.New("vgio: unpaired last element in interleaved stream")

	// ErrZeroGroupCount is a MalformedFrame: a group header's item count was
	// zero, which is never legal (a tag always occupies the first slot).
	ErrZeroGroupCount = errors.New("vgio: group count must be at least 1")

	// ErrNoSaver is returned when Registry has no saver bound for a type.
	ErrNoSaver = errors.New("vgio: no saver registered for type")

	// ErrSeekUnsupported is returned by Seek on an untellable stream.
	ErrSeekUnsupported = errors.New("vgio: seek unsupported on this stream")

	// ErrOutstandingBuffer names the condition of seeking while a consumer
	// still holds a buffer handed out by Next. No function in this module
	// returns it: bgzf.Reader.Seek does not track outstanding buffers.
	ErrOutstandingBuffer = errors.New("vgio: seek attempted with outstanding buffer")
)
