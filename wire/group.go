package wire

import (
	"fmt"
	"io"

	"github.com/vgio/vgio/vgioerrs"
)

// MaxMessageSize is the largest a single item (a tag or a payload) is
// allowed to be. Enforced on both read and write; violating it is a fatal
// decode error naming the offending virtual offset at the caller.
const MaxMessageSize = 1_000_000_000

// WriteGroupHeader writes a group's item count. n is (item_count + 1): the
// tag occupies slot 0, so n is always at least 1.
func WriteGroupHeader(w io.Writer, n uint64) error {
	if n < 1 {
		return fmt.Errorf("%w: %w: group count %d", vgioerrs.ErrMalformedFrame, vgioerrs.ErrZeroGroupCount, n)
	}

	return WriteUvarint(w, n)
}

// ReadGroupHeader reads a group's item count (tag included). Returns io.EOF
// unchanged when the stream has no more groups so callers can distinguish
// clean end-of-container from corruption.
func ReadGroupHeader(r ByteReader) (uint64, error) {
	n, err := ReadUvarint(r)
	if err != nil {
		return 0, err
	}

	if n < 1 {
		return 0, fmt.Errorf("%w: %w: group count %d", vgioerrs.ErrMalformedFrame, vgioerrs.ErrZeroGroupCount, n)
	}

	return n, nil
}

// WriteTag writes a group's tag as a length-prefixed byte string. It does
// not validate the tag; callers (package stream) decide what counts as a
// legal tag for writing.
func WriteTag(w io.Writer, t string) error {
	return writeSizedBytes(w, []byte(t))
}

// ReadTag reads a length-prefixed byte string that may be a group's tag or,
// for legacy files, the first message's payload. It enforces only the wire
// ceiling (MaxMessageSize); tag-vs-payload disambiguation happens in package
// stream, which is why this accepts lengths up to MaxMessageSize rather than
// tag.MaxLength.
func ReadTag(r ByteReader) (string, error) {
	data, err := readSizedBytes(r)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// WriteItem writes a single message payload with its length prefix.
// Returns ErrMessageTooLarge if item exceeds MaxMessageSize.
func WriteItem(w io.Writer, item []byte) error {
	if len(item) > MaxMessageSize {
		return fmt.Errorf("%w: %w: %d bytes", vgioerrs.ErrMalformedFrame, vgioerrs.ErrMessageTooLarge, len(item))
	}

	return writeSizedBytes(w, item)
}

// ReadItem reads a single length-prefixed message payload.
func ReadItem(r ByteReader) ([]byte, error) {
	return readSizedBytes(r)
}

func writeSizedBytes(w io.Writer, data []byte) error {
	if err := WriteUvarint(w, uint64(len(data))); err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: writing item bytes: %w", vgioerrs.ErrIOFailure, err)
	}

	return nil
}

func readSizedBytes(r ByteReader) ([]byte, error) {
	size, err := ReadUvarint(r)
	if err != nil {
		return nil, err
	}

	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: %w: %d bytes", vgioerrs.ErrMalformedFrame, vgioerrs.ErrMessageTooLarge, size)
	}

	if size == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: reading %d item bytes: %w", vgioerrs.ErrIOFailure, size, err)
	}

	return buf, nil
}
