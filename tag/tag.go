// Package tag defines the short byte-string identifiers that bind a message
// group to a payload schema/type, and the validity rule shared by the wire
// codec, the registry, and the message iterator's tag-vs-legacy-payload
// sniffing.
package tag

import (
	"fmt"

	"github.com/vgio/vgio/vgioerrs"
)

// MaxLength is the longest a tag is allowed to be. Anything longer risks
// being mistaken for gzip's 0x1F 0x8B magic when decoded as the start of an
// untagged legacy group (see wire.MaxMessageSize and the varint layout in
// package wire).
const MaxLength = 25

// Empty is the reserved tag value. It never appears as a registered tag; in
// stored data it denotes a legacy, untagged payload.
const Empty = ""

// ValidLength reports whether a string of this length could be a legal tag,
// without consulting the registry. A tag must be nonempty and no longer than
// MaxLength.
func ValidLength(s string) bool {
	return len(s) >= 1 && len(s) <= MaxLength
}

// Validate is ValidLength plus a reason: nil if s is a legal tag, otherwise
// an error wrapping both ErrInvalidArgument and whichever finer sentinel
// names why (ErrEmptyTag or ErrTagTooLong), so callers comparing against
// either via errors.Is still match.
func Validate(s string) error {
	switch {
	case len(s) == 0:
		return fmt.Errorf("%w: %w", vgioerrs.ErrInvalidArgument, vgioerrs.ErrEmptyTag)
	case len(s) > MaxLength:
		return fmt.Errorf("%w: %w: %q is %d bytes, longer than %d", vgioerrs.ErrInvalidArgument, vgioerrs.ErrTagTooLong, s, len(s), MaxLength)
	default:
		return nil
	}
}
