// Package wire implements the pure byte-level framing of the container
// format: protobuf-style unsigned varints, and the group frame built from
// them (item count, tag, length-prefixed items). It has no awareness of
// payload contents, tag validity, or BGZF; see packages tag, bgzf, and
// stream for those layers.
package wire
