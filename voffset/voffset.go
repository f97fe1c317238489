package voffset

// VirtualOffset packs a compressed block start offset and an offset within
// that block's decompressed contents: (coffset << 16) | uoffset. It is
// monotonic non-decreasing as reading progresses and is stable only within
// the file it came from.
type VirtualOffset int64

// Untellable is the sentinel VirtualOffset returned by streams that cannot
// report or accept a position, such as standard input.
const Untellable VirtualOffset = -1

// uoffsetBits is the number of low bits reserved for the within-block offset.
const uoffsetBits = 16

// uoffsetMask isolates the within-block offset bits.
const uoffsetMask = (int64(1) << uoffsetBits) - 1

// Pack builds a VirtualOffset from a compressed block start offset and an
// offset within that block's decompressed contents. uoffset must fit in 16
// bits; callers responsible for block-size invariants (BGZF blocks never
// decompress past 64KiB) never overflow it.
func Pack(coffset int64, uoffset uint16) VirtualOffset {
	return VirtualOffset((coffset << uoffsetBits) | int64(uoffset))
}

// Compressed returns the start offset, in the underlying byte stream, of the
// BGZF block this virtual offset points into.
func (v VirtualOffset) Compressed() int64 {
	return int64(v) >> uoffsetBits
}

// Uncompressed returns the byte offset within the block's decompressed
// contents that this virtual offset points to.
func (v VirtualOffset) Uncompressed() uint16 {
	return uint16(int64(v) & uoffsetMask)
}

// Valid reports whether v is a real, tellable offset rather than Untellable.
func (v VirtualOffset) Valid() bool {
	return v != Untellable
}

// Less reports whether v sorts before other. Virtual offsets from the same
// file are totally ordered by block start, then by within-block offset.
func (v VirtualOffset) Less(other VirtualOffset) bool {
	return v < other
}
