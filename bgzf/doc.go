// Package bgzf implements the BGZF block-gzip framing that backs the
// container format: a gzip-compatible stream split into small independently
// decompressible blocks, each carrying a "BC" extra subfield that records
// its own total size. That per-block size is what makes virtual offsets
// (see package voffset) meaningful: seeking to one is "seek to this block,
// then skip this many decompressed bytes into it".
//
// A compliant BGZF file ends with a fixed 28-byte empty block, the EOF
// marker. Its absence from an otherwise-valid, seekable file is corruption,
// not simply "stream still open".
package bgzf
