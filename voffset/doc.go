// Package voffset defines the virtual offset type used to seek within a
// BGZF-wrapped container: a 64-bit value packing a compressed block start
// offset and a byte offset within that block's decompressed contents.
package voffset
