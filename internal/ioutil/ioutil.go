// Package ioutil holds small io helpers used by package stream: a
// byte-counting wrapper for uncompressed sources and destinations, used to
// give plain (non-BGZF) streams ordinary-byte-offset virtual offsets.
package ioutil

import "io"

// CountingWriter wraps an io.Writer, tracking the total number of bytes
// written through it.
type CountingWriter struct {
	W io.Writer
	N int64
}

// NewCountingWriter wraps w.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{W: w}
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.N += int64(n)

	return n, err
}

// CountingReader wraps a buffered byte source, tracking the total number of
// bytes consumed through it. It implements both io.Reader and io.ByteReader,
// the minimum wire.ByteReader needs.
type CountingReader struct {
	R byteReader
	N int64
}

// byteReader is the subset of *bufio.Reader this package depends on,
// kept narrow so CountingReader can wrap anything that already buffers.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// NewCountingReader wraps r, which must already provide buffered
// byte-at-a-time reads (a *bufio.Reader, typically).
func NewCountingReader(r byteReader) *CountingReader {
	return &CountingReader{R: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	c.N += int64(n)

	return n, err
}

func (c *CountingReader) ReadByte() (byte, error) {
	b, err := c.R.ReadByte()
	if err == nil {
		c.N++
	}

	return b, err
}
