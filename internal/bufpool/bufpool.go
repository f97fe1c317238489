// Package bufpool provides a pooled growable byte buffer used by
// stream.MessageEmitter to assemble a group frame before handing it to the
// destination writer in one call, rather than reallocating scratch space
// for every group flushed.
package bufpool

import "sync"

// DefaultSize is the default capacity of a Buffer obtained from the pool.
// Sized for a handful of typical group headers plus a few small payloads.
const DefaultSize = 4 * 1024

// MaxThreshold is the buffer capacity above which Put discards rather than
// recycles, to avoid a single oversized group from bloating the pool.
const MaxThreshold = 1024 * 1024

// Buffer is a growable byte slice wrapper, pooled to amortize allocation
// across repeated group encodes.
type Buffer struct {
	B []byte
}

// New creates a Buffer with the given starting capacity.
func New(size int) *Buffer {
	return &Buffer{B: make([]byte, 0, size)}
}

// Bytes returns the buffer's contents.
func (b *Buffer) Bytes() []byte {
	return b.B
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int {
	return len(b.B)
}

// Reset empties the buffer while retaining its backing array.
func (b *Buffer) Reset() {
	b.B = b.B[:0]
}

// Write appends data to the buffer, growing it as needed. Implements io.Writer.
func (b *Buffer) Write(data []byte) (int, error) {
	b.B = append(b.B, data...)
	return len(data), nil
}

// WriteByte appends a single byte. Implements io.ByteWriter.
func (b *Buffer) WriteByte(c byte) error {
	b.B = append(b.B, c)
	return nil
}

// Pool is a sync.Pool of Buffers, bounded so oversized buffers aren't retained.
type Pool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewPool creates a Pool whose buffers start at defaultSize and are discarded
// on Put once they exceed maxThreshold.
func NewPool(defaultSize, maxThreshold int) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any { return New(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a Buffer from the pool, creating one if the pool is empty.
func (p *Pool) Get() *Buffer {
	buf, _ := p.pool.Get().(*Buffer)
	return buf
}

// Put returns a Buffer to the pool for reuse, discarding it if it grew past
// the pool's maxThreshold.
func (p *Pool) Put(buf *Buffer) {
	if buf == nil {
		return
	}

	if p.maxThreshold > 0 && cap(buf.B) > p.maxThreshold {
		return
	}

	buf.Reset()
	p.pool.Put(buf)
}

var defaultPool = NewPool(DefaultSize, MaxThreshold)

// Get retrieves a Buffer from the shared default pool.
func Get() *Buffer { return defaultPool.Get() }

// Put returns a Buffer to the shared default pool.
func Put(buf *Buffer) { defaultPool.Put(buf) }
