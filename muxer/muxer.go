package muxer

import (
	"bytes"
	"io"
	"runtime"
	"sync"

	"github.com/vgio/vgio/internal/option"
)

// RingBufferSize is the number of slots in each thread's completed-chunk
// ring. One slot is always left empty so head == tail is unambiguously
// "empty" and never collides with "full"; a thread can therefore hold at
// most RingBufferSize-1 handed-off chunks awaiting the writer goroutine.
const RingBufferSize = 10

// DefaultMinItemBytes is how large a thread's pending buffer must grow
// before RegisterBreakpoint actually hands it off; below this, it's left in
// place so the writer goroutine isn't woken for tiny chunks.
const DefaultMinItemBytes = 10 * 64 * 1024

// Option configures a Multiplexer. See WithMinItemBytes.
type Option = option.Option[*Multiplexer]

// WithMinItemBytes overrides DefaultMinItemBytes.
func WithMinItemBytes(n int) Option {
	return option.NoError[*Multiplexer](func(m *Multiplexer) { m.minItemBytes = n })
}

// threadState is one producer's slot: a buffer it writes into directly (no
// locking needed, since only its owning goroutine ever touches it) and a
// fixed-size ring of already-cut chunks waiting for the writer goroutine
// (locking needed, since that goroutine drains it concurrently).
type threadState struct {
	buf        bytes.Buffer
	breakpoint int

	mu   sync.Mutex
	cond *sync.Cond
	ring [RingBufferSize][]byte
	head int
	tail int
}

func (t *threadState) ringEmpty() bool { return t.head == t.tail }
func (t *threadState) ringFull() bool  { return (t.tail+1)%RingBufferSize == t.head }

// Write implements io.Writer against this thread's pending buffer.
func (t *threadState) Write(p []byte) (int, error) {
	return t.buf.Write(p)
}

// Multiplexer interleaves per-thread output into one backing writer. The
// zero value is not usable; construct with New.
type Multiplexer struct {
	backing io.Writer
	threads []*threadState

	minItemBytes int

	notify chan struct{}
	stopCh chan struct{}
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// New starts a Multiplexer backed by dst, with one thread slot per n. The
// background writer goroutine starts immediately; call Close to stop it and
// flush whatever remains queued or buffered.
func New(dst io.Writer, n int, opts ...Option) (*Multiplexer, error) {
	m := &Multiplexer{
		backing:      dst,
		minItemBytes: DefaultMinItemBytes,
		notify:       make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}

	if err := option.Apply(m, opts...); err != nil {
		return nil, err
	}

	m.threads = make([]*threadState, n)
	for i := range m.threads {
		t := &threadState{}
		t.cond = sync.NewCond(&t.mu)
		m.threads[i] = t
	}

	go m.run()

	return m, nil
}

// Writer returns the io.Writer for thread n. It's always the same object for
// a given thread: writing into it is safe without further locking, as long
// as only one goroutine (thread n's own) writes at a time.
func (m *Multiplexer) Writer(n int) io.Writer {
	return m.threads[n]
}

// WantBreakpoint reports whether thread n has accumulated enough pending
// data that it should look for a legal cut point and call RegisterBreakpoint
// soon.
func (m *Multiplexer) WantBreakpoint(n int) bool {
	t := m.threads[n]
	return t.buf.Len() >= m.minItemBytes
}

// RegisterBreakpoint marks the current end of thread n's buffer as a legal
// cut point. If enough data has accumulated, it's handed to the writer
// goroutine now; otherwise nothing is shipped yet, but DiscardToBreakpoint
// and DiscardBytes can still roll the buffer back to this point later.
func (m *Multiplexer) RegisterBreakpoint(n int) error {
	t := m.threads[n]
	itemBytes := t.buf.Len()

	if itemBytes < m.minItemBytes {
		t.breakpoint = itemBytes
		return m.Err()
	}

	if err := m.enqueue(t, itemBytes); err != nil {
		return err
	}

	t.breakpoint = 0

	return m.Err()
}

// RegisterBarrier hands off thread n's buffer regardless of size, and does
// not return until everything queued for thread n (including what was just
// handed off) has actually reached the backing writer. Use this when later
// code needs a guarantee that everything written before the barrier is
// already on disk (or at least past this Multiplexer), not just queued.
func (m *Multiplexer) RegisterBarrier(n int) error {
	t := m.threads[n]
	itemBytes := t.buf.Len()

	if err := m.enqueue(t, itemBytes); err != nil {
		return err
	}

	t.breakpoint = 0

	t.mu.Lock()
	for !t.ringEmpty() {
		t.cond.Wait()
	}
	t.mu.Unlock()

	return m.Err()
}

// DiscardToBreakpoint rewinds thread n's buffer to its last registered
// breakpoint, discarding anything written since. It has no effect on data
// already handed off to the writer goroutine.
func (m *Multiplexer) DiscardToBreakpoint(n int) {
	t := m.threads[n]
	if t.buf.Len() > t.breakpoint {
		t.buf.Truncate(t.breakpoint)
	}
}

// DiscardBytes rewinds thread n's buffer by count bytes, clamped so it never
// rewinds past the last registered breakpoint.
func (m *Multiplexer) DiscardBytes(n, count int) {
	t := m.threads[n]

	itemBytes := t.buf.Len()
	if count > itemBytes {
		count = itemBytes
	}

	newLen := itemBytes - count
	if newLen < t.breakpoint {
		newLen = t.breakpoint
	}

	t.buf.Truncate(newLen)
}

// enqueue snapshots the first itemBytes of t's buffer as a chunk and pushes
// it onto t's ring, then resets t's buffer for reuse. Ownership of the
// snapshot passes entirely to the ring; t's buffer is free to be written
// into again the instant this returns.
//
// Pushing holds t's mutex only for the O(1) slot write. When the ring is
// full, the producer unlocks, yields the processor, and retries, rather
// than blocking on a condition variable — the ring is expected to drain
// quickly, and a cooperative yield keeps a slow writer from stalling every
// producer thread at once.
func (m *Multiplexer) enqueue(t *threadState, itemBytes int) error {
	chunk := make([]byte, itemBytes)
	copy(chunk, t.buf.Bytes()[:itemBytes])

	for {
		t.mu.Lock()
		if !t.ringFull() {
			t.ring[t.tail] = chunk
			t.tail = (t.tail + 1) % RingBufferSize
			t.mu.Unlock()
			break
		}
		t.mu.Unlock()
		runtime.Gosched()
	}

	t.buf.Reset()
	m.wake()

	return m.Err()
}

func (m *Multiplexer) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Multiplexer) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.err
}

func (m *Multiplexer) setErr(err error) {
	if err == nil {
		return
	}

	m.mu.Lock()
	if m.err == nil {
		m.err = err
	}
	m.mu.Unlock()
}

// run is the background writer goroutine. Each time it wakes it drains every
// thread's ring in turn, taking one chunk per lock acquisition and writing it
// to the backing sink outside the lock, which keeps any one thread's mutex
// from being held across a (potentially slow) I/O call. Between passes it
// blocks until enqueue signals new data or Close stops it. On stop it drains
// every ring and finally each thread's remaining in-progress buffer.
func (m *Multiplexer) run() {
	defer close(m.done)

	for {
		select {
		case <-m.stopCh:
			for _, t := range m.threads {
				m.drainThread(t)
			}

			for _, t := range m.threads {
				if t.buf.Len() > 0 {
					if _, err := m.backing.Write(t.buf.Bytes()); err != nil {
						m.setErr(err)
					}
				}
			}

			return
		case <-m.notify:
			for _, t := range m.threads {
				m.drainThread(t)
			}
		}
	}
}

func (m *Multiplexer) drainThread(t *threadState) {
	for {
		t.mu.Lock()
		if t.ringEmpty() {
			t.mu.Unlock()
			return
		}

		chunk := t.ring[t.head]
		t.mu.Unlock()

		if _, err := m.backing.Write(chunk); err != nil {
			m.setErr(err)
		}

		t.mu.Lock()
		t.ring[t.head] = nil
		t.head = (t.head + 1) % RingBufferSize
		t.cond.Broadcast()
		t.mu.Unlock()
	}
}

// Close stops the writer goroutine after it has flushed every thread's
// ring and any unshipped partial buffer, then flushes the backing writer
// if it implements interface{ Flush() error }. It returns the first error
// observed writing to the backing writer, if any. All threads must be done
// writing before Close is called.
func (m *Multiplexer) Close() error {
	close(m.stopCh)
	<-m.done

	if f, ok := m.backing.(interface{ Flush() error }); ok {
		m.setErr(f.Flush())
	}

	return m.Err()
}
