package pareach

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vgio/vgio/internal/option"
	"github.com/vgio/vgio/stream"
	"github.com/vgio/vgio/vgioerrs"
)

// DefaultBatchSize is the batch size used when WithBatchSize is not given.
const DefaultBatchSize = 256

// initialMaxOutstanding is the starting size of the in-flight batch budget;
// maxMaxOutstanding is the ceiling it's allowed to grow to as the budget
// keeps draining faster than it fills.
const (
	initialMaxOutstanding = 256
	maxMaxOutstanding     = 1 << 13
)

// PairFunc processes two same-tagged messages pulled from the stream, in
// relative order. It may be called concurrently from multiple goroutines,
// once per dispatched pair.
type PairFunc func(a, b []byte) error

// SingleFunc processes one message. It backs ForEach's per-item callback and
// the odd-trailing-element callback of ForEachPaired.
type SingleFunc func(a []byte) error

type config struct {
	batchSize int
	runInline func() bool
	progress  func(blockOffset int64)
}

// Option configures ForEachPaired, ForEachInterleavedPair, and ForEach. See
// WithBatchSize, WithRunInline, and WithProgress.
type Option = option.Option[*config]

// WithBatchSize overrides DefaultBatchSize. n must be even; ForEachPaired
// rejects an odd one.
func WithBatchSize(n int) Option {
	return option.NoError[*config](func(c *config) { c.batchSize = n })
}

// WithRunInline lets the caller force every batch to run on the calling
// goroutine rather than being dispatched, until fn returns true. Passing a
// func that always returns false keeps the whole run single-threaded; this
// is useful for callers driving their own outer parallelism (for example
// one pareach run per thread of an already-sharded input) who would
// otherwise oversubscribe.
func WithRunInline(fn func() bool) Option {
	return option.NoError[*config](func(c *config) { c.runInline = fn })
}

// WithProgress registers a callback invoked after each batch is enqueued,
// given the compressed byte offset of the group most recently read. There
// is no stream-length counterpart here (unlike the underlying container
// format's C++ progress callbacks): callers that know the total size of
// their input can compute a fraction themselves.
func WithProgress(fn func(blockOffset int64)) Option {
	return option.NoError[*config](func(c *config) { c.progress = fn })
}

// ForEachPaired reads expectedTag-tagged messages from it, groups them into
// batches, and dispatches each batch's messages to pair two at a time,
// possibly from a worker goroutine. A single trailing message left over
// when the stream runs out (or a batch closes) short of a full pair goes to
// odd instead.
//
// The very first message read must carry expectedTag, or ForEachPaired
// fails immediately with vgioerrs.ErrUnexpectedTag: this is the caller's
// signal that it pointed the engine at the wrong stream. Once that check
// passes, later messages under a different tag are silently skipped, for
// streams that interleave more than one kind of tagged content.
//
// If pair or odd returns an error, that error is recorded and ForEachPaired
// returns it once every batch already dispatched has finished; batches not
// yet read off the stream are never started.
func ForEachPaired(it *stream.MessageIterator, expectedTag string, pair PairFunc, odd SingleFunc, opts ...Option) error {
	cfg := &config{batchSize: DefaultBatchSize}
	if err := option.Apply(cfg, opts...); err != nil {
		return err
	}

	if cfg.batchSize <= 0 || cfg.batchSize%2 != 0 {
		return fmt.Errorf("%w: batch size must be a positive even number, got %d", vgioerrs.ErrInvalidArgument, cfg.batchSize)
	}

	return run(it, expectedTag, pair, odd, cfg)
}

// ForEachInterleavedPair is ForEachPaired for streams that are expected to
// hold an exact whole number of pairs: an odd trailing message fails the
// whole run with vgioerrs.ErrOddPairCount instead of being handed to a
// caller-supplied fallback.
func ForEachInterleavedPair(it *stream.MessageIterator, expectedTag string, pair PairFunc, opts ...Option) error {
	odd := func([]byte) error {
		return fmt.Errorf("%w: %w", vgioerrs.ErrInvalidArgument, vgioerrs.ErrOddPairCount)
	}
	return ForEachPaired(it, expectedTag, pair, odd, opts...)
}

// ForEach runs fn over every expectedTag-tagged message individually,
// internally batched and dispatched the same way ForEachPaired is.
func ForEach(it *stream.MessageIterator, expectedTag string, fn SingleFunc, opts ...Option) error {
	pair := func(a, b []byte) error {
		if err := fn(a); err != nil {
			return err
		}
		return fn(b)
	}

	return ForEachPaired(it, expectedTag, pair, fn, opts...)
}

// state tracks the shared dispatch budget and the first error seen across
// every goroutine a run spawns.
type state struct {
	wg sync.WaitGroup

	outstanding    int64
	maxOutstanding int64

	mu  sync.Mutex
	err error
}

func (s *state) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err == nil {
		s.err = err
	}
}

func (s *state) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err != nil
}

func (s *state) result() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func run(it *stream.MessageIterator, expectedTag string, pair PairFunc, odd SingleFunc, cfg *config) error {
	st := &state{maxOutstanding: initialMaxOutstanding}

	runBatch := func(batch [][]byte) {
		defer st.wg.Done()

		n := len(batch)
		for i := 0; i+1 < n; i += 2 {
			if err := pair(batch[i], batch[i+1]); err != nil {
				st.fail(err)
				return
			}
		}

		if n%2 == 1 {
			if err := odd(batch[n-1]); err != nil {
				st.fail(err)
			}
		}
	}

	dispatch := func(batch [][]byte) {
		st.wg.Add(1)

		runInline := cfg.runInline != nil && !cfg.runInline()
		outstanding := atomic.AddInt64(&st.outstanding, 1)
		budget := atomic.LoadInt64(&st.maxOutstanding)

		if outstanding >= budget || runInline {
			runBatch(batch)
			left := atomic.AddInt64(&st.outstanding, -1)

			// We drained more than a quarter of the budget processing this
			// one batch ourselves: the worker pool isn't keeping up with
			// production, so grow the budget to let more run concurrently.
			if !runInline && 4*left/3 < budget && budget < maxMaxOutstanding {
				atomic.CompareAndSwapInt64(&st.maxOutstanding, budget, budget*2)
			}

			return
		}

		go func() {
			runBatch(batch)
			atomic.AddInt64(&st.outstanding, -1)
		}()
	}

	var (
		batch        [][]byte
		firstMessage = true
	)

	for !st.failed() {
		msg, ok, err := it.Next()
		if err != nil {
			st.fail(err)
			break
		}

		if !ok {
			break
		}

		if msg.Tag != expectedTag {
			if firstMessage {
				st.fail(fmt.Errorf("%w: expected tag %q, found first message tagged %q", vgioerrs.ErrUnexpectedTag, expectedTag, msg.Tag))
				break
			}

			continue
		}

		firstMessage = false

		if msg.Data == nil {
			continue
		}

		batch = append(batch, msg.Data)

		if len(batch) == cfg.batchSize {
			dispatch(batch)
			batch = nil

			if cfg.progress != nil {
				cfg.progress(it.TellGroup().Compressed())
			}
		}
	}

	if len(batch) > 0 && !st.failed() {
		dispatch(batch)
	}

	st.wg.Wait()

	return st.result()
}
