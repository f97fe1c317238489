package vpkg

import "github.com/vgio/vgio/stream"

// lookahead buffers a single message of peeked-ahead lookahead on top of a
// MessageIterator, so callers can inspect the next message's tag before
// deciding whether to consume it. The iterator itself has no peek of its
// own: once Next returns a message, it's gone.
type lookahead struct {
	it  *stream.MessageIterator
	buf *stream.TaggedMessage
	eof bool
	err error
}

func newLookahead(it *stream.MessageIterator) *lookahead {
	return &lookahead{it: it}
}

// peek returns the next message without consuming it, or nil at EOF.
func (l *lookahead) peek() (*stream.TaggedMessage, error) {
	if l.err != nil {
		return nil, l.err
	}

	if l.buf == nil && !l.eof {
		msg, ok, err := l.it.Next()
		if err != nil {
			l.err = err
			return nil, err
		}

		if !ok {
			l.eof = true
			return nil, nil
		}

		l.buf = &msg
	}

	return l.buf, nil
}

// take returns and consumes the next message.
func (l *lookahead) take() (*stream.TaggedMessage, error) {
	msg, err := l.peek()
	if err != nil || msg == nil {
		return nil, err
	}

	l.buf = nil

	return msg, nil
}

// messagesForTag returns a lazy sequence over every message in the current
// same-tagged run, stopping (without consuming) as soon as the tag changes
// or the stream ends. Tag-only messages (nil Data) are skipped, matching
// the original's "if the message pointer isn't null" guard.
func (l *lookahead) messagesForTag(t string) func(yield func([]byte) bool) {
	return func(yield func([]byte) bool) {
		for {
			head, err := l.peek()
			if err != nil || head == nil || head.Tag != t {
				return
			}

			msg, err := l.take()
			if err != nil || msg == nil {
				return
			}

			if msg.Data != nil {
				if !yield(msg.Data) {
					return
				}
			}
		}
	}
}
