package vpkg

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"reflect"

	"github.com/vgio/vgio/registry"
	"github.com/vgio/vgio/stream"
	"github.com/vgio/vgio/vgioerrs"
)

// peekWindow is how many bytes are sniffed up front for bare-loader magic
// matching. Generous enough for any realistic magic number, small enough
// that short files still sniff cleanly (Peek simply returns fewer bytes).
const peekWindow = 64

// TryLoadOne attempts to load a T from src: first via a bare loader
// registered for T whose magic or sniff matches, then by reading src as a
// type-tagged container and looking for a loader bound to its first
// group's tag. It does not scan past that first group looking for a later
// tag T happens to match; per-type dispatch across many tags is
// TryLoadFirst's job. ok is false, with a nil error, when nothing matched;
// err is non-nil only on an actual decode failure.
func TryLoadOne[T any](reg *registry.Registry, src io.Reader, filename string) (T, bool, error) {
	var zero T

	typ := reflect.TypeFor[T]()
	br := bufio.NewReaderSize(src, 4096)

	peek, _ := br.Peek(peekWindow)

	if v, ok, err := tryBareOne[T](reg, typ, peek, br, filename); err != nil {
		return zero, false, err
	} else if ok {
		return v, true, nil
	}

	it, err := stream.NewMessageIterator(br, stream.WithTagValidator(reg.HasTag))
	if err != nil {
		return zero, false, err
	}

	return tryEncapsulatedOne[T](reg, typ, newLookahead(it))
}

func tryBareOne[T any](reg *registry.Registry, typ reflect.Type, peek []byte, r io.Reader, filename string) (T, bool, error) {
	var zero T

	for _, c := range reg.FindBareLoaders(peek) {
		if c.Type != typ {
			continue
		}

		v, err := c.Load(r)
		if err != nil {
			continue
		}

		if vv, ok := v.(T); ok {
			return vv, true, nil
		}
	}

	return zero, false, nil
}

func tryEncapsulatedOne[T any](reg *registry.Registry, typ reflect.Type, la *lookahead) (T, bool, error) {
	var zero T

	head, err := la.peek()
	if err != nil {
		return zero, false, err
	}

	if head == nil {
		return zero, false, nil
	}

	currentTag := head.Tag

	loadFn, ok := reg.FindLoader(currentTag, typ)
	if !ok {
		return zero, false, nil
	}

	result, err := loadFn(la.messagesForTag(currentTag))
	if err != nil {
		return zero, false, err
	}

	v, ok := result.(T)
	if !ok {
		return zero, false, fmt.Errorf("%w: loader for tag %q returned %T, not %s", vgioerrs.ErrUnknownType, currentTag, result, typ)
	}

	return v, true, nil
}

// TryLoadOneFile is TryLoadOne against a named file, or standard input when
// filename is "-".
func TryLoadOneFile[T any](reg *registry.Registry, filename string) (T, bool, error) {
	var zero T

	if filename == "" {
		return zero, false, nil
	}

	if filename == "-" {
		return TryLoadOne[T](reg, os.Stdin, "")
	}

	f, err := os.Open(filename)
	if err != nil {
		return zero, false, fmt.Errorf("%w: opening %s: %w", vgioerrs.ErrIOFailure, filename, err)
	}
	defer f.Close()

	return TryLoadOne[T](reg, f, filename)
}

// LoadOne is TryLoadOne but infallible: a decode error, or no loader
// matching, terminates the process via log.Fatalf instead of returning an
// error the caller could recover from. This matches the original's
// load_one<T>, which calls exit(1) after printing a diagnostic in exactly
// those two situations rather than propagating a C++ exception.
func LoadOne[T any](reg *registry.Registry, src io.Reader, filename string) T {
	v, ok, err := TryLoadOne[T](reg, src, filename)
	if err != nil {
		log.Fatalf("vpkg.LoadOne[%s]: %v", reflect.TypeFor[T](), err)
	}

	if !ok {
		log.Fatalf("vpkg.LoadOne[%s]: no loader matched the input", reflect.TypeFor[T]())
	}

	return v
}

// LoadOneFile is LoadOne against a named file, or standard input when
// filename is "-". Also infallible: a missing filename is fatal here too,
// matching the original's exit(1) on an empty filename.
func LoadOneFile[T any](reg *registry.Registry, filename string) T {
	var zero T

	if filename == "" {
		log.Fatalf("vpkg.LoadOneFile[%s]: no file name given", reflect.TypeFor[T]())
		return zero
	}

	v, ok, err := TryLoadOneFile[T](reg, filename)
	if err != nil {
		log.Fatalf("vpkg.LoadOneFile[%s]: %v", reflect.TypeFor[T](), err)
	}

	if !ok {
		log.Fatalf("vpkg.LoadOneFile[%s]: no loader matched %s", reflect.TypeFor[T](), filename)
	}

	return v
}

// TryLoadAll is the fallible core behind LoadAll: it walks every group in
// src, and for each same-tagged run whose tag has a loader bound for T,
// feeds that run's messages to the loader and appends the result. Runs
// whose tag has no loader for T are skipped rather than treated as an
// error; only an actual I/O or decode failure returns one.
func TryLoadAll[T any](reg *registry.Registry, src io.Reader, filename string) ([]T, error) {
	typ := reflect.TypeFor[T]()
	br := bufio.NewReaderSize(src, 4096)

	it, err := stream.NewMessageIterator(br, stream.WithTagValidator(reg.HasTag))
	if err != nil {
		return nil, err
	}

	la := newLookahead(it)

	var out []T
	for {
		head, err := la.peek()
		if err != nil {
			return out, err
		}

		if head == nil {
			return out, nil
		}

		currentTag := head.Tag

		loadFn, ok := reg.FindLoader(currentTag, typ)
		if !ok {
			for range la.messagesForTag(currentTag) {
			}

			continue
		}

		result, err := loadFn(la.messagesForTag(currentTag))
		if err != nil {
			return out, err
		}

		v, ok := result.(T)
		if !ok {
			return out, fmt.Errorf("%w: loader for tag %q returned %T, not %s", vgioerrs.ErrUnknownType, currentTag, result, typ)
		}

		out = append(out, v)
	}
}

// LoadAll is TryLoadAll but infallible, mirroring LoadOne: a decode error,
// or finding no matching run at all, terminates the process via
// log.Fatalf. This is the multi-result counterpart to LoadOne named by
// the original's load_all<T...>, which is infallible for the same reason
// load_one<T> is — there is nothing meaningful for a caller to recover
// with.
func LoadAll[T any](reg *registry.Registry, src io.Reader, filename string) []T {
	vs, err := TryLoadAll[T](reg, src, filename)
	if err != nil {
		log.Fatalf("vpkg.LoadAll[%s]: %v", reflect.TypeFor[T](), err)
	}

	if len(vs) == 0 {
		log.Fatalf("vpkg.LoadAll[%s]: no loader matched any tag in the input", reflect.TypeFor[T]())
	}

	return vs
}

// Candidate names a type to try in TryLoadFirst's priority order.
type Candidate struct {
	Type reflect.Type
}

// TryLoadFirst tries each candidate in order, bare loaders for every
// candidate before encapsulated loaders for any of them, and returns the
// first one that matches. Since Go generics can't express a variable-length
// list of distinct result types the way the original's variadic template
// does, the result comes back type-erased; use candidate.Type to dispatch a
// type switch or type assertion at the call site.
func TryLoadFirst(reg *registry.Registry, src io.Reader, filename string, candidates []Candidate) (reflect.Type, any, bool, error) {
	br := bufio.NewReaderSize(src, 4096)
	peek, _ := br.Peek(peekWindow)

	for _, cand := range candidates {
		for _, c := range reg.FindBareLoaders(peek) {
			if c.Type != cand.Type {
				continue
			}

			v, err := c.Load(br)
			if err == nil {
				return cand.Type, v, true, nil
			}
		}
	}

	it, err := stream.NewMessageIterator(br, stream.WithTagValidator(reg.HasTag))
	if err != nil {
		return nil, nil, false, err
	}

	la := newLookahead(it)

	head, err := la.peek()
	if err != nil {
		return nil, nil, false, err
	}

	if head == nil {
		return nil, nil, false, nil
	}

	currentTag := head.Tag

	for _, cand := range candidates {
		loadFn, ok := reg.FindLoader(currentTag, cand.Type)
		if !ok {
			continue
		}

		result, err := loadFn(la.messagesForTag(currentTag))
		if err != nil {
			return nil, nil, false, err
		}

		return cand.Type, result, true, nil
	}

	return nil, nil, false, nil
}
