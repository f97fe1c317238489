package registry

import (
	"fmt"
	"io"
	"iter"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"github.com/vgio/vgio/internal/hash"
	"github.com/vgio/vgio/tag"
	"github.com/vgio/vgio/vgioerrs"
)

// LoadFunc decodes a value of some registered type from a run of messages
// sharing one tag. Consuming the sequence only as far as needed (and no
// further) is the loader's responsibility; package vpkg stops feeding it
// once the underlying group's tag changes.
type LoadFunc func(msgs iter.Seq[[]byte]) (any, error)

// SaveFunc encodes v, which is guaranteed to be the type the func was
// registered against, emitting zero or more messages via emit.
type SaveFunc func(v any, emit func([]byte) error) error

// SniffFunc reports whether peek (the first bytes of a bare, untagged
// stream) looks like this loader's format.
type SniffFunc func(peek []byte) bool

type loaderEntry struct {
	typ  reflect.Type
	tag  string
	load LoadFunc
	id   uuid.UUID
}

type saverEntry struct {
	tag  string
	save SaveFunc
	id   uuid.UUID
}

// BareLoadFunc decodes a value of some registered type directly from a raw
// stream, with no group framing at all (a foreign format this process
// still wants to read, or a pre-tagging legacy file).
type BareLoadFunc func(r io.Reader) (any, error)

// BareLoader is a loader tried against magic-byte sniffing rather than a
// tag, for files produced outside this library (e.g. a bare protobuf
// stream or a foreign format this process still wants to read).
type BareLoader struct {
	Type  reflect.Type
	Magic [][]byte
	Sniff SniffFunc
	Load  BareLoadFunc
	id    uuid.UUID
}

func (b BareLoader) matches(peek []byte) bool {
	for _, m := range b.Magic {
		if len(peek) >= len(m) && string(peek[:len(m)]) == string(m) {
			return true
		}
	}

	if b.Sniff != nil {
		return b.Sniff(peek)
	}

	return false
}

// Registry is the tag<->type binding table. The zero value is not usable;
// construct with New. A Registry is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// loadersByTagHash groups loaders by an xxhash of their tag, with the
	// literal tag kept alongside each entry to resolve hash collisions
	// (extremely unlikely for tag.MaxLength-bounded strings, but correctness
	// shouldn't depend on their absence).
	loadersByTagHash map[uint64][]loaderEntry
	saversByType     map[reflect.Type]saverEntry
	bareLoaders      []BareLoader
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		loadersByTagHash: make(map[uint64][]loaderEntry),
		saversByType:     make(map[reflect.Type]saverEntry),
	}
}

func tagHash(t string) uint64 {
	return hash.ID(t)
}

// RegisterLoader binds tag to typ: messages carrying tag can be decoded
// into typ by load. Returns a registration handle that identifies this
// specific binding, and ErrInvalidArgument if tag is not a legal tag or
// this exact (tag, typ) pair is already registered.
func (r *Registry) RegisterLoader(t string, typ reflect.Type, load LoadFunc) (uuid.UUID, error) {
	if err := tag.Validate(t); err != nil {
		return uuid.Nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h := tagHash(t)
	for _, e := range r.loadersByTagHash[h] {
		if e.tag == t && e.typ == typ {
			return uuid.Nil, fmt.Errorf("%w: tag %q already bound to %s", vgioerrs.ErrInvalidArgument, t, typ)
		}
	}

	id := uuid.New()
	r.loadersByTagHash[h] = append(r.loadersByTagHash[h], loaderEntry{typ: typ, tag: t, load: load, id: id})

	return id, nil
}

// RegisterSaver binds typ to tag for writing. A type's save tag is
// injective: once typ has one, a later call with a different tag for the
// same typ fails with ErrInvalidArgument rather than silently rebinding it.
func (r *Registry) RegisterSaver(typ reflect.Type, t string, save SaveFunc) (uuid.UUID, error) {
	if err := tag.Validate(t); err != nil {
		return uuid.Nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.saversByType[typ]; ok {
		if existing.tag != t {
			return uuid.Nil, fmt.Errorf("%w: %s already saves under tag %q, cannot rebind to %q",
				vgioerrs.ErrInvalidArgument, typ, existing.tag, t)
		}

		return existing.id, nil
	}

	id := uuid.New()
	r.saversByType[typ] = saverEntry{tag: t, save: save, id: id}

	return id, nil
}

// RegisterBareLoader registers a loader tried against untagged streams
// using a caller-supplied sniff function.
func (r *Registry) RegisterBareLoader(typ reflect.Type, sniff SniffFunc, load BareLoadFunc) uuid.UUID {
	return r.registerBare(BareLoader{Type: typ, Sniff: sniff, Load: load})
}

// RegisterBareWithMagics registers a loader tried against untagged streams
// whose content starts with one of magics.
func (r *Registry) RegisterBareWithMagics(typ reflect.Type, load BareLoadFunc, magics ...[]byte) uuid.UUID {
	return r.registerBare(BareLoader{Type: typ, Magic: magics, Load: load})
}

func (r *Registry) registerBare(b BareLoader) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	b.id = uuid.New()
	r.bareLoaders = append(r.bareLoaders, b)

	return b.id
}

// FindLoader returns the loader registered for (t, typ), if any.
func (r *Registry) FindLoader(t string, typ reflect.Type) (LoadFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.loadersByTagHash[tagHash(t)] {
		if e.tag == t && e.typ == typ {
			return e.load, true
		}
	}

	return nil, false
}

// LoadersForTag returns every type registered against t, in registration
// order, for callers that want to know what's possible before picking one.
func (r *Registry) LoadersForTag(t string) []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []reflect.Type
	for _, e := range r.loadersByTagHash[tagHash(t)] {
		if e.tag == t {
			out = append(out, e.typ)
		}
	}

	return out
}

// FindSaver returns the tag and encoder registered for typ, if any.
func (r *Registry) FindSaver(typ reflect.Type) (string, SaveFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.saversByType[typ]
	if !ok {
		return "", nil, false
	}

	return e.tag, e.save, true
}

// FindBareLoaders returns every bare loader whose sniff matches peek, in
// registration order. Callers trying loaders in priority order (package
// vpkg's TryLoadFirst) should stop at the first one that parses
// successfully rather than assuming the first match is always correct;
// first-registered-wins only disambiguates which loader is offered first
// when more than one's magic matches.
func (r *Registry) FindBareLoaders(peek []byte) []BareLoader {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []BareLoader
	for _, b := range r.bareLoaders {
		if b.matches(peek) {
			out = append(out, b)
		}
	}

	return out
}

// IsValidTag reports whether t could legally be registered or written as a
// tag (as opposed to wire.ReadTag's length, which also accepts legacy
// untagged-payload lengths).
func IsValidTag(t string) bool {
	return tag.ValidLength(t)
}

// HasTag reports whether t is literally registered in r, as either a
// loader's or a saver's tag. This is the registry-backed half of
// stream.WithTagValidator: a tag read off the wire is only trustworthy once
// something in the process has actually bound a type to it, not merely
// because it happens to be short enough to be one.
func (r *Registry) HasTag(t string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.loadersByTagHash[tagHash(t)] {
		if e.tag == t {
			return true
		}
	}

	for _, e := range r.saversByType {
		if e.tag == t {
			return true
		}
	}

	return false
}
