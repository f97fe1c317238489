// Package vgio provides a self-framing binary container format for mixed
// streams of type-tagged messages, along with the pieces needed to read and
// write it efficiently.
//
// # Core features
//
//   - BGZF framing: ordinary gzip-compatible tools can decompress a vgio
//     file, while readers that understand the block structure can seek to
//     any group via a virtual offset and decompress blocks independently.
//   - Type-tagged message groups: runs of same-tagged messages, so a stream
//     can carry more than one kind of record without external framing.
//   - A polymorphic loader/saver registry (package registry) binding
//     arbitrary Go types to tags, so callers round-trip values without the
//     stream format knowing what they are.
//   - A type-directed front end (package vpkg) that sniffs a file and picks
//     the right loader for the type the caller asked for.
//   - A batched, goroutine-dispatched for-each engine (package pareach) for
//     processing a tagged run of messages without reading the whole stream
//     into memory first.
//   - A writer-side multiplexer (package muxer) for interleaving several
//     goroutines' output into one container without interrupting either
//     side's framing.
//
// # Basic usage
//
// Registering a type and round-tripping a value through the default
// registry:
//
//	type Reading struct { Celsius float64 }
//
//	vgio.RegisterLoader[Reading]("TMP", func(msgs iter.Seq[[]byte]) (any, error) {
//	    var r Reading
//	    for m := range msgs {
//	        r.Celsius, _ = strconv.ParseFloat(string(m), 64)
//	    }
//	    return r, nil
//	})
//	vgio.RegisterSaver[Reading]("TMP", func(v any, emit func([]byte) error) error {
//	    r := v.(Reading)
//	    return emit([]byte(strconv.FormatFloat(r.Celsius, 'g', -1, 64)))
//	})
//
//	var buf bytes.Buffer
//	vgio.Save(Reading{Celsius: 21.5}, &buf)
//
//	got := vgio.Load[Reading](bytes.NewReader(buf.Bytes()), "")
//
// For anything beyond the common single-type load/save path, use packages
// stream, registry, vpkg, pareach, and muxer directly; this package is a
// thin convenience layer over them, not a replacement.
package vgio

import (
	"io"
	"reflect"

	"github.com/vgio/vgio/registry"
	"github.com/vgio/vgio/stream"
	"github.com/vgio/vgio/vpkg"
)

// DefaultRegistry is the registry the package-level Load/Save/RegisterLoader/
// RegisterSaver functions use. Most programs need only one registry; this
// one exists so they don't have to construct and thread it through
// themselves. Programs that do need more than one registry (for example, to
// keep a plugin's types isolated) should construct their own with
// registry.New and call vpkg's functions directly.
var DefaultRegistry = registry.New()

// RegisterLoader binds tag to T in DefaultRegistry. See registry.RegisterLoader.
func RegisterLoader[T any](tag string, load registry.LoadFunc) error {
	_, err := DefaultRegistry.RegisterLoader(tag, reflect.TypeFor[T](), load)
	return err
}

// RegisterSaver binds T to tag for writing in DefaultRegistry. See
// registry.RegisterSaver.
func RegisterSaver[T any](tag string, save registry.SaveFunc) error {
	_, err := DefaultRegistry.RegisterSaver(reflect.TypeFor[T](), tag, save)
	return err
}

// Save encodes v to dst using DefaultRegistry. See vpkg.Save.
func Save[T any](v T, dst io.Writer, opts ...vpkg.SaveOption) error {
	return vpkg.Save(DefaultRegistry, v, dst, opts...)
}

// SaveFile is Save against a named file, or standard output when filename is
// "-". See vpkg.SaveFile.
func SaveFile[T any](v T, filename string, opts ...vpkg.SaveOption) error {
	return vpkg.SaveFile(DefaultRegistry, v, filename, opts...)
}

// Load decodes a T from src using DefaultRegistry, terminating the process
// via log.Fatalf if nothing matches. See vpkg.LoadOne.
func Load[T any](src io.Reader, filename string) T {
	return vpkg.LoadOne[T](DefaultRegistry, src, filename)
}

// LoadFile is Load against a named file, or standard input when filename is
// "-". See vpkg.LoadOneFile.
func LoadFile[T any](filename string) T {
	return vpkg.LoadOneFile[T](DefaultRegistry, filename)
}

// LoadAll decodes every same-tagged run in src whose tag has a loader for T
// bound in DefaultRegistry, terminating the process via log.Fatalf if none
// match. See vpkg.LoadAll.
func LoadAll[T any](src io.Reader, filename string) []T {
	return vpkg.LoadAll[T](DefaultRegistry, src, filename)
}

// TryLoad is Load but reports a non-match as ok == false, and a decode
// failure as an error, instead of terminating the process. See
// vpkg.TryLoadOne.
func TryLoad[T any](src io.Reader, filename string) (T, bool, error) {
	return vpkg.TryLoadOne[T](DefaultRegistry, src, filename)
}

// NewReader wraps src as a MessageIterator, auto-detecting whether it's
// BGZF-compressed. See stream.NewMessageIterator.
func NewReader(src io.Reader, opts ...stream.IteratorOption) (*stream.MessageIterator, error) {
	return stream.NewMessageIterator(src, opts...)
}

// NewWriter wraps dst as a MessageEmitter. See stream.NewMessageEmitter.
func NewWriter(dst io.Writer, compress bool, opts ...stream.EmitterOption) (*stream.MessageEmitter, error) {
	return stream.NewMessageEmitter(dst, compress, opts...)
}
