package vpkg

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/vgio/vgio/internal/option"
	"github.com/vgio/vgio/registry"
	"github.com/vgio/vgio/stream"
	"github.com/vgio/vgio/vgioerrs"
)

// saveConfig holds Save's options.
type saveConfig struct {
	compress bool
}

// SaveOption configures Save. See WithCompression.
type SaveOption = option.Option[*saveConfig]

// WithCompression turns on BGZF framing for Save's output. Off by default,
// matching the original library's MessageEmitter default.
func WithCompression(compress bool) SaveOption {
	return option.NoError[*saveConfig](func(c *saveConfig) { c.compress = compress })
}

// Save encodes v to dst using whichever saver is registered for its type.
func Save[T any](reg *registry.Registry, v T, dst io.Writer, opts ...SaveOption) error {
	typ := reflect.TypeFor[T]()

	t, saveFn, ok := reg.FindSaver(typ)
	if !ok {
		return fmt.Errorf("%w: %w: no saver registered for %s", vgioerrs.ErrUnknownType, vgioerrs.ErrNoSaver, typ)
	}

	cfg := &saveConfig{}
	if err := option.Apply(cfg, opts...); err != nil {
		return err
	}

	emitter, err := stream.NewMessageEmitter(dst, cfg.compress)
	if err != nil {
		return err
	}

	// Mark that this tag was used even if the saver emits zero messages.
	if err := emitter.WriteTagOnly(t); err != nil {
		return err
	}

	if err := saveFn(v, func(msg []byte) error {
		return emitter.Write(t, msg)
	}); err != nil {
		return err
	}

	return emitter.Close()
}

// SaveFile is Save against a named file, or standard output when filename
// is "-".
func SaveFile[T any](reg *registry.Registry, v T, filename string, opts ...SaveOption) error {
	if filename == "-" {
		return Save[T](reg, v, os.Stdout, opts...)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", vgioerrs.ErrIOFailure, filename, err)
	}
	defer f.Close()

	return Save[T](reg, v, f, opts...)
}

// WithSaveStream gives use direct access to a single message's contents as
// an io.Writer, tagged t, inside emitter's output. The original library
// achieves this by handing callers a raw ostream backed by the same buffer
// a protobuf CodedOutputStream writes into; Go has no equivalent live
// buffer-swap, so this collects everything use writes and emits it as one
// message once use returns.
func WithSaveStream(emitter *stream.MessageEmitter, t string, use func(w io.Writer) error) error {
	var buf bytes.Buffer

	if err := use(&buf); err != nil {
		return err
	}

	return emitter.Write(t, buf.Bytes())
}
