// Package compress provides standalone compression codecs for payloads
// already extracted from a container, independent of the container's own
// BGZF block framing.
//
// vgiocat's recompress command uses this package to re-pack a bare payload
// dump (written by extract) under an alternate general-purpose codec, for
// comparing space/speed tradeoffs outside the BGZF pipeline:
//
//   - None: no compression, useful as a baseline
//   - Zstd: best ratio, moderate speed (github.com/valyala/gozstd under
//     cgo, github.com/klauspost/compress/zstd otherwise)
//   - S2: balanced ratio and speed (github.com/klauspost/compress/s2)
//   - LZ4: fastest decompression (github.com/pierrec/lz4/v4)
//
// Each algorithm implements Codec, and CreateCodec/GetCodec select one by
// format.CompressionType.
package compress
