package compress

// ZstdCompressor provides Zstandard compression for extracted payload
// dumps, favoring ratio over speed. Its Compress/Decompress methods live in
// zstd_cgo.go (cgo builds, github.com/valyala/gozstd) or zstd_pure.go
// (non-cgo builds, github.com/klauspost/compress/zstd).
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(data)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
