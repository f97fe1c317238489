//go:build cgo

package compress

import (
	"github.com/valyala/gozstd"
)

// Compress encodes data at level 3 via the cgo-backed gozstd binding,
// generally faster than the pure-Go path in zstd_pure.go at the cost of a
// cgo dependency.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress reverses Compress.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
