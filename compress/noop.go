package compress

// NoOpCompressor passes an extracted payload dump through unmodified. It
// backs CreateCodec's CompressionNone branch, and doubles as a baseline
// when comparing recompress's timing output against a real codec.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a no-op compressor.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data unchanged, sharing its backing array; callers must
// not mutate data afterward if they still hold the returned slice.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress mirrors Compress.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
