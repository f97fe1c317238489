package bgzf

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"github.com/vgio/vgio/vgioerrs"
	"github.com/vgio/vgio/voffset"
)

// plainGzip produces an ordinary gzip stream (no BC extra subfield) holding
// payload, for exercising the non-block-framed fallback.
func plainGzip(t *testing.T, payload []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// onlyReader strips any incidental io.Seeker/io.ReaderAt a buffer-backed
// type would otherwise satisfy, so a test can exercise the unseekable path.
type onlyReader struct{ io.Reader }

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	w.StartFile()

	payload := bytes.Repeat([]byte("the quick brown fox "), 10000)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.EndFile())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestMultiBlockRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	w.StartFile()

	// Force several block flushes.
	payload := bytes.Repeat([]byte{0x7a}, maxUncompressedChunk*3+17)
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.EndFile())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestTruncatedContainerDetected(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	w.StartFile()
	_, err := w.Write([]byte("no eof marker here"))
	require.NoError(t, err)
	require.NoError(t, w.Close()) // deliberately skip EndFile

	_, err = NewReader(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, vgioerrs.ErrTruncatedContainer)
}

func TestVirtualOffsetSeek(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter(&buf)
	w.StartFile()

	_, err := w.Write(bytes.Repeat([]byte{0x01}, maxUncompressedChunk))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	mid := w.Tell()

	_, err = w.Write([]byte("marker"))
	require.NoError(t, err)
	require.NoError(t, w.EndFile())

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.NoError(t, r.Seek(mid))

	got := make([]byte, 6)
	_, err = io.ReadFull(r, got)
	require.NoError(t, err)
	require.Equal(t, "marker", string(got))
}

func TestIsBGZFSniff(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.StartFile()
	_, err := w.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, w.EndFile())

	require.True(t, IsBGZF(buf.Bytes()[:blockHeaderLen]))
	require.True(t, SmellsLikeGzip(buf.Bytes()[:2]))
	require.False(t, IsBGZF([]byte("not a bgzf stream at all...")))
}

func TestUntellableWithoutStartFile(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	require.Equal(t, int64(-1), int64(w.Tell()))
}

func TestPlainGzipFallbackSeekableSource(t *testing.T) {
	payload := bytes.Repeat([]byte("not block-framed at all "), 5000)
	raw := plainGzip(t, payload)

	r, err := NewReader(bytes.NewReader(raw))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	require.Equal(t, voffset.Untellable, r.Tell())
	require.ErrorIs(t, r.Seek(voffset.Pack(0, 0)), vgioerrs.ErrSeekUnsupported)
}

func TestPlainGzipFallbackUnseekableSource(t *testing.T) {
	payload := []byte("a short plain gzip payload, read sequentially")
	raw := plainGzip(t, payload)

	r, err := NewReader(onlyReader{bytes.NewReader(raw)})
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, voffset.Untellable, r.Tell())
}

func TestPlainGzipFallbackDoesNotRequireBGZFEOFMarker(t *testing.T) {
	// A plain gzip stream never carries the BGZF EOF sentinel; NewReader
	// must not reject it the way TestTruncatedContainerDetected expects a
	// genuinely truncated BGZF file to be rejected.
	raw := plainGzip(t, []byte("no BGZF EOF marker, and that's fine here"))

	_, err := NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
}
