package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vgio/vgio/wire"
)

func TestRunExtractFiltersByTag(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir)
	dst := filepath.Join(dir, "gam.sidecar")

	var report bytes.Buffer
	require.NoError(t, runExtract(&report, src, dst, "GAM"))
	require.Contains(t, report.String(), "extracted 2 item(s)")

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	r := bufio.NewReader(f)

	first, err := wire.ReadItem(r)
	require.NoError(t, err)
	require.Equal(t, []byte("alpha"), first)

	second, err := wire.ReadItem(r)
	require.NoError(t, err)
	require.Equal(t, []byte("beta"), second)

	_, err = wire.ReadItem(r)
	require.ErrorIs(t, err, io.EOF)
}

func TestRunExtractAllTags(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir)
	dst := filepath.Join(dir, "all.sidecar")

	var report bytes.Buffer
	require.NoError(t, runExtract(&report, src, dst, ""))
	require.Contains(t, report.String(), "extracted 3 item(s)")
}
