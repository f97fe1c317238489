package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vgio/vgio/compress"
	"github.com/vgio/vgio/format"
	"github.com/vgio/vgio/wire"
)

func newRecompressCommand() *cobra.Command {
	var codecName string

	cmd := &cobra.Command{
		Use:   "recompress <sidecar> <out>",
		Short: "re-pack an extract sidecar file under a different codec",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := parseCompressionType(codecName)
			if err != nil {
				return err
			}

			return runRecompress(cmd.OutOrStdout(), args[0], args[1], ct)
		},
	}

	cmd.Flags().StringVar(&codecName, "codec", "zstd", "none, s2, lz4, or zstd")

	return cmd
}

func parseCompressionType(name string) (format.CompressionType, error) {
	switch name {
	case "none":
		return format.CompressionNone, nil
	case "s2":
		return format.CompressionS2, nil
	case "lz4":
		return format.CompressionLZ4, nil
	case "zstd":
		return format.CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown codec %q: want none, s2, lz4, or zstd", name)
	}
}

// runRecompress reads every wire.ReadItem frame out of src, recompresses its
// payload with codec, and writes the result back to dst under the same
// framing, then prints per-item and aggregate compress.CompressionStats.
func runRecompress(report io.Writer, src, dst string, ct format.CompressionType) error {
	codec, err := compress.CreateCodec(ct, "recompress")
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	r := bufio.NewReader(in)
	w := io.Writer(out)

	t := newTable(report)
	t.header("ITEM", "ORIGINAL", "COMPRESSED", "RATIO", "SAVINGS")

	var totalOrig, totalCompressed int64
	n := 0

	for {
		item, err := wire.ReadItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		compressed, err := codec.Compress(item)
		if err != nil {
			return err
		}

		if err := wire.WriteItem(w, compressed); err != nil {
			return err
		}

		stats := compress.CompressionStats{
			Algorithm:      ct,
			OriginalSize:   int64(len(item)),
			CompressedSize: int64(len(compressed)),
		}

		t.row(n, stats.OriginalSize, stats.CompressedSize,
			fmt.Sprintf("%.3f", stats.CompressionRatio()),
			fmt.Sprintf("%.1f%%", stats.SpaceSavings()))

		totalOrig += stats.OriginalSize
		totalCompressed += stats.CompressedSize
		n++
	}

	total := compress.CompressionStats{
		Algorithm:      ct,
		OriginalSize:   totalOrig,
		CompressedSize: totalCompressed,
	}

	t.row("TOTAL", total.OriginalSize, total.CompressedSize,
		fmt.Sprintf("%.3f", total.CompressionRatio()),
		fmt.Sprintf("%.1f%%", total.SpaceSavings()))

	return t.flush()
}
