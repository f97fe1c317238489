package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vgio/vgio/stream"
	"github.com/vgio/vgio/wire"
)

func newExtractCommand() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "extract <file> <out>",
		Short: "dump one tag's payloads to a bare, length-prefixed sidecar file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.OutOrStdout(), args[0], args[1], tag)
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "tag to extract (default: all tags)")

	return cmd
}

// runExtract reads src's tagged groups and writes the payloads of every
// message whose tag matches (or every message, if tag is empty) to dst as a
// run of wire.WriteItem frames. The result carries no group framing or BGZF
// block structure; recompress is the only other command that reads it back.
func runExtract(report io.Writer, src, dst, tag string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	it, err := stream.NewMessageIterator(in)
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	w := io.Writer(out)
	n := 0

	for msg, err := range it.All() {
		if err != nil {
			return err
		}

		if msg.Data == nil {
			continue
		}

		if tag != "" && msg.Tag != tag {
			continue
		}

		if err := wire.WriteItem(w, msg.Data); err != nil {
			return err
		}

		n++
	}

	color.New(color.FgGreen).Fprintf(report, "extracted %d item(s) to %s\n", n, dst)

	return nil
}
