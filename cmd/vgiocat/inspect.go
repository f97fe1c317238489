package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vgio/vgio/stream"
	"github.com/vgio/vgio/voffset"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "list the tagged groups in a container file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInspect(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// No registry: this command has no notion of which tags are "real" for
	// a given file, so it leaves the iterator's tag validator unset and
	// gets the length-only fallback every other registry-unaware caller
	// gets.
	it, err := stream.NewMessageIterator(f)
	if err != nil {
		return err
	}

	// Re-coalesce the source's tag runs through an emitter to io.Discard,
	// using its group listener purely to drive this table: each call
	// reports one group's tag and virtual-offset span. A huge max group
	// size keeps the emitter from auto-splitting a run, so every flush
	// here lines up with a real tag change in the source.
	emitter, err := stream.NewMessageEmitter(io.Discard, false, stream.WithMaxGroupSize(1<<30))
	if err != nil {
		return err
	}

	t := newTable(out)
	t.header("TAG", "ITEMS", "START", "END")

	items := 0
	emitter.OnGroup(func(tag string, start, end voffset.VirtualOffset) {
		t.row(tag, items, formatOffset(start), formatOffset(end))
		items = 0
	})

	for msg, err := range it.All() {
		if err != nil {
			return err
		}

		if msg.Data == nil {
			if err := emitter.WriteTagOnly(msg.Tag); err != nil {
				return err
			}

			continue
		}

		if err := emitter.Write(msg.Tag, msg.Data); err != nil {
			return err
		}

		items++
	}

	if err := emitter.Close(); err != nil {
		return err
	}

	return t.flush()
}

func formatOffset(vo voffset.VirtualOffset) string {
	if !vo.Valid() {
		return "-"
	}

	return fmt.Sprintf("%d+%d", vo.Compressed(), vo.Uncompressed())
}
