// Command vgiocat inspects, extracts, and recompresses vgio container
// files from the command line.
package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "vgiocat",
		Short: "inspect and manipulate vgio container files",
	}

	root.AddCommand(newInspectCommand())
	root.AddCommand(newExtractCommand())
	root.AddCommand(newRecompressCommand())

	if err := root.Execute(); err != nil {
		log.New(os.Stderr, "vgiocat: ", 0).Fatal(err)
	}
}
