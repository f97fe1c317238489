package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
)

// table is a minimal colorized tabular writer: a bold, cyan header row over
// plain-text data rows, column-aligned with text/tabwriter.
type table struct {
	w *tabwriter.Writer
}

func newTable(dst io.Writer) *table {
	return &table{w: tabwriter.NewWriter(dst, 0, 4, 2, ' ', 0)}
}

func (t *table) header(cols ...string) {
	bold := color.New(color.FgCyan, color.Bold)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(t.w, "\t")
		}
		fmt.Fprint(t.w, bold.Sprint(c))
	}
	fmt.Fprintln(t.w)
}

func (t *table) row(cols ...any) {
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(t.w, "\t")
		}
		fmt.Fprint(t.w, c)
	}
	fmt.Fprintln(t.w)
}

func (t *table) flush() error {
	return t.w.Flush()
}
