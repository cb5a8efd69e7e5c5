// Package ui renders command output for terminals.
package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Empty is printed for cells without a value.
const Empty = "-"

// Table renders rows of data in aligned columns.
type Table struct {
	w       *tabwriter.Writer
	columns int
}

// NewTable creates a new table writer with the given column headers.
func NewTable(out io.Writer, headers ...string) *Table {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	t := &Table{w: tw, columns: len(headers)}
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return t
}

// Row appends a row of values. Empty strings are rendered as Empty and missing
// trailing values are padded the same way.
func (t *Table) Row(values ...any) {
	parts := make([]string, 0, t.columns)
	for _, v := range values {
		s := fmt.Sprintf("%v", v)
		if s == "" {
			s = Empty
		}
		parts = append(parts, s)
	}
	for len(parts) < t.columns {
		parts = append(parts, Empty)
	}
	_, _ = fmt.Fprintln(t.w, strings.Join(parts, "\t"))
}

// Flush writes the buffered output.
func (t *Table) Flush() error {
	return t.w.Flush()
}
