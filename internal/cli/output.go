package cli

import (
	"encoding/json"
	"io"
	"strings"
	"text/tabwriter"
)

type output struct {
	w      io.Writer
	format string
}

func newOutput(w io.Writer, format string) *output {
	return &output{w: w, format: format}
}

// JSON writes v as indented JSON.
func (o *output) JSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes aligned columns. A nil header prints rows only.
func (o *output) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	if header != nil {
		if _, err := io.WriteString(tw, strings.Join(header, "\t")+"\n"); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if _, err := io.WriteString(tw, strings.Join(row, "\t")+"\n"); err != nil {
			return err
		}
	}
	return tw.Flush()
}
