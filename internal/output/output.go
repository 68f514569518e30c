// Package output renders command results as aligned text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter handles output formatting (table or JSON).
type Formatter struct {
	Writer   io.Writer
	JSONMode bool
}

// New creates a new Formatter with the specified writer and JSON mode.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{
		Writer:   w,
		JSONMode: jsonMode,
	}
}

// Field is one labelled value of a record.
type Field struct {
	Label string
	Value string
}

// Table outputs rows as an aligned table, or as a JSON array of objects keyed
// by header in JSON mode.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	if f.JSONMode {
		return f.tableAsJSON(headers, rows)
	}
	return f.tableAsText(headers, rows)
}

// TableOr is Table with a placeholder row shown in text mode when rows is
// empty. The placeholder goes in the second column when there is one, the
// way list screens show it.
func (f *Formatter) TableOr(headers []string, rows [][]string, placeholder string) error {
	if len(rows) > 0 || f.JSONMode {
		return f.Table(headers, rows)
	}
	row := make([]string, len(headers))
	if len(row) > 1 {
		row[1] = placeholder
	} else if len(row) == 1 {
		row[0] = placeholder
	}
	return f.tableAsText(headers, [][]string{row})
}

func (f *Formatter) tableAsText(headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}

	separators := make([]string, len(headers))
	for i, h := range headers {
		separators[i] = strings.Repeat("-", len(h))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(separators, "\t")); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func (f *Formatter) tableAsJSON(headers []string, rows [][]string) error {
	result := make([]map[string]string, 0, len(rows))

	for _, row := range rows {
		obj := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(row) {
				obj[header] = row[i]
			} else {
				obj[header] = ""
			}
		}
		result = append(result, obj)
	}

	return f.Print(result)
}

// Record prints labelled fields one per line, or raw as JSON in JSON mode.
// raw is what gets encoded so JSON consumers see wire values, not display
// strings.
func (f *Formatter) Record(fields []Field, raw any) error {
	if f.JSONMode {
		return f.Print(raw)
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	for _, field := range fields {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", field.Label, field.Value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Message prints a one-line confirmation. In JSON mode it becomes
// {"message": ...} so scripted callers always get an object.
func (f *Formatter) Message(msg string) error {
	if f.JSONMode {
		return f.Print(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(f.Writer, msg)
	return err
}

// Print outputs data as pretty-printed JSON, or with %v in text mode.
func (f *Formatter) Print(data any) error {
	if f.JSONMode {
		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	}

	_, err := fmt.Fprintf(f.Writer, "%v\n", data)
	return err
}
