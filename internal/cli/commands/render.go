package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/recordsql/pkg/core"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatAuto  = "auto"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Renderer writes command results in the selected format.
type Renderer struct {
	w      io.Writer
	format string
}

// NewRenderer creates a renderer. Auto mode renders tables on a terminal
// and JSON otherwise.
func NewRenderer(w io.Writer, format string) *Renderer {
	if format == "" || format == FormatAuto {
		format = FormatJSON
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = FormatTable
		}
	}
	return &Renderer{w: w, format: format}
}

// Format returns the resolved output format.
func (r *Renderer) Format() string {
	return r.format
}

// Rows renders result rows.
func (r *Renderer) Rows(rows []core.Row) error {
	switch r.format {
	case FormatJSON:
		return r.JSON(rowsOrEmpty(rows))
	case FormatYAML:
		return r.YAML(rowsOrEmpty(rows))
	case FormatTable:
		return r.table(rows)
	default:
		return fmt.Errorf("unknown output format %q", r.format)
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Message writes a plain line, suppressed for machine-readable formats.
func (r *Renderer) Message(format string, args ...any) {
	if r.format != FormatTable {
		return
	}
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *Renderer) table(rows []core.Row) error {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return nil
	}

	cols := columns(rows)
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		out := make(table.Row, len(cols))
		for i, col := range cols {
			out[i] = formatValue(row[col])
		}
		t.AppendRow(out)
	}

	t.Render()
	_, _ = fmt.Fprintf(r.w, "(%d rows)\n", len(rows))
	return nil
}

// columns returns the union of row keys, sorted.
func columns(rows []core.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func rowsOrEmpty(rows []core.Row) []core.Row {
	if rows == nil {
		return []core.Row{}
	}
	return rows
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
