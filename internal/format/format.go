// Package format renders result tables for terminals and exports.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Mode selects the output format.
type Mode string

const (
	Table    Mode = "table"    // Box-drawn terminal table
	Markdown Mode = "markdown" // GitHub-flavoured Markdown table
	CSV      Mode = "csv"      // Comma-separated export
	JSON     Mode = "json"     // Array of objects keyed by column
)

// Modes lists the supported modes.
func Modes() []Mode { return []Mode{Table, Markdown, CSV, JSON} }

// ParseMode maps a name to a Mode; the empty string is Table.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Table, nil
	case Table, Markdown, CSV, JSON:
		return m, nil
	}
	return "", fmt.Errorf("unknown output format %q (use table, markdown, csv or json)", s)
}

// Write renders t to w.
func Write(w io.Writer, m Mode, t domain.Table) error {
	switch m {
	case JSON:
		return writeJSON(w, t)
	case Table, Markdown, CSV, "":
	default:
		return fmt.Errorf("unknown output format %q", m)
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	var configs []table.ColumnConfig
	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = Cell(v)
		}
		tw.AppendRow(row)
	}
	if len(t.Rows) > 0 {
		for i, v := range t.Rows[0] {
			if _, ok := domain.ToFloat(v); ok {
				if _, isText := v.(string); !isText {
					configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
				}
			}
		}
	}
	tw.SetColumnConfigs(configs)

	var out string
	switch m {
	case Markdown:
		out = tw.RenderMarkdown()
	case CSV:
		out = tw.RenderCSV()
	default:
		out = tw.Render()
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}

// Cell formats one value for text output. Missing values render empty and
// fractional numbers keep two decimals.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', 2, 64)
	case float32:
		return Cell(float64(x))
	}
	return fmt.Sprint(v)
}

func writeJSON(w io.Writer, t domain.Table) error {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		obj := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(r) {
				obj[c] = r[i]
			}
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
