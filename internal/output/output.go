package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/jacoelho/mdq/internal/query"
	"github.com/mattn/go-runewidth"
)

var ErrInvalidFormat = errors.New("invalid output format")

// Format represents the rendering used for query results.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "text"
	}
}

// ParseFormat accepts text, json or yaml. An empty name selects text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "table":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("%w: %q (supported: text, json, yaml)", ErrInvalidFormat, name)
	}
}

var headerFmt = color.New(color.Bold).SprintFunc()

const columnGap = "  "

// Render writes result to w in the given format.
func Render(format Format, w io.Writer, result *query.Result) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatYAML:
		return renderYAML(w, result)
	case FormatText:
		fallthrough
	default:
		return renderText(w, result)
	}
}

func renderText(w io.Writer, result *query.Result) error {
	cells := make([][]string, 0, len(result.Data))
	widths := make([]int, len(result.Columns))
	for i, column := range result.Columns {
		widths[i] = runewidth.StringWidth(column)
	}

	for _, row := range result.Data {
		line := make([]string, len(result.Columns))
		for i, column := range result.Columns {
			line[i] = formatCell(row[column])
			widths[i] = max(widths[i], runewidth.StringWidth(line[i]))
		}
		cells = append(cells, line)
	}

	var b strings.Builder

	header := make([]string, len(result.Columns))
	rule := make([]string, len(result.Columns))
	for i, column := range result.Columns {
		header[i] = headerFmt(column) + padding(column, widths[i])
		rule[i] = strings.Repeat("-", widths[i])
	}
	writeLine(&b, header)
	writeLine(&b, rule)

	for _, line := range cells {
		for i := range line {
			line[i] = runewidth.FillRight(line[i], widths[i])
		}
		writeLine(&b, line)
	}

	fmt.Fprintf(&b, "\n%d %s in %.3fs\n", result.Count, plural(result.Count, "row", "rows"), result.Seconds())

	_, err := io.WriteString(w, b.String())
	return err
}

func writeLine(b *strings.Builder, cells []string) {
	b.WriteString(strings.TrimRight(strings.Join(cells, columnGap), " "))
	b.WriteByte('\n')
}

func padding(s string, width int) string {
	return strings.Repeat(" ", max(0, width-runewidth.StringWidth(s)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// formatCell renders scalars plainly and composite values as compact JSON.
func formatCell(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case bool:
		return fmt.Sprintf("%t", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		data, _ := json.Marshal(v)
		return string(data)
	default:
		data, err := json.Marshal(finite(v))
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

type jsonResult struct {
	QueryID string      `json:"query_id"`
	Columns []string    `json:"columns"`
	Count   int         `json:"count"`
	Seconds float64     `json:"time_s"`
	Data    []query.Row `json:"data"`
}

func renderJSON(w io.Writer, result *query.Result) error {
	data := make([]query.Row, 0, len(result.Data))
	for _, row := range result.Data {
		safe := make(query.Row, len(row))
		for column, value := range row {
			safe[column] = finite(value)
		}
		data = append(data, safe)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonResult{
		QueryID: result.ID.String(),
		Columns: result.Columns,
		Count:   result.Count,
		Seconds: result.Seconds(),
		Data:    data,
	})
}

// finite replaces NaN and infinities, which JSON cannot represent, with nil.
func finite(value any) any {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = finite(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = finite(item)
		}
		return out
	default:
		return value
	}
}

// renderYAML keeps every row in the requested column order.
func renderYAML(w io.Writer, result *query.Result) error {
	rows := make([]yaml.MapSlice, 0, len(result.Data))
	for _, row := range result.Data {
		item := make(yaml.MapSlice, 0, len(result.Columns))
		for _, column := range result.Columns {
			item = append(item, yaml.MapItem{Key: column, Value: row[column]})
		}
		rows = append(rows, item)
	}

	document := yaml.MapSlice{
		{Key: "query_id", Value: result.ID.String()},
		{Key: "columns", Value: result.Columns},
		{Key: "count", Value: result.Count},
		{Key: "time_s", Value: result.Seconds()},
		{Key: "data", Value: rows},
	}

	data, err := yaml.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal result to YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
