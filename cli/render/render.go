// Package render writes command results as json, table, or yaml.
//
// When --format is empty the format follows stdout: table on a terminal,
// json otherwise. --tui hands the data to the interactive views instead.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/justapithecus/monochrome/cli/tui"
)

// Format is an output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format name. The empty string is accepted and
// means "pick a default".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatTable, FormatYAML, "":
		return f, nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer writes values in one format.
type Renderer struct {
	format Format
	out    io.Writer
}

// NewRenderer builds a renderer from the --format flag, writing to the
// command's stdout.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}
	if format == "" {
		format = FormatJSON
		if f, ok := out.(*os.File); ok && isTTY(f) {
			format = FormatTable
		}
	}
	return &Renderer{format: format, out: out}, nil
}

// NewRendererWithWriter creates a renderer with a fixed format.
func NewRendererWithWriter(format Format, out io.Writer) *Renderer {
	return &Renderer{format: format, out: out}
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render writes data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI runs the interactive view for viewType.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

func (r *Renderer) renderTable(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)

	v := indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			fmt.Fprintln(w, "(no results)")
			break
		}
		fields := visibleFields(indirect(v.Index(0)).Type())
		headers := make([]string, len(fields))
		for i, f := range fields {
			headers[i] = strings.ToUpper(fieldName(f))
		}
		fmt.Fprintln(w, strings.Join(headers, "\t"))
		for i := range v.Len() {
			row := indirect(v.Index(i))
			cells := make([]string, len(fields))
			for j, f := range fields {
				cells[j] = formatValue(row.FieldByIndex(f.Index))
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
	case reflect.Struct:
		for _, f := range visibleFields(v.Type()) {
			fmt.Fprintf(w, "%s:\t%s\n", fieldName(f), formatValue(v.FieldByIndex(f.Index)))
		}
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		for _, k := range keys {
			fmt.Fprintf(w, "%v:\t%s\n", k.Interface(), formatValue(v.MapIndex(k)))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}
	return w.Flush()
}

func visibleFields(t reflect.Type) []reflect.StructField {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []reflect.StructField
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous || f.Tag.Get("json") == "-" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func fieldName(f reflect.StructField) string {
	if name, _, _ := strings.Cut(f.Tag.Get("json"), ","); name != "" {
		return name
	}
	return strings.ToLower(f.Name)
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch {
	case v.Type() == timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case v.Type() == durationType:
		return v.Interface().(time.Duration).String()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		return "{...}"
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
