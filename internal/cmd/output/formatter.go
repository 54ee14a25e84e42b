// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/storefront/internal/cmd/table"
	"github.com/agentstation/storefront/pkg/errors"
)

// Format types for output.
type Format string

const (
	// FormatTable represents table output format.
	FormatTable Format = "table"
	// FormatJSON represents JSON output format.
	FormatJSON Format = "json"
	// FormatYAML represents YAML output format.
	FormatYAML Format = "yaml"
	// FormatWide represents wide table output format.
	FormatWide Format = "wide"
)

// Formatter interface for all output types.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates appropriate formatter based on format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// IsTable reports whether format renders as a table.
func IsTable(format Format) bool {
	return format == FormatTable || format == FormatWide || format == ""
}

// JSONFormatter outputs JSON format.
type JSONFormatter struct {
	Indent string
}

// Format implements the Formatter interface for JSON output.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(data)
}

// YAMLFormatter outputs YAML format.
type YAMLFormatter struct{}

// Format outputs data in YAML format.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	yamlData, err := yaml.MarshalWithOptions(data,
		yaml.Indent(2),
		yaml.IndentSequence(false),
		yaml.UseJSONMarshaler(),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(yamlData)
	return err
}

// TableFormatter outputs table format.
type TableFormatter struct{}

// Format outputs data in table format. table.Data renders as given; other
// structs and struct slices are tabulated by reflection; anything else falls
// back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case table.Data:
		return render(w, v)
	case *table.Data:
		return render(w, *v)
	default:
		if tableData := toTableData(data); tableData != nil {
			return render(w, *tableData)
		}
		jsonFormatter := &JSONFormatter{Indent: "  "}
		return jsonFormatter.Format(w, data)
	}
}

func render(w io.Writer, data table.Data) error {
	config := tablewriter.Config{}

	if len(data.ColumnAlignment) > 0 {
		twAlign := make([]tw.Align, len(data.ColumnAlignment))
		for i, align := range data.ColumnAlignment {
			switch align {
			case table.AlignLeft:
				twAlign[i] = tw.AlignLeft
			case table.AlignCenter:
				twAlign[i] = tw.AlignCenter
			case table.AlignRight:
				twAlign[i] = tw.AlignRight
			default:
				twAlign[i] = tw.Skip
			}
		}
		config.Header.Alignment = tw.CellAlignment{PerColumn: twAlign}
		config.Row.Alignment = tw.CellAlignment{PerColumn: twAlign}
	}

	tbl := tablewriter.NewTable(w, tablewriter.WithConfig(config))

	if len(data.Headers) > 0 {
		headers := make([]any, len(data.Headers))
		for i, h := range data.Headers {
			headers[i] = h
		}
		tbl.Header(headers...)
	}

	for _, row := range data.Rows {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := tbl.Append(cells...); err != nil {
			return err
		}
	}

	return tbl.Render()
}

// DetectFormat auto-detects format based on terminal and environment.
func DetectFormat(explicitFormat string) Format {
	if explicitFormat != "" {
		return Format(strings.ToLower(explicitFormat))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	// Pipes and redirects get machine-readable output.
	return FormatJSON
}

// ParseFormat converts string to Format with validation.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, FormatWide, "":
		return format, nil
	default:
		return "", errors.NewValidationError("format", s, "must be one of: table, json, yaml, wide")
	}
}

// toTableData converts structs and struct slices using their json names as
// headers. Nested slices, maps and structs without a String method are
// skipped since they do not fit in a cell.
func toTableData(data any) *table.Data {
	v := reflect.Indirect(reflect.ValueOf(data))
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return nil
		}
		elem := reflect.Indirect(v.Index(0))
		if elem.Kind() != reflect.Struct {
			return nil
		}
		fields := cellFields(elem.Type())
		out := &table.Data{Headers: headersFor(elem.Type(), fields)}
		for i := 0; i < v.Len(); i++ {
			item := reflect.Indirect(v.Index(i))
			row := make([]string, 0, len(fields))
			for _, idx := range fields {
				row = append(row, cell(item.Field(idx)))
			}
			out.Rows = append(out.Rows, row)
		}
		return out

	case reflect.Struct:
		fields := cellFields(v.Type())
		names := headersFor(v.Type(), fields)
		out := &table.Data{Headers: []string{"Property", "Value"}}
		for i, idx := range fields {
			out.Rows = append(out.Rows, []string{names[i], cell(v.Field(idx))})
		}
		return out
	}
	return nil
}

var stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()

// cellFields returns the indexes of exported fields that render as one cell.
func cellFields(t reflect.Type) []int {
	var idx []int
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("json") == "-" {
			continue
		}
		ft := field.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Implements(stringerType) || reflect.PointerTo(ft).Implements(stringerType) {
			idx = append(idx, i)
			continue
		}
		switch ft.Kind() {
		case reflect.Slice, reflect.Map, reflect.Struct, reflect.Array:
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func headersFor(t reflect.Type, fields []int) []string {
	caser := cases.Title(language.English)
	headers := make([]string, 0, len(fields))
	for _, i := range fields {
		field := t.Field(i)
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			if before, _, _ := strings.Cut(tag, ","); before != "" {
				name = caser.String(strings.ReplaceAll(before, "_", " "))
			}
		}
		headers = append(headers, name)
	}
	return headers
}

func cell(v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	if v.CanAddr() {
		if s, ok := v.Addr().Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}
	return fmt.Sprintf("%v", v.Interface())
}
