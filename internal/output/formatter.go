// Package output renders analysis results as text tables, JSON, YAML,
// Markdown or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	toon "github.com/toon-format/toon-go"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

var formatAliases = map[string]Format{
	"json":     FormatJSON,
	"yaml":     FormatYAML,
	"yml":      FormatYAML,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"toon":     FormatTOON,
}

// ParseFormat converts a string to Format. Unknown names mean text.
func ParseFormat(s string) Format {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return FormatText
}

// structured reports whether the format serializes data rather than
// laying it out for reading.
func (f Format) structured() bool {
	return f == FormatJSON || f == FormatYAML || f == FormatTOON
}

// Renderable is a view that knows how to lay itself out for humans and
// which data stands behind it for machines.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	// RenderData returns the value serialized by structured formats.
	RenderData() any
}

// Formatter writes results in one format to stdout or a file.
type Formatter struct {
	format  Format
	writer  io.Writer
	closer  io.Closer
	colored bool
}

// NewFormatter writes to output, or to stdout when output is empty. File
// output is never colored.
func NewFormatter(format Format, output string, colored bool) (*Formatter, error) {
	if output == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}
	file, err := os.Create(output)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	f := NewWriterFormatter(format, file, false)
	f.closer = file
	return f, nil
}

// NewWriterFormatter writes to w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, writer: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer { return f.writer }

// Format returns the configured format.
func (f *Formatter) Format() Format { return f.format }

// Colored reports whether text output uses ANSI colors.
func (f *Formatter) Colored() bool { return f.colored }

// Output writes data in the configured format. Values that are not
// Renderable are printed as JSON in text mode and fenced JSON in Markdown.
func (f *Formatter) Output(data any) error {
	r, ok := data.(Renderable)
	switch {
	case f.format.structured():
		if ok {
			data = r.RenderData()
		}
		return f.encode(data)
	case ok && f.format == FormatMarkdown:
		return r.RenderMarkdown(f.writer)
	case ok:
		return r.RenderText(f.writer, f.colored)
	case f.format == FormatMarkdown:
		if _, err := io.WriteString(f.writer, "```json\n"); err != nil {
			return err
		}
		if err := writeJSON(f.writer, data); err != nil {
			return err
		}
		_, err := io.WriteString(f.writer, "```\n")
		return err
	default:
		return writeJSON(f.writer, data)
	}
}

func (f *Formatter) encode(data any) error {
	switch f.format {
	case FormatYAML:
		return writeYAML(f.writer, data)
	case FormatTOON:
		return writeTOON(f.writer, data)
	default:
		return writeJSON(f.writer, data)
	}
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// writeYAML keys the document by the json tags.
func writeYAML(w io.Writer, data any) error {
	generic, err := toGeneric(data)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("marshal YAML: %w", err)
	}
	return enc.Close()
}

// writeTOON keys the document by the json tags.
func writeTOON(w io.Writer, data any) error {
	generic, err := toGeneric(data)
	if err != nil {
		return err
	}
	out, err := toon.Marshal(generic, toon.WithIndent(2))
	if err != nil {
		return fmt.Errorf("marshal TOON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// toGeneric round-trips data through JSON into maps and slices.
func toGeneric(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal JSON: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}
