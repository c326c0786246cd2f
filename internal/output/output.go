// Package output renders cmdai's command payloads in a consistent text,
// JSON, or YAML form. JSON/YAML keys come from the value written: map keys
// as given, json struct tags where a type has them, and Go field names
// where it does not.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"text/tabwriter"

	"go.yaml.in/yaml/v3"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles formatted output.
type Writer struct {
	format    Format
	out       io.Writer
	errOut    io.Writer
	showStats bool
}

// Option configures the Writer.
type Option func(*Writer)

// WithOutput sets the standard output writer.
func WithOutput(w io.Writer) Option {
	return func(wr *Writer) {
		wr.out = w
	}
}

// WithErrorOutput sets the error output writer.
func WithErrorOutput(w io.Writer) Option {
	return func(wr *Writer) {
		wr.errOut = w
	}
}

// WithStats enables payload size reporting alongside the formatted output.
func WithStats(show bool) Option {
	return func(wr *Writer) {
		wr.showStats = show
	}
}

// New creates a new output writer.
func New(format Format, opts ...Option) *Writer {
	w := &Writer{
		format: format,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs data in the configured format.
func (w *Writer) Write(data any) error {
	if w.showStats {
		if jsonBytes, err := json.Marshal(data); err == nil {
			w.printStats(jsonBytes)
		}
	}

	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		normalized, err := normalizeForYAML(data)
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(normalized)
		if err != nil {
			return err
		}
		if len(b) == 0 || b[len(b)-1] != '\n' {
			b = append(b, '\n')
		}
		_, err = w.out.Write(b)
		return err
	case FormatText:
		// Human-friendly output goes to stderr to keep stdout clean for piping.
		_, err := fmt.Fprintf(w.errOut, "%v\n", data)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", w.format)
	}
}

// printStats reports the marshaled payload size on stderr.
func (w *Writer) printStats(jsonBytes []byte) {
	fmt.Fprintf(w.errOut, "[cmdai] payload: %d bytes\n", len(jsonBytes))
}

// WriteNDJSON outputs data as NDJSON when in JSON mode (one JSON per line).
func (w *Writer) WriteNDJSON(data any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		return enc.Encode(data)
	case FormatText:
		_, err := fmt.Fprintf(w.errOut, "%v\n", data)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", w.format)
	}
}

// Success outputs a success message.
func (w *Writer) Success(msg string) {
	if w.format == FormatJSON || w.format == FormatYAML {
		_ = w.Write(map[string]any{"status": "success", "message": msg})
	} else {
		fmt.Fprintf(w.errOut, "✓ %s\n", msg)
	}
}

// ErrorPayload is the structured form of an error reported in JSON/YAML mode.
type ErrorPayload struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error outputs an error message.
func (w *Writer) Error(err error) {
	payload := ErrorPayload{
		Error:   "error",
		Message: err.Error(),
		Details: map[string]any{"code": 1},
	}
	if w.format == FormatJSON {
		_ = OutputJSONError(err, 1)
	} else if w.format == FormatYAML {
		_ = OutputYAML(payload)
	} else {
		fmt.Fprintf(w.errOut, "✗ %s\n", err.Error())
	}
}

// OutputJSONError writes a JSON ErrorPayload for err to stdout, with the
// given code carried in details.code.
func OutputJSONError(err error, code int) error {
	payload := ErrorPayload{
		Error:   "error",
		Message: err.Error(),
		Details: map[string]any{"code": code},
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func normalizeForYAML(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// OutputYAML writes YAML to stdout, preserving JSON tags/field names by converting via JSON first.
func OutputYAML(v any) error {
	normalized, err := normalizeForYAML(v)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(normalized)
	if err != nil {
		return err
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	_, err = os.Stdout.Write(b)
	return err
}

// OutputMode is a process-wide default format used by helpers (OutputTable,
// OutputList) that render independently of any particular Writer.
type OutputMode string

const (
	OutputModeText OutputMode = "text"
	OutputModeJSON OutputMode = "json"
)

var outputMode atomic.Value

// SetOutputMode sets the process-wide default mode: json when asJSON, text
// otherwise.
func SetOutputMode(asJSON bool) {
	if asJSON {
		outputMode.Store(OutputModeJSON)
		return
	}
	outputMode.Store(OutputModeText)
}

// GetOutputMode returns the process-wide default mode, falling back to
// OutputModeText if SetOutputMode was never called.
func GetOutputMode() OutputMode {
	v, ok := outputMode.Load().(OutputMode)
	if !ok {
		return OutputModeText
	}
	return v
}

// IsJSON reports whether the process-wide default mode is JSON.
func IsJSON() bool {
	return GetOutputMode() == OutputModeJSON
}

// OutputTable prints a left-aligned table of rows under headers to stderr.
func OutputTable(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, tabRow(headers))
	for _, row := range rows {
		fmt.Fprintln(tw, tabRow(row))
	}
	tw.Flush()
}

func tabRow(cells []string) string {
	line := ""
	for i, c := range cells {
		if i > 0 {
			line += "\t"
		}
		line += c
	}
	return line
}

// OutputList prints each item on its own line to stderr.
func OutputList(items []string) {
	for _, item := range items {
		fmt.Fprintln(os.Stderr, item)
	}
}
