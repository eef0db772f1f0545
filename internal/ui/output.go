// Package ui renders launchpad's terminal output: status lines, tables and JSON.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// Writer prints status messages to stderr and results to stdout.
// Results stay on stdout alone so they can be piped.
type Writer struct {
	out     io.Writer
	errOut  io.Writer
	noColor bool
}

// NewWriter creates a Writer on stdout/stderr.
// Color is disabled when noColor is true or NO_COLOR is set.
func NewWriter(noColor bool) *Writer {
	return &Writer{
		out:     os.Stdout,
		errOut:  os.Stderr,
		noColor: noColor || os.Getenv("NO_COLOR") != "",
	}
}

// NewWriterWithOutputs creates a Writer with custom destinations.
func NewWriterWithOutputs(out, errOut io.Writer, noColor bool) *Writer {
	return &Writer{
		out:     out,
		errOut:  errOut,
		noColor: noColor,
	}
}

// Success reports a completed step on stderr.
func (w *Writer) Success(msg string) {
	writeLine(w.errOut, w.styled(colorGreen, "✓"), msg)
}

// Warning reports a non-fatal problem on stderr.
func (w *Writer) Warning(msg string) {
	writeLine(w.errOut, w.styled(colorYellow, "warning:"), msg)
}

// Error reports a fatal problem on stderr.
func (w *Writer) Error(msg string) {
	writeLine(w.errOut, w.styled(colorRed, "error:"), msg)
}

// Info reports progress on stderr.
func (w *Writer) Info(msg string) {
	writeLine(w.errOut, w.styled(colorCyan, "info:"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Infof prints a formatted informational message.
func (w *Writer) Infof(format string, args ...any) {
	w.Info(fmt.Sprintf(format, args...))
}

// Println writes a plain result line to stdout.
func (w *Writer) Println(msg string) {
	if _, err := fmt.Fprintln(w.out, msg); err != nil {
		return
	}
}

// JSON writes v to stdout as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}

	return nil
}

// Table writes an aligned table to stdout with a bold header row.
func (w *Writer) Table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, w.styled(colorBold, strings.Join(header, "\t"))); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func (w *Writer) styled(color, text string) string {
	if w.noColor {
		return text
	}

	return color + text + colorReset
}

func writeLine(out io.Writer, prefix, msg string) {
	if _, err := fmt.Fprintf(out, "%s %s\n", prefix, msg); err != nil {
		// Nothing useful to do when the terminal is gone.
		return
	}
}
