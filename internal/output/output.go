// Package output renders request results for a terminal and persists text
// fields of successful responses.
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"mediaup/internal/result"
	"mediaup/internal/sink"

	"github.com/fatih/color"
)

// Summary fields printed ahead of a meeting transcript, in order.
var summaryFields = []struct{ key, label string }{
	{"status", "Status"},
	{"total_segments", "Total Segments"},
	{"processed_files", "Processed Files"},
	{"suggested_filename", "Suggested Filename"},
}

type Reporter struct {
	Out     io.Writer
	NoColor bool
}

func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	return &Reporter{Out: out}
}

func (r *Reporter) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.NoColor {
		c.DisableColor()
	}
	return c
}

// Report writes a human-readable rendering of res.
func (r *Reporter) Report(res result.Result) {
	if !res.OK() {
		r.reportFailure(res.Failure)
		return
	}

	r.paint(color.FgGreen, color.Bold).Fprintf(r.Out, "=== response %d ===\n", res.StatusCode)

	obj, isObject := res.Body.(map[string]any)
	if transcript, ok := res.Field("transcript"); ok && isObject {
		for _, f := range summaryFields {
			if v, ok := obj[f.key]; ok {
				fmt.Fprintf(r.Out, "%s: %v\n", f.label, v)
			}
		}
		r.paint(color.FgCyan, color.Bold).Fprintln(r.Out, "\n=== transcript ===")
		fmt.Fprintln(r.Out, transcript)
		return
	}
	if text, ok := res.Field("transcription"); ok {
		fmt.Fprintln(r.Out, text)
		return
	}
	fmt.Fprintln(r.Out, pretty(res.Raw))
}

func (r *Reporter) reportFailure(f *result.Failure) {
	r.paint(color.FgRed, color.Bold).Fprintf(r.Out, "=== request failed: %s ===\n", f.Kind)
	if f.StatusCode != 0 {
		fmt.Fprintf(r.Out, "Status Code: %d\n", f.StatusCode)
	}
	if f.Detail != "" {
		fmt.Fprintln(r.Out, pretty([]byte(f.Detail)))
	}
}

// Persist writes the string field of a successful response through dst under
// name. Any problem is reported as an IOError failure.
func (r *Reporter) Persist(ctx context.Context, res result.Result, field string, dst sink.Sink, name string) (string, error) {
	if !res.OK() {
		return "", ioFailure(fmt.Errorf("nothing to persist: %w", res.Err()))
	}
	text, ok := res.Field(field)
	if !ok {
		return "", ioFailure(fmt.Errorf("response has no %q text field", field))
	}
	location, err := dst.Put(ctx, name, []byte(text), "text/plain; charset=utf-8")
	if err != nil {
		return "", ioFailure(err)
	}
	r.paint(color.FgGreen).Fprintf(r.Out, "\nsaved %s to %s\n", field, location)
	return location, nil
}

func ioFailure(err error) error {
	return result.FailErr(result.IOError, err).Failure
}

func pretty(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
