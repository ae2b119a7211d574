package transcript

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Span is a piece of recognised speech with offsets in seconds from the
// start of its recording.
type Span struct {
	Text  string
	Start float64
	End   float64
}

// Segment is a Span attributed to a speaker and source file.
type Segment struct {
	Username string  `json:"username"`
	Text     string  `json:"text"`
	Start    float64 `json:"start_time"`
	End      float64 `json:"end_time"`
	Filename string  `json:"filename"`
}

// Transcriber turns one recording into spans.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, r io.Reader) ([]Span, error)
}

// Username is the speaker encoded in a recording's name: everything before
// the first underscore, or the whole name when there is none.
func Username(filename string) string {
	if user, _, ok := strings.Cut(filename, "_"); ok {
		return user
	}
	return filename
}

// Attribute turns spans from filename into segments, dropping blank ones.
func Attribute(filename string, spans []Span) []Segment {
	user := Username(filename)
	out := make([]Segment, 0, len(spans))
	for _, s := range spans {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		out = append(out, Segment{
			Username: user,
			Text:     text,
			Start:    s.Start,
			End:      s.End,
			Filename: filename,
		})
	}
	return out
}

// Assemble orders segments by start time, keeping input order for ties, and
// renders one "[12.3s] user: text" line per segment.
func Assemble(segments []Segment) string {
	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	lines := make([]string, 0, len(sorted))
	for _, s := range sorted {
		lines = append(lines, fmt.Sprintf("[%.1fs] %s: %s", s.Start, s.Username, s.Text))
	}
	return strings.Join(lines, "\n")
}

func SuggestedFilename(now time.Time) string {
	return fmt.Sprintf("meeting_transcript_%s.txt", now.Format("20060102_150405"))
}

// Supported reports whether filename has one of exts, case-insensitively.
func Supported(filename string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Describer is a stand-in Transcriber for environments without a speech
// model: it consumes the recording and reports what it received.
type Describer struct{}

func (Describer) Transcribe(ctx context.Context, filename string, r io.Reader) ([]Span, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Span{{Text: fmt.Sprintf("received %s (%d bytes)", filename, n)}}, nil
}
