package transcript

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsername(t *testing.T) {
	assert.Equal(t, "alice", Username("alice_0915_meeting.webm"))
	assert.Equal(t, "0915.wav", Username("0915.wav"))
	assert.Equal(t, "", Username("_odd.mp4"))
}

func TestAttributeDropsBlankSpans(t *testing.T) {
	got := Attribute("bob_0915.mp4", []Span{
		{Text: "  hello  ", Start: 1.25, End: 2},
		{Text: "   ", Start: 3},
	})
	require.Len(t, got, 1)
	assert.Equal(t, Segment{Username: "bob", Text: "hello", Start: 1.25, End: 2, Filename: "bob_0915.mp4"}, got[0])
}

func TestAssembleOrdersByStart(t *testing.T) {
	segments := append(
		Attribute("alice_0915.webm", []Span{{Text: "first", Start: 0}, {Text: "third", Start: 4.04}}),
		Attribute("bob_0915.webm", []Span{{Text: "second", Start: 1.5}, {Text: "tie", Start: 4.04}})...,
	)

	assert.Equal(t, strings.Join([]string{
		"[0.0s] alice: first",
		"[1.5s] bob: second",
		"[4.0s] alice: third",
		"[4.0s] bob: tie",
	}, "\n"), Assemble(segments))
	assert.Equal(t, "first", segments[0].Text, "input must not be reordered")
}

func TestAssembleEmpty(t *testing.T) {
	assert.Equal(t, "", Assemble(nil))
}

func TestSuggestedFilename(t *testing.T) {
	now := time.Date(2025, 9, 15, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, "meeting_transcript_20250915_101500.txt", SuggestedFilename(now))
}

func TestSupported(t *testing.T) {
	exts := []string{".mp4", ".webm"}
	assert.True(t, Supported("A.MP4", exts))
	assert.False(t, Supported("a.wav", exts))
	assert.False(t, Supported("mp4", exts))
}

func TestDescriber(t *testing.T) {
	spans, err := Describer{}.Transcribe(context.Background(), "a.wav", strings.NewReader("12345"))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "received a.wav (5 bytes)", spans[0].Text)
}
