package reports

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"mediaup/internal/result"
	"mediaup/internal/transport"
)

const InsertPath = "/reports/insert"

// TimeLayout is how uploadedAt is rendered on the wire.
const TimeLayout = "2006-01-02 15:04:05"

// Report is the HTML meeting report document accepted by the reports service.
type Report struct {
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
	Content      string   `json:"content"`
	UploadedAt   string   `json:"uploadedAt,omitempty"`
}

// SplitParticipants turns "a@x, b@y," into ["a@x", "b@y"].
func SplitParticipants(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// New reads the HTML content from contentPath and assembles a report.
// Input problems come back as typed failures so callers can treat them like
// any other result.
func New(title string, participants []string, contentPath string, now time.Time) (Report, *result.Failure) {
	if strings.TrimSpace(title) == "" {
		return Report{}, &result.Failure{Kind: result.InvalidInput, Detail: "title is required"}
	}
	if len(participants) == 0 {
		return Report{}, &result.Failure{Kind: result.InvalidInput, Detail: "at least one participant is required"}
	}
	content, err := os.ReadFile(contentPath)
	if err != nil {
		return Report{}, result.FailErr(result.FileNotFound, fmt.Errorf("read report content: %w", err)).Failure
	}
	return Report{
		Title:        title,
		Participants: participants,
		Content:      string(content),
		UploadedAt:   now.Format(TimeLayout),
	}, nil
}

// Submit posts the report to base + InsertPath.
func Submit(ctx context.Context, client *http.Client, base string, report Report) result.Result {
	endpoint, err := transport.Join(base, InsertPath)
	if err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}
	return transport.PostJSON(ctx, client, endpoint, report)
}
