package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mediaup/internal/result"

	"github.com/google/uuid"
)

const (
	UserAgent       = "mediaup/1.0"
	RequestIDHeader = "X-Request-ID"

	// Error bodies are only ever shown to a human, so they are capped.
	maxErrorBody = 1 << 20
)

var (
	ErrInvalidURL       = errors.New("url must use http or https")
	ErrTooManyRedirects = errors.New("too many redirects")
)

type Options struct {
	// Timeout bounds the whole exchange. Zero means no timeout.
	Timeout time.Duration
	// InsecureTLS skips server certificate verification for this client only.
	InsecureTLS  bool
	MaxRedirects int
}

// NewClient builds a dedicated *http.Client for one set of options. TLS
// settings live on the client's own transport so nothing leaks across clients.
func NewClient(opts Options) *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureTLS {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in per client
	}

	redirectLimit := opts.MaxRedirects
	if redirectLimit <= 0 {
		redirectLimit = 3
	}
	return &http.Client{
		Transport: base,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= redirectLimit {
				return ErrTooManyRedirects
			}
			if !isAllowedScheme(req.URL.String()) {
				return ErrInvalidURL
			}
			return nil
		},
	}
}

// CheckEndpoint rejects anything that is not an absolute http(s) URL.
func CheckEndpoint(rawURL string) error {
	if !isAllowedScheme(rawURL) {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// Join appends path to base, keeping base's own path prefix.
func Join(base, path string) (string, error) {
	if err := CheckEndpoint(base); err != nil {
		return "", err
	}
	return url.JoinPath(base, path)
}

// Do sends req once and classifies the outcome. The response body is always
// drained and closed before returning.
func Do(client *http.Client, req *http.Request) result.Result {
	if client == nil {
		client = http.DefaultClient
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return result.FailErr(result.TransportError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result.Rejected(resp.StatusCode, errorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result.FailErr(result.TransportError, err)
	}
	return result.Success(resp.StatusCode, body)
}

// GetJSON issues a GET and decodes the JSON reply.
func GetJSON(ctx context.Context, client *http.Client, rawURL string) result.Result {
	if err := CheckEndpoint(rawURL); err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}
	return Do(client, req)
}

// PostJSON encodes payload as the request body.
func PostJSON(ctx context.Context, client *http.Client, rawURL string, payload any) result.Result {
	if err := CheckEndpoint(rawURL); err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return result.FailErr(result.IOError, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(data))
	if err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return Do(client, req)
}

// errorBody reads at most maxErrorBody bytes of a rejection and notes when the
// body was cut short or could not be read in full.
func errorBody(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody+1))
	truncated := len(body) > maxErrorBody
	if truncated {
		body = body[:maxErrorBody]
	}
	body = bytes.TrimSpace(body)
	switch {
	case err != nil:
		body = append(body, fmt.Sprintf(" [error body unreadable: %v]", err)...)
	case truncated:
		body = append(body, fmt.Sprintf(" [error body truncated at %d bytes]", maxErrorBody)...)
	}
	return bytes.TrimSpace(body)
}

func isAllowedScheme(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "http", "https":
		return parsed.Host != ""
	default:
		return false
	}
}
