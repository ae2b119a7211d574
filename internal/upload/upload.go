// Package upload sends local media files to an HTTP endpoint as a single
// streamed multipart/form-data request.
package upload

import (
	"context"
	"net/http"
	"time"

	"mediaup/internal/result"
	"mediaup/internal/transport"
)

// File is one part of the form: the field the server expects and the local
// path whose contents become the part body.
type File struct {
	Field string
	Path  string
}

type Request struct {
	Endpoint string
	Files    []File
	// Timeout bounds the whole exchange. Zero means no timeout.
	Timeout     time.Duration
	InsecureTLS bool
}

// Client performs uploads. A nil HTTPClient means one is built per request
// from the request's Timeout and InsecureTLS. With an HTTPClient set, a
// non-zero Request.Timeout overrides the client's own.
type Client struct {
	HTTPClient *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	return &Client{HTTPClient: httpClient}
}

// Upload sends req once. All files are opened before the network is touched
// and every handle is closed before Upload returns. Preconditions are checked
// in order: files given, files readable, endpoint valid.
func (c *Client) Upload(ctx context.Context, req Request) result.Result {
	if len(req.Files) == 0 {
		return result.Fail(result.NoFilesProvided, "at least one file is required")
	}

	parts, err := openParts(req.Files)
	if err != nil {
		return result.FailErr(result.FileNotFound, err)
	}
	defer closeParts(parts)

	if err := transport.CheckEndpoint(req.Endpoint); err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}

	b, err := newBody(parts)
	if err != nil {
		return result.FailErr(result.IOError, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, b.reader)
	if err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}
	httpReq.ContentLength = b.length
	httpReq.Header.Set("Content-Type", b.contentType)

	client, owned := c.httpClient(req)
	if owned {
		defer client.CloseIdleConnections()
	}
	return transport.Do(client, httpReq)
}

// httpClient reports owned when the client was built for this request alone,
// in which case its connections are closed once the request is done.
func (c *Client) httpClient(req Request) (*http.Client, bool) {
	if c != nil && c.HTTPClient != nil {
		if req.Timeout == 0 {
			return c.HTTPClient, false
		}
		clone := *c.HTTPClient
		clone.Timeout = req.Timeout
		return &clone, false
	}
	return transport.NewClient(transport.Options{
		Timeout:     req.Timeout,
		InsecureTLS: req.InsecureTLS,
	}), true
}

// Upload is a convenience for a one-off request with its own HTTP client.
func Upload(ctx context.Context, req Request) result.Result {
	return (&Client{}).Upload(ctx, req)
}
