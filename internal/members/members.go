package members

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"mediaup/internal/result"
	"mediaup/internal/transport"
)

const Path = "/members/"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page selects a window of the member list.
type Page struct {
	Skip  int
	Limit int
}

// URL builds the list URL for base, omitting zero-valued paging parameters.
func URL(base string, page Page) (string, error) {
	raw, err := transport.Join(base, Path)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if page.Skip > 0 {
		q.Set("skip", strconv.Itoa(page.Skip))
	}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// List fetches one page of members.
func List(ctx context.Context, client *http.Client, base string, page Page) result.Result {
	rawURL, err := URL(base, page)
	if err != nil {
		return result.FailErr(result.InvalidEndpoint, err)
	}
	return transport.GetJSON(ctx, client, rawURL)
}
