// package fetch performs outbound HTTP requests on behalf of the bridge.
//
// All fetches follow redirects, carry a per-request timeout, and capture the
// final URL, status, and headers of the response so that callers can make
// decisions about ambiguous upstream behaviour.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
)

// Timeout bounds a single outbound fetch. A slow remote delays the request it
// belongs to, never the whole process.
const Timeout = 15 * time.Second

// UserAgent identifies the bridge to remote servers.
const UserAgent = "fedbridge (+https://github.com/fedbridge/fedbridge)"

// Response captures the parts of an HTTP response the pipeline cares about.
type Response struct {
	// URL is the final URL after following redirects.
	URL         string
	StatusCode  int
	ContentType string
	Header      http.Header
	Body        string
}

// OK reports whether the response status was 2xx.
func (r *Response) OK() bool {
	return r.StatusCode/100 == 2
}

// IsHTML reports whether the response body is an HTML document.
func (r *Response) IsHTML() bool {
	return strings.HasPrefix(r.ContentType, "text/html") ||
		strings.HasPrefix(r.ContentType, "application/xhtml+xml")
}

// Capture records the response metadata. Adding it as a validator also
// disables the library's default 2xx check, leaving status handling to the
// caller.
func Capture(out *Response) func(*http.Response) error {
	return func(resp *http.Response) error {
		if resp.Request != nil && resp.Request.URL != nil {
			out.URL = resp.Request.URL.String()
		}
		out.StatusCode = resp.StatusCode
		out.ContentType = strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
		out.Header = resp.Header.Clone()
		return nil
	}
}

// HTML fetches the given URL expecting an HTML page. Non-2xx statuses and
// non-HTML content types are errors; callers treat them as "candidate
// unavailable".
func HTML(ctx context.Context, uri string) (*Response, error) {
	resp, err := Get(ctx, uri, "text/html")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", uri, resp.StatusCode)
	}
	if !resp.IsHTML() {
		return nil, fmt.Errorf("fetch %s: expected HTML, got %q", uri, resp.ContentType)
	}
	return resp, nil
}

// Get fetches the given URL with the given Accept header. The response is
// returned for any status code; only transport failures are errors.
func Get(ctx context.Context, uri, accept string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	resp := &Response{URL: uri}
	err := requests.URL(uri).
		UserAgent(UserAgent).
		Accept(accept).
		AddValidator(Capture(resp)).
		ToString(&resp.Body).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Post posts the given body to the given URL. The response is returned for
// any status code; only transport failures are errors.
func Post(ctx context.Context, uri, contentType string, body []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	resp := &Response{URL: uri}
	err := requests.URL(uri).
		UserAgent(UserAgent).
		Header("Content-Type", contentType).
		BodyBytes(body).
		AddValidator(Capture(resp)).
		ToString(&resp.Body).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
