// package ap is an ActivityPub client. It signs outbound requests with the
// bridge's magic key and classifies remote responses for the delivery
// pipeline.
package ap

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/fedbridge/fedbridge/internal/fetch"
	"github.com/fedbridge/fedbridge/internal/httpsig"
	"github.com/go-json-experiment/json"
)

const (
	// ContentType is the media type ActivityPub objects are POSTed with.
	ContentType = "application/activity+json"

	// LDContentType is the Accept value for fetching ActivityPub objects.
	LDContentType = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`
)

// ErrNotActivityPub reports that the remote URL serves an HTML page rather
// than an ActivityPub object. Callers fall back to other protocols.
var ErrNotActivityPub = errors.New("ap: target is not an ActivityPub object")

// Error is a non-2xx response from a remote ActivityPub server.
type Error struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ap: %s: status %d", e.URL, e.StatusCode)
}

// Client is an ActivityPub client which can be used to fetch remote
// ActivityPub resources and deliver activities to inboxes.
type Client struct {
	keyID      string
	privateKey *rsa.PrivateKey
}

// NewClient returns a client signing as the given key.
func NewClient(keyID string, privateKey *rsa.PrivateKey) *Client {
	return &Client{
		keyID:      keyID,
		privateKey: privateKey,
	}
}

// Fetch fetches the ActivityPub object at the given URL.
//
// An HTML response, whatever its status, returns ErrNotActivityPub. Any other
// non-2xx response returns an *Error. The raw response is returned alongside
// the decoded object so callers can record what the remote said.
func (c *Client) Fetch(ctx context.Context, uri string) (*fetch.Response, map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, fetch.Timeout)
	defer cancel()

	resp := &fetch.Response{URL: uri}
	err := requests.URL(uri).
		UserAgent(fetch.UserAgent).
		Accept(LDContentType).
		Transport(c).
		AddValidator(fetch.Capture(resp)).
		ToString(&resp.Body).
		Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	if resp.IsHTML() {
		return resp, nil, fmt.Errorf("%w: %s is %s", ErrNotActivityPub, uri, resp.ContentType)
	}
	if !resp.OK() {
		return resp, nil, &Error{URL: uri, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &obj); err != nil {
		return resp, nil, fmt.Errorf("ap: decode %s: %w", uri, err)
	}
	return resp, obj, nil
}

// Deliver posts the activity to the given inbox. A non-2xx response returns
// the response together with an *Error.
func (c *Client) Deliver(ctx context.Context, inbox string, activity map[string]any) (*fetch.Response, error) {
	body, err := json.Marshal(activity)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, fetch.Timeout)
	defer cancel()

	resp := &fetch.Response{URL: inbox}
	err = requests.URL(inbox).
		UserAgent(fetch.UserAgent).
		Header("Content-Type", ContentType).
		BodyBytes(body).
		Transport(c).
		AddValidator(fetch.Capture(resp)).
		ToString(&resp.Body).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, &Error{URL: inbox, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return resp, nil
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		body, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := httpsig.Sign(req, c.keyID, c.privateKey, body); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	return http.DefaultTransport.RoundTrip(req)
}
