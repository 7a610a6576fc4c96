// package webmention accepts webmentions from indie-web sites and forwards
// them into the fediverse, over ActivityPub when the target speaks it, over
// salmon otherwise.
package webmention

import (
	"context"
	"crypto/rsa"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fedbridge/fedbridge/internal/ap"
	"github.com/fedbridge/fedbridge/internal/as1"
	"github.com/fedbridge/fedbridge/internal/fetch"
	"github.com/fedbridge/fedbridge/internal/httpx"
	"github.com/fedbridge/fedbridge/internal/mf2"
	"github.com/fedbridge/fedbridge/internal/to"
	"github.com/fedbridge/fedbridge/models"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type Env struct {
	*models.Env
}

// mention carries the state of one webmention through the pipeline.
type mention struct {
	env *Env
	log *slog.Logger

	// source is the indie-web post the webmention came from.
	source string
	// domain is the source's domain, the identity deliveries are
	// attributed to.
	domain string
	// entry is the parsed microformats snapshot of the source page,
	// persisted with each delivery.
	entry map[string]any
	// obj is the AS1 activity extracted from the source's h-entry.
	obj map[string]any

	key    *models.MagicKey
	priv   *rsa.PrivateKey
	client *ap.Client
}

// Create handles POST /webmention. The source page is fetched and parsed, and
// its activity is delivered to the posts it mentions and to the source
// domain's followers.
func Create(env *Env, w http.ResponseWriter, r *http.Request) error {
	var params struct {
		Source string `schema:"source,required"`
		Target string `schema:"target"`
	}
	if err := httpx.Params(r, &params); err != nil {
		return err
	}

	m, err := prepare(r.Context(), env, params.Source)
	if err != nil {
		return err
	}
	res, err := m.deliver(r.Context())
	if err != nil {
		return err
	}
	// relay what the remote said when something was delivered
	if res.resp != nil {
		if ct := res.resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(res.resp.StatusCode)
		_, err := io.WriteString(w, res.resp.Body)
		return err
	}
	return to.JSON(w, &Summary{Delivered: res.delivered, Skipped: res.skipped})
}

// prepare fetches and parses the source page, readying the mention for
// delivery.
func prepare(ctx context.Context, env *Env, source string) (*mention, error) {
	u, err := url.Parse(source)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, httpx.Error(http.StatusBadRequest, fmt.Errorf("invalid source %q", source))
	}
	domain := strings.TrimPrefix(u.Hostname(), "www.")

	log := env.Log().With(
		slog.String("id", uuid.NewString()),
		slog.String("source", source),
	)

	resp, err := fetch.HTML(ctx, source)
	if err != nil {
		return nil, httpx.Error(http.StatusBadGateway, fmt.Errorf("could not fetch source: %w", err))
	}
	if !hasBacklink(resp.Body, env.BaseURL) {
		return nil, httpx.Error(http.StatusBadRequest, fmt.Errorf("source %s has no link to %s", source, env.BaseURL))
	}

	data := mf2.Parse(resp.Body, resp.URL)
	entry := mf2.FindFirstEntry(data, "h-entry")
	if entry == nil {
		return nil, httpx.Error(http.StatusBadRequest, fmt.Errorf("no h-entry found on %s", source))
	}

	obj := as1.ObjectFromEntry(entry)
	if _, ok := obj["id"].(string); !ok {
		obj["id"] = source
		obj["url"] = source
	}

	key, err := models.NewMagicKeys(env.DB).GetOrCreate(domain)
	if err != nil {
		return nil, err
	}
	priv, err := key.RSAPrivateKey()
	if err != nil {
		return nil, err
	}

	return &mention{
		env:    env,
		log:    log,
		source: source,
		domain: domain,
		entry:  mf2.ToMap(data),
		obj:    obj,
		key:    key,
		priv:   priv,
		client: ap.NewClient(key.KeyID(env.BaseURL), priv),
	}, nil
}

// hasBacklink reports whether the page body links back to the bridge, in
// plain or percent-encoded form. A webmention whose source does not mention
// the bridge was not meant for it.
func hasBacklink(body, baseURL string) bool {
	return strings.Contains(body, baseURL) ||
		strings.Contains(body, url.QueryEscape(baseURL))
}

// targets returns the remote posts the activity addresses: its reply parents,
// or failing those, the objects of a like or repost.
func (m *mention) targets() []string {
	if urls := as1.URLs(m.obj, "inReplyTo"); len(urls) > 0 {
		return urls
	}
	if as1.VerbsWithObject[as1.Verb(m.obj)] {
		return as1.URLs(m.obj, "object")
	}
	return nil
}

// Summary reports what a webmention resulted in.
type Summary struct {
	Delivered int `json:"delivered"`
	Skipped   int `json:"skipped"`
}
