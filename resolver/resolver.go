// package resolver turns a bare domain into a federated identity: it fetches
// the site, finds its representative h-card, and synthesises the discovery
// snapshot the webfinger responder and delivery pipeline work from.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fedbridge/fedbridge/internal/algorithms"
	"github.com/fedbridge/fedbridge/internal/as1"
	"github.com/fedbridge/fedbridge/internal/fetch"
	"github.com/fedbridge/fedbridge/internal/httpx"
	"github.com/fedbridge/fedbridge/internal/mf2"
	"github.com/fedbridge/fedbridge/models"
	"willnorris.com/go/microformats"
)

// NonTLDs are labels that show up as the "TLD" of a mistyped or truncated
// resource, eg acct:foo.json. Queries for them are rejected outright.
var NonTLDs = map[string]bool{
	"html": true,
	"json": true,
	"php":  true,
	"xml":  true,
}

var domainRE = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*(\.[a-z0-9][a-z0-9-]*)+$`)

// IsDomain reports whether s looks like a bare domain name.
func IsDomain(s string) bool {
	return domainRE.MatchString(strings.ToLower(s))
}

// Redirect reports that the site canonically lives on a different domain than
// the one queried. Callers decide whether to chase it.
type Redirect struct {
	// Domain is the canonical domain the site declared.
	Domain string
	// URL is the canonical URL, reused as the hint for the next resolve.
	URL string
}

func (r *Redirect) Error() string {
	return fmt.Sprintf("resolve: site moved to %s", r.Domain)
}

// Resolution is the outcome of resolving a domain.
type Resolution struct {
	// Domain is the domain that was queried.
	Domain string
	// CanonicalDomain is the host of the canonical URL.
	CanonicalDomain string
	// CanonicalURL is the URL the site declares for itself.
	CanonicalURL string
	// Card is the site's representative h-card.
	Card *microformats.Microformat
	// Actor is the AS2 actor synthesised from the card.
	Actor map[string]any
	// AtomURL is the site's Atom feed, native or proxied.
	AtomURL string
	// HubURL is the PuSH hub the feed updates through.
	HubURL string
}

type Resolver struct {
	*models.Env
}

func NewResolver(env *models.Env) *Resolver {
	return &Resolver{Env: env}
}

// Resolve resolves the given domain to a federated identity. hint, when
// non-empty, is a URL to try before the domain's root; webfinger queries
// carry one when the client knows the profile's address.
//
// The canonical URL is the first URL the representative card declares for
// the site, falling back to the URL the page was fetched from. When its
// domain differs from the queried one the returned error is a *Redirect;
// use ResolveFollow to chase it.
func (r *Resolver) Resolve(ctx context.Context, domain, hint string) (*Resolution, error) {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	if !domainRE.MatchString(domain) {
		return nil, httpx.Error(404, fmt.Errorf("%q is not a domain", domain))
	}
	if tld := domain[strings.LastIndex(domain, ".")+1:]; NonTLDs[tld] {
		return nil, httpx.Error(404, fmt.Errorf("%q is not a domain", domain))
	}

	resp, card, err := fetchProfile(ctx, domain, hint)
	if err != nil {
		return nil, err
	}

	urls := algorithms.Dedupe(append(mf2.Strings(card, "url"), resp.URL))
	canonicalURL := urls[0]
	canonicalDomain := canonicalHost(canonicalURL)
	if canonicalDomain == "" {
		canonicalDomain = canonicalHost(resp.URL)
	}
	if canonicalDomain != domain {
		return nil, &Redirect{Domain: canonicalDomain, URL: canonicalURL}
	}

	res := &Resolution{
		Domain:          domain,
		CanonicalDomain: canonicalDomain,
		CanonicalURL:    canonicalURL,
		Card:            card,
		Actor:           as1.ActorFromCard(card, r.BaseURL+"/", domain),
	}
	r.discoverFeed(res, resp)

	err = models.NewIdentities(r.DB).Replace(&models.Identity{
		Domain:          domain,
		CanonicalDomain: res.CanonicalDomain,
		CanonicalURL:    res.CanonicalURL,
		Actor:           res.Actor,
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ResolveFollow resolves the domain, chasing canonical redirects. A site that
// keeps moving after several hops is treated as unresolvable.
func (r *Resolver) ResolveFollow(ctx context.Context, domain, hint string) (*Resolution, error) {
	for hops := 0; hops < 5; hops++ {
		res, err := r.Resolve(ctx, domain, hint)
		if redirect := new(Redirect); errors.As(err, &redirect) {
			domain, hint = redirect.Domain, redirect.URL
			continue
		}
		return res, err
	}
	return nil, httpx.Error(502, fmt.Errorf("resolve %s: too many canonical redirects", domain))
}

// fetchProfile tries the candidate profile URLs in order and returns the
// first that serves an HTML page carrying a representative h-card. A hint
// page without a card falls through to the site root and the domain root.
func fetchProfile(ctx context.Context, domain, hint string) (*fetch.Response, *microformats.Microformat, error) {
	var candidates []string
	if hint != "" {
		candidates = append(candidates, hint)
		if root := siteRoot(hint); root != hint {
			candidates = append(candidates, root)
		}
	}
	candidates = append(candidates, "https://"+domain+"/")

	var lastErr error
	for _, candidate := range candidates {
		resp, err := fetch.HTML(ctx, candidate)
		if err != nil {
			lastErr = err
			continue
		}
		data := mf2.Parse(resp.Body, resp.URL)
		card := mf2.RepresentativeCard(data, resp.URL)
		if card == nil {
			lastErr = fmt.Errorf("no representative h-card found on %s", resp.URL)
			continue
		}
		return resp, card, nil
	}
	return nil, nil, httpx.Error(404, fmt.Errorf("no profile page for %s: %w", domain, lastErr))
}

var hubLinkRE = regexp.MustCompile(`<([^>]+)>\s*;[^,]*rel="?hub"?`)

// discoverFeed finds the site's Atom feed and PuSH hub. A site without a
// native feed gets a proxied one, converting its HTML on the fly.
func (r *Resolver) discoverFeed(res *Resolution, resp *fetch.Response) {
	res.HubURL = r.DefaultHub

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		doc = nil
	}
	if doc != nil {
		if href, ok := doc.Find(`link[rel~='hub']`).Attr("href"); ok && href != "" {
			res.HubURL = resolveRef(resp.URL, href)
		}
	}
	if m := hubLinkRE.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
		res.HubURL = resolveRef(resp.URL, m[1])
	}

	if doc != nil {
		sel := doc.Find(`link[rel~='alternate'][type^='application/atom+xml']`)
		if href, ok := sel.Attr("href"); ok && href != "" {
			res.AtomURL = resolveRef(resp.URL, href)
			return
		}
	}
	if r.AtomProxy != "" {
		res.AtomURL = fmt.Sprintf("%s?input=html&output=atom&url=%s&hub=%s",
			r.AtomProxy, url.QueryEscape(res.CanonicalURL), url.QueryEscape(res.HubURL))
	}
}

func resolveRef(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := b.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func siteRoot(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	u.Path, u.RawQuery, u.Fragment = "/", "", ""
	return u.String()
}

// canonicalHost is the domain a URL places the site on. A www prefix is not a
// separate site.
func canonicalHost(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
