// package webfinger implements the WebFinger discovery document described in
// RFC 7033, in both its JRD (JSON) and XRD (XML) renderings.
package webfinger

import (
	"fmt"
	"net/url"
	"strings"
)

// Well known link relations used by the bridge.
const (
	RelProfilePage = "http://webfinger.net/rel/profile-page"
	RelAvatar      = "http://webfinger.net/rel/avatar"
	RelCanonical   = "canonical_uri"
	RelSelf        = "self"
	RelInbox       = "inbox"
	RelSharedInbox = "sharedInbox"
	RelUpdatesFrom = "http://schemas.google.com/g/2010#updates-from"
	RelMagicKey    = "magic-public-key"
	RelSalmon      = "salmon"
	RelSubscribe   = "http://ostatus.org/schema/1.0/subscribe"

	// RelSalmonReplies is the legacy rel some servers use for their salmon
	// endpoint.
	RelSalmonReplies = "http://salmon-protocol.org/ns/salmon-replies"
)

// Resource is a WebFinger discovery document.
type Resource struct {
	Subject   string     `json:"subject,omitempty"`
	Aliases   []string   `json:"aliases,omitempty"`
	MagicKeys []MagicKey `json:"magic_keys,omitempty"`
	Links     []Link     `json:"links,omitempty"`
}

// MagicKey is a magic-signatures public key embedded in the document.
type MagicKey struct {
	Value string `json:"value,omitempty"`
}

// Link is a single entry in the document's ordered link list.
type Link struct {
	Rel      string `json:"rel,omitempty"`
	Type     string `json:"type,omitempty"`
	Href     string `json:"href,omitempty"`
	Template string `json:"template,omitempty"`
}

// Rel returns the href of the first link with the given rel, or the empty
// string.
func (r *Resource) Rel(rels ...string) string {
	for _, link := range r.Links {
		for _, rel := range rels {
			if link.Rel == rel && link.Href != "" {
				return link.Href
			}
		}
	}
	return ""
}

// TrimNulls removes links that carry neither an href nor a template, matching
// the convention that empty fields are trimmed before serialisation.
func (r *Resource) TrimNulls() {
	links := r.Links[:0]
	for _, link := range r.Links {
		if link.Href == "" && link.Template == "" {
			continue
		}
		links = append(links, link)
	}
	r.Links = links
}

// Acct is a parsed acct: URI.
type Acct struct {
	User string
	Host string
}

func (a *Acct) String() string {
	return "acct:" + a.User + "@" + a.Host
}

// Webfinger returns the URL for the webfinger resource for this Acct.
func (a *Acct) Webfinger() string {
	return "https://" + a.Host + "/.well-known/webfinger?resource=" + url.QueryEscape(a.String())
}

// Parse parses an acct: URI of the form acct:user@host. The scheme and a
// leading @ on the user part are optional.
func Parse(resource string) (*Acct, error) {
	s := strings.TrimPrefix(resource, "acct:")
	s = strings.TrimPrefix(s, "@")
	parts := strings.SplitN(s, "@", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid acct: %q", resource)
	}
	return &Acct{
		User: parts[0],
		Host: parts[1],
	}, nil
}
