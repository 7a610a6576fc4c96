package wellknown

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fedbridge/fedbridge/internal/httpx"
	"github.com/fedbridge/fedbridge/internal/to"
	"github.com/fedbridge/fedbridge/internal/webfinger"
	"github.com/fedbridge/fedbridge/models"
	"github.com/fedbridge/fedbridge/resolver"
)

// Webfinger answers GET /.well-known/webfinger. The queried resource is
// normalised to a domain, the domain is resolved, and the discovery document
// is served as JRD or XRD depending on what the client asked for.
func Webfinger(env *Env, w http.ResponseWriter, r *http.Request) error {
	domain, hint, err := normalize(&env.Config, r.URL.Query().Get("resource"))
	if err != nil {
		return err
	}

	res := resolver.NewResolver(env.Env)
	resolution, err := res.ResolveFollow(r.Context(), domain, hint)
	if err != nil {
		return err
	}
	key, err := models.NewMagicKeys(env.DB).GetOrCreate(resolution.Domain)
	if err != nil {
		return err
	}
	doc, err := res.Finger(resolution, key)
	if err != nil {
		return err
	}

	if wantsXRD(r) {
		body, err := doc.XRD()
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", webfinger.XRDContentType)
		_, err = w.Write(body)
		return err
	}
	return to.JRD(w, doc)
}

// normalize turns a webfinger resource query into the domain to resolve and,
// when the query was a full URL, a fetch hint.
//
// Accepted forms: a bare domain, an acct: URI whose host (or, when the host
// is the bridge itself, whose user part) names the domain, and an http(s)
// URL. Queries for the bridge's own identity are rejected.
func normalize(cfg *models.Config, resource string) (domain, hint string, err error) {
	resource = strings.TrimSpace(resource)
	if resource == "" {
		return "", "", httpx.Error(http.StatusBadRequest, fmt.Errorf("resource parameter is required"))
	}

	switch {
	case strings.HasPrefix(resource, "http://"), strings.HasPrefix(resource, "https://"):
		u, uerr := url.Parse(resource)
		if uerr != nil || u.Hostname() == "" {
			return "", "", httpx.Error(http.StatusBadRequest, fmt.Errorf("invalid resource %q", resource))
		}
		if cfg.OwnDomain(u.Hostname()) {
			// a URL under the bridge's namespace names the bridged
			// domain in its path
			domain = strings.Trim(u.Path, "/")
		} else {
			domain, hint = u.Hostname(), resource
		}
	default:
		if acct, aerr := webfinger.Parse(resource); aerr == nil {
			if cfg.OwnDomain(acct.Host) {
				domain = acct.User
			} else {
				domain = acct.Host
			}
		} else {
			domain = strings.TrimPrefix(resource, "acct:")
		}
	}

	if domain == "" || cfg.OwnDomain(domain) {
		return "", "", httpx.Error(http.StatusBadRequest, fmt.Errorf("%q is not a bridged identity", resource))
	}
	// a resource that can never name a site is the client's mistake, not a
	// failed lookup
	if !resolver.IsDomain(domain) {
		return "", "", httpx.Error(http.StatusBadRequest, fmt.Errorf("%q is not a domain", domain))
	}
	return domain, hint, nil
}

func wantsXRD(r *http.Request) bool {
	if format := r.URL.Query().Get("format"); format != "" {
		return format == "xrd" || format == "xml"
	}
	return strings.Contains(r.Header.Get("Accept"), "xml")
}
