package webmention

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fedbridge/fedbridge/internal/as1"
	"github.com/fedbridge/fedbridge/internal/atom"
	"github.com/fedbridge/fedbridge/internal/fetch"
	"github.com/fedbridge/fedbridge/internal/httpx"
	"github.com/fedbridge/fedbridge/internal/magicsig"
	"github.com/fedbridge/fedbridge/internal/webfinger"
	"github.com/fedbridge/fedbridge/models"
	"github.com/go-json-experiment/json"
	gofeedatom "github.com/mmcdole/gofeed/atom"
	"golang.org/x/exp/slog"
)

// skipEmailDomains are author address hosts that can never resolve to a real
// salmon endpoint.
var skipEmailDomains = map[string]bool{
	"localhost":   true,
	"example.com": true,
}

// deliverSalmon delivers the mention's activity to a target that serves
// plain HTML, over the OStatus salmon protocol: find the target's Atom feed,
// splice the target entry's stable id into the activity, and POST a signed
// magic envelope to the target's salmon endpoint. Returns the endpoint's
// response.
func (m *mention) deliverSalmon(ctx context.Context, target string, targetResp *fetch.Response) (*fetch.Response, error) {
	deliveries := models.NewDeliveries(m.env.DB)
	row, err := deliveries.GetOrCreate(&models.Delivery{
		Source:    m.source,
		Target:    target,
		Direction: models.DirectionOut,
		Protocol:  models.ProtocolOStatus,
	})
	if err != nil {
		return nil, err
	}
	row.SourceEntry = m.entry
	row.Status = models.DeliveryStatusError
	defer func() {
		if err := deliveries.Update(row); err != nil {
			m.log.Error("could not record salmon delivery", err, slog.String("target", target))
		}
	}()

	if targetResp == nil || !targetResp.IsHTML() {
		targetResp, err = fetch.HTML(ctx, target)
		if err != nil {
			return nil, translate(err)
		}
	}

	feedURL, err := findFeedURL(targetResp)
	if err != nil {
		return nil, httpx.Error(http.StatusBadGateway, err)
	}
	feedResp, err := fetch.Get(ctx, feedURL, atom.ContentType)
	if err != nil {
		return nil, translate(err)
	}
	if !feedResp.OK() {
		return nil, httpx.Error(http.StatusBadGateway, fmt.Errorf("feed %s returned %d", feedURL, feedResp.StatusCode))
	}
	feed, err := (&gofeedatom.Parser{}).Parse(strings.NewReader(feedResp.Body))
	if err != nil {
		return nil, httpx.Error(http.StatusBadGateway, fmt.Errorf("parse feed %s: %w", feedURL, err))
	}

	entry := findEntry(feed, target)
	if entry != nil {
		if entry.ID != "" {
			// reference the remote's stable id, not the page URL
			as1.SpliceID(m.obj, target, entry.ID)
		}
		if len(entry.Authors) > 0 && entry.Authors[0].URI != "" {
			as1.AddMention(m.obj, entry.Authors[0].URI)
		}
	}

	endpoint := feedRel(feed, webfinger.RelSalmon, webfinger.RelSalmonReplies)
	if endpoint == "" {
		endpoint, err = m.salmonEndpointViaWebfinger(ctx, target, entry)
		if err != nil {
			return nil, err
		}
	}
	if endpoint == "" {
		return nil, httpx.Error(http.StatusBadGateway, fmt.Errorf("no salmon endpoint for %s", target))
	}
	endpoint = resolveURL(feedResp.URL, endpoint)

	entryXML, err := atom.FromAS1(m.obj, m.source)
	if err != nil {
		return nil, err
	}
	envelope, err := magicsig.Envelope(entryXML, atom.ContentType, m.priv)
	if err != nil {
		return nil, err
	}

	m.log.Info("delivering salmon", slog.String("endpoint", endpoint), slog.String("target", target))
	resp, err := fetch.Post(ctx, endpoint, magicsig.ContentType, envelope)
	if err != nil {
		return nil, translate(err)
	}
	if !resp.OK() {
		return nil, httpx.Error(http.StatusBadGateway, fmt.Errorf("salmon endpoint %s returned %d", endpoint, resp.StatusCode))
	}
	row.Status = models.DeliveryStatusComplete
	return resp, nil
}

// findFeedURL locates the Atom feed a target page advertises. A <base>
// element on the page shifts what relative hrefs resolve against.
func findFeedURL(resp *fetch.Response) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return "", err
	}
	base := resp.URL
	if href, ok := doc.Find("base").Attr("href"); ok && href != "" {
		base = resolveURL(resp.URL, href)
	}
	if href, ok := doc.Find(`link[rel~='alternate'][type^='application/atom+xml']`).Attr("href"); ok && href != "" {
		return resolveURL(base, href), nil
	}
	return "", fmt.Errorf("no atom feed on %s", resp.URL)
}

// findEntry returns the feed entry for the target page: the entry that links
// to it, falling back to the feed's first entry.
func findEntry(feed *gofeedatom.Feed, target string) *gofeedatom.Entry {
	for _, entry := range feed.Entries {
		if urlsEqual(entry.ID, target) {
			return entry
		}
		for _, link := range entry.Links {
			if urlsEqual(link.Href, target) {
				return entry
			}
		}
	}
	if len(feed.Entries) > 0 {
		return feed.Entries[0]
	}
	return nil
}

func feedRel(feed *gofeedatom.Feed, rels ...string) string {
	for _, link := range feed.Links {
		for _, rel := range rels {
			if link.Rel == rel && link.Href != "" {
				return link.Href
			}
		}
	}
	return ""
}

// salmonEndpointViaWebfinger discovers the salmon endpoint through the target
// author's webfinger document, when the feed itself does not advertise one.
// The author's address comes from their feed entry: their email, their name
// when it looks like an address, or their name at the target's own host. The
// lookup is made against the target's host, which is where the endpoint
// would live.
func (m *mention) salmonEndpointViaWebfinger(ctx context.Context, target string, entry *gofeedatom.Entry) (string, error) {
	tu, err := url.Parse(target)
	if err != nil {
		return "", nil
	}

	addr := ""
	if entry != nil && len(entry.Authors) > 0 {
		author := entry.Authors[0]
		switch {
		case strings.Contains(author.Email, "@"):
			addr = author.Email
		case strings.Contains(author.Name, "@"):
			addr = author.Name
		case author.Name != "":
			addr = author.Name + "@" + tu.Host
		}
	}
	if addr == "" {
		return "", nil
	}
	acct, err := webfinger.Parse(addr)
	if err != nil {
		return "", nil
	}
	if skipEmailDomains[acct.Host] {
		return "", nil
	}

	lookup := tu.Scheme + "://" + tu.Host + "/.well-known/webfinger?resource=" + url.QueryEscape(acct.String())
	resp, err := fetch.Get(ctx, lookup, webfinger.JRDContentType)
	if err != nil {
		return "", translate(err)
	}
	if !resp.OK() {
		return "", nil
	}
	var doc webfinger.Resource
	if err := json.Unmarshal([]byte(resp.Body), &doc); err != nil {
		return "", nil
	}
	return doc.Rel(webfinger.RelSalmon, webfinger.RelSalmonReplies), nil
}

func resolveURL(base, ref string) string {
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

func urlsEqual(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
