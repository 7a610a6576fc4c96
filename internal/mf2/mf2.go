// package mf2 wraps the microformats2 parser and implements the heuristics
// the bridge needs on top of the raw property tree: locating a page's
// representative h-card and its first h-entry.
package mf2

import (
	"net/url"
	"strings"

	"github.com/go-json-experiment/json"
	"willnorris.com/go/microformats"
)

// Parse parses the microformats2 tree of an HTML document. pageURL must be
// the final URL the document was fetched from; relative URLs in the tree are
// resolved against it.
func Parse(body, pageURL string) *microformats.Data {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = nil
	}
	return microformats.Parse(strings.NewReader(body), u)
}

// RepresentativeCard returns the h-card that identifies the page itself, per
// the representative h-card heuristic: an h-card whose declared url matches
// the page URL, else the sole h-card on the page, else an h-card whose url is
// on the page's own host. Returns nil if the page has no representative card.
func RepresentativeCard(data *microformats.Data, pageURL string) *microformats.Microformat {
	cards := collect(data.Items, "h-card")
	if len(cards) == 0 {
		return nil
	}
	for _, card := range cards {
		for _, u := range Strings(card, "url") {
			if urlsEqual(u, pageURL) {
				return card
			}
		}
	}
	if len(cards) == 1 {
		return cards[0]
	}
	if page, err := url.Parse(pageURL); err == nil {
		for _, card := range cards {
			for _, u := range Strings(card, "url") {
				if cu, err := url.Parse(u); err == nil && cu.Host == page.Host {
					return card
				}
			}
		}
	}
	return nil
}

// FindFirstEntry returns the first item of the given type, eg h-entry, in
// document order, descending into children.
func FindFirstEntry(data *microformats.Data, typ string) *microformats.Microformat {
	items := collect(data.Items, typ)
	if len(items) == 0 {
		return nil
	}
	return items[0]
}

func collect(items []*microformats.Microformat, typ string) []*microformats.Microformat {
	var out []*microformats.Microformat
	for _, item := range items {
		if hasType(item, typ) {
			out = append(out, item)
		}
		out = append(out, collect(item.Children, typ)...)
	}
	return out
}

func hasType(item *microformats.Microformat, typ string) bool {
	for _, t := range item.Type {
		if t == typ {
			return true
		}
	}
	return false
}

// String returns the first plain-string value of the given property.
func String(item *microformats.Microformat, prop string) string {
	values := Strings(item, prop)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Strings returns the plain-string values of the given property. Nested
// microformats and e-* values contribute their "value".
func Strings(item *microformats.Microformat, prop string) []string {
	var out []string
	for _, v := range item.Properties[prop] {
		if s := stringValue(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HTML returns the html rendering of the given e-* property, falling back to
// its plain value.
func HTML(item *microformats.Microformat, prop string) string {
	for _, v := range item.Properties[prop] {
		switch v := v.(type) {
		case map[string]string:
			if v["html"] != "" {
				return v["html"]
			}
			return v["value"]
		case map[string]interface{}:
			if s, ok := v["html"].(string); ok && s != "" {
				return s
			}
			if s, ok := v["value"].(string); ok {
				return s
			}
		}
	}
	return String(item, prop)
}

// Card returns the first nested microformat value of the given property, eg
// an author h-card embedded in an h-entry.
func Card(item *microformats.Microformat, prop string) *microformats.Microformat {
	for _, v := range item.Properties[prop] {
		if mf, ok := v.(*microformats.Microformat); ok {
			return mf
		}
	}
	return nil
}

func stringValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case map[string]string:
		return v["value"]
	case map[string]interface{}:
		if s, ok := v["value"].(string); ok {
			return s
		}
	case *microformats.Microformat:
		return v.Value
	}
	return ""
}

// ToMap converts a parsed tree to a plain map for persistence as a document
// snapshot.
func ToMap(data *microformats.Data) map[string]any {
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func urlsEqual(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}
