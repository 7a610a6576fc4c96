// package as1 holds the bridge's internal activity representation: a loosely
// typed ActivityStreams 1 object built from a microformats2 entry, plus the
// conversions out to ActivityPub's AS2 JSON.
package as1

import (
	"strings"

	"github.com/fedbridge/fedbridge/internal/mf2"
	"willnorris.com/go/microformats"
)

// VerbsWithObject are the verbs whose target lives in the activity's object
// reference rather than inReplyTo.
var VerbsWithObject = map[string]bool{
	"favorite":        true,
	"like":            true,
	"react":           true,
	"rsvp-interested": true,
	"rsvp-maybe":      true,
	"rsvp-no":         true,
	"rsvp-yes":        true,
	"share":           true,
	"tag":             true,
}

// ObjectFromEntry converts a parsed h-entry to an AS1 object.
func ObjectFromEntry(entry *microformats.Microformat) map[string]any {
	obj := map[string]any{
		"objectType": "note",
	}
	if urls := mf2.Strings(entry, "url"); len(urls) > 0 {
		obj["id"] = urls[0]
		obj["url"] = urls[0]
	}
	if name := mf2.String(entry, "name"); name != "" {
		obj["displayName"] = name
	}
	if content := mf2.HTML(entry, "content"); content != "" {
		obj["content"] = content
	}
	if published := mf2.String(entry, "published"); published != "" {
		obj["published"] = published
	}

	switch {
	case len(mf2.Strings(entry, "like-of")) > 0:
		obj["verb"] = "like"
		obj["object"] = refs(mf2.Strings(entry, "like-of"))
	case len(mf2.Strings(entry, "repost-of")) > 0:
		obj["verb"] = "share"
		obj["object"] = refs(mf2.Strings(entry, "repost-of"))
	default:
		obj["verb"] = "post"
		if inReplyTo := mf2.Strings(entry, "in-reply-to"); len(inReplyTo) > 0 {
			obj["inReplyTo"] = refs(inReplyTo)
		}
	}

	if author := mf2.Card(entry, "author"); author != nil {
		person := map[string]any{
			"objectType": "person",
		}
		if name := mf2.String(author, "name"); name != "" {
			person["displayName"] = name
		}
		if u := mf2.String(author, "url"); u != "" {
			person["url"] = u
		}
		if photo := mf2.String(author, "photo"); photo != "" {
			person["image"] = map[string]any{"url": photo}
		}
		obj["author"] = person
	}
	return obj
}

func refs(urls []string) []any {
	out := make([]any, 0, len(urls))
	for _, u := range urls {
		out = append(out, map[string]any{"url": u})
	}
	return out
}

// Verb returns the activity's verb, defaulting to post.
func Verb(obj map[string]any) string {
	if v, ok := obj["verb"].(string); ok && v != "" {
		return v
	}
	return "post"
}

// URLs returns the URLs of the given reference field. Each reference may be
// a bare string or an object carrying url/id.
func URLs(obj map[string]any, field string) []string {
	var out []string
	for _, ref := range refsOf(obj[field]) {
		switch ref := ref.(type) {
		case string:
			out = append(out, ref)
		case map[string]any:
			if u, ok := ref["url"].(string); ok && u != "" {
				out = append(out, u)
			} else if id, ok := ref["id"].(string); ok && id != "" {
				out = append(out, id)
			}
		}
	}
	return out
}

// IDs returns the stable identifiers of the given reference field, preferring
// a spliced id over the raw url.
func IDs(obj map[string]any, field string) []string {
	var out []string
	for _, ref := range refsOf(obj[field]) {
		switch ref := ref.(type) {
		case string:
			out = append(out, ref)
		case map[string]any:
			if id, ok := ref["id"].(string); ok && id != "" {
				out = append(out, id)
			} else if u, ok := ref["url"].(string); ok && u != "" {
				out = append(out, u)
			}
		}
	}
	return out
}

func refsOf(v any) []any {
	switch v := v.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

// SpliceID records the stable remote id for the reference matching targetURL,
// so that the outgoing activity references an id rather than a bare URL.
func SpliceID(obj map[string]any, targetURL, id string) {
	if irt, ok := obj["inReplyTo"].([]any); ok && len(irt) > 0 {
		for _, ref := range irt {
			if m, ok := ref.(map[string]any); ok && m["url"] == targetURL {
				m["id"] = id
			}
		}
		return
	}
	switch object := obj["object"].(type) {
	case map[string]any:
		object["id"] = id
	case []any:
		for _, ref := range object {
			if m, ok := ref.(map[string]any); ok && (m["url"] == targetURL || len(object) == 1) {
				m["id"] = id
			}
		}
	}
}

// AddMention appends a mention of the given profile URL to the activity's
// tags. Some servers require an explicit mention of the original author for a
// reply to thread correctly.
func AddMention(obj map[string]any, profileURL string) {
	tags, _ := obj["tags"].([]any)
	obj["tags"] = append(tags, map[string]any{"url": profileURL})
}

// Mentions returns the profile URLs mentioned by the activity.
func Mentions(obj map[string]any) []string {
	return URLs(obj, "tags")
}

// ToAS2 converts an AS1 object to an outgoing AS2 activity attributed to the
// given actor id.
func ToAS2(obj map[string]any, actor string) map[string]any {
	id, _ := obj["id"].(string)
	url, _ := obj["url"].(string)
	if id == "" {
		id = url
	}

	switch Verb(obj) {
	case "like", "favorite", "react":
		return map[string]any{
			"@context": "https://www.w3.org/ns/activitystreams",
			"type":     "Like",
			"id":       fragment(id, "like"),
			"actor":    actor,
			"object":   first(IDs(obj, "object")),
		}
	case "share":
		return map[string]any{
			"@context": "https://www.w3.org/ns/activitystreams",
			"type":     "Announce",
			"id":       fragment(id, "share"),
			"actor":    actor,
			"object":   first(IDs(obj, "object")),
		}
	}

	note := map[string]any{
		"type":         "Note",
		"id":           id,
		"url":          url,
		"attributedTo": actor,
	}
	if content, ok := obj["content"].(string); ok && content != "" {
		note["content"] = content
	}
	if name, ok := obj["displayName"].(string); ok && name != "" {
		note["name"] = name
	}
	if published, ok := obj["published"].(string); ok && published != "" {
		note["published"] = published
	}
	if inReplyTo := IDs(obj, "inReplyTo"); len(inReplyTo) > 0 {
		note["inReplyTo"] = first(inReplyTo)
	}
	if mentions := Mentions(obj); len(mentions) > 0 {
		var tags []any
		for _, m := range mentions {
			tags = append(tags, map[string]any{"type": "Mention", "href": m})
		}
		note["tag"] = tags
	}
	return map[string]any{
		"@context": "https://www.w3.org/ns/activitystreams",
		"type":     "Create",
		"id":       fragment(id, "activity"),
		"actor":    actor,
		"object":   note,
	}
}

// ActorFromCard converts a representative h-card to an AS2 actor published
// under the bridge's own namespace for the given domain.
func ActorFromCard(card *microformats.Microformat, baseURL, domain string) map[string]any {
	actor := map[string]any{
		"@context":          []any{"https://www.w3.org/ns/activitystreams", "https://w3id.org/security/v1"},
		"type":              "Person",
		"id":                baseURL + domain,
		"preferredUsername": domain,
		"inbox":             baseURL + domain + "/inbox",
		"outbox":            baseURL + domain + "/outbox",
		"endpoints": map[string]any{
			"sharedInbox": baseURL + "inbox",
		},
	}
	if urls := mf2.Strings(card, "url"); len(urls) > 0 {
		actor["url"] = urls[0]
	}
	if name := mf2.String(card, "name"); name != "" {
		actor["name"] = name
	} else {
		actor["name"] = domain
	}
	if note := mf2.String(card, "note"); note != "" {
		actor["summary"] = note
	}
	if photo := mf2.String(card, "photo"); photo != "" {
		actor["icon"] = map[string]any{"type": "Image", "url": photo}
	}
	return actor
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func fragment(id, frag string) string {
	if id == "" {
		return ""
	}
	if strings.Contains(id, "#") {
		return id
	}
	return id + "#" + frag
}
