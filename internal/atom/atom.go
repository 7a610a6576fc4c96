// package atom renders an AS1 activity as an Atom entry, the payload format
// for salmon delivery.
package atom

import (
	"encoding/xml"

	"github.com/fedbridge/fedbridge/internal/as1"
)

// ContentType is the media type of an Atom document.
const ContentType = "application/atom+xml"

type link struct {
	XMLName xml.Name `xml:"link"`
	Rel     string   `xml:"rel,attr"`
	Href    string   `xml:"href,attr"`
}

type author struct {
	XMLName xml.Name `xml:"author"`
	Name    string   `xml:"name,omitempty"`
	URI     string   `xml:"uri,omitempty"`
}

type content struct {
	XMLName xml.Name `xml:"content"`
	Type    string   `xml:"type,attr"`
	Body    string   `xml:",chardata"`
}

type inReplyTo struct {
	XMLName xml.Name `xml:"thr:in-reply-to"`
	Ref     string   `xml:"ref,attr"`
	Href    string   `xml:"href,attr,omitempty"`
}

type entry struct {
	XMLName   xml.Name    `xml:"entry"`
	NS        string      `xml:"xmlns,attr"`
	NSThr     string      `xml:"xmlns:thr,attr,omitempty"`
	NSAct     string      `xml:"xmlns:activity,attr,omitempty"`
	Base      string      `xml:"xml:base,attr,omitempty"`
	ID        string      `xml:"id"`
	Title     string      `xml:"title"`
	Published string      `xml:"published,omitempty"`
	Verb      string      `xml:"activity:verb,omitempty"`
	Author    *author     `xml:"author,omitempty"`
	Content   *content    `xml:"content,omitempty"`
	InReplyTo []inReplyTo `xml:"thr:in-reply-to,omitempty"`
	Links     []link      `xml:"link,omitempty"`
}

// FromAS1 renders the activity as a standalone Atom entry. base is the URL
// relative references resolve against, normally the source post itself.
func FromAS1(obj map[string]any, base string) ([]byte, error) {
	e := entry{
		NS:   "http://www.w3.org/2005/Atom",
		Base: base,
	}
	if id, ok := obj["id"].(string); ok && id != "" {
		e.ID = id
	} else if u, ok := obj["url"].(string); ok {
		e.ID = u
	}
	e.Title = title(obj)
	if published, ok := obj["published"].(string); ok {
		e.Published = published
	}
	if verb := as1.Verb(obj); verb != "post" {
		e.NSAct = "http://activitystrea.ms/spec/1.0/"
		e.Verb = "http://activitystrea.ms/schema/1.0/" + verb
	}
	if c, ok := obj["content"].(string); ok && c != "" {
		e.Content = &content{Type: "html", Body: c}
	}
	if person, ok := obj["author"].(map[string]any); ok {
		a := &author{}
		a.Name, _ = person["displayName"].(string)
		a.URI, _ = person["url"].(string)
		e.Author = a
	}

	ids := as1.IDs(obj, "inReplyTo")
	urls := as1.URLs(obj, "inReplyTo")
	if as1.VerbsWithObject[as1.Verb(obj)] {
		ids = as1.IDs(obj, "object")
		urls = as1.URLs(obj, "object")
	}
	e.NSThr = "http://purl.org/syndication/thread/1.0"
	for i, id := range ids {
		ref := inReplyTo{Ref: id}
		if i < len(urls) {
			ref.Href = urls[i]
		}
		e.InReplyTo = append(e.InReplyTo, ref)
	}

	for _, mention := range as1.Mentions(obj) {
		e.Links = append(e.Links, link{Rel: "mentioned", Href: mention})
	}

	body, err := xml.MarshalIndent(&e, "", " ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func title(obj map[string]any) string {
	if name, ok := obj["displayName"].(string); ok && name != "" {
		return name
	}
	if id, ok := obj["id"].(string); ok {
		return id
	}
	return "untitled"
}
