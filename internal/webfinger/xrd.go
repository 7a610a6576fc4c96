package webfinger

import "encoding/xml"

// XRDContentType is the media type of the XML rendering.
const XRDContentType = "application/xrd+xml"

// JRDContentType is the media type of the JSON rendering.
const JRDContentType = "application/jrd+json"

type xrdLink struct {
	XMLName  xml.Name `xml:"Link"`
	Rel      string   `xml:"rel,attr,omitempty"`
	Type     string   `xml:"type,attr,omitempty"`
	Href     string   `xml:"href,attr,omitempty"`
	Template string   `xml:"template,attr,omitempty"`
}

type xrd struct {
	XMLName xml.Name  `xml:"XRD"`
	XMLNS   string    `xml:"xmlns,attr"`
	Subject string    `xml:"Subject,omitempty"`
	Aliases []string  `xml:"Alias,omitempty"`
	Links   []xrdLink `xml:"Link"`
}

// XRD renders the resource as an XRD document, the XML flavour of a WebFinger
// response.
func (r *Resource) XRD() ([]byte, error) {
	doc := xrd{
		XMLNS:   "http://docs.oasis-open.org/ns/xri/xrd-1.0",
		Subject: r.Subject,
		Aliases: r.Aliases,
	}
	for _, link := range r.Links {
		doc.Links = append(doc.Links, xrdLink{
			Rel:      link.Rel,
			Type:     link.Type,
			Href:     link.Href,
			Template: link.Template,
		})
	}
	body, err := xml.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
