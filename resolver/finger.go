package resolver

import (
	"github.com/fedbridge/fedbridge/internal/algorithms"
	"github.com/fedbridge/fedbridge/internal/atom"
	"github.com/fedbridge/fedbridge/internal/mf2"
	"github.com/fedbridge/fedbridge/internal/webfinger"
	"github.com/fedbridge/fedbridge/models"
)

// Finger builds the webfinger discovery document for a resolved identity.
// The document carries both the ActivityPub rels and the OStatus ones, so
// that either kind of server can subscribe.
func (r *Resolver) Finger(res *Resolution, key *models.MagicKey) (*webfinger.Resource, error) {
	magic, err := key.MagicKey()
	if err != nil {
		return nil, err
	}
	href, err := key.Href()
	if err != nil {
		return nil, err
	}

	acct := webfinger.Acct{User: res.Domain, Host: res.Domain}
	actorURL := r.BaseURL + "/" + res.Domain

	doc := &webfinger.Resource{
		Subject: acct.String(),
		Aliases: algorithms.Dedupe(append(
			[]string{res.CanonicalURL},
			mf2.Strings(res.Card, "url")...,
		)),
		MagicKeys: []webfinger.MagicKey{{Value: magic}},
		Links: []webfinger.Link{
			{Rel: webfinger.RelProfilePage, Type: "text/html", Href: res.CanonicalURL},
			{Rel: webfinger.RelCanonical, Type: "text/html", Href: res.CanonicalURL},
			{Rel: webfinger.RelAvatar, Href: mf2.String(res.Card, "photo")},
			{Rel: webfinger.RelSelf, Type: "application/activity+json", Href: actorURL},
			{Rel: webfinger.RelInbox, Type: "application/activity+json", Href: actorURL + "/inbox"},
			{Rel: webfinger.RelSharedInbox, Type: "application/activity+json", Href: r.BaseURL + "/inbox"},
			{Rel: webfinger.RelUpdatesFrom, Type: atom.ContentType, Href: res.AtomURL},
			{Rel: "hub", Href: res.HubURL},
			{Rel: webfinger.RelMagicKey, Href: href},
			{Rel: webfinger.RelSalmon, Href: actorURL + "/salmon"},
			{Rel: webfinger.RelSalmonReplies, Href: actorURL + "/salmon"},
			{Rel: webfinger.RelSubscribe, Template: r.BaseURL + "/subscribe?url={uri}"},
		},
	}
	doc.TrimNulls()
	return doc, nil
}
