package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Identity is a resolved indie-web site: the discovery snapshot the
// webfinger responder serves, keyed by the queried domain.
type Identity struct {
	Domain string `gorm:"primarykey;size:253"`
	// CanonicalDomain is the domain the site says it lives on, which may
	// differ from Domain when the query used a www alias or a custom
	// subdomain.
	CanonicalDomain string `gorm:"size:253;not null"`
	// CanonicalURL is the profile page the discovery snapshot was built
	// from, after following redirects.
	CanonicalURL string `gorm:"size:1024;not null"`
	// Actor is the ActivityPub actor document synthesised from the site's
	// representative h-card.
	Actor     map[string]any `gorm:"serializer:json"`
	UpdatedAt time.Time
}

type Identities struct {
	db *gorm.DB
}

func NewIdentities(db *gorm.DB) *Identities {
	return &Identities{db: db}
}

func (i *Identities) Find(domain string) (*Identity, error) {
	var identity Identity
	if err := i.db.Take(&identity, "domain = ?", domain).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// Replace stores the latest discovery snapshot for the identity's domain,
// overwriting any previous one.
func (i *Identities) Replace(identity *Identity) error {
	return i.db.Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(identity).Error
}
