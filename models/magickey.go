package models

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"math/big"

	"github.com/fedbridge/fedbridge/internal/crypto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MagicKey is the RSA keypair minted for a bridged domain, advertised as a
// magic public key in webfinger responses and used to sign both salmon
// envelopes and ActivityPub requests.
type MagicKey struct {
	Domain     string `gorm:"primarykey;size:253"`
	PublicKey  []byte `gorm:"not null"`
	PrivateKey []byte `gorm:"not null"`
}

// RSAPrivateKey parses the stored PEM private key.
func (k *MagicKey) RSAPrivateKey() (*rsa.PrivateKey, error) {
	_, priv, err := crypto.ParseRSAPrivateKey(k.PrivateKey)
	return priv, err
}

// MagicKey returns the public key in the magic signatures wire format,
// RSA.<modulus>.<exponent> with base64url components.
func (k *MagicKey) MagicKey() (string, error) {
	pub, err := crypto.ParseRSAPublicKey(k.PublicKey)
	if err != nil {
		return "", err
	}
	n := base64.URLEncoding.EncodeToString(pub.N.Bytes())
	e := base64.URLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	return "RSA." + n + "." + e, nil
}

// Href returns the magic key as a data: URI, the form webfinger links use.
func (k *MagicKey) Href() (string, error) {
	key, err := k.MagicKey()
	if err != nil {
		return "", err
	}
	return "data:application/magic-public-key," + key, nil
}

// KeyID is the identifier outbound HTTP signatures are attributed to.
func (k *MagicKey) KeyID(baseURL string) string {
	return baseURL + "/" + k.Domain + "#key"
}

type MagicKeys struct {
	db *gorm.DB
}

func NewMagicKeys(db *gorm.DB) *MagicKeys {
	return &MagicKeys{db: db}
}

// GetOrCreate returns the domain's keypair, minting one on first use. The
// same domain always gets the same key back.
func (m *MagicKeys) GetOrCreate(domain string) (*MagicKey, error) {
	var key MagicKey
	err := m.db.Take(&key, "domain = ?", domain).Error
	if err == nil {
		return &key, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	kp, err := crypto.GenerateRSAKeypair()
	if err != nil {
		return nil, err
	}
	key = MagicKey{
		Domain:     domain,
		PublicKey:  kp.PublicKey,
		PrivateKey: kp.PrivateKey,
	}
	// a concurrent request may have minted a key first; keep theirs
	err = m.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&key).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	if err := m.db.Take(&key, "domain = ?", domain).Error; err != nil {
		return nil, err
	}
	return &key, nil
}
