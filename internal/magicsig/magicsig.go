// package magicsig implements the magic signatures envelope ("magic
// envelope") used by the salmon protocol.
//
// http://salmon-protocol.googlecode.com/svn/trunk/draft-panzer-magicsig-01.html
package magicsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
)

// ContentType is the media type a magic envelope is POSTed with.
const ContentType = "application/magic-envelope+xml"

const (
	encoding  = "base64url"
	algorithm = "RSA-SHA256"
	namespace = "http://salmon-protocol.org/ns/magic-env"
)

type envelope struct {
	XMLName  xml.Name `xml:"me:env"`
	NS       string   `xml:"xmlns:me,attr"`
	Data     data     `xml:"me:data"`
	Encoding string   `xml:"me:encoding"`
	Alg      string   `xml:"me:alg"`
	Sig      string   `xml:"me:sig"`
}

type data struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// Envelope signs the given payload with the key and wraps it in a magic
// envelope.
func Envelope(payload []byte, mediaType string, key *rsa.PrivateKey) ([]byte, error) {
	armored := base64.URLEncoding.EncodeToString(payload)
	digest := sha256.Sum256([]byte(signingBase(armored, mediaType)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, err
	}

	env := envelope{
		NS: namespace,
		Data: data{
			Type:  mediaType,
			Value: armored,
		},
		Encoding: encoding,
		Alg:      algorithm,
		Sig:      base64.URLEncoding.EncodeToString(sig),
	}
	body, err := xml.MarshalIndent(&env, "", " ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Open verifies a magic envelope against the given public key and returns the
// decoded payload.
func Open(body []byte, pub *rsa.PublicKey) ([]byte, error) {
	var env struct {
		Data struct {
			Type  string `xml:"type,attr"`
			Value string `xml:",chardata"`
		} `xml:"data"`
		Encoding string `xml:"encoding"`
		Alg      string `xml:"alg"`
		Sig      string `xml:"sig"`
	}
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, err
	}
	if env.Encoding != encoding || env.Alg != algorithm {
		return nil, fmt.Errorf("unsupported envelope: encoding %q, alg %q", env.Encoding, env.Alg)
	}
	sig, err := base64.URLEncoding.DecodeString(env.Sig)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256([]byte(signingBase(env.Data.Value, env.Data.Type)))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return nil, err
	}
	return base64.URLEncoding.DecodeString(env.Data.Value)
}

// signingBase is the string the signature covers: the armored data plus the
// armored media type, encoding, and algorithm, joined by periods.
func signingBase(armored, mediaType string) string {
	b64 := func(s string) string {
		return base64.URLEncoding.EncodeToString([]byte(s))
	}
	return armored + "." + b64(mediaType) + "." + b64(encoding) + "." + b64(algorithm)
}
