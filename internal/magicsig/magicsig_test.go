package magicsig

import (
	"strings"
	"testing"

	"github.com/fedbridge/fedbridge/internal/crypto"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	require := require.New(t)

	kp, err := crypto.GenerateRSAKeypair()
	require.NoError(err)
	pub, priv, err := crypto.ParseRSAPrivateKey(kp.PrivateKey)
	require.NoError(err)

	payload := []byte(`<entry xmlns="http://www.w3.org/2005/Atom"><id>tag:a.example,2017:1</id></entry>`)
	env, err := Envelope(payload, "application/atom+xml", priv)
	require.NoError(err)

	s := string(env)
	require.Contains(s, `xmlns:me="http://salmon-protocol.org/ns/magic-env"`)
	require.Contains(s, `type="application/atom+xml"`)
	require.Contains(s, "<me:encoding>base64url</me:encoding>")
	require.Contains(s, "<me:alg>RSA-SHA256</me:alg>")

	opened, err := Open(env, pub)
	require.NoError(err)
	require.Equal(payload, opened)
}

func TestOpenRejectsTamperedData(t *testing.T) {
	require := require.New(t)

	kp, err := crypto.GenerateRSAKeypair()
	require.NoError(err)
	pub, priv, err := crypto.ParseRSAPrivateKey(kp.PrivateKey)
	require.NoError(err)

	env, err := Envelope([]byte("<entry/>"), "application/atom+xml", priv)
	require.NoError(err)

	tampered := strings.Replace(string(env), "<me:alg>RSA-SHA256</me:alg>", "<me:alg>RSA-SHA256</me:alg><!-- -->", 1)
	// flip a byte of the armored payload
	tampered = strings.Replace(tampered, `type="application/atom+xml">`, `type="application/atom+xml">AAAA`, 1)
	_, err = Open([]byte(tampered), pub)
	require.Error(err)
}
