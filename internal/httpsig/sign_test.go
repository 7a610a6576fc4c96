package httpsig

import (
	"net/http"
	"strings"
	"testing"

	"github.com/fedbridge/fedbridge/internal/crypto"
	"github.com/stretchr/testify/require"
)

func TestSignGET(t *testing.T) {
	require := require.New(t)

	kp, err := crypto.GenerateRSAKeypair()
	require.NoError(err)
	_, priv, err := crypto.ParseRSAPrivateKey(kp.PrivateKey)
	require.NoError(err)

	req, err := http.NewRequest("GET", "https://remote.example/actor", nil)
	require.NoError(err)
	req.Header.Set("Accept", "application/activity+json")

	err = Sign(req, "https://bridge.example/a.example#key", priv, nil)
	require.NoError(err)

	require.NotEmpty(req.Header.Get("Date"))
	sig := req.Header.Get("Signature")
	require.Contains(sig, `keyId="https://bridge.example/a.example#key"`)
	require.Contains(sig, `algorithm="rsa-sha256"`)
	require.Contains(sig, `headers="(request-target) host date accept"`)
}

func TestSignPOSTAddsDigest(t *testing.T) {
	require := require.New(t)

	kp, err := crypto.GenerateRSAKeypair()
	require.NoError(err)
	_, priv, err := crypto.ParseRSAPrivateKey(kp.PrivateKey)
	require.NoError(err)

	body := []byte(`{"type":"Create"}`)
	req, err := http.NewRequest("POST", "https://remote.example/inbox", strings.NewReader(string(body)))
	require.NoError(err)

	err = Sign(req, "https://bridge.example/a.example#key", priv, body)
	require.NoError(err)

	require.True(strings.HasPrefix(req.Header.Get("Digest"), "SHA-256="))
	require.Contains(req.Header.Get("Signature"), `headers="(request-target) date digest"`)
}
