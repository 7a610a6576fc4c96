package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMagicKeyGetOrCreate(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	keys := NewMagicKeys(tx)

	key, err := keys.GetOrCreate("a.example")
	require.NoError(err)
	require.NotEmpty(key.PublicKey)
	require.NotEmpty(key.PrivateKey)

	// the same domain gets the same key back
	again, err := keys.GetOrCreate("a.example")
	require.NoError(err)
	require.Equal(key.PublicKey, again.PublicKey)
	require.Equal(key.PrivateKey, again.PrivateKey)

	// a different domain gets its own key
	other, err := keys.GetOrCreate("b.example")
	require.NoError(err)
	require.NotEqual(key.PublicKey, other.PublicKey)
}

func TestMagicKeyEncoding(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	key, err := NewMagicKeys(tx).GetOrCreate("a.example")
	require.NoError(err)

	magic, err := key.MagicKey()
	require.NoError(err)
	require.True(strings.HasPrefix(magic, "RSA."))
	require.Len(strings.Split(magic, "."), 3)

	href, err := key.Href()
	require.NoError(err)
	require.Equal("data:application/magic-public-key,"+magic, href)

	require.Equal("https://bridge.example/a.example#key", key.KeyID("https://bridge.example"))

	priv, err := key.RSAPrivateKey()
	require.NoError(err)
	require.NotNil(priv)
}
