package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIdentityReplace(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	identities := NewIdentities(tx)

	_, err := identities.Find("a.example")
	require.ErrorIs(err, gorm.ErrRecordNotFound)

	err = identities.Replace(&Identity{
		Domain:          "a.example",
		CanonicalDomain: "a.example",
		CanonicalURL:    "https://a.example/",
		Actor:           map[string]any{"preferredUsername": "a.example"},
	})
	require.NoError(err)

	// a later resolve overwrites the snapshot
	err = identities.Replace(&Identity{
		Domain:          "a.example",
		CanonicalDomain: "www.a.example",
		CanonicalURL:    "https://www.a.example/",
		Actor:           map[string]any{"preferredUsername": "a.example", "name": "Alice"},
	})
	require.NoError(err)

	identity, err := identities.Find("a.example")
	require.NoError(err)
	require.Equal("www.a.example", identity.CanonicalDomain)
	require.Equal("https://www.a.example/", identity.CanonicalURL)
	require.Equal("Alice", identity.Actor["name"])
}
