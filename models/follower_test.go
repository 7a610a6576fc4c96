package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActiveInboxesPrefersSharedInbox(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	MockFollower(t, tx, "a.example", "https://remote.example/users/1", "https://remote.example/users/1/inbox", "https://remote.example/inbox")
	MockFollower(t, tx, "a.example", "https://other.example/users/2", "https://other.example/users/2/inbox", "")

	inboxes, err := NewFollowers(tx).ActiveInboxes("a.example")
	require.NoError(err)
	require.Equal([]string{
		"https://other.example/users/2/inbox",
		"https://remote.example/inbox",
	}, inboxes)
}

func TestActiveInboxesDeduplicates(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	// two followers on the same server share an inbox
	MockFollower(t, tx, "a.example", "https://remote.example/users/1", "https://remote.example/users/1/inbox", "https://remote.example/inbox")
	MockFollower(t, tx, "a.example", "https://remote.example/users/2", "https://remote.example/users/2/inbox", "https://remote.example/inbox")

	inboxes, err := NewFollowers(tx).ActiveInboxes("a.example")
	require.NoError(err)
	require.Equal([]string{"https://remote.example/inbox"}, inboxes)
}

func TestActiveInboxesSkipsUnfollowed(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	followers := NewFollowers(tx)
	MockFollower(t, tx, "a.example", "https://remote.example/users/1", "", "https://remote.example/inbox")
	require.NoError(followers.Unfollow("a.example", "https://remote.example/users/1"))

	inboxes, err := followers.ActiveInboxes("a.example")
	require.NoError(err)
	require.Empty(inboxes)

	// following again reactivates the row
	MockFollower(t, tx, "a.example", "https://remote.example/users/1", "", "https://remote.example/inbox")
	inboxes, err = followers.ActiveInboxes("a.example")
	require.NoError(err)
	require.Equal([]string{"https://remote.example/inbox"}, inboxes)
}

func TestActiveInboxesScopedToDomain(t *testing.T) {
	require := require.New(t)
	tx := setupTestDB(t).Begin()
	defer tx.Rollback()

	MockFollower(t, tx, "a.example", "https://remote.example/users/1", "", "https://remote.example/inbox")
	MockFollower(t, tx, "b.example", "https://other.example/users/2", "https://other.example/users/2/inbox", "")

	inboxes, err := NewFollowers(tx).ActiveInboxes("a.example")
	require.NoError(err)
	require.Equal([]string{"https://remote.example/inbox"}, inboxes)
}
