package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	require := require.New(t)
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger: logger.Default.LogMode(func() logger.LogLevel {
			return logger.Warn
		}()),
	})
	require.NoError(err)

	err = db.AutoMigrate(AllTables()...)
	require.NoError(err)

	return db
}

// MockFollower records an active follower whose actor advertises the given
// inboxes. Empty strings leave the corresponding field unset.
func MockFollower(t *testing.T, tx *gorm.DB, domain, actor, inbox, sharedInbox string) {
	t.Helper()
	require := require.New(t)

	actorDoc := map[string]any{"id": actor}
	if inbox != "" {
		actorDoc["inbox"] = inbox
	}
	if sharedInbox != "" {
		actorDoc["endpoints"] = map[string]any{"sharedInbox": sharedInbox}
	}
	err := NewFollowers(tx).Follow(domain, actor, map[string]any{
		"type":  "Follow",
		"actor": actorDoc,
	})
	require.NoError(err)
}
