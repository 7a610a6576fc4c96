package models

import (
	"sort"
	"time"

	"github.com/fedbridge/fedbridge/internal/algorithms"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	FollowerStatusActive   = "active"
	FollowerStatusInactive = "inactive"
)

// Follower records that a remote ActivityPub actor follows a bridged domain.
type Follower struct {
	// Domain is the bridged site being followed.
	Domain string `gorm:"primarykey;size:253"`
	// Actor is the URI of the remote follower.
	Actor  string `gorm:"primarykey;size:1024"`
	Status string `gorm:"size:16;not null;default:active"`
	// LastFollow is the most recent Follow activity received from the
	// actor, kept so delivery can find their inbox without a refetch.
	LastFollow map[string]any `gorm:"serializer:json"`
	UpdatedAt  time.Time
}

type Followers struct {
	db *gorm.DB
}

func NewFollowers(db *gorm.DB) *Followers {
	return &Followers{db: db}
}

// Follow records the actor as an active follower of the domain, reactivating
// a previously unfollowed row.
func (f *Followers) Follow(domain, actor string, activity map[string]any) error {
	return f.db.Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&Follower{
		Domain:     domain,
		Actor:      actor,
		Status:     FollowerStatusActive,
		LastFollow: activity,
	}).Error
}

// Unfollow marks the actor inactive. The row is kept; a later Follow
// reactivates it.
func (f *Followers) Unfollow(domain, actor string) error {
	return f.db.Model(&Follower{}).
		Where("domain = ? AND actor = ?", domain, actor).
		Update("status", FollowerStatusInactive).Error
}

// ActiveInboxes returns the delivery targets for the domain's active
// followers: each follower's shared inbox when it advertises one, otherwise
// its personal inbox, deduplicated and sorted.
func (f *Followers) ActiveInboxes(domain string) ([]string, error) {
	var followers []Follower
	if err := f.db.Where("domain = ? AND status = ?", domain, FollowerStatusActive).Find(&followers).Error; err != nil {
		return nil, err
	}
	var inboxes []string
	for _, follower := range followers {
		if inbox := followerInbox(follower.LastFollow); inbox != "" {
			inboxes = append(inboxes, inbox)
		}
	}
	inboxes = algorithms.Dedupe(inboxes)
	sort.Strings(inboxes)
	return inboxes, nil
}

func followerInbox(activity map[string]any) string {
	actor, ok := activity["actor"].(map[string]any)
	if !ok {
		return ""
	}
	if endpoints, ok := actor["endpoints"].(map[string]any); ok {
		if inbox, ok := endpoints["sharedInbox"].(string); ok && inbox != "" {
			return inbox
		}
	}
	if inbox, ok := actor["publicInbox"].(string); ok && inbox != "" {
		return inbox
	}
	inbox, _ := actor["inbox"].(string)
	return inbox
}
