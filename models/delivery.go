package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DeliveryStatusNew      = "new"
	DeliveryStatusComplete = "complete"
	DeliveryStatusError    = "error"

	DirectionOut = "out"

	ProtocolActivityPub = "activitypub"
	ProtocolOStatus     = "ostatus"
)

// Delivery tracks one logical source-to-target delivery. Reprocessing the
// same webmention finds the existing row, which is how a second send of an
// already completed delivery becomes an Update rather than a Create.
type Delivery struct {
	Source    string `gorm:"primarykey;size:1024"`
	Target    string `gorm:"primarykey;size:1024"`
	Direction string `gorm:"primarykey;size:8"`
	Protocol  string `gorm:"primarykey;size:16"`
	Status    string `gorm:"size:16;not null;default:new"`
	// SourceEntry is the parsed microformats2 snapshot of the source page
	// at last processing time.
	SourceEntry map[string]any `gorm:"serializer:json"`
	// TargetObject is the AS2 object fetched from the target, when the
	// target spoke ActivityPub.
	TargetObject map[string]any `gorm:"serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (d *Delivery) Complete() bool {
	return d.Status == DeliveryStatusComplete
}

type Deliveries struct {
	db *gorm.DB
}

func NewDeliveries(db *gorm.DB) *Deliveries {
	return &Deliveries{db: db}
}

// GetOrCreate returns the delivery row for the given natural key, creating it
// if this is the first time the pair has been processed.
func (d *Deliveries) GetOrCreate(delivery *Delivery) (*Delivery, error) {
	err := d.db.Clauses(clause.OnConflict{DoNothing: true}).Create(delivery).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	var existing Delivery
	err = d.db.Take(&existing,
		"source = ? AND target = ? AND direction = ? AND protocol = ?",
		delivery.Source, delivery.Target, delivery.Direction, delivery.Protocol,
	).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// Update persists the delivery's status and snapshots.
func (d *Deliveries) Update(delivery *Delivery) error {
	return d.db.Save(delivery).Error
}
