package indexer

import (
	"time"

	"gorm.io/gorm"
)

// EventRecord is one committed contract event.
type EventRecord struct {
	ID          uint              `gorm:"primaryKey"`
	Fingerprint string            `gorm:"size:64;uniqueIndex"`
	Seq         uint64            `gorm:"index"`
	EventIndex  int               `gorm:"not null"`
	Contract    string            `gorm:"index"`
	Method      string            `gorm:"not null"`
	Type        string            `gorm:"index"`
	Attributes  map[string]string `gorm:"serializer:json"`
	Timestamp   uint64            `gorm:"index"`
	CreatedAt   time.Time
}

// LiquidationRecord is a collateral seizure, kept apart from the event log
// for audit exports.
type LiquidationRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Fingerprint string `gorm:"size:64;uniqueIndex"`
	Seq         uint64 `gorm:"index"`
	Reserve     string `gorm:"not null"`
	Asset       string `gorm:"index"`
	Borrower    string `gorm:"index"`
	Liquidator  string `gorm:"not null"`
	Amount      string `gorm:"not null"`
	WrittenOff  string `gorm:"not null"`
	Timestamp   uint64 `gorm:"index"`
	CreatedAt   time.Time
}

// AutoMigrate creates or updates the indexer tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EventRecord{}, &LiquidationRecord{})
}
