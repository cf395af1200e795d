// Package indexer mirrors committed contract events into a relational
// store so they can be queried and exported without replaying the host.
package indexer

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lendcore/core/events"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"lukechampine.com/blake3"
)

var ErrUnknownDriver = errors.New("indexer: unknown driver")

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open %s: %w", driver, err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	return db, nil
}

// Indexer is an events.Emitter that persists committed events. Replaying
// the same event is a no-op thanks to the fingerprint index.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{db: db, logger: logger.With(slog.String("component", "indexer"))}
}

// Emit implements events.Emitter. Failures are logged; the host has already
// committed by the time events are published.
func (ix *Indexer) Emit(evt events.Event) {
	committed, ok := evt.(events.Committed)
	if !ok {
		return
	}
	if err := ix.Record(context.Background(), committed); err != nil {
		ix.logger.Error("index event",
			slog.Uint64("seq", committed.Seq),
			slog.String("type", committed.EventType()),
			slog.String("error", err.Error()))
	}
}

// Record stores evt and, for collateral seizures, a liquidation row.
func (ix *Indexer) Record(ctx context.Context, evt events.Committed) error {
	if evt.Payload == nil {
		return nil
	}
	fingerprint := Fingerprint(evt)
	return ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := EventRecord{
			Fingerprint: fingerprint,
			Seq:         evt.Seq,
			EventIndex:  evt.Index,
			Contract:    evt.Contract,
			Method:      evt.Method,
			Type:        evt.Payload.Type,
			Attributes:  evt.Payload.Attributes,
			Timestamp:   evt.Timestamp,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}
		if evt.Payload.Type != events.TypeLendingCollateralSeized {
			return nil
		}
		attrs := evt.Payload.Attributes
		liquidation := LiquidationRecord{
			Fingerprint: fingerprint,
			Seq:         evt.Seq,
			Reserve:     attrs["reserve"],
			Asset:       attrs["asset"],
			Borrower:    attrs["user"],
			Liquidator:  attrs["liquidator"],
			Amount:      attrs["amount"],
			WrittenOff:  attrs["writtenOff"],
			Timestamp:   evt.Timestamp,
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&liquidation).Error
	})
}

// Filter narrows Events. Zero fields match everything.
type Filter struct {
	Type     string
	Contract string
	FromSeq  uint64
	Limit    int
}

func (ix *Indexer) Events(ctx context.Context, f Filter) ([]EventRecord, error) {
	q := ix.db.WithContext(ctx).Model(&EventRecord{}).Order("seq asc, event_index asc")
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Contract != "" {
		q = q.Where("contract = ?", f.Contract)
	}
	if f.FromSeq > 0 {
		q = q.Where("seq >= ?", f.FromSeq)
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	var out []EventRecord
	if err := q.Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Liquidations lists seizures, optionally for one user.
func (ix *Indexer) Liquidations(ctx context.Context, user string) ([]LiquidationRecord, error) {
	q := ix.db.WithContext(ctx).Model(&LiquidationRecord{}).Order("seq asc, id asc")
	if user != "" {
		q = q.Where("borrower = ?", user)
	}
	var out []LiquidationRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Fingerprint is a blake3 digest over the event position and content.
func Fingerprint(evt events.Committed) string {
	h := blake3.New(32, nil)
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], evt.Seq)
	binary.BigEndian.PutUint32(buf[8:], uint32(evt.Index))
	h.Write(buf[:])
	if evt.Payload != nil {
		h.Write([]byte(evt.Payload.Type))
		for _, k := range evt.Payload.Keys() {
			h.Write([]byte{0})
			h.Write([]byte(k))
			h.Write([]byte{'='})
			h.Write([]byte(evt.Payload.Attributes[k]))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
