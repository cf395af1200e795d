package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"lendcore/core/events"

	"github.com/holiman/uint256"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return db
}

func committed(seq uint64, index int, evt events.Payload) events.Committed {
	return events.Committed{
		Seq:       seq,
		Index:     index,
		Contract:  "lendc1reserve",
		Method:    "liquidate",
		Timestamp: 1_700_000_000_000 + seq,
		Payload:   evt.Event(),
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	ix := New(openTestDB(t), nil)
	ctx := context.Background()
	evt := committed(1, 0, events.Deposit{Reserve: "lendc1reserve", User: "lend1alice", Amount: uint256.NewInt(10)})
	for i := 0; i < 2; i++ {
		if err := ix.Record(ctx, evt); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	rows, err := ix.Events(ctx, Filter{})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0].Attributes["amount"] != "10" || rows[0].Type != events.TypeLendingDeposit {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
	if rows[0].Fingerprint != Fingerprint(evt) {
		t.Fatalf("fingerprint mismatch")
	}
}

func TestFingerprintCoversContent(t *testing.T) {
	a := committed(1, 0, events.Deposit{User: "lend1alice", Amount: uint256.NewInt(10)})
	b := committed(1, 0, events.Deposit{User: "lend1alice", Amount: uint256.NewInt(11)})
	c := committed(1, 1, events.Deposit{User: "lend1alice", Amount: uint256.NewInt(10)})
	if Fingerprint(a) == Fingerprint(b) || Fingerprint(a) == Fingerprint(c) {
		t.Fatalf("fingerprints must differ by amount and position")
	}
	if len(Fingerprint(a)) != 64 {
		t.Fatalf("expected 32-byte hex digest, got %q", Fingerprint(a))
	}
}

func TestLiquidationsAndExport(t *testing.T) {
	ix := New(openTestDB(t), nil)
	ctx := context.Background()
	seizures := []events.Committed{
		committed(3, 0, events.CollateralSeized{Reserve: "lendc1a", Asset: "lendc1tka", User: "lend1alice", Liquidator: "lend1liq", Amount: uint256.NewInt(140), WrittenOff: uint256.NewInt(0)}),
		committed(4, 0, events.CollateralSeized{Reserve: "lendc1b", Asset: "lendc1tkb", User: "lend1carol", Liquidator: "lend1liq", Amount: uint256.NewInt(7), WrittenOff: uint256.NewInt(3)}),
	}
	for _, evt := range seizures {
		ix.Emit(evt)
	}
	ix.Emit(events.Transfer{Token: "TKA"})

	all, err := ix.Liquidations(ctx, "")
	if err != nil {
		t.Fatalf("liquidations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two liquidations, got %d", len(all))
	}
	alice, err := ix.Liquidations(ctx, "lend1alice")
	if err != nil {
		t.Fatalf("liquidations: %v", err)
	}
	if len(alice) != 1 || alice[0].Amount != "140" || alice[0].Asset != "lendc1tka" {
		t.Fatalf("unexpected alice rows: %+v", alice)
	}
	byType, err := ix.Events(ctx, Filter{Type: events.TypeLendingCollateralSeized, FromSeq: 4})
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(byType) != 1 || byType[0].Seq != 4 {
		t.Fatalf("unexpected filtered events: %+v", byType)
	}

	path := filepath.Join(t.TempDir(), "exports", "liquidations.parquet")
	n, err := ix.ExportLiquidations(ctx, path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected two exported rows, got %d", n)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("export file missing or empty: %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
