package state

import (
	"testing"

	"lendcore/storage"

	"github.com/holiman/uint256"
)

func TestManagerNamespacesAndScalars(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()

	a := NewManager(db, []byte("contract-a"))
	b := NewManager(db, []byte("contract-b"))

	if err := a.SetU256("reserve_balance", uint256.NewInt(1000)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := a.U256("reserve_balance")
	if err != nil || got.Uint64() != 1000 {
		t.Fatalf("a reserve_balance = %v, %v", got, err)
	}
	other, err := b.U256("reserve_balance")
	if err != nil || !other.IsZero() {
		t.Fatalf("namespaces leaked: %v, %v", other, err)
	}

	if err := a.SetU256("reserve_balance", new(uint256.Int)); err != nil {
		t.Fatalf("set zero: %v", err)
	}
	if ok, _ := a.KVHas("reserve_balance"); ok {
		t.Fatalf("zero value should delete the key")
	}

	if err := a.SetUint64("last", 42); err != nil {
		t.Fatalf("set uint64: %v", err)
	}
	if v, _ := a.Uint64("last"); v != 42 {
		t.Fatalf("uint64 = %d", v)
	}
	if err := a.SetString("token", "lendc1xyz"); err != nil {
		t.Fatalf("set string: %v", err)
	}
	if v, _ := a.String("token"); v != "lendc1xyz" {
		t.Fatalf("string = %q", v)
	}
	if err := a.SetBool("initialized", true); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if v, _ := a.Bool("initialized"); !v {
		t.Fatalf("bool = false")
	}
	if _, err := db.Get([]byte("contract-a/last")); err != nil {
		t.Fatalf("expected flat namespaced key: %v", err)
	}
}

func TestStringSetPersistence(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db, []byte("pool"))

	set, err := m.StringSet(Key("collateral_assets:", "alice"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty set")
	}
	set.Add("ETH")
	set.Add("USDC")
	if set.Add("ETH") {
		t.Fatalf("duplicate add should report false")
	}
	if err := m.SetStringSet(Key("collateral_assets:", "alice"), set); err != nil {
		t.Fatalf("store: %v", err)
	}

	loaded, err := m.StringSet(Key("collateral_assets:", "alice"))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	values := loaded.Values()
	if len(values) != 2 || values[0] != "ETH" || values[1] != "USDC" {
		t.Fatalf("unexpected order %v", values)
	}
	if !loaded.Remove("ETH") || loaded.Contains("ETH") {
		t.Fatalf("remove failed")
	}
	loaded.Remove("USDC")
	if err := m.SetStringSet(Key("collateral_assets:", "alice"), loaded); err != nil {
		t.Fatalf("store empty: %v", err)
	}
	if ok, _ := m.KVHas(Key("collateral_assets:", "alice")); ok {
		t.Fatalf("empty set should delete the key")
	}
}

func TestKeyJoin(t *testing.T) {
	if got := Key("liquidation:", "alice", "ETH"); got != "liquidation:alice:ETH" {
		t.Fatalf("unexpected key %s", got)
	}
}
