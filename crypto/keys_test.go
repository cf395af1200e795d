package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := make([]byte, AddressLength)
	raw[0] = 0xAA
	addr := NewAddress(AccountPrefix, raw)
	encoded := addr.String()
	if !strings.HasPrefix(encoded, "lend1") {
		t.Fatalf("unexpected encoding %s", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Equal(addr) {
		t.Fatalf("decoded address mismatch: %s != %s", decoded, addr)
	}
	if _, err := DecodeAddress("not-an-address"); err == nil {
		t.Fatalf("expected error for malformed address")
	}
}

func TestContractAddressDeterministic(t *testing.T) {
	deployer := NewAddress(AccountPrefix, make([]byte, AddressLength))
	a := ContractAddress(deployer, "pool")
	b := ContractAddress(deployer, "pool")
	c := ContractAddress(deployer, "oracle")
	if !a.Equal(b) {
		t.Fatalf("expected deterministic derivation")
	}
	if a.Equal(c) {
		t.Fatalf("labels must produce distinct addresses")
	}
	if a.Prefix() != ContractPrefix {
		t.Fatalf("unexpected prefix %s", a.Prefix())
	}
}

func TestSignAndRecover(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	digest := Keccak256([]byte("payload"))
	sig, err := key.Sign(digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := RecoverAddress(digest, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !got.Equal(key.PubKey().Address()) {
		t.Fatalf("recovered %s, want %s", got, key.PubKey().Address())
	}
	if _, err := RecoverAddress(digest, sig[:10]); err == nil {
		t.Fatalf("expected error for truncated signature")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keys", "operator.keystore")
	if err := SaveToKeystore(path, key, "secret", WithLightScrypt()); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadFromKeystore(path, "secret")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.PubKey().Address().Equal(key.PubKey().Address()) {
		t.Fatalf("keystore round trip changed the key")
	}
	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatalf("expected wrong passphrase to fail")
	}
	addr, err := KeystoreAddress(path)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	if !addr.Equal(key.PubKey().Address()) {
		t.Fatalf("keystore address %s, want %s", addr, key.PubKey().Address())
	}
}

func TestKeystoreAddressRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.keystore")
	if err := os.WriteFile(path, []byte(`{"address":"zz"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := KeystoreAddress(path); !errors.Is(err, ErrKeystoreAddress) {
		t.Fatalf("expected ErrKeystoreAddress, got %v", err)
	}
}
