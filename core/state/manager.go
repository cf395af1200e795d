package state

import (
	"errors"
	"fmt"
	"math/big"

	"lendcore/storage"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// Manager reads and writes RLP-encoded values under a namespace, normally
// the address of the contract that owns the state.
type Manager struct {
	db        storage.Database
	namespace []byte
}

// NewManager creates a state manager scoped to namespace.
func NewManager(db storage.Database, namespace []byte) *Manager {
	ns := make([]byte, 0, len(namespace)+1)
	ns = append(ns, namespace...)
	ns = append(ns, '/')
	return &Manager{db: db, namespace: ns}
}

func (m *Manager) kvKey(key string) []byte {
	buf := make([]byte, 0, len(m.namespace)+len(key))
	buf = append(buf, m.namespace...)
	return append(buf, key...)
}

// KVPut stores value under key.
func (m *Manager) KVPut(key string, value interface{}) error {
	if key == "" {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(m.kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key string, out interface{}) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(m.kvKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return true, nil
}

// KVDelete removes key.
func (m *Manager) KVDelete(key string) error {
	if key == "" {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(m.kvKey(key))
}

// KVHas reports whether key holds a value.
func (m *Manager) KVHas(key string) (bool, error) {
	return m.db.Has(m.kvKey(key))
}

// U256 loads a 256-bit integer, returning zero when the key is unset.
func (m *Manager) U256(key string) (*uint256.Int, error) {
	var raw big.Int
	ok, err := m.KVGet(key, &raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(uint256.Int), nil
	}
	v, overflow := uint256.FromBig(&raw)
	if overflow {
		return nil, fmt.Errorf("kv: %s exceeds 256 bits", key)
	}
	return v, nil
}

// SetU256 stores v. Zero values are deleted to keep state compact.
func (m *Manager) SetU256(key string, v *uint256.Int) error {
	if v == nil || v.IsZero() {
		return m.KVDelete(key)
	}
	return m.KVPut(key, v.ToBig())
}

func (m *Manager) Uint64(key string) (uint64, error) {
	var v uint64
	if _, err := m.KVGet(key, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (m *Manager) SetUint64(key string, v uint64) error {
	if v == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, v)
}

func (m *Manager) String(key string) (string, error) {
	var v string
	if _, err := m.KVGet(key, &v); err != nil {
		return "", err
	}
	return v, nil
}

func (m *Manager) SetString(key, v string) error {
	if v == "" {
		return m.KVDelete(key)
	}
	return m.KVPut(key, v)
}

func (m *Manager) Bool(key string) (bool, error) {
	var v bool
	if _, err := m.KVGet(key, &v); err != nil {
		return false, err
	}
	return v, nil
}

func (m *Manager) SetBool(key string, v bool) error {
	if !v {
		return m.KVDelete(key)
	}
	return m.KVPut(key, true)
}

// StringSet loads the ordered set stored under key. Missing keys yield an
// empty set.
func (m *Manager) StringSet(key string) (*StringSet, error) {
	var items []string
	if _, err := m.KVGet(key, &items); err != nil {
		return nil, err
	}
	return NewStringSet(items...), nil
}

// SetStringSet persists set under key, deleting the key when the set is empty.
func (m *Manager) SetStringSet(key string, set *StringSet) error {
	if set == nil || set.Len() == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, set.Values())
}

// Key joins a fixed prefix with an identifier, e.g. "user_balance:" + address.
func Key(prefix string, parts ...string) string {
	out := prefix
	for i, part := range parts {
		if i > 0 {
			out += ":"
		}
		out += part
	}
	return out
}
