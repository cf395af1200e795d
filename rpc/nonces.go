package rpc

import (
	"encoding/binary"
	"errors"
	"sync"

	"lendcore/crypto"
	"lendcore/storage"
)

const noncePrefix = "rpc/nonce/"

// NonceStore tracks the next expected call nonce per account. A nonce is
// consumed once its call has been executed, whether or not it succeeded.
type NonceStore struct {
	mu sync.Mutex
	db storage.Database
}

func NewNonceStore(db storage.Database) *NonceStore {
	return &NonceStore{db: db}
}

// Next returns the nonce the account must use on its next call.
func (n *NonceStore) Next(addr crypto.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.load(addr)
}

// Use runs fn if nonce is the expected one and advances the counter after fn
// returns.
func (n *NonceStore) Use(addr crypto.Address, nonce uint64, fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	expected, err := n.load(addr)
	if err != nil {
		return err
	}
	if nonce != expected {
		return ErrBadNonce
	}
	callErr := fn()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], expected+1)
	if err := n.db.Put(nonceKey(addr), buf[:]); err != nil {
		return err
	}
	return callErr
}

func (n *NonceStore) load(addr crypto.Address) (uint64, error) {
	raw, err := n.db.Get(nonceKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, errors.New("rpc: corrupt nonce record")
	}
	return binary.BigEndian.Uint64(raw), nil
}

func nonceKey(addr crypto.Address) []byte {
	return []byte(noncePrefix + addr.String())
}
