package storage

import (
	"errors"
	"sort"
)

// ErrTxClosed is returned when a committed or aborted Tx is used again.
var ErrTxClosed = errors.New("storage: transaction closed")

// Tx buffers writes over a parent Database. Reads see the buffered writes
// first. Commit flushes them to the parent in one batch; Abort drops them.
// A Tx is itself a Database so transactions can be nested.
type Tx struct {
	parent Database
	writes map[string][]byte
	// nil value marks a delete
	closed bool
}

// NewTx opens a transaction over parent.
func NewTx(parent Database) *Tx {
	return &Tx{parent: parent, writes: make(map[string][]byte)}
}

func (tx *Tx) Get(key []byte) ([]byte, error) {
	if tx.closed {
		return nil, ErrTxClosed
	}
	if value, ok := tx.writes[string(key)]; ok {
		if value == nil {
			return nil, ErrNotFound
		}
		return append([]byte(nil), value...), nil
	}
	return tx.parent.Get(key)
}

func (tx *Tx) Has(key []byte) (bool, error) {
	if tx.closed {
		return false, ErrTxClosed
	}
	if value, ok := tx.writes[string(key)]; ok {
		return value != nil, nil
	}
	return tx.parent.Has(key)
}

func (tx *Tx) Put(key []byte, value []byte) error {
	if tx.closed {
		return ErrTxClosed
	}
	if value == nil {
		value = []byte{}
	}
	tx.writes[string(key)] = append([]byte{}, value...)
	return nil
}

func (tx *Tx) Delete(key []byte) error {
	if tx.closed {
		return ErrTxClosed
	}
	tx.writes[string(key)] = nil
	return nil
}

// Pending reports how many keys the transaction has touched.
func (tx *Tx) Pending() int { return len(tx.writes) }

// NewBatch returns a batch that writes into this transaction.
func (tx *Tx) NewBatch() Batch { return &txBatch{tx: tx} }

// Commit writes the buffered changes to the parent in key order and closes
// the transaction.
func (tx *Tx) Commit() error {
	if tx.closed {
		return ErrTxClosed
	}
	keys := make([]string, 0, len(tx.writes))
	for k := range tx.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := tx.parent.NewBatch()
	for _, k := range keys {
		if value := tx.writes[k]; value == nil {
			batch.Delete([]byte(k))
		} else {
			batch.Put([]byte(k), value)
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	tx.closed = true
	tx.writes = nil
	return nil
}

// Abort discards the buffered changes. It is safe to call after Commit.
func (tx *Tx) Abort() {
	tx.closed = true
	tx.writes = nil
}

// Close aborts the transaction.
func (tx *Tx) Close() { tx.Abort() }

type txBatch struct {
	tx  *Tx
	ops []memOp
}

func (b *txBatch) Put(key []byte, value []byte) {
	b.ops = append(b.ops, memOp{key: string(key), value: append([]byte{}, value...)})
}

func (b *txBatch) Delete(key []byte) {
	b.ops = append(b.ops, memOp{key: string(key), delete: true})
}

func (b *txBatch) Len() int { return len(b.ops) }

func (b *txBatch) Write() error {
	if b.tx.closed {
		return ErrTxClosed
	}
	for _, op := range b.ops {
		if op.delete {
			b.tx.writes[op.key] = nil
			continue
		}
		b.tx.writes[op.key] = op.value
	}
	b.ops = nil
	return nil
}
