// Package kvkit is the abstract ordered byte-keyed KV transaction
// surface (C1) the object store is layered over: View/Update transaction
// scoping, per-bucket Get/Put/Delete, and an ordered Cursor for prefix and
// range scans. It is consumed, never owned: the real backend (an
// MDBX/LMDB/BoltDB-class engine) is out of scope, so this package only
// defines the interface plus the in-memory implementation under memkv
// used by every test and by detached transactions.
package kvkit

import "context"

// KV is a handle to an ordered byte-keyed store, opening read-only or
// read-write transactions onto it.
type KV interface {
	View(ctx context.Context, f func(tx Tx) error) error
	Update(ctx context.Context, f func(tx RwTx) error) error
	Close()
}

// Tx is a read-only transaction: a consistent snapshot of every bucket.
type Tx interface {
	Bucket(name string) Bucket
}

// RwTx is a read-write transaction.
type RwTx interface {
	Tx
	RwBucket(name string) RwBucket
}

// Bucket is a read-only named keyspace within a transaction.
type Bucket interface {
	// Get returns the value stored at key, or ErrKeyNotFound if absent.
	Get(key []byte) ([]byte, error)
	// Cursor returns a new Cursor positioned before the first key.
	Cursor() Cursor
}

// RwBucket is a Bucket that also permits mutation.
type RwBucket interface {
	Bucket
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Cursor iterates a Bucket's keys in ascending byte order. Seek/First/
// Next return (nil, nil, nil) once iteration is exhausted, matching the
// convention the underlying engine's own cursor uses: a nil key, not an
// error, signals "no more entries."
type Cursor interface {
	// First repositions the cursor at the first key and returns it.
	First() (key, value []byte, err error)
	// Seek repositions the cursor at the first key >= seek.
	Seek(seek []byte) (key, value []byte, err error)
	// Next advances the cursor and returns the new current entry.
	Next() (key, value []byte, err error)
}
