// Package memkv implements kvkit.KV over an in-memory petar/GoLLRB
// left-leaning red-black tree per bucket. It gives genuinely ordered
// iteration (no sorted-slice rebuild on every scan) and backs every test
// in this module plus C10's detached transactions, since no real KV
// engine is in scope.
package memkv

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"sync"

	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/petar/GoLLRB/llrb"
)

// kvItem is one key/value pair stored in a bucket's tree, ordered by Key.
type kvItem struct {
	Key, Value []byte
}

func (a *kvItem) Less(than llrb.Item) bool {
	return bytes.Compare(a.Key, than.(*kvItem).Key) < 0
}

// MemKV is an in-memory kvkit.KV. The zero value is not usable; use New.
type MemKV struct {
	mu      sync.RWMutex
	buckets map[string]*llrb.LLRB
}

// New returns a MemKV with every known bucket pre-created.
func New() *MemKV {
	db := &MemKV{buckets: make(map[string]*llrb.LLRB)}
	for _, b := range dbutils.Buckets {
		db.buckets[string(b)] = llrb.New()
	}
	return db
}

// tree returns the named bucket's tree, creating it if absent. It is only
// called from within View/Update, which already hold db.mu.
func (db *MemKV) tree(name string) *llrb.LLRB {
	t, ok := db.buckets[name]
	if !ok {
		t = llrb.New()
		db.buckets[name] = t
	}
	return t
}

// View opens a read-only transaction. MemKV has no MVCC snapshotting, so
// concurrent Update calls are blocked out for the duration via the
// package mutex; correctness for this module's single-writer-at-a-time
// usage does not require more.
func (db *MemKV) View(ctx context.Context, f func(tx kvkit.Tx) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return f(&memTx{db: db})
}

// Update opens a read-write transaction.
func (db *MemKV) Update(ctx context.Context, f func(tx kvkit.RwTx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return f(&memTx{db: db})
}

func (db *MemKV) Close() {}

// Clone deep-copies every bucket into a fresh MemKV, used to seed a
// detached transaction's backing store with the origin's schema catalog.
func (db *MemKV) Clone() *MemKV {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := &MemKV{buckets: make(map[string]*llrb.LLRB, len(db.buckets))}
	for name, t := range db.buckets {
		nt := llrb.New()
		t.AscendGreaterOrEqual(&kvItem{}, func(i llrb.Item) bool {
			it := i.(*kvItem)
			nt.ReplaceOrInsert(&kvItem{Key: append([]byte(nil), it.Key...), Value: append([]byte(nil), it.Value...)})
			return true
		})
		out.buckets[name] = nt
	}
	return out
}

// snapshot is the gob-encoded form Dump/Load exchange: since a real,
// persistent KV engine is out of scope (see package doc), cmd/odb uses this
// to carry a MemKV's contents across separate process invocations. There is
// no ecosystem library in this corpus for ordered-tree serialization, and
// encoding/gob is the standard choice for a private, Go-to-Go snapshot
// format with no cross-language or schema-evolution requirement.
type snapshot struct {
	Buckets map[string][]kvItem
}

// Dump writes every bucket's contents to w.
func (db *MemKV) Dump(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	snap := snapshot{Buckets: make(map[string][]kvItem, len(db.buckets))}
	for name, t := range db.buckets {
		var items []kvItem
		t.AscendGreaterOrEqual(&kvItem{}, func(i llrb.Item) bool {
			items = append(items, *i.(*kvItem))
			return true
		})
		snap.Buckets[name] = items
	}
	return gob.NewEncoder(w).Encode(snap)
}

// Load replaces db's contents with a snapshot previously written by Dump.
func (db *MemKV) Load(r io.Reader) error {
	var snap snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.buckets = make(map[string]*llrb.LLRB, len(snap.Buckets))
	for name, items := range snap.Buckets {
		t := llrb.New()
		for _, it := range items {
			it := it
			t.ReplaceOrInsert(&it)
		}
		db.buckets[name] = t
	}
	for _, b := range dbutils.Buckets {
		if _, ok := db.buckets[string(b)]; !ok {
			db.buckets[string(b)] = llrb.New()
		}
	}
	return nil
}
