// Package store implements the object/field CRUD engine (C5), the index
// engine (C6), the reference/delete engine (C7), the migration engine
// (C8), field-monitor listener propagation (C9), and the copy/detached
// engine (C10), all layered over a kvkit.RwTx and a schema.Registry.
package store

import (
	"context"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ledgerwatch/odb/fieldtype"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/log"
	"github.com/ledgerwatch/odb/metrics"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// objInfoCacheSize is the object-info LRU's default capacity.
const objInfoCacheSize = 1000

// SchemaRemoval selects when an installed, now-unused schema version may
// be dropped.
type SchemaRemoval int

const (
	Never SchemaRemoval = iota
	IfUnusedAtOpen
	Always
)

// TxOptions configures a Transaction at open time.
type TxOptions struct {
	SchemaModel     *schema.Model
	VersionNumber   uint64
	AllowNewSchema  bool
	SchemaRemoval   SchemaRemoval
	ReadOnly        bool
	TimeoutMS       int
}

// objInfo is the cached decoding of an OBJ: meta byte.
type objInfo struct {
	exists         bool
	version        uint64
	deleteNotified bool
}

// Transaction is a schema-aware, versioned view over one kvkit.RwTx. Every
// public method is serialized by mu; no method suspends internally, the
// only blocking points are the underlying KV calls.
type Transaction struct {
	mu sync.Mutex

	kv     kvkit.KV
	rwtx   kvkit.RwTx
	ctx    context.Context

	registry  *schema.Registry
	fieldtype *fieldtype.Registry
	version   *schema.Version

	objCache *lru.Cache

	readOnly     bool
	rollbackOnly bool
	stale        bool

	listeners *listenerState

	// pendingDeletedAssignments, if non-nil, collects DeletedAssignment
	// violations instead of failing the write that produced them (used by
	// the copy engine).
	pendingDeletedAssignments *[]DeletedAssignment
}

// Open begins a new Transaction against kv, installing or resolving opts's
// schema model per the configuration contract of spec.md §6.
func Open(ctx context.Context, kv kvkit.KV, registry *schema.Registry, ftypes *fieldtype.Registry, opts TxOptions) (*Transaction, error) {
	cache, err := lru.New(objInfoCacheSize)
	if err != nil {
		return nil, err
	}
	tx := &Transaction{
		kv:        kv,
		ctx:       ctx,
		registry:  registry,
		fieldtype: ftypes,
		objCache:  cache,
		readOnly:  opts.ReadOnly,
		listeners: newListenerState(),
	}

	if opts.SchemaModel != nil {
		if !opts.AllowNewSchema {
			return nil, schema.InvalidSchema("new schema install not permitted by this transaction's options")
		}
		v, err := registry.Install(opts.SchemaModel)
		if err != nil {
			return nil, err
		}
		if err := kv.Update(ctx, func(rw kvkit.RwTx) error {
			return persistSchemaVersion(rw, v)
		}); err != nil {
			return nil, err
		}
		tx.version = v
		log.Info("installed schema version", "version", v.Number)
		metrics.MigrationsApplied.Inc()
	} else {
		v, ok := registry.Lookup(opts.VersionNumber)
		if !ok {
			return nil, schema.InvalidSchema("unknown schema version")
		}
		tx.version = v
	}

	return tx, nil
}

// withRwTx runs f against the kvkit.RwTx tx is already bound to, or else
// inside a fresh kv.Update, binding tx to it for the duration of f.
func (tx *Transaction) withRwTx(f func(rw kvkit.RwTx) error) error {
	if tx.rwtx != nil {
		return f(tx.rwtx)
	}
	return tx.kv.Update(tx.ctx, func(rw kvkit.RwTx) error {
		tx.rwtx = rw
		defer func() { tx.rwtx = nil }()
		return f(rw)
	})
}

func (tx *Transaction) withTx(f func(r kvkit.Tx) error) error {
	if tx.rwtx != nil {
		return f(tx.rwtx)
	}
	return tx.kv.View(tx.ctx, func(r kvkit.Tx) error { return f(r) })
}

func (tx *Transaction) checkValid() error {
	if tx.stale {
		return Stale
	}
	return nil
}

// SetTimeout accepts ms but neither stores nor enforces it; any timeout
// is left to the underlying KV store.
func (tx *Transaction) SetTimeout(ms int) { tx.mu.Lock(); defer tx.mu.Unlock() }

// SetReadOnly marks the transaction so Commit behaves as Rollback: pending
// field-change notifications are discarded instead of delivered. This
// package has no completion callbacks.
func (tx *Transaction) SetReadOnly() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.readOnly = true
}

// SetRollbackOnly marks the transaction so Commit fails with RollbackOnly
// and rolls back.
func (tx *Transaction) SetRollbackOnly() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.rollbackOnly = true
}

// IsValid reports whether any operation is still permitted.
func (tx *Transaction) IsValid() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return !tx.stale
}

// Version returns the schema version this transaction was opened at.
func (tx *Transaction) Version() *schema.Version { return tx.version }

// Commit finalizes the transaction, draining pending listener
// notifications first; a read-only transaction discards them instead, as
// Rollback does.
func (tx *Transaction) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.stale {
		return Stale
	}
	if tx.rollbackOnly {
		tx.stale = true
		return RollbackOnly
	}
	if tx.readOnly {
		tx.listeners.pending = tx.listeners.pending[:0]
		tx.stale = true
		return nil
	}
	tx.drainNotifications()
	tx.stale = true
	return nil
}

// Rollback aborts the transaction, discarding any pending notification
// deliveries.
func (tx *Transaction) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.stale {
		return Stale
	}
	tx.listeners.pending = tx.listeners.pending[:0]
	tx.stale = true
	return nil
}

// objectTypeOf resolves id's declared object type within tx.version.
func (tx *Transaction) objectTypeOf(id objid.ObjID) (*schema.ObjectType, error) {
	sid, err := objid.StorageID(id)
	if err != nil {
		return nil, err
	}
	ot, ok := tx.version.ObjectType(sid)
	if !ok {
		return nil, UnknownType{StorageID: sid}
	}
	return ot, nil
}

// sortedFieldSIDs returns t's field storage-ids in ascending order. Nothing
// in this package calls it.
func sortedFieldSIDs(t *schema.ObjectType) []uint64 {
	out := make([]uint64, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = f.StorageID
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
