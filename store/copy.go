package store

import (
	"bytes"
	"context"

	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/kvkit/memkv"
	"github.com/ledgerwatch/odb/log"
	"github.com/ledgerwatch/odb/metrics"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// Copy copies srcID from tx into dstTx (the Reference/Detached engine, C10),
// creating dstIDOpt — or a fresh id of the same object type, if dstIDOpt is
// nil — when it does not already exist there. It preserves srcID's version,
// rebuilds every index entry dstTx's write path would produce, and, when
// deletedAssignments is non-nil, records rather than fails on the
// DeletedAssignment violations a copied reference field would otherwise
// raise.
//
// This module has no raw cross-backend key-rewrite primitive: kvkit
// exposes Get/Put/Cursor, not a "recompute every key under a new id" sweep,
// and a raw range copy only ever makes sense when dstID == srcID anyway.
// Copy therefore always goes field-by-field through dstTx's ordinary public
// write API (WriteSimple, WriteCounter, the Set/List/Map views): this
// rebuilds dstTx's indexes for free and, when notify is true, fires
// dstTx's listeners exactly as a caller building the object up field by
// field would have. When notify is false, dstTx's Create/FieldMonitor
// listeners are detached for the duration of the copy so no callback
// fires, then restored.
func (tx *Transaction) Copy(srcID objid.ObjID, dstIDOpt *objid.ObjID, dstTx *Transaction, migrate bool, notify bool, deletedAssignments *[]DeletedAssignment) (objid.ObjID, error) {
	srcTypeSID, err := objid.StorageID(srcID)
	if err != nil {
		return objid.Zero, err
	}
	if dstIDOpt != nil {
		dstTypeSID, err := objid.StorageID(*dstIDOpt)
		if err != nil {
			return objid.Zero, err
		}
		if dstTypeSID != srcTypeSID {
			return objid.Zero, SchemaMismatch{Detail: "source and destination object types differ"}
		}
	}

	if migrate {
		if err := tx.MigrateSchema(srcID); err != nil {
			return objid.Zero, err
		}
	}

	srcVersionNum, err := tx.storedVersion(srcID)
	if err != nil {
		return objid.Zero, err
	}
	srcVersion, ok := tx.registry.Lookup(srcVersionNum)
	if !ok {
		return objid.Zero, InconsistentDatabase{Detail: "source object's recorded version is not installed"}
	}
	matched, ok := matchingVersion(dstTx.registry, srcVersion.Canonical)
	if !ok {
		return objid.Zero, SchemaMismatch{Detail: "destination transaction has no version matching source's canonical schema"}
	}
	srcType, ok := matched.ObjectType(srcTypeSID)
	if !ok {
		return objid.Zero, UnknownType{StorageID: srcTypeSID}
	}

	if !notify {
		restore := dstTx.detachListeners()
		defer restore()
	}

	dstID, dstAlreadyExisted, err := resolveCopyDst(dstTx, dstIDOpt, srcTypeSID, matched.Number)
	if err != nil {
		return objid.Zero, err
	}

	if dstAlreadyExisted && dstTx.hasSchemaChangeListeners() {
		if err := dstTx.MigrateSchema(dstID); err != nil {
			return objid.Zero, err
		}
	}

	if deletedAssignments != nil {
		var collected []DeletedAssignment
		dstTx.mu.Lock()
		dstTx.pendingDeletedAssignments = &collected
		dstTx.mu.Unlock()
		defer func() {
			dstTx.mu.Lock()
			dstTx.pendingDeletedAssignments = nil
			dstTx.mu.Unlock()
			*deletedAssignments = append(*deletedAssignments, collected...)
		}()
	}

	for _, f := range srcType.Fields {
		if err := tx.copyField(dstTx, srcID, dstID, f); err != nil {
			return objid.Zero, err
		}
	}

	log.Debug("copied object", "src", srcID, "dst", dstID)
	metrics.ObjectsCopied.Inc()
	return dstID, nil
}

// storedVersion reads id's recorded schema version without running lazy
// migration.
func (tx *Transaction) storedVersion(id objid.ObjID) (uint64, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return 0, err
	}
	var version uint64
	err := tx.withTx(func(r kvkit.Tx) error {
		info, err := tx.info(r.Bucket(dbutils.ObjectBucket), id)
		if err != nil {
			return err
		}
		if !info.exists {
			return Deleted{ID: id}
		}
		version = info.version
		return nil
	})
	return version, err
}

// matchingVersion finds the installed version in r whose canonical form
// equals canonical.
func matchingVersion(r *schema.Registry, canonical []byte) (*schema.Version, bool) {
	for _, v := range r.Versions() {
		if bytes.Equal(v.Canonical, canonical) {
			return v, true
		}
	}
	return nil, false
}

// resolveCopyDst returns the destination id, creating it in dstTx at
// versionNum if dstIDOpt is nil or does not yet exist.
func resolveCopyDst(dstTx *Transaction, dstIDOpt *objid.ObjID, typeSID, versionNum uint64) (objid.ObjID, bool, error) {
	if dstIDOpt != nil {
		exists, err := dstTx.Exists(*dstIDOpt)
		if err != nil {
			return objid.Zero, false, err
		}
		if exists {
			return *dstIDOpt, true, nil
		}
		id, _, err := dstTx.Create(dstIDOpt, typeSID, versionNum)
		return id, false, err
	}
	id, alreadyExisted, err := dstTx.Create(nil, typeSID, versionNum)
	return id, alreadyExisted, err
}

func (tx *Transaction) hasSchemaChangeListeners() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.listeners.schemaChangeListeners) > 0
}

// detachListeners empties dstTx's Create/FieldMonitor listener sets for the
// duration of a notify=false copy, returning a func that restores them and
// drops the field-change notifications queued in between.
// DeleteListeners and SchemaChangeListeners are untouched: Copy never
// deletes or migrates dst as a side effect of writing fields, so they
// cannot fire from this path regardless.
func (tx *Transaction) detachListeners() func() {
	tx.mu.Lock()
	savedCreate := tx.listeners.createListeners
	savedMonitors := tx.listeners.monitorsByField
	savedPending := len(tx.listeners.pending)
	tx.listeners.createListeners = nil
	tx.listeners.monitorsByField = nil
	tx.mu.Unlock()
	return func() {
		tx.mu.Lock()
		tx.listeners.createListeners = savedCreate
		tx.listeners.monitorsByField = savedMonitors
		tx.listeners.pending = tx.listeners.pending[:savedPending]
		tx.mu.Unlock()
	}
}

// copyField copies one field of srcID (read at tx) into dstID (written at
// dstTx), dispatching on the field's kind.
func (tx *Transaction) copyField(dstTx *Transaction, srcID, dstID objid.ObjID, f *schema.FieldDef) error {
	switch f.Kind {
	case schema.Simple:
		v, err := tx.ReadSimple(srcID, f.StorageID, false)
		if err != nil {
			return err
		}
		return dstTx.WriteSimple(dstID, f.StorageID, v, false)
	case schema.Counter:
		v, err := tx.ReadCounter(srcID, f.StorageID, false)
		if err != nil {
			return err
		}
		return dstTx.WriteCounter(dstID, f.StorageID, v, false)
	case schema.Set:
		elems, err := tx.Set(srcID, f.StorageID).Elements()
		if err != nil {
			return err
		}
		dv := dstTx.Set(dstID, f.StorageID)
		for _, e := range elems {
			if err := dv.Add(e); err != nil {
				return err
			}
		}
		return nil
	case schema.List:
		elems, err := tx.List(srcID, f.StorageID).Elements()
		if err != nil {
			return err
		}
		dv := dstTx.List(dstID, f.StorageID)
		for _, e := range elems {
			if err := dv.Append(e); err != nil {
				return err
			}
		}
		return nil
	case schema.Map:
		keys, values, err := tx.Map(srcID, f.StorageID).Entries()
		if err != nil {
			return err
		}
		dv := dstTx.Map(dstID, f.StorageID)
		for i := range keys {
			if err := dv.Put(keys[i], values[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return InconsistentDatabase{Detail: "unknown field kind during copy"}
	}
}

// NewDetached returns a Transaction backed by a fresh, standalone in-memory
// KV store, sharing origin's schema registry and field-type registry (its
// "schema catalog" per spec.md §4.10) but none of its data. It supports
// every object operation but not Commit/Rollback in the durable sense —
// memkv.Update applies writes to its tree synchronously, so there is
// nothing to flush — and it may outlive origin; it is the usual Copy
// target for snapshotting an object out of a live transaction.
func NewDetached(ctx context.Context, origin *Transaction) (*Transaction, error) {
	mem := memkv.New()
	return Open(ctx, mem, origin.registry, origin.fieldtype, TxOptions{VersionNumber: origin.version.Number})
}
