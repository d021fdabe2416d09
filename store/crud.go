package store

import (
	"bytes"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/log"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// resolveField looks up field fieldSID on id's object type within tx's
// current version, failing with Deleted/UnknownType/UnknownField.
func (tx *Transaction) resolveField(b kvkit.Bucket, id objid.ObjID, fieldSID uint64) (*schema.ObjectType, *schema.FieldDef, error) {
	info, err := tx.info(b, id)
	if err != nil {
		return nil, nil, err
	}
	if !info.exists {
		return nil, nil, Deleted{ID: id}
	}
	ot, err := tx.objectTypeOf(id)
	if err != nil {
		return nil, nil, err
	}
	f, ok := ot.Field(fieldSID)
	if !ok {
		return nil, nil, UnknownField{TypeStorageID: ot.StorageID, FieldStorageID: fieldSID}
	}
	return ot, f, nil
}

// ReadSimple reads a simple or counter field, migrating id first if
// migrate is set and id's version differs from tx's.
func (tx *Transaction) ReadSimple(id objid.ObjID, fieldSID uint64, migrate bool) (interface{}, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return nil, err
	}
	if migrate {
		if err := tx.maybeMigrate(id); err != nil {
			return nil, err
		}
	}
	var out interface{}
	err := tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		_, f, err := tx.resolveField(objB, id, fieldSID)
		if err != nil {
			return err
		}
		raw, err := objB.Get(objFieldKey(id, fieldSID))
		if err != nil {
			out = zeroValueFor(f.Encoding)
			if f.IsReference() {
				out = objid.Zero
			}
			return nil
		}
		c, err := tx.codecFor(f)
		if err != nil {
			return err
		}
		v, err := codec.Decode(c, raw)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (tx *Transaction) codecFor(f *schema.FieldDef) (codec.Codec, error) {
	if f.IsReference() {
		return objid.Codec, nil
	}
	return tx.fieldtype.Lookup(f.Encoding)
}

// WriteSimple writes a simple field, maintaining its index entry and every
// composite index it participates in. A write whose new bytes equal the
// old ones is a no-op.
func (tx *Transaction) WriteSimple(id objid.ObjID, fieldSID uint64, value interface{}, migrate bool) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return err
	}
	if migrate {
		if err := tx.maybeMigrate(id); err != nil {
			return err
		}
	}
	return tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		ot, f, err := tx.resolveField(objB, id, fieldSID)
		if err != nil {
			return err
		}
		if f.IsReference() {
			target := value.(objid.ObjID)
			if !target.IsZero() {
				if err := tx.checkReferenceTarget(objB, f, target); err != nil {
					return err
				}
			}
		}
		c, err := tx.codecFor(f)
		if err != nil {
			return err
		}
		newBytes := codec.Encode(c, value)
		key := objFieldKey(id, fieldSID)
		oldBytes, getErr := objB.Get(key)
		hadOld := getErr == nil
		if hadOld && bytes.Equal(oldBytes, newBytes) {
			return nil
		}
		var oldValue interface{}
		if hadOld {
			oldValue, _ = codec.Decode(c, oldBytes)
		} else {
			oldValue = zeroValueFor(f.Encoding)
			if f.IsReference() {
				oldValue = objid.Zero
			}
		}
		if err := objB.Put(key, newBytes); err != nil {
			return err
		}
		if f.Indexed {
			idxB := rw.RwBucket(dbutils.IndexBucket)
			oldEnc := codec.Encode(c, oldValue)
			if err := idxB.Delete(simpleIndexKey(fieldSID, oldEnc, id)); err != nil {
				return err
			}
			if err := idxB.Put(simpleIndexKey(fieldSID, newBytes, id), []byte{}); err != nil {
				return err
			}
		}
		if err := tx.rebuildCompositeIndexesFor(rw, ot, id, fieldSID); err != nil {
			return err
		}
		tx.enqueue(fieldSID, id, ChangeDetail{FieldSID: fieldSID, Kind: f.Kind, Old: oldValue, New: value})
		log.Debug("wrote field", "id", id, "field", fieldSID)
		return nil
	})
}

// checkReferenceTarget enforces DeletedAssignment unless f.Reference
// allows deleted targets or a pending-deleted-assignments collector is
// installed (the copy engine's path).
func (tx *Transaction) checkReferenceTarget(objB kvkit.Bucket, f *schema.FieldDef, target objid.ObjID) error {
	info, err := tx.info(objB, target)
	if err != nil {
		return err
	}
	if info.exists || f.Reference.AllowDeleted {
		return nil
	}
	violation := DeletedAssignment{FieldStorageID: f.StorageID, Target: target}
	if tx.pendingDeletedAssignments != nil {
		*tx.pendingDeletedAssignments = append(*tx.pendingDeletedAssignments, violation)
		return nil
	}
	return violation
}

// RebuildCompositeIndexes recomputes every composite index entry for id,
// regardless of which field last changed. Used by the migrations package's
// composite-index backfill job when a schema change adds a composite index
// to a type that already has live objects.
func (tx *Transaction) RebuildCompositeIndexes(id objid.ObjID) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return err
	}
	return tx.withRwTx(func(rw kvkit.RwTx) error {
		ot, err := tx.objectTypeOf(id)
		if err != nil {
			return err
		}
		for _, ci := range ot.CompositeIndexes {
			if len(ci.FieldStorageIDs) == 0 {
				continue
			}
			if err := tx.rebuildCompositeIndexesFor(rw, ot, id, ci.FieldStorageIDs[0]); err != nil {
				return err
			}
		}
		return nil
	})
}

// rebuildCompositeIndexesFor rewrites every composite index entry of ot
// that includes changedFieldSID, re-reading the other component fields at
// their current stored values.
func (tx *Transaction) rebuildCompositeIndexesFor(rw kvkit.RwTx, ot *schema.ObjectType, id objid.ObjID, changedFieldSID uint64) error {
	objB := rw.RwBucket(dbutils.ObjectBucket)
	cidxB := rw.RwBucket(dbutils.CompositeIndexBucket)
	for _, ci := range ot.CompositeIndexes {
		participates := false
		for _, sid := range ci.FieldStorageIDs {
			if sid == changedFieldSID {
				participates = true
				break
			}
		}
		if !participates {
			continue
		}
		oldEncs := make([][]byte, len(ci.FieldStorageIDs))
		newEncs := make([][]byte, len(ci.FieldStorageIDs))
		for i, sid := range ci.FieldStorageIDs {
			f, ok := ot.Field(sid)
			if !ok {
				return InconsistentDatabase{Detail: "composite index references unknown field"}
			}
			c, err := tx.codecFor(f)
			if err != nil {
				return err
			}
			def, err := tx.encodeDefault(f)
			if err != nil {
				return err
			}
			raw, getErr := objB.Get(objFieldKey(id, sid))
			if getErr != nil {
				raw = def
			}
			newEncs[i] = raw
			if sid == changedFieldSID {
				oldEncs[i] = raw // oldEncs is not consulted; see removeStaleCompositeEntry below
			} else {
				oldEncs[i] = raw
			}
			_ = c
		}
		// The caller already wrote the new field value before calling this,
		// so oldEncs/newEncs as read above are both "current" for the
		// changed field and cannot name the previous composite entry.
		// Instead of rebuilding that entry's key, this deletes whichever
		// entry of the composite index ends in id, whatever its value
		// components, and then writes the new one.
		if err := removeStaleCompositeEntry(cidxB, ci.StorageID, id); err != nil {
			return err
		}
		if err := cidxB.Put(compositeIndexKey(ci.StorageID, newEncs, id), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// removeStaleCompositeEntry scans the composite index's id-suffixed
// entries and deletes whichever one ends in id, regardless of its value
// components, since at most one entry per (composite, id) may exist.
func removeStaleCompositeEntry(cidxB kvkit.RwBucket, compositeSID uint64, id objid.ObjID) error {
	prefix := compositeIndexPrefix(compositeSID)
	cur := cidxB.Cursor()
	k, _, err := cur.Seek(prefix)
	if err != nil {
		return err
	}
	for k != nil && bytes.HasPrefix(k, prefix) {
		if bytes.HasSuffix(k, id.Bytes()) {
			if err := cidxB.Delete(k); err != nil {
				return err
			}
			return nil
		}
		k, _, err = cur.Next()
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadCounter and WriteCounter treat a counter field as an opaque 64-bit
// integer; counters are never indexed.
func (tx *Transaction) ReadCounter(id objid.ObjID, fieldSID uint64, migrate bool) (int64, error) {
	v, err := tx.ReadSimple(id, fieldSID, migrate)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return v.(int64), nil
}

func (tx *Transaction) WriteCounter(id objid.ObjID, fieldSID uint64, value int64, migrate bool) error {
	return tx.WriteSimple(id, fieldSID, value, migrate)
}

// AdjustCounter performs an atomic read-modify-write on a counter field.
func (tx *Transaction) AdjustCounter(id objid.ObjID, fieldSID uint64, delta int64, migrate bool) (int64, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return 0, err
	}
	if migrate {
		if err := tx.maybeMigrate(id); err != nil {
			return 0, err
		}
	}
	var result int64
	err := tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := tx.resolveField(objB, id, fieldSID)
		if err != nil {
			return err
		}
		raw, getErr := objB.Get(objFieldKey(id, fieldSID))
		var cur int64
		if getErr == nil {
			cur, err = codec.DecodeVarint(bytes.NewReader(raw))
			if err != nil {
				return err
			}
		}
		result = cur + delta
		newBytes := codec.Encode(codec.Varint, result)
		if err := objB.Put(objFieldKey(id, fieldSID), newBytes); err != nil {
			return err
		}
		tx.enqueue(fieldSID, id, ChangeDetail{FieldSID: fieldSID, Kind: f.Kind, Old: cur, New: result})
		return nil
	})
	return result, err
}
