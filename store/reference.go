package store

import (
	"bytes"

	mapset "github.com/deckarep/golang-set"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/log"
	"github.com/ledgerwatch/odb/metrics"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// referenceFieldsByAction gathers, from every installed schema version,
// every (top-level or complex-element) reference field whose
// inverse-delete action equals action, deduplicated by storage-id.
func (tx *Transaction) referenceFieldsByAction(action schema.InverseDeleteAction) []uint64 {
	seen := make(map[uint64]bool)
	var out []uint64
	add := func(f *schema.FieldDef) {
		if f.IsReference() && f.Reference.InverseDelete == action && !seen[f.StorageID] {
			seen[f.StorageID] = true
			out = append(out, f.StorageID)
		}
	}
	for _, v := range tx.registry.Versions() {
		for _, t := range v.Model.ObjectTypes {
			for _, f := range t.Fields {
				add(f)
				if f.Element != nil {
					add(f.Element)
				}
				if f.Key != nil {
					add(f.Key)
				}
			}
		}
	}
	return out
}

// forwardDeleteFields gathers x's own reference fields (resolved against
// x's own recorded schema version, not tx.version) whose ForwardDelete is
// set.
func (tx *Transaction) forwardDeleteFields(ot *schema.ObjectType) []*schema.FieldDef {
	var out []*schema.FieldDef
	for _, f := range ot.Fields {
		if f.IsReference() && f.Reference.ForwardDelete {
			out = append(out, f)
		}
		if f.Element != nil && f.Element.IsReference() && f.Element.Reference.ForwardDelete {
			out = append(out, f)
		}
	}
	return out
}

// objectTypeAtOwnVersion resolves id's object type using its own recorded
// schema version rather than tx.version, since a cascading delete must be
// able to tear down objects created under an older, still-installed
// version.
func (tx *Transaction) objectTypeAtOwnVersion(ownVersion uint64, id objid.ObjID) (*schema.ObjectType, error) {
	v, ok := tx.registry.Lookup(ownVersion)
	if !ok {
		return nil, InconsistentDatabase{Detail: "object's recorded schema version is not installed"}
	}
	typeSID, err := objid.StorageID(id)
	if err != nil {
		return nil, err
	}
	ot, ok := v.ObjectType(typeSID)
	if !ok {
		return nil, UnknownType{StorageID: typeSID}
	}
	return ot, nil
}

// Delete runs the cascading worklist delete engine. It returns true iff id
// existed prior to the call.
func (tx *Transaction) Delete(id objid.ObjID) (existed bool, err error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return false, err
	}

	pending := mapset.NewSet()
	pending.Add(id)

	firstPop := true
	for pending.Cardinality() > 0 {
		x := pending.ToSlice()[0].(objid.ObjID)
		pending.Remove(x)

		popExisted, err := tx.deleteStep(x, pending)
		if err != nil {
			return false, err
		}
		if firstPop {
			existed = popExisted
			firstPop = false
		}
	}
	return existed, nil
}

// deleteStep processes one pop of the worklist for x, pushing further
// work onto pending as needed, and reports whether x existed.
func (tx *Transaction) deleteStep(x objid.ObjID, pending mapset.Set) (bool, error) {
	var info objInfo
	err := tx.withTx(func(r kvkit.Tx) error {
		i, err := tx.info(r.Bucket(dbutils.ObjectBucket), x)
		if err != nil {
			return err
		}
		info = i
		return nil
	})
	if err != nil {
		return false, err
	}
	if !info.exists {
		return false, nil
	}

	if err := tx.checkExceptionReferrers(x); err != nil {
		return true, err
	}

	if !info.deleteNotified {
		if err := tx.markDeleteNotified(x); err != nil {
			return true, err
		}
		tx.fireDelete(x)
		// Re-enter the loop for x: listeners may have mutated state that
		// changes what the remaining steps should see.
		pending.Add(x)
		return true, nil
	}

	ot, err := tx.objectTypeAtOwnVersion(info.version, x)
	if err != nil {
		return true, err
	}

	for _, f := range tx.forwardDeleteFields(ot) {
		targets, err := tx.readForwardTargets(x, f.StorageID)
		if err != nil {
			return true, err
		}
		for _, t := range targets {
			if !t.IsZero() {
				pending.Add(t)
			}
		}
	}

	if err := tx.removeObjectFootprint(x, info.version, ot); err != nil {
		return true, err
	}

	for _, fieldSID := range tx.referenceFieldsByAction(schema.Unreference) {
		referrers, err := backwardStep(tx, []objid.ObjID{x}, fieldSID)
		if err != nil {
			return true, err
		}
		for _, r := range referrers {
			if err := tx.unreferenceInPlace(r, fieldSID, x); err != nil {
				return true, err
			}
		}
	}

	for _, fieldSID := range tx.referenceFieldsByAction(schema.Delete) {
		referrers, err := backwardStep(tx, []objid.ObjID{x}, fieldSID)
		if err != nil {
			return true, err
		}
		for _, r := range referrers {
			pending.Add(r)
		}
	}

	metrics.ObjectsDeleted.Inc()
	log.Debug("deleted object", "id", x)
	return true, nil
}

// checkExceptionReferrers fails with Referenced if any object other than
// x refers to x through an EXCEPTION reference field.
func (tx *Transaction) checkExceptionReferrers(x objid.ObjID) error {
	for _, fieldSID := range tx.referenceFieldsByAction(schema.Exception) {
		referrers, err := backwardStep(tx, []objid.ObjID{x}, fieldSID)
		if err != nil {
			return err
		}
		for _, r := range referrers {
			if r != x {
				return Referenced{Target: x, Referrer: r, FieldStorageID: fieldSID}
			}
		}
	}
	return nil
}

func (tx *Transaction) markDeleteNotified(x objid.ObjID) error {
	return tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		info, err := tx.info(objB, x)
		if err != nil {
			return err
		}
		if err := objB.Put(objMetaKey(x), encodeMeta(info.version, true)); err != nil {
			return err
		}
		tx.invalidate(x)
		return nil
	})
}

// removeObjectFootprint deletes every OBJ:/IDX:/CIDX:/VIDX: entry
// belonging to x, resolved against the object type it was created under.
func (tx *Transaction) removeObjectFootprint(x objid.ObjID, version uint64, ot *schema.ObjectType) error {
	return tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		idxB := rw.RwBucket(dbutils.IndexBucket)
		cidxB := rw.RwBucket(dbutils.CompositeIndexBucket)
		vidxB := rw.RwBucket(dbutils.VersionIndexBucket)

		for _, f := range ot.Fields {
			key := objFieldKey(x, f.StorageID)
			if f.Kind == schema.Simple || f.Kind == schema.Counter {
				if f.Indexed {
					raw, getErr := objB.Get(key)
					if getErr == nil {
						if err := idxB.Delete(simpleIndexKey(f.StorageID, raw, x)); err != nil {
							return err
						}
					}
				}
				if err := objB.Delete(key); err != nil {
					return err
				}
				continue
			}
			if err := tx.deleteComplexFieldAndSubIndex(rw, x, f); err != nil {
				return err
			}
		}
		for _, ci := range ot.CompositeIndexes {
			if err := removeStaleCompositeEntry(cidxB, ci.StorageID, x); err != nil {
				return err
			}
		}
		if err := vidxB.Delete(versionIndexKey(version, x)); err != nil {
			return err
		}
		if err := objB.Delete(objMetaKey(x)); err != nil {
			return err
		}
		tx.invalidate(x)
		return nil
	})
}

func (tx *Transaction) deleteComplexFieldAndSubIndex(rw kvkit.RwTx, id objid.ObjID, f *schema.FieldDef) error {
	objB := rw.RwBucket(dbutils.ObjectBucket)
	idxB := rw.RwBucket(dbutils.IndexBucket)
	prefix := objFieldKey(id, f.StorageID)
	cur := objB.Cursor()
	k, v, err := cur.Seek(prefix)
	if err != nil {
		return err
	}
	type delEntry struct{ key, value []byte }
	var entries []delEntry
	for k != nil && bytes.HasPrefix(k, prefix) {
		entries = append(entries, delEntry{append([]byte(nil), k...), append([]byte(nil), v...)})
		k, v, err = cur.Next()
		if err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := objB.Delete(e.key); err != nil {
			return err
		}
		if f.Element != nil && f.Element.Indexed {
			sub := e.key[len(prefix):]
			switch f.Kind {
			case schema.Set:
				if err := idxB.Delete(subIndexKey(f.Element.StorageID, sub, id, nil)); err != nil {
					return err
				}
			case schema.List:
				if err := idxB.Delete(subIndexKey(f.Element.StorageID, e.value, id, sub)); err != nil {
					return err
				}
			case schema.Map:
				if err := idxB.Delete(subIndexKey(f.Element.StorageID, e.value, id, sub)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// unreferenceInPlace nulls/removes referrer's pointer(s) at x for a
// reference field whose inverse-delete action is UNREFERENCE: a simple
// field is set to null, a set element equal to x is removed, a list
// element equal to x is set to null, and a map entry whose value is x is
// removed. Map keys are not examined.
func (tx *Transaction) unreferenceInPlace(referrer objid.ObjID, fieldSID uint64, target objid.ObjID) error {
	return tx.withRwTx(func(rw kvkit.RwTx) error {
		ot, err := tx.objectTypeOf(referrer)
		if err != nil {
			return nil // referrer's type no longer resolvable under tx.version; best effort
		}
		f, ok := ot.Field(fieldSID)
		if ok && f.Kind == schema.Simple {
			objB := rw.RwBucket(dbutils.ObjectBucket)
			idxB := rw.RwBucket(dbutils.IndexBucket)
			key := objFieldKey(referrer, fieldSID)
			oldBytes := codec.Encode(objid.Codec, target)
			newBytes := codec.Encode(objid.Codec, objid.Zero)
			if err := objB.Put(key, newBytes); err != nil {
				return err
			}
			if f.Indexed {
				if err := idxB.Delete(simpleIndexKey(fieldSID, oldBytes, referrer)); err != nil {
					return err
				}
				if err := idxB.Put(simpleIndexKey(fieldSID, newBytes, referrer), []byte{}); err != nil {
					return err
				}
			}
			tx.invalidate(referrer)
			return nil
		}
		// Complex sub-field: find the owning top-level field and remove the
		// matching set element / null the list slot / drop the map entry.
		return tx.unreferenceInComplexField(rw, ot, referrer, fieldSID, target)
	})
}

func (tx *Transaction) unreferenceInComplexField(rw kvkit.RwTx, ot *schema.ObjectType, referrer objid.ObjID, subFieldSID uint64, target objid.ObjID) error {
	objB := rw.RwBucket(dbutils.ObjectBucket)
	for _, f := range ot.Fields {
		if f.Element == nil || f.Element.StorageID != subFieldSID {
			continue
		}
		prefix := objFieldKey(referrer, f.StorageID)
		cur := objB.Cursor()
		k, v, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			switch f.Kind {
			case schema.Set:
				sub := k[len(prefix):]
				if decoded, decErr := objid.FromBytes(sub); decErr == nil && decoded == target {
					if err := objB.Delete(k); err != nil {
						return err
					}
				}
			case schema.List:
				if decoded, decErr := objid.FromBytes(v); decErr == nil && decoded == target {
					if err := objB.Put(append([]byte(nil), k...), codec.Encode(objid.Codec, objid.Zero)); err != nil {
						return err
					}
				}
			case schema.Map:
				if decoded, decErr := objid.FromBytes(v); decErr == nil && decoded == target {
					if err := objB.Delete(k); err != nil {
						return err
					}
				}
			}
			k, v, err = cur.Next()
			if err != nil {
				return err
			}
		}
	}
	return nil
}
