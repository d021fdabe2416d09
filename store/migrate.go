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

// maybeMigrate runs Migrate(id, tx.version.Number) if id's stored version
// differs from tx's. Callers must already hold tx.mu.
func (tx *Transaction) maybeMigrate(id objid.ObjID) error {
	var needsMigration bool
	var current uint64
	err := tx.withTx(func(r kvkit.Tx) error {
		info, err := tx.info(r.Bucket(dbutils.ObjectBucket), id)
		if err != nil {
			return err
		}
		if !info.exists {
			return nil
		}
		current = info.version
		needsMigration = info.version != tx.version.Number
		return nil
	})
	if err != nil || !needsMigration {
		return err
	}
	return tx.migrateLocked(id, current, tx.version.Number)
}

// MigrateSchema is the bulk migration entry point, moving id to tx's
// current version regardless of lazy-read/write triggering.
func (tx *Transaction) MigrateSchema(id objid.ObjID) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	var current uint64
	err := tx.withTx(func(r kvkit.Tx) error {
		info, err := tx.info(r.Bucket(dbutils.ObjectBucket), id)
		if err != nil {
			return err
		}
		if !info.exists {
			return Deleted{ID: id}
		}
		current = info.version
		return nil
	})
	if err != nil {
		return err
	}
	if current == tx.version.Number {
		return nil
	}
	return tx.migrateLocked(id, current, tx.version.Number)
}

func (tx *Transaction) migrateLocked(id objid.ObjID, fromVersion, toVersion uint64) error {
	oldVer, ok := tx.registry.Lookup(fromVersion)
	if !ok {
		return schema.InvalidSchema("migration source version unknown")
	}
	newVer, ok := tx.registry.Lookup(toVersion)
	if !ok {
		return schema.InvalidSchema("migration target version unknown")
	}

	typeSID, err := objid.StorageID(id)
	if err != nil {
		return err
	}
	oldType, ok := oldVer.ObjectType(typeSID)
	if !ok {
		return InconsistentDatabase{Detail: "object's type missing from its own recorded version"}
	}
	newType, ok := newVer.ObjectType(typeSID)
	if !ok {
		return TypeNotInVersion{ID: id, Version: toVersion}
	}

	oldValues := make(map[uint64]interface{})

	return tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		idxB := rw.RwBucket(dbutils.IndexBucket)
		cidxB := rw.RwBucket(dbutils.CompositeIndexBucket)
		vidxB := rw.RwBucket(dbutils.VersionIndexBucket)

		for _, oldField := range oldType.Fields {
			newField, stillPresent := newType.Field(oldField.StorageID)
			key := objFieldKey(id, oldField.StorageID)
			if oldField.Kind == schema.Simple || oldField.Kind == schema.Counter {
				raw, getErr := objB.Get(key)
				if getErr == nil {
					c, cErr := tx.codecFor(oldField)
					if cErr == nil {
						if v, decErr := codec.Decode(c, raw); decErr == nil {
							oldValues[oldField.StorageID] = v
						}
					}
				}
				if !stillPresent {
					if getErr == nil && oldField.Indexed {
						if err := idxB.Delete(simpleIndexKey(oldField.StorageID, raw, id)); err != nil {
							return err
						}
					}
					if err := objB.Delete(key); err != nil {
						return err
					}
					continue
				}
				if oldField.Indexed != newField.Indexed {
					if newField.Indexed {
						cur := raw
						if getErr != nil {
							def, defErr := tx.encodeDefault(newField)
							if defErr != nil {
								return defErr
							}
							cur = def
						}
						if err := idxB.Put(simpleIndexKey(newField.StorageID, cur, id), []byte{}); err != nil {
							return err
						}
					} else if getErr == nil {
						if err := idxB.Delete(simpleIndexKey(oldField.StorageID, raw, id)); err != nil {
							return err
						}
					}
				}
				if newField.IsReference() && !restrictionSubset(newField.Reference.TargetWhitelist, oldField.Reference) {
					if getErr == nil {
						if ref, decErr := objid.FromBytes(raw); decErr == nil && !ref.IsZero() {
							if !newField.Reference.AllowsTarget(typeSIDOrZero(tx, ref)) {
								if err := tx.unreferenceOne(rw, newField, id, ref); err != nil {
									return err
								}
							}
						}
					}
				}
			} else {
				// Complex field: structural sub-field keys carry over
				// untouched; only presence/absence at the top matters.
				if !stillPresent {
					if err := tx.deleteComplexField(rw, id, oldField); err != nil {
						return err
					}
				}
			}
		}
		for _, newField := range newType.Fields {
			if _, existedBefore := oldType.Field(newField.StorageID); existedBefore {
				continue
			}
			if newField.Kind == schema.Counter {
				if err := objB.Put(objFieldKey(id, newField.StorageID), codec.Encode(codec.Varint, int64(0))); err != nil {
					return err
				}
				continue
			}
			if newField.Kind == schema.Simple {
				def, defErr := tx.encodeDefault(newField)
				if defErr != nil {
					return defErr
				}
				if err := objB.Put(objFieldKey(id, newField.StorageID), def); err != nil {
					return err
				}
				if newField.Indexed {
					if err := idxB.Put(simpleIndexKey(newField.StorageID, def, id), []byte{}); err != nil {
						return err
					}
				}
			}
		}

		oldCI := make(map[uint64]*schema.CompositeIndexDef)
		for _, ci := range oldType.CompositeIndexes {
			oldCI[ci.StorageID] = ci
		}
		for _, ci := range newType.CompositeIndexes {
			if _, existed := oldCI[ci.StorageID]; existed {
				delete(oldCI, ci.StorageID)
				continue
			}
			encs := make([][]byte, len(ci.FieldStorageIDs))
			for i, fsid := range ci.FieldStorageIDs {
				f, ok := newType.Field(fsid)
				if !ok {
					return InconsistentDatabase{Detail: "composite index references unknown field"}
				}
				raw, getErr := objB.Get(objFieldKey(id, fsid))
				if getErr != nil {
					def, defErr := tx.encodeDefault(f)
					if defErr != nil {
						return defErr
					}
					raw = def
				}
				encs[i] = raw
			}
			if err := cidxB.Put(compositeIndexKey(ci.StorageID, encs, id), []byte{}); err != nil {
				return err
			}
		}
		for sid := range oldCI {
			if err := removeStaleCompositeEntry(cidxB, sid, id); err != nil {
				return err
			}
		}

		if err := vidxB.Delete(versionIndexKey(fromVersion, id)); err != nil {
			return err
		}
		if err := vidxB.Put(versionIndexKey(toVersion, id), []byte{}); err != nil {
			return err
		}
		if err := objB.Put(objMetaKey(id), encodeMeta(toVersion, false)); err != nil {
			return err
		}
		tx.invalidate(id)

		tx.fireSchemaChange(id, oldValues)
		log.Debug("migrated object", "id", id, "from", fromVersion, "to", toVersion)
		return nil
	})
}

func (tx *Transaction) deleteComplexField(rw kvkit.RwTx, id objid.ObjID, f *schema.FieldDef) error {
	objB := rw.RwBucket(dbutils.ObjectBucket)
	prefix := objFieldKey(id, f.StorageID)
	cur := objB.Cursor()
	k, _, err := cur.Seek(prefix)
	if err != nil {
		return err
	}
	var toDelete [][]byte
	for k != nil && bytes.HasPrefix(k, prefix) {
		toDelete = append(toDelete, append([]byte(nil), k...))
		k, _, err = cur.Next()
		if err != nil {
			return err
		}
	}
	for _, k := range toDelete {
		if err := objB.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func restrictionSubset(newWhitelist []uint64, oldRef *schema.ReferenceDef) bool {
	if len(newWhitelist) == 0 {
		return true
	}
	if oldRef == nil || len(oldRef.TargetWhitelist) == 0 {
		return false
	}
	old := make(map[uint64]bool, len(oldRef.TargetWhitelist))
	for _, sid := range oldRef.TargetWhitelist {
		old[sid] = true
	}
	for _, sid := range newWhitelist {
		if !old[sid] {
			return false
		}
	}
	return true
}

func typeSIDOrZero(tx *Transaction, id objid.ObjID) uint64 {
	sid, err := objid.StorageID(id)
	if err != nil {
		return 0
	}
	return sid
}

// unreferenceOne nulls out a single reference field value during
// migration-driven whitelist enforcement, applying the same index
// bookkeeping as unreferenceInPlace's simple-field path.
func (tx *Transaction) unreferenceOne(rw kvkit.RwTx, f *schema.FieldDef, id objid.ObjID, old objid.ObjID) error {
	objB := rw.RwBucket(dbutils.ObjectBucket)
	key := objFieldKey(id, f.StorageID)
	newBytes := codec.Encode(objid.Codec, objid.Zero)
	if err := objB.Put(key, newBytes); err != nil {
		return err
	}
	if f.Indexed {
		idxB := rw.RwBucket(dbutils.IndexBucket)
		oldBytes := codec.Encode(objid.Codec, old)
		if err := idxB.Delete(simpleIndexKey(f.StorageID, oldBytes, id)); err != nil {
			return err
		}
		if err := idxB.Put(simpleIndexKey(f.StorageID, newBytes, id), []byte{}); err != nil {
			return err
		}
	}
	return nil
}
