package store

import (
	"bytes"
	"errors"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/log"
	"github.com/ledgerwatch/odb/metrics"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// metaFlagDeleteNotified is bit 62 of the OBJ: meta value's 64-bit version
// field, recording that delete-listeners have already fired for this
// object during an in-progress cascading delete.
const metaFlagDeleteNotified = uint64(1) << 62

func encodeMeta(version uint64, deleteNotified bool) []byte {
	v := version
	if deleteNotified {
		v |= metaFlagDeleteNotified
	}
	var buf bytes.Buffer
	codec.EncodeFixed64(&buf, v)
	return buf.Bytes()
}

func decodeMeta(b []byte) (version uint64, deleteNotified bool, err error) {
	r := bytes.NewReader(b)
	v, err := codec.DecodeFixed64(r)
	if err != nil {
		return 0, false, err
	}
	return v &^ metaFlagDeleteNotified, v&metaFlagDeleteNotified != 0, nil
}

// info resolves id's cached existence/version/delete-notified state,
// reading through to OBJ: on a cache miss.
func (tx *Transaction) info(b kvkit.Bucket, id objid.ObjID) (objInfo, error) {
	if v, ok := tx.objCache.Get(id); ok {
		return v.(objInfo), nil
	}
	raw, err := b.Get(objMetaKey(id))
	if err != nil {
		info := objInfo{exists: false}
		tx.objCache.Add(id, info)
		return info, nil
	}
	version, notified, err := decodeMeta(raw)
	if err != nil {
		return objInfo{}, InconsistentDatabase{Detail: err.Error()}
	}
	info := objInfo{exists: true, version: version, deleteNotified: notified}
	tx.objCache.Add(id, info)
	return info, nil
}

func (tx *Transaction) invalidate(id objid.ObjID) { tx.objCache.Remove(id) }

// Exists reports whether id currently exists.
func (tx *Transaction) Exists(id objid.ObjID) (exists bool, err error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return false, err
	}
	err = tx.withTx(func(r kvkit.Tx) error {
		info, err := tx.info(r.Bucket(dbutils.ObjectBucket), id)
		if err != nil {
			return err
		}
		exists = info.exists
		return nil
	})
	return exists, err
}

// Create makes a new object of type typeSID at version, using idOpt if
// given, else a random unused id within the type. It writes the meta row,
// every simple-field index entry at its default value, the version index
// entry, and every default-valued composite-index entry, then fires
// CreateListeners. Re-creating an existing id is a no-op reporting
// already-existed, mutating nothing (I9).
func (tx *Transaction) Create(idOpt *objid.ObjID, typeSID uint64, version uint64) (id objid.ObjID, alreadyExisted bool, err error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if err := tx.checkValid(); err != nil {
		return objid.Zero, false, err
	}
	v, ok := tx.registry.Lookup(version)
	if !ok {
		return objid.Zero, false, schema.InvalidSchema("unknown version")
	}
	ot, ok := v.ObjectType(typeSID)
	if !ok {
		return objid.Zero, false, UnknownType{StorageID: typeSID}
	}

	err = tx.withRwTx(func(rw kvkit.RwTx) error {
		objBucket := rw.RwBucket(dbutils.ObjectBucket)

		if idOpt != nil {
			info, infoErr := tx.info(objBucket, *idOpt)
			if infoErr != nil {
				return infoErr
			}
			if info.exists {
				id = *idOpt
				alreadyExisted = true
				return nil
			}
		}

		resolvedID, genErr := tx.resolveCreateID(objBucket, idOpt, typeSID)
		if genErr != nil {
			return genErr
		}
		id = resolvedID

		if putErr := objBucket.Put(objMetaKey(id), encodeMeta(v.Number, false)); putErr != nil {
			return putErr
		}
		tx.objCache.Add(id, objInfo{exists: true, version: v.Number})

		idxBucket := rw.RwBucket(dbutils.IndexBucket)
		vidxBucket := rw.RwBucket(dbutils.VersionIndexBucket)
		cidxBucket := rw.RwBucket(dbutils.CompositeIndexBucket)

		for _, f := range ot.Fields {
			if f.Kind == schema.Simple && f.Indexed {
				enc, encErr := tx.encodeDefault(f)
				if encErr != nil {
					return encErr
				}
				if putErr := idxBucket.Put(simpleIndexKey(f.StorageID, enc, id), []byte{}); putErr != nil {
					return putErr
				}
			}
		}
		if putErr := vidxBucket.Put(versionIndexKey(v.Number, id), []byte{}); putErr != nil {
			return putErr
		}
		for _, ci := range ot.CompositeIndexes {
			encs := make([][]byte, len(ci.FieldStorageIDs))
			for i, fsid := range ci.FieldStorageIDs {
				f, ok := ot.Field(fsid)
				if !ok {
					return InconsistentDatabase{Detail: "composite index references unknown field"}
				}
				enc, encErr := tx.encodeDefault(f)
				if encErr != nil {
					return encErr
				}
				encs[i] = enc
			}
			if putErr := cidxBucket.Put(compositeIndexKey(ci.StorageID, encs, id), []byte{}); putErr != nil {
				return putErr
			}
		}

		tx.fireCreate(id)
		log.Debug("object created", "id", id, "type", typeSID)
		metrics.ObjectsCreated.Inc()
		return nil
	})
	return id, alreadyExisted, err
}

func (tx *Transaction) resolveCreateID(objBucket kvkit.Bucket, idOpt *objid.ObjID, typeSID uint64) (objid.ObjID, error) {
	if idOpt != nil {
		return *idOpt, nil
	}
	const maxAttempts = 64
	isUsed := func(id objid.ObjID) bool {
		_, err := objBucket.Get(objMetaKey(id))
		return err == nil
	}
	id, err := objid.New(typeSID, isUsed, maxAttempts)
	if errors.Is(err, objid.ErrIDExhausted) {
		return objid.Zero, IdExhausted
	}
	return id, err
}

// encodeDefault returns field f's default value encoding: zero/false/""
// for primitives, the null ObjID for references.
func (tx *Transaction) encodeDefault(f *schema.FieldDef) ([]byte, error) {
	if f.IsReference() {
		var buf bytes.Buffer
		if err := objid.Codec.Encode(&buf, objid.Zero); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	c, err := tx.fieldtype.Lookup(f.Encoding)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.Encode(&buf, zeroValueFor(f.Encoding)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zeroValueFor(encoding string) interface{} {
	switch encoding {
	case "bool":
		return false
	case "string":
		return ""
	case "bytes":
		return []byte{}
	case "float32":
		return float32(0)
	case "float64":
		return float64(0)
	case "varint":
		return int64(0)
	default:
		return uint64(0)
	}
}
