package store

import (
	"bytes"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// SetView is a live, ordered view over a set field's KV-backed elements.
type SetView struct {
	tx       *Transaction
	id       objid.ObjID
	fieldSID uint64
}

// Set returns the live view for id's set field fieldSID.
func (tx *Transaction) Set(id objid.ObjID, fieldSID uint64) *SetView {
	return &SetView{tx: tx, id: id, fieldSID: fieldSID}
}

func (v *SetView) resolve(b kvkit.Bucket) (*schema.ObjectType, *schema.FieldDef, error) {
	return v.tx.resolveField(b, v.id, v.fieldSID)
}

// Size returns the number of elements, or 0 for a deleted owning object.
func (v *SetView) Size() (int, error) {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	n := 0
	err := v.tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		info, err := v.tx.info(objB, v.id)
		if err != nil {
			return err
		}
		if !info.exists {
			return nil
		}
		_, f, err := v.resolve(objB)
		if err != nil {
			return err
		}
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, _, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			n++
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		_ = f
		return nil
	})
	return n, err
}

// IsEmpty reports Size() == 0.
func (v *SetView) IsEmpty() (bool, error) {
	n, err := v.Size()
	return n == 0, err
}

// Elements decodes and returns every element in encoding order.
func (v *SetView) Elements() ([]interface{}, error) {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	var out []interface{}
	err := v.tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		info, err := v.tx.info(objB, v.id)
		if err != nil {
			return err
		}
		if !info.exists {
			return nil
		}
		_, f, err := v.resolve(objB)
		if err != nil {
			return err
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, _, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			elemBytes := k[len(prefix):]
			val, decErr := codec.Decode(ec, elemBytes)
			if decErr != nil {
				return decErr
			}
			out = append(out, val)
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Contains reports whether element is currently in the set.
func (v *SetView) Contains(element interface{}) (bool, error) {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	found := false
	err := v.tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		info, err := v.tx.info(objB, v.id)
		if err != nil {
			return err
		}
		if !info.exists {
			return nil
		}
		_, f, err := v.resolve(objB)
		if err != nil {
			return err
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		encElem := codec.Encode(ec, element)
		_, getErr := objB.Get(objSubKey(v.id, v.fieldSID, encElem))
		found = getErr == nil
		return nil
	})
	return found, err
}

// Clear removes every element, maintaining the sub-field index.
func (v *SetView) Clear() error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.resolve(objB)
		if err != nil {
			return err
		}
		idxB := rw.RwBucket(dbutils.IndexBucket)
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, _, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		var keys [][]byte
		for k != nil && bytes.HasPrefix(k, prefix) {
			keys = append(keys, append([]byte(nil), k...))
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		for _, k := range keys {
			if err := objB.Delete(k); err != nil {
				return err
			}
			if f.Element.Indexed {
				sub := k[len(prefix):]
				if err := idxB.Delete(subIndexKey(f.Element.StorageID, sub, v.id, nil)); err != nil {
					return err
				}
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.Set})
		return nil
	})
}

// Add inserts element into the set, maintaining the sub-field index if
// indexed. Fails with Deleted if the owning object is gone.
func (v *SetView) Add(element interface{}) error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.resolve(objB)
		if err != nil {
			return err
		}
		if f.Element.IsReference() {
			target := element.(objid.ObjID)
			if !target.IsZero() {
				if err := v.tx.checkReferenceTarget(objB, f.Element, target); err != nil {
					return err
				}
			}
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		encElem := codec.Encode(ec, element)
		key := objSubKey(v.id, v.fieldSID, encElem)
		if err := objB.Put(key, []byte{}); err != nil {
			return err
		}
		if f.Element.Indexed {
			idxB := rw.RwBucket(dbutils.IndexBucket)
			if err := idxB.Put(subIndexKey(f.Element.StorageID, encElem, v.id, nil), []byte{}); err != nil {
				return err
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.Set, New: element})
		return nil
	})
}

// Remove deletes element from the set if present.
func (v *SetView) Remove(element interface{}) error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.resolve(objB)
		if err != nil {
			return err
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		encElem := codec.Encode(ec, element)
		key := objSubKey(v.id, v.fieldSID, encElem)
		if err := objB.Delete(key); err != nil {
			return err
		}
		if f.Element.Indexed {
			idxB := rw.RwBucket(dbutils.IndexBucket)
			if err := idxB.Delete(subIndexKey(f.Element.StorageID, encElem, v.id, nil)); err != nil {
				return err
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.Set, Old: element})
		return nil
	})
}

// ListView is a live, ordered view over a list field's elements, keyed by
// 8-byte big-endian position.
type ListView struct {
	tx       *Transaction
	id       objid.ObjID
	fieldSID uint64
}

func (tx *Transaction) List(id objid.ObjID, fieldSID uint64) *ListView {
	return &ListView{tx: tx, id: id, fieldSID: fieldSID}
}

// Size returns the list's length, or 0 for a deleted owning object.
func (v *ListView) Size() (int, error) {
	elems, err := v.Elements()
	return len(elems), err
}

// IsEmpty reports Size() == 0.
func (v *ListView) IsEmpty() (bool, error) {
	n, err := v.Size()
	return n == 0, err
}

// Get returns the element at position i.
func (v *ListView) Get(i uint64) (interface{}, error) {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	var out interface{}
	err := v.tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		raw, getErr := objB.Get(objSubKey(v.id, v.fieldSID, listIndexBytes(i)))
		if getErr != nil {
			return InconsistentDatabase{Detail: "list index out of range"}
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		out, err = codec.Decode(ec, raw)
		return err
	})
	return out, err
}

// Set overwrites the element at position i.
func (v *ListView) Set(i uint64, element interface{}) error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		if f.Element.IsReference() {
			target := element.(objid.ObjID)
			if !target.IsZero() {
				if err := v.tx.checkReferenceTarget(objB, f.Element, target); err != nil {
					return err
				}
			}
		}
		key := objSubKey(v.id, v.fieldSID, listIndexBytes(i))
		oldRaw, getErr := objB.Get(key)
		if getErr != nil {
			return InconsistentDatabase{Detail: "list index out of range"}
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		var oldValue interface{}
		if oldValue, err = codec.Decode(ec, oldRaw); err != nil {
			return err
		}
		encElem := codec.Encode(ec, element)
		if err := objB.Put(key, encElem); err != nil {
			return err
		}
		if f.Element.Indexed {
			idxB := rw.RwBucket(dbutils.IndexBucket)
			if err := idxB.Delete(subIndexKey(f.Element.StorageID, oldRaw, v.id, listIndexBytes(i))); err != nil {
				return err
			}
			if err := idxB.Put(subIndexKey(f.Element.StorageID, encElem, v.id, listIndexBytes(i)), []byte{}); err != nil {
				return err
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.List, Old: oldValue, New: element})
		return nil
	})
}

// RemoveAt deletes the element at position i, shifting every later element
// down by one position so in-order iteration keeps yielding positions
// 0..n-1 contiguously.
func (v *ListView) RemoveAt(i uint64) error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		idxB := rw.RwBucket(dbutils.IndexBucket)
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, val, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		type entry struct {
			key, val []byte
		}
		var entries []entry
		for k != nil && bytes.HasPrefix(k, prefix) {
			entries = append(entries, entry{append([]byte(nil), k...), append([]byte(nil), val...)})
			k, val, err = cur.Next()
			if err != nil {
				return err
			}
		}
		if i >= uint64(len(entries)) {
			return InconsistentDatabase{Detail: "list index out of range"}
		}
		var removed interface{}
		if removed, err = codec.Decode(ec, entries[i].val); err != nil {
			return err
		}
		for _, e := range entries {
			if err := objB.Delete(e.key); err != nil {
				return err
			}
			if f.Element.Indexed {
				pos := e.key[len(prefix):]
				if err := idxB.Delete(subIndexKey(f.Element.StorageID, e.val, v.id, pos)); err != nil {
					return err
				}
			}
		}
		newPos := uint64(0)
		for idx, e := range entries {
			if uint64(idx) == i {
				continue
			}
			key := objSubKey(v.id, v.fieldSID, listIndexBytes(newPos))
			if err := objB.Put(key, e.val); err != nil {
				return err
			}
			if f.Element.Indexed {
				if err := idxB.Put(subIndexKey(f.Element.StorageID, e.val, v.id, listIndexBytes(newPos)), []byte{}); err != nil {
					return err
				}
			}
			newPos++
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.List, Old: removed})
		return nil
	})
}

// Clear removes every element of the list.
func (v *ListView) Clear() error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		idxB := rw.RwBucket(dbutils.IndexBucket)
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, val, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		type entry struct{ key, val []byte }
		var entries []entry
		for k != nil && bytes.HasPrefix(k, prefix) {
			entries = append(entries, entry{append([]byte(nil), k...), append([]byte(nil), val...)})
			k, val, err = cur.Next()
			if err != nil {
				return err
			}
		}
		for i, e := range entries {
			if err := objB.Delete(e.key); err != nil {
				return err
			}
			if f.Element.Indexed {
				if err := idxB.Delete(subIndexKey(f.Element.StorageID, e.val, v.id, listIndexBytes(uint64(i)))); err != nil {
					return err
				}
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.List})
		return nil
	})
}

// Elements returns the list's elements in position order.
func (v *ListView) Elements() ([]interface{}, error) {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	var out []interface{}
	err := v.tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		info, err := v.tx.info(objB, v.id)
		if err != nil {
			return err
		}
		if !info.exists {
			return nil
		}
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, val, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			dv, decErr := codec.Decode(ec, val)
			if decErr != nil {
				return decErr
			}
			out = append(out, dv)
			k, val, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Append adds element at the end of the list.
func (v *ListView) Append(element interface{}) error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		if f.Element.IsReference() {
			target := element.(objid.ObjID)
			if !target.IsZero() {
				if err := v.tx.checkReferenceTarget(objB, f.Element, target); err != nil {
					return err
				}
			}
		}
		n := uint64(0)
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, _, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			n++
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		ec, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		encElem := codec.Encode(ec, element)
		key := objSubKey(v.id, v.fieldSID, listIndexBytes(n))
		if err := objB.Put(key, encElem); err != nil {
			return err
		}
		if f.Element.Indexed {
			idxB := rw.RwBucket(dbutils.IndexBucket)
			if err := idxB.Put(subIndexKey(f.Element.StorageID, encElem, v.id, listIndexBytes(n)), []byte{}); err != nil {
				return err
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.List, New: element})
		return nil
	})
}

// MapView is a live view over a map field's key/value pairs.
type MapView struct {
	tx       *Transaction
	id       objid.ObjID
	fieldSID uint64
}

func (tx *Transaction) Map(id objid.ObjID, fieldSID uint64) *MapView {
	return &MapView{tx: tx, id: id, fieldSID: fieldSID}
}

// Entries returns the map's key/value pairs in key-encoding order.
func (v *MapView) Entries() (keys, values []interface{}, err error) {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	err = v.tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		info, err := v.tx.info(objB, v.id)
		if err != nil {
			return err
		}
		if !info.exists {
			return nil
		}
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		kc, err := v.tx.codecFor(f.Key)
		if err != nil {
			return err
		}
		vc, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, val, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			keyBytes := k[len(prefix):]
			dk, decErr := codec.Decode(kc, keyBytes)
			if decErr != nil {
				return decErr
			}
			dv, decErr := codec.Decode(vc, val)
			if decErr != nil {
				return decErr
			}
			keys = append(keys, dk)
			values = append(values, dv)
			k, val, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	return keys, values, err
}

// Put inserts or overwrites the value at key.
func (v *MapView) Put(key, value interface{}) error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		if f.Element.IsReference() {
			target := value.(objid.ObjID)
			if !target.IsZero() {
				if err := v.tx.checkReferenceTarget(objB, f.Element, target); err != nil {
					return err
				}
			}
		}
		kc, err := v.tx.codecFor(f.Key)
		if err != nil {
			return err
		}
		vc, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		encKey := codec.Encode(kc, key)
		encVal := codec.Encode(vc, value)
		storeKey := objSubKey(v.id, v.fieldSID, encKey)
		if err := objB.Put(storeKey, encVal); err != nil {
			return err
		}
		if f.Element.Indexed {
			idxB := rw.RwBucket(dbutils.IndexBucket)
			if err := idxB.Put(subIndexKey(f.Element.StorageID, encVal, v.id, encKey), []byte{}); err != nil {
				return err
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.Map, New: value})
		return nil
	})
}

// Size returns the number of entries, or 0 for a deleted owning object.
func (v *MapView) Size() (int, error) {
	keys, _, err := v.Entries()
	return len(keys), err
}

// IsEmpty reports Size() == 0.
func (v *MapView) IsEmpty() (bool, error) {
	n, err := v.Size()
	return n == 0, err
}

// Get returns the value stored at key and whether an entry exists.
func (v *MapView) Get(key interface{}) (value interface{}, ok bool, err error) {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	err = v.tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		info, infoErr := v.tx.info(objB, v.id)
		if infoErr != nil {
			return infoErr
		}
		if !info.exists {
			return nil
		}
		_, f, fErr := v.tx.resolveField(objB, v.id, v.fieldSID)
		if fErr != nil {
			return fErr
		}
		kc, kErr := v.tx.codecFor(f.Key)
		if kErr != nil {
			return kErr
		}
		vc, vErr := v.tx.codecFor(f.Element)
		if vErr != nil {
			return vErr
		}
		encKey := codec.Encode(kc, key)
		raw, getErr := objB.Get(objSubKey(v.id, v.fieldSID, encKey))
		if getErr != nil {
			return nil
		}
		ok = true
		value, err = codec.Decode(vc, raw)
		return err
	})
	return value, ok, err
}

// Remove deletes the entry at key if present, maintaining the sub-field
// index.
func (v *MapView) Remove(key interface{}) error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		kc, err := v.tx.codecFor(f.Key)
		if err != nil {
			return err
		}
		vc, err := v.tx.codecFor(f.Element)
		if err != nil {
			return err
		}
		encKey := codec.Encode(kc, key)
		storeKey := objSubKey(v.id, v.fieldSID, encKey)
		oldRaw, getErr := objB.Get(storeKey)
		if getErr != nil {
			return nil
		}
		oldValue, decErr := codec.Decode(vc, oldRaw)
		if decErr != nil {
			return decErr
		}
		if err := objB.Delete(storeKey); err != nil {
			return err
		}
		if f.Element.Indexed {
			idxB := rw.RwBucket(dbutils.IndexBucket)
			if err := idxB.Delete(subIndexKey(f.Element.StorageID, oldRaw, v.id, encKey)); err != nil {
				return err
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.Map, Old: oldValue})
		return nil
	})
}

// Clear removes every entry.
func (v *MapView) Clear() error {
	v.tx.mu.Lock()
	defer v.tx.mu.Unlock()
	return v.tx.withRwTx(func(rw kvkit.RwTx) error {
		objB := rw.RwBucket(dbutils.ObjectBucket)
		_, f, err := v.tx.resolveField(objB, v.id, v.fieldSID)
		if err != nil {
			return err
		}
		idxB := rw.RwBucket(dbutils.IndexBucket)
		prefix := objFieldKey(v.id, v.fieldSID)
		cur := objB.Cursor()
		k, val, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		type entry struct{ key, val []byte }
		var entries []entry
		for k != nil && bytes.HasPrefix(k, prefix) {
			entries = append(entries, entry{append([]byte(nil), k...), append([]byte(nil), val...)})
			k, val, err = cur.Next()
			if err != nil {
				return err
			}
		}
		for _, e := range entries {
			if err := objB.Delete(e.key); err != nil {
				return err
			}
			if f.Element.Indexed {
				encKey := e.key[len(prefix):]
				if err := idxB.Delete(subIndexKey(f.Element.StorageID, e.val, v.id, encKey)); err != nil {
					return err
				}
			}
		}
		v.tx.enqueue(v.fieldSID, v.id, ChangeDetail{FieldSID: v.fieldSID, Kind: schema.Map})
		return nil
	})
}
