package store

import (
	"bytes"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// KeyRange is a half-open byte range [Start, End) used to filter an index
// view's slot to a sub-range; a nil End means unbounded.
type KeyRange struct{ Start, End []byte }

func keyRangesContain(ranges []KeyRange, key []byte) bool {
	for _, r := range ranges {
		if bytes.Compare(key, r.Start) < 0 {
			continue
		}
		if r.End != nil && bytes.Compare(key, r.End) >= 0 {
			continue
		}
		return true
	}
	return false
}

// IndexEntry is one simple-index row: the indexed value's raw encoding
// and the referring object.
type IndexEntry struct {
	Value []byte
	ObjID objid.ObjID
}

// QuerySimpleIndex returns every entry of the simple (or indexed
// sub-field) index for fieldSID, across every schema version that defines
// it, optionally narrowed by filter.
func (tx *Transaction) QuerySimpleIndex(fieldSID uint64, filter []KeyRange) ([]IndexEntry, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.querySimpleIndex(fieldSID, filter)
}

// querySimpleIndex is QuerySimpleIndex for callers that already hold tx.mu.
func (tx *Transaction) querySimpleIndex(fieldSID uint64, filter []KeyRange) ([]IndexEntry, error) {
	var out []IndexEntry
	err := tx.withTx(func(r kvkit.Tx) error {
		idxB := r.Bucket(dbutils.IndexBucket)
		prefix := indexFieldPrefix(fieldSID)
		cur := idxB.Cursor()
		k, _, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			rest := k[len(prefix):]
			if len(rest) < objid.Size {
				return InconsistentDatabase{Detail: "short index entry"}
			}
			value := rest[:len(rest)-objid.Size]
			id, idErr := objid.FromBytes(rest[len(rest)-objid.Size:])
			if idErr != nil {
				return idErr
			}
			if filter == nil || keyRangesContain(filter, value) {
				out = append(out, IndexEntry{Value: value, ObjID: id})
			}
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// AsMap groups a simple index's entries by encoded value, matching C6's
// "asMap" view: `value -> {objId}`.
func AsMap(entries []IndexEntry) map[string][]objid.ObjID {
	out := make(map[string][]objid.ObjID)
	for _, e := range entries {
		k := string(e.Value)
		out[k] = append(out[k], e.ObjID)
	}
	return out
}

// CompositeEntry is one composite-index row.
type CompositeEntry struct {
	Values [][]byte
	ObjID  objid.ObjID
}

// QueryCompositeIndex returns every entry of composite index compositeSID
// given the byte-width of each component in order.
func (tx *Transaction) QueryCompositeIndex(compositeSID uint64, componentWidths []int) ([]CompositeEntry, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	var out []CompositeEntry
	err := tx.withTx(func(r kvkit.Tx) error {
		b := r.Bucket(dbutils.CompositeIndexBucket)
		prefix := compositeIndexPrefix(compositeSID)
		cur := b.Cursor()
		k, _, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			rest := k[len(prefix):]
			values := make([][]byte, len(componentWidths))
			off := 0
			for i, w := range componentWidths {
				if off+w > len(rest) {
					return InconsistentDatabase{Detail: "short composite index entry"}
				}
				values[i] = rest[off : off+w]
				off += w
			}
			if off+objid.Size != len(rest) {
				return InconsistentDatabase{Detail: "composite index entry width mismatch"}
			}
			id, idErr := objid.FromBytes(rest[off:])
			if idErr != nil {
				return idErr
			}
			out = append(out, CompositeEntry{Values: values, ObjID: id})
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// AsCompositeMap groups a composite index's entries by the concatenation of
// their value components, matching C6's "asMap" view over an N-tuple.
func AsCompositeMap(entries []CompositeEntry) map[string][]objid.ObjID {
	out := make(map[string][]objid.ObjID)
	for _, e := range entries {
		var buf bytes.Buffer
		for _, v := range e.Values {
			buf.Write(v)
		}
		k := buf.String()
		out[k] = append(out[k], e.ObjID)
	}
	return out
}

// AsMapOfIndex peels the first component off every composite entry matching
// leadValue, returning the remaining (N-1)-tuple entries — C6's
// "asMapOfIndex" view.
func AsMapOfIndex(entries []CompositeEntry, leadValue []byte) []CompositeEntry {
	var out []CompositeEntry
	for _, e := range entries {
		if len(e.Values) == 0 || !bytes.Equal(e.Values[0], leadValue) {
			continue
		}
		out = append(out, CompositeEntry{Values: e.Values[1:], ObjID: e.ObjID})
	}
	return out
}

// QueryVersionIndex returns every ObjId recorded at schema version ver.
func (tx *Transaction) QueryVersionIndex(ver uint64) ([]objid.ObjID, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	var out []objid.ObjID
	err := tx.withTx(func(r kvkit.Tx) error {
		b := r.Bucket(dbutils.VersionIndexBucket)
		prefix := versionIndexPrefix(ver)
		cur := b.Cursor()
		k, _, err := cur.Seek(prefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, prefix) {
			id, idErr := objid.FromBytes(k[len(prefix):])
			if idErr != nil {
				return idErr
			}
			out = append(out, id)
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// invertPath implements the helper described for C6/C9: starting from
// startSet, it walks path step by step. A positive entry is a backward
// (inverse-reference) hop: look up the simple index for that reference
// storage-id and gather referrers of the current set. A negative entry is
// a forward hop: read that field's value(s) (simple, set, list, or map)
// on each current object and replace the set with the targets reached.
func invertPath(tx *Transaction, startSet []objid.ObjID, path []int64) ([]objid.ObjID, error) {
	current := startSet
	for _, step := range path {
		if len(current) == 0 {
			return nil, nil
		}
		if step >= 0 {
			next, err := backwardStep(tx, current, uint64(step))
			if err != nil {
				return nil, err
			}
			current = next
		} else {
			next, err := forwardStep(tx, current, uint64(-step))
			if err != nil {
				return nil, err
			}
			current = next
		}
	}
	return dedupObjIDs(current), nil
}

func backwardStep(tx *Transaction, targets []objid.ObjID, fieldSID uint64) ([]objid.ObjID, error) {
	wanted := make(map[objid.ObjID]bool, len(targets))
	for _, t := range targets {
		wanted[t] = true
	}
	entries, err := tx.querySimpleIndex(fieldSID, nil)
	if err != nil {
		return nil, err
	}
	var out []objid.ObjID
	for _, e := range entries {
		id, err := objid.FromBytes(e.Value)
		if err != nil {
			continue // not a reference-valued index, skip
		}
		if wanted[id] {
			out = append(out, e.ObjID)
		}
	}
	return out, nil
}

func forwardStep(tx *Transaction, sources []objid.ObjID, fieldSID uint64) ([]objid.ObjID, error) {
	var out []objid.ObjID
	for _, src := range sources {
		targets, err := tx.readForwardTargets(src, fieldSID)
		if err != nil {
			continue
		}
		out = append(out, targets...)
	}
	return out, nil
}

// readForwardTargets reads the current value(s) of a reference-typed
// field (simple, set, list, or map) without taking tx.mu, since it is
// only ever called while a caller already holds it (drainNotifications).
func (tx *Transaction) readForwardTargets(id objid.ObjID, fieldSID uint64) ([]objid.ObjID, error) {
	var out []objid.ObjID
	err := tx.withTx(func(r kvkit.Tx) error {
		objB := r.Bucket(dbutils.ObjectBucket)
		ot, err := tx.objectTypeOf(id)
		if err != nil {
			return err
		}
		f, ok := ot.Field(fieldSID)
		if !ok {
			return UnknownField{TypeStorageID: ot.StorageID, FieldStorageID: fieldSID}
		}
		prefix := objFieldKey(id, fieldSID)
		switch f.Kind {
		case schema.Simple:
			raw, getErr := objB.Get(prefix)
			if getErr != nil {
				return nil
			}
			val, decErr := codec.Decode(objid.Codec, raw)
			if decErr != nil {
				return decErr
			}
			out = append(out, val.(objid.ObjID))
		default:
			cur := objB.Cursor()
			k, val, err := cur.Seek(prefix)
			if err != nil {
				return err
			}
			for k != nil && bytes.HasPrefix(k, prefix) {
				var ref objid.ObjID
				if f.Kind == schema.Set {
					decoded, decErr := objid.FromBytes(k[len(prefix):])
					if decErr == nil {
						ref = decoded
					}
				} else {
					decoded, decErr := codec.Decode(objid.Codec, val)
					if decErr == nil {
						ref = decoded.(objid.ObjID)
					}
				}
				if !ref.IsZero() {
					out = append(out, ref)
				}
				k, val, err = cur.Next()
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	return out, err
}

func dedupObjIDs(ids []objid.ObjID) []objid.ObjID {
	seen := make(map[objid.ObjID]bool, len(ids))
	out := make([]objid.ObjID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
