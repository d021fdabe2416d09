package store

import (
	"bytes"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/objid"
)

// objMetaKey is the OBJ: key holding an object's existence/meta byte: the
// raw ObjId itself.
func objMetaKey(id objid.ObjID) []byte { return append([]byte(nil), id.Bytes()...) }

// objFieldKey is the OBJ: key for a simple/counter field or the head of a
// complex field's sub-tree: <objId><fieldSID>.
func objFieldKey(id objid.ObjID, fieldSID uint64) []byte {
	var buf bytes.Buffer
	buf.Write(id.Bytes())
	codec.EncodeUvarint(&buf, fieldSID)
	return buf.Bytes()
}

// objSubKey appends an already-encoded sub-component (set element, list
// index, map key) to a field key, for complex field storage.
func objSubKey(id objid.ObjID, fieldSID uint64, sub []byte) []byte {
	var buf bytes.Buffer
	buf.Write(objFieldKey(id, fieldSID))
	buf.Write(sub)
	return buf.Bytes()
}

// listIndexBytes order-preservingly encodes a list position as an 8-byte
// big-endian integer, so in-order iteration over the sub-tree yields
// positions 0..n-1.
func listIndexBytes(i uint64) []byte {
	var buf bytes.Buffer
	codec.EncodeFixed64(&buf, i)
	return buf.Bytes()
}

// simpleIndexKey is an IDX: key for a top-level simple field:
// <fieldSID><encodedValue><objId>.
func simpleIndexKey(fieldSID uint64, encodedValue []byte, id objid.ObjID) []byte {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, fieldSID)
	buf.Write(encodedValue)
	buf.Write(id.Bytes())
	return buf.Bytes()
}

// subIndexKey is an IDX: key for an indexed complex sub-field:
// <subSID><encodedValue><objId><discriminator>.
func subIndexKey(subSID uint64, encodedValue []byte, id objid.ObjID, discriminator []byte) []byte {
	var buf bytes.Buffer
	buf.Write(simpleIndexKey(subSID, encodedValue, id))
	buf.Write(discriminator)
	return buf.Bytes()
}

// indexFieldPrefix is the IDX: prefix scoping every entry for fieldSID,
// used to scan/filter a whole index regardless of value.
func indexFieldPrefix(fieldSID uint64) []byte {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, fieldSID)
	return buf.Bytes()
}

// compositeIndexKey is a CIDX: key: <compositeSID><encValue1>...<encValueN><objId>.
func compositeIndexKey(compositeSID uint64, encodedValues [][]byte, id objid.ObjID) []byte {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, compositeSID)
	for _, v := range encodedValues {
		buf.Write(v)
	}
	buf.Write(id.Bytes())
	return buf.Bytes()
}

func compositeIndexPrefix(compositeSID uint64) []byte {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, compositeSID)
	return buf.Bytes()
}

// versionIndexKey is a VIDX: key: <versionVarint><objId>.
func versionIndexKey(version uint64, id objid.ObjID) []byte {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, version)
	buf.Write(id.Bytes())
	return buf.Bytes()
}

func versionIndexPrefix(version uint64) []byte {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, version)
	return buf.Bytes()
}

// metaSchemaKey is the META: key a schema version's canonical JSON is
// stored under: "schema:<version>".
func metaSchemaKey(version uint64) []byte {
	var buf bytes.Buffer
	buf.WriteString("schema:")
	codec.EncodeUvarint(&buf, version)
	return buf.Bytes()
}

var metaSchemaPrefix = []byte("schema:")

// decodeMetaSchemaVersion parses the version number back out of a
// "schema:<version>" META: key.
func decodeMetaSchemaVersion(key []byte) (uint64, error) {
	rest := key[len(metaSchemaPrefix):]
	v, err := codec.Decode(codec.Uvarint, rest)
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

// nextPrefix returns the smallest byte string greater than every string
// with prefix p, used as a range scan's exclusive upper bound.
func nextPrefix(p []byte) []byte {
	out := append([]byte(nil), p...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil // p was all 0xff bytes: no upper bound needed
}
