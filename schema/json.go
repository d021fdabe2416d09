package schema

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Canonical returns m's deterministic JSON encoding: object types sorted
// by storage-id, fields sorted by storage-id within each type, composite
// indexes sorted by storage-id. Two models that differ only in slice
// order therefore produce byte-identical canonical forms.
func Canonical(m *Model) ([]byte, error) {
	sorted := sortedModel(m)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sorted); err != nil {
		return nil, err
	}
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

func sortedModel(m *Model) *Model {
	types := append([]*ObjectType(nil), m.ObjectTypes...)
	sort.Slice(types, func(i, j int) bool { return types[i].StorageID < types[j].StorageID })
	out := make([]*ObjectType, len(types))
	for i, t := range types {
		out[i] = sortedObjectType(t)
	}
	return &Model{ObjectTypes: out}
}

func sortedObjectType(t *ObjectType) *ObjectType {
	fields := append([]*FieldDef(nil), t.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].StorageID < fields[j].StorageID })
	indexes := append([]*CompositeIndexDef(nil), t.CompositeIndexes...)
	sort.Slice(indexes, func(i, j int) bool { return indexes[i].StorageID < indexes[j].StorageID })
	return &ObjectType{
		StorageID:        t.StorageID,
		Name:             t.Name,
		Fields:           fields,
		CompositeIndexes: indexes,
	}
}

// Decode parses a canonical (or any structurally equivalent) JSON encoding
// back into a Model.
func Decode(b []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
