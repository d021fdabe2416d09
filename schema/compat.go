package schema

import "fmt"

// InvalidSchema is returned when a candidate model fails the
// cross-version compatibility rule or is otherwise malformed.
type InvalidSchema string

func (e InvalidSchema) Error() string { return fmt.Sprintf("schema: invalid schema: %s", string(e)) }

// descriptor is the compatibility fingerprint of one storage-id: its kind
// (object-type / simple / counter / set / list / map / composite-index)
// and, for simple/counter fields, its encoding identifier.
type descriptor struct {
	kind     string
	encoding string
}

func kindOf(f *FieldDef) string { return f.Kind.String() }

// collectDescriptors walks every storage-id owned by m (object types,
// fields, sub-fields, composite indexes) into a flat map.
func collectDescriptors(m *Model) map[uint64]descriptor {
	out := make(map[uint64]descriptor)
	for _, t := range m.ObjectTypes {
		out[t.StorageID] = descriptor{kind: "objecttype"}
		for _, f := range t.Fields {
			collectFieldDescriptors(f, out)
		}
		for _, c := range t.CompositeIndexes {
			out[c.StorageID] = descriptor{kind: "compositeindex"}
		}
	}
	return out
}

func collectFieldDescriptors(f *FieldDef, out map[uint64]descriptor) {
	d := descriptor{kind: kindOf(f)}
	if f.Kind == Simple || f.Kind == Counter {
		d.encoding = f.Encoding
	}
	out[f.StorageID] = d
	if f.Element != nil {
		collectFieldDescriptors(f.Element, out)
	}
	if f.Key != nil {
		collectFieldDescriptors(f.Key, out)
	}
}

// checkCompatibility enforces: for every storage-id shared between
// candidate and any of existing, the kind must match, and for
// simple/counter fields the encoding must be identical. Indexed/not-
// indexed status is deliberately excluded from the comparison.
func checkCompatibility(existing []*Version, candidate *Model) error {
	known := make(map[uint64]descriptor)
	for _, v := range existing {
		for sid, d := range collectDescriptors(v.Model) {
			known[sid] = d
		}
	}
	for sid, d := range collectDescriptors(candidate) {
		prior, ok := known[sid]
		if !ok {
			continue
		}
		if prior.kind != d.kind {
			return InvalidSchema(fmt.Sprintf("storage-id %d changed kind from %s to %s", sid, prior.kind, d.kind))
		}
		if (d.kind == "simple" || d.kind == "counter") && prior.encoding != d.encoding {
			return InvalidSchema(fmt.Sprintf("storage-id %d changed encoding from %q to %q", sid, prior.encoding, d.encoding))
		}
	}
	return nil
}

// maxStorageID returns the highest storage-id used anywhere in m, or 0.
func maxStorageID(m *Model) uint64 {
	var max uint64
	for sid := range collectDescriptors(m) {
		if sid > max {
			max = sid
		}
	}
	return max
}

// allocateStorageIDs fills every zero-valued StorageID in candidate with
// floor+1, floor+2, ... in object-type/field/sub-field/composite-index
// traversal order, matching "a freshly allocated id not used by any known
// version."
func allocateStorageIDs(candidate *Model, floor uint64) {
	next := floor + 1
	for _, t := range candidate.ObjectTypes {
		if t.StorageID == 0 {
			t.StorageID = next
			next++
		}
		for _, f := range t.Fields {
			next = allocateFieldStorageID(f, next)
		}
		for _, c := range t.CompositeIndexes {
			if c.StorageID == 0 {
				c.StorageID = next
				next++
			}
		}
	}
}

func allocateFieldStorageID(f *FieldDef, next uint64) uint64 {
	if f.StorageID == 0 {
		f.StorageID = next
		next++
	}
	if f.Element != nil {
		next = allocateFieldStorageID(f.Element, next)
	}
	if f.Key != nil {
		next = allocateFieldStorageID(f.Key, next)
	}
	return next
}
