// Package schema is the schema registry (C4): versioned, immutable models
// of object types, fields, composite indexes, and reference constraints,
// with canonical JSON encoding and cross-version compatibility checking.
package schema

import "fmt"

// FieldKind distinguishes the storage shape of a field.
type FieldKind int

const (
	Simple FieldKind = iota
	Counter
	Set
	List
	Map
)

func (k FieldKind) String() string {
	switch k {
	case Simple:
		return "simple"
	case Counter:
		return "counter"
	case Set:
		return "set"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// InverseDeleteAction names what happens to a referrer when the object it
// references is deleted.
type InverseDeleteAction int

const (
	Ignore InverseDeleteAction = iota
	Exception
	Unreference
	Delete
)

func (a InverseDeleteAction) String() string {
	switch a {
	case Ignore:
		return "ignore"
	case Exception:
		return "exception"
	case Unreference:
		return "unreference"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("InverseDeleteAction(%d)", int(a))
	}
}

// ReferenceDef carries the delete-propagation and target-type constraints
// of a reference field.
type ReferenceDef struct {
	InverseDelete   InverseDeleteAction `json:"inverseDelete"`
	ForwardDelete   bool                `json:"forwardDelete"`
	AllowDeleted    bool                `json:"allowDeleted"`
	TargetWhitelist []uint64            `json:"targetWhitelist,omitempty"`
}

// AllowsTarget reports whether targetTypeSID is a permitted reference
// target. An empty whitelist permits any known object type.
func (r *ReferenceDef) AllowsTarget(targetTypeSID uint64) bool {
	if r == nil || len(r.TargetWhitelist) == 0 {
		return true
	}
	for _, sid := range r.TargetWhitelist {
		if sid == targetTypeSID {
			return true
		}
	}
	return false
}

// FieldDef describes one field (or, recursively, one complex field's
// element/key sub-field) of an object type.
type FieldDef struct {
	StorageID uint64    `json:"storageId"`
	Name      string    `json:"name"`
	Kind      FieldKind `json:"kind"`
	Encoding  string    `json:"encoding"`
	Indexed   bool      `json:"indexed,omitempty"`
	Nullable  bool      `json:"nullable,omitempty"`

	// Reference is non-nil when this field's encoding is a reference
	// (an ObjId whose Kind is Simple, or the Element/Key of a complex
	// field holding references).
	Reference *ReferenceDef `json:"reference,omitempty"`

	// Element is the sub-field descriptor for Set/List/Map element values.
	Element *FieldDef `json:"element,omitempty"`
	// Key is the sub-field descriptor for Map keys.
	Key *FieldDef `json:"key,omitempty"`
}

// IsReference reports whether this field (or its element, for a complex
// field of references) carries reference semantics.
func (f *FieldDef) IsReference() bool { return f.Reference != nil }

// CompositeIndexDef names a composite index over an ordered list of field
// storage-ids belonging to the same object type.
type CompositeIndexDef struct {
	StorageID       uint64   `json:"storageId"`
	Name            string   `json:"name"`
	FieldStorageIDs []uint64 `json:"fieldStorageIds"`
}

// ObjectType is one object type definition within a schema version.
type ObjectType struct {
	StorageID        uint64                `json:"storageId"`
	Name             string                `json:"name"`
	Fields           []*FieldDef           `json:"fields"`
	CompositeIndexes []*CompositeIndexDef  `json:"compositeIndexes,omitempty"`
}

// Field looks up a field by storage-id within this object type, searching
// top-level fields only (not sub-fields).
func (t *ObjectType) Field(sid uint64) (*FieldDef, bool) {
	for _, f := range t.Fields {
		if f.StorageID == sid {
			return f, true
		}
	}
	return nil, false
}

// CompositeIndex looks up a composite index by storage-id.
func (t *ObjectType) CompositeIndex(sid uint64) (*CompositeIndexDef, bool) {
	for _, c := range t.CompositeIndexes {
		if c.StorageID == sid {
			return c, true
		}
	}
	return nil, false
}

// Model is an unversioned schema as supplied by a caller (or the
// out-of-scope XML parser): a set of object types with storage-ids, some
// possibly zero/unassigned pending installation.
type Model struct {
	ObjectTypes []*ObjectType
}

// Version is an installed, immutable Model: every storage-id is resolved,
// and the model carries its assigned version number and canonical JSON
// form.
type Version struct {
	Number    uint64
	Model     *Model
	Canonical []byte
}

// ObjectType looks up an object type by storage-id within this version.
func (v *Version) ObjectType(sid uint64) (*ObjectType, bool) {
	for _, t := range v.Model.ObjectTypes {
		if t.StorageID == sid {
			return t, true
		}
	}
	return nil, false
}
