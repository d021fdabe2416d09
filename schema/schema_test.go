package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleModel(fieldEncoding string) *Model {
	return &Model{
		ObjectTypes: []*ObjectType{
			{
				Name: "Widget",
				Fields: []*FieldDef{
					{Name: "name", Kind: Simple, Encoding: fieldEncoding},
				},
			},
		},
	}
}

func TestInstallAllocatesStorageIDs(t *testing.T) {
	r := NewRegistry()
	v, err := r.Install(simpleModel("string"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Number)

	ot := v.Model.ObjectTypes[0]
	assert.NotZero(t, ot.StorageID)
	assert.NotZero(t, ot.Fields[0].StorageID)
	assert.NotEqual(t, ot.StorageID, ot.Fields[0].StorageID)
}

func TestInstallIsIdempotentForIdenticalModel(t *testing.T) {
	r := NewRegistry()
	v1, err := r.Install(simpleModel("string"))
	require.NoError(t, err)

	// Re-installing the exact Model already returned by a prior Install
	// (storage-ids already resolved) finds the matching canonical form and
	// returns the existing version rather than minting a new one.
	v2, err := r.Install(v1.Model)
	require.NoError(t, err)
	assert.Equal(t, v1.Number, v2.Number)
	assert.Len(t, r.Versions(), 1)
}

func TestInstallRejectsEncodingChangeOnSharedStorageID(t *testing.T) {
	r := NewRegistry()
	v1, err := r.Install(simpleModel("string"))
	require.NoError(t, err)

	fieldSID := v1.Model.ObjectTypes[0].Fields[0].StorageID
	typeSID := v1.Model.ObjectTypes[0].StorageID

	next := &Model{
		ObjectTypes: []*ObjectType{
			{
				StorageID: typeSID,
				Name:      "Widget",
				Fields: []*FieldDef{
					{StorageID: fieldSID, Name: "name", Kind: Simple, Encoding: "uvarint"},
				},
			},
		},
	}
	_, err = r.Install(next)
	require.Error(t, err)
	_, ok := err.(InvalidSchema)
	assert.True(t, ok)
}

func TestInstallRejectsKindChangeOnSharedStorageID(t *testing.T) {
	r := NewRegistry()
	v1, err := r.Install(simpleModel("uvarint"))
	require.NoError(t, err)

	fieldSID := v1.Model.ObjectTypes[0].Fields[0].StorageID
	typeSID := v1.Model.ObjectTypes[0].StorageID

	next := &Model{
		ObjectTypes: []*ObjectType{
			{
				StorageID: typeSID,
				Name:      "Widget",
				Fields: []*FieldDef{
					{StorageID: fieldSID, Name: "name", Kind: Counter, Encoding: "uvarint"},
				},
			},
		},
	}
	_, err = r.Install(next)
	require.Error(t, err)
}

func TestInstallAllowsNewVersionWithNewField(t *testing.T) {
	r := NewRegistry()
	v1, err := r.Install(simpleModel("uvarint"))
	require.NoError(t, err)

	typeSID := v1.Model.ObjectTypes[0].StorageID
	fieldSID := v1.Model.ObjectTypes[0].Fields[0].StorageID

	next := &Model{
		ObjectTypes: []*ObjectType{
			{
				StorageID: typeSID,
				Name:      "Widget",
				Fields: []*FieldDef{
					{StorageID: fieldSID, Name: "name", Kind: Simple, Encoding: "uvarint"},
					{Name: "extra", Kind: Simple, Encoding: "string"},
				},
			},
		},
	}
	v2, err := r.Install(next)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v2.Number)
	assert.Len(t, r.Versions(), 2)

	extra := v2.Model.ObjectTypes[0].Fields[1]
	assert.NotZero(t, extra.StorageID)
}

func TestDeleteVersionRejectsCurrentAndInUse(t *testing.T) {
	r := NewRegistry()
	v1, err := r.Install(simpleModel("uvarint"))
	require.NoError(t, err)

	err = r.DeleteVersion(v1.Number, v1.Number, nil)
	assert.Error(t, err, "deleting the current version must fail")

	typeSID := v1.Model.ObjectTypes[0].StorageID
	fieldSID := v1.Model.ObjectTypes[0].Fields[0].StorageID
	next := &Model{
		ObjectTypes: []*ObjectType{
			{
				StorageID: typeSID,
				Name:      "Widget",
				Fields: []*FieldDef{
					{StorageID: fieldSID, Name: "name", Kind: Simple, Encoding: "uvarint"},
					{Name: "extra", Kind: Simple, Encoding: "string"},
				},
			},
		},
	}
	v2, err := r.Install(next)
	require.NoError(t, err)

	err = r.DeleteVersion(v1.Number, v2.Number, func(uint64) bool { return true })
	assert.Error(t, err, "deleting a version still referenced by live objects must fail")

	err = r.DeleteVersion(v1.Number, v2.Number, func(uint64) bool { return false })
	assert.NoError(t, err)
	_, ok := r.Lookup(v1.Number)
	assert.False(t, ok)
}

func TestCanonicalIsOrderIndependent(t *testing.T) {
	m := &Model{
		ObjectTypes: []*ObjectType{
			{StorageID: 2, Name: "B", Fields: []*FieldDef{{StorageID: 20, Name: "b", Kind: Simple, Encoding: "string"}}},
			{StorageID: 1, Name: "A", Fields: []*FieldDef{
				{StorageID: 11, Name: "y", Kind: Simple, Encoding: "string"},
				{StorageID: 10, Name: "x", Kind: Simple, Encoding: "string"},
			}},
		},
	}
	reordered := &Model{
		ObjectTypes: []*ObjectType{
			{StorageID: 1, Name: "A", Fields: []*FieldDef{
				{StorageID: 10, Name: "x", Kind: Simple, Encoding: "string"},
				{StorageID: 11, Name: "y", Kind: Simple, Encoding: "string"},
			}},
			{StorageID: 2, Name: "B", Fields: []*FieldDef{{StorageID: 20, Name: "b", Kind: Simple, Encoding: "string"}}},
		},
	}

	a, err := Canonical(m)
	require.NoError(t, err)
	b, err := Canonical(reordered)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalDecodeRoundTrip(t *testing.T) {
	r := NewRegistry()
	v, err := r.Install(simpleModel("string"))
	require.NoError(t, err)

	decoded, err := Decode(v.Canonical)
	require.NoError(t, err)

	reCanonical, err := Canonical(decoded)
	require.NoError(t, err)
	assert.Equal(t, v.Canonical, reCanonical)
}

func TestAbsorbDoesNotRunCompatibilityChecks(t *testing.T) {
	r := NewRegistry()
	v := &Version{Number: 5, Model: simpleModel("string")}
	canonical, err := Canonical(v.Model)
	require.NoError(t, err)
	v.Canonical = canonical

	r.Absorb(v)
	got, ok := r.Lookup(5)
	require.True(t, ok)
	assert.Equal(t, v, got)
}

func TestReferenceDefAllowsTarget(t *testing.T) {
	var nilRef *ReferenceDef
	assert.True(t, nilRef.AllowsTarget(99))

	open := &ReferenceDef{}
	assert.True(t, open.AllowsTarget(99))

	restricted := &ReferenceDef{TargetWhitelist: []uint64{1, 2}}
	assert.True(t, restricted.AllowsTarget(1))
	assert.False(t, restricted.AllowsTarget(3))
}
