package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/objid"
)

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, existed, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.False(t, id.IsZero())

	exists, err := tx.Exists(id)
	require.NoError(t, err)
	assert.True(t, exists)

	name, err := tx.ReadSimple(id, f.widgetNameSID, false)
	require.NoError(t, err)
	assert.Equal(t, "", name)

	owner, err := tx.ReadSimple(id, f.widgetOwnerIgnoreSID, false)
	require.NoError(t, err)
	assert.Equal(t, objid.Zero, owner)
}

// TestCreateIsIdempotent asserts I9: re-creating an existing id is a no-op
// that reports already-existed and mutates nothing observable.
func TestCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, existed, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.False(t, existed)

	require.NoError(t, tx.WriteSimple(id, f.widgetNameSID, "first", false))

	id2, existed2, err := tx.Create(&id, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	assert.True(t, existed2)
	assert.Equal(t, id, id2)

	name, err := tx.ReadSimple(id, f.widgetNameSID, false)
	require.NoError(t, err)
	assert.Equal(t, "first", name, "re-creating an existing id must not reset its fields")
}

// TestObjMetaKeyIsExclusive asserts I1: exactly one object occupies a given
// id, and after deletion the id reports not-existing.
func TestObjMetaKeyIsExclusive(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	exists, err := tx.Exists(id)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = tx.Delete(id)
	require.NoError(t, err)

	exists, err = tx.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestWriteSimpleMaintainsIndex asserts I4: a simple indexed field's index
// entry always matches the field's current stored value, including across
// a value change, and a same-value write is a no-op that leaves exactly
// one entry.
func TestWriteSimpleMaintainsIndex(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	require.NoError(t, tx.WriteSimple(id, f.widgetNameSID, "alpha", false))
	entries, err := tx.QuerySimpleIndex(f.widgetNameSID, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string][]objid.ObjID{string(codec.Encode(codec.String, "alpha")): {id}}, AsMap(entries))

	// Re-writing the same value must not duplicate the index entry.
	require.NoError(t, tx.WriteSimple(id, f.widgetNameSID, "alpha", false))
	entries, err = tx.QuerySimpleIndex(f.widgetNameSID, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, tx.WriteSimple(id, f.widgetNameSID, "beta", false))
	entries, err = tx.QuerySimpleIndex(f.widgetNameSID, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string][]objid.ObjID{string(codec.Encode(codec.String, "beta")): {id}}, AsMap(entries))
}

func TestCounterReadWriteAdjust(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	v, err := tx.ReadCounter(id, f.widgetCountSID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, tx.WriteCounter(id, f.widgetCountSID, 5, false))
	v, err = tx.ReadCounter(id, f.widgetCountSID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	result, err := tx.AdjustCounter(id, f.widgetCountSID, 3, false)
	require.NoError(t, err)
	assert.Equal(t, int64(8), result)

	result, err = tx.AdjustCounter(id, f.widgetCountSID, -10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), result)
}

func TestWriteSimpleRejectsDeletedReferenceTarget(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	widget, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	owner, _, err := tx.Create(nil, f.ownerSID, f.v1.Number)
	require.NoError(t, err)
	_, err = tx.Delete(owner)
	require.NoError(t, err)

	err = tx.WriteSimple(widget, f.widgetOwnerIgnoreSID, owner, false)
	require.Error(t, err)
	violation, ok := err.(DeletedAssignment)
	require.True(t, ok)
	assert.Equal(t, f.widgetOwnerIgnoreSID, violation.FieldStorageID)
}
