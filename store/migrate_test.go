package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
)

// installV2 installs a new schema version made of exactly types and
// returns it. Any fixture type the caller leaves out (Gadget, for
// instance) is absent from that version.
func (f *fixture) installV2(t *testing.T, types ...*schema.ObjectType) *schema.Version {
	t.Helper()
	v, err := f.registry.Install(&schema.Model{ObjectTypes: types})
	require.NoError(t, err)
	return v
}

func (f *fixture) openAt(t *testing.T, v *schema.Version) *Transaction {
	t.Helper()
	tx, err := Open(context.Background(), f.kv, f.registry, f.ftypes, TxOptions{VersionNumber: v.Number})
	require.NoError(t, err)
	return tx
}

// TestMigrateTypeDroppedReportsTypeNotInVersion asserts S2: migrating an
// object whose own type was dropped from the target version fails with
// TypeNotInVersion rather than silently succeeding.
func TestMigrateTypeDroppedReportsTypeNotInVersion(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)
	gadget, _, err := tx.Create(nil, f.gadgetSID, f.v1.Number)
	require.NoError(t, err)

	v2 := f.installV2(t, ownerType(), &schema.ObjectType{
		StorageID: 2, Name: "Widget",
		Fields: []*schema.FieldDef{
			{StorageID: 20, Name: "name", Kind: schema.Simple, Encoding: "string", Indexed: true},
		},
	})

	tx2 := f.openAt(t, v2)
	err = tx2.MigrateSchema(gadget)
	require.Error(t, err)
	_, ok := err.(TypeNotInVersion)
	assert.True(t, ok)
}

// TestMigrateAddsCounterFieldAtZero asserts S6: an object migrated to a
// version that adds a new Counter field reads that field as 0.
func TestMigrateAddsCounterFieldAtZero(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)
	widget, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	const bonusSID = 50
	v2 := f.installV2(t, ownerType(), gadgetType(), &schema.ObjectType{
		StorageID: 2, Name: "Widget",
		Fields: append(baseModel().ObjectTypes[1].Fields,
			&schema.FieldDef{StorageID: bonusSID, Name: "bonus", Kind: schema.Counter, Encoding: "varint"}),
		CompositeIndexes: baseModel().ObjectTypes[1].CompositeIndexes,
	})

	tx2 := f.openAt(t, v2)
	require.NoError(t, tx2.MigrateSchema(widget))
	v, err := tx2.ReadCounter(widget, bonusSID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

// TestMigrateRemovesFieldAndIndexEntry covers field removal: the dropped
// field's stored bytes and index entry are both gone after migration, and
// reading it afterwards fails with UnknownField.
func TestMigrateRemovesFieldAndIndexEntry(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)
	widget, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.WriteSimple(widget, f.widgetNameSID, "hammer", false))

	v2 := f.installV2(t, ownerType(), gadgetType(), &schema.ObjectType{
		StorageID: 2, Name: "Widget",
		Fields: []*schema.FieldDef{
			{StorageID: 21, Name: "category", Kind: schema.Simple, Encoding: "string"},
		},
	})

	tx2 := f.openAt(t, v2)
	require.NoError(t, tx2.MigrateSchema(widget))

	_, err = tx2.ReadSimple(widget, f.widgetNameSID, false)
	_, ok := err.(UnknownField)
	assert.True(t, ok)

	entries, err := tx2.QuerySimpleIndex(f.widgetNameSID, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestMigrateIndexedTransitionAddsEntry covers a field becoming indexed
// across versions: migration backfills its index entry at the current
// stored value.
func TestMigrateIndexedTransitionAddsEntry(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)
	widget, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.WriteSimple(widget, f.widgetCategorySID, "tools", false))

	v2 := f.installV2(t, ownerType(), gadgetType(), &schema.ObjectType{
		StorageID: 2, Name: "Widget",
		Fields: []*schema.FieldDef{
			{StorageID: 20, Name: "name", Kind: schema.Simple, Encoding: "string", Indexed: true},
			{StorageID: 21, Name: "category", Kind: schema.Simple, Encoding: "string", Indexed: true},
		},
	})

	tx2 := f.openAt(t, v2)
	require.NoError(t, tx2.MigrateSchema(widget))

	entries, err := tx2.QuerySimpleIndex(f.widgetCategorySID, nil)
	require.NoError(t, err)
	var ids []objid.ObjID
	for _, e := range entries {
		ids = append(ids, e.ObjID)
	}
	assert.Contains(t, ids, widget)
}

// TestMigrateEnforcesNewTargetWhitelist covers reference-whitelist
// restriction: tightening a reference field's allowed target types nulls
// out any stored value that falls outside the new whitelist.
func TestMigrateEnforcesNewTargetWhitelist(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)
	owner, _, err := tx.Create(nil, f.ownerSID, f.v1.Number)
	require.NoError(t, err)
	widget, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.WriteSimple(widget, f.widgetOwnerIgnoreSID, owner, false))

	v2 := f.installV2(t, ownerType(), gadgetType(), &schema.ObjectType{
		StorageID: 2, Name: "Widget",
		Fields: []*schema.FieldDef{
			{StorageID: 20, Name: "name", Kind: schema.Simple, Encoding: "string", Indexed: true},
			{StorageID: 23, Name: "ownerIgnore", Kind: schema.Simple, Indexed: true,
				Reference: &schema.ReferenceDef{InverseDelete: schema.Ignore, TargetWhitelist: []uint64{f.gadgetSID}}},
		},
	})

	tx2 := f.openAt(t, v2)
	require.NoError(t, tx2.MigrateSchema(widget))

	got, err := tx2.ReadSimple(widget, f.widgetOwnerIgnoreSID, false)
	require.NoError(t, err)
	assert.Equal(t, objid.Zero, got, "a target outside the new whitelist must be unreferenced on migration")
}

// TestMigrateDiffsCompositeIndexes covers composite-index diffing: a
// version that drops one composite index and adds another leaves only the
// new index's entry behind.
func TestMigrateDiffsCompositeIndexes(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)
	widget, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.WriteSimple(widget, f.widgetNameSID, "hammer", false))
	require.NoError(t, tx.WriteSimple(widget, f.widgetCategorySID, "tools", false))

	const byNameOnlySID = 32
	v2 := f.installV2(t, ownerType(), gadgetType(), &schema.ObjectType{
		StorageID: 2, Name: "Widget",
		Fields: []*schema.FieldDef{
			{StorageID: 20, Name: "name", Kind: schema.Simple, Encoding: "string", Indexed: true},
			{StorageID: 21, Name: "category", Kind: schema.Simple, Encoding: "string"},
		},
		CompositeIndexes: []*schema.CompositeIndexDef{
			{StorageID: byNameOnlySID, Name: "byNameOnly", FieldStorageIDs: []uint64{20}},
		},
	})

	tx2 := f.openAt(t, v2)
	require.NoError(t, tx2.MigrateSchema(widget))

	catEnc := codec.Encode(codec.String, "tools")
	nameEnc := codec.Encode(codec.String, "hammer")

	oldEntries, err := tx2.QueryCompositeIndex(f.widgetByCategoryNameSID, []int{len(catEnc), len(nameEnc)})
	require.NoError(t, err)
	assert.Empty(t, oldEntries)

	newEntries, err := tx2.QueryCompositeIndex(byNameOnlySID, []int{len(nameEnc)})
	require.NoError(t, err)
	require.Len(t, newEntries, 1)
	assert.Equal(t, widget, newEntries[0].ObjID)
}

func TestSchemaChangeListenerReceivesOldValues(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)
	widget, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.WriteSimple(widget, f.widgetNameSID, "hammer", false))

	v2 := f.installV2(t, ownerType(), gadgetType(), &schema.ObjectType{
		StorageID: 2, Name: "Widget",
		Fields: []*schema.FieldDef{
			{StorageID: 21, Name: "category", Kind: schema.Simple, Encoding: "string"},
		},
	})

	tx2 := f.openAt(t, v2)
	var gotOld map[uint64]interface{}
	tx2.AddSchemaChangeListener(func(id objid.ObjID, old map[uint64]interface{}) { gotOld = old })
	require.NoError(t, tx2.MigrateSchema(widget))

	assert.Equal(t, "hammer", gotOld[f.widgetNameSID])
}
