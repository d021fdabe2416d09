package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/odb/fieldtype"
	"github.com/ledgerwatch/odb/kvkit/memkv"
	"github.com/ledgerwatch/odb/schema"
	"github.com/ledgerwatch/odb/store"
)

func thingModelV1() *schema.Model {
	return &schema.Model{ObjectTypes: []*schema.ObjectType{
		{
			StorageID: 1,
			Name:      "Thing",
			Fields: []*schema.FieldDef{
				{StorageID: 10, Name: "category", Kind: schema.Simple, Encoding: "string"},
				{StorageID: 11, Name: "name", Kind: schema.Simple, Encoding: "string"},
			},
			CompositeIndexes: []*schema.CompositeIndexDef{
				{StorageID: 12, Name: "byCategoryName", FieldStorageIDs: []uint64{10, 11}},
			},
		},
	}}
}

// TestBackfillCompositeIndexesIsIdempotent asserts the job's documented
// idempotency: rerunning it after objects already carry correct composite
// entries leaves exactly one entry per object, never duplicating.
func TestBackfillCompositeIndexesIsIdempotent(t *testing.T) {
	kv := memkv.New()
	ftypes := fieldtype.New()
	ctx := context.Background()
	registry := schema.NewRegistry()
	v, err := registry.Install(thingModelV1())
	require.NoError(t, err)

	tx, err := store.Open(ctx, kv, registry, ftypes, store.TxOptions{VersionNumber: v.Number})
	require.NoError(t, err)
	a, _, err := tx.Create(nil, 1, v.Number)
	require.NoError(t, err)
	b, _, err := tx.Create(nil, 1, v.Number)
	require.NoError(t, err)
	require.NoError(t, tx.WriteSimple(a, 10, "tools", false))
	require.NoError(t, tx.WriteSimple(a, 11, "hammer", false))
	require.NoError(t, tx.WriteSimple(b, 10, "tools", false))
	require.NoError(t, tx.WriteSimple(b, 11, "wrench", false))
	require.NoError(t, tx.Commit())

	mc := Context{KV: kv, Registry: registry, FieldTypes: ftypes, CurrentVersion: v.Number}
	require.NoError(t, backfillCompositeIndexes.Up(ctx, mc))
	require.NoError(t, backfillCompositeIndexes.Up(ctx, mc))

	tx2, err := store.Open(ctx, kv, registry, ftypes, store.TxOptions{VersionNumber: v.Number})
	require.NoError(t, err)
	entries, err := tx2.QueryCompositeIndex(12, []int{7, 8})
	require.NoError(t, err)

	byID := map[string]int{}
	for _, e := range entries {
		byID[e.ObjID.String()]++
	}
	assert.Equal(t, 1, byID[a.String()])
	assert.Equal(t, 1, byID[b.String()])
}

// TestPruneDeprecatedVersionsRemovesUnusedVersion covers the sweep that
// drops a schema version once every object has migrated off it, while
// leaving the current version and any version still in use alone.
func TestPruneDeprecatedVersionsRemovesUnusedVersion(t *testing.T) {
	kv := memkv.New()
	ftypes := fieldtype.New()
	ctx := context.Background()
	registry := schema.NewRegistry()

	v1, err := registry.Install(thingModelV1())
	require.NoError(t, err)

	tx, err := store.Open(ctx, kv, registry, ftypes, store.TxOptions{VersionNumber: v1.Number})
	require.NoError(t, err)
	migrated, _, err := tx.Create(nil, 1, v1.Number)
	require.NoError(t, err)
	stillOnV1, _, err := tx.Create(nil, 1, v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	v2Model := thingModelV1()
	v2Model.ObjectTypes[0].Fields = append(v2Model.ObjectTypes[0].Fields,
		&schema.FieldDef{StorageID: 13, Name: "extra", Kind: schema.Simple, Encoding: "string"})
	v2, err := registry.Install(v2Model)
	require.NoError(t, err)

	tx2, err := store.Open(ctx, kv, registry, ftypes, store.TxOptions{VersionNumber: v2.Number})
	require.NoError(t, err)
	require.NoError(t, tx2.MigrateSchema(migrated))
	require.NoError(t, tx2.Commit())

	mc := Context{KV: kv, Registry: registry, FieldTypes: ftypes, CurrentVersion: v2.Number}
	require.NoError(t, pruneDeprecatedVersions.Up(ctx, mc))

	// v1 still has stillOnV1 referring to it, so it must survive.
	_, ok := registry.Lookup(v1.Number)
	assert.True(t, ok, "a version with a live object must not be pruned")

	// Finish migrating the last v1 object, then prune again.
	tx3, err := store.Open(ctx, kv, registry, ftypes, store.TxOptions{VersionNumber: v2.Number})
	require.NoError(t, err)
	require.NoError(t, tx3.MigrateSchema(stillOnV1))
	require.NoError(t, tx3.Commit())

	require.NoError(t, pruneDeprecatedVersions.Up(ctx, mc))
	_, ok = registry.Lookup(v1.Number)
	assert.False(t, ok, "an unused, non-current version must be pruned")

	_, ok = registry.Lookup(v2.Number)
	assert.True(t, ok, "the current version is never pruned")
}
