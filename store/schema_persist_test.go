package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/odb/fieldtype"
	"github.com/ledgerwatch/odb/kvkit/memkv"
	"github.com/ledgerwatch/odb/schema"
)

// TestOpenPersistsNewSchemaForReload confirms a version installed through
// Open's AllowNewSchema path survives a fresh LoadRegistry against the same
// underlying store, without re-running install-time compatibility checks.
func TestOpenPersistsNewSchemaForReload(t *testing.T) {
	kv := memkv.New()
	ftypes := fieldtype.New()
	ctx := context.Background()

	registry := schema.NewRegistry()
	tx, err := Open(ctx, kv, registry, ftypes, TxOptions{
		SchemaModel:    &schema.Model{ObjectTypes: []*schema.ObjectType{ownerType()}},
		AllowNewSchema: true,
	})
	require.NoError(t, err)
	installed := tx.Version()
	require.NoError(t, tx.Commit())

	reloaded, err := LoadRegistry(ctx, kv)
	require.NoError(t, err)

	v, ok := reloaded.Lookup(installed.Number)
	require.True(t, ok)
	assert.Equal(t, installed.Canonical, v.Canonical)

	owner, ok := v.ObjectType(1)
	require.True(t, ok)
	field, ok := owner.Field(10)
	require.True(t, ok)
	assert.Equal(t, "label", field.Name)
}

// TestLoadRegistryOnEmptyStoreIsEmpty confirms a store with no schema
// history yields a usable, non-nil Registry.
func TestLoadRegistryOnEmptyStoreIsEmpty(t *testing.T) {
	kv := memkv.New()
	reloaded, err := LoadRegistry(context.Background(), kv)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Empty(t, reloaded.Versions())
}
