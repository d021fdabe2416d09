package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/objid"
)

// TestCompositeIndexProjections asserts S1: a composite index's rows can be
// grouped by the full tuple (AsCompositeMap) or peeled one leading
// component at a time (AsMapOfIndex).
func TestCompositeIndexProjections(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	a, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	b, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	require.NoError(t, tx.WriteSimple(a, f.widgetCategorySID, "tools", false))
	require.NoError(t, tx.WriteSimple(a, f.widgetNameSID, "hammer", false))
	require.NoError(t, tx.WriteSimple(b, f.widgetCategorySID, "tools", false))
	require.NoError(t, tx.WriteSimple(b, f.widgetNameSID, "wrench", false))

	catEnc := codec.Encode(codec.String, "tools")
	hammerEnc := codec.Encode(codec.String, "hammer")

	entries, err := tx.QueryCompositeIndex(f.widgetByCategoryNameSID, []int{len(catEnc), len(hammerEnc)})
	require.NoError(t, err)

	grouped := AsCompositeMap(entries)
	key := string(catEnc) + string(hammerEnc)
	assert.ElementsMatch(t, []objid.ObjID{a}, grouped[key])

	peeled := AsMapOfIndex(entries, catEnc)
	var peeledIDs []objid.ObjID
	for _, e := range peeled {
		peeledIDs = append(peeledIDs, e.ObjID)
	}
	assert.ElementsMatch(t, []objid.ObjID{a, b}, peeledIDs)
}

// TestVersionIndexTracksCurrentVersion asserts I6: every live object is
// recorded under exactly its own current schema version in the version
// index.
func TestVersionIndexTracksCurrentVersion(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	ids, err := tx.QueryVersionIndex(f.v1.Number)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	_, err = tx.Delete(id)
	require.NoError(t, err)

	ids, err = tx.QueryVersionIndex(f.v1.Number)
	require.NoError(t, err)
	assert.NotContains(t, ids, id)
}

func TestQuerySimpleIndexFilter(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	a, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	b, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.WriteSimple(a, f.widgetNameSID, "alpha", false))
	require.NoError(t, tx.WriteSimple(b, f.widgetNameSID, "zeta", false))

	entries, err := tx.QuerySimpleIndex(f.widgetNameSID, []KeyRange{
		{Start: codec.Encode(codec.String, "m")},
	})
	require.NoError(t, err)
	var ids []objid.ObjID
	for _, e := range entries {
		ids = append(ids, e.ObjID)
	}
	assert.Equal(t, []objid.ObjID{b}, ids)
}
