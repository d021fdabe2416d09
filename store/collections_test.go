package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetViewAddRemoveContains(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	set := tx.Set(id, f.widgetTagsSID)
	empty, err := set.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, set.Add("red"))
	require.NoError(t, set.Add("blue"))
	require.NoError(t, set.Add("red")) // duplicate add is idempotent

	size, err := set.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	has, err := set.Contains("blue")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, set.Remove("blue"))
	has, err = set.Contains("blue")
	require.NoError(t, err)
	assert.False(t, has)

	elems, err := set.Elements()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"red"}, elems)

	require.NoError(t, set.Clear())
	empty, err = set.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestListViewAppendSetRemoveAt(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	list := tx.List(id, f.widgetScoresSID)
	require.NoError(t, list.Append(uint64(10)))
	require.NoError(t, list.Append(uint64(20)))
	require.NoError(t, list.Append(uint64(30)))

	size, err := list.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)

	require.NoError(t, list.Set(1, uint64(99)))
	v, err := list.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), v)

	// Removing the first element shifts the tail down, keeping positions
	// 0..n-1 contiguous.
	require.NoError(t, list.RemoveAt(0))
	elems, err := list.Elements()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{uint64(99), uint64(30)}, elems)

	require.NoError(t, list.Clear())
	size, err = list.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestMapViewPutGetRemove(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)

	m := tx.Map(id, f.widgetAttrsSID)
	require.NoError(t, m.Put("color", "red"))
	require.NoError(t, m.Put("size", "large"))

	v, ok, err := m.Get("color")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "red", v)

	size, err := m.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	require.NoError(t, m.Remove("color"))
	_, ok, err = m.Get("color")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, values, err := m.Entries()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"size"}, keys)
	assert.Equal(t, []interface{}{"large"}, values)
}

// TestDeletedObjectCollectionsReadAsEmpty asserts S3: reading a collection
// field on a deleted object reports empty rather than erroring.
func TestDeletedObjectCollectionsReadAsEmpty(t *testing.T) {
	f := newFixture(t)
	tx := f.open(t)

	id, _, err := tx.Create(nil, f.widgetSID, f.v1.Number)
	require.NoError(t, err)
	require.NoError(t, tx.Set(id, f.widgetTagsSID).Add("red"))

	_, err = tx.Delete(id)
	require.NoError(t, err)

	size, err := tx.Set(id, f.widgetTagsSID).Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)

	elems, err := tx.List(id, f.widgetScoresSID).Elements()
	require.NoError(t, err)
	assert.Empty(t, elems)

	keys, values, err := tx.Map(id, f.widgetAttrsSID).Entries()
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Empty(t, values)
}
