package fieldtype

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/odb/codec"
)

func TestLookupBasePrimitives(t *testing.T) {
	r := New()
	for _, id := range []string{"uvarint", "varint", "fixed8", "fixed16", "fixed64", "float32", "float64", "bool", "string", "bytes", "objid"} {
		c, err := r.Lookup(id)
		require.NoError(t, err, id)
		assert.NotNil(t, c, id)
	}
}

func TestLookupUnknownEncoding(t *testing.T) {
	r := New()
	_, err := r.Lookup("not-a-real-encoding")
	require.Error(t, err)
	_, ok := err.(UnknownEncoding)
	assert.True(t, ok)
}

func TestRegisterDuplicateSameCodecIsNoop(t *testing.T) {
	r := New()
	c, err := r.Lookup("uvarint")
	require.NoError(t, err)
	assert.NoError(t, r.Register("uvarint", c))
}

func TestRegisterDuplicateDifferentCodecFails(t *testing.T) {
	r := New()
	var other codec.Codec = codec.String
	err := r.Register("uvarint", other)
	require.Error(t, err)
	_, ok := err.(DuplicateEncoding)
	assert.True(t, ok)
}

func TestArrayComposesAndCachesBySynthesizedID(t *testing.T) {
	r := New()
	c1, err := r.Array("uvarint")
	require.NoError(t, err)
	c2, err := r.Lookup("array<uvarint>")
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}

func TestTupleComposesInOrder(t *testing.T) {
	r := New()
	c, err := r.Tuple("uvarint", "string")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, []interface{}{uint64(3), "x"}))
	got, err := c.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{uint64(3), "x"}, got)
}

func TestNullSafeWrapsNamedEncoding(t *testing.T) {
	r := New()
	c, err := r.NullSafe("uvarint")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, uint64(4)))
	got, err := c.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got)
}

func TestEnumRoundTripAndIdentLookup(t *testing.T) {
	r := New()
	idents := []string{"RED", "GREEN", "BLUE"}
	c, err := r.Enum("color", idents)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf, 1))
	got, err := c.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	gotIdents, ok := r.EnumIdents("color")
	require.True(t, ok)
	assert.Equal(t, idents, gotIdents)
}

func TestEnumUnknownIdentsNotFound(t *testing.T) {
	r := New()
	_, ok := r.EnumIdents("nope")
	assert.False(t, ok)
}
