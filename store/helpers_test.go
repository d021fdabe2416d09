package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerwatch/odb/fieldtype"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/kvkit/memkv"
	"github.com/ledgerwatch/odb/schema"
)

// fixture wires an in-memory KV, a fieldtype registry, and one installed
// schema version covering every field kind and inverse-delete action the
// store package's tests exercise: Owner/Widget/Gadget with a two-hop
// reference chain (Gadget -> Widget -> Owner), a composite index, and one
// field of each complex kind.
type fixture struct {
	kv       kvkit.KV
	registry *schema.Registry
	ftypes   *fieldtype.Registry
	v1       *schema.Version

	ownerSID  uint64
	widgetSID uint64
	gadgetSID uint64

	ownerLabelSID uint64

	widgetNameSID             uint64
	widgetCategorySID         uint64
	widgetCountSID            uint64
	widgetOwnerIgnoreSID      uint64
	widgetOwnerExceptionSID   uint64
	widgetOwnerUnreferenceSID uint64
	widgetOwnerDeleteSID      uint64
	widgetOwnerForwardSID     uint64
	widgetTagsSID             uint64
	widgetScoresSID           uint64
	widgetAttrsSID            uint64
	widgetByCategoryNameSID   uint64

	gadgetWidgetRefSID uint64
}

// baseModel returns the fixture's object types with every storage-id
// assigned explicitly, so a composite index can name its component fields
// before the model is ever installed.
func ownerType() *schema.ObjectType {
	return &schema.ObjectType{
		StorageID: 1,
		Name:      "Owner",
		Fields: []*schema.FieldDef{
			{StorageID: 10, Name: "label", Kind: schema.Simple, Encoding: "string", Indexed: true},
		},
	}
}

func gadgetType() *schema.ObjectType {
	return &schema.ObjectType{
		StorageID: 3,
		Name:      "Gadget",
		Fields: []*schema.FieldDef{
			{StorageID: 40, Name: "widgetRef", Kind: schema.Simple, Indexed: true,
				Reference: &schema.ReferenceDef{InverseDelete: schema.Ignore}},
		},
	}
}

func baseModel() *schema.Model {
	owner := ownerType()
	widget := &schema.ObjectType{
		StorageID: 2,
		Name:      "Widget",
		Fields: []*schema.FieldDef{
			{StorageID: 20, Name: "name", Kind: schema.Simple, Encoding: "string", Indexed: true},
			{StorageID: 21, Name: "category", Kind: schema.Simple, Encoding: "string"},
			{StorageID: 22, Name: "count", Kind: schema.Counter, Encoding: "varint"},
			{StorageID: 23, Name: "ownerIgnore", Kind: schema.Simple, Indexed: true,
				Reference: &schema.ReferenceDef{InverseDelete: schema.Ignore}},
			{StorageID: 24, Name: "ownerException", Kind: schema.Simple, Indexed: true,
				Reference: &schema.ReferenceDef{InverseDelete: schema.Exception}},
			{StorageID: 25, Name: "ownerUnreference", Kind: schema.Simple, Indexed: true,
				Reference: &schema.ReferenceDef{InverseDelete: schema.Unreference}},
			{StorageID: 26, Name: "ownerDelete", Kind: schema.Simple, Indexed: true,
				Reference: &schema.ReferenceDef{InverseDelete: schema.Delete}},
			{StorageID: 27, Name: "ownerForward", Kind: schema.Simple, Indexed: true,
				Reference: &schema.ReferenceDef{InverseDelete: schema.Ignore, ForwardDelete: true}},
			{StorageID: 28, Name: "tags", Kind: schema.Set,
				Element: &schema.FieldDef{StorageID: 280, Kind: schema.Simple, Encoding: "string", Indexed: true}},
			{StorageID: 29, Name: "scores", Kind: schema.List,
				Element: &schema.FieldDef{StorageID: 290, Kind: schema.Simple, Encoding: "uvarint"}},
			{StorageID: 30, Name: "attrs", Kind: schema.Map,
				Key:     &schema.FieldDef{StorageID: 300, Kind: schema.Simple, Encoding: "string"},
				Element: &schema.FieldDef{StorageID: 301, Kind: schema.Simple, Encoding: "string"}},
		},
		CompositeIndexes: []*schema.CompositeIndexDef{
			{StorageID: 31, Name: "byCategoryName", FieldStorageIDs: []uint64{21, 20}},
		},
	}
	gadget := gadgetType()
	return &schema.Model{ObjectTypes: []*schema.ObjectType{owner, widget, gadget}}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:       memkv.New(),
		registry: schema.NewRegistry(),
		ftypes:   fieldtype.New(),

		ownerSID:  1,
		widgetSID: 2,
		gadgetSID: 3,

		ownerLabelSID: 10,

		widgetNameSID:             20,
		widgetCategorySID:         21,
		widgetCountSID:            22,
		widgetOwnerIgnoreSID:      23,
		widgetOwnerExceptionSID:   24,
		widgetOwnerUnreferenceSID: 25,
		widgetOwnerDeleteSID:      26,
		widgetOwnerForwardSID:     27,
		widgetTagsSID:             28,
		widgetScoresSID:           29,
		widgetAttrsSID:            30,
		widgetByCategoryNameSID:   31,

		gadgetWidgetRefSID: 40,
	}

	v, err := f.registry.Install(baseModel())
	require.NoError(t, err)
	f.v1 = v
	return f
}

// open starts a fresh transaction at the fixture's installed version.
func (f *fixture) open(t *testing.T) *Transaction {
	t.Helper()
	tx, err := Open(context.Background(), f.kv, f.registry, f.ftypes, TxOptions{VersionNumber: f.v1.Number})
	require.NoError(t, err)
	return tx
}
