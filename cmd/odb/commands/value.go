package commands

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/ledgerwatch/odb/objid"
	"github.com/ledgerwatch/odb/schema"
	"github.com/ledgerwatch/odb/store"
)

// parseValue converts a CLI-supplied string into the Go value WriteSimple
// expects for one of the base primitive encodings. Compound encodings
// (array/tuple/nullsafe/enum) are not addressable from the command line;
// script against the store package directly for those.
func parseValue(encoding, raw string) (interface{}, error) {
	switch encoding {
	case "uvarint", "fixed64":
		return strconv.ParseUint(raw, 10, 64)
	case "varint":
		return strconv.ParseInt(raw, 10, 64)
	case "fixed8":
		v, err := strconv.ParseUint(raw, 10, 8)
		return uint8(v), err
	case "fixed16":
		v, err := strconv.ParseUint(raw, 10, 16)
		return uint16(v), err
	case "float32":
		v, err := strconv.ParseFloat(raw, 32)
		return float32(v), err
	case "float64":
		return strconv.ParseFloat(raw, 64)
	case "bool":
		return strconv.ParseBool(raw)
	case "string":
		return raw, nil
	case "bytes":
		return hex.DecodeString(raw)
	case "objid":
		b, err := hex.DecodeString(raw)
		if err != nil {
			return nil, err
		}
		return objid.FromBytes(b)
	default:
		return nil, fmt.Errorf("odb: %q is not a CLI-addressable encoding", encoding)
	}
}

// formatValue renders a decoded field value for table/line output.
func formatValue(v interface{}) string {
	if id, ok := v.(objid.ObjID); ok {
		return id.String()
	}
	if b, ok := v.([]byte); ok {
		return hex.EncodeToString(b)
	}
	return fmt.Sprintf("%v", v)
}

func parseObjID(raw string) (objid.ObjID, error) {
	b, err := hex.DecodeString(raw)
	if err != nil {
		return objid.Zero, err
	}
	return objid.FromBytes(b)
}

// fieldOf resolves fieldSID against id's object type within tx's current
// version, for CLI commands that need a field's encoding/kind up front.
func fieldOf(tx *store.Transaction, id objid.ObjID, fieldSID uint64) (*schema.FieldDef, bool) {
	typeSID, err := objid.StorageID(id)
	if err != nil {
		return nil, false
	}
	ot, ok := tx.Version().ObjectType(typeSID)
	if !ok {
		return nil, false
	}
	return ot.Field(fieldSID)
}
