package store

import (
	"bytes"
	"context"

	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/ledgerwatch/odb/schema"
)

// persistSchemaVersion records v's canonical form under META:schema:<version>
// so a later process can reconstruct the registry via LoadRegistry without
// re-running install-time compatibility checks (schema.Registry.Absorb
// trusts a persisted version outright).
func persistSchemaVersion(rw kvkit.RwTx, v *schema.Version) error {
	b := rw.RwBucket(dbutils.MetaBucket)
	return b.Put(metaSchemaKey(v.Number), v.Canonical)
}

// LoadRegistry scans every META:schema:<version> record in kv and returns a
// Registry pre-populated via Absorb, ready to pass to Open. A store with no
// schema history yet yields an empty, non-nil Registry.
func LoadRegistry(ctx context.Context, kv kvkit.KV) (*schema.Registry, error) {
	r := schema.NewRegistry()
	err := kv.View(ctx, func(tx kvkit.Tx) error {
		b := tx.Bucket(dbutils.MetaBucket)
		cur := b.Cursor()
		k, v, err := cur.Seek(metaSchemaPrefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, metaSchemaPrefix) {
			num, uerr := decodeMetaSchemaVersion(k)
			if uerr != nil {
				return uerr
			}
			model, derr := schema.Decode(v)
			if derr != nil {
				return derr
			}
			canonical := append([]byte(nil), v...)
			r.Absorb(&schema.Version{Number: num, Model: model, Canonical: canonical})
			k, v, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
