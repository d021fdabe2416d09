package migrations

import (
	"bytes"
	"context"
	"time"

	"github.com/ledgerwatch/odb/common/dbutils"
	"github.com/ledgerwatch/odb/kvkit"
)

// receiptPrefix namespaces applied-migration records within MetaBucket,
// parallel to store's "schema:" prefix for installed versions.
var receiptPrefix = []byte("migration:")

func receiptKey(name string) []byte {
	return append(append([]byte(nil), receiptPrefix...), name...)
}

// loadReceipts returns the set of migration names already applied.
func loadReceipts(ctx context.Context, kv kvkit.KV) (map[string]bool, error) {
	applied := map[string]bool{}
	err := kv.View(ctx, func(tx kvkit.Tx) error {
		b := tx.Bucket(dbutils.MetaBucket)
		cur := b.Cursor()
		k, _, err := cur.Seek(receiptPrefix)
		if err != nil {
			return err
		}
		for k != nil && bytes.HasPrefix(k, receiptPrefix) {
			applied[string(k[len(receiptPrefix):])] = true
			k, _, err = cur.Next()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// recordReceipt marks name as applied, storing the completion time for
// operator inspection (it is not parsed back by anything).
func recordReceipt(ctx context.Context, kv kvkit.KV, name string) error {
	return kv.Update(ctx, func(tx kvkit.RwTx) error {
		b := tx.RwBucket(dbutils.MetaBucket)
		return b.Put(receiptKey(name), []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}
