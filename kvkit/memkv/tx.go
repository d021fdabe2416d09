package memkv

import (
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/petar/GoLLRB/llrb"
)

type memTx struct {
	db *MemKV
}

func (tx *memTx) Bucket(name string) kvkit.Bucket {
	return &memBucket{tree: tx.db.tree(name)}
}

func (tx *memTx) RwBucket(name string) kvkit.RwBucket {
	return &memBucket{tree: tx.db.tree(name)}
}

type memBucket struct {
	tree *llrb.LLRB
}
