package memkv

import (
	"github.com/ledgerwatch/odb/kvkit"
	"github.com/petar/GoLLRB/llrb"
)

func (b *memBucket) Get(key []byte) ([]byte, error) {
	it := b.tree.Get(&kvItem{Key: key})
	if it == nil {
		return nil, kvkit.ErrKeyNotFound
	}
	v := it.(*kvItem).Value
	return append([]byte(nil), v...), nil
}

func (b *memBucket) Put(key, value []byte) error {
	b.tree.ReplaceOrInsert(&kvItem{
		Key:   append([]byte(nil), key...),
		Value: append([]byte(nil), value...),
	})
	return nil
}

func (b *memBucket) Delete(key []byte) error {
	b.tree.Delete(&kvItem{Key: key})
	return nil
}

func (b *memBucket) Cursor() kvkit.Cursor {
	return &memCursor{tree: b.tree}
}

// memCursor walks b.tree in ascending key order. GoLLRB has no persistent
// cursor concept, so each step re-seeks from the current key; this is a
// correctness-over-raw-speed tradeoff acceptable for an in-memory,
// test/detached-transaction-only backend.
type memCursor struct {
	tree    *llrb.LLRB
	current []byte
	done    bool
}

func (c *memCursor) First() (key, value []byte, err error) {
	return c.Seek(nil)
}

func (c *memCursor) Seek(seek []byte) (key, value []byte, err error) {
	var found *kvItem
	c.tree.AscendGreaterOrEqual(&kvItem{Key: seek}, func(i llrb.Item) bool {
		found = i.(*kvItem)
		return false
	})
	if found == nil {
		c.done = true
		return nil, nil, nil
	}
	c.current = found.Key
	c.done = false
	return append([]byte(nil), found.Key...), append([]byte(nil), found.Value...), nil
}

func (c *memCursor) Next() (key, value []byte, err error) {
	if c.done || c.current == nil {
		return nil, nil, nil
	}
	var found *kvItem
	skippedCurrent := false
	c.tree.AscendGreaterOrEqual(&kvItem{Key: c.current}, func(i llrb.Item) bool {
		it := i.(*kvItem)
		if !skippedCurrent {
			skippedCurrent = true
			return true // the current key itself, keep going
		}
		found = it
		return false
	})
	if found == nil {
		c.done = true
		c.current = nil
		return nil, nil, nil
	}
	c.current = found.Key
	return append([]byte(nil), found.Key...), append([]byte(nil), found.Value...), nil
}
