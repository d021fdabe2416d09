// Package dbutils names the KV buckets the object store keeps its key
// families in, and carries the small amount of per-bucket configuration a
// backend needs (the DupSort hint marks buckets whose "value" is really
// just the object id tacked onto the end of the key).
package dbutils

import (
	"sort"
	"strings"
)

// Buckets. Every on-disk key produced by this module falls into exactly one
// of these five families (see store/keys.go for the exact key layouts).
var (
	// ObjectBucket holds "OBJ:<objId>" existence/meta rows and
	// "OBJ:<objId><fieldSID>[...]" field content. Simple, counter and
	// complex sub-tree keys all share this bucket; they are disambiguated
	// by key length and suffix, never by bucket.
	ObjectBucket = "Object"

	// IndexBucket holds simple-field and complex-sub-field index rows:
	// "IDX:<fieldSID><encodedValue><objId>[<discriminator>]".
	IndexBucket = "Index"

	// CompositeIndexBucket holds "CIDX:<compositeSID><encValue1>...<encValueN><objId>".
	CompositeIndexBucket = "CompositeIndex"

	// VersionIndexBucket holds "VIDX:<versionVarint><objId>".
	VersionIndexBucket = "VersionIndex"

	// MetaBucket holds the schema catalog ("schema:<version>") and reserved
	// caller metadata ("user:<key>").
	MetaBucket = "Meta"
)

// Buckets is the canonical, sorted list of every bucket this module uses.
// memkv.New pre-creates exactly these.
var Buckets = []string{
	ObjectBucket,
	IndexBucket,
	CompositeIndexBucket,
	VersionIndexBucket,
	MetaBucket,
}

// BucketFlags are advisory hints a KV backend may use to pick a physical
// layout.
type BucketFlags uint

const (
	Default BucketFlags = 0x00
	// DupSort marks a bucket whose keys legitimately repeat with different
	// suffixes forming the "value" - IndexBucket, CompositeIndexBucket and
	// VersionIndexBucket are of this shape.
	DupSort BucketFlags = 0x04
)

type BucketConfigItem struct {
	Flags BucketFlags
}

type BucketsCfg map[string]BucketConfigItem

var BucketsConfigs = BucketsCfg{
	IndexBucket:          {Flags: DupSort},
	CompositeIndexBucket: {Flags: DupSort},
	VersionIndexBucket:   {Flags: DupSort},
}

func sortBuckets() {
	sort.SliceStable(Buckets, func(i, j int) bool {
		return strings.Compare(Buckets[i], Buckets[j]) < 0
	})
}

func DefaultBuckets() BucketsCfg {
	return BucketsConfigs
}

func init() {
	reinit()
}

func reinit() {
	sortBuckets()
	for _, name := range Buckets {
		if _, ok := BucketsConfigs[name]; !ok {
			BucketsConfigs[name] = BucketConfigItem{}
		}
	}
}
