package kvkit

// ErrKeyNotFound is the sentinel Bucket.Get returns for an absent key,
// compared with errors.Is at call sites (the teacher's ethdb.ErrKeyNotFound
// convention).
var ErrKeyNotFound = errKeyNotFound{}

type errKeyNotFound struct{}

func (errKeyNotFound) Error() string { return "kvkit: key not found" }

// ErrBucketNotFound is returned when a bucket name was never registered
// with the store.
var ErrBucketNotFound = errBucketNotFound{}

type errBucketNotFound struct{}

func (errBucketNotFound) Error() string { return "kvkit: bucket not found" }
