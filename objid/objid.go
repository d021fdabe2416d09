// Package objid implements the fixed 8-byte object identifier: a
// variable-length unsigned-varint-encoded object-type storage-id prefix
// followed by random filler bytes. The identifier's raw bytes are also its
// canonical KV key prefix, so ObjId ordering is pure bytewise comparison
// and objects of the same type always sort together.
package objid

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ledgerwatch/odb/codec"
)

// Size is the fixed byte width of every ObjId.
const Size = 8

// ObjID is a fixed 8-byte object identifier.
type ObjID [Size]byte

// Zero is the null reference value: eight zero bytes. No real object may
// use it, since the storage-id prefix of a valid id is always >= 1.
var Zero ObjID

// IsZero reports whether id is the null reference.
func (id ObjID) IsZero() bool { return id == Zero }

// Bytes returns id's raw bytes, which double as its OBJ: key prefix.
func (id ObjID) Bytes() []byte { return id[:] }

func (id ObjID) String() string { return hex.EncodeToString(id[:]) }

// Compare implements bytewise ordering, matching the store's requirement
// that ObjId comparison is pure byte comparison.
func Compare(a, b ObjID) int { return bytes.Compare(a[:], b[:]) }

// FromBytes copies exactly Size bytes from b into an ObjID.
func FromBytes(b []byte) (ObjID, error) {
	var id ObjID
	if len(b) != Size {
		return id, fmt.Errorf("objid: expected %d bytes, got %d", Size, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// prefixLen returns the number of bytes codec.EncodeUvarint would use to
// encode storageID, without materializing the encoding.
func prefixLen(storageID uint64) int {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, storageID)
	return buf.Len()
}

// StorageID extracts id's leading object-type storage-id.
func StorageID(id ObjID) (uint64, error) {
	r := bytes.NewReader(id[:])
	return codec.DecodeUvarint(r)
}

// errIDTooLarge is returned when a storage-id's varint encoding is longer
// than Size bytes.
type errIDTooLarge uint64

func (e errIDTooLarge) Error() string {
	return fmt.Sprintf("objid: storage-id %d too large to embed in an %d-byte ObjId", uint64(e), Size)
}

// New builds a random ObjId for the given object-type storage-id, retrying
// up to maxAttempts times against isUsed before giving up. isUsed is
// consulted so callers can avoid colliding with an existing id; pass a
// func that always returns false to skip the check.
func New(storageID uint64, isUsed func(ObjID) bool, maxAttempts int) (ObjID, error) {
	n := prefixLen(storageID)
	if n > Size {
		return Zero, errIDTooLarge(storageID)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := build(storageID, n)
		if err != nil {
			return Zero, err
		}
		if isUsed == nil || !isUsed(id) {
			return id, nil
		}
	}
	return Zero, fmt.Errorf("objid: %w", ErrIDExhausted)
}

// ErrIDExhausted is returned by New when no unused id was found within the
// attempt budget, matching the store's IdExhausted failure.
var ErrIDExhausted = errIDExhausted{}

type errIDExhausted struct{}

func (errIDExhausted) Error() string { return "objid: id space exhausted for storage-id" }

func build(storageID uint64, prefixN int) (ObjID, error) {
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, storageID)
	if buf.Len() != prefixN {
		return Zero, fmt.Errorf("objid: non-deterministic varint length")
	}
	var id ObjID
	copy(id[:], buf.Bytes())
	suffix := id[prefixN:]
	if _, err := rand.Read(suffix); err != nil {
		return Zero, fmt.Errorf("objid: %w", err)
	}
	return id, nil
}

// WithStorageID deterministically builds an id for tests: the prefix
// carries storageID and the suffix is exactly suffix, zero-padded or
// truncated to fit the remaining width.
func WithStorageID(storageID uint64, suffix []byte) (ObjID, error) {
	n := prefixLen(storageID)
	if n > Size {
		return Zero, errIDTooLarge(storageID)
	}
	var buf bytes.Buffer
	codec.EncodeUvarint(&buf, storageID)
	var id ObjID
	copy(id[:], buf.Bytes())
	copy(id[n:], suffix)
	return id, nil
}

type codecObjID struct{}

// Codec is the order-preserving Codec for ObjID values, used to encode
// reference fields: the null reference is Zero's all-zero encoding, which
// sorts before every real id since every storage-id is >= 1.
var Codec codec.Codec = codecObjID{}

func (codecObjID) Encode(buf *bytes.Buffer, v interface{}) error {
	id := v.(ObjID)
	codec.EncodeRawFixed(buf, id[:])
	return nil
}

func (codecObjID) Decode(r *bytes.Reader) (interface{}, error) {
	b, err := codec.DecodeRawFixed(r, Size)
	if err != nil {
		return nil, err
	}
	return FromBytes(b)
}

func (codecObjID) Skip(r *bytes.Reader) error {
	_, err := codec.DecodeRawFixed(r, Size)
	return err
}

func (codecObjID) HasPrefix0x00() bool { return true }
func (codecObjID) HasPrefix0xff() bool { return true }
