// Package fieldtype is the field-type registry (C3): it maps a textual
// encoding identifier to a concrete codec.Codec, and provides the
// composition constructors (array, tuple, nullable, enum) that the schema
// registry uses to synthesize compound field encodings.
package fieldtype

import (
	"fmt"
	"sync"

	"github.com/ledgerwatch/odb/codec"
	"github.com/ledgerwatch/odb/objid"
)

// UnknownEncoding is returned by Lookup for an unregistered identifier.
type UnknownEncoding string

func (e UnknownEncoding) Error() string { return fmt.Sprintf("fieldtype: unknown encoding %q", string(e)) }

// DuplicateEncoding is returned by Register when id is already bound to a
// different codec.
type DuplicateEncoding string

func (e DuplicateEncoding) Error() string {
	return fmt.Sprintf("fieldtype: encoding %q already registered", string(e))
}

// Registry is a thread-safe catalog of textual encoding identifiers to
// codec.Codec implementations. The zero value is not usable; use New.
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]codec.Codec
	enumIdents map[string][]string
}

// New returns a Registry pre-populated with the base primitive encodings
// every installation needs.
func New() *Registry {
	r := &Registry{
		byID:       make(map[string]codec.Codec),
		enumIdents: make(map[string][]string),
	}
	for id, c := range basePrimitives() {
		r.byID[id] = c
	}
	return r
}

func basePrimitives() map[string]codec.Codec {
	return map[string]codec.Codec{
		"uvarint": codec.Uvarint,
		"varint":  codec.Varint,
		"fixed8":  codec.Fixed8,
		"fixed16": codec.Fixed16,
		"fixed64": codec.Fixed64,
		"float32": codec.Float32,
		"float64": codec.Float64,
		"bool":    codec.Bool,
		"string":  codec.String,
		"bytes":   codec.Bytes,
		"objid":   objid.Codec,
	}
}

// Lookup resolves id to its codec.Codec, or UnknownEncoding if absent.
func (r *Registry) Lookup(id string) (codec.Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, UnknownEncoding(id)
	}
	return c, nil
}

// Register binds id to c. Re-registering id with an identical codec value
// is a no-op; binding it to a different one fails with DuplicateEncoding.
func (r *Registry) Register(id string, c codec.Codec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[id]; ok {
		if existing == c {
			return nil
		}
		return DuplicateEncoding(id)
	}
	r.byID[id] = c
	return nil
}

// Array registers and returns the array-of-of encoding under a synthesized
// identifier "array<of>", reusing any existing registration.
func (r *Registry) Array(ofID string) (codec.Codec, error) {
	of, err := r.Lookup(ofID)
	if err != nil {
		return nil, err
	}
	c := codec.Array(of)
	_ = r.Register(synthID("array", ofID), c)
	return c, nil
}

// Tuple registers and returns the Concat encoding over the named component
// encodings, in order.
func (r *Registry) Tuple(ofIDs ...string) (codec.Codec, error) {
	parts := make([]codec.Codec, len(ofIDs))
	for i, id := range ofIDs {
		c, err := r.Lookup(id)
		if err != nil {
			return nil, err
		}
		parts[i] = c
	}
	c := codec.Concat(parts...)
	_ = r.Register(synthID("tuple", ofIDs...), c)
	return c, nil
}

// NullSafe registers and returns the null-safe wrapper of the named
// encoding.
func (r *Registry) NullSafe(ofID string) (codec.Codec, error) {
	of, err := r.Lookup(ofID)
	if err != nil {
		return nil, err
	}
	c := codec.NullSafe(of)
	_ = r.Register(synthID("nullsafe", ofID), c)
	return c, nil
}

// Enum registers idents under id as an ordinal-encoded enum. Two enum
// encodings are compatible only when they are registered with the exact
// same identifier list in the same order; that check belongs to the
// schema registry's compatibility rule, not to this package, so Enum does
// not itself reject a re-registration with a different list — callers
// that care must compare EnumIdents(id) themselves.
func (r *Registry) Enum(id string, idents []string) (codec.Codec, error) {
	c := codec.Enum()
	r.mu.Lock()
	r.enumIdents[id] = append([]string(nil), idents...)
	r.mu.Unlock()
	if err := r.Register(id, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EnumIdents returns the identifier list an enum encoding id was
// registered with, or false if id is not a known enum.
func (r *Registry) EnumIdents(id string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idents, ok := r.enumIdents[id]
	return idents, ok
}

func synthID(kind string, parts ...string) string {
	s := kind + "<"
	for i, p := range parts {
		if i > 0 {
			s += ","
		}
		s += p
	}
	return s + ">"
}
