package codec

import (
	"bytes"
	"fmt"
)

// Concat builds a tuple Codec by concatenating the encodings of of in
// order, with no separators. This is safe because every component Codec
// in this package is self-delimiting (fixed-width, length-prefixed, or
// terminator-based), so concatenation alone preserves both round-trip
// decoding and the tuple's lexicographic order: two tuples compare equal
// up to their first differing field, exactly like composite index keys
// are defined to behave.
//
// Values are passed and returned as []interface{} with one entry per
// field, in the same order as of.
func Concat(of ...Codec) Codec { return concatCodec{of: of} }

type concatCodec struct{ of []Codec }

func (c concatCodec) Encode(buf *bytes.Buffer, v interface{}) error {
	vals := v.([]interface{})
	if len(vals) != len(c.of) {
		return fmt.Errorf("codec: tuple: expected %d values, got %d", len(c.of), len(vals))
	}
	for i, fc := range c.of {
		if err := fc.Encode(buf, vals[i]); err != nil {
			return fmt.Errorf("codec: tuple[%d]: %w", i, err)
		}
	}
	return nil
}

func (c concatCodec) Decode(r *bytes.Reader) (interface{}, error) {
	out := make([]interface{}, len(c.of))
	for i, fc := range c.of {
		v, err := fc.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("codec: tuple[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (c concatCodec) Skip(r *bytes.Reader) error {
	for i, fc := range c.of {
		if err := fc.Skip(r); err != nil {
			return fmt.Errorf("codec: tuple[%d]: %w", i, err)
		}
	}
	return nil
}

func (c concatCodec) HasPrefix0x00() bool {
	if len(c.of) == 0 {
		return false
	}
	return c.of[0].HasPrefix0x00()
}

func (c concatCodec) HasPrefix0xff() bool {
	if len(c.of) == 0 {
		return false
	}
	return c.of[0].HasPrefix0xff()
}

// Concat2, Concat3, Concat4 are typed conveniences over Concat for the
// most common arities (composite indexes of 2-4 fields, plus the trailing
// ObjId column every index key carries).
func Concat2(a, b Codec) Codec          { return Concat(a, b) }
func Concat3(a, b, c Codec) Codec       { return Concat(a, b, c) }
func Concat4(a, b, c, d Codec) Codec    { return Concat(a, b, c, d) }
