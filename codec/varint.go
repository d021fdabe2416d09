package codec

import (
	"bytes"
	"fmt"
)

// EncodeUvarint writes v using a length-prefixed, order-preserving scheme:
// the first byte tells the decoder (and any byte-wise comparator) exactly
// how many bytes follow, and values needing more bytes always encode to a
// lexicographically larger string than values needing fewer.
//
//	prefix 0..240            -> value is the prefix byte itself (1 byte total)
//	prefix 241..248           -> 1 extra byte;  value = 240 + (prefix-241)*256 + extra
//	prefix 249                -> 2 extra bytes (big-endian), value = 2288 + those two bytes
//	prefix 250..255           -> (prefix-247) extra bytes, big-endian, holding the raw value
func EncodeUvarint(buf *bytes.Buffer, v uint64) {
	switch {
	case v <= 240:
		buf.WriteByte(byte(v))
	case v <= 2287:
		v -= 240
		buf.WriteByte(byte(241 + v/256))
		buf.WriteByte(byte(v % 256))
	case v <= 67823:
		v -= 2288
		buf.WriteByte(249)
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v))
	default:
		n := byteLen(v)
		buf.WriteByte(byte(249 + n - 2))
		for i := n - 1; i >= 0; i-- {
			buf.WriteByte(byte(v >> (8 * uint(i))))
		}
	}
}

// byteLen returns how many big-endian bytes are needed to hold v, in [3,8].
func byteLen(v uint64) int {
	n := 3
	for v>>(8*uint(n)) != 0 {
		n++
	}
	return n
}

func DecodeUvarint(r *bytes.Reader) (uint64, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("codec: uvarint: %w", err)
	}
	switch {
	case b0 <= 240:
		return uint64(b0), nil
	case b0 <= 248:
		b1, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("codec: uvarint: %w", err)
		}
		return 240 + uint64(b0-241)*256 + uint64(b1), nil
	default:
		n := int(b0-249) + 2
		var v uint64
		for i := 0; i < n; i++ {
			b, err := r.ReadByte()
			if err != nil {
				return 0, fmt.Errorf("codec: uvarint: %w", err)
			}
			v = v<<8 | uint64(b)
		}
		if b0 == 249 {
			v += 2288
		}
		return v, nil
	}
}

func SkipUvarint(r *bytes.Reader) error {
	_, err := DecodeUvarint(r)
	return err
}

func (codecUvarint) HasPrefix0x00() bool { return true }
func (codecUvarint) HasPrefix0xff() bool { return true }

type codecUvarint struct{}

// Uvarint is the Codec for non-negative integers (storage-ids, versions,
// list/array lengths).
var Uvarint Codec = codecUvarint{}

func (codecUvarint) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeUvarint(buf, v.(uint64))
	return nil
}
func (codecUvarint) Decode(r *bytes.Reader) (interface{}, error) { return DecodeUvarint(r) }
func (codecUvarint) Skip(r *bytes.Reader) error                  { return SkipUvarint(r) }

// EncodeVarint writes a signed 64-bit integer so that byte order matches
// numeric order. It maps int64 to a monotonically-equivalent uint64 by
// flipping the sign bit (the same bias trick EncodeFloat64 uses on the
// mantissa/exponent bits) and then reuses the unsigned encoding. The
// prefix byte therefore carries only the byte count, not the sign: only
// values less than math.MinInt64+2^56 get encodings shorter than 9 bytes;
// every other value, zero and small magnitudes included, takes 9 bytes.
func EncodeVarint(buf *bytes.Buffer, v int64) {
	EncodeUvarint(buf, biasInt64(v))
}

func DecodeVarint(r *bytes.Reader) (int64, error) {
	u, err := DecodeUvarint(r)
	if err != nil {
		return 0, err
	}
	return unbiasInt64(u), nil
}

func SkipVarint(r *bytes.Reader) error {
	return SkipUvarint(r)
}

func biasInt64(v int64) uint64   { return uint64(v) ^ (1 << 63) }
func unbiasInt64(u uint64) int64 { return int64(u ^ (1 << 63)) }

type codecVarint struct{}

// Varint is the Codec for signed 64-bit integers.
var Varint Codec = codecVarint{}

func (codecVarint) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeVarint(buf, v.(int64))
	return nil
}
func (codecVarint) Decode(r *bytes.Reader) (interface{}, error) { return DecodeVarint(r) }
func (codecVarint) Skip(r *bytes.Reader) error                  { return SkipVarint(r) }
func (codecVarint) HasPrefix0x00() bool                         { return true }
func (codecVarint) HasPrefix0xff() bool                         { return true }
