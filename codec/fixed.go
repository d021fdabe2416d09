package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeFixed64 writes v as 8 raw big-endian bytes. Raw big-endian is
// already order-preserving for unsigned values, so no bias is needed; this
// is used for the store's OBJ: meta value, for list positions, and for
// fixed-width unsigned fields. Counters use the Varint encoding instead.
func EncodeFixed64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func DecodeFixed64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("codec: fixed64: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// EncodeFixed16 writes v as 2 raw big-endian bytes (char/short primitives).
func EncodeFixed16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func DecodeFixed16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("codec: fixed16: %w", err)
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// EncodeFixed8 writes v as a single raw byte.
func EncodeFixed8(buf *bytes.Buffer, v uint8) { buf.WriteByte(v) }

func DecodeFixed8(r *bytes.Reader) (uint8, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("codec: fixed8: %w", err)
	}
	return b, nil
}

// EncodeRawFixed writes exactly len(b) raw bytes, used for fixed-size
// identifiers such as ObjId (8 bytes) whose bytes are already their own
// canonical, order-preserving form.
func EncodeRawFixed(buf *bytes.Buffer, b []byte) { buf.Write(b) }

// DecodeRawFixed reads exactly n raw bytes.
func DecodeRawFixed(r *bytes.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return nil, fmt.Errorf("codec: raw[%d]: %w", n, err)
	}
	return b, nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	n := 0
	for n < len(b) {
		m, err := r.Read(b[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, errShortRead{}
		}
	}
	return n, nil
}

type errShortRead struct{}

func (errShortRead) Error() string { return "codec: short read" }

type codecFixed64 struct{}

// Fixed64 is the Codec for raw 8-byte big-endian unsigned integers.
var Fixed64 Codec = codecFixed64{}

func (codecFixed64) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeFixed64(buf, v.(uint64))
	return nil
}
func (codecFixed64) Decode(r *bytes.Reader) (interface{}, error) { return DecodeFixed64(r) }
func (codecFixed64) Skip(r *bytes.Reader) error {
	_, err := DecodeFixed64(r)
	return err
}
func (codecFixed64) HasPrefix0x00() bool { return true }
func (codecFixed64) HasPrefix0xff() bool { return true }

type codecFixed16 struct{}

// Fixed16 is the Codec for raw 2-byte big-endian unsigned integers
// (char/short primitives).
var Fixed16 Codec = codecFixed16{}

func (codecFixed16) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeFixed16(buf, v.(uint16))
	return nil
}
func (codecFixed16) Decode(r *bytes.Reader) (interface{}, error) { return DecodeFixed16(r) }
func (codecFixed16) Skip(r *bytes.Reader) error {
	_, err := DecodeFixed16(r)
	return err
}
func (codecFixed16) HasPrefix0x00() bool { return true }
func (codecFixed16) HasPrefix0xff() bool { return true }

type codecFixed8 struct{}

// Fixed8 is the Codec for a raw byte primitive.
var Fixed8 Codec = codecFixed8{}

func (codecFixed8) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeFixed8(buf, v.(uint8))
	return nil
}
func (codecFixed8) Decode(r *bytes.Reader) (interface{}, error) { return DecodeFixed8(r) }
func (codecFixed8) Skip(r *bytes.Reader) error {
	_, err := DecodeFixed8(r)
	return err
}
func (codecFixed8) HasPrefix0x00() bool { return true }
func (codecFixed8) HasPrefix0xff() bool { return true }
