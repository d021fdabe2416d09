package codec

import (
	"bytes"
	"fmt"
)

// Strings and byte arrays share one byte-stuffing scheme: every 0x00 byte
// in the payload is escaped as 0x00 0xff, and the value is terminated by
// 0x00 0x00. Because UTF-8's byte encoding already preserves code-point
// order under lexicographic comparison, stuffing the one byte value
// (0x00) that needs escaping is all that's required to also make the
// terminator unambiguous and order-preserving: a value that is a proper
// prefix of another (e.g. "ab" vs "ab\x00c") terminates at 0x00 0x00,
// which sorts before the continuation marker 0x00 0xff of the longer
// value, so the prefix correctly sorts first.
func stuff(buf *bytes.Buffer, b []byte) {
	for _, c := range b {
		if c == 0x00 {
			buf.WriteByte(0x00)
			buf.WriteByte(0xff)
		} else {
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(0x00)
	buf.WriteByte(0x00)
}

func unstuff(r *bytes.Reader) ([]byte, error) {
	var out []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("codec: unterminated stuffed value: %w", err)
		}
		if b != 0x00 {
			out = append(out, b)
			continue
		}
		b2, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("codec: truncated stuffing escape: %w", err)
		}
		switch b2 {
		case 0xff:
			out = append(out, 0x00)
		case 0x00:
			return out, nil
		default:
			return nil, fmt.Errorf("codec: invalid stuffing escape 0x%02x", b2)
		}
	}
}

func skipStuffed(r *bytes.Reader) error {
	_, err := unstuff(r)
	return err
}

// EncodeString writes v's UTF-8 bytes with 0x00-stuffing.
func EncodeString(buf *bytes.Buffer, v string) { stuff(buf, []byte(v)) }

func DecodeString(r *bytes.Reader) (string, error) {
	b, err := unstuff(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type codecString struct{}

// String is the Codec for UTF-8 text.
var String Codec = codecString{}

func (codecString) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeString(buf, v.(string))
	return nil
}
func (codecString) Decode(r *bytes.Reader) (interface{}, error) { return DecodeString(r) }
func (codecString) Skip(r *bytes.Reader) error                  { return skipStuffed(r) }
func (codecString) HasPrefix0x00() bool                         { return true }
func (codecString) HasPrefix0xff() bool                         { return false }

// EncodeBytes writes v with 0x00-stuffing, same scheme as EncodeString.
func EncodeBytes(buf *bytes.Buffer, v []byte) { stuff(buf, v) }

func DecodeBytes(r *bytes.Reader) ([]byte, error) { return unstuff(r) }

type codecBytes struct{}

// Bytes is the Codec for arbitrary byte slices.
var Bytes Codec = codecBytes{}

func (codecBytes) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeBytes(buf, v.([]byte))
	return nil
}
func (codecBytes) Decode(r *bytes.Reader) (interface{}, error) { return DecodeBytes(r) }
func (codecBytes) Skip(r *bytes.Reader) error                  { return skipStuffed(r) }
func (codecBytes) HasPrefix0x00() bool                         { return true }
func (codecBytes) HasPrefix0xff() bool                         { return false }
