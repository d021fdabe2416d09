package codec

import (
	"bytes"
	"fmt"
)

// EncodeBool writes false as 0x00 and true as 0x01.
func EncodeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// DecodeBool rejects any byte other than 0x00/0x01.
func DecodeBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("codec: bool: %w", err)
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("codec: bool: invalid byte 0x%02x", b)
	}
}

type codecBool struct{}

// Bool is the Codec for boolean values.
var Bool Codec = codecBool{}

func (codecBool) Encode(buf *bytes.Buffer, v interface{}) error {
	EncodeBool(buf, v.(bool))
	return nil
}
func (codecBool) Decode(r *bytes.Reader) (interface{}, error) { return DecodeBool(r) }
func (codecBool) Skip(r *bytes.Reader) error {
	_, err := DecodeBool(r)
	return err
}
func (codecBool) HasPrefix0x00() bool { return true }
func (codecBool) HasPrefix0xff() bool { return false }
