package codec

import "bytes"

// NullSafe wraps of so that a null value always sorts first: 0x00 for null,
// 0x01 followed by of's encoding for a present value.
func NullSafe(of Codec) Codec { return &nullSafeCodec{of: of} }

type nullSafeCodec struct{ of Codec }

// nullMarker is the sentinel interface{} value NullSafe codecs use to
// represent "no value" without colliding with a real zero value of the
// wrapped type.
type nullMarker struct{}

// Null is the value NullSafe.Encode/Decode uses to represent absence.
var Null = nullMarker{}

func (c *nullSafeCodec) Encode(buf *bytes.Buffer, v interface{}) error {
	if _, isNull := v.(nullMarker); isNull || v == nil {
		buf.WriteByte(0x00)
		return nil
	}
	buf.WriteByte(0x01)
	return c.of.Encode(buf, v)
}

func (c *nullSafeCodec) Decode(r *bytes.Reader) (interface{}, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if b == 0x00 {
		return Null, nil
	}
	return c.of.Decode(r)
}

func (c *nullSafeCodec) Skip(r *bytes.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	if b == 0x00 {
		return nil
	}
	return c.of.Skip(r)
}

func (c *nullSafeCodec) HasPrefix0x00() bool { return true }
func (c *nullSafeCodec) HasPrefix0xff() bool { return false }
