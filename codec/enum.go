package codec

import "bytes"

// Enum builds a Codec that encodes a value's ordinal position (an int)
// within a fixed, ordered list of identifiers using the unsigned varint
// encoding. The identifier list itself is not part of the wire format and
// the codec never consults it; whether two enum versions agree on ordinals
// for identifiers present in both is not checked here (the field-type
// registry only records each enum's list, see fieldtype.Registry.EnumIdents).
func Enum() Codec { return enumCodec{} }

type enumCodec struct{}

func (enumCodec) Encode(buf *bytes.Buffer, v interface{}) error {
	ordinal, ok := v.(int)
	if !ok {
		EncodeUvarint(buf, uint64(v.(uint64)))
		return nil
	}
	EncodeUvarint(buf, uint64(ordinal))
	return nil
}

func (enumCodec) Decode(r *bytes.Reader) (interface{}, error) {
	ordinal, err := DecodeUvarint(r)
	if err != nil {
		return nil, err
	}
	return int(ordinal), nil
}

func (enumCodec) Skip(r *bytes.Reader) error { return SkipUvarint(r) }

func (enumCodec) HasPrefix0x00() bool { return true }
func (enumCodec) HasPrefix0xff() bool { return true }
