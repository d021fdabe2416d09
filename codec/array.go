package codec

import "bytes"

// Array builds a Codec for a []interface{} whose elements all encode with
// of. Each element is preceded by a 0x01 continuation byte; the sequence
// is terminated by 0x00. Because no element encoding may itself start with
// a byte lower than both markers without being ambiguous, elements are
// wrapped with NullSafe-style framing only when of itself starts with
// 0x00 or 0xff; Array does not impose that wrapping itself, callers
// composing through the field-type registry are responsible for choosing
// element encodings that cannot collide with the markers.
func Array(of Codec) Codec { return &arrayCodec{of: of} }

const (
	arrayContinue byte = 0x01
	arrayEnd      byte = 0x00
)

type arrayCodec struct{ of Codec }

func (c *arrayCodec) Encode(buf *bytes.Buffer, v interface{}) error {
	elems := v.([]interface{})
	for _, e := range elems {
		buf.WriteByte(arrayContinue)
		if err := c.of.Encode(buf, e); err != nil {
			return err
		}
	}
	buf.WriteByte(arrayEnd)
	return nil
}

func (c *arrayCodec) Decode(r *bytes.Reader) (interface{}, error) {
	var out []interface{}
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == arrayEnd {
			return out, nil
		}
		e, err := c.of.Decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func (c *arrayCodec) Skip(r *bytes.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b == arrayEnd {
			return nil
		}
		if err := c.of.Skip(r); err != nil {
			return err
		}
	}
}

func (c *arrayCodec) HasPrefix0x00() bool { return true }
func (c *arrayCodec) HasPrefix0xff() bool { return false }
