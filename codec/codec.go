package codec

import "bytes"

// Codec is the uniform interface every value-type encoder in this package
// implements: encode, decode, skip (positionally equivalent to decode but
// without allocating the decoded value), and the two flags a composite key
// builder needs to reason about sentinel collisions and "next prefix"
// range math.
type Codec interface {
	// Encode appends the order-preserving encoding of v to buf.
	Encode(buf *bytes.Buffer, v interface{}) error
	// Decode reads one value from r, advancing it past the encoding.
	Decode(r *bytes.Reader) (interface{}, error)
	// Skip advances r past one encoded value without decoding it.
	Skip(r *bytes.Reader) error
	// HasPrefix0x00 reports whether some encoding produced by this codec
	// can legally start with the byte 0x00.
	HasPrefix0x00() bool
	// HasPrefix0xff reports whether some encoding produced by this codec
	// can legally start with the byte 0xff. A codec used as the last
	// component of a key range whose upper bound is computed via
	// "increment the last byte" must answer false here.
	HasPrefix0xff() bool
}

// Encode is a convenience that encodes v with c into a fresh byte slice.
func Encode(c Codec, v interface{}) []byte {
	var buf bytes.Buffer
	if err := c.Encode(&buf, v); err != nil {
		panic(err) // encoders only fail on type mismatch, a caller bug
	}
	return buf.Bytes()
}

// Decode is a convenience that decodes exactly one value of c from b,
// erroring if b has trailing bytes left over.
func Decode(c Codec, b []byte) (interface{}, error) {
	r := bytes.NewReader(b)
	v, err := c.Decode(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errTrailing
	}
	return v, nil
}

var errTrailing = trailingBytesError{}

type trailingBytesError struct{}

func (trailingBytesError) Error() string { return "codec: trailing bytes after decode" }
