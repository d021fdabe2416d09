// Package codec is the order-preserving byte codec library: for every
// value type it supports it provides Encode/Decode/Skip plus the two
// sentinel-collision flags (HasPrefix0x00, HasPrefix0xff) needed to prove a
// key range built from these encodings never collides with a 0x00 or 0xff
// sentinel, and that "next prefix" math is safe on its last component.
//
// The overriding invariant (I2/I3 in the specification this module
// implements) is that for every encoder E and values a, b of its type:
//
//	bytes.Compare(E.Encode(a), E.Encode(b)) == logicalCompare(a, b)
//	E.Decode(E.Encode(v)) == v
//	E.Skip leaves the reader exactly where Decode would
//
// Variable-length integers use a length-prefixed scheme (the first byte(s)
// self-describe how many further bytes follow) so that byte-length never
// has to be guessed and so shorter encodings always sort before longer
// ones representing larger magnitudes.
package codec
