package genl

import (
	"fmt"
	"math"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

// The flag bits sharing the type field of an attribute header.
const nlaTypeMask = ^uint16(unix.NLA_F_NESTED | unix.NLA_F_NET_BYTEORDER)

// Align rounds n up to the netlink attribute alignment.
func Align(n int) int {
	return (n + unix.NLA_ALIGNTO - 1) & -unix.NLA_ALIGNTO
}

// An Attribute is one netlink TLV.  A leaf attribute carries its raw
// value in Value.  An attribute built with Nest carries a list of
// child attributes instead, and Value is ignored when emitting it.
//
// Parsed attributes are always leaves: use Children to descend into
// a nested value.
type Attribute struct {
	Type   uint16
	Value  []byte
	Nested []Attribute

	nested bool
}

// Nest builds an attribute whose value is the given list of attributes.
func Nest(typ uint16, children ...Attribute) Attribute {
	return Attribute{Type: typ, Nested: children, nested: true}
}

func (a Attribute) IsNested() bool {
	return a.nested
}

// ValueLen is the unpadded length of the attribute value.  For a
// nested attribute this includes the padding of every child, since
// the kernel expects the enclosing length to cover it.
func (a Attribute) ValueLen() int {
	if a.nested {
		return attrsLen(a.Nested)
	}

	return len(a.Value)
}

// EncodedLen is the on-wire footprint of the attribute: header plus
// value, padded to the attribute alignment.
func (a Attribute) EncodedLen() int {
	return unix.NLA_HDRLEN + Align(a.ValueLen())
}

func attrsLen(attrs []Attribute) int {
	l := 0
	for _, a := range attrs {
		l += a.EncodedLen()
	}
	return l
}

// Emit writes the attribute to the start of b, which must hold at
// least the header and unpadded value.  Padding is never written;
// callers hand in zeroed buffers.  An attribute whose length does not
// fit the 16 bit length field is rejected with ErrAttributeTooLong.
func (a Attribute) Emit(b []byte) error {
	l := unix.NLA_HDRLEN + a.ValueLen()
	if l > math.MaxUint16 {
		return fmt.Errorf("attribute %d (%d bytes): %w", a.Type, l, ErrAttributeTooLong)
	}

	nlenc.PutUint16(b[0:2], uint16(l))
	nlenc.PutUint16(b[2:4], a.Type)

	if !a.nested {
		copy(b[unix.NLA_HDRLEN:l], a.Value)
		return nil
	}

	return emitAttributes(b[unix.NLA_HDRLEN:], a.Nested)
}

// EncodeAttributes lays out a list of sibling attributes, each at its
// own aligned offset.
func EncodeAttributes(attrs []Attribute) ([]byte, error) {
	b := make([]byte, attrsLen(attrs))
	if err := emitAttributes(b, attrs); err != nil {
		return nil, err
	}

	return b, nil
}

func emitAttributes(b []byte, attrs []Attribute) error {
	pos := 0
	for _, a := range attrs {
		if err := a.Emit(b[pos:]); err != nil {
			return err
		}
		pos += a.EncodedLen()
	}

	return nil
}

// ParseAttribute parses the attribute at the start of b.  It returns
// the attribute and the number of bytes it occupies including
// alignment padding, clamped to len(b) since the padding of a final
// attribute may be absent.
func ParseAttribute(b []byte) (Attribute, int, error) {
	if len(b) < unix.NLA_HDRLEN {
		return Attribute{}, 0, truncatedf("attribute header (have %d bytes, expected %d)", len(b), unix.NLA_HDRLEN)
	}

	l := int(nlenc.Uint16(b[0:2]))
	typ := nlenc.Uint16(b[2:4]) & nlaTypeMask

	if l < unix.NLA_HDRLEN {
		return Attribute{}, 0, truncatedf("attribute %d (length %d shorter than header)", typ, l)
	}

	if l > len(b) {
		return Attribute{}, 0, truncatedf("attribute %d (have %d bytes, expected %d)", typ, len(b), l)
	}

	n := Align(l)
	if n > len(b) {
		n = len(b)
	}

	return Attribute{Type: typ, Value: b[unix.NLA_HDRLEN:l]}, n, nil
}

// ParseAttributes parses a concatenation of sibling attributes.
func ParseAttributes(b []byte) ([]Attribute, error) {
	var attrs []Attribute
	for len(b) > 0 {
		a, n, err := ParseAttribute(b)
		if err != nil {
			return nil, err
		}

		attrs = append(attrs, a)
		b = b[n:]
	}

	return attrs, nil
}

// Children parses the value of the attribute as a nested list.
func (a Attribute) Children() ([]Attribute, error) {
	if a.nested {
		return a.Nested, nil
	}

	return ParseAttributes(a.Value)
}
