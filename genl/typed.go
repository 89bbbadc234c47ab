package genl

import (
	"bytes"
	"unicode/utf8"
	"unsafe"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/exp/constraints"
)

// A codec knows how a Go value is laid out in an attribute value.
type codec[T any] interface {
	valueLen(v T) int
	put(b []byte, v T)
	get(b []byte) (T, error)
}

// A Typed binds a semantic value type to one attribute tag.  Declaring
// a new attribute takes one line, e.g.
//
//	var familyIDAttr = Uint[FamilyID](CTRL_ATTR_FAMILY_ID)
type Typed[T any] struct {
	Type  uint16
	codec codec[T]
}

// Uint binds a fixed width unsigned integer type (native endian).
func Uint[T constraints.Unsigned](typ uint16) Typed[T] {
	return Typed[T]{Type: typ, codec: uintCodec[T]{}}
}

// String binds a string type encoded as raw bytes without a NUL
// terminator.
func String[T ~string](typ uint16) Typed[T] {
	return Typed[T]{Type: typ, codec: stringCodec[T]{}}
}

// NulString binds a string type encoded with a NUL terminator, as
// required by the kernel's NLA_NUL_STRING policy.  Decoding accepts
// the value with or without it.
func NulString[T ~string](typ uint16) Typed[T] {
	return Typed[T]{Type: typ, codec: stringCodec[T]{nul: true}}
}

func (t Typed[T]) ValueLen(v T) int {
	return t.codec.valueLen(v)
}

// Emit writes v into b, which is sized to the unpadded value length.
func (t Typed[T]) Emit(b []byte, v T) {
	t.codec.put(b, v)
}

// Attribute encodes v as a leaf attribute.
func (t Typed[T]) Attribute(v T) Attribute {
	b := make([]byte, t.codec.valueLen(v))
	t.codec.put(b, v)
	return Attribute{Type: t.Type, Value: b}
}

// Parse decodes the value of an already located attribute.
func (t Typed[T]) Parse(a Attribute) (T, error) {
	if a.Type != t.Type {
		var zero T
		return zero, decodeErrorf(ErrInvalidValue, "attribute %d (expected type %d)", a.Type, t.Type)
	}

	v, err := t.codec.get(a.Value)
	if err != nil {
		return v, decodeErrorf(err, "attribute %d", a.Type)
	}

	return v, nil
}

type uintCodec[T constraints.Unsigned] struct{}

func (uintCodec[T]) size() int {
	var v T
	return int(unsafe.Sizeof(v))
}

func (c uintCodec[T]) valueLen(T) int {
	return c.size()
}

func (c uintCodec[T]) put(b []byte, v T) {
	switch c.size() {
	case 1:
		b[0] = uint8(v)
	case 2:
		nlenc.PutUint16(b[:2], uint16(v))
	case 4:
		nlenc.PutUint32(b[:4], uint32(v))
	default:
		nlenc.PutUint64(b[:8], uint64(v))
	}
}

func (c uintCodec[T]) get(b []byte) (T, error) {
	if len(b) != c.size() {
		return 0, decodeErrorf(ErrInvalidValue, "%d byte integer has %d bytes", c.size(), len(b))
	}

	switch c.size() {
	case 1:
		return T(b[0]), nil
	case 2:
		return T(nlenc.Uint16(b)), nil
	case 4:
		return T(nlenc.Uint32(b)), nil
	default:
		return T(nlenc.Uint64(b)), nil
	}
}

type stringCodec[T ~string] struct {
	nul bool
}

func (c stringCodec[T]) valueLen(v T) int {
	if c.nul {
		return len(v) + 1
	}

	return len(v)
}

func (c stringCodec[T]) put(b []byte, v T) {
	n := copy(b, string(v))
	if c.nul {
		b[n] = 0
	}
}

// A single trailing NUL is dropped if present.  It is not required,
// even of a NulString: the terminator only matters to the kernel.
func (c stringCodec[T]) get(b []byte) (T, error) {
	b = bytes.TrimSuffix(b, []byte{0})
	if !utf8.Valid(b) {
		return "", decodeErrorf(ErrInvalidValue, "string is not valid UTF-8")
	}

	return T(b), nil
}
