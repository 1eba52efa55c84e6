// Package codec encodes canopy records: an id, an observation count and a
// tagged array of fixed-width primitives. The wire format is big-endian:
//
//	int32   id
//	int64   observations
//	uint16  tag length, then the tag bytes ("boolean", "byte", "char",
//	        "short", "int", "long", "float", "double")
//	int32   element count
//	...     elements, each at its fixed width
package codec

import (
	"math"

	"github.com/teranos/canopy/errors"
)

// ElementKind enumerates the supported element widths
type ElementKind uint8

const (
	KindInvalid ElementKind = iota
	KindBool
	KindByte
	KindChar
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
)

var kindTags = map[ElementKind]string{
	KindBool:   "boolean",
	KindByte:   "byte",
	KindChar:   "char",
	KindShort:  "short",
	KindInt:    "int",
	KindLong:   "long",
	KindFloat:  "float",
	KindDouble: "double",
}

var tagKinds = func() map[string]ElementKind {
	m := make(map[string]ElementKind, len(kindTags))
	for k, tag := range kindTags {
		m[tag] = k
	}
	return m
}()

func (k ElementKind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "invalid"
}

// ParseElementKind resolves a wire tag
func ParseElementKind(tag string) (ElementKind, error) {
	if k, ok := tagKinds[tag]; ok {
		return k, nil
	}
	return KindInvalid, errors.NewCodecErrorf("unsupported element type %q", tag)
}

// Width returns the encoded size of one element in bytes
func (k ElementKind) Width() int {
	switch k {
	case KindBool, KindByte:
		return 1
	case KindChar, KindShort:
		return 2
	case KindInt, KindFloat:
		return 4
	case KindLong, KindDouble:
		return 8
	default:
		return 0
	}
}

// Array is one of the concrete array types below. The set is closed.
type Array interface {
	Kind() ElementKind
	Len() int
	sealed()
}

type (
	BoolArray   []bool
	ByteArray   []int8
	CharArray   []uint16
	ShortArray  []int16
	IntArray    []int32
	LongArray   []int64
	FloatArray  []float32
	DoubleArray []float64
)

func (BoolArray) Kind() ElementKind   { return KindBool }
func (ByteArray) Kind() ElementKind   { return KindByte }
func (CharArray) Kind() ElementKind   { return KindChar }
func (ShortArray) Kind() ElementKind  { return KindShort }
func (IntArray) Kind() ElementKind    { return KindInt }
func (LongArray) Kind() ElementKind   { return KindLong }
func (FloatArray) Kind() ElementKind  { return KindFloat }
func (DoubleArray) Kind() ElementKind { return KindDouble }

func (a BoolArray) Len() int   { return len(a) }
func (a ByteArray) Len() int   { return len(a) }
func (a CharArray) Len() int   { return len(a) }
func (a ShortArray) Len() int  { return len(a) }
func (a IntArray) Len() int    { return len(a) }
func (a LongArray) Len() int   { return len(a) }
func (a FloatArray) Len() int  { return len(a) }
func (a DoubleArray) Len() int { return len(a) }

func (BoolArray) sealed()   {}
func (ByteArray) sealed()   {}
func (CharArray) sealed()   {}
func (ShortArray) sealed()  {}
func (IntArray) sealed()    {}
func (LongArray) sealed()   {}
func (FloatArray) sealed()  {}
func (DoubleArray) sealed() {}

// AsInt32s converts an integral array to int32 values. Floating point,
// boolean and out-of-range long values are rejected.
func AsInt32s(a Array) ([]int32, error) {
	switch v := a.(type) {
	case IntArray:
		return []int32(v), nil
	case ByteArray:
		out := make([]int32, len(v))
		for i, x := range v {
			out[i] = int32(x)
		}
		return out, nil
	case CharArray:
		out := make([]int32, len(v))
		for i, x := range v {
			out[i] = int32(x)
		}
		return out, nil
	case ShortArray:
		out := make([]int32, len(v))
		for i, x := range v {
			out[i] = int32(x)
		}
		return out, nil
	case LongArray:
		out := make([]int32, len(v))
		for i, x := range v {
			if x < math.MinInt32 || x > math.MaxInt32 {
				return nil, errors.NewCodecErrorf("element %d (%d) overflows int32", i, x)
			}
			out[i] = int32(x)
		}
		return out, nil
	case nil:
		return nil, errors.NewCodecErrorf("nil array")
	default:
		return nil, errors.NewCodecErrorf("%s array is not integral", a.Kind())
	}
}
