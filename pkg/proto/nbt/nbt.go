// Package nbt decodes the named binary tag format used for structured
// payloads of the Minecraft Java protocol (network components, registry
// data, disconnect reasons since 1.20.3).
//
// Decoded values map to Go types as follows:
//
//	TagByte       int8
//	TagShort      int16
//	TagInt        int32
//	TagLong       int64
//	TagFloat      float32
//	TagDouble     float64
//	TagByteArray  []byte
//	TagString     string
//	TagList       []any
//	TagCompound   Compound
//	TagIntArray   []int32
//	TagLongArray  []int64
package nbt

import (
	"errors"
	"fmt"
	"math"
)

// TagType is the 1-byte type id of a tag.
type TagType byte

const (
	TagEnd TagType = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)

func (t TagType) String() string {
	switch t {
	case TagEnd:
		return "TAG_End"
	case TagByte:
		return "TAG_Byte"
	case TagShort:
		return "TAG_Short"
	case TagInt:
		return "TAG_Int"
	case TagLong:
		return "TAG_Long"
	case TagFloat:
		return "TAG_Float"
	case TagDouble:
		return "TAG_Double"
	case TagByteArray:
		return "TAG_Byte_Array"
	case TagString:
		return "TAG_String"
	case TagList:
		return "TAG_List"
	case TagCompound:
		return "TAG_Compound"
	case TagIntArray:
		return "TAG_Int_Array"
	case TagLongArray:
		return "TAG_Long_Array"
	}
	return fmt.Sprintf("TAG_Unknown(%d)", byte(t))
}

// Compound is a decoded TagCompound.
type Compound map[string]any

// UnknownTagTypeError is returned when an unrecognized tag type byte is
// encountered.
type UnknownTagTypeError struct {
	Type   byte
	Offset int
}

func (e *UnknownTagTypeError) Error() string {
	return fmt.Sprintf("nbt: unknown tag type %d at offset %d", e.Type, e.Offset)
}

// MaxDepth bounds list/compound nesting so corrupt or hostile input
// cannot exhaust the stack.
const MaxDepth = 512

var (
	// ErrDepthLimit is returned when input nests deeper than MaxDepth.
	ErrDepthLimit = errors.New("nbt: depth limit exceeded")
	// ErrShortInput is returned when the input ends inside a tag.
	ErrShortInput = errors.New("nbt: unexpected end of input")
)

// Parse decodes a top-level named tag, usually a compound, returning its
// name, value and the number of bytes consumed.
func Parse(b []byte) (name string, value any, n int, err error) {
	d := &decoder{buf: b}
	name, value, err = d.readNamedTag(0)
	return name, value, d.off, err
}

// ParseAnonymous decodes a single unnamed value: a type byte directly
// followed by the payload, no name. This is the network NBT form used
// for chat components since 1.20.2.
func ParseAnonymous(b []byte) (value any, n int, err error) {
	d := &decoder{buf: b}
	t, err := d.readByte()
	if err != nil {
		return nil, d.off, err
	}
	value, err = d.readValue(TagType(t), 0)
	return value, d.off, err
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) readNamedTag(depth int) (name string, value any, err error) {
	t, err := d.readByte()
	if err != nil {
		return "", nil, err
	}
	typ := TagType(t)
	if typ == TagEnd {
		return "", nil, nil
	}
	name, err = d.readName()
	if err != nil {
		return "", nil, err
	}
	value, err = d.readValue(typ, depth)
	return name, value, err
}

// Tag names use a 2-byte big-endian length followed by modified UTF-8
// bytes, which are passed through verbatim.
func (d *decoder) readName() (string, error) {
	n, err := d.readUint16()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *decoder) readValue(t TagType, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, ErrDepthLimit
	}
	switch t {
	case TagByte:
		b, err := d.readByte()
		return int8(b), err
	case TagShort:
		v, err := d.readUint16()
		return int16(v), err
	case TagInt:
		v, err := d.readUint32()
		return int32(v), err
	case TagLong:
		v, err := d.readUint64()
		return int64(v), err
	case TagFloat:
		v, err := d.readUint32()
		return math.Float32frombits(v), err
	case TagDouble:
		v, err := d.readUint64()
		return math.Float64frombits(v), err
	case TagByteArray:
		length, err := d.readInt32Len()
		if err != nil {
			return nil, err
		}
		b, err := d.take(length)
		if err != nil {
			return nil, err
		}
		out := make([]byte, length)
		copy(out, b)
		return out, nil
	case TagString:
		n, err := d.readUint16()
		if err != nil {
			return nil, err
		}
		b, err := d.take(int(n))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case TagList:
		elem, err := d.readByte()
		if err != nil {
			return nil, err
		}
		length, err := d.readInt32Len()
		if err != nil {
			return nil, err
		}
		elemType := TagType(elem)
		if elemType == TagEnd && length > 0 {
			return nil, &UnknownTagTypeError{Type: elem, Offset: d.off - 5}
		}
		list := make([]any, 0, min(length, 1024))
		for i := 0; i < length; i++ {
			v, err := d.readValue(elemType, depth+1)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case TagCompound:
		c := Compound{}
		for {
			if len(d.buf) == d.off {
				return nil, ErrShortInput
			}
			if TagType(d.buf[d.off]) == TagEnd {
				d.off++
				return c, nil
			}
			name, value, err := d.readNamedTagTyped(depth + 1)
			if err != nil {
				return nil, err
			}
			c[name] = value
		}
	case TagIntArray:
		length, err := d.readInt32Len()
		if err != nil {
			return nil, err
		}
		a := make([]int32, length)
		for i := range a {
			v, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			a[i] = int32(v)
		}
		return a, nil
	case TagLongArray:
		length, err := d.readInt32Len()
		if err != nil {
			return nil, err
		}
		a := make([]int64, length)
		for i := range a {
			v, err := d.readUint64()
			if err != nil {
				return nil, err
			}
			a[i] = int64(v)
		}
		return a, nil
	}
	return nil, &UnknownTagTypeError{Type: byte(t), Offset: d.off - 1}
}

// like readNamedTag but rejects unknown type bytes with their offset
func (d *decoder) readNamedTagTyped(depth int) (string, any, error) {
	off := d.off
	t, err := d.readByte()
	if err != nil {
		return "", nil, err
	}
	typ := TagType(t)
	if typ > TagLongArray {
		return "", nil, &UnknownTagTypeError{Type: t, Offset: off}
	}
	name, err := d.readName()
	if err != nil {
		return "", nil, err
	}
	value, err := d.readValue(typ, depth)
	return name, value, err
}

func (d *decoder) readInt32Len() (int, error) {
	v, err := d.readUint32()
	if err != nil {
		return 0, err
	}
	length := int(int32(v))
	if length < 0 {
		return 0, fmt.Errorf("nbt: negative length %d at offset %d", length, d.off-4)
	}
	if length > len(d.buf)-d.off {
		return 0, ErrShortInput
	}
	return length, nil
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || n > len(d.buf)-d.off {
		return nil, ErrShortInput
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *decoder) readByte() (byte, error) {
	if d.off >= len(d.buf) {
		return 0, ErrShortInput
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) readUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (d *decoder) readUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

func (d *decoder) readUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7]), nil
}
