package nbt

import (
	"fmt"
	"math"
	"sort"
)

// MarshalAnonymous encodes a value in the unnamed network form:
// type byte directly followed by the payload.
func MarshalAnonymous(v any) ([]byte, error) {
	t, err := typeOf(v)
	if err != nil {
		return nil, err
	}
	b := []byte{byte(t)}
	return appendValue(b, v)
}

// Marshal encodes a named top-level tag.
func Marshal(name string, v any) ([]byte, error) {
	t, err := typeOf(v)
	if err != nil {
		return nil, err
	}
	b := []byte{byte(t)}
	b = appendUint16(b, uint16(len(name)))
	b = append(b, name...)
	return appendValue(b, v)
}

func typeOf(v any) (TagType, error) {
	switch v.(type) {
	case int8:
		return TagByte, nil
	case int16:
		return TagShort, nil
	case int32:
		return TagInt, nil
	case int64:
		return TagLong, nil
	case float32:
		return TagFloat, nil
	case float64:
		return TagDouble, nil
	case []byte:
		return TagByteArray, nil
	case string:
		return TagString, nil
	case []any:
		return TagList, nil
	case Compound, map[string]any:
		return TagCompound, nil
	case []int32:
		return TagIntArray, nil
	case []int64:
		return TagLongArray, nil
	}
	return TagEnd, fmt.Errorf("nbt: cannot encode value of type %T", v)
}

func appendValue(b []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case int8:
		return append(b, byte(val)), nil
	case int16:
		return appendUint16(b, uint16(val)), nil
	case int32:
		return appendUint32(b, uint32(val)), nil
	case int64:
		return appendUint64(b, uint64(val)), nil
	case float32:
		return appendUint32(b, math.Float32bits(val)), nil
	case float64:
		return appendUint64(b, math.Float64bits(val)), nil
	case []byte:
		b = appendUint32(b, uint32(len(val)))
		return append(b, val...), nil
	case string:
		b = appendUint16(b, uint16(len(val)))
		return append(b, val...), nil
	case []any:
		elemType := TagEnd
		if len(val) > 0 {
			var err error
			elemType, err = typeOf(val[0])
			if err != nil {
				return nil, err
			}
		}
		b = append(b, byte(elemType))
		b = appendUint32(b, uint32(len(val)))
		var err error
		for _, e := range val {
			t, terr := typeOf(e)
			if terr != nil {
				return nil, terr
			}
			if t != elemType {
				return nil, fmt.Errorf("nbt: list elements must share one type, got %s and %s", elemType, t)
			}
			b, err = appendValue(b, e)
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	case Compound:
		return appendCompound(b, val)
	case map[string]any:
		return appendCompound(b, val)
	case []int32:
		b = appendUint32(b, uint32(len(val)))
		for _, e := range val {
			b = appendUint32(b, uint32(e))
		}
		return b, nil
	case []int64:
		b = appendUint32(b, uint32(len(val)))
		for _, e := range val {
			b = appendUint64(b, uint64(e))
		}
		return b, nil
	}
	return nil, fmt.Errorf("nbt: cannot encode value of type %T", v)
}

func appendCompound(b []byte, c map[string]any) ([]byte, error) {
	// stable order, useful for tests and reproducible payloads
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t, err := typeOf(c[name])
		if err != nil {
			return nil, err
		}
		b = append(b, byte(t))
		b = appendUint16(b, uint16(len(name)))
		b = append(b, name...)
		b, err = appendValue(b, c[name])
		if err != nil {
			return nil, err
		}
	}
	return append(b, byte(TagEnd)), nil
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendUint32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint64(b []byte, v uint64) []byte {
	return append(b, byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
