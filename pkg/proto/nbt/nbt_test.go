package nbt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_AllTagTypes(t *testing.T) {
	in := Compound{
		"byte":      int8(-5),
		"short":     int16(-30000),
		"int":       int32(123456789),
		"long":      int64(-9007199254740993),
		"float":     float32(1.5),
		"double":    float64(-2.25),
		"byteArray": []byte{0x00, 0x7F, 0xFF},
		"string":    "héllo world",
		"list":      []any{"a", "b", "c"},
		"compound":  Compound{"nested": int32(1)},
		"intArray":  []int32{-1, 0, 1},
		"longArray": []int64{-1, 0, 1 << 40},
	}

	b, err := Marshal("root", in)
	require.NoError(t, err)

	name, value, n, err := Parse(b)
	require.NoError(t, err)
	assert.Equal(t, "root", name)
	assert.Equal(t, len(b), n)
	assert.Equal(t, in, value)
}

func TestRoundTrip_Anonymous(t *testing.T) {
	in := Compound{"text": "hi", "bold": int8(1)}

	b, err := MarshalAnonymous(in)
	require.NoError(t, err)
	// unnamed form: type byte directly followed by the payload
	assert.Equal(t, byte(TagCompound), b[0])
	assert.Equal(t, byte(TagByte), b[1]) // no name between type and first entry

	value, n, err := ParseAnonymous(b)
	require.NoError(t, err)
	assert.Equal(t, len(b), n)
	assert.Equal(t, in, value)
}

func TestMarshal_KnownBytes(t *testing.T) {
	b, err := Marshal("hello world", Compound{"name": "Bananrama"})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x0a, // TAG_Compound
		0x00, 0x0b, 'h', 'e', 'l', 'l', 'o', ' ', 'w', 'o', 'r', 'l', 'd',
		0x08, // TAG_String
		0x00, 0x04, 'n', 'a', 'm', 'e',
		0x00, 0x09, 'B', 'a', 'n', 'a', 'n', 'r', 'a', 'm', 'a',
		0x00, // TAG_End
	}, b)
}

func TestMarshal_CompoundKeyOrderIsStable(t *testing.T) {
	c := Compound{"b": int8(2), "a": int8(1), "c": int8(3)}
	first, err := MarshalAnonymous(c)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalAnonymous(c)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParse_ConsumedBytes(t *testing.T) {
	b, err := MarshalAnonymous(Compound{"n": int32(7)})
	require.NoError(t, err)
	trailing := append(append([]byte{}, b...), 0xDE, 0xAD)

	value, n, err := ParseAnonymous(trailing)
	require.NoError(t, err)
	assert.Equal(t, len(b), n, "must not consume bytes past the tag")
	assert.Equal(t, Compound{"n": int32(7)}, value)
}

func TestParse_UnknownTagType(t *testing.T) {
	// compound containing an entry with invalid type byte 0x0D
	in := []byte{
		0x0a, 0x00, 0x00, // unnamed compound
		0x0d, 0x00, 0x01, 'x',
		0x00,
	}
	_, _, _, err := Parse(in)
	require.Error(t, err)
	var unknownErr *UnknownTagTypeError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, byte(0x0d), unknownErr.Type)
	assert.Equal(t, 3, unknownErr.Offset)
}

func TestParse_ListOfEndWithElements(t *testing.T) {
	// TAG_End element type is only valid for empty lists
	in := []byte{
		0x09,                   // unnamed list
		0x00,                   // elem type TAG_End
		0x00, 0x00, 0x00, 0x02, // length 2
		0x00, 0x00, // filler so the length passes the bounds check
	}
	_, _, err := ParseAnonymous(in)
	var unknownErr *UnknownTagTypeError
	require.ErrorAs(t, err, &unknownErr)
}

func TestParse_EmptyListOfEnd(t *testing.T) {
	in := []byte{0x09, 0x00, 0x00, 0x00, 0x00, 0x00}
	value, n, err := ParseAnonymous(in)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	assert.Equal(t, []any{}, value)
}

func TestParse_ShortInput(t *testing.T) {
	full, err := Marshal("root", Compound{"s": "some longer string value"})
	require.NoError(t, err)
	for i := 1; i < len(full); i++ {
		_, _, _, err := Parse(full[:i])
		assert.Error(t, err, "truncated at %d bytes", i)
	}
}

func TestParse_NegativeLength(t *testing.T) {
	in := []byte{
		0x07,                   // unnamed byte array
		0xFF, 0xFF, 0xFF, 0xFF, // length -1
	}
	_, _, err := ParseAnonymous(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative length")
}

func TestParse_OversizedLength(t *testing.T) {
	// claims 2^30 ints but provides none, must not allocate and fail cleanly
	in := []byte{0x0b, 0x40, 0x00, 0x00, 0x00}
	_, _, err := ParseAnonymous(in)
	assert.ErrorIs(t, err, ErrShortInput)
}

func TestParse_DepthLimit(t *testing.T) {
	const levels = MaxDepth + 10
	var b []byte
	b = append(b, byte(TagCompound)) // unnamed root
	for i := 1; i < levels; i++ {
		b = append(b, byte(TagCompound), 0x00, 0x00)
	}
	for i := 0; i < levels; i++ {
		b = append(b, byte(TagEnd))
	}
	_, _, err := ParseAnonymous(b)
	assert.ErrorIs(t, err, ErrDepthLimit)
}

func TestParse_DeepButWithinLimit(t *testing.T) {
	const levels = 100
	var b []byte
	b = append(b, byte(TagCompound))
	for i := 1; i < levels; i++ {
		b = append(b, byte(TagCompound), 0x00, 0x01, 'c')
	}
	for i := 0; i < levels; i++ {
		b = append(b, byte(TagEnd))
	}
	value, _, err := ParseAnonymous(b)
	require.NoError(t, err)
	c, ok := value.(Compound)
	require.True(t, ok)
	for i := 1; i < levels; i++ {
		c, ok = c["c"].(Compound)
		require.True(t, ok, "level %d", i)
	}
	assert.Empty(t, c)
}

func TestParse_EmptyInput(t *testing.T) {
	_, _, _, err := Parse(nil)
	assert.ErrorIs(t, err, ErrShortInput)
	_, _, err = ParseAnonymous(nil)
	assert.ErrorIs(t, err, ErrShortInput)
}

func TestMarshal_UnsupportedType(t *testing.T) {
	_, err := MarshalAnonymous(uint8(1))
	require.Error(t, err)
	_, err = MarshalAnonymous(Compound{"ch": make(chan int)})
	require.Error(t, err)
}

func TestMarshal_MixedList(t *testing.T) {
	_, err := MarshalAnonymous([]any{int8(1), "two"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrShortInput))
}
