package util

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.craftchat.dev/craftchat/pkg/profile"
	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

func TestReadVarInt(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		data    []byte
		wantVal int
		wantErr error
	}{
		{name: "single byte", data: []byte{0x01}, wantVal: 1},
		{name: "two bytes", data: []byte{0xAC, 0x02}, wantVal: 300},
		{name: "zero", data: []byte{0x00}, wantVal: 0},
		{
			name:    "max varint",
			data:    []byte{0xff, 0xff, 0xff, 0xff, 0x07},
			wantVal: math.MaxInt32,
		},
		{
			name:    "min varint",
			data:    []byte{0x80, 0x80, 0x80, 0x80, 0x08},
			wantVal: math.MinInt32,
		},
		{
			name:    "negative one",
			data:    []byte{0xff, 0xff, 0xff, 0xff, 0x0f},
			wantVal: -1,
		},
		{
			name:    "varint too big",
			data:    []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01},
			wantErr: ErrVarIntTooBig,
		},
		{
			name:    "empty buffer",
			data:    []byte{},
			wantErr: io.EOF,
		},
		{
			name:    "incomplete varint",
			data:    []byte{0xff}, // missing subsequent bytes
			wantErr: io.EOF,
		},
		{
			name:    "valid 5 byte varint",
			data:    []byte{0x80, 0x80, 0x80, 0x80, 0x01},
			wantVal: 268435456,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := bytes.NewBuffer(tc.data)
			gotVal, gotErr := ReadVarInt(buf)

			if tc.wantErr != nil {
				require.ErrorIs(t, gotErr, tc.wantErr)
			} else {
				require.NoError(t, gotErr)
				require.Equal(t, tc.wantVal, gotVal)
			}
		})
	}
}

// Negative values must shift with zero-fill so they always serialize
// as the 5-byte unsigned-extended form.
func TestVarIntNegativeValues(t *testing.T) {
	testCases := []int{
		-256,
		-1,
		0,
		127,
		128,
		math.MaxInt32,
		math.MinInt32,
	}

	for _, testValue := range testCases {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, testValue))
		readValue, err := ReadVarInt(&buf)
		require.NoError(t, err)
		require.Equal(t, testValue, readValue, "wrote %d, read %d", testValue, readValue)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVarInt(&buf, -256))
	require.Equal(t, []byte{128, 254, 255, 255, 15}, buf.Bytes())
}

func TestVarIntBytes(t *testing.T) {
	assert.Equal(t, 1, VarIntBytes(0))
	assert.Equal(t, 1, VarIntBytes(1))
	assert.Equal(t, 5, VarIntBytes(-1))
	assert.Equal(t, 5, VarIntBytes(math.MinInt32))

	// consistency across all bit boundaries
	for bit := 0; bit <= 31; bit++ {
		number := (1 << bit) - 1

		var buf bytes.Buffer
		n, err := WriteVarIntN(&buf, number)
		require.NoError(t, err)
		assert.Equal(t, buf.Len(), n)
		assert.Equal(t, buf.Len(), VarIntBytes(number), "bit %d", bit)
		assert.Equal(t, buf.Bytes(), AppendVarInt(nil, number), "bit %d", bit)

		readValue, err := ReadVarInt(&buf)
		require.NoError(t, err)
		assert.Equal(t, number, readValue)
	}
}

func TestReadVarIntReturnN(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		expectedVal int
		expectedN   int
		wantErr     error
	}{
		{
			name:        "single byte varint",
			input:       []byte{0x01},
			expectedVal: 1,
			expectedN:   1,
		},
		{
			name:        "multi-byte varint (150)",
			input:       []byte{0x96, 0x01},
			expectedVal: 150,
			expectedN:   2,
		},
		{
			name:        "max varint value",
			input:       []byte{0xff, 0xff, 0xff, 0xff, 0x07},
			expectedVal: math.MaxInt32,
			expectedN:   5,
		},
		{
			name:      "varint too large",
			input:     []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01},
			expectedN: 5, // stops after 5 bytes, leaves the rest unread
			wantErr:   ErrVarIntTooBig,
		},
		{
			name:      "incomplete varint",
			input:     []byte{0x96},
			expectedN: 1,
			wantErr:   io.EOF,
		},
		{
			name:        "zero value",
			input:       []byte{0x00},
			expectedVal: 0,
			expectedN:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bytes.NewBuffer(tt.input)
			val, n, err := ReadVarIntReturnN(buf)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.expectedVal, val)
			}
			require.Equal(t, tt.expectedN, n)
		})
	}
}

func TestString(t *testing.T) {
	b := new(bytes.Buffer)
	require.NoError(t, WriteString(b, "héllo wörld"))
	s, err := ReadString(b)
	require.NoError(t, err)
	require.Equal(t, "héllo wörld", s)
}

func TestStringMax(t *testing.T) {
	b := new(bytes.Buffer)
	require.NoError(t, WriteString(b, "too long for the limit"))
	_, err := ReadStringMax(b, 4)
	require.Error(t, err)
}

func TestBytes(t *testing.T) {
	b := new(bytes.Buffer)
	require.NoError(t, WriteBytes(b, []byte{1, 2, 3}))
	got, err := ReadBytes(b)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, got)

	b.Reset()
	require.NoError(t, WriteBytes(b, []byte{1, 2, 3, 4, 5}))
	_, err = ReadBytesLen(b, 4)
	require.Error(t, err)
}

func TestUTF(t *testing.T) {
	b := new(bytes.Buffer)
	require.NoError(t, WriteUTF(b, "test"))
	s, err := ReadUTF(b)
	require.NoError(t, err)
	require.Equal(t, "test", s)
}

func TestUTF16BE(t *testing.T) {
	b := new(bytes.Buffer)
	require.NoError(t, WriteUTF16BE(b, "§1"))
	// length prefix counts characters, not bytes
	require.Equal(t, []byte{0x00, 0x02, 0x00, 0xa7, 0x00, '1'}, b.Bytes())
	s, err := ReadUTF16BE(b)
	require.NoError(t, err)
	require.Equal(t, "§1", s)

	b.Reset()
	require.NoError(t, WriteUTF16BE(b, "A Minecraft Server"))
	s, err = ReadUTF16BE(b)
	require.NoError(t, err)
	require.Equal(t, "A Minecraft Server", s)
}

func TestUUID(t *testing.T) {
	t.Parallel()
	id := uuid.New()

	buf := new(bytes.Buffer)
	require.NoError(t, WriteUUID(buf, id))
	require.Equal(t, 16, buf.Len())

	readID, err := ReadUUID(buf)
	require.NoError(t, err)
	require.Equal(t, id, readID)
}

func TestProperties(t *testing.T) {
	props := []profile.Property{
		{Name: "textures", Value: "base64stuff", Signature: "signedbymojang"},
		{Name: "unsigned", Value: "x"},
	}

	buf := new(bytes.Buffer)
	require.NoError(t, WriteProperties(buf, props))
	got, err := ReadProperties(buf)
	require.NoError(t, err)
	require.Equal(t, props, got)
	require.Zero(t, buf.Len())
}

func FuzzReadVarInt(f *testing.F) {
	testCases := [][]byte{
		{0x01},
		{0xAC, 0x02},
		{0x00},
		{0xff, 0xff, 0xff, 0xff, 0x07},
		{0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, // too big
		{},                                   // empty
		{0xff},                               // incomplete
		{0x80, 0x80, 0x80, 0x80, 0x01},
	}
	for _, tc := range testCases {
		f.Add(tc)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		buf := bytes.NewBuffer(data)
		_, err := ReadVarInt(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, ErrVarIntTooBig) {
				t.Fatalf("unexpected error: %v for input %x", err, data)
			}
			return
		}
		if len(data) > 0 && buf.Len() == len(data) {
			t.Errorf("consumed no bytes from non-empty buffer")
		}
	})
}
