// Package util implements the primitive wire codec of the Minecraft Java
// protocol: VarInts, length-prefixed strings and byte arrays, big-endian
// fixed-width fields and the legacy Java-UTF forms.
package util

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

// ErrVarIntTooBig is returned when a VarInt uses more than 5 bytes.
var ErrVarIntTooBig = errors.New("decode: VarInt is too big")

func ReadString(rd io.Reader) (string, error) {
	return ReadStringMax(rd, bufio.MaxScanTokenSize)
}

func ReadStringMax(rd io.Reader, max int) (string, error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return "", err
	}
	return readStringMax(rd, max, length)
}

func readStringMax(rd io.Reader, max, length int) (string, error) {
	if length < 0 {
		return "", errors.New("length of string must not be negative")
	}
	if length > max*4 { // *4 since an UTF8 character has up to 4 bytes
		return "", fmt.Errorf("bad string length (got %d, max. %d)", length, max)
	}
	str := make([]byte, length)
	_, err := io.ReadFull(rd, str)
	if err != nil {
		return "", err
	}
	return string(str), nil
}

func ReadBytes(rd io.Reader) ([]byte, error) {
	return ReadBytesLen(rd, bufio.MaxScanTokenSize)
}

func ReadBytesLen(rd io.Reader, maxLength int) (bytes []byte, err error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return
	}
	if length < 0 {
		err = fmt.Errorf("decode: bytes length is < 0: %d", length)
		return
	}
	if length > maxLength {
		err = fmt.Errorf("decode: bytes length %d is above given maximum: %d", length, maxLength)
		return
	}
	bytes = make([]byte, length)
	_, err = io.ReadFull(rd, bytes)
	return
}

// ReadRawBytes reads all remaining bytes without a length prefix.
func ReadRawBytes(rd io.Reader) ([]byte, error) {
	return io.ReadAll(rd)
}

// ReadVarInt reads a variable length 32-bit integer: 7 bits per byte,
// high bit set while more bytes follow, at most 5 bytes.
func ReadVarInt(r io.Reader) (result int, err error) {
	var n uint32
	for i := 0; ; i++ {
		sec, err := ReadUint8(r)
		if err != nil {
			return 0, err
		}

		n |= uint32(sec&0x7F) << uint32(7*i)

		if i >= 5 {
			return 0, ErrVarIntTooBig
		} else if sec&0x80 == 0 {
			break
		}
	}
	return int(int32(n)), nil
}

// ReadVarIntReturnN is like ReadVarInt but also
// returns the number of bytes consumed.
func ReadVarIntReturnN(r io.Reader) (result int, n int, err error) {
	var v uint32
	for i := 0; ; i++ {
		if i >= 5 {
			return 0, n, ErrVarIntTooBig
		}
		sec, err := ReadUint8(r)
		if err != nil {
			return 0, n, err
		}
		n++

		v |= uint32(sec&0x7F) << uint32(7*i)

		if sec&0x80 == 0 {
			break
		}
	}
	return int(int32(v)), n, nil
}

func ReadBool(reader io.Reader) (val bool, err error) {
	uval, err := ReadUint8(reader)
	if err != nil {
		return
	}
	val = uval != 0
	return
}

func ReadInt8(reader io.Reader) (val int8, err error) {
	uval, err := ReadUint8(reader)
	val = int8(uval)
	return
}

func ReadUint8(reader io.Reader) (val uint8, err error) {
	if br, ok := reader.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	_, err = io.ReadFull(reader, b[:1])
	val = b[0]
	return
}

func ReadByte(reader io.Reader) (val byte, err error) {
	return ReadUint8(reader)
}

func ReadInt16(reader io.Reader) (val int16, err error) {
	uval, err := ReadUint16(reader)
	val = int16(uval)
	return
}

func ReadUint16(reader io.Reader) (val uint16, err error) {
	var b [2]byte
	_, err = io.ReadFull(reader, b[:2])
	val = binary.BigEndian.Uint16(b[:2])
	return
}

func ReadInt32(reader io.Reader) (val int32, err error) {
	uval, err := ReadUint32(reader)
	val = int32(uval)
	return
}

func ReadInt(rd io.Reader) (int, error) {
	i, err := ReadInt32(rd)
	return int(i), err
}

func ReadUint32(reader io.Reader) (val uint32, err error) {
	var b [4]byte
	_, err = io.ReadFull(reader, b[:4])
	val = binary.BigEndian.Uint32(b[:4])
	return
}

func ReadInt64(reader io.Reader) (val int64, err error) {
	uval, err := ReadUint64(reader)
	val = int64(uval)
	return
}

func ReadUint64(reader io.Reader) (val uint64, err error) {
	var b [8]byte
	_, err = io.ReadFull(reader, b[:8])
	val = binary.BigEndian.Uint64(b[:8])
	return
}

func ReadFloat32(reader io.Reader) (val float32, err error) {
	ival, err := ReadUint32(reader)
	val = math.Float32frombits(ival)
	return
}

func ReadFloat64(reader io.Reader) (val float64, err error) {
	ival, err := ReadUint64(reader)
	val = math.Float64frombits(ival)
	return
}

// ReadUUID reads an encoded 128-bit UUID
// (two big-endian unsigned 64-bit halves).
func ReadUUID(rd io.Reader) (id uuid.UUID, err error) {
	b := make([]byte, 16)
	_, err = io.ReadFull(rd, b)
	if err != nil {
		return
	}
	return uuid.FromBytes(b)
}

// ReadUTF reads a Java-style UTF string: unsigned 16-bit byte length
// followed by the bytes.
func ReadUTF(rd io.Reader) (string, error) {
	length, err := ReadUint16(rd)
	if err != nil {
		return "", err
	}
	p := make([]byte, length)
	_, err = io.ReadFull(rd, p)
	return string(p), err
}

// ReadUTF16BE reads a big-endian UTF-16 string prefixed with its length
// in characters as an unsigned 16-bit integer. Used by the legacy
// server list ping.
func ReadUTF16BE(rd io.Reader) (string, error) {
	chars, err := ReadUint16(rd)
	if err != nil {
		return "", err
	}
	u := make([]uint16, chars)
	for i := range u {
		u[i], err = ReadUint16(rd)
		if err != nil {
			return "", err
		}
	}
	return string(utf16.Decode(u)), nil
}
