package util

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf16"

	"go.craftchat.dev/craftchat/pkg/util/uuid"
)

func WriteString(writer io.Writer, val string) (err error) {
	return WriteBytes(writer, []byte(val))
}

// WriteVarInt writes a variable length 32-bit integer. Negative values
// shift with zero-fill so they always serialize as the 5 byte
// unsigned-extended form.
func WriteVarInt(writer io.Writer, val int) (err error) {
	uval := uint32(val)
	for uval >= 0x80 {
		err = WriteUint8(writer, byte(uval)|0x80)
		if err != nil {
			return
		}
		uval >>= 7
	}
	err = WriteUint8(writer, byte(uval))
	return
}

// WriteVarIntN is like WriteVarInt but also
// returns the number of bytes written.
func WriteVarIntN(writer io.Writer, val int) (n int, err error) {
	uval := uint32(val)
	for uval >= 0x80 {
		err = WriteUint8(writer, byte(uval)|0x80)
		if err != nil {
			return
		}
		n++
		uval >>= 7
	}
	err = WriteUint8(writer, byte(uval))
	if err == nil {
		n++
	}
	return
}

// AppendVarInt appends the VarInt encoding of val to b.
func AppendVarInt(b []byte, val int) []byte {
	uval := uint32(val)
	for uval >= 0x80 {
		b = append(b, byte(uval)|0x80)
		uval >>= 7
	}
	return append(b, byte(uval))
}

// VarIntBytes returns the number of bytes the VarInt encoding of val uses.
func VarIntBytes(val int) int {
	n := 1
	uval := uint32(val)
	for uval >= 0x80 {
		n++
		uval >>= 7
	}
	return n
}

func WriteBool(writer io.Writer, val bool) (err error) {
	if val {
		return WriteUint8(writer, 1)
	}
	return WriteUint8(writer, 0)
}

// equal to WriteUint8
func WriteInt8(writer io.Writer, val int8) (err error) {
	return WriteUint8(writer, uint8(val))
}

func WriteUint8(writer io.Writer, val uint8) (err error) {
	if bw, ok := writer.(io.ByteWriter); ok {
		return bw.WriteByte(val)
	}
	var b [1]byte
	b[0] = val
	_, err = writer.Write(b[:1])
	return
}

// equal to WriteUint8
func WriteByte(writer io.Writer, val byte) (err error) {
	return WriteUint8(writer, val)
}

func WriteInt16(writer io.Writer, val int16) (err error) {
	return WriteUint16(writer, uint16(val))
}

func WriteUint16(writer io.Writer, val uint16) (err error) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:2], val)
	_, err = writer.Write(b[:2])
	return
}

func WriteInt32(writer io.Writer, val int32) (err error) {
	return WriteUint32(writer, uint32(val))
}

func WriteInt(writer io.Writer, val int) (err error) {
	return WriteInt32(writer, int32(val))
}

func WriteUint32(writer io.Writer, val uint32) (err error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:4], val)
	_, err = writer.Write(b[:4])
	return
}

func WriteInt64(writer io.Writer, val int64) (err error) {
	return WriteUint64(writer, uint64(val))
}

func WriteUint64(writer io.Writer, val uint64) (err error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:8], val)
	_, err = writer.Write(b[:8])
	return
}

func WriteFloat32(writer io.Writer, val float32) (err error) {
	return WriteUint32(writer, math.Float32bits(val))
}

func WriteFloat64(writer io.Writer, val float64) (err error) {
	return WriteUint64(writer, math.Float64bits(val))
}

func WriteBytes(wr io.Writer, b []byte) (err error) {
	err = WriteVarInt(wr, len(b))
	if err != nil {
		return err
	}
	_, err = wr.Write(b)
	return err
}

// WriteRawBytes writes a raw stream of bytes with no length prefix.
func WriteRawBytes(wr io.Writer, b []byte) (err error) {
	_, err = wr.Write(b)
	return err
}

// WriteUUID writes a UUID as an unsigned 128-bit integer
// (two big-endian unsigned 64-bit halves).
func WriteUUID(wr io.Writer, id uuid.UUID) error {
	err := WriteUint64(wr, binary.BigEndian.Uint64(id[:8]))
	if err != nil {
		return err
	}
	return WriteUint64(wr, binary.BigEndian.Uint64(id[8:]))
}

// WriteUTF writes a Java-style UTF string: unsigned 16-bit byte length
// followed by the bytes.
func WriteUTF(wr io.Writer, s string) error {
	err := WriteUint16(wr, uint16(len(s)))
	if err != nil {
		return err
	}
	_, err = wr.Write([]byte(s))
	return err
}

// WriteUTF16BE writes a big-endian UTF-16 string prefixed with its
// length in characters as an unsigned 16-bit integer. Used by the
// legacy server list ping.
func WriteUTF16BE(wr io.Writer, s string) error {
	u := utf16.Encode([]rune(s))
	err := WriteUint16(wr, uint16(len(u)))
	if err != nil {
		return err
	}
	for _, c := range u {
		if err = WriteUint16(wr, c); err != nil {
			return err
		}
	}
	return nil
}
