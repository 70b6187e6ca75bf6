package codec

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"go.craftchat.dev/craftchat/pkg/proto/util"
)

// ParseFrame extracts the next length-prefixed frame from buf without
// consuming from an underlying stream. It returns the frame's payload
// (packet id + data) and the total number of bytes the frame occupies
// in buf. If buf does not yet hold a complete frame, it returns
// (nil, 0, nil) and the caller should read more bytes and retry.
func ParseFrame(buf []byte) (payload []byte, n int, err error) {
	length, vn, err := util.ReadVarIntReturnN(bytes.NewReader(buf))
	if err != nil {
		if errors.Is(err, io.EOF) && len(buf) < 5 {
			return nil, 0, nil // length prefix itself is incomplete
		}
		return nil, 0, fmt.Errorf("error reading frame length varint: %w", err)
	}
	if length < 0 || length > MaxFrameLength {
		return nil, 0, fmt.Errorf("received invalid packet length %d", length)
	}
	if len(buf) < vn+length {
		return nil, 0, nil
	}
	return buf[vn : vn+length], vn + length, nil
}

// ParseCompressedFrame is ParseFrame for a connection with compression
// enabled: the returned payload is decompressed when the frame carries
// a non-zero uncompressed size.
func ParseCompressedFrame(buf []byte, threshold int) (payload []byte, n int, err error) {
	frame, n, err := ParseFrame(buf)
	if err != nil || n == 0 {
		return nil, n, err
	}
	rd := bytes.NewReader(frame)
	claimed, _, err := util.ReadVarIntReturnN(rd)
	if err != nil {
		return nil, n, fmt.Errorf("error reading claimed uncompressed size varint: %w", err)
	}
	if claimed <= 0 {
		if rd.Len() > threshold {
			return nil, n, fmt.Errorf("actual uncompressed size %d is greater than threshold %d",
				rd.Len(), threshold)
		}
		payload = make([]byte, rd.Len())
		_, _ = rd.Read(payload)
		return payload, n, nil
	}
	if claimed > UncompressedCap {
		return nil, n, fmt.Errorf("uncompressed size %d exceeds hard threshold of %d", claimed, UncompressedCap)
	}
	zrd, err := zlib.NewReader(rd)
	if err != nil {
		return nil, n, fmt.Errorf("error decompressing payload: %w", err)
	}
	payload = make([]byte, claimed)
	if _, err = io.ReadFull(zrd, payload); err != nil {
		return nil, n, fmt.Errorf("error decompressing payload: %w", err)
	}
	return payload, n, zrd.Close()
}
